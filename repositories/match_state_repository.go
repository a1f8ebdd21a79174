package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/score-control/models"
)

var ErrMatchStateNotFound = errors.New("match state not found")

// MatchStateRepository persists point-in-time snapshots of match state so a
// restarted server comes back with the last committed scores. It is a
// write-through cache backing, not a source of truth while running.
type MatchStateRepository interface {
	Get(ctx context.Context, id string) (*models.MatchState, error)
	Upsert(ctx context.Context, state *models.MatchState) error
}

type postgresMatchStateRepository struct {
	db *sql.DB
}

func NewPostgresMatchStateRepository(db *sql.DB) MatchStateRepository {
	return &postgresMatchStateRepository{db: db}
}

func (r *postgresMatchStateRepository) Get(ctx context.Context, id string) (*models.MatchState, error) {
	query := `
		SELECT id, home_name, away_name, home_score, away_score,
		       home_match_score, away_match_score, period,
		       timer_seconds_remaining, home_player_id, away_player_id, rev
		FROM match_states
		WHERE id = $1`

	state := &models.MatchState{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&state.ID,
		&state.HomeName,
		&state.AwayName,
		&state.HomeScore,
		&state.AwayScore,
		&state.HomeMatchScore,
		&state.AwayMatchScore,
		&state.Period,
		&state.TimerSecondsRemaining,
		&state.HomePlayerID,
		&state.AwayPlayerID,
		&state.Rev,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchStateNotFound
		}
		return nil, fmt.Errorf("failed to scan match state %q: %w", id, err)
	}
	return state, nil
}

func (r *postgresMatchStateRepository) Upsert(ctx context.Context, state *models.MatchState) error {
	// timer_running is deliberately not stored: the monotonic anchor does
	// not survive a restart, so a timer always hydrates stopped at the
	// persisted remaining seconds.
	query := `
		INSERT INTO match_states
			(id, home_name, away_name, home_score, away_score,
			 home_match_score, away_match_score, period,
			 timer_seconds_remaining, home_player_id, away_player_id, rev,
			 updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (id) DO UPDATE SET
			home_name               = EXCLUDED.home_name,
			away_name               = EXCLUDED.away_name,
			home_score              = EXCLUDED.home_score,
			away_score              = EXCLUDED.away_score,
			home_match_score        = EXCLUDED.home_match_score,
			away_match_score        = EXCLUDED.away_match_score,
			period                  = EXCLUDED.period,
			timer_seconds_remaining = EXCLUDED.timer_seconds_remaining,
			home_player_id          = EXCLUDED.home_player_id,
			away_player_id          = EXCLUDED.away_player_id,
			rev                     = EXCLUDED.rev,
			updated_at              = now()`

	_, err := r.db.ExecContext(ctx, query,
		state.ID,
		state.HomeName,
		state.AwayName,
		state.HomeScore,
		state.AwayScore,
		state.HomeMatchScore,
		state.AwayMatchScore,
		state.Period,
		state.TimerSecondsRemaining,
		state.HomePlayerID,
		state.AwayPlayerID,
		state.Rev,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert match state %q: %w", state.ID, err)
	}
	return nil
}
