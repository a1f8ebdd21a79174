package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/Dosada05/score-control/models"
	"github.com/Dosada05/score-control/repositories"
	"github.com/Dosada05/score-control/scoreboard"
)

const maxNameLength = 50

// Publisher pushes a state-changed event to every subscriber of a match.
type Publisher interface {
	Publish(matchID string, event models.MatchEvent)
}

// SetupInput is a partial update: nil fields keep their current values.
type SetupInput struct {
	HomeName     *string
	AwayName     *string
	Period       *int
	TimerSeconds *int
}

// MatchService is the operation vocabulary of the scoreboard. Every
// successful mutation returns the resulting full state and broadcasts it;
// failed validation mutates nothing and broadcasts nothing.
type MatchService interface {
	State(ctx context.Context, matchID string) models.MatchState
	Setup(ctx context.Context, matchID string, input SetupInput) (models.MatchState, error)
	AdjustScore(ctx context.Context, matchID string, team models.Team, delta int) (models.MatchState, error)
	AdjustMatchScore(ctx context.Context, matchID string, team models.Team, delta int) (models.MatchState, error)
	SetPeriod(ctx context.Context, matchID string, period int) (models.MatchState, error)
	StartTimer(ctx context.Context, matchID string) (models.MatchState, error)
	StopTimer(ctx context.Context, matchID string) (models.MatchState, error)
	SetTimer(ctx context.Context, matchID string, seconds int) (models.MatchState, error)
	AssignPlayer(ctx context.Context, matchID string, playerID int, team models.Team) (models.MatchState, error)
	Reset(ctx context.Context, matchID string) (models.MatchState, error)
}

type matchService struct {
	store              *scoreboard.Store
	players            repositories.PlayerRepository
	hub                Publisher
	clock              clockwork.Clock
	resetClearsPlayers bool
	logger             *slog.Logger
}

func NewMatchService(
	store *scoreboard.Store,
	players repositories.PlayerRepository,
	hub Publisher,
	clock clockwork.Clock,
	resetClearsPlayers bool,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		store:              store,
		players:            players,
		hub:                hub,
		clock:              clock,
		resetClearsPlayers: resetClearsPlayers,
		logger:             logger,
	}
}

func (s *matchService) State(ctx context.Context, matchID string) models.MatchState {
	return s.store.Get(ctx, matchID)
}

func (s *matchService) Setup(ctx context.Context, matchID string, input SetupInput) (models.MatchState, error) {
	homeName, err := normalizeName(input.HomeName, models.DefaultHomeName)
	if err != nil {
		return models.MatchState{}, err
	}
	awayName, err := normalizeName(input.AwayName, models.DefaultAwayName)
	if err != nil {
		return models.MatchState{}, err
	}
	if input.Period != nil && *input.Period < 1 {
		return models.MatchState{}, ErrPeriodTooLow
	}
	if input.TimerSeconds != nil && *input.TimerSeconds < 0 {
		return models.MatchState{}, ErrTimerNegative
	}

	return s.mutateAndPublish(ctx, matchID, func(st *models.MatchState, timer *scoreboard.Timer) (models.Change, error) {
		if homeName != nil {
			st.HomeName = *homeName
		}
		if awayName != nil {
			st.AwayName = *awayName
		}
		if input.Period != nil {
			st.Period = *input.Period
		}
		if input.TimerSeconds != nil {
			timer.Set(*input.TimerSeconds)
		}
		return models.Change{Kind: models.EventSetup, Field: "setup"}, nil
	})
}

func (s *matchService) AdjustScore(ctx context.Context, matchID string, team models.Team, delta int) (models.MatchState, error) {
	if err := validateTeamDelta(team, delta); err != nil {
		return models.MatchState{}, err
	}

	return s.mutateAndPublish(ctx, matchID, func(st *models.MatchState, _ *scoreboard.Timer) (models.Change, error) {
		target := &st.HomeScore
		if team == models.TeamAway {
			target = &st.AwayScore
		}
		if *target+delta < 0 {
			return models.Change{}, ErrScoreBelowZero
		}
		*target += delta
		return models.Change{Kind: models.EventScoreChanged, Field: "score", Team: team, Delta: delta}, nil
	})
}

func (s *matchService) AdjustMatchScore(ctx context.Context, matchID string, team models.Team, delta int) (models.MatchState, error) {
	if err := validateTeamDelta(team, delta); err != nil {
		return models.MatchState{}, err
	}

	return s.mutateAndPublish(ctx, matchID, func(st *models.MatchState, _ *scoreboard.Timer) (models.Change, error) {
		target := &st.HomeMatchScore
		if team == models.TeamAway {
			target = &st.AwayMatchScore
		}
		if *target+delta < 0 {
			return models.Change{}, ErrMatchScoreBelowZero
		}
		*target += delta
		return models.Change{Kind: models.EventMatchScoreChanged, Field: "match_score", Team: team, Delta: delta}, nil
	})
}

func (s *matchService) SetPeriod(ctx context.Context, matchID string, period int) (models.MatchState, error) {
	if period < 1 {
		return models.MatchState{}, ErrPeriodTooLow
	}

	return s.mutateAndPublish(ctx, matchID, func(st *models.MatchState, _ *scoreboard.Timer) (models.Change, error) {
		st.Period = period
		return models.Change{Kind: models.EventPeriodChanged, Field: "period", Period: period}, nil
	})
}

func (s *matchService) StartTimer(ctx context.Context, matchID string) (models.MatchState, error) {
	return s.mutateAndPublish(ctx, matchID, func(st *models.MatchState, timer *scoreboard.Timer) (models.Change, error) {
		if !timer.Start() {
			// Already running: re-broadcast the current state so a late
			// joiner's control panel converges anyway.
			return models.Change{Kind: models.EventState}, nil
		}
		return models.Change{Kind: models.EventTimerStarted, Field: "timer"}, nil
	})
}

func (s *matchService) StopTimer(ctx context.Context, matchID string) (models.MatchState, error) {
	return s.mutateAndPublish(ctx, matchID, func(st *models.MatchState, timer *scoreboard.Timer) (models.Change, error) {
		if !timer.Stop() {
			return models.Change{}, nil
		}
		return models.Change{Kind: models.EventTimerStopped, Field: "timer"}, nil
	})
}

func (s *matchService) SetTimer(ctx context.Context, matchID string, seconds int) (models.MatchState, error) {
	if seconds < 0 {
		return models.MatchState{}, ErrTimerNegative
	}

	return s.mutateAndPublish(ctx, matchID, func(st *models.MatchState, timer *scoreboard.Timer) (models.Change, error) {
		timer.Set(seconds)
		return models.Change{Kind: models.EventState, Field: "timer", Seconds: seconds}, nil
	})
}

func (s *matchService) AssignPlayer(ctx context.Context, matchID string, playerID int, team models.Team) (models.MatchState, error) {
	if team != models.TeamHome && team != models.TeamAway {
		return models.MatchState{}, ErrUnknownTeam
	}

	player, err := s.players.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return models.MatchState{}, fmt.Errorf("%w: id %d", ErrPlayerNotFound, playerID)
		}
		s.logger.Error("player lookup failed",
			slog.Int("player_id", playerID), slog.Any("error", err))
		return models.MatchState{}, fmt.Errorf("failed to look up player %d: %w", playerID, err)
	}

	return s.mutateAndPublish(ctx, matchID, func(st *models.MatchState, _ *scoreboard.Timer) (models.Change, error) {
		id := player.ID
		if team == models.TeamHome {
			st.HomePlayerID = &id
			st.HomeName = player.DisplayName
		} else {
			st.AwayPlayerID = &id
			st.AwayName = player.DisplayName
		}
		return models.Change{Kind: models.EventPlayerAssigned, Field: "player", Team: team, PlayerID: &id}, nil
	})
}

func (s *matchService) Reset(ctx context.Context, matchID string) (models.MatchState, error) {
	return s.mutateAndPublish(ctx, matchID, func(st *models.MatchState, timer *scoreboard.Timer) (models.Change, error) {
		st.HomeScore = 0
		st.AwayScore = 0
		st.HomeMatchScore = 0
		st.AwayMatchScore = 0
		st.Period = 1
		timer.Set(0)
		timer.Stop()
		if s.resetClearsPlayers {
			st.HomePlayerID = nil
			st.AwayPlayerID = nil
			st.HomeName = models.DefaultHomeName
			st.AwayName = models.DefaultAwayName
		}
		return models.Change{Kind: models.EventReset, Field: "reset"}, nil
	})
}

// mutateAndPublish commits fn through the store and fans the result out to
// the match's subscribers. Publishing happens inside the store's commit
// section so subscribers observe events in exactly the order mutations
// applied. An empty change kind means the mutation was a no-op that should
// not be broadcast.
func (s *matchService) mutateAndPublish(ctx context.Context, matchID string, fn scoreboard.MutateFunc) (models.MatchState, error) {
	state, _, err := s.store.Mutate(ctx, matchID, fn, func(snap models.MatchState, change models.Change) {
		if change.Kind == "" {
			return
		}
		event := models.MatchEvent{
			Type:  change.Kind,
			State: snap,
			TS:    s.clock.Now().UnixMilli(),
		}
		if change.Kind != models.EventState {
			event.Changed = &change
		}
		s.hub.Publish(matchID, event)
	})
	if err != nil {
		return models.MatchState{}, err
	}
	return state, nil
}

func validateTeamDelta(team models.Team, delta int) error {
	if team != models.TeamHome && team != models.TeamAway {
		return ErrUnknownTeam
	}
	if delta != 1 && delta != -1 {
		return ErrInvalidDelta
	}
	return nil
}

// normalizeName trims a provided name, falling back to the default when
// the operator submits an empty field. nil means "not provided".
func normalizeName(name *string, fallback string) (*string, error) {
	if name == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*name)
	if trimmed == "" {
		trimmed = fallback
	}
	if len(trimmed) > maxNameLength {
		return nil, ErrNameTooLong
	}
	return &trimmed, nil
}
