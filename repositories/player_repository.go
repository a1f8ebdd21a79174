package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/Dosada05/score-control/models"
)

var ErrPlayerNotFound = errors.New("player not found")

// PlayerRepository is the read side of the external roster collaborator:
// the core only ever resolves a player id to a display name at assignment
// time. Roster management lives elsewhere.
type PlayerRepository interface {
	GetByID(ctx context.Context, id int) (*models.Player, error)
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT id, display_name FROM players WHERE id = $1`

	player := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&player.ID, &player.DisplayName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan player %d: %w", id, err)
	}
	return player, nil
}

// InMemoryPlayerRepository serves the database-less trusted-LAN mode,
// seeded from a players file at startup.
type InMemoryPlayerRepository struct {
	mu      sync.RWMutex
	players map[int]models.Player
}

func NewInMemoryPlayerRepository(players ...models.Player) *InMemoryPlayerRepository {
	r := &InMemoryPlayerRepository{players: make(map[int]models.Player, len(players))}
	for _, p := range players {
		r.players[p.ID] = p
	}
	return r
}

func (r *InMemoryPlayerRepository) GetByID(_ context.Context, id int) (*models.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}
	return &p, nil
}

func (r *InMemoryPlayerRepository) Add(p models.Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[p.ID] = p
}
