package scoreboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/Dosada05/score-control/models"
	"github.com/Dosada05/score-control/repositories"
)

// MutateFunc applies one mutation to a match. It must validate before
// writing: on error the state copy is discarded and nothing is committed.
// Timer commands are applied through the Timer, never through the state's
// timer fields (those are derived at snapshot time).
type MutateFunc func(state *models.MatchState, timer *Timer) (models.Change, error)

// CommitFunc observes a committed mutation. It runs inside the match's
// critical section, before the next mutation for that id can commit, so
// notifications leave in exactly the order mutations applied.
type CommitFunc func(state models.MatchState, change models.Change)

// Store is the single owner of all live match state. Mutations for one
// match id are serialized by a per-entry lock; different ids proceed
// independently. When a snapshot repository is configured, every committed
// mutation is written through best-effort and unknown ids are hydrated
// from it on first reference.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	clock  clockwork.Clock
	repo   repositories.MatchStateRepository
	logger *slog.Logger
}

type entry struct {
	mu    sync.Mutex
	state models.MatchState
	timer *Timer
}

// NewStore creates a Store. repo may be nil for memory-only operation.
func NewStore(clock clockwork.Clock, repo repositories.MatchStateRepository, logger *slog.Logger) *Store {
	return &Store{
		entries: make(map[string]*entry),
		clock:   clock,
		repo:    repo,
		logger:  logger,
	}
}

// Get returns a snapshot of the match, creating a default-initialized one
// if the id is unknown. It never fails: when hydration from the snapshot
// repository is temporarily unavailable it serves a default snapshot
// without caching it, so the durable copy is never shadowed.
func (s *Store) Get(ctx context.Context, id string) models.MatchState {
	e, err := s.entryFor(ctx, id)
	if err != nil {
		s.logger.Error("failed to load match snapshot, serving default",
			slog.String("match_id", id), slog.Any("error", err))
		return models.NewMatchState(id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return s.snapshot(e)
}

// View invokes view with a snapshot while holding the match's critical
// section. Anything view does (such as queueing the snapshot to a freshly
// subscribed channel) is therefore ordered against concurrent commits: a
// mutation either shows up in the snapshot or notifies strictly after view
// returns.
func (s *Store) View(ctx context.Context, id string, view func(state models.MatchState)) {
	e, err := s.entryFor(ctx, id)
	if err != nil {
		s.logger.Error("failed to load match snapshot, serving default",
			slog.String("match_id", id), slog.Any("error", err))
		view(models.NewMatchState(id))
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	view(s.snapshot(e))
}

// Mutate applies fn to the match under its exclusive lock and returns the
// resulting snapshot plus fn's change descriptor. On fn error the stored
// state is left exactly as it was and the pre-mutation snapshot is
// returned. commit, when non-nil, runs after a successful commit but
// before the lock is released.
func (s *Store) Mutate(ctx context.Context, id string, fn MutateFunc, commit CommitFunc) (models.MatchState, models.Change, error) {
	e, err := s.entryFor(ctx, id)
	if err != nil {
		// Mutating an unhydrated match would let the write-through wipe
		// the durable snapshot, so the operation fails instead.
		return models.MatchState{}, models.Change{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	// fn works on a copy so a validation failure cannot leave a partial
	// write behind.
	st := e.state
	change, err := fn(&st, e.timer)
	if err != nil {
		return s.snapshot(e), models.Change{}, err
	}

	st.Rev++
	e.state = st
	snap := s.snapshot(e)

	if s.repo != nil {
		if err := s.repo.Upsert(ctx, &snap); err != nil {
			s.logger.Error("failed to persist match snapshot",
				slog.String("match_id", id), slog.Any("error", err))
		}
	}
	if commit != nil {
		commit(snap, change)
	}
	return snap, change, nil
}

// snapshot copies the stored state with the derived timer values filled
// in. Callers must hold e.mu.
func (s *Store) snapshot(e *entry) models.MatchState {
	st := e.state
	st.TimerSecondsRemaining = e.timer.Remaining()
	st.TimerRunning = e.timer.Running()
	return st
}

func (s *Store) entryFor(ctx context.Context, id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return e, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return e, nil
	}

	e = &entry{
		state: models.NewMatchState(id),
		timer: NewTimer(s.clock),
	}
	if s.repo != nil {
		persisted, err := s.repo.Get(ctx, id)
		switch {
		case err == nil:
			// The monotonic anchor cannot survive a restart, so a
			// hydrated timer always comes back stopped at the last
			// persisted remaining value.
			e.state = *persisted
			e.timer.Set(persisted.TimerSecondsRemaining)
		case errors.Is(err, repositories.ErrMatchStateNotFound):
			// Unknown id: the default entry stands.
		default:
			// Transient load failure: do not cache the default, the next
			// access retries hydration.
			return nil, fmt.Errorf("failed to hydrate match %q: %w", id, err)
		}
	}
	s.entries[id] = e
	return e, nil
}
