package services

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/score-control/models"
	"github.com/Dosada05/score-control/repositories"
	"github.com/Dosada05/score-control/scoreboard"
)

// recordingPublisher captures published events instead of fanning them out.
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.MatchEvent
}

func (p *recordingPublisher) Publish(_ string, event models.MatchEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) all() []models.MatchEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.MatchEvent(nil), p.events...)
}

func (p *recordingPublisher) last(t *testing.T) models.MatchEvent {
	t.Helper()
	events := p.all()
	require.NotEmpty(t, events)
	return events[len(events)-1]
}

type fixture struct {
	service MatchService
	clock   *clockwork.FakeClock
	pub     *recordingPublisher
	players *repositories.InMemoryPlayerRepository
}

func newFixture(t *testing.T, resetClearsPlayers bool) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := clockwork.NewFakeClock()
	store := scoreboard.NewStore(clock, nil, logger)
	pub := &recordingPublisher{}
	players := repositories.NewInMemoryPlayerRepository()
	return &fixture{
		service: NewMatchService(store, players, pub, clock, resetClearsPlayers, logger),
		clock:   clock,
		pub:     pub,
		players: players,
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestSetupIsPartialUpdate(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.service.Setup(ctx, "m", SetupInput{
		HomeName: strPtr("Alice"),
		AwayName: strPtr("Bob"),
	})
	require.NoError(t, err)

	_, err = f.service.AdjustScore(ctx, "m", models.TeamHome, 1)
	require.NoError(t, err)

	// Only the period is provided: everything else must survive.
	state, err := f.service.Setup(ctx, "m", SetupInput{Period: intPtr(3)})
	require.NoError(t, err)

	assert.Equal(t, "Alice", state.HomeName)
	assert.Equal(t, "Bob", state.AwayName)
	assert.Equal(t, 1, state.HomeScore)
	assert.Equal(t, 3, state.Period)
}

func TestSetupBlankNameFallsBackToDefault(t *testing.T) {
	f := newFixture(t, false)

	state, err := f.service.Setup(context.Background(), "m", SetupInput{
		HomeName: strPtr("   "),
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultHomeName, state.HomeName)
}

func TestSetupRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.service.Setup(ctx, "m", SetupInput{Period: intPtr(0)})
	assert.ErrorIs(t, err, ErrPeriodTooLow)

	_, err = f.service.Setup(ctx, "m", SetupInput{TimerSeconds: intPtr(-1)})
	assert.ErrorIs(t, err, ErrTimerNegative)

	long := make([]byte, 51)
	for i := range long {
		long[i] = 'x'
	}
	_, err = f.service.Setup(ctx, "m", SetupInput{HomeName: strPtr(string(long))})
	assert.ErrorIs(t, err, ErrNameTooLong)

	assert.Empty(t, f.pub.all(), "rejected setups must not broadcast")
}

func TestAdjustScoreIncrementsAndPublishes(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	state, err := f.service.AdjustScore(ctx, "m", models.TeamHome, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, state.HomeScore)
	assert.Equal(t, 0, state.AwayScore)

	event := f.pub.last(t)
	assert.Equal(t, models.EventScoreChanged, event.Type)
	assert.Equal(t, 1, event.State.HomeScore)
	require.NotNil(t, event.Changed)
	assert.Equal(t, models.TeamHome, event.Changed.Team)
	assert.Equal(t, 1, event.Changed.Delta)
}

func TestAdjustScoreRejectsDecrementBelowZero(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	before := f.service.State(ctx, "m")
	_, err := f.service.AdjustScore(ctx, "m", models.TeamAway, -1)

	assert.ErrorIs(t, err, ErrScoreBelowZero)
	assert.Equal(t, before, f.service.State(ctx, "m"), "rejected op must not mutate")
	assert.Empty(t, f.pub.all())
}

func TestAdjustScoreValidatesTeamAndDelta(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.service.AdjustScore(ctx, "m", models.Team("neutral"), 1)
	assert.ErrorIs(t, err, ErrUnknownTeam)

	_, err = f.service.AdjustScore(ctx, "m", models.TeamHome, 2)
	assert.ErrorIs(t, err, ErrInvalidDelta)
}

func TestAdjustMatchScoreFloorsAtZero(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	state, err := f.service.AdjustMatchScore(ctx, "m", models.TeamHome, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, state.HomeMatchScore)

	_, err = f.service.AdjustMatchScore(ctx, "m", models.TeamAway, -1)
	assert.ErrorIs(t, err, ErrMatchScoreBelowZero)

	event := f.pub.last(t)
	assert.Equal(t, models.EventMatchScoreChanged, event.Type)
}

func TestSetPeriodRejectsBelowOne(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	state, err := f.service.SetPeriod(ctx, "m", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, state.Period)

	_, err = f.service.SetPeriod(ctx, "m", 0)
	assert.ErrorIs(t, err, ErrPeriodTooLow)
}

func TestTimerLifecycle(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.service.SetTimer(ctx, "m", 600)
	require.NoError(t, err)

	state, err := f.service.StartTimer(ctx, "m")
	require.NoError(t, err)
	assert.True(t, state.TimerRunning)
	assert.Equal(t, models.EventTimerStarted, f.pub.last(t).Type)

	f.clock.Advance(5 * time.Second)
	assert.Equal(t, 595, f.service.State(ctx, "m").TimerSecondsRemaining)

	state, err = f.service.StopTimer(ctx, "m")
	require.NoError(t, err)
	assert.False(t, state.TimerRunning)
	assert.Equal(t, 595, state.TimerSecondsRemaining)
	assert.Equal(t, models.EventTimerStopped, f.pub.last(t).Type)
}

func TestStartTimerTwiceRebroadcastsState(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.service.StartTimer(ctx, "m")
	require.NoError(t, err)
	_, err = f.service.StartTimer(ctx, "m")
	require.NoError(t, err)

	events := f.pub.all()
	require.Len(t, events, 2)
	assert.Equal(t, models.EventTimerStarted, events[0].Type)
	assert.Equal(t, models.EventState, events[1].Type)
}

func TestStopTimerWhenStoppedIsSilent(t *testing.T) {
	f := newFixture(t, false)

	state, err := f.service.StopTimer(context.Background(), "m")
	require.NoError(t, err)
	assert.False(t, state.TimerRunning)
	assert.Empty(t, f.pub.all())
}

func TestSetTimerWhileRunningKeepsItRunning(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.service.SetTimer(ctx, "m", 600)
	require.NoError(t, err)
	_, err = f.service.StartTimer(ctx, "m")
	require.NoError(t, err)
	f.clock.Advance(10 * time.Second)

	state, err := f.service.SetTimer(ctx, "m", 300)
	require.NoError(t, err)
	assert.True(t, state.TimerRunning)
	assert.Equal(t, 300, state.TimerSecondsRemaining)

	_, err = f.service.SetTimer(ctx, "m", -5)
	assert.ErrorIs(t, err, ErrTimerNegative)
}

func TestAssignPlayerCopiesDisplayName(t *testing.T) {
	f := newFixture(t, false)
	f.players.Add(models.Player{ID: 7, DisplayName: "E. Kuznetsov"})
	ctx := context.Background()

	state, err := f.service.AssignPlayer(ctx, "m", 7, models.TeamHome)
	require.NoError(t, err)
	assert.Equal(t, "E. Kuznetsov", state.HomeName)
	require.NotNil(t, state.HomePlayerID)
	assert.Equal(t, 7, *state.HomePlayerID)

	event := f.pub.last(t)
	assert.Equal(t, models.EventPlayerAssigned, event.Type)
}

func TestAssignUnknownPlayerRejected(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.service.AssignPlayer(context.Background(), "m", 999, models.TeamAway)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
	assert.Empty(t, f.pub.all())
}

func TestResetRestoresDefaultsButKeepsPlayers(t *testing.T) {
	f := newFixture(t, false)
	f.players.Add(models.Player{ID: 1, DisplayName: "Alice"})
	ctx := context.Background()

	_, err := f.service.AssignPlayer(ctx, "m", 1, models.TeamHome)
	require.NoError(t, err)
	_, err = f.service.AdjustScore(ctx, "m", models.TeamHome, 1)
	require.NoError(t, err)
	_, err = f.service.AdjustMatchScore(ctx, "m", models.TeamHome, 1)
	require.NoError(t, err)
	_, err = f.service.SetPeriod(ctx, "m", 4)
	require.NoError(t, err)
	_, err = f.service.SetTimer(ctx, "m", 120)
	require.NoError(t, err)
	_, err = f.service.StartTimer(ctx, "m")
	require.NoError(t, err)

	state, err := f.service.Reset(ctx, "m")
	require.NoError(t, err)

	assert.Equal(t, 0, state.HomeScore)
	assert.Equal(t, 0, state.AwayScore)
	assert.Equal(t, 0, state.HomeMatchScore)
	assert.Equal(t, 0, state.AwayMatchScore)
	assert.Equal(t, 1, state.Period)
	assert.Equal(t, 0, state.TimerSecondsRemaining)
	assert.False(t, state.TimerRunning)

	// Default mode keeps the operator's player assignments.
	assert.Equal(t, "Alice", state.HomeName)
	require.NotNil(t, state.HomePlayerID)
	assert.Equal(t, models.EventReset, f.pub.last(t).Type)
}

func TestResetClearsPlayersWhenConfigured(t *testing.T) {
	f := newFixture(t, true)
	f.players.Add(models.Player{ID: 1, DisplayName: "Alice"})
	ctx := context.Background()

	_, err := f.service.AssignPlayer(ctx, "m", 1, models.TeamHome)
	require.NoError(t, err)

	state, err := f.service.Reset(ctx, "m")
	require.NoError(t, err)

	assert.Nil(t, state.HomePlayerID)
	assert.Equal(t, models.DefaultHomeName, state.HomeName)
	assert.Equal(t, models.DefaultAwayName, state.AwayName)
}

func TestConcurrentMutationsPublishInCommitOrder(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	// Publishing happens inside the match's commit section, so even under
	// contention no subscriber can see rev k+1 before rev k.
	const workers = 50
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := f.service.AdjustScore(ctx, "m", models.TeamHome, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	events := f.pub.all()
	require.Len(t, events, workers)
	for i, event := range events {
		assert.EqualValues(t, i+1, event.State.Rev, "event delivered out of commit order")
		assert.Equal(t, i+1, event.State.HomeScore)
	}
}

func TestEventStatesFollowMutationOrder(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.service.AdjustScore(ctx, "m", models.TeamHome, 1)
		require.NoError(t, err)
	}

	events := f.pub.all()
	require.Len(t, events, 5)
	for i, event := range events {
		assert.Equal(t, i+1, event.State.HomeScore)
		assert.EqualValues(t, i+1, event.State.Rev)
	}
}
