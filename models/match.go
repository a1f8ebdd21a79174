package models

// Team identifies which side of the match an operation targets.
type Team string

const (
	TeamHome Team = "home"
	TeamAway Team = "away"
)

const (
	DefaultHomeName = "Player 1"
	DefaultAwayName = "Player 2"
)

// MatchState is the full live state of one match. The JSON field names are
// the wire contract shared with the control panel and the overlay, which is
// why match_id and the player ids are snake_case while the score fields are
// camelCase.
type MatchState struct {
	ID                    string `json:"match_id"`
	HomeName              string `json:"homeName"`
	AwayName              string `json:"awayName"`
	HomeScore             int    `json:"homeScore"`
	AwayScore             int    `json:"awayScore"`
	HomeMatchScore        int    `json:"homeMatchScore"`
	AwayMatchScore        int    `json:"awayMatchScore"`
	Period                int    `json:"period"`
	TimerSecondsRemaining int    `json:"timerSecondsRemaining"`
	TimerRunning          bool   `json:"timerRunning"`
	HomePlayerID          *int   `json:"home_player_id,omitempty"`
	AwayPlayerID          *int   `json:"away_player_id,omitempty"`
	Rev                   int64  `json:"rev"`
}

// NewMatchState returns the default state a match starts in.
func NewMatchState(id string) MatchState {
	return MatchState{
		ID:       id,
		HomeName: DefaultHomeName,
		AwayName: DefaultAwayName,
		Period:   1,
	}
}

// Event types pushed over the real-time channel.
const (
	EventState             = "state"
	EventSetup             = "setup"
	EventScoreChanged      = "score_changed"
	EventMatchScoreChanged = "match_score_changed"
	EventPeriodChanged     = "period_changed"
	EventTimerStarted      = "timer_started"
	EventTimerStopped      = "timer_stopped"
	EventPlayerAssigned    = "player_assigned"
	EventReset             = "reset"
)

// Change describes what a successful mutation did. Kind doubles as the
// event type on the real-time channel.
type Change struct {
	Kind     string `json:"kind"`
	Field    string `json:"field,omitempty"`
	Team     Team   `json:"team,omitempty"`
	Delta    int    `json:"delta,omitempty"`
	Period   int    `json:"period,omitempty"`
	Seconds  int    `json:"seconds,omitempty"`
	PlayerID *int   `json:"player_id,omitempty"`
}

// MatchEvent is the message pushed to every subscriber of a match. State is
// always the full snapshot so clients can reconcile with last-write-wins.
type MatchEvent struct {
	Type    string     `json:"type"`
	State   MatchState `json:"state"`
	Changed *Change    `json:"changed,omitempty"`
	TS      int64      `json:"ts"`
}
