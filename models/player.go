package models

// Player is the slice of the external roster this core cares about: an id
// and the display name copied into MatchState at assignment time.
type Player struct {
	ID          int    `json:"id"`
	DisplayName string `json:"display_name"`
}
