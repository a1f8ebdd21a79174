package services

import "errors"

// Sentinel errors shared between the service layer and the HTTP mapping.
var (
	// Validation failures: malformed or out-of-range input.
	ErrUnknownTeam   = errors.New("team must be \"home\" or \"away\"")
	ErrInvalidDelta  = errors.New("delta must be +1 or -1")
	ErrPeriodTooLow  = errors.New("period must be at least 1")
	ErrTimerNegative = errors.New("timer seconds must not be negative")
	ErrNameTooLong   = errors.New("name must be at most 50 characters")

	// Conflicts: the operation would break an invariant. Kept distinct
	// from validation so the control panel can disable the button instead
	// of showing an error toast.
	ErrScoreBelowZero      = errors.New("score is already at zero")
	ErrMatchScoreBelowZero = errors.New("match score is already at zero")

	// Unknown references.
	ErrPlayerNotFound = errors.New("player not found")
)
