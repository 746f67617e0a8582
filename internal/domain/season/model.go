// Package season models the single active league season and the pure
// wall-clock-to-game-day resolution rule the rest of the core relies on.
package season

import "time"

// Phase is the coarse-grain season state.
type Phase string

const (
	PhaseRegular   Phase = "REGULAR"
	PhasePlayoffs  Phase = "PLAYOFFS"
	PhaseOffseason Phase = "OFFSEASON"
)

// CycleDays is the length of one season cycle.
const CycleDays = 17

// Season is the process-wide singleton tracking calendar position.
type Season struct {
	ID           string
	StartDateUTC time.Time
	CurrentDay   int
	Phase        Phase
	Version      int64 // CAS token for C2 writes
}

func (s Season) Validate() error {
	if s.ID == "" {
		return errInvalidSeason("season id is required")
	}
	if s.CurrentDay < 1 || s.CurrentDay > CycleDays {
		return errInvalidSeason("season currentDay must be within [1,17]")
	}
	switch s.Phase {
	case PhaseRegular, PhasePlayoffs, PhaseOffseason:
	default:
		return errInvalidSeason("season phase is invalid")
	}
	return nil
}

type validationError string

func (e validationError) Error() string { return string(e) }

func errInvalidSeason(msg string) error { return validationError(msg) }

// PhaseForDay maps a game day to its phase, per the 14/1/2 split.
func PhaseForDay(day int) Phase {
	switch {
	case day >= 1 && day <= 14:
		return PhaseRegular
	case day == 15:
		return PhasePlayoffs
	default:
		return PhaseOffseason
	}
}
