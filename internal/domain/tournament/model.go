// Package tournament models the two tournament types as tagged variants
// of a single entity, per the spec's "no class hierarchy required"
// design note: a resolver maps a Type to its per-type parameters
// (size, fees, eligibility, payout shape) instead of subclassing.
package tournament

import (
	"fmt"
	"time"
)

type Type string

const (
	TypeDailyDivisionalCup Type = "DAILY_DIVISIONAL_CUP"
	TypeMidSeasonClassic   Type = "MID_SEASON_CLASSIC"
)

type Status string

const (
	StatusRegistrationOpen Status = "REGISTRATION_OPEN"
	StatusInProgress       Status = "IN_PROGRESS"
	StatusCompleted        Status = "COMPLETED"
	StatusCancelled        Status = "CANCELLED"
)

// Tournament is one instance of either variant.
type Tournament struct {
	ID                   string
	Type                 Type
	Division             *int // nil for MID_SEASON_CLASSIC (all divisions)
	MaxParticipants      int
	Status               Status
	RegistrationDeadline time.Time
	StartTime            time.Time
	PrizePoolCredits     int64
	RequiresEntryItem    bool
	EntryFeeCredits      int64
	EntryFeeGems         int64
	CurrentRound         int
	Version              int64
}

func (t Tournament) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("tournament id is required")
	}
	switch t.Type {
	case TypeDailyDivisionalCup, TypeMidSeasonClassic:
	default:
		return fmt.Errorf("tournament type is invalid: %q", t.Type)
	}
	if t.Type == TypeDailyDivisionalCup && t.Division == nil {
		return fmt.Errorf("daily divisional cup requires a division")
	}
	if t.MaxParticipants < 2 {
		return fmt.Errorf("tournament maxParticipants must be >= 2")
	}
	return nil
}

// Entry is one team's registration in a tournament.
type Entry struct {
	ID           string
	TournamentID string
	TeamID       string
	FinalRank    *int
	Paid         bool
	IsAIFill     bool
	Seed         int
}

// Params are the per-variant constants a resolver hands back: the
// spec's "dynamic dispatch... express as tagged variants with a single
// resolver that returns per-type parameters" design note.
type Params struct {
	Size              int
	Rounds            int
	EntryFeeCredits   int64
	EntryFeeGems      int64
	RequiresEntryItem bool
	AllDivisions      bool
}

// ResolveParams returns the fixed parameters for a tournament type,
// given the configurable cup/classic sizes.
func ResolveParams(t Type, dailyCupSize, midSeasonCupSize int) Params {
	switch t {
	case TypeMidSeasonClassic:
		return Params{
			Size:            midSeasonCupSize,
			Rounds:          roundsForSize(midSeasonCupSize),
			EntryFeeCredits: 10_000,
			EntryFeeGems:    20,
			AllDivisions:    true,
		}
	default: // TypeDailyDivisionalCup
		return Params{
			Size:              dailyCupSize,
			Rounds:            roundsForSize(dailyCupSize),
			RequiresEntryItem: true,
		}
	}
}

func roundsForSize(size int) int {
	rounds := 0
	for n := size; n > 1; n /= 2 {
		rounds++
	}
	return rounds
}

// PrizeDistribution is the fraction of the pool paid to 1st/2nd/3rd.
var PrizeDistribution = [3]float64{0.5, 0.3, 0.2}
