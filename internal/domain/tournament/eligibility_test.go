package tournament

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func baseTournament() Tournament {
	div := 3
	return Tournament{
		ID:                   "t1",
		Type:                 TypeDailyDivisionalCup,
		Division:             &div,
		MaxParticipants:      8,
		Status:               StatusRegistrationOpen,
		RegistrationDeadline: time.Unix(1_000_000, 0),
		EntryFeeCredits:      500,
		EntryFeeGems:         5,
		RequiresEntryItem:    true,
	}
}

func TestCheckEligibility_Eligible(t *testing.T) {
	result := CheckEligibility(baseTournament(), EntrantCandidate{
		TeamDivision: 3, TeamCredits: 1000, TeamGems: 10, HasEntryItem: true, Now: 900_000,
	})
	assert.True(t, result.Eligible)
}

func TestCheckEligibility_RejectsInPriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		c    EntrantCandidate
		want Reason
	}{
		{"closed", EntrantCandidate{TeamDivision: 3, TeamCredits: 1000, TeamGems: 10, HasEntryItem: true, Now: 2_000_000}, ReasonRegistrationClosed},
		{"already entered", EntrantCandidate{TeamDivision: 3, TeamCredits: 1000, TeamGems: 10, HasEntryItem: true, Now: 900_000, AlreadyEntered: true}, ReasonAlreadyEntered},
		{"wrong division", EntrantCandidate{TeamDivision: 4, TeamCredits: 1000, TeamGems: 10, HasEntryItem: true, Now: 900_000}, ReasonWrongDivision},
		{"insufficient credits", EntrantCandidate{TeamDivision: 3, TeamCredits: 100, TeamGems: 10, HasEntryItem: true, Now: 900_000}, ReasonInsufficientCreds},
		{"insufficient gems", EntrantCandidate{TeamDivision: 3, TeamCredits: 1000, TeamGems: 1, HasEntryItem: true, Now: 900_000}, ReasonInsufficientGems},
		{"missing entry item", EntrantCandidate{TeamDivision: 3, TeamCredits: 1000, TeamGems: 10, HasEntryItem: false, Now: 900_000}, ReasonMissingEntryItem},
		{"full", EntrantCandidate{TeamDivision: 3, TeamCredits: 1000, TeamGems: 10, HasEntryItem: true, Now: 900_000, CurrentEntries: 8}, ReasonTournamentFull},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckEligibility(baseTournament(), tt.c)
			assert.False(t, result.Eligible)
			assert.Equal(t, tt.want, result.Reason)
		})
	}
}

func TestResolveParams_DailyCupRequiresEntryItem(t *testing.T) {
	p := ResolveParams(TypeDailyDivisionalCup, 8, 64)
	assert.Equal(t, 8, p.Size)
	assert.Equal(t, 3, p.Rounds)
	assert.True(t, p.RequiresEntryItem)
	assert.False(t, p.AllDivisions)
}

func TestResolveParams_MidSeasonClassicAllDivisions(t *testing.T) {
	p := ResolveParams(TypeMidSeasonClassic, 8, 64)
	assert.Equal(t, 64, p.Size)
	assert.Equal(t, 6, p.Rounds)
	assert.True(t, p.AllDivisions)
	assert.False(t, p.RequiresEntryItem)
}
