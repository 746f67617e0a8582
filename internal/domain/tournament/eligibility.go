package tournament

// Reason is the machine-readable code surfaced verbatim to HTTP callers
// when an entry attempt is rejected. Modeled as a sum-type result
// rather than a thrown exception, per the design note on "exceptions
// used for control flow" — the HTTP mapping stays mechanical.
type Reason string

const (
	ReasonWrongDivision      Reason = "WRONG_DIVISION"
	ReasonInsufficientCreds  Reason = "INSUFFICIENT_CREDITS"
	ReasonInsufficientGems   Reason = "INSUFFICIENT_GEMS"
	ReasonRegistrationClosed Reason = "REGISTRATION_CLOSED"
	ReasonAlreadyEntered     Reason = "ALREADY_ENTERED"
	ReasonMissingEntryItem   Reason = "MISSING_ENTRY_ITEM"
	ReasonTournamentFull     Reason = "TOURNAMENT_FULL"
)

// EligibilityResult is either eligible, or carries the single most
// relevant rejection reason.
type EligibilityResult struct {
	Eligible bool
	Reason   Reason
}

func eligible() EligibilityResult { return EligibilityResult{Eligible: true} }

func notEligible(reason Reason) EligibilityResult {
	return EligibilityResult{Eligible: false, Reason: reason}
}

// EntrantCandidate is the information needed to judge one team's
// eligibility; it deliberately only carries scalar fields so this
// function stays pure and testable without a store round trip.
type EntrantCandidate struct {
	TeamDivision   int
	TeamCredits    int64
	TeamGems       int64
	HasEntryItem   bool
	AlreadyEntered bool
	Now            int64 // unix seconds, compared against RegistrationDeadline
	CurrentEntries int
}

// CheckEligibility is the pure eligibility predicate referenced by the
// tournament params resolver: it evaluates every rule in spec order and
// returns the first violation encountered.
func CheckEligibility(t Tournament, c EntrantCandidate) EligibilityResult {
	if t.Status != StatusRegistrationOpen || c.Now > t.RegistrationDeadline.Unix() {
		return notEligible(ReasonRegistrationClosed)
	}
	if c.AlreadyEntered {
		return notEligible(ReasonAlreadyEntered)
	}
	if t.Division != nil && *t.Division != c.TeamDivision {
		return notEligible(ReasonWrongDivision)
	}
	if c.TeamCredits < t.EntryFeeCredits {
		return notEligible(ReasonInsufficientCreds)
	}
	if c.TeamGems < t.EntryFeeGems {
		return notEligible(ReasonInsufficientGems)
	}
	if t.RequiresEntryItem && !c.HasEntryItem {
		return notEligible(ReasonMissingEntryItem)
	}
	if c.CurrentEntries >= t.MaxParticipants {
		return notEligible(ReasonTournamentFull)
	}
	return eligible()
}
