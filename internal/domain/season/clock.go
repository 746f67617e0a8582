package season

import (
	"math"
	"time"
)

// BoundaryLocation is the wall-clock zone the 3 AM day-boundary rule is
// evaluated in. All persisted timestamps are UTC; this conversion only
// happens at the edge of Resolve.
const BoundaryLocation = "America/New_York"

// BoundaryHour is the local hour at which a new game day begins.
const BoundaryHour = 3

// Resolve maps a wall-clock instant and a season's start date to the
// season's current game day, phase, and the number of seconds remaining
// until the next day boundary. It is a pure function: identical inputs
// always produce identical outputs, and it never fails — an unloadable
// time zone database falls back to a fixed UTC-5 offset so the rule
// still holds, it just loses DST precision.
func Resolve(nowUTC time.Time, seasonStartUTC time.Time) (gameDay int, phase Phase, secondsToNextBoundary int) {
	loc, err := time.LoadLocation(BoundaryLocation)
	if err != nil {
		loc = time.FixedZone("America/New_York-fallback", -5*60*60)
	}

	local := nowUTC.In(loc)
	effectiveDay := local
	if local.Hour() < BoundaryHour {
		effectiveDay = local.AddDate(0, 0, -1)
	}
	effectiveDay = time.Date(effectiveDay.Year(), effectiveDay.Month(), effectiveDay.Day(), 0, 0, 0, 0, loc)

	startLocal := seasonStartUTC.In(loc)
	startDay := time.Date(startLocal.Year(), startLocal.Month(), startLocal.Day(), 0, 0, 0, 0, loc)

	daysSince := int(math.Round(effectiveDay.Sub(startDay).Hours() / 24))
	if daysSince < 0 {
		daysSince = 0
	}
	gameDay = (daysSince % CycleDays) + 1
	if gameDay < 1 {
		gameDay = 1
	}
	if gameDay > CycleDays {
		gameDay = CycleDays
	}

	phase = PhaseForDay(gameDay)

	nextBoundary := time.Date(local.Year(), local.Month(), local.Day(), BoundaryHour, 0, 0, 0, loc)
	if !local.Before(nextBoundary) {
		nextBoundary = nextBoundary.AddDate(0, 0, 1)
	}
	secondsToNextBoundary = int(nextBoundary.Sub(local).Seconds())

	return gameDay, phase, secondsToNextBoundary
}
