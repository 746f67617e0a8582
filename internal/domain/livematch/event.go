// Package livematch models the in-memory, non-persisted state of one
// running match tick loop and the events it emits to the event bus.
package livematch

// EventType enumerates every distinct event a tick can emit.
type EventType string

const (
	EventScore             EventType = "SCORE"
	EventInjury            EventType = "INJURY"
	EventMajorTackle       EventType = "MAJOR_TACKLE"
	EventInterception      EventType = "INTERCEPTION"
	EventScoreAttempt      EventType = "SCORE_ATTEMPT"
	EventHalftime          EventType = "HALFTIME"
	EventFinalWhistle      EventType = "FINAL_WHISTLE"
	EventSuccessfulPassing EventType = "SUCCESSFUL_PASS_SCORING"
	EventDefensiveStop     EventType = "DEFENSIVE_STOP"
	EventPassAttempt       EventType = "PASS_ATTEMPT"
	EventScrum             EventType = "SCRUM"
	EventSubstitution      EventType = "SUBSTITUTION"
	EventRoutinePlay       EventType = "ROUTINE_PLAY"
	EventRegularPass       EventType = "REGULAR_PASS"
	EventStandardMovement  EventType = "STANDARD_MOVEMENT"
)

// Priority is the ordinal importance classification driving C5's
// playback speed selection. Lower is more critical.
type Priority int

const (
	PriorityCritical  Priority = 1
	PriorityImportant Priority = 2
	PriorityStandard  Priority = 3
	PriorityDowntime  Priority = 4
)

var eventPriority = map[EventType]Priority{
	EventScore:             PriorityCritical,
	EventInjury:            PriorityCritical,
	EventMajorTackle:       PriorityCritical,
	EventInterception:      PriorityCritical,
	EventScoreAttempt:      PriorityCritical,
	EventHalftime:          PriorityCritical,
	EventFinalWhistle:      PriorityCritical,
	EventSuccessfulPassing: PriorityImportant,
	EventDefensiveStop:     PriorityImportant,
	EventPassAttempt:       PriorityImportant,
	EventScrum:             PriorityImportant,
	EventSubstitution:      PriorityImportant,
	EventRoutinePlay:       PriorityStandard,
	EventRegularPass:       PriorityStandard,
	EventStandardMovement:  PriorityStandard,
}

// PriorityOf classifies an event type; unknown types are Downtime.
func PriorityOf(t EventType) Priority {
	if p, ok := eventPriority[t]; ok {
		return p
	}
	return PriorityDowntime
}

// MatchEvent is one emitted tick-level occurrence.
type MatchEvent struct {
	Type          EventType
	Priority      Priority
	ActorPlayerID *string
	FieldPos      int
	TimestampTick int // sim-second this event occurred at
}

// RevenueSnapshot is the per-category attendance-weighted revenue
// accrued as of a given tick, appended every 60 ticks.
type RevenueSnapshot struct {
	Tick       int
	Ticket     float64
	Concession float64
	Parking    float64
	VIP        float64
	Merch      float64
}

// Total sums every revenue category in the snapshot.
func (r RevenueSnapshot) Total() float64 {
	return r.Ticket + r.Concession + r.Parking + r.VIP + r.Merch
}
