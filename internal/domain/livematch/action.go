package livematch

import (
	"math/rand"

	"github.com/fantasysports/season-core/internal/domain/player"
)

// Action is the play type resolved for the possessing team each tick.
type Action string

const (
	ActionPass         Action = "PASS"
	ActionRun          Action = "RUN"
	ActionKick         Action = "KICK"
	ActionScoreAttempt Action = "SCORE_ATTEMPT"
)

// clampProb keeps a Bernoulli success probability within a sane range
// so no attribute combination can force a guaranteed or impossible
// outcome.
func clampProb(p float64) float64 {
	if p < 0.05 {
		return 0.05
	}
	if p > 0.95 {
		return 0.95
	}
	return p
}

// SelectAction runs a weighted selection over {PASS,RUN,KICK,SCORE_ATTEMPT}
// for the given ball carrier and field position. Higher throwing raises
// PASS weight; higher field position raises SCORE_ATTEMPT weight, as
// required by the design.
func SelectAction(carrier player.Player, fieldPos int, rng *rand.Rand) Action {
	passWeight := float64(carrier.Attributes.Throwing)
	runWeight := float64(carrier.Attributes.Power+carrier.Attributes.Speed) / 2
	kickWeight := float64(carrier.Attributes.Kicking) / 2
	scoreWeight := float64(fieldPos) * 0.6

	total := passWeight + runWeight + kickWeight + scoreWeight
	if total <= 0 {
		return ActionRun
	}

	roll := rng.Float64() * total
	switch {
	case roll < passWeight:
		return ActionPass
	case roll < passWeight+runWeight:
		return ActionRun
	case roll < passWeight+runWeight+kickWeight:
		return ActionKick
	default:
		return ActionScoreAttempt
	}
}

// ResolveOutcome runs the Bernoulli trial for an action's success,
// driven by the relevant attribute per the design table: throwing for
// pass, catching for reception (folded into pass success here since
// both carrier and a nominal receiver gate the same event), power for
// tackle breaks on a run, kicking for kick distance, and a blend for
// score attempts weighted by the carrier's leadership and agility.
func ResolveOutcome(action Action, carrier player.Player, rng *rand.Rand) bool {
	var prob float64
	switch action {
	case ActionPass:
		prob = clampProb(float64(carrier.Attributes.Throwing+carrier.Attributes.Catching) / 80)
	case ActionRun:
		prob = clampProb(float64(carrier.Attributes.Power+carrier.Attributes.Agility) / 80)
	case ActionKick:
		prob = clampProb(float64(carrier.Attributes.Kicking) / 40)
	case ActionScoreAttempt:
		prob = clampProb(float64(carrier.Attributes.Leadership+carrier.Attributes.Agility) / 90)
	default:
		prob = 0.5
	}
	return rng.Float64() < prob
}

// EventForOutcome maps a resolved action/outcome pair to the event type
// that should be recorded and broadcast.
func EventForOutcome(action Action, success bool) EventType {
	switch action {
	case ActionScoreAttempt:
		if success {
			return EventScore
		}
		return EventScoreAttempt
	case ActionPass:
		if success {
			return EventSuccessfulPassing
		}
		return EventInterception
	case ActionRun:
		if success {
			return EventRoutinePlay
		}
		return EventMajorTackle
	case ActionKick:
		if success {
			return EventRegularPass
		}
		return EventDefensiveStop
	default:
		return EventStandardMovement
	}
}
