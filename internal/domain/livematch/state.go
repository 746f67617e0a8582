package livematch

import (
	"math/rand"

	"github.com/fantasysports/season-core/internal/domain/match"
	"github.com/fantasysports/season-core/internal/domain/player"
)

const (
	onFieldPerSide = 6
	maxStamina     = 100
	fatiguePerTick = 2.0
)

// OnFieldPlayer tracks the mutable in-match state of one roster member.
type OnFieldPlayer struct {
	Player  player.Player
	Stamina float64
}

// State is the mutable, worker-owned state of one running match. It is
// never persisted directly — only GameTime/scores are checkpointed
// through the match.Repository every CheckpointTickInterval ticks.
type State struct {
	GameID            string
	MatchType         match.Type
	HomeTeamID        string
	AwayTeamID        string
	Tick              int
	HomeScore         int
	AwayScore         int
	PossessionTeamID  string
	BallCarrierID     *string
	FieldPos          int // 0..100, possessing team's attacking direction
	HomeOnField       []OnFieldPlayer
	AwayOnField       []OnFieldPlayer
	RevenueSnapshots  []RevenueSnapshot
	Events            []MatchEvent
	cumulativeRevenue RevenueSnapshot
}

// New builds the initial tick-0 state for a match, choosing initial
// possession by a fair coin seeded by the game id so replay/testing is
// reproducible.
func New(gameID string, mt match.Type, homeTeamID, awayTeamID string, home, away []player.Player, rng *rand.Rand) *State {
	possession := homeTeamID
	if rng.Intn(2) == 1 {
		possession = awayTeamID
	}

	toOnField := func(players []player.Player) []OnFieldPlayer {
		n := onFieldPerSide
		if len(players) < n {
			n = len(players)
		}
		out := make([]OnFieldPlayer, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, OnFieldPlayer{Player: players[i], Stamina: maxStamina})
		}
		return out
	}

	return &State{
		GameID:           gameID,
		MatchType:        mt,
		HomeTeamID:       homeTeamID,
		AwayTeamID:       awayTeamID,
		PossessionTeamID: possession,
		FieldPos:         50,
		HomeOnField:      toOnField(home),
		AwayOnField:      toOnField(away),
	}
}

// IsComplete reports whether the match has reached full time.
func (s *State) IsComplete() bool {
	return s.Tick >= s.MatchType.DurationSimSeconds()
}

// IsHalftime reports whether this tick is exactly the halftime boundary.
func (s *State) IsHalftime() bool {
	return s.Tick == s.MatchType.HalfDurationSimSeconds()
}

func (s *State) onFieldFor(teamID string) []OnFieldPlayer {
	if teamID == s.HomeTeamID {
		return s.HomeOnField
	}
	return s.AwayOnField
}

func (s *State) opponentOf(teamID string) string {
	if teamID == s.HomeTeamID {
		return s.AwayTeamID
	}
	return s.HomeTeamID
}

// ApplyFatigue drains stamina for every on-field player by a fixed
// per-tick rate scaled by their remaining stamina fraction, per the
// design's "k_fatigue * (1 - stamina/maxStamina)" rule read in reverse:
// tired players fatigue slower because they have less stamina left to
// lose relative to the cap, keeping the curve bounded above zero.
func (s *State) ApplyFatigue() {
	drain := func(list []OnFieldPlayer) {
		for i := range list {
			remaining := list[i].Stamina / maxStamina
			list[i].Stamina -= fatiguePerTick * remaining
			if list[i].Stamina < 0 {
				list[i].Stamina = 0
			}
		}
	}
	drain(s.HomeOnField)
	drain(s.AwayOnField)
}

// RecordEvent appends an event to the running log, stamped with the
// current tick. It does not check that the tick advanced since the
// previously recorded event.
func (s *State) RecordEvent(e MatchEvent) {
	e.TimestampTick = s.Tick
	s.Events = append(s.Events, e)
}

// AccrueRevenue adds one tick's attendance-weighted micro-revenue and,
// every 60 ticks, appends a snapshot of the cumulative total.
func (s *State) AccrueRevenue(attendanceFactor float64) {
	s.cumulativeRevenue.Ticket += 0.42 * attendanceFactor
	s.cumulativeRevenue.Concession += 0.18 * attendanceFactor
	s.cumulativeRevenue.Parking += 0.07 * attendanceFactor
	s.cumulativeRevenue.VIP += 0.21 * attendanceFactor
	s.cumulativeRevenue.Merch += 0.11 * attendanceFactor

	if s.Tick%match.CheckpointTickInterval == 0 {
		snap := s.cumulativeRevenue
		snap.Tick = s.Tick
		s.RevenueSnapshots = append(s.RevenueSnapshots, snap)
	}
}

// FlipSides swaps which side is "home" at halftime, keeping each
// team's on-field roster paired with its own team id.
func (s *State) FlipSides() {
	s.HomeOnField, s.AwayOnField = s.AwayOnField, s.HomeOnField
	s.HomeTeamID, s.AwayTeamID = s.AwayTeamID, s.HomeTeamID
}
