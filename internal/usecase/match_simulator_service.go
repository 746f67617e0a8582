package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/fantasysports/season-core/internal/domain/livematch"
	"github.com/fantasysports/season-core/internal/domain/match"
	"github.com/fantasysports/season-core/internal/domain/player"
	"github.com/fantasysports/season-core/internal/domain/team"
	"github.com/fantasysports/season-core/internal/platform/eventbus"
	"github.com/fantasysports/season-core/internal/platform/logging"
)

// TickEvent is the payload published to match.<matchId>.tick, matching
// the wire shape in the spec's external interfaces section.
type TickEvent struct {
	MatchID   string
	Tick      int
	GameTime  int
	HomeScore int
	AwayScore int
	Event     livematch.MatchEvent
	Revenue   *livematch.RevenueSnapshot
}

// LifecycleEvent is published to match.<matchId>.lifecycle.
type LifecycleEvent struct {
	MatchID string
	Status  match.Status
}

// MatchSimulatorConfig are the tunables from spec §6.
type MatchSimulatorConfig struct {
	TickPeriod           time.Duration
	MaxConcurrentMatches int
	WorkerStallTimeout   time.Duration
}

func (c MatchSimulatorConfig) withDefaults() MatchSimulatorConfig {
	if c.TickPeriod <= 0 {
		c.TickPeriod = 100 * time.Millisecond
	}
	if c.MaxConcurrentMatches <= 0 {
		c.MaxConcurrentMatches = 64
	}
	if c.WorkerStallTimeout <= 0 {
		c.WorkerStallTimeout = 30 * time.Second
	}
	return c
}

// MatchSimulatorService runs the C4 live-match tick loop: one pool-leased
// goroutine per active match, bounded by maxConcurrentMatches. The
// bounded worker pool is grounded on the teacher's ants.NewPool-based
// resync fan-out pattern, repurposed here from a one-shot parallel
// fetch into a long-lived per-match worker pool.
type MatchSimulatorService struct {
	gameRepo   match.Repository
	teamRepo   team.Repository
	playerRepo player.Repository
	tickBus    *eventbus.Bus[TickEvent]
	lifeBus    *eventbus.Bus[LifecycleEvent]
	logger     *logging.Logger
	cfg        MatchSimulatorConfig
	pool       *ants.Pool

	// live holds a read-only snapshot of each running match's state,
	// refreshed every tick, for the HTTP layer's live/enhanced-data
	// endpoints to read without touching the worker goroutine.
	live sync.Map // gameID -> livematch.State

	// lastTick and active back the §5 stall watchdog: lastTick is
	// refreshed on every produced tick, active holds the cancel func
	// for the worker's run loop so a stalled worker can be killed.
	lastTick sync.Map // gameID -> time.Time
	active   sync.Map // gameID -> context.CancelFunc
}

func NewMatchSimulatorService(
	gameRepo match.Repository,
	teamRepo team.Repository,
	playerRepo player.Repository,
	tickBus *eventbus.Bus[TickEvent],
	lifeBus *eventbus.Bus[LifecycleEvent],
	logger *logging.Logger,
	cfg MatchSimulatorConfig,
) (*MatchSimulatorService, error) {
	if logger == nil {
		logger = logging.Default()
	}
	cfg = cfg.withDefaults()

	pool, err := ants.NewPool(cfg.MaxConcurrentMatches)
	if err != nil {
		return nil, fmt.Errorf("build match worker pool: %w", err)
	}

	return &MatchSimulatorService{
		gameRepo:   gameRepo,
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
		tickBus:    tickBus,
		lifeBus:    lifeBus,
		logger:     logger,
		cfg:        cfg,
		pool:       pool,
	}, nil
}

// Close releases the worker pool.
func (s *MatchSimulatorService) Close() {
	s.pool.Release()
}

// LiveState returns the most recent tick snapshot for a running match.
// It returns ok=false once the match has completed or was never started.
func (s *MatchSimulatorService) LiveState(gameID string) (livematch.State, bool) {
	v, ok := s.live.Load(gameID)
	if !ok {
		return livematch.State{}, false
	}
	state, ok := v.(livematch.State)
	return state, ok
}

// IsRunning reports whether this process currently owns a live worker
// for gameID. A C7 recovery sweep uses this to tell an actively-ticking
// match apart from one left IN_PROGRESS by a crashed or killed worker.
func (s *MatchSimulatorService) IsRunning(gameID string) bool {
	_, ok := s.live.Load(gameID)
	return ok
}

// KillStalledWorkers cancels the run loop of every match whose last
// produced tick is older than cfg.WorkerStallTimeout, per spec §5's "a
// match worker that fails to produce a tick for 30s is killed" rule. It
// returns the game ids it killed; the game remains IN_PROGRESS in the
// store for the next C7 tick to resume or force-complete.
func (s *MatchSimulatorService) KillStalledWorkers(ctx context.Context) []string {
	now := time.Now()
	var stalled []string
	s.lastTick.Range(func(key, value any) bool {
		gameID, _ := key.(string)
		lastTick, _ := value.(time.Time)
		if now.Sub(lastTick) > s.cfg.WorkerStallTimeout {
			stalled = append(stalled, gameID)
		}
		return true
	})

	for _, gameID := range stalled {
		if cancelAny, ok := s.active.Load(gameID); ok {
			if cancel, ok := cancelAny.(context.CancelFunc); ok {
				cancel()
			}
		}
		s.live.Delete(gameID)
		s.lastTick.Delete(gameID)
		s.active.Delete(gameID)
		s.logger.WarnContext(ctx, "match worker stalled, killed",
			"component", "C4", "step", "stall_watchdog", "entityId", gameID)
	}
	return stalled
}

// StartMatch transitions a SCHEDULED game to IN_PROGRESS and submits its
// tick loop to the worker pool. It returns immediately; the match runs
// to completion asynchronously.
func (s *MatchSimulatorService) StartMatch(ctx context.Context, gameID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchSimulatorService.StartMatch")
	defer span.End()

	g, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get game: %w", err)
	}
	started, err := s.gameRepo.StartGame(ctx, gameID, g.Version)
	if err != nil {
		return fmt.Errorf("start game: %w", err)
	}

	return s.pool.Submit(func() {
		runCtx, cancel := context.WithCancel(context.Background())
		s.active.Store(started.ID, cancel)
		defer cancel()
		if err := s.runMatch(runCtx, started); err != nil {
			s.logger.ErrorContext(runCtx, "match worker failed",
				"component", "C4", "step", "run_match", "entityId", started.ID, "error", err)
		}
	})
}

// ResumeMatch restarts the tick loop for an already-IN_PROGRESS game
// found on a C7 recovery sweep, continuing from its last checkpointed
// GameTime.
func (s *MatchSimulatorService) ResumeMatch(ctx context.Context, g match.Game) error {
	return s.pool.Submit(func() {
		runCtx, cancel := context.WithCancel(context.Background())
		s.active.Store(g.ID, cancel)
		defer cancel()
		if err := s.runMatch(runCtx, g); err != nil {
			s.logger.ErrorContext(runCtx, "resumed match worker failed",
				"component", "C4", "step", "resume_match", "entityId", g.ID, "error", err)
		}
	})
}

func (s *MatchSimulatorService) runMatch(ctx context.Context, g match.Game) error {
	homePlayers, err := s.playerRepo.ListByTeam(ctx, g.HomeTeamID)
	if err != nil {
		return fmt.Errorf("list home players: %w", err)
	}
	awayPlayers, err := s.playerRepo.ListByTeam(ctx, g.AwayTeamID)
	if err != nil {
		return fmt.Errorf("list away players: %w", err)
	}

	seed := seedFromString(g.ID)
	rng := rand.New(rand.NewSource(seed))
	state := livematch.New(g.ID, g.MatchType, g.HomeTeamID, g.AwayTeamID, homePlayers, awayPlayers, rng)
	state.Tick = g.GameTime
	state.HomeScore = g.HomeScore
	state.AwayScore = g.AwayScore

	ticker := time.NewTicker(s.cfg.TickPeriod)
	defer ticker.Stop()

	version := g.Version
	s.live.Store(g.ID, *state)
	s.lastTick.Store(g.ID, time.Now())
	for !state.IsComplete() {
		select {
		case <-ctx.Done():
			// Killed by the stall watchdog or caller cancellation: leave
			// the game IN_PROGRESS in the store for the next C7 recovery
			// sweep to resume from the last checkpoint or force-complete.
			s.live.Delete(g.ID)
			s.lastTick.Delete(g.ID)
			s.active.Delete(g.ID)
			return nil
		case <-ticker.C:
		}
		s.stepTick(state, rng)
		s.live.Store(g.ID, *state)
		s.lastTick.Store(g.ID, time.Now())

		s.tickBus.Publish(fmt.Sprintf("match.%s.tick", g.ID), TickEvent{
			MatchID:   g.ID,
			Tick:      state.Tick,
			GameTime:  state.Tick,
			HomeScore: state.HomeScore,
			AwayScore: state.AwayScore,
			Event:     state.Events[len(state.Events)-1],
			Revenue:   lastSnapshot(state),
		})

		if state.IsHalftime() {
			state.FlipSides()
			s.lifeBus.Publish(fmt.Sprintf("match.%s.lifecycle", g.ID), LifecycleEvent{MatchID: g.ID, Status: match.StatusInProgress})
		}

		if state.Tick%match.CheckpointTickInterval == 0 {
			updated, err := s.gameRepo.CheckpointProgress(ctx, g.ID, version, state.Tick, state.HomeScore, state.AwayScore)
			if err != nil {
				s.logger.ErrorContext(ctx, "checkpoint failed",
					"component", "C4", "step", "checkpoint", "entityId", g.ID, "error", err)
				continue
			}
			version = updated.Version
		}
	}

	return s.completeMatch(ctx, g, state, version)
}

func (s *MatchSimulatorService) stepTick(state *livematch.State, rng *rand.Rand) {
	state.Tick++
	state.ApplyFatigue()

	onField := state.HomeOnField
	if state.PossessionTeamID != state.HomeTeamID {
		onField = state.AwayOnField
	}
	if len(onField) == 0 {
		state.RecordEvent(livematch.MatchEvent{Type: livematch.EventStandardMovement, Priority: livematch.PriorityOf(livematch.EventStandardMovement), FieldPos: state.FieldPos})
		return
	}

	carrier := onField[rng.Intn(len(onField))].Player
	action := livematch.SelectAction(carrier, state.FieldPos, rng)
	success := livematch.ResolveOutcome(action, carrier, rng)
	eventType := livematch.EventForOutcome(action, success)

	carrierID := carrier.ID
	evt := livematch.MatchEvent{
		Type:          eventType,
		Priority:      livematch.PriorityOf(eventType),
		ActorPlayerID: &carrierID,
		FieldPos:      state.FieldPos,
	}

	switch {
	case eventType == livematch.EventScore:
		if state.PossessionTeamID == state.HomeTeamID {
			state.HomeScore++
		} else {
			state.AwayScore++
		}
		state.PossessionTeamID = state.opponentOf(state.PossessionTeamID)
		state.FieldPos = 50
	case !success:
		state.PossessionTeamID = state.opponentOf(state.PossessionTeamID)
		state.FieldPos = 100 - state.FieldPos
	case action == livematch.ActionRun || action == livematch.ActionPass:
		state.FieldPos = clampFieldPos(state.FieldPos + 5)
	}

	state.BallCarrierID = &carrierID
	state.RecordEvent(evt)
	state.AccrueRevenue(1.0)
}

func (s *MatchSimulatorService) completeMatch(ctx context.Context, g match.Game, state *livematch.State, expectedVersion int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchSimulatorService.completeMatch")
	defer span.End()

	completed, err := s.gameRepo.CompleteGame(ctx, g.ID, expectedVersion, state.HomeScore, state.AwayScore, false)
	if err != nil {
		return fmt.Errorf("complete game: %w", err)
	}
	s.live.Delete(g.ID)
	s.lastTick.Delete(g.ID)
	s.active.Delete(g.ID)

	if g.MatchType == match.TypeLeague {
		if err := s.applyLeagueResult(ctx, completed); err != nil {
			s.logger.ErrorContext(ctx, "apply league result failed",
				"component", "C4", "step", "complete_match", "entityId", g.ID, "error", err)
		}
	}

	s.lifeBus.Publish(fmt.Sprintf("match.%s.lifecycle", g.ID), LifecycleEvent{MatchID: g.ID, Status: match.StatusCompleted})
	return nil
}

func (s *MatchSimulatorService) applyLeagueResult(ctx context.Context, g match.Game) error {
	homeOutcome := team.OutcomeFromScores(g.HomeScore, g.AwayScore)
	awayOutcome := team.OutcomeFromScores(g.AwayScore, g.HomeScore)

	if err := retryOnConflict(func() error {
		home, err := s.teamRepo.GetByID(ctx, g.HomeTeamID)
		if err != nil {
			return err
		}
		_, err = s.teamRepo.UpdateRecord(ctx, g.HomeTeamID, home.Version, func(t team.Team) team.Team {
			return t.ApplyResult(homeOutcome)
		})
		return err
	}); err != nil {
		return fmt.Errorf("update home team record: %w", err)
	}

	if err := retryOnConflict(func() error {
		away, err := s.teamRepo.GetByID(ctx, g.AwayTeamID)
		if err != nil {
			return err
		}
		_, err = s.teamRepo.UpdateRecord(ctx, g.AwayTeamID, away.Version, func(t team.Team) team.Team {
			return t.ApplyResult(awayOutcome)
		})
		return err
	}); err != nil {
		return fmt.Errorf("update away team record: %w", err)
	}

	return nil
}

func lastSnapshot(state *livematch.State) *livematch.RevenueSnapshot {
	if len(state.RevenueSnapshots) == 0 {
		return nil
	}
	snap := state.RevenueSnapshots[len(state.RevenueSnapshots)-1]
	return &snap
}

func clampFieldPos(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func seedFromString(s string) int64 {
	var h int64 = 14695981039346656037
	for _, b := range []byte(s) {
		h ^= int64(b)
		h *= 1099511628211
	}
	if h < 0 {
		h = -h
	}
	return h
}
