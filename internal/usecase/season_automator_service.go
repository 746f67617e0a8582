package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel/trace"

	"github.com/fantasysports/season-core/internal/domain/dispatch"
	"github.com/fantasysports/season-core/internal/domain/match"
	"github.com/fantasysports/season-core/internal/domain/player"
	"github.com/fantasysports/season-core/internal/domain/season"
	"github.com/fantasysports/season-core/internal/domain/team"
	"github.com/fantasysports/season-core/internal/domain/tournament"
	"github.com/fantasysports/season-core/internal/platform/eventbus"
	"github.com/fantasysports/season-core/internal/platform/id"
	"github.com/fantasysports/season-core/internal/platform/logging"
)

// SeasonEvent is published to season.phase whenever the resolved game
// day or phase changes.
type SeasonEvent struct {
	SeasonID string
	GameDay  int
	Phase    season.Phase
}

// SeasonAutomatorConfig mirrors the spec §6 automator tunables.
type SeasonAutomatorConfig struct {
	TickPeriod          time.Duration
	ProgressionBaseRate float64
	AgeDeclineStart     int
	RetirementStart     int
	MandatoryRetireAge  int
	Tournament          TournamentConfig
}

func (c SeasonAutomatorConfig) withDefaults() SeasonAutomatorConfig {
	if c.TickPeriod <= 0 {
		c.TickPeriod = 60 * time.Second
	}
	if c.ProgressionBaseRate <= 0 {
		c.ProgressionBaseRate = 0.15
	}
	if c.AgeDeclineStart <= 0 {
		c.AgeDeclineStart = 31
	}
	if c.RetirementStart <= 0 {
		c.RetirementStart = 40
	}
	if c.MandatoryRetireAge <= 0 {
		c.MandatoryRetireAge = 45
	}
	c.Tournament = c.Tournament.withDefaults()
	return c
}

// SeasonAutomatorService runs C7: the 60-second cadence driving day
// rollover, standings rebuild, daily player progression, tournament
// creation/auto-start, match-start sweeps, stalled/orphaned match
// recovery, and offseason aging — nine numbered steps in total. Each
// numbered step is independently transactional and safe to re-run;
// a failure in one step is logged and the loop continues with the
// rest, grounded on the teacher's JobOrchestratorService run-loop,
// which never let one failed sync job abort the rest of a tick.
type SeasonAutomatorService struct {
	seasonRepo     season.Repository
	teamRepo       team.Repository
	playerRepo     player.Repository
	gameRepo       match.Repository
	tournamentRepo tournament.Repository
	standings      *StandingsService
	tournaments    *TournamentService
	simulator      *MatchSimulatorService
	seasonBus      *eventbus.Bus[SeasonEvent]
	idGen          id.Generator
	logger         *logging.Logger
	cfg            SeasonAutomatorConfig

	jobQueue     JobQueue
	dispatchRepo dispatch.Repository

	stop chan struct{}
}

// NewSeasonAutomatorService wires C7. jobQueue may be NewNoopJobQueue()
// when no external queue is configured; dispatchRepo may be nil, in
// which case step dispatch attempts still run and still enqueue, they
// just leave no audit row behind.
func NewSeasonAutomatorService(
	seasonRepo season.Repository,
	teamRepo team.Repository,
	playerRepo player.Repository,
	gameRepo match.Repository,
	tournamentRepo tournament.Repository,
	standings *StandingsService,
	tournaments *TournamentService,
	simulator *MatchSimulatorService,
	seasonBus *eventbus.Bus[SeasonEvent],
	idGen id.Generator,
	logger *logging.Logger,
	jobQueue JobQueue,
	dispatchRepo dispatch.Repository,
	cfg SeasonAutomatorConfig,
) *SeasonAutomatorService {
	if logger == nil {
		logger = logging.Default()
	}
	if jobQueue == nil {
		jobQueue = NewNoopJobQueue()
	}
	return &SeasonAutomatorService{
		seasonRepo:     seasonRepo,
		teamRepo:       teamRepo,
		playerRepo:     playerRepo,
		gameRepo:       gameRepo,
		tournamentRepo: tournamentRepo,
		standings:      standings,
		tournaments:    tournaments,
		simulator:      simulator,
		seasonBus:      seasonBus,
		idGen:          idGen,
		logger:         logger,
		jobQueue:       jobQueue,
		dispatchRepo:   dispatchRepo,
		cfg:            cfg.withDefaults(),
		stop:           make(chan struct{}),
	}
}

// Run blocks, ticking every cfg.TickPeriod until ctx is cancelled or
// Stop is called.
func (s *SeasonAutomatorService) Run(ctx context.Context, seasonID string) {
	ticker := time.NewTicker(s.cfg.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.Tick(ctx, seasonID)
		}
	}
}

// Stop ends a running Run loop.
func (s *SeasonAutomatorService) Stop() {
	close(s.stop)
}

// Tick runs the numbered steps once: step 1 always; steps 2, 3 and 4
// only when step 1 reports a day change, with step 5 and step 8 further
// limited to their configured days; then steps 6, 7 and 9 always. Each
// step's error is logged and isolated; Tick never returns an error so a
// single failing step can never starve the rest of the cycle (a failed
// step 1 skips only the day-change steps).
func (s *SeasonAutomatorService) Tick(ctx context.Context, seasonID string) {
	ctx, span := startUsecaseSpan(ctx, "usecase.SeasonAutomatorService.Tick")
	defer span.End()

	current, changed, err := s.resolveDay(ctx, seasonID)
	if err != nil {
		s.logError(ctx, "resolve_day", seasonID, err)
	}

	var wg conc.WaitGroup
	if changed {
		wg.Go(func() { s.runStep(ctx, "rebuild_standings", seasonID, func() error { return s.rebuildStandings(ctx) }) })
		wg.Go(func() {
			s.runStep(ctx, "daily_progression", seasonID, func() error { return s.applyDailyProgression(ctx, current) })
		})
		wg.Go(func() { s.runStep(ctx, "create_daily_cups", seasonID, func() error { return s.createDailyCups(ctx, current) }) })
		if current.CurrentDay == s.cfg.Tournament.MidSeasonDay {
			wg.Go(func() {
				s.runStep(ctx, "create_mid_season_classic", seasonID, func() error { return s.createMidSeasonClassic(ctx, current) })
			})
		}
		if current.CurrentDay == season.CycleDays-1 {
			wg.Go(func() {
				s.runStep(ctx, "offseason_aging", seasonID, func() error { return s.applyOffseasonAging(ctx, current) })
			})
		}
	}
	wg.Wait()

	s.runStep(ctx, "autostart_tournaments", seasonID, func() error { return s.autoStartDueTournaments(ctx) })
	s.runStep(ctx, "start_matches", seasonID, func() error { return s.startDueMatches(ctx) })
	s.runStep(ctx, "recover_stalled_matches", seasonID, func() error { return s.recoverStalledMatches(ctx) })
}

// runStep executes fn and, around it, drives the C7 dispatch trail: a
// "sent" audit row and queue enqueue before fn runs, then a
// "completed"/"failed" row after, so a downstream consumer woken by the
// queue and a human reading dispatch_events agree on what happened.
func (s *SeasonAutomatorService) runStep(ctx context.Context, step, seasonID string, fn func() error) {
	dispatchID, idErr := s.idGen.NewID()
	if idErr != nil {
		dispatchID = step + ":" + seasonID
	}
	jobPath := "/internal/jobs/season-automator/" + step
	payload := map[string]any{"season_id": seasonID, "step": step}

	s.recordDispatchEvent(ctx, dispatchID, step, jobPath, seasonID, dispatch.StatusSent, payload, "")
	if err := s.jobQueue.Enqueue(ctx, jobPath, payload, 0, dispatchID); err != nil {
		s.logger.WarnContext(ctx, "job queue enqueue failed",
			"component", "C7", "step", step, "entityId", seasonID, "error", err)
	}

	if err := fn(); err != nil {
		s.logError(ctx, step, seasonID, err)
		s.recordDispatchEvent(ctx, dispatchID, step, jobPath, seasonID, dispatch.StatusFailed, payload, err.Error())
		return
	}
	s.recordDispatchEvent(ctx, dispatchID, step, jobPath, seasonID, dispatch.StatusCompleted, payload, "")
}

func (s *SeasonAutomatorService) recordDispatchEvent(ctx context.Context, dispatchID, step, jobPath, seasonID string, status dispatch.Status, payload map[string]any, errMsg string) {
	if s.dispatchRepo == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	event := dispatch.Event{
		DispatchID:   dispatchID,
		JobName:      step,
		JobPath:      jobPath,
		SeasonID:     seasonID,
		Status:       status,
		Payload:      payload,
		ErrorMessage: errMsg,
		OccurredAt:   time.Now().UTC(),
		TraceID:      span.SpanContext().TraceID().String(),
		SpanID:       span.SpanContext().SpanID().String(),
	}
	if err := s.dispatchRepo.UpsertEvent(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "dispatch audit upsert failed",
			"component", "C7", "step", step, "entityId", seasonID, "error", err)
	}
}

func (s *SeasonAutomatorService) logError(ctx context.Context, step, seasonID string, err error) {
	s.logger.ErrorContext(ctx, "season automator step failed",
		"component", "C7", "step", step, "entityId", seasonID, "error", err)
}

// Step 1: resolve gameDay/phase from the wall clock, CAS-update the
// season row, and publish season.phase when it actually changed.
func (s *SeasonAutomatorService) resolveDay(ctx context.Context, seasonID string) (season.Season, bool, error) {
	sn, err := s.seasonRepo.Get(ctx, seasonID)
	if err != nil {
		return season.Season{}, false, fmt.Errorf("get season: %w", err)
	}

	gameDay, phase, _ := season.Resolve(time.Now().UTC(), sn.StartDateUTC)
	if gameDay == sn.CurrentDay && phase == sn.Phase {
		return sn, false, nil
	}

	updated, err := s.seasonRepo.UpdateDay(ctx, seasonID, sn.Version, gameDay, phase)
	if err != nil {
		return season.Season{}, false, fmt.Errorf("update day: %w", err)
	}
	if s.seasonBus != nil {
		s.seasonBus.Publish("season.phase", SeasonEvent{SeasonID: seasonID, GameDay: gameDay, Phase: phase})
	}
	return updated, true, nil
}

// Step 2: rebuild standings for team.DefaultSubdivision. Teams in any
// other subdivision are not rebuilt by this step. RebuildSubdivision is
// itself idempotent so re-running on a retried tick changes nothing.
func (s *SeasonAutomatorService) rebuildStandings(ctx context.Context) error {
	if s.standings == nil {
		return nil
	}
	_, err := s.standings.RebuildSubdivision(ctx, team.DefaultSubdivision)
	return err
}

// Step 3: apply one day of attribute progression/decline to every
// active player, guarded by a per-season-day claim so a process restart
// mid-step, or an overlapping tick, can never double-apply it.
func (s *SeasonAutomatorService) applyDailyProgression(ctx context.Context, sn season.Season) error {
	claimed, err := s.seasonRepo.ClaimStep(ctx, sn.ID, "daily_progression", sn.CurrentDay)
	if err != nil {
		return fmt.Errorf("claim progression step: %w", err)
	}
	if !claimed {
		return nil
	}

	players, err := s.playerRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active players: %w", err)
	}

	for _, p := range players {
		rng := rand.New(rand.NewSource(seedFromString(p.ID + ":" + fmt.Sprint(sn.CurrentDay))))
		if err := retryOnConflict(func() error {
			current, err := s.playerRepo.GetByID(ctx, p.ID)
			if err != nil {
				return err
			}
			_, err = s.playerRepo.UpdateRecord(ctx, p.ID, current.Version, func(c player.Player) player.Player {
				return progressPlayer(c, s.cfg, rng)
			})
			return err
		}); err != nil {
			s.logger.ErrorContext(ctx, "player progression failed",
				"component", "C7", "step", "daily_progression", "entityId", p.ID, "error", err)
		}
	}
	return nil
}

// progressPlayer picks one random attribute and, for players below the
// decline threshold, increments it with probability
// rate * potentialStars / MaxPotentialStars; for players at/above it,
// decrements it by one point with probability rate — the age
// curve from the design's "young players improve, veterans decline".
// Aging and retirement only happen once a cycle, in
// applyOffseasonAging; this step never touches Age or IsRetired.
func progressPlayer(p player.Player, cfg SeasonAutomatorConfig, rng *rand.Rand) player.Player {
	names := []string{"speed", "power", "throwing", "catching", "kicking", "stamina", "leadership", "agility"}
	pick := names[rng.Intn(len(names))]

	if p.Age < cfg.AgeDeclineStart {
		if rng.Float64() < cfg.ProgressionBaseRate*p.PotentialStars/player.MaxPotentialStars {
			p.Attributes = p.Attributes.WithIncrement(pick)
		}
	} else if rng.Float64() < cfg.ProgressionBaseRate {
		p.Attributes = declineAttribute(p.Attributes, pick)
	}
	return p
}

func declineAttribute(a player.Attributes, name string) player.Attributes {
	dec := func(v int) int {
		if v <= player.MinAttribute {
			return player.MinAttribute
		}
		return v - 1
	}
	switch name {
	case "speed":
		a.Speed = dec(a.Speed)
	case "power":
		a.Power = dec(a.Power)
	case "throwing":
		a.Throwing = dec(a.Throwing)
	case "catching":
		a.Catching = dec(a.Catching)
	case "kicking":
		a.Kicking = dec(a.Kicking)
	case "stamina":
		a.Stamina = dec(a.Stamina)
	case "leadership":
		a.Leadership = dec(a.Leadership)
	case "agility":
		a.Agility = dec(a.Agility)
	}
	return a
}

// Step 4: create today's Daily Divisional Cup for every configured
// division that doesn't already have one.
func (s *SeasonAutomatorService) createDailyCups(ctx context.Context, sn season.Season) error {
	dayStart := time.Now().UTC().Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	for _, division := range s.cfg.Tournament.DailyDivisions {
		existing, err := s.tournamentRepo.ListOpenForDivisionToday(ctx, division, dayStart, dayEnd)
		if err != nil {
			return fmt.Errorf("list open cups for division %d: %w", division, err)
		}
		if len(existing) > 0 {
			continue
		}

		params := tournament.ResolveParams(tournament.TypeDailyDivisionalCup, s.cfg.Tournament.DailyCupSize, s.cfg.Tournament.MidSeasonSize)
		tid, err := s.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate tournament id: %w", err)
		}
		div := division
		_, err = s.tournamentRepo.Create(ctx, tournament.Tournament{
			ID:                   tid,
			Type:                 tournament.TypeDailyDivisionalCup,
			Division:             &div,
			MaxParticipants:      params.Size,
			Status:               tournament.StatusRegistrationOpen,
			RegistrationDeadline: dayEnd.Add(-1 * time.Hour),
			StartTime:            dayEnd,
			RequiresEntryItem:    params.RequiresEntryItem,
			EntryFeeCredits:      params.EntryFeeCredits,
			EntryFeeGems:         params.EntryFeeGems,
		})
		if err != nil {
			return fmt.Errorf("create daily cup for division %d: %w", division, err)
		}
	}
	return nil
}

// Step 5: create the Mid-Season Classic once, on the configured day.
func (s *SeasonAutomatorService) createMidSeasonClassic(ctx context.Context, sn season.Season) error {
	claimed, err := s.seasonRepo.ClaimStep(ctx, sn.ID, "mid_season_classic", sn.CurrentDay)
	if err != nil {
		return fmt.Errorf("claim mid season classic step: %w", err)
	}
	if !claimed {
		return nil
	}

	existing, err := s.tournamentRepo.ListMidSeasonClassicForSeason(ctx, sn.ID)
	if err != nil {
		return fmt.Errorf("list mid season classics: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	params := tournament.ResolveParams(tournament.TypeMidSeasonClassic, s.cfg.Tournament.DailyCupSize, s.cfg.Tournament.MidSeasonSize)
	tid, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate tournament id: %w", err)
	}
	now := time.Now().UTC()
	_, err = s.tournamentRepo.Create(ctx, tournament.Tournament{
		ID:                   tid,
		Type:                 tournament.TypeMidSeasonClassic,
		MaxParticipants:      params.Size,
		Status:               tournament.StatusRegistrationOpen,
		RegistrationDeadline: now.Add(12 * time.Hour),
		StartTime:            now.Add(24 * time.Hour),
		EntryFeeCredits:      params.EntryFeeCredits,
		EntryFeeGems:         params.EntryFeeGems,
	})
	if err != nil {
		return fmt.Errorf("create mid season classic: %w", err)
	}
	return nil
}

// Step 6: auto-start any tournament whose registration has closed.
func (s *SeasonAutomatorService) autoStartDueTournaments(ctx context.Context) error {
	if s.tournaments == nil {
		return nil
	}
	due, err := s.tournamentRepo.ListDueForAutoStart(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("list due tournaments: %w", err)
	}
	for _, t := range due {
		if err := s.tournaments.AutoStart(ctx, t.ID); err != nil {
			s.logger.ErrorContext(ctx, "tournament autostart failed",
				"component", "C7", "step", "autostart_tournaments", "entityId", t.ID, "error", err)
		}
	}
	return nil
}

// Step 7: hand off every SCHEDULED game whose start time has arrived to
// the C4 simulator.
func (s *SeasonAutomatorService) startDueMatches(ctx context.Context) error {
	if s.simulator == nil {
		return nil
	}
	due, err := s.gameRepo.ListScheduledDue(ctx, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("list due matches: %w", err)
	}
	for _, g := range due {
		if err := s.simulator.StartMatch(ctx, g.ID); err != nil {
			s.logger.ErrorContext(ctx, "match autostart failed",
				"component", "C7", "step", "start_matches", "entityId", g.ID, "error", err)
		}
	}
	return nil
}

// Step 9: kill any worker that stopped ticking past WorkerStallTimeout,
// then sweep every IN_PROGRESS game that isn't actually running in this
// process — orphaned by either a killed stalled worker or a prior crash
// that wiped the simulator's in-memory state on restart. A game
// checkpointed past kickoff resumes from its last GameTime; one never
// checkpointed is force-completed and flagged recovered.
func (s *SeasonAutomatorService) recoverStalledMatches(ctx context.Context) error {
	if s.simulator == nil {
		return nil
	}
	s.simulator.KillStalledWorkers(ctx)

	inProgress, err := s.gameRepo.ListInProgress(ctx)
	if err != nil {
		return fmt.Errorf("list in-progress matches: %w", err)
	}
	for _, g := range inProgress {
		if s.simulator.IsRunning(g.ID) {
			continue
		}
		if g.GameTime > 0 {
			if err := s.simulator.ResumeMatch(ctx, g); err != nil {
				s.logger.ErrorContext(ctx, "resume stalled match failed",
					"component", "C7", "step", "recover_stalled_matches", "entityId", g.ID, "error", err)
			}
			continue
		}
		if _, err := s.gameRepo.CompleteGame(ctx, g.ID, g.Version, g.HomeScore, g.AwayScore, true); err != nil {
			s.logger.ErrorContext(ctx, "force-complete orphaned match failed",
				"component", "C7", "step", "recover_stalled_matches", "entityId", g.ID, "error", err)
		}
	}
	return nil
}

// Step 8: offseason aging/retirement sweep on the second-to-last day of
// the cycle, ahead of rollover into a fresh season. Every active player
// ages by one year; veterans then roll a decline and a retirement
// check, and anyone who reaches the mandatory age retires outright.
func (s *SeasonAutomatorService) applyOffseasonAging(ctx context.Context, sn season.Season) error {
	claimed, err := s.seasonRepo.ClaimStep(ctx, sn.ID, "offseason_aging", sn.CurrentDay)
	if err != nil {
		return fmt.Errorf("claim offseason aging step: %w", err)
	}
	if !claimed {
		return nil
	}

	players, err := s.playerRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active players: %w", err)
	}
	for _, p := range players {
		rng := rand.New(rand.NewSource(seedFromString(p.ID + ":offseason:" + fmt.Sprint(sn.CurrentDay))))
		if err := retryOnConflict(func() error {
			current, err := s.playerRepo.GetByID(ctx, p.ID)
			if err != nil {
				return err
			}
			_, err = s.playerRepo.UpdateRecord(ctx, p.ID, current.Version, func(c player.Player) player.Player {
				return ageAndRetirePlayer(c, s.cfg, rng)
			})
			return err
		}); err != nil {
			s.logger.ErrorContext(ctx, "offseason aging failed",
				"component", "C7", "step", "offseason_aging", "entityId", p.ID, "error", err)
		}
	}
	return nil
}

// ageAndRetirePlayer advances a player by one year, rolls a decline
// trial once they reach AgeDeclineStart, rolls an increasing-odds
// retirement trial once they reach RetirementStart, and mandatorily
// retires anyone who reaches MandatoryRetireAge.
func ageAndRetirePlayer(p player.Player, cfg SeasonAutomatorConfig, rng *rand.Rand) player.Player {
	p.Age++

	if p.Age >= cfg.AgeDeclineStart && rng.Float64() < cfg.ProgressionBaseRate {
		names := []string{"speed", "power", "throwing", "catching", "kicking", "stamina", "leadership", "agility"}
		pick := names[rng.Intn(len(names))]
		p.Attributes = declineAttribute(p.Attributes, pick)
	}

	if p.Age >= cfg.MandatoryRetireAge {
		p.IsRetired = true
	} else if p.Age >= cfg.RetirementStart {
		retireProb := float64(p.Age-cfg.RetirementStart) / float64(cfg.MandatoryRetireAge-cfg.RetirementStart)
		if rng.Float64() < retireProb {
			p.IsRetired = true
		}
	}
	return p
}
