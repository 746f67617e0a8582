package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/fantasysports/season-core/external/jobqueue"
	"github.com/fantasysports/season-core/internal/config"
	"github.com/fantasysports/season-core/internal/domain/dispatch"
	"github.com/fantasysports/season-core/internal/domain/match"
	"github.com/fantasysports/season-core/internal/domain/season"
	"github.com/fantasysports/season-core/internal/domain/team"
	"github.com/fantasysports/season-core/internal/domain/tournament"
	cacherepo "github.com/fantasysports/season-core/internal/infrastructure/repository/cache"
	postgresrepo "github.com/fantasysports/season-core/internal/infrastructure/repository/postgres"
	"github.com/fantasysports/season-core/internal/interfaces/httpapi"
	basecache "github.com/fantasysports/season-core/internal/platform/cache"
	"github.com/fantasysports/season-core/internal/platform/eventbus"
	idgen "github.com/fantasysports/season-core/internal/platform/id"
	"github.com/fantasysports/season-core/internal/platform/logging"
	"github.com/fantasysports/season-core/internal/platform/resilience"
	"github.com/fantasysports/season-core/internal/usecase"
)

// standingsCacheTTL bounds how long a rebuilt division/subdivision
// table is served stale; the automator rebuilds standings every game
// day (C7 step 2), so this only matters between rebuilds.
const standingsCacheTTL = 30 * time.Second

// App wires every C1-C7 component together and owns the background
// season-automator loop started by Run.
type App struct {
	Router    http.Handler
	Close     func() error
	automator *usecase.SeasonAutomatorService
	seasonID  string
}

// Run starts the season automator's tick loop and blocks until ctx is
// cancelled, mirroring the teacher's JobOrchestratorService.Run contract.
func (a *App) Run(ctx context.Context) {
	a.automator.Run(ctx, a.seasonID)
}

// Stop asks the automator loop to exit promptly instead of waiting for
// ctx cancellation to propagate through the next tick.
func (a *App) Stop() {
	a.automator.Stop()
}

// New opens the postgres connection, wires the C1-C7 services, and
// builds the HTTP router. The returned App.Close must run on shutdown
// to release the pool; callers should also call Stop/cancel the Run
// context to end the automator loop cleanly.
func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	db, err := otelsqlx.Open("postgres", normalizeDBURL(cfg.DBURL, false),
		otelsql.WithDBSystem("postgresql"),
		otelsql.WithDBName(dbNameFromURL(cfg.DBURL)),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	var seasonRepo season.Repository = postgresrepo.NewSeasonRepository(db)
	var teamRepo team.Repository = postgresrepo.NewTeamRepository(db)
	playerRepo := postgresrepo.NewPlayerRepository(db)
	var gameRepo match.Repository = postgresrepo.NewMatchRepository(db)
	var tournamentRepo tournament.Repository = postgresrepo.NewTournamentRepository(db)

	// Team and season rows are read far more often than written (every
	// standings rebuild, every live-match tick, every HTTP read), so
	// both get wrapped unconditionally; games and tournaments mutate on
	// nearly every read path and gain little from caching.
	cacheStore := basecache.NewStore(standingsCacheTTL)
	teamRepo = cacherepo.NewTeamRepository(teamRepo, cacheStore)
	seasonRepo = cacherepo.NewSeasonRepository(seasonRepo, cacheStore)

	tickBus := eventbus.New[usecase.TickEvent]()
	lifeBus := eventbus.New[usecase.LifecycleEvent]()
	seasonBus := eventbus.New[usecase.SeasonEvent]()
	idGen := idgen.NewRandomGenerator()

	simulator, err := usecase.NewMatchSimulatorService(
		gameRepo,
		teamRepo,
		playerRepo,
		tickBus,
		lifeBus,
		logger,
		usecase.MatchSimulatorConfig{
			TickPeriod:           cfg.SimulationTickPeriod,
			MaxConcurrentMatches: cfg.MaxConcurrentMatches,
			WorkerStallTimeout:   cfg.WorkerStallTimeout,
		},
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("build match simulator: %w", err)
	}

	tournamentCfg := usecase.TournamentConfig{
		DailyCupSize:   cfg.DailyCupSize,
		MidSeasonSize:  cfg.MidSeasonCupSize,
		DailyDivisions: cfg.DailyCupDivisions,
		MidSeasonDay:   cfg.MidSeasonCupDay,
	}
	tournamentSvc := usecase.NewTournamentService(
		tournamentRepo,
		teamRepo,
		gameRepo,
		simulator,
		idGen,
		logger,
		tournamentCfg,
	)

	standingsSvc := usecase.NewStandingsService(teamRepo, gameRepo, logger)

	var jobQueue usecase.JobQueue = usecase.NewNoopJobQueue()
	if cfg.JobQueueEnabled {
		jobQueue = jobqueue.NewPublisher(jobqueue.PublisherConfig{
			BaseURL:       cfg.JobQueueBaseURL,
			Token:         cfg.JobQueueToken,
			TargetBaseURL: cfg.JobQueueTargetBaseURL,
			Retries:       cfg.JobQueueRetries,
			CircuitBreaker: resilience.CircuitBreakerConfig{
				Enabled:          cfg.JobQueueCircuitEnabled,
				FailureThreshold: cfg.JobQueueCircuitFailureCount,
				OpenTimeout:      cfg.JobQueueCircuitOpenTimeout,
				HalfOpenMaxReq:   cfg.JobQueueCircuitHalfOpenMaxReq,
			},
		}, logger)
	}
	var dispatchRepo dispatch.Repository = postgresrepo.NewDispatchRepository(db)

	automator := usecase.NewSeasonAutomatorService(
		seasonRepo,
		teamRepo,
		playerRepo,
		gameRepo,
		tournamentRepo,
		standingsSvc,
		tournamentSvc,
		simulator,
		seasonBus,
		idGen,
		logger,
		jobQueue,
		dispatchRepo,
		usecase.SeasonAutomatorConfig{
			TickPeriod:          cfg.SeasonTickPeriod,
			ProgressionBaseRate: cfg.ProgressionBaseRate,
			AgeDeclineStart:     cfg.AgeDeclineStart,
			RetirementStart:     cfg.RetirementStart,
			MandatoryRetireAge:  cfg.MandatoryRetireAge,
			Tournament:          tournamentCfg,
		},
	)

	var storeBreaker *resilience.CircuitBreaker
	if cfg.StoreCircuitEnabled {
		storeBreaker = resilience.NewCircuitBreaker(
			cfg.StoreCircuitFailureCount,
			cfg.StoreCircuitOpenTimeout,
			cfg.StoreCircuitHalfOpenMaxReq,
		)
	}
	pingStore := func(ctx context.Context) error {
		return db.PingContext(ctx)
	}

	handler := httpapi.NewHandler(
		gameRepo,
		seasonRepo,
		tournamentRepo,
		simulator,
		tournamentSvc,
		standingsSvc,
		cfg.SeasonID,
		storeBreaker,
		pingStore,
		logger,
	)
	router := httpapi.NewRouter(handler, logger, cfg.CORSAllowedOrigins, cfg.AdminJobToken)

	closeFn := func() error {
		simulator.Close()
		return db.Close()
	}

	return &App{
		Router:    router,
		Close:     closeFn,
		automator: automator,
		seasonID:  cfg.SeasonID,
	}, nil
}
