package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/fantasysports/season-core/internal/domain/match"
	"github.com/fantasysports/season-core/internal/domain/team"
	"github.com/fantasysports/season-core/internal/platform/logging"
)

// StandingsService rebuilds team W/L/D/points by replaying completed
// LEAGUE games, and serves sorted standings reads. Rebuild logic is
// grounded on the teacher's league-standing replay/sort pattern,
// adapted to this spec's exact tiebreak order (points, goal-diff,
// wins, losses, name) in place of the teacher's goals-for tiebreak.
type StandingsService struct {
	teamRepo team.Repository
	gameRepo match.Repository
	logger   *logging.Logger
}

func NewStandingsService(teamRepo team.Repository, gameRepo match.Repository, logger *logging.Logger) *StandingsService {
	if logger == nil {
		logger = logging.Default()
	}
	return &StandingsService{teamRepo: teamRepo, gameRepo: gameRepo, logger: logger}
}

type standingsAggregate struct {
	TeamID string
	Wins   int
	Losses int
	Draws  int
	GoalsFor int
	GoalsAgainst int
}

func (a standingsAggregate) points() int { return 3*a.Wins + a.Draws }
func (a standingsAggregate) goalDiff() int { return a.GoalsFor - a.GoalsAgainst }

// RebuildSubdivision replays every COMPLETED LEAGUE game for subdivision
// into fresh aggregates, then CAS-corrects any team row whose stored
// W/L/D/points differ from the replay. It returns the count of
// corrected rows. Safe to run repeatedly (idempotent): a clean replay
// changes nothing.
func (s *StandingsService) RebuildSubdivision(ctx context.Context, subdivision string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.RebuildSubdivision")
	defer span.End()

	games, err := s.gameRepo.ListCompletedForSeason(ctx, subdivision)
	if err != nil {
		return 0, fmt.Errorf("list completed games: %w", err)
	}

	aggregates := make(map[string]*standingsAggregate)
	ensure := func(id string) *standingsAggregate {
		if agg, ok := aggregates[id]; ok {
			return agg
		}
		agg := &standingsAggregate{TeamID: id}
		aggregates[id] = agg
		return agg
	}

	for _, g := range games {
		if g.MatchType != match.TypeLeague || g.Status != match.StatusCompleted {
			continue
		}
		home := ensure(g.HomeTeamID)
		away := ensure(g.AwayTeamID)
		home.GoalsFor += g.HomeScore
		home.GoalsAgainst += g.AwayScore
		away.GoalsFor += g.AwayScore
		away.GoalsAgainst += g.HomeScore

		switch team.OutcomeFromScores(g.HomeScore, g.AwayScore) {
		case team.Win:
			home.Wins++
			away.Losses++
		case team.Loss:
			home.Losses++
			away.Wins++
		case team.Draw:
			home.Draws++
			away.Draws++
		}
	}

	teams, err := s.teamRepo.ListBySubdivision(ctx, subdivision)
	if err != nil {
		return 0, fmt.Errorf("list teams: %w", err)
	}

	corrected := 0
	for _, t := range teams {
		agg, ok := aggregates[t.ID]
		if !ok {
			agg = &standingsAggregate{TeamID: t.ID}
		}
		if t.Wins == agg.Wins && t.Losses == agg.Losses && t.Draws == agg.Draws && t.Points == agg.points() {
			continue
		}

		_, err := s.teamRepo.UpdateRecord(ctx, t.ID, t.Version, func(current team.Team) team.Team {
			current.Wins = agg.Wins
			current.Losses = agg.Losses
			current.Draws = agg.Draws
			current.Points = agg.points()
			return current
		})
		if err != nil {
			s.logger.ErrorContext(ctx, "standings rebuild correction failed",
				"component", "C7", "step", "standings_rebuild", "entityId", t.ID, "error", err)
			continue
		}
		corrected++
	}

	return corrected, nil
}

// StandingRow is one ranked standings entry for the HTTP read model.
type StandingRow struct {
	Team team.Team
	Rank int
}

// List returns standings for a division/subdivision sorted per spec
// §6: points desc, goal-difference desc, wins desc, losses asc, name asc.
func (s *StandingsService) List(ctx context.Context, division int, subdivision string) ([]StandingRow, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StandingsService.List")
	defer span.End()

	teams, err := s.teamRepo.ListByDivision(ctx, division, subdivision)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}

	games, err := s.gameRepo.ListCompletedForSeason(ctx, subdivision)
	if err != nil {
		return nil, fmt.Errorf("list completed games: %w", err)
	}

	goalDiff := make(map[string]int, len(teams))
	for _, g := range games {
		if g.MatchType != match.TypeLeague {
			continue
		}
		goalDiff[g.HomeTeamID] += g.HomeScore - g.AwayScore
		goalDiff[g.AwayTeamID] += g.AwayScore - g.HomeScore
	}

	sort.SliceStable(teams, func(i, j int) bool {
		a, b := teams[i], teams[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if goalDiff[a.ID] != goalDiff[b.ID] {
			return goalDiff[a.ID] > goalDiff[b.ID]
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		if a.Losses != b.Losses {
			return a.Losses < b.Losses
		}
		return a.Name < b.Name
	})

	rows := make([]StandingRow, 0, len(teams))
	for i, t := range teams {
		rows = append(rows, StandingRow{Team: t, Rank: i + 1})
	}
	return rows, nil
}
