package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fantasysports/season-core/internal/domain/match"
	qb "github.com/fantasysports/season-core/internal/platform/querybuilder"
	"github.com/fantasysports/season-core/internal/platform/store"
)

// MatchRepository persists scheduled/live/completed games, CAS-guarding
// every status transition and checkpoint write on Version.
type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func mapGameRow(row gameTableModel) match.Game {
	return match.Game{
		ID:           row.ID,
		HomeTeamID:   row.HomeTeamID,
		AwayTeamID:   row.AwayTeamID,
		MatchType:    match.Type(row.MatchType),
		Status:       match.Status(row.Status),
		GameDate:     row.GameDate,
		HomeScore:    row.HomeScore,
		AwayScore:    row.AwayScore,
		GameTime:     row.GameTime,
		TournamentID: row.TournamentID,
		Round:        row.Round,
		Recovered:    row.Recovered,
		Version:      row.Version,
	}
}

func mapGameRows(rows []gameTableModel) []match.Game {
	out := make([]match.Game, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapGameRow(row))
	}
	return out
}

func (r *MatchRepository) GetByID(ctx context.Context, gameID string) (match.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("id", gameID)).
		ToSQL()
	if err != nil {
		return match.Game{}, fmt.Errorf("build get game query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Game{}, store.ErrNotFound
		}
		return match.Game{}, fmt.Errorf("get game: %w", err)
	}
	return mapGameRow(row), nil
}

func (r *MatchRepository) Create(ctx context.Context, g match.Game) (match.Game, error) {
	insertModel := gameTableModel{
		ID:           g.ID,
		HomeTeamID:   g.HomeTeamID,
		AwayTeamID:   g.AwayTeamID,
		MatchType:    string(g.MatchType),
		Status:       string(g.Status),
		GameDate:     g.GameDate,
		HomeScore:    g.HomeScore,
		AwayScore:    g.AwayScore,
		GameTime:     g.GameTime,
		TournamentID: g.TournamentID,
		Round:        g.Round,
		Recovered:    g.Recovered,
		Version:      1,
	}

	query, args, err := qb.InsertModel("games", insertModel, "RETURNING *")
	if err != nil {
		return match.Game{}, fmt.Errorf("build create game query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return match.Game{}, fmt.Errorf("create game: %w", err)
	}
	return mapGameRow(row), nil
}

func (r *MatchRepository) ListScheduledDue(ctx context.Context, dueBy time.Time) ([]match.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(
			qb.Eq("status", string(match.StatusScheduled)),
			qb.Expr("game_date <= ?", dueBy),
		).
		OrderBy("game_date").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list scheduled due games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list scheduled due games: %w", err)
	}
	return mapGameRows(rows), nil
}

func (r *MatchRepository) ListInProgress(ctx context.Context) ([]match.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("status", string(match.StatusInProgress))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list in-progress games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list in-progress games: %w", err)
	}
	return mapGameRows(rows), nil
}

func (r *MatchRepository) ListCompletedForSeason(ctx context.Context, subdivision string) ([]match.Game, error) {
	query, args, err := qb.Select("games.*").From("games").
		Where(
			qb.Eq("games.status", string(match.StatusCompleted)),
			qb.Eq("games.match_type", string(match.TypeLeague)),
			qb.Expr("games.home_team_id IN (SELECT id FROM teams WHERE subdivision = ?)", subdivision),
		).
		OrderBy("games.game_date").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list completed league games query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list completed league games: %w", err)
	}
	return mapGameRows(rows), nil
}

func (r *MatchRepository) ListByTournamentRound(ctx context.Context, tournamentID string, round int) ([]match.Game, error) {
	query, args, err := qb.Select("*").From("games").
		Where(qb.Eq("tournament_id", tournamentID), qb.Eq("round", round)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list games by tournament round query: %w", err)
	}

	var rows []gameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list games by tournament round: %w", err)
	}
	return mapGameRows(rows), nil
}

func (r *MatchRepository) CheckpointProgress(ctx context.Context, gameID string, expectedVersion int64, gameTime, homeScore, awayScore int) (match.Game, error) {
	query, args, err := qb.Update("games").
		Set("game_time", gameTime).
		Set("home_score", homeScore).
		Set("away_score", awayScore).
		SetExpr("version", "version + 1").
		Where(qb.Eq("id", gameID), qb.Eq("version", expectedVersion)).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return match.Game{}, fmt.Errorf("build checkpoint game query: %w", err)
	}
	return r.updateAndMap(ctx, gameID, query, args)
}

func (r *MatchRepository) StartGame(ctx context.Context, gameID string, expectedVersion int64) (match.Game, error) {
	query, args, err := qb.Update("games").
		Set("status", string(match.StatusInProgress)).
		SetExpr("version", "version + 1").
		Where(qb.Eq("id", gameID), qb.Eq("version", expectedVersion), qb.Eq("status", string(match.StatusScheduled))).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return match.Game{}, fmt.Errorf("build start game query: %w", err)
	}
	return r.updateAndMap(ctx, gameID, query, args)
}

func (r *MatchRepository) CompleteGame(ctx context.Context, gameID string, expectedVersion int64, homeScore, awayScore int, recovered bool) (match.Game, error) {
	query, args, err := qb.Update("games").
		Set("status", string(match.StatusCompleted)).
		Set("home_score", homeScore).
		Set("away_score", awayScore).
		Set("recovered", recovered).
		SetExpr("version", "version + 1").
		Where(qb.Eq("id", gameID), qb.Eq("version", expectedVersion), qb.Eq("status", string(match.StatusInProgress))).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return match.Game{}, fmt.Errorf("build complete game query: %w", err)
	}
	return r.updateAndMap(ctx, gameID, query, args)
}

func (r *MatchRepository) updateAndMap(ctx context.Context, gameID, query string, args []any) (match.Game, error) {
	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Game{}, r.conflictOrNotFound(ctx, gameID)
		}
		return match.Game{}, fmt.Errorf("update game: %w", err)
	}
	return mapGameRow(row), nil
}

func (r *MatchRepository) conflictOrNotFound(ctx context.Context, gameID string) error {
	if _, err := r.GetByID(ctx, gameID); err != nil {
		return err
	}
	return store.ErrConflict
}
