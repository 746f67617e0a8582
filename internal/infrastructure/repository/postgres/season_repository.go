package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fantasysports/season-core/internal/domain/season"
	qb "github.com/fantasysports/season-core/internal/platform/querybuilder"
	"github.com/fantasysports/season-core/internal/platform/store"
)

// SeasonRepository persists the single active season row and the
// once-per-day step claims C7 uses to make automator ticks idempotent.
type SeasonRepository struct {
	db *sqlx.DB
}

func NewSeasonRepository(db *sqlx.DB) *SeasonRepository {
	return &SeasonRepository{db: db}
}

func mapSeasonRow(row seasonTableModel) season.Season {
	return season.Season{
		ID:           row.ID,
		StartDateUTC: row.StartDateUTC,
		CurrentDay:   row.CurrentDay,
		Phase:        season.Phase(row.Phase),
		Version:      row.Version,
	}
}

func (r *SeasonRepository) Get(ctx context.Context, id string) (season.Season, error) {
	query, args, err := qb.Select("*").From("seasons").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return season.Season{}, fmt.Errorf("build get season query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, store.ErrNotFound
		}
		return season.Season{}, fmt.Errorf("get season: %w", err)
	}
	return mapSeasonRow(row), nil
}

func (r *SeasonRepository) UpdateDay(ctx context.Context, id string, expectedVersion int64, newDay int, newPhase season.Phase) (season.Season, error) {
	query, args, err := qb.Update("seasons").
		Set("current_day", newDay).
		Set("phase", string(newPhase)).
		SetExpr("version", "version + 1").
		Where(qb.Eq("id", id), qb.Eq("version", expectedVersion)).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return season.Season{}, fmt.Errorf("build update season query: %w", err)
	}

	var row seasonTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return season.Season{}, r.conflictOrNotFound(ctx, id)
		}
		return season.Season{}, fmt.Errorf("update season: %w", err)
	}
	return mapSeasonRow(row), nil
}

func (r *SeasonRepository) conflictOrNotFound(ctx context.Context, id string) error {
	if _, err := r.Get(ctx, id); err != nil {
		return err
	}
	return store.ErrConflict
}

// ClaimStep inserts a row into season_step_claims; the table's unique
// constraint on (season_id, step_key, game_day) makes the insert the
// atomic race winner. A unique-violation means another caller already
// claimed the step for that day.
func (r *SeasonRepository) ClaimStep(ctx context.Context, seasonID, stepKey string, gameDay int) (bool, error) {
	query, args, err := qb.InsertInto("season_step_claims").
		Columns("season_id", "step_key", "game_day").
		Values(seasonID, stepKey, gameDay).
		Suffix("ON CONFLICT (season_id, step_key, game_day) DO NOTHING").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build claim step query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("claim step: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim step rows affected: %w", err)
	}
	return affected > 0, nil
}
