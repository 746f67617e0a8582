package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fantasysports/season-core/internal/domain/team"
	qb "github.com/fantasysports/season-core/internal/platform/querybuilder"
	"github.com/fantasysports/season-core/internal/platform/store"
)

// TeamRepository persists franchises, CAS-guarding every mutation on
// Version, grounded on the teacher's sqlx/querybuilder select-and-map
// pattern but reworked from upsert to optimistic-concurrency updates.
type TeamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func mapTeamRow(row teamTableModel) team.Team {
	return team.Team{
		ID:          row.ID,
		Name:        row.Name,
		Division:    row.Division,
		Subdivision: row.Subdivision,
		Wins:        row.Wins,
		Losses:      row.Losses,
		Draws:       row.Draws,
		Points:      row.Points,
		Credits:     row.Credits,
		Gems:        row.Gems,
		Version:     row.Version,
	}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("id", teamID)).
		ToSQL()
	if err != nil {
		return team.Team{}, fmt.Errorf("build get team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, store.ErrNotFound
		}
		return team.Team{}, fmt.Errorf("get team: %w", err)
	}
	return mapTeamRow(row), nil
}

func (r *TeamRepository) ListByDivision(ctx context.Context, division int, subdivision string) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("division", division), qb.Eq("subdivision", subdivision)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list teams by division query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list teams by division: %w", err)
	}
	return mapTeamRows(rows), nil
}

func (r *TeamRepository) ListBySubdivision(ctx context.Context, subdivision string) ([]team.Team, error) {
	query, args, err := qb.Select("*").From("teams").
		Where(qb.Eq("subdivision", subdivision)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list teams by subdivision query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list teams by subdivision: %w", err)
	}
	return mapTeamRows(rows), nil
}

func mapTeamRows(rows []teamTableModel) []team.Team {
	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapTeamRow(row))
	}
	return out
}

// UpdateRecord reads the current row, applies mutate, and CAS-writes the
// result back guarded by expectedVersion.
func (r *TeamRepository) UpdateRecord(ctx context.Context, teamID string, expectedVersion int64, mutate func(team.Team) team.Team) (team.Team, error) {
	current, err := r.GetByID(ctx, teamID)
	if err != nil {
		return team.Team{}, err
	}
	if current.Version != expectedVersion {
		return team.Team{}, store.ErrConflict
	}

	next := mutate(current)

	query, args, err := qb.Update("teams").
		Set("name", next.Name).
		Set("division", next.Division).
		Set("subdivision", next.Subdivision).
		Set("wins", next.Wins).
		Set("losses", next.Losses).
		Set("draws", next.Draws).
		Set("points", next.Points).
		Set("credits", next.Credits).
		Set("gems", next.Gems).
		SetExpr("version", "version + 1").
		Where(qb.Eq("id", teamID), qb.Eq("version", expectedVersion)).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return team.Team{}, fmt.Errorf("build update team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, r.conflictOrNotFound(ctx, teamID)
		}
		return team.Team{}, fmt.Errorf("update team: %w", err)
	}
	return mapTeamRow(row), nil
}

func (r *TeamRepository) conflictOrNotFound(ctx context.Context, teamID string) error {
	if _, err := r.GetByID(ctx, teamID); err != nil {
		return err
	}
	return store.ErrConflict
}
