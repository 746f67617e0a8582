package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/fantasysports/season-core/internal/domain/player"
	qb "github.com/fantasysports/season-core/internal/platform/querybuilder"
	"github.com/fantasysports/season-core/internal/platform/store"
)

// PlayerRepository persists rosters, CAS-guarding every mutation on
// Version.
type PlayerRepository struct {
	db *sqlx.DB
}

func NewPlayerRepository(db *sqlx.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func mapPlayerRow(row playerTableModel) player.Player {
	return player.Player{
		ID:     row.ID,
		TeamID: row.TeamID,
		Age:    row.Age,
		Attributes: player.Attributes{
			Speed:      row.Speed,
			Power:      row.Power,
			Throwing:   row.Throwing,
			Catching:   row.Catching,
			Kicking:    row.Kicking,
			Stamina:    row.Stamina,
			Leadership: row.Leadership,
			Agility:    row.Agility,
		},
		PotentialStars: row.PotentialStars,
		IsRetired:      row.IsRetired,
		Version:        row.Version,
	}
}

func (r *PlayerRepository) GetByID(ctx context.Context, playerID string) (player.Player, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("id", playerID)).
		ToSQL()
	if err != nil {
		return player.Player{}, fmt.Errorf("build get player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, store.ErrNotFound
		}
		return player.Player{}, fmt.Errorf("get player: %w", err)
	}
	return mapPlayerRow(row), nil
}

func (r *PlayerRepository) ListByTeam(ctx context.Context, teamID string) ([]player.Player, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("team_id", teamID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list players by team query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list players by team: %w", err)
	}
	return mapPlayerRows(rows), nil
}

func (r *PlayerRepository) ListActive(ctx context.Context) ([]player.Player, error) {
	query, args, err := qb.Select("*").From("players").
		Where(qb.Eq("is_retired", false)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list active players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list active players: %w", err)
	}
	return mapPlayerRows(rows), nil
}

func mapPlayerRows(rows []playerTableModel) []player.Player {
	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapPlayerRow(row))
	}
	return out
}

func (r *PlayerRepository) UpdateRecord(ctx context.Context, playerID string, expectedVersion int64, mutate func(player.Player) player.Player) (player.Player, error) {
	current, err := r.GetByID(ctx, playerID)
	if err != nil {
		return player.Player{}, err
	}
	if current.Version != expectedVersion {
		return player.Player{}, store.ErrConflict
	}

	next := mutate(current)

	query, args, err := qb.Update("players").
		Set("team_id", next.TeamID).
		Set("age", next.Age).
		Set("speed", next.Attributes.Speed).
		Set("power", next.Attributes.Power).
		Set("throwing", next.Attributes.Throwing).
		Set("catching", next.Attributes.Catching).
		Set("kicking", next.Attributes.Kicking).
		Set("stamina", next.Attributes.Stamina).
		Set("leadership", next.Attributes.Leadership).
		Set("agility", next.Attributes.Agility).
		Set("potential_stars", next.PotentialStars).
		Set("is_retired", next.IsRetired).
		SetExpr("version", "version + 1").
		Where(qb.Eq("id", playerID), qb.Eq("version", expectedVersion)).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return player.Player{}, fmt.Errorf("build update player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, r.conflictOrNotFound(ctx, playerID)
		}
		return player.Player{}, fmt.Errorf("update player: %w", err)
	}
	return mapPlayerRow(row), nil
}

func (r *PlayerRepository) conflictOrNotFound(ctx context.Context, playerID string) error {
	if _, err := r.GetByID(ctx, playerID); err != nil {
		return err
	}
	return store.ErrConflict
}
