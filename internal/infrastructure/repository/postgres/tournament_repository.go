package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fantasysports/season-core/internal/domain/tournament"
	qb "github.com/fantasysports/season-core/internal/platform/querybuilder"
	"github.com/fantasysports/season-core/internal/platform/store"
)

// TournamentRepository persists tournaments and their entries,
// CAS-guarding tournament status/round transitions on Version.
type TournamentRepository struct {
	db *sqlx.DB
}

func NewTournamentRepository(db *sqlx.DB) *TournamentRepository {
	return &TournamentRepository{db: db}
}

func mapTournamentRow(row tournamentTableModel) tournament.Tournament {
	return tournament.Tournament{
		ID:                   row.ID,
		Type:                 tournament.Type(row.Type),
		Division:             row.Division,
		MaxParticipants:      row.MaxParticipants,
		Status:               tournament.Status(row.Status),
		RegistrationDeadline: row.RegistrationDeadline,
		StartTime:            row.StartTime,
		PrizePoolCredits:     row.PrizePoolCredits,
		RequiresEntryItem:    row.RequiresEntryItem,
		EntryFeeCredits:      row.EntryFeeCredits,
		EntryFeeGems:         row.EntryFeeGems,
		CurrentRound:         row.CurrentRound,
		Version:              row.Version,
	}
}

func mapTournamentRows(rows []tournamentTableModel) []tournament.Tournament {
	out := make([]tournament.Tournament, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapTournamentRow(row))
	}
	return out
}

func mapEntryRow(row tournamentEntryTableModel) tournament.Entry {
	return tournament.Entry{
		ID:           row.ID,
		TournamentID: row.TournamentID,
		TeamID:       row.TeamID,
		FinalRank:    row.FinalRank,
		Paid:         row.Paid,
		IsAIFill:     row.IsAIFill,
		Seed:         row.Seed,
	}
}

func (r *TournamentRepository) GetByID(ctx context.Context, id string) (tournament.Tournament, error) {
	query, args, err := qb.Select("*").From("tournaments").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("build get tournament query: %w", err)
	}

	var row tournamentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return tournament.Tournament{}, store.ErrNotFound
		}
		return tournament.Tournament{}, fmt.Errorf("get tournament: %w", err)
	}
	return mapTournamentRow(row), nil
}

func (r *TournamentRepository) Create(ctx context.Context, t tournament.Tournament) (tournament.Tournament, error) {
	insertModel := tournamentTableModel{
		ID:                   t.ID,
		Type:                 string(t.Type),
		Division:             t.Division,
		MaxParticipants:      t.MaxParticipants,
		Status:               string(t.Status),
		RegistrationDeadline: t.RegistrationDeadline,
		StartTime:            t.StartTime,
		PrizePoolCredits:     t.PrizePoolCredits,
		RequiresEntryItem:    t.RequiresEntryItem,
		EntryFeeCredits:      t.EntryFeeCredits,
		EntryFeeGems:         t.EntryFeeGems,
		CurrentRound:         t.CurrentRound,
		Version:              1,
	}

	query, args, err := qb.InsertModel("tournaments", insertModel, "RETURNING *")
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("build create tournament query: %w", err)
	}

	var row tournamentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return tournament.Tournament{}, fmt.Errorf("create tournament: %w", err)
	}
	return mapTournamentRow(row), nil
}

func (r *TournamentRepository) ListOpenForDivisionToday(ctx context.Context, division int, dayStart, dayEnd time.Time) ([]tournament.Tournament, error) {
	query, args, err := qb.Select("*").From("tournaments").
		Where(
			qb.Eq("status", string(tournament.StatusRegistrationOpen)),
			qb.Eq("division", division),
			qb.Expr("registration_deadline >= ?", dayStart),
			qb.Expr("registration_deadline < ?", dayEnd),
		).
		OrderBy("registration_deadline").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list open tournaments by division query: %w", err)
	}

	var rows []tournamentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list open tournaments by division: %w", err)
	}
	return mapTournamentRows(rows), nil
}

func (r *TournamentRepository) ListMidSeasonClassicForSeason(ctx context.Context, _ string) ([]tournament.Tournament, error) {
	// The core tracks a single active season, so every mid-season
	// classic row belongs to it; seasonID is accepted for interface
	// symmetry with a future multi-season schema.
	query, args, err := qb.Select("*").From("tournaments").
		Where(qb.Eq("type", string(tournament.TypeMidSeasonClassic))).
		OrderBy("start_time").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list mid-season classics query: %w", err)
	}

	var rows []tournamentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list mid-season classics: %w", err)
	}
	return mapTournamentRows(rows), nil
}

func (r *TournamentRepository) ListDueForAutoStart(ctx context.Context, now time.Time) ([]tournament.Tournament, error) {
	query, args, err := qb.Select("*").From("tournaments").
		Where(
			qb.Eq("status", string(tournament.StatusRegistrationOpen)),
			qb.Expr("registration_deadline <= ?", now),
		).
		OrderBy("registration_deadline").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list due-for-autostart tournaments query: %w", err)
	}

	var rows []tournamentTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list due-for-autostart tournaments: %w", err)
	}
	return mapTournamentRows(rows), nil
}

func (r *TournamentRepository) UpdateStatus(ctx context.Context, id string, expectedVersion int64, status tournament.Status) (tournament.Tournament, error) {
	query, args, err := qb.Update("tournaments").
		Set("status", string(status)).
		SetExpr("version", "version + 1").
		Where(qb.Eq("id", id), qb.Eq("version", expectedVersion)).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("build update tournament status query: %w", err)
	}
	return r.updateAndMap(ctx, id, query, args)
}

func (r *TournamentRepository) AdvanceRound(ctx context.Context, id string, expectedVersion int64, round int) (tournament.Tournament, error) {
	query, args, err := qb.Update("tournaments").
		Set("current_round", round).
		SetExpr("version", "version + 1").
		Where(qb.Eq("id", id), qb.Eq("version", expectedVersion)).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("build advance tournament round query: %w", err)
	}
	return r.updateAndMap(ctx, id, query, args)
}

func (r *TournamentRepository) Complete(ctx context.Context, id string, expectedVersion int64) (tournament.Tournament, error) {
	query, args, err := qb.Update("tournaments").
		Set("status", string(tournament.StatusCompleted)).
		SetExpr("version", "version + 1").
		Where(qb.Eq("id", id), qb.Eq("version", expectedVersion)).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("build complete tournament query: %w", err)
	}
	return r.updateAndMap(ctx, id, query, args)
}

func (r *TournamentRepository) updateAndMap(ctx context.Context, id, query string, args []any) (tournament.Tournament, error) {
	var row tournamentTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return tournament.Tournament{}, r.conflictOrNotFound(ctx, id)
		}
		return tournament.Tournament{}, fmt.Errorf("update tournament: %w", err)
	}
	return mapTournamentRow(row), nil
}

func (r *TournamentRepository) conflictOrNotFound(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return store.ErrConflict
}

func (r *TournamentRepository) ListEntries(ctx context.Context, tournamentID string) ([]tournament.Entry, error) {
	query, args, err := qb.Select("*").From("tournament_entries").
		Where(qb.Eq("tournament_id", tournamentID)).
		OrderBy("seed").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list tournament entries query: %w", err)
	}

	var rows []tournamentEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list tournament entries: %w", err)
	}

	out := make([]tournament.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, mapEntryRow(row))
	}
	return out, nil
}

func (r *TournamentRepository) AddEntry(ctx context.Context, e tournament.Entry) (tournament.Entry, error) {
	insertModel := tournamentEntryTableModel{
		ID:           e.ID,
		TournamentID: e.TournamentID,
		TeamID:       e.TeamID,
		FinalRank:    e.FinalRank,
		Paid:         e.Paid,
		IsAIFill:     e.IsAIFill,
		Seed:         e.Seed,
	}

	query, args, err := qb.InsertModel("tournament_entries", insertModel, "RETURNING *")
	if err != nil {
		return tournament.Entry{}, fmt.Errorf("build add tournament entry query: %w", err)
	}

	var row tournamentEntryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return tournament.Entry{}, fmt.Errorf("add tournament entry: %w", err)
	}
	return mapEntryRow(row), nil
}

func (r *TournamentRepository) SetFinalRank(ctx context.Context, entryID string, rank int) (tournament.Entry, error) {
	query, args, err := qb.Update("tournament_entries").
		Set("final_rank", rank).
		Where(qb.Eq("id", entryID)).
		Suffix("RETURNING *").
		ToSQL()
	if err != nil {
		return tournament.Entry{}, fmt.Errorf("build set final rank query: %w", err)
	}

	var row tournamentEntryTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return tournament.Entry{}, store.ErrNotFound
		}
		return tournament.Entry{}, fmt.Errorf("set final rank: %w", err)
	}
	return mapEntryRow(row), nil
}
