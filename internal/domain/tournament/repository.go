package tournament

import (
	"context"
	"time"
)

// Repository describes tournament/entry persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, id string) (Tournament, error)
	Create(ctx context.Context, t Tournament) (Tournament, error)
	ListOpenForDivisionToday(ctx context.Context, division int, dayStart, dayEnd time.Time) ([]Tournament, error)
	ListMidSeasonClassicForSeason(ctx context.Context, seasonID string) ([]Tournament, error)
	ListDueForAutoStart(ctx context.Context, now time.Time) ([]Tournament, error)

	UpdateStatus(ctx context.Context, id string, expectedVersion int64, status Status) (Tournament, error)
	AdvanceRound(ctx context.Context, id string, expectedVersion int64, round int) (Tournament, error)
	Complete(ctx context.Context, id string, expectedVersion int64) (Tournament, error)

	ListEntries(ctx context.Context, tournamentID string) ([]Entry, error)
	AddEntry(ctx context.Context, e Entry) (Entry, error)
	SetFinalRank(ctx context.Context, entryID string, rank int) (Entry, error)
}
