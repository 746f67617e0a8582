package team

import "context"

// Repository describes team persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, teamID string) (Team, error)
	ListByDivision(ctx context.Context, division int, subdivision string) ([]Team, error)
	ListBySubdivision(ctx context.Context, subdivision string) ([]Team, error)

	// UpdateRecord CAS-updates W/L/D/points/credits/gems, guarded by
	// expectedVersion. Returns store.ErrConflict on a version mismatch.
	UpdateRecord(ctx context.Context, teamID string, expectedVersion int64, mutate func(Team) Team) (Team, error)
}
