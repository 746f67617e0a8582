package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, playerID string) (Player, error)
	ListByTeam(ctx context.Context, teamID string) ([]Player, error)
	ListActive(ctx context.Context) ([]Player, error)

	// UpdateRecord CAS-updates a player row, guarded by expectedVersion.
	UpdateRecord(ctx context.Context, playerID string, expectedVersion int64, mutate func(Player) Player) (Player, error)
}
