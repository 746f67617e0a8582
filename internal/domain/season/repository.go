package season

import "context"

// Repository exposes CAS-guarded access to the single active season row.
type Repository interface {
	Get(ctx context.Context, id string) (Season, error)
	// UpdateDay CAS-updates CurrentDay/Phase, guarded by the given
	// expected version. Returns store.ErrConflict when the version
	// no longer matches.
	UpdateDay(ctx context.Context, id string, expectedVersion int64, newDay int, newPhase Phase) (Season, error)

	// ClaimStep atomically claims a once-per-day automator step (e.g.
	// "progression", "offseason_aging") for the given game day. It
	// returns claimed=true only for the caller that wins the race; every
	// other caller (including a retried/duplicate automator tick) sees
	// claimed=false and must skip the step. This is what makes each C7
	// step idempotent across process restarts and overlapping ticks.
	ClaimStep(ctx context.Context, seasonID, stepKey string, gameDay int) (claimed bool, err error)
}
