package match

import (
	"context"
	"time"
)

// Repository describes game persistence needs from use cases.
type Repository interface {
	GetByID(ctx context.Context, gameID string) (Game, error)
	Create(ctx context.Context, g Game) (Game, error)
	ListScheduledDue(ctx context.Context, dueBy time.Time) ([]Game, error)
	ListInProgress(ctx context.Context) ([]Game, error)
	ListCompletedForSeason(ctx context.Context, subdivision string) ([]Game, error)
	ListByTournamentRound(ctx context.Context, tournamentID string, round int) ([]Game, error)

	// CheckpointProgress persists GameTime/scores for a running game
	// without changing Status; used every CheckpointTickInterval ticks.
	CheckpointProgress(ctx context.Context, gameID string, expectedVersion int64, gameTime, homeScore, awayScore int) (Game, error)

	// StartGame CAS-transitions SCHEDULED -> IN_PROGRESS.
	StartGame(ctx context.Context, gameID string, expectedVersion int64) (Game, error)

	// CompleteGame CAS-transitions IN_PROGRESS -> COMPLETED, guarded by
	// expectedVersion; duplicate completion attempts are rejected by CAS.
	CompleteGame(ctx context.Context, gameID string, expectedVersion int64, homeScore, awayScore int, recovered bool) (Game, error)
}
