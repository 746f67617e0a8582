package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fantasysports/season-core/internal/domain/match"
	"github.com/fantasysports/season-core/internal/platform/store"
)

type MatchRepository struct {
	mu    sync.RWMutex
	games map[string]match.Game
}

func NewMatchRepository(games []match.Game) *MatchRepository {
	byID := make(map[string]match.Game, len(games))
	for _, g := range games {
		byID[g.ID] = g
	}
	return &MatchRepository{games: byID}
}

func (r *MatchRepository) GetByID(_ context.Context, gameID string) (match.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[gameID]
	if !ok {
		return match.Game{}, store.ErrNotFound
	}
	return g, nil
}

func (r *MatchRepository) Create(_ context.Context, g match.Game) (match.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.games[g.ID]; exists {
		return match.Game{}, store.ErrConflict
	}
	if err := g.Validate(); err != nil {
		return match.Game{}, store.ErrIntegrity
	}
	g.Version = 1
	r.games[g.ID] = g
	return g, nil
}

func (r *MatchRepository) ListScheduledDue(_ context.Context, dueBy time.Time) ([]match.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Game, 0)
	for _, g := range r.games {
		if g.Status == match.StatusScheduled && !g.GameDate.After(dueBy) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *MatchRepository) ListInProgress(_ context.Context) ([]match.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Game, 0)
	for _, g := range r.games {
		if g.Status == match.StatusInProgress {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *MatchRepository) ListCompletedForSeason(_ context.Context, subdivision string) ([]match.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Game, 0)
	for _, g := range r.games {
		if g.Status == match.StatusCompleted {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *MatchRepository) ListByTournamentRound(_ context.Context, tournamentID string, round int) ([]match.Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Game, 0)
	for _, g := range r.games {
		if g.TournamentID != nil && *g.TournamentID == tournamentID && g.Round != nil && *g.Round == round {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *MatchRepository) CheckpointProgress(_ context.Context, gameID string, expectedVersion int64, gameTime, homeScore, awayScore int) (match.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[gameID]
	if !ok {
		return match.Game{}, store.ErrNotFound
	}
	if g.Version != expectedVersion {
		return match.Game{}, store.ErrConflict
	}

	g.GameTime = gameTime
	g.HomeScore = homeScore
	g.AwayScore = awayScore
	g.Version++
	r.games[gameID] = g
	return g, nil
}

func (r *MatchRepository) StartGame(_ context.Context, gameID string, expectedVersion int64) (match.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[gameID]
	if !ok {
		return match.Game{}, store.ErrNotFound
	}
	if g.Version != expectedVersion {
		return match.Game{}, store.ErrConflict
	}
	if g.Status != match.StatusScheduled {
		return match.Game{}, store.ErrIntegrity
	}

	g.Status = match.StatusInProgress
	g.Version++
	r.games[gameID] = g
	return g, nil
}

func (r *MatchRepository) CompleteGame(_ context.Context, gameID string, expectedVersion int64, homeScore, awayScore int, recovered bool) (match.Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.games[gameID]
	if !ok {
		return match.Game{}, store.ErrNotFound
	}
	if g.Version != expectedVersion {
		return match.Game{}, store.ErrConflict
	}
	if g.Status != match.StatusInProgress {
		return match.Game{}, store.ErrIntegrity
	}

	g.Status = match.StatusCompleted
	g.HomeScore = homeScore
	g.AwayScore = awayScore
	g.Recovered = recovered
	g.Version++
	r.games[gameID] = g
	return g, nil
}
