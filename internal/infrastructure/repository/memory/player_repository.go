package memory

import (
	"context"
	"sync"

	"github.com/fantasysports/season-core/internal/domain/player"
	"github.com/fantasysports/season-core/internal/platform/store"
)

type PlayerRepository struct {
	mu      sync.RWMutex
	players map[string]player.Player
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	byID := make(map[string]player.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}
	return &PlayerRepository{players: byID}
}

func (r *PlayerRepository) GetByID(_ context.Context, playerID string) (player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.players[playerID]
	if !ok {
		return player.Player{}, store.ErrNotFound
	}
	return p, nil
}

func (r *PlayerRepository) ListByTeam(_ context.Context, teamID string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0)
	for _, p := range r.players {
		if p.TeamID == teamID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PlayerRepository) ListActive(_ context.Context) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]player.Player, 0)
	for _, p := range r.players {
		if p.CanParticipate() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *PlayerRepository) UpdateRecord(_ context.Context, playerID string, expectedVersion int64, mutate func(player.Player) player.Player) (player.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.players[playerID]
	if !ok {
		return player.Player{}, store.ErrNotFound
	}
	if current.Version != expectedVersion {
		return player.Player{}, store.ErrConflict
	}

	updated := mutate(current)
	updated.Version++
	if err := updated.Validate(); err != nil {
		return player.Player{}, store.ErrIntegrity
	}
	r.players[playerID] = updated
	return updated, nil
}
