// Package memory provides sync.RWMutex-guarded, map-backed repository
// implementations used in tests and local development, grounded on the
// teacher's in-memory TeamRepository pattern (guard-by-RWMutex, defensive
// copies on read).
package memory

import (
	"context"
	"strconv"
	"sync"

	"github.com/fantasysports/season-core/internal/domain/season"
	"github.com/fantasysports/season-core/internal/platform/store"
)

type SeasonRepository struct {
	mu      sync.RWMutex
	seasons map[string]season.Season
	steps   map[string]bool
}

func NewSeasonRepository(seed season.Season) *SeasonRepository {
	return &SeasonRepository{
		seasons: map[string]season.Season{seed.ID: seed},
		steps:   make(map[string]bool),
	}
}

func (r *SeasonRepository) Get(_ context.Context, id string) (season.Season, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.seasons[id]
	if !ok {
		return season.Season{}, store.ErrNotFound
	}
	return s, nil
}

func (r *SeasonRepository) UpdateDay(_ context.Context, id string, expectedVersion int64, newDay int, newPhase season.Phase) (season.Season, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.seasons[id]
	if !ok {
		return season.Season{}, store.ErrNotFound
	}
	if s.Version != expectedVersion {
		return season.Season{}, store.ErrConflict
	}

	s.CurrentDay = newDay
	s.Phase = newPhase
	s.Version++
	r.seasons[id] = s
	return s, nil
}

func (r *SeasonRepository) ClaimStep(_ context.Context, seasonID, stepKey string, gameDay int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := seasonID + ":" + stepKey + ":" + strconv.Itoa(gameDay)
	if r.steps[key] {
		return false, nil
	}
	r.steps[key] = true
	return true, nil
}
