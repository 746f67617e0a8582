package memory

import (
	"context"
	"sync"

	"github.com/fantasysports/season-core/internal/domain/team"
	"github.com/fantasysports/season-core/internal/platform/store"
)

type TeamRepository struct {
	mu    sync.RWMutex
	teams map[string]team.Team
}

func NewTeamRepository(teams []team.Team) *TeamRepository {
	byID := make(map[string]team.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	return &TeamRepository{teams: byID}
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.teams[teamID]
	if !ok {
		return team.Team{}, store.ErrNotFound
	}
	return t, nil
}

func (r *TeamRepository) ListByDivision(_ context.Context, division int, subdivision string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0)
	for _, t := range r.teams {
		if t.Division == division && t.Subdivision == subdivision {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TeamRepository) ListBySubdivision(_ context.Context, subdivision string) ([]team.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]team.Team, 0)
	for _, t := range r.teams {
		if t.Subdivision == subdivision {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *TeamRepository) UpdateRecord(_ context.Context, teamID string, expectedVersion int64, mutate func(team.Team) team.Team) (team.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.teams[teamID]
	if !ok {
		return team.Team{}, store.ErrNotFound
	}
	if current.Version != expectedVersion {
		return team.Team{}, store.ErrConflict
	}

	updated := mutate(current)
	updated.Version++
	if err := updated.Validate(); err != nil {
		return team.Team{}, store.ErrIntegrity
	}
	r.teams[teamID] = updated
	return updated, nil
}
