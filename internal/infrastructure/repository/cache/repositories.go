// Package cache wraps postgres repositories with the platform's
// read-through store for the core's hottest read paths (standings
// listings, the season singleton), invalidating on every CAS write so a
// stale cached row is never served back to a writer doing read-modify-write.
package cache

import (
	"context"
	"strconv"

	"github.com/fantasysports/season-core/internal/domain/season"
	"github.com/fantasysports/season-core/internal/domain/team"
	basecache "github.com/fantasysports/season-core/internal/platform/cache"
)

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, error) {
	return r.next.GetByID(ctx, teamID)
}

func (r *TeamRepository) ListByDivision(ctx context.Context, division int, subdivision string) ([]team.Team, error) {
	key := "team:division:" + subdivision + ":" + strconv.Itoa(division)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByDivision(ctx, division, subdivision)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	items, _ := v.([]team.Team)
	return append([]team.Team(nil), items...), nil
}

func (r *TeamRepository) ListBySubdivision(ctx context.Context, subdivision string) ([]team.Team, error) {
	key := "team:subdivision:" + subdivision
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListBySubdivision(ctx, subdivision)
		if err != nil {
			return nil, err
		}
		return append([]team.Team(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	items, _ := v.([]team.Team)
	return append([]team.Team(nil), items...), nil
}

// UpdateRecord always invalidates the whole "team:" namespace on success:
// a record change can move a team between division/subdivision listings,
// so a narrower key invalidation risks leaving a stale list cached.
func (r *TeamRepository) UpdateRecord(ctx context.Context, teamID string, expectedVersion int64, mutate func(team.Team) team.Team) (team.Team, error) {
	updated, err := r.next.UpdateRecord(ctx, teamID, expectedVersion, mutate)
	if err != nil {
		return team.Team{}, err
	}
	r.cache.DeletePrefix(ctx, "team:")
	return updated, nil
}

type SeasonRepository struct {
	next  season.Repository
	cache *basecache.Store
}

func NewSeasonRepository(next season.Repository, cache *basecache.Store) *SeasonRepository {
	return &SeasonRepository{next: next, cache: cache}
}

func (r *SeasonRepository) Get(ctx context.Context, id string) (season.Season, error) {
	key := "season:id:" + id
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		return r.next.Get(ctx, id)
	})
	if err != nil {
		return season.Season{}, err
	}
	s, _ := v.(season.Season)
	return s, nil
}

func (r *SeasonRepository) UpdateDay(ctx context.Context, id string, expectedVersion int64, newDay int, newPhase season.Phase) (season.Season, error) {
	updated, err := r.next.UpdateDay(ctx, id, expectedVersion, newDay, newPhase)
	if err != nil {
		return season.Season{}, err
	}
	r.cache.Delete(ctx, "season:id:"+id)
	return updated, nil
}

func (r *SeasonRepository) ClaimStep(ctx context.Context, seasonID, stepKey string, gameDay int) (bool, error) {
	return r.next.ClaimStep(ctx, seasonID, stepKey, gameDay)
}
