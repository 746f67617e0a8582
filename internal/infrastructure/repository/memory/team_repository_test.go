package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fantasysports/season-core/internal/domain/team"
	"github.com/fantasysports/season-core/internal/platform/store"
)

func TestTeamRepository_UpdateRecord_ConflictOnStaleVersion(t *testing.T) {
	repo := NewTeamRepository([]team.Team{
		{ID: "t1", Name: "Rockets", Division: 1, Subdivision: "main", Version: 1},
	})

	_, err := repo.UpdateRecord(context.Background(), "t1", 1, func(c team.Team) team.Team {
		return c.ApplyResult(team.Win)
	})
	require.NoError(t, err)

	_, err = repo.UpdateRecord(context.Background(), "t1", 1, func(c team.Team) team.Team {
		return c.ApplyResult(team.Win)
	})
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestTeamRepository_GetByID_NotFound(t *testing.T) {
	repo := NewTeamRepository(nil)
	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
