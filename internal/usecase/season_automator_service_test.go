package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fantasysports/season-core/internal/domain/dispatch"
	"github.com/fantasysports/season-core/internal/domain/match"
	"github.com/fantasysports/season-core/internal/domain/season"
	"github.com/fantasysports/season-core/internal/domain/team"
	"github.com/fantasysports/season-core/internal/domain/tournament"
	memoryrepo "github.com/fantasysports/season-core/internal/infrastructure/repository/memory"
	idgen "github.com/fantasysports/season-core/internal/platform/id"
	"github.com/fantasysports/season-core/internal/platform/logging"
)

type fakeJobQueue struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeJobQueue) Enqueue(_ context.Context, path string, _ any, _ time.Duration, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	return nil
}

type fakeDispatchRepo struct {
	mu     sync.Mutex
	events []dispatch.Event
}

func (f *fakeDispatchRepo) UpsertEvent(_ context.Context, event dispatch.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeDispatchRepo) statusesFor(step string) []dispatch.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dispatch.Status
	for _, e := range f.events {
		if e.JobName == step {
			out = append(out, e.Status)
		}
	}
	return out
}

func TestSeasonAutomatorService_Tick_DispatchesAndAudits(t *testing.T) {
	// Seed a season a day behind the wall clock so resolveDay reports a
	// change and the day-gated steps run on this Tick.
	sn := season.Season{
		ID:           "season-1",
		StartDateUTC: time.Now().UTC().AddDate(0, 0, -1),
		CurrentDay:   1,
		Phase:        season.PhaseRegular,
		Version:      1,
	}
	seasonRepo := memoryrepo.NewSeasonRepository(sn)
	teamRepo := memoryrepo.NewTeamRepository([]team.Team{})
	playerRepo := memoryrepo.NewPlayerRepository(nil)
	gameRepo := memoryrepo.NewMatchRepository([]match.Game{})
	tournamentRepo := memoryrepo.NewTournamentRepository()

	jq := &fakeJobQueue{}
	dr := &fakeDispatchRepo{}

	svc := NewSeasonAutomatorService(
		seasonRepo,
		teamRepo,
		playerRepo,
		gameRepo,
		tournamentRepo,
		nil,
		nil,
		nil,
		nil,
		idgen.NewRandomGenerator(),
		logging.NewNop(),
		jq,
		dr,
		SeasonAutomatorConfig{},
	)

	svc.Tick(context.Background(), sn.ID)

	jq.mu.Lock()
	calls := append([]string(nil), jq.calls...)
	jq.mu.Unlock()
	assert.Contains(t, calls, "/internal/jobs/season-automator/autostart_tournaments")
	assert.Contains(t, calls, "/internal/jobs/season-automator/start_matches")
	assert.Contains(t, calls, "/internal/jobs/season-automator/rebuild_standings")

	statuses := dr.statusesFor("start_matches")
	require.Len(t, statuses, 2)
	assert.Equal(t, dispatch.StatusSent, statuses[0])
	assert.Equal(t, dispatch.StatusCompleted, statuses[1])
}

func TestSeasonAutomatorService_RunStep_RecordsFailure(t *testing.T) {
	sn := season.Season{
		ID:           "season-2",
		StartDateUTC: time.Now().UTC(),
		CurrentDay:   1,
		Phase:        season.PhaseRegular,
		Version:      1,
	}
	seasonRepo := memoryrepo.NewSeasonRepository(sn)
	teamRepo := memoryrepo.NewTeamRepository([]team.Team{})
	playerRepo := memoryrepo.NewPlayerRepository(nil)
	gameRepo := memoryrepo.NewMatchRepository([]match.Game{})
	tournamentRepo := memoryrepo.NewTournamentRepository()

	jq := &fakeJobQueue{}
	dr := &fakeDispatchRepo{}

	svc := NewSeasonAutomatorService(
		seasonRepo, teamRepo, playerRepo, gameRepo, tournamentRepo,
		nil, nil, nil, nil,
		idgen.NewRandomGenerator(), logging.NewNop(), jq, dr,
		SeasonAutomatorConfig{},
	)

	svc.runStep(context.Background(), "boom", sn.ID, func() error {
		return assert.AnError
	})

	statuses := dr.statusesFor("boom")
	require.Len(t, statuses, 2)
	assert.Equal(t, dispatch.StatusSent, statuses[0])
	assert.Equal(t, dispatch.StatusFailed, statuses[1])
}

func TestSeasonAutomatorService_NilJobQueueDefaultsToNoop(t *testing.T) {
	sn := season.Season{ID: "season-3", StartDateUTC: time.Now().UTC(), CurrentDay: 1, Phase: season.PhaseRegular, Version: 1}
	seasonRepo := memoryrepo.NewSeasonRepository(sn)
	teamRepo := memoryrepo.NewTeamRepository([]team.Team{})
	playerRepo := memoryrepo.NewPlayerRepository(nil)
	gameRepo := memoryrepo.NewMatchRepository([]match.Game{})
	tournamentRepo := memoryrepo.NewTournamentRepository()

	svc := NewSeasonAutomatorService(
		seasonRepo, teamRepo, playerRepo, gameRepo, tournamentRepo,
		nil, nil, nil, nil,
		idgen.NewRandomGenerator(), logging.NewNop(), nil, nil,
		SeasonAutomatorConfig{},
	)

	assert.NotPanics(t, func() {
		svc.runStep(context.Background(), "noop-step", sn.ID, func() error { return nil })
	})
}
