package season

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustLoadNY(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(BoundaryLocation)
	require.NoError(t, err)
	return loc
}

func TestResolve_BoundaryAt3AM(t *testing.T) {
	loc := mustLoadNY(t)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).UTC()

	before := time.Date(2026, 1, 2, 2, 59, 59, 0, loc).UTC()
	day, _, _ := Resolve(before, start)
	assert.Equal(t, 1, day)

	atBoundary := time.Date(2026, 1, 2, 3, 0, 0, 0, loc).UTC()
	day, _, _ = Resolve(atBoundary, start)
	assert.Equal(t, 2, day)
}

func TestResolve_WrapsAfter17Days(t *testing.T) {
	loc := mustLoadNY(t)
	start := time.Date(2026, 1, 1, 4, 0, 0, 0, loc).UTC()

	day18 := time.Date(2026, 1, 18, 4, 0, 0, 0, loc).UTC()
	day, phase, _ := Resolve(day18, start)
	assert.Equal(t, 1, day)
	assert.Equal(t, PhaseRegular, phase)
}

func TestResolve_PhaseMapping(t *testing.T) {
	loc := mustLoadNY(t)
	start := time.Date(2026, 1, 1, 4, 0, 0, 0, loc).UTC()

	cases := []struct {
		daysForward int
		wantPhase   Phase
	}{
		{0, PhaseRegular},
		{13, PhaseRegular},
		{14, PhasePlayoffs},
		{15, PhaseOffseason},
		{16, PhaseOffseason},
	}

	for _, tc := range cases {
		now := start.AddDate(0, 0, tc.daysForward)
		_, phase, _ := Resolve(now, start)
		assert.Equal(t, tc.wantPhase, phase, "day offset %d", tc.daysForward)
	}
}

func TestResolve_Deterministic(t *testing.T) {
	loc := mustLoadNY(t)
	start := time.Date(2026, 1, 1, 4, 0, 0, 0, loc).UTC()
	now := time.Date(2026, 1, 5, 10, 0, 0, 0, loc).UTC()

	day1, phase1, secs1 := Resolve(now, start)
	day2, phase2, secs2 := Resolve(now, start)

	assert.Equal(t, day1, day2)
	assert.Equal(t, phase1, phase2)
	assert.Equal(t, secs1, secs2)
}
