package usecase

import (
	"testing"

	"github.com/fantasysports/season-core/internal/domain/livematch"
	"github.com/stretchr/testify/assert"
)

func evt(t livematch.EventType, tick int) livematch.MatchEvent {
	return livematch.MatchEvent{Type: t, Priority: livematch.PriorityOf(t), TimestampTick: tick}
}

func TestPlaybackController_PriorityWindow(t *testing.T) {
	c := NewPlaybackController()

	c.PushEvent(evt(livematch.EventRoutinePlay, 0))
	out := c.Decide(0)
	assert.Equal(t, 8, out.SpeedMultiplier)
	assert.False(t, out.VisualsEnabled)

	c.PushEvent(evt(livematch.EventPassAttempt, 1))
	out = c.Decide(1)
	assert.Equal(t, 2, out.SpeedMultiplier)
	assert.True(t, out.VisualsEnabled)

	c.PushEvent(evt(livematch.EventScore, 2))
	out = c.Decide(2)
	assert.Equal(t, 1, out.SpeedMultiplier)
	assert.True(t, out.VisualsEnabled)

	c.Reset()
	out = c.Decide(3)
	assert.Equal(t, 1, out.SpeedMultiplier)
	assert.True(t, out.VisualsEnabled)
}

func TestPlaybackController_ManualOverride(t *testing.T) {
	c := NewPlaybackController()
	c.PushEvent(evt(livematch.EventRoutinePlay, 0))

	c.SetManualOverride(4)
	out := c.Decide(0)
	assert.Equal(t, 4, out.SpeedMultiplier)

	c.ClearOverride()
	out = c.Decide(0)
	assert.Equal(t, 8, out.SpeedMultiplier)
}
