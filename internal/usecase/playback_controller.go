package usecase

import "github.com/fantasysports/season-core/internal/domain/livematch"

// PlaybackController is the subscriber-side rolling-window speed/visuals
// selector (C5). It is pure, stdlib-only state machine logic; no
// third-party library models a small fixed-window priority selector
// any better than a plain slice, see DESIGN.md.
type PlaybackController struct {
	window         []livematch.MatchEvent
	windowSize     int
	manualOverride *int
}

// NewPlaybackController builds a controller with the spec's 3-event
// rolling window.
func NewPlaybackController() *PlaybackController {
	return &PlaybackController{windowSize: 3}
}

// PlaybackOutput is what the controller decides for the next render.
type PlaybackOutput struct {
	SpeedMultiplier int
	VisualsEnabled  bool
}

var priorityOutput = map[livematch.Priority]PlaybackOutput{
	livematch.PriorityCritical:  {SpeedMultiplier: 1, VisualsEnabled: true},
	livematch.PriorityImportant: {SpeedMultiplier: 2, VisualsEnabled: true},
	livematch.PriorityStandard:  {SpeedMultiplier: 8, VisualsEnabled: false},
	livematch.PriorityDowntime:  {SpeedMultiplier: 8, VisualsEnabled: false},
}

// lookaheadTicks is how far ahead a foreknown priority-1 event, carried
// in its TimestampTick field, is allowed to ramp playback down to 1x.
const lookaheadTicks = 3

// PushEvent feeds one new event into the rolling window, evicting the
// oldest entry once the window is full.
func (c *PlaybackController) PushEvent(e livematch.MatchEvent) {
	c.window = append(c.window, e)
	if len(c.window) > c.windowSize {
		c.window = c.window[len(c.window)-c.windowSize:]
	}
}

// SetManualOverride pins playback speed until ClearOverride is called.
func (c *PlaybackController) SetManualOverride(speed int) {
	c.manualOverride = &speed
}

// ClearOverride resumes automatic priority-based selection.
func (c *PlaybackController) ClearOverride() {
	c.manualOverride = nil
}

// Reset clears the rolling window, returning to the default 1x,
// visuals-on output that Decide gives for an empty window.
func (c *PlaybackController) Reset() {
	c.window = nil
}

// Decide returns the current playback speed/visuals, given the window
// contents and currentTick (used for the foreknowledge ramp-down rule).
func (c *PlaybackController) Decide(currentTick int) PlaybackOutput {
	if c.manualOverride != nil {
		return PlaybackOutput{SpeedMultiplier: *c.manualOverride, VisualsEnabled: true}
	}

	if len(c.window) == 0 {
		return priorityOutput[livematch.PriorityCritical]
	}

	best := livematch.PriorityDowntime
	for _, e := range c.window {
		if e.Priority < best {
			best = e.Priority
		}
		if e.Priority == livematch.PriorityCritical && e.TimestampTick-currentTick <= lookaheadTicks && e.TimestampTick >= currentTick {
			return priorityOutput[livematch.PriorityCritical]
		}
	}

	return priorityOutput[best]
}
