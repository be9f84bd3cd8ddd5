// Package pointer converts raw pointer samples into normalized device
// coordinates and tracks press state for click-vs-drag decisions.
package pointer

import (
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/events"
	"github.com/Faultbox/showroom/internal/logger"
)

// State is a pointer sample. X and Y are normalized device coordinates in
// [-1, 1] with +Y up; PixelX and PixelY are viewport-relative pixels.
type State struct {
	X, Y           float32
	PixelX, PixelY float32
	Pressed        bool
}

// Evaluator reacts to tracker updates. The intersection resolver implements it.
type Evaluator interface {
	Evaluate(s State)
	Click(origin, release State)
}

// Tracker owns the pointer state. Not safe for concurrent use; drive it from
// the thread that publishes on the bus.
type Tracker struct {
	bus  *events.Bus
	eval Evaluator
	log  *zap.Logger

	width, height float32

	state   State
	origin  State
	release State
}

// NewTracker creates a tracker with a 1×1 viewport. eval may be nil and set
// later with SetEvaluator.
func NewTracker(bus *events.Bus, eval Evaluator) *Tracker {
	return &Tracker{
		bus:    bus,
		eval:   eval,
		log:    logger.Named("pointer"),
		width:  1,
		height: 1,
	}
}

// SetEvaluator replaces the evaluator called after moves and releases.
func (t *Tracker) SetEvaluator(eval Evaluator) {
	t.eval = eval
}

// SetViewport sets the size used for normalization. Zero or negative
// dimensions are treated as 1.
func (t *Tracker) SetViewport(width, height int) {
	t.width = float32(max(width, 1))
	t.height = float32(max(height, 1))
}

// State returns the current pointer state.
func (t *Tracker) State() State {
	return t.state
}

// Origin returns the state recorded at the last press.
func (t *Tracker) Origin() State {
	return t.origin
}

// Move records a new pointer position in viewport pixels.
// Subscribers see pointer-move-start with the previous state, then
// pointer-move with the new one, then the evaluator runs.
func (t *Tracker) Move(px, py float32) {
	t.bus.Publish(events.PointerMoveStart, t.state)

	t.state.X, t.state.Y = NDC(px, py, t.width, t.height)
	t.state.PixelX = px
	t.state.PixelY = py

	t.bus.Publish(events.PointerMove, t.state)

	if t.eval != nil {
		t.eval.Evaluate(t.state)
	}
}

// Press marks the pointer as held and records the press origin.
func (t *Tracker) Press() {
	t.state.Pressed = true
	t.origin = t.state
	t.bus.Publish(events.PointerDown, t.state)
}

// Release clears the held flag, publishes pointer-up and hands the
// origin/release pair to the evaluator's click step.
func (t *Tracker) Release() {
	t.state.Pressed = false
	t.release = t.state
	t.bus.Publish(events.PointerUp, t.state)

	t.log.Debug("release",
		zap.Float32("dx", t.release.PixelX-t.origin.PixelX),
		zap.Float32("dy", t.release.PixelY-t.origin.PixelY),
	)
	if t.eval != nil {
		t.eval.Click(t.origin, t.release)
	}
}

// NDC converts a viewport pixel position into normalized device coordinates.
func NDC(px, py, width, height float32) (x, y float32) {
	return px/width*2 - 1, -(py/height)*2 + 1
}

// IsClick reports whether a press and release happened at exactly the same
// pixel. Any movement on either axis, however small, makes it a drag.
func IsClick(origin, release State) bool {
	return release.PixelX-origin.PixelX == 0 && release.PixelY-origin.PixelY == 0
}
