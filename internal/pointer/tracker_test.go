package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/showroom/internal/events"
)

type recorder struct {
	log      *[]string
	states   []State
	clicks   [][2]State
	tracker  *Tracker
	seenMove State
}

func (r *recorder) Evaluate(s State) {
	*r.log = append(*r.log, "evaluate")
	r.states = append(r.states, s)
	r.seenMove = r.tracker.State()
}

func (r *recorder) Click(origin, release State) {
	*r.log = append(*r.log, "click")
	r.clicks = append(r.clicks, [2]State{origin, release})
}

func newTracker(t *testing.T) (*Tracker, *recorder, *[]string, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	var log []string
	rec := &recorder{log: &log}
	tr := NewTracker(bus, rec)
	rec.tracker = tr
	tr.SetViewport(1000, 800)

	for _, name := range []string{events.PointerMoveStart, events.PointerMove, events.PointerDown, events.PointerUp} {
		name := name
		bus.Subscribe(name, func(any) { log = append(log, name) })
	}
	return tr, rec, &log, bus
}

func TestNDCCorners(t *testing.T) {
	x, y := NDC(0, 0, 1000, 800)
	assert.Equal(t, float32(-1), x)
	assert.Equal(t, float32(1), y)

	x, y = NDC(1000, 800, 1000, 800)
	assert.Equal(t, float32(1), x)
	assert.Equal(t, float32(-1), y)

	x, y = NDC(500, 400, 1000, 800)
	assert.Zero(t, x)
	assert.Zero(t, y)
}

func TestMoveOrdering(t *testing.T) {
	tr, rec, log, bus := newTracker(t)

	var before, after State
	events.On(bus, events.PointerMoveStart, func(s State) { before = s })
	events.On(bus, events.PointerMove, func(s State) { after = s })

	tr.Move(0, 0)
	tr.Move(250, 600)

	assert.Equal(t, []string{
		events.PointerMoveStart, events.PointerMove, "evaluate",
		events.PointerMoveStart, events.PointerMove, "evaluate",
	}, *log)

	assert.Equal(t, State{X: -1, Y: 1, PixelX: 0, PixelY: 0}, before, "move-start carries the previous state")
	assert.Equal(t, State{X: -0.5, Y: -0.5, PixelX: 250, PixelY: 600}, after)
	require.Len(t, rec.states, 2)
	assert.Equal(t, after, rec.states[1])
	assert.Equal(t, after, rec.seenMove, "state is stored before evaluation")
}

func TestPressRelease(t *testing.T) {
	tr, rec, log, _ := newTracker(t)

	tr.Move(10, 20)
	*log = nil
	tr.Press()
	assert.True(t, tr.State().Pressed)
	assert.Equal(t, float32(10), tr.Origin().PixelX)

	tr.Release()
	assert.False(t, tr.State().Pressed)
	assert.Equal(t, []string{events.PointerDown, events.PointerUp, "click"}, *log)

	require.Len(t, rec.clicks, 1)
	assert.True(t, IsClick(rec.clicks[0][0], rec.clicks[0][1]))
}

func TestDragIsNotClick(t *testing.T) {
	tr, rec, _, _ := newTracker(t)

	tr.Move(10, 20)
	tr.Press()
	tr.Move(10.25, 20)
	tr.Release()

	require.Len(t, rec.clicks, 1)
	assert.False(t, IsClick(rec.clicks[0][0], rec.clicks[0][1]))
}

func TestIsClickAxes(t *testing.T) {
	a := State{PixelX: 5, PixelY: 5}
	assert.True(t, IsClick(a, a))
	assert.False(t, IsClick(a, State{PixelX: 6, PixelY: 5}))
	assert.False(t, IsClick(a, State{PixelX: 5, PixelY: 4}))
}

func TestZeroViewport(t *testing.T) {
	tr := NewTracker(events.NewBus(), nil)
	tr.SetViewport(0, 0)
	tr.Move(1, 1)

	assert.Equal(t, float32(1), tr.State().X)
	assert.Equal(t, float32(-1), tr.State().Y)
}
