package viewer

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/showroom/internal/assets"
	"github.com/Faultbox/showroom/internal/assets/assetstest"
	"github.com/Faultbox/showroom/internal/config"
	"github.com/Faultbox/showroom/internal/engine/camera"
	"github.com/Faultbox/showroom/internal/engine/picking"
	"github.com/Faultbox/showroom/internal/events"
	"github.com/Faultbox/showroom/internal/scene"
)

type fakeRenderer struct {
	width, height int
	renders       int
	lastRoot      *scene.Node
	selection     []*scene.Node
	closed        bool
}

func (r *fakeRenderer) SetSize(w, h int) { r.width, r.height = w, h }
func (r *fakeRenderer) Render(root *scene.Node, _ *camera.Perspective) {
	r.renders++
	r.lastRoot = root
}
func (r *fakeRenderer) SetSelection(nodes []*scene.Node) { r.selection = nodes }
func (r *fakeRenderer) MaxAnisotropy() float32           { return 16 }
func (r *fakeRenderer) Close()                           { r.closed = true }

func newViewer(t *testing.T, src assets.Source, debug bool) (*Viewer, *fakeRenderer) {
	t.Helper()
	if src == nil {
		src = assets.NewMemSource(nil)
	}
	r := &fakeRenderer{}
	cfg := config.Default()
	cfg.Graphics.Width, cfg.Graphics.Height = 1000, 800

	v, err := New(Options{Config: cfg, Renderer: r, Source: src, Debug: debug})
	require.NoError(t, err)
	return v, r
}

// addTarget attaches a large interactive box to the pivot so the centre of
// the viewport points at it.
func addTarget(v *Viewer, id string) *scene.Node {
	n := scene.NewNode(id)
	n.Interactive = true
	n.Mesh = scene.NewBox(30, 30, 30)
	v.Pivot().Add(n)
	return n
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{Renderer: &fakeRenderer{}, Source: assets.NewMemSource(nil)})
	assert.Error(t, err)

	_, err = New(Options{Config: config.Default(), Source: assets.NewMemSource(nil)})
	assert.Error(t, err)

	_, err = New(Options{Config: config.Default(), Renderer: &fakeRenderer{}})
	assert.ErrorIs(t, err, assets.ErrConfiguration)
}

func TestInitialScene(t *testing.T) {
	v, r := newViewer(t, nil, false)

	assert.Equal(t, mgl32.Vec3{0, 30, 80}, v.Camera().Position)
	assert.Equal(t, float32(50), v.Camera().FOV)
	assert.InDelta(t, 1.25, v.Camera().Aspect, 1e-6)
	assert.Equal(t, 1000, r.width)
	assert.Equal(t, 800, r.height)

	assert.Same(t, v.Root(), v.Pivot().Parent())
	assert.Equal(t, float32(1.0), v.Pivot().Transform.Rotation[1])

	for _, h := range v.helpers {
		assert.False(t, h.WorldVisible(), h.ID)
	}
	v.SetDebug(true)
	for _, h := range v.helpers {
		assert.True(t, h.WorldVisible(), h.ID)
	}
}

func TestDebugShowsHelpers(t *testing.T) {
	v, _ := newViewer(t, nil, true)
	require.Len(t, v.helpers, 2)
	assert.True(t, v.helpers[0].Visible)
}

func TestTickRenders(t *testing.T) {
	v, r := newViewer(t, nil, false)

	ran := false
	v.Queue().Post(func() { ran = true })
	v.Tick(1.0 / 60)

	assert.True(t, ran, "posted work runs before the frame renders")
	assert.Equal(t, 1, r.renders)
	assert.Same(t, v.Root(), r.lastRoot)
}

func TestResize(t *testing.T) {
	v, r := newViewer(t, nil, false)

	v.Resize(640, 480)
	assert.Equal(t, 640, r.width)
	assert.InDelta(t, 640.0/480.0, v.Camera().Aspect, 1e-6)

	v.PointerMove(0, 0)
	assert.Equal(t, float32(-1), v.Tracker().State().X)
	assert.Equal(t, float32(1), v.Tracker().State().Y)

	v.Resize(0, 0)
	w, h := v.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
}

func TestHoverHighlightsAndClicks(t *testing.T) {
	v, r := newViewer(t, nil, false)
	target := addTarget(v, "server")

	var hovered []*scene.Node
	var clicked []*scene.Node
	events.On(v.Bus(), events.Intersect, func(d picking.HoverData) { hovered = append(hovered, d.Object) })
	events.On(v.Bus(), events.ObjectClicked, func(n *scene.Node) { clicked = append(clicked, n) })

	v.PointerMove(500, 400)
	require.Equal(t, []*scene.Node{target}, hovered)
	assert.Equal(t, []*scene.Node{target}, r.selection)

	v.PointerDown(ButtonPrimary)
	v.PointerUp()
	assert.Equal(t, []*scene.Node{target}, clicked)
}

func TestDragOrbitsWithoutClicking(t *testing.T) {
	v, _ := newViewer(t, nil, false)
	addTarget(v, "server")

	clicks := 0
	v.Bus().Subscribe(events.ObjectClicked, func(any) { clicks++ })

	v.PointerMove(500, 400)
	start := v.Camera().Position

	v.PointerDown(ButtonPrimary)
	v.PointerMove(400, 400)
	v.PointerUp()
	v.Tick(1.0 / 60)

	assert.Zero(t, clicks)
	assert.NotEqual(t, start, v.Camera().Position)
	assert.Nil(t, v.Resolver().Highlighted())
	assert.InDelta(t, mgl32.Vec3{0, 30, 80}.Len(), v.Controls().Distance(), 1e-2)
}

func TestWheelZoomHonoursMinimumDistance(t *testing.T) {
	v, _ := newViewer(t, nil, false)

	v.Wheel(10)
	v.Tick(1.0 / 60)
	assert.InDelta(t, 40, v.Controls().Distance(), 1e-3)
}

func TestRotatePivot(t *testing.T) {
	v, _ := newViewer(t, nil, false)

	v.RotatePivot(2, 1)
	v.Tick(0.5)
	mid := v.Pivot().Transform.Rotation[1]
	assert.Greater(t, mid, float32(1))
	assert.Less(t, mid, float32(2))

	v.Tick(0.6)
	assert.Equal(t, float32(2), v.Pivot().Transform.Rotation[1])
	assert.Nil(t, v.pivotTween)

	v.RotatePivot(0, 0)
	assert.Zero(t, v.Pivot().Transform.Rotation[1])
}

func TestSubmitAttachesOnTick(t *testing.T) {
	src := assets.NewMemSource(map[string][]byte{"models/desk.glb": assetstest.TriangleGLB([3]float32{})})
	v, _ := newViewer(t, src, false)

	var loaded []assets.Outcome
	events.On(v.Bus(), events.ModelLoaded, func(o assets.Outcome) { loaded = append(loaded, o) })

	_, err := v.Submit(context.Background(), assets.Request{ID: "desk", ModelPath: "models/desk.glb", Interactive: true})
	require.NoError(t, err)

	deadline := time.Now().Add(5 * time.Second)
	for !v.Pipeline().Aggregate().Settled() && time.Now().Before(deadline) {
		v.Tick(1.0 / 60)
		time.Sleep(time.Millisecond)
	}

	require.Len(t, loaded, 1)
	desk := v.Pivot().Find("desk")
	require.NotNil(t, desk)
	assert.Same(t, v.Pivot(), desk.Parent())
}

func TestClose(t *testing.T) {
	v, r := newViewer(t, nil, false)
	v.Close()
	assert.True(t, r.closed)

	_, err := v.Submit(context.Background(), assets.Request{ID: "desk", ModelPath: "models/desk.glb"})
	assert.ErrorIs(t, err, assets.ErrClosed)
	v.Close()
}

func TestReloadedPieceKeepsHighlight(t *testing.T) {
	v, r := newViewer(t, nil, false)
	addTarget(v, "server")
	v.PointerMove(500, 400)

	fresh := scene.NewNode("server")
	fresh.Interactive = true
	fresh.Mesh = scene.NewBox(30, 30, 30)
	v.Queue().Post(func() { v.Pivot().Attach(fresh) })
	v.Tick(1.0 / 60)

	require.Same(t, fresh, v.Resolver().Highlighted())
	assert.Same(t, v.Pivot(), v.Resolver().Highlighted().Parent())
	assert.Equal(t, []*scene.Node{fresh}, r.selection)

	var clicked []*scene.Node
	events.On(v.Bus(), events.ObjectClicked, func(n *scene.Node) { clicked = append(clicked, n) })
	v.PointerDown(ButtonPrimary)
	v.PointerUp()
	require.Len(t, clicked, 1)
	assert.Same(t, fresh, clicked[0])
}
