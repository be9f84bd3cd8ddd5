package assets

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/showroom/internal/assets/assetstest"
	"github.com/Faultbox/showroom/internal/events"
	"github.com/Faultbox/showroom/internal/loop"
	"github.com/Faultbox/showroom/internal/scene"
)

type harness struct {
	p        *Pipeline
	queue    *loop.Queue
	pivot    *scene.Node
	loaded   []Outcome
	failed   []Outcome
	progress []Progress
	settled  []Aggregate
}

func newHarness(t *testing.T, src Source, opts ...func(*Options)) *harness {
	t.Helper()
	h := &harness{queue: loop.NewQueue(), pivot: scene.NewNode("pivot")}
	bus := events.NewBus()

	o := Options{Source: src, Scheduler: h.queue, Bus: bus, Pivot: h.pivot, DecodeWorkers: 2}
	for _, fn := range opts {
		fn(&o)
	}
	p, err := New(o)
	require.NoError(t, err)
	h.p = p
	t.Cleanup(p.Close)

	events.On(bus, events.ModelLoaded, func(o Outcome) { h.loaded = append(h.loaded, o) })
	events.On(bus, events.ModelFailed, func(o Outcome) { h.failed = append(h.failed, o) })
	events.On(bus, events.ModelLoading, func(pr Progress) { h.progress = append(h.progress, pr) })
	events.On(bus, events.ModelsSettled, func(a Aggregate) { h.settled = append(h.settled, a) })
	return h
}

// wait drains the queue until every submission has settled.
func (h *harness) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.queue.RunUntil(ctx, func() bool { return h.p.Aggregate().Settled() }))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	return assetstest.PNG(2, 2)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Options{Scheduler: loop.NewQueue(), Bus: events.NewBus()})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = New(Options{Source: NewMemSource(nil), Bus: events.NewBus()})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = New(Options{Source: NewMemSource(nil), Scheduler: loop.NewQueue()})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadAttachesUnderPivot(t *testing.T) {
	src := NewMemSource(map[string][]byte{
		"models/camera.glb":   buildGLB(t, [3]float32{}),
		"textures/camera.png": pngBytes(t),
	})
	h := newHarness(t, src, func(o *Options) { o.MaxAnisotropy = 8 })

	ticket, err := h.p.Submit(context.Background(), Request{
		ID:                 "camera",
		ModelPath:          "models/camera.glb",
		DiffuseTexturePath: "textures/camera.png",
		Interactive:        true,
	})
	require.NoError(t, err)
	h.wait(t)

	require.Len(t, h.loaded, 1)
	assert.Empty(t, h.failed)
	assert.Equal(t, Outcome{ID: "camera", Ticket: ticket}, h.loaded[0])

	node := h.pivot.Find("camera")
	require.NotNil(t, node)
	assert.True(t, node.Interactive)
	assert.Same(t, h.pivot, node.Parent())
	require.NotNil(t, node.Material.Map)
	assert.False(t, node.Material.Map.GenerateMipmaps)
	assert.Equal(t, scene.FilterLinear, node.Material.Map.MinFilter)
	assert.Equal(t, scene.FilterLinear, node.Material.Map.MagFilter)
	assert.Equal(t, float32(8), node.Material.Map.Anisotropy)
	assert.False(t, node.Material.Transparent)

	stage, ok := h.p.Status(ticket)
	assert.True(t, ok)
	assert.Equal(t, StageAttached, stage)

	var stages []Stage
	for _, pr := range h.progress {
		assert.Equal(t, "camera", pr.ID)
		stages = append(stages, pr.Stage)
	}
	assert.Contains(t, stages, StageTexture)
	assert.Contains(t, stages, StageGeometry)
	assert.Equal(t, float64(100), h.progress[len(h.progress)-1].Percent)

	assert.Equal(t, []Aggregate{{Submitted: 1, Loaded: 1}}, h.settled)
	assert.Equal(t, float64(100), h.p.OverallPercent())
}

func TestFetchFailureLeavesPivotUnchanged(t *testing.T) {
	h := newHarness(t, NewMemSource(nil))
	h.pivot.Add(scene.NewNode("room"))
	before := h.pivot.ChildCount()

	_, err := h.p.Submit(context.Background(), Request{ID: "lamp", ModelPath: "lamp.geo", Interactive: true})
	require.NoError(t, err, "fetch errors are reported as outcomes")
	h.wait(t)

	assert.Empty(t, h.loaded)
	require.Len(t, h.failed, 1)
	assert.Equal(t, "lamp", h.failed[0].ID)
	assert.ErrorIs(t, h.failed[0].Err, ErrFetch)
	assert.Equal(t, FetchFailure, KindOf(h.failed[0].Err))
	assert.Equal(t, before, h.pivot.ChildCount())

	stage, _ := h.p.Status(h.failed[0].Ticket)
	assert.Equal(t, StageFailed, stage)
}

func TestDecodeFailures(t *testing.T) {
	src := NewMemSource(map[string][]byte{
		"good.glb": buildGLB(t, [3]float32{}),
		"bad.glb":  []byte("garbage"),
		"bad.png":  []byte("garbage"),
	})
	h := newHarness(t, src)

	h.p.Submit(context.Background(), Request{ID: "model", ModelPath: "bad.glb"})
	h.p.Submit(context.Background(), Request{ID: "texture", ModelPath: "good.glb", DiffuseTexturePath: "bad.png"})
	h.wait(t)

	assert.Empty(t, h.loaded)
	require.Len(t, h.failed, 2)
	for _, o := range h.failed {
		assert.ErrorIs(t, o.Err, ErrDecode, o.ID)
	}
	assert.Zero(t, h.pivot.ChildCount())
}

func TestAlphaTextureMakesTransparent(t *testing.T) {
	src := NewMemSource(map[string][]byte{
		"sensor.glb":       buildGLB(t, [3]float32{}),
		"sensor.png":       pngBytes(t),
		"sensor-alpha.png": pngBytes(t),
	})
	h := newHarness(t, src)

	h.p.Submit(context.Background(), Request{
		ID:                 "sensor-screen",
		ModelPath:          "sensor.glb",
		DiffuseTexturePath: "sensor.png",
		AlphaTexturePath:   "sensor-alpha.png",
	})
	h.wait(t)

	node := h.pivot.Find("sensor-screen")
	require.NotNil(t, node)
	assert.NotNil(t, node.Material.Map)
	assert.NotNil(t, node.Material.AlphaMap)
	assert.True(t, node.Material.Transparent)
	assert.True(t, node.Material.DoubleSided)
}

func TestEmissiveSkipsTextures(t *testing.T) {
	src := NewMemSource(map[string][]byte{"lamps.glb": buildGLB(t, [3]float32{})})
	h := newHarness(t, src)

	h.p.Submit(context.Background(), Request{
		ID:                 "lamps",
		ModelPath:          "lamps.glb",
		DiffuseTexturePath: "missing.png",
		Emissive:           true,
	})
	h.wait(t)

	require.Len(t, h.loaded, 1)
	node := h.pivot.Find("lamps")
	require.NotNil(t, node)
	assert.Equal(t, scene.MaterialEmissive, node.Material.Kind)
	assert.Nil(t, node.Material.Map)
	for _, pr := range h.progress {
		assert.NotEqual(t, StageTexture, pr.Stage)
	}
}

func TestInvalidRequestFailsLoudly(t *testing.T) {
	h := newHarness(t, NewMemSource(nil))

	_, err := h.p.Submit(context.Background(), Request{ID: "chair"})
	assert.ErrorIs(t, err, ErrConfiguration)
	h.wait(t)

	require.Len(t, h.failed, 1)
	assert.ErrorIs(t, h.failed[0].Err, ErrConfiguration)
}

func TestMissingPivotIsConfigurationError(t *testing.T) {
	src := NewMemSource(map[string][]byte{"a.glb": buildGLB(t, [3]float32{})})
	h := newHarness(t, src, func(o *Options) { o.Pivot = nil })

	_, err := h.p.Submit(context.Background(), Request{ID: "a", ModelPath: "a.glb"})
	assert.ErrorIs(t, err, ErrConfiguration)
	h.wait(t)
	assert.Len(t, h.failed, 1)
}

func TestSubmitAfterCloseFails(t *testing.T) {
	src := NewMemSource(map[string][]byte{"a.glb": buildGLB(t, [3]float32{})})
	h := newHarness(t, src)
	h.p.Close()
	h.p.Close()

	_, err := h.p.Submit(context.Background(), Request{ID: "a", ModelPath: "a.glb"})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, err, ErrConfiguration)
	h.wait(t)

	require.Len(t, h.failed, 1)
	assert.Zero(t, h.pivot.ChildCount())
}

func TestEveryRequestSettlesExactlyOnce(t *testing.T) {
	const n = 12
	files := map[string][]byte{}
	for i := 0; i < n; i += 2 {
		files[fmt.Sprintf("m%d.glb", i)] = buildGLB(t, [3]float32{float32(i), 0, 0})
	}
	h := newHarness(t, NewMemSource(files))

	tickets := map[Ticket]bool{}
	for i := 0; i < n; i++ {
		tk, err := h.p.Submit(context.Background(), Request{ID: fmt.Sprintf("piece-%d", i), ModelPath: fmt.Sprintf("m%d.glb", i)})
		require.NoError(t, err)
		tickets[tk] = true
	}
	h.wait(t)

	assert.Len(t, tickets, n, "tickets are unique")
	assert.Equal(t, n, len(h.loaded)+len(h.failed))
	assert.Len(t, h.loaded, n/2)

	seen := map[Ticket]int{}
	for _, o := range append(append([]Outcome{}, h.loaded...), h.failed...) {
		seen[o.Ticket]++
	}
	for tk := range tickets {
		assert.Equal(t, 1, seen[tk])
	}

	require.Len(t, h.settled, 1)
	assert.Equal(t, Aggregate{Submitted: n, Loaded: n / 2, Failed: n / 2}, h.settled[0])
	assert.Equal(t, n/2, h.pivot.ChildCount())
}

func TestSameIDLastAttachmentWins(t *testing.T) {
	src := NewMemSource(map[string][]byte{
		"v1.glb": buildGLB(t, [3]float32{}),
		"v2.glb": buildGLB(t, [3]float32{5, 0, 0}),
	})
	h := newHarness(t, src)

	h.p.Submit(context.Background(), Request{ID: "server", ModelPath: "v1.glb"})
	h.wait(t)
	h.p.Submit(context.Background(), Request{ID: "server", ModelPath: "v2.glb"})
	h.wait(t)

	assert.Equal(t, 1, h.pivot.ChildCount())
	assert.Equal(t, float32(5), h.pivot.Find("server").Mesh.Bounds.Min.X())
	assert.Len(t, h.settled, 2)
}

func TestUnknownLengthReportsZeroPercent(t *testing.T) {
	src := NewMemSource(map[string][]byte{"a.glb": buildGLB(t, [3]float32{})})
	src.HideSize = true
	h := newHarness(t, src)

	h.p.Submit(context.Background(), Request{ID: "a", ModelPath: "a.glb"})
	h.wait(t)

	require.NotEmpty(t, h.progress)
	for _, pr := range h.progress {
		assert.Zero(t, pr.Total)
		assert.Zero(t, pr.Percent)
		assert.Positive(t, pr.Loaded)
	}
	assert.Len(t, h.loaded, 1)
}

type stallingSource struct{}

func (stallingSource) Open(ctx context.Context, path string) (io.ReadCloser, int64, error) {
	<-ctx.Done()
	return nil, 0, ctx.Err()
}

func TestFetchTimeout(t *testing.T) {
	h := newHarness(t, stallingSource{}, func(o *Options) { o.FetchTimeout = 20 * time.Millisecond })

	h.p.Submit(context.Background(), Request{ID: "projector", ModelPath: "projector.glb"})
	h.wait(t)

	require.Len(t, h.failed, 1)
	assert.ErrorIs(t, h.failed[0].Err, ErrFetch)
	assert.ErrorIs(t, h.failed[0].Err, context.DeadlineExceeded)
}

func TestPercent(t *testing.T) {
	assert.Zero(t, Percent(10, 0))
	assert.Zero(t, Percent(0, 100))
	assert.Equal(t, float64(50), Percent(50, 100))
	assert.Equal(t, float64(100), Percent(120, 100))
}
