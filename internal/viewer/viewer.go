// Package viewer owns the showroom scene: camera, orbit controls, the shared
// pivot node, pointer tracking, picking and the asset pipeline, all driven
// from one render-thread tick.
package viewer

import (
	"context"
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/assets"
	"github.com/Faultbox/showroom/internal/config"
	"github.com/Faultbox/showroom/internal/engine/camera"
	"github.com/Faultbox/showroom/internal/engine/picking"
	"github.com/Faultbox/showroom/internal/events"
	"github.com/Faultbox/showroom/internal/logger"
	"github.com/Faultbox/showroom/internal/loop"
	"github.com/Faultbox/showroom/internal/pointer"
	"github.com/Faultbox/showroom/internal/scene"
)

// pivotHeight drops the pivot below the orbit target so the assembled room
// sits under the default view.
const pivotHeight = -10

// Renderer draws the scene graph. The OpenGL renderer implements it.
type Renderer interface {
	SetSize(width, height int)
	Render(root *scene.Node, cam *camera.Perspective)
	// SetSelection sets the nodes drawn with an outline.
	SetSelection(nodes []*scene.Node)
	MaxAnisotropy() float32
	Close()
}

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonSecondary
)

// Options configures a Viewer.
type Options struct {
	Config   *config.Config
	Renderer Renderer
	Source   assets.Source
	// Debug shows the pivot helpers.
	Debug bool
}

// Viewer is the scene orchestrator. All methods must be called from the
// render thread.
type Viewer struct {
	cfg      *config.Config
	renderer Renderer
	bus      *events.Bus
	queue    *loop.Queue
	log      *zap.Logger

	camera   *camera.Perspective
	controls *camera.OrbitControls
	root     *scene.Node
	pivot    *scene.Node
	helpers  []*scene.Node

	tracker  *pointer.Tracker
	resolver *picking.Resolver
	pipeline *assets.Pipeline

	pivotTween  *gween.Tween
	pivotTarget float32
	panning     bool

	width, height int
}

// New builds the scene and its collaborators.
func New(opts Options) (*Viewer, error) {
	if opts.Config == nil {
		return nil, errors.New("viewer: nil config")
	}
	if opts.Renderer == nil {
		return nil, errors.New("viewer: nil renderer")
	}
	cfg := opts.Config

	v := &Viewer{
		cfg:      cfg,
		renderer: opts.Renderer,
		bus:      events.NewBus(),
		queue:    loop.NewQueue(),
		log:      logger.Named("viewer"),
		width:    cfg.Graphics.Width,
		height:   cfg.Graphics.Height,
	}

	v.setupCamera()
	v.setupScene(opts.Debug)

	var err error
	v.resolver, err = picking.NewResolver(v.bus, v.camera, v.root, v.renderer)
	if err != nil {
		return nil, err
	}
	v.tracker = pointer.NewTracker(v.bus, v.resolver)

	v.pipeline, err = assets.New(assets.Options{
		Source:        opts.Source,
		Scheduler:     v.queue,
		Bus:           v.bus,
		Pivot:         v.pivot,
		DecodeWorkers: cfg.Loading.DecodeWorkers,
		FetchTimeout:  cfg.Loading.FetchTimeout,
		MaxAnisotropy: v.renderer.MaxAnisotropy(),
	})
	if err != nil {
		return nil, err
	}

	v.Resize(v.width, v.height)

	v.log.Info("viewer ready",
		zap.Int("width", v.width),
		zap.Int("height", v.height),
		zap.Bool("debug", opts.Debug),
	)
	return v, nil
}

func (v *Viewer) setupCamera() {
	cc := v.cfg.Camera
	v.camera = camera.NewPerspective(cc.FOV, float32(v.width)/float32(max(v.height, 1)), cc.Near, cc.Far)
	v.camera.Position = mgl32.Vec3(cc.Position)
	v.camera.LookAt(mgl32.Vec3(cc.Target))

	c := camera.NewOrbitControls(v.camera)
	c.MinDistance, c.MaxDistance = cc.MinDistance, cc.MaxDistance
	c.MinPolar, c.MaxPolar = cc.MinPolar, cc.MaxPolar
	c.MinAzimuth, c.MaxAzimuth = cc.MinAzimuth, cc.MaxAzimuth
	c.BoxMin, c.BoxMax = mgl32.Vec3(cc.TargetMin), mgl32.Vec3(cc.TargetMax)
	if cc.RotateSpeed > 0 {
		c.DragSensitivity = cc.RotateSpeed
	}
	if cc.ZoomSpeed > 0 {
		c.ZoomSensitivity = cc.ZoomSpeed
	}
	if cc.PanSpeed > 0 {
		c.PanSensitivity = cc.PanSpeed
	}
	v.controls = c
}

func (v *Viewer) setupScene(debug bool) {
	v.root = scene.NewNode("root")

	v.pivot = scene.NewNode("pivot")
	v.pivot.Transform.Position = mgl32.Vec3{0, pivotHeight, 0}
	v.pivot.Transform.Rotation[1] = v.cfg.Scene.PivotRotationY
	v.pivotTarget = v.cfg.Scene.PivotRotationY
	v.root.Add(v.pivot)

	// Red markers for the pivot's vertical axis and the world Z axis.
	marker := scene.NewBasicMaterial()
	marker.Color = mgl32.Vec3{1, 0, 0}

	axisY := scene.NewNode("helper-pivot-axis")
	axisY.Mesh = scene.NewBox(0.1, 3, 0.1)
	axisY.Material = marker
	v.pivot.Add(axisY)

	axisZ := scene.NewNode("helper-world-z")
	axisZ.Mesh = scene.NewBox(0.1, 0.1, 3)
	axisZ.Material = marker
	v.root.Add(axisZ)

	v.helpers = []*scene.Node{axisY, axisZ}
	v.SetDebug(debug)
}

// SetDebug toggles the helper markers.
func (v *Viewer) SetDebug(debug bool) {
	for _, h := range v.helpers {
		h.Visible = debug
	}
}

// Tick advances one frame: it applies posted load results, advances the
// pivot tween, updates the orbit controls and renders.
func (v *Viewer) Tick(dt float32) {
	if v.queue.Drain() > 0 {
		v.resolver.Refresh()
	}

	if v.pivotTween != nil {
		angle, done := v.pivotTween.Update(dt)
		if done {
			angle = v.pivotTarget
			v.pivotTween = nil
		}
		v.pivot.Transform.Rotation[1] = angle
	}

	v.controls.Update()
	v.camera.SetViewport(v.width, v.height)
	v.renderer.Render(v.root, v.camera)
}

// Resize propagates a new viewport size to the renderer, the camera and
// the pointer tracker.
func (v *Viewer) Resize(width, height int) {
	v.width, v.height = max(width, 1), max(height, 1)
	v.renderer.SetSize(v.width, v.height)
	v.camera.SetViewport(v.width, v.height)
	v.tracker.SetViewport(v.width, v.height)
}

// Size returns the viewport size.
func (v *Viewer) Size() (width, height int) {
	return v.width, v.height
}

// PointerMove feeds a pointer position in viewport pixels. While a button
// is held the movement also drives the orbit controls.
func (v *Viewer) PointerMove(px, py float32) {
	prev := v.tracker.State()
	if prev.Pressed {
		dx, dy := px-prev.PixelX, py-prev.PixelY
		if v.panning {
			v.controls.HandlePan(dx, dy)
		} else {
			v.controls.HandleDrag(dx, dy)
		}
	}
	v.tracker.Move(px, py)
}

// PointerDown starts a press. The secondary button pans instead of orbiting.
func (v *Viewer) PointerDown(b Button) {
	v.panning = b == ButtonSecondary
	v.tracker.Press()
}

// PointerUp ends a press and resolves a click if the pointer did not move.
func (v *Viewer) PointerUp() {
	v.panning = false
	v.tracker.Release()
}

// Wheel zooms. Positive values zoom in.
func (v *Viewer) Wheel(delta float32) {
	v.controls.HandleZoom(delta)
}

// Submit queues an asset load. The result arrives as model_loaded or
// model_failed during a later Tick.
func (v *Viewer) Submit(ctx context.Context, req assets.Request) (assets.Ticket, error) {
	return v.pipeline.Submit(ctx, req)
}

// RotatePivot eases the showroom to a Y rotation of angle radians over the
// given duration. A non-positive duration applies it at once.
func (v *Viewer) RotatePivot(angle, seconds float32) {
	v.pivotTarget = angle
	if seconds <= 0 {
		v.pivotTween = nil
		v.pivot.Transform.Rotation[1] = angle
		return
	}
	v.pivotTween = gween.New(v.pivot.Transform.Rotation[1], angle, seconds, ease.InOutCubic)
}

// Close stops the asset pipeline and releases the renderer.
func (v *Viewer) Close() {
	v.pipeline.Close()
	v.renderer.Close()
}

func (v *Viewer) Bus() *events.Bus                { return v.bus }
func (v *Viewer) Queue() *loop.Queue              { return v.queue }
func (v *Viewer) Root() *scene.Node               { return v.root }
func (v *Viewer) Pivot() *scene.Node              { return v.pivot }
func (v *Viewer) Camera() *camera.Perspective     { return v.camera }
func (v *Viewer) Controls() *camera.OrbitControls { return v.controls }
func (v *Viewer) Tracker() *pointer.Tracker       { return v.tracker }
func (v *Viewer) Resolver() *picking.Resolver     { return v.resolver }
func (v *Viewer) Pipeline() *assets.Pipeline      { return v.pipeline }
