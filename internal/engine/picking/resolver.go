package picking

import (
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/events"
	"github.com/Faultbox/showroom/internal/logger"
	"github.com/Faultbox/showroom/internal/pointer"
	"github.com/Faultbox/showroom/internal/scene"
)

var (
	ErrNoCamera = errors.New("picking: nil camera")
	ErrNoRoot   = errors.New("picking: nil scene root")
)

// Projector supplies the matrix used to unproject pointer positions.
type Projector interface {
	InverseViewProjection() mgl32.Mat4
}

// SelectionSink receives the highlight set whenever it changes. The outline
// pass of the renderer is the usual sink. The slice has at most one element.
type SelectionSink interface {
	SetSelection(nodes []*scene.Node)
}

// HoverData is the intersect payload.
type HoverData struct {
	Object  *scene.Node
	Pointer pointer.State
}

// Resolver tracks which interactive node is under the pointer.
// It is either idle or highlighting exactly one node.
type Resolver struct {
	bus    *events.Bus
	camera Projector
	root   *scene.Node
	sink   SelectionSink
	log    *zap.Logger

	highlighted *scene.Node
}

// NewResolver creates an idle resolver. sink may be nil.
func NewResolver(bus *events.Bus, camera Projector, root *scene.Node, sink SelectionSink) (*Resolver, error) {
	if camera == nil {
		return nil, ErrNoCamera
	}
	if root == nil {
		return nil, ErrNoRoot
	}
	return &Resolver{
		bus:    bus,
		camera: camera,
		root:   root,
		sink:   sink,
		log:    logger.Named("picking"),
	}, nil
}

// Highlighted returns the highlighted node, or nil when idle.
func (r *Resolver) Highlighted() *scene.Node {
	return r.highlighted
}

// Selection returns the highlight set.
func (r *Resolver) Selection() []*scene.Node {
	if r.highlighted == nil {
		return nil
	}
	return []*scene.Node{r.highlighted}
}

// Evaluate re-tests the scene under the pointer. Nothing happens while the
// pointer is pressed, so dragging the camera never changes the highlight.
func (r *Resolver) Evaluate(p pointer.State) {
	if p.Pressed {
		return
	}

	ray := RayFromNDC(p.X, p.Y, r.camera.InverseViewProjection())
	hit, ok := Nearest(ray, r.root)
	if !ok || !hit.Node.Interactive {
		if r.highlighted != nil {
			r.setHighlight(nil)
			r.bus.Publish(events.LostIntersect, nil)
		}
		return
	}

	if r.highlighted != nil && r.highlighted.ID == hit.Node.ID {
		if r.highlighted != hit.Node {
			// Same piece, reloaded: follow the node now in the scene.
			r.setHighlight(hit.Node)
		}
		return
	}

	r.setHighlight(hit.Node)
	r.log.Debug("intersect", zap.String("id", hit.Node.ID), zap.Float32("distance", hit.Distance))
	r.bus.Publish(events.Intersect, HoverData{Object: hit.Node, Pointer: p})
}

// Click finishes a press/release pair. A zero-movement release over a
// highlighted node publishes object-clicked; any drag clears the highlight
// silently.
func (r *Resolver) Click(origin, release pointer.State) {
	if pointer.IsClick(origin, release) {
		if r.highlighted != nil {
			r.bus.Publish(events.ObjectClicked, r.highlighted)
		}
		return
	}
	r.setHighlight(nil)
}

// Refresh re-binds the highlight after the scene changed. A highlighted node
// that was replaced under the same ID is swapped for the attached one without
// publishing; one that left the scene entirely ends the hover with
// lost-intersect.
func (r *Resolver) Refresh() {
	if r.highlighted == nil || attached(r.highlighted, r.root) {
		return
	}
	if n := r.root.Find(r.highlighted.ID); n != nil && n.Interactive {
		r.setHighlight(n)
		return
	}
	r.setHighlight(nil)
	r.bus.Publish(events.LostIntersect, nil)
}

func attached(n, root *scene.Node) bool {
	for ; n != nil; n = n.Parent() {
		if n == root {
			return true
		}
	}
	return false
}

func (r *Resolver) setHighlight(n *scene.Node) {
	r.highlighted = n
	if r.sink != nil {
		r.sink.SetSelection(r.Selection())
	}
}
