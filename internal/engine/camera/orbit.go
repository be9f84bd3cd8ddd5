package camera

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// polarEpsilon keeps the camera off the poles, where LookAt degenerates.
const polarEpsilon = 1e-6

// OrbitControls orbits a Perspective camera around a target point.
// Input handlers accumulate deltas; Update applies them and enforces the
// distance, polar and azimuth limits and the rectangular target box.
type OrbitControls struct {
	camera *Perspective

	Target mgl32.Vec3

	// Constraints
	MinDistance float32
	MaxDistance float32
	MinPolar    float32
	MaxPolar    float32
	MinAzimuth  float32
	MaxAzimuth  float32
	BoxMin      mgl32.Vec3
	BoxMax      mgl32.Vec3

	// Sensitivity
	DragSensitivity float32
	ZoomSensitivity float32
	PanSensitivity  float32

	thetaDelta float32
	phiDelta   float32
	scale      float32
	pan        mgl32.Vec3
}

// NewOrbitControls creates controls around the camera's current target with
// loose limits. Callers narrow them before the first Update.
func NewOrbitControls(cam *Perspective) *OrbitControls {
	return &OrbitControls{
		camera:          cam,
		Target:          cam.Target,
		MinDistance:     0,
		MaxDistance:     math32.Inf(1),
		MinPolar:        0,
		MaxPolar:        math32.Pi,
		MinAzimuth:      -math32.Inf(1),
		MaxAzimuth:      math32.Inf(1),
		BoxMin:          mgl32.Vec3{-math32.Inf(1), -math32.Inf(1), -math32.Inf(1)},
		BoxMax:          mgl32.Vec3{math32.Inf(1), math32.Inf(1), math32.Inf(1)},
		DragSensitivity: 0.005,
		ZoomSensitivity: 0.1,
		PanSensitivity:  0.002,
		scale:           1,
	}
}

// Camera returns the controlled camera.
func (o *OrbitControls) Camera() *Perspective {
	return o.camera
}

// HandleDrag queues a rotation from a pointer drag delta in pixels.
func (o *OrbitControls) HandleDrag(deltaX, deltaY float32) {
	o.thetaDelta -= deltaX * o.DragSensitivity
	o.phiDelta -= deltaY * o.DragSensitivity
}

// HandleZoom queues a dolly from a scroll wheel delta. Positive zooms in.
func (o *OrbitControls) HandleZoom(delta float32) {
	f := 1 - delta*o.ZoomSensitivity
	if f < 0.1 {
		f = 0.1
	}
	o.scale *= f
}

// HandlePan queues a pan of the target in the camera plane.
func (o *OrbitControls) HandlePan(deltaX, deltaY float32) {
	offset := o.camera.Position.Sub(o.Target)
	// Speed scales with distance for consistent feel
	speed := offset.Len() * o.PanSensitivity

	forward := o.camera.Forward()
	right := forward.Cross(o.camera.Up)
	if right.Len() == 0 {
		return
	}
	right = right.Normalize()
	up := right.Cross(forward)

	o.pan = o.pan.Add(right.Mul(-deltaX * speed)).Add(up.Mul(deltaY * speed))
}

// Update applies queued input, enforces every limit and repositions the
// camera. It reports whether the camera moved.
func (o *OrbitControls) Update() bool {
	before := o.camera.Position

	offset := o.camera.Position.Sub(o.Target)
	radius := offset.Len()

	var theta, phi float32
	if radius > 0 {
		theta = math32.Atan2(offset.X(), offset.Z())
		phi = math32.Acos(clamp(offset.Y()/radius, -1, 1))
	}

	theta = clamp(theta+o.thetaDelta, o.MinAzimuth, o.MaxAzimuth)
	phi = clamp(phi+o.phiDelta, o.MinPolar, o.MaxPolar)
	phi = clamp(phi, polarEpsilon, math32.Pi-polarEpsilon)
	radius = clamp(radius*o.scale, o.MinDistance, o.MaxDistance)

	o.Target = o.Target.Add(o.pan)

	sinPhi := math32.Sin(phi)
	offset = mgl32.Vec3{
		radius * sinPhi * math32.Sin(theta),
		radius * math32.Cos(phi),
		radius * sinPhi * math32.Cos(theta),
	}
	o.camera.Position = o.Target.Add(offset)

	o.thetaDelta = 0
	o.phiDelta = 0
	o.scale = 1
	o.pan = mgl32.Vec3{}

	o.ClampTarget()
	o.camera.LookAt(o.Target)

	return !o.camera.Position.ApproxEqualThreshold(before, 1e-4)
}

// ClampTarget pulls the target back inside the box and translates the camera
// by the same delta, preserving the orbit offset. It returns the delta that
// was removed (desired - clamped).
func (o *OrbitControls) ClampTarget() mgl32.Vec3 {
	var clamped mgl32.Vec3
	for i := 0; i < 3; i++ {
		clamped[i] = clamp(o.Target[i], o.BoxMin[i], o.BoxMax[i])
	}
	delta := o.Target.Sub(clamped)
	if delta == (mgl32.Vec3{}) {
		return delta
	}

	o.Target = clamped
	o.camera.Position = o.camera.Position.Sub(delta)
	o.camera.LookAt(o.Target)
	return delta
}

// Distance returns the current orbit radius.
func (o *OrbitControls) Distance() float32 {
	return o.camera.Position.Sub(o.Target).Len()
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
