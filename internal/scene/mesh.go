package scene

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// Extend grows b to contain p.
func (b *Bounds) Extend(p mgl32.Vec3) {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// Center returns the middle of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Mesh holds triangle geometry ready for GPU upload and ray tests.
type Mesh struct {
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3 // optional, same length as Positions
	UVs       []mgl32.Vec2 // optional, same length as Positions
	Indices   []uint32     // triangle list; empty means non-indexed
	Bounds    Bounds
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices) / 3
	}
	return len(m.Positions) / 3
}

// Triangle returns the corners of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c mgl32.Vec3) {
	if len(m.Indices) > 0 {
		return m.Positions[m.Indices[i*3]], m.Positions[m.Indices[i*3+1]], m.Positions[m.Indices[i*3+2]]
	}
	return m.Positions[i*3], m.Positions[i*3+1], m.Positions[i*3+2]
}

// ComputeBounds recalculates Bounds from Positions.
func (m *Mesh) ComputeBounds() {
	if len(m.Positions) == 0 {
		m.Bounds = Bounds{}
		return
	}
	m.Bounds = Bounds{Min: m.Positions[0], Max: m.Positions[0]}
	for _, p := range m.Positions[1:] {
		m.Bounds.Extend(p)
	}
}

// Filter is a texture sampling filter.
type Filter int

const (
	FilterLinear Filter = iota
	FilterNearest
	FilterLinearMipmapLinear
)

// Texture is a decoded image plus its sampling parameters.
type Texture struct {
	Path            string
	Image           *image.RGBA
	GenerateMipmaps bool
	MinFilter       Filter
	MagFilter       Filter
	Anisotropy      float32
}

// MaterialKind selects the shading model.
type MaterialKind int

const (
	// MaterialBasic is unlit, optionally textured.
	MaterialBasic MaterialKind = iota
	// MaterialEmissive is self-illuminating and ignores textures.
	MaterialEmissive
)

// Material describes how a mesh is shaded.
type Material struct {
	Kind              MaterialKind
	Color             mgl32.Vec3
	EmissiveIntensity float32

	Map      *Texture
	AlphaMap *Texture

	Transparent bool
	DoubleSided bool
	DepthTest   bool
	DepthWrite  bool
}

// NewBasicMaterial returns an opaque white unlit material.
func NewBasicMaterial() *Material {
	return &Material{
		Kind:       MaterialBasic,
		Color:      mgl32.Vec3{1, 1, 1},
		DepthTest:  true,
		DepthWrite: true,
	}
}

// NewEmissiveMaterial returns a self-illuminating material.
func NewEmissiveMaterial(intensity float32) *Material {
	return &Material{
		Kind:              MaterialEmissive,
		Color:             mgl32.Vec3{1, 1, 1},
		EmissiveIntensity: intensity,
		DepthTest:         true,
		DepthWrite:        true,
	}
}
