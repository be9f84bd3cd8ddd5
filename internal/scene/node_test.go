package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddReparents(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	child := NewNode("child")

	a.Add(child)
	b.Add(child)

	assert.Zero(t, a.ChildCount())
	assert.Equal(t, 1, b.ChildCount())
	assert.Same(t, b, child.Parent())
}

func TestAttachReplacesSameID(t *testing.T) {
	pivot := NewNode("pivot")
	first := NewNode("lamps")
	second := NewNode("lamps")
	other := NewNode("server")

	assert.Nil(t, pivot.Attach(first))
	assert.Nil(t, pivot.Attach(other))
	replaced := pivot.Attach(second)

	require.Same(t, first, replaced)
	assert.Nil(t, first.Parent())
	assert.Equal(t, 2, pivot.ChildCount())
	assert.Same(t, second, pivot.Children()[0], "replacement keeps the slot")
	assert.Same(t, second, pivot.Find("lamps"))

	assert.Nil(t, pivot.Attach(second), "re-attaching the same node is a no-op")
	assert.Equal(t, 2, pivot.ChildCount())
}

func TestRemove(t *testing.T) {
	root := NewNode("root")
	n := NewNode("n")
	root.Add(n)

	assert.True(t, root.Remove(n))
	assert.False(t, root.Remove(n))
	assert.Nil(t, n.Parent())
}

func TestWorldMatrix(t *testing.T) {
	root := NewNode("root")
	pivot := NewNode("pivot")
	pivot.Transform.Rotation = mgl32.Vec3{0, math.Pi / 2, 0}
	piece := NewNode("piece")
	piece.Transform.Position = mgl32.Vec3{1, 0, 0}

	root.Add(pivot)
	pivot.Add(piece)

	p := mgl32.TransformCoordinate(mgl32.Vec3{}, piece.WorldMatrix())
	assert.InDelta(t, 0, p.X(), 1e-5)
	assert.InDelta(t, 0, p.Y(), 1e-5)
	assert.InDelta(t, -1, p.Z(), 1e-5, "rotating +X by 90° about Y lands on -Z")
}

func TestWorldVisible(t *testing.T) {
	root := NewNode("root")
	child := NewNode("child")
	root.Add(child)

	assert.True(t, child.WorldVisible())
	root.Visible = false
	assert.False(t, child.WorldVisible())
}

func TestWalkStops(t *testing.T) {
	root := NewNode("root")
	for _, id := range []string{"a", "b", "c"} {
		root.Add(NewNode(id))
	}

	var seen []string
	root.Walk(func(n *Node) bool {
		seen = append(seen, n.ID)
		return n.ID != "b"
	})
	assert.Equal(t, []string{"root", "a", "b"}, seen)
	assert.Nil(t, root.Find("missing"))
}

func TestMeshBounds(t *testing.T) {
	m := &Mesh{
		Positions: []mgl32.Vec3{{-1, 0, 2}, {3, -2, 0}, {0, 5, 1}},
	}
	m.ComputeBounds()

	assert.Equal(t, mgl32.Vec3{-1, -2, 0}, m.Bounds.Min)
	assert.Equal(t, mgl32.Vec3{3, 5, 2}, m.Bounds.Max)
	assert.Equal(t, 1, m.TriangleCount())

	a, b, c := m.Triangle(0)
	assert.Equal(t, m.Positions, []mgl32.Vec3{a, b, c})
}

func TestNewBox(t *testing.T) {
	m := NewBox(0.1, 3, 0.1)

	assert.Equal(t, 12, m.TriangleCount())
	assert.InDelta(t, -0.05, m.Bounds.Min.X(), 1e-6)
	assert.InDelta(t, 1.5, m.Bounds.Max.Y(), 1e-6)
	assert.Len(t, m.Normals, len(m.Positions))

	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangle(i)
		face := b.Sub(a).Cross(c.Sub(a))
		assert.Positive(t, face.Dot(m.Normals[m.Indices[i*3]]), "triangle %d winds outward", i)
	}
}
