// Package scene provides the scene graph shared by loading, picking and rendering.
package scene

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Transform is a node's local position, XYZ euler rotation (radians) and scale.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Vec3
	Scale    mgl32.Vec3
}

// IdentityTransform returns a transform with unit scale.
func IdentityTransform() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix returns T * Rx * Ry * Rz * S.
func (t Transform) Matrix() mgl32.Mat4 {
	m := mgl32.Translate3D(t.Position.X(), t.Position.Y(), t.Position.Z())
	m = m.Mul4(mgl32.HomogRotate3DX(t.Rotation.X()))
	m = m.Mul4(mgl32.HomogRotate3DY(t.Rotation.Y()))
	m = m.Mul4(mgl32.HomogRotate3DZ(t.Rotation.Z()))
	return m.Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// Node is an element of the scene graph. Loaded showroom pieces are nodes
// with a Mesh and a Material; grouping nodes (root, pivot) have neither.
type Node struct {
	ID          string
	Interactive bool
	Visible     bool
	Transform   Transform

	Mesh     *Mesh
	Material *Material

	parent   *Node
	children []*Node
}

// NewNode creates a visible node with an identity transform.
func NewNode(id string) *Node {
	return &Node{
		ID:        id,
		Visible:   true,
		Transform: IdentityTransform(),
	}
}

// Parent returns the parent node, or nil for a root.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the direct children. The slice must not be modified.
func (n *Node) Children() []*Node {
	return n.children
}

// ChildCount returns the number of direct children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// Add attaches child under n, detaching it from any previous parent.
func (n *Node) Add(child *Node) {
	if child.parent != nil {
		child.parent.Remove(child)
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Attach adds child under n, replacing a direct child with the same ID.
// It returns the replaced node, if any.
func (n *Node) Attach(child *Node) *Node {
	for i, c := range n.children {
		if c.ID != child.ID || c == child {
			continue
		}
		if child.parent != nil && child.parent != n {
			child.parent.Remove(child)
		}
		c.parent = nil
		child.parent = n
		n.children[i] = child
		return c
	}
	if child.parent == n {
		return nil
	}
	n.Add(child)
	return nil
}

// Remove detaches child from n. It reports whether child was a direct child.
func (n *Node) Remove(child *Node) bool {
	for i, c := range n.children {
		if c == child {
			n.children = append(n.children[:i], n.children[i+1:]...)
			child.parent = nil
			return true
		}
	}
	return false
}

// Find returns the first node in the subtree (n included) with the given ID.
func (n *Node) Find(id string) *Node {
	var found *Node
	n.Walk(func(c *Node) bool {
		if c.ID == id {
			found = c
			return false
		}
		return true
	})
	return found
}

// Walk visits n and its descendants depth-first until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// WorldMatrix returns the node's transform composed with all its ancestors.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.Transform.Matrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.Transform.Matrix().Mul4(m)
	}
	return m
}

// WorldVisible reports whether n and every ancestor are visible.
func (n *Node) WorldVisible() bool {
	for c := n; c != nil; c = c.parent {
		if !c.Visible {
			return false
		}
	}
	return true
}
