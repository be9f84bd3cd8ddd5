package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// DrawItem is one visible mesh with its world transform.
type DrawItem struct {
	Node  *Node
	World mgl32.Mat4
	// Depth is the squared distance from the eye to the mesh centre.
	Depth float32
}

// DrawList collects the visible meshes under root in draw order: opaque
// items in scene order, then transparent items from far to near.
func DrawList(root *Node, eye mgl32.Vec3) []DrawItem {
	var opaque, transparent []DrawItem
	var visit func(n *Node, parent mgl32.Mat4)
	visit = func(n *Node, parent mgl32.Mat4) {
		if !n.Visible {
			return
		}
		world := parent.Mul4(n.Transform.Matrix())
		if n.Mesh != nil && n.Mesh.TriangleCount() > 0 {
			center := mgl32.TransformCoordinate(n.Mesh.Bounds.Center(), world)
			d := center.Sub(eye)
			item := DrawItem{Node: n, World: world, Depth: d.Dot(d)}
			if n.Material != nil && n.Material.Transparent {
				transparent = append(transparent, item)
			} else {
				opaque = append(opaque, item)
			}
		}
		for _, c := range n.children {
			visit(c, world)
		}
	}
	visit(root, mgl32.Ident4())

	sort.SliceStable(transparent, func(i, j int) bool {
		return transparent[i].Depth > transparent[j].Depth
	})
	return append(opaque, transparent...)
}

// Interleaved packs the mesh as position(3) normal(3) uv(2) per vertex.
// Missing normals and UVs are written as zero.
func (m *Mesh) Interleaved() []float32 {
	const stride = 8
	out := make([]float32, 0, len(m.Positions)*stride)
	for i, p := range m.Positions {
		out = append(out, p[0], p[1], p[2])
		if i < len(m.Normals) {
			n := m.Normals[i]
			out = append(out, n[0], n[1], n[2])
		} else {
			out = append(out, 0, 0, 0)
		}
		if i < len(m.UVs) {
			out = append(out, m.UVs[i][0], m.UVs[i][1])
		} else {
			out = append(out, 0, 0)
		}
	}
	return out
}
