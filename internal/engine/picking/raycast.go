package picking

import (
	"cmp"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/showroom/internal/scene"
)

// Hit is one ray/mesh intersection.
type Hit struct {
	Node     *scene.Node
	Distance float32 // along the world-space ray
	Point    mgl32.Vec3
}

// Intersect casts r against root (and its descendants when recursive) and
// returns one hit per mesh node, nearest first. Invisible nodes and their
// subtrees are skipped. Faces are tested single-sided unless the node's
// material is double-sided.
func Intersect(r Ray, root *scene.Node, recursive bool) []Hit {
	var hits []Hit
	var visit func(n *scene.Node, parentWorld mgl32.Mat4)
	visit = func(n *scene.Node, parentWorld mgl32.Mat4) {
		if !n.Visible {
			return
		}
		world := parentWorld.Mul4(n.Transform.Matrix())
		if n.Mesh != nil {
			if t, ok := intersectMesh(r, n, world); ok {
				hits = append(hits, Hit{Node: n, Distance: t, Point: r.At(t)})
			}
		}
		if !recursive {
			return
		}
		for _, c := range n.Children() {
			visit(c, world)
		}
	}

	parentWorld := mgl32.Ident4()
	if p := root.Parent(); p != nil {
		parentWorld = p.WorldMatrix()
	}
	visit(root, parentWorld)

	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(a.Distance, b.Distance)
	})
	return hits
}

// Nearest returns the closest hit, if any.
func Nearest(r Ray, root *scene.Node) (Hit, bool) {
	hits := Intersect(r, root, true)
	if len(hits) == 0 {
		return Hit{}, false
	}
	return hits[0], true
}

func intersectMesh(r Ray, n *scene.Node, world mgl32.Mat4) (float32, bool) {
	local := r.Transform(world.Inv())
	if local.Direction.Len() == 0 {
		return 0, false
	}
	if _, ok := local.IntersectAABB(n.Mesh.Bounds); !ok {
		return 0, false
	}

	twoSided := n.Material == nil || n.Material.DoubleSided
	best, found := float32(0), false
	for i := 0; i < n.Mesh.TriangleCount(); i++ {
		a, b, c := n.Mesh.Triangle(i)
		if t, ok := local.IntersectTriangle(a, b, c, twoSided); ok && (!found || t < best) {
			best, found = t, true
		}
	}
	return best, found
}
