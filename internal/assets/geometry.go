package assets

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/h2non/filetype"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/Faultbox/showroom/internal/scene"
)

var (
	errNoGeometry    = errors.New("model contains no triangle geometry")
	errModelTooLarge = errors.New("inflated model exceeds size limit")
)

// maxInflatedSize caps a gzip-wrapped model after decompression.
var maxInflatedSize int64 = 256 << 20

// maxNodeDepth bounds the node hierarchy walk; deeper trees are malformed.
const maxNodeDepth = 64

// DecodeGeometry decodes a glTF 2.0 payload (binary .glb, or .gltf JSON with
// embedded buffers), optionally gzip-compressed, into a single mesh.
// Every triangle primitive reachable from the default scene is merged with
// its node transforms applied.
func DecodeGeometry(data []byte) (*scene.Mesh, error) {
	if kind, _ := filetype.Match(data); kind.Extension == "gz" {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		data, err = io.ReadAll(io.LimitReader(zr, maxInflatedSize+1))
		if err != nil {
			return nil, fmt.Errorf("inflating model: %w", err)
		}
		if int64(len(data)) > maxInflatedSize {
			return nil, fmt.Errorf("%w (%d bytes)", errModelTooLarge, maxInflatedSize)
		}
	}

	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("decoding glTF: %w", err)
	}

	mesh := &scene.Mesh{}
	roots := sceneRoots(doc)
	if len(roots) == 0 {
		// Node-less documents: take every mesh untransformed.
		for i := range doc.Meshes {
			if err := appendMesh(doc, i, mgl32.Ident4(), mesh); err != nil {
				return nil, err
			}
		}
	}
	for _, idx := range roots {
		if err := appendNode(doc, idx, mgl32.Ident4(), mesh, 0); err != nil {
			return nil, err
		}
	}

	if mesh.TriangleCount() == 0 {
		return nil, errNoGeometry
	}
	mesh.ComputeBounds()
	return mesh, nil
}

// sceneRoots returns the root nodes of the default scene, or every
// parentless node when the document declares no scene.
func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		s := 0
		if doc.Scene != nil {
			s = *doc.Scene
		}
		if s >= 0 && s < len(doc.Scenes) {
			return doc.Scenes[s].Nodes
		}
	}

	isChild := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if c >= 0 && c < len(isChild) {
				isChild[c] = true
			}
		}
	}
	var roots []int
	for i := range doc.Nodes {
		if !isChild[i] {
			roots = append(roots, i)
		}
	}
	return roots
}

func appendNode(doc *gltf.Document, idx int, parent mgl32.Mat4, mesh *scene.Mesh, depth int) error {
	if depth > maxNodeDepth {
		return fmt.Errorf("node hierarchy deeper than %d", maxNodeDepth)
	}
	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", idx)
	}
	node := doc.Nodes[idx]
	world := parent.Mul4(nodeMatrix(node))

	if node.Mesh != nil {
		if err := appendMesh(doc, *node.Mesh, world, mesh); err != nil {
			return err
		}
	}
	for _, c := range node.Children {
		if err := appendNode(doc, c, world, mesh, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// nodeMatrix returns the node's local transform: its matrix when one is
// given, otherwise T * R * S.
func nodeMatrix(n *gltf.Node) mgl32.Mat4 {
	if m := n.MatrixOrDefault(); m != gltf.DefaultMatrix {
		var out mgl32.Mat4
		for i, v := range m {
			out[i] = float32(v) // both column-major
		}
		return out
	}

	t := n.TranslationOrDefault()
	r := n.RotationOrDefault()
	s := n.ScaleOrDefault()
	q := mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}}

	return mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2])).
		Mul4(q.Normalize().Mat4()).
		Mul4(mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2])))
}

func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor index %d out of range", idx)
	}
	return doc.Accessors[idx], nil
}

func appendMesh(doc *gltf.Document, idx int, world mgl32.Mat4, mesh *scene.Mesh) error {
	if idx < 0 || idx >= len(doc.Meshes) {
		return fmt.Errorf("mesh index %d out of range", idx)
	}
	normalMatrix := world.Mat3().Inv().Transpose()

	for _, prim := range doc.Meshes[idx].Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		acc, err := accessor(doc, posIdx)
		if err != nil {
			return err
		}
		positions, err := modeler.ReadPosition(doc, acc, nil)
		if err != nil {
			return fmt.Errorf("reading positions: %w", err)
		}

		var normals [][3]float32
		if i, ok := prim.Attributes[gltf.NORMAL]; ok {
			if acc, err = accessor(doc, i); err != nil {
				return err
			}
			if normals, err = modeler.ReadNormal(doc, acc, nil); err != nil {
				return fmt.Errorf("reading normals: %w", err)
			}
		}

		var uvs [][2]float32
		if i, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			if acc, err = accessor(doc, i); err != nil {
				return err
			}
			if uvs, err = modeler.ReadTextureCoord(doc, acc, nil); err != nil {
				return fmt.Errorf("reading texture coordinates: %w", err)
			}
		}

		var indices []uint32
		if prim.Indices != nil {
			if acc, err = accessor(doc, *prim.Indices); err != nil {
				return err
			}
			if indices, err = modeler.ReadIndices(doc, acc, nil); err != nil {
				return fmt.Errorf("reading indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		base := uint32(len(mesh.Positions))
		for i, p := range positions {
			mesh.Positions = append(mesh.Positions, mgl32.TransformCoordinate(mgl32.Vec3(p), world))

			n := mgl32.Vec3{}
			if len(normals) == len(positions) {
				n = normalMatrix.Mul3x1(mgl32.Vec3(normals[i]))
				if n.Len() > 0 {
					n = n.Normalize()
				}
			}
			mesh.Normals = append(mesh.Normals, n)

			uv := mgl32.Vec2{}
			if len(uvs) == len(positions) {
				uv = mgl32.Vec2(uvs[i])
			}
			mesh.UVs = append(mesh.UVs, uv)
		}

		for _, i := range indices[:len(indices)/3*3] {
			if int(i) >= len(positions) {
				return fmt.Errorf("vertex index %d out of range", i)
			}
			mesh.Indices = append(mesh.Indices, base+i)
		}
		if len(normals) != len(positions) {
			faceNormals(mesh, base)
		}
	}
	return nil
}

// faceNormals fills zero normals of vertices from base onward with the
// average of their adjacent face normals.
func faceNormals(mesh *scene.Mesh, base uint32) {
	for t := 0; t+2 < len(mesh.Indices); t += 3 {
		ia, ib, ic := mesh.Indices[t], mesh.Indices[t+1], mesh.Indices[t+2]
		if ia < base {
			continue
		}
		a, b, c := mesh.Positions[ia], mesh.Positions[ib], mesh.Positions[ic]
		n := b.Sub(a).Cross(c.Sub(a))
		for _, i := range []uint32{ia, ib, ic} {
			mesh.Normals[i] = mesh.Normals[i].Add(n)
		}
	}
	for i := int(base); i < len(mesh.Normals); i++ {
		if mesh.Normals[i].Len() > 0 {
			mesh.Normals[i] = mesh.Normals[i].Normalize()
		}
	}
}
