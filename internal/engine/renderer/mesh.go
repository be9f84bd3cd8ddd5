package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/scene"
)

// vertexStride is position(3) + normal(3) + uv(2) floats.
const vertexStride = 8 * 4

// gpuMesh is a mesh uploaded to vertex and index buffers.
type gpuMesh struct {
	vao, vbo, ebo uint32
	count         int32
	indexed       bool
}

// upload returns the GPU copy of m, creating it on first use. Meshes are
// uploaded lazily on the render thread the first frame they are drawn.
func (r *Renderer) upload(m *scene.Mesh) *gpuMesh {
	if gm, ok := r.meshes[m]; ok {
		return gm
	}

	gm := &gpuMesh{}
	vertices := m.Interleaved()

	gl.GenVertexArrays(1, &gm.vao)
	gl.BindVertexArray(gm.vao)

	gl.GenBuffers(1, &gm.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, gm.vbo)
	if len(vertices) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(vertices)*4, gl.Ptr(vertices), gl.STATIC_DRAW)
	}

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, vertexStride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, vertexStride, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, vertexStride, 6*4)
	gl.EnableVertexAttribArray(2)

	if len(m.Indices) > 0 {
		gl.GenBuffers(1, &gm.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, gm.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(m.Indices)*4, gl.Ptr(m.Indices), gl.STATIC_DRAW)
		gm.indexed = true
		gm.count = int32(len(m.Indices))
	} else {
		gm.count = int32(len(m.Positions))
	}

	gl.BindVertexArray(0)
	r.meshes[m] = gm

	r.log.Debug("mesh uploaded",
		zap.Int("vertices", len(m.Positions)),
		zap.Int("triangles", m.TriangleCount()),
	)
	return gm
}

func (gm *gpuMesh) draw() {
	gl.BindVertexArray(gm.vao)
	if gm.indexed {
		gl.DrawElements(gl.TRIANGLES, gm.count, gl.UNSIGNED_INT, nil)
	} else {
		gl.DrawArrays(gl.TRIANGLES, 0, gm.count)
	}
	gl.BindVertexArray(0)
}

func (gm *gpuMesh) delete() {
	gl.DeleteVertexArrays(1, &gm.vao)
	gl.DeleteBuffers(1, &gm.vbo)
	if gm.ebo != 0 {
		gl.DeleteBuffers(1, &gm.ebo)
	}
}

// uploadTexture returns the GL texture for t, creating it on first use with
// the sampling parameters the loader chose.
func (r *Renderer) uploadTexture(t *scene.Texture) uint32 {
	if tex, ok := r.textures[t]; ok {
		return tex
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)

	img := t.Image
	if img != nil && len(img.Pix) > 0 {
		b := img.Bounds()
		gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(img.Stride/4))
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	}

	if t.GenerateMipmaps {
		gl.GenerateMipmap(gl.TEXTURE_2D)
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(t.MinFilter, t.GenerateMipmaps))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(t.MagFilter, false))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	if aniso := min(t.Anisotropy, r.maxAnisotropy); aniso > 1 {
		gl.TexParameterf(gl.TEXTURE_2D, textureMaxAnisotropy, aniso)
	}

	r.textures[t] = tex
	return tex
}

func glFilter(f scene.Filter, mipmaps bool) int32 {
	switch {
	case f == scene.FilterNearest:
		return gl.NEAREST
	case f == scene.FilterLinearMipmapLinear && mipmaps:
		return gl.LINEAR_MIPMAP_LINEAR
	default:
		return gl.LINEAR
	}
}
