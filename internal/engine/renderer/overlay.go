package renderer

import (
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
)

// SetOverlay places img with its top-left corner at (x, y) window pixels.
// The image is re-uploaded only when a different image is passed.
func (r *Renderer) SetOverlay(img *image.RGBA, x, y float32, visible bool) {
	if img != r.overlay.img {
		r.overlay.img = img
		r.overlay.stale = true
	}
	r.overlay.x, r.overlay.y = x, y
	r.overlay.visible = visible && img != nil
}

func (r *Renderer) overlayPass() {
	o := &r.overlay
	if !o.visible {
		return
	}
	b := o.img.Bounds()

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, o.texture)
	if o.stale {
		gl.PixelStorei(gl.UNPACK_ROW_LENGTH, int32(o.img.Stride/4))
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(b.Dx()), int32(b.Dy()), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(o.img.Pix))
		gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
		o.stale = false
	}

	// Image rows run top-down, so the top edge samples v=0.
	w, h := float32(r.width), float32(r.height)
	left := o.x/w*2 - 1
	right := (o.x+float32(b.Dx()))/w*2 - 1
	top := 1 - o.y/h*2
	bottom := 1 - (o.y+float32(b.Dy()))/h*2

	p := r.overlayProgram
	p.Use()
	p.SetInt("uImage", 0)
	p.SetVec4("uRect", mgl32.Vec4{left, top, right, bottom})

	gl.Enable(gl.BLEND)
	// RGBA images are premultiplied.
	gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	r.drawFullscreen()
	gl.Disable(gl.BLEND)
}
