// Package renderer draws the showroom scene with OpenGL: a scene pass into an
// offscreen target, a selection outline composite, an FXAA pass to the window
// and a 2D overlay for the tooltip.
package renderer

import (
	"fmt"
	"image"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/engine/camera"
	"github.com/Faultbox/showroom/internal/engine/framebuffer"
	"github.com/Faultbox/showroom/internal/engine/shader"
	"github.com/Faultbox/showroom/internal/engine/shader/glsl"
	"github.com/Faultbox/showroom/internal/logger"
	"github.com/Faultbox/showroom/internal/scene"
)

// EXT_texture_filter_anisotropic is not part of the core profile headers.
const (
	textureMaxAnisotropy    = 0x84FE
	maxTextureMaxAnisotropy = 0x84FF
)

// Config holds renderer configuration.
type Config struct {
	Width  int
	Height int
	// PixelRatio scales the offscreen targets. Clamped to [1, 2].
	PixelRatio float32

	ClearColor       mgl32.Vec4
	OutlineColor     mgl32.Vec3
	OutlineStrength  float32
	OutlineGlow      float32
	OutlineThickness float32
}

// Renderer handles all OpenGL rendering.
type Renderer struct {
	config Config
	log    *zap.Logger

	meshProgram    *shader.Program
	maskProgram    *shader.Program
	outlineProgram *shader.Program
	fxaaProgram    *shader.Program
	overlayProgram *shader.Program

	sceneFB     *framebuffer.Framebuffer
	maskFB      *framebuffer.Framebuffer
	compositeFB *framebuffer.Framebuffer

	// Full-screen passes draw from gl_VertexID but core profile still needs a VAO.
	emptyVAO uint32

	meshes   map[*scene.Mesh]*gpuMesh
	textures map[*scene.Texture]uint32

	selection     []*scene.Node
	maxAnisotropy float32

	overlay overlay

	width, height int
}

// New creates a renderer.
// IMPORTANT: Must be called AFTER OpenGL context is created!
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		config:   cfg,
		log:      logger.Named("renderer"),
		meshes:   make(map[*scene.Mesh]*gpuMesh),
		textures: make(map[*scene.Texture]uint32),
	}
	r.config.PixelRatio = min(max(cfg.PixelRatio, 1), 2)

	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	r.log.Info("OpenGL initialized",
		zap.String("version", gl.GoStr(gl.GetString(gl.VERSION))),
		zap.String("renderer", gl.GoStr(gl.GetString(gl.RENDERER))),
	)

	r.maxAnisotropy = 1
	var aniso float32
	gl.GetFloatv(maxTextureMaxAnisotropy, &aniso)
	if gl.GetError() == gl.NO_ERROR && aniso > 1 {
		r.maxAnisotropy = aniso
	}

	if err := r.createPrograms(); err != nil {
		r.Close()
		return nil, err
	}

	gl.GenVertexArrays(1, &r.emptyVAO)
	gl.GenTextures(1, &r.overlay.texture)

	var err error
	w, h := r.targetSize(cfg.Width, cfg.Height)
	if r.sceneFB, err = framebuffer.New(w, h, true); err != nil {
		r.Close()
		return nil, fmt.Errorf("scene target: %w", err)
	}
	if r.maskFB, err = framebuffer.New(w, h, false); err != nil {
		r.Close()
		return nil, fmt.Errorf("mask target: %w", err)
	}
	if r.compositeFB, err = framebuffer.New(w, h, false); err != nil {
		r.Close()
		return nil, fmt.Errorf("composite target: %w", err)
	}
	r.width, r.height = max(cfg.Width, 1), max(cfg.Height, 1)

	r.log.Debug("renderer created",
		zap.Int32("target_width", w),
		zap.Int32("target_height", h),
		zap.Float32("max_anisotropy", r.maxAnisotropy),
	)
	return r, nil
}

func (r *Renderer) createPrograms() error {
	var err error
	if r.meshProgram, err = shader.New("mesh", glsl.MeshVertex, glsl.MeshFragment); err != nil {
		return err
	}
	if r.maskProgram, err = shader.New("mask", glsl.MeshVertex, glsl.MaskFragment); err != nil {
		return err
	}
	if r.outlineProgram, err = shader.New("outline", glsl.FullscreenVertex, glsl.OutlineFragment); err != nil {
		return err
	}
	if r.fxaaProgram, err = shader.New("fxaa", glsl.FullscreenVertex, glsl.FXAAFragment); err != nil {
		return err
	}
	if r.overlayProgram, err = shader.New("overlay", glsl.OverlayVertex, glsl.OverlayFragment); err != nil {
		return err
	}
	return nil
}

func (r *Renderer) targetSize(width, height int) (int32, int32) {
	return int32(float32(max(width, 1)) * r.config.PixelRatio), int32(float32(max(height, 1)) * r.config.PixelRatio)
}

// MaxAnisotropy reports the largest anisotropic filtering level the driver
// supports, or 1 without the extension.
func (r *Renderer) MaxAnisotropy() float32 {
	return r.maxAnisotropy
}

// SetSize resizes the offscreen targets and the pass resolution.
func (r *Renderer) SetSize(width, height int) {
	r.width, r.height = max(width, 1), max(height, 1)
	w, h := r.targetSize(width, height)
	r.sceneFB.Resize(w, h)
	r.maskFB.Resize(w, h)
	r.compositeFB.Resize(w, h)
	r.log.Debug("renderer resized", zap.Int("width", width), zap.Int("height", height))
}

// SetSelection sets the nodes drawn with an outline.
func (r *Renderer) SetSelection(nodes []*scene.Node) {
	r.selection = nodes
}

// Render draws one frame to the default framebuffer.
func (r *Renderer) Render(root *scene.Node, cam *camera.Perspective) {
	viewProj := cam.ViewProjection()
	items := scene.DrawList(root, cam.Position)

	r.scenePass(items, viewProj)
	r.maskPass(viewProj)
	r.outlinePass()
	r.fxaaPass()
	r.overlayPass()
}

// ReadPixels reads back the last rendered frame as bottom-up RGBA rows.
// Call it after Render and before the buffers are swapped.
func (r *Renderer) ReadPixels() ([]byte, int, int) {
	pixels := make([]byte, r.width*r.height*4)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
	gl.ReadPixels(0, 0, int32(r.width), int32(r.height), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pixels))
	return pixels, r.width, r.height
}

func (r *Renderer) scenePass(items []scene.DrawItem, viewProj mgl32.Mat4) {
	c := r.config.ClearColor
	r.sceneFB.Bind()
	gl.DepthMask(true)
	r.sceneFB.Clear(c[0], c[1], c[2], c[3])

	r.meshProgram.Use()
	r.meshProgram.SetInt("uMap", 0)
	r.meshProgram.SetInt("uAlphaMap", 1)

	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	for _, it := range items {
		gm := r.upload(it.Node.Mesh)
		mat := it.Node.Material
		if mat == nil {
			mat = scene.NewBasicMaterial()
		}
		r.applyMaterial(mat)
		r.meshProgram.SetMat4("uMVP", viewProj.Mul4(it.World))
		gm.draw()
	}

	gl.Disable(gl.BLEND)
	gl.Enable(gl.CULL_FACE)
	gl.Enable(gl.DEPTH_TEST)
	gl.DepthMask(true)
}

func (r *Renderer) applyMaterial(m *scene.Material) {
	p := r.meshProgram
	p.SetVec3("uColor", m.Color)
	p.SetFloat("uEmissive", m.EmissiveIntensity)

	p.SetBool("uHasMap", m.Map != nil)
	if m.Map != nil {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, r.uploadTexture(m.Map))
	}
	p.SetBool("uHasAlphaMap", m.AlphaMap != nil)
	if m.AlphaMap != nil {
		gl.ActiveTexture(gl.TEXTURE1)
		gl.BindTexture(gl.TEXTURE_2D, r.uploadTexture(m.AlphaMap))
	}

	setCap(gl.BLEND, m.Transparent)
	setCap(gl.CULL_FACE, !m.DoubleSided)
	setCap(gl.DEPTH_TEST, m.DepthTest)
	gl.DepthMask(m.DepthWrite)
}

// maskPass renders the selected nodes in white for the outline pass.
func (r *Renderer) maskPass(viewProj mgl32.Mat4) {
	r.maskFB.Bind()
	r.maskFB.Clear(0, 0, 0, 0)
	if len(r.selection) == 0 {
		return
	}

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	r.maskProgram.Use()
	for _, n := range r.selection {
		if n.Mesh == nil || !n.WorldVisible() {
			continue
		}
		r.maskProgram.SetMat4("uMVP", viewProj.Mul4(n.WorldMatrix()))
		r.upload(n.Mesh).draw()
	}
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
}

func (r *Renderer) outlinePass() {
	w, h := r.compositeFB.Size()
	r.compositeFB.Bind()

	p := r.outlineProgram
	p.Use()
	bindTexture(0, r.sceneFB.ColorTexture())
	bindTexture(1, r.maskFB.ColorTexture())
	p.SetInt("uScene", 0)
	p.SetInt("uMask", 1)
	p.SetVec2("uTexel", mgl32.Vec2{1 / float32(w), 1 / float32(h)})
	p.SetVec3("uColor", r.config.OutlineColor)
	p.SetFloat("uStrength", r.config.OutlineStrength)
	p.SetFloat("uGlow", r.config.OutlineGlow)
	p.SetFloat("uThickness", r.config.OutlineThickness)
	r.drawFullscreen()
}

func (r *Renderer) fxaaPass() {
	w, h := r.compositeFB.Size()
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(r.width), int32(r.height))

	p := r.fxaaProgram
	p.Use()
	bindTexture(0, r.compositeFB.ColorTexture())
	p.SetInt("uSource", 0)
	p.SetVec2("uResolution", mgl32.Vec2{1 / float32(w), 1 / float32(h)})
	r.drawFullscreen()
}

func (r *Renderer) drawFullscreen() {
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.BindVertexArray(r.emptyVAO)
	gl.DrawArrays(gl.TRIANGLES, 0, 6)
	gl.BindVertexArray(0)
	gl.Enable(gl.DEPTH_TEST)
	gl.Enable(gl.CULL_FACE)
}

// Close cleans up renderer resources.
func (r *Renderer) Close() {
	r.log.Info("closing renderer")
	for _, gm := range r.meshes {
		gm.delete()
	}
	r.meshes = map[*scene.Mesh]*gpuMesh{}
	for _, tex := range r.textures {
		gl.DeleteTextures(1, &tex)
	}
	r.textures = map[*scene.Texture]uint32{}

	for _, p := range []*shader.Program{r.meshProgram, r.maskProgram, r.outlineProgram, r.fxaaProgram, r.overlayProgram} {
		if p != nil {
			p.Delete()
		}
	}
	for _, fb := range []*framebuffer.Framebuffer{r.sceneFB, r.maskFB, r.compositeFB} {
		if fb != nil {
			fb.Destroy()
		}
	}
	if r.emptyVAO != 0 {
		gl.DeleteVertexArrays(1, &r.emptyVAO)
	}
	if r.overlay.texture != 0 {
		gl.DeleteTextures(1, &r.overlay.texture)
	}
}

func setCap(c uint32, on bool) {
	if on {
		gl.Enable(c)
	} else {
		gl.Disable(c)
	}
}

func bindTexture(unit uint32, tex uint32) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, tex)
}

// overlay is the tooltip image drawn in window pixels on top of the frame.
type overlay struct {
	texture uint32
	img     *image.RGBA
	x, y    float32
	visible bool
	stale   bool
}
