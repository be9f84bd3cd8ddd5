package showroom

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	// tooltipOffset places the tooltip below and right of the pointer.
	tooltipOffset  = 20
	tooltipPadding = 10
)

var (
	tooltipBackground = color.NRGBA{0, 0, 0, 178}
	tooltipForeground = color.White
)

// Tooltip is the hover label drawn as a screen overlay.
type Tooltip struct {
	face    font.Face
	text    string
	visible bool
	x, y    float32

	img   *image.RGBA
	dirty bool
}

// NewTooltip creates a hidden tooltip using the built-in bitmap font.
func NewTooltip() *Tooltip {
	return &Tooltip{face: basicfont.Face7x13}
}

// Show displays text next to the pointer at (px, py).
func (t *Tooltip) Show(text string, px, py float32) {
	if text != t.text {
		t.text = text
		t.dirty = true
	}
	t.visible = true
	t.Follow(px, py)
}

// Follow moves the tooltip with the pointer.
func (t *Tooltip) Follow(px, py float32) {
	t.x, t.y = px+tooltipOffset, py+tooltipOffset
}

// Hide hides the tooltip. Its text is kept.
func (t *Tooltip) Hide() {
	t.visible = false
}

func (t *Tooltip) Visible() bool { return t.visible }
func (t *Tooltip) Text() string  { return t.text }

// Position returns the top-left corner in viewport pixels.
func (t *Tooltip) Position() (x, y float32) {
	return t.x, t.y
}

// Image returns the rasterized tooltip, re-rendering it when the text changed.
// The returned image is reused between calls.
func (t *Tooltip) Image() *image.RGBA {
	if t.img != nil && !t.dirty {
		return t.img
	}
	t.dirty = false

	m := t.face.Metrics()
	width := font.MeasureString(t.face, t.text).Ceil() + 2*tooltipPadding
	height := (m.Ascent + m.Descent).Ceil() + 2*tooltipPadding

	t.img = image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(t.img, t.img.Bounds(), image.NewUniform(tooltipBackground), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  t.img,
		Src:  image.NewUniform(tooltipForeground),
		Face: t.face,
		Dot:  fixed.P(tooltipPadding, tooltipPadding+m.Ascent.Ceil()),
	}
	d.DrawString(t.text)
	return t.img
}
