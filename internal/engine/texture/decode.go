package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"

	"github.com/h2non/filetype"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for content no decoder recognizes.
var ErrUnsupportedFormat = errors.New("unsupported image format")

type decodeFunc func(r *bytes.Reader) (image.Image, error)

// decoders is keyed by the extension filetype reports for the content.
var decoders = map[string]decodeFunc{
	"png":  func(r *bytes.Reader) (image.Image, error) { return png.Decode(r) },
	"jpg":  func(r *bytes.Reader) (image.Image, error) { return jpeg.Decode(r) },
	"gif":  func(r *bytes.Reader) (image.Image, error) { return gif.Decode(r) },
	"bmp":  func(r *bytes.Reader) (image.Image, error) { return bmp.Decode(r) },
	"tif":  func(r *bytes.Reader) (image.Image, error) { return tiff.Decode(r) },
	"webp": func(r *bytes.Reader) (image.Image, error) { return webp.Decode(r) },
}

// Decode sniffs the image format from content, not file name, and decodes
// it to RGBA. TGA has no signature and is tried last.
func Decode(data []byte) (*image.RGBA, error) {
	kind, _ := filetype.Match(data)
	if dec, ok := decoders[kind.Extension]; ok {
		img, err := dec(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", kind.Extension, err)
		}
		return ToRGBA(img), nil
	}
	if LooksLikeTGA(data) {
		return DecodeTGA(data)
	}
	if kind == filetype.Unknown {
		return nil, ErrUnsupportedFormat
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind.MIME.Value)
}

// ToRGBA converts any image.Image to *image.RGBA with its origin at (0, 0).
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
