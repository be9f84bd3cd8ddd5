// Package texture decodes texture images into RGBA pixels ready for upload.
package texture

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// TGA image type constants.
const (
	TGATypeUncompressed = 2  // Uncompressed true-color
	TGATypeGray         = 3  // Uncompressed grayscale
	TGATypeRLE          = 10 // RLE compressed true-color
	TGATypeGrayRLE      = 11 // RLE compressed grayscale
)

const (
	tgaHeaderSize            = 18
	tgaDescriptorTopToBottom = 0x20
)

var errTGATruncated = errors.New("TGA pixel data truncated")

// tgaLayout describes how packed pixels map onto the destination image.
type tgaLayout struct {
	width, height int
	bytesPerPixel int
	topToBottom   bool
}

// pixel converts one packed pixel (BGR, BGRA or 8-bit gray) to RGBA.
func (l tgaLayout) pixel(p []byte) color.RGBA {
	switch l.bytesPerPixel {
	case 1:
		return color.RGBA{R: p[0], G: p[0], B: p[0], A: 255}
	case 3:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: 255}
	default:
		return color.RGBA{R: p[2], G: p[1], B: p[0], A: p[3]}
	}
}

// set stores the n-th pixel in file order.
func (l tgaLayout) set(img *image.RGBA, n int, c color.RGBA) {
	x, y := n%l.width, n/l.width
	if !l.topToBottom {
		y = l.height - 1 - y
	}
	img.SetRGBA(x, y, c)
}

// DecodeTGA decodes a TGA image file.
// Supports uncompressed and RLE compressed true-color (24/32 bit) and
// grayscale (8 bit) images; color-mapped files are rejected.
func DecodeTGA(data []byte) (*image.RGBA, error) {
	if len(data) < tgaHeaderSize {
		return nil, fmt.Errorf("TGA data too short")
	}

	idLength := int(data[0])
	colorMapType := data[1]
	imageType := int(data[2])
	l := tgaLayout{
		width:         int(data[12]) | int(data[13])<<8,
		height:        int(data[14]) | int(data[15])<<8,
		bytesPerPixel: int(data[16]) / 8,
		topToBottom:   data[17]&tgaDescriptorTopToBottom != 0,
	}

	if colorMapType != 0 {
		return nil, fmt.Errorf("color-mapped TGA not supported")
	}
	gray := imageType == TGATypeGray || imageType == TGATypeGrayRLE
	switch {
	case imageType != TGATypeUncompressed && imageType != TGATypeRLE && !gray:
		return nil, fmt.Errorf("unsupported TGA type %d", imageType)
	case gray && l.bytesPerPixel != 1:
		return nil, fmt.Errorf("unsupported grayscale TGA bit depth %d", data[16])
	case !gray && l.bytesPerPixel != 3 && l.bytesPerPixel != 4:
		return nil, fmt.Errorf("unsupported TGA bit depth %d", data[16])
	}

	offset := tgaHeaderSize + idLength
	if offset > len(data) {
		return nil, fmt.Errorf("TGA data truncated")
	}
	pixels := data[offset:]

	img := image.NewRGBA(image.Rect(0, 0, l.width, l.height))
	var err error
	if imageType == TGATypeRLE || imageType == TGATypeGrayRLE {
		err = decodeTGARLE(img, pixels, l)
	} else {
		err = decodeTGARaw(img, pixels, l)
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

func decodeTGARaw(img *image.RGBA, pixels []byte, l tgaLayout) error {
	count := l.width * l.height
	if len(pixels) < count*l.bytesPerPixel {
		return errTGATruncated
	}
	for n := 0; n < count; n++ {
		i := n * l.bytesPerPixel
		l.set(img, n, l.pixel(pixels[i:i+l.bytesPerPixel]))
	}
	return nil
}

// decodeTGARLE decodes RLE packets: a header byte with the high bit set
// repeats one pixel, otherwise it is followed by count literal pixels.
// A truncated stream leaves the remaining pixels transparent.
func decodeTGARLE(img *image.RGBA, pixels []byte, l tgaLayout) error {
	count := l.width * l.height
	n, i := 0, 0
	for n < count && i < len(pixels) {
		header := pixels[i]
		i++
		run := int(header&0x7F) + 1

		if header&0x80 != 0 {
			if i+l.bytesPerPixel > len(pixels) {
				break
			}
			c := l.pixel(pixels[i : i+l.bytesPerPixel])
			i += l.bytesPerPixel
			for ; run > 0 && n < count; run-- {
				l.set(img, n, c)
				n++
			}
			continue
		}

		for ; run > 0 && n < count; run-- {
			if i+l.bytesPerPixel > len(pixels) {
				return nil
			}
			l.set(img, n, l.pixel(pixels[i:i+l.bytesPerPixel]))
			i += l.bytesPerPixel
			n++
		}
	}
	return nil
}

// LooksLikeTGA reports whether data has a plausible TGA header. TGA has no
// magic number, so this only checks that the header fields are in range.
func LooksLikeTGA(data []byte) bool {
	if len(data) < tgaHeaderSize || data[1] > 1 {
		return false
	}
	switch data[2] {
	case TGATypeUncompressed, TGATypeRLE:
		return data[16] == 24 || data[16] == 32
	case TGATypeGray, TGATypeGrayRLE:
		return data[16] == 8
	}
	return false
}
