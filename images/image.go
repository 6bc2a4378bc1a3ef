// Package images - Decoded raster images and their base64 codec.
package images

import (
	"image"

	"github.com/disintegration/imaging"
)

// PixelImage is an opaque RGB raster.
//
// The backing NRGBA buffer always carries alpha 255; the color channels are
// kept exactly as decoded.
type PixelImage struct {
	*image.NRGBA
}

// FromImage converts any raster to a PixelImage, dropping its alpha channel.
//
// Arguments:
//   - img: The source image.
//
// Returns:
//   - *PixelImage: A new RGB image with its own pixel buffer.
func FromImage(img image.Image) *PixelImage {
	nrgba := imaging.Clone(img)
	for i := 3; i < len(nrgba.Pix); i += 4 {
		nrgba.Pix[i] = 0xff
	}
	return &PixelImage{NRGBA: nrgba}
}

// Width returns the image width in pixels.
func (p *PixelImage) Width() int {
	return p.Bounds().Dx()
}

// Height returns the image height in pixels.
func (p *PixelImage) Height() int {
	return p.Bounds().Dy()
}

// Size returns the image dimensions as a point (X = width, Y = height).
func (p *PixelImage) Size() image.Point {
	return p.Bounds().Size()
}

// Clone returns a deep copy of the image.
func (p *PixelImage) Clone() *PixelImage {
	return &PixelImage{NRGBA: imaging.Clone(p.NRGBA)}
}
