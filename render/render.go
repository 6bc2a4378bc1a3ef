// Package render - Draws detections onto images with OpenCV.
package render

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/models/postprocess"
)

var (
	boxColor  = color.RGBA{R: 0, G: 0, B: 255, A: 0}
	tagColor  = color.RGBA{R: 0, G: 0, B: 0, A: 0}
	textColor = color.RGBA{R: 255, G: 255, B: 0, A: 0}
)

const (
	boxThickness  = 3
	fontFace      = gocv.FontHersheySimplex
	fontScale     = 0.7
	fontThickness = 1
	textOffset    = 5
)

// Renderer draws boxes and label tags. The zero value is ready to use.
type Renderer struct{}

// Render implements the pipeline renderer with Render.
func (Renderer) Render(img *images.PixelImage, detections []postprocess.Detection) (*images.PixelImage, error) {
	return Render(img, detections)
}

// Label returns the tag text for a detection, e.g. "person 87.65%".
func Label(d postprocess.Detection) string {
	return fmt.Sprintf("%s %.2f%%", d.Label, d.Confidence*100)
}

// Render returns a copy of img with every detection drawn on it: a blue
// outline at the box and a filled black tag above the top-left corner
// carrying yellow label text. Drawing is not clamped to the image, so tags
// near the top edge may be cut off.
//
// Arguments:
//   - img: The source image. It is not modified.
//   - detections: The detections to draw.
//
// Returns:
//   - *images.PixelImage: The annotated image.
//   - error: A common.KindInference error if OpenCV fails to draw.
func Render(img *images.PixelImage, detections []postprocess.Detection) (*images.PixelImage, error) {
	const op = "render.Render"

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, common.Wrap(common.KindInference, op, err)
	}
	defer mat.Close()

	for _, d := range detections {
		if err := drawDetection(&mat, d); err != nil {
			return nil, common.Wrap(common.KindInference, op, err)
		}
	}

	out, err := mat.ToImage()
	if err != nil {
		return nil, common.Wrap(common.KindInference, op, err)
	}
	return images.FromImage(out), nil
}

func drawDetection(mat *gocv.Mat, d postprocess.Detection) error {
	left, top := d.Box.Left, d.Box.Top
	if err := gocv.Rectangle(mat, d.Box.ToRect(), boxColor, boxThickness); err != nil {
		return err
	}

	text := Label(d)
	size, baseline := gocv.GetTextSizeWithBaseline(text, fontFace, fontScale, fontThickness)
	tag := image.Rect(left, top, left+size.X, top-size.Y-baseline)
	if err := gocv.Rectangle(mat, tag, tagColor, -1); err != nil {
		return err
	}

	return gocv.PutTextWithParams(mat, text, image.Pt(left, top-textOffset),
		fontFace, fontScale, textColor, fontThickness, gocv.LineAA, false)
}
