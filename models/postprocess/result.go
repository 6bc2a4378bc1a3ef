// Package postprocess - Postprocessing utilities for models.
package postprocess

import "github.com/nvr-ai/go-detect/common"

// Candidate is one network output row that passed both score filters.
type Candidate struct {
	// Center and size in network input coordinates.
	CenterX, CenterY, Width, Height float32
	// The objectness score of the row.
	Objectness float32
	// The class scores of the row.
	ClassScores []float32

	// The bounding box scaled to original image pixels.
	Box common.BoundingBox
	// The predicted class index (argmax of ClassScores).
	Class int
}

// Score is the value NMS ranks candidates by.
func (c Candidate) Score() float32 {
	return c.Objectness
}

// Detection is a single detection result.
type Detection struct {
	// The bounding box in original image pixels.
	Box common.BoundingBox
	// The objectness score rounded to 4 decimal places.
	Confidence float32
	// The class name.
	Label string
	// The predicted class index.
	Class int
}
