package common

import (
	"encoding/json"
	"fmt"
	"image"

	"github.com/pkg/errors"
)

// BoundingBox is an axis-aligned box in original-image pixel coordinates.
//
// It serializes as the array [left, top, width, height].
type BoundingBox struct {
	Left, Top, Width, Height int
}

// String formats the bounding box for display.
//
// Returns:
//   - string: e.g. "[10 20 30 40]".
func (b BoundingBox) String() string {
	return fmt.Sprintf("[%d %d %d %d]", b.Left, b.Top, b.Width, b.Height)
}

// ToRect converts the box to a canonical image.Rectangle.
//
// Returns:
//   - image.Rectangle: The box from (left, top) to (left+width, top+height).
func (b BoundingBox) ToRect() image.Rectangle {
	return image.Rect(b.Left, b.Top, b.Left+b.Width, b.Top+b.Height).Canon()
}

// Area returns width*height, or 0 for a degenerate box.
func (b BoundingBox) Area() int {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// IoU calculates the Intersection over Union between two boxes.
//
// The intersection is found from the maximum of the top-left corners and the
// minimum of the bottom-right corners; non-overlapping boxes score 0.
//
// Arguments:
//   - other: The box to compare against.
//
// Returns:
//   - float32: A value in [0, 1].
//
// Example:
//
//	a := BoundingBox{Left: 0, Top: 0, Width: 10, Height: 10}
//	b := BoundingBox{Left: 5, Top: 5, Width: 10, Height: 10}
//	a.IoU(b) // 25 / 175 = 0.142857
func (b BoundingBox) IoU(other BoundingBox) float32 {
	ix1 := max(b.Left, other.Left)
	iy1 := max(b.Top, other.Top)
	ix2 := min(b.Left+b.Width, other.Left+other.Width)
	iy2 := min(b.Top+b.Height, other.Top+other.Height)

	interW := ix2 - ix1
	interH := iy2 - iy1
	if interW <= 0 || interH <= 0 {
		return 0.0
	}
	interArea := interW * interH

	unionArea := b.Area() + other.Area() - interArea
	if unionArea <= 0 {
		return 0.0
	}
	return float32(interArea) / float32(unionArea)
}

// MarshalJSON encodes the box as [left, top, width, height].
func (b BoundingBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]int{b.Left, b.Top, b.Width, b.Height})
}

// UnmarshalJSON decodes a [left, top, width, height] array.
func (b *BoundingBox) UnmarshalJSON(data []byte) error {
	var v []int
	if err := json.Unmarshal(data, &v); err != nil {
		return errors.Wrap(err, "bounding box")
	}
	if len(v) != 4 {
		return errors.Errorf("bounding box needs 4 values, got %d", len(v))
	}
	b.Left, b.Top, b.Width, b.Height = v[0], v[1], v[2], v[3]
	return nil
}
