// Package results - Response bodies and the diagnostic detection table.
package results

import (
	"fmt"
	"io"
	"strings"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/models/postprocess"
)

// Response is the success body. The three sequences are index-aligned and
// never null.
type Response struct {
	BBoxes []common.BoundingBox `json:"bboxes"`
	Confs  []float32            `json:"confs"`
	Labels []string             `json:"labels"`
	// Image is the base64 PNG of the annotated image, present only when
	// rendering was requested.
	Image *string `json:"image,omitempty"`
}

// Len returns the number of detections in the response.
func (r Response) Len() int {
	return len(r.BBoxes)
}

// ErrorBody is the failure body.
type ErrorBody struct {
	Error string `json:"error"`
}

// NewErrorBody describes err for the caller.
func NewErrorBody(err error) ErrorBody {
	return ErrorBody{Error: err.Error()}
}

// Format builds the response body from the detections.
//
// Arguments:
//   - detections: The detections in NMS survivor order.
//   - encodedImage: The rendered image, or nil.
//
// Returns:
//   - Response: The response body.
func Format(detections []postprocess.Detection, encodedImage *string) Response {
	resp := Response{
		BBoxes: make([]common.BoundingBox, 0, len(detections)),
		Confs:  make([]float32, 0, len(detections)),
		Labels: make([]string, 0, len(detections)),
		Image:  encodedImage,
	}
	for _, d := range detections {
		resp.BBoxes = append(resp.BBoxes, d.Box)
		resp.Confs = append(resp.Confs, d.Confidence)
		resp.Labels = append(resp.Labels, d.Label)
	}
	return resp
}

const (
	tableRule   = 75
	tableHeader = "%-15s %-15s %-10s %-10s %-10s %-10s\n"
	tableRow    = "%-15s %-15v %-10d %-10d %-10d %-10d\n"
)

// PrintTable writes the detections as a fixed-width table.
//
// Arguments:
//   - w: The destination, usually os.Stdout.
//   - detections: The detections to print.
//
// Returns:
//   - error: The first write error.
func PrintTable(w io.Writer, detections []postprocess.Detection) error {
	rule := strings.Repeat("-", tableRule) + "\n"

	if _, err := io.WriteString(w, rule); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, tableHeader, "Label", "Confidence", "Left", "Top", "Width", "Height"); err != nil {
		return err
	}
	if _, err := io.WriteString(w, rule); err != nil {
		return err
	}
	for _, d := range detections {
		if _, err := fmt.Fprintf(w, tableRow, d.Label, d.Confidence,
			d.Box.Left, d.Box.Top, d.Box.Width, d.Box.Height); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, rule)
	return err
}
