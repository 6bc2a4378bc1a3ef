package postprocess

import (
	"image"

	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/models"
)

const (
	// DefaultScoreThreshold is the class score a row's best class must exceed.
	DefaultScoreThreshold = 0.5
	// DefaultIoUThreshold is the NMS overlap threshold.
	DefaultIoUThreshold = 0.45

	// geometry holds cx, cy, w, h and objectness ahead of the class scores.
	geometry = 5
)

// Options configures Parse.
type Options struct {
	// InputWidth and InputHeight are the network input dimensions the box
	// coordinates are expressed in.
	InputWidth, InputHeight int
	// ScoreThreshold is the class score filter.
	ScoreThreshold float32
	// IoUThreshold is the NMS overlap threshold.
	IoUThreshold float32
	// Labels maps class indices to names.
	Labels *models.LabelTable
}

// DefaultOptions returns options for a 640x640 COCO network.
func DefaultOptions() Options {
	return Options{
		InputWidth:     inference.DefaultInputSize,
		InputHeight:    inference.DefaultInputSize,
		ScoreThreshold: DefaultScoreThreshold,
		IoUThreshold:   DefaultIoUThreshold,
		Labels:         models.DefaultLabelTable(),
	}
}

// Parse turns raw network rows into labelled detections in original image
// pixels.
//
// A row survives when its objectness is at least conf and its best class
// score exceeds opts.ScoreThreshold. Boxes are scaled by dims.X/InputWidth
// and dims.Y/InputHeight independently, then reduced with NMS using conf as
// the score floor, so rows whose objectness equals conf do not survive.
//
// Arguments:
//   - raw: The network output.
//   - dims: The original image width and height.
//   - conf: The objectness threshold.
//   - opts: The parse options.
//
// Returns:
//   - []Detection: The detections in NMS survivor order, never nil.
//   - error: A common.KindMalformedOutput error if the row width does not
//     match the label table.
func Parse(raw *inference.RawOutput, dims image.Point, conf float32, opts Options) ([]Detection, error) {
	const op = "postprocess.Parse"

	if raw == nil || raw.Rows() == 0 {
		return []Detection{}, nil
	}
	if opts.Labels == nil {
		opts.Labels = models.DefaultLabelTable()
	}
	if opts.InputWidth <= 0 || opts.InputHeight <= 0 {
		return nil, common.E(common.KindMalformedOutput, op,
			"invalid network input size %dx%d", opts.InputWidth, opts.InputHeight)
	}
	if raw.Cols() <= geometry {
		return nil, common.E(common.KindMalformedOutput, op,
			"output rows have %d values, need at least %d", raw.Cols(), geometry+1)
	}
	if want := geometry + opts.Labels.Len(); raw.Cols() != want {
		return nil, common.E(common.KindMalformedOutput, op,
			"output rows have %d values, expected %d for %d classes", raw.Cols(), want, opts.Labels.Len())
	}

	xf := float32(dims.X) / float32(opts.InputWidth)
	yf := float32(dims.Y) / float32(opts.InputHeight)

	candidates := make([]Candidate, 0)
	for i := 0; i < raw.Rows(); i++ {
		row := raw.Row(i)

		objectness := row[4]
		if objectness < conf {
			continue
		}

		scores := row[geometry:]
		class, best := argmax(scores)
		if best <= opts.ScoreThreshold {
			continue
		}

		cx, cy, w, h := row[0], row[1], row[2], row[3]
		candidates = append(candidates, Candidate{
			CenterX:     cx,
			CenterY:     cy,
			Width:       w,
			Height:      h,
			Objectness:  objectness,
			ClassScores: scores,
			Class:       class,
			Box: common.BoundingBox{
				Left:   int((cx - w/2) * xf),
				Top:    int((cy - h/2) * yf),
				Width:  int(w * xf),
				Height: int(h * yf),
			},
		})
	}

	survivors := NMS(candidates, conf, opts.IoUThreshold)

	detections := make([]Detection, 0, len(survivors))
	for _, c := range survivors {
		label, _ := opts.Labels.Name(c.Class)
		detections = append(detections, Detection{
			Box:        c.Box,
			Confidence: Round(c.Objectness),
			Label:      label,
			Class:      c.Class,
		})
	}
	return detections, nil
}

// Round rounds a confidence to 4 decimal places.
func Round(v float32) float32 {
	return math32.Round(v*1e4) / 1e4
}

// argmax returns the index and value of the largest score. Ties keep the
// lowest index.
func argmax(scores []float32) (int, float32) {
	idx, best := 0, scores[0]
	for i, s := range scores[1:] {
		if s > best {
			idx, best = i+1, s
		}
	}
	return idx, best
}
