package inference

import (
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-detect/common"
)

// RawOutput is the first batch row of a detection network's first output:
// a (rows, cols) float32 matrix where each row is
// [cx, cy, w, h, objectness, classScore0, classScore1, ...].
type RawOutput struct {
	dense *tensor.Dense
	rows  int
	cols  int
}

// NewRawOutput wraps row-major data as a (rows, cols) output.
//
// Arguments:
//   - data: Row-major values; len(data) must equal rows*cols.
//   - rows: The number of candidate rows.
//   - cols: The width of each row.
//
// Returns:
//   - *RawOutput: The output.
//   - error: A common.KindMalformedOutput error if the sizes disagree.
func NewRawOutput(data []float32, rows, cols int) (*RawOutput, error) {
	const op = "inference.NewRawOutput"
	if rows < 0 || cols <= 0 {
		return nil, common.E(common.KindMalformedOutput, op, "invalid output shape (%d, %d)", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, common.E(common.KindMalformedOutput, op,
			"output holds %d values, shape (%d, %d) needs %d", len(data), rows, cols, rows*cols)
	}
	out := &RawOutput{rows: rows, cols: cols}
	if rows > 0 {
		out.dense = tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(data))
	}
	return out, nil
}

// FromTensor selects the first batch row of an engine output tensor.
//
// Arguments:
//   - data: The tensor values in row-major order.
//   - shape: The tensor shape, (batch, rows, cols) or (rows, cols).
//
// Returns:
//   - *RawOutput: The first batch row.
//   - error: A common.KindMalformedOutput error for any other rank or an
//     empty batch.
func FromTensor(data []float32, shape []int) (*RawOutput, error) {
	const op = "inference.FromTensor"
	switch len(shape) {
	case 2:
		return NewRawOutput(data, shape[0], shape[1])
	case 3:
		if shape[0] < 1 {
			return nil, common.E(common.KindMalformedOutput, op, "output batch is empty: %v", shape)
		}
		n := shape[1] * shape[2]
		if len(data) < n {
			return nil, common.E(common.KindMalformedOutput, op,
				"output holds %d values, shape %v needs at least %d", len(data), shape, n)
		}
		return NewRawOutput(data[:n], shape[1], shape[2])
	default:
		return nil, common.E(common.KindMalformedOutput, op, "unexpected output rank %d: %v", len(shape), shape)
	}
}

// Rows returns the number of candidate rows.
func (o *RawOutput) Rows() int {
	return o.rows
}

// Cols returns the row width.
func (o *RawOutput) Cols() int {
	return o.cols
}

// Row returns row i. The slice aliases the output; do not modify it.
func (o *RawOutput) Row(i int) []float32 {
	data := o.dense.Data().([]float32)
	return data[i*o.cols : (i+1)*o.cols]
}

// Tensor returns the backing tensor, or nil for an empty output.
func (o *RawOutput) Tensor() *tensor.Dense {
	return o.dense
}
