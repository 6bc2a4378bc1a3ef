package inference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-detect/common"
)

func TestNewRawOutput(t *testing.T) {
	out, err := NewRawOutput([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows())
	assert.Equal(t, 3, out.Cols())
	assert.Equal(t, []float32{1, 2, 3}, out.Row(0))
	assert.Equal(t, []float32{4, 5, 6}, out.Row(1))
	assert.Equal(t, []int{2, 3}, []int(out.Tensor().Shape()))
}

func TestNewRawOutputEmpty(t *testing.T) {
	out, err := NewRawOutput(nil, 0, 85)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Rows())
	assert.Nil(t, out.Tensor())
}

func TestNewRawOutputErrors(t *testing.T) {
	tests := []struct {
		name string
		data []float32
		rows int
		cols int
	}{
		{"size mismatch", []float32{1, 2, 3}, 2, 2},
		{"zero cols", nil, 0, 0},
		{"negative rows", nil, -1, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRawOutput(tt.data, tt.rows, tt.cols)
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrMalformedOutput)
		})
	}
}

func TestFromTensor(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}

	out, err := FromTensor(data, []int{2, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Rows())
	assert.Equal(t, []float32{4, 5, 6}, out.Row(1))

	out, err = FromTensor(data, []int{4, 3})
	require.NoError(t, err)
	assert.Equal(t, 4, out.Rows())
	assert.Equal(t, []float32{10, 11, 12}, out.Row(3))
}

func TestFromTensorErrors(t *testing.T) {
	tests := []struct {
		name  string
		data  []float32
		shape []int
	}{
		{"rank one", []float32{1, 2}, []int{2}},
		{"rank four", []float32{1}, []int{1, 1, 1, 1}},
		{"empty batch", nil, []int{0, 2, 3}},
		{"short data", []float32{1, 2}, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromTensor(tt.data, tt.shape)
			assert.ErrorIs(t, err, common.ErrMalformedOutput)
		})
	}
}
