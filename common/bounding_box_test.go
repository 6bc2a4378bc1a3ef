package common

import (
	"encoding/json"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBoxIoU(t *testing.T) {
	tests := []struct {
		name     string
		a, b     BoundingBox
		expected float32
	}{
		{
			name:     "identical boxes",
			a:        BoundingBox{Left: 0, Top: 0, Width: 10, Height: 10},
			b:        BoundingBox{Left: 0, Top: 0, Width: 10, Height: 10},
			expected: 1.0,
		},
		{
			name:     "partial overlap",
			a:        BoundingBox{Left: 0, Top: 0, Width: 10, Height: 10},
			b:        BoundingBox{Left: 5, Top: 5, Width: 10, Height: 10},
			expected: 25.0 / 175.0,
		},
		{
			name:     "touching edges do not overlap",
			a:        BoundingBox{Left: 0, Top: 0, Width: 10, Height: 10},
			b:        BoundingBox{Left: 10, Top: 0, Width: 10, Height: 10},
			expected: 0,
		},
		{
			name:     "degenerate box",
			a:        BoundingBox{Left: 0, Top: 0, Width: 0, Height: 0},
			b:        BoundingBox{Left: 0, Top: 0, Width: 0, Height: 0},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.a.IoU(tt.b), 1e-6)
			assert.InDelta(t, tt.expected, tt.b.IoU(tt.a), 1e-6, "IoU should be symmetric")
		})
	}
}

func TestBoundingBoxJSON(t *testing.T) {
	box := BoundingBox{Left: -3, Top: 4, Width: 50, Height: 60}

	data, err := json.Marshal(box)
	require.NoError(t, err)
	assert.JSONEq(t, `[-3,4,50,60]`, string(data))

	var decoded BoundingBox
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, box, decoded)

	assert.Error(t, json.Unmarshal([]byte(`[1,2,3]`), &decoded))
	assert.Error(t, json.Unmarshal([]byte(`{"left":1}`), &decoded))
}

func TestBoundingBoxToRect(t *testing.T) {
	box := BoundingBox{Left: 10, Top: 20, Width: 30, Height: 40}
	assert.Equal(t, image.Rect(10, 20, 40, 60), box.ToRect())
}
