package inference

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrepareInput(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 128, A: 255})
		}
	}

	const size = 4
	dst := make([]float32, 3*size*size)
	require.NoError(t, PrepareInput(img, size, dst))

	plane := size * size
	for i := 0; i < plane; i++ {
		assert.InDelta(t, 1.0, dst[i], 0.01, "red[%d]", i)
		assert.InDelta(t, 0.0, dst[plane+i], 0.01, "green[%d]", i)
		assert.InDelta(t, 128.0/255.0, dst[2*plane+i], 0.01, "blue[%d]", i)
	}
}

func TestPrepareInputShortBuffer(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	err := PrepareInput(img, 4, make([]float32, 10))
	assert.Error(t, err)
}
