// Package test - Deterministic fixtures and fake engines for pipeline tests.
package test

import (
	"context"
	"image"
	"image/color"
	"os"
	"sync"
	"sync/atomic"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/models"
	"github.com/nvr-ai/go-detect/models/postprocess"
)

// MockImageGenerator creates deterministic test images.
//
// @example
// gen := NewMockImageGenerator(640, 480)
// payload := gen.Base64()
type MockImageGenerator struct {
	width  int
	height int
}

// NewMockImageGenerator creates a new image generator with specified dimensions.
//
// Arguments:
// - width: Image width in pixels.
// - height: Image height in pixels.
//
// Returns:
// - A configured MockImageGenerator instance.
func NewMockImageGenerator(width, height int) *MockImageGenerator {
	return &MockImageGenerator{width: width, height: height}
}

// Image creates a gradient image with a bright square in the middle.
//
// Arguments:
// - None.
//
// Returns:
// - A PixelImage of the configured size.
func (g *MockImageGenerator) Image() *images.PixelImage {
	img := image.NewNRGBA(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(g.width, 1)),
				G: uint8(y * 255 / max(g.height, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	for y := g.height / 4; y < g.height*3/4; y++ {
		for x := g.width / 4; x < g.width*3/4; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 250, G: 250, B: 250, A: 255})
		}
	}
	return images.FromImage(img)
}

// Base64 returns the image as a base64 PNG payload.
//
// @example
// req := detector.Request{Image: &payload}
func (g *MockImageGenerator) Base64() string {
	s, err := images.Encode(g.Image())
	if err != nil {
		panic(err)
	}
	return s
}

// Row is one raw network output row in 640x640 input coordinates.
type Row struct {
	CX, CY, W, H float32
	Objectness   float32
	Class        int
	ClassScore   float32
}

// DefaultRows are two well separated detections, a person and a car.
var DefaultRows = []Row{
	{CX: 200, CY: 240, W: 120, H: 300, Objectness: 0.92, Class: 0, ClassScore: 0.88},
	{CX: 480, CY: 400, W: 200, H: 120, Objectness: 0.81, Class: 2, ClassScore: 0.77},
	{CX: 100, CY: 100, W: 20, H: 20, Objectness: 0.2, Class: 5, ClassScore: 0.9},
}

// NewOutput builds a raw output with one row per entry and the given number
// of classes.
func NewOutput(classes int, rows ...Row) *inference.RawOutput {
	cols := 5 + classes
	data := make([]float32, len(rows)*cols)
	for i, r := range rows {
		base := i * cols
		data[base+0] = r.CX
		data[base+1] = r.CY
		data[base+2] = r.W
		data[base+3] = r.H
		data[base+4] = r.Objectness
		data[base+5+r.Class] = r.ClassScore
	}
	out, err := inference.NewRawOutput(data, len(rows), cols)
	if err != nil {
		panic(err)
	}
	return out
}

// FakeHandle returns a fixed output for every inference.
type FakeHandle struct {
	inference.Recorder

	Output    *inference.RawOutput
	Err       error
	LatencyMs float64

	Calls  atomic.Int32
	Closed atomic.Bool
}

// Infer implements inference.Handle.
func (h *FakeHandle) Infer(ctx context.Context, _ *images.PixelImage) (*inference.RawOutput, error) {
	h.Calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if h.Err != nil {
		return nil, h.Err
	}
	h.Record(h.LatencyMs)
	return h.Output, nil
}

// Close implements inference.Handle.
func (h *FakeHandle) Close() error {
	h.Closed.Store(true)
	return nil
}

// FakeLoader hands out one FakeHandle per artifact path.
type FakeLoader struct {
	// NewHandle builds the handle for a path. Nil uses the default COCO rows.
	NewHandle func(path string) *FakeHandle
	Err       error

	mu      sync.Mutex
	handles map[string]*FakeHandle
}

// Load implements models.Loader.
func (l *FakeLoader) Load(_ context.Context, path string) (inference.Handle, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handles == nil {
		l.handles = make(map[string]*FakeHandle)
	}
	h := l.NewHandle
	if h == nil {
		h = func(string) *FakeHandle {
			return &FakeHandle{Output: NewOutput(80, DefaultRows...), LatencyMs: 12.5}
		}
	}
	handle := h(path)
	l.handles[path] = handle
	return handle, nil
}

// Handle returns the handle created for path, if any.
func (l *FakeLoader) Handle(path string) *FakeHandle {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.handles[path]
}

// NewRegistry creates a model directory holding artifacts for tags and a
// registry over it backed by loader.
//
// Arguments:
// - dir: An empty directory, usually t.TempDir().
// - loader: The fake loader.
// - tags: The size tags to create artifacts for.
//
// Returns:
// - The registry.
func NewRegistry(dir string, loader *FakeLoader, tags ...models.SizeTag) *models.Registry {
	for _, tag := range tags {
		if err := os.WriteFile(models.ArtifactPath(dir, tag), []byte("onnx"), 0o644); err != nil {
			panic(err)
		}
	}
	return models.NewRegistry(dir, loader, nil)
}

// CopyRenderer returns a copy of the input without drawing.
type CopyRenderer struct {
	Calls atomic.Int32
}

// Render implements the pipeline renderer.
func (r *CopyRenderer) Render(img *images.PixelImage, _ []postprocess.Detection) (*images.PixelImage, error) {
	r.Calls.Add(1)
	return img.Clone(), nil
}
