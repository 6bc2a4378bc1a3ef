// Package inference - Inference engine interface and implementations.
package inference

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference/providers"
)

// DefaultInputSize is the square network input dimension.
const DefaultInputSize = 640

// Handle is a loaded network.
//
// Handles are read-only after load; implementations serialize access
// internally when the underlying engine cannot run concurrent forward passes.
type Handle interface {
	// Infer preprocesses img, runs a forward pass and returns the first batch
	// row of the first output.
	Infer(ctx context.Context, img *images.PixelImage) (*RawOutput, error)
	// LastInferenceLatencyMs reports the duration of the latest forward pass.
	LastInferenceLatencyMs() float64
	// Stats summarizes every inference run on the handle.
	Stats() Stats
	// Close releases the native resources.
	Close() error
}

// Engine loads model artifacts into handles.
type Engine interface {
	Type() EngineType
	Load(ctx context.Context, path string) (Handle, error)
	Close() error
}

// Options configures an engine.
type Options struct {
	// InputSize is the square network input dimension.
	InputSize int
	// Provider is the onnxruntime execution provider.
	Provider providers.Provider
	// SharedLibPath is the onnxruntime shared library.
	SharedLibPath string
	// Logger receives engine diagnostics.
	Logger logrus.FieldLogger
}

// DefaultOptions returns CPU options for a 640x640 network.
func DefaultOptions() Options {
	return Options{
		InputSize:     DefaultInputSize,
		Provider:      providers.CPUExecutionProvider,
		SharedLibPath: providers.GetSharedLibPath(),
		Logger:        logrus.StandardLogger(),
	}
}

// Recorder is embedded by handles to implement the latency accessors.
type Recorder struct {
	lt latencyTracker
}

// Record stores one forward-pass latency in milliseconds.
func (r *Recorder) Record(ms float64) {
	r.lt.record(ms)
}

// LastInferenceLatencyMs implements Handle.
func (r *Recorder) LastInferenceLatencyMs() float64 {
	return r.lt.last()
}

// Stats implements Handle.
func (r *Recorder) Stats() Stats {
	return r.lt.stats()
}
