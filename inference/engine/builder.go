// Package engine - Builds inference engines from configuration.
package engine

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/onnx"
	"github.com/nvr-ai/go-detect/inference/opencv"
	"github.com/nvr-ai/go-detect/inference/providers"
)

// Builder assembles an inference.Engine with a fluent API. The first error
// sticks and is returned by Build.
type Builder struct {
	engineType inference.EngineType
	opts       inference.Options
	err        error
}

// NewEngineBuilder creates a builder for the default OpenCV engine.
//
// Returns:
//   - *Builder: The engine builder.
func NewEngineBuilder() *Builder {
	return &Builder{
		engineType: inference.EngineOpenCV,
		opts:       inference.DefaultOptions(),
	}
}

// WithType selects the engine by name.
//
// Arguments:
//   - name: "opencv" or "onnxruntime".
//
// Returns:
//   - *Builder: The engine builder.
func (b *Builder) WithType(name string) *Builder {
	if b.HasError() {
		return b
	}
	t, err := inference.ParseEngineType(name)
	if err != nil {
		b.err = err
		return b
	}
	b.engineType = t
	return b
}

// WithProvider selects the onnxruntime execution provider by name.
//
// Arguments:
//   - name: The provider name.
//
// Returns:
//   - *Builder: The engine builder.
func (b *Builder) WithProvider(name string) *Builder {
	if b.HasError() {
		return b
	}
	p, err := providers.Parse(name)
	if err != nil {
		b.err = err
		return b
	}
	b.opts.Provider = p
	return b
}

// WithInputSize sets the square network input dimension.
func (b *Builder) WithInputSize(size int) *Builder {
	if b.HasError() {
		return b
	}
	if size <= 0 || size%32 != 0 {
		b.err = errors.Errorf("input size must be a positive multiple of 32, got %d", size)
		return b
	}
	b.opts.InputSize = size
	return b
}

// WithSharedLibPath sets the onnxruntime shared library. An empty path keeps
// the platform default.
func (b *Builder) WithSharedLibPath(path string) *Builder {
	if path != "" {
		b.opts.SharedLibPath = path
	}
	return b
}

// WithLogger sets the engine logger.
func (b *Builder) WithLogger(log logrus.FieldLogger) *Builder {
	if log != nil {
		b.opts.Logger = log
	}
	return b
}

// HasError checks if the engine builder has errors.
//
// Returns:
//   - bool: True if there are errors, false otherwise.
func (b *Builder) HasError() bool {
	return b.err != nil
}

// MustBuild builds the engine and panics if there is an error.
func (b *Builder) MustBuild() inference.Engine {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}

// Build builds the engine.
//
// Returns:
//   - inference.Engine: The engine.
//   - error: The first configuration error, if any.
func (b *Builder) Build() (inference.Engine, error) {
	if b.HasError() {
		return nil, b.err
	}
	switch b.engineType {
	case inference.EngineOpenCV:
		return opencv.NewEngine(b.opts), nil
	case inference.EngineONNX:
		return onnx.NewEngine(b.opts), nil
	default:
		return nil, errors.Errorf("engine not configured: %q", b.engineType)
	}
}
