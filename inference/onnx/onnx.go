// Package onnx - Detection networks run through onnxruntime.
package onnx

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
	"github.com/nvr-ai/go-detect/inference/providers"
)

var (
	envOnce sync.Once
	envErr  error
)

// initEnvironment initializes the process-wide onnxruntime environment once.
func initEnvironment(libPath string) error {
	envOnce.Do(func() {
		if libPath != "" {
			if _, err := os.Stat(libPath); err != nil {
				envErr = errors.Wrapf(err, "onnxruntime library not found at %s", libPath)
				return
			}
			ort.SetSharedLibraryPath(libPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = errors.Wrap(err, "error initializing ORT environment")
		}
	})
	return envErr
}

// Engine loads ONNX artifacts into onnxruntime sessions.
type Engine struct {
	opts inference.Options
	log  logrus.FieldLogger
}

// NewEngine creates an onnxruntime engine.
//
// Arguments:
//   - opts: The engine options.
//
// Returns:
//   - *Engine: The engine.
func NewEngine(opts inference.Options) *Engine {
	if opts.InputSize <= 0 {
		opts.InputSize = inference.DefaultInputSize
	}
	if opts.Provider == "" {
		opts.Provider = providers.CPUExecutionProvider
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Engine{opts: opts, log: opts.Logger}
}

// Type implements inference.Engine.
func (e *Engine) Type() inference.EngineType {
	return inference.EngineONNX
}

// Load creates a session for the artifact at path. Input and output names
// are read from the model.
//
// Arguments:
//   - ctx: Checked before the load starts.
//   - path: The model artifact.
//
// Returns:
//   - inference.Handle: The session.
//   - error: A common.KindModelLoad error on failure.
func (e *Engine) Load(ctx context.Context, path string) (inference.Handle, error) {
	const op = "onnx.Load"
	if err := ctx.Err(); err != nil {
		return nil, common.Wrap(common.KindModelLoad, op, err)
	}
	if err := initEnvironment(e.opts.SharedLibPath); err != nil {
		return nil, common.Wrap(common.KindModelLoad, op, err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, common.Wrap(common.KindModelLoad, op, errors.Wrapf(err, "reading model info %s", path))
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, common.E(common.KindModelLoad, op, "model declares no inputs or outputs: %s", path)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, common.Wrap(common.KindModelLoad, op, errors.Wrap(err, "error creating ORT session options"))
	}
	defer options.Destroy()

	if err := e.configure(options); err != nil {
		return nil, common.Wrap(common.KindModelLoad, op, err)
	}

	session, err := ort.NewDynamicAdvancedSession(path,
		[]string{inputs[0].Name}, []string{outputs[0].Name}, options)
	if err != nil {
		return nil, common.Wrap(common.KindModelLoad, op, errors.Wrap(err, "error creating ORT session"))
	}

	e.log.WithFields(logrus.Fields{
		"model":    path,
		"provider": e.opts.Provider,
		"input":    inputs[0].Name,
		"output":   outputs[0].Name,
	}).Info("onnxruntime session created")

	return &Handle{
		session:   session,
		inputSize: e.opts.InputSize,
	}, nil
}

// configure applies threading, optimization and execution provider options.
func (e *Engine) configure(options *ort.SessionOptions) error {
	if err := options.SetIntraOpNumThreads(4); err != nil {
		return errors.Wrap(err, "setting intra-op threads")
	}
	if err := options.SetInterOpNumThreads(2); err != nil {
		return errors.Wrap(err, "setting inter-op threads")
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return errors.Wrap(err, "setting optimization level")
	}

	switch e.opts.Provider {
	case providers.CPUExecutionProvider:
		return nil
	case providers.CUDAExecutionProvider:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return errors.Wrap(err, "error creating CUDA options")
		}
		defer cuda.Destroy()
		if err := cuda.Update(map[string]string{
			"device_id":              "0",
			"arena_extend_strategy":  "kNextPowerOfTwo",
			"cudnn_conv_algo_search": "HEURISTIC",
		}); err != nil {
			return errors.Wrap(err, "error updating CUDA options")
		}
		return errors.Wrap(options.AppendExecutionProviderCUDA(cuda), "error enabling CUDA")
	case providers.CoreMLExecutionProvider:
		return errors.Wrap(options.AppendExecutionProviderCoreML(0), "error enabling CoreML")
	case providers.OpenVINOExecutionProvider:
		return errors.Wrap(options.AppendExecutionProviderOpenVINO(map[string]string{
			"device_type":    "CPU",
			"precision":      "FP32",
			"num_of_threads": "4",
		}), "error enabling OpenVINO")
	default:
		return errors.Errorf("unsupported execution provider %q", e.opts.Provider)
	}
}

// Close implements inference.Engine. The shared environment stays
// initialized for the life of the process.
func (e *Engine) Close() error {
	return nil
}

// Handle is an onnxruntime session. Sessions support concurrent Run calls,
// so each call allocates its own tensors.
type Handle struct {
	inference.Recorder

	session   *ort.DynamicAdvancedSession
	inputSize int

	closeOnce sync.Once
}

// Infer implements inference.Handle.
func (h *Handle) Infer(ctx context.Context, img *images.PixelImage) (*inference.RawOutput, error) {
	const op = "onnx.Infer"
	if err := ctx.Err(); err != nil {
		return nil, common.Wrap(common.KindInference, op, err)
	}

	size := h.inputSize
	data := make([]float32, 3*size*size)
	if err := inference.PrepareInput(img, size, data); err != nil {
		return nil, common.Wrap(common.KindInference, op, err)
	}

	input, err := ort.NewTensor(ort.NewShape(1, 3, int64(size), int64(size)), data)
	if err != nil {
		return nil, common.Wrap(common.KindInference, op, errors.Wrap(err, "error creating input tensor"))
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	start := time.Now()
	if err := h.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, common.Wrap(common.KindInference, op, errors.Wrap(err, "failed to run inference"))
	}
	h.Record(float64(time.Since(start).Microseconds()) / 1000)
	defer outputs[0].Destroy()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, common.E(common.KindMalformedOutput, op, "output is not a float32 tensor")
	}

	shape := out.GetShape()
	dims := make([]int, len(shape))
	for i, d := range shape {
		dims[i] = int(d)
	}
	values := make([]float32, len(out.GetData()))
	copy(values, out.GetData())

	return inference.FromTensor(values, dims)
}

// Close destroys the session.
func (h *Handle) Close() error {
	var err error
	h.closeOnce.Do(func() {
		err = h.session.Destroy()
	})
	return err
}
