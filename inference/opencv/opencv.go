// Package opencv - Detection networks run through the OpenCV DNN module.
package opencv

import (
	"context"
	"image"
	"sync"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/images"
	"github.com/nvr-ai/go-detect/inference"
)

// Engine loads ONNX artifacts with gocv.ReadNet.
type Engine struct {
	inputSize int
	log       logrus.FieldLogger
}

// NewEngine creates an OpenCV DNN engine.
//
// Arguments:
//   - opts: The engine options; only InputSize and Logger are used.
//
// Returns:
//   - *Engine: The engine.
func NewEngine(opts inference.Options) *Engine {
	if opts.InputSize <= 0 {
		opts.InputSize = inference.DefaultInputSize
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Engine{inputSize: opts.InputSize, log: opts.Logger}
}

// Type implements inference.Engine.
func (e *Engine) Type() inference.EngineType {
	return inference.EngineOpenCV
}

// Load reads the network at path and resolves its output layers.
//
// Arguments:
//   - ctx: Checked before the load starts.
//   - path: The model artifact.
//
// Returns:
//   - inference.Handle: The loaded network.
//   - error: A common.KindModelLoad error if the artifact cannot be read.
func (e *Engine) Load(ctx context.Context, path string) (inference.Handle, error) {
	const op = "opencv.Load"
	if err := ctx.Err(); err != nil {
		return nil, common.Wrap(common.KindModelLoad, op, err)
	}

	net := gocv.ReadNet(path, "")
	if net.Empty() {
		return nil, common.E(common.KindModelLoad, op, "failed to load model: %s", path)
	}

	net.SetPreferableBackend(gocv.NetBackendOpenCV)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	var outputNames []string
	for _, id := range net.GetUnconnectedOutLayers() {
		layer := net.GetLayer(id)
		outputNames = append(outputNames, layer.GetName())
		layer.Close()
	}
	if len(outputNames) == 0 {
		net.Close()
		return nil, common.E(common.KindModelLoad, op, "model has no output layers: %s", path)
	}

	e.log.WithFields(logrus.Fields{
		"model":      path,
		"input_size": e.inputSize,
		"outputs":    outputNames,
	}).Info("OpenCV network loaded")

	return &Handle{
		net:         net,
		inputSize:   e.inputSize,
		outputNames: outputNames,
	}, nil
}

// Close implements inference.Engine. The engine holds no native state.
func (e *Engine) Close() error {
	return nil
}

// Handle is a loaded OpenCV network.
//
// SetInput followed by Forward mutates the network, so forward passes are
// serialized by mu.
type Handle struct {
	inference.Recorder

	mu          sync.Mutex
	net         gocv.Net
	inputSize   int
	outputNames []string
	closed      bool
}

// Infer implements inference.Handle.
//
// The image is converted to a BGR Mat and swapped back to RGB by
// BlobFromImage, resized to the square input with scale 1/255 and no mean.
func (h *Handle) Infer(ctx context.Context, img *images.PixelImage) (*inference.RawOutput, error) {
	const op = "opencv.Infer"
	if err := ctx.Err(); err != nil {
		return nil, common.Wrap(common.KindInference, op, err)
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, common.Wrap(common.KindInference, op, err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(h.inputSize, h.inputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, common.E(common.KindInference, op, "network is closed")
	}

	h.net.SetInput(blob, "")
	outputs := h.net.ForwardLayers(h.outputNames)
	defer func() {
		for i := range outputs {
			outputs[i].Close()
		}
	}()

	h.Record(h.net.GetPerfProfile() * 1000 / gocv.GetTickFrequency())

	if len(outputs) == 0 || outputs[0].Empty() {
		return nil, common.E(common.KindInference, op, "forward pass produced no output")
	}

	data, err := outputs[0].DataPtrFloat32()
	if err != nil {
		return nil, common.Wrap(common.KindMalformedOutput, op, err)
	}
	values := make([]float32, len(data))
	copy(values, data)

	return inference.FromTensor(values, outputs[0].Size())
}

// Close releases the network.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.closed {
		h.net.Close()
		h.closed = true
	}
	return nil
}
