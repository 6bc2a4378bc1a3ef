// Package providers - onnxruntime execution provider selection.
package providers

import (
	"strings"

	"github.com/pkg/errors"
)

// Provider represents different ONNX Runtime execution providers
type Provider string

const (
	// CPUExecutionProvider uses CPU for inference
	CPUExecutionProvider Provider = "cpu"

	// CUDAExecutionProvider uses NVIDIA CUDA for GPU acceleration
	CUDAExecutionProvider Provider = "cuda"

	// CoreMLExecutionProvider uses Apple CoreML for macOS/iOS acceleration
	CoreMLExecutionProvider Provider = "coreml"

	// OpenVINOExecutionProvider uses Intel OpenVINO for inference optimization
	OpenVINOExecutionProvider Provider = "openvino"
)

// All lists the supported providers.
var All = []Provider{
	CPUExecutionProvider,
	CUDAExecutionProvider,
	CoreMLExecutionProvider,
	OpenVINOExecutionProvider,
}

// Parse validates a provider name, case-insensitively. An empty name selects
// the CPU provider.
//
// Arguments:
//   - s: The provider name.
//
// Returns:
//   - Provider: The provider.
//   - error: An error if the name is unknown.
func Parse(s string) (Provider, error) {
	if s == "" {
		return CPUExecutionProvider, nil
	}
	for _, p := range All {
		if strings.EqualFold(string(p), s) {
			return p, nil
		}
	}
	return "", errors.Errorf("unsupported execution provider %q", s)
}
