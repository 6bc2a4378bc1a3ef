// Package inference - Inference engine interface and implementations
package inference

import (
	"strings"

	"github.com/pkg/errors"
)

// EngineType is the type of the engine
type EngineType string

const (
	// EngineOpenCV runs networks through the OpenCV DNN module (gocv).
	EngineOpenCV EngineType = "opencv"
	// EngineONNX is the ONNX engine that uses the onnxruntime library
	EngineONNX EngineType = "onnxruntime"
)

// Engines is a list of all supported engines
var Engines = []EngineType{EngineOpenCV, EngineONNX}

// ParseEngineType validates an engine name, case-insensitively.
func ParseEngineType(s string) (EngineType, error) {
	for _, e := range Engines {
		if strings.EqualFold(string(e), s) {
			return e, nil
		}
	}
	return "", errors.Errorf("unsupported engine %q", s)
}
