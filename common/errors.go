// Package common - Error kinds and shared detection geometry.
package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	// KindUnknown is an unclassified failure.
	KindUnknown Kind = iota
	// KindRequest is a request body that could not be read or parsed.
	KindRequest
	// KindDecode is a missing or undecodable image payload.
	KindDecode
	// KindModelLoad is an unknown size tag or an unreadable model artifact.
	KindModelLoad
	// KindInference is a failure inside the inference engine.
	KindInference
	// KindMalformedOutput is a network output with an unexpected shape.
	KindMalformedOutput
)

var kindNames = map[Kind]string{
	KindUnknown:         "UnknownError",
	KindRequest:         "RequestError",
	KindDecode:          "DecodeError",
	KindModelLoad:       "ModelLoadError",
	KindInference:       "InferenceError",
	KindMalformedOutput: "MalformedOutputError",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinels usable with errors.Is against any *Error of the same kind.
var (
	ErrRequest         = &Error{Kind: KindRequest}
	ErrDecode          = &Error{Kind: KindDecode}
	ErrModelLoad       = &Error{Kind: KindModelLoad}
	ErrInference       = &Error{Kind: KindInference}
	ErrMalformedOutput = &Error{Kind: KindMalformedOutput}
)

// Error is a classified pipeline error.
type Error struct {
	// Kind is the failure class.
	Kind Kind
	// Op is the operation that failed, e.g. "images.Decode".
	Op string
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
//
// Returns:
//   - string: "<Kind>: <op>: <cause>", omitting empty parts.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// E builds a classified error.
//
// Arguments:
//   - kind: The failure class.
//   - op: The failing operation.
//   - format: A message describing the cause.
//   - args: The format arguments.
//
// Returns:
//   - error: The classified error.
func E(kind Kind, op string, format string, args ...interface{}) error {
	return &Error{Kind: kind, Op: op, Err: errors.Errorf(format, args...)}
}

// Wrap classifies an existing error. A nil err yields nil.
//
// Arguments:
//   - kind: The failure class.
//   - op: The failing operation.
//   - err: The cause.
//
// Returns:
//   - error: The classified error.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
