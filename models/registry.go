// Package models - registry for models.
package models

import (
	"context"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-detect/common"
	"github.com/nvr-ai/go-detect/inference"
)

// Loader turns a model artifact into a handle. inference.Engine satisfies it.
type Loader interface {
	Load(ctx context.Context, path string) (inference.Handle, error)
}

// Registry resolves size tags to loaded handles, loading each artifact at
// most once. Concurrent requests for the same tag wait on a single load;
// failed loads are not cached, so the next request retries.
type Registry struct {
	dir    string
	loader Loader
	log    logrus.FieldLogger

	mu      sync.Mutex
	entries map[SizeTag]*entry
}

type entry struct {
	mu     sync.Mutex
	handle inference.Handle
}

// NewRegistry creates a registry over the artifacts in dir.
//
// Arguments:
//   - dir: The directory holding detect_<tag>.onnx artifacts.
//   - loader: The engine that loads artifacts.
//   - log: The logger; nil uses the standard logger.
//
// Returns:
//   - *Registry: The registry.
func NewRegistry(dir string, loader Loader, log logrus.FieldLogger) *Registry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	r := &Registry{
		dir:     dir,
		loader:  loader,
		log:     log,
		entries: make(map[SizeTag]*entry, len(SizeTags)),
	}
	for _, tag := range SizeTags {
		r.entries[tag] = &entry{}
	}
	return r
}

// Load returns the handle for tag, loading the artifact on first use.
//
// Arguments:
//   - ctx: Passed to the loader.
//   - tag: The model size tag.
//
// Returns:
//   - inference.Handle: The loaded handle.
//   - error: A common.KindModelLoad error for an unknown tag, a missing
//     artifact or a failed load.
func (r *Registry) Load(ctx context.Context, tag string) (inference.Handle, error) {
	const op = "models.Load"

	size, err := ParseSizeTag(tag)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	e := r.entries[size]
	r.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.handle != nil {
		return e.handle, nil
	}

	path := ArtifactPath(r.dir, size)
	if _, err := os.Stat(path); err != nil {
		return nil, common.E(common.KindModelLoad, op, "model artifact not found: %s", path)
	}

	r.log.WithFields(logrus.Fields{"model": size, "path": path}).Info("Loading model")

	handle, err := r.loader.Load(ctx, path)
	if err != nil {
		if common.KindOf(err) == common.KindUnknown {
			err = common.Wrap(common.KindModelLoad, op, err)
		}
		return nil, err
	}
	e.handle = handle

	r.log.WithField("model", size).Info("Model loaded")
	return handle, nil
}

// Dir returns the artifact directory.
func (r *Registry) Dir() string {
	return r.dir
}

// Loaded returns the number of cached handles.
func (r *Registry) Loaded() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, e := range r.entries {
		e.mu.Lock()
		if e.handle != nil {
			n++
		}
		e.mu.Unlock()
	}
	return n
}

// Close releases every cached handle.
//
// Returns:
//   - error: The first error returned by a handle.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for tag, e := range r.entries {
		e.mu.Lock()
		if e.handle != nil {
			if err := e.handle.Close(); err != nil && first == nil {
				first = err
			}
			e.handle = nil
			r.log.WithField("model", tag).Debug("Model released")
		}
		e.mu.Unlock()
	}
	return first
}
