// Package inference - Inference latency bookkeeping.
package inference

import "sync"

// latencyTracker records inference timings for one handle.
type latencyTracker struct {
	mu             sync.RWMutex
	inferenceCount int64
	totalTime      float64
	lastTime       float64
}

// record stores one inference latency in milliseconds.
func (lt *latencyTracker) record(ms float64) {
	lt.mu.Lock()
	defer lt.mu.Unlock()

	lt.inferenceCount++
	lt.totalTime += ms
	lt.lastTime = ms
}

// last returns the most recent latency in milliseconds.
func (lt *latencyTracker) last() float64 {
	lt.mu.RLock()
	defer lt.mu.RUnlock()
	return lt.lastTime
}

// Stats summarizes the inferences run on a handle.
type Stats struct {
	InferenceCount int64   `json:"inference_count"`
	TotalTimeMs    float64 `json:"total_time_ms"`
	AverageTimeMs  float64 `json:"average_time_ms"`
	LastTimeMs     float64 `json:"last_time_ms"`
}

// stats returns a snapshot of the counters.
func (lt *latencyTracker) stats() Stats {
	lt.mu.RLock()
	defer lt.mu.RUnlock()

	s := Stats{
		InferenceCount: lt.inferenceCount,
		TotalTimeMs:    lt.totalTime,
		LastTimeMs:     lt.lastTime,
	}
	if lt.inferenceCount > 0 {
		s.AverageTimeMs = lt.totalTime / float64(lt.inferenceCount)
	}
	return s
}
