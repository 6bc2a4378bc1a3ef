// Package postprocess - provides Non-Maximum Suppression for detection results.
package postprocess

import "sort"

// NMS performs standard greedy Non-Maximum Suppression.
//
// Candidates scoring at or below scoreFloor are dropped. The rest are stable-sorted
// by descending score; the highest remaining candidate is kept and every
// unkept candidate whose IoU with it is strictly greater than iouThreshold is
// suppressed. Suppression ignores class.
//
// Arguments:
//   - candidates: The candidates in any order. The slice is not modified.
//   - scoreFloor: A candidate must score strictly above it to be considered.
//   - iouThreshold: IoU threshold above which overlapping boxes are suppressed.
//
// Returns:
//   - []Candidate: The survivors in descending score order, never nil.
func NMS(candidates []Candidate, scoreFloor, iouThreshold float32) []Candidate {
	sorted := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Score() > scoreFloor {
			sorted = append(sorted, c)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score() > sorted[j].Score()
	})

	n := len(sorted)
	filtered := make([]Candidate, 0, n)
	used := make([]bool, n)

	for i := 0; i < n; i++ {
		if used[i] {
			continue
		}

		anchor := sorted[i]
		filtered = append(filtered, anchor)
		used[i] = true

		for j := i + 1; j < n; j++ {
			if used[j] {
				continue
			}
			if anchor.Box.IoU(sorted[j].Box) > iouThreshold {
				used[j] = true
			}
		}
	}

	return filtered
}
