package region

import "sort"

// IntervalTree provides O(log n + k) overlap queries using a sorted-slice approach.
// Intervals are loaded once and never modified after build.
type IntervalTree struct {
	intervals []Interval
	maxEnd    []int64 // maxEnd[i] = max(End) for intervals[:i+1]
}

// BuildIntervalTree creates an interval tree from a slice of intervals
// on a single chromosome.
func BuildIntervalTree(intervals []Interval) *IntervalTree {
	if len(intervals) == 0 {
		return &IntervalTree{}
	}

	sorted := make([]Interval, len(intervals))
	copy(sorted, intervals)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	// Build prefix-max array: maxEnd[i] = max(end) for intervals[:i+1]
	maxEnd := make([]int64, len(sorted))
	maxEnd[0] = sorted[0].End
	for i := 1; i < len(sorted); i++ {
		maxEnd[i] = sorted[i].End
		if maxEnd[i-1] > maxEnd[i] {
			maxEnd[i] = maxEnd[i-1]
		}
	}

	return &IntervalTree{intervals: sorted, maxEnd: maxEnd}
}

// Len returns the number of intervals in the tree.
func (t *IntervalTree) Len() int {
	return len(t.intervals)
}

// candidates returns the index of the first interval with Start >= end.
// Only intervals before it can overlap [start, end).
func (t *IntervalTree) candidates(end int64) int {
	return sort.Search(len(t.intervals), func(i int) bool {
		return t.intervals[i].Start >= end
	})
}

// Overlaps reports whether any interval overlaps the half-open range [start, end).
func (t *IntervalTree) Overlaps(start, end int64) bool {
	for i := t.candidates(end) - 1; i >= 0; i-- {
		// Prune: maxEnd[i] is the max end for intervals[:i+1].
		if t.maxEnd[i] <= start {
			return false
		}
		if t.intervals[i].End > start {
			return true
		}
	}
	return false
}
