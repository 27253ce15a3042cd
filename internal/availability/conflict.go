package availability

import (
	"github.com/intervaldb/intervaldb/internal/interval"
	"github.com/intervaldb/intervaldb/internal/model"
	"github.com/intervaldb/intervaldb/internal/store"
)

// CheckNoConflict reports whether span can be allocated on rs; the caller
// must already hold rs's exclusive lock. It widens the search window by the resource's
// buffer on both sides so that a buffer on either allocation can collide,
// then either fast-paths a pairwise overlap check (capacity == 1) or sweeps
// for saturated regions (capacity > 1).
func CheckNoConflict(rs *store.ResourceState, span model.Span, now model.Time) error {
	buffer := rs.BufferAfterOrZero()
	windowStart := span.Start - buffer
	if windowStart < 0 {
		windowStart = 0
	}
	window := model.Span{Start: windowStart, End: span.End + buffer}

	var allocSpans []model.Span
	for _, iv := range rs.Overlapping(window) {
		if !iv.IsActiveAt(now) {
			continue
		}
		if !iv.IsAllocation() {
			continue
		}
		buffered := iv.BufferedSpan(buffer)
		if rs.Capacity <= 1 {
			if buffered.Overlaps(span) {
				return model.NewConflict(iv.ID)
			}
			continue
		}
		allocSpans = append(allocSpans, buffered)
	}

	if rs.Capacity <= 1 {
		return nil
	}

	sortSpans(allocSpans)
	saturated := interval.ComputeSaturatedSpans(allocSpans, rs.Capacity)
	for _, s := range saturated {
		if s.Overlaps(span) {
			return model.NewCapacityExceeded(rs.Capacity)
		}
	}
	return nil
}
