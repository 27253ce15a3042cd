// Package availability computes free spans for a resource, combining its
// own rules and allocations with rules inherited from its ancestor chain.
package availability

import (
	"github.com/intervaldb/intervaldb/internal/interval"
	"github.com/intervaldb/intervaldb/internal/model"
	"github.com/intervaldb/intervaldb/internal/store"
)

// categorized holds one resource's overlapping intervals split by role.
type categorized struct {
	ownNonBlocking []model.Span
	ownBlocking    []model.Span
	activeAllocs   []model.Span
}

// categorize walks rs's intervals overlapping query (via ResourceState's
// binary-search-pruned Overlapping) and buckets them by kind. Rule spans
// are clamped to query; allocation spans are extended by buffer and left
// unclamped (callers only ever see them after subtraction, so an
// allocation's buffer tail beyond query harmlessly subtracts nothing extra).
func categorize(rs *store.ResourceState, query model.Span, now model.Time) categorized {
	buffer := rs.BufferAfterOrZero()
	var c categorized
	for _, iv := range rs.Overlapping(query) {
		if !iv.IsActiveAt(now) {
			continue // expired hold
		}
		switch iv.Kind.(type) {
		case model.NonBlocking:
			if clamped, ok := iv.Span.Clamp(query); ok {
				c.ownNonBlocking = append(c.ownNonBlocking, clamped)
			}
		case model.Blocking:
			if clamped, ok := iv.Span.Clamp(query); ok {
				c.ownBlocking = append(c.ownBlocking, clamped)
			}
		case model.Hold, model.Booking:
			c.activeAllocs = append(c.activeAllocs, iv.BufferedSpan(buffer))
		}
	}
	return c
}

// Compute returns the free sub-spans of query for a resource already
// locked for read, given the inherited rule sets collected by
// WalkInherited and "now" for hold expiry. The returned spans are sorted,
// disjoint, and already clamped to query.
func Compute(rs *store.ResourceState, query model.Span, inheritedNonBlocking, inheritedBlocking []model.Span, now model.Time) []model.Span {
	c := categorize(rs, query, now)

	// Step 2: base. Own non-blocking rules override inherited ones
	// entirely; absent any, inheritance applies.
	var base []model.Span
	if len(c.ownNonBlocking) > 0 {
		base = sortedMerge(c.ownNonBlocking)
	} else {
		base = sortedMerge(inheritedNonBlocking)
	}

	// Step 3: blocking subtraction accumulates every ancestor's blocking
	// rules on top of the resource's own.
	allBlocking := append(append([]model.Span(nil), c.ownBlocking...), inheritedBlocking...)
	sortSpans(allBlocking)
	result := interval.SubtractIntervals(base, allBlocking)

	// Step 4: allocation subtraction, direct at capacity <= 1, via the
	// saturated-span sweep otherwise.
	sortSpans(c.activeAllocs)
	var toSubtract []model.Span
	if rs.Capacity <= 1 {
		toSubtract = sortedMerge(c.activeAllocs)
	} else {
		toSubtract = interval.ComputeSaturatedSpans(c.activeAllocs, rs.Capacity)
	}
	result = interval.SubtractIntervals(result, toSubtract)

	return result
}

// FilterMinDuration drops spans shorter than minDuration; <= 0 is a no-op.
func FilterMinDuration(spans []model.Span, minDuration model.Time) []model.Span {
	if minDuration <= 0 {
		return spans
	}
	out := spans[:0:0]
	for _, s := range spans {
		if s.Duration() >= minDuration {
			out = append(out, s)
		}
	}
	return out
}

func sortedMerge(spans []model.Span) []model.Span {
	if len(spans) == 0 {
		return nil
	}
	sorted := append([]model.Span(nil), spans...)
	sortSpans(sorted)
	return interval.MergeOverlapping(sorted)
}

func sortSpans(s []model.Span) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Start < s[j-1].Start; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
