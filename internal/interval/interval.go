// Package interval implements the pure span algebra the rest of the engine
// is built on: merging overlapping spans, subtracting one sorted span set
// from another, and computing capacity-saturated regions via a sweep line.
// Every function here is total, deterministic, and allocates only its
// output — none of it touches a resource, a lock, or the clock.
package interval

import "github.com/intervaldb/intervaldb/internal/model"

// MergeOverlapping fuses adjacent-or-overlapping spans in a slice already
// sorted by Start into their disjoint union, also sorted by Start. A span
// s1 triggers a merge into the last accumulated span when s1.Start <=
// last.End, extending last.End to max(last.End, s1.End).
func MergeOverlapping(sorted []model.Span) []model.Span {
	if len(sorted) == 0 {
		return nil
	}
	out := make([]model.Span, 0, len(sorted))
	cur := sorted[0]
	for _, s := range sorted[1:] {
		if s.Start <= cur.End {
			if s.End > cur.End {
				cur.End = s.End
			}
			continue
		}
		out = append(out, cur)
		cur = s
	}
	out = append(out, cur)
	return out
}

// SubtractIntervals removes toRemove from base. Both inputs must already be
// sorted by Start and internally non-overlapping (callers pass the output
// of MergeOverlapping or similar). The result preserves base's ordering.
func SubtractIntervals(base, toRemove []model.Span) []model.Span {
	if len(base) == 0 {
		return nil
	}
	out := make([]model.Span, 0, len(base))
	ri := 0
	for _, b := range base {
		cur := b.Start
		for ri < len(toRemove) && toRemove[ri].Start < b.End {
			r := toRemove[ri]
			if r.End <= cur {
				ri++
				continue
			}
			if r.Start > cur {
				out = append(out, model.Span{Start: cur, End: r.Start})
			}
			if r.End > cur {
				cur = r.End
			}
			if r.End >= b.End {
				// This removal spans past the current base interval; it
				// may still apply to the next one, so don't advance ri.
				break
			}
			ri++
		}
		if cur < b.End {
			out = append(out, model.Span{Start: cur, End: b.End})
		}
	}
	return out
}

// sweepEvent is one endpoint of an allocation span in the sweep line used
// by ComputeSaturatedSpans.
type sweepEvent struct {
	at    model.Time
	delta int
	// isStart breaks ties in favor of +1 events: two allocations touching
	// at the same instant (one ending, one starting) must be seen as
	// "both active" at that instant before the ending one drops off.
	isStart bool
}

// ComputeSaturatedSpans sweeps allocs (needn't be pre-merged or sorted) and
// returns the disjoint, Start-sorted spans where the number of
// simultaneously active allocations is >= capacity. capacity == 0 yields no
// saturated spans (nothing can ever reach a zero threshold); capacity == 1
// collapses to MergeOverlapping.
func ComputeSaturatedSpans(allocs []model.Span, capacity uint32) []model.Span {
	if capacity == 0 || len(allocs) == 0 {
		return nil
	}
	if capacity == 1 {
		sorted := append([]model.Span(nil), allocs...)
		sortSpans(sorted)
		return MergeOverlapping(sorted)
	}

	events := make([]sweepEvent, 0, len(allocs)*2)
	for _, a := range allocs {
		events = append(events, sweepEvent{at: a.Start, delta: 1, isStart: true})
		events = append(events, sweepEvent{at: a.End, delta: -1, isStart: false})
	}
	sortEvents(events)

	var out []model.Span
	count := 0
	var saturatedStart model.Time
	inSaturated := false
	for _, ev := range events {
		prevCount := count
		count += ev.delta
		if prevCount < int(capacity) && count >= int(capacity) {
			saturatedStart = ev.at
			inSaturated = true
		} else if inSaturated && prevCount >= int(capacity) && count < int(capacity) {
			out = append(out, model.Span{Start: saturatedStart, End: ev.at})
			inSaturated = false
		}
	}
	return out
}

func sortSpans(s []model.Span) {
	// Insertion sort is fine here: allocation counts per resource are
	// small (bounded by MAX_INTERVALS_PER_RESOURCE) and this keeps the
	// package free of a sort.Slice closure allocation on the hot path.
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j].Start < s[j-1].Start; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func sortEvents(e []sweepEvent) {
	for i := 1; i < len(e); i++ {
		for j := i; j > 0 && eventLess(e[j], e[j-1]); j-- {
			e[j], e[j-1] = e[j-1], e[j]
		}
	}
}

// eventLess orders by time, and at equal times puts +1 (start) events
// before -1 (end) events so back-to-back allocations register contact.
func eventLess(a, b sweepEvent) bool {
	if a.at != b.at {
		return a.at < b.at
	}
	return a.isStart && !b.isStart
}
