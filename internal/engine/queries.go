package engine

import (
	"github.com/intervaldb/intervaldb/internal/availability"
	"github.com/intervaldb/intervaldb/internal/interval"
	"github.com/intervaldb/intervaldb/internal/model"
)

// ComputeAvailability returns resourceID's free spans over [start, end),
// optionally dropping spans shorter than minDuration. A nonexistent
// resource returns an empty (not erroring) result.
func (e *Engine) ComputeAvailability(resourceID model.Id, span model.Span, minDuration model.Time) ([]model.Span, error) {
	if err := e.checkQueryWindow(span); err != nil {
		return nil, err
	}
	h, ok := e.store.RLock(resourceID)
	if !ok {
		return nil, nil
	}
	nonBlocking, blocking, err := availability.WalkInherited(e.store, h.ParentID(), span, e.limits.MaxHierarchyDepth)
	if err != nil {
		h.RUnlock()
		return nil, e.reject(err)
	}
	result := availability.Compute(h.State, span, nonBlocking, blocking, e.nowMs())
	h.RUnlock()

	return availability.FilterMinDuration(result, minDuration), nil
}

// ComputeMultiAvailability computes each resource's availability
// independently, then sweeps the union to find spans where at least
// minAvailable of them are simultaneously free. Nonexistent ids contribute
// zero availability (no spans) rather than erroring.
func (e *Engine) ComputeMultiAvailability(resourceIDs []model.Id, span model.Span, minAvailable int, minDuration model.Time) ([]model.Span, error) {
	if err := e.checkInClauseSize(len(resourceIDs)); err != nil {
		return nil, err
	}
	if err := e.checkQueryWindow(span); err != nil {
		return nil, err
	}

	var allFree [][]model.Span
	for _, id := range resourceIDs {
		free, err := e.ComputeAvailability(id, span, 0)
		if err != nil {
			return nil, err
		}
		allFree = append(allFree, free)
	}

	combined := sweepMinAvailable(allFree, minAvailable)
	return availability.FilterMinDuration(combined, minDuration), nil
}

// sweepMinAvailable treats each resource's free spans as +1/-1 allocation
// events and returns the spans where the running count is >= minAvailable,
// reusing the same saturated-span sweep the core uses for capacity.
func sweepMinAvailable(perResource [][]model.Span, minAvailable int) []model.Span {
	if minAvailable <= 0 {
		return nil
	}
	var all []model.Span
	for _, spans := range perResource {
		all = append(all, spans...)
	}
	return interval.ComputeSaturatedSpans(all, uint32(minAvailable))
}

// ListResources returns a snapshot of every resource, optionally filtered
// to a single id.
func (e *Engine) ListResources(filter *model.Id) []model.Resource {
	var ids []model.Id
	if filter != nil {
		ids = []model.Id{*filter}
	} else {
		ids = e.store.AllResourceIDs()
	}
	var out []model.Resource
	for _, id := range ids {
		h, ok := e.store.RLock(id)
		if !ok {
			continue
		}
		out = append(out, h.State.Snapshot())
		h.RUnlock()
	}
	return out
}

// GetRules returns every rule interval (optionally filtered to one
// resource), as (resourceID, Interval) pairs.
func (e *Engine) GetRules(filter *model.Id) []ResourceInterval {
	return e.filterIntervals(filter, func(iv model.Interval) bool {
		switch iv.Kind.(type) {
		case model.NonBlocking, model.Blocking:
			return true
		default:
			return false
		}
	})
}

// GetHolds returns every active-or-expired hold interval, optionally
// filtered to one resource.
func (e *Engine) GetHolds(filter *model.Id) []ResourceInterval {
	return e.filterIntervals(filter, func(iv model.Interval) bool {
		_, ok := iv.Kind.(model.Hold)
		return ok
	})
}

// GetBookings returns every booking interval, optionally filtered to one
// resource.
func (e *Engine) GetBookings(filter *model.Id) []ResourceInterval {
	return e.filterIntervals(filter, func(iv model.Interval) bool {
		_, ok := iv.Kind.(model.Booking)
		return ok
	})
}

// ResourceInterval pairs an interval with the resource it belongs to, for
// flat SelectRules/SelectHolds/SelectBookings-style result sets.
type ResourceInterval struct {
	ResourceID model.Id
	Interval   model.Interval
}

func (e *Engine) filterIntervals(filter *model.Id, keep func(model.Interval) bool) []ResourceInterval {
	var ids []model.Id
	if filter != nil {
		ids = []model.Id{*filter}
	} else {
		ids = e.store.AllResourceIDs()
	}
	var out []ResourceInterval
	for _, id := range ids {
		h, ok := e.store.RLock(id)
		if !ok {
			continue
		}
		for _, iv := range h.State.Intervals {
			if keep(iv) {
				out = append(out, ResourceInterval{ResourceID: id, Interval: iv})
			}
		}
		h.RUnlock()
	}
	return out
}
