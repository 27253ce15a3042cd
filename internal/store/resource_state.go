// Package store holds the per-resource mutable state (ResourceState) and
// the concurrent indexes (InMemoryStore) that tie resource ids, entity ids,
// and parent/child relationships together.
package store

import (
	"sort"

	"github.com/intervaldb/intervaldb/internal/model"
)

// ResourceState is one resource's mutable state: parent pointer, capacity,
// buffer, and an interval vector kept sorted by Span.Start. Every mutating
// method assumes the caller already holds the resource's exclusive lock
// (held one level up, in InMemoryStore's lockedResource).
type ResourceState struct {
	ID          model.Id
	ParentID    *model.Id
	Name        *string
	Capacity    uint32
	BufferAfter *model.Time
	Intervals   []model.Interval
}

// NewResourceState constructs the initial state for a freshly created
// resource.
func NewResourceState(id model.Id, parentID *model.Id, name *string, capacity uint32, bufferAfter *model.Time) *ResourceState {
	return &ResourceState{
		ID:          id,
		ParentID:    parentID,
		Name:        name,
		Capacity:    capacity,
		BufferAfter: bufferAfter,
	}
}

// BufferAfterOrZero returns the configured buffer, or 0 if unset.
func (rs *ResourceState) BufferAfterOrZero() model.Time {
	if rs.BufferAfter == nil {
		return 0
	}
	return *rs.BufferAfter
}

// Snapshot copies the state into an immutable model.Resource for callers
// outside the lock.
func (rs *ResourceState) Snapshot() model.Resource {
	ivs := make([]model.Interval, len(rs.Intervals))
	copy(ivs, rs.Intervals)
	return model.Resource{
		ID:          rs.ID,
		ParentID:    rs.ParentID,
		Name:        rs.Name,
		Capacity:    rs.Capacity,
		BufferAfter: rs.BufferAfter,
		Intervals:   ivs,
	}
}

// InsertInterval splices iv into the interval vector at the position that
// keeps it sorted by Span.Start.
func (rs *ResourceState) InsertInterval(iv model.Interval) {
	idx := sort.Search(len(rs.Intervals), func(i int) bool {
		return rs.Intervals[i].Span.Start > iv.Span.Start
	})
	rs.Intervals = append(rs.Intervals, model.Interval{})
	copy(rs.Intervals[idx+1:], rs.Intervals[idx:])
	rs.Intervals[idx] = iv
}

// RemoveInterval removes and returns the interval with the given id, if
// present.
func (rs *ResourceState) RemoveInterval(id model.Id) (model.Interval, bool) {
	for i, iv := range rs.Intervals {
		if iv.ID == id {
			removed := iv
			rs.Intervals = append(rs.Intervals[:i], rs.Intervals[i+1:]...)
			return removed, true
		}
	}
	return model.Interval{}, false
}

// Overlapping returns the intervals whose span overlaps query, pruning via
// binary search on the sorted Start index before filtering on End. The
// returned slice aliases no internal storage beyond the lifetime of the
// caller's hold on the resource lock.
func (rs *ResourceState) Overlapping(query model.Span) []model.Interval {
	// Every interval starting at or after query.End cannot overlap; find
	// the partition point and only scan the prefix.
	right := sort.Search(len(rs.Intervals), func(i int) bool {
		return rs.Intervals[i].Span.Start >= query.End
	})
	var out []model.Interval
	for _, iv := range rs.Intervals[:right] {
		if iv.Span.End > query.Start {
			out = append(out, iv)
		}
	}
	return out
}

// FindInterval returns the interval with the given id, if present.
func (rs *ResourceState) FindInterval(id model.Id) (model.Interval, bool) {
	for _, iv := range rs.Intervals {
		if iv.ID == id {
			return iv, true
		}
	}
	return model.Interval{}, false
}
