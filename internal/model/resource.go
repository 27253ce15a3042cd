package model

// Resource is a bookable entity: a node in the hierarchy. This is the
// immutable snapshot shape handed back to callers of read operations; the
// mutable, lock-guarded working copy lives in package store as
// store.ResourceState.
type Resource struct {
	ID          Id
	ParentID    *Id
	Name        *string
	Capacity    uint32
	BufferAfter *Time
	Intervals   []Interval
}

// BufferAfterOrZero returns the configured buffer, or 0 if unset.
func (r Resource) BufferAfterOrZero() Time {
	if r.BufferAfter == nil {
		return 0
	}
	return *r.BufferAfter
}
