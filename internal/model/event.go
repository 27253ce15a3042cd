package model

// Event is the closed set of state transitions the WAL persists and
// store.ApplyEvent replays. Like IntervalKind it is a sealed
// interface: adding a new kind of interval is a single case addition plus
// its handlers in ApplyEvent, conflict detection, and availability.
type Event interface {
	event()
}

// ResourceCreated records the creation of a resource.
type ResourceCreated struct {
	ID          Id
	ParentID    *Id
	Name        *string
	Capacity    uint32
	BufferAfter *Time
}

func (ResourceCreated) event() {}

// ResourceUpdated records a field-level update to a resource. Intervals are
// untouched; existing allocations are not retroactively re-validated
// against a changed Capacity/BufferAfter.
type ResourceUpdated struct {
	ID          Id
	Name        *string
	Capacity    uint32
	BufferAfter *Time
}

func (ResourceUpdated) event() {}

// ResourceDeleted records the deletion of a childless resource.
type ResourceDeleted struct {
	ID Id
}

func (ResourceDeleted) event() {}

// RuleAdded records the addition of a non-blocking or blocking rule.
type RuleAdded struct {
	ID         Id
	ResourceID Id
	Span       Span
	Blocking   bool
}

func (RuleAdded) event() {}

// RuleRemoved records the removal of a rule by id.
type RuleRemoved struct {
	ID Id
}

func (RuleRemoved) event() {}

// RuleUpdated records an atomic remove-then-reinsert of a rule under the
// same id, applied as a single WAL entry so replay never observes the rule
// absent.
type RuleUpdated struct {
	ID       Id
	Span     Span
	Blocking bool
}

func (RuleUpdated) event() {}

// HoldPlaced records a tentative allocation.
type HoldPlaced struct {
	ID         Id
	ResourceID Id
	Span       Span
	ExpiresAt  Time
}

func (HoldPlaced) event() {}

// HoldReleased records the release (explicit or GC'd) of a hold.
type HoldReleased struct {
	ID Id
}

func (HoldReleased) event() {}

// BookingConfirmed records a committed allocation.
type BookingConfirmed struct {
	ID         Id
	ResourceID Id
	Span       Span
	Label      *string
}

func (BookingConfirmed) event() {}

// BookingCancelled records the cancellation (explicit or GC'd) of a booking.
type BookingCancelled struct {
	ID Id
}

func (BookingCancelled) event() {}
