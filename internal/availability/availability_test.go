package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervaldb/intervaldb/internal/model"
	"github.com/intervaldb/intervaldb/internal/store"
)

func sp(start, end int64) model.Span {
	return model.Span{Start: model.Time(start), End: model.Time(end)}
}

func newResource(capacity uint32, parent *model.Id, buffer *model.Time) *store.ResourceState {
	return store.NewResourceState(model.NewID(), parent, nil, capacity, buffer)
}

// A doctor's office: a weekly non-blocking "open hours" rule with a lunch
// blocking rule carved out of it.
func TestComputeDoctorsOffice(t *testing.T) {
	rs := newResource(1, nil, nil)
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 1000), Kind: model.NonBlocking{}})
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(400, 500), Kind: model.Blocking{}})

	got := Compute(rs, sp(0, 1000), nil, nil, 0)
	assert.Equal(t, []model.Span{sp(0, 400), sp(500, 1000)}, got)
}

// A hotel room with a buffer_after: a booking's footprint extends past its
// own end, consuming availability the booking itself doesn't occupy.
func TestComputeHotelBuffer(t *testing.T) {
	buffer := model.Time(60)
	rs := newResource(1, nil, &buffer)
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 1000), Kind: model.NonBlocking{}})
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(100, 200), Kind: model.Booking{}})

	got := Compute(rs, sp(0, 1000), nil, nil, 0)
	require.Len(t, got, 2)
	assert.Equal(t, sp(0, 100), got[0])
	assert.Equal(t, sp(260, 1000), got[1])
}

// A yoga studio with capacity 3: availability only closes once three
// holds/bookings are simultaneously active.
func TestComputeCapacityAboveOne(t *testing.T) {
	rs := newResource(3, nil, nil)
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 1000), Kind: model.NonBlocking{}})
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 500), Kind: model.Booking{}})
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 500), Kind: model.Booking{}})
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 500), Kind: model.Booking{}})

	got := Compute(rs, sp(0, 1000), nil, nil, 0)
	assert.Equal(t, []model.Span{sp(500, 1000)}, got)
}

// A hold past its expiry is inactive and must not close availability.
func TestComputeExpiredHoldIgnored(t *testing.T) {
	rs := newResource(1, nil, nil)
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 1000), Kind: model.NonBlocking{}})
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 500), Kind: model.Hold{ExpiresAt: 10}})

	got := Compute(rs, sp(0, 1000), nil, nil, 100)
	assert.Equal(t, []model.Span{sp(0, 1000)}, got)
}

// OVERRIDE: a resource's own non-blocking rule entirely replaces whatever
// it would otherwise inherit from its parent.
func TestComputeOwnNonBlockingOverridesInherited(t *testing.T) {
	rs := newResource(1, nil, nil)
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(200, 300), Kind: model.NonBlocking{}})

	inheritedNonBlocking := []model.Span{sp(0, 1000)}
	got := Compute(rs, sp(0, 1000), inheritedNonBlocking, nil, 0)
	assert.Equal(t, []model.Span{sp(200, 300)}, got)
}

// ACCUMULATE: blocking rules from the resource and every ancestor all
// subtract, regardless of whether the child overrode non-blocking.
func TestComputeBlockingAccumulatesAcrossAncestors(t *testing.T) {
	rs := newResource(1, nil, nil)
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 1000), Kind: model.NonBlocking{}})
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(100, 200), Kind: model.Blocking{}})

	inheritedBlocking := []model.Span{sp(300, 400)}
	got := Compute(rs, sp(0, 1000), nil, inheritedBlocking, 0)
	assert.Equal(t, []model.Span{sp(0, 100), sp(200, 300), sp(400, 1000)}, got)
}

func TestFilterMinDuration(t *testing.T) {
	spans := []model.Span{sp(0, 5), sp(10, 100)}
	assert.Equal(t, spans, FilterMinDuration(spans, 0))
	assert.Equal(t, []model.Span{sp(10, 100)}, FilterMinDuration(spans, 50))
}

func TestWalkInheritedOverrideAndCycle(t *testing.T) {
	st := store.NewInMemoryStore()

	grandparent := store.NewResourceState(model.NewID(), nil, nil, 1, nil)
	grandparent.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 1000), Kind: model.NonBlocking{}})
	grandparent.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(600, 700), Kind: model.Blocking{}})
	require.True(t, st.CreateResource(grandparent))

	parent := store.NewResourceState(model.NewID(), &grandparent.ID, nil, 1, nil)
	parent.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(100, 900), Kind: model.NonBlocking{}})
	require.True(t, st.CreateResource(parent))

	nonBlocking, blocking, err := WalkInherited(st, &parent.ID, sp(0, 1000), 32)
	require.NoError(t, err)
	// parent's non-blocking rule wins (nearest ancestor to contribute);
	// grandparent's blocking rule still accumulates.
	assert.Equal(t, []model.Span{sp(100, 900)}, nonBlocking)
	assert.Equal(t, []model.Span{sp(600, 700)}, blocking)

	// a self-referential parent id triggers cycle detection
	selfID := model.NewID()
	self := store.NewResourceState(selfID, &selfID, nil, 1, nil)
	require.True(t, st.CreateResource(self))
	_, _, err = WalkInherited(st, &selfID, sp(0, 1000), 32)
	require.Error(t, err)
	kind, ok := model.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrCycleDetected, kind)
}

func TestWalkInheritedDepthLimit(t *testing.T) {
	st := store.NewInMemoryStore()
	var parentID *model.Id
	for i := 0; i < 5; i++ {
		rs := store.NewResourceState(model.NewID(), parentID, nil, 1, nil)
		require.True(t, st.CreateResource(rs))
		id := rs.ID
		parentID = &id
	}
	_, _, err := WalkInherited(st, parentID, sp(0, 100), 2)
	require.Error(t, err)
	kind, ok := model.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, model.ErrLimitExceeded, kind)
}

func TestCheckNoConflictCapacityOne(t *testing.T) {
	rs := newResource(1, nil, nil)
	existing := model.NewID()
	rs.InsertInterval(model.Interval{ID: existing, Span: sp(0, 100), Kind: model.Booking{}})

	err := CheckNoConflict(rs, sp(50, 150), 0)
	require.Error(t, err)
	ee, ok := err.(*model.EngineError)
	require.True(t, ok)
	assert.Equal(t, model.ErrConflict, ee.Kind)
	assert.Equal(t, existing, ee.ID)

	assert.NoError(t, CheckNoConflict(rs, sp(200, 300), 0))
}

func TestCheckNoConflictBufferedWindow(t *testing.T) {
	buffer := model.Time(30)
	rs := newResource(1, nil, &buffer)
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 100), Kind: model.Booking{}})

	// new span starts within the existing booking's buffer tail
	err := CheckNoConflict(rs, sp(110, 200), 0)
	require.Error(t, err)
}

func TestCheckNoConflictCapacityAboveOne(t *testing.T) {
	rs := newResource(2, nil, nil)
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 100), Kind: model.Booking{}})
	rs.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 100), Kind: model.Booking{}})

	err := CheckNoConflict(rs, sp(50, 150), 0)
	require.Error(t, err)
	ee, ok := err.(*model.EngineError)
	require.True(t, ok)
	assert.Equal(t, model.ErrCapacityExceeded, ee.Kind)

	// a second allocation still fits while only one is active
	rs2 := newResource(2, nil, nil)
	rs2.InsertInterval(model.Interval{ID: model.NewID(), Span: sp(0, 100), Kind: model.Booking{}})
	assert.NoError(t, CheckNoConflict(rs2, sp(50, 150), 0))
}
