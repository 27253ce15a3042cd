package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intervaldb/intervaldb/internal/model"
)

func newID(t *testing.T) model.Id {
	t.Helper()
	return model.NewID()
}

func TestInMemoryStoreCreateAndLock(t *testing.T) {
	st := NewInMemoryStore()
	id := newID(t)
	rs := NewResourceState(id, nil, nil, 1, nil)

	require.True(t, st.CreateResource(rs))
	assert.False(t, st.CreateResource(rs), "duplicate create should fail")
	assert.True(t, st.Exists(id))
	assert.Equal(t, 1, st.Count())

	h, ok := st.Lock(id)
	require.True(t, ok)
	assert.Equal(t, id, h.State.ID)
	h.Unlock()

	_, ok = st.Lock(newID(t))
	assert.False(t, ok, "locking a nonexistent resource should fail")
}

func TestInMemoryStoreParentChildLinkage(t *testing.T) {
	st := NewInMemoryStore()
	parent := newID(t)
	child := newID(t)
	require.True(t, st.CreateResource(NewResourceState(parent, nil, nil, 1, nil)))
	require.True(t, st.CreateResource(NewResourceState(child, &parent, nil, 1, nil)))

	assert.True(t, st.HasChildren(parent))
	assert.ElementsMatch(t, []model.Id{child}, st.Children(parent))

	st.DeleteResource(child)
	assert.False(t, st.HasChildren(parent))
	assert.False(t, st.Exists(child))
}

func TestInMemoryStoreDeleteCleansEntityIndex(t *testing.T) {
	st := NewInMemoryStore()
	resource := newID(t)
	rule := newID(t)
	require.True(t, st.CreateResource(NewResourceState(resource, nil, nil, 1, nil)))

	h, ok := st.Lock(resource)
	require.True(t, ok)
	ApplyEvent(h.State, model.RuleAdded{ID: rule, ResourceID: resource, Span: sp(0, 100), Blocking: false})
	h.Unlock()
	st.BindEntity(rule, resource)

	st.DeleteResource(resource)
	_, ok = st.ResolveEntity(rule)
	assert.False(t, ok, "deleting a resource unbinds its intervals")
}

func TestInMemoryStoreTryLockContended(t *testing.T) {
	st := NewInMemoryStore()
	id := newID(t)
	require.True(t, st.CreateResource(NewResourceState(id, nil, nil, 1, nil)))

	h, ok := st.Lock(id)
	require.True(t, ok)
	defer h.Unlock()

	_, ok = st.TryLock(id)
	assert.False(t, ok, "TryLock must not block on a held lock")
}

func TestInMemoryStoreEntityIndex(t *testing.T) {
	st := NewInMemoryStore()
	entity := newID(t)
	resource := newID(t)

	_, ok := st.ResolveEntity(entity)
	assert.False(t, ok)

	st.BindEntity(entity, resource)
	got, ok := st.ResolveEntity(entity)
	require.True(t, ok)
	assert.Equal(t, resource, got)

	st.UnbindEntity(entity)
	_, ok = st.ResolveEntity(entity)
	assert.False(t, ok)
}

func TestResourceStateInsertAndOverlapping(t *testing.T) {
	id := newID(t)
	rs := NewResourceState(id, nil, nil, 1, nil)

	a := model.Id{1}
	b := model.Id{2}
	c := model.Id{3}
	rs.InsertInterval(model.Interval{ID: b, Span: sp(10, 20), Kind: model.Blocking{}})
	rs.InsertInterval(model.Interval{ID: a, Span: sp(0, 5), Kind: model.NonBlocking{}})
	rs.InsertInterval(model.Interval{ID: c, Span: sp(25, 30), Kind: model.Blocking{}})

	require.Len(t, rs.Intervals, 3)
	assert.Equal(t, a, rs.Intervals[0].ID)
	assert.Equal(t, b, rs.Intervals[1].ID)
	assert.Equal(t, c, rs.Intervals[2].ID)

	got := rs.Overlapping(sp(4, 12))
	require.Len(t, got, 2)

	removed, ok := rs.RemoveInterval(b)
	require.True(t, ok)
	assert.Equal(t, b, removed.ID)
	assert.Len(t, rs.Intervals, 2)

	_, ok = rs.RemoveInterval(b)
	assert.False(t, ok, "removing twice should fail the second time")
}

func TestApplyEventRuleAndAllocationLifecycle(t *testing.T) {
	rs := NewResourceState(newID(t), nil, nil, 1, nil)
	ruleID := model.NewID()

	ApplyEvent(rs, model.RuleAdded{ID: ruleID, ResourceID: rs.ID, Span: sp(0, 100), Blocking: true})
	iv, ok := rs.FindInterval(ruleID)
	require.True(t, ok)
	assert.IsType(t, model.Blocking{}, iv.Kind)

	ApplyEvent(rs, model.RuleUpdated{ID: ruleID, Span: sp(0, 50), Blocking: false})
	iv, ok = rs.FindInterval(ruleID)
	require.True(t, ok)
	assert.IsType(t, model.NonBlocking{}, iv.Kind)
	assert.Equal(t, sp(0, 50), iv.Span)

	ApplyEvent(rs, model.RuleRemoved{ID: ruleID})
	_, ok = rs.FindInterval(ruleID)
	assert.False(t, ok)

	holdID := model.NewID()
	ApplyEvent(rs, model.HoldPlaced{ID: holdID, ResourceID: rs.ID, Span: sp(0, 10), ExpiresAt: 1000})
	iv, ok = rs.FindInterval(holdID)
	require.True(t, ok)
	assert.Equal(t, model.Hold{ExpiresAt: 1000}, iv.Kind)

	ApplyEvent(rs, model.HoldReleased{ID: holdID})
	_, ok = rs.FindInterval(holdID)
	assert.False(t, ok)

	bookingID := model.NewID()
	label := "party"
	ApplyEvent(rs, model.BookingConfirmed{ID: bookingID, ResourceID: rs.ID, Span: sp(0, 10), Label: &label})
	iv, ok = rs.FindInterval(bookingID)
	require.True(t, ok)
	assert.Equal(t, &label, iv.Kind.(model.Booking).Label)

	ApplyEvent(rs, model.BookingCancelled{ID: bookingID})
	_, ok = rs.FindInterval(bookingID)
	assert.False(t, ok)
}

func sp(start, end int64) model.Span {
	return model.Span{Start: model.Time(start), End: model.Time(end)}
}
