package store

import "github.com/intervaldb/intervaldb/internal/model"

// ApplyEvent is the single deterministic state-transition function: every
// Event variant maps to exactly one interval insertion, removal, or
// field assignment on rs. The caller must already hold rs's exclusive
// lock. Resource create/delete themselves are handled one level up, in
// InMemoryStore, since they mutate the store's maps rather than a single
// ResourceState; every other variant lands here.
func ApplyEvent(rs *ResourceState, ev model.Event) {
	switch e := ev.(type) {
	case model.ResourceUpdated:
		rs.UpdateFields(e.Name, e.Capacity, e.BufferAfter)

	case model.RuleAdded:
		rs.InsertInterval(model.Interval{
			ID:   e.ID,
			Span: e.Span,
			Kind: ruleKind(e.Blocking),
		})

	case model.RuleRemoved:
		rs.RemoveInterval(e.ID)

	case model.RuleUpdated:
		// Remove-then-insert under the same id and the same lock: replay
		// never observes the rule absent because both halves come from one
		// WAL entry.
		rs.RemoveInterval(e.ID)
		rs.InsertInterval(model.Interval{
			ID:   e.ID,
			Span: e.Span,
			Kind: ruleKind(e.Blocking),
		})

	case model.HoldPlaced:
		rs.InsertInterval(model.Interval{
			ID:   e.ID,
			Span: e.Span,
			Kind: model.Hold{ExpiresAt: e.ExpiresAt},
		})

	case model.HoldReleased:
		rs.RemoveInterval(e.ID)

	case model.BookingConfirmed:
		rs.InsertInterval(model.Interval{
			ID:   e.ID,
			Span: e.Span,
			Kind: model.Booking{Label: e.Label},
		})

	case model.BookingCancelled:
		rs.RemoveInterval(e.ID)

	case model.ResourceCreated, model.ResourceDeleted:
		// Handled by InMemoryStore.CreateResource / DeleteResource, not here.

	default:
		panic("store: ApplyEvent: unhandled event variant")
	}
}

func ruleKind(blocking bool) model.IntervalKind {
	if blocking {
		return model.Blocking{}
	}
	return model.NonBlocking{}
}
