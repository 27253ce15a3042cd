package engine

import (
	"sort"

	"github.com/intervaldb/intervaldb/internal/availability"
	"github.com/intervaldb/intervaldb/internal/model"
	"github.com/intervaldb/intervaldb/internal/store"
)

// PlaceHold records a tentative allocation, rejecting on conflict with
// existing holds/bookings under the resource's buffer and capacity rules.
func (e *Engine) PlaceHold(id, resourceID model.Id, span model.Span, expiresAt model.Time) error {
	if err := e.checkSpan(span); err != nil {
		return err
	}
	if err := e.checkNewEntity(id); err != nil {
		return err
	}
	h, ok := e.store.Lock(resourceID)
	if !ok {
		return e.reject(model.NewNotFound(resourceID))
	}
	defer h.Unlock()

	if err := e.checkIntervalCount(len(h.State.Intervals)); err != nil {
		return err
	}
	if err := availability.CheckNoConflict(h.State, span, e.nowMs()); err != nil {
		return e.reject(err)
	}

	ev := model.HoldPlaced{ID: id, ResourceID: resourceID, Span: span, ExpiresAt: expiresAt}
	if err := e.append(ev); err != nil {
		return err
	}
	store.ApplyEvent(h.State, ev)
	e.store.BindEntity(id, resourceID)
	e.addActiveHolds(1)
	e.logger.Info("hold placed", "id", id, "resource_id", resourceID)
	e.notify(resourceID, ev)
	return nil
}

// ReleaseHold removes a hold by id, whether or not it has expired.
func (e *Engine) ReleaseHold(id model.Id) error {
	resourceID, ok := e.store.ResolveEntity(id)
	if !ok {
		return e.reject(model.NewNotFound(id))
	}
	h, ok := e.store.Lock(resourceID)
	if !ok {
		return e.reject(model.NewNotFound(resourceID))
	}
	defer h.Unlock()

	ev := model.HoldReleased{ID: id}
	if err := e.append(ev); err != nil {
		return err
	}
	store.ApplyEvent(h.State, ev)
	e.store.UnbindEntity(id)
	e.addActiveHolds(-1)
	e.logger.Info("hold released", "id", id, "resource_id", resourceID)
	e.notify(resourceID, ev)
	return nil
}

// ConfirmBooking records a committed allocation, subject to the same
// conflict checks as PlaceHold plus a label length check.
func (e *Engine) ConfirmBooking(id, resourceID model.Id, span model.Span, label *string) error {
	if err := e.checkSpan(span); err != nil {
		return err
	}
	if err := e.checkLabelLen(label); err != nil {
		return err
	}
	if err := e.checkNewEntity(id); err != nil {
		return err
	}
	h, ok := e.store.Lock(resourceID)
	if !ok {
		return e.reject(model.NewNotFound(resourceID))
	}
	defer h.Unlock()

	if err := e.checkIntervalCount(len(h.State.Intervals)); err != nil {
		return err
	}
	if err := availability.CheckNoConflict(h.State, span, e.nowMs()); err != nil {
		return e.reject(err)
	}

	ev := model.BookingConfirmed{ID: id, ResourceID: resourceID, Span: span, Label: label}
	if err := e.append(ev); err != nil {
		return err
	}
	store.ApplyEvent(h.State, ev)
	e.store.BindEntity(id, resourceID)
	e.addActiveBookings(1)
	e.logger.Info("booking confirmed", "id", id, "resource_id", resourceID)
	e.notify(resourceID, ev)
	return nil
}

// CancelBooking removes a booking by id.
func (e *Engine) CancelBooking(id model.Id) error {
	resourceID, ok := e.store.ResolveEntity(id)
	if !ok {
		return e.reject(model.NewNotFound(id))
	}
	h, ok := e.store.Lock(resourceID)
	if !ok {
		return e.reject(model.NewNotFound(resourceID))
	}
	defer h.Unlock()

	ev := model.BookingCancelled{ID: id}
	if err := e.append(ev); err != nil {
		return err
	}
	store.ApplyEvent(h.State, ev)
	e.store.UnbindEntity(id)
	e.addActiveBookings(-1)
	e.logger.Info("booking cancelled", "id", id, "resource_id", resourceID)
	e.notify(resourceID, ev)
	return nil
}

// BookingRow is one row of a batch booking request.
type BookingRow struct {
	ID         model.Id
	ResourceID model.Id
	Span       model.Span
	Label      *string
}

// BatchConfirmBookings validates every row, locks every distinct resource
// in sorted-id order to avoid cross-batch deadlock, checks each row
// against current state plus every other row on the same resource, then
// appends sequentially. Validation is all-or-nothing; the WAL appends in
// phase 2 are not atomic as a batch — if one append fails, earlier rows in
// this batch are already durable and applied, and the caller is expected
// to reconcile.
func (e *Engine) BatchConfirmBookings(rows []BookingRow) error {
	if err := e.checkBatchSize(len(rows)); err != nil {
		return err
	}
	seen := make(map[model.Id]struct{}, len(rows))
	for _, r := range rows {
		if err := e.checkSpan(r.Span); err != nil {
			return err
		}
		if err := e.checkLabelLen(r.Label); err != nil {
			return err
		}
		if _, dup := seen[r.ID]; dup {
			return e.reject(model.NewAlreadyExists(r.ID))
		}
		seen[r.ID] = struct{}{}
		if err := e.checkNewEntity(r.ID); err != nil {
			return err
		}
	}

	resourceIDs := distinctSortedIDs(rowResourceIDs(rows))
	handles := make([]*store.Handle, 0, len(resourceIDs))
	defer func() {
		for _, h := range handles {
			h.Unlock()
		}
	}()
	byResource := map[model.Id]*store.Handle{}
	for _, rid := range resourceIDs {
		h, ok := e.store.Lock(rid)
		if !ok {
			return e.reject(model.NewNotFound(rid))
		}
		handles = append(handles, h)
		byResource[rid] = h
	}

	// Phase 1: validation only, no writes.
	byResourceRows := map[model.Id][]int{}
	for i, r := range rows {
		byResourceRows[r.ResourceID] = append(byResourceRows[r.ResourceID], i)
	}
	now := e.nowMs()
	for _, r := range rows {
		h := byResource[r.ResourceID]
		if err := availability.CheckNoConflict(h.State, r.Span, now); err != nil {
			return e.reject(err)
		}
	}
	for resourceID, idxs := range byResourceRows {
		buffer := byResource[resourceID].State.BufferAfterOrZero()
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				ra, rb := rows[idxs[a]], rows[idxs[b]]
				bufferedA := ra.Span.WithBufferAfter(buffer)
				bufferedB := rb.Span.WithBufferAfter(buffer)
				if bufferedA.Overlaps(rb.Span) || bufferedB.Overlaps(ra.Span) {
					return e.reject(model.NewConflict(rb.ID))
				}
			}
		}
	}

	// Phase 2: commit sequentially. Each append awaits its own group-commit
	// ack; a failure here leaves earlier rows in this batch durable.
	for _, r := range rows {
		ev := model.BookingConfirmed{ID: r.ID, ResourceID: r.ResourceID, Span: r.Span, Label: r.Label}
		if err := e.append(ev); err != nil {
			return err
		}
		h := byResource[r.ResourceID]
		store.ApplyEvent(h.State, ev)
		e.store.BindEntity(r.ID, r.ResourceID)
		e.addActiveBookings(1)
		e.notify(r.ResourceID, ev)
	}
	e.logger.Info("batch bookings confirmed", "count", len(rows))
	return nil
}

func rowResourceIDs(rows []BookingRow) []model.Id {
	ids := make([]model.Id, len(rows))
	for i, r := range rows {
		ids[i] = r.ResourceID
	}
	return ids
}

func distinctSortedIDs(ids []model.Id) []model.Id {
	seen := map[model.Id]struct{}{}
	var out []model.Id
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}
