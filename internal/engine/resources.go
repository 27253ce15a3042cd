package engine

import (
	"github.com/intervaldb/intervaldb/internal/model"
	"github.com/intervaldb/intervaldb/internal/store"
)

// CreateResource adds a new resource to the hierarchy. The parent, if
// given, must already exist; a resource cannot parent itself; the
// resulting ancestor depth must stay within MAX_HIERARCHY_DEPTH and the
// tenant's total resource count within MAX_RESOURCES_PER_TENANT.
func (e *Engine) CreateResource(id model.Id, parentID *model.Id, name *string, capacity uint32, bufferAfter *model.Time) error {
	if parentID != nil && *parentID == id {
		return e.reject(model.NewCycleDetected(id))
	}
	if err := e.checkNameLen(name); err != nil {
		return err
	}
	if e.store.Count() >= e.limits.MaxResourcesPerTenant {
		return e.reject(model.NewLimitExceeded("tenant exceeds MAX_RESOURCES_PER_TENANT"))
	}
	if e.store.Exists(id) {
		return e.reject(model.NewAlreadyExists(id))
	}
	if parentID != nil {
		depth, err := e.ancestorDepth(*parentID)
		if err != nil {
			return err
		}
		if depth+1 >= e.limits.MaxHierarchyDepth {
			return e.reject(model.NewLimitExceeded("resource exceeds MAX_HIERARCHY_DEPTH"))
		}
	}

	ev := model.ResourceCreated{ID: id, ParentID: parentID, Name: name, Capacity: capacity, BufferAfter: bufferAfter}
	if err := e.append(ev); err != nil {
		return err
	}
	rs := store.NewResourceState(id, parentID, name, capacity, bufferAfter)
	if !e.store.CreateResource(rs) {
		// The WAL entry is already durable; this can only happen under a
		// racing duplicate create that slipped past the Exists check above.
		return e.reject(model.NewAlreadyExists(id))
	}
	e.logger.Info("resource created", "id", id, "parent_id", parentID, "capacity", capacity)
	e.notify(id, ev)
	return nil
}

// ancestorDepth returns how many ancestors parentID has (0 if it has no
// parent), failing with LimitExceeded above the hierarchy depth limit and
// CycleDetected if the walk revisits an id.
func (e *Engine) ancestorDepth(parentID model.Id) (int, error) {
	seen := map[model.Id]struct{}{}
	current := parentID
	depth := 0
	for {
		if _, ok := seen[current]; ok {
			return 0, e.reject(model.NewCycleDetected(current))
		}
		seen[current] = struct{}{}
		h, ok := e.store.RLock(current)
		if !ok {
			return 0, e.reject(model.NewNotFound(current))
		}
		next := h.ParentID()
		h.RUnlock()
		if next == nil {
			return depth, nil
		}
		if depth >= e.limits.MaxHierarchyDepth {
			return 0, e.reject(model.NewLimitExceeded("ancestor walk exceeded MAX_HIERARCHY_DEPTH"))
		}
		current = *next
		depth++
	}
}

// UpdateResource changes a resource's name, capacity, and buffer. Existing
// intervals are left exactly as they are: a capacity decrease does not
// retroactively re-validate allocations already on the books. Availability
// reflects the new values immediately, and new allocations are checked
// against them; whether to instead reject a shrink below the live
// allocation count is a policy call deliberately not made here.
func (e *Engine) UpdateResource(id model.Id, name *string, capacity uint32, bufferAfter *model.Time) error {
	if err := e.checkNameLen(name); err != nil {
		return err
	}
	if !e.store.Exists(id) {
		return e.reject(model.NewNotFound(id))
	}

	ev := model.ResourceUpdated{ID: id, Name: name, Capacity: capacity, BufferAfter: bufferAfter}
	if err := e.append(ev); err != nil {
		return err
	}
	h, ok := e.store.Lock(id)
	if !ok {
		return e.reject(model.NewNotFound(id))
	}
	store.ApplyEvent(h.State, ev)
	h.Unlock()
	e.logger.Info("resource updated", "id", id, "capacity", capacity)
	e.notify(id, ev)
	return nil
}

// DeleteResource removes a childless resource.
func (e *Engine) DeleteResource(id model.Id) error {
	if !e.store.Exists(id) {
		return e.reject(model.NewNotFound(id))
	}
	if e.store.HasChildren(id) {
		return e.reject(model.NewHasChildren(id))
	}

	ev := model.ResourceDeleted{ID: id}
	if err := e.append(ev); err != nil {
		return err
	}
	if e.metrics != nil {
		if h, ok := e.store.RLock(id); ok {
			holds, bookings := 0, 0
			for _, iv := range h.State.Intervals {
				switch iv.Kind.(type) {
				case model.Hold:
					holds++
				case model.Booking:
					bookings++
				}
			}
			h.RUnlock()
			e.addActiveHolds(-float64(holds))
			e.addActiveBookings(-float64(bookings))
		}
	}
	e.store.DeleteResource(id)
	e.logger.Info("resource deleted", "id", id)
	e.notify(id, ev)
	return nil
}
