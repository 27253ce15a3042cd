package engine

import (
	"github.com/intervaldb/intervaldb/internal/availability"
	"github.com/intervaldb/intervaldb/internal/interval"
	"github.com/intervaldb/intervaldb/internal/model"
	"github.com/intervaldb/intervaldb/internal/store"
)

// AddRule adds a non-blocking or blocking rule to a resource. A
// non-blocking rule on a resource with a parent must be fully covered by
// the parent's current availability over the rule's span; blocking
// rules are never projection-validated since they only ever restrict.
func (e *Engine) AddRule(id, resourceID model.Id, span model.Span, blocking bool) error {
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
	if !blocking && h.State.ParentID != nil {
		if err := e.validateProjection(*h.State.ParentID, span); err != nil {
			return err
		}
	}

	ev := model.RuleAdded{ID: id, ResourceID: resourceID, Span: span, Blocking: blocking}
	if err := e.append(ev); err != nil {
		return err
	}
	store.ApplyEvent(h.State, ev)
	e.store.BindEntity(id, resourceID)
	e.logger.Info("rule added", "id", id, "resource_id", resourceID, "blocking", blocking)
	e.notify(resourceID, ev)
	return nil
}

// validateProjection computes parentID's current availability over span
// and requires it cover span entirely.
func (e *Engine) validateProjection(parentID model.Id, span model.Span) error {
	ph, ok := e.store.RLock(parentID)
	if !ok {
		return e.reject(model.NewNotFound(parentID))
	}
	nonBlocking, blocking, err := availability.WalkInherited(e.store, ph.ParentID(), span, e.limits.MaxHierarchyDepth)
	if err != nil {
		ph.RUnlock()
		return e.reject(err)
	}
	parentAvail := availability.Compute(ph.State, span, nonBlocking, blocking, e.nowMs())
	ph.RUnlock()

	uncovered := interval.SubtractIntervals([]model.Span{span}, parentAvail)
	if len(uncovered) > 0 {
		return e.reject(model.NewNotCoveredByParent(span, uncovered))
	}
	return nil
}

// UpdateRule re-validates and replaces a rule's span/kind atomically
// (remove-then-insert under one lock, one WAL entry).
func (e *Engine) UpdateRule(id model.Id, span model.Span, blocking bool) error {
	if err := e.checkSpan(span); err != nil {
		return err
	}
	resourceID, ok := e.store.ResolveEntity(id)
	if !ok {
		return e.reject(model.NewNotFound(id))
	}
	h, ok := e.store.Lock(resourceID)
	if !ok {
		return e.reject(model.NewNotFound(resourceID))
	}
	defer h.Unlock()

	if !blocking && h.State.ParentID != nil {
		if err := e.validateProjection(*h.State.ParentID, span); err != nil {
			return err
		}
	}

	ev := model.RuleUpdated{ID: id, Span: span, Blocking: blocking}
	if err := e.append(ev); err != nil {
		return err
	}
	store.ApplyEvent(h.State, ev)
	e.logger.Info("rule updated", "id", id, "resource_id", resourceID)
	e.notify(resourceID, ev)
	return nil
}

// RemoveRule deletes a rule by id.
func (e *Engine) RemoveRule(id model.Id) error {
	resourceID, ok := e.store.ResolveEntity(id)
	if !ok {
		return e.reject(model.NewNotFound(id))
	}
	h, ok := e.store.Lock(resourceID)
	if !ok {
		return e.reject(model.NewNotFound(resourceID))
	}
	defer h.Unlock()

	ev := model.RuleRemoved{ID: id}
	if err := e.append(ev); err != nil {
		return err
	}
	store.ApplyEvent(h.State, ev)
	e.store.UnbindEntity(id)
	e.logger.Info("rule removed", "id", id, "resource_id", resourceID)
	e.notify(resourceID, ev)
	return nil
}
