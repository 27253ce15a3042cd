package engine

import (
	"fmt"

	"github.com/intervaldb/intervaldb/internal/model"
	"github.com/intervaldb/intervaldb/internal/store"
	"github.com/intervaldb/intervaldb/internal/wal"
)

// rebuildStore replays decoded WAL entries into a fresh InMemoryStore, in
// the order they were written. It is the startup counterpart of
// apply_event: resource create/delete go through the store directly (they
// mutate the store's maps, not a single ResourceState); everything else
// goes through store.ApplyEvent on the already-locked resource, with the
// entity index kept in step exactly as the live engine keeps it.
func rebuildStore(entries []wal.DecodedEvent) (*store.InMemoryStore, error) {
	st := store.NewInMemoryStore()

	for _, entry := range entries {
		switch e := entry.Event.(type) {
		case model.ResourceCreated:
			rs := store.NewResourceState(e.ID, e.ParentID, e.Name, e.Capacity, e.BufferAfter)
			if !st.CreateResource(rs) {
				return nil, fmt.Errorf("engine: replay: duplicate ResourceCreated for %s", e.ID)
			}

		case model.ResourceDeleted:
			st.DeleteResource(e.ID)

		case model.ResourceUpdated:
			if err := applyOnResource(st, e.ID, e); err != nil {
				return nil, err
			}

		case model.RuleAdded:
			if err := applyOnResource(st, e.ResourceID, e); err != nil {
				return nil, err
			}
			st.BindEntity(e.ID, e.ResourceID)

		case model.RuleUpdated:
			resourceID, ok := st.ResolveEntity(e.ID)
			if !ok {
				return nil, fmt.Errorf("engine: replay: RuleUpdated for unknown entity %s", e.ID)
			}
			if err := applyOnResource(st, resourceID, e); err != nil {
				return nil, err
			}

		case model.RuleRemoved:
			resourceID, ok := st.ResolveEntity(e.ID)
			if !ok {
				return nil, fmt.Errorf("engine: replay: RuleRemoved for unknown entity %s", e.ID)
			}
			if err := applyOnResource(st, resourceID, e); err != nil {
				return nil, err
			}
			st.UnbindEntity(e.ID)

		case model.HoldPlaced:
			if err := applyOnResource(st, e.ResourceID, e); err != nil {
				return nil, err
			}
			st.BindEntity(e.ID, e.ResourceID)

		case model.HoldReleased:
			resourceID, ok := st.ResolveEntity(e.ID)
			if !ok {
				return nil, fmt.Errorf("engine: replay: HoldReleased for unknown entity %s", e.ID)
			}
			if err := applyOnResource(st, resourceID, e); err != nil {
				return nil, err
			}
			st.UnbindEntity(e.ID)

		case model.BookingConfirmed:
			if err := applyOnResource(st, e.ResourceID, e); err != nil {
				return nil, err
			}
			st.BindEntity(e.ID, e.ResourceID)

		case model.BookingCancelled:
			resourceID, ok := st.ResolveEntity(e.ID)
			if !ok {
				return nil, fmt.Errorf("engine: replay: BookingCancelled for unknown entity %s", e.ID)
			}
			if err := applyOnResource(st, resourceID, e); err != nil {
				return nil, err
			}
			st.UnbindEntity(e.ID)
		}
	}

	return st, nil
}

func applyOnResource(st *store.InMemoryStore, resourceID model.Id, ev model.Event) error {
	h, ok := st.Lock(resourceID)
	if !ok {
		return fmt.Errorf("engine: replay: event for unknown resource %s", resourceID)
	}
	defer h.Unlock()
	store.ApplyEvent(h.State, ev)
	return nil
}
