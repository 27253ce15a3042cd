package store

import (
	"sync"

	"github.com/intervaldb/intervaldb/internal/model"
)

// lockedResource pairs a ResourceState with the exclusive lock that guards
// every mutation to it. Readers take RLock, mutators take Lock.
type lockedResource struct {
	mu    sync.RWMutex
	state *ResourceState
}

// InMemoryStore is the tenant's in-memory working set: one lockable
// ResourceState per resource, plus two reverse indexes (entity id ->
// owning resource id, parent id -> child ids). All three maps sit behind
// one store-level RWMutex; none of them is lock-free.
type InMemoryStore struct {
	mu        sync.RWMutex // guards the three maps' structure, not ResourceState contents
	resources map[model.Id]*lockedResource
	entities  map[model.Id]model.Id
	children  map[model.Id][]model.Id
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		resources: make(map[model.Id]*lockedResource),
		entities:  make(map[model.Id]model.Id),
		children:  make(map[model.Id][]model.Id),
	}
}

// Handle is a resource's lock plus its state, returned to callers that need
// to hold the lock across several operations (e.g. the engine validating
// then mutating).
type Handle struct {
	lr    *lockedResource
	State *ResourceState
}

// Unlock releases the exclusive lock taken by InMemoryStore.Lock or TryLock.
func (h *Handle) Unlock() { h.lr.mu.Unlock() }

// RUnlock releases the shared lock taken by InMemoryStore.RLock.
func (h *Handle) RUnlock() { h.lr.mu.RUnlock() }

// ParentID returns the locked resource's parent pointer.
func (h *Handle) ParentID() *model.Id { return h.State.ParentID }

// Overlapping returns the locked resource's intervals overlapping query.
func (h *Handle) Overlapping(query model.Span) []model.Interval {
	return h.State.Overlapping(query)
}

// BufferAfterOrZero returns the locked resource's configured buffer, or 0.
func (h *Handle) BufferAfterOrZero() model.Time { return h.State.BufferAfterOrZero() }

// Lock looks up a resource and returns it locked for exclusive access, or
// false if it doesn't exist.
func (s *InMemoryStore) Lock(id model.Id) (*Handle, bool) {
	s.mu.RLock()
	lr, ok := s.resources[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	lr.mu.Lock()
	return &Handle{lr: lr, State: lr.state}, true
}

// RLock looks up a resource and returns it locked for shared access, or
// false if it doesn't exist.
func (s *InMemoryStore) RLock(id model.Id) (*Handle, bool) {
	s.mu.RLock()
	lr, ok := s.resources[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	lr.mu.RLock()
	return &Handle{lr: lr, State: lr.state}, true
}

// TryLock attempts to acquire the resource's exclusive lock without
// blocking. Used by the reaper's "skip contended resources" scan.
func (s *InMemoryStore) TryLock(id model.Id) (*Handle, bool) {
	s.mu.RLock()
	lr, ok := s.resources[id]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !lr.mu.TryLock() {
		return nil, false
	}
	return &Handle{lr: lr, State: lr.state}, true
}

// Exists reports whether a resource id is present, without locking it.
func (s *InMemoryStore) Exists(id model.Id) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.resources[id]
	return ok
}

// Count returns the number of resources currently in the store.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}

// CreateResource inserts a new, empty ResourceState and links the
// parent/child index. Returns false if id is already present.
func (s *InMemoryStore) CreateResource(rs *ResourceState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.resources[rs.ID]; exists {
		return false
	}
	s.resources[rs.ID] = &lockedResource{state: rs}
	if rs.ParentID != nil {
		s.children[*rs.ParentID] = append(s.children[*rs.ParentID], rs.ID)
	}
	return true
}

// DeleteResource removes a resource and its parent/child linkage. The
// caller is responsible for having verified it has no children.
func (s *InMemoryStore) DeleteResource(id model.Id) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lr, ok := s.resources[id]
	if !ok {
		return
	}
	if lr.state.ParentID != nil {
		siblings := s.children[*lr.state.ParentID]
		for i, c := range siblings {
			if c == id {
				s.children[*lr.state.ParentID] = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	for _, iv := range lr.state.Intervals {
		delete(s.entities, iv.ID)
	}
	delete(s.children, id)
	delete(s.resources, id)
}

// HasChildren reports whether id has any live children.
func (s *InMemoryStore) HasChildren(id model.Id) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.children[id]) > 0
}

// Children returns a copy of id's child resource ids.
func (s *InMemoryStore) Children(id model.Id) []model.Id {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Id, len(s.children[id]))
	copy(out, s.children[id])
	return out
}

// AllResourceIDs returns every resource id currently in the store, in
// creation-map iteration order (callers needing a deterministic order, e.g.
// compaction, should topologically sort it themselves).
func (s *InMemoryStore) AllResourceIDs() []model.Id {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Id, 0, len(s.resources))
	for id := range s.resources {
		out = append(out, id)
	}
	return out
}

// BindEntity records that entity id belongs to resourceID.
func (s *InMemoryStore) BindEntity(entity, resourceID model.Id) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[entity] = resourceID
}

// UnbindEntity removes the entity index entry.
func (s *InMemoryStore) UnbindEntity(entity model.Id) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, entity)
}

// ResolveEntity returns the resource id owning entity, if bound.
func (s *InMemoryStore) ResolveEntity(entity model.Id) (model.Id, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rid, ok := s.entities[entity]
	return rid, ok
}

// UpdateFields mutates the resource's Name/Capacity/BufferAfter in place.
// Caller must hold the resource's exclusive lock (e.g. via Lock).
func (rs *ResourceState) UpdateFields(name *string, capacity uint32, bufferAfter *model.Time) {
	rs.Name = name
	rs.Capacity = capacity
	rs.BufferAfter = bufferAfter
}
