package availability

import (
	"github.com/intervaldb/intervaldb/internal/model"
	"github.com/intervaldb/intervaldb/internal/store"
)

// WalkInherited climbs the ancestor chain starting at parentID, collecting
// the rule sets a child resource inherits. Each ancestor's lock is
// acquired, inspected, and released before climbing further, so the walk
// never holds two locks at once. Once an ancestor has contributed a non-blocking
// rule, deeper ancestors' non-blocking rules are ignored, but blocking
// accumulation continues to the depth limit.
func WalkInherited(st *store.InMemoryStore, parentID *model.Id, query model.Span, maxDepth int) (nonBlocking, blocking []model.Span, err error) {
	seen := make(map[model.Id]struct{})
	current := parentID
	depth := 0
	nonBlockingDone := false

	for current != nil {
		if depth >= maxDepth {
			return nil, nil, model.NewLimitExceeded("inherited rule walk exceeded maximum hierarchy depth")
		}
		if _, ok := seen[*current]; ok {
			return nil, nil, model.NewCycleDetected(*current)
		}
		seen[*current] = struct{}{}

		h, ok := st.RLock(*current)
		if !ok {
			break // bubbling/inheritance stops at a missing resource
		}
		var contributedNonBlocking bool
		for _, iv := range h.Overlapping(query) {
			switch iv.Kind.(type) {
			case model.Blocking:
				if clamped, ok := iv.Span.Clamp(query); ok {
					blocking = append(blocking, clamped)
				}
			case model.NonBlocking:
				if !nonBlockingDone {
					if clamped, ok := iv.Span.Clamp(query); ok {
						nonBlocking = append(nonBlocking, clamped)
						contributedNonBlocking = true
					}
				}
			}
		}
		next := h.ParentID()
		h.RUnlock()

		if contributedNonBlocking {
			nonBlockingDone = true
		}
		current = next
		depth++
	}

	return nonBlocking, blocking, nil
}
