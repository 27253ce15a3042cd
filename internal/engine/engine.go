// Package engine implements the core temporal reservation engine: resource
// hierarchy management, rules, holds, bookings, availability queries, and
// the WAL-backed durability and notification that back them. One Engine
// serves one tenant; internal/tenant.Manager owns the map from tenant name
// to Engine.
package engine

import (
	"log/slog"

	"github.com/intervaldb/intervaldb/internal/config"
	"github.com/intervaldb/intervaldb/internal/metrics"
	"github.com/intervaldb/intervaldb/internal/model"
	"github.com/intervaldb/intervaldb/internal/notify"
	"github.com/intervaldb/intervaldb/internal/store"
	"github.com/intervaldb/intervaldb/internal/wal"
)

// Engine is the tenant's public operation surface: every operation either
// mutates through the WAL writer and notifies subscribers, or reads a
// consistent snapshot under the relevant lock(s).
type Engine struct {
	logger  *slog.Logger
	limits  config.Limits
	store   *store.InMemoryStore
	writer  *wal.Writer
	hub     *notify.Hub
	metrics *metrics.Registry

	// now lets tests supply a deterministic clock; production code leaves
	// it nil and Engine falls back to wallNow.
	now func() model.Time
}

// Open replays path (if it exists), rebuilds in-memory state, and starts
// the engine's group-commit writer. A missing file is not an error: the
// engine starts empty.
func Open(path string, limits config.Limits, logger *slog.Logger, reg *metrics.Registry) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := wal.Replay(path)
	if err != nil {
		return nil, model.NewWalError(err.Error())
	}
	st, err := rebuildStore(entries)
	if err != nil {
		return nil, model.NewWalError(err.Error())
	}

	f, err := wal.OpenFile(path)
	if err != nil {
		return nil, model.NewWalError(err.Error())
	}

	hub := notify.New()
	if reg != nil {
		hub.OnDrop = reg.NotifyDrops.Inc
		seedAllocationGauges(st, reg)
	}

	logger.Info("engine opened", "path", path, "replayed_entries", len(entries))

	return &Engine{
		logger:  logger,
		limits:  limits,
		store:   st,
		writer:  wal.NewWriter(f),
		hub:     hub,
		metrics: reg,
	}, nil
}

// seedAllocationGauges adds the replayed state's hold/booking counts to the
// shared gauges. Add rather than Set: one registry serves every tenant's
// engine in the process.
func seedAllocationGauges(st *store.InMemoryStore, reg *metrics.Registry) {
	holds, bookings := 0, 0
	for _, id := range st.AllResourceIDs() {
		h, ok := st.RLock(id)
		if !ok {
			continue
		}
		for _, iv := range h.State.Intervals {
			switch iv.Kind.(type) {
			case model.Hold:
				holds++
			case model.Booking:
				bookings++
			}
		}
		h.RUnlock()
	}
	reg.ActiveHolds.Add(float64(holds))
	reg.ActiveBookings.Add(float64(bookings))
}

// Close stops the engine's WAL writer goroutine after any in-flight batch
// completes.
func (e *Engine) Close() {
	e.writer.Close()
}

// Subscribe registers a NotifyHub subscription on resourceID. Connection-
// scoped Listen/Unlisten bookkeeping lives one level up, in
// internal/command.Session — the engine itself only hands out
// subscriptions, it doesn't track which external connection owns which.
func (e *Engine) Subscribe(resourceID model.Id) *notify.Subscription {
	return e.hub.Subscribe(resourceID)
}

func (e *Engine) nowMs() model.Time {
	if e.now != nil {
		return e.now()
	}
	return wallNow()
}

// append encodes and durably appends ev, recording a metric on success.
func (e *Engine) append(ev model.Event) error {
	if err := e.writer.Append(ev); err != nil {
		return e.reject(model.NewWalError(err.Error()))
	}
	if e.metrics != nil {
		e.metrics.WalAppends.WithLabelValues(eventKindLabel(ev)).Inc()
	}
	return nil
}

// reject counts err in the engine-errors metric before handing it back.
// Call it where the error enters the engine — at creation, or where an
// error from another package crosses into an engine operation — so each
// failure is counted exactly once.
func (e *Engine) reject(err error) error {
	if e.metrics != nil {
		if kind, ok := model.KindOf(err); ok {
			e.metrics.EngineErrors.WithLabelValues(kind.String()).Inc()
		}
	}
	return err
}

func (e *Engine) addActiveHolds(delta float64) {
	if e.metrics != nil {
		e.metrics.ActiveHolds.Add(delta)
	}
}

func (e *Engine) addActiveBookings(delta float64) {
	if e.metrics != nil {
		e.metrics.ActiveBookings.Add(delta)
	}
}

// notify emits ev to resourceID's subscribers, then bubbles the same event
// up the ancestor chain to every ancestor that has subscribers. A
// sibling never sees another child's events since bubbling only walks
// ancestors, never siblings. It stops at the root, at a missing resource,
// or at the hierarchy depth limit.
func (e *Engine) notify(resourceID model.Id, ev model.Event) {
	e.hub.Send(resourceID, ev)

	h, ok := e.store.RLock(resourceID)
	if !ok {
		return
	}
	parent := h.ParentID()
	h.RUnlock()

	depth := 0
	for parent != nil && depth < e.limits.MaxHierarchyDepth {
		if e.hub.HasSubscribers(*parent) {
			e.hub.Send(*parent, ev)
		}
		h, ok := e.store.RLock(*parent)
		if !ok {
			return
		}
		next := h.ParentID()
		h.RUnlock()
		parent = next
		depth++
	}
}

func eventKindLabel(ev model.Event) string {
	switch ev.(type) {
	case model.ResourceCreated:
		return "resource_created"
	case model.ResourceUpdated:
		return "resource_updated"
	case model.ResourceDeleted:
		return "resource_deleted"
	case model.RuleAdded:
		return "rule_added"
	case model.RuleRemoved:
		return "rule_removed"
	case model.RuleUpdated:
		return "rule_updated"
	case model.HoldPlaced:
		return "hold_placed"
	case model.HoldReleased:
		return "hold_released"
	case model.BookingConfirmed:
		return "booking_confirmed"
	case model.BookingCancelled:
		return "booking_cancelled"
	default:
		return "unknown"
	}
}

