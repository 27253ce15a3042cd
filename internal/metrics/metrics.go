// Package metrics wires the engine's operational counters into a
// Prometheus registry, exposed (when configured) via internal/adminapi's
// /metrics endpoint.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles every collector the engine and its drivers publish to.
type Registry struct {
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer

	WalAppends       *prometheus.CounterVec
	WalCompactions   prometheus.Counter
	ActiveHolds      prometheus.Gauge
	ActiveBookings   prometheus.Gauge
	NotifyDrops      prometheus.Counter
	ReaperHoldsGCd   prometheus.Counter
	ReaperBookingsGCd prometheus.Counter
	EngineErrors     *prometheus.CounterVec
}

// New creates a fresh registry with all collectors registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		Registerer: reg,
		Gatherer:   reg,
		WalAppends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intervaldb",
			Name:      "wal_appends_total",
			Help:      "WAL entries appended, by event kind.",
		}, []string{"kind"}),
		WalCompactions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intervaldb",
			Name:      "wal_compactions_total",
			Help:      "WAL compactions performed.",
		}),
		ActiveHolds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "intervaldb",
			Name:      "active_holds",
			Help:      "Holds currently placed across all tenants (expired ones count until released or collected).",
		}),
		ActiveBookings: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "intervaldb",
			Name:      "active_bookings",
			Help:      "Bookings currently confirmed across all tenants.",
		}),
		NotifyDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intervaldb",
			Name:      "notify_drops_total",
			Help:      "Events dropped because a subscriber's buffer was full.",
		}),
		ReaperHoldsGCd: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intervaldb",
			Name:      "reaper_holds_collected_total",
			Help:      "Expired holds collected by the reaper driver.",
		}),
		ReaperBookingsGCd: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "intervaldb",
			Name:      "reaper_bookings_collected_total",
			Help:      "Past bookings garbage-collected by the reaper driver.",
		}),
		EngineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "intervaldb",
			Name:      "engine_errors_total",
			Help:      "Engine operations that returned an EngineError, by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		r.WalAppends, r.WalCompactions, r.ActiveHolds, r.ActiveBookings,
		r.NotifyDrops, r.ReaperHoldsGCd, r.ReaperBookingsGCd, r.EngineErrors,
	)
	return r
}
