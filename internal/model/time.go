// Package model defines the data types the reservation engine operates on:
// the time representation, spans, resource identifiers, interval kinds,
// resources, committed events, and the closed error taxonomy.
package model

// Time is a signed count of milliseconds since the Unix epoch. Every
// timestamp in the system — span bounds, hold expiries, "now" — shares this
// one representation.
type Time int64

// MinValidTimestamp and MaxValidTimestamp bound what the core accepts as a
// span endpoint; the engine rejects spans outside this range with
// LimitExceeded.
const (
	MinValidTimestamp Time = 0
	MaxValidTimestamp Time = 4102444800000 // 2100-01-01T00:00:00Z
)

// Before reports whether t occurs strictly before o.
func (t Time) Before(o Time) bool { return t < o }

// After reports whether t occurs strictly after o.
func (t Time) After(o Time) bool { return t > o }
