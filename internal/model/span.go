package model

import "fmt"

// Span is a half-open interval [Start, End) of milliseconds.
type Span struct {
	Start Time
	End   Time
}

// NewSpan constructs a Span, rejecting a non-positive duration.
func NewSpan(start, end Time) (Span, error) {
	s := Span{Start: start, End: end}
	if !s.Valid() {
		return Span{}, fmt.Errorf("invalid span [%d, %d): start must be < end", start, end)
	}
	return s, nil
}

// Valid reports whether Start < End.
func (s Span) Valid() bool { return s.Start < s.End }

// Duration returns the span's length in milliseconds.
func (s Span) Duration() Time { return s.End - s.Start }

// Overlaps reports whether s and o share any instant: start < other.end &&
// other.start < end. Adjacent spans ([a,b) and [b,c)) do not overlap.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// ContainsInstant reports whether t falls within [Start, End).
func (s Span) ContainsInstant(t Time) bool {
	return s.Start <= t && t < s.End
}

// ContainsSpan reports whether o lies entirely within s.
func (s Span) ContainsSpan(o Span) bool {
	return s.Start <= o.Start && o.End <= s.End
}

// Clamp returns the intersection of s and bounds, or false if they don't
// overlap.
func (s Span) Clamp(bounds Span) (Span, bool) {
	if !s.Overlaps(bounds) {
		return Span{}, false
	}
	start := s.Start
	if bounds.Start > start {
		start = bounds.Start
	}
	end := s.End
	if bounds.End < end {
		end = bounds.End
	}
	return Span{Start: start, End: end}, true
}

// WithBufferAfter extends the span's end by buffer milliseconds, used to
// turn an allocation's raw span into its buffered conflict/availability
// footprint.
func (s Span) WithBufferAfter(buffer Time) Span {
	return Span{Start: s.Start, End: s.End + buffer}
}

func (s Span) String() string {
	return fmt.Sprintf("[%d, %d)", s.Start, s.End)
}
