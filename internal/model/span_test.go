package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanOverlapsHalfOpen(t *testing.T) {
	a := Span{Start: 0, End: 100}
	b := Span{Start: 100, End: 200}
	assert.False(t, a.Overlaps(b), "adjacent half-open spans share no instant")
	assert.False(t, b.Overlaps(a))

	c := Span{Start: 99, End: 150}
	assert.True(t, a.Overlaps(c))
	assert.True(t, c.Overlaps(a))
}

func TestSpanContains(t *testing.T) {
	s := Span{Start: 10, End: 20}
	assert.True(t, s.ContainsInstant(10))
	assert.False(t, s.ContainsInstant(20), "End is exclusive")
	assert.True(t, s.ContainsSpan(Span{Start: 10, End: 20}))
	assert.False(t, s.ContainsSpan(Span{Start: 10, End: 21}))
}

func TestSpanClamp(t *testing.T) {
	s := Span{Start: 0, End: 100}
	clamped, ok := s.Clamp(Span{Start: 50, End: 200})
	require.True(t, ok)
	assert.Equal(t, Span{Start: 50, End: 100}, clamped)

	_, ok = s.Clamp(Span{Start: 100, End: 200})
	assert.False(t, ok, "adjacent bounds clamp to nothing")
}

func TestNewSpanRejectsNonPositiveDuration(t *testing.T) {
	_, err := NewSpan(10, 10)
	assert.Error(t, err)
	_, err = NewSpan(10, 5)
	assert.Error(t, err)
	s, err := NewSpan(10, 11)
	require.NoError(t, err)
	assert.Equal(t, Time(1), s.Duration())
}

func TestIDOrderingAndText(t *testing.T) {
	a := NewID()
	b := NewID()
	assert.NotEqual(t, a, b)
	// UUIDv7 ids generated in sequence sort in generation order
	assert.Negative(t, a.Compare(b))

	parsed, err := ParseID(a.String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)

	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)
	assert.True(t, NilID.IsZero())
	assert.False(t, a.IsZero())
}

func TestEngineErrorKindOf(t *testing.T) {
	err := NewConflict(NewID())
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrConflict, kind)
	assert.True(t, IsConflict(err))
	assert.False(t, IsNotFound(err))

	_, ok = KindOf(assert.AnError)
	assert.False(t, ok)
}
