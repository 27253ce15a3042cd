package model

import (
	"bytes"
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

// Id is a 128-bit opaque, client-supplied identifier, unique per tenant,
// backed by a UUIDv7 so that freshly generated ids sort lexically in
// roughly creation order.
type Id [16]byte

// NilID is the zero value; never a valid client-supplied id.
var NilID Id

// NewID generates a fresh, time-ordered Id.
func NewID() Id {
	u, err := uuid.NewV7()
	if err != nil {
		// crypto/rand failure; NewV7 only errors if the system RNG is
		// broken, in which case nothing downstream can make progress either.
		u = uuid.New()
	}
	return Id(u)
}

// ParseID parses the canonical text form of an id (8-4-4-4-12 hex).
func ParseID(s string) (Id, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Id{}, fmt.Errorf("parse id %q: %w", s, err)
	}
	return Id(u), nil
}

func (id Id) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the nil id.
func (id Id) IsZero() bool { return id == NilID }

// Compare returns -1, 0, or 1, ordering ids lexically by their byte
// representation (and therefore, for UUIDv7, roughly by creation time).
func (id Id) Compare(o Id) int {
	return bytes.Compare(id[:], o[:])
}

// Value implements driver.Valuer for use in logging/metadata contexts.
func (id Id) Value() (driver.Value, error) {
	return id.String(), nil
}

// OptionalID names the presence-optional id fields (parent_id and the
// like); it is purely a documentation alias for the pointer used at call
// sites that need presence semantics.
type OptionalID = *Id
