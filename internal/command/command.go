// Package command defines the Command/Row contract an external
// dispatcher (the wire protocol layer, out of this core's scope) uses to
// drive the engine, and Dispatch, the single function that executes one
// Command against a tenant's Engine.
package command

import "github.com/intervaldb/intervaldb/internal/model"

// Command is the closed set of operations the engine accepts, one per
// engine operation.
type Command interface {
	command()
}

type InsertResource struct {
	ID          model.Id
	ParentID    *model.Id
	Name        *string
	Capacity    uint32
	BufferAfter *model.Time
}

func (InsertResource) command() {}

type UpdateResource struct {
	ID          model.Id
	Name        *string
	Capacity    uint32
	BufferAfter *model.Time
}

func (UpdateResource) command() {}

type DeleteResource struct{ ID model.Id }

func (DeleteResource) command() {}

type InsertRule struct {
	ID         model.Id
	ResourceID model.Id
	Start, End model.Time
	Blocking   bool
}

func (InsertRule) command() {}

type UpdateRule struct {
	ID         model.Id
	Start, End model.Time
	Blocking   bool
}

func (UpdateRule) command() {}

type DeleteRule struct{ ID model.Id }

func (DeleteRule) command() {}

type InsertHold struct {
	ID         model.Id
	ResourceID model.Id
	Start, End model.Time
	ExpiresAt  model.Time
}

func (InsertHold) command() {}

type DeleteHold struct{ ID model.Id }

func (DeleteHold) command() {}

type InsertBooking struct {
	ID         model.Id
	ResourceID model.Id
	Start, End model.Time
	Label      *string
}

func (InsertBooking) command() {}

// BatchInsertBookingsRow is one row of a BatchInsertBookings command.
type BatchInsertBookingsRow struct {
	ID         model.Id
	ResourceID model.Id
	Start, End model.Time
	Label      *string
}

type BatchInsertBookings struct{ Rows []BatchInsertBookingsRow }

func (BatchInsertBookings) command() {}

type DeleteBooking struct{ ID model.Id }

func (DeleteBooking) command() {}

type SelectResources struct{ ResourceID *model.Id }

func (SelectResources) command() {}

type SelectRules struct{ ResourceID *model.Id }

func (SelectRules) command() {}

type SelectBookings struct{ ResourceID *model.Id }

func (SelectBookings) command() {}

type SelectHolds struct{ ResourceID *model.Id }

func (SelectHolds) command() {}

type SelectAvailability struct {
	ResourceID  model.Id
	Start, End  model.Time
	MinDuration model.Time // 0 means unset
}

func (SelectAvailability) command() {}

type SelectMultiAvailability struct {
	ResourceIDs  []model.Id
	Start, End   model.Time
	MinAvailable int
	MinDuration  model.Time
}

func (SelectMultiAvailability) command() {}

type Listen struct{ Channel string }

func (Listen) command() {}

type Unlisten struct{ Channel string }

func (Unlisten) command() {}

type UnlistenAll struct{}

func (UnlistenAll) command() {}
