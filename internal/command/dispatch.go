package command

import (
	"fmt"

	"github.com/intervaldb/intervaldb/internal/engine"
	"github.com/intervaldb/intervaldb/internal/model"
)

// Row is one output row of a Select* command. Field sets vary by command,
// so it's a plain map rather than one struct per shape — the external
// dispatcher (wire framing, out of this core's scope) is what gives rows a
// column order and wire type.
type Row map[string]any

// Result is what Dispatch returns for any Command: zero or more rows.
// Mutating commands return no rows when they succeed; the nil error is
// the acknowledgement.
type Result struct {
	Rows []Row
}

// Dispatch executes cmd against eng, one engine operation per command
// variant. sess is nil for commands that don't touch subscription state.
func Dispatch(eng *engine.Engine, sess *Session, cmd Command) (Result, error) {
	switch c := cmd.(type) {
	case InsertResource:
		if err := eng.CreateResource(c.ID, c.ParentID, c.Name, c.Capacity, c.BufferAfter); err != nil {
			return Result{}, err
		}
		return ackResult(), nil

	case UpdateResource:
		if err := eng.UpdateResource(c.ID, c.Name, c.Capacity, c.BufferAfter); err != nil {
			return Result{}, err
		}
		return ackResult(), nil

	case DeleteResource:
		if err := eng.DeleteResource(c.ID); err != nil {
			return Result{}, err
		}
		return ackResult(), nil

	case InsertRule:
		span, err := model.NewSpan(c.Start, c.End)
		if err != nil {
			return Result{}, err
		}
		if err := eng.AddRule(c.ID, c.ResourceID, span, c.Blocking); err != nil {
			return Result{}, err
		}
		return ackResult(), nil

	case UpdateRule:
		span, err := model.NewSpan(c.Start, c.End)
		if err != nil {
			return Result{}, err
		}
		if err := eng.UpdateRule(c.ID, span, c.Blocking); err != nil {
			return Result{}, err
		}
		return ackResult(), nil

	case DeleteRule:
		if err := eng.RemoveRule(c.ID); err != nil {
			return Result{}, err
		}
		return ackResult(), nil

	case InsertHold:
		span, err := model.NewSpan(c.Start, c.End)
		if err != nil {
			return Result{}, err
		}
		if err := eng.PlaceHold(c.ID, c.ResourceID, span, c.ExpiresAt); err != nil {
			return Result{}, err
		}
		return ackResult(), nil

	case DeleteHold:
		if err := eng.ReleaseHold(c.ID); err != nil {
			return Result{}, err
		}
		return ackResult(), nil

	case InsertBooking:
		span, err := model.NewSpan(c.Start, c.End)
		if err != nil {
			return Result{}, err
		}
		if err := eng.ConfirmBooking(c.ID, c.ResourceID, span, c.Label); err != nil {
			return Result{}, err
		}
		return ackResult(), nil

	case BatchInsertBookings:
		rows := make([]engine.BookingRow, len(c.Rows))
		for i, r := range c.Rows {
			span, err := model.NewSpan(r.Start, r.End)
			if err != nil {
				return Result{}, err
			}
			rows[i] = engine.BookingRow{ID: r.ID, ResourceID: r.ResourceID, Span: span, Label: r.Label}
		}
		if err := eng.BatchConfirmBookings(rows); err != nil {
			return Result{}, err
		}
		return ackResult(), nil

	case DeleteBooking:
		if err := eng.CancelBooking(c.ID); err != nil {
			return Result{}, err
		}
		return ackResult(), nil

	case SelectResources:
		var rows []Row
		for _, r := range eng.ListResources(c.ResourceID) {
			rows = append(rows, Row{
				"id": r.ID, "parent_id": r.ParentID, "name": r.Name,
				"capacity": r.Capacity, "buffer_after": r.BufferAfter,
			})
		}
		return Result{Rows: rows}, nil

	case SelectRules:
		var rows []Row
		for _, ri := range eng.GetRules(c.ResourceID) {
			rows = append(rows, intervalRow(ri))
		}
		return Result{Rows: rows}, nil

	case SelectHolds:
		var rows []Row
		for _, ri := range eng.GetHolds(c.ResourceID) {
			rows = append(rows, intervalRow(ri))
		}
		return Result{Rows: rows}, nil

	case SelectBookings:
		var rows []Row
		for _, ri := range eng.GetBookings(c.ResourceID) {
			rows = append(rows, intervalRow(ri))
		}
		return Result{Rows: rows}, nil

	case SelectAvailability:
		span, err := model.NewSpan(c.Start, c.End)
		if err != nil {
			return Result{}, err
		}
		spans, err := eng.ComputeAvailability(c.ResourceID, span, c.MinDuration)
		if err != nil {
			return Result{}, err
		}
		rows := make([]Row, len(spans))
		for i, s := range spans {
			rows[i] = Row{"resource_id_text": c.ResourceID.String(), "start_ms": int64(s.Start), "end_ms": int64(s.End)}
		}
		return Result{Rows: rows}, nil

	case SelectMultiAvailability:
		span, err := model.NewSpan(c.Start, c.End)
		if err != nil {
			return Result{}, err
		}
		spans, err := eng.ComputeMultiAvailability(c.ResourceIDs, span, c.MinAvailable, c.MinDuration)
		if err != nil {
			return Result{}, err
		}
		rows := make([]Row, len(spans))
		for i, s := range spans {
			rows[i] = Row{"start_ms": int64(s.Start), "end_ms": int64(s.End)}
		}
		return Result{Rows: rows}, nil

	case Listen:
		if sess == nil {
			return Result{}, fmt.Errorf("command: Listen requires a session")
		}
		sess.Listen(c.Channel)
		return ackResult(), nil

	case Unlisten:
		if sess == nil {
			return Result{}, fmt.Errorf("command: Unlisten requires a session")
		}
		sess.Unlisten(c.Channel)
		return ackResult(), nil

	case UnlistenAll:
		if sess == nil {
			return Result{}, fmt.Errorf("command: UnlistenAll requires a session")
		}
		sess.UnlistenAll()
		return ackResult(), nil

	default:
		return Result{}, fmt.Errorf("command: unhandled command %T", cmd)
	}
}

func ackResult() Result { return Result{Rows: nil} }

func intervalRow(ri engine.ResourceInterval) Row {
	row := Row{
		"id":          ri.Interval.ID,
		"resource_id": ri.ResourceID,
		"start_ms":    int64(ri.Interval.Span.Start),
		"end_ms":      int64(ri.Interval.Span.End),
	}
	switch k := ri.Interval.Kind.(type) {
	case model.NonBlocking:
		row["blocking"] = false
	case model.Blocking:
		row["blocking"] = true
	case model.Hold:
		row["expires_at"] = int64(k.ExpiresAt)
	case model.Booking:
		row["label"] = k.Label
	}
	return row
}
