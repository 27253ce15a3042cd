// Package wal implements the write-ahead log: a bit-exact binary entry
// framing, a buffered append/fsync writer, crash-safe replay, and
// temp-file-plus-atomic-rename compaction.
package wal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/intervaldb/intervaldb/internal/model"
)

// Entry format (bit-exact): a u32 little-endian payload length, the
// payload itself, then a u32 little-endian CRC32 (IEEE 802.3 polynomial)
// of the payload.
//
// Encode serializes ev as a fixed binary layout: a one-byte variant tag
// followed by its fields in declaration order. Strings are length-prefixed
// (u32 LE byte count); optional fields (*model.Id, *string, *model.Time)
// are prefixed by a one-byte 0/1 discriminant.
func Encode(ev model.Event) ([]byte, error) {
	var b binWriter
	switch e := ev.(type) {
	case model.ResourceCreated:
		b.tag(tagResourceCreated)
		b.id(e.ID)
		b.optID(e.ParentID)
		b.optString(e.Name)
		b.u32(e.Capacity)
		b.optTime(e.BufferAfter)
	case model.ResourceUpdated:
		b.tag(tagResourceUpdated)
		b.id(e.ID)
		b.optString(e.Name)
		b.u32(e.Capacity)
		b.optTime(e.BufferAfter)
	case model.ResourceDeleted:
		b.tag(tagResourceDeleted)
		b.id(e.ID)
	case model.RuleAdded:
		b.tag(tagRuleAdded)
		b.id(e.ID)
		b.id(e.ResourceID)
		b.span(e.Span)
		b.boolean(e.Blocking)
	case model.RuleRemoved:
		b.tag(tagRuleRemoved)
		b.id(e.ID)
	case model.RuleUpdated:
		b.tag(tagRuleUpdated)
		b.id(e.ID)
		b.span(e.Span)
		b.boolean(e.Blocking)
	case model.HoldPlaced:
		b.tag(tagHoldPlaced)
		b.id(e.ID)
		b.id(e.ResourceID)
		b.span(e.Span)
		b.time(e.ExpiresAt)
	case model.HoldReleased:
		b.tag(tagHoldReleased)
		b.id(e.ID)
	case model.BookingConfirmed:
		b.tag(tagBookingConfirmed)
		b.id(e.ID)
		b.id(e.ResourceID)
		b.span(e.Span)
		b.optString(e.Label)
	case model.BookingCancelled:
		b.tag(tagBookingCancelled)
		b.id(e.ID)
	default:
		return nil, fmt.Errorf("wal: encode: unhandled event variant %T", ev)
	}
	return b.buf, b.err
}

// Decode deserializes a payload produced by Encode back into an Event.
func Decode(payload []byte) (model.Event, error) {
	r := binReader{buf: payload}
	tag := r.tag()
	var ev model.Event
	switch tag {
	case tagResourceCreated:
		ev = model.ResourceCreated{ID: r.id(), ParentID: r.optID(), Name: r.optString(), Capacity: r.u32(), BufferAfter: r.optTime()}
	case tagResourceUpdated:
		ev = model.ResourceUpdated{ID: r.id(), Name: r.optString(), Capacity: r.u32(), BufferAfter: r.optTime()}
	case tagResourceDeleted:
		ev = model.ResourceDeleted{ID: r.id()}
	case tagRuleAdded:
		ev = model.RuleAdded{ID: r.id(), ResourceID: r.id(), Span: r.span(), Blocking: r.boolean()}
	case tagRuleRemoved:
		ev = model.RuleRemoved{ID: r.id()}
	case tagRuleUpdated:
		ev = model.RuleUpdated{ID: r.id(), Span: r.span(), Blocking: r.boolean()}
	case tagHoldPlaced:
		ev = model.HoldPlaced{ID: r.id(), ResourceID: r.id(), Span: r.span(), ExpiresAt: r.time()}
	case tagHoldReleased:
		ev = model.HoldReleased{ID: r.id()}
	case tagBookingConfirmed:
		ev = model.BookingConfirmed{ID: r.id(), ResourceID: r.id(), Span: r.span(), Label: r.optString()}
	case tagBookingCancelled:
		ev = model.BookingCancelled{ID: r.id()}
	default:
		return nil, fmt.Errorf("wal: decode: unknown tag %d", tag)
	}
	if r.err != nil {
		return nil, r.err
	}
	return ev, nil
}

const (
	tagResourceCreated byte = iota
	tagResourceUpdated
	tagResourceDeleted
	tagRuleAdded
	tagRuleRemoved
	tagRuleUpdated
	tagHoldPlaced
	tagHoldReleased
	tagBookingConfirmed
	tagBookingCancelled
)

// frameEntry wraps an encoded payload in the [len][payload][crc] envelope.
func frameEntry(payload []byte) []byte {
	frame := make([]byte, 4+len(payload)+4)
	binary.LittleEndian.PutUint32(frame[0:4], uint32(len(payload)))
	copy(frame[4:4+len(payload)], payload)
	crc := crc32.ChecksumIEEE(payload)
	binary.LittleEndian.PutUint32(frame[4+len(payload):], crc)
	return frame
}

// readEntry reads one [len][payload][crc] frame from r. It returns
// io.EOF (unwrapped, via errors.Is) when the stream ends exactly on an
// entry boundary, and errTruncated/errCorrupt for a partial or
// checksum-mismatched tail, both of which the replay loop treats as "stop
// cleanly, discard this entry and everything after."
func readEntry(r io.Reader) (payload []byte, err error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errTruncated
	}
	length := binary.LittleEndian.Uint32(lenBuf[:])

	payload = make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, errTruncated
	}

	var crcBuf [4]byte
	if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
		return nil, errTruncated
	}
	wantCRC := binary.LittleEndian.Uint32(crcBuf[:])
	if crc32.ChecksumIEEE(payload) != wantCRC {
		return nil, errCorrupt
	}
	return payload, nil
}
