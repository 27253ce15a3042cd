package wal

import (
	"encoding/binary"
	"errors"

	"github.com/intervaldb/intervaldb/internal/model"
)

// errTruncated and errCorrupt are the two ways readEntry signals "this
// entry is unusable"; both are treated identically by Replay (stop, discard
// this entry and everything after).
var (
	errTruncated = errors.New("wal: truncated entry")
	errCorrupt   = errors.New("wal: crc mismatch")
)

// binWriter accumulates a payload's fixed binary encoding, deferring error
// checks to a single field at the end (none of the individual writes can
// actually fail; the field exists so Encode's call sites read linearly).
type binWriter struct {
	buf []byte
	err error
}

func (w *binWriter) tag(t byte) { w.buf = append(w.buf, t) }

func (w *binWriter) boolean(b bool) {
	if b {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *binWriter) u32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *binWriter) time(t model.Time) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(t))
	w.buf = append(w.buf, b[:]...)
}

func (w *binWriter) optTime(t *model.Time) {
	if t == nil {
		w.boolean(false)
		return
	}
	w.boolean(true)
	w.time(*t)
}

func (w *binWriter) id(id model.Id) { w.buf = append(w.buf, id[:]...) }

func (w *binWriter) optID(id *model.Id) {
	if id == nil {
		w.boolean(false)
		return
	}
	w.boolean(true)
	w.id(*id)
}

func (w *binWriter) str(s string) {
	w.u32(uint32(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *binWriter) optString(s *string) {
	if s == nil {
		w.boolean(false)
		return
	}
	w.boolean(true)
	w.str(*s)
}

func (w *binWriter) span(s model.Span) {
	w.time(s.Start)
	w.time(s.End)
}

// binReader mirrors binWriter on the decode side. The first error
// encountered is sticky: subsequent reads become no-ops so call sites can
// read linearly and check r.err once at the end.
type binReader struct {
	buf []byte
	pos int
	err error
}

func (r *binReader) need(n int) []byte {
	if r.err != nil {
		return make([]byte, n)
	}
	if r.pos+n > len(r.buf) {
		r.err = errors.New("wal: decode: payload too short")
		return make([]byte, n)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *binReader) tag() byte { return r.need(1)[0] }

func (r *binReader) boolean() bool { return r.need(1)[0] != 0 }

func (r *binReader) u32() uint32 { return binary.LittleEndian.Uint32(r.need(4)) }

func (r *binReader) time() model.Time { return model.Time(binary.LittleEndian.Uint64(r.need(8))) }

func (r *binReader) optTime() *model.Time {
	if !r.boolean() {
		return nil
	}
	t := r.time()
	return &t
}

func (r *binReader) id() model.Id {
	var id model.Id
	copy(id[:], r.need(16))
	return id
}

func (r *binReader) optID() *model.Id {
	if !r.boolean() {
		return nil
	}
	id := r.id()
	return &id
}

func (r *binReader) str() string {
	n := int(r.u32())
	return string(r.need(n))
}

func (r *binReader) optString() *string {
	if !r.boolean() {
		return nil
	}
	s := r.str()
	return &s
}

func (r *binReader) span() model.Span {
	start := r.time()
	end := r.time()
	return model.Span{Start: start, End: end}
}
