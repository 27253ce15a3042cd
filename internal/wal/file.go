package wal

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
	"sync/atomic"

	"github.com/intervaldb/intervaldb/internal/model"
)

// File owns the on-disk WAL for one tenant's engine. Every write funnels
// through it; there is exactly one File per engine, held by the
// group-commit Writer goroutine (commit.go).
type File struct {
	path   string
	f      *os.File
	bw     *bufio.Writer
	sinceC int64 // appends since last compaction, atomic
}

// OpenFile opens (creating if necessary) the WAL at path for appending.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &File{path: path, f: f, bw: bufio.NewWriter(f)}, nil
}

// AppendBuffered writes the entry's [len][payload][crc] frame to the
// buffered writer without fsyncing.
func (w *File) AppendBuffered(payload []byte) error {
	_, err := w.bw.Write(frameEntry(payload))
	if err != nil {
		return err
	}
	atomic.AddInt64(&w.sinceC, 1)
	return nil
}

// FlushSync flushes the user-space buffer, then fsyncs the underlying
// file.
func (w *File) FlushSync() error {
	if err := w.bw.Flush(); err != nil {
		return err
	}
	return w.f.Sync()
}

// AppendsSinceCompact returns the monotone counter of appends performed
// since the file was last (re)opened after a compaction.
func (w *File) AppendsSinceCompact() int64 {
	return atomic.LoadInt64(&w.sinceC)
}

// Close closes the underlying file without flushing; callers must
// FlushSync first if pending writes must survive.
func (w *File) Close() error {
	return w.f.Close()
}

// Path returns the WAL's file path.
func (w *File) Path() string { return w.path }

// Replay reads every entry from the WAL at path, decoding each into an
// Event. A missing file is not an error — it returns an empty sequence. A
// truncated tail, a CRC mismatch, or a deserialization failure on any
// entry stops replay cleanly: that entry and everything after it are
// discarded, and everything read so far is returned with no error. Replay
// never half-applies an entry — Decode either returns a whole Event or the
// raw bytes are dropped.
func Replay(path string) ([]DecodedEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var out []DecodedEvent
	for {
		payload, err := readEntry(r)
		if err != nil {
			// io.EOF on a clean boundary, errTruncated on a partial tail,
			// errCorrupt on a bad checksum: all three mean "stop here".
			break
		}
		ev, err := Decode(payload)
		if err != nil {
			break
		}
		out = append(out, DecodedEvent{Event: ev, Payload: payload})
	}
	return out, nil
}

// DecodedEvent pairs a replayed Event with the exact bytes it decoded
// from.
type DecodedEvent struct {
	Event   model.Event
	Payload []byte
}

// Compact writes payloads (already-encoded events, in the order they
// should be replayed) to a sibling temp file, flushes, fsyncs, then
// atomically renames it over path. It returns a freshly opened File in
// append mode with its appends-since-compaction counter reset. The
// group-commit Writer runs the whole call on its own goroutine, so appends
// queue behind the entire compaction; it never blocks readers of in-memory
// state.
func Compact(path string, payloads [][]byte) (*File, error) {
	tmpPath := path + ".tmp"
	tf, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for _, p := range payloads {
		buf.Write(frameEntry(p))
	}
	if _, err := tf.Write(buf.Bytes()); err != nil {
		tf.Close()
		return nil, err
	}
	if err := tf.Sync(); err != nil {
		tf.Close()
		return nil, err
	}
	if err := tf.Close(); err != nil {
		return nil, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return nil, err
	}

	return OpenFile(path)
}

var _ io.Closer = (*File)(nil)
