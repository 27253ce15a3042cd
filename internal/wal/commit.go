package wal

import (
	"sync"

	"github.com/intervaldb/intervaldb/internal/model"
)

// Writer is the single goroutine that owns a WAL File. Every caller reaches
// the file only through its bounded command channel, batching concurrent
// Appends into one FlushSync per batch: the durability boundary is
// per-batch, not per-event, so throughput scales with concurrent callers
// and no caller sees an ack before its bytes are on disk.
type Writer struct {
	cmds      chan command
	done      chan struct{}
	closeOnce sync.Once
}

type command interface{ isCommand() }

// appendCmd asks the writer to encode and buffer-append ev, replying on
// reply once the batch it lands in has been flush_sync'd.
type appendCmd struct {
	ev    model.Event
	reply chan error
}

func (appendCmd) isCommand() {}

// compactCmd asks the writer to drain any pending batch, then compact the
// file down to payloads.
type compactCmd struct {
	payloads [][]byte
	reply    chan error
}

func (compactCmd) isCommand() {}

// countCmd asks for the current appends-since-compaction counter.
type countCmd struct {
	reply chan int64
}

func (countCmd) isCommand() {}

// NewWriter spawns the group-commit goroutine over an already-open File
// and returns a handle to send it commands. Call Close to stop it.
func NewWriter(f *File) *Writer {
	w := &Writer{cmds: make(chan command, 256), done: make(chan struct{})}
	go w.run(f)
	return w
}

// Append encodes ev, enqueues it, and blocks until the batch it lands in
// has been fsynced (or failed).
func (w *Writer) Append(ev model.Event) error {
	reply := make(chan error, 1)
	w.cmds <- appendCmd{ev: ev, reply: reply}
	return <-reply
}

// Compact enqueues a compaction behind any pending batch and blocks until
// it completes.
func (w *Writer) Compact(payloads [][]byte) error {
	reply := make(chan error, 1)
	w.cmds <- compactCmd{payloads: payloads, reply: reply}
	return <-reply
}

// AppendsSinceCompact returns the writer's current counter.
func (w *Writer) AppendsSinceCompact() int64 {
	reply := make(chan int64, 1)
	w.cmds <- countCmd{reply: reply}
	return <-reply
}

// Close stops the writer goroutine after it finishes any in-flight batch.
// Safe to call more than once.
func (w *Writer) Close() {
	w.closeOnce.Do(func() { close(w.cmds) })
	<-w.done
}

// run implements the batching protocol: block for the first command; if
// it's an Append, buffer it and non-blockingly drain every
// immediately-available Append, appending each to the same batch; stop
// draining on an empty channel or a non-Append command. A single
// FlushSync closes the batch and every caller in it receives the same
// outcome. If draining was interrupted by a non-Append, the pending batch
// is flushed and acked first, then the interrupting command is handled.
func (w *Writer) run(f *File) {
	defer close(w.done)
	var file = f
	for cmd, ok := <-w.cmds; ok; cmd, ok = <-w.cmds {
		switch c := cmd.(type) {
		case appendCmd:
			batch := []appendCmd{c}
			var interrupting command
		drain:
			for {
				select {
				case next, ok := <-w.cmds:
					if !ok {
						interrupting = nil
						break drain
					}
					if a, isAppend := next.(appendCmd); isAppend {
						batch = append(batch, a)
						continue
					}
					interrupting = next
					break drain
				default:
					break drain
				}
			}

			err := flushBatch(file, batch)
			for _, b := range batch {
				b.reply <- err
			}

			if interrupting != nil {
				file = w.handleOne(file, interrupting)
			}

		case compactCmd:
			file = w.handleOne(file, c)

		case countCmd:
			c.reply <- file.AppendsSinceCompact()
		}
	}
}

func flushBatch(file *File, batch []appendCmd) error {
	for _, b := range batch {
		payload, err := Encode(b.ev)
		if err != nil {
			return err
		}
		if err := file.AppendBuffered(payload); err != nil {
			return err
		}
	}
	return file.FlushSync()
}

// handleOne processes a single non-Append command (Compact or Count) and
// returns the (possibly reopened) File to keep using.
func (w *Writer) handleOne(file *File, cmd command) *File {
	switch c := cmd.(type) {
	case compactCmd:
		newFile, err := Compact(file.Path(), c.payloads)
		if err != nil {
			c.reply <- err
			return file
		}
		file.Close()
		c.reply <- nil
		return newFile
	case countCmd:
		c.reply <- file.AppendsSinceCompact()
		return file
	default:
		return file
	}
}
