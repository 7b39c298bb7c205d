package jsonl

import (
	"bufio"
	"context"
	"io"

	"github.com/goccy/go-json"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/observability"
	"github.com/kbukum/trainlog/record"
)

// Writer encodes values as JSON Lines.
type Writer struct {
	buf     *bufio.Writer
	enc     *json.Encoder
	closers []io.Closer
	opts    options
	name    string
	count   int
	closed  bool
}

// NewWriter returns a Writer on w. Close flushes but does not close w.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	return newWriter(w, "stream", nil, buildOptions(opts))
}

func newWriter(w io.Writer, name string, closers []io.Closer, o options) *Writer {
	buf := bufio.NewWriter(w)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return &Writer{buf: buf, enc: enc, closers: closers, opts: o, name: name}
}

// Write encodes v on its own line. Records keep their field order unless
// the writer sorts keys.
func (w *Writer) Write(v any) error {
	if w.closed {
		return errors.Usage("write to closed jsonl writer " + w.name)
	}
	if r, ok := v.(record.Record); ok && w.opts.sortKeys {
		v = r.Map()
	}
	if err := w.enc.Encode(v); err != nil {
		return errors.IO("encode", w.name, err)
	}
	w.count++
	return nil
}

// Count returns the number of values written so far.
func (w *Writer) Count() int { return w.count }

// Flush writes buffered lines to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.buf.Flush(); err != nil {
		return errors.IO("flush", w.name, err)
	}
	return nil
}

// Close flushes and closes any file and compressor the writer owns. Closing
// twice is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.Flush()
	for _, c := range w.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = errors.IO("close", w.name, cerr)
		}
	}
	observability.Default().RecordWritten(context.Background(), w.name, w.count)
	debugLog().Debug("closed jsonl writer", logFields(w.name, w.count, err))
	return err
}
