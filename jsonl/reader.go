package jsonl

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/observability"
	"github.com/kbukum/trainlog/record"
)

// Reader decodes JSON Lines.
type Reader struct {
	buf     *bufio.Reader
	closers []io.Closer
	name    string
	line    int
	count   int
	closed  bool
}

// NewReader returns a Reader on r. Close does not close r.
func NewReader(r io.Reader) *Reader {
	return newReader(r, "stream", nil)
}

func newReader(r io.Reader, name string, closers []io.Closer) *Reader {
	return &Reader{buf: bufio.NewReader(r), closers: closers, name: name}
}

// next returns the next non-blank line, or io.EOF.
func (r *Reader) next() ([]byte, error) {
	for {
		line, err := r.buf.ReadBytes('\n')
		if len(line) > 0 || err == nil {
			r.line++
		}
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			return trimmed, nil
		}
		if err == io.EOF {
			return nil, io.EOF
		}
		if err != nil {
			return nil, errors.IO("read", r.name, err)
		}
	}
}

// Decode reads the next value into v. It returns io.EOF past the last line.
func (r *Reader) Decode(v any) error {
	line, err := r.next()
	if err != nil {
		return err
	}
	return r.decode(line, v)
}

// ReadRecord reads the next line as a record. It returns io.EOF past the
// last line; a line that is not a JSON object, null included, fails with a
// DECODE_ERROR.
func (r *Reader) ReadRecord() (record.Record, error) {
	line, err := r.next()
	if err != nil {
		return record.Record{}, err
	}
	if line[0] != '{' {
		return record.Record{}, r.decodeError(fmt.Errorf("%.20s is not a JSON object", line))
	}
	var rec record.Record
	if err := r.decode(line, &rec); err != nil {
		return record.Record{}, err
	}
	return rec, nil
}

func (r *Reader) decode(line []byte, v any) error {
	if err := json.Unmarshal(line, v); err != nil {
		return r.decodeError(err)
	}
	r.count++
	return nil
}

func (r *Reader) decodeError(cause error) error {
	return errors.Decode(fmt.Sprintf("%s line %d", r.name, r.line), cause).
		WithDetail("line", r.line)
}

// ReadAll reads every remaining record.
func (r *Reader) ReadAll() ([]record.Record, error) {
	var out []record.Record
	for {
		rec, err := r.ReadRecord()
		if stderrors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

// Close closes any file and decompressor the reader owns. Closing twice is
// a no-op.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var err error
	for _, c := range r.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = errors.IO("close", r.name, cerr)
		}
	}
	observability.Default().RecordRead(context.Background(), r.name, r.count)
	debugLog().Debug("closed jsonl reader", logFields(r.name, r.count, err))
	return err
}
