package recorder

import (
	"os"
	"sync"
	"time"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/jsonl"
	"github.com/kbukum/trainlog/logger"
	"github.com/kbukum/trainlog/record"
)

// Sink receives finished records.
type Sink interface {
	Write(r record.Record) error
	Close() error
}

// Recorder appends events to a Sink. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	sink    Sink
	hooks   []Hook
	now     func() time.Time
	closed  bool
	onClose func() error
}

// New writes the header (unless WithoutHeader) to sink and returns a
// Recorder for subsequent events.
func New(sink Sink, header record.Record, opts ...Option) (*Recorder, error) {
	o := buildOptions(opts)
	if err := o.validate(header); err != nil {
		return nil, err
	}
	return newRecorder(sink, header, o)
}

func newRecorder(sink Sink, header record.Record, o options) (*Recorder, error) {
	r := &Recorder{sink: sink, now: o.now}
	if !o.noHeader {
		header = record.New(record.KindField, record.HeaderKind).Merge(header)
	} else {
		header = record.Record{}
	}
	for _, annotate := range o.annotators {
		var hook Hook
		header, hook = annotate(header)
		if hook != nil {
			r.hooks = append(r.hooks, hook)
		}
	}
	if !header.IsZero() {
		if err := r.write(header); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Open creates a JSON Lines log at path. On Close the file is gzipped to
// path+".gz" unless WithoutGzip is given. Invalid header fields fail before
// anything is created.
func Open(path string, header record.Record, opts ...Option) (*Recorder, error) {
	o := buildOptions(opts)
	if err := o.check(header).Required("path", path).Error("recorder"); err != nil {
		return nil, err
	}
	var fileOpts []jsonl.Option
	if !o.noGzip {
		fileOpts = append(fileOpts, jsonl.WithGzip(false))
	}
	w, err := jsonl.Create(path, fileOpts...)
	if err != nil {
		return nil, err
	}
	r, err := newRecorder(fileSink{w}, header, o)
	if err != nil {
		w.Close()
		if rerr := os.Remove(path); rerr != nil {
			logger.Get("recorder").Warn("removing partial log", logger.ErrorFields("remove", rerr))
		}
		return nil, err
	}
	if !o.noGzip {
		r.onClose = func() error {
			_, err := jsonl.Gzip(path)
			return err
		}
	}
	logger.Get("recorder").Debug("opened log", logger.Fields(logger.FieldPath, path, "gzip", !o.noGzip))
	return r, nil
}

type fileSink struct{ w *jsonl.Writer }

func (s fileSink) Write(r record.Record) error { return s.w.Write(r) }
func (s fileSink) Close() error                { return s.w.Close() }

// Add writes an event of the given kind with alternating key-value fields.
func (r *Recorder) Add(kind string, kvs ...any) error {
	return r.write(event(kind, kvs))
}

// Adding starts an event that is written when its Line is committed. The
// line's duration is measured from this call.
func (r *Recorder) Adding(kind string, kvs ...any) *Line {
	return &Line{rec: r, event: event(kind, kvs), start: r.now()}
}

func event(kind string, kvs []any) record.Record {
	return record.New(record.KindField, kind).Merge(record.New(kvs...))
}

func (r *Recorder) write(ev record.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.Usage("write to closed recorder")
	}
	for _, hook := range r.hooks {
		ev = hook(ev)
	}
	return r.sink.Write(ev)
}

// Close closes the sink and, for file logs, compresses the file. Closing
// twice is a no-op.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.sink.Close(); err != nil {
		return err
	}
	if r.onClose != nil {
		return r.onClose()
	}
	return nil
}

// Line is an event built up over time.
type Line struct {
	rec       *Recorder
	event     record.Record
	start     time.Time
	committed bool
}

// Set adds fields to the pending event.
func (l *Line) Set(kvs ...any) error {
	if l.committed {
		return errors.Usage("set on a committed line")
	}
	l.event = l.event.Merge(record.New(kvs...))
	return nil
}

// Commit adds "duration" seconds since Adding and writes the event.
func (l *Line) Commit() error {
	if l.committed {
		return errors.Usage("line already committed")
	}
	l.committed = true
	return l.rec.write(l.event.With("duration", l.rec.now().Sub(l.start).Seconds()))
}
