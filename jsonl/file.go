package jsonl

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/logger"
	"github.com/kbukum/trainlog/pipeline"
	"github.com/kbukum/trainlog/record"
)

func debugLog() *logger.Logger { return logger.Get("jsonl") }

// Option configures how a file is opened or written.
type Option func(*options)

type options struct {
	gzip     *bool
	sortKeys bool
}

// WithGzip forces compression on or off instead of detecting it from the
// file extension.
func WithGzip(enabled bool) Option {
	return func(o *options) { o.gzip = &enabled }
}

// WithSortedKeys writes record fields in sorted order instead of field order.
func WithSortedKeys() Option {
	return func(o *options) { o.sortKeys = true }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// IsGzipPath reports whether path has a gzip extension (.gz or .gzip).
func IsGzipPath(path string) bool {
	switch filepath.Ext(path) {
	case ".gz", ".gzip":
		return true
	}
	return false
}

func (o options) useGzip(path string) bool {
	if o.gzip != nil {
		return *o.gzip
	}
	return IsGzipPath(path)
}

// Open opens a JSON Lines file for reading.
func Open(path string, opts ...Option) (*Reader, error) {
	o := buildOptions(opts)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IO("open", path, err)
	}
	if !o.useGzip(path) {
		debugLog().Debug("opened jsonl file", logger.Fields(logger.FieldPath, path))
		return newReader(f, path, []io.Closer{f}), nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.IO("open gzip", path, err)
	}
	debugLog().Debug("opened jsonl file", logger.Fields(logger.FieldPath, path, "gzip", true))
	return newReader(zr, path, []io.Closer{zr, f}), nil
}

// Create creates or truncates a JSON Lines file for writing.
func Create(path string, opts ...Option) (*Writer, error) {
	o := buildOptions(opts)
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.IO("create", path, err)
	}
	debugLog().Debug("created jsonl file", logger.Fields(logger.FieldPath, path, "gzip", o.useGzip(path)))
	if !o.useGzip(path) {
		return newWriter(f, path, []io.Closer{f}, o), nil
	}
	zw := gzip.NewWriter(f)
	return newWriter(zw, path, []io.Closer{zw, f}, o), nil
}

// ReadFile returns a lazy pipeline over the records of path. Each traversal
// reopens the file; a file that cannot be opened fails the first pull.
func ReadFile(path string, opts ...Option) *pipeline.Pipeline[record.Record] {
	return pipeline.FromFunc(func(_ context.Context) pipeline.Iterator[record.Record] {
		r, err := Open(path, opts...)
		if err != nil {
			return &fileIter{err: err}
		}
		return &fileIter{r: r}
	})
}

type fileIter struct {
	r   *Reader
	err error
}

func (it *fileIter) Next(ctx context.Context) (record.Record, bool, error) {
	if it.err != nil {
		return record.Record{}, false, it.err
	}
	if err := ctx.Err(); err != nil {
		return record.Record{}, false, err
	}
	rec, err := it.r.ReadRecord()
	if stderrors.Is(err, io.EOF) {
		return record.Record{}, false, nil
	}
	if err != nil {
		return record.Record{}, false, err
	}
	return rec, true, nil
}

func (it *fileIter) Close() error {
	if it.r == nil {
		return nil
	}
	return it.r.Close()
}

// WriteFile writes every record of src to path and returns how many were
// written.
func WriteFile(ctx context.Context, path string, src *pipeline.Pipeline[record.Record], opts ...Option) (int, error) {
	w, err := Create(path, opts...)
	if err != nil {
		return 0, err
	}
	err = pipeline.ForEach(ctx, src, func(_ context.Context, r record.Record) error {
		return w.Write(r)
	})
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return w.Count(), err
}

func logFields(name string, count int, err error) map[string]interface{} {
	f := logger.Fields(logger.FieldPath, name, logger.FieldRecords, count)
	if err != nil {
		f[logger.FieldError] = err.Error()
	}
	return f
}
