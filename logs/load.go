package logs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/jsonl"
	"github.com/kbukum/trainlog/logger"
	"github.com/kbukum/trainlog/observability"
	"github.com/kbukum/trainlog/pipeline"
	"github.com/kbukum/trainlog/record"
)

// Load returns a log read lazily from a JSON Lines file, gzipped or not.
// A leading header record gains a "metadata" field with the file's path
// and timestamps.
func Load(path string) *Log {
	src := jsonl.ReadFile(path)
	events := pipeline.FromFunc(func(ctx context.Context) pipeline.Iterator[record.Record] {
		ctx, span := observability.StartSpan(ctx, observability.SpanLoad)
		span.SetAttributes(attribute.String(observability.AttrPath, path))
		it := &metadataIter{path: path, span: span}
		counted := pipeline.Tap(src, func(context.Context, record.Record) error {
			it.count++
			return nil
		})
		it.src = counted.Iter(ctx)
		return it
	})
	return New(events, fmt.Sprintf("File(%q)", path))
}

type metadataIter struct {
	src     pipeline.Iterator[record.Record]
	path    string
	span    trace.Span
	started bool
	count   int
}

func (it *metadataIter) Next(ctx context.Context) (record.Record, bool, error) {
	r, ok, err := it.src.Next(ctx)
	if err != nil || !ok {
		return r, ok, err
	}
	if it.started {
		return r, true, nil
	}
	it.started = true
	if !r.IsHeader() {
		return r, true, nil
	}
	meta, err := fileMetadata(it.path)
	if err != nil {
		return record.Record{}, false, err
	}
	return r.With("metadata", meta), true, nil
}

func (it *metadataIter) Close() error {
	it.span.SetAttributes(attribute.Int(observability.AttrRecords, it.count))
	it.span.End()
	return it.src.Close()
}

// fileMetadata describes path. Creation time is not portable, so "created"
// reports the modification time too.
func fileMetadata(path string) (record.Record, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return record.Record{}, errors.IO("resolve", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return record.Record{}, errors.IO("stat", path, err)
	}
	modified := info.ModTime().Format(time.RFC3339)
	return record.New("path", abs, "created", modified, "modified", modified), nil
}

// Glob loads every file matching pattern, in sorted order. When recursive,
// "**" matches any number of directories; otherwise it matches like "*".
func Glob(ctx context.Context, pattern string, recursive bool) (*LogSet, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanGlob)
	defer span.End()
	span.SetAttributes(
		attribute.String(observability.AttrPattern, pattern),
		attribute.Bool("glob.recursive", recursive),
	)

	var (
		matches []string
		err     error
	)
	if recursive {
		matches, err = doublestar.FilepathGlob(pattern)
	} else {
		matches, err = filepath.Glob(pattern)
	}
	if err != nil {
		err = errors.Usage(fmt.Sprintf("bad glob pattern %q", pattern)).WithCause(err)
		observability.SetSpanError(ctx, err)
		return nil, err
	}
	sort.Strings(matches)

	span.SetAttributes(attribute.Int(observability.AttrMatches, len(matches)))
	logger.Get("logs").Debug("glob matched files", logger.Fields(
		logger.FieldPattern, pattern, "matches", len(matches),
	))

	loaded := make([]*Log, len(matches))
	for i, path := range matches {
		loaded[i] = Load(path)
	}
	return NewSet(loaded...), nil
}
