package recorder

import (
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/trainlog/record"
)

// Hook rewrites every event before it is written, the header included.
type Hook func(event record.Record) record.Record

// Annotator decorates the header once when a log opens and may return a
// Hook for subsequent events. header is the zero Record when the log has no
// header; annotators must return it unchanged in that case.
type Annotator func(header record.Record) (record.Record, Hook)

// SetID adds a random "id" to the header unless the caller supplied one.
func SetID(header record.Record) (record.Record, Hook) {
	if header.IsZero() || header.Has("id") {
		return header, nil
	}
	return header.With("id", uuid.NewString()), nil
}

// SetTime returns an annotator that stamps the header with the wall-clock
// "time" (RFC3339) and adds "elapsed" seconds since opening to every event.
func SetTime(now func() time.Time) Annotator {
	return func(header record.Record) (record.Record, Hook) {
		start := now()
		if !header.IsZero() {
			header = header.With("time", start.Format(time.RFC3339))
		}
		return header, func(event record.Record) record.Record {
			return event.With("elapsed", now().Sub(start).Seconds())
		}
	}
}
