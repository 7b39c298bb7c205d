package recorder

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/kbukum/trainlog/record"
	"github.com/kbukum/trainlog/validation"
)

// Option configures a Recorder.
type Option func(*options)

type options struct {
	annotators []Annotator
	noDefaults bool
	noHeader   bool
	noGzip     bool
	now        func() time.Time
}

// WithAnnotators appends annotators, applied after the defaults in order.
func WithAnnotators(a ...Annotator) Option {
	return func(o *options) { o.annotators = append(o.annotators, a...) }
}

// WithoutDefaultAnnotators drops SetID and SetTime.
func WithoutDefaultAnnotators() Option {
	return func(o *options) { o.noDefaults = true }
}

// WithoutHeader skips the header record. Header fields cannot be given
// alongside it.
func WithoutHeader() Option {
	return func(o *options) { o.noHeader = true }
}

// WithoutGzip leaves a file log uncompressed on Close.
func WithoutGzip() Option {
	return func(o *options) { o.noGzip = true }
}

// WithClock replaces time.Now for the default SetTime annotator and line
// durations.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.noDefaults {
		o.annotators = append([]Annotator{SetID, SetTime(o.now)}, o.annotators...)
	}
	return o
}

func (o options) validate(header record.Record) error {
	return o.check(header).Error("recorder")
}

// check validates the header fields. A caller-supplied "id" replaces the
// generated one and may be any non-empty string or a number.
func (o options) check(header record.Record) *validation.Validator {
	keys := header.Keys()
	v := validation.New().
		Reserved("header", keys, record.KindField).
		Custom(!o.noHeader || len(keys) == 0, "header",
			fmt.Sprintf("fields %s given but the header is disabled", strings.Join(keys, ", ")))
	if id, ok := header.Get("id"); ok {
		v.Custom(validID(id), "header.id", "must be a non-empty string or a number")
	}
	return v
}

func validID(id any) bool {
	switch x := id.(type) {
	case string:
		return x != ""
	case nil, bool:
		return false
	}
	_, err := cast.ToFloat64E(id)
	return err == nil
}
