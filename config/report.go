package config

import (
	"fmt"
	"time"

	"github.com/kbukum/trainlog/errors"
	"github.com/kbukum/trainlog/logger"
	"github.com/kbukum/trainlog/ops"
	"github.com/kbukum/trainlog/validation"
)

// ReportConfig configures the trainlog-report command.
type ReportConfig struct {
	Name        string          `yaml:"name" mapstructure:"name" validate:"required"`
	Environment string          `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version     string          `yaml:"version" mapstructure:"version"`
	Input       InputConfig     `yaml:"input" mapstructure:"input"`
	Ops         OpsConfig       `yaml:"ops" mapstructure:"ops"`
	Output      OutputConfig    `yaml:"output" mapstructure:"output"`
	Logging     logger.Config   `yaml:"logging" mapstructure:"logging"`
	Telemetry   TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
}

// InputConfig selects the log files to read.
type InputConfig struct {
	Pattern   string `yaml:"pattern" mapstructure:"pattern" validate:"required"`
	Recursive bool   `yaml:"recursive" mapstructure:"recursive"`
}

// OpsConfig lists the operations applied to every log, in this order:
// header copies, copies, counts, sums, then windows.
type OpsConfig struct {
	Header  []string       `yaml:"header" mapstructure:"header"`
	Copy    []CopyConfig   `yaml:"copy" mapstructure:"copy" validate:"dive"`
	Count   []string       `yaml:"count" mapstructure:"count"`
	Sum     []string       `yaml:"sum" mapstructure:"sum"`
	Windows []WindowConfig `yaml:"windows" mapstructure:"windows" validate:"dive"`
	// Duck skips sums and windows on records that lack their field instead
	// of failing the run.
	Duck bool `yaml:"duck" mapstructure:"duck"`
}

// CopyConfig carries the last value of field from records of SourceKind
// onto every record, as SourceKind_Field unless As is set.
type CopyConfig struct {
	SourceKind string `yaml:"source_kind" mapstructure:"source_kind" validate:"required"`
	Field      string `yaml:"field" mapstructure:"field" validate:"required"`
	As         string `yaml:"as" mapstructure:"as"`
}

// WindowConfig reduces field over the last Size records of Kind.
type WindowConfig struct {
	Kind   string `yaml:"kind" mapstructure:"kind" validate:"required"`
	Field  string `yaml:"field" mapstructure:"field" validate:"required"`
	Size   int    `yaml:"size" mapstructure:"size" validate:"min=1"`
	Reduce string `yaml:"reduce" mapstructure:"reduce" validate:"oneof=mean max last"`
	As     string `yaml:"as" mapstructure:"as"`
}

// OutputConfig selects the records and columns written as CSV.
type OutputConfig struct {
	Kind    string   `yaml:"kind" mapstructure:"kind"`
	Columns []string `yaml:"columns" mapstructure:"columns"`
	// Path is the CSV file to write; empty writes to stdout.
	Path string `yaml:"path" mapstructure:"path"`
}

// TelemetryConfig enables OTLP export of spans and metrics.
type TelemetryConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint   string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure   bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	Interval   time.Duration `yaml:"interval" mapstructure:"interval"`
}

// ApplyDefaults fills unset fields.
func (c *ReportConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "trainlog-report"
	}
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	for i := range c.Ops.Copy {
		if cp := &c.Ops.Copy[i]; cp.As == "" {
			cp.As = cp.SourceKind + "_" + cp.Field
		}
	}
	for i := range c.Ops.Windows {
		if c.Ops.Windows[i].Reduce == "" {
			c.Ops.Windows[i].Reduce = "mean"
		}
	}
	c.Logging.ApplyDefaults()
	c.Telemetry.applyDefaults()
}

func (c *TelemetryConfig) applyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
}

// Validate checks the configuration. Call ApplyDefaults first.
func (c *ReportConfig) Validate() error {
	if err := validation.ValidateFor("config", c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return errors.InvalidConfig("config", err.Error()).WithCause(err)
	}
	return nil
}

// Operations builds the configured operations.
func (c *OpsConfig) Operations() ([]ops.Operation, error) {
	var out []ops.Operation
	add := func(op ops.Operation, err error) error {
		if err != nil {
			return err
		}
		out = append(out, op)
		return nil
	}
	duck := func(op ops.Operation, err error) (ops.Operation, error) {
		if err != nil || !c.Duck {
			return op, err
		}
		return ops.Duck(op)
	}

	for _, key := range c.Header {
		if err := add(ops.Header(key)); err != nil {
			return nil, err
		}
	}
	for _, cp := range c.Copy {
		if err := add(ops.Copy(cp.SourceKind, cp.Field, cp.As)); err != nil {
			return nil, err
		}
	}
	for _, kind := range c.Count {
		if err := add(ops.CountIf(ops.Kind(kind), ops.As("count_"+kind))); err != nil {
			return nil, err
		}
	}
	for _, field := range c.Sum {
		if err := add(duck(ops.Sum(ops.Get(field, ops.Required())))); err != nil {
			return nil, err
		}
	}
	for _, w := range c.Windows {
		var opts []ops.Option
		if w.As != "" {
			opts = append(opts, ops.As(w.As))
		}
		reducer, err := reducerFor(w)
		if err != nil {
			return nil, err
		}
		if err := add(duck(ops.Window(ops.Kind(w.Kind), w.Size, reducer, opts...))); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func reducerFor(w WindowConfig) (ops.Reducer, error) {
	switch w.Reduce {
	case "mean", "":
		return ops.ReduceMean(w.Field), nil
	case "max":
		return ops.ReduceMax(w.Field), nil
	case "last":
		return ops.ReduceLast(w.Field), nil
	}
	return nil, errors.InvalidConfig("config", fmt.Sprintf("unknown reducer %q", w.Reduce))
}
