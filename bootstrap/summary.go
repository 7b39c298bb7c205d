package bootstrap

import (
	"fmt"
	"io"
	"os"
	"time"
)

// SummaryItem is one tracked fact about a run.
type SummaryItem struct {
	Name  string
	Value any
}

// Summary collects and prints what a run did.
type Summary struct {
	name     string
	version  string
	duration time.Duration
	err      error
	items    []SummaryItem
	out      io.Writer
}

// NewSummary creates a summary printing to stderr.
func NewSummary(name, version string) *Summary {
	return &Summary{name: name, version: version, out: os.Stderr}
}

// Track records a named value. Tracking a name again replaces its value.
func (s *Summary) Track(name string, value any) {
	for i := range s.items {
		if s.items[i].Name == name {
			s.items[i].Value = value
			return
		}
	}
	s.items = append(s.items, SummaryItem{Name: name, Value: value})
}

// Items returns the tracked values in order.
func (s *Summary) Items() []SummaryItem { return s.items }

// SetDuration records the total run time.
func (s *Summary) SetDuration(d time.Duration) { s.duration = d }

// SetError records how the run ended.
func (s *Summary) SetError(err error) { s.err = err }

// Display prints the summary.
func (s *Summary) Display() {
	status := "✅ finished"
	if s.err != nil {
		status = "❌ failed"
	}
	fmt.Fprintf(s.out, "\n%s %s v%s in %.2fs\n", status, s.name, s.version, s.duration.Seconds())
	for i, item := range s.items {
		prefix := "├──"
		if i == len(s.items)-1 {
			prefix = "└──"
		}
		fmt.Fprintf(s.out, "   %s %s: %v\n", prefix, item.Name, item.Value)
	}
	if s.err != nil {
		fmt.Fprintf(s.out, "   error: %v\n", s.err)
	}
	fmt.Fprintln(s.out)
}
