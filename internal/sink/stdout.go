package sink

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/modules"
)

// StdoutSink renders records as an aligned text table, used for dry runs and
// ad-hoc inspection.
type StdoutSink struct {
	out    io.Writer
	schema *modules.Schema
	tw     *tabwriter.Writer
}

// NewStdout creates a sink writing to out.
func NewStdout(out io.Writer) *StdoutSink {
	return &StdoutSink{out: out}
}

// EnsureSchema prints the header row.
func (s *StdoutSink) EnsureSchema(_ context.Context, schema *modules.Schema) error {
	s.schema = schema
	s.tw = tabwriter.NewWriter(s.out, 2, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(s.tw, strings.Join(schema.Headers(), "\t")); err != nil {
		return errors.NewSinkError("stdout", "ensure schema", err)
	}
	return nil
}

// Append prints one record row.
func (s *StdoutSink) Append(_ context.Context, record *modules.Record) error {
	if s.tw == nil {
		return errors.NewSinkError("stdout", "append", errors.ErrInvalidInput)
	}
	if _, err := fmt.Fprintln(s.tw, strings.Join(s.schema.Row(record.Values), "\t")); err != nil {
		return errors.NewSinkError("stdout", "append", err)
	}
	return nil
}

// Close flushes the table.
func (s *StdoutSink) Close() error {
	if s.tw == nil {
		return nil
	}
	if err := s.tw.Flush(); err != nil {
		return errors.NewSinkError("stdout", "close", err)
	}
	return nil
}
