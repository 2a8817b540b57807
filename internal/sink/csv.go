package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/modules"
)

// CSVSink writes records to <dir>/data.csv and the provenance documentation
// table to <dir>/columns.csv.
type CSVSink struct {
	dir    string
	schema *modules.Schema

	file   *os.File
	writer *csv.Writer
}

// NewCSV creates a CSV sink rooted at dir. The directory is created on
// EnsureSchema.
func NewCSV(dir string) *CSVSink {
	return &CSVSink{dir: dir}
}

// EnsureSchema creates the output directory, writes the documentation table,
// and opens data.csv with its header row.
func (s *CSVSink) EnsureSchema(_ context.Context, schema *modules.Schema) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.NewSinkError("csv", "ensure schema", err)
	}
	s.schema = schema

	if err := s.writeDocumentation(schema); err != nil {
		return err
	}

	file, err := os.Create(filepath.Join(s.dir, "data.csv"))
	if err != nil {
		return errors.NewSinkError("csv", "ensure schema", err)
	}
	s.file = file
	s.writer = csv.NewWriter(file)

	if err := s.writer.Write(schema.Headers()); err != nil {
		return errors.NewSinkError("csv", "write header", err)
	}
	return nil
}

// Append writes one record row.
func (s *CSVSink) Append(_ context.Context, record *modules.Record) error {
	if s.writer == nil {
		return errors.NewSinkError("csv", "append", errors.ErrInvalidInput)
	}
	if err := s.writer.Write(s.schema.Row(record.Values)); err != nil {
		return errors.NewSinkError("csv", "append", err)
	}
	return nil
}

// Close flushes and closes data.csv.
func (s *CSVSink) Close() error {
	if s.writer == nil {
		return nil
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return errors.NewSinkError("csv", "close", err)
	}
	if err := s.file.Close(); err != nil {
		return errors.NewSinkError("csv", "close", err)
	}
	return nil
}

// writeDocumentation writes columns.csv: one row per schema column with its
// documented source and algorithm.
func (s *CSVSink) writeDocumentation(schema *modules.Schema) error {
	file, err := os.Create(filepath.Join(s.dir, "columns.csv"))
	if err != nil {
		return errors.NewSinkError("csv", "write documentation", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write([]string{"column", "header", "module", "source", "algorithm"}); err != nil {
		return errors.NewSinkError("csv", "write documentation", err)
	}
	for _, row := range schema.Documentation() {
		record := []string{row.ColumnID, row.Header, row.Module, row.SourceLabel, row.Algorithm}
		if err := w.Write(record); err != nil {
			return errors.NewSinkError("csv", "write documentation", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.NewSinkError("csv", "write documentation", err)
	}
	return nil
}
