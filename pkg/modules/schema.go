package modules

import (
	"fmt"
	"strings"
)

// SchemaColumn is one column of the output schema together with the module
// that owns it.
type SchemaColumn struct {
	Column
	ModuleID   string
	ModuleName string
}

// Schema is the ordered output schema derived from the full loaded module
// list: the concatenation of each module's declared columns, in resolved
// dependency order. It is computed once per configuration load, depends on no
// particular entity's run outcome, and is treated as read-only afterwards.
type Schema struct {
	columns []SchemaColumn
}

// DocRow is one row of the provenance documentation table: the documented
// source and algorithm attribution for a column, independent of any run.
type DocRow struct {
	ColumnID    string
	Header      string
	Module      string
	SourceLabel string
	Algorithm   string
}

// BuildSchema derives the schema from resolved-order modules.
func BuildSchema(ordered []Module) *Schema {
	s := &Schema{}
	for _, mod := range ordered {
		desc := mod.Descriptor()
		for _, col := range desc.Columns {
			s.columns = append(s.columns, SchemaColumn{
				Column:     col,
				ModuleID:   desc.ID,
				ModuleName: desc.DisplayName,
			})
		}
	}
	return s
}

// Columns returns the ordered schema columns.
func (s *Schema) Columns() []SchemaColumn {
	cols := make([]SchemaColumn, len(s.columns))
	copy(cols, s.columns)
	return cols
}

// Len returns the number of columns.
func (s *Schema) Len() int {
	return len(s.columns)
}

// Headers returns the header row written by sinks.
func (s *Schema) Headers() []string {
	headers := make([]string, len(s.columns))
	for i, col := range s.columns {
		headers[i] = col.Header
	}
	return headers
}

// ColumnIDs returns the ordered column IDs.
func (s *Schema) ColumnIDs() []string {
	ids := make([]string, len(s.columns))
	for i, col := range s.columns {
		ids[i] = col.ID
	}
	return ids
}

// Documentation returns the provenance table, one row per column.
func (s *Schema) Documentation() []DocRow {
	rows := make([]DocRow, len(s.columns))
	for i, col := range s.columns {
		rows[i] = DocRow{
			ColumnID:    col.ID,
			Header:      col.Header,
			Module:      col.ModuleName,
			SourceLabel: col.SourceLabel,
			Algorithm:   col.Algorithm,
		}
	}
	return rows
}

// Row renders a record's values in schema order. Columns whose modules
// failed or were skipped render as empty strings so the downstream row
// structure stays stable.
func (s *Schema) Row(values ColumnValues) []string {
	row := make([]string, len(s.columns))
	for i, col := range s.columns {
		v, ok := values[col.ID]
		if !ok || v == nil {
			continue
		}
		row[i] = formatValue(v)
	}
	return row
}

// formatValue renders a column value for a sink cell.
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		return strings.Join(val, "; ")
	case bool:
		if val {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
