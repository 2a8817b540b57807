// Package modules contains the synthesis-module execution engine: the module
// contract, the registry and loader, the dependency resolver, the pipeline
// executor, and the column schema builder.
//
// A synthesis module is a pluggable unit that produces one or more named
// columns of data for a (genus, species) entity. Modules declare their
// columns and dependencies up front; the engine validates the declarations at
// load time, orders modules topologically, and runs them one at a time,
// threading earlier results forward to declared dependents.
package modules

import (
	"context"
	"fmt"
	"regexp"

	"github.com/verdantlabs/florasynth/pkg/types"
)

// ColumnValues maps column IDs to produced values. A module's Run must return
// exactly its declared column IDs as keys; the executor treats any mismatch
// as a contract violation.
type ColumnValues map[string]any

// Column declares one output column of a module, including the provenance
// documentation exposed by the schema builder.
type Column struct {
	// ID is the column identifier, unique across all registered modules.
	ID string `yaml:"id"`
	// Header is the human-readable column header written by sinks.
	Header string `yaml:"header"`
	// SourceLabel names the knowledge source the column's data comes from.
	SourceLabel string `yaml:"source"`
	// Algorithm describes how the value is derived, for the documentation
	// table.
	Algorithm string `yaml:"algorithm"`
}

// Descriptor identifies a synthesis module and its declared contract.
type Descriptor struct {
	// ID is the unique, stable module identifier (kebab-case). It is the
	// dependency-graph node key and must never change once published.
	ID string
	// DisplayName is a human label, cosmetic only.
	DisplayName string
	// Critical marks a module whose failure aborts the remainder of the run
	// for the entity.
	Critical bool
	// Columns is the ordered list of columns the module produces.
	Columns []Column
	// Dependencies lists module IDs whose results must be available before
	// this module runs.
	Dependencies []string
}

// Module is the contract every synthesis unit must satisfy.
type Module interface {
	// Descriptor returns the module's declared metadata. It must be
	// deterministic and cheap; the engine calls it repeatedly.
	Descriptor() Descriptor

	// Run produces the module's column values for one entity. prior contains
	// the results of the module's declared dependencies only.
	Run(ctx context.Context, entity types.EntityKey, prior Results) (ColumnValues, error)
}

// Results is the view of prior module outputs handed to a running module.
// It contains only the modules the recipient declared as dependencies.
type Results map[string]ColumnValues

// Module returns a dependency's column values.
func (r Results) Module(id string) (ColumnValues, bool) {
	values, ok := r[id]
	return values, ok
}

// Value returns one column value produced by a dependency.
func (r Results) Value(moduleID, columnID string) (any, bool) {
	values, ok := r[moduleID]
	if !ok {
		return nil, false
	}
	v, ok := values[columnID]
	return v, ok
}

// String returns a dependency's column value as a string, or "" when the
// value is absent or not a string.
func (r Results) String(moduleID, columnID string) string {
	v, ok := r.Value(moduleID, columnID)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

var kebabCase = regexp.MustCompile(`^[a-z][a-z0-9]*(-[a-z0-9]+)*$`)

// validateDescriptor checks a single descriptor's required metadata. Cross-
// module checks (global column uniqueness, dependency existence) live in the
// registry loader.
func validateDescriptor(d Descriptor) error {
	if d.ID == "" {
		return fmt.Errorf("missing module id")
	}
	if !kebabCase.MatchString(d.ID) {
		return fmt.Errorf("module id %q is not kebab-case", d.ID)
	}
	if d.DisplayName == "" {
		return fmt.Errorf("missing display name")
	}
	if len(d.Columns) == 0 {
		return fmt.Errorf("module declares no columns")
	}
	seen := make(map[string]bool, len(d.Columns))
	for _, col := range d.Columns {
		if col.ID == "" {
			return fmt.Errorf("column with empty id")
		}
		if col.Header == "" {
			return fmt.Errorf("column %s missing header", col.ID)
		}
		if seen[col.ID] {
			return fmt.Errorf("duplicate columnId %s within module", col.ID)
		}
		seen[col.ID] = true
	}
	depSeen := make(map[string]bool, len(d.Dependencies))
	for _, dep := range d.Dependencies {
		if dep == d.ID {
			return fmt.Errorf("module depends on itself")
		}
		if depSeen[dep] {
			return fmt.Errorf("duplicate dependency %s", dep)
		}
		depSeen[dep] = true
	}
	return nil
}
