package synth

import (
	"context"
	"strings"

	"github.com/verdantlabs/florasynth/pkg/modules"
	"github.com/verdantlabs/florasynth/pkg/tiers"
	"github.com/verdantlabs/florasynth/pkg/types"
)

// FieldProcessor runs the three-tier protocol for one (entity, field).
type FieldProcessor interface {
	Process(ctx context.Context, entity types.EntityKey, field types.FieldID) (*tiers.Result, error)
}

// TieredFieldModule exposes one tiered field as six columns: the
// source-bound answer, the expanded answer, detected conflicts, the
// independent background answer with its attribution, and the consulted
// source count. The three answers are reported side by side, never merged.
type TieredFieldModule struct {
	field     types.FieldID
	name      string
	processor FieldProcessor
}

// NewTieredField creates a module for one tiered field. The module ID equals
// the field ID; column IDs are derived from it.
func NewTieredField(field types.FieldID, displayName string, processor FieldProcessor) *TieredFieldModule {
	return &TieredFieldModule{field: field, name: displayName, processor: processor}
}

// Descriptor implements modules.Module.
func (m *TieredFieldModule) Descriptor() modules.Descriptor {
	f := m.field.String()
	return modules.Descriptor{
		ID:           f,
		DisplayName:  m.name,
		Dependencies: []string{"identity"},
		Columns: []modules.Column{
			{ID: f + "-sourced", Header: m.name + " (Sourced)", SourceLabel: "POWO", Algorithm: "tier-1 extraction from trusted excerpts"},
			{ID: f + "-expanded", Header: m.name + " (Expanded)", SourceLabel: "POWO; Wikipedia; USDA PLANTS", Algorithm: "tier-2 expansion over the secondary source set"},
			{ID: f + "-conflicts", Header: m.name + " Conflicts", SourceLabel: "POWO; Wikipedia; USDA PLANTS", Algorithm: "tier-2 cross-source disagreement report"},
			{ID: f + "-background", Header: m.name + " (Background)", SourceLabel: "Inference", Algorithm: "tier-3 unaided answer, no source material"},
			{ID: f + "-attribution", Header: m.name + " Attribution", SourceLabel: "Inference", Algorithm: "tier-3 self-reported knowledge granularity"},
			{ID: f + "-source-count", Header: m.name + " Source Count", SourceLabel: "POWO; Wikipedia; USDA PLANTS", Algorithm: "distinct sources consulted across tiers 1-2"},
		},
	}
}

// Run implements modules.Module.
func (m *TieredFieldModule) Run(ctx context.Context, entity types.EntityKey, _ modules.Results) (modules.ColumnValues, error) {
	result, err := m.processor.Process(ctx, entity, m.field)
	if err != nil {
		return nil, err
	}

	f := m.field.String()
	return modules.ColumnValues{
		f + "-sourced":      answerCell(result.Tier1),
		f + "-expanded":     answerCell(result.Tier2),
		f + "-conflicts":    result.ConflictSummary(),
		f + "-background":   answerCell(result.Tier3),
		f + "-attribution":  string(result.Tier3Granularity),
		f + "-source-count": result.Stats.Tier1Sources + result.Stats.Tier2Sources,
	}, nil
}

// answerCell renders one tier's answer for column output. Explicit
// not-present and failed outcomes are distinguishable from a blank answer.
func answerCell(a tiers.Answer) string {
	switch {
	case a.Failed:
		reason := a.FailureReason
		if reason == "" {
			reason = "error"
		}
		return "[failed: " + strings.TrimSpace(reason) + "]"
	case a.NotPresent:
		return "[not in sources]"
	default:
		return a.Value
	}
}
