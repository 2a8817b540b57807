// Package tiers implements the three-tier knowledge-acquisition protocol for
// a single semantic field of one entity.
//
// Tier 1 answers only from explicitly supplied trusted-source excerpts.
// Tier 2 expands tier 1 with a broader secondary source set and reports
// conflicts instead of silently resolving them. Tier 3 answers independently,
// with no visibility into tiers 1-2, as a calibration signal for what the
// general knowledge capability produces unaided.
//
// The processor assembles all three answers side by side; it never collapses
// them into one value. Downstream consumers choose how to display or compare
// the tiers.
package tiers

import (
	"github.com/verdantlabs/florasynth/pkg/types"
)

// Granularity attributes a tier-3 answer to the level of pattern knowledge
// it is drawn from.
type Granularity string

// Tier-3 attribution levels.
const (
	GranularitySpecies Granularity = "species"
	GranularityGenus   Granularity = "genus"
	GranularityFamily  Granularity = "family"
	GranularityUnknown Granularity = "unknown"
)

// ParseGranularity normalizes an attribution string from the inference
// capability, defaulting to unknown.
func ParseGranularity(s string) Granularity {
	switch Granularity(s) {
	case GranularitySpecies, GranularityGenus, GranularityFamily:
		return Granularity(s)
	default:
		return GranularityUnknown
	}
}

// Answer is one tier's slot in the result.
type Answer struct {
	// Value is the produced answer text. Empty when NotPresent or Failed.
	Value string `yaml:"value,omitempty"`

	// NotPresent marks an explicit "not present in sources" outcome for the
	// source-bound tiers. It is a valid result, not a failure.
	NotPresent bool `yaml:"not_present,omitempty"`

	// Sources lists the source IDs the answer was drawn from.
	Sources []types.SourceID `yaml:"sources,omitempty"`

	// Failed marks a tier failure (transport, inference error). The sibling
	// tiers are still reported.
	Failed bool `yaml:"failed,omitempty"`
	// FailureReason explains a Failed answer.
	FailureReason string `yaml:"failure_reason,omitempty"`
}

// Conflict names sources that assert differing values for the field.
type Conflict struct {
	// Claims maps each disagreeing source to its claim.
	Claims map[types.SourceID]string `yaml:"claims"`
}

// SourceStats counts the distinct sources consulted per source-bound tier,
// for auditability.
type SourceStats struct {
	Tier1Sources int `yaml:"tier1_sources"`
	Tier2Sources int `yaml:"tier2_sources"`
}

// Result is the output of the protocol for one (entity, field).
type Result struct {
	Entity types.EntityKey `yaml:"entity"`
	Field  types.FieldID   `yaml:"field"`

	Tier1 Answer `yaml:"tier1"`

	Tier2 Answer `yaml:"tier2"`
	// Tier2Conflicts lists detected disagreements between tier-2 sources, or
	// between a tier-2 source and the tier-1 answer. Empty when all agree.
	Tier2Conflicts []Conflict `yaml:"tier2_conflicts,omitempty"`

	Tier3 Answer `yaml:"tier3"`
	// Tier3Granularity attributes the independent answer to species-, genus-,
	// or family-level pattern knowledge.
	Tier3Granularity Granularity `yaml:"tier3_granularity"`

	Stats SourceStats `yaml:"stats"`
}

// ConflictSummary renders conflicts as short "source=claim" clauses for
// column output. Returns "" when there are none.
func (r *Result) ConflictSummary() string {
	return summarizeConflicts(r.Tier2Conflicts)
}
