// Package synth holds the built-in synthesis modules and their static
// registration table.
package synth

import (
	"context"
	"fmt"
	"strings"

	"github.com/verdantlabs/florasynth/internal/sources/gbif"
	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/logging"
	"github.com/verdantlabs/florasynth/pkg/modules"
	"github.com/verdantlabs/florasynth/pkg/types"
)

// TaxonMatcher validates a scientific name against a taxonomic backbone.
type TaxonMatcher interface {
	MatchName(ctx context.Context, entity types.EntityKey) (*gbif.Match, error)
}

// IdentityModule validates the entity's scientific name and anchors every
// downstream module. It is the one critical module: an unrecognized name
// means no other column can be trusted, so its failure aborts the entity's
// run.
type IdentityModule struct {
	matcher TaxonMatcher
}

// NewIdentity creates the identity module over a taxonomic matcher.
func NewIdentity(matcher TaxonMatcher) *IdentityModule {
	return &IdentityModule{matcher: matcher}
}

// Descriptor implements modules.Module.
func (m *IdentityModule) Descriptor() modules.Descriptor {
	return modules.Descriptor{
		ID:          "identity",
		DisplayName: "Taxonomic Identity",
		Critical:    true,
		Columns: []modules.Column{
			{ID: "genus", Header: "Genus", SourceLabel: "GBIF Backbone", Algorithm: "species match, canonical form"},
			{ID: "species", Header: "Species", SourceLabel: "GBIF Backbone", Algorithm: "species match, canonical form"},
			{ID: "family", Header: "Family", SourceLabel: "GBIF Backbone", Algorithm: "species match"},
			{ID: "taxonomic-status", Header: "Taxonomic Status", SourceLabel: "GBIF Backbone", Algorithm: "species match"},
			{ID: "accepted-name", Header: "Accepted Name", SourceLabel: "GBIF Backbone", Algorithm: "species match, accepted usage"},
		},
	}
}

// Run implements modules.Module.
func (m *IdentityModule) Run(ctx context.Context, entity types.EntityKey, _ modules.Results) (modules.ColumnValues, error) {
	match, err := m.matcher.MatchName(ctx, entity)
	if err != nil {
		return nil, err
	}
	if !match.Accepted() {
		return nil, fmt.Errorf("name %q not recognized (match type %s): %w",
			entity.String(), match.MatchType, errors.ErrNotFound)
	}

	genus, species := splitCanonical(match.CanonicalName, entity)

	logging.Ctx(ctx).Debug().
		Str("entity", entity.String()).
		Str("family", match.Family).
		Str("status", match.Status).
		Msg("Identity resolved")

	return modules.ColumnValues{
		"genus":            genus,
		"species":          species,
		"family":           match.Family,
		"taxonomic-status": strings.ToLower(match.Status),
		"accepted-name":    match.ScientificName,
	}, nil
}

// splitCanonical splits a canonical binomial into genus and epithet, falling
// back to the requested entity when the backbone returns an unexpected form.
func splitCanonical(canonical string, entity types.EntityKey) (string, string) {
	parts := strings.Fields(canonical)
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return entity.Genus, entity.Species
}
