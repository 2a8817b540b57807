package synth

import (
	"context"

	"github.com/verdantlabs/florasynth/internal/sources/powo"
	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/logging"
	"github.com/verdantlabs/florasynth/pkg/modules"
	"github.com/verdantlabs/florasynth/pkg/types"
)

// TaxonPager resolves a species' page in a reference database.
type TaxonPager interface {
	Lookup(ctx context.Context, entity types.EntityKey) (*powo.Taxon, error)
	PageURL(taxon *powo.Taxon) string
}

// ReferencesModule collects canonical reference URLs for the entity. A
// source that has no page for the species is simply omitted from the list.
type ReferencesModule struct {
	matcher TaxonMatcher
	gbifURL func(usageKey int) string
	pages   TaxonPager
}

// NewReferences creates the references module. gbifURL renders a species
// page URL for a backbone usage key.
func NewReferences(matcher TaxonMatcher, gbifURL func(usageKey int) string, pages TaxonPager) *ReferencesModule {
	return &ReferencesModule{matcher: matcher, gbifURL: gbifURL, pages: pages}
}

// Descriptor implements modules.Module.
func (m *ReferencesModule) Descriptor() modules.Descriptor {
	return modules.Descriptor{
		ID:           "references",
		DisplayName:  "Reference Links",
		Dependencies: []string{"identity"},
		Columns: []modules.Column{
			{ID: "reference-urls", Header: "References", SourceLabel: "GBIF; POWO", Algorithm: "canonical page URLs"},
		},
	}
}

// Run implements modules.Module.
func (m *ReferencesModule) Run(ctx context.Context, entity types.EntityKey, _ modules.Results) (modules.ColumnValues, error) {
	var urls []string

	match, err := m.matcher.MatchName(ctx, entity)
	if err == nil && match.Accepted() && match.UsageKey != 0 {
		urls = append(urls, m.gbifURL(match.UsageKey))
	} else if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}

	taxon, err := m.pages.Lookup(ctx, entity)
	switch {
	case err == nil && taxon != nil:
		urls = append(urls, m.pages.PageURL(taxon))
	case err != nil && !errors.IsNotFound(err):
		logging.Ctx(ctx).Warn().Err(err).
			Str("entity", entity.String()).
			Msg("Reference lookup failed")
	}

	if urls == nil {
		urls = []string{}
	}
	return modules.ColumnValues{"reference-urls": urls}, nil
}
