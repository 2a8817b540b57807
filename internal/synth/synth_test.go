package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/florasynth/internal/sources/gbif"
	"github.com/verdantlabs/florasynth/internal/sources/powo"
	"github.com/verdantlabs/florasynth/internal/sources/usda"
	"github.com/verdantlabs/florasynth/pkg/modules"
	"github.com/verdantlabs/florasynth/pkg/tiers"
	"github.com/verdantlabs/florasynth/pkg/types"
)

var quercusAlba = types.EntityKey{Genus: "Quercus", Species: "alba"}

type fakeMatcher struct {
	match *gbif.Match
	err   error
}

func (f *fakeMatcher) MatchName(context.Context, types.EntityKey) (*gbif.Match, error) {
	return f.match, f.err
}

type fakeProfiles struct {
	profile *usda.Profile
	err     error
}

func (f *fakeProfiles) Lookup(context.Context, types.EntityKey) (*usda.Profile, error) {
	return f.profile, f.err
}

type fakePages struct {
	taxon *powo.Taxon
	err   error
}

func (f *fakePages) Lookup(context.Context, types.EntityKey) (*powo.Taxon, error) {
	return f.taxon, f.err
}

func (f *fakePages) PageURL(taxon *powo.Taxon) string {
	return "https://powo.science.kew.org/taxon/" + taxon.FQID
}

type fakeProcessor struct {
	result *tiers.Result
	err    error
}

func (f *fakeProcessor) Process(_ context.Context, entity types.EntityKey, field types.FieldID) (*tiers.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	r := *f.result
	r.Entity = entity
	r.Field = field
	return &r, nil
}

func goodMatch() *gbif.Match {
	return &gbif.Match{
		UsageKey:       2878688,
		ScientificName: "Quercus alba L.",
		CanonicalName:  "Quercus alba",
		Status:         "ACCEPTED",
		MatchType:      "EXACT",
		Family:         "Fagaceae",
	}
}

func TestIdentityProducesAllColumns(t *testing.T) {
	m := NewIdentity(&fakeMatcher{match: goodMatch()})

	values, err := m.Run(context.Background(), quercusAlba, nil)
	require.NoError(t, err)
	assert.Equal(t, modules.ColumnValues{
		"genus":            "Quercus",
		"species":          "alba",
		"family":           "Fagaceae",
		"taxonomic-status": "accepted",
		"accepted-name":    "Quercus alba L.",
	}, values)
}

func TestIdentityRejectsUnrecognizedName(t *testing.T) {
	m := NewIdentity(&fakeMatcher{match: &gbif.Match{MatchType: "NONE"}})

	_, err := m.Run(context.Background(), types.EntityKey{Genus: "Quercus", Species: "nonexistens"}, nil)
	require.Error(t, err)
}

func TestIdentityIsCritical(t *testing.T) {
	desc := NewIdentity(&fakeMatcher{}).Descriptor()
	assert.True(t, desc.Critical)
	assert.Equal(t, "identity", desc.ID)
}

func TestNativeStatusNativeSpecies(t *testing.T) {
	m := NewNativeStatus(&fakeProfiles{profile: &usda.Profile{
		Symbol:        "QUAL",
		NativeRegions: []string{"Canada", "Lower 48 States"},
	}})

	values, err := m.Run(context.Background(), quercusAlba, nil)
	require.NoError(t, err)
	assert.Equal(t, true, values["is-native"])
	assert.Equal(t, []string{"Canada", "Lower 48 States"}, values["native-regions"])
}

func TestNativeStatusAbsentProfile(t *testing.T) {
	m := NewNativeStatus(&fakeProfiles{})

	values, err := m.Run(context.Background(), quercusAlba, nil)
	require.NoError(t, err)
	assert.Equal(t, false, values["is-native"])
	assert.Empty(t, values["native-regions"])
}

func TestNativeStatusLookupFailure(t *testing.T) {
	m := NewNativeStatus(&fakeProfiles{err: errors.New("unreachable")})

	_, err := m.Run(context.Background(), quercusAlba, nil)
	require.Error(t, err)
}

func TestReferencesCollectsURLs(t *testing.T) {
	m := NewReferences(
		&fakeMatcher{match: goodMatch()},
		func(key int) string { return "https://www.gbif.org/species/2878688" },
		&fakePages{taxon: &powo.Taxon{FQID: "urn:lsid:ipni.org:names:295763-1"}},
	)

	values, err := m.Run(context.Background(), quercusAlba, nil)
	require.NoError(t, err)
	urls, ok := values["reference-urls"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{
		"https://www.gbif.org/species/2878688",
		"https://powo.science.kew.org/taxon/urn:lsid:ipni.org:names:295763-1",
	}, urls)
}

func TestReferencesEmptyWhenNothingFound(t *testing.T) {
	m := NewReferences(
		&fakeMatcher{match: &gbif.Match{MatchType: "NONE"}},
		func(int) string { return "" },
		&fakePages{},
	)

	values, err := m.Run(context.Background(), quercusAlba, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, values["reference-urls"])
}

func TestTieredFieldColumns(t *testing.T) {
	m := NewTieredField("growth-habit", "Growth Habit", &fakeProcessor{result: &tiers.Result{
		Tier1:            tiers.Answer{Value: "tree", Sources: []types.SourceID{types.SourcePOWO}},
		Tier2:            tiers.Answer{Value: "tree", Sources: []types.SourceID{types.SourceWikipedia}},
		Tier3:            tiers.Answer{Value: "tree"},
		Tier3Granularity: tiers.GranularitySpecies,
		Stats:            tiers.SourceStats{Tier1Sources: 1, Tier2Sources: 2},
	}})

	values, err := m.Run(context.Background(), quercusAlba, nil)
	require.NoError(t, err)
	assert.Equal(t, "tree", values["growth-habit-sourced"])
	assert.Equal(t, "tree", values["growth-habit-expanded"])
	assert.Equal(t, "", values["growth-habit-conflicts"])
	assert.Equal(t, "tree", values["growth-habit-background"])
	assert.Equal(t, "species", values["growth-habit-attribution"])
	assert.Equal(t, 3, values["growth-habit-source-count"])
}

func TestTieredFieldMarksNotPresentAndFailed(t *testing.T) {
	m := NewTieredField("propagation", "Propagation", &fakeProcessor{result: &tiers.Result{
		Tier1:            tiers.Answer{NotPresent: true},
		Tier2:            tiers.Answer{Failed: true, FailureReason: "rate limited"},
		Tier3:            tiers.Answer{Value: "seed"},
		Tier3Granularity: tiers.GranularityGenus,
	}})

	values, err := m.Run(context.Background(), quercusAlba, nil)
	require.NoError(t, err)
	assert.Equal(t, "[not in sources]", values["propagation-sourced"])
	assert.Equal(t, "[failed: rate limited]", values["propagation-expanded"])
	assert.Equal(t, "seed", values["propagation-background"])
}

func TestTieredFieldDescriptorMatchesDeclaredColumns(t *testing.T) {
	m := NewTieredField("growth-habit", "Growth Habit", &fakeProcessor{result: &tiers.Result{}})

	values, err := m.Run(context.Background(), quercusAlba, nil)
	require.NoError(t, err)

	declared := make(map[string]bool)
	for _, col := range m.Descriptor().Columns {
		declared[col.ID] = true
	}
	require.Len(t, values, len(declared))
	for id := range values {
		assert.True(t, declared[id], "undeclared column %s", id)
	}
}

func TestRegisterWiresAllBuiltins(t *testing.T) {
	registry := modules.NewRegistry()
	c := Collaborators{
		Matcher:  &fakeMatcher{match: goodMatch()},
		GBIFURL:  func(int) string { return "" },
		Profiles: &fakeProfiles{},
		Pages:    &fakePages{},
		Fields:   &fakeProcessor{result: &tiers.Result{}},
	}
	require.NoError(t, Register(registry, c))
	assert.Equal(t, BuiltinIDs(), registry.IDs())

	loaded, err := registry.Load(nil)
	require.NoError(t, err)
	assert.Len(t, loaded, len(builtins))

	ordered, err := modules.Resolve(loaded)
	require.NoError(t, err)
	assert.Equal(t, "identity", ordered[0].Descriptor().ID)
}
