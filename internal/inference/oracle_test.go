package inference

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/tiers"
	"github.com/verdantlabs/florasynth/pkg/types"
)

func growthHabitRule() types.FieldRule {
	return types.FieldRule{
		Field:       "growth-habit",
		Description: "The characteristic growth form of the plant.",
		Format:      "single lowercase term",
		MaxLength:   40,
		Vocabulary:  []string{"tree", "shrub", "vine"},
		Prohibited:  []string{"common names"},
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), "", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrAPIKeyRequired)
}

func TestSourcedPromptCarriesExcerptsAndRule(t *testing.T) {
	entity := types.EntityKey{Genus: "Quercus", Species: "alba"}
	excerpts := []types.SourceExcerpt{
		{Source: types.SourcePOWO, Title: "morphology", Text: "A large deciduous tree."},
		{Source: types.SourceWikipedia, Text: "White oak grows to 30 m."},
	}

	prompt := sourcedPrompt(growthHabitRule(), entity, excerpts, nil)

	assert.Contains(t, prompt, "Quercus alba")
	assert.Contains(t, prompt, "growth-habit")
	assert.Contains(t, prompt, "A large deciduous tree.")
	assert.Contains(t, prompt, "source=powo")
	assert.Contains(t, prompt, "source=wikipedia")
	assert.Contains(t, prompt, "Allowed terms: tree, shrub, vine")
	assert.Contains(t, prompt, "Never include: common names")
	assert.Contains(t, prompt, "Maximum answer length: 40")
	assert.NotContains(t, prompt, "Earlier answer")
}

func TestSourcedPromptIncludesPriorForSecondPass(t *testing.T) {
	entity := types.EntityKey{Genus: "Quercus", Species: "alba"}
	prior := &tiers.Answer{Value: "tree"}

	prompt := sourcedPrompt(growthHabitRule(), entity, nil, prior)
	assert.Contains(t, prompt, `Earlier answer from the primary sources: "tree"`)

	notPresent := &tiers.Answer{NotPresent: true}
	prompt = sourcedPrompt(growthHabitRule(), entity, nil, notPresent)
	assert.Contains(t, prompt, "found no answer")
	assert.NotContains(t, prompt, "Earlier answer")
}

func TestUnaidedPromptCarriesNoSourceMaterial(t *testing.T) {
	entity := types.EntityKey{Genus: "Quercus", Species: "alba"}
	prompt := unaidedPrompt(growthHabitRule(), entity)

	assert.Contains(t, prompt, "Quercus alba")
	assert.Contains(t, prompt, "granularity")
	assert.NotContains(t, prompt, "excerpt")
	assert.NotContains(t, prompt, "source=")
}

func TestParseSourcedResponse(t *testing.T) {
	got, err := parseSourcedResponse(`{
		"answer": " tree ",
		"not_present": false,
		"conflicts": [
			{"source": "usda-plants", "claim": "shrub"},
			{"source": "", "claim": "ignored"}
		]
	}`)
	require.NoError(t, err)
	assert.Equal(t, "tree", got.Value)
	assert.False(t, got.NotPresent)
	require.Len(t, got.Conflicts, 1)
	assert.Equal(t, "shrub", got.Conflicts[0].Claims[types.SourceUSDA])
}

func TestParseSourcedResponseNotPresent(t *testing.T) {
	got, err := parseSourcedResponse(`{"answer": "", "not_present": true}`)
	require.NoError(t, err)
	assert.True(t, got.NotPresent)
	assert.Empty(t, got.Value)
}

func TestParseSourcedResponseRejectsMalformedJSON(t *testing.T) {
	_, err := parseSourcedResponse("the plant is a tree")
	require.Error(t, err)
}

func TestParseUnaidedResponse(t *testing.T) {
	got, err := parseUnaidedResponse(`{"answer": "tree", "granularity": "species"}`)
	require.NoError(t, err)
	assert.Equal(t, "tree", got.Value)
	assert.Equal(t, tiers.GranularitySpecies, got.Granularity)

	got, err = parseUnaidedResponse(`{"answer": "tree", "granularity": "made-up"}`)
	require.NoError(t, err)
	assert.Equal(t, tiers.GranularityUnknown, got.Granularity)
}
