//go:build integration

// Package integration exercises the full pipeline against the live GBIF,
// POWO, Wikipedia, and USDA APIs plus the Gemini inference API.
//
// Run with:
//
//	GEMINI_API_KEY=... go test -tags=integration ./test/integration/
package integration

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/florasynth"
	"github.com/verdantlabs/florasynth/internal/cache"
	"github.com/verdantlabs/florasynth/internal/fieldrules"
	"github.com/verdantlabs/florasynth/internal/inference"
	"github.com/verdantlabs/florasynth/internal/sources"
	"github.com/verdantlabs/florasynth/internal/sources/gbif"
	"github.com/verdantlabs/florasynth/internal/sources/powo"
	"github.com/verdantlabs/florasynth/internal/sources/usda"
	"github.com/verdantlabs/florasynth/internal/sources/wikipedia"
	"github.com/verdantlabs/florasynth/internal/synth"
	"github.com/verdantlabs/florasynth/pkg/modules"
	"github.com/verdantlabs/florasynth/pkg/tiers"
	"github.com/verdantlabs/florasynth/pkg/types"
)

func livePipeline(t *testing.T) florasynth.Florasynth {
	t.Helper()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set")
	}

	ctx := context.Background()

	store, err := cache.New(t.TempDir())
	require.NoError(t, err)
	rules, err := fieldrules.NewProvider("")
	require.NoError(t, err)
	oracle, err := inference.New(ctx, apiKey, "")
	require.NoError(t, err)

	gbifClient := gbif.NewClient()
	powoClient := powo.NewClient()
	usdaClient := usda.NewClient()

	providers := sources.New(
		sources.WithTrusted(powoClient),
		sources.WithSecondary(wikipedia.NewClient(), usdaClient),
		sources.WithCache(store),
	)
	processor, err := tiers.NewProcessor(providers, rules, oracle, tiers.WithCache(store))
	require.NoError(t, err)

	registry := modules.NewRegistry()
	require.NoError(t, synth.Register(registry, synth.Collaborators{
		Matcher:  gbifClient,
		GBIFURL:  gbifClient.SpeciesURL,
		Profiles: usdaClient,
		Pages:    powoClient,
		Fields:   processor,
	}))

	pipeline, err := florasynth.New(florasynth.WithRegistry(registry))
	require.NoError(t, err)
	return pipeline
}

func TestLiveQuercusAlba(t *testing.T) {
	pipeline := livePipeline(t)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	record, err := pipeline.Process(ctx, types.NewEntityKey("Quercus", "alba"))
	require.NoError(t, err)
	require.True(t, record.Valid())

	assert.Equal(t, "Fagaceae", record.Values["family"])
	assert.Equal(t, true, record.Values["is-native"])
	assert.NotEmpty(t, record.Values["growth-habit-background"])
}

func TestLiveUnknownSpeciesAborts(t *testing.T) {
	pipeline := livePipeline(t)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	record, err := pipeline.Process(ctx, types.NewEntityKey("Quercus", "nonexistens"))
	require.NoError(t, err)
	assert.False(t, record.Valid())
	assert.Empty(t, record.Values)
}
