package usda

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/florasynth/pkg/types"
)

func newTestServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"PlantResults": [
				{
					"Symbol": "QUAL",
					"ScientificName": "Quercus alba",
					"CommonName": "white oak",
					"GrowthHabits": ["Tree"],
					"NativeStatuses": [
						{"Region": "L48", "Status": "N"},
						{"Region": "CAN", "Status": "N"}
					]
				},
				{
					"Symbol": "QUAL2",
					"ScientificName": "Quercus albocincta",
					"CommonName": "encino",
					"GrowthHabits": ["Tree"],
					"NativeStatuses": []
				}
			]
		}`))
	}))
}

func TestLookupMatchesExactScientificName(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	profile, err := client.Lookup(context.Background(), types.NewEntityKey("Quercus", "alba"))
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, "QUAL", profile.Symbol)
	assert.True(t, profile.Native())
	assert.Equal(t, []string{"Canada", "Lower 48 States"}, profile.NativeRegions)
	assert.Empty(t, profile.IntroducedRegions)
}

func TestLookupAbsentSpeciesIsNilNotError(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	profile, err := client.Lookup(context.Background(), types.NewEntityKey("Quercus", "robur"))
	require.NoError(t, err)
	assert.Nil(t, profile)
}

func TestExcerptsSummarizeProfile(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	excerpts, err := client.Excerpts(context.Background(), types.NewEntityKey("Quercus", "alba"), "growth-habit")
	require.NoError(t, err)
	require.Len(t, excerpts, 1)

	assert.Equal(t, types.SourceUSDA, excerpts[0].Source)
	assert.Contains(t, excerpts[0].Text, "Growth habit: tree.")
	assert.Contains(t, excerpts[0].Text, "Native to Canada, Lower 48 States.")
}

func TestStatusName(t *testing.T) {
	assert.Equal(t, "native", StatusName("N"))
	assert.Equal(t, "X9", StatusName("X9"))
}
