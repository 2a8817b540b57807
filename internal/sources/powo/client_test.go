package powo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/florasynth/pkg/types"
)

func newTestServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			w.Write([]byte(`{
				"totalResults": 2,
				"results": [
					{"fqId": "urn:lsid:ipni.org:names:295763-1", "name": "Quercus alba",
					 "author": "L.", "rank": "SPECIES", "family": "Fagaceae",
					 "accepted": true, "url": "/taxon/urn:lsid:ipni.org:names:295763-1"},
					{"fqId": "urn:lsid:ipni.org:names:999999-1", "name": "Quercus alba var. repanda",
					 "author": "Michx.", "rank": "VARIETY", "family": "Fagaceae", "accepted": false}
				]
			}`))
		case strings.HasPrefix(r.URL.Path, "/taxon/"):
			w.Write([]byte(`{
				"descriptions": {
					"general": [
						{"type": "morphology", "description": "A large deciduous tree to 30 m.", "source": "Flora of North America"},
						{"type": "habitat", "description": "Dry upland forests.", "source": "Flora of North America"}
					]
				}
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestLookupReturnsAcceptedName(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	taxon, err := client.Lookup(context.Background(), types.NewEntityKey("Quercus", "alba"))
	require.NoError(t, err)

	assert.Equal(t, "Quercus alba", taxon.Name)
	assert.Equal(t, "Fagaceae", taxon.Family)
	assert.True(t, taxon.Accepted)
	assert.Equal(t,
		"https://powo.science.kew.org/taxon/urn:lsid:ipni.org:names:295763-1",
		client.PageURL(taxon))
}

func TestExcerptsCarrySourceAndTitle(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	excerpts, err := client.Excerpts(context.Background(), types.NewEntityKey("Quercus", "alba"), "growth-habit")
	require.NoError(t, err)
	require.Len(t, excerpts, 2)

	for _, ex := range excerpts {
		assert.Equal(t, types.SourcePOWO, ex.Source)
		assert.NotEmpty(t, ex.Title)
		assert.NotEmpty(t, ex.Text)
	}
}

func TestExcerptsOrderStableAcrossRuns(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/search":
			w.Write([]byte(`{
				"totalResults": 1,
				"results": [
					{"fqId": "urn:lsid:ipni.org:names:295763-1", "name": "Quercus alba",
					 "author": "L.", "rank": "SPECIES", "family": "Fagaceae",
					 "accepted": true, "url": "/taxon/urn:lsid:ipni.org:names:295763-1"}
				]
			}`))
		case strings.HasPrefix(r.URL.Path, "/taxon/"):
			w.Write([]byte(`{
				"descriptions": {
					"uses": [{"type": "use", "description": "Timber and flooring.", "source": "FNA"}],
					"general": [{"type": "morphology", "description": "A large deciduous tree.", "source": "FNA"}],
					"distribution": [{"type": "native range", "description": "Eastern North America.", "source": "FNA"}]
				}
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	entity := types.NewEntityKey("Quercus", "alba")

	first, err := client.Excerpts(context.Background(), entity, "growth-habit")
	require.NoError(t, err)
	require.Len(t, first, 3)
	// Categories come back as a JSON object; the order must be the sorted
	// category order, not whatever the map iteration yields.
	assert.Equal(t, "native range", first[0].Title)
	assert.Equal(t, "morphology", first[1].Title)
	assert.Equal(t, "use", first[2].Title)

	for i := 0; i < 5; i++ {
		again, err := client.Excerpts(context.Background(), entity, "growth-habit")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestExcerptsUnknownTaxonIsEmptyNotError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"totalResults": 0, "results": []}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	excerpts, err := client.Excerpts(context.Background(), types.NewEntityKey("Quercus", "imaginaria"), "growth-habit")
	require.NoError(t, err, "no data must not be a transport failure")
	assert.Empty(t, excerpts)
}
