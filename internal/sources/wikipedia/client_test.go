package wikipedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verdantlabs/florasynth/pkg/types"
)

func TestExcerptsFromSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/page/summary/Quercus_alba", r.URL.Path)
		w.Write([]byte(`{
			"title": "Quercus alba",
			"description": "Species of tree",
			"extract": "Quercus alba, the white oak, is a large deciduous tree native to eastern North America.",
			"content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/Quercus_alba"}}
		}`))
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	excerpts, err := client.Excerpts(context.Background(), types.NewEntityKey("Quercus", "alba"), "growth-habit")
	require.NoError(t, err)
	require.Len(t, excerpts, 1)

	assert.Equal(t, types.SourceWikipedia, excerpts[0].Source)
	assert.Contains(t, excerpts[0].Text, "white oak")
	assert.Equal(t, "https://en.wikipedia.org/wiki/Quercus_alba", excerpts[0].URL)
}

func TestExcerptsMissingArticleIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	excerpts, err := client.Excerpts(context.Background(), types.NewEntityKey("Quercus", "imaginaria"), "growth-habit")
	require.NoError(t, err)
	assert.Empty(t, excerpts)
}

func TestExcerptsServerErrorIsTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL))
	_, err := client.Excerpts(context.Background(), types.NewEntityKey("Quercus", "alba"), "growth-habit")
	require.Error(t, err)
}
