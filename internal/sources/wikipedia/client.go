// Package wikipedia provides a client for the Wikipedia REST summary API,
// used as a secondary source for tier-2 excerpts.
package wikipedia

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/verdantlabs/florasynth/internal/transport"
	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/types"
)

const defaultBaseURL = "https://en.wikipedia.org/api/rest_v1"

type summaryResponse struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Client calls the Wikipedia REST API.
type Client struct {
	baseURL   string
	transport *transport.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// NewClient creates a Wikipedia client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:   defaultBaseURL,
		transport: transport.New(&transport.NoAuth{}, transport.WithUserAgent("florasynth")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the source identifier.
func (c *Client) ID() types.SourceID {
	return types.SourceWikipedia
}

// Excerpts returns the article lead for the species as one excerpt. A
// missing article yields an empty list.
func (c *Client) Excerpts(ctx context.Context, entity types.EntityKey, _ types.FieldID) ([]types.SourceExcerpt, error) {
	title := strings.ReplaceAll(entity.String(), " ", "_")
	endpoint := fmt.Sprintf("%s/page/summary/%s", c.baseURL, url.PathEscape(title))

	var resp summaryResponse
	if err := c.transport.GetJSON(ctx, string(types.SourceWikipedia), endpoint, &resp); err != nil {
		var apiErr *errors.APIError
		if stderrors.As(err, &apiErr) && apiErr.StatusCode == 404 {
			return nil, nil
		}
		return nil, err
	}
	if resp.Extract == "" {
		return nil, nil
	}

	return []types.SourceExcerpt{{
		Source: types.SourceWikipedia,
		Title:  resp.Title,
		Text:   resp.Extract,
		URL:    resp.ContentURLs.Desktop.Page,
	}}, nil
}
