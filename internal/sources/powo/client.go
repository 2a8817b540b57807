// Package powo provides a client for Plants of the World Online (Kew). POWO
// is the trusted source backing tier-1 answers: its taxon descriptions are
// curated by the herbarium and carry section labels usable as excerpt titles.
package powo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/verdantlabs/florasynth/internal/transport"
	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/types"
)

const defaultBaseURL = "https://powo.science.kew.org/api/2"

// Taxon is one accepted name record from the POWO search API.
type Taxon struct {
	FQID     string `json:"fqId"`
	Name     string `json:"name"`
	Author   string `json:"author"`
	Rank     string `json:"rank"`
	Family   string `json:"family"`
	Accepted bool   `json:"accepted"`
	URL      string `json:"url"`
}

type searchResponse struct {
	TotalResults int     `json:"totalResults"`
	Results      []Taxon `json:"results"`
}

type descriptionSection struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

type taxonResponse struct {
	Descriptions map[string][]descriptionSection `json:"descriptions"`
}

// Client calls the POWO API.
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

// NewClient creates a POWO client.
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
	return types.SourcePOWO
}

// Lookup finds the accepted taxon record for a binomial name.
func (c *Client) Lookup(ctx context.Context, entity types.EntityKey) (*Taxon, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s", c.baseURL, url.QueryEscape(entity.String()))

	var resp searchResponse
	if err := c.transport.GetJSON(ctx, string(types.SourcePOWO), endpoint, &resp); err != nil {
		return nil, err
	}

	for i := range resp.Results {
		taxon := &resp.Results[i]
		if taxon.Accepted && strings.EqualFold(taxon.Name, entity.String()) {
			return taxon, nil
		}
	}
	return nil, fmt.Errorf("taxon %q: %w in POWO", entity, errors.ErrNotFound)
}

// PageURL returns the public taxon page for a record.
func (c *Client) PageURL(taxon *Taxon) string {
	if taxon.URL != "" {
		return "https://powo.science.kew.org" + taxon.URL
	}
	return "https://powo.science.kew.org/taxon/" + taxon.FQID
}

// Excerpts returns the taxon's description sections as trusted-source
// excerpts. An unknown taxon yields an empty list, not an error: "no data" is
// a valid tier-1 outcome.
func (c *Client) Excerpts(ctx context.Context, entity types.EntityKey, _ types.FieldID) ([]types.SourceExcerpt, error) {
	taxon, err := c.Lookup(ctx, entity)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/taxon/%s?fields=descriptions", c.baseURL, url.PathEscape(taxon.FQID))
	var resp taxonResponse
	if err := c.transport.GetJSON(ctx, string(types.SourcePOWO), endpoint, &resp); err != nil {
		return nil, err
	}

	// Description categories arrive as a map; iterate them in sorted order so
	// the excerpt list is stable across runs.
	categories := make([]string, 0, len(resp.Descriptions))
	for category := range resp.Descriptions {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var excerpts []types.SourceExcerpt
	for _, category := range categories {
		for _, section := range resp.Descriptions[category] {
			if section.Description == "" {
				continue
			}
			excerpts = append(excerpts, types.SourceExcerpt{
				Source: types.SourcePOWO,
				Title:  section.Type,
				Text:   section.Description,
				URL:    c.PageURL(taxon),
			})
		}
	}
	return excerpts, nil
}
