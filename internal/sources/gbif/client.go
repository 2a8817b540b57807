// Package gbif provides a client for the GBIF backbone taxonomy, used to
// validate (genus, species) names and resolve their family and accepted
// name.
package gbif

import (
	"fmt"
	"net/url"

	"context"

	"github.com/verdantlabs/florasynth/internal/transport"
	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/types"
)

const defaultBaseURL = "https://api.gbif.org/v1"

// Match is the backbone match for a binomial name.
type Match struct {
	UsageKey       int    `json:"usageKey"`
	ScientificName string `json:"scientificName"`
	CanonicalName  string `json:"canonicalName"`
	Status         string `json:"status"`    // ACCEPTED, SYNONYM, DOUBTFUL
	MatchType      string `json:"matchType"` // EXACT, FUZZY, HIGHERRANK, NONE
	Rank           string `json:"rank"`
	Family         string `json:"family"`
	Genus          string `json:"genus"`
	Species        string `json:"species"`
	Confidence     int    `json:"confidence"`
	Synonym        bool   `json:"synonym"`
	AcceptedKey    int    `json:"acceptedUsageKey"`
}

// Accepted reports whether the match resolved to a usable species-rank name.
func (m *Match) Accepted() bool {
	return m.MatchType == "EXACT" || m.MatchType == "FUZZY"
}

// Client calls the GBIF species API.
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

// NewClient creates a GBIF client. The API needs no authentication.
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

// MatchName resolves a binomial name against the GBIF backbone. A NONE match
// returns ErrNotFound: the name does not exist in the backbone, which the
// identity module treats as a validation failure, not a transport error.
func (c *Client) MatchName(ctx context.Context, entity types.EntityKey) (*Match, error) {
	endpoint := fmt.Sprintf("%s/species/match?name=%s&rank=SPECIES",
		c.baseURL, url.QueryEscape(entity.String()))

	var match Match
	if err := c.transport.GetJSON(ctx, string(types.SourceGBIF), endpoint, &match); err != nil {
		return nil, err
	}
	if match.MatchType == "NONE" || match.MatchType == "" {
		return nil, fmt.Errorf("name %q: %w in GBIF backbone", entity, errors.ErrNotFound)
	}
	return &match, nil
}

// SpeciesURL returns the public species page for a usage key.
func (c *Client) SpeciesURL(usageKey int) string {
	return fmt.Sprintf("https://www.gbif.org/species/%d", usageKey)
}
