// Package usda provides a client for the USDA PLANTS database, used for
// regional native-status checks and as a secondary source of habit notes.
package usda

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/verdantlabs/florasynth/internal/transport"
	"github.com/verdantlabs/florasynth/pkg/types"
)

const defaultBaseURL = "https://plantsservices.sc.egov.usda.gov/api"

// Region codes used by the PLANTS database.
var regionNames = map[string]string{
	"L48": "Lower 48 States",
	"AK":  "Alaska",
	"HI":  "Hawaii",
	"PR":  "Puerto Rico",
	"VI":  "Virgin Islands",
	"CAN": "Canada",
	"GL":  "Greenland",
	"SPM": "St. Pierre and Miquelon",
	"NA":  "North America",
}

// Status codes: N native, I introduced, NI both, W waif.
var statusNames = map[string]string{
	"N":  "native",
	"I":  "introduced",
	"NI": "native and introduced",
	"W":  "waif",
}

type nativeStatus struct {
	Region string `json:"Region"`
	Status string `json:"Status"`
}

type plantResult struct {
	Symbol         string         `json:"Symbol"`
	ScientificName string         `json:"ScientificName"`
	CommonName     string         `json:"CommonName"`
	GrowthHabits   []string       `json:"GrowthHabits"`
	NativeStatuses []nativeStatus `json:"NativeStatuses"`
}

type searchResponse struct {
	PlantResults []plantResult `json:"PlantResults"`
}

// Profile is the PLANTS record for one species.
type Profile struct {
	Symbol       string
	CommonName   string
	GrowthHabits []string
	// NativeRegions lists region names where the species is native.
	NativeRegions []string
	// IntroducedRegions lists region names where it is introduced.
	IntroducedRegions []string
}

// Native reports whether the species is native anywhere in North America.
func (p *Profile) Native() bool {
	return len(p.NativeRegions) > 0
}

// Client calls the USDA PLANTS search API.
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

// NewClient creates a USDA PLANTS client.
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
	return types.SourceUSDA
}

// Lookup fetches the PLANTS profile for a species. A species absent from the
// database returns (nil, nil): PLANTS only covers North America, so absence
// is expected for most of the world's flora.
func (c *Client) Lookup(ctx context.Context, entity types.EntityKey) (*Profile, error) {
	endpoint := fmt.Sprintf("%s/PlantSearch?text=%s&field=Scientific%%20Name",
		c.baseURL, url.QueryEscape(entity.String()))

	var resp searchResponse
	if err := c.transport.GetJSON(ctx, string(types.SourceUSDA), endpoint, &resp); err != nil {
		return nil, err
	}

	for _, result := range resp.PlantResults {
		if !strings.EqualFold(result.ScientificName, entity.String()) {
			continue
		}
		profile := &Profile{
			Symbol:       result.Symbol,
			CommonName:   result.CommonName,
			GrowthHabits: result.GrowthHabits,
		}
		for _, ns := range result.NativeStatuses {
			region := regionNames[ns.Region]
			if region == "" {
				region = ns.Region
			}
			switch ns.Status {
			case "N", "NI":
				profile.NativeRegions = append(profile.NativeRegions, region)
				if ns.Status == "NI" {
					profile.IntroducedRegions = append(profile.IntroducedRegions, region)
				}
			case "I", "W":
				profile.IntroducedRegions = append(profile.IntroducedRegions, region)
			}
		}
		sort.Strings(profile.NativeRegions)
		sort.Strings(profile.IntroducedRegions)
		return profile, nil
	}
	return nil, nil
}

// Excerpts renders the PLANTS profile as a secondary-source excerpt so the
// tier processor can weigh it against other sources.
func (c *Client) Excerpts(ctx context.Context, entity types.EntityKey, _ types.FieldID) ([]types.SourceExcerpt, error) {
	profile, err := c.Lookup(ctx, entity)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s).", entity, profile.CommonName)
	if len(profile.GrowthHabits) > 0 {
		fmt.Fprintf(&sb, " Growth habit: %s.", strings.ToLower(strings.Join(profile.GrowthHabits, ", ")))
	}
	if len(profile.NativeRegions) > 0 {
		fmt.Fprintf(&sb, " Native to %s.", strings.Join(profile.NativeRegions, ", "))
	}
	if len(profile.IntroducedRegions) > 0 {
		fmt.Fprintf(&sb, " Introduced in %s.", strings.Join(profile.IntroducedRegions, ", "))
	}

	return []types.SourceExcerpt{{
		Source: types.SourceUSDA,
		Title:  profile.Symbol,
		Text:   sb.String(),
		URL:    "https://plants.usda.gov/plant-profile/" + profile.Symbol,
	}}, nil
}

// StatusName expands a PLANTS status code for display.
func StatusName(code string) string {
	if name, ok := statusNames[code]; ok {
		return name
	}
	return code
}
