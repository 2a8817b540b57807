package types

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// EntityKey identifies the (genus, species) pair processed by one pipeline
// run. It is immutable for the lifetime of the run.
type EntityKey struct {
	Genus   string `yaml:"genus" json:"genus"`
	Species string `yaml:"species" json:"species"`
}

// String returns the binomial form, e.g. "Quercus alba".
func (e EntityKey) String() string {
	return e.Genus + " " + e.Species
}

// Slug returns a filesystem- and cache-safe form, e.g. "quercus-alba".
func (e EntityKey) Slug() string {
	return strings.ToLower(e.Genus) + "-" + strings.ToLower(e.Species)
}

// IsZero reports whether the key has no genus and no species.
func (e EntityKey) IsZero() bool {
	return e.Genus == "" && e.Species == ""
}

var genusCaser = cases.Title(language.English, cases.NoLower)

// NewEntityKey builds a normalized entity key: genus title-cased, species
// lower-cased, surrounding whitespace stripped.
func NewEntityKey(genus, species string) EntityKey {
	return EntityKey{
		Genus:   genusCaser.String(strings.ToLower(strings.TrimSpace(genus))),
		Species: strings.ToLower(strings.TrimSpace(species)),
	}
}

// ParseEntityKey parses a binomial name such as "Quercus alba" into an
// EntityKey. Subspecific epithets are rejected; the pipeline operates at
// species rank.
func ParseEntityKey(name string) (EntityKey, error) {
	parts := strings.Fields(name)
	if len(parts) != 2 {
		return EntityKey{}, fmt.Errorf("expected binomial name (genus species), got %q", name)
	}
	key := NewEntityKey(parts[0], parts[1])
	if err := key.Validate(); err != nil {
		return EntityKey{}, err
	}
	return key, nil
}

// Validate checks that both epithets are present and look like latin names.
func (e EntityKey) Validate() error {
	if e.Genus == "" {
		return fmt.Errorf("entity key missing genus")
	}
	if e.Species == "" {
		return fmt.Errorf("entity key missing species epithet")
	}
	for _, part := range []string{e.Genus, e.Species} {
		for _, r := range part {
			if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && r != '-' {
				return fmt.Errorf("epithet %q contains non-latin character %q", part, r)
			}
		}
	}
	return nil
}
