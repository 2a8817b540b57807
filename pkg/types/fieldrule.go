package types

import "fmt"

// FieldID identifies a semantic field processed by the tiered protocol,
// e.g. "growth-habit".
type FieldID string

// String returns the string representation of a field ID.
func (id FieldID) String() string {
	return string(id)
}

// FieldRule is the externally supplied rule set for one field. The tier
// processor applies the same rule at every tier; it never defines rules
// itself.
type FieldRule struct {
	Field FieldID `yaml:"field" json:"field"`

	// Description tells the answering capability what the field means.
	Description string `yaml:"description" json:"description"`

	// Format describes the required answer structure ("single phrase",
	// "semicolon-separated list", ...). Free text, passed through verbatim.
	Format string `yaml:"format,omitempty" json:"format,omitempty"`

	// MaxLength caps the answer length in characters. Zero means uncapped.
	MaxLength int `yaml:"max_length,omitempty" json:"max_length,omitempty"`

	// Vocabulary, when non-empty, restricts answers to the listed terms.
	Vocabulary []string `yaml:"vocabulary,omitempty" json:"vocabulary,omitempty"`

	// Prohibited lists content the answer must not contain (e.g. "common
	// names", "cultivation advice").
	Prohibited []string `yaml:"prohibited,omitempty" json:"prohibited,omitempty"`

	// BlankAllowed permits an empty answer when the sources are silent.
	BlankAllowed bool `yaml:"blank_allowed,omitempty" json:"blank_allowed,omitempty"`
}

// Validate checks the rule is usable by the tier processor.
func (r FieldRule) Validate() error {
	if r.Field == "" {
		return fmt.Errorf("field rule missing field id")
	}
	if r.Description == "" {
		return fmt.Errorf("field rule %s missing description", r.Field)
	}
	if r.MaxLength < 0 {
		return fmt.Errorf("field rule %s has negative max_length %d", r.Field, r.MaxLength)
	}
	return nil
}

// AllowsTerm reports whether a term is acceptable under the rule's
// controlled vocabulary. An empty vocabulary allows anything.
func (r FieldRule) AllowsTerm(term string) bool {
	if len(r.Vocabulary) == 0 {
		return true
	}
	for _, v := range r.Vocabulary {
		if v == term {
			return true
		}
	}
	return false
}
