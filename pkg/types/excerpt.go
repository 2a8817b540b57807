package types

// SourceID identifies a knowledge source that contributed an excerpt or a
// structured fact, e.g. "powo", "gbif", "wikipedia", "usda-plants".
type SourceID string

// String returns the string representation of a source ID.
func (id SourceID) String() string {
	return string(id)
}

// Well-known source IDs.
const (
	SourceGBIF      SourceID = "gbif"
	SourcePOWO      SourceID = "powo"
	SourceWikipedia SourceID = "wikipedia"
	SourceUSDA      SourceID = "usda-plants"
	SourceInference SourceID = "inference"
)

// SourceExcerpt is one passage of text returned by a source provider for a
// given (entity, field) request. Excerpts carry their origin so conflicts can
// name the disagreeing sources.
type SourceExcerpt struct {
	Source SourceID `yaml:"source" json:"source"`
	// Title is an optional human label for the passage (section heading,
	// record name).
	Title string `yaml:"title,omitempty" json:"title,omitempty"`
	Text  string `yaml:"text" json:"text"`
	// URL is the canonical location of the passage, when known.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
}
