package synth

import (
	"github.com/verdantlabs/florasynth/pkg/modules"
)

// Collaborators holds the external clients the built-in modules are wired
// over. Interface-typed so tests can substitute fakes.
type Collaborators struct {
	Matcher  TaxonMatcher
	GBIFURL  func(usageKey int) string
	Profiles ProfileLookup
	Pages    TaxonPager
	Fields   FieldProcessor
}

// builtin is one row of the static registration table.
type builtin struct {
	id      string
	factory func(c Collaborators) modules.Module
}

// builtins is the static registration table. Order matters: it is the
// resolver's tie-break, so edits here change output column order.
var builtins = []builtin{
	{"identity", func(c Collaborators) modules.Module { return NewIdentity(c.Matcher) }},
	{"native-status", func(c Collaborators) modules.Module { return NewNativeStatus(c.Profiles) }},
	{"references", func(c Collaborators) modules.Module { return NewReferences(c.Matcher, c.GBIFURL, c.Pages) }},
	{"growth-habit", func(c Collaborators) modules.Module { return NewTieredField("growth-habit", "Growth Habit", c.Fields) }},
	{"propagation", func(c Collaborators) modules.Module { return NewTieredField("propagation", "Propagation", c.Fields) }},
}

// Register adds every built-in module to the registry.
func Register(registry *modules.Registry, c Collaborators) error {
	for _, b := range builtins {
		b := b
		if err := registry.Register(b.id, func() (modules.Module, error) {
			return b.factory(c), nil
		}); err != nil {
			return err
		}
	}
	return nil
}

// BuiltinIDs returns the built-in module IDs in registration order.
func BuiltinIDs() []string {
	ids := make([]string, len(builtins))
	for i, b := range builtins {
		ids[i] = b.id
	}
	return ids
}
