package modules

import (
	"github.com/verdantlabs/florasynth/pkg/errors"
)

// Resolve orders loaded modules so that every module appears after all of its
// dependencies. Among modules whose dependencies are all resolved, the input
// (registration) order is preserved, making runs deterministic.
//
// The loader has already verified that every dependency refers to a loaded
// module, so the only failure left is a cycle, reported as a CycleError
// naming every module that could not be scheduled.
func Resolve(loaded []Module) ([]Module, error) {
	indegree := make(map[string]int, len(loaded))
	dependents := make(map[string][]string, len(loaded))
	byID := make(map[string]Module, len(loaded))

	for _, mod := range loaded {
		desc := mod.Descriptor()
		byID[desc.ID] = mod
		indegree[desc.ID] = len(desc.Dependencies)
		for _, dep := range desc.Dependencies {
			dependents[dep] = append(dependents[dep], desc.ID)
		}
	}

	ordered := make([]Module, 0, len(loaded))
	scheduled := make(map[string]bool, len(loaded))

	// Kahn's algorithm, but instead of a queue we rescan the input slice on
	// each round: the first unscheduled zero-in-degree module in input order
	// is selected next. O(n^2) in module count, which is tiny here, and it
	// gives the registration-order tie-break for free.
	for len(ordered) < len(loaded) {
		progressed := false
		for _, mod := range loaded {
			id := mod.Descriptor().ID
			if scheduled[id] || indegree[id] != 0 {
				continue
			}
			scheduled[id] = true
			ordered = append(ordered, mod)
			for _, next := range dependents[id] {
				indegree[next]--
			}
			progressed = true
			break
		}
		if !progressed {
			var stuck []string
			for _, mod := range loaded {
				if id := mod.Descriptor().ID; !scheduled[id] {
					stuck = append(stuck, id)
				}
			}
			return nil, errors.NewCycleError(stuck)
		}
	}

	return ordered, nil
}
