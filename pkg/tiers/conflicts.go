package tiers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/verdantlabs/florasynth/pkg/types"
)

// detectVocabularyConflicts scans tier-2 excerpts for terms of the field's
// controlled vocabulary and reports a conflict when distinct sources claim
// distinct terms, or when a source's claim differs from the tier-1 answer.
// Fields without a vocabulary are left to the inference capability's own
// conflict reporting.
func detectVocabularyConflicts(rule types.FieldRule, excerpts []types.SourceExcerpt, prior *Answer) []Conflict {
	if len(rule.Vocabulary) == 0 {
		return nil
	}

	// One claim per source: the first vocabulary term that appears in any of
	// the source's excerpts. Sources whose text mentions no vocabulary term
	// make no claim and cannot conflict.
	claims := make(map[types.SourceID]string)
	for _, ex := range excerpts {
		if _, claimed := claims[ex.Source]; claimed {
			continue
		}
		if term := firstVocabularyTerm(rule.Vocabulary, ex.Text); term != "" {
			claims[ex.Source] = term
		}
	}

	if prior != nil && !prior.NotPresent && prior.Value != "" && rule.AllowsTerm(prior.Value) {
		for _, src := range prior.Sources {
			if _, claimed := claims[src]; !claimed {
				claims[src] = prior.Value
			}
		}
	}

	distinct := make(map[string]bool, len(claims))
	for _, term := range claims {
		distinct[term] = true
	}
	if len(distinct) < 2 {
		return nil
	}

	return []Conflict{{Claims: claims}}
}

// firstVocabularyTerm returns the first vocabulary term found in the text,
// scanning terms in their declared order for determinism.
func firstVocabularyTerm(vocabulary []string, text string) string {
	lower := strings.ToLower(text)
	for _, term := range vocabulary {
		if strings.Contains(lower, strings.ToLower(term)) {
			return term
		}
	}
	return ""
}

// mergeConflicts combines processor-detected and capability-reported
// conflicts, dropping duplicates with identical claim sets.
func mergeConflicts(a, b []Conflict) []Conflict {
	merged := make([]Conflict, 0, len(a)+len(b))
	seen := make(map[string]bool)
	for _, c := range append(a, b...) {
		sig := conflictSignature(c)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		merged = append(merged, c)
	}
	return merged
}

func conflictSignature(c Conflict) string {
	parts := make([]string, 0, len(c.Claims))
	for src, claim := range c.Claims {
		parts = append(parts, string(src)+"="+claim)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}

// summarizeConflicts renders conflicts as "source=claim" clauses.
func summarizeConflicts(conflicts []Conflict) string {
	if len(conflicts) == 0 {
		return ""
	}
	var clauses []string
	for _, c := range conflicts {
		parts := make([]string, 0, len(c.Claims))
		for src, claim := range c.Claims {
			parts = append(parts, fmt.Sprintf("%s=%s", src, claim))
		}
		sort.Strings(parts)
		clauses = append(clauses, strings.Join(parts, ", "))
	}
	return strings.Join(clauses, " | ")
}
