package tiers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/logging"
	"github.com/verdantlabs/florasynth/pkg/types"
)

// ExcerptProvider supplies source excerpts for an (entity, field) request.
// Providers return an empty list for "no data"; an error means transport
// failure only.
type ExcerptProvider interface {
	// TrustedExcerpts returns the tier-1 source set.
	TrustedExcerpts(ctx context.Context, entity types.EntityKey, field types.FieldID) ([]types.SourceExcerpt, error)

	// SecondaryExcerpts returns the broader tier-2 source set.
	SecondaryExcerpts(ctx context.Context, entity types.EntityKey, field types.FieldID) ([]types.SourceExcerpt, error)
}

// RuleProvider supplies the externally defined rule set for a field. The
// processor applies the rule identically at every tier.
type RuleProvider interface {
	Rule(field types.FieldID) (types.FieldRule, error)
}

// SourcedAnswer is the inference capability's answer for the source-bound
// tiers.
type SourcedAnswer struct {
	Value      string
	NotPresent bool
	// Conflicts reports disagreements the capability observed between the
	// supplied sources (or with the prior tier's answer).
	Conflicts []Conflict
}

// UnaidedAnswer is the inference capability's independent answer.
type UnaidedAnswer struct {
	Value       string
	Granularity Granularity
}

// Oracle is the inference capability behind all three tiers. Implementations
// own retries and timeouts; the processor only records terminal outcomes.
type Oracle interface {
	// AnswerFromSources answers strictly from the supplied excerpts and must
	// not introduce facts absent from them. prior is the tier-1 answer when
	// answering tier 2, nil when answering tier 1.
	AnswerFromSources(ctx context.Context, rule types.FieldRule, entity types.EntityKey, excerpts []types.SourceExcerpt, prior *Answer) (SourcedAnswer, error)

	// AnswerUnaided answers from general background knowledge given only the
	// field definition and entity identity. It receives no prior-tier
	// context; tier-3 independence is structural, enforced by this
	// signature.
	AnswerUnaided(ctx context.Context, rule types.FieldRule, entity types.EntityKey) (UnaidedAnswer, error)
}

// Cache stores serialized tier results keyed by (entity, field, tier,
// source-set hash). A hit short-circuits the inference call for that tier.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, data []byte)
}

// Processor runs the three-tier protocol.
type Processor struct {
	sources ExcerptProvider
	rules   RuleProvider
	oracle  Oracle
	cache   Cache
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithCache enables per-tier result caching.
func WithCache(cache Cache) ProcessorOption {
	return func(p *Processor) { p.cache = cache }
}

// NewProcessor creates a tier processor over the given collaborators.
func NewProcessor(sources ExcerptProvider, rules RuleProvider, oracle Oracle, opts ...ProcessorOption) (*Processor, error) {
	if sources == nil || rules == nil || oracle == nil {
		return nil, errors.NewConfigError("tiers", "excerpt provider, rule provider, and oracle are all required", nil)
	}
	p := &Processor{sources: sources, rules: rules, oracle: oracle}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Process runs all three tiers for one field of one entity. Tiers 1 and 3
// have no data dependency and run concurrently; tier 2 runs after tier 1.
// A tier failure populates that tier's slot with a failure marker and never
// blocks the siblings. Process itself fails only when the field rule cannot
// be obtained.
func (p *Processor) Process(ctx context.Context, entity types.EntityKey, field types.FieldID) (*Result, error) {
	rule, err := p.rules.Rule(field)
	if err != nil {
		return nil, errors.NewConfigError("field-rules", fmt.Sprintf("no rule for field %s", field), err)
	}
	if err := rule.Validate(); err != nil {
		return nil, errors.NewConfigError("field-rules", "invalid rule", err)
	}

	result := &Result{Entity: entity, Field: field}

	var wg sync.WaitGroup
	wg.Add(2)

	var trusted []types.SourceExcerpt
	go func() {
		defer wg.Done()
		trusted, result.Tier1 = p.runTier1(ctx, rule, entity)
		result.Stats.Tier1Sources = countSources(trusted)
	}()

	go func() {
		defer wg.Done()
		result.Tier3, result.Tier3Granularity = p.runTier3(ctx, rule, entity)
	}()

	wg.Wait()

	secondary, tier2, conflicts := p.runTier2(ctx, rule, entity, result.Tier1)
	result.Tier2 = tier2
	result.Tier2Conflicts = conflicts
	result.Stats.Tier2Sources = countSources(secondary)

	return result, nil
}

// runTier1 produces the source-bound answer from the trusted excerpt set.
func (p *Processor) runTier1(ctx context.Context, rule types.FieldRule, entity types.EntityKey) ([]types.SourceExcerpt, Answer) {
	log := logging.Ctx(ctx)

	excerpts, err := p.sources.TrustedExcerpts(ctx, entity, rule.Field)
	if err != nil {
		log.Warn().Err(err).Str("field", rule.Field.String()).Msg("Trusted source fetch failed")
		return nil, failedAnswer(errors.NewTierError(rule.Field.String(), entity.String(), 1, err))
	}
	if len(excerpts) == 0 {
		// Nothing supplied, nothing to answer from. No inference call.
		return nil, Answer{NotPresent: true}
	}

	key := tierKey(entity, rule.Field, 1, excerpts)
	if answer, ok := p.cached(key); ok {
		return excerpts, answer
	}

	sourced, err := p.oracle.AnswerFromSources(ctx, rule, entity, excerpts, nil)
	if err != nil {
		return excerpts, failedAnswer(errors.NewTierError(rule.Field.String(), entity.String(), 1, err))
	}

	answer := Answer{
		Value:      sourced.Value,
		NotPresent: sourced.NotPresent,
		Sources:    sourceIDs(excerpts),
	}
	p.store(key, answer)
	return excerpts, answer
}

// runTier2 expands tier 1 with the secondary source set. It runs even when
// tier 1 reported "not present" or failed; in the failed case the prior is
// withheld so a broken tier cannot contaminate this one.
func (p *Processor) runTier2(ctx context.Context, rule types.FieldRule, entity types.EntityKey, tier1 Answer) ([]types.SourceExcerpt, Answer, []Conflict) {
	log := logging.Ctx(ctx)

	excerpts, err := p.sources.SecondaryExcerpts(ctx, entity, rule.Field)
	if err != nil {
		log.Warn().Err(err).Str("field", rule.Field.String()).Msg("Secondary source fetch failed")
		return nil, failedAnswer(errors.NewTierError(rule.Field.String(), entity.String(), 2, err)), nil
	}

	var prior *Answer
	if !tier1.Failed {
		prior = &tier1
	}

	if len(excerpts) == 0 {
		// No secondary sources: tier 2 can only restate tier 1.
		if prior != nil && !prior.NotPresent {
			return nil, Answer{Value: prior.Value, Sources: prior.Sources}, nil
		}
		return nil, Answer{NotPresent: true}, nil
	}

	vocabConflicts := detectVocabularyConflicts(rule, excerpts, prior)

	// The cached tier-2 entry carries the conflicts alongside the answer:
	// vocabulary conflicts are recomputed from the excerpts on every run,
	// but the capability-reported ones exist only in the original response.
	key := tierKey(entity, rule.Field, 2, excerpts)
	if data, ok := p.cacheGet(key); ok {
		var cached tier2Envelope
		if err := yaml.Unmarshal(data, &cached); err == nil {
			return excerpts, cached.Answer, mergeConflicts(vocabConflicts, cached.Conflicts)
		}
	}

	sourced, err := p.oracle.AnswerFromSources(ctx, rule, entity, excerpts, prior)
	if err != nil {
		return excerpts, failedAnswer(errors.NewTierError(rule.Field.String(), entity.String(), 2, err)), vocabConflicts
	}

	answer := Answer{
		Value:      sourced.Value,
		NotPresent: sourced.NotPresent,
		Sources:    unionSources(prior, excerpts),
	}
	if p.cache != nil {
		if data, err := yaml.Marshal(tier2Envelope{answer, sourced.Conflicts}); err == nil {
			p.cache.Set(key, data)
		}
	}

	return excerpts, answer, mergeConflicts(vocabConflicts, sourced.Conflicts)
}

// runTier3 produces the independent answer. The call path receives only the
// rule and the entity; tier-1/2 state is not reachable from here, and the
// cache key carries no source material, so a cached tier-3 value can never
// have been seeded from the other tiers.
func (p *Processor) runTier3(ctx context.Context, rule types.FieldRule, entity types.EntityKey) (Answer, Granularity) {
	key := tierKey(entity, rule.Field, 3, nil)
	if data, ok := p.cacheGet(key); ok {
		var cached struct {
			Answer      Answer      `yaml:"answer"`
			Granularity Granularity `yaml:"granularity"`
		}
		if err := yaml.Unmarshal(data, &cached); err == nil {
			return cached.Answer, cached.Granularity
		}
	}

	unaided, err := p.oracle.AnswerUnaided(ctx, rule, entity)
	if err != nil {
		return failedAnswer(errors.NewTierError(rule.Field.String(), entity.String(), 3, err)), GranularityUnknown
	}

	answer := Answer{Value: unaided.Value, Sources: []types.SourceID{types.SourceInference}}
	granularity := unaided.Granularity
	if granularity == "" {
		granularity = GranularityUnknown
	}

	if p.cache != nil {
		data, err := yaml.Marshal(struct {
			Answer      Answer      `yaml:"answer"`
			Granularity Granularity `yaml:"granularity"`
		}{answer, granularity})
		if err == nil {
			p.cache.Set(key, data)
		}
	}

	return answer, granularity
}

// tier2Envelope is the cached form of a tier-2 result.
type tier2Envelope struct {
	Answer    Answer     `yaml:"answer"`
	Conflicts []Conflict `yaml:"conflicts,omitempty"`
}

func (p *Processor) cached(key string) (Answer, bool) {
	data, ok := p.cacheGet(key)
	if !ok {
		return Answer{}, false
	}
	var answer Answer
	if err := yaml.Unmarshal(data, &answer); err != nil {
		return Answer{}, false
	}
	return answer, true
}

func (p *Processor) cacheGet(key string) ([]byte, bool) {
	if p.cache == nil {
		return nil, false
	}
	return p.cache.Get(key)
}

func (p *Processor) store(key string, answer Answer) {
	if p.cache == nil {
		return
	}
	data, err := yaml.Marshal(answer)
	if err != nil {
		return
	}
	p.cache.Set(key, data)
}

// tierKey builds the cache key for (entity, field, tier, source-set hash).
// Tier 3 passes no excerpts; its key hashes only the tier marker.
func tierKey(entity types.EntityKey, field types.FieldID, tier int, excerpts []types.SourceExcerpt) string {
	h := sha256.New()
	fmt.Fprintf(h, "tier%d", tier)
	hashed := make([]string, 0, len(excerpts))
	for _, ex := range excerpts {
		hashed = append(hashed, string(ex.Source)+"\x00"+ex.Title+"\x00"+ex.Text)
	}
	sort.Strings(hashed)
	for _, s := range hashed {
		h.Write([]byte(s))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%s/%s/%s", entity.Slug(), field, hex.EncodeToString(h.Sum(nil))[:16])
}

func failedAnswer(err error) Answer {
	return Answer{Failed: true, FailureReason: err.Error()}
}

func countSources(excerpts []types.SourceExcerpt) int {
	seen := make(map[types.SourceID]bool, len(excerpts))
	for _, ex := range excerpts {
		seen[ex.Source] = true
	}
	return len(seen)
}

func sourceIDs(excerpts []types.SourceExcerpt) []types.SourceID {
	seen := make(map[types.SourceID]bool, len(excerpts))
	var ids []types.SourceID
	for _, ex := range excerpts {
		if !seen[ex.Source] {
			seen[ex.Source] = true
			ids = append(ids, ex.Source)
		}
	}
	return ids
}

func unionSources(prior *Answer, excerpts []types.SourceExcerpt) []types.SourceID {
	seen := make(map[types.SourceID]bool)
	var ids []types.SourceID
	if prior != nil {
		for _, id := range prior.Sources {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	for _, id := range sourceIDs(excerpts) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
