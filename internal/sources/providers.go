// Package sources aggregates the individual knowledge-source clients into
// the excerpt-provider contract used by the tier processor: a trusted set
// backing tier 1 and a broader secondary set backing tier 2.
package sources

import (
	"context"

	"github.com/goccy/go-yaml"

	"github.com/verdantlabs/florasynth/internal/cache"
	"github.com/verdantlabs/florasynth/pkg/logging"
	"github.com/verdantlabs/florasynth/pkg/types"
)

// ExcerptSource is one knowledge source that can supply excerpts for an
// (entity, field) request. Implementations return an empty list for "no
// data" and error only on transport failure.
type ExcerptSource interface {
	ID() types.SourceID
	Excerpts(ctx context.Context, entity types.EntityKey, field types.FieldID) ([]types.SourceExcerpt, error)
}

// Providers groups sources by trust level and caches their responses.
// It implements the tier processor's ExcerptProvider contract.
type Providers struct {
	trusted   []ExcerptSource
	secondary []ExcerptSource
	cache     *cache.Cache
}

// Option configures a Providers aggregate.
type Option func(*Providers)

// WithTrusted appends tier-1 sources.
func WithTrusted(sources ...ExcerptSource) Option {
	return func(p *Providers) { p.trusted = append(p.trusted, sources...) }
}

// WithSecondary appends tier-2 sources.
func WithSecondary(sources ...ExcerptSource) Option {
	return func(p *Providers) { p.secondary = append(p.secondary, sources...) }
}

// WithCache enables per-(source, entity, field) response caching.
func WithCache(c *cache.Cache) Option {
	return func(p *Providers) { p.cache = c }
}

// New creates a Providers aggregate.
func New(opts ...Option) *Providers {
	p := &Providers{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TrustedExcerpts returns the tier-1 source set for a field.
func (p *Providers) TrustedExcerpts(ctx context.Context, entity types.EntityKey, field types.FieldID) ([]types.SourceExcerpt, error) {
	return p.collect(ctx, p.trusted, entity, field)
}

// SecondaryExcerpts returns the tier-2 source set for a field.
func (p *Providers) SecondaryExcerpts(ctx context.Context, entity types.EntityKey, field types.FieldID) ([]types.SourceExcerpt, error) {
	return p.collect(ctx, p.secondary, entity, field)
}

// collect gathers excerpts from each source in declaration order. A single
// failing source is logged and skipped so one outage cannot blank the whole
// tier; the error is surfaced only when every source failed and nothing was
// collected.
func (p *Providers) collect(ctx context.Context, set []ExcerptSource, entity types.EntityKey, field types.FieldID) ([]types.SourceExcerpt, error) {
	log := logging.Ctx(ctx)

	var collected []types.SourceExcerpt
	var lastErr error
	failures := 0

	for _, source := range set {
		excerpts, err := p.fetch(ctx, source, entity, field)
		if err != nil {
			log.Warn().Err(err).
				Str("source", source.ID().String()).
				Str("field", field.String()).
				Msg("Source fetch failed")
			failures++
			lastErr = err
			continue
		}
		collected = append(collected, excerpts...)
	}

	if len(collected) == 0 && failures > 0 && failures == len(set) {
		return nil, lastErr
	}
	return collected, nil
}

// fetch returns a source's excerpts, consulting the cache first. Concurrent
// runs asking for the same key share one upstream call.
func (p *Providers) fetch(ctx context.Context, source ExcerptSource, entity types.EntityKey, field types.FieldID) ([]types.SourceExcerpt, error) {
	if p.cache == nil {
		return source.Excerpts(ctx, entity, field)
	}

	key := "excerpts/" + source.ID().String() + "/" + entity.Slug() + "/" + field.String()
	data, err := p.cache.GetOrFill(key, func() ([]byte, error) {
		excerpts, err := source.Excerpts(ctx, entity, field)
		if err != nil {
			return nil, err
		}
		return yaml.Marshal(excerpts)
	})
	if err != nil {
		return nil, err
	}

	var excerpts []types.SourceExcerpt
	if err := yaml.Unmarshal(data, &excerpts); err != nil {
		return nil, err
	}
	return excerpts, nil
}
