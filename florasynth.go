// Package florasynth aggregates botanical facts about (genus, species)
// entities from heterogeneous knowledge sources into validated,
// column-structured records.
//
// The package is a facade over the module engine: callers register synthesis
// modules, the engine validates and orders them, and each Process call runs
// the full pipeline for one entity. Valid records flow to the configured
// sink.
package florasynth

import (
	"context"
	"sync"

	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/logging"
	"github.com/verdantlabs/florasynth/pkg/modules"
	"github.com/verdantlabs/florasynth/pkg/types"
)

// Sink receives the output schema once and then one row per valid record.
type Sink interface {
	EnsureSchema(ctx context.Context, schema *modules.Schema) error
	Append(ctx context.Context, record *modules.Record) error
	Close() error
}

// Florasynth runs the synthesis pipeline over entities.
type Florasynth interface {
	// Schema returns the output column schema, fixed at construction.
	Schema() *modules.Schema

	// Descriptors returns the loaded modules' descriptors in resolved order.
	Descriptors() []modules.Descriptor

	// Process runs the pipeline for one entity. Module failures are recorded
	// in the returned record, never returned as errors; the error return is
	// reserved for sink failures.
	Process(ctx context.Context, entity types.EntityKey) (*modules.Record, error)

	// ProcessBatch runs the pipeline for each entity with per-entity
	// isolation: one entity's failures never affect another. Only a sink
	// failure aborts the batch.
	ProcessBatch(ctx context.Context, entities []types.EntityKey) (*BatchReport, error)

	// Close releases the sink.
	Close() error
}

// BatchReport summarizes a ProcessBatch run.
type BatchReport struct {
	// Records holds every entity's record, valid or not, in input order.
	Records []*modules.Record
	// Succeeded counts records that passed the critical gate.
	Succeeded int
	// Failed counts records aborted by a critical module failure.
	Failed int
}

type florasynth struct {
	ordered  []modules.Module
	schema   *modules.Schema
	executor *modules.Executor
	sink     Sink

	sinkOnce sync.Once
	sinkErr  error
}

// New builds the pipeline: loads the enabled modules from the registry,
// resolves their order, and derives the schema. Loading is all-or-nothing;
// any contract violation fails construction.
func New(opts ...Option) (Florasynth, error) {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if cfg.registry == nil {
		return nil, errors.NewConfigError("florasynth", "no module registry configured", nil)
	}

	loaded, err := cfg.registry.Load(cfg.enabled)
	if err != nil {
		return nil, err
	}
	ordered, err := modules.Resolve(loaded)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(ordered))
	for i, mod := range ordered {
		ids[i] = mod.Descriptor().ID
	}
	logging.Debug().Strs("modules", ids).Msg("Pipeline resolved")

	return &florasynth{
		ordered:  ordered,
		schema:   modules.BuildSchema(ordered),
		executor: modules.NewExecutor(),
		sink:     cfg.sink,
	}, nil
}

func (f *florasynth) Schema() *modules.Schema {
	return f.schema
}

func (f *florasynth) Descriptors() []modules.Descriptor {
	descs := make([]modules.Descriptor, len(f.ordered))
	for i, mod := range f.ordered {
		descs[i] = mod.Descriptor()
	}
	return descs
}

func (f *florasynth) Process(ctx context.Context, entity types.EntityKey) (*modules.Record, error) {
	if err := entity.Validate(); err != nil {
		return nil, err
	}

	record := f.executor.Run(ctx, entity, f.ordered)

	if f.sink != nil && record.Valid() {
		if err := f.ensureSink(ctx); err != nil {
			return record, err
		}
		if err := f.sink.Append(ctx, record); err != nil {
			return record, err
		}
	}
	return record, nil
}

func (f *florasynth) ProcessBatch(ctx context.Context, entities []types.EntityKey) (*BatchReport, error) {
	report := &BatchReport{Records: make([]*modules.Record, 0, len(entities))}

	for _, entity := range entities {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		record, err := f.Process(ctx, entity)
		if err != nil {
			var sinkErr *errors.SinkError
			if errors.As(err, &sinkErr) {
				return report, err
			}
			// Invalid entity input: isolate it like a failed run.
			logging.Ctx(ctx).Warn().Err(err).
				Str("entity", entity.String()).
				Msg("Entity rejected")
			report.Failed++
			continue
		}

		report.Records = append(report.Records, record)
		if record.Valid() {
			report.Succeeded++
		} else {
			report.Failed++
		}
	}
	return report, nil
}

func (f *florasynth) Close() error {
	if f.sink == nil {
		return nil
	}
	return f.sink.Close()
}

// ensureSink runs the sink's one-time schema setup.
func (f *florasynth) ensureSink(ctx context.Context) error {
	f.sinkOnce.Do(func() {
		f.sinkErr = f.sink.EnsureSchema(ctx, f.schema)
	})
	return f.sinkErr
}
