// Package app provides the application context and dependency wiring for the
// florasynth CLI: configuration, logging, and pipeline construction.
package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/verdantlabs/florasynth"
	"github.com/verdantlabs/florasynth/internal/cache"
	"github.com/verdantlabs/florasynth/internal/fieldrules"
	"github.com/verdantlabs/florasynth/internal/inference"
	"github.com/verdantlabs/florasynth/internal/sink"
	"github.com/verdantlabs/florasynth/internal/sources"
	"github.com/verdantlabs/florasynth/internal/sources/gbif"
	"github.com/verdantlabs/florasynth/internal/sources/powo"
	"github.com/verdantlabs/florasynth/internal/sources/usda"
	"github.com/verdantlabs/florasynth/internal/sources/wikipedia"
	"github.com/verdantlabs/florasynth/internal/synth"
	"github.com/verdantlabs/florasynth/pkg/errors"
	"github.com/verdantlabs/florasynth/pkg/modules"
	"github.com/verdantlabs/florasynth/pkg/tiers"
	"github.com/verdantlabs/florasynth/pkg/types"
)

// App represents the florasynth application with its dependencies: the
// configuration, the logger, and the lazily built pipeline.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Pipeline instance (lazy-initialized, singleton)
	mu       sync.Mutex
	pipeline florasynth.Florasynth
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	return app, nil
}

// Version returns the version string.
func (a *App) Version() string { return a.version }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// Pipeline returns the pipeline instance, creating it on first use.
func (a *App) Pipeline(ctx context.Context) (florasynth.Florasynth, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pipeline != nil {
		return a.pipeline, nil
	}

	pipeline, err := a.buildPipeline(ctx, true)
	if err != nil {
		return nil, err
	}
	a.pipeline = pipeline
	return pipeline, nil
}

// SchemaPipeline builds a sinkless, inference-free pipeline for commands
// that only inspect the module graph (schema, modules). It needs no API key.
func (a *App) SchemaPipeline(ctx context.Context) (florasynth.Florasynth, error) {
	return a.buildPipeline(ctx, false)
}

// Shutdown releases the pipeline's sink.
func (a *App) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pipeline != nil {
		if err := a.pipeline.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close sink")
		}
		a.pipeline = nil
	}
}

// buildPipeline wires the full dependency graph from configuration. With
// full=false the inference oracle and sink are omitted; the resulting
// pipeline can describe itself but must not process entities.
func (a *App) buildPipeline(ctx context.Context, full bool) (florasynth.Florasynth, error) {
	store, err := cache.New(a.config.CacheDir)
	if err != nil {
		return nil, errors.NewConfigError("cache", "failed to create cache", err)
	}

	rules, err := fieldrules.NewProvider(a.config.RulesDir)
	if err != nil {
		return nil, err
	}

	var oracle tiers.Oracle
	if full {
		oracle, err = inference.New(ctx, a.config.GeminiAPIKey, a.config.InferenceModel)
		if err != nil {
			return nil, err
		}
	} else {
		oracle = unusableOracle{}
	}

	gbifClient := gbif.NewClient()
	powoClient := powo.NewClient()
	wikiClient := wikipedia.NewClient()
	usdaClient := usda.NewClient()

	providers := sources.New(
		sources.WithTrusted(powoClient),
		sources.WithSecondary(wikiClient, usdaClient),
		sources.WithCache(store),
	)

	processor, err := tiers.NewProcessor(providers, rules, oracle, tiers.WithCache(store))
	if err != nil {
		return nil, err
	}

	registry := modules.NewRegistry()
	err = synth.Register(registry, synth.Collaborators{
		Matcher:  gbifClient,
		GBIFURL:  gbifClient.SpeciesURL,
		Profiles: usdaClient,
		Pages:    powoClient,
		Fields:   processor,
	})
	if err != nil {
		return nil, err
	}

	opts := []florasynth.Option{florasynth.WithRegistry(registry)}
	if len(a.config.EnabledModules) > 0 {
		opts = append(opts, florasynth.WithEnabled(a.config.EnabledModules...))
	}
	if full {
		out, err := a.buildSink(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, florasynth.WithSink(out))
	}

	return florasynth.New(opts...)
}

// buildSink constructs the configured sink.
func (a *App) buildSink(ctx context.Context) (florasynth.Sink, error) {
	switch a.config.SinkType {
	case "stdout":
		return sink.NewStdout(os.Stdout), nil
	case "csv":
		return sink.NewCSV(a.config.OutputDir), nil
	case "sheets":
		return sink.NewSheets(ctx, a.config.CredentialsFile, a.config.SheetTitle, a.config.SheetFolder)
	default:
		return nil, errors.NewConfigError("sink", fmt.Sprintf("unknown sink type %q", a.config.SinkType), nil)
	}
}

// unusableOracle backs describe-only pipelines, where no module Run is ever
// invoked.
type unusableOracle struct{}

func (unusableOracle) AnswerFromSources(context.Context, types.FieldRule, types.EntityKey, []types.SourceExcerpt, *tiers.Answer) (tiers.SourcedAnswer, error) {
	return tiers.SourcedAnswer{}, errors.ErrAPIKeyRequired
}

func (unusableOracle) AnswerUnaided(context.Context, types.FieldRule, types.EntityKey) (tiers.UnaidedAnswer, error) {
	return tiers.UnaidedAnswer{}, errors.ErrAPIKeyRequired
}
