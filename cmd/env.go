package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/company-k/purchasing-cli/internal/docgen"
	"github.com/company-k/purchasing-cli/internal/pipeline"
	"github.com/company-k/purchasing-cli/internal/retrieval"
	anthropicpkg "github.com/company-k/purchasing-cli/pkg/anthropic"
	"github.com/company-k/purchasing-cli/pkg/embeddings"
)

// pipelineEnv holds the initialized store, clients and pipeline shared by
// the run/ingest/serve commands.
type pipelineEnv struct {
	Store    retrieval.Store
	Provider *retrieval.Provider
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initStore opens the retrieval store selected by store.driver and applies
// migrations.
func initStore(ctx context.Context) (retrieval.Store, error) {
	st, err := openStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func openStore(ctx context.Context) (retrieval.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return retrieval.NewMemory(), nil
	case "sqlite":
		st, err := retrieval.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, eris.Wrap(err, "open sqlite store")
		}
		zap.L().Debug("sqlite store opened", zap.String("path", cfg.Store.Path))
		return st, nil
	case "postgres":
		st, err := retrieval.NewPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "open postgres store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// initProvider builds the retrieval provider over the configured store and
// embedding backend. An unconfigured embeddings key leaves search degraded
// to empty results; ingestion will refuse to run.
func initProvider(ctx context.Context) (retrieval.Store, *retrieval.Provider, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	embedder := embeddings.NewClient(cfg.Embeddings.Key,
		embeddings.WithBaseURL(cfg.Embeddings.BaseURL),
		embeddings.WithModel(cfg.Embeddings.Model),
	)
	if !embedder.Available() {
		zap.L().Warn("embeddings key not set, retrieval context disabled")
	}

	provider := retrieval.NewProvider(st, embedder, cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	return st, provider, nil
}

// initPipeline sets up the store, clients and the pipeline. Callers should
// defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate("generate"); err != nil {
		return nil, err
	}

	st, provider, err := initProvider(ctx)
	if err != nil {
		return nil, err
	}

	var opts []anthropicpkg.Option
	if cfg.Anthropic.RequestsPerSecond > 0 {
		opts = append(opts, anthropicpkg.WithRateLimit(cfg.Anthropic.RequestsPerSecond))
	}
	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key, opts...)

	p := pipeline.New(cfg, anthropicClient, provider, docgen.NewDocxConverter())

	return &pipelineEnv{
		Store:    st,
		Provider: provider,
		Pipeline: p,
	}, nil
}
