package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/unigraph/internal/config"
	"github.com/roach88/unigraph/internal/docstore"
	"github.com/roach88/unigraph/internal/graph"
	"github.com/roach88/unigraph/internal/query"
	"github.com/roach88/unigraph/internal/store"
)

// OpenOptions locates backend storage and configures the controllers.
type OpenOptions struct {
	// DBPath is the SQLite file. Empty means an in-memory database.
	DBPath string

	// IndexDir holds the bleve indexes. Empty means in-memory indexes.
	IndexDir string

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// IDs assigns identities to new elements. Defaults to UUIDv7.
	IDs graph.IDGenerator
}

// Open creates the backends cfg refers to, runs its setup statements and
// returns a graph with one controller per backend, in the order backends
// first appear in cfg. Close the graph to release the backends.
func Open(ctx context.Context, cfg *config.Graph, opts OpenOptions) (*Graph, error) {
	sets, err := cfg.Sets()
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctrlOpts := []query.Option{query.WithLogger(logger)}
	if opts.IDs != nil {
		ctrlOpts = append(ctrlOpts, query.WithIDGenerator(opts.IDs))
	}
	if cfg.Concurrency > 0 {
		ctrlOpts = append(ctrlOpts, query.WithConcurrency(cfg.Concurrency))
	}

	var controllers []*query.Controller
	fail := func(err error) (*Graph, error) {
		return nil, errors.Join(err, New(controllers).Close())
	}

	for _, set := range sets {
		var backend query.Backend
		switch set.Backend {
		case config.BackendSQL:
			s, err := openSQL(ctx, cfg.Setup, opts.DBPath, logger)
			if err != nil {
				return fail(err)
			}
			backend = s
		case config.BackendSearch:
			backend = docstore.New(opts.IndexDir, docstore.WithLogger(logger))
		default:
			return fail(fmt.Errorf("unknown backend %q", set.Backend))
		}
		controllers = append(controllers, query.New(backend, set.Schemas, ctrlOpts...))
		logger.Debug("backend opened", "backend", set.Backend, "schemas", len(set.Schemas))
	}
	return New(controllers, WithLogger(logger)), nil
}

func openSQL(ctx context.Context, setup []string, path string, logger *slog.Logger) (*store.Store, error) {
	if path == "" {
		path = ":memory:"
	}
	s, err := store.Open(path, store.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	for _, stmt := range setup {
		if err := s.Exec(ctx, stmt); err != nil {
			return nil, errors.Join(fmt.Errorf("setup: %w", err), s.Close())
		}
	}
	return s, nil
}
