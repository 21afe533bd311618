package docstore

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/roach88/unigraph/internal/query"
)

// BackendName is the name the store reports in logs and metrics.
const BackendName = "search"

// Store is a document backend over bleve indexes.
type Store struct {
	dir    string
	logger *slog.Logger

	mu      sync.Mutex
	indexes map[string]bleve.Index

	// writeMu serializes check-then-write sequences.
	writeMu sync.Mutex
}

var _ query.Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New returns a store keeping its indexes under dir, one subdirectory per
// location. An empty dir keeps every index in memory.
func New(dir string, opts ...Option) *Store {
	s := &Store{
		dir:     dir,
		logger:  slog.Default(),
		indexes: make(map[string]bleve.Index),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements query.Backend.
func (s *Store) Name() string { return BackendName }

// Close closes every open index.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for location, idx := range s.indexes {
		if err := idx.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", location, err))
		}
	}
	s.indexes = make(map[string]bleve.Index)
	return errors.Join(errs...)
}

// Index returns the index for location, opening or creating it.
func (s *Store) Index(location string) (bleve.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.indexes[location]; ok {
		return idx, nil
	}

	idx, err := s.open(location)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", location, err)
	}
	s.indexes[location] = idx
	s.logger.Debug("opened index", "location", location, "dir", s.dir)
	return idx, nil
}

func (s *Store) open(location string) (bleve.Index, error) {
	if s.dir == "" {
		return bleve.NewMemOnly(newMapping())
	}

	path := filepath.Join(s.dir, location+".bleve")
	if _, err := os.Stat(path); err == nil {
		return bleve.Open(path)
	}
	return bleve.New(path, newMapping())
}

// newMapping indexes every field dynamically with the keyword analyzer.
func newMapping() *mapping.IndexMappingImpl {
	m := bleve.NewIndexMapping()
	m.DefaultAnalyzer = keyword.Name
	return m
}
