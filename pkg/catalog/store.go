package catalog

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

// ReloadFunc is notified after every reload attempt with the number of
// definitions loaded or the error that kept the old catalog in place.
type ReloadFunc func(definitions int, err error)

// Store holds the active catalog. Readers always see a complete catalog;
// a failed reload keeps the previous one.
type Store struct {
	path     string
	current  atomic.Pointer[Catalog]
	logger   *slog.Logger
	onReload ReloadFunc
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the store's logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReloadFunc registers a callback for reload outcomes.
func WithReloadFunc(fn ReloadFunc) StoreOption {
	return func(s *Store) {
		s.onReload = fn
	}
}

// NewStore loads the catalog at path and returns a store serving it.
func NewStore(path string, opts ...StoreOption) (*Store, error) {
	s := &Store{
		path:   path,
		logger: slog.Default().With("component", "catalog.store"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewStaticStore returns a store serving c that cannot be reloaded.
func NewStaticStore(c *Catalog) *Store {
	s := &Store{logger: slog.Default().With("component", "catalog.store")}
	s.current.Store(c)
	return s
}

// Catalog returns the active catalog.
func (s *Store) Catalog() *Catalog {
	return s.current.Load()
}

// Get returns the named definition from the active catalog.
func (s *Store) Get(name string) (*Definition, error) {
	return s.Catalog().Get(name)
}

// Path returns the catalog file path.
func (s *Store) Path() string {
	return s.path
}

// Reload re-reads the catalog file. On error the active catalog is kept.
func (s *Store) Reload() error {
	if s.path == "" {
		return fmt.Errorf("catalog store has no file to reload")
	}

	c, err := Load(s.path)
	if err != nil {
		s.logger.Error("catalog reload failed", "path", s.path, "error", err)
		if s.onReload != nil {
			s.onReload(0, err)
		}
		return err
	}

	// The callback must observe the new catalog.
	s.current.Store(c)
	s.logger.Info("catalog loaded", "path", s.path, "definitions", c.Len())
	if s.onReload != nil {
		s.onReload(c.Len(), nil)
	}
	return nil
}
