package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"mercator-hq/tabular/pkg/catalog"
	"mercator-hq/tabular/pkg/config"
	"mercator-hq/tabular/pkg/tabular"
	"mercator-hq/tabular/pkg/telemetry/logging"
)

// AdhocName labels exports run from an inline query.
const AdhocName = "adhoc"

// Querier runs a query and materializes its rows. *sqlsource.Source
// implements it.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*tabular.Table, error)
}

// Recorder receives the outcome of every export run. *metrics.Collector
// implements it.
type Recorder interface {
	RecordExport(export, trigger string, duration time.Duration, err error)
}

// Defaults are the encoding settings used when a definition does not
// override them.
type Defaults struct {
	QuoteEscaping bool
	Encoding      string
	LineEnding    string
	MissingFields string
	TimeLayout    string
	OutputDir     string
}

// DefaultsFromConfig converts the export configuration section.
func DefaultsFromConfig(cfg config.ExportConfig) Defaults {
	return Defaults{
		QuoteEscaping: cfg.QuoteEscapingEnabled(),
		Encoding:      cfg.Encoding,
		LineEnding:    cfg.LineEnding,
		MissingFields: cfg.MissingFields,
		TimeLayout:    cfg.TimeLayout,
		OutputDir:     cfg.OutputDir,
	}
}

// Overrides adjust the encoding of a single run. Zero fields keep the
// definition or default value.
type Overrides struct {
	QuoteEscaping *bool
	Encoding      string
	LineEnding    string
}

// Result is a produced CSV stream and what it took to build it.
type Result struct {
	// Name is the definition name, or AdhocName.
	Name string

	// Reader holds the encoded CSV, positioned at the start.
	Reader *bytes.Reader

	// Rows is the number of data rows (header excluded).
	Rows int

	// Charset is the canonical name of the text encoding used.
	Charset string

	// Duration covers the query and the encoding.
	Duration time.Duration
}

// Size returns the stream length in bytes.
func (r *Result) Size() int64 {
	return r.Reader.Size()
}

// Service runs export definitions: it queries the source and encodes the
// rows with the definition's mapping.
type Service struct {
	store    *catalog.Store
	source   Querier
	defaults Defaults
	observer tabular.Observer
	recorder Recorder
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithObserver forwards encoder outcomes to o.
func WithObserver(o tabular.Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithRecorder reports export runs to r.
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates an export service.
func NewService(store *catalog.Store, source Querier, defaults Defaults, opts ...Option) *Service {
	s := &Service{
		store:    store,
		source:   source,
		defaults: defaults,
		logger:   slog.Default().With("component", "export.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the active catalog.
func (s *Service) Catalog() *catalog.Catalog {
	return s.store.Catalog()
}

// Run runs the named definition.
func (s *Service) Run(ctx context.Context, name string) (*Result, error) {
	return s.RunWith(ctx, name, Overrides{})
}

// RunWith runs the named definition with per-run overrides.
func (s *Service) RunWith(ctx context.Context, name string, o Overrides) (*Result, error) {
	def, err := s.store.Get(name)
	if err != nil {
		return nil, err
	}

	settings := Overrides{
		QuoteEscaping: def.QuoteEscaping,
		Encoding:      def.Encoding,
		LineEnding:    def.LineEnding,
	}
	settings = merge(settings, o)

	return s.run(logging.WithExport(ctx, def.Name), def.Name, def.Query, def.Mapping(), settings)
}

// RunQuery runs an inline query with mapping m.
func (s *Service) RunQuery(ctx context.Context, query string, m *tabular.Mapping, o Overrides) (*Result, error) {
	if m == nil {
		return nil, tabular.ErrNilMapping
	}
	return s.run(logging.WithExport(ctx, AdhocName), AdhocName, query, m, o)
}

func (s *Service) run(ctx context.Context, name, query string, m *tabular.Mapping, o Overrides) (res *Result, err error) {
	start := time.Now()
	trigger := logging.GetTrigger(ctx)
	if trigger == "" {
		trigger = "direct"
	}
	defer func() {
		if s.recorder != nil {
			s.recorder.RecordExport(name, trigger, time.Since(start), err)
		}
	}()

	enc, charset, err := s.encoder(o)
	if err != nil {
		return nil, err
	}

	table, err := s.source.Query(ctx, query)
	if err != nil {
		s.logger.ErrorContext(ctx, "export query failed", "error", err)
		return nil, fmt.Errorf("export %q: %w", name, err)
	}

	r, err := enc.EncodeRelationalRows(table, m)
	if err != nil {
		s.logger.ErrorContext(ctx, "export encoding failed", "error", err)
		return nil, fmt.Errorf("export %q: %w", name, err)
	}

	res = &Result{
		Name:     name,
		Reader:   r,
		Rows:     table.Len(),
		Charset:  charset,
		Duration: time.Since(start),
	}
	s.logger.InfoContext(ctx, "export complete",
		"rows", res.Rows,
		"bytes", res.Size(),
		"charset", charset,
		"duration", res.Duration,
	)
	return res, nil
}

// encoder builds an encoder from the defaults and o.
func (s *Service) encoder(o Overrides) (*tabular.Encoder, string, error) {
	escaping := s.defaults.QuoteEscaping
	if o.QuoteEscaping != nil {
		escaping = *o.QuoteEscaping
	}

	encName := s.defaults.Encoding
	if o.Encoding != "" {
		encName = o.Encoding
	}
	enc, err := tabular.LookupEncoding(encName)
	if err != nil {
		return nil, "", err
	}

	eolName := s.defaults.LineEnding
	if o.LineEnding != "" {
		eolName = o.LineEnding
	}
	eol, err := tabular.ParseLineEnding(eolName)
	if err != nil {
		return nil, "", err
	}

	policy, ok := tabular.ParseMissingFieldPolicy(s.defaults.MissingFields)
	if !ok {
		return nil, "", fmt.Errorf("invalid missing fields policy %q", s.defaults.MissingFields)
	}

	opts := []tabular.Option{
		tabular.WithQuoteEscaping(escaping),
		tabular.WithEncoding(enc),
		tabular.WithLineEnding(eol),
		tabular.WithMissingFields(policy),
		tabular.WithLogger(s.logger),
	}
	if s.defaults.TimeLayout != "" {
		opts = append(opts, tabular.WithTimeLayout(s.defaults.TimeLayout))
	}
	if s.observer != nil {
		opts = append(opts, tabular.WithObserver(s.observer))
	}

	return tabular.NewEncoder(opts...), tabular.EncodingName(enc), nil
}

func merge(base, o Overrides) Overrides {
	if o.QuoteEscaping != nil {
		base.QuoteEscaping = o.QuoteEscaping
	}
	if o.Encoding != "" {
		base.Encoding = o.Encoding
	}
	if o.LineEnding != "" {
		base.LineEnding = o.LineEnding
	}
	return base
}

// WriteFile runs the named definition and writes the result to path. An
// empty path uses the definition's output. Relative paths are resolved
// against the configured output directory. The file is replaced
// atomically.
func (s *Service) WriteFile(ctx context.Context, name, path string) (*Result, error) {
	def, err := s.store.Get(name)
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = def.Output
	}
	if path == "" {
		return nil, fmt.Errorf("export %q has no output path", def.Name)
	}
	path = s.OutputPath(path)

	res, err := s.Run(ctx, def.Name)
	if err != nil {
		return nil, err
	}
	if err := WriteAtomic(path, res.Reader); err != nil {
		return nil, fmt.Errorf("export %q: %w", def.Name, err)
	}

	s.logger.InfoContext(logging.WithExport(ctx, def.Name), "export written", "path", path)
	return res, nil
}

// OutputPath resolves a relative output path against the output directory.
func (s *Service) OutputPath(path string) string {
	if filepath.IsAbs(path) || s.defaults.OutputDir == "" {
		return path
	}
	return filepath.Join(s.defaults.OutputDir, path)
}

// WriteAtomic writes r to a temporary file next to path and renames it
// into place.
func WriteAtomic(path string, r *bytes.Reader) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return err
	}
	if _, err = r.WriteTo(tmp); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync output: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set output permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}

	// Leave the reader where callers expect it
	_, err = r.Seek(0, io.SeekStart)
	return err
}

// IsNotFound reports whether err means the export definition does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, catalog.ErrNotFound)
}
