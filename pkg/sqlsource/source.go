package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/tabular/pkg/config"
	"mercator-hq/tabular/pkg/tabular"

	_ "github.com/mattn/go-sqlite3" // SQLite driver (cgo), registered as "sqlite3"
	_ "modernc.org/sqlite"          // SQLite driver (pure Go), registered as "sqlite"
)

// Driver names accepted by Open.
const (
	DriverModernc = "sqlite"
	DriverCgo     = "sqlite3"
)

// ErrTooManyRows is returned when a query produces more rows than MaxRows.
var ErrTooManyRows = tabular.ErrTooManyRows

// ErrUnsupportedDriver is returned by Open for an unknown driver name.
var ErrUnsupportedDriver = errors.New("unsupported driver")

// Config configures a relational source.
type Config struct {
	// Driver is "sqlite" (modernc.org/sqlite) or "sqlite3" (mattn/go-sqlite3).
	Driver string

	// DSN is the database path or URI.
	DSN string

	// MaxOpenConns is the connection pool size. Zero leaves the driver default.
	MaxOpenConns int

	// MaxIdleConns is the number of idle connections kept.
	MaxIdleConns int

	// BusyTimeout is how long to wait for locks before failing.
	BusyTimeout time.Duration

	// QueryTimeout bounds each query. Zero means no timeout.
	QueryTimeout time.Duration

	// MaxRows caps the rows a single query may return. Zero means no limit.
	MaxRows int
}

// FromConfig converts the source configuration section.
func FromConfig(cfg config.SourceConfig) Config {
	return Config{
		Driver:       cfg.Driver,
		DSN:          cfg.DSN,
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
		BusyTimeout:  cfg.BusyTimeout,
		QueryTimeout: cfg.QueryTimeout,
		MaxRows:      cfg.MaxRows,
	}
}

// Source runs queries against a SQLite database and materializes the
// results as tables ready for encoding.
type Source struct {
	db     *sql.DB
	config Config
	logger *slog.Logger
}

// Open opens the database described by cfg and verifies the connection.
func Open(cfg Config) (*Source, error) {
	if cfg.Driver == "" {
		cfg.Driver = DriverModernc
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn cannot be empty")
	}

	dsn, err := buildDSN(cfg.Driver, cfg.DSN, cfg.BusyTimeout)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger := slog.Default().With("component", "sqlsource", "driver", cfg.Driver)
	logger.Debug("database opened", "dsn", cfg.DSN)

	return &Source{
		db:     db,
		config: cfg,
		logger: logger,
	}, nil
}

// buildDSN appends the busy timeout in the parameter syntax each driver
// understands.
func buildDSN(driver, dsn string, busyTimeout time.Duration) (string, error) {
	var param string
	switch driver {
	case DriverModernc:
		param = fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeout.Milliseconds())
	case DriverCgo:
		param = fmt.Sprintf("_busy_timeout=%d", busyTimeout.Milliseconds())
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	if busyTimeout <= 0 {
		return dsn, nil
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + param, nil
}

// Query runs query and returns every row as a table. The query is bounded
// by QueryTimeout and the result by MaxRows.
func (s *Source) Query(ctx context.Context, query string, args ...any) (*tabular.Table, error) {
	if s.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	table, err := tabular.ScanRows(rows, s.config.MaxRows)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "query complete",
		"rows", table.Len(),
		"columns", len(table.Columns()),
		"duration", time.Since(start),
	)
	return table, nil
}

// Exec runs a statement that returns no rows.
func (s *Source) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if s.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.QueryTimeout)
		defer cancel()
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("exec failed: %w", err)
	}
	return res, nil
}

// Tables lists the user tables and views of the database.
func (s *Source) Tables(ctx context.Context) ([]string, error) {
	table, err := s.Query(ctx,
		`SELECT name FROM sqlite_master WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, table.Len())
	for _, row := range table.Rows() {
		v, _ := row.Value("name")
		names = append(names, fmt.Sprint(v))
	}
	return names, nil
}

// Ping verifies the database is reachable.
func (s *Source) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying database handle.
func (s *Source) DB() *sql.DB {
	return s.db
}

// Driver returns the driver name in use.
func (s *Source) Driver() string {
	return s.config.Driver
}

// Close closes the database.
func (s *Source) Close() error {
	return s.db.Close()
}
