// Package sqlstore persists principals and properties in PostgreSQL or SQLite
// through database/sql. Queries are written once with '?' placeholders and
// rebound for postgres.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// timeLayout is fixed width so that text ordering matches time ordering.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// Store owns the connection pool shared by both repositories.
type Store struct {
	db     *sql.DB
	driver string
	logger zerolog.Logger
}

// Open connects to the database and creates the schema if needed.
// For sqlite, dsn is a file path; parent directories are created.
func Open(ctx context.Context, driver, dsn string, maxOpenConns int, logger zerolog.Logger) (*Store, error) {
	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}

	var sqlDriver string
	switch driver {
	case DriverPostgres:
		sqlDriver = "pgx"
	case DriverSQLite:
		sqlDriver = "sqlite"
		if dsn != ":memory:" && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		// Pragmas go in the DSN so every pooled connection gets them.
		dsn = withSQLitePragmas(dsn)
		// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
		maxOpenConns = 1
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns)
	if driver == DriverPostgres {
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	s := &Store{db: db, driver: driver, logger: logger.With().Str("component", "sqlstore").Logger()}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s.logger.Info().Str("driver", driver).Int("max_open_conns", maxOpenConns).Msg("SQL store initialized")
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS principals (
		id            TEXT PRIMARY KEY,
		kind          TEXT NOT NULL,
		username      TEXT NOT NULL UNIQUE,
		email         TEXT UNIQUE,
		password_hash TEXT NOT NULL,
		created_at    TEXT NOT NULL,
		updated_at    TEXT NOT NULL,
		CHECK (kind IN ('admin', 'user'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_principals_kind ON principals(kind)`,
	`CREATE TABLE IF NOT EXISTS properties (
		id                   TEXT PRIMARY KEY,
		slug                 TEXT NOT NULL,
		title                TEXT NOT NULL,
		description          TEXT NOT NULL DEFAULT '',
		price                DOUBLE PRECISION NOT NULL DEFAULT 0,
		address              TEXT NOT NULL DEFAULT '',
		city                 TEXT NOT NULL DEFAULT '',
		neighborhood         TEXT NOT NULL DEFAULT '',
		bedrooms             INTEGER NOT NULL DEFAULT 0,
		bathrooms            INTEGER NOT NULL DEFAULT 0,
		area                 DOUBLE PRECISION NOT NULL DEFAULT 0,
		images               TEXT NOT NULL DEFAULT '[]',
		property_type        TEXT NOT NULL,
		status               TEXT NOT NULL DEFAULT 'active',
		maintenance_fee      DOUBLE PRECISION NOT NULL DEFAULT 0,
		requirements         TEXT NOT NULL DEFAULT '',
		contact_info         TEXT NOT NULL DEFAULT '',
		location_coordinates TEXT NOT NULL DEFAULT '',
		owner_id             TEXT NOT NULL REFERENCES principals(id) ON DELETE CASCADE,
		created_at           TEXT NOT NULL,
		updated_at           TEXT NOT NULL,
		CHECK (property_type IN ('sale', 'rental')),
		CHECK (status IN ('active', 'paused'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_owner ON properties(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_created ON properties(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_properties_price ON properties(price)`,
}

// Ping is used by the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Principals returns the credential store backed by this connection.
func (s *Store) Principals() *PrincipalRepository {
	return &PrincipalRepository{store: s}
}

// Properties returns the listing store backed by this connection.
func (s *Store) Properties() *PropertyRepository {
	return &PropertyRepository{store: s}
}

// rebind rewrites '?' placeholders to $1..$n for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

// isUniqueViolation recognizes duplicate-key errors from either driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func withSQLitePragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by other tools may use plain RFC3339.
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}
