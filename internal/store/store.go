package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/memelib/internal/liberr"
	"github.com/roach88/memelib/internal/querysql"
)

// timeLayout is the fixed-width UTC text form of every stored timestamp.
// It matches SQLite's strftime('%Y-%m-%d %H:%M:%f').
const timeLayout = "2006-01-02 15:04:05.000"

// Store provides durable storage for memes and tags.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db       *sql.DB
	clock    func() time.Time
	logger   *slog.Logger
	compiler *querysql.SQLCompiler
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for create_time and update_time.
// Defaults to time.Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// WithLogger sets the logger used for migration and maintenance messages.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// A migration failure is fatal: the database is closed and the error
// returned. This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, liberr.Storage("open", fmt.Errorf("failed to open database: %w", err))
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, liberr.Storage("open", fmt.Errorf("failed to connect to database: %w", err))
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, liberr.Storage("open", fmt.Errorf("failed to apply pragmas: %w", err))
	}

	s := &Store{
		db:       db,
		clock:    time.Now,
		logger:   slog.Default(),
		compiler: querysql.NewSQLCompiler(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// now returns the current clock time in stored form.
func (s *Store) now() string {
	return formatTime(s.clock())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

// timestamp scans a stored timestamp. The driver hands DATETIME columns
// back as time.Time when it recognizes the text, and as text otherwise.
type timestamp time.Time

func (ts *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*ts = timestamp(v.UTC())
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp value %T", src)
	}
}

func (ts *timestamp) parse(s string) error {
	for _, layout := range []string{timeLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			*ts = timestamp(t.UTC())
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
