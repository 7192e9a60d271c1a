// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so the binary needs
// no C toolchain. The package talks to it through database/sql:
//
//   - sql.DB      — a connection pool (NOT a single connection!)
//   - sql.Tx      — a transaction
//   - sql.Row     — a single result row
//   - sql.Rows    — multiple result rows (must be closed!)
//
// The schema lives in migrations/*.sql, embedded into the binary and applied
// by goose every time New opens a database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/portfolio/internal/apperror"
	"github.com/sakif/portfolio/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps a sql.DB connection pool and implements every repository
// interface in the repository package.
type DB struct {
	conn *sql.DB
}

// New opens the database described by dsn and brings its schema up to date.
//
// dsn examples:
//   - "data/portfolio.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests; lost on close)
//
// Pragmas are passed in the DSN rather than executed once, so every
// connection the pool opens gets foreign keys and a busy timeout, not just
// the first one.
func New(dsn string) (*DB, error) {
	memory := isMemory(dsn)

	conn, err := sql.Open("sqlite", withPragmas(dsn, memory))
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each connection to ":memory:" is its own empty database, so the pool
	// must never open a second one.
	if memory {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping verifies the database is reachable. Used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate applies every pending migration from the embedded migrations
// directory. goose records applied versions in goose_db_version, so
// running it against an up-to-date database is a no-op.
func (db *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, ":memory:?") || strings.Contains(dsn, "mode=memory")
}

// withPragmas appends the connection pragmas to dsn. WAL is skipped for
// in-memory databases, which do not support it.
func withPragmas(dsn string, memory bool) string {
	pragmas := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
	}
	if !memory {
		pragmas = append(pragmas, "_pragma=journal_mode(WAL)")
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}

// isUniqueViolation reports whether err is SQLite rejecting a row because
// of a UNIQUE or PRIMARY KEY constraint.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY
}

// now returns the current time in UTC without a monotonic reading, which is
// the form every timestamp is written in.
func now() time.Time {
	return time.Now().UTC()
}

// checkAffected turns "zero rows affected" into a NotFound error. Shared by
// every UPDATE and DELETE, which detect missing rows this way instead of
// running a SELECT first.
func checkAffected(result sql.Result, resource, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// countTables is the whitelist of tables Count may query. Table names cannot
// be bound as parameters, so anything not listed here is rejected.
var countTables = map[repository.Table]bool{
	repository.TableProjects:     true,
	repository.TableSkills:       true,
	repository.TableExperiences:  true,
	repository.TableSocials:      true,
	repository.TableBlogPosts:    true,
	repository.TableBlogComments: true,
	repository.TableContacts:     true,
	repository.TableFeedback:     true,
}

var _ repository.CountRepository = (*DB)(nil)

// Count returns the number of rows in table.
func (db *DB) Count(ctx context.Context, table repository.Table) (int64, error) {
	if !countTables[table] {
		return 0, fmt.Errorf("sqlite: counting unknown table %q", table)
	}

	var n int64
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+string(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting %s: %w", table, err)
	}
	return n, nil
}
