package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"go-measure-pipeline/internal/errors"
	"go-measure-pipeline/internal/logger"
)

// Dialect names a supported SQL backend by its database/sql driver name
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "pgx"
)

// DB is the record and summary store over one database/sql pool
type DB struct {
	db      *sql.DB
	dialect Dialect
	log     *zap.SugaredLogger
}

// Open connects to the database for driver and checks the connection.
// SQLite gets WAL journaling, foreign keys and a busy timeout.
func Open(driver, dsn string, log *zap.SugaredLogger) (*DB, error) {
	log = logger.Or(log).With("component", "store")
	dialect := Dialect(driver)

	switch dialect {
	case SQLite:
		dsn = sqliteDSN(dsn)
	case Postgres:
	default:
		return nil, errors.Newf("unsupported database driver %q", driver)
	}

	log.Debugw("Opening database", "driver", driver)
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database")
	}

	if dialect == SQLite {
		if strings.Contains(dsn, ":memory:") {
			// each pooled connection would get its own empty database
			sqlDB.SetMaxOpenConns(1)
		}
		if _, err := sqlDB.Exec("PRAGMA journal_mode = WAL"); err != nil {
			sqlDB.Close()
			return nil, errors.Wrap(err, "failed to enable WAL mode")
		}
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	log.Infow("Database opened successfully", "driver", driver)
	return NewWithDB(sqlDB, dialect, log), nil
}

// OpenWithMigrations opens the database and applies pending migrations
func OpenWithMigrations(ctx context.Context, driver, dsn string, log *zap.SugaredLogger) (*DB, error) {
	store, err := Open(driver, dsn, log)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, errors.Wrap(err, "failed to run migrations")
	}
	return store, nil
}

// NewWithDB wraps an existing pool; used with sqlmock in tests
func NewWithDB(sqlDB *sql.DB, dialect Dialect, log *zap.SugaredLogger) *DB {
	return &DB{db: sqlDB, dialect: dialect, log: logger.Or(log)}
}

// Dialect returns the backend in use
func (s *DB) Dialect() Dialect {
	return s.dialect
}

// Ping checks the connection
func (s *DB) Ping(ctx context.Context) error {
	return errors.Storage(s.db.PingContext(ctx), "ping database")
}

// Close releases the pool
func (s *DB) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders for the dialect
func (s *DB) rebind(query string) string {
	return Rebind(s.dialect, query)
}

// Rebind converts ? placeholders to $1..$n for Postgres. Queries here never
// contain literal question marks.
func Rebind(dialect Dialect, query string) string {
	if dialect != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqliteDSN adds connection parameters so every pooled connection shares the
// same busy timeout and foreign key setting, and write transactions take the
// lock up front.
func sqliteDSN(dsn string) string {
	params := []string{"_busy_timeout=5000", "_foreign_keys=on", "_txlock=immediate"}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		dsn = "file:" + dsn
	}
	return dsn + sep + strings.Join(params, "&")
}
