package store

import (
	"context"
	"embed"
	"path"
	"sort"
	"strings"

	"go-measure-pipeline/internal/errors"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

func (s *DB) migrationDir() string {
	if s.dialect == Postgres {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}

// Migrate runs all pending migrations in version order.
// Version is the filename prefix before the first underscore; 000 creates schema_migrations.
func (s *DB) Migrate(ctx context.Context) error {
	dir := s.migrationDir()
	entries, err := migrations.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "read migrations")
	}

	var migrationFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			migrationFiles = append(migrationFiles, entry.Name())
		}
	}
	sort.Strings(migrationFiles)

	applied := 0
	for _, filename := range migrationFiles {
		version := strings.Split(filename, "_")[0]

		var exists bool
		err := s.db.QueryRowContext(ctx,
			s.rebind("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)"), version).Scan(&exists)
		if err != nil {
			// Table doesn't exist yet - this must be migration 000
			if version != "000" {
				return errors.Newf("schema_migrations table missing, but migration is not 000: %s", filename)
			}
		} else if exists {
			s.log.Debugw("Skipping migration (already applied)", "migration", filename, "version", version)
			continue
		}

		sqlBytes, err := migrations.ReadFile(path.Join(dir, filename))
		if err != nil {
			return errors.Wrapf(err, "read %s", filename)
		}

		s.log.Infow("Applying migration", "migration", filename, "version", version)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return errors.Wrapf(err, "begin tx for %s", filename)
		}

		for _, stmt := range splitStatements(string(sqlBytes)) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				tx.Rollback()
				return errors.Wrapf(err, "execute %s", filename)
			}
		}

		if _, err := tx.ExecContext(ctx, s.rebind("INSERT INTO schema_migrations (version) VALUES (?)"), version); err != nil {
			tx.Rollback()
			return errors.Wrapf(err, "record %s", filename)
		}

		if err := tx.Commit(); err != nil {
			return errors.Wrapf(err, "commit %s", filename)
		}
		applied++
	}

	s.log.Infow("Migrations complete", "dialect", s.dialect, "total_migrations", len(migrationFiles), "applied", applied)
	return nil
}

// splitStatements splits a migration on semicolons. Migrations hold plain DDL only.
func splitStatements(sql string) []string {
	var out []string
	for _, stmt := range strings.Split(sql, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
