// Package migrate applies the numbered *.up.sql files that define the
// postgres ledger schema. Applied versions are recorded in
// schema_migrations (bigint version + dirty flag).
package migrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// lockKey serialises migration runs from concurrently starting servers.
const lockKey = int64(7_341_902_115)

// Migration is one schema step parsed from a file name like "001_visits.up.sql".
type Migration struct {
	Version int64
	File    string
}

// Migrator applies the migrations found in a directory.
type Migrator struct {
	db     *pgxpool.Pool
	dir    string
	logger *zap.Logger
}

// New creates a Migrator reading *.up.sql files from dir.
func New(db *pgxpool.Pool, dir string, logger *zap.Logger) *Migrator {
	return &Migrator{db: db, dir: dir, logger: logger}
}

// Apply runs every migration not yet recorded, each in its own transaction,
// and returns how many were applied.
func (m *Migrator) Apply(ctx context.Context) (int, error) {
	migrations, err := Load(m.dir)
	if err != nil {
		return 0, err
	}

	if _, err := m.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version bigint NOT NULL,
			dirty   boolean NOT NULL,
			PRIMARY KEY (version)
		)`); err != nil {
		return 0, fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := 0
	for _, mig := range migrations {
		ran, err := m.applyOne(ctx, mig)
		if err != nil {
			return applied, err
		}
		if ran {
			applied++
		}
	}

	m.logger.Info("migrations complete",
		zap.Int("applied", applied),
		zap.Int("total", len(migrations)),
	)
	return applied, nil
}

func (m *Migrator) applyOne(ctx context.Context, mig Migration) (bool, error) {
	sql, err := os.ReadFile(filepath.Join(m.dir, mig.File))
	if err != nil {
		return false, fmt.Errorf("read %s: %w", mig.File, err)
	}

	ran := false
	err = pgx.BeginFunc(ctx, m.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}

		var dirty bool
		err := tx.QueryRow(ctx,
			"SELECT dirty FROM schema_migrations WHERE version = $1", mig.Version,
		).Scan(&dirty)
		switch {
		case err == nil && !dirty:
			return nil
		case err == nil && dirty:
			return fmt.Errorf("migration %d is marked dirty; fix the schema by hand and clear the flag", mig.Version)
		case !errors.Is(err, pgx.ErrNoRows):
			return fmt.Errorf("check %s: %w", mig.File, err)
		}

		if _, err := tx.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply %s: %w", mig.File, err)
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO schema_migrations (version, dirty) VALUES ($1, false)", mig.Version,
		); err != nil {
			return fmt.Errorf("record %s: %w", mig.File, err)
		}
		ran = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if ran {
		m.logger.Info("migration applied", zap.String("file", mig.File), zap.Int64("version", mig.Version))
	}
	return ran, nil
}

// Load returns the *.up.sql migrations in dir ordered by version.
// Two files with the same version are an error.
func Load(dir string) ([]Migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var out []Migration
	seen := make(map[int64]string)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".up.sql") {
			continue
		}
		ver, err := versionFromFile(e.Name())
		if err != nil {
			return nil, fmt.Errorf("parse version from %s: %w", e.Name(), err)
		}
		if prev, dup := seen[ver]; dup {
			return nil, fmt.Errorf("duplicate migration version %d: %s and %s", ver, prev, e.Name())
		}
		seen[ver] = e.Name()
		out = append(out, Migration{Version: ver, File: e.Name()})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// versionFromFile extracts the leading integer: "001_visits.up.sql" → 1.
func versionFromFile(filename string) (int64, error) {
	prefix, _, ok := strings.Cut(filename, "_")
	if !ok {
		return 0, fmt.Errorf("unexpected filename format %q", filename)
	}
	return strconv.ParseInt(prefix, 10, 64)
}
