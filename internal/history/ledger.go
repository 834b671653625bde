/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package history keeps a local SQLite ledger of saved exports.
// It records what was written where, never the composition itself.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gobizcard/internal/export"
	applog "gobizcard/internal/log"
	"gobizcard/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

// schemaVersion tracks the ledger schema. Bump it together with a migration step.
const schemaVersion = 2

// Ledger is an open export history database.
type Ledger struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

var _ export.Recorder = (*Ledger)(nil)

// Open creates or opens the ledger at path, enables WAL mode and brings the
// schema up to date.
func Open(path string) (*Ledger, error) {
	l := applog.WithOperation(applog.WithComponent("history"), "open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	// Use a URI with shared cache and set busy timeout. Convert to forward slashes for SQLite URI.
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		l.Error("run migrations failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("history ready")
	return &Ledger{db: db, path: path, log: applog.WithComponent("history")}, nil
}

func ensureSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS exports (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			created_at  TEXT NOT NULL,
			path        TEXT NOT NULL,
			bytes       INTEGER NOT NULL,
			pages       INTEGER NOT NULL,
			density     REAL NOT NULL,
			layers      INTEGER NOT NULL,
			sha256      TEXT NOT NULL
		);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	appv := version.String()
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		// fresh databases start at 1 and migrate forward
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, 1, ?, ?, ?)`, appv, now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, appv, now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

// runMigrations applies incremental schema migrations up to schemaVersion.
func runMigrations(ctx context.Context, db *sql.DB) error {
	var cur int
	if err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	for cur < schemaVersion {
		next := cur + 1
		var stmts []string
		switch next {
		case 2:
			stmts = []string{
				`CREATE INDEX IF NOT EXISTS idx_exports_sha ON exports(sha256);`,
				`CREATE INDEX IF NOT EXISTS idx_exports_created ON exports(created_at);`,
			}
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", next, err)
		}
		for _, q := range stmts {
			if _, err := tx.ExecContext(ctx, q); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("migration %d stmt failed: %w", next, err)
			}
		}
		if _, err := tx.ExecContext(ctx, `UPDATE version SET schema=?, updated_at=? WHERE id=1`, next, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d update version: %w", next, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d commit: %w", next, err)
		}
		cur = next
	}
	return nil
}

// Path returns the database file location.
func (lg *Ledger) Path() string { return lg.path }

// Record appends one export to the ledger.
func (lg *Ledger) Record(ctx context.Context, e export.Entry) error {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	_, err := lg.db.ExecContext(ctx,
		`INSERT INTO exports (created_at, path, bytes, pages, density, layers, sha256) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Time.UTC().Format(time.RFC3339Nano), e.Path, e.Bytes, e.Pages, e.Density, e.Layers, e.SHA256)
	if err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	lg.log.Debug("export recorded", slog.String("path", e.Path))
	return nil
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (lg *Ledger) Recent(ctx context.Context, n int) ([]export.Entry, error) {
	q := `SELECT created_at, path, bytes, pages, density, layers, sha256 FROM exports ORDER BY id DESC`
	args := []any{}
	if n > 0 {
		q += ` LIMIT ?`
		args = append(args, n)
	}
	rows, err := lg.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query exports: %w", err)
	}
	defer rows.Close()
	var out []export.Entry
	for rows.Next() {
		var e export.Entry
		var ts string
		if err := rows.Scan(&ts, &e.Path, &e.Bytes, &e.Pages, &e.Density, &e.Layers, &e.SHA256); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			e.Time = t
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database.
func (lg *Ledger) Close() error {
	if lg == nil || lg.db == nil {
		return nil
	}
	return lg.db.Close()
}
