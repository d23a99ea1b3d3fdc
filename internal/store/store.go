// Package store handles SQLite persistence of the title catalog.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/reelstats/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for catalog data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS imports (
			id INTEGER PRIMARY KEY,
			source TEXT NOT NULL,
			imported_at TEXT NOT NULL,
			rows INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS titles (
			id INTEGER PRIMARY KEY,
			import_id INTEGER NOT NULL,
			show_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			release_year INTEGER NOT NULL,
			duration REAL NOT NULL,
			genre TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_titles_release_year ON titles(release_year);`,
		`CREATE INDEX IF NOT EXISTS idx_titles_kind ON titles(kind);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// ReplaceTitles swaps the stored catalog for records and records the import.
func (s *Store) ReplaceTitles(ctx context.Context, source string, records []model.TitleRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM titles`); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO imports (source, imported_at, rows) VALUES (?, ?, ?)`,
		source,
		time.Now().UTC().Format(time.RFC3339Nano),
		len(records),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(records) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx,
			`INSERT INTO titles (import_id, show_id, kind, title, release_year, duration, genre)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for _, rec := range records {
			if _, err = stmt.ExecContext(ctx, id, rec.ShowID, rec.Kind, rec.Title, rec.ReleaseYear, rec.Duration, rec.Genre); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListTitles returns stored titles in import order. An empty kind matches all titles.
func (s *Store) ListTitles(ctx context.Context, kind string) ([]model.TitleRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT show_id, kind, title, release_year, duration, genre
		FROM titles
		WHERE (? = '' OR kind = ?)
		ORDER BY id ASC`, kind, kind)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.TitleRecord
	for rows.Next() {
		var rec model.TitleRecord
		if err := rows.Scan(&rec.ShowID, &rec.Kind, &rec.Title, &rec.ReleaseYear, &rec.Duration, &rec.Genre); err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LatestImport returns the most recent import, if any.
func (s *Store) LatestImport(ctx context.Context) (model.Import, bool, error) {
	var imp model.Import
	var importedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source, imported_at, rows FROM imports ORDER BY id DESC LIMIT 1`,
	).Scan(&imp.ID, &imp.Source, &importedAt, &imp.Rows)
	if err == sql.ErrNoRows {
		return model.Import{}, false, nil
	}
	if err != nil {
		return model.Import{}, false, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, importedAt)
	if err != nil {
		return model.Import{}, false, err
	}
	imp.ImportedAt = parsed
	return imp, true, nil
}

// CountByDecade returns the number of stored titles per decade, ascending.
func (s *Store) CountByDecade(ctx context.Context, kind string) ([]model.DecadeCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT (release_year - ((release_year % 10) + 10) % 10) AS decade, COUNT(*)
		FROM titles
		WHERE (? = '' OR kind = ?)
		GROUP BY decade
		ORDER BY decade ASC`, kind, kind)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.DecadeCount
	for rows.Next() {
		var dc model.DecadeCount
		if err := rows.Scan(&dc.Window.Start, &dc.Titles); err != nil {
			return nil, err
		}
		result = append(result, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
