package reportstore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/commentlink/internal/commentlink"
	"git.home.luguber.info/inful/commentlink/internal/foundation"
	ferrors "git.home.luguber.info/inful/commentlink/internal/foundation/errors"
	"git.home.luguber.info/inful/commentlink/internal/scan"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore persists scan batches.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the database at dbPath, creating parent directories.
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "create store directory").
				WithContext("path", dbPath).
				Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "open sqlite database").Build()
	}
	// A second connection to ":memory:" would see an empty database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "initialize schema").Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS scans (
		id TEXT PRIMARY KEY,
		workspace_root TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		finished_at INTEGER NOT NULL,
		full_scan INTEGER NOT NULL,
		canceled INTEGER NOT NULL,
		files INTEGER NOT NULL,
		links INTEGER NOT NULL,
		unresolved INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		scan_id TEXT NOT NULL REFERENCES scans(id) ON DELETE CASCADE,
		file TEXT NOT NULL,
		line INTEGER NOT NULL,
		col INTEGER NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		label TEXT NOT NULL,
		target TEXT NOT NULL,
		resolved_path TEXT,
		target_line INTEGER,
		strategy TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_results_scan ON results(scan_id);
	CREATE INDEX IF NOT EXISTS idx_scans_started ON scans(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveBatch stores the batch summary and every link result in one transaction.
func (s *SQLiteStore) SaveBatch(ctx context.Context, batch *scan.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "begin transaction").Build()
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (id, workspace_root, started_at, finished_at, full_scan, canceled, files, links, unresolved)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.WorkspaceRoot, batch.StartedAt.UnixNano(), batch.FinishedAt.UnixNano(),
		batch.Full, batch.Canceled, batch.Summary.Files, batch.Summary.Links, batch.Summary.Unresolved(),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "insert scan").
			WithContext("scan_id", batch.ID).
			Build()
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO results (scan_id, file, line, col, start_offset, end_offset, label, target,
			resolved_path, target_line, strategy, status, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "prepare result insert").Build()
	}
	defer stmt.Close()

	for _, f := range batch.Files {
		for _, l := range f.Links {
			_, err := stmt.ExecContext(ctx,
				batch.ID, f.Path, l.SourceLine, l.SourceColumn, l.FileStart, l.FileEnd, l.Occurrence.Label, l.Occurrence.RawTarget,
				nullString(l.ResolvedPath), nullInt(l.Result.Line), string(l.Strategy), string(l.Status), l.Reason,
			)
			if err != nil {
				return ferrors.WrapError(err, ferrors.CategoryStorage, "insert result").
					WithContext("file", f.Path).
					Build()
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryStorage, "commit scan").Build()
	}
	return nil
}

// ListScans returns up to limit scans, newest first. limit <= 0 returns all.
func (s *SQLiteStore) ListScans(ctx context.Context, limit int) ([]ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := scanColumns + " ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "query scans").Build()
	}
	defer rows.Close()

	var scans []ScanRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		scans = append(scans, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "iterate scans").Build()
	}
	return scans, nil
}

// Scan returns one scan by ID.
func (s *SQLiteStore) Scan(ctx context.Context, id string) (ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := scanRecord(s.db.QueryRowContext(ctx, scanColumns+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return ScanRecord{}, ferrors.NotFoundError("scan not found").WithContext("scan_id", id).Build()
	}
	return rec, err
}

// Results returns the stored results of a scan in file and source order.
// With unresolvedOnly, resolved links are left out.
func (s *SQLiteStore) Results(ctx context.Context, scanID string, unresolvedOnly bool) ([]ResultRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT scan_id, file, line, col, start_offset, end_offset, label, target,
		resolved_path, target_line, strategy, status, reason
		FROM results WHERE scan_id = ?`
	args := []any{scanID}
	if unresolvedOnly {
		query += " AND status <> ?"
		args = append(args, string(commentlink.StatusResolved))
	}
	rows, err := s.db.QueryContext(ctx, query+" ORDER BY id", args...)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "query results").Build()
	}
	defer rows.Close()

	var results []ResultRecord
	for rows.Next() {
		var (
			r                        ResultRecord
			resolved                 sql.NullString
			targetLine               sql.NullInt64
			strategy, status, reason string
		)
		err := rows.Scan(&r.ScanID, &r.File, &r.Line, &r.Column, &r.StartOffset, &r.EndOffset, &r.Label, &r.Target,
			&resolved, &targetLine, &strategy, &status, &reason)
		if err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "scan result").Build()
		}
		if r.Strategy, err = commentlink.ParseStrategy(strategy); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "corrupt strategy column").Build()
		}
		if r.Status, err = commentlink.ParseStatus(status); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "corrupt status column").Build()
		}
		if resolved.Valid {
			r.ResolvedPath = foundation.Some(resolved.String)
		}
		if targetLine.Valid {
			r.TargetLine = foundation.Some(int(targetLine.Int64))
		}
		r.Reason = reason
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryStorage, "iterate results").Build()
	}
	return results, nil
}

// Prune deletes all but the newest keep scans and returns how many were removed.
func (s *SQLiteStore) Prune(ctx context.Context, keep int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, ferrors.WrapError(err, ferrors.CategoryStorage, "begin transaction").Build()
	}
	defer func() { _ = tx.Rollback() }()

	stale := `SELECT id FROM scans ORDER BY started_at DESC, id LIMIT -1 OFFSET ?`
	if _, err := tx.ExecContext(ctx, "DELETE FROM results WHERE scan_id IN ("+stale+")", keep); err != nil {
		return 0, ferrors.WrapError(err, ferrors.CategoryStorage, "prune results").Build()
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM scans WHERE id IN ("+stale+")", keep)
	if err != nil {
		return 0, ferrors.WrapError(err, ferrors.CategoryStorage, "prune scans").Build()
	}
	n, _ := res.RowsAffected()
	if err := tx.Commit(); err != nil {
		return 0, ferrors.WrapError(err, ferrors.CategoryStorage, "commit prune").Build()
	}
	return int(n), nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

const scanColumns = `SELECT id, workspace_root, started_at, finished_at, full_scan, canceled, files, links, unresolved FROM scans`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ScanRecord, error) {
	var (
		rec             ScanRecord
		started, finish int64
	)
	err := row.Scan(&rec.ID, &rec.WorkspaceRoot, &started, &finish, &rec.Full, &rec.Canceled,
		&rec.Files, &rec.Links, &rec.Unresolved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, ferrors.WrapError(err, ferrors.CategoryStorage, "scan row").Build()
	}
	rec.StartedAt = time.Unix(0, started).UTC()
	rec.FinishedAt = time.Unix(0, finish).UTC()
	return rec, nil
}

func nullString(o foundation.Option[string]) sql.NullString {
	v, ok := o.Get()
	return sql.NullString{String: v, Valid: ok}
}

func nullInt(o foundation.Option[int]) sql.NullInt64 {
	v, ok := o.Get()
	return sql.NullInt64{Int64: int64(v), Valid: ok}
}
