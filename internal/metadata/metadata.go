// Package metadata is the relational store for file/archive records and
// the full-text line index, backed by SQLite with an FTS5 virtual table.
// One Store instance owns one workspace's metadata.db.
package metadata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	appErrors "github.com/logforge/logforge/internal/errors"
)

// File is a row of the files table plus its FTS-eligible status.
type File struct {
	ID                int64
	SHA256Hash        string
	VirtualPath       string
	OriginalName      string
	Size              int64
	MTime             time.Time
	InferredLevel     string // "", DEBUG, INFO, WARN, ERROR, FATAL
	InferredTimestamp *time.Time
	ArchiveID         *int64
}

// Archive is a row of the archives table.
type Archive struct {
	ID              int64
	SHA256Hash      string
	VirtualPath     string
	Format          string
	Depth           int
	ParentArchiveID *int64
}

// LineHit is a single FTS match: a (file, line) pair with its text.
type LineHit struct {
	FileID     int64
	LineNumber int
	LineText   string
}

// Store wraps the sqlite connection for a single workspace's metadata.db.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the metadata database at dbPath and
// applies the schema. Caller owns the returned Store and must Close it.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, appErrors.MetadataIo("open", err)
	}
	// FTS5 and foreign-key cascades are not safe under concurrent writers;
	// sqlite3 itself serializes at the connection level, but a single
	// shared *sql.DB with SetMaxOpenConns(1) avoids SQLITE_BUSY churn from
	// Go's connection pool opening parallel connections onto one file.
	db.SetMaxOpenConns(1)

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var schemaStmts = []string{
	`CREATE TABLE IF NOT EXISTS archives (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sha256_hash TEXT NOT NULL,
		virtual_path TEXT NOT NULL,
		format TEXT NOT NULL,
		depth INTEGER NOT NULL DEFAULT 0,
		parent_archive_id INTEGER REFERENCES archives(id) ON DELETE CASCADE
	);`,
	`CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		sha256_hash TEXT NOT NULL,
		virtual_path TEXT NOT NULL,
		original_name TEXT NOT NULL,
		size INTEGER NOT NULL,
		mtime TEXT NOT NULL,
		inferred_level TEXT NOT NULL DEFAULT '',
		inferred_timestamp TEXT,
		archive_id INTEGER REFERENCES archives(id) ON DELETE SET NULL
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_files_virtual_path ON files(virtual_path);`,
	`CREATE INDEX IF NOT EXISTS idx_files_sha256_hash ON files(sha256_hash);`,
	`CREATE INDEX IF NOT EXISTS idx_files_level ON files(inferred_level);`,
	`CREATE INDEX IF NOT EXISTS idx_files_timestamp ON files(inferred_timestamp);`,
	`CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
		line_text,
		file_id UNINDEXED,
		line_number UNINDEXED,
		tokenize="unicode61 tokenchars '_.:/\-'"
	);`,
}

func ensureSchema(db *sql.DB) error {
	for _, stmt := range schemaStmts {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			return appErrors.MetadataIo("ensure_schema", fmt.Errorf("%s: %w", stmt, err))
		}
	}
	return nil
}

// InsertFile upserts by virtual path: content is deduplicated at the
// CAS layer (two files with identical bytes share one object), but each
// virtual path still gets its own files row, so two distinct imported
// paths with identical content both remain listable and searchable. A
// re-insert at a virtual path already on record (a refresh that found
// changed content) replaces that row's metadata and FTS lines in place
// rather than leaving the stale index entry behind. Lines is the file's
// tokenized text content, skipped entirely for binary files.
func (s *Store) InsertFile(rec File, lines []string) (int64, error) {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return 0, appErrors.MetadataIo("insert_file:begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	id, err := insertFileTx(tx, rec, lines)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, appErrors.MetadataIo("insert_file:commit", err)
	}
	return id, nil
}

// InsertFilesBatch applies InsertFile's idempotent upsert rule to every
// record inside a single transaction, so a crash mid-batch leaves no
// partially-indexed file (I5 FTS/file consistency).
func (s *Store) InsertFilesBatch(recs []File, linesByIndex [][]string) ([]int64, error) {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return nil, appErrors.MetadataIo("insert_files_batch:begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, len(recs))
	for i, rec := range recs {
		var lines []string
		if i < len(linesByIndex) {
			lines = linesByIndex[i]
		}
		id, err := insertFileTx(tx, rec, lines)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.MetadataIo("insert_files_batch:commit", err)
	}
	return ids, nil
}

func insertFileTx(tx *sql.Tx, rec File, lines []string) (int64, error) {
	virtualPath := canonicalSlash(rec.VirtualPath)

	var existingID int64
	var existingHash string
	err := tx.QueryRowContext(context.Background(),
		`SELECT id, sha256_hash FROM files WHERE virtual_path = ?`, virtualPath).Scan(&existingID, &existingHash)
	switch {
	case err == nil:
		if existingHash == rec.SHA256Hash {
			log.Debug().Str("sha256", rec.SHA256Hash).Str("virtual_path", virtualPath).
				Msg("file already indexed at this virtual path with unchanged content")
			return existingID, nil
		}
		return updateFileTx(tx, existingID, rec, virtualPath, lines)
	case err == sql.ErrNoRows:
		return insertNewFileTx(tx, rec, virtualPath, lines)
	default:
		return 0, appErrors.MetadataIo("insert_file:lookup", err)
	}
}

func insertNewFileTx(tx *sql.Tx, rec File, virtualPath string, lines []string) (int64, error) {
	var inferredTS interface{}
	if rec.InferredTimestamp != nil {
		inferredTS = rec.InferredTimestamp.UTC().Format(time.RFC3339)
	}

	res, err := tx.ExecContext(context.Background(),
		`INSERT INTO files(sha256_hash, virtual_path, original_name, size, mtime, inferred_level, inferred_timestamp, archive_id)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SHA256Hash, virtualPath, rec.OriginalName, rec.Size,
		rec.MTime.UTC().Format(time.RFC3339), rec.InferredLevel, inferredTS, rec.ArchiveID)
	if err != nil {
		return 0, appErrors.MetadataIo("insert_file:insert", err)
	}
	fileID, err := res.LastInsertId()
	if err != nil {
		return 0, appErrors.MetadataIo("insert_file:last_insert_id", err)
	}

	if err := replaceFileLinesTx(tx, fileID, lines); err != nil {
		return 0, err
	}
	return fileID, nil
}

// updateFileTx overwrites an existing virtual path's row and FTS lines
// when a refresh finds the file's content has changed (new sha256).
// The old object, if no other virtual path still references it, is
// reclaimed later by the startup GC sweep rather than here.
func updateFileTx(tx *sql.Tx, fileID int64, rec File, virtualPath string, lines []string) (int64, error) {
	var inferredTS interface{}
	if rec.InferredTimestamp != nil {
		inferredTS = rec.InferredTimestamp.UTC().Format(time.RFC3339)
	}

	_, err := tx.ExecContext(context.Background(),
		`UPDATE files SET sha256_hash = ?, original_name = ?, size = ?, mtime = ?,
		 inferred_level = ?, inferred_timestamp = ?, archive_id = ? WHERE id = ?`,
		rec.SHA256Hash, rec.OriginalName, rec.Size,
		rec.MTime.UTC().Format(time.RFC3339), rec.InferredLevel, inferredTS, rec.ArchiveID, fileID)
	if err != nil {
		return 0, appErrors.MetadataIo("update_file:update", err)
	}

	if _, err := tx.ExecContext(context.Background(),
		`DELETE FROM files_fts WHERE file_id = ?`, fileID); err != nil {
		return 0, appErrors.MetadataIo("update_file:fts_delete", err)
	}
	if err := replaceFileLinesTx(tx, fileID, lines); err != nil {
		return 0, err
	}
	return fileID, nil
}

func replaceFileLinesTx(tx *sql.Tx, fileID int64, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(context.Background(),
		`INSERT INTO files_fts(file_id, line_number, line_text) VALUES(?, ?, ?)`)
	if err != nil {
		return appErrors.MetadataIo("insert_file:fts_prepare", err)
	}
	defer stmt.Close()
	for i, line := range lines {
		if _, err := stmt.ExecContext(context.Background(), fileID, i+1, line); err != nil {
			return appErrors.MetadataIo("insert_file:fts_insert", err)
		}
	}
	return nil
}

// InsertArchive records one archive entry (a zip/tar/... object itself
// being indexed as a node so extraction can reference parent_archive_id
// for nested archives).
func (s *Store) InsertArchive(a Archive) (int64, error) {
	res, err := s.db.ExecContext(context.Background(),
		`INSERT INTO archives(sha256_hash, virtual_path, format, depth, parent_archive_id) VALUES(?, ?, ?, ?, ?)`,
		a.SHA256Hash, canonicalSlash(a.VirtualPath), a.Format, a.Depth, a.ParentArchiveID)
	if err != nil {
		return 0, appErrors.MetadataIo("insert_archive", err)
	}
	return res.LastInsertId()
}

// ListFiles streams every file row, in ascending id order, calling fn for
// each. Returning an error from fn stops iteration.
func (s *Store) ListFiles(fn func(File) error) error {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id, sha256_hash, virtual_path, original_name, size, mtime, inferred_level, inferred_timestamp, archive_id FROM files ORDER BY id`)
	if err != nil {
		return appErrors.MetadataIo("list_files", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanFile(rows)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return appErrors.WrapIfErr(rows.Err(), appErrors.KindMetadataIo, "list_files:rows", 500)
}

func scanFile(rows *sql.Rows) (File, error) {
	var rec File
	var mtimeStr string
	var inferredTS sql.NullString
	var archiveID sql.NullInt64
	if err := rows.Scan(&rec.ID, &rec.SHA256Hash, &rec.VirtualPath, &rec.OriginalName,
		&rec.Size, &mtimeStr, &rec.InferredLevel, &inferredTS, &archiveID); err != nil {
		return File{}, appErrors.MetadataIo("scan_file", err)
	}
	mtime, err := time.Parse(time.RFC3339, mtimeStr)
	if err != nil {
		return File{}, appErrors.MetadataIo("scan_file:parse_mtime", err)
	}
	rec.MTime = mtime
	if inferredTS.Valid {
		ts, err := time.Parse(time.RFC3339, inferredTS.String)
		if err == nil {
			rec.InferredTimestamp = &ts
		}
	}
	if archiveID.Valid {
		id := archiveID.Int64
		rec.ArchiveID = &id
	}
	return rec, nil
}

// FileByVirtualPath returns the file row at virtualPath, if any. Used by
// incremental refresh to compare (size, mtime) against the filesystem
// before re-reading and re-hashing unchanged content.
func (s *Store) FileByVirtualPath(virtualPath string) (File, bool, error) {
	row := s.db.QueryRowContext(context.Background(),
		`SELECT id, sha256_hash, virtual_path, original_name, size, mtime, inferred_level, inferred_timestamp, archive_id
		 FROM files WHERE virtual_path = ? LIMIT 1`, canonicalSlash(virtualPath))
	var rec File
	var mtimeStr string
	var inferredTS sql.NullString
	var archiveID sql.NullInt64
	err := row.Scan(&rec.ID, &rec.SHA256Hash, &rec.VirtualPath, &rec.OriginalName,
		&rec.Size, &mtimeStr, &rec.InferredLevel, &inferredTS, &archiveID)
	if err == sql.ErrNoRows {
		return File{}, false, nil
	}
	if err != nil {
		return File{}, false, appErrors.MetadataIo("file_by_virtual_path", err)
	}
	mtime, err := time.Parse(time.RFC3339, mtimeStr)
	if err != nil {
		return File{}, false, appErrors.MetadataIo("file_by_virtual_path:parse_mtime", err)
	}
	rec.MTime = mtime
	if inferredTS.Valid {
		ts, err := time.Parse(time.RFC3339, inferredTS.String)
		if err == nil {
			rec.InferredTimestamp = &ts
		}
	}
	if archiveID.Valid {
		id := archiveID.Int64
		rec.ArchiveID = &id
	}
	return rec, true, nil
}

// QueryByPathGlob returns the ids of files whose virtual_path matches the
// given doublestar-style glob (e.g. "logs/**/*.log"). Matching happens in
// Go rather than SQL, since FTS/sqlite has no native glob-with-** support.
func (s *Store) QueryByPathGlob(glob string) ([]int64, error) {
	var ids []int64
	err := s.ListFiles(func(f File) error {
		ok, err := pathGlobMatch(glob, f.VirtualPath)
		if err != nil {
			return appErrors.QueryInvalid(fmt.Sprintf("invalid glob %q: %v", glob, err))
		}
		if ok {
			ids = append(ids, f.ID)
		}
		return nil
	})
	return ids, err
}

// QueryByLevel returns the ids of files whose inferred_level matches any
// of the given levels (case-insensitive exact match, e.g. "ERROR").
func (s *Store) QueryByLevel(levels []string) ([]int64, error) {
	if len(levels) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(levels))
	args := make([]interface{}, len(levels))
	for i, lvl := range levels {
		placeholders[i] = "?"
		args[i] = strings.ToUpper(lvl)
	}
	q := fmt.Sprintf(`SELECT id FROM files WHERE UPPER(inferred_level) IN (%s) ORDER BY id`, strings.Join(placeholders, ","))
	rows, err := s.db.QueryContext(context.Background(), q, args...)
	if err != nil {
		return nil, appErrors.MetadataIo("query_by_level", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

// QueryByTimeRange returns the ids of files whose inferred_timestamp
// falls within [start, end] inclusive. Files with no inferred timestamp
// are excluded.
func (s *Store) QueryByTimeRange(start, end time.Time) ([]int64, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT id FROM files WHERE inferred_timestamp IS NOT NULL AND inferred_timestamp BETWEEN ? AND ? ORDER BY id`,
		start.UTC().Format(time.RFC3339), end.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, appErrors.MetadataIo("query_by_time_range", err)
	}
	defer rows.Close()
	return scanIDs(rows)
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, appErrors.MetadataIo("scan_ids", err)
		}
		ids = append(ids, id)
	}
	return ids, appErrors.WrapIfErr(rows.Err(), appErrors.KindMetadataIo, "scan_ids:rows", 500)
}

// FTSSearch runs an FTS5 MATCH query over files_fts and streams hits,
// ordered by (file_id, line_number) for deterministic pagination. If
// fileIDs is non-nil, results are restricted to that id set.
func (s *Store) FTSSearch(ftsQuery string, fileIDs []int64, limit int) ([]LineHit, error) {
	args := []interface{}{ftsQuery}
	q := `SELECT file_id, line_number, line_text FROM files_fts WHERE files_fts MATCH ?`
	if len(fileIDs) > 0 {
		placeholders := make([]string, len(fileIDs))
		for i, id := range fileIDs {
			placeholders[i] = "?"
			args = append(args, id)
		}
		q += fmt.Sprintf(" AND file_id IN (%s)", strings.Join(placeholders, ","))
	}
	q += " ORDER BY file_id, line_number"
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(context.Background(), q, args...)
	if err != nil {
		return nil, appErrors.MetadataIo("fts_search", err)
	}
	defer rows.Close()

	var hits []LineHit
	for rows.Next() {
		var h LineHit
		if err := rows.Scan(&h.FileID, &h.LineNumber, &h.LineText); err != nil {
			return nil, appErrors.MetadataIo("fts_search:scan", err)
		}
		hits = append(hits, h)
	}
	return hits, appErrors.WrapIfErr(rows.Err(), appErrors.KindMetadataIo, "fts_search:rows", 500)
}

// LinesForFile returns every indexed line of fileID in line-number order.
// Binary files, which are never tokenized into files_fts, return nil.
func (s *Store) LinesForFile(fileID int64) ([]LineHit, error) {
	rows, err := s.db.QueryContext(context.Background(),
		`SELECT file_id, line_number, line_text FROM files_fts WHERE file_id = ? ORDER BY line_number`, fileID)
	if err != nil {
		return nil, appErrors.MetadataIo("lines_for_file", err)
	}
	defer rows.Close()

	var hits []LineHit
	for rows.Next() {
		var h LineHit
		if err := rows.Scan(&h.FileID, &h.LineNumber, &h.LineText); err != nil {
			return nil, appErrors.MetadataIo("lines_for_file:scan", err)
		}
		hits = append(hits, h)
	}
	return hits, appErrors.WrapIfErr(rows.Err(), appErrors.KindMetadataIo, "lines_for_file:rows", 500)
}

// DropWorkspace deletes all rows and reclaims space. Workspace deletion
// does not call it: DeleteWorkspace closes the store and removes the
// whole workspace directory, database included.
func (s *Store) DropWorkspace() error {
	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return appErrors.MetadataIo("drop_workspace:begin", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		"DELETE FROM files_fts;",
		"DELETE FROM files;",
		"DELETE FROM archives;",
	} {
		if _, err := tx.ExecContext(context.Background(), stmt); err != nil {
			return appErrors.MetadataIo("drop_workspace:delete", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return appErrors.MetadataIo("drop_workspace:commit", err)
	}

	if _, err := s.db.ExecContext(context.Background(), "VACUUM;"); err != nil {
		return appErrors.MetadataIo("drop_workspace:vacuum", err)
	}
	return nil
}

// PruneUnreferencedObjects returns the sha256 hashes present in the given
// candidate set that no file row references, so the caller (the startup
// GC sweep) can delete them from CAS. Reconciles the case where a CAS
// put succeeded but the matching metadata insert never committed.
func (s *Store) PruneUnreferencedObjects(candidates []string) ([]string, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	referenced := make(map[string]bool, len(candidates))
	placeholders := make([]string, len(candidates))
	args := make([]interface{}, len(candidates))
	for i, h := range candidates {
		placeholders[i] = "?"
		args[i] = h
	}
	rows, err := s.db.QueryContext(context.Background(),
		fmt.Sprintf(`SELECT sha256_hash FROM files WHERE sha256_hash IN (%s)`, strings.Join(placeholders, ",")), args...)
	if err != nil {
		return nil, appErrors.MetadataIo("prune_unreferenced_objects", err)
	}
	defer rows.Close()
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, appErrors.MetadataIo("prune_unreferenced_objects:scan", err)
		}
		referenced[h] = true
	}
	if err := rows.Err(); err != nil {
		return nil, appErrors.MetadataIo("prune_unreferenced_objects:rows", err)
	}

	var orphans []string
	for _, h := range candidates {
		if !referenced[h] {
			orphans = append(orphans, h)
		}
	}
	return orphans, nil
}

func canonicalSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
