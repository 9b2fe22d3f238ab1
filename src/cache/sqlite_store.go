package cache

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"

	_ "modernc.org/sqlite"
)

const (
	OP_OPEN_CACHE = "open cache"
	SQLITE_DRIVER = "sqlite"

	sqliteSchema = `
		PRAGMA busy_timeout = 5000;
		PRAGMA synchronous = NORMAL;

		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS pages (
			page_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			last_edited TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			path TEXT NOT NULL,
			content_hash TEXT NOT NULL,
			synced_at TEXT NOT NULL
		);
	`
)

// SQLiteStore keeps entries in a SQLite database. Commits are written
// through, Flush has nothing left to do.
type SQLiteStore struct {
	// database/sql serialises access, the mutex keeps Entries consistent
	// with concurrent commits
	mu         sync.Mutex
	db         *sql.DB
	path       string
	databaseID string
}

// GetSQLiteStore opens the database at path, an OS path. A file that is not
// a usable database is moved aside and replaced by an empty one.
func GetSQLiteStore(ctx context.Context, path string, databaseID string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, syncerr.New(syncerr.KindFilesystem, OP_OPEN_CACHE, err)
	}

	db, err := openSQLite(ctx, path, databaseID)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str(logging.CachePath, path).Msg(logging.CacheCorrupt)

		corrupt := path + ".corrupt-" + time.Now().UTC().Format("20060102T150405")
		if renameErr := os.Rename(path, corrupt); renameErr != nil && !os.IsNotExist(renameErr) {
			return nil, syncerr.New(syncerr.KindFilesystem, OP_OPEN_CACHE, renameErr)
		}
		db, err = openSQLite(ctx, path, databaseID)
		if err != nil {
			return nil, syncerr.New(syncerr.KindFilesystem, OP_OPEN_CACHE, err)
		}
	}

	return &SQLiteStore{db: db, path: path, databaseID: databaseID}, nil
}

func openSQLite(ctx context.Context, path string, databaseID string) (*sql.DB, error) {
	db, err := sql.Open(SQLITE_DRIVER, path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite cache")
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create sqlite cache schema")
	}

	var storedID string
	err = db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'database_id'`).Scan(&storedID)
	switch {
	case err == sql.ErrNoRows:
		_, err = db.ExecContext(ctx, `INSERT INTO meta (key, value) VALUES ('database_id', ?), ('version', ?)`,
			databaseID, CACHE_FORMAT_VERSION)
		if err != nil {
			db.Close()
			return nil, errors.Wrap(err, "write sqlite cache metadata")
		}
	case err != nil:
		db.Close()
		return nil, errors.Wrap(err, "read sqlite cache metadata")
	case storedID != databaseID:
		db.Close()
		return nil, errors.Errorf("cache belongs to database %s", storedID)
	}
	return db, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (Entry, error) {
	entry := Entry{}
	var lastEdited, syncedAt string
	err := row.Scan(&entry.PageID, &entry.Title, &lastEdited, &entry.Fingerprint,
		&entry.Path, &entry.ContentHash, &syncedAt)
	if err != nil {
		return Entry{}, err
	}
	// An unparsable time becomes zero, which ShouldSkip never trusts
	entry.LastEdited = parseTime(lastEdited)
	entry.SyncedAt = parseTime(syncedAt)
	return entry, nil
}

const selectEntry = `SELECT page_id, title, last_edited, fingerprint, path, content_hash, synced_at FROM pages`

// Lookup treats read errors as a miss, the page is then processed again
func (s *SQLiteStore) Lookup(pageID string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, err := scanEntry(s.db.QueryRow(selectEntry+` WHERE page_id = ?`, pageID))
	if err != nil {
		return Entry{}, false
	}
	return entry, true
}

func (s *SQLiteStore) Commit(entry Entry) error {
	if entry.PageID == "" {
		return errors.New("cache entry without page id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
		INSERT INTO pages (page_id, title, last_edited, fingerprint, path, content_hash, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(page_id) DO UPDATE SET
			title = excluded.title,
			last_edited = excluded.last_edited,
			fingerprint = excluded.fingerprint,
			path = excluded.path,
			content_hash = excluded.content_hash,
			synced_at = excluded.synced_at`,
		entry.PageID, entry.Title, formatTime(entry.LastEdited), entry.Fingerprint,
		entry.Path, entry.ContentHash, formatTime(entry.SyncedAt))
	return errors.Wrapf(err, "commit cache entry %s", entry.PageID)
}

func (s *SQLiteStore) Remove(pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM pages WHERE page_id = ?`, pageID)
	return errors.Wrapf(err, "remove cache entry %s", pageID)
}

func (s *SQLiteStore) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := []Entry{}
	rows, err := s.db.Query(selectEntry + ` ORDER BY page_id`)
	if err != nil {
		return entries
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func (s *SQLiteStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM pages`)
	return errors.Wrap(err, "clear cache")
}

func (s *SQLiteStore) Flush(ctx context.Context) error {
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
