package cache

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sawantshivaji1997/notionsync/src/model"
)

const (
	CACHE_DIR_NAME       = ".notionsync"
	CACHE_FORMAT_VERSION = 1
	// Remote edit times further in the future than this are not trusted
	CLOCK_SKEW_ALLOWANCE = 5 * time.Minute
	BACKEND_JSON         = "json"
	BACKEND_SQLITE       = "sqlite"
)

// Entry is what the cache remembers about a synced page.
type Entry struct {
	PageID      string    `json:"page_id"`
	Title       string    `json:"title"`
	LastEdited  time.Time `json:"last_edited"`
	Fingerprint string    `json:"fingerprint"`
	Path        string    `json:"path"`
	ContentHash string    `json:"content_hash"`
	SyncedAt    time.Time `json:"synced_at"`
}

// Store keeps one Entry per page. Implementations are safe for concurrent
// use by the page workers.
type Store interface {
	Lookup(pageID string) (Entry, bool)
	Commit(entry Entry) error
	Remove(pageID string) error
	// Entries returns all entries sorted by page id
	Entries() []Entry
	Clear() error
	// Flush persists pending changes
	Flush(ctx context.Context) error
	Close() error
}

// CachePath returns the cache file of a database, relative to the vault.
func CachePath(backend string, databaseID string) string {
	ext := ".json"
	if backend == BACKEND_SQLITE {
		ext = ".db"
	}
	return filepath.Join(CACHE_DIR_NAME, "cache-"+databaseID+ext)
}

// Fingerprint hashes the fields of a page that decide whether it changed:
// the title, every property and the last edit time. Properties are taken
// in name order so the result does not depend on configuration.
func Fingerprint(page *model.Page) string {
	hash := sha256.New()
	fmt.Fprintf(hash, "title\x00%s\x00", strings.TrimSpace(page.Title))

	props := model.OrderProperties(page.Properties, nil)
	for _, prop := range props {
		fmt.Fprintf(hash, "property\x00%s\x00%s\x00", prop.Name, prop.Type)
		var compact bytes.Buffer
		if err := json.Compact(&compact, prop.Raw); err != nil {
			hash.Write(prop.Raw)
		} else {
			hash.Write(compact.Bytes())
		}
		hash.Write([]byte{0})
	}

	fmt.Fprintf(hash, "edited\x00%s", page.LastEditedTime.UTC().Format(time.RFC3339Nano))
	return hex.EncodeToString(hash.Sum(nil))
}

// ContentHash identifies the bytes of a rendered file.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// ShouldSkip reports whether a page can be left alone. Any doubt means the
// page is processed again: a missing entry, missing timestamps, an edit time
// in the future, an older cached edit time or a different fingerprint.
func ShouldSkip(page *model.Page, entry *Entry, now time.Time) bool {
	if entry == nil || entry.Path == "" {
		return false
	}
	if page.LastEditedTime.IsZero() || entry.LastEdited.IsZero() {
		return false
	}

	horizon := now.Add(CLOCK_SKEW_ALLOWANCE)
	if page.LastEditedTime.After(horizon) || entry.LastEdited.After(horizon) {
		return false
	}
	if entry.LastEdited.Before(page.LastEditedTime) {
		return false
	}
	return entry.Fingerprint == Fingerprint(page)
}

// NewEntry builds the entry recorded after a page was written.
func NewEntry(page *model.Page, path string, content []byte, now time.Time) Entry {
	return Entry{
		PageID:      page.ID,
		Title:       page.Title,
		LastEdited:  page.LastEditedTime.UTC(),
		Fingerprint: Fingerprint(page),
		Path:        path,
		ContentHash: ContentHash(content),
		SyncedAt:    now.UTC(),
	}
}

func sortEntries(entries []Entry) []Entry {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].PageID < entries[j].PageID
	})
	return entries
}
