package cache_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/sawantshivaji1997/notionsync/src/cache"
	"github.com/sawantshivaji1997/notionsync/src/model"
	"github.com/sawantshivaji1997/notionsync/src/rw"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	PAGE_ID     = "5b2c1f0e-8d3a-4c61-9f0e-2a7b9c1d4e11"
	DATABASE_ID = "8f3e1d2c-7b6a-4e5f-9d8c-1a2b3c4d5e6f"
)

var (
	now    = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	edited = time.Date(2024, 3, 4, 17, 42, 0, 0, time.UTC)
)

func samplePage() *model.Page {
	return &model.Page{
		ID:             PAGE_ID,
		Title:          "Weekly Notes",
		LastEditedTime: edited,
		Properties: []model.Property{
			{Name: "Status", Type: model.PropertyStatus, Raw: json.RawMessage(`{"type":"status","status":{"name":"Done"}}`)},
			{Name: "Tags", Type: model.PropertyMultiSelect, Raw: json.RawMessage(`{"type":"multi_select","multi_select":[{"name":"a"}]}`)},
		},
	}
}

func TestFingerprint(t *testing.T) {
	base := cache.Fingerprint(samplePage())

	reordered := samplePage()
	reordered.Properties[0], reordered.Properties[1] = reordered.Properties[1], reordered.Properties[0]
	assert.Equal(t, base, cache.Fingerprint(reordered))

	spaced := samplePage()
	spaced.Properties[0].Raw = json.RawMessage(`{ "type": "status", "status": { "name": "Done" } }`)
	assert.Equal(t, base, cache.Fingerprint(spaced))

	tests := []struct {
		name   string
		change func(page *model.Page)
	}{
		{name: "Title", change: func(page *model.Page) { page.Title = "Renamed" }},
		{name: "Property value", change: func(page *model.Page) {
			page.Properties[0].Raw = json.RawMessage(`{"type":"status","status":{"name":"Open"}}`)
		}},
		{name: "Property removed", change: func(page *model.Page) { page.Properties = page.Properties[:1] }},
		{name: "Edit time", change: func(page *model.Page) { page.LastEditedTime = edited.Add(time.Minute) }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			page := samplePage()
			test.change(page)
			assert.NotEqual(t, base, cache.Fingerprint(page))
		})
	}
}

func TestShouldSkip(t *testing.T) {
	fresh := cache.NewEntry(samplePage(), "Notes/Weekly Notes.md", []byte("x"), now)

	tests := []struct {
		name     string
		page     func() *model.Page
		entry    func() *cache.Entry
		expected bool
	}{
		{
			name:     "Unchanged page",
			page:     samplePage,
			entry:    func() *cache.Entry { e := fresh; return &e },
			expected: true,
		},
		{
			name:  "No entry",
			page:  samplePage,
			entry: func() *cache.Entry { return nil },
		},
		{
			name: "Page edited after the entry",
			page: func() *model.Page {
				page := samplePage()
				page.LastEditedTime = edited.Add(time.Second)
				return page
			},
			entry: func() *cache.Entry { e := fresh; return &e },
		},
		{
			name: "Entry newer than the page with matching fingerprint",
			page: samplePage,
			entry: func() *cache.Entry {
				e := fresh
				e.LastEdited = edited.Add(time.Hour)
				return &e
			},
			expected: true,
		},
		{
			name: "Fingerprint mismatch",
			page: samplePage,
			entry: func() *cache.Entry {
				e := fresh
				e.Fingerprint = "stale"
				return &e
			},
		},
		{
			name: "Page edited in the future",
			page: func() *model.Page {
				page := samplePage()
				page.LastEditedTime = now.Add(time.Hour)
				return page
			},
			entry: func() *cache.Entry {
				page := samplePage()
				page.LastEditedTime = now.Add(time.Hour)
				e := cache.NewEntry(page, "a.md", nil, now)
				return &e
			},
		},
		{
			name: "Missing edit time",
			page: func() *model.Page {
				page := samplePage()
				page.LastEditedTime = time.Time{}
				return page
			},
			entry: func() *cache.Entry { e := fresh; return &e },
		},
		{
			name: "Entry without a path",
			page: samplePage,
			entry: func() *cache.Entry {
				e := fresh
				e.Path = ""
				return &e
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, cache.ShouldSkip(test.page(), test.entry(), now))
		})
	}
}

// Behaviour shared by both backends
func exerciseStore(t *testing.T, store cache.Store) {
	_, found := store.Lookup(PAGE_ID)
	assert.False(t, found)

	entry := cache.NewEntry(samplePage(), "Notes/Weekly Notes.md", []byte("content"), now)
	require.NoError(t, store.Commit(entry))
	require.NoError(t, store.Commit(cache.Entry{PageID: "a-first", Path: "a.md", LastEdited: edited, SyncedAt: now}))
	assert.Error(t, store.Commit(cache.Entry{}))

	got, found := store.Lookup(PAGE_ID)
	require.True(t, found)
	assert.Equal(t, entry.Fingerprint, got.Fingerprint)
	assert.Equal(t, entry.Path, got.Path)
	assert.True(t, entry.LastEdited.Equal(got.LastEdited))

	entries := store.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "a-first", entries[0].PageID)

	require.NoError(t, store.Remove("a-first"))
	assert.Len(t, store.Entries(), 1)
	require.NoError(t, store.Flush(context.Background()))
}

func TestJSONStore(t *testing.T) {
	fs := memfs.New()
	writer := rw.GetFileReaderWriter(fs, true)
	path := cache.CachePath(cache.BACKEND_JSON, DATABASE_ID)

	store := cache.GetJSONStore(context.Background(), writer, path, DATABASE_ID)
	exerciseStore(t, store)

	reopened := cache.GetJSONStore(context.Background(), writer, path, DATABASE_ID)
	entry, found := reopened.Lookup(PAGE_ID)
	require.True(t, found)
	assert.True(t, cache.ShouldSkip(samplePage(), &entry, now))

	require.NoError(t, reopened.Clear())
	require.NoError(t, reopened.Flush(context.Background()))
	assert.Empty(t, cache.GetJSONStore(context.Background(), writer, path, DATABASE_ID).Entries())
}

func TestJSONStoreUnreadable(t *testing.T) {
	path := cache.CachePath(cache.BACKEND_JSON, DATABASE_ID)

	tests := []struct {
		name    string
		content string
	}{
		{name: "Corrupt file", content: `{"version":1,"pages":{`},
		{name: "Unknown version", content: `{"version":99,"pages":{"p":{"page_id":"p","path":"p.md"}}}`},
		{name: "Not an object", content: `[]`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			fs := memfs.New()
			require.NoError(t, util.WriteFile(fs, path, []byte(test.content), 0644))
			writer := rw.GetFileReaderWriter(fs, true)

			store := cache.GetJSONStore(context.Background(), writer, path, DATABASE_ID)
			assert.Empty(t, store.Entries())

			require.NoError(t, store.Commit(cache.NewEntry(samplePage(), "a.md", nil, now)))
			require.NoError(t, store.Flush(context.Background()))
			assert.Len(t, cache.GetJSONStore(context.Background(), writer, path, DATABASE_ID).Entries(), 1)
		})
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), cache.CachePath(cache.BACKEND_SQLITE, DATABASE_ID))

	store, err := cache.GetSQLiteStore(context.Background(), path, DATABASE_ID)
	require.NoError(t, err)
	exerciseStore(t, store)
	require.NoError(t, store.Close())

	reopened, err := cache.GetSQLiteStore(context.Background(), path, DATABASE_ID)
	require.NoError(t, err)
	defer reopened.Close()
	entry, found := reopened.Lookup(PAGE_ID)
	require.True(t, found)
	assert.True(t, cache.ShouldSkip(samplePage(), &entry, now))

	require.NoError(t, reopened.Clear())
	assert.Empty(t, reopened.Entries())
}

func TestSQLiteStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("this is not a database file ", 40)), 0644))

	store, err := cache.GetSQLiteStore(context.Background(), path, DATABASE_ID)
	require.NoError(t, err)
	defer store.Close()
	assert.Empty(t, store.Entries())
	require.NoError(t, store.Commit(cache.NewEntry(samplePage(), "a.md", nil, now)))
	assert.Len(t, store.Entries(), 1)
}

func TestOpenStore(t *testing.T) {
	store, err := cache.OpenStore(context.Background(), cache.BACKEND_JSON, memfs.New(), "", DATABASE_ID)
	require.NoError(t, err)
	assert.IsType(t, &cache.JSONStore{}, store)

	_, err = cache.OpenStore(context.Background(), "redis", memfs.New(), "", DATABASE_ID)
	assert.Error(t, err)
}
