package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/rw"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
)

const OP_FLUSH_CACHE = "flush cache"

type cacheFile struct {
	Version    int              `json:"version"`
	DatabaseID string           `json:"database_id"`
	UpdatedAt  time.Time        `json:"updated_at"`
	Pages      map[string]Entry `json:"pages"`
}

// JSONStore keeps the whole cache in memory and writes it to one JSON file
// on Flush. The file is replaced atomically, an interrupted flush leaves
// the previous version.
type JSONStore struct {
	mu         sync.RWMutex
	writer     rw.ReaderWriter
	path       string
	databaseID string
	pages      map[string]Entry
	dirty      bool
}

// GetJSONStore loads the cache file at path. A missing file gives an empty
// store; an unreadable, corrupt or unknown version file gives an empty store
// and a warning, the next flush replaces it.
func GetJSONStore(ctx context.Context, writer rw.ReaderWriter, path string, databaseID string) *JSONStore {
	store := &JSONStore{
		writer:     writer,
		path:       path,
		databaseID: databaseID,
		pages:      map[string]Entry{},
	}
	logger := zerolog.Ctx(ctx)

	found, err := writer.Exists(ctx, path)
	if err != nil {
		logger.Warn().Err(err).Str(logging.CachePath, path).Msg(logging.CacheCorrupt)
		return store
	}
	if !found {
		return store
	}

	data, err := writer.Read(ctx, path)
	if err != nil {
		logger.Warn().Err(err).Str(logging.CachePath, path).Msg(logging.CacheCorrupt)
		return store
	}

	file := cacheFile{}
	if err := json.Unmarshal(data, &file); err != nil {
		logger.Warn().Err(err).Str(logging.CachePath, path).Msg(logging.CacheCorrupt)
		return store
	}
	if file.Version != CACHE_FORMAT_VERSION {
		logger.Warn().Int("version", file.Version).Str(logging.CachePath, path).
			Msg(logging.CacheVersionMismatch)
		return store
	}

	for id, entry := range file.Pages {
		if id == "" || entry.PageID != id {
			continue
		}
		store.pages[id] = entry
	}
	logger.Debug().Str(logging.CachePath, path).Int(logging.Entries, len(store.pages)).
		Msg(logging.CacheLoaded)
	return store
}

func (s *JSONStore) Lookup(pageID string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, found := s.pages[pageID]
	return entry, found
}

func (s *JSONStore) Commit(entry Entry) error {
	if entry.PageID == "" {
		return errors.New("cache entry without page id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[entry.PageID] = entry
	s.dirty = true
	return nil
}

func (s *JSONStore) Remove(pageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.pages[pageID]; found {
		delete(s.pages, pageID)
		s.dirty = true
	}
	return nil
}

func (s *JSONStore) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := make([]Entry, 0, len(s.pages))
	for _, entry := range s.pages {
		entries = append(entries, entry)
	}
	return sortEntries(entries)
}

func (s *JSONStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = map[string]Entry{}
	s.dirty = true
	return nil
}

func (s *JSONStore) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(cacheFile{
		Version:    CACHE_FORMAT_VERSION,
		DatabaseID: s.databaseID,
		UpdatedAt:  time.Now().UTC(),
		Pages:      s.pages,
	}, "", "  ")
	if err != nil {
		return syncerr.New(syncerr.KindFilesystem, OP_FLUSH_CACHE, err)
	}

	// The flush must not be skipped because the run was cancelled
	_, err = s.writer.Write(context.WithoutCancel(ctx), rw.WriteRequest{
		Path:         s.path,
		Content:      data,
		PreviousPath: s.path,
	})
	if err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}
