package cache

import (
	"context"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/rw"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
)

// OpenStore opens the cache of a database inside the vault. vault is the
// vault filesystem used by the JSON backend, vaultPath its location on disk
// for the SQLite backend.
func OpenStore(ctx context.Context, backend string, vault billy.Filesystem,
	vaultPath string, databaseID string) (Store, error) {
	zerolog.Ctx(ctx).Debug().Str(logging.Backend, backend).Str(logging.DatabaseID, databaseID).
		Msg(logging.CacheOpening)
	switch backend {
	case "", BACKEND_JSON:
		writer := rw.GetFileReaderWriter(vault, true)
		return GetJSONStore(ctx, writer, CachePath(BACKEND_JSON, databaseID), databaseID), nil
	case BACKEND_SQLITE:
		path := filepath.Join(vaultPath, CachePath(BACKEND_SQLITE, databaseID))
		return GetSQLiteStore(ctx, path, databaseID)
	}
	return nil, syncerr.Configuration("unknown cache backend %q", backend)
}
