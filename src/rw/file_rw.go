package rw

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/sawantshivaji1997/notionsync/src/logging"
	"github.com/sawantshivaji1997/notionsync/src/markdown"
	"github.com/sawantshivaji1997/notionsync/src/syncerr"
)

const (
	FILE_PERM       = 0644
	DIR_PERM        = 0755
	TEMP_FILE_MARK  = ".notionsync-"
	TEMP_FILE_EXT   = ".tmp"
	OP_WRITE_FILE   = "write file"
	OP_READ_FILE    = "read file"
	OP_CLEANUP_TEMP = "cleanup temporary files"
)

type FileReaderWriter struct {
	fs        billy.Filesystem
	overwrite bool
}

// GetFileReaderWriter returns a writer committing files below the root of
// fs. With overwrite set, an existing file at the target path is replaced
// even when it belongs to another page.
func GetFileReaderWriter(fs billy.Filesystem, overwrite bool) ReaderWriter {
	return &FileReaderWriter{
		fs:        fs,
		overwrite: overwrite,
	}
}

func fsError(op string, pageID string, err error) error {
	return syncerr.New(syncerr.KindFilesystem, op, err).WithPage(pageID)
}

func (rw *FileReaderWriter) exists(path string) (bool, error) {
	_, err := rw.fs.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	}
	return false, errors.Wrapf(err, "stat %s", path)
}

func (rw *FileReaderWriter) Exists(ctx context.Context, path string) (bool, error) {
	return rw.exists(path)
}

func (rw *FileReaderWriter) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := util.ReadFile(rw.fs, path)
	if err != nil {
		return nil, syncerr.New(syncerr.KindFilesystem, OP_READ_FILE,
			errors.Wrapf(err, "read %s", path))
	}
	return data, nil
}

// The target is free when nothing is there, when it is the page's own
// earlier file, or when overwriting is allowed
func (rw *FileReaderWriter) available(path string, req WriteRequest) (bool, error) {
	if rw.overwrite || filepath.Clean(path) == filepath.Clean(req.PreviousPath) {
		return true, nil
	}
	found, err := rw.exists(path)
	return !found, err
}

func (rw *FileReaderWriter) Resolve(ctx context.Context, req WriteRequest) (string, error) {
	if req.Path == "" {
		return "", fsError(OP_WRITE_FILE, req.PageID, errors.New("empty target path"))
	}

	candidates := []string{
		req.Path,
		markdown.WithIDSuffix(req.Path, req.PageID, false),
	}
	for _, candidate := range candidates {
		free, err := rw.available(candidate, req)
		if err != nil {
			return "", fsError(OP_WRITE_FILE, req.PageID, err)
		}
		if free {
			return candidate, nil
		}
	}

	// The full page id is unique, whatever is there was written for this page
	return markdown.WithIDSuffix(req.Path, req.PageID, true), nil
}

// Write commits the content atomically. It is written to a temporary file
// next to the target and renamed into place, so a reader sees either the
// old file or the new one. Identical content is not rewritten.
func (rw *FileReaderWriter) Write(ctx context.Context, req WriteRequest) (WriteResult, error) {
	if err := ctx.Err(); err != nil {
		return WriteResult{}, syncerr.New(syncerr.KindCancelled, OP_WRITE_FILE, err).WithPage(req.PageID)
	}

	path, err := rw.Resolve(ctx, req)
	if err != nil {
		return WriteResult{}, err
	}

	outcome := OutcomeCreated
	current, err := util.ReadFile(rw.fs, path)
	switch {
	case err == nil && bytes.Equal(current, req.Content):
		return WriteResult{Path: path, Outcome: OutcomeUnchanged}, nil
	case err == nil:
		outcome = OutcomeUpdated
	case !os.IsNotExist(err):
		return WriteResult{}, fsError(OP_WRITE_FILE, req.PageID, errors.Wrapf(err, "read %s", path))
	}

	if err := rw.writeAtomic(path, req.Content); err != nil {
		return WriteResult{}, fsError(OP_WRITE_FILE, req.PageID, err)
	}

	zerolog.Ctx(ctx).Debug().
		Str(logging.PageID, req.PageID).
		Str(logging.Path, path).
		Str(logging.Outcome, string(outcome)).
		Msg(logging.FileCommitted)
	return WriteResult{Path: path, Outcome: outcome}, nil
}

func tempName(dir string, target string) string {
	return filepath.Join(dir, TEMP_FILE_MARK+filepath.Base(target)+"-"+uuid.New().String()+TEMP_FILE_EXT)
}

func (rw *FileReaderWriter) writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := rw.fs.MkdirAll(dir, DIR_PERM); err != nil {
		return errors.Wrapf(err, "create directory %s", dir)
	}

	tmpPath := tempName(dir, path)
	tmp, err := rw.fs.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, FILE_PERM)
	if err != nil {
		return errors.Wrapf(err, "create temporary file in %s", dir)
	}

	_, err = tmp.Write(content)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		rw.fs.Remove(tmpPath)
		return errors.Wrapf(err, "write %s", tmpPath)
	}

	if err := rw.fs.Rename(tmpPath, path); err != nil {
		rw.fs.Remove(tmpPath)
		return errors.Wrapf(err, "rename %s to %s", tmpPath, path)
	}
	return nil
}

func (rw *FileReaderWriter) CleanupTemp(ctx context.Context, dir string) (int, error) {
	entries, err := rw.fs.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, syncerr.New(syncerr.KindFilesystem, OP_CLEANUP_TEMP, err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, TEMP_FILE_MARK) ||
			!strings.HasSuffix(name, TEMP_FILE_EXT) {
			continue
		}
		if err := rw.fs.Remove(filepath.Join(dir, name)); err != nil {
			return removed, syncerr.New(syncerr.KindFilesystem, OP_CLEANUP_TEMP, err)
		}
		removed++
	}
	return removed, nil
}
