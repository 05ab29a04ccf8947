package handbook_ingester

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrObjectNotFound means the storage path resolves to nothing.
var ErrObjectNotFound = errors.New("object not found")

// DownloadError wraps a storage failure so the pipeline can record the
// phase that failed.
type DownloadError struct {
	StoragePath string
	Err         error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.StoragePath, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ObjectStorage fetches an uploaded handbook by its storage path.
type ObjectStorage interface {
	Fetch(ctx context.Context, storagePath string) (io.ReadCloser, error)
}

// FileStorage serves objects from a directory tree. Storage paths are
// slash-separated keys relative to Root.
type FileStorage struct {
	Root string
}

func NewFileStorage(root string) *FileStorage { return &FileStorage{Root: root} }

// Fetch opens the object file. Paths escaping the root are rejected.
func (fs *FileStorage) Fetch(ctx context.Context, storagePath string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	clean := filepath.Clean(filepath.FromSlash(storagePath))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return nil, fmt.Errorf("storage path %q escapes root", storagePath)
	}

	f, err := os.Open(filepath.Join(fs.Root, clean))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", storagePath, ErrObjectNotFound)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// download copies an object into a temp file and returns its path. The
// caller removes the file when done.
func download(ctx context.Context, storage ObjectStorage, storagePath, tempDir string, maxBytes int64) (string, error) {
	r, err := storage.Fetch(ctx, storagePath)
	if err != nil {
		return "", &DownloadError{StoragePath: storagePath, Err: err}
	}
	defer r.Close()

	tmp, err := os.CreateTemp(tempDir, "handbook-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}

	n, err := io.Copy(tmp, io.LimitReader(r, maxBytes+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > maxBytes {
		err = fmt.Errorf("object exceeds %d bytes", maxBytes)
	}
	if err != nil {
		os.Remove(tmp.Name())
		return "", &DownloadError{StoragePath: storagePath, Err: err}
	}
	return tmp.Name(), nil
}
