// Package content stores asset blobs by the SHA-256 digest of their bytes.
//
// Each blob is a file named by its lowercase hex digest inside one flat
// directory. Blobs are immutable once written, and identical content
// always maps to the same file, so any number of memes can share one blob.
//
// Writes go to a uniquely named temporary file in the same directory and
// are renamed into place once complete. A failed write never leaves a
// partial file under a digest name.
package content

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/roach88/memelib/internal/liberr"
	"github.com/roach88/memelib/internal/model"
)

// tempSuffix marks in-flight writes. List skips these files.
const tempSuffix = ".tmp"

// ErrCorrupt is wrapped by Verify when a blob no longer hashes to its name.
var ErrCorrupt = errors.New("content does not match digest")

// Store is a content-addressed blob directory.
type Store struct {
	dir    string
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New returns a store rooted at dir, creating the directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, liberr.AssetIO("open content store", err)
	}
	s := &Store{dir: dir, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the blob directory.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns where the blob for d lives. The file may not exist.
func (s *Store) Path(d model.Digest) string {
	return filepath.Join(s.dir, string(d))
}

// AddFile copies sourcePath into the store and returns its digest. Adding
// the same bytes again yields the same digest and a single blob. When
// deleteAfterAdd is set the source is removed once the blob is in place.
//
// If the process dies between the copy and the delete the source is left
// behind; the blob is still intact.
func (s *Store) AddFile(ctx context.Context, sourcePath string, deleteAfterAdd bool) (model.Digest, error) {
	if err := ctx.Err(); err != nil {
		return "", liberr.AssetIO("add file", err)
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return "", liberr.AssetIO("add file", err)
	}
	defer src.Close()

	digest, err := s.write(src)
	if err != nil {
		return "", liberr.AssetIO("add file", fmt.Errorf("%s: %w", sourcePath, err))
	}

	s.logger.Debug("added blob",
		slog.String("digest", digest.String()),
		slog.String("source", sourcePath))

	if deleteAfterAdd {
		src.Close()
		if err := s.RemoveSource(sourcePath, digest); err != nil {
			return digest, err
		}
	}
	return digest, nil
}

// RemoveSource deletes a file that was added as d. A source that is the
// blob itself, as with a manifest exported from this library, is kept.
func (s *Store) RemoveSource(sourcePath string, d model.Digest) error {
	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		return liberr.AssetIO("remove source", err)
	}
	blobInfo, err := os.Stat(s.Path(d))
	if err != nil {
		return liberr.AssetIO("remove source", err)
	}
	if os.SameFile(srcInfo, blobInfo) {
		s.logger.Debug("source is the blob, not removing", slog.String("path", sourcePath))
		return nil
	}
	if err := os.Remove(sourcePath); err != nil {
		return liberr.AssetIO("remove source", err)
	}
	return nil
}

// AddBytes stores b and returns its digest.
func (s *Store) AddBytes(b []byte) (model.Digest, error) {
	digest, err := s.write(bytes.NewReader(b))
	if err != nil {
		return "", liberr.AssetIO("add bytes", err)
	}
	return digest, nil
}

// write streams r through SHA-256 into a temp file and renames it to the
// digest name.
func (s *Store) write(r io.Reader) (model.Digest, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("temp name: %w", err)
	}
	tmpPath := filepath.Join(s.dir, "."+id.String()+tempSuffix)

	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	h := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, h), r); err != nil {
		return "", fmt.Errorf("copy: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close: %w", err)
	}

	digest := model.Digest(hex.EncodeToString(h.Sum(nil)))
	if err := os.Rename(tmpPath, s.Path(digest)); err != nil {
		return "", fmt.Errorf("rename: %w", err)
	}
	committed = true
	return digest, nil
}

// Exists reports whether the blob for d is present.
func (s *Store) Exists(d model.Digest) (bool, error) {
	_, err := os.Stat(s.Path(d))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, liberr.AssetIO("stat blob", err)
}

// Open returns a reader for the blob d. The caller closes it.
func (s *Store) Open(d model.Digest) (io.ReadCloser, error) {
	if _, err := model.ParseDigest(string(d)); err != nil {
		return nil, liberr.AssetIO("open blob", err)
	}
	f, err := os.Open(s.Path(d))
	if err != nil {
		return nil, liberr.AssetIO("open blob", err)
	}
	return f, nil
}

// Verify rehashes the blob d and fails with ErrCorrupt if its bytes no
// longer match its name.
func (s *Store) Verify(d model.Digest) error {
	f, err := s.Open(d)
	if err != nil {
		return err
	}
	defer f.Close()

	got, err := model.DigestOf(f)
	if err != nil {
		return liberr.AssetIO("verify blob", err)
	}
	if got != d {
		return liberr.AssetIO("verify blob", fmt.Errorf("%s: %w (hashes to %s)", d, ErrCorrupt, got))
	}
	return nil
}

// List returns the digests of every blob in the store, sorted. Temp files
// and foreign files are skipped.
func (s *Store) List() ([]model.Digest, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, liberr.AssetIO("list blobs", err)
	}

	digests := []model.Digest{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		d, err := model.ParseDigest(e.Name())
		if err != nil {
			continue
		}
		digests = append(digests, d)
	}
	return digests, nil
}
