package export

import (
	"context"
	"os"
	"path/filepath"

	errs "github.com/matzehuels/menuboard/pkg/errors"
	"github.com/matzehuels/menuboard/pkg/observability"
)

// FileStore keeps artifacts as files in one directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a store in dir, creating the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "create export folder %s", dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory artifacts are written to.
func (s *FileStore) Dir() string { return s.dir }

// Save implements Store. The file is written to a temporary name first and
// renamed into place, so readers never observe a partial image.
func (s *FileStore) Save(ctx context.Context, a Artifact) error {
	if _, err := ParseFileName(a.Name); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, ".export-*")
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "save %s", a.Name)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(a.Data); err != nil {
		tmp.Close()
		return errs.Wrap(errs.ErrCodeInternal, err, "save %s", a.Name)
	}
	if err := tmp.Close(); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "save %s", a.Name)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, a.Name)); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err, "save %s", a.Name)
	}

	observability.Store().OnSave(ctx, "file", len(a.Data))
	return nil
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, name string) (Artifact, error) {
	created, err := ParseFileName(name)
	if err != nil {
		return Artifact{}, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if os.IsNotExist(err) {
		return Artifact{}, notFound(name)
	}
	if err != nil {
		return Artifact{}, errs.Wrap(errs.ErrCodeInternal, err, "read %s", name)
	}
	return Artifact{Name: name, ContentType: ContentTypePNG, Data: data, CreatedAt: created}, nil
}

// Latest implements Store. The newest artifact is the one whose name encodes
// the latest time; modification times are not consulted.
func (s *FileStore) Latest(ctx context.Context) (Artifact, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return Artifact{}, errs.Wrap(errs.ErrCodeInternal, err, "list %s", s.dir)
	}

	var newest string
	var newestMS int64 = -1
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		t, err := ParseFileName(e.Name())
		if err != nil {
			continue
		}
		if ms := t.UnixMilli(); ms > newestMS {
			newest, newestMS = e.Name(), ms
		}
	}

	observability.Store().OnLatest(ctx, "file", newest != "")
	if newest == "" {
		return Artifact{}, notFound("")
	}
	return s.Get(ctx, newest)
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
