package demo

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
)

// Store errors.
var (
	ErrNotFound    = errors.New("demo: not found")
	ErrInvalidName = errors.New("demo: invalid name")
)

// Store persists demo recordings by name.
type Store interface {
	// Put stores the content of r under name, replacing any previous demo.
	Put(ctx context.Context, name string, r io.Reader) error

	// Get opens the demo stored under name. It returns an error wrapping
	// ErrNotFound if there is none.
	Get(ctx context.Context, name string) (io.ReadCloser, error)
}

// validName rejects names that could escape the store's namespace.
func validName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return snaperrors.New("D003").Wrap(ErrInvalidName).WithDetailf("%q", name)
	}
	return nil
}

// FileStore stores demos as files in a directory.
type FileStore struct {
	dir string
}

// NewFileStore creates a FileStore, creating dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, snaperrors.New("D003").Wrap(err).WithDetail(dir)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the directory demos are stored in.
func (s *FileStore) Dir() string {
	return s.dir
}

// Put writes the demo to a temporary file and renames it into place, so a
// reader never sees a partial recording.
func (s *FileStore) Put(ctx context.Context, name string, r io.Reader) error {
	if err := validName(name); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return snaperrors.New("D003").Wrap(err).WithDetail(name)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return snaperrors.New("D003").Wrap(err).WithDetail(name)
	}
	if err := tmp.Close(); err != nil {
		return snaperrors.New("D003").Wrap(err).WithDetail(name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return snaperrors.New("D003").Wrap(err).WithDetail(name)
	}
	return nil
}

// Get opens the demo file.
func (s *FileStore) Get(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, snaperrors.New("D003").Wrap(ErrNotFound).WithDetail(name)
		}
		return nil, snaperrors.New("D003").Wrap(err).WithDetail(name)
	}
	return f, nil
}
