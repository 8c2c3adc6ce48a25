package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type localStorage struct {
	dirs map[Area]string
}

// NewLocalStorage stores uploads under uploadDir and serves files from
// uploadDir then processedDir. Both directories are created if missing.
func NewLocalStorage(uploadDir, processedDir string) (ImageStore, error) {
	dirs := map[Area]string{AreaUploads: uploadDir}
	if processedDir != "" {
		dirs[AreaProcessed] = processedDir
	}
	for area, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", area, err)
		}
	}
	return &localStorage{dirs: dirs}, nil
}

func (s *localStorage) Backend() string {
	return "local"
}

func (s *localStorage) Save(ctx context.Context, name string, r io.Reader) (int64, error) {
	if err := checkName(name); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	dir := s.dirs[AreaUploads]
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return n, fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return n, fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return n, fmt.Errorf("move upload into place: %w", err)
	}
	return n, nil
}

func (s *localStorage) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}

	for _, area := range lookupOrder {
		dir, ok := s.dirs[area]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(filepath.Join(dir, name))
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("open %s/%s: %w", area, name, err)
		}
	}
	return nil, fmt.Errorf("%s: %w", name, ErrObjectNotFound)
}
