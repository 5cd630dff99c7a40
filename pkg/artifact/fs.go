package artifact

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	pkgerrors "github.com/absmach/fedkit/pkg/errors"
)

type fsStore struct {
	root string
}

func NewFSStore(root string) (Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact root: %w", err)
	}

	return &fsStore{root: root}, nil
}

func (s *fsStore) Put(_ context.Context, p string, data []byte) error {
	cleaned, err := cleanPath(p)
	if err != nil {
		return err
	}
	dst := filepath.Join(s.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()

		return fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	// Readers never observe a partially written file.
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to store artifact: %w", err)
	}

	return nil
}

func (s *fsStore) Get(_ context.Context, p string) ([]byte, error) {
	cleaned, err := cleanPath(p)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, filepath.FromSlash(cleaned)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, pkgerrors.ErrNotFound
		}

		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}

	return data, nil
}
