// Package local stores objects on the local filesystem.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/spigell/jobai/internal/storage/object"
)

const refScheme = "file://"

var _ object.Store = (*Store)(nil)

// Store keeps objects under a base directory. Refs and ids are the same
// relative key prefixed with file:// for refs.
type Store struct {
	baseDir string
}

func New(baseDir string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("local storage directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) Put(ctx context.Context, data []byte, folder, contentType string) (object.Object, error) {
	if err := ctx.Err(); err != nil {
		return object.Object{}, err
	}

	name := uuid.NewString()
	if strings.HasPrefix(contentType, "application/pdf") {
		name += ".pdf"
	}

	key := filepath.ToSlash(filepath.Join(filepath.Clean("/"+folder)[1:], name))
	full, err := s.resolve(key)
	if err != nil {
		return object.Object{}, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return object.Object{}, fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o600); err != nil {
		return object.Object{}, fmt.Errorf("write file: %w", err)
	}

	return object.Object{Ref: refScheme + key, ID: key}, nil
}

func (s *Store) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, ok := strings.CutPrefix(ref, refScheme)
	if !ok {
		return nil, fmt.Errorf("unsupported object reference %q", ref)
	}

	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", ref, object.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	full, err := s.resolve(id)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}

	return nil
}

func (s *Store) resolve(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.baseDir, clean), nil
}
