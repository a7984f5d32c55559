package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"careerpath-backend/internal/shared/storage/object"
	"careerpath-backend/internal/shared/telemetry"
	"careerpath-backend/internal/shared/util"
)

const backendName = "local"

// createFile opens a new file for writing and fails if it already exists.
var createFile = func(path string) (io.WriteCloser, error) {
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
}

// Store implements object.Store on the local filesystem, one directory per category.
type Store struct {
	baseDir string
}

// New creates the category directories under baseDir and returns the store.
func New(baseDir string) (*Store, error) {
	if strings.TrimSpace(baseDir) == "" {
		baseDir = "."
	}
	s := &Store{baseDir: filepath.Clean(baseDir)}
	for _, category := range object.Categories {
		if err := os.MkdirAll(s.categoryDir(category), 0o755); err != nil {
			return nil, object.Wrap("init", category, fmt.Errorf("mkdir: %w", err))
		}
	}
	return s, nil
}

// Backend reports the backend name.
func (s *Store) Backend() string { return backendName }

// Save writes data to <baseDir>/<category>/<fileName>. Existing files are never replaced.
func (s *Store) Save(ctx context.Context, category object.Category, fileName string, data []byte) (object.Locator, error) {
	if err := object.CheckCategory(category); err != nil {
		return "", err
	}
	sanitizedName, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", object.Wrap("save", category, fmt.Errorf("sanitize file name: %w", err))
	}
	if err := ctx.Err(); err != nil {
		return "", object.Wrap("save", category, err)
	}

	dirPath := s.categoryDir(category)
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return "", object.Wrap("save", category, fmt.Errorf("mkdir: %w", err))
	}

	fullPath := filepath.Join(dirPath, sanitizedName)
	f, err := createFile(fullPath)
	if err != nil {
		return "", object.Wrap("save", category, fmt.Errorf("open file: %w", err))
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(fullPath)
		return "", object.Wrap("save", category, fmt.Errorf("write body: %w", err))
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(fullPath)
		return "", object.Wrap("save", category, fmt.Errorf("close file: %w", err))
	}

	telemetry.Info("storage.saved", map[string]any{
		"backend":    backendName,
		"category":   string(category),
		"path":       fullPath,
		"size_bytes": len(data),
	})
	return object.Locator(fullPath), nil
}

// Read returns the bytes stored at loc.
func (s *Store) Read(ctx context.Context, loc object.Locator) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, object.Wrap("read", "", err)
	}
	fullPath, category, err := s.resolve(loc)
	if err != nil {
		return nil, object.Wrap("read", "", err)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, object.Wrap("read", category, fmt.Errorf("%w: %s", object.ErrNotFound, loc))
		}
		return nil, object.Wrap("read", category, err)
	}
	return data, nil
}

// Delete removes the file at loc.
func (s *Store) Delete(ctx context.Context, loc object.Locator) error {
	if err := ctx.Err(); err != nil {
		return object.Wrap("delete", "", err)
	}
	fullPath, category, err := s.resolve(loc)
	if err != nil {
		return object.Wrap("delete", "", err)
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return object.Wrap("delete", category, fmt.Errorf("%w: %s", object.ErrNotFound, loc))
		}
		return object.Wrap("delete", category, err)
	}
	telemetry.Info("storage.deleted", map[string]any{
		"backend":  backendName,
		"category": string(category),
		"path":     fullPath,
	})
	return nil
}

func (s *Store) categoryDir(category object.Category) string {
	return filepath.Join(s.baseDir, string(category))
}

// resolve maps a locator back onto <baseDir>/<category>/<name>, refusing
// anything that escapes a category directory.
func (s *Store) resolve(loc object.Locator) (string, object.Category, error) {
	raw := strings.TrimSpace(loc.String())
	if raw == "" {
		return "", "", object.ErrInvalidLocator
	}
	clean := filepath.Clean(raw)
	rel, err := filepath.Rel(s.baseDir, clean)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", "", fmt.Errorf("%w: %s", object.ErrInvalidLocator, raw)
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s", object.ErrInvalidLocator, raw)
	}
	category := object.Category(parts[0])
	if err := object.CheckCategory(category); err != nil {
		return "", "", err
	}
	return filepath.Join(s.baseDir, parts[0], parts[1]), category, nil
}

var _ object.Store = (*Store)(nil)
