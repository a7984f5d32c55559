package util

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SanitizeFileName flattens path separators so the result is a single path
// element. Names that still resolve to a directory ("." or "..") are rejected.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	switch s {
	case "", ".", "..":
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// UniqueName prefixes a file name with a UTC timestamp and a short random id so
// two requests in the same second never share an object name.
func UniqueName(now time.Time, fileName string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	base := strings.TrimSpace(filepath.Base(fileName))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "file"
	}
	return fmt.Sprintf("%s_%s_%s", now.UTC().Format("20060102_150405"), id, base)
}

// FileExt returns the lower-cased extension including the dot.
func FileExt(name string) string {
	return strings.ToLower(filepath.Ext(strings.TrimSpace(name)))
}
