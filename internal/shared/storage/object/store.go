package object

import (
	"context"
	"errors"
	"fmt"
)

// Category groups stored artifacts. Only the values below are accepted.
type Category string

const (
	CategoryUploads   Category = "uploads"
	CategoryGenerated Category = "generated"
)

// Categories lists every known category in a stable order.
var Categories = []Category{CategoryUploads, CategoryGenerated}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryUploads, CategoryGenerated:
		return true
	default:
		return false
	}
}

// Locator is an opaque reference to a stored object: a filesystem path for the
// local backend, an object URL for the cloud backend.
type Locator string

func (l Locator) String() string { return string(l) }

var (
	// ErrUnknownCategory is returned before any I/O for categories outside Categories.
	ErrUnknownCategory = errors.New("unknown storage category")
	// ErrNotFound is returned when a locator does not resolve to a stored object.
	ErrNotFound = errors.New("stored object not found")
	// ErrInvalidLocator is returned for locators the active backend cannot resolve.
	ErrInvalidLocator = errors.New("invalid storage locator")
)

// Store is the contract shared by both storage backends.
type Store interface {
	Save(ctx context.Context, category Category, fileName string, data []byte) (Locator, error)
	Read(ctx context.Context, loc Locator) ([]byte, error)
	Delete(ctx context.Context, loc Locator) error
	Backend() string
}

// Presigner is implemented by backends that can hand out direct download links.
type Presigner interface {
	PresignGet(ctx context.Context, loc Locator, downloadName string) (string, error)
}

// Error wraps a backend failure with the operation and category involved.
type Error struct {
	Op       string
	Category Category
	Err      error
}

func (e *Error) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s category=%s: %v", e.Op, e.Category, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap builds an *Error, passing nil through untouched.
func Wrap(op string, category Category, err error) error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return err
	}
	return &Error{Op: op, Category: category, Err: err}
}

// CheckCategory rejects unknown categories.
func CheckCategory(category Category) error {
	if !category.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, string(category))
	}
	return nil
}
