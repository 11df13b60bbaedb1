package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Adapters wrap their failures with one of these so
// the HTTP layer can map them to a status code without knowing the adapter.
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
)

// WrapError attaches a sentinel kind and an operation label to err while
// keeping the original error unwrappable.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

// IsKind reports whether err carries the given sentinel kind anywhere in
// its chain.
func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
