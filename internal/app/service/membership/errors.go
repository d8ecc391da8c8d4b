package membership

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the membership operations. Callers match them with
// errors.Is; the HTTP layer maps each to one status code.
var (
	ErrAuth         = errors.New("membership: unauthorized")
	ErrNotFound     = errors.New("membership: not found")
	ErrProvider     = errors.New("membership: provider error")
	ErrStorage      = errors.New("membership: storage error")
	ErrInvalidEvent = errors.New("membership: invalid event")
)

func storageErr(op string, err error) error {
	if errors.Is(err, ErrStorage) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
