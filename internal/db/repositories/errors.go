package repositories

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrOutOfRange is returned when a position lies outside its list.
	ErrOutOfRange = errors.New("position out of range")
)

// translate maps gorm's sentinel errors onto the package sentinels and
// wraps anything else.
func translate(err error, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", action, ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", action, ErrDuplicate)
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
}
