package storetables

import (
	"errors"
	"fmt"

	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrInvalidIdentifier means a store identifier failed the allow-list.
	// The call must not be retried with the same input.
	ErrInvalidIdentifier = errors.New("invalid store identifier")

	// ErrNotFound means an operation targeted a row that does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConstraint means a foreign key or uniqueness constraint was
	// violated. The transaction has been rolled back.
	ErrConstraint = errors.New("constraint violation")

	// ErrDuplicateCode is the uniqueness specialization of ErrConstraint:
	// the image code is already taken within this store's images table.
	ErrDuplicateCode = fmt.Errorf("duplicate image code: %w", ErrConstraint)
)

// ProvisionError reports a failed table create or drop for a store. The
// surrounding transaction has been rolled back by the time it is returned.
type ProvisionError struct {
	Store StoreIdent
	Op    string
	Err   error
}

func (e *ProvisionError) Error() string {
	return fmt.Sprintf("provision: %s tables for store %s: %v", e.Op, e.Store, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// translate maps engine errors onto the package taxonomy. The unique
// constraint in a store's table set is the image_code index, so a unique
// violation always means a duplicate code. Unknown errors pass through
// wrapped so nothing from the engine is swallowed.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	var serr sqlite3.Error
	if errors.As(err, &serr) && serr.Code == sqlite3.ErrConstraint {
		if serr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %v", ErrDuplicateCode, err)
		}
		return fmt.Errorf("%w: %v", ErrConstraint, err)
	}
	return err
}
