package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/probill/internal/repository"
)

func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// mapWriteError converts constraint failures to repository errors.
func mapWriteError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case isForeignKeyViolation(err):
		return errors.Join(repository.ErrForeignKeyViolation, err)
	case isUniqueViolation(err):
		return errors.Join(repository.ErrDuplicate, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
