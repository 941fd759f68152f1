package localstore

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/carteiraapp/carteira/internal/domain"
)

// translate maps driver and GORM errors onto the domain taxonomy so callers
// never depend on SQLite error strings.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", domain.ErrConstraint, err)
	}

	msg := err.Error()
	if strings.Contains(msg, "FOREIGN KEY") ||
		strings.Contains(msg, "UNIQUE") ||
		strings.Contains(msg, "constraint failed") {
		return fmt.Errorf("%w: %v", domain.ErrConstraint, err)
	}
	return err
}
