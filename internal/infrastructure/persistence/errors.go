package persistence

import (
	"errors"
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ErrOptimisticLock is returned when a versioned save finds the row changed
var ErrOptimisticLock = shared.NewDomainError("OPTIMISTIC_LOCK_ERROR", "The record has been modified by another transaction")

// notFound maps gorm.ErrRecordNotFound to shared.ErrNotFound
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

// likePattern builds a case-insensitive substring pattern for LOWER(col) LIKE ?
func likePattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
