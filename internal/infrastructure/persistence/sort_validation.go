package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed != "" && allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// orderClause builds a whitelisted ORDER BY clause. A rejected field falls
// back to the default field in descending order; the caller's direction
// only applies to a field it was allowed to pick.
func orderClause(field, dir string, allowed map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(field)
	if trimmed == "" || !allowed[trimmed] {
		return defaultField + " DESC"
	}
	return trimmed + " " + ValidateSortOrder(dir)
}

// EntitySortFields contains allowed sort fields for leads and clients
var EntitySortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"first_name":      true,
	"last_name":       true,
	"email":           true,
	"country":         true,
	"status":          true,
	"stage":           true,
	"balance":         true,
	"credit":          true,
	"ftd_date":        true,
	"last_contact_at": true,
}

// PositionSortFields contains allowed sort fields for positions
var PositionSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"symbol":       true,
	"volume":       true,
	"opened_at":    true,
	"closed_at":    true,
	"realized_pnl": true,
}

// TransactionSortFields contains allowed sort fields for transactions
var TransactionSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"type":         true,
	"status":       true,
	"amount":       true,
	"processed_at": true,
}

// UserSortFields contains allowed sort fields for CRM users
var UserSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"email":         true,
	"first_name":    true,
	"last_name":     true,
	"role":          true,
	"status":        true,
	"last_login_at": true,
}
