package csvimport

import (
	"errors"
	"fmt"
)

// Row error codes
const (
	ErrCodeMalformedRow    = "ERR_IMPORT_MALFORMED_ROW"
	ErrCodeValidation      = "ERR_IMPORT_VALIDATION"
	ErrCodeDuplicateInFile = "ERR_IMPORT_DUPLICATE_IN_FILE"
	ErrCodeDuplicateInDB   = "ERR_IMPORT_DUPLICATE_IN_DB"
)

var (
	ErrEmptyFile       = errors.New("CSV file is empty")
	ErrInvalidEncoding = errors.New("CSV file is not valid UTF-8")
	ErrMissingHeader   = errors.New("CSV file missing header row")
	ErrNoDataRows      = errors.New("CSV file contains no data rows")
	ErrTooManyRows     = errors.New("CSV file exceeds the row limit")
)

// RowError reports a rejected row. Row is the 1-based line number, the header being line 1.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column %q: %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}
