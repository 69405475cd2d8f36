package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error kinds. Match with errors.Is.
var (
	ErrEmptyInput       = errors.New("empty input")
	ErrInvalidCSV       = errors.New("invalid csv")
	ErrMissingReference = errors.New("missing reference")
	ErrDuplicateProduct = errors.New("duplicate product")
	ErrImport           = errors.New("import failed")
)

// Error is a user-facing failure with an HTTP status.
type Error struct {
	Kind    error
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return e.Kind == target
}

func New(kind error, status int, code, message string, err error) *Error {
	return &Error{
		Kind:    kind,
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// EmptyInputError is raised when the CSV has no content or no header line.
func EmptyInputError() *Error {
	return New(ErrEmptyInput, http.StatusBadRequest, "EMPTY_FILE", "CSV file is empty.", nil)
}

// InvalidCsvError is raised when parsing yields no data rows.
func InvalidCsvError() *Error {
	return New(ErrInvalidCSV, http.StatusBadRequest, "INVALID_CSV", "No valid products found in the CSV", nil)
}

// MissingReferenceError lists every missing retailer title in one message.
func MissingReferenceError(titles []string) *Error {
	msg := fmt.Sprintf("The following retailers do not exist: %s", strings.Join(titles, ", "))
	return New(ErrMissingReference, http.StatusBadRequest, "MISSING_RETAILERS", msg, nil)
}

// DuplicateProductError reports a product whose (mpn, pack size) already exists.
func DuplicateProductError(mpn, packSize string, err error) *Error {
	msg := fmt.Sprintf("Duplicate product found: A product with MPN: '%s', Pack Size: '%s' already exists.", mpn, packSize)
	return New(ErrDuplicateProduct, http.StatusUnprocessableEntity, "DUPLICATE_PRODUCT", msg, err)
}

// ImportError wraps any other failure of the import pipeline.
func ImportError(err error) *Error {
	return New(ErrImport, http.StatusBadRequest, "IMPORT_FAILED", "Error processing CSV: "+err.Error(), err)
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
