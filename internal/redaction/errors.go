package redaction

import (
	"errors"

	"github.com/dgallion1/docredact/internal/parser"
	"github.com/dgallion1/docredact/internal/storage"
)

// Error kinds returned by Service. Callers classify with errors.Is.
var (
	ErrInput    = errors.New("invalid input")
	ErrParse    = parser.ErrParse
	ErrNotFound = storage.ErrNotFound
	ErrIO       = errors.New("storage failure")
)

// Kind names the class of err for logs and metrics.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInput):
		return "input"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrIO):
		return "io"
	default:
		return "internal"
	}
}
