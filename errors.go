package econt

import (
	"github.com/jmgilman/go/econt/internal/cache"
	"github.com/jmgilman/go/errors"
)

// Econt-specific error codes. Codes shared with the errors library are
// aliased for readability.
const (
	// ErrCodeNotFound indicates a requested record does not exist.
	ErrCodeNotFound = errors.CodeNotFound

	// ErrCodeInvalidInput indicates invalid parameters, including unknown filter fields.
	ErrCodeInvalidInput = errors.CodeInvalidInput

	// ErrCodeInvalidConfig indicates an invalid client or cache configuration.
	ErrCodeInvalidConfig = errors.CodeInvalidConfig

	// ErrCodeSourceUnavailable indicates the API could not be reached and no
	// usable cache entry existed.
	ErrCodeSourceUnavailable = cache.CodeSourceUnavailable

	// ErrCodeExportAborted indicates ExportAllData stopped before completing.
	ErrCodeExportAborted = cache.CodeExportAborted

	// ErrCodeCacheCorrupt indicates a stored entry could not be decoded.
	// The client recovers from it by refetching, so callers rarely see it.
	ErrCodeCacheCorrupt = cache.CodeCacheCorrupt
)

func newInvalidInputError(field, message string) error {
	err := errors.New(errors.CodeInvalidInput, message)
	return errors.WithContext(err, "field", field)
}
