package cache

import (
	stderrors "errors"
	"fmt"

	"github.com/jmgilman/go/errors"
)

// Cache error codes. Codes shared with the errors library are aliased for
// readability in cache context.
const (
	// CodeSourceUnavailable indicates the fetch failed and no usable entry exists.
	CodeSourceUnavailable = errors.CodeUnavailable

	// CodeExportAborted indicates a bulk export stopped before completing.
	CodeExportAborted errors.ErrorCode = "EXPORT_ABORTED"

	// CodeCacheCorrupt indicates a stored entry could not be decoded.
	CodeCacheCorrupt errors.ErrorCode = "CACHE_CORRUPT"

	// CodeInvalidFilter indicates a predicate referenced an unknown field.
	CodeInvalidFilter = errors.CodeInvalidInput
)

// ErrNotFound is returned by a Store when a key has no entry.
var ErrNotFound = errors.New(errors.CodeNotFound, "cache entry not found")

// IsNotFound reports whether err means the key is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsCorrupt reports whether err means a stored entry is unreadable.
func IsCorrupt(err error) bool {
	for ; err != nil; err = stderrors.Unwrap(err) {
		if pe, ok := err.(errors.PlatformError); ok && pe.Code() == CodeCacheCorrupt {
			return true
		}
	}
	return false
}

func newCorruptError(key string, cause error) error {
	var err errors.PlatformError
	if cause != nil {
		err = errors.Wrap(cause, CodeCacheCorrupt, "cache entry is corrupted")
	} else {
		err = errors.New(CodeCacheCorrupt, "cache entry is corrupted")
	}
	return errors.WithContext(err, "key", key)
}

func newSourceUnavailableError(key string, cause error) error {
	return errors.WrapWithContext(cause, CodeSourceUnavailable,
		fmt.Sprintf("failed to fetch %s", key),
		map[string]interface{}{"key": key})
}

func newInvalidFilterError(field, recordType string) error {
	err := errors.Newf(CodeInvalidFilter, "unknown filter field %q for %s", field, recordType)
	return errors.WithContextMap(err, map[string]interface{}{
		"field":       field,
		"record_type": recordType,
	})
}
