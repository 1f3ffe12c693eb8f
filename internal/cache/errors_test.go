package cache

import (
	"fmt"
	"testing"

	"github.com/jmgilman/go/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsCorrupt(t *testing.T) {
	corrupt := newCorruptError("offices", fmt.Errorf("unexpected EOF"))

	assert.True(t, IsCorrupt(corrupt))
	assert.True(t, IsCorrupt(fmt.Errorf("reading store: %w", corrupt)))
	assert.False(t, IsCorrupt(ErrNotFound))
	assert.False(t, IsCorrupt(nil))
	assert.Equal(t, "offices", corrupt.(errors.PlatformError).Context()["key"])
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("read: %w", ErrNotFound)))
	assert.False(t, IsNotFound(errors.New(errors.CodeNotFound, "other")))
}

func TestSourceUnavailableError(t *testing.T) {
	cause := errors.New(errors.CodeRateLimit, "too many requests")
	err := newSourceUnavailableError(KeyCountries, cause)

	assert.Equal(t, CodeSourceUnavailable, errors.GetCode(err))
	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.IsRetryable(err))
}
