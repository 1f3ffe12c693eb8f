package rest

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jmgilman/go/errors"
)

// apiError is the error body returned by the Econt services.
type apiError struct {
	Type        string     `json:"type"`
	Message     string     `json:"message"`
	InnerErrors []apiError `json:"innerErrors"`
}

// messages flattens the error and its inner errors, outermost first.
func (e apiError) messages() []string {
	var out []string
	if e.Message != "" {
		out = append(out, e.Message)
	}
	for _, inner := range e.InnerErrors {
		out = append(out, inner.messages()...)
	}
	return out
}

// codeForStatus maps an HTTP status code to an error code.
func codeForStatus(status int) errors.ErrorCode {
	switch status {
	case http.StatusUnauthorized:
		return errors.CodeUnauthorized
	case http.StatusForbidden:
		return errors.CodeForbidden
	case http.StatusNotFound:
		return errors.CodeNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return errors.CodeInvalidInput
	case http.StatusTooManyRequests:
		return errors.CodeRateLimit
	default:
		if status >= 500 {
			return errors.CodeNetwork
		}
		return errors.CodeInternal
	}
}

// retryableStatus reports whether a request that got status may succeed if repeated.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// newHTTPError builds an error from a non-2xx response.
func newHTTPError(endpoint string, status int, parsed *apiError) error {
	msg := fmt.Sprintf("econt API returned %d %s", status, http.StatusText(status))
	ctx := map[string]interface{}{
		"endpoint": endpoint,
		"status":   status,
	}
	if parsed != nil {
		if m := parsed.messages(); len(m) > 0 {
			msg = strings.Join(m, ": ")
		}
		if parsed.Type != "" {
			ctx["type"] = parsed.Type
		}
	}

	err := errors.New(codeForStatus(status), msg)
	return errors.WithContextMap(err, ctx)
}
