package customerapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/stellar/customer-intake-backend/internal/intake"
	"github.com/stellar/customer-intake-backend/internal/utils"
)

// ErrFetchFailed is wrapped by every non-2xx response from the customer API.
var ErrFetchFailed = errors.New("customer API request failed")

const maxErrorBodyLength = 256

// StatusError is returned for a non-2xx response. It matches ErrFetchFailed, and intake.ErrRecordNotFound as well when
// the status is 404.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() []error {
	if e.StatusCode == http.StatusNotFound {
		return []error{ErrFetchFailed, intake.ErrRecordNotFound}
	}
	return []error{ErrFetchFailed}
}

// IsClientError reports whether the request should not be retried.
func (e *StatusError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// parseStatusError consumes the body of an unsuccessful response.
func parseStatusError(resp *http.Response) *StatusError {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength*4))
	if err != nil {
		body = nil
	}

	statusErr := &StatusError{
		StatusCode: resp.StatusCode,
		Body:       utils.TruncateString(string(body), maxErrorBodyLength),
	}
	if resp.Request != nil {
		statusErr.Method = resp.Request.Method
		statusErr.URL = resp.Request.URL.String()
	}
	return statusErr
}
