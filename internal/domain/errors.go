package domain

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrInvalidURL indicates the input is not a GitHub folder URL
	ErrInvalidURL = errors.New("invalid GitHub URL")

	// ErrOutputExists indicates the output directory already exists and --force was not given
	ErrOutputExists = errors.New("output directory already exists")

	// ErrFolderNotFound indicates no archive entry matched the requested subpath
	ErrFolderNotFound = errors.New("folder not found in repository")

	// ErrTimeout indicates a network attempt timed out
	ErrTimeout = errors.New("timeout")
)

// RequestError represents a single failed HTTP attempt against the
// archive endpoint. The retrier inspects it to decide between retrying
// and giving up immediately.
type RequestError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("request to %s failed: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// NewRequestError creates a new RequestError
func NewRequestError(url string, statusCode int, err error) *RequestError {
	return &RequestError{
		URL:        url,
		StatusCode: statusCode,
		Err:        err,
	}
}

// DownloadError represents an archive download that failed for good,
// either after exhausting retries or on a permanent client error.
type DownloadError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download of %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}

// ExtractionError represents a failure while reading the archive or
// writing the selected entries.
type ExtractionError struct {
	Archive string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction of %s failed: %v", e.Archive, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if a failed attempt should be retried. Transport
// errors and timeouts are transient; HTTP client errors are not.
func IsRetryable(err error) bool {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.StatusCode == 429:
			return true
		case reqErr.StatusCode >= 500:
			return true
		case reqErr.StatusCode > 0:
			return false
		}
		return !errors.Is(reqErr.Err, context.Canceled)
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	return err != nil
}
