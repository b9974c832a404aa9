// Package errors parses upstream HTTP error responses into structured errors.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// MinErrorStatusCode is the minimum HTTP status code considered an error
	MinErrorStatusCode = 400

	// maxErrorBody bounds how much of an error body is read.
	maxErrorBody = 64 << 10
)

// HTTPError represents an HTTP API error response
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	Message    string
	// Reason is a machine-readable cause when the API provides one,
	// e.g. Google's "quotaExceeded".
	Reason string
	// RetryAfter is parsed from the Retry-After header (seconds form only).
	RetryAfter time.Duration
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP error (%d %s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Status)
}

// Temporary reports a server-side or throttling failure.
func (e *HTTPError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// errorBody covers the error envelopes seen across the APIs we call:
// {"error":"..."}, {"message":"..."}, {"error":{"message":"...","errors":[{"reason":"..."}]}}
// and JSON:API style {"errors":[{"title":"...","detail":"..."}]}.
type errorBody struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
	Errors  []struct {
		Status string `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

type nestedError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
	Errors  []struct {
		Reason  string `json:"reason"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ParseHTTPError parses an HTTP error response into a structured error.
// It returns nil for non-error status codes.
func ParseHTTPError(resp *http.Response) error {
	if resp.StatusCode < MinErrorStatusCode {
		return nil
	}

	httpErr := &HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		httpErr.Message = fmt.Sprintf("failed to read error response body: %v", err)
		return httpErr
	}

	httpErr.Body = string(bodyBytes)
	httpErr.Message, httpErr.Reason = extractMessage(bodyBytes)
	if httpErr.Message == "" {
		httpErr.Message = httpErr.Body
	}

	return httpErr
}

func extractMessage(body []byte) (message, reason string) {
	var parsed errorBody
	if json.Unmarshal(body, &parsed) != nil {
		return "", ""
	}

	if len(parsed.Error) > 0 {
		var s string
		if json.Unmarshal(parsed.Error, &s) == nil && s != "" {
			return s, ""
		}

		var nested nestedError
		if json.Unmarshal(parsed.Error, &nested) == nil {
			if len(nested.Errors) > 0 {
				reason = nested.Errors[0].Reason
			}
			if reason == "" {
				reason = nested.Type
			}
			if nested.Message != "" {
				return nested.Message, reason
			}
		}
	}

	if parsed.Message != "" {
		return parsed.Message, reason
	}

	if len(parsed.Errors) > 0 {
		details := make([]string, len(parsed.Errors))
		for i, e := range parsed.Errors {
			if e.Detail != "" {
				details[i] = fmt.Sprintf("%s: %s", e.Title, e.Detail)
			} else {
				details[i] = e.Title
			}
		}
		return strings.Join(details, "; "), reason
	}

	return "", reason
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// AsHTTPError returns the first *HTTPError in err's chain.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// GetHTTPStatusCode extracts the HTTP status code from an error if it's an HTTPError
func GetHTTPStatusCode(err error) (int, bool) {
	if httpErr, ok := AsHTTPError(err); ok {
		return httpErr.StatusCode, true
	}
	return 0, false
}
