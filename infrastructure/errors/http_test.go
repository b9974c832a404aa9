package errors_test

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	infraerrors "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/errors"
)

func response(status int, body string, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseHTTPError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		wantReason string
	}{
		{"plain error string", 400, `{"error":"bad keyword"}`, "bad keyword", ""},
		{"message field", 500, `{"message":"upstream down"}`, "upstream down", ""},
		{
			"google style",
			403,
			`{"error":{"code":403,"message":"quota","errors":[{"reason":"quotaExceeded"}]}}`,
			"quota",
			"quotaExceeded",
		},
		{"openai style", 429, `{"error":{"message":"slow down","type":"rate_limit_error"}}`, "slow down", "rate_limit_error"},
		{"jsonapi", 422, `{"errors":[{"title":"Invalid","detail":"q missing"}]}`, "Invalid: q missing", ""},
		{"not json", 502, `Bad Gateway`, "Bad Gateway", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := infraerrors.ParseHTTPError(response(tt.status, tt.body, nil))
			httpErr, ok := infraerrors.AsHTTPError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.wantMsg, httpErr.Message)
			assert.Equal(t, tt.wantReason, httpErr.Reason)
		})
	}
}

func TestParseHTTPError_SuccessIsNil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, infraerrors.ParseHTTPError(response(200, `{}`, nil)))
}

func TestParseHTTPError_RetryAfterAndWrapping(t *testing.T) {
	t.Parallel()

	err := infraerrors.ParseHTTPError(response(429, `{}`, http.Header{"Retry-After": []string{"7"}}))
	wrapped := fmt.Errorf("search: %w", err)

	httpErr, ok := infraerrors.AsHTTPError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 7*time.Second, httpErr.RetryAfter)
	assert.True(t, httpErr.Temporary())

	code, ok := infraerrors.GetHTTPStatusCode(wrapped)
	assert.True(t, ok)
	assert.Equal(t, 429, code)
}
