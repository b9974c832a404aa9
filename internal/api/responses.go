package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	infraerrors "github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/errors"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/infrastructure/logger"
	"github.com/sammy0329/samyang-rnd-ai-agent-sub000/internal/domain"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	Hint       string `json:"hint,omitempty"`
	RetryAfter int    `json:"retry_after,omitempty"`
}

// defaultRetryAfter is suggested when a quota response carries no hint.
const defaultRetryAfter = 60

// statusFor maps an error kind to an HTTP status. Validation failures are a
// client error only when they describe the caller's input.
func statusFor(kind domain.ErrorKind, callerInput bool) int {
	switch kind {
	case domain.KindValidation:
		if callerInput {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	case domain.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err with the status of its kind. Unclassified and
// upstream validation errors are reported generically.
func respondError(c *gin.Context, err error, callerInput bool) {
	kind := domain.KindOf(err)
	status := statusFor(kind, callerInput)

	resp := ErrorResponse{Kind: string(kind), Hint: domain.HintOf(err)}
	switch {
	case status == http.StatusInternalServerError && kind != domain.KindMissingCredential:
		resp.Error = "internal server error"
		resp.Kind = ""
	default:
		resp.Error = err.Error()
	}

	if kind == domain.KindQuotaExceeded {
		resp.RetryAfter = retryAfterSeconds(err)
		c.Header("Retry-After", strconv.Itoa(resp.RetryAfter))
	}

	log := logger.FromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", logger.String("kind", string(kind)), logger.Error(err))
	} else {
		log.Debug("Request rejected", logger.String("kind", string(kind)), logger.Error(err))
	}

	c.AbortWithStatusJSON(status, resp)
}

func retryAfterSeconds(err error) int {
	if httpErr, ok := infraerrors.AsHTTPError(err); ok && httpErr.RetryAfter > 0 {
		return int(httpErr.RetryAfter.Seconds())
	}
	return defaultRetryAfter
}

// collectionStatus picks the status of a collection where every adapter
// failed: 429 when all were out of quota, 500 when all failures were quota
// or credential problems, otherwise 404.
func collectionStatus(errs []domain.CollectionError) int {
	quota, credential := 0, 0
	for _, e := range errs {
		switch e.Kind {
		case domain.KindQuotaExceeded:
			quota++
		case domain.KindMissingCredential:
			credential++
		}
	}

	switch {
	case quota == len(errs):
		return http.StatusTooManyRequests
	case quota+credential == len(errs):
		return http.StatusInternalServerError
	default:
		return http.StatusNotFound
	}
}
