package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ballotbox/voting-api/internal/core/domain"
)

const codeInternal = "INTERNAL"

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var statusByCode = map[domain.Code]int{
	domain.CodeInvalidCredentials: http.StatusUnauthorized,
	domain.CodeUnauthenticated:    http.StatusUnauthorized,
	domain.CodeForbidden:          http.StatusForbidden,
	domain.CodeConflict:           http.StatusConflict,
	domain.CodeNotFound:           http.StatusNotFound,
	domain.CodeCandidateNotFound:  http.StatusNotFound,
	domain.CodeInvalidOperation:   http.StatusBadRequest,
	domain.CodeAlreadyVoted:       http.StatusBadRequest,
	domain.CodeAlreadyAdmin:       http.StatusBadRequest,
	domain.CodeInvalidInput:       http.StatusBadRequest,
	domain.CodeMissingEmail:       http.StatusBadRequest,
	domain.CodeExpired:            http.StatusBadRequest,
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps domain error codes to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>", "code": "<CODE>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	var de *domain.Error
	if errors.As(err, &de) {
		status, ok := statusByCode[de.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		return status, errorResponse{Error: de.Message, Code: string(de.Code)}
	}

	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: codeForStatus(he.Code)}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: codeInternal}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return string(domain.CodeUnauthenticated)
	case http.StatusForbidden:
		return string(domain.CodeForbidden)
	case http.StatusNotFound:
		return string(domain.CodeNotFound)
	case http.StatusConflict:
		return string(domain.CodeConflict)
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	default:
		return string(domain.CodeInvalidInput)
	}
}
