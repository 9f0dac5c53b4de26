package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Devansh-g1/CryptoGig/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrChannelNotFound),
		errors.Is(err, domain.ErrJobNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrVerificationRequired):
		return http.StatusForbidden, "email verification required"

	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrNotMember):
		return http.StatusForbidden, err.Error()

	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidRoleSwitch),
		errors.Is(err, domain.ErrRoleMismatch),
		errors.Is(err, domain.ErrNoOpenVote),
		errors.Is(err, domain.ErrNoOpenDispute):
		return http.StatusUnprocessableEntity, err.Error()

	case errors.Is(err, domain.ErrUserExists),
		errors.Is(err, domain.ErrAlreadyMember),
		errors.Is(err, domain.ErrDuplicateVote),
		errors.Is(err, domain.ErrVoteAlreadyOpen),
		errors.Is(err, domain.ErrDisputeAlreadyOpen):
		return http.StatusConflict, err.Error()

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNegativeBudget),
		errors.Is(err, domain.ErrInvalidWallet),
		errors.Is(err, domain.ErrSelfTarget),
		errors.Is(err, domain.ErrTokenInvalid):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, domain.ErrEscrowUnavailable):
		return http.StatusServiceUnavailable, "escrow unavailable"
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
