package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"budgetbook/internal/core"
	"budgetbook/internal/ledger"
	"budgetbook/internal/log"
)

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrMalformedCredential):
		return http.StatusForbidden
	case errors.Is(err, core.ErrInvalidLogin):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorType(err error) string {
	var partial *ledger.PartialFailure
	switch {
	case errors.Is(err, core.ErrMissingCredential), errors.Is(err, core.ErrMalformedCredential),
		errors.Is(err, core.ErrInvalidLogin):
		return log.ErrorTypeAuth
	case errors.Is(err, core.ErrUserExists):
		return log.ErrorTypeConflict
	case errors.Is(err, core.ErrInvalidRequest):
		return log.ErrorTypeValidation
	case errors.As(err, &partial):
		return log.ErrorTypePartial
	case errors.Is(err, core.ErrStorage):
		return log.ErrorTypeDatabase
	default:
		return log.ErrorTypeInternal
	}
}

// respondError writes the JSON error body for err and aborts the chain.
// Server-side failures never leak driver messages to the client.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)

	var partial *ledger.PartialFailure
	if errors.As(err, &partial) {
		log.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "Request partially applied",
			log.NewFields().WithError(err).WithErrorType(log.ErrorTypePartial).ToSlice()...)
		c.AbortWithStatusJSON(status, gin.H{
			"message": "The request was only partially applied.",
			"partial": true,
			"applied": partial.Applied,
			"failed":  partial.Failed,
		})
		return
	}

	message := err.Error()
	switch {
	case status == http.StatusUnauthorized && errors.Is(err, core.ErrInvalidLogin):
		message = "Invalid id or password."
	case status == http.StatusUnauthorized:
		message = "Authentication required."
	case status == http.StatusForbidden:
		message = "Invalid or expired credential."
	case status == http.StatusConflict:
		message = "This id is already registered."
	case status >= 500:
		log.FromContext(c.Request.Context()).ErrorContext(c.Request.Context(), "Request failed",
			log.NewFields().WithError(err).WithErrorType(errorType(err)).ToSlice()...)
		message = "Internal server error."
	}
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
