package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/memberlink/internal/app/service/membership"
	"github.com/fatflowers/memberlink/pkg/response"
)

const (
	msgUnauthorized   = "Missing authorization token"
	msgNoSubscription = "No active subscription found"
	msgProviderFailed = "Failed to cancel subscription with payment provider"
	msgDatabase       = "Database error"
	msgBadSignature   = "Invalid webhook signature"
	msgInvalidEvent   = "Invalid webhook event"
	msgInternal       = "Internal server error"
)

// statusFor maps a membership error kind to its HTTP status and ErrorBody.
func statusFor(err error) (int, response.ErrorBody) {
	switch {
	case errors.Is(err, membership.ErrAuth):
		return http.StatusUnauthorized, response.NewErrorBody(response.CodeUnauthorized, msgUnauthorized)
	case errors.Is(err, membership.ErrInvalidEvent):
		return http.StatusBadRequest, response.NewErrorBody(response.CodeInvalidEvent, msgInvalidEvent)
	case errors.Is(err, membership.ErrNotFound):
		return http.StatusNotFound, response.NewErrorBody(response.CodeNotFound, msgNoSubscription)
	case errors.Is(err, membership.ErrProvider):
		return http.StatusBadGateway, response.NewErrorBody(response.CodeProviderError, msgProviderFailed)
	case errors.Is(err, membership.ErrStorage):
		return http.StatusInternalServerError, response.NewErrorBody(response.CodeStorageError, msgDatabase)
	default:
		return http.StatusInternalServerError, response.NewErrorBody(response.CodeInternal, msgInternal)
	}
}

func abortWithError(c *gin.Context, err error) {
	status, body := statusFor(err)
	c.AbortWithStatusJSON(status, body)
}
