package handlers

import (
	"errors"
	"net/http"

	"stablecircle/internal/domain"
	"stablecircle/internal/logger"
	"stablecircle/internal/service"

	"github.com/gin-gonic/gin"
)

var statusByError = []struct {
	err    error
	status int
}{
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrInvalidInviteCode, http.StatusNotFound},
	{domain.ErrHubFull, http.StatusConflict},
	{domain.ErrAlreadyMember, http.StatusConflict},
	{domain.ErrHubNotActive, http.StatusConflict},
	{domain.ErrNotMember, http.StatusForbidden},
	{domain.ErrTransfer, http.StatusBadGateway},
	{domain.ErrStorageConflict, http.StatusConflict},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
}

func statusOf(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// respondError writes the domain error as JSON. Unmapped errors are logged
// and hidden from the client.
func respondError(c *gin.Context, err error) {
	status := statusOf(err)

	var unrecorded *service.UnrecordedPaymentError
	if errors.As(err, &unrecorded) {
		c.JSON(status, gin.H{
			"error":           "payment was sent but could not be recorded; it will be reconciled",
			"transaction_ref": unrecorded.TransactionRef,
		})
		return
	}
	if status == http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
