package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"stablecircle/internal/domain"
	"stablecircle/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.Invalid("amount must be positive"), http.StatusBadRequest},
		{fmt.Errorf("hub: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrInvalidInviteCode, http.StatusNotFound},
		{domain.ErrHubFull, http.StatusConflict},
		{domain.ErrNotMember, http.StatusForbidden},
		{fmt.Errorf("%w: rpc down", domain.ErrTransfer), http.StatusBadGateway},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestRespondErrorUnrecordedPayment(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/contributions", nil)

	respondError(c, &service.UnrecordedPaymentError{
		TransactionRef: "0xabc",
		Err:            fmt.Errorf("%w: row locked", domain.ErrStorageConflict),
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "0xabc", body["transaction_ref"])
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)

	respondError(c, errors.New("pq: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "pq")
}
