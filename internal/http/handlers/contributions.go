package handlers

import (
	"net/http"

	"stablecircle/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ContributeRequest struct {
	ID     string          `json:"id"`
	HubID  string          `json:"hub_id"`
	Amount decimal.Decimal `json:"amount"`
	Round  int             `json:"round"`
}

func (h *Handler) Contribute(c *gin.Context) {
	wallet, ok := walletFrom(c)
	if !ok {
		return
	}
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.HubID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hub_id and amount are required"})
		return
	}
	res, err := h.Ledger.Contribute(c.Request.Context(), service.ContributeRequest{
		ID:     req.ID,
		HubID:  req.HubID,
		Wallet: wallet,
		Amount: req.Amount,
		Round:  req.Round,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, res)
}
