package handlers

import (
	"net/http"

	"stablecircle/internal/logger"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	wallet, ok := walletFrom(c)
	if !ok {
		return
	}
	user, err := h.Users.GetUser(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) MyHubs(c *gin.Context) {
	wallet, ok := walletFrom(c)
	if !ok {
		return
	}
	hubs, err := h.Hubs.GetUserHubs(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hubs": hubs})
}

// MyBalance reports the on-chain cUSD balance next to ledger totals.
func (h *Handler) MyBalance(c *gin.Context) {
	wallet, ok := walletFrom(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	user, err := h.Users.GetUser(ctx, wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := gin.H{
		"wallet":            user.Wallet,
		"total_contributed": user.TotalContributed,
		"total_earned":      user.TotalEarned,
	}
	if h.Balance != nil {
		bal, err := h.Balance.BalanceOf(ctx, user.Wallet)
		if err != nil {
			logger.Warn("balance lookup failed", "wallet", user.Wallet, "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "balance unavailable"})
			return
		}
		resp["token_balance"] = bal
	}
	c.JSON(http.StatusOK, resp)
}

type AnonymousRequest struct {
	Anonymous bool `json:"anonymous"`
}

func (h *Handler) SetAnonymous(c *gin.Context) {
	wallet, ok := walletFrom(c)
	if !ok {
		return
	}
	var req AnonymousRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	user, err := h.Users.SetAnonymous(c.Request.Context(), wallet, req.Anonymous)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
