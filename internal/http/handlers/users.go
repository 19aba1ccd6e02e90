package handlers

import (
	"net/http"

	"stablecircle/internal/service"

	"github.com/gin-gonic/gin"
)

type RegisterRequest struct {
	Name         string `json:"name"`
	ReferralCode string `json:"referral_code"`
}

// RegisterUser is registerOrGetUser for the authenticated wallet.
func (h *Handler) RegisterUser(c *gin.Context) {
	wallet, ok := walletFrom(c)
	if !ok {
		return
	}
	var req RegisterRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
			return
		}
	}
	user, err := h.Users.RegisterOrGetUser(c.Request.Context(), service.RegisterParams{
		Wallet:       wallet,
		Name:         req.Name,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Users.GetUser(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) GetUserHubs(c *gin.Context) {
	hubs, err := h.Hubs.GetUserHubs(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hubs": hubs})
}

func (h *Handler) GetUserContributions(c *gin.Context) {
	list, err := h.Ledger.GetContributionsByUser(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contributions": list})
}
