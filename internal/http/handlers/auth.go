package handlers

import (
	"net/http"
	"time"

	"stablecircle/internal/domain"
	"stablecircle/internal/service"

	"github.com/gin-gonic/gin"
)

// SignInMessage returns the text the wallet has to personal_sign.
func (h *Handler) SignInMessage(c *gin.Context) {
	wallet, err := domain.NormalizeWallet(c.Query("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": service.SignInMessage(wallet, time.Now())})
}

type AuthRequest struct {
	Wallet       string `json:"wallet"`
	Message      string `json:"message"`
	Signature    string `json:"signature"`
	Name         string `json:"name"`
	ReferralCode string `json:"referral_code"`
}

func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if len(req.Message) > 1024 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message too long"})
		return
	}

	wallet, err := h.WalletAuth.Verify(req.Wallet, req.Message, req.Signature)
	if err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.Users.RegisterOrGetUser(ctx, service.RegisterParams{
		Wallet:       wallet,
		Name:         req.Name,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := service.GenerateJWT(user.Wallet)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}
	h.Audit.LogLogin(ctx, user.Wallet, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}
