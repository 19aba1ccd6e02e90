package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
)

// GetReferral returns the caller's referral code, share link and earnings.
func (h *Handler) GetReferral(c *gin.Context) {
	wallet, ok := walletFrom(c)
	if !ok {
		return
	}
	sum, err := h.Users.ReferralSummary(c.Request.Context(), wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":                sum.Code,
		"link":                h.PublicURL + "/?ref=" + url.QueryEscape(sum.Code),
		"referrals":           sum.Referrals,
		"total_earned":        sum.TotalEarned,
		"reward_per_referral": sum.Reward,
		"referred":            sum.Referred,
	})
}
