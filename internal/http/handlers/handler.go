package handlers

import (
	"context"
	"net/http"
	"strconv"

	"stablecircle/internal/http/middleware"
	"stablecircle/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// TokenBalance reads a wallet's stablecoin balance on chain.
type TokenBalance interface {
	BalanceOf(ctx context.Context, wallet string) (decimal.Decimal, error)
}

type Handler struct {
	Users       *service.UserService
	Hubs        *service.HubService
	Ledger      *service.LedgerService
	Chat        *service.ChatService
	Leaderboard *service.LeaderboardService
	Audit       *service.AuditService
	WalletAuth  *service.WalletAuthenticator
	Balance     TokenBalance
	PublicURL   string
}

func walletFrom(c *gin.Context) (string, bool) {
	w, ok := middleware.Wallet(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return w, ok
}

func queryLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
