package handlers

import (
	"net/http"
	"time"

	"stablecircle/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CreateHubRequest struct {
	Name               string           `json:"name"`
	Description        string           `json:"description"`
	CreatorName        string           `json:"creator_name"`
	Goal               *decimal.Decimal `json:"goal"`
	Deadline           *time.Time       `json:"deadline"`
	DurationDays       int              `json:"duration_days"`
	ContributionAmount decimal.Decimal  `json:"contribution_amount"`
	MaxMembers         int              `json:"max_members"`
}

func (h *Handler) CreateHub(c *gin.Context) {
	wallet, ok := walletFrom(c)
	if !ok {
		return
	}
	var req CreateHubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	hub, err := h.Hubs.CreateHub(c.Request.Context(), service.CreateHubParams{
		Creator:            wallet,
		CreatorName:        req.CreatorName,
		Name:               req.Name,
		Description:        req.Description,
		Goal:               req.Goal,
		Deadline:           req.Deadline,
		DurationDays:       req.DurationDays,
		ContributionAmount: req.ContributionAmount,
		MaxMembers:         req.MaxMembers,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, hub)
}

func (h *Handler) GetHub(c *gin.Context) {
	hub, err := h.Hubs.GetHub(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hub)
}

func (h *Handler) GetHubByInvite(c *gin.Context) {
	hub, err := h.Hubs.GetHubByInviteCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hub)
}

type JoinHubRequest struct {
	InviteCode  string `json:"invite_code"`
	DisplayName string `json:"display_name"`
}

func (h *Handler) JoinHub(c *gin.Context) {
	wallet, ok := walletFrom(c)
	if !ok {
		return
	}
	var req JoinHubRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.InviteCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invite_code is required"})
		return
	}
	hub, err := h.Hubs.JoinHub(c.Request.Context(), req.InviteCode, wallet, req.DisplayName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, hub)
}

func (h *Handler) HubContributions(c *gin.Context) {
	list, err := h.Ledger.GetContributionsByHub(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contributions": list})
}

func (h *Handler) HubRotation(c *gin.Context) {
	view, err := h.Hubs.Rotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) HubMessages(c *gin.Context) {
	msgs, err := h.Chat.History(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}
