package service

import (
	"context"
	"time"

	"stablecircle/internal/domain"
	"stablecircle/internal/logger"
	"stablecircle/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditService handles audit logging. Failures are logged, never returned.
type AuditService struct {
	repo repository.AuditStore
}

func NewAuditService(repo repository.AuditStore) *AuditService {
	return &AuditService{repo: repo}
}

// Log creates a new audit log entry
func (s *AuditService) Log(ctx context.Context, wallet, hubID, action, category string, details map[string]interface{}) {
	if s == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.NewString(),
		Wallet:    wallet,
		HubID:     hubID,
		Action:    action,
		Category:  category,
		Details:   details,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", action, "wallet", wallet)
	}
}

func (s *AuditService) LogLogin(ctx context.Context, wallet, ip string) {
	if s == nil {
		return
	}
	entry := &domain.AuditLog{
		ID:        uuid.NewString(),
		Wallet:    wallet,
		Action:    domain.AuditActionLogin,
		Category:  domain.AuditCategoryAuth,
		IP:        ip,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		logger.Error("failed to create audit log", "error", err, "action", entry.Action, "wallet", wallet)
	}
}

func (s *AuditService) LogContribution(ctx context.Context, c *domain.Contribution) {
	s.Log(ctx, c.Wallet, c.HubID, domain.AuditActionContributionRecorded, domain.AuditCategoryLedger, map[string]interface{}{
		"contribution_id": c.ID,
		"amount":          c.Amount.String(),
		"round":           c.Round,
		"transaction_ref": c.TransactionRef,
		"is_streak":       c.IsStreak,
	})
}

// LogUnrecordedPayment marks a transfer that succeeded without a ledger entry.
// These rows are the input for manual compensation.
func (s *AuditService) LogUnrecordedPayment(ctx context.Context, c *domain.Contribution, cause error) {
	s.Log(ctx, c.Wallet, c.HubID, domain.AuditActionUnrecordedPayment, domain.AuditCategoryTransfer, map[string]interface{}{
		"contribution_id": c.ID,
		"amount":          c.Amount.String(),
		"transaction_ref": c.TransactionRef,
		"error":           cause.Error(),
	})
}

func (s *AuditService) LogReward(ctx context.Context, wallet, action string, amount decimal.Decimal, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["amount"] = amount.String()
	s.Log(ctx, wallet, "", action, domain.AuditCategoryReward, details)
}

func (s *AuditService) LogRound(ctx context.Context, hubID string, out *domain.RoundOutcome) {
	s.Log(ctx, out.Recipient.Wallet, hubID, domain.AuditActionRoundCompleted, domain.AuditCategoryHub, map[string]interface{}{
		"round":         out.Round,
		"pot":           out.Pot.String(),
		"hub_completed": out.Completed,
	})
}

// UnrecordedPayments lists transfers awaiting compensation.
func (s *AuditService) UnrecordedPayments(ctx context.Context, limit int) ([]*domain.AuditLog, error) {
	return s.repo.ListAuditLogs(ctx, domain.AuditActionUnrecordedPayment, limit)
}
