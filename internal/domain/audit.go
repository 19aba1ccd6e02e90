package domain

import "time"

// AuditLog records a ledger event.
type AuditLog struct {
	ID        string         `db:"id" json:"id"`
	Wallet    string         `db:"wallet" json:"wallet,omitempty"`
	HubID     string         `db:"hub_id" json:"hub_id,omitempty"`
	Action    string         `db:"action" json:"action"`
	Category  string         `db:"category" json:"category"`
	Details   map[string]any `db:"details" json:"details"`
	IP        string         `db:"ip" json:"ip,omitempty"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
}

// Audit categories
const (
	AuditCategoryAuth     = "auth"
	AuditCategoryHub      = "hub"
	AuditCategoryLedger   = "ledger"
	AuditCategoryReward   = "reward"
	AuditCategoryTransfer = "transfer"
)

// Audit actions
const (
	AuditActionLogin                = "login"
	AuditActionUserRegistered       = "user_registered"
	AuditActionHubCreated           = "hub_created"
	AuditActionHubJoined            = "hub_joined"
	AuditActionContributionRecorded = "contribution_recorded"
	AuditActionReferralRewarded     = "referral_rewarded"
	AuditActionStreakBonus          = "streak_bonus"
	AuditActionRoundCompleted       = "round_completed"
	AuditActionUnrecordedPayment    = "unrecorded_payment"
	AuditActionReconciled           = "reconciled"
)
