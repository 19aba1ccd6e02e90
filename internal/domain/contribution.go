package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contribution is an immutable ledger entry.
type Contribution struct {
	ID             string          `db:"id" json:"id"`
	Wallet         string          `db:"wallet" json:"wallet"`
	HubID          string          `db:"hub_id" json:"hub_id"`
	Amount         decimal.Decimal `db:"amount" json:"amount"`
	Round          int             `db:"round" json:"round"`
	TransactionRef string          `db:"transaction_ref" json:"transaction_ref,omitempty"`
	IsStreak       bool            `db:"is_streak" json:"is_streak"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

// RoundOutcome describes a round that closed as a result of a contribution.
type RoundOutcome struct {
	Round     int             `json:"round"`
	Recipient Member          `json:"recipient"`
	Pot       decimal.Decimal `json:"pot"`
	Completed bool            `json:"hub_completed"`
}

// ContributionResult is returned by the ledger after a contribution commits.
type ContributionResult struct {
	Contribution *Contribution   `json:"contribution"`
	Hub          *Hub            `json:"hub"`
	User         *User           `json:"user"`
	StreakBonus  decimal.Decimal `json:"streak_bonus"`
	NewBadges    []string        `json:"new_badges,omitempty"`
	RoundClosed  *RoundOutcome   `json:"round_closed,omitempty"`
	Replayed     bool            `json:"replayed,omitempty"`
}
