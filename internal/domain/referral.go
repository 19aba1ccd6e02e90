package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReferralStatus string

const (
	ReferralPending   ReferralStatus = "pending"
	ReferralCompleted ReferralStatus = "completed"
)

// Referral links a referrer to the wallet they brought in. One per referee.
type Referral struct {
	ID           string          `db:"id" json:"id"`
	Referrer     string          `db:"referrer" json:"referrer"`
	Referee      string          `db:"referee" json:"referee"`
	ReferralCode string          `db:"referral_code" json:"referral_code"`
	RewardAmount decimal.Decimal `db:"reward_amount" json:"reward_amount"`
	Status       ReferralStatus  `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
