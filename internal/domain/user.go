package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is a saver identified by wallet address.
type User struct {
	Wallet           string          `db:"wallet" json:"wallet"`
	Seq              int64           `db:"seq" json:"-"`
	Name             string          `db:"name" json:"name"`
	ReferralCode     string          `db:"referral_code" json:"referral_code"`
	ReferredBy       string          `db:"referred_by" json:"referred_by,omitempty"`
	Referrals        int             `db:"referrals" json:"referrals"`
	TotalEarned      decimal.Decimal `db:"total_earned" json:"total_earned"`
	TotalContributed decimal.Decimal `db:"total_contributed" json:"total_contributed"`
	TotalSaved       decimal.Decimal `db:"total_saved" json:"total_saved"`
	Contributions    int             `db:"contributions" json:"contributions"`
	HubsCreated      int             `db:"hubs_created" json:"hubs_created"`
	Streak           int             `db:"streak" json:"streak"`
	// StreakAnchor is the time of the contribution that last moved the streak.
	StreakAnchor       *time.Time `db:"streak_anchor" json:"streak_anchor,omitempty"`
	StreakBonusGranted bool       `db:"streak_bonus_granted" json:"streak_bonus_granted"`
	Badges             []string   `db:"badges" json:"badges"`
	AnonymousMode      bool       `db:"anonymous_mode" json:"anonymous_mode"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	LastActivity       *time.Time `db:"last_activity" json:"last_activity,omitempty"`
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Badges = append([]string(nil), u.Badges...)
	if u.StreakAnchor != nil {
		t := *u.StreakAnchor
		c.StreakAnchor = &t
	}
	if u.LastActivity != nil {
		t := *u.LastActivity
		c.LastActivity = &t
	}
	return &c
}

// Touch records activity at t.
func (u *User) Touch(t time.Time) {
	if u.LastActivity == nil || t.After(*u.LastActivity) {
		u.LastActivity = &t
	}
}

// BadgeStats snapshots the counters badges are evaluated against.
func (u *User) BadgeStats() BadgeStats {
	days := 0
	if u.LastActivity != nil {
		days = int(u.LastActivity.Sub(u.CreatedAt).Hours() / 24)
	}
	return BadgeStats{
		Seq:           u.Seq,
		Streak:        u.Streak,
		Contributions: u.Contributions,
		TotalSaved:    u.TotalSaved,
		Referrals:     u.Referrals,
		HubsCreated:   u.HubsCreated,
		DaysActive:    days,
	}
}
