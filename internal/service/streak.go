package service

import (
	"sort"
	"time"

	"stablecircle/internal/config"
	"stablecircle/internal/domain"

	"github.com/shopspring/decimal"
)

// StreakPolicy defines the contribution cadence. A contribution less than
// Period after the anchor falls in the same window and changes nothing; one
// within MaxGap extends the streak; anything later restarts it at 1.
type StreakPolicy struct {
	Period    time.Duration
	MaxGap    time.Duration
	Threshold int
	Bonus     decimal.Decimal
}

func NewStreakPolicy(cfg config.LedgerConfig) StreakPolicy {
	return StreakPolicy{
		Period:    cfg.StreakPeriod,
		MaxGap:    cfg.StreakMaxGap,
		Threshold: cfg.StreakThreshold,
		Bonus:     cfg.StreakBonus,
	}
}

type StreakState struct {
	Length       int
	Anchor       *time.Time
	BonusGranted bool
}

// StreakStep is the effect of one contribution on a streak.
type StreakStep struct {
	State StreakState
	// Extended is set when the contribution opened a new consecutive period.
	Extended bool
	// Bonus is non-zero the single time the threshold is first reached.
	Bonus decimal.Decimal
}

// Advance applies a contribution made at "at".
func (p StreakPolicy) Advance(s StreakState, at time.Time) StreakStep {
	step := StreakStep{State: s}
	switch {
	case s.Length == 0 || s.Anchor == nil:
		step.State.Length = 1
		step.State.Anchor = &at
	case at.Before(*s.Anchor):
		// late-arriving entry older than the anchor
		return step
	case at.Sub(*s.Anchor) < p.Period:
		return step
	case at.Sub(*s.Anchor) <= p.MaxGap:
		step.State.Length++
		step.State.Anchor = &at
		step.Extended = true
	default:
		step.State.Length = 1
		step.State.Anchor = &at
	}
	if !step.State.BonusGranted && p.Threshold > 0 && step.State.Length >= p.Threshold {
		step.State.BonusGranted = true
		step.Bonus = p.Bonus
	}
	return step
}

// Current reports the streak as of now. A streak whose anchor is older than
// MaxGap has lapsed; it is shown as 1 until the next contribution resets it.
func (p StreakPolicy) Current(s StreakState, now time.Time) int {
	if s.Length == 0 || s.Anchor == nil {
		return 0
	}
	if now.Sub(*s.Anchor) > p.MaxGap {
		return 1
	}
	return s.Length
}

// Replay recomputes streak state from a contribution history.
func (p StreakPolicy) Replay(times []time.Time) StreakState {
	sorted := append([]time.Time(nil), times...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
	var s StreakState
	for _, t := range sorted {
		s = p.Advance(s, t).State
	}
	return s
}

func streakOf(u *domain.User) StreakState {
	return StreakState{Length: u.Streak, Anchor: u.StreakAnchor, BonusGranted: u.StreakBonusGranted}
}

func applyStreak(u *domain.User, s StreakState) {
	u.Streak = s.Length
	u.StreakAnchor = s.Anchor
	u.StreakBonusGranted = s.BonusGranted
}
