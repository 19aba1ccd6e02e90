package domain

import "github.com/shopspring/decimal"

// BadgeStats are the cumulative counters badge thresholds read.
type BadgeStats struct {
	Seq           int64
	Streak        int
	Contributions int
	TotalSaved    decimal.Decimal
	Referrals     int
	HubsCreated   int
	DaysActive    int
}

type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	unlocked    func(BadgeStats) bool
}

const earlyAdopterLimit = 100

var savingsHeroTarget = decimal.NewFromInt(1000)

// Badges is the catalogue in display order.
var Badges = []Badge{
	{ID: "early_adopter", Name: "Early Adopter", Description: "One of the first 100 users",
		unlocked: func(s BadgeStats) bool { return s.Seq > 0 && s.Seq <= earlyAdopterLimit }},
	{ID: "streak_starter", Name: "Streak Starter", Description: "3-day contribution streak",
		unlocked: func(s BadgeStats) bool { return s.Streak >= 3 }},
	{ID: "consistent_saver", Name: "Consistent Saver", Description: "7-day contribution streak",
		unlocked: func(s BadgeStats) bool { return s.Streak >= 7 }},
	{ID: "streak_master", Name: "Streak Master", Description: "30-day contribution streak",
		unlocked: func(s BadgeStats) bool { return s.Streak >= 30 }},
	{ID: "milestone_master", Name: "Milestone Master", Description: "10 contributions made",
		unlocked: func(s BadgeStats) bool { return s.Contributions >= 10 }},
	{ID: "goal_crusher", Name: "Goal Crusher", Description: "50 contributions made",
		unlocked: func(s BadgeStats) bool { return s.Contributions >= 50 }},
	{ID: "community_builder", Name: "Community Builder", Description: "Referred 5 friends",
		unlocked: func(s BadgeStats) bool { return s.Referrals >= 5 }},
	{ID: "hub_creator", Name: "Hub Creator", Description: "Created a savings hub",
		unlocked: func(s BadgeStats) bool { return s.HubsCreated >= 1 }},
	{ID: "savings_hero", Name: "Savings Hero", Description: "Saved 1000 cUSD",
		unlocked: func(s BadgeStats) bool { return s.TotalSaved.GreaterThanOrEqual(savingsHeroTarget) }},
	{ID: "active_member", Name: "Active Member", Description: "Active for 30 days",
		unlocked: func(s BadgeStats) bool { return s.DaysActive >= 30 }},
}

// EvaluateBadges returns every badge id unlocked by stats.
func EvaluateBadges(stats BadgeStats) []string {
	var out []string
	for _, b := range Badges {
		if b.unlocked(stats) {
			out = append(out, b.ID)
		}
	}
	return out
}

// MergeBadges unions earned into have, keeping catalogue order. Badges are
// never removed. The second return lists ids that were not held before.
func MergeBadges(have, earned []string) ([]string, []string) {
	held := make(map[string]bool, len(have)+len(earned))
	for _, id := range have {
		held[id] = true
	}
	var added []string
	for _, id := range earned {
		if !held[id] {
			held[id] = true
			added = append(added, id)
		}
	}
	merged := make([]string, 0, len(held))
	known := make(map[string]bool, len(Badges))
	for _, b := range Badges {
		known[b.ID] = true
		if held[b.ID] {
			merged = append(merged, b.ID)
		}
	}
	// keep ids from older catalogues
	for _, id := range have {
		if !known[id] {
			merged = append(merged, id)
		}
	}
	return merged, added
}

// RefreshBadges re-evaluates u and returns newly unlocked ids.
func RefreshBadges(u *User) []string {
	merged, added := MergeBadges(u.Badges, EvaluateBadges(u.BadgeStats()))
	u.Badges = merged
	return added
}
