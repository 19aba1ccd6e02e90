package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEvaluateBadges(t *testing.T) {
	tests := []struct {
		name  string
		stats BadgeStats
		want  []string
	}{
		{"nothing", BadgeStats{Seq: 500}, nil},
		{"early adopter", BadgeStats{Seq: 100}, []string{"early_adopter"}},
		{"streak tiers", BadgeStats{Seq: 101, Streak: 7}, []string{"streak_starter", "consistent_saver"}},
		{"contribution counts", BadgeStats{Seq: 101, Contributions: 50}, []string{"milestone_master", "goal_crusher"}},
		{"saver", BadgeStats{Seq: 101, TotalSaved: decimal.NewFromInt(1000)}, []string{"savings_hero"}},
		{"social", BadgeStats{Seq: 101, Referrals: 5, HubsCreated: 1, DaysActive: 30},
			[]string{"community_builder", "hub_creator", "active_member"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EvaluateBadges(tt.stats))
		})
	}
}

func TestMergeBadgesIsAdditive(t *testing.T) {
	merged, added := MergeBadges([]string{"hub_creator", "retired_badge"}, []string{"streak_starter", "hub_creator"})
	assert.Equal(t, []string{"streak_starter", "hub_creator", "retired_badge"}, merged)
	assert.Equal(t, []string{"streak_starter"}, added)

	// a streak reset does not revoke anything
	u := &User{Seq: 200, Streak: 1, Badges: merged}
	assert.Empty(t, RefreshBadges(u))
	assert.Contains(t, u.Badges, "streak_starter")
}
