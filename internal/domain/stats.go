package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type GlobalStats struct {
	TotalSaved      decimal.Decimal `json:"total_saved"`
	TotalHubs       int             `json:"total_hubs"`
	TotalUsers      int             `json:"total_users"`
	CommunityStreak int             `json:"community_streak"`
	LastUpdated     time.Time       `json:"last_updated"`
}

type LeaderboardEntry struct {
	Rank int   `json:"rank"`
	User *User `json:"user"`
}

type Leaderboard struct {
	TopReferrers    []LeaderboardEntry `json:"top_referrers"`
	TopContributors []LeaderboardEntry `json:"top_contributors"`
}
