package service

import (
	"context"
	"sort"
	"time"

	"stablecircle/internal/config"
	"stablecircle/internal/domain"
	"stablecircle/internal/logger"
	"stablecircle/internal/repository"
)

const (
	DefaultLeaderboardLimit = 50
	maxLeaderboardLimit     = 200
	anonymousName           = "Anonymous saver"
)

// StatsCache holds the last computed GlobalStats.
type StatsCache interface {
	Get(ctx context.Context) (*domain.GlobalStats, bool)
	Set(ctx context.Context, st *domain.GlobalStats)
	StatsInvalidator
}

// LeaderboardService is the read-only aggregation layer.
type LeaderboardService struct {
	store  repository.Store
	cache  StatsCache
	streak StreakPolicy
	now    func() time.Time
}

func NewLeaderboardService(store repository.Store, cfg config.LedgerConfig, cache StatsCache) *LeaderboardService {
	return &LeaderboardService{store: store, cache: cache, streak: NewStreakPolicy(cfg), now: time.Now}
}

// GetLeaderboard ranks all users twice: by totalContributed and by referrals,
// both descending. Ties keep registration order.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, limit int) (*domain.Leaderboard, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		limit = maxLeaderboardLimit
	}
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i, u := range users {
		if u.AnonymousMode {
			masked := u.Clone()
			masked.Name = anonymousName
			users[i] = masked
		}
	}

	byContribution := append([]*domain.User(nil), users...)
	sort.SliceStable(byContribution, func(i, j int) bool {
		return byContribution[i].TotalContributed.GreaterThan(byContribution[j].TotalContributed)
	})
	byReferrals := append([]*domain.User(nil), users...)
	sort.SliceStable(byReferrals, func(i, j int) bool {
		return byReferrals[i].Referrals > byReferrals[j].Referrals
	})

	return &domain.Leaderboard{
		TopReferrers:    rank(byReferrals, limit),
		TopContributors: rank(byContribution, limit),
	}, nil
}

func rank(users []*domain.User, limit int) []domain.LeaderboardEntry {
	if len(users) > limit {
		users = users[:limit]
	}
	out := make([]domain.LeaderboardEntry, 0, len(users))
	for i, u := range users {
		out = append(out, domain.LeaderboardEntry{Rank: i + 1, User: u})
	}
	return out
}

// GetGlobalStats recomputes by full scan unless a cached copy is fresh.
// Every mutating service call invalidates the cache.
func (s *LeaderboardService) GetGlobalStats(ctx context.Context) (*domain.GlobalStats, error) {
	if s.cache != nil {
		if st, ok := s.cache.Get(ctx); ok {
			return st, nil
		}
	}
	st, err := s.store.GlobalStats(ctx)
	if err != nil {
		return nil, err
	}
	if st.CommunityStreak, err = s.communityStreak(ctx); err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, st)
	}
	logger.Debug("global stats recomputed", "users", st.TotalUsers, "hubs", st.TotalHubs)
	return st, nil
}

// communityStreak is the longest streak still alive; lapsed streaks count as
// StreakPolicy.Current reports them.
func (s *LeaderboardService) communityStreak(ctx context.Context) (int, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	best := 0
	for _, u := range users {
		if n := s.streak.Current(streakOf(u), now); n > best {
			best = n
		}
	}
	return best, nil
}
