package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeaderboardOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.goalHub(t, 3, 10)

	f.contribute(t, h.ID, 2, 40)
	f.contribute(t, h.ID, 1, 20)
	f.contribute(t, h.ID, 0, 10)

	ref, err := f.users.GetUser(ctx, wallet(1))
	require.NoError(t, err)
	for i := 3; i < 5; i++ {
		_, err := f.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: wallet(i), ReferralCode: ref.ReferralCode})
		require.NoError(t, err)
	}
	_, err = f.users.SetAnonymous(ctx, wallet(2), true)
	require.NoError(t, err)

	lb, err := f.board.GetLeaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, lb.TopContributors, 5)
	assert.Equal(t, wallet(2), lb.TopContributors[0].User.Wallet)
	assert.Equal(t, anonymousName, lb.TopContributors[0].User.Name)
	assert.Equal(t, 1, lb.TopContributors[0].Rank)
	assert.Equal(t, wallet(1), lb.TopContributors[1].User.Wallet)
	assert.Equal(t, wallet(0), lb.TopContributors[2].User.Wallet)

	assert.Equal(t, wallet(1), lb.TopReferrers[0].User.Wallet)
	assert.Equal(t, 2, lb.TopReferrers[0].User.Referrals)
	// ties keep registration order
	assert.Equal(t, wallet(0), lb.TopReferrers[1].User.Wallet)

	lb, err = f.board.GetLeaderboard(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, lb.TopContributors, 2)
	assert.Len(t, lb.TopReferrers, 2)

	// stored names are untouched
	u, err := f.users.GetUser(ctx, wallet(2))
	require.NoError(t, err)
	assert.Equal(t, "Member 2", u.Name)
}

func TestGlobalStatsCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.goalHub(t, 2, 5)

	st, err := f.board.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalUsers)
	assert.Equal(t, 1, st.TotalHubs)
	assert.True(t, st.TotalSaved.IsZero())

	cached, err := f.board.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.Same(t, st, cached)

	f.contribute(t, h.ID, 0, 10)
	st, err = f.board.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.True(t, st.TotalSaved.Equal(dec(10)))
	assert.Equal(t, 1, st.CommunityStreak)
}

func TestCommunityStreakIgnoresLapsedStreaks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.goalHub(t, 2, 5)

	for i := 0; i < 3; i++ {
		f.contribute(t, h.ID, 0, 10)
		f.clock.Advance(24 * time.Hour)
	}
	st, err := f.board.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.CommunityStreak)

	f.clock.Advance(5 * 24 * time.Hour)
	f.cache.Invalidate(ctx)
	st, err = f.board.GetGlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.CommunityStreak)

	u, err := f.store.GetUser(ctx, wallet(0))
	require.NoError(t, err)
	assert.Equal(t, 3, u.Streak)
}
