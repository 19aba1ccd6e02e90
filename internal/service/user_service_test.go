package service

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"stablecircle/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterOrGetUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	upper := "0x" + strings.ToUpper(wallet(0)[2:])
	u, err := f.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: upper, Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, wallet(0), u.Wallet)
	assert.Equal(t, "Ada", u.Name)
	assert.Regexp(t, regexp.MustCompile(`^REF-[A-Z0-9]{5}$`), u.ReferralCode)
	assert.EqualValues(t, 1, u.Seq)
	assert.Contains(t, u.Badges, "early_adopter")

	again, err := f.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: wallet(0), Name: "Other"})
	require.NoError(t, err)
	assert.Equal(t, u.ReferralCode, again.ReferralCode)
	assert.Equal(t, "Ada", again.Name)

	_, err = f.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: "bogus"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: wallet(1), Name: strings.Repeat("x", 51)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.users.GetUser(ctx, wallet(9))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReferralRewardedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	referrer, err := f.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: wallet(0)})
	require.NoError(t, err)

	referee, err := f.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: wallet(1), ReferralCode: strings.ToLower(referrer.ReferralCode)})
	require.NoError(t, err)
	assert.Equal(t, referrer.ReferralCode, referee.ReferredBy)

	// registering again with the code is a lookup, not a second reward
	_, err = f.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: wallet(1), ReferralCode: referrer.ReferralCode})
	require.NoError(t, err)

	got, err := f.users.GetUser(ctx, wallet(0))
	require.NoError(t, err)
	assert.Equal(t, 1, got.Referrals)
	assert.True(t, got.TotalEarned.Equal(dec(5)))

	unknown, err := f.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: wallet(2), ReferralCode: "REF-ZZZZZ"})
	require.NoError(t, err)
	assert.Empty(t, unknown.ReferredBy)

	sum, err := f.users.ReferralSummary(ctx, wallet(0))
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Referrals)
	require.Len(t, sum.Referred, 1)
	assert.Equal(t, wallet(1), sum.Referred[0].Referee)

	rewards, err := f.store.ListAuditLogs(ctx, domain.AuditActionReferralRewarded, 10)
	require.NoError(t, err)
	assert.Len(t, rewards, 1)
}

func TestSetAnonymous(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: wallet(0), Name: "Ada"})
	require.NoError(t, err)

	u, err := f.users.SetAnonymous(ctx, wallet(0), true)
	require.NoError(t, err)
	assert.True(t, u.AnonymousMode)
	assert.Equal(t, "Ada", u.Name)
}
