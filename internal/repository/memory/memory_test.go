package memory

import (
	"context"
	"testing"
	"time"

	"stablecircle/internal/domain"
	"stablecircle/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	alice = "0x00000000000000000000000000000000000000a1"
	bob   = "0x00000000000000000000000000000000000000b2"
)

func seedHub(t *testing.T, s *Store) *domain.Hub {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	for i, w := range []string{alice, bob} {
		_, created, err := s.CreateUser(ctx, &domain.User{Wallet: w, ReferralCode: []string{"REF-AAAAA", "REF-BBBBB"}[i], CreatedAt: now}, nil)
		require.NoError(t, err)
		require.True(t, created)
	}
	h := &domain.Hub{
		ID: "hub-1", Name: "Rent", ContributionAmount: decimal.NewFromInt(10), MaxMembers: 2,
		Creator: alice, InviteCode: "SC-AAAA-BBBB", Status: domain.HubStatusActive,
		CurrentRound: 1, TotalRounds: 2, CreatedAt: now,
	}
	require.NoError(t, h.AddMember(alice, "Alice", now))
	require.NoError(t, h.AddMember(bob, "Bob", now))
	require.NoError(t, s.CreateHub(ctx, h))
	return h
}

func TestCreateUserAppliesReferralOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, _, err := s.CreateUser(ctx, &domain.User{Wallet: alice, ReferralCode: "REF-AAAAA"}, nil)
	require.NoError(t, err)

	ref := &domain.Referral{ID: "r1", Referrer: alice, Referee: bob, ReferralCode: "REF-AAAAA", RewardAmount: decimal.NewFromInt(5)}
	u, created, err := s.CreateUser(ctx, &domain.User{Wallet: bob, ReferralCode: "REF-BBBBB", ReferredBy: "REF-AAAAA"}, ref)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(2), u.Seq)
	assert.Equal(t, "REF-AAAAA", u.ReferredBy)

	// existing wallet: no second reward
	_, created, err = s.CreateUser(ctx, &domain.User{Wallet: bob, ReferralCode: "REF-CCCCC"}, ref)
	require.NoError(t, err)
	assert.False(t, created)

	a, err := s.GetUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Referrals)
	assert.True(t, a.TotalEarned.Equal(decimal.NewFromInt(5)))

	got, err := s.GetReferralByReferee(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, alice, got.Referrer)

	_, _, err = s.CreateUser(ctx, &domain.User{Wallet: "0x00000000000000000000000000000000000000c3", ReferralCode: "REF-AAAAA"}, nil)
	assert.ErrorIs(t, err, repository.ErrReferralCodeTaken)
}

func TestUpdateHubKeepsMembersAppendOnly(t *testing.T) {
	s := New()
	ctx := context.Background()
	h := seedHub(t, s)

	_, err := s.UpdateHub(ctx, h.ID, func(h *domain.Hub) error {
		h.Members = h.Members[1:]
		return nil
	})
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = s.UpdateHub(ctx, h.ID, func(h *domain.Hub) error {
		h.InviteCode = "SC-ZZZZ-ZZZZ"
		h.Name = "Renamed"
		return nil
	})
	require.NoError(t, err)
	got, err := s.GetHubByInviteCode(ctx, "SC-AAAA-BBBB")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)

	assert.ErrorIs(t, s.CreateHub(ctx, &domain.Hub{ID: "hub-2", InviteCode: "SC-AAAA-BBBB"}), repository.ErrInviteCodeTaken)
}

func TestRecordContribution(t *testing.T) {
	s := New()
	ctx := context.Background()
	h := seedHub(t, s)

	apply := func(tx *repository.LedgerTx) error {
		totals, err := tx.RoundTotals(1)
		if err != nil {
			return err
		}
		tx.Hub.TotalSaved = tx.Hub.TotalSaved.Add(tx.Contribution.Amount)
		tx.User.TotalContributed = tx.User.TotalContributed.Add(tx.Contribution.Amount)
		tx.User.Contributions = len(totals) + 1
		return nil
	}
	c := &domain.Contribution{ID: "c1", Wallet: alice, HubID: h.ID, Amount: decimal.NewFromInt(10), Round: 1, TransactionRef: "0xabc"}
	tx, replayed, err := s.RecordContribution(ctx, c, apply)
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.True(t, tx.Hub.TotalSaved.Equal(decimal.NewFromInt(10)))

	tx, replayed, err = s.RecordContribution(ctx, c, apply)
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.True(t, tx.User.TotalContributed.Equal(decimal.NewFromInt(10)))

	dupRef := &domain.Contribution{ID: "c2", Wallet: bob, HubID: h.ID, Amount: decimal.NewFromInt(10), Round: 1, TransactionRef: "0xabc"}
	_, _, err = s.RecordContribution(ctx, dupRef, apply)
	assert.ErrorIs(t, err, repository.ErrConflict)

	// a rejected apply leaves nothing behind
	_, _, err = s.RecordContribution(ctx, &domain.Contribution{ID: "c3", Wallet: bob, HubID: h.ID, Amount: decimal.NewFromInt(10)},
		func(*repository.LedgerTx) error { return domain.ErrNotMember })
	assert.ErrorIs(t, err, domain.ErrNotMember)

	list, err := s.ListContributionsByHub(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	b, err := s.GetUser(ctx, bob)
	require.NoError(t, err)
	assert.True(t, b.TotalContributed.IsZero())

	totals, err := s.ContributionTotals(ctx)
	require.NoError(t, err)
	assert.True(t, totals.ByUser[alice].Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 1, totals.CountByUser[alice])
	assert.True(t, totals.ByHub[h.ID].Equal(decimal.NewFromInt(10)))

	st, err := s.GlobalStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalUsers)
	assert.True(t, st.TotalSaved.Equal(decimal.NewFromInt(10)))
}

func TestListMessagesNewestFirst(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, s.CreateMessage(ctx, &domain.Message{ID: id, HubID: "hub-1"}))
	}
	msgs, err := s.ListMessages(ctx, "hub-1", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "m3", msgs[0].ID)
	assert.Equal(t, "m2", msgs[1].ID)
}
