package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"stablecircle/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

var inviteCodeRe = regexp.MustCompile(`^SC-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

func TestCreateHubModes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := CreateHubParams{Creator: wallet(0), Name: "Rent", ContributionAmount: dec(10), MaxMembers: 4}

	p := base
	p.DurationDays = 30
	h, err := f.hubs.CreateHub(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 30, h.TotalRounds)
	assert.Equal(t, 1, h.CurrentRound)
	assert.Equal(t, domain.HubStatusActive, h.Status)
	assert.Regexp(t, inviteCodeRe, h.InviteCode)
	require.Len(t, h.Members, 1)
	assert.True(t, h.Members[0].IsAdmin)
	assert.Equal(t, 0, h.Members[0].Position)

	p = base
	deadline := f.clock.Now().Add(10*24*time.Hour - time.Hour)
	p.Deadline = &deadline
	h, err = f.hubs.CreateHub(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 10, h.TotalRounds)

	p = base
	goal := decimal.NewFromInt(100)
	p.Goal = &goal
	h, err = f.hubs.CreateHub(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 3, h.TotalRounds) // ceil(100 / (10*4))

	u, err := f.users.GetUser(ctx, wallet(0))
	require.NoError(t, err)
	assert.Equal(t, 3, u.HubsCreated)
}

func TestCreateHubValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	base := CreateHubParams{Creator: wallet(0), Name: "Rent", ContributionAmount: dec(10), MaxMembers: 4, DurationDays: 30}

	cases := map[string]func(p *CreateHubParams){
		"empty name":     func(p *CreateHubParams) { p.Name = "  " },
		"zero amount":    func(p *CreateHubParams) { p.ContributionAmount = decimal.Zero },
		"too many":       func(p *CreateHubParams) { p.MaxMembers = 21 },
		"no members":     func(p *CreateHubParams) { p.MaxMembers = 0 },
		"short duration": func(p *CreateHubParams) { p.DurationDays = 3 },
		"no mode":        func(p *CreateHubParams) { p.DurationDays = 0 },
		"bad wallet":     func(p *CreateHubParams) { p.Creator = "not-a-wallet" },
		"negative goal":  func(p *CreateHubParams) { g := dec(-5); p.Goal = &g },
		"past deadline":  func(p *CreateHubParams) { d := f.clock.Now().Add(-time.Hour); p.DurationDays, p.Deadline = 0, &d },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := base
			mutate(&p)
			_, err := f.hubs.CreateHub(ctx, p)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestJoinHub(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, err := f.hubs.CreateHub(ctx, CreateHubParams{
		Creator: wallet(0), Name: "Rent", ContributionAmount: dec(10), MaxMembers: 3, DurationDays: 30,
	})
	require.NoError(t, err)

	h, err = f.hubs.JoinHub(ctx, h.InviteCode, wallet(1), "Bo")
	require.NoError(t, err)
	h, err = f.hubs.JoinHub(ctx, h.InviteCode, wallet(2), "Cy")
	require.NoError(t, err)
	require.Len(t, h.Members, 3)
	for i, m := range h.Members {
		assert.Equal(t, i, m.Position)
		assert.Equal(t, i == 0, m.IsAdmin)
	}

	_, err = f.hubs.JoinHub(ctx, h.InviteCode, wallet(3), "Di")
	assert.ErrorIs(t, err, domain.ErrHubFull)

	_, err = f.hubs.JoinHub(ctx, h.InviteCode, wallet(1), "Bo")
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)

	_, err = f.hubs.JoinHub(ctx, "SC-0000-0000", wallet(4), "Ed")
	assert.ErrorIs(t, err, domain.ErrInvalidInviteCode)

	// codes are matched exactly
	_, err = f.hubs.GetHubByInviteCode(ctx, strings.ToLower(h.InviteCode))
	assert.ErrorIs(t, err, domain.ErrInvalidInviteCode)

	hubs, err := f.hubs.GetUserHubs(ctx, wallet(2))
	require.NoError(t, err)
	require.Len(t, hubs, 1)
	assert.Equal(t, h.ID, hubs[0].ID)
}

func TestConcurrentJoinsRespectCapacity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, err := f.hubs.CreateHub(ctx, CreateHubParams{
		Creator: wallet(0), Name: "Rent", ContributionAmount: dec(10), MaxMembers: 5, DurationDays: 30,
	})
	require.NoError(t, err)

	var joined, full atomic.Int32
	var g errgroup.Group
	for i := 1; i <= 20; i++ {
		w := wallet(i)
		g.Go(func() error {
			_, err := f.hubs.JoinHub(ctx, h.InviteCode, w, "")
			switch {
			case err == nil:
				joined.Add(1)
			case assert.ErrorIs(t, err, domain.ErrHubFull):
				full.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.EqualValues(t, 4, joined.Load())
	assert.EqualValues(t, 16, full.Load())
	got, err := f.hubs.GetHub(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 5)
}

func TestInviteCodesUnique(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		h, err := f.hubs.CreateHub(ctx, CreateHubParams{
			Creator: wallet(i % 3), Name: fmt.Sprintf("Hub %d", i), ContributionAmount: dec(10), MaxMembers: 2, DurationDays: 7,
		})
		require.NoError(t, err)
		assert.False(t, seen[h.InviteCode], h.InviteCode)
		seen[h.InviteCode] = true
	}
}

func TestRotationView(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.goalHub(t, 3, 3)

	v, err := f.hubs.Rotation(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, v.CurrentRound)
	require.NotNil(t, v.Recipient)
	assert.Equal(t, wallet(1), v.Recipient.Wallet)
	assert.False(t, v.Complete)
	assert.Len(t, v.RoundTotals, 3)

	f.contribute(t, h.ID, 0, 10)
	v, err = f.hubs.Rotation(ctx, h.ID)
	require.NoError(t, err)
	assert.True(t, v.RoundTotals[wallet(0)].Equal(dec(10)))
	assert.True(t, v.RoundTotals[wallet(2)].IsZero())

	_, err = f.hubs.Rotation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
