package service

import (
	"testing"

	"stablecircle/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fourMemberHub(round, total int) *domain.Hub {
	h := &domain.Hub{
		ContributionAmount: decimal.NewFromInt(50),
		CurrentRound:       round,
		TotalRounds:        total,
		Status:             domain.HubStatusActive,
	}
	for _, w := range []string{"0xa", "0xb", "0xc", "0xd"} {
		h.Members = append(h.Members, domain.Member{Wallet: w, Position: len(h.Members)})
	}
	return h
}

func TestRecipientUsesModuloPosition(t *testing.T) {
	h := fourMemberHub(6, 8)
	r, ok := Recipient(h)
	require.True(t, ok)
	assert.Equal(t, "0xc", r.Wallet)

	h.CurrentRound = 1
	r, _ = Recipient(h)
	assert.Equal(t, "0xb", r.Wallet)

	_, ok = Recipient(&domain.Hub{CurrentRound: 1})
	assert.False(t, ok)
}

func TestRoundCompleteAndAdvance(t *testing.T) {
	h := fourMemberHub(1, 2)
	fifty := decimal.NewFromInt(50)
	totals := map[string]decimal.Decimal{"0xa": fifty, "0xb": fifty, "0xc": fifty}
	assert.False(t, RoundComplete(h, totals))

	totals["0xd"] = decimal.NewFromInt(60)
	require.True(t, RoundComplete(h, totals))

	out := AdvanceRound(h, totals)
	assert.Equal(t, 1, out.Round)
	assert.Equal(t, "0xb", out.Recipient.Wallet)
	assert.True(t, out.Pot.Equal(decimal.NewFromInt(210)))
	assert.False(t, out.Completed)
	assert.Equal(t, 2, h.CurrentRound)
	assert.True(t, h.Members[1].PayoutReceived)
	assert.Equal(t, 1, h.Members[1].PayoutRound)

	out = AdvanceRound(h, totals)
	assert.True(t, out.Completed)
	assert.Equal(t, domain.HubStatusCompleted, h.Status)
	assert.Equal(t, 2, h.CurrentRound, "round stays within [1, totalRounds]")
}
