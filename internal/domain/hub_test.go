package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubAddMember(t *testing.T) {
	now := time.Now()
	h := &Hub{Creator: "0xa", MaxMembers: 2, Status: HubStatusActive}
	require.NoError(t, h.AddMember("0xa", "A", now))
	assert.True(t, h.Members[0].IsAdmin)

	assert.ErrorIs(t, h.AddMember("0xa", "A", now), ErrAlreadyMember)
	require.NoError(t, h.AddMember("0xb", "B", now))
	assert.Equal(t, 1, h.Members[1].Position)
	assert.ErrorIs(t, h.AddMember("0xc", "C", now), ErrHubFull)

	h.Status = HubStatusCompleted
	assert.ErrorIs(t, h.AddMember("0xd", "D", now), ErrHubNotActive)
}

func TestHubCloneIsDeep(t *testing.T) {
	h := &Hub{Members: []Member{{Wallet: "0xa"}}}
	c := h.Clone()
	c.Members[0].PayoutReceived = true
	c.Members = append(c.Members, Member{Wallet: "0xb"})
	assert.False(t, h.Members[0].PayoutReceived)
	assert.Len(t, h.Members, 1)
}

func TestNormalizeWallet(t *testing.T) {
	w, err := NormalizeWallet(" 0xAbC0000000000000000000000000000000000001 ")
	require.NoError(t, err)
	assert.Equal(t, "0xabc0000000000000000000000000000000000001", w)

	_, err = NormalizeWallet("not-a-wallet")
	assert.ErrorIs(t, err, ErrValidation)
}
