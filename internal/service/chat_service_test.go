package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"stablecircle/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []*domain.Message
}

func (b *recordingBroadcaster) Broadcast(_ string, msg *domain.Message) {
	b.mu.Lock()
	b.msgs = append(b.msgs, msg)
	b.mu.Unlock()
}

func TestChatSend(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.goalHub(t, 2, 2)
	b := &recordingBroadcaster{}
	f.chat.SetBroadcaster(b)

	msg, err := f.chat.Send(ctx, h.ID, wallet(1), "  hello circle  ")
	require.NoError(t, err)
	assert.Equal(t, "hello circle", msg.Content)
	assert.Equal(t, domain.MessageTypeMessage, msg.Type)
	assert.Equal(t, "Member 1", msg.SenderName)
	require.Len(t, b.msgs, 1)
	assert.Equal(t, msg.ID, b.msgs[0].ID)

	_, err = f.chat.Send(ctx, h.ID, wallet(1), "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.chat.Send(ctx, h.ID, wallet(1), strings.Repeat("é", domain.MaxMessageLength+1))
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = f.chat.Send(ctx, h.ID, wallet(1), strings.Repeat("é", domain.MaxMessageLength))
	assert.NoError(t, err)
	_, err = f.chat.Send(ctx, h.ID, wallet(5), "hi")
	assert.ErrorIs(t, err, domain.ErrNotMember)
	_, err = f.chat.Send(ctx, "missing", wallet(1), "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.NoError(t, f.chat.CanJoin(ctx, h.ID, wallet(0)))
	assert.ErrorIs(t, f.chat.CanJoin(ctx, h.ID, wallet(5)), domain.ErrNotMember)
}

func TestChatAnonymousSender(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.goalHub(t, 2, 2)
	_, err := f.users.SetAnonymous(ctx, wallet(1), true)
	require.NoError(t, err)

	msg, err := f.chat.Send(ctx, h.ID, wallet(1), "hi")
	require.NoError(t, err)
	assert.Equal(t, anonymousName, msg.SenderName)
}

func TestChatHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h := f.goalHub(t, 2, 2)

	// hub creation and the join already posted two system lines
	msgs, err := f.chat.History(ctx, h.ID, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.MessageTypeSystem, msgs[0].Type)
	assert.Contains(t, msgs[0].Content, "joined")

	for i := 0; i < 60; i++ {
		_, err := f.chat.Send(ctx, h.ID, wallet(0), "msg")
		require.NoError(t, err)
	}
	msgs, err = f.chat.History(ctx, h.ID, 0)
	require.NoError(t, err)
	assert.Len(t, msgs, DefaultMessageLimit)
	msgs, err = f.chat.History(ctx, h.ID, 5)
	require.NoError(t, err)
	assert.Len(t, msgs, 5)

	_, err = f.chat.History(ctx, "missing", 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
