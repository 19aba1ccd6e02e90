package service

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"stablecircle/internal/domain"
	"stablecircle/internal/logger"
	"stablecircle/internal/repository"

	"github.com/google/uuid"
)

const (
	DefaultMessageLimit = 50
	maxMessageLimit     = 200
	systemSenderName    = "StableCircle"
)

// Broadcaster fans a message out to a hub's connected chat clients.
type Broadcaster interface {
	Broadcast(hubID string, msg *domain.Message)
}

// ChatService persists hub chat and pushes it to live connections.
type ChatService struct {
	store repository.Store
	now   func() time.Time

	mu          sync.RWMutex
	broadcaster Broadcaster
}

var _ Notifier = (*ChatService)(nil)

func NewChatService(store repository.Store) *ChatService {
	return &ChatService{store: store, now: time.Now}
}

// SetBroadcaster wires the websocket hub once it exists.
func (s *ChatService) SetBroadcaster(b Broadcaster) {
	s.mu.Lock()
	s.broadcaster = b
	s.mu.Unlock()
}

func (s *ChatService) publish(msg *domain.Message) {
	s.mu.RLock()
	b := s.broadcaster
	s.mu.RUnlock()
	if b != nil {
		b.Broadcast(msg.HubID, msg)
	}
}

// CanJoin reports whether wallet may read and write the hub's chat.
func (s *ChatService) CanJoin(ctx context.Context, hubID, wallet string) error {
	h, err := s.store.GetHub(ctx, hubID)
	if err != nil {
		return storeErr(err, "hub")
	}
	if !h.IsMember(wallet) {
		return domain.ErrNotMember
	}
	return nil
}

func (s *ChatService) Send(ctx context.Context, hubID, wallet, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n == 0 || n > domain.MaxMessageLength {
		return nil, domain.Invalid("message must be 1-%d characters", domain.MaxMessageLength)
	}
	h, err := s.store.GetHub(ctx, hubID)
	if err != nil {
		return nil, storeErr(err, "hub")
	}
	idx := h.MemberIndex(wallet)
	if idx < 0 {
		return nil, domain.ErrNotMember
	}
	name := h.Members[idx].Name
	if u, err := s.store.GetUser(ctx, wallet); err == nil && u.AnonymousMode {
		name = anonymousName
	}

	msg := &domain.Message{
		ID:         uuid.NewString(),
		HubID:      hubID,
		Sender:     wallet,
		SenderName: name,
		Content:    content,
		Type:       domain.MessageTypeMessage,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	s.publish(msg)
	return msg, nil
}

// SystemMessage posts a ledger event line. Errors are logged only.
func (s *ChatService) SystemMessage(ctx context.Context, hubID, content string) {
	if utf8.RuneCountInString(content) > domain.MaxMessageLength {
		content = string([]rune(content)[:domain.MaxMessageLength])
	}
	msg := &domain.Message{
		ID:         uuid.NewString(),
		HubID:      hubID,
		SenderName: systemSenderName,
		Content:    content,
		Type:       domain.MessageTypeSystem,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		logger.Error("failed to store system message", "hub_id", hubID, "error", err)
		return
	}
	s.publish(msg)
}

// History returns the newest messages first.
func (s *ChatService) History(ctx context.Context, hubID string, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	if limit > maxMessageLimit {
		limit = maxMessageLimit
	}
	if _, err := s.store.GetHub(ctx, hubID); err != nil {
		return nil, storeErr(err, "hub")
	}
	msgs, err := s.store.ListMessages(ctx, hubID, limit)
	if msgs == nil && err == nil {
		msgs = []*domain.Message{}
	}
	return msgs, err
}
