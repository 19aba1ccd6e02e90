package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"stablecircle/internal/config"
	"stablecircle/internal/domain"
	"stablecircle/internal/logger"
	"stablecircle/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	maxHubNameLength        = 100
	maxHubDescriptionLength = 500
)

// HubService is the hub registry.
type HubService struct {
	store  repository.Store
	users  *UserService
	cfg    config.LedgerConfig
	audit  *AuditService
	notify Notifier
	stats  StatsInvalidator
	now    func() time.Time
}

func NewHubService(store repository.Store, users *UserService, cfg config.LedgerConfig, audit *AuditService, notify Notifier, stats StatsInvalidator) *HubService {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &HubService{store: store, users: users, cfg: cfg, audit: audit, notify: notify, stats: stats, now: time.Now}
}

type CreateHubParams struct {
	Creator            string
	CreatorName        string
	Name               string
	Description        string
	Goal               *decimal.Decimal
	Deadline           *time.Time
	DurationDays       int
	ContributionAmount decimal.Decimal
	MaxMembers         int
}

func (s *HubService) CreateHub(ctx context.Context, p CreateHubParams) (*domain.Hub, error) {
	creator, err := s.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: p.Creator, Name: p.CreatorName})
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	h, err := s.newHub(p, creator, now)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		h.InviteCode = GenerateInviteCode()
		err = s.store.CreateHub(ctx, h)
		if !errors.Is(err, repository.ErrInviteCodeTaken) {
			break
		}
		if attempt+1 >= codeAttempts {
			return nil, fmt.Errorf("%w: could not allocate a unique invite code", domain.ErrStorageConflict)
		}
		logger.Warn("invite code collision, regenerating", "attempt", attempt+1)
	}
	if err != nil {
		return nil, storeErr(err, "hub")
	}

	if _, err := s.store.UpdateUser(ctx, creator.Wallet, func(u *domain.User) error {
		u.HubsCreated++
		u.Touch(now)
		domain.RefreshBadges(u)
		return nil
	}); err != nil {
		logger.Error("failed to update creator counters", "wallet", creator.Wallet, "hub_id", h.ID, "error", err)
	}

	logger.Info("hub created", "hub_id", h.ID, "creator", creator.Wallet, "total_rounds", h.TotalRounds)
	s.audit.Log(ctx, creator.Wallet, h.ID, domain.AuditActionHubCreated, domain.AuditCategoryHub, map[string]interface{}{
		"invite_code":         h.InviteCode,
		"contribution_amount": h.ContributionAmount.String(),
		"max_members":         h.MaxMembers,
		"total_rounds":        h.TotalRounds,
	})
	s.notify.SystemMessage(ctx, h.ID, fmt.Sprintf("%s created %s", h.Members[0].Name, h.Name))
	s.invalidate(ctx)
	return h, nil
}

func (s *HubService) newHub(p CreateHubParams, creator *domain.User, now time.Time) (*domain.Hub, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" || utf8.RuneCountInString(name) > maxHubNameLength {
		return nil, domain.Invalid("name must be 1-%d characters", maxHubNameLength)
	}
	desc := strings.TrimSpace(p.Description)
	if utf8.RuneCountInString(desc) > maxHubDescriptionLength {
		return nil, domain.Invalid("description must be at most %d characters", maxHubDescriptionLength)
	}
	if !p.ContributionAmount.IsPositive() {
		return nil, domain.Invalid("contribution amount must be positive")
	}
	if p.MaxMembers < 1 {
		return nil, domain.Invalid("max members must be at least 1")
	}
	if p.MaxMembers > s.cfg.MaxGroupSize {
		return nil, domain.Invalid("max members must be at most %d", s.cfg.MaxGroupSize)
	}
	if p.Goal != nil && !p.Goal.IsPositive() {
		return nil, domain.Invalid("goal must be positive")
	}

	h := &domain.Hub{
		ID:                 uuid.NewString(),
		SchemaVersion:      domain.HubSchemaVersion,
		Name:               name,
		Description:        desc,
		Goal:               p.Goal,
		ContributionAmount: p.ContributionAmount,
		MaxMembers:         p.MaxMembers,
		Creator:            creator.Wallet,
		Status:             domain.HubStatusActive,
		CurrentRound:       1,
		CreatedAt:          now,
	}

	switch {
	case p.DurationDays != 0:
		if err := s.checkDuration(p.DurationDays); err != nil {
			return nil, err
		}
		deadline := now.AddDate(0, 0, p.DurationDays)
		h.DurationDays, h.Deadline, h.TotalRounds = p.DurationDays, &deadline, p.DurationDays
	case p.Deadline != nil:
		if !p.Deadline.After(now) {
			return nil, domain.Invalid("deadline must be in the future")
		}
		days := int(math.Ceil(p.Deadline.Sub(now).Hours() / 24))
		if err := s.checkDuration(days); err != nil {
			return nil, err
		}
		deadline := p.Deadline.UTC()
		h.DurationDays, h.Deadline, h.TotalRounds = days, &deadline, days
	case p.Goal != nil:
		pot := p.ContributionAmount.Mul(decimal.NewFromInt(int64(p.MaxMembers)))
		h.TotalRounds = int(p.Goal.Div(pot).Ceil().IntPart())
		if h.TotalRounds < 1 {
			h.TotalRounds = 1
		}
	default:
		return nil, domain.Invalid("one of duration, deadline or goal is required")
	}

	if err := h.AddMember(creator.Wallet, creator.Name, now); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *HubService) checkDuration(days int) error {
	if days < s.cfg.MinDurationDays || days > s.cfg.MaxDurationDays {
		return domain.Invalid("duration must be between %d and %d days", s.cfg.MinDurationDays, s.cfg.MaxDurationDays)
	}
	return nil
}

func (s *HubService) GetHub(ctx context.Context, id string) (*domain.Hub, error) {
	h, err := s.store.GetHub(ctx, id)
	return h, storeErr(err, "hub")
}

// GetHubByInviteCode matches the code exactly, case included.
func (s *HubService) GetHubByInviteCode(ctx context.Context, code string) (*domain.Hub, error) {
	h, err := s.store.GetHubByInviteCode(ctx, strings.TrimSpace(code))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.ErrInvalidInviteCode
	}
	return h, err
}

// JoinHub appends wallet to the hub behind inviteCode. The capacity and
// duplicate checks run inside the store's per-hub lock.
func (s *HubService) JoinHub(ctx context.Context, inviteCode, wallet, displayName string) (h *domain.Hub, err error) {
	defer func() { HubJoinsTotal.WithLabelValues(resultLabel(err)).Inc() }()

	hub, err := s.GetHubByInviteCode(ctx, inviteCode)
	if err != nil {
		return nil, err
	}
	user, err := s.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: wallet, Name: displayName})
	if err != nil {
		return nil, err
	}
	name, err := cleanName(displayName, user.Name)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	h, err = retryConflict(func() (*domain.Hub, error) {
		return s.store.UpdateHub(ctx, hub.ID, func(h *domain.Hub) error {
			return h.AddMember(user.Wallet, name, now)
		})
	})
	if err != nil {
		return nil, storeErr(err, "hub")
	}

	if _, err := s.users.Touch(ctx, user.Wallet); err != nil {
		logger.Warn("failed to touch user", "wallet", user.Wallet, "error", err)
	}
	logger.Info("hub joined", "hub_id", h.ID, "wallet", user.Wallet, "members", len(h.Members))
	s.audit.Log(ctx, user.Wallet, h.ID, domain.AuditActionHubJoined, domain.AuditCategoryHub, map[string]interface{}{
		"members": len(h.Members),
	})
	s.notify.SystemMessage(ctx, h.ID, fmt.Sprintf("%s joined the hub (%d/%d)", name, len(h.Members), h.MaxMembers))
	return h, nil
}

func (s *HubService) GetUserHubs(ctx context.Context, wallet string) ([]*domain.Hub, error) {
	w, err := domain.NormalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	hubs, err := s.store.ListHubsByWallet(ctx, w)
	if err != nil {
		return nil, err
	}
	if hubs == nil {
		hubs = []*domain.Hub{}
	}
	return hubs, nil
}

// Rotation summarizes the hub's current round.
func (s *HubService) Rotation(ctx context.Context, id string) (*RotationView, error) {
	h, err := s.GetHub(ctx, id)
	if err != nil {
		return nil, err
	}
	contribs, err := s.store.ListContributionsByHub(ctx, id)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]decimal.Decimal, len(h.Members))
	for _, m := range h.Members {
		totals[m.Wallet] = decimal.Zero
	}
	for _, c := range contribs {
		if c.Round == h.CurrentRound {
			totals[c.Wallet] = totals[c.Wallet].Add(c.Amount)
		}
	}
	v := &RotationView{
		HubID:        h.ID,
		Status:       h.Status,
		CurrentRound: h.CurrentRound,
		TotalRounds:  h.TotalRounds,
		RoundTotals:  totals,
		Complete:     h.Status == domain.HubStatusCompleted || RoundComplete(h, totals),
	}
	if h.Status == domain.HubStatusActive {
		if r, ok := Recipient(h); ok {
			v.Recipient = &r
		}
	}
	return v, nil
}

// ImportHub stores a migrated hub as-is. Creator and members are registered
// first so ledger rows can reference them.
func (s *HubService) ImportHub(ctx context.Context, h *domain.Hub) error {
	for _, m := range h.Members {
		if _, err := s.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: m.Wallet, Name: m.Name}); err != nil {
			return fmt.Errorf("register member %s: %w", m.Wallet, err)
		}
	}
	if _, err := s.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: h.Creator}); err != nil {
		return err
	}
	if err := s.store.CreateHub(ctx, h); err != nil {
		if errors.Is(err, repository.ErrInviteCodeTaken) {
			return fmt.Errorf("%w: invite code %s already used", domain.ErrStorageConflict, h.InviteCode)
		}
		return storeErr(err, "hub")
	}
	if _, err := s.store.UpdateUser(ctx, h.Creator, func(u *domain.User) error {
		u.HubsCreated++
		domain.RefreshBadges(u)
		return nil
	}); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *HubService) invalidate(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}
