package service

import (
	"context"
	"errors"
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

const maxNameLength = 50

// UserService is the identity ledger and the referral half of the reward engine.
type UserService struct {
	store repository.Store
	cfg   config.LedgerConfig
	audit *AuditService
	stats StatsInvalidator
	now   func() time.Time
}

func NewUserService(store repository.Store, cfg config.LedgerConfig, audit *AuditService, stats StatsInvalidator) *UserService {
	return &UserService{store: store, cfg: cfg, audit: audit, stats: stats, now: time.Now}
}

type RegisterParams struct {
	Wallet       string
	Name         string
	ReferralCode string
}

// RegisterOrGetUser returns the user for a wallet, creating it on first
// contact. A referral code is honoured only when the user is created; an
// unknown code is ignored and never blocks registration.
func (s *UserService) RegisterOrGetUser(ctx context.Context, p RegisterParams) (*domain.User, error) {
	wallet, err := domain.NormalizeWallet(p.Wallet)
	if err != nil {
		return nil, err
	}
	if u, err := s.store.GetUser(ctx, wallet); err == nil {
		return u, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	name, err := cleanName(p.Name, domain.ShortWallet(wallet))
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		Wallet:       wallet,
		Name:         name,
		CreatedAt:    now,
		LastActivity: &now,
	}

	ref := s.resolveReferral(ctx, wallet, p.ReferralCode, now)
	if ref != nil {
		u.ReferredBy = ref.ReferralCode
	}

	var (
		stored  *domain.User
		created bool
	)
	for attempt := 0; attempt < codeAttempts; attempt++ {
		u.ReferralCode = GenerateReferralCode()
		stored, err = retryConflict(func() (*domain.User, error) {
			su, c, err := s.store.CreateUser(ctx, u, ref)
			created = c
			return su, err
		})
		if !errors.Is(err, repository.ErrReferralCodeTaken) {
			break
		}
		logger.Warn("referral code collision, regenerating", "wallet", wallet, "attempt", attempt+1)
	}
	if err != nil {
		return nil, storeErr(err, "user")
	}
	if !created {
		return stored, nil
	}

	logger.Info("user registered", "wallet", wallet, "referred_by", stored.ReferredBy)
	s.audit.Log(ctx, wallet, "", domain.AuditActionUserRegistered, domain.AuditCategoryAuth, nil)
	if stored.ReferredBy != "" && ref != nil {
		ReferralsTotal.Inc()
		s.audit.LogReward(ctx, ref.Referrer, domain.AuditActionReferralRewarded, ref.RewardAmount, map[string]interface{}{
			"referee":       wallet,
			"referral_code": ref.ReferralCode,
		})
	}
	s.invalidate(ctx)
	return stored, nil
}

func (s *UserService) resolveReferral(ctx context.Context, wallet, code string, at time.Time) *domain.Referral {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	referrer, err := s.store.GetUserByReferralCode(ctx, code)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Warn("referral lookup failed", "code", code, "error", err)
		} else {
			logger.Debug("referral code did not resolve", "code", code, "wallet", wallet)
		}
		return nil
	}
	if referrer.Wallet == wallet {
		return nil
	}
	return &domain.Referral{
		ID:           uuid.NewString(),
		Referrer:     referrer.Wallet,
		Referee:      wallet,
		ReferralCode: code,
		RewardAmount: s.cfg.ReferralReward,
		Status:       domain.ReferralCompleted,
		CreatedAt:    at,
	}
}

func (s *UserService) GetUser(ctx context.Context, wallet string) (*domain.User, error) {
	w, err := domain.NormalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, w)
	return u, storeErr(err, "user")
}

// Touch records activity for wallet and re-evaluates time-based badges.
func (s *UserService) Touch(ctx context.Context, wallet string) (*domain.User, error) {
	now := s.now().UTC()
	u, err := s.store.UpdateUser(ctx, wallet, func(u *domain.User) error {
		u.Touch(now)
		domain.RefreshBadges(u)
		return nil
	})
	return u, storeErr(err, "user")
}

// SetAnonymous toggles whether the user's name is hidden on public boards.
func (s *UserService) SetAnonymous(ctx context.Context, wallet string, anonymous bool) (*domain.User, error) {
	u, err := s.store.UpdateUser(ctx, wallet, func(u *domain.User) error {
		u.AnonymousMode = anonymous
		return nil
	})
	return u, storeErr(err, "user")
}

type ReferralSummary struct {
	Code        string             `json:"referral_code"`
	Referrals   int                `json:"referrals"`
	TotalEarned decimal.Decimal    `json:"total_earned"`
	Reward      decimal.Decimal    `json:"reward_per_referral"`
	Referred    []*domain.Referral `json:"referred"`
}

func (s *UserService) ReferralSummary(ctx context.Context, wallet string) (*ReferralSummary, error) {
	u, err := s.GetUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	refs, err := s.store.ListReferralsByReferrer(ctx, u.Wallet)
	if err != nil {
		return nil, err
	}
	return &ReferralSummary{
		Code:        u.ReferralCode,
		Referrals:   u.Referrals,
		TotalEarned: u.TotalEarned,
		Reward:      s.cfg.ReferralReward,
		Referred:    refs,
	}, nil
}

func (s *UserService) invalidate(ctx context.Context) {
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

func cleanName(name, fallback string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback, nil
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", domain.Invalid("name must be at most %d characters", maxNameLength)
	}
	return name, nil
}
