package repository

import (
	"context"
	"errors"

	"stablecircle/internal/domain"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrInviteCodeTaken   = errors.New("invite code already in use")
	ErrReferralCodeTaken = errors.New("referral code already in use")
	// ErrConflict is a lost race on a locked row (serialization failure or deadlock).
	ErrConflict = errors.New("concurrent update conflict")
)

type UserStore interface {
	GetUser(ctx context.Context, wallet string) (*domain.User, error)
	GetUserByReferralCode(ctx context.Context, code string) (*domain.User, error)
	// CreateUser inserts u. When ref is non-nil the referral row and the
	// referrer's counters are written in the same unit. If the wallet already
	// exists the stored user is returned with created=false and ref is ignored.
	CreateUser(ctx context.Context, u *domain.User, ref *domain.Referral) (stored *domain.User, created bool, err error)
	// UpdateUser applies fn to the current record under a per-user lock.
	UpdateUser(ctx context.Context, wallet string, fn func(u *domain.User) error) (*domain.User, error)
	// ListUsers returns every user in registration order.
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

type HubStore interface {
	CreateHub(ctx context.Context, h *domain.Hub) error
	GetHub(ctx context.Context, id string) (*domain.Hub, error)
	GetHubByInviteCode(ctx context.Context, code string) (*domain.Hub, error)
	ListHubsByWallet(ctx context.Context, wallet string) ([]*domain.Hub, error)
	ListHubs(ctx context.Context) ([]*domain.Hub, error)
	// UpdateHub applies fn under a per-hub lock. Members may only be appended.
	UpdateHub(ctx context.Context, id string, fn func(h *domain.Hub) error) (*domain.Hub, error)
}

// LedgerTx is the locked view handed to a contribution's apply function.
// Hub and User are copies; mutations are persisted only if apply returns nil.
type LedgerTx struct {
	Hub          *domain.Hub
	User         *domain.User
	Contribution *domain.Contribution
	// RoundTotals returns per-wallet sums already recorded for round,
	// excluding the pending contribution.
	RoundTotals func(round int) (map[string]decimal.Decimal, error)
}

type ContributionStore interface {
	// RecordContribution locks the hub and the contributor, runs apply and
	// persists the contribution with the mutated hub and user in one unit.
	// If c.ID already exists nothing is written and replayed is true.
	RecordContribution(ctx context.Context, c *domain.Contribution, apply func(tx *LedgerTx) error) (res *LedgerTx, replayed bool, err error)
	GetContribution(ctx context.Context, id string) (*domain.Contribution, error)
	// Listings are in chronological order.
	ListContributionsByHub(ctx context.Context, hubID string) ([]*domain.Contribution, error)
	ListContributionsByUser(ctx context.Context, wallet string) ([]*domain.Contribution, error)
	ContributionTotals(ctx context.Context) (*LedgerTotals, error)
}

// LedgerTotals are sums recomputed from the append-only contribution log.
type LedgerTotals struct {
	ByUser      map[string]decimal.Decimal
	CountByUser map[string]int
	ByHub       map[string]decimal.Decimal
}

type ReferralStore interface {
	GetReferralByReferee(ctx context.Context, wallet string) (*domain.Referral, error)
	ListReferralsByReferrer(ctx context.Context, wallet string) ([]*domain.Referral, error)
}

type MessageStore interface {
	CreateMessage(ctx context.Context, m *domain.Message) error
	// ListMessages returns the newest messages first.
	ListMessages(ctx context.Context, hubID string, limit int) ([]*domain.Message, error)
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, l *domain.AuditLog) error
	ListAuditLogs(ctx context.Context, action string, limit int) ([]*domain.AuditLog, error)
}

type StatsStore interface {
	// GlobalStats aggregates over all users and hubs.
	GlobalStats(ctx context.Context) (*domain.GlobalStats, error)
}

// Store is everything the services need from persistence.
type Store interface {
	UserStore
	HubStore
	ContributionStore
	ReferralStore
	MessageStore
	AuditStore
	StatsStore
	Ping(ctx context.Context) error
}
