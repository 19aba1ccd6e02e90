package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stablecircle/internal/celo"
	"stablecircle/internal/config"
	"stablecircle/internal/domain"
	"stablecircle/internal/logger"
	"stablecircle/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TokenTransfer moves stablecoin into a hub pool and returns an opaque ref.
type TokenTransfer interface {
	Transfer(ctx context.Context, req celo.TransferRequest) (string, error)
}

// LedgerService records contributions and drives the round and streak
// engines off them.
type LedgerService struct {
	store    repository.Store
	users    *UserService
	transfer TokenTransfer
	cfg      config.LedgerConfig
	streak   StreakPolicy
	audit    *AuditService
	notify   Notifier
	stats    StatsInvalidator
	retries  int
	backoff  time.Duration
	now      func() time.Time
	inflight idLocks
}

// idLocks serializes Contribute calls that share a client id, so a retry
// racing the original waits and replays instead of transferring twice.
type idLocks struct {
	mu   sync.Mutex
	held map[string]*idLock
}

type idLock struct {
	mu   sync.Mutex
	refs int
}

func (l *idLocks) lock(id string) (unlock func()) {
	l.mu.Lock()
	if l.held == nil {
		l.held = make(map[string]*idLock)
	}
	e := l.held[id]
	if e == nil {
		e = &idLock{}
		l.held[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.held, id)
		}
		l.mu.Unlock()
	}
}

func NewLedgerService(store repository.Store, users *UserService, transfer TokenTransfer, cfg config.LedgerConfig,
	retries int, audit *AuditService, notify Notifier, stats StatsInvalidator) *LedgerService {
	if notify == nil {
		notify = nopNotifier{}
	}
	return &LedgerService{
		store:    store,
		users:    users,
		transfer: transfer,
		cfg:      cfg,
		streak:   NewStreakPolicy(cfg),
		audit:    audit,
		notify:   notify,
		stats:    stats,
		retries:  retries,
		backoff:  100 * time.Millisecond,
		now:      time.Now,
	}
}

// UnrecordedPaymentError is returned when the transfer went through but no
// ledger entry could be written. The payment is listed in the audit log.
type UnrecordedPaymentError struct {
	TransactionRef string
	Err            error
}

func (e *UnrecordedPaymentError) Error() string {
	return fmt.Sprintf("payment %s not recorded: %v", e.TransactionRef, e.Err)
}

func (e *UnrecordedPaymentError) Unwrap() error { return e.Err }

type ContributeRequest struct {
	// ID makes a retried request idempotent. Generated when empty.
	ID     string
	HubID  string
	Wallet string
	Amount decimal.Decimal
	// Round defaults to the hub's current round.
	Round int
}

// Contribute validates, transfers and records a contribution. A failed
// transfer records nothing. A transfer that succeeds but cannot be recorded
// is retried and, failing that, written to the audit log for compensation.
func (s *LedgerService) Contribute(ctx context.Context, req ContributeRequest) (res *domain.ContributionResult, err error) {
	defer func() { ContributionsTotal.WithLabelValues(resultLabel(err)).Inc() }()

	wallet, err := domain.NormalizeWallet(req.Wallet)
	if err != nil {
		return nil, err
	}
	if err := s.checkAmount(req.Amount); err != nil {
		return nil, err
	}

	if req.ID != "" {
		defer s.inflight.lock(req.ID)()
		if prior, err := s.store.GetContribution(ctx, req.ID); err == nil {
			if prior.Wallet != wallet || prior.HubID != req.HubID {
				return nil, domain.Invalid("contribution id %s already used", req.ID)
			}
			return s.replayResult(ctx, prior)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}

	hub, err := s.store.GetHub(ctx, req.HubID)
	if err != nil {
		return nil, storeErr(err, "hub")
	}
	if hub.Status != domain.HubStatusActive {
		return nil, domain.ErrHubNotActive
	}
	if !hub.IsMember(wallet) {
		return nil, domain.ErrNotMember
	}
	if req.Round != 0 && (req.Round < 1 || req.Round > hub.TotalRounds) {
		return nil, domain.Invalid("round must be between 1 and %d", hub.TotalRounds)
	}
	if _, err := s.users.RegisterOrGetUser(ctx, RegisterParams{Wallet: wallet}); err != nil {
		return nil, err
	}

	ref, err := s.transfer.Transfer(ctx, celo.TransferRequest{From: wallet, HubID: hub.ID, Amount: req.Amount})
	if err != nil {
		logger.WithContext(ctx).Warn("token transfer failed", "wallet", wallet, "hub_id", hub.ID, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrTransfer, err)
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	c := &domain.Contribution{
		ID:             id,
		Wallet:         wallet,
		HubID:          hub.ID,
		Amount:         req.Amount,
		Round:          req.Round,
		TransactionRef: ref,
		CreatedAt:      s.now().UTC(),
	}

	res, err = s.recordWithRetry(ctx, c)
	if err == nil && res.Replayed && res.Contribution.TransactionRef != ref {
		// the id was recorded elsewhere (another replica) while this transfer ran
		res, err = nil, fmt.Errorf("%w: contribution %s already recorded with transaction %s",
			domain.ErrStorageConflict, id, res.Contribution.TransactionRef)
	}
	if err != nil {
		UnrecordedPaymentsTotal.Inc()
		logger.WithContext(ctx).Error("payment transferred but not recorded",
			"wallet", wallet, "hub_id", hub.ID, "amount", c.Amount.String(), "transaction_ref", ref, "error", err)
		s.audit.LogUnrecordedPayment(ctx, c, err)
		return nil, &UnrecordedPaymentError{TransactionRef: ref, Err: err}
	}
	s.afterCommit(ctx, res)
	return res, nil
}

func (s *LedgerService) checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.Invalid("amount must be positive")
	}
	if amount.LessThan(s.cfg.MinContribution) {
		return domain.Invalid("amount must be at least %s", s.cfg.MinContribution)
	}
	return nil
}

func (s *LedgerService) recordWithRetry(ctx context.Context, c *domain.Contribution) (*domain.ContributionResult, error) {
	var (
		res *domain.ContributionResult
		err error
	)
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			logger.Warn("retrying contribution write", "contribution_id", c.ID, "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return nil, errors.Join(err, ctx.Err())
			case <-time.After(time.Duration(attempt) * s.backoff):
			}
		}
		res, err = s.record(ctx, c, true)
		if err == nil || permanent(err) {
			return res, err
		}
	}
	return nil, err
}

// permanent errors are business rejections that a retry cannot fix.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrHubNotActive) ||
		errors.Is(err, domain.ErrNotMember) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, repository.ErrNotFound)
}

// record writes c through the store. With live set the hub must be active and
// a completed round advances the rotation; imports skip both.
func (s *LedgerService) record(ctx context.Context, c *domain.Contribution, live bool) (*domain.ContributionResult, error) {
	var res *domain.ContributionResult
	tx, replayed, err := s.store.RecordContribution(ctx, c, func(tx *repository.LedgerTx) error {
		res = &domain.ContributionResult{}
		return s.apply(tx, res, live)
	})
	if errors.Is(err, repository.ErrNotFound) {
		if _, herr := s.store.GetHub(ctx, c.HubID); errors.Is(herr, repository.ErrNotFound) {
			return nil, notFound("hub")
		}
		return nil, notFound("user")
	}
	if err != nil {
		return nil, storeErr(err, "contribution")
	}
	if replayed {
		return &domain.ContributionResult{Contribution: tx.Contribution, Hub: tx.Hub, User: tx.User, Replayed: true}, nil
	}
	res.Contribution, res.Hub, res.User = tx.Contribution, tx.Hub, tx.User
	return res, nil
}

func (s *LedgerService) apply(tx *repository.LedgerTx, res *domain.ContributionResult, live bool) error {
	h, u, c := tx.Hub, tx.User, tx.Contribution
	if live && h.Status != domain.HubStatusActive {
		return domain.ErrHubNotActive
	}
	if !h.IsMember(u.Wallet) {
		return domain.ErrNotMember
	}
	if c.Round == 0 {
		c.Round = h.CurrentRound
	}
	if c.Round < 1 || c.Round > h.TotalRounds {
		return domain.Invalid("round must be between 1 and %d", h.TotalRounds)
	}

	u.TotalContributed = u.TotalContributed.Add(c.Amount)
	u.TotalSaved = u.TotalSaved.Add(c.Amount)
	u.Contributions++
	u.Touch(c.CreatedAt)
	h.TotalSaved = h.TotalSaved.Add(c.Amount)

	step := s.streak.Advance(streakOf(u), c.CreatedAt)
	applyStreak(u, step.State)
	c.IsStreak = step.Extended
	if step.Bonus.IsPositive() {
		u.TotalEarned = u.TotalEarned.Add(step.Bonus)
		res.StreakBonus = step.Bonus
	}
	res.NewBadges = domain.RefreshBadges(u)

	if !live || c.Round != h.CurrentRound {
		return nil
	}
	totals, err := tx.RoundTotals(c.Round)
	if err != nil {
		return err
	}
	totals[u.Wallet] = totals[u.Wallet].Add(c.Amount)
	if RoundComplete(h, totals) {
		res.RoundClosed = AdvanceRound(h, totals)
	}
	return nil
}

func (s *LedgerService) replayResult(ctx context.Context, c *domain.Contribution) (*domain.ContributionResult, error) {
	hub, err := s.store.GetHub(ctx, c.HubID)
	if err != nil {
		return nil, storeErr(err, "hub")
	}
	user, err := s.store.GetUser(ctx, c.Wallet)
	if err != nil {
		return nil, storeErr(err, "user")
	}
	return &domain.ContributionResult{Contribution: c, Hub: hub, User: user, Replayed: true}, nil
}

func (s *LedgerService) afterCommit(ctx context.Context, res *domain.ContributionResult) {
	if res.Replayed {
		return
	}
	c := res.Contribution
	amount, _ := c.Amount.Float64()
	ContributedAmount.Add(amount)
	logger.Info("contribution recorded",
		"contribution_id", c.ID, "wallet", c.Wallet, "hub_id", c.HubID,
		"amount", c.Amount.String(), "round", c.Round, "streak", res.User.Streak)
	s.audit.LogContribution(ctx, c)

	s.notify.SystemMessage(ctx, c.HubID, fmt.Sprintf("%s contributed %s cUSD to round %d", memberName(res.Hub, c.Wallet), c.Amount, c.Round))
	if res.StreakBonus.IsPositive() {
		StreakBonusesTotal.Inc()
		s.audit.LogReward(ctx, c.Wallet, domain.AuditActionStreakBonus, res.StreakBonus, map[string]interface{}{
			"streak": res.User.Streak,
		})
	}
	if out := res.RoundClosed; out != nil {
		RoundsCompletedTotal.Inc()
		s.audit.LogRound(ctx, c.HubID, out)
		s.notify.SystemMessage(ctx, c.HubID, fmt.Sprintf("Round %d complete: %s receives the %s cUSD pot", out.Round, out.Recipient.Name, out.Pot))
		if out.Completed {
			s.notify.SystemMessage(ctx, c.HubID, "All rounds are complete. This hub is now closed.")
		}
	}
	if s.stats != nil {
		s.stats.Invalidate(ctx)
	}
}

func memberName(h *domain.Hub, wallet string) string {
	if i := h.MemberIndex(wallet); i >= 0 {
		return h.Members[i].Name
	}
	return domain.ShortWallet(wallet)
}

func (s *LedgerService) GetContributionsByHub(ctx context.Context, hubID string) ([]*domain.Contribution, error) {
	if _, err := s.store.GetHub(ctx, hubID); err != nil {
		return nil, storeErr(err, "hub")
	}
	out, err := s.store.ListContributionsByHub(ctx, hubID)
	if out == nil && err == nil {
		out = []*domain.Contribution{}
	}
	return out, err
}

func (s *LedgerService) GetContributionsByUser(ctx context.Context, wallet string) ([]*domain.Contribution, error) {
	w, err := domain.NormalizeWallet(wallet)
	if err != nil {
		return nil, err
	}
	out, err := s.store.ListContributionsByUser(ctx, w)
	if out == nil && err == nil {
		out = []*domain.Contribution{}
	}
	return out, err
}

// ImportContribution appends a historical entry without a transfer. The hub's
// round counter and status are left as imported.
func (s *LedgerService) ImportContribution(ctx context.Context, c *domain.Contribution) (*domain.ContributionResult, error) {
	if !c.Amount.IsPositive() {
		return nil, domain.Invalid("amount must be positive")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	res, err := s.record(ctx, c, false)
	if err != nil {
		return nil, err
	}
	if !res.Replayed && s.stats != nil {
		s.stats.Invalidate(ctx)
	}
	return res, nil
}
