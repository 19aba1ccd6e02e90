// Package memory is an in-process implementation of repository.Store used by
// tests and by dev runs without DATABASE_URL. A single mutex serializes every
// mutation, so each call is atomic.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"stablecircle/internal/domain"
	"stablecircle/internal/repository"

	"github.com/shopspring/decimal"
)

var _ repository.Store = (*Store)(nil)

type Store struct {
	mu sync.RWMutex

	seq           int64
	users         map[string]*domain.User
	referralCodes map[string]string // code -> wallet

	hubs        map[string]*domain.Hub
	hubOrder    []string
	inviteCodes map[string]string // code -> hub id

	contributions []*domain.Contribution
	contribByID   map[string]*domain.Contribution
	txRefs        map[string]string

	referrals map[string]*domain.Referral // referee -> referral
	messages  map[string][]*domain.Message
	audit     []*domain.AuditLog
}

func New() *Store {
	return &Store{
		users:         make(map[string]*domain.User),
		referralCodes: make(map[string]string),
		hubs:          make(map[string]*domain.Hub),
		inviteCodes:   make(map[string]string),
		contribByID:   make(map[string]*domain.Contribution),
		txRefs:        make(map[string]string),
		referrals:     make(map[string]*domain.Referral),
		messages:      make(map[string][]*domain.Message),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// Users ----------------------------------------------------------------------

func (s *Store) GetUser(_ context.Context, wallet string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[wallet]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u.Clone(), nil
}

func (s *Store) GetUserByReferralCode(_ context.Context, code string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.referralCodes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.users[w].Clone(), nil
}

func (s *Store) CreateUser(_ context.Context, u *domain.User, ref *domain.Referral) (*domain.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.users[u.Wallet]; ok {
		return existing.Clone(), false, nil
	}
	if _, taken := s.referralCodes[u.ReferralCode]; taken {
		return nil, false, repository.ErrReferralCodeTaken
	}

	var referrer *domain.User
	if ref != nil {
		if _, dup := s.referrals[ref.Referee]; dup {
			ref = nil
		} else if w, ok := s.referralCodes[ref.ReferralCode]; ok {
			referrer = s.users[w].Clone()
		} else {
			ref = nil
		}
	}

	s.seq++
	stored := u.Clone()
	stored.Seq = s.seq
	domain.RefreshBadges(stored)
	if ref == nil {
		stored.ReferredBy = ""
	}
	s.users[stored.Wallet] = stored
	s.referralCodes[stored.ReferralCode] = stored.Wallet

	if ref != nil {
		r := *ref
		s.referrals[r.Referee] = &r
		referrer.Referrals++
		referrer.TotalEarned = referrer.TotalEarned.Add(r.RewardAmount)
		domain.RefreshBadges(referrer)
		s.users[referrer.Wallet] = referrer
	}
	return stored.Clone(), true, nil
}

func (s *Store) UpdateUser(_ context.Context, wallet string, fn func(u *domain.User) error) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.users[wallet]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.Wallet, next.Seq, next.ReferralCode = cur.Wallet, cur.Seq, cur.ReferralCode
	s.users[wallet] = next
	return next.Clone(), nil
}

func (s *Store) ListUsers(context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// Hubs -----------------------------------------------------------------------

func (s *Store) CreateHub(_ context.Context, h *domain.Hub) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.inviteCodes[h.InviteCode]; taken {
		return repository.ErrInviteCodeTaken
	}
	if _, dup := s.hubs[h.ID]; dup {
		return repository.ErrConflict
	}
	s.hubs[h.ID] = h.Clone()
	s.hubOrder = append(s.hubOrder, h.ID)
	s.inviteCodes[h.InviteCode] = h.ID
	return nil
}

func (s *Store) GetHub(_ context.Context, id string) (*domain.Hub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hubs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return h.Clone(), nil
}

func (s *Store) GetHubByInviteCode(_ context.Context, code string) (*domain.Hub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.inviteCodes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s.hubs[id].Clone(), nil
}

func (s *Store) ListHubsByWallet(_ context.Context, wallet string) ([]*domain.Hub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Hub
	for _, id := range s.hubOrder {
		if h := s.hubs[id]; h.Involves(wallet) {
			out = append(out, h.Clone())
		}
	}
	return out, nil
}

func (s *Store) ListHubs(context.Context) ([]*domain.Hub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Hub, 0, len(s.hubOrder))
	for _, id := range s.hubOrder {
		out = append(out, s.hubs[id].Clone())
	}
	return out, nil
}

func (s *Store) UpdateHub(_ context.Context, id string, fn func(h *domain.Hub) error) (*domain.Hub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.hubs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	next := cur.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := keepMembersAppendOnly(cur, next); err != nil {
		return nil, err
	}
	next.ID, next.InviteCode, next.Creator = cur.ID, cur.InviteCode, cur.Creator
	s.hubs[id] = next
	return next.Clone(), nil
}

func keepMembersAppendOnly(cur, next *domain.Hub) error {
	if len(next.Members) < len(cur.Members) {
		return repository.ErrConflict
	}
	for i, m := range cur.Members {
		if next.Members[i].Wallet != m.Wallet {
			return repository.ErrConflict
		}
	}
	return nil
}

// Contributions --------------------------------------------------------------

func (s *Store) RecordContribution(_ context.Context, c *domain.Contribution, apply func(tx *repository.LedgerTx) error) (*repository.LedgerTx, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.contribByID[c.ID]; ok {
		cc := *existing
		return &repository.LedgerTx{
			Hub:          s.hubs[cc.HubID].Clone(),
			User:         s.users[cc.Wallet].Clone(),
			Contribution: &cc,
		}, true, nil
	}
	hub, ok := s.hubs[c.HubID]
	if !ok {
		return nil, false, repository.ErrNotFound
	}
	user, ok := s.users[c.Wallet]
	if !ok {
		return nil, false, repository.ErrNotFound
	}

	pending := *c
	tx := &repository.LedgerTx{
		Hub:          hub.Clone(),
		User:         user.Clone(),
		Contribution: &pending,
		RoundTotals: func(round int) (map[string]decimal.Decimal, error) {
			return s.roundTotalsLocked(c.HubID, round), nil
		},
	}
	if err := apply(tx); err != nil {
		return nil, false, err
	}
	if pending.TransactionRef != "" {
		if _, dup := s.txRefs[pending.TransactionRef]; dup {
			return nil, false, repository.ErrConflict
		}
	}
	if err := keepMembersAppendOnly(hub, tx.Hub); err != nil {
		return nil, false, err
	}

	stored := pending
	s.contributions = append(s.contributions, &stored)
	s.contribByID[stored.ID] = &stored
	if stored.TransactionRef != "" {
		s.txRefs[stored.TransactionRef] = stored.ID
	}
	s.hubs[hub.ID] = tx.Hub.Clone()
	s.users[user.Wallet] = tx.User.Clone()

	out := stored
	return &repository.LedgerTx{Hub: tx.Hub.Clone(), User: tx.User.Clone(), Contribution: &out}, false, nil
}

func (s *Store) roundTotalsLocked(hubID string, round int) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, c := range s.contributions {
		if c.HubID == hubID && c.Round == round {
			totals[c.Wallet] = totals[c.Wallet].Add(c.Amount)
		}
	}
	return totals
}

func (s *Store) GetContribution(_ context.Context, id string) (*domain.Contribution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contribByID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (s *Store) ListContributionsByHub(_ context.Context, hubID string) ([]*domain.Contribution, error) {
	return s.filterContributions(func(c *domain.Contribution) bool { return c.HubID == hubID }), nil
}

func (s *Store) ListContributionsByUser(_ context.Context, wallet string) ([]*domain.Contribution, error) {
	return s.filterContributions(func(c *domain.Contribution) bool { return c.Wallet == wallet }), nil
}

func (s *Store) filterContributions(keep func(*domain.Contribution) bool) []*domain.Contribution {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Contribution
	for _, c := range s.contributions {
		if keep(c) {
			cc := *c
			out = append(out, &cc)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Store) ContributionTotals(context.Context) (*repository.LedgerTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := &repository.LedgerTotals{
		ByUser:      make(map[string]decimal.Decimal),
		CountByUser: make(map[string]int),
		ByHub:       make(map[string]decimal.Decimal),
	}
	for _, c := range s.contributions {
		t.ByUser[c.Wallet] = t.ByUser[c.Wallet].Add(c.Amount)
		t.CountByUser[c.Wallet]++
		t.ByHub[c.HubID] = t.ByHub[c.HubID].Add(c.Amount)
	}
	return t, nil
}

// Referrals ------------------------------------------------------------------

func (s *Store) GetReferralByReferee(_ context.Context, wallet string) (*domain.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.referrals[wallet]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rr := *r
	return &rr, nil
}

func (s *Store) ListReferralsByReferrer(_ context.Context, wallet string) ([]*domain.Referral, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Referral
	for _, r := range s.referrals {
		if r.Referrer == wallet {
			rr := *r
			out = append(out, &rr)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Messages -------------------------------------------------------------------

func (s *Store) CreateMessage(_ context.Context, m *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mm := *m
	s.messages[m.HubID] = append(s.messages[m.HubID], &mm)
	return nil
}

func (s *Store) ListMessages(_ context.Context, hubID string, limit int) ([]*domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.messages[hubID]
	out := make([]*domain.Message, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		mm := *all[i]
		out = append(out, &mm)
	}
	return out, nil
}

// Audit ----------------------------------------------------------------------

func (s *Store) CreateAuditLog(_ context.Context, l *domain.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ll := *l
	if ll.CreatedAt.IsZero() {
		ll.CreatedAt = time.Now().UTC()
	}
	s.audit = append(s.audit, &ll)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, action string, limit int) ([]*domain.AuditLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.AuditLog
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		if action == "" || s.audit[i].Action == action {
			ll := *s.audit[i]
			out = append(out, &ll)
		}
	}
	return out, nil
}

// Stats ----------------------------------------------------------------------

func (s *Store) GlobalStats(context.Context) (*domain.GlobalStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := &domain.GlobalStats{
		TotalHubs:   len(s.hubs),
		TotalUsers:  len(s.users),
		LastUpdated: time.Now().UTC(),
	}
	for _, h := range s.hubs {
		st.TotalSaved = st.TotalSaved.Add(h.TotalSaved)
	}
	for _, u := range s.users {
		if u.Streak > st.CommunityStreak {
			st.CommunityStreak = u.Streak
		}
	}
	return st, nil
}
