package service

import (
	"context"
	"errors"
	"time"

	"stablecircle/internal/domain"
	"stablecircle/internal/logger"

	"github.com/shopspring/decimal"
)

// errChanged aborts a repair when the row moved since it was inspected.
var errChanged = errors.New("record changed during reconcile")

type ReconcileReport struct {
	UsersChecked int `json:"users_checked"`
	UsersFixed   int `json:"users_fixed"`
	HubsChecked  int `json:"hubs_checked"`
	HubsFixed    int `json:"hubs_fixed"`
	Skipped      int `json:"skipped"`
}

// Reconcile rebuilds cached totals from the contribution log, which is the
// source of truth. Rows that change while being repaired are skipped and
// picked up on the next run.
func (s *LedgerService) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	rep := &ReconcileReport{}
	totals, err := s.store.ContributionTotals(ctx)
	if err != nil {
		return nil, err
	}

	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		rep.UsersChecked++
		want := totals.ByUser[u.Wallet]
		if u.TotalContributed.Equal(want) && u.TotalSaved.Equal(want) && u.Contributions == totals.CountByUser[u.Wallet] {
			continue
		}
		fixed, err := s.repairUser(ctx, u)
		switch {
		case errors.Is(err, errChanged):
			rep.Skipped++
		case err != nil:
			return rep, err
		case fixed:
			rep.UsersFixed++
		}
	}

	hubs, err := s.store.ListHubs(ctx)
	if err != nil {
		return rep, err
	}
	for _, h := range hubs {
		rep.HubsChecked++
		if h.TotalSaved.Equal(totals.ByHub[h.ID]) {
			continue
		}
		fixed, err := s.repairHub(ctx, h)
		switch {
		case errors.Is(err, errChanged):
			rep.Skipped++
		case err != nil:
			return rep, err
		case fixed:
			rep.HubsFixed++
		}
	}

	if rep.UsersFixed+rep.HubsFixed > 0 {
		logger.Warn("ledger drift repaired", "users_fixed", rep.UsersFixed, "hubs_fixed", rep.HubsFixed)
		s.audit.Log(ctx, "", "", domain.AuditActionReconciled, domain.AuditCategoryLedger, map[string]interface{}{
			"users_fixed": rep.UsersFixed,
			"hubs_fixed":  rep.HubsFixed,
			"skipped":     rep.Skipped,
		})
		if s.stats != nil {
			s.stats.Invalidate(ctx)
		}
	}
	return rep, nil
}

func (s *LedgerService) repairUser(ctx context.Context, seen *domain.User) (bool, error) {
	entries, err := s.store.ListContributionsByUser(ctx, seen.Wallet)
	if err != nil {
		return false, err
	}
	sum := decimal.Zero
	times := make([]time.Time, 0, len(entries))
	for _, c := range entries {
		sum = sum.Add(c.Amount)
		times = append(times, c.CreatedAt)
	}
	replayed := s.streak.Replay(times)

	fixed := false
	_, err = s.store.UpdateUser(ctx, seen.Wallet, func(u *domain.User) error {
		if !u.TotalContributed.Equal(seen.TotalContributed) || u.Contributions != seen.Contributions {
			return errChanged
		}
		if u.TotalContributed.Equal(sum) && u.TotalSaved.Equal(sum) && u.Contributions == len(entries) {
			return nil
		}
		logger.Warn("user totals drifted from ledger",
			"wallet", u.Wallet, "cached", u.TotalContributed.String(), "ledger", sum.String(),
			"cached_count", u.Contributions, "ledger_count", len(entries))
		u.TotalContributed = sum
		u.TotalSaved = sum
		u.Contributions = len(entries)
		u.Streak = replayed.Length
		u.StreakAnchor = replayed.Anchor
		// the bonus marker only ever moves forward
		u.StreakBonusGranted = u.StreakBonusGranted || replayed.BonusGranted
		domain.RefreshBadges(u)
		fixed = true
		return nil
	})
	return fixed, err
}

func (s *LedgerService) repairHub(ctx context.Context, seen *domain.Hub) (bool, error) {
	entries, err := s.store.ListContributionsByHub(ctx, seen.ID)
	if err != nil {
		return false, err
	}
	sum := decimal.Zero
	for _, c := range entries {
		sum = sum.Add(c.Amount)
	}
	fixed := false
	_, err = s.store.UpdateHub(ctx, seen.ID, func(h *domain.Hub) error {
		if !h.TotalSaved.Equal(seen.TotalSaved) {
			return errChanged
		}
		if h.TotalSaved.Equal(sum) {
			return nil
		}
		logger.Warn("hub total drifted from ledger", "hub_id", h.ID, "cached", h.TotalSaved.String(), "ledger", sum.String())
		h.TotalSaved = sum
		fixed = true
		return nil
	})
	return fixed, err
}
