package repository

import (
	"context"
	"errors"

	"stablecircle/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type ContributionRepository struct {
	db *pgxpool.Pool
}

func NewContributionRepository(db *pgxpool.Pool) *ContributionRepository {
	return &ContributionRepository{db: db}
}

const contributionColumns = `id, wallet, hub_id, amount, round, COALESCE(transaction_ref, ''), is_streak, created_at`

func scanContribution(row pgx.Row) (*domain.Contribution, error) {
	var c domain.Contribution
	if err := row.Scan(&c.ID, &c.Wallet, &c.HubID, &c.Amount, &c.Round, &c.TransactionRef, &c.IsStreak, &c.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// RecordContribution locks hub then user (always in that order) so concurrent
// contributions to the same hub, or from the same wallet, serialize.
func (r *ContributionRepository) RecordContribution(ctx context.Context, c *domain.Contribution, apply func(tx *LedgerTx) error) (*LedgerTx, bool, error) {
	var (
		out      *LedgerTx
		replayed bool
	)
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		existing, err := scanContribution(tx.QueryRow(ctx,
			`SELECT `+contributionColumns+` FROM contributions WHERE id = $1`, c.ID))
		if err == nil {
			hub, err := getHub(ctx, tx, `id = $1`, existing.HubID)
			if err != nil {
				return err
			}
			user, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet = $1`, existing.Wallet))
			if err != nil {
				return err
			}
			out = &LedgerTx{Hub: hub, User: user, Contribution: existing}
			replayed = true
			return nil
		}
		if !errors.Is(err, ErrNotFound) {
			return err
		}

		hub, err := getHub(ctx, tx, `id = $1 FOR UPDATE`, c.HubID)
		if err != nil {
			return err
		}
		user, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet = $1 FOR UPDATE`, c.Wallet))
		if err != nil {
			return err
		}

		pending := *c
		ltx := &LedgerTx{
			Hub:          hub.Clone(),
			User:         user,
			Contribution: &pending,
			RoundTotals: func(round int) (map[string]decimal.Decimal, error) {
				return roundTotals(ctx, tx, c.HubID, round)
			},
		}
		if err := apply(ltx); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO contributions (id, wallet, hub_id, amount, round, transaction_ref, is_streak, created_at)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8)`,
			pending.ID, pending.Wallet, pending.HubID, pending.Amount, pending.Round,
			pending.TransactionRef, pending.IsStreak, pending.CreatedAt,
		)
		if err != nil {
			return mapErr(err)
		}
		if err := writeHub(ctx, tx, hub, ltx.Hub); err != nil {
			return err
		}
		ltx.User.Wallet = user.Wallet
		if err := writeUser(ctx, tx, ltx.User); err != nil {
			return err
		}
		ltx.RoundTotals = nil
		out = ltx
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, replayed, nil
}

func roundTotals(ctx context.Context, q querier, hubID string, round int) (map[string]decimal.Decimal, error) {
	rows, err := q.Query(ctx,
		`SELECT wallet, SUM(amount) FROM contributions
		 WHERE hub_id = $1 AND round = $2
		 GROUP BY wallet`, hubID, round)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			wallet string
			sum    decimal.Decimal
		)
		if err := rows.Scan(&wallet, &sum); err != nil {
			return nil, err
		}
		totals[wallet] = sum
	}
	return totals, rows.Err()
}

func (r *ContributionRepository) GetContribution(ctx context.Context, id string) (*domain.Contribution, error) {
	return scanContribution(r.db.QueryRow(ctx, `SELECT `+contributionColumns+` FROM contributions WHERE id = $1`, id))
}

func (r *ContributionRepository) ListContributionsByHub(ctx context.Context, hubID string) ([]*domain.Contribution, error) {
	return r.list(ctx, `SELECT `+contributionColumns+` FROM contributions WHERE hub_id = $1 ORDER BY created_at, id`, hubID)
}

func (r *ContributionRepository) ListContributionsByUser(ctx context.Context, wallet string) ([]*domain.Contribution, error) {
	return r.list(ctx, `SELECT `+contributionColumns+` FROM contributions WHERE wallet = $1 ORDER BY created_at, id`, wallet)
}

func (r *ContributionRepository) list(ctx context.Context, sql string, args ...any) ([]*domain.Contribution, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Contribution
	for rows.Next() {
		c, err := scanContribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *ContributionRepository) ContributionTotals(ctx context.Context) (*LedgerTotals, error) {
	rows, err := r.db.Query(ctx,
		`SELECT wallet, hub_id, SUM(amount), COUNT(*) FROM contributions GROUP BY wallet, hub_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	t := &LedgerTotals{
		ByUser:      make(map[string]decimal.Decimal),
		CountByUser: make(map[string]int),
		ByHub:       make(map[string]decimal.Decimal),
	}
	for rows.Next() {
		var (
			wallet, hubID string
			sum           decimal.Decimal
			n             int
		)
		if err := rows.Scan(&wallet, &hubID, &sum, &n); err != nil {
			return nil, err
		}
		t.ByUser[wallet] = t.ByUser[wallet].Add(sum)
		t.CountByUser[wallet] += n
		t.ByHub[hubID] = t.ByHub[hubID].Add(sum)
	}
	return t, rows.Err()
}
