package repository

import (
	"context"
	"errors"

	"stablecircle/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `wallet, seq, name, referral_code, COALESCE(referred_by, ''), referrals,
	total_earned, total_contributed, total_saved, contributions, hubs_created,
	streak, streak_anchor, streak_bonus_granted, badges, anonymous_mode, created_at, last_activity`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(
		&u.Wallet,
		&u.Seq,
		&u.Name,
		&u.ReferralCode,
		&u.ReferredBy,
		&u.Referrals,
		&u.TotalEarned,
		&u.TotalContributed,
		&u.TotalSaved,
		&u.Contributions,
		&u.HubsCreated,
		&u.Streak,
		&u.StreakAnchor,
		&u.StreakBonusGranted,
		&u.Badges,
		&u.AnonymousMode,
		&u.CreatedAt,
		&u.LastActivity,
	); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (r *UserRepository) GetUser(ctx context.Context, wallet string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet = $1`, wallet))
}

func (r *UserRepository) GetUserByReferralCode(ctx context.Context, code string) (*domain.User, error) {
	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code))
}

func (r *UserRepository) CreateUser(ctx context.Context, u *domain.User, ref *domain.Referral) (*domain.User, bool, error) {
	var stored *domain.User
	created := true

	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		var referrer *domain.User
		if ref != nil {
			var err error
			referrer, err = scanUser(tx.QueryRow(ctx,
				`SELECT `+userColumns+` FROM users WHERE referral_code = $1 FOR UPDATE`, ref.ReferralCode))
			if errors.Is(err, ErrNotFound) {
				ref = nil
			} else if err != nil {
				return err
			}
		}
		referredBy := ""
		if ref != nil {
			referredBy = u.ReferredBy
		}

		var seq int64
		err := tx.QueryRow(ctx,
			`INSERT INTO users (wallet, name, referral_code, referred_by, badges, anonymous_mode, created_at, last_activity)
			 VALUES ($1, $2, $3, NULLIF($4, ''), '{}', $5, $6, $7)
			 ON CONFLICT (wallet) DO NOTHING
			 RETURNING seq`,
			u.Wallet, u.Name, u.ReferralCode, referredBy, u.AnonymousMode, u.CreatedAt, u.LastActivity,
		).Scan(&seq)
		if errors.Is(err, pgx.ErrNoRows) {
			created = false
			stored, err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet = $1`, u.Wallet))
			return err
		}
		if err != nil {
			return mapErr(err)
		}

		stored = u.Clone()
		stored.Seq = seq
		stored.ReferredBy = referredBy
		domain.RefreshBadges(stored)
		if err := writeUser(ctx, tx, stored); err != nil {
			return err
		}

		if ref == nil {
			return nil
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO referrals (id, referrer, referee, referral_code, reward_amount, status, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (referee) DO NOTHING`,
			ref.ID, referrer.Wallet, stored.Wallet, ref.ReferralCode, ref.RewardAmount, ref.Status, ref.CreatedAt,
		)
		if err != nil {
			return mapErr(err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		referrer.Referrals++
		referrer.TotalEarned = referrer.TotalEarned.Add(ref.RewardAmount)
		domain.RefreshBadges(referrer)
		return writeUser(ctx, tx, referrer)
	})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (r *UserRepository) UpdateUser(ctx context.Context, wallet string, fn func(u *domain.User) error) (*domain.User, error) {
	var out *domain.User
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE wallet = $1 FOR UPDATE`, wallet))
		if err != nil {
			return err
		}
		if err := fn(u); err != nil {
			return err
		}
		u.Wallet = wallet
		if err := writeUser(ctx, tx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// writeUser persists every mutable column. Identity columns are never rewritten.
func writeUser(ctx context.Context, q querier, u *domain.User) error {
	badges := u.Badges
	if badges == nil {
		badges = []string{}
	}
	_, err := q.Exec(ctx,
		`UPDATE users SET
			name = $2,
			referred_by = NULLIF($3, ''),
			referrals = $4,
			total_earned = $5,
			total_contributed = $6,
			total_saved = $7,
			contributions = $8,
			hubs_created = $9,
			streak = $10,
			streak_anchor = $11,
			streak_bonus_granted = $12,
			badges = $13,
			anonymous_mode = $14,
			last_activity = $15
		 WHERE wallet = $1`,
		u.Wallet, u.Name, u.ReferredBy, u.Referrals,
		u.TotalEarned, u.TotalContributed, u.TotalSaved,
		u.Contributions, u.HubsCreated,
		u.Streak, u.StreakAnchor, u.StreakBonusGranted,
		badges, u.AnonymousMode, u.LastActivity,
	)
	return mapErr(err)
}
