package repository

import (
	"context"

	"stablecircle/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferralRepository reads referral rows. Rows are written by
// UserRepository.CreateUser in the same transaction as the referee.
type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

const referralColumns = `id, referrer, referee, referral_code, reward_amount, status, created_at`

func scanReferral(row pgx.Row) (*domain.Referral, error) {
	var ref domain.Referral
	if err := row.Scan(&ref.ID, &ref.Referrer, &ref.Referee, &ref.ReferralCode, &ref.RewardAmount, &ref.Status, &ref.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &ref, nil
}

func (r *ReferralRepository) GetReferralByReferee(ctx context.Context, wallet string) (*domain.Referral, error) {
	return scanReferral(r.db.QueryRow(ctx, `SELECT `+referralColumns+` FROM referrals WHERE referee = $1`, wallet))
}

func (r *ReferralRepository) ListReferralsByReferrer(ctx context.Context, wallet string) ([]*domain.Referral, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+referralColumns+` FROM referrals WHERE referrer = $1 ORDER BY created_at DESC`, wallet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var referrals []*domain.Referral
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		referrals = append(referrals, ref)
	}
	return referrals, rows.Err()
}
