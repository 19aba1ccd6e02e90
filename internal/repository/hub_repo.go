package repository

import (
	"context"

	"stablecircle/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type HubRepository struct {
	db *pgxpool.Pool
}

func NewHubRepository(db *pgxpool.Pool) *HubRepository {
	return &HubRepository{db: db}
}

const hubColumns = `id, schema_version, name, description, goal, contribution_amount, duration_days,
	deadline, max_members, creator, invite_code, status, current_round, total_rounds, total_saved, created_at`

func scanHub(row pgx.Row) (*domain.Hub, error) {
	var (
		h    domain.Hub
		goal decimal.NullDecimal
	)
	if err := row.Scan(
		&h.ID,
		&h.SchemaVersion,
		&h.Name,
		&h.Description,
		&goal,
		&h.ContributionAmount,
		&h.DurationDays,
		&h.Deadline,
		&h.MaxMembers,
		&h.Creator,
		&h.InviteCode,
		&h.Status,
		&h.CurrentRound,
		&h.TotalRounds,
		&h.TotalSaved,
		&h.CreatedAt,
	); err != nil {
		return nil, mapErr(err)
	}
	if goal.Valid {
		h.Goal = &goal.Decimal
	}
	return &h, nil
}

func loadMembers(ctx context.Context, q querier, h *domain.Hub) error {
	rows, err := q.Query(ctx,
		`SELECT wallet, name, position, is_admin, joined_at, payout_received, payout_round
		 FROM hub_members WHERE hub_id = $1 ORDER BY position`, h.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	h.Members = h.Members[:0]
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.Wallet, &m.Name, &m.Position, &m.IsAdmin, &m.JoinedAt, &m.PayoutReceived, &m.PayoutRound); err != nil {
			return err
		}
		h.Members = append(h.Members, m)
	}
	return rows.Err()
}

func getHub(ctx context.Context, q querier, where string, arg any) (*domain.Hub, error) {
	h, err := scanHub(q.QueryRow(ctx, `SELECT `+hubColumns+` FROM hubs WHERE `+where, arg))
	if err != nil {
		return nil, err
	}
	if err := loadMembers(ctx, q, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (r *HubRepository) CreateHub(ctx context.Context, h *domain.Hub) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO hubs (id, schema_version, name, description, goal, contribution_amount, duration_days,
				deadline, max_members, creator, invite_code, status, current_round, total_rounds, total_saved, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			h.ID, h.SchemaVersion, h.Name, h.Description, h.Goal, h.ContributionAmount, h.DurationDays,
			h.Deadline, h.MaxMembers, h.Creator, h.InviteCode, h.Status, h.CurrentRound, h.TotalRounds,
			h.TotalSaved, h.CreatedAt,
		)
		if err != nil {
			return mapErr(err)
		}
		for _, m := range h.Members {
			if err := insertMember(ctx, tx, h.ID, m); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertMember(ctx context.Context, q querier, hubID string, m domain.Member) error {
	_, err := q.Exec(ctx,
		`INSERT INTO hub_members (hub_id, wallet, name, position, is_admin, joined_at, payout_received, payout_round)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		hubID, m.Wallet, m.Name, m.Position, m.IsAdmin, m.JoinedAt, m.PayoutReceived, m.PayoutRound,
	)
	return mapErr(err)
}

func (r *HubRepository) GetHub(ctx context.Context, id string) (*domain.Hub, error) {
	return getHub(ctx, r.db, `id = $1`, id)
}

func (r *HubRepository) GetHubByInviteCode(ctx context.Context, code string) (*domain.Hub, error) {
	return getHub(ctx, r.db, `invite_code = $1`, code)
}

func (r *HubRepository) ListHubsByWallet(ctx context.Context, wallet string) ([]*domain.Hub, error) {
	return r.listHubs(ctx,
		`SELECT `+hubColumns+` FROM hubs
		 WHERE creator = $1 OR id IN (SELECT hub_id FROM hub_members WHERE wallet = $1)
		 ORDER BY created_at, id`, wallet)
}

func (r *HubRepository) ListHubs(ctx context.Context) ([]*domain.Hub, error) {
	return r.listHubs(ctx, `SELECT `+hubColumns+` FROM hubs ORDER BY created_at, id`)
}

func (r *HubRepository) listHubs(ctx context.Context, sql string, args ...any) ([]*domain.Hub, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	var hubs []*domain.Hub
	for rows.Next() {
		h, err := scanHub(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		hubs = append(hubs, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, h := range hubs {
		if err := loadMembers(ctx, r.db, h); err != nil {
			return nil, err
		}
	}
	return hubs, nil
}

func (r *HubRepository) UpdateHub(ctx context.Context, id string, fn func(h *domain.Hub) error) (*domain.Hub, error) {
	var out *domain.Hub
	err := inTx(ctx, r.db, func(tx pgx.Tx) error {
		cur, err := getHub(ctx, tx, `id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		next := cur.Clone()
		if err := fn(next); err != nil {
			return err
		}
		if err := writeHub(ctx, tx, cur, next); err != nil {
			return err
		}
		out = next
		return nil
	})
	return out, err
}

// writeHub persists the mutable hub columns and member changes. Existing
// seats are updated in place, new seats appended.
func writeHub(ctx context.Context, q querier, cur, next *domain.Hub) error {
	if len(next.Members) < len(cur.Members) {
		return ErrConflict
	}
	_, err := q.Exec(ctx,
		`UPDATE hubs SET name = $2, description = $3, status = $4, current_round = $5,
			total_rounds = $6, total_saved = $7, max_members = $8
		 WHERE id = $1`,
		cur.ID, next.Name, next.Description, next.Status, next.CurrentRound,
		next.TotalRounds, next.TotalSaved, next.MaxMembers,
	)
	if err != nil {
		return mapErr(err)
	}
	for i, m := range next.Members {
		if i >= len(cur.Members) {
			if err := insertMember(ctx, q, cur.ID, m); err != nil {
				return err
			}
			continue
		}
		old := cur.Members[i]
		if old.Wallet != m.Wallet {
			return ErrConflict
		}
		if old == m {
			continue
		}
		if _, err := q.Exec(ctx,
			`UPDATE hub_members SET name = $3, is_admin = $4, payout_received = $5, payout_round = $6
			 WHERE hub_id = $1 AND wallet = $2`,
			cur.ID, m.Wallet, m.Name, m.IsAdmin, m.PayoutReceived, m.PayoutRound,
		); err != nil {
			return mapErr(err)
		}
	}
	return nil
}
