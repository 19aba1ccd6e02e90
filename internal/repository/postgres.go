package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres bundles the table repositories into a repository.Store.
type Postgres struct {
	*UserRepository
	*HubRepository
	*ContributionRepository
	*ReferralRepository
	*MessageRepository
	*AuditRepository
	*StatsRepository

	db *pgxpool.Pool
}

var _ Store = (*Postgres)(nil)

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{
		UserRepository:         NewUserRepository(db),
		HubRepository:          NewHubRepository(db),
		ContributionRepository: NewContributionRepository(db),
		ReferralRepository:     NewReferralRepository(db),
		MessageRepository:      NewMessageRepository(db),
		AuditRepository:        NewAuditRepository(db),
		StatsRepository:        NewStatsRepository(db),
		db:                     db,
	}
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// mapErr translates driver errors into repository errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return ErrConflict
		case pgUniqueViolation:
			switch pgErr.ConstraintName {
			case "hubs_invite_code_key":
				return ErrInviteCodeTaken
			case "users_referral_code_key":
				return ErrReferralCodeTaken
			}
			return ErrConflict
		}
	}
	return err
}

func inTx(ctx context.Context, db *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return mapErr(tx.Commit(ctx))
}
