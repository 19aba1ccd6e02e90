package repository

import (
	"context"
	"time"

	"stablecircle/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) GlobalStats(ctx context.Context) (*domain.GlobalStats, error) {
	st := &domain.GlobalStats{LastUpdated: time.Now().UTC()}
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(total_saved), 0) FROM hubs),
			(SELECT COUNT(*) FROM hubs),
			(SELECT COUNT(*) FROM users),
			(SELECT COALESCE(MAX(streak), 0) FROM users)
	`).Scan(&st.TotalSaved, &st.TotalHubs, &st.TotalUsers, &st.CommunityStreak)
	if err != nil {
		return nil, err
	}
	return st, nil
}
