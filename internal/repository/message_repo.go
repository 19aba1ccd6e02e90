package repository

import (
	"context"

	"stablecircle/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) CreateMessage(ctx context.Context, m *domain.Message) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO messages (id, hub_id, sender, sender_name, content, type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.HubID, m.Sender, m.SenderName, m.Content, m.Type, m.CreatedAt,
	)
	return mapErr(err)
}

func (r *MessageRepository) ListMessages(ctx context.Context, hubID string, limit int) ([]*domain.Message, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, hub_id, sender, sender_name, content, type, created_at
		 FROM messages
		 WHERE hub_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		hubID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.HubID, &m.Sender, &m.SenderName, &m.Content, &m.Type, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
