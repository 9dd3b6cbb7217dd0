package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nkoval/parley/internal/models"
)

type messageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) MessageRepository {
	return &messageRepo{pool: pool}
}

func (r *messageRepo) Create(ctx context.Context, msg *models.Message) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messages (id, channel_id, author_id, content, created_at, edited_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.ChannelID, msg.AuthorID, msg.Content, msg.CreatedAt, msg.EditedAt,
	)
	return err
}

func (r *messageRepo) GetByID(ctx context.Context, id int64) (*models.MessageWithAuthor, error) {
	m := &models.MessageWithAuthor{}
	err := r.pool.QueryRow(ctx,
		`SELECT m.id, m.channel_id, m.author_id, m.content, m.created_at, m.edited_at,
		        u.username, u.display_name
		 FROM messages m
		 INNER JOIN users u ON u.id = m.author_id
		 WHERE m.id = $1`, id,
	).Scan(
		&m.ID, &m.ChannelID, &m.AuthorID, &m.Content, &m.CreatedAt, &m.EditedAt,
		&m.AuthorUsername, &m.AuthorDisplayName,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// ListMessages serves the history iterator's fetch contract: newest-first,
// IDs strictly below before and strictly above after when the cursors are
// set.
func (r *messageRepo) ListMessages(ctx context.Context, channelID int64, before, after *int64, limit int) ([]models.Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, channel_id, author_id, content, created_at, edited_at
		 FROM messages
		 WHERE channel_id = $1
		   AND ($2::BIGINT IS NULL OR id < $2)
		   AND ($3::BIGINT IS NULL OR id > $3)
		 ORDER BY id DESC
		 LIMIT $4`,
		channelID, before, after, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ChannelID, &m.AuthorID, &m.Content, &m.CreatedAt, &m.EditedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *messageRepo) Update(ctx context.Context, msg *models.Message) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET content = $2, edited_at = $3 WHERE id = $1`,
		msg.ID, msg.Content, msg.EditedAt,
	)
	return err
}

func (r *messageRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

func (r *messageRepo) DeleteBulk(ctx context.Context, channelID int64, ids []int64) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM messages WHERE channel_id = $1 AND id = ANY($2)`,
		channelID, ids,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
