package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nkoval/parley/internal/models"
)

type channelRepo struct {
	pool       *pgxpool.Pool
	overwrites OverwriteRepository
}

// NewChannelRepository creates a ChannelRepository. The overwrite
// repository is consulted on reads so that loaded channels always carry
// their attached overwrites.
func NewChannelRepository(pool *pgxpool.Pool, overwrites OverwriteRepository) ChannelRepository {
	return &channelRepo{pool: pool, overwrites: overwrites}
}

func (r *channelRepo) Create(ctx context.Context, channel *models.Channel) error {
	var guildID *int64
	if channel.GuildID != 0 {
		guildID = &channel.GuildID
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO channels (id, guild_id, name, type, position, topic)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		channel.ID, guildID, channel.Name, channel.Type, channel.Position, channel.Topic,
	)
	return err
}

func (r *channelRepo) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	c := &models.Channel{}
	var guildID *int64
	err := r.pool.QueryRow(ctx,
		`SELECT id, guild_id, name, type, position, topic
		 FROM channels WHERE id = $1`, id,
	).Scan(&c.ID, &guildID, &c.Name, &c.Type, &c.Position, &c.Topic)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if guildID != nil {
		c.GuildID = *guildID
	}

	overwrites, err := r.overwrites.GetByChannel(ctx, id)
	if err != nil {
		return nil, err
	}
	c.AttachOverwrites(overwrites)

	if c.IsDM() {
		c.Recipients, err = r.recipients(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (r *channelRepo) GetByGuildID(ctx context.Context, guildID int64) ([]models.Channel, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, guild_id, name, type, position, topic
		 FROM channels WHERE guild_id = $1
		 ORDER BY position, id`, guildID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var channels []models.Channel
	for rows.Next() {
		var c models.Channel
		var gid *int64
		if err := rows.Scan(&c.ID, &gid, &c.Name, &c.Type, &c.Position, &c.Topic); err != nil {
			return nil, err
		}
		if gid != nil {
			c.GuildID = *gid
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

func (r *channelRepo) Update(ctx context.Context, channel *models.Channel) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE channels SET name = $2, position = $3, topic = $4
		 WHERE id = $1`,
		channel.ID, channel.Name, channel.Position, channel.Topic,
	)
	return err
}

func (r *channelRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM channels WHERE id = $1`, id)
	return err
}

func (r *channelRepo) AddRecipient(ctx context.Context, channelID, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO channel_recipients (channel_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		channelID, userID,
	)
	return err
}

func (r *channelRepo) IsRecipient(ctx context.Context, channelID, userID int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM channel_recipients
		   WHERE channel_id = $1 AND user_id = $2
		 )`, channelID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *channelRepo) GetDMByRecipients(ctx context.Context, userA, userB int64) (*models.Channel, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`SELECT c.id
		 FROM channels c
		 INNER JOIN channel_recipients ra ON ra.channel_id = c.id AND ra.user_id = $2
		 INNER JOIN channel_recipients rb ON rb.channel_id = c.id AND rb.user_id = $3
		 WHERE c.type = $1
		 ORDER BY c.id
		 LIMIT 1`,
		models.ChannelTypeDM, userA, userB,
	).Scan(&id)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *channelRepo) recipients(ctx context.Context, channelID int64) ([]models.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.username, u.display_name, u.created_at
		 FROM users u
		 INNER JOIN channel_recipients cr ON cr.user_id = u.id
		 WHERE cr.channel_id = $1
		 ORDER BY u.id`, channelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
