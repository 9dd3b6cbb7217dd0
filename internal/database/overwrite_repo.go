package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nkoval/parley/internal/models"
)

type overwriteRepo struct {
	pool *pgxpool.Pool
}

func NewOverwriteRepository(pool *pgxpool.Pool) OverwriteRepository {
	return &overwriteRepo{pool: pool}
}

func (r *overwriteRepo) Set(ctx context.Context, overwrite *models.PermissionOverwrite) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO channel_overwrites (channel_id, target_id, target_kind, allow_perms, deny_perms)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (channel_id, target_id)
		 DO UPDATE SET target_kind = EXCLUDED.target_kind,
		               allow_perms = EXCLUDED.allow_perms,
		               deny_perms = EXCLUDED.deny_perms`,
		overwrite.ChannelID, overwrite.TargetID, overwrite.TargetKind, overwrite.Allow, overwrite.Deny,
	)
	return err
}

func (r *overwriteRepo) GetByChannel(ctx context.Context, channelID int64) ([]models.PermissionOverwrite, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT channel_id, target_id, target_kind, allow_perms, deny_perms
		 FROM channel_overwrites WHERE channel_id = $1`, channelID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overwrites []models.PermissionOverwrite
	for rows.Next() {
		var ow models.PermissionOverwrite
		if err := rows.Scan(&ow.ChannelID, &ow.TargetID, &ow.TargetKind, &ow.Allow, &ow.Deny); err != nil {
			return nil, err
		}
		overwrites = append(overwrites, ow)
	}
	return overwrites, rows.Err()
}

func (r *overwriteRepo) Delete(ctx context.Context, channelID, targetID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM channel_overwrites WHERE channel_id = $1 AND target_id = $2`,
		channelID, targetID,
	)
	return err
}
