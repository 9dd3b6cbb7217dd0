package database

import (
	"context"

	"github.com/nkoval/parley/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type GuildRepository interface {
	Create(ctx context.Context, guild *models.Guild) error
	GetByID(ctx context.Context, id int64) (*models.Guild, error)
	GetByUserID(ctx context.Context, userID int64) ([]models.Guild, error)
	Delete(ctx context.Context, id int64) error
}

type ChannelRepository interface {
	Create(ctx context.Context, channel *models.Channel) error
	// GetByID loads the channel with its permission overwrites attached.
	GetByID(ctx context.Context, id int64) (*models.Channel, error)
	GetByGuildID(ctx context.Context, guildID int64) ([]models.Channel, error)
	Update(ctx context.Context, channel *models.Channel) error
	Delete(ctx context.Context, id int64) error
	// AddRecipient and IsRecipient serve DM/group DM channels.
	AddRecipient(ctx context.Context, channelID, userID int64) error
	IsRecipient(ctx context.Context, channelID, userID int64) (bool, error)
	// GetDMByRecipients returns the existing 1:1 DM channel between the two
	// users, or nil when none exists.
	GetDMByRecipients(ctx context.Context, userA, userB int64) (*models.Channel, error)
}

type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	GetByID(ctx context.Context, id int64) (*models.Role, error)
	GetByGuildID(ctx context.Context, guildID int64) ([]models.Role, error)
	// GetByMember returns the member's assigned roles, excluding @everyone.
	GetByMember(ctx context.Context, guildID, userID int64) ([]models.Role, error)
	Update(ctx context.Context, role *models.Role) error
	Delete(ctx context.Context, id int64) error
	Assign(ctx context.Context, guildID, userID, roleID int64) error
	Unassign(ctx context.Context, guildID, userID, roleID int64) error
}

type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByGuildAndUser(ctx context.Context, guildID, userID int64) (*models.Member, error)
	GetByGuildID(ctx context.Context, guildID int64, limit, offset int) ([]models.Member, error)
	Delete(ctx context.Context, guildID, userID int64) error
}

type OverwriteRepository interface {
	// Set inserts or replaces the overwrite for (channel, target).
	Set(ctx context.Context, overwrite *models.PermissionOverwrite) error
	GetByChannel(ctx context.Context, channelID int64) ([]models.PermissionOverwrite, error)
	Delete(ctx context.Context, channelID, targetID int64) error
}

type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id int64) (*models.MessageWithAuthor, error)
	// ListMessages returns up to limit messages with IDs strictly between
	// the cursors (either may be nil), newest first. This is the page
	// shape the history iterator depends on.
	ListMessages(ctx context.Context, channelID int64, before, after *int64, limit int) ([]models.Message, error)
	Update(ctx context.Context, msg *models.Message) error
	Delete(ctx context.Context, id int64) error
	// DeleteBulk removes up to 100 messages from one channel in a single
	// statement and returns how many rows were deleted.
	DeleteBulk(ctx context.Context, channelID int64, ids []int64) (int64, error)
}
