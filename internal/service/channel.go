package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nkoval/parley/internal/database"
	"github.com/nkoval/parley/internal/gateway"
	"github.com/nkoval/parley/internal/models"
	"github.com/nkoval/parley/internal/permissions"
	"github.com/nkoval/parley/internal/snowflake"
)

// bulkDeleteChunkSize is the most message IDs one bulk delete statement
// may carry.
const bulkDeleteChunkSize = 100

// singleDeleteThreshold is the batch size at or below which deletion falls
// back to individual deletes instead of a bulk statement.
const singleDeleteThreshold = 2

type ChannelService struct {
	channels   database.ChannelRepository
	overwrites database.OverwriteRepository
	messages   database.MessageRepository
	users      database.UserRepository
	roles      database.RoleRepository
	perms      *PermissionChecker
	dispatcher gateway.Dispatcher
	snowflake  *snowflake.Generator
	logger     *slog.Logger
}

func NewChannelService(
	channels database.ChannelRepository,
	overwrites database.OverwriteRepository,
	messages database.MessageRepository,
	users database.UserRepository,
	roles database.RoleRepository,
	perms *PermissionChecker,
	dispatcher gateway.Dispatcher,
	gen *snowflake.Generator,
	logger *slog.Logger,
) *ChannelService {
	return &ChannelService{
		channels:   channels,
		overwrites: overwrites,
		messages:   messages,
		users:      users,
		roles:      roles,
		perms:      perms,
		dispatcher: dispatcher,
		snowflake:  gen,
		logger:     logger,
	}
}

// Get loads a channel and verifies the caller may view it. DM channels
// require the caller to be a recipient.
func (s *ChannelService) Get(ctx context.Context, channelID, userID int64) (*models.Channel, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("loading channel %d: %w", channelID, err)
	}
	if channel == nil {
		return nil, NotFound("UNKNOWN_CHANNEL", "channel not found")
	}

	if channel.IsDM() {
		ok, err := s.channels.IsRecipient(ctx, channelID, userID)
		if err != nil {
			return nil, fmt.Errorf("checking recipient: %w", err)
		}
		if !ok {
			return nil, NotFound("UNKNOWN_CHANNEL", "channel not found")
		}
		return channel, nil
	}

	if err := s.perms.RequireChannelPermission(ctx, channel, userID, permissions.PermViewChannel); err != nil {
		return nil, err
	}
	return channel, nil
}

type CreateChannelParams struct {
	GuildID int64
	Name    string
	Type    models.ChannelType
	Topic   *string
}

// Create makes a new guild channel. Requires MANAGE_CHANNELS in the guild.
func (s *ChannelService) Create(ctx context.Context, userID int64, params CreateChannelParams) (*models.Channel, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" || len(name) > 100 {
		return nil, BadRequest("INVALID_NAME", "channel name must be 1-100 characters")
	}
	if params.Type != models.ChannelTypeGuildText && params.Type != models.ChannelTypeGuildVoice {
		return nil, BadRequest("INVALID_TYPE", "channel type must be guild text or voice")
	}

	if err := s.perms.RequireGuildPermission(ctx, params.GuildID, userID, permissions.PermManageChannels); err != nil {
		return nil, err
	}

	channel := &models.Channel{
		ID:      s.snowflake.Generate().Int64(),
		GuildID: params.GuildID,
		Name:    name,
		Type:    params.Type,
		Topic:   params.Topic,
	}
	if err := s.channels.Create(ctx, channel); err != nil {
		return nil, fmt.Errorf("creating channel: %w", err)
	}

	s.dispatcher.DispatchToGuild(params.GuildID, gateway.EventChannelCreate, channel)
	return channel, nil
}

type UpdateChannelParams struct {
	Name     *string
	Topic    *string
	Position *int
}

// Update patches a guild channel's mutable fields.
func (s *ChannelService) Update(ctx context.Context, channelID, userID int64, params UpdateChannelParams) (*models.Channel, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("loading channel %d: %w", channelID, err)
	}
	if channel == nil {
		return nil, NotFound("UNKNOWN_CHANNEL", "channel not found")
	}
	if !channel.IsGuild() {
		return nil, BadRequest("NOT_GUILD_CHANNEL", "only guild channels can be edited")
	}

	if err := s.perms.RequireChannelPermission(ctx, channel, userID, permissions.PermManageChannels); err != nil {
		return nil, err
	}

	if params.Name != nil {
		name := strings.TrimSpace(*params.Name)
		if name == "" || len(name) > 100 {
			return nil, BadRequest("INVALID_NAME", "channel name must be 1-100 characters")
		}
		channel.Name = name
	}
	if params.Topic != nil {
		channel.Topic = params.Topic
	}
	if params.Position != nil {
		channel.Position = *params.Position
	}

	if err := s.channels.Update(ctx, channel); err != nil {
		return nil, fmt.Errorf("updating channel %d: %w", channelID, err)
	}

	s.dispatcher.DispatchToGuild(channel.GuildID, gateway.EventChannelUpdate, channel)
	return channel, nil
}

// Delete removes a guild channel.
func (s *ChannelService) Delete(ctx context.Context, channelID, userID int64) error {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return fmt.Errorf("loading channel %d: %w", channelID, err)
	}
	if channel == nil {
		return NotFound("UNKNOWN_CHANNEL", "channel not found")
	}
	if !channel.IsGuild() {
		return BadRequest("NOT_GUILD_CHANNEL", "only guild channels can be deleted")
	}

	if err := s.perms.RequireChannelPermission(ctx, channel, userID, permissions.PermManageChannels); err != nil {
		return err
	}

	if err := s.channels.Delete(ctx, channelID); err != nil {
		return fmt.Errorf("deleting channel %d: %w", channelID, err)
	}

	s.dispatcher.DispatchToGuild(channel.GuildID, gateway.EventChannelDelete, channel)
	return nil
}

type SetOverwriteParams struct {
	TargetID   int64
	TargetKind models.OverwriteTarget
	Allow      int64
	Deny       int64
}

// SetOverwrite creates or replaces the permission overwrite for one target
// on a guild channel. Requires MANAGE_OVERWRITES on the channel. Role
// targets must be roles of the channel's guild; member targets must be
// existing users.
func (s *ChannelService) SetOverwrite(ctx context.Context, channelID, userID int64, params SetOverwriteParams) (*models.PermissionOverwrite, error) {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("loading channel %d: %w", channelID, err)
	}
	if channel == nil {
		return nil, NotFound("UNKNOWN_CHANNEL", "channel not found")
	}
	if !channel.IsGuild() {
		return nil, BadRequest("NOT_GUILD_CHANNEL", "DM channels do not support overwrites")
	}

	if err := s.perms.RequireChannelPermission(ctx, channel, userID, permissions.PermManageOverwrites); err != nil {
		return nil, err
	}

	switch params.TargetKind {
	case models.OverwriteRole:
		role, err := s.roles.GetByID(ctx, params.TargetID)
		if err != nil {
			return nil, fmt.Errorf("loading role %d: %w", params.TargetID, err)
		}
		if role == nil || role.GuildID != channel.GuildID {
			return nil, BadRequest("UNKNOWN_ROLE", "role does not belong to this guild")
		}
	case models.OverwriteMember:
		user, err := s.users.GetByID(ctx, params.TargetID)
		if err != nil {
			return nil, fmt.Errorf("loading user %d: %w", params.TargetID, err)
		}
		if user == nil {
			return nil, BadRequest("UNKNOWN_USER", "user not found")
		}
	default:
		return nil, BadRequest("INVALID_TARGET_KIND", "target kind must be role or member")
	}

	ow := &models.PermissionOverwrite{
		ChannelID:  channelID,
		TargetID:   params.TargetID,
		TargetKind: params.TargetKind,
		Allow:      params.Allow,
		Deny:       params.Deny,
	}
	if err := s.overwrites.Set(ctx, ow); err != nil {
		return nil, fmt.Errorf("setting overwrite: %w", err)
	}

	s.dispatcher.DispatchToGuild(channel.GuildID, gateway.EventOverwriteUpdate, ow)
	return ow, nil
}

// DeleteOverwrite removes the overwrite for one target from a guild
// channel.
func (s *ChannelService) DeleteOverwrite(ctx context.Context, channelID, userID, targetID int64) error {
	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return fmt.Errorf("loading channel %d: %w", channelID, err)
	}
	if channel == nil {
		return NotFound("UNKNOWN_CHANNEL", "channel not found")
	}
	if !channel.IsGuild() {
		return BadRequest("NOT_GUILD_CHANNEL", "DM channels do not support overwrites")
	}

	if err := s.perms.RequireChannelPermission(ctx, channel, userID, permissions.PermManageOverwrites); err != nil {
		return err
	}
	if _, ok := channel.Overwrites[targetID]; !ok {
		return NotFound("UNKNOWN_OVERWRITE", "no overwrite for that target")
	}

	if err := s.overwrites.Delete(ctx, channelID, targetID); err != nil {
		return fmt.Errorf("deleting overwrite: %w", err)
	}

	s.dispatcher.DispatchToGuild(channel.GuildID, gateway.EventOverwriteDelete, map[string]any{
		"channel_id": channel.ID,
		"target_id":  targetID,
	})
	return nil
}

// OpenDM returns the caller's DM channel with the other user, creating it
// if none exists yet. The create event is dispatched only for a fresh
// channel.
func (s *ChannelService) OpenDM(ctx context.Context, userID, recipientID int64) (*models.Channel, error) {
	if userID == recipientID {
		return nil, BadRequest("INVALID_RECIPIENT", "cannot open a DM with yourself")
	}
	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("loading user %d: %w", recipientID, err)
	}
	if recipient == nil {
		return nil, NotFound("UNKNOWN_USER", "user not found")
	}

	existing, err := s.channels.GetDMByRecipients(ctx, userID, recipientID)
	if err != nil {
		return nil, fmt.Errorf("looking up dm channel: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	channel := &models.Channel{
		ID:   s.snowflake.Generate().Int64(),
		Type: models.ChannelTypeDM,
	}
	if err := s.channels.Create(ctx, channel); err != nil {
		return nil, fmt.Errorf("creating dm channel: %w", err)
	}
	for _, uid := range []int64{userID, recipientID} {
		if err := s.channels.AddRecipient(ctx, channel.ID, uid); err != nil {
			return nil, fmt.Errorf("adding recipient %d: %w", uid, err)
		}
	}

	s.dispatcher.DispatchToUser(recipientID, gateway.EventChannelCreate, channel)
	return channel, nil
}

// DeleteMessages removes a batch of messages from one channel. Two or
// fewer IDs are deleted one at a time; larger batches go through bulk
// deletion in chunks of at most 100 IDs. Requires MANAGE_MESSAGES.
func (s *ChannelService) DeleteMessages(ctx context.Context, channelID, userID int64, messageIDs []int64) error {
	if len(messageIDs) == 0 {
		return nil
	}

	channel, err := s.channels.GetByID(ctx, channelID)
	if err != nil {
		return fmt.Errorf("loading channel %d: %w", channelID, err)
	}
	if channel == nil {
		return NotFound("UNKNOWN_CHANNEL", "channel not found")
	}

	if err := s.perms.RequireChannelPermission(ctx, channel, userID, permissions.PermManageMessages); err != nil {
		return err
	}

	if len(messageIDs) <= singleDeleteThreshold {
		for _, id := range messageIDs {
			if err := s.messages.Delete(ctx, id); err != nil {
				return fmt.Errorf("deleting message %d: %w", id, err)
			}
		}
	} else {
		for start := 0; start < len(messageIDs); start += bulkDeleteChunkSize {
			end := start + bulkDeleteChunkSize
			if end > len(messageIDs) {
				end = len(messageIDs)
			}
			deleted, err := s.messages.DeleteBulk(ctx, channelID, messageIDs[start:end])
			if err != nil {
				return fmt.Errorf("bulk deleting messages: %w", err)
			}
			if deleted < int64(end-start) {
				s.logger.Warn("bulk delete skipped missing messages",
					"channel_id", channelID,
					"requested", end-start,
					"deleted", deleted)
			}
		}
	}

	data := map[string]any{
		"channel_id": channel.ID,
		"ids":        messageIDs,
	}
	if channel.IsGuild() {
		s.dispatcher.DispatchToGuild(channel.GuildID, gateway.EventMessageBulkDelete, data)
	} else {
		for _, r := range channel.Recipients {
			s.dispatcher.DispatchToUser(r.ID, gateway.EventMessageBulkDelete, data)
		}
	}
	return nil
}
