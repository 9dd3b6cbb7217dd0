package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nkoval/parley/internal/database"
	"github.com/nkoval/parley/internal/gateway"
	"github.com/nkoval/parley/internal/history"
	"github.com/nkoval/parley/internal/models"
	"github.com/nkoval/parley/internal/permissions"
	"github.com/nkoval/parley/internal/snowflake"
)

const maxMessageLength = 2000

type MessageService struct {
	messages   database.MessageRepository
	channels   database.ChannelRepository
	perms      *PermissionChecker
	dispatcher gateway.Dispatcher
	snowflake  *snowflake.Generator
}

func NewMessageService(
	messages database.MessageRepository,
	channels database.ChannelRepository,
	perms *PermissionChecker,
	dispatcher gateway.Dispatcher,
	gen *snowflake.Generator,
) *MessageService {
	return &MessageService{
		messages:   messages,
		channels:   channels,
		perms:      perms,
		dispatcher: dispatcher,
		snowflake:  gen,
	}
}

// Send posts a message to a channel. Requires SEND_MESSAGES.
func (s *MessageService) Send(ctx context.Context, channelID, authorID int64, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, BadRequest("EMPTY_MESSAGE", "message content cannot be empty")
	}
	if len(content) > maxMessageLength {
		return nil, BadRequest("MESSAGE_TOO_LONG", fmt.Sprintf("message content cannot exceed %d characters", maxMessageLength))
	}

	channel, err := s.requireChannel(ctx, channelID, authorID, permissions.PermSendMessages)
	if err != nil {
		return nil, err
	}

	msg := &models.Message{
		ID:        s.snowflake.Generate().Int64(),
		ChannelID: channelID,
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	s.dispatchChannelEvent(channel, gateway.EventMessageCreate, msg)
	return msg, nil
}

// Get returns a single message with its author attached.
func (s *MessageService) Get(ctx context.Context, channelID, messageID, userID int64) (*models.MessageWithAuthor, error) {
	if _, err := s.requireChannel(ctx, channelID, userID, permissions.PermReadMessageHistory); err != nil {
		return nil, err
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("loading message %d: %w", messageID, err)
	}
	if msg == nil || msg.ChannelID != channelID {
		return nil, NotFound("UNKNOWN_MESSAGE", "message not found")
	}
	return msg, nil
}

// Edit replaces a message's content. Only the author may edit.
func (s *MessageService) Edit(ctx context.Context, channelID, messageID, userID int64, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, BadRequest("EMPTY_MESSAGE", "message content cannot be empty")
	}
	if len(content) > maxMessageLength {
		return nil, BadRequest("MESSAGE_TOO_LONG", fmt.Sprintf("message content cannot exceed %d characters", maxMessageLength))
	}

	channel, err := s.requireChannel(ctx, channelID, userID, permissions.PermViewChannel)
	if err != nil {
		return nil, err
	}

	existing, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("loading message %d: %w", messageID, err)
	}
	if existing == nil || existing.ChannelID != channelID {
		return nil, NotFound("UNKNOWN_MESSAGE", "message not found")
	}
	if existing.AuthorID != userID {
		return nil, Forbidden("NOT_AUTHOR", "only the author can edit a message")
	}

	now := time.Now().UTC()
	msg := existing.Message
	msg.Content = content
	msg.EditedAt = &now
	if err := s.messages.Update(ctx, &msg); err != nil {
		return nil, fmt.Errorf("updating message %d: %w", messageID, err)
	}

	s.dispatchChannelEvent(channel, gateway.EventMessageUpdate, &msg)
	return &msg, nil
}

// Delete removes one message. The author may always delete their own;
// anyone else needs MANAGE_MESSAGES.
func (s *MessageService) Delete(ctx context.Context, channelID, messageID, userID int64) error {
	channel, err := s.requireChannel(ctx, channelID, userID, permissions.PermViewChannel)
	if err != nil {
		return err
	}

	existing, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("loading message %d: %w", messageID, err)
	}
	if existing == nil || existing.ChannelID != channelID {
		return NotFound("UNKNOWN_MESSAGE", "message not found")
	}
	if existing.AuthorID != userID {
		if err := s.perms.RequireChannelPermission(ctx, channel, userID, permissions.PermManageMessages); err != nil {
			return err
		}
	}

	if err := s.messages.Delete(ctx, messageID); err != nil {
		return fmt.Errorf("deleting message %d: %w", messageID, err)
	}

	s.dispatchChannelEvent(channel, gateway.EventMessageDelete, map[string]any{
		"id":         messageID,
		"channel_id": channelID,
	})
	return nil
}

// List returns one page of messages, newest first. Requires
// READ_MESSAGE_HISTORY.
func (s *MessageService) List(ctx context.Context, channelID, userID int64, before, after *int64, limit int) ([]models.Message, error) {
	if _, err := s.requireChannel(ctx, channelID, userID, permissions.PermReadMessageHistory); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > history.DefaultChunkSize {
		limit = history.DefaultChunkSize
	}
	msgs, err := s.messages.ListMessages(ctx, channelID, before, after, limit)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}

// History returns an iterator over the channel's messages. The caller
// drives it with Next and must check Err when done.
func (s *MessageService) History(ctx context.Context, channelID, userID int64, opts history.Options) (*history.Iterator, error) {
	if _, err := s.requireChannel(ctx, channelID, userID, permissions.PermReadMessageHistory); err != nil {
		return nil, err
	}
	return history.NewIterator(s.messages, channelID, opts)
}

func (s *MessageService) requireChannel(ctx context.Context, channelID, userID int64, perm permissions.Permission) (*models.Channel, error) {
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
	if err := s.perms.RequireChannelPermission(ctx, channel, userID, perm); err != nil {
		return nil, err
	}
	return channel, nil
}

// dispatchChannelEvent routes an event to the guild for guild channels or
// to each recipient for DMs.
func (s *MessageService) dispatchChannelEvent(channel *models.Channel, event string, data any) {
	if channel.IsGuild() {
		s.dispatcher.DispatchToGuild(channel.GuildID, event, data)
		return
	}
	for _, r := range channel.Recipients {
		s.dispatcher.DispatchToUser(r.ID, event, data)
	}
}
