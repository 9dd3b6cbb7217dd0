package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nkoval/parley/internal/models"
	"github.com/nkoval/parley/internal/permissions"
)

const (
	testGuildID   = int64(1000)
	testChannelID = int64(2000)
	testOwnerID   = int64(3000)
	testModID     = int64(3001)
)

// deleteFixture wires a ChannelService whose permission checks always pass
// (the caller is the guild owner) and records single and bulk deletes.
type deleteFixture struct {
	svc         *ChannelService
	singleCalls []int64
	bulkCalls   [][]int64
	dispatcher  *mockDispatcher
}

func newDeleteFixture(t *testing.T) *deleteFixture {
	t.Helper()
	f := &deleteFixture{dispatcher: &mockDispatcher{}}

	guilds := &mockGuildRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Guild, error) {
			return &models.Guild{ID: testGuildID, OwnerID: testOwnerID}, nil
		},
	}
	channels := &mockChannelRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Channel, error) {
			return &models.Channel{ID: testChannelID, GuildID: testGuildID, Type: models.ChannelTypeGuildText}, nil
		},
	}
	messages := &mockMessageRepo{
		DeleteFn: func(ctx context.Context, id int64) error {
			f.singleCalls = append(f.singleCalls, id)
			return nil
		},
		DeleteBulkFn: func(ctx context.Context, channelID int64, ids []int64) (int64, error) {
			batch := make([]int64, len(ids))
			copy(batch, ids)
			f.bulkCalls = append(f.bulkCalls, batch)
			return int64(len(ids)), nil
		},
	}

	perms := NewPermissionChecker(guilds, &mockMemberRepo{}, &mockRoleRepo{})
	f.svc = NewChannelService(channels, &mockOverwriteRepo{}, messages, &mockUserRepo{}, &mockRoleRepo{}, perms, f.dispatcher, testGenerator(t), testLogger())
	return f
}

func TestDeleteMessagesEmptyBatch(t *testing.T) {
	f := newDeleteFixture(t)
	if err := f.svc.DeleteMessages(context.Background(), testChannelID, testOwnerID, nil); err != nil {
		t.Fatalf("DeleteMessages: %v", err)
	}
	if len(f.singleCalls) != 0 || len(f.bulkCalls) != 0 {
		t.Fatalf("expected no deletes, got singles=%v bulks=%v", f.singleCalls, f.bulkCalls)
	}
	if len(f.dispatcher.eventNames()) != 0 {
		t.Fatalf("expected no events for empty batch")
	}
}

func TestDeleteMessagesSmallBatchUsesSingles(t *testing.T) {
	for _, n := range []int{1, 2} {
		f := newDeleteFixture(t)
		ids := make([]int64, n)
		for i := range ids {
			ids[i] = int64(100 + i)
		}
		if err := f.svc.DeleteMessages(context.Background(), testChannelID, testOwnerID, ids); err != nil {
			t.Fatalf("DeleteMessages(%d ids): %v", n, err)
		}
		if len(f.singleCalls) != n {
			t.Errorf("batch of %d: got %d single deletes, want %d", n, len(f.singleCalls), n)
		}
		if len(f.bulkCalls) != 0 {
			t.Errorf("batch of %d: expected no bulk deletes, got %d", n, len(f.bulkCalls))
		}
	}
}

func TestDeleteMessagesLargeBatchUsesBulkChunks(t *testing.T) {
	f := newDeleteFixture(t)
	ids := make([]int64, 150)
	for i := range ids {
		ids[i] = int64(1000 + i)
	}
	if err := f.svc.DeleteMessages(context.Background(), testChannelID, testOwnerID, ids); err != nil {
		t.Fatalf("DeleteMessages: %v", err)
	}
	if len(f.singleCalls) != 0 {
		t.Fatalf("expected no single deletes, got %d", len(f.singleCalls))
	}
	if len(f.bulkCalls) != 2 {
		t.Fatalf("got %d bulk calls, want 2", len(f.bulkCalls))
	}
	if len(f.bulkCalls[0]) != 100 || len(f.bulkCalls[1]) != 50 {
		t.Fatalf("got chunk sizes %d and %d, want 100 and 50", len(f.bulkCalls[0]), len(f.bulkCalls[1]))
	}
	if f.bulkCalls[0][0] != 1000 || f.bulkCalls[1][49] != 1149 {
		t.Fatalf("chunks did not preserve order")
	}

	events := f.dispatcher.eventNames()
	if len(events) != 1 || events[0] != "MESSAGE_BULK_DELETE" {
		t.Fatalf("got events %v, want one MESSAGE_BULK_DELETE", events)
	}
}

func TestDeleteMessagesThresholdBoundary(t *testing.T) {
	// Three IDs is the smallest batch that goes through bulk deletion.
	f := newDeleteFixture(t)
	if err := f.svc.DeleteMessages(context.Background(), testChannelID, testOwnerID, []int64{1, 2, 3}); err != nil {
		t.Fatalf("DeleteMessages: %v", err)
	}
	if len(f.singleCalls) != 0 {
		t.Fatalf("expected no single deletes, got %d", len(f.singleCalls))
	}
	if len(f.bulkCalls) != 1 || len(f.bulkCalls[0]) != 3 {
		t.Fatalf("got bulk calls %v, want one chunk of 3", f.bulkCalls)
	}
}

func TestDeleteMessagesRequiresManageMessages(t *testing.T) {
	dispatcher := &mockDispatcher{}
	guilds := &mockGuildRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Guild, error) {
			return &models.Guild{ID: testGuildID, OwnerID: testOwnerID}, nil
		},
	}
	channels := &mockChannelRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Channel, error) {
			return &models.Channel{ID: testChannelID, GuildID: testGuildID, Type: models.ChannelTypeGuildText}, nil
		},
	}
	members := &mockMemberRepo{
		GetByGuildAndUserFn: func(ctx context.Context, guildID, userID int64) (*models.Member, error) {
			return &models.Member{GuildID: guildID, UserID: userID}, nil
		},
	}
	roles := &mockRoleRepo{
		GetByMemberFn: func(ctx context.Context, guildID, userID int64) ([]models.Role, error) {
			return nil, nil
		},
		GetByGuildIDFn: func(ctx context.Context, guildID int64) ([]models.Role, error) {
			return []models.Role{{
				ID:          1,
				GuildID:     guildID,
				Permissions: int64(permissions.DefaultEveryonePerms),
				IsDefault:   true,
			}}, nil
		},
	}
	messages := &mockMessageRepo{
		DeleteFn: func(ctx context.Context, id int64) error {
			t.Fatal("delete should not run without MANAGE_MESSAGES")
			return nil
		},
	}

	perms := NewPermissionChecker(guilds, members, roles)
	svc := NewChannelService(channels, &mockOverwriteRepo{}, messages, &mockUserRepo{}, roles, perms, dispatcher, testGenerator(t), testLogger())

	err := svc.DeleteMessages(context.Background(), testChannelID, testModID, []int64{1, 2})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("got %v, want ErrForbidden", err)
	}
}

func TestSetOverwriteRejectsForeignRole(t *testing.T) {
	dispatcher := &mockDispatcher{}
	guilds := &mockGuildRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Guild, error) {
			return &models.Guild{ID: testGuildID, OwnerID: testOwnerID}, nil
		},
	}
	channels := &mockChannelRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Channel, error) {
			return &models.Channel{ID: testChannelID, GuildID: testGuildID, Type: models.ChannelTypeGuildText}, nil
		},
	}
	roles := &mockRoleRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Role, error) {
			return &models.Role{ID: id, GuildID: testGuildID + 1}, nil
		},
	}

	perms := NewPermissionChecker(guilds, &mockMemberRepo{}, &mockRoleRepo{})
	svc := NewChannelService(channels, &mockOverwriteRepo{}, &mockMessageRepo{}, &mockUserRepo{}, roles, perms, dispatcher, testGenerator(t), testLogger())

	_, err := svc.SetOverwrite(context.Background(), testChannelID, testOwnerID, SetOverwriteParams{
		TargetID:   42,
		TargetKind: models.OverwriteRole,
		Deny:       int64(permissions.PermSendMessages),
	})
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("got %v, want ErrBadRequest", err)
	}
}

func TestSetOverwriteUpsertsAndDispatches(t *testing.T) {
	dispatcher := &mockDispatcher{}
	var stored *models.PermissionOverwrite
	guilds := &mockGuildRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Guild, error) {
			return &models.Guild{ID: testGuildID, OwnerID: testOwnerID}, nil
		},
	}
	channels := &mockChannelRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Channel, error) {
			return &models.Channel{ID: testChannelID, GuildID: testGuildID, Type: models.ChannelTypeGuildText}, nil
		},
	}
	overwrites := &mockOverwriteRepo{
		SetFn: func(ctx context.Context, ow *models.PermissionOverwrite) error {
			stored = ow
			return nil
		},
	}
	roles := &mockRoleRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Role, error) {
			return &models.Role{ID: id, GuildID: testGuildID}, nil
		},
	}

	perms := NewPermissionChecker(guilds, &mockMemberRepo{}, &mockRoleRepo{})
	svc := NewChannelService(channels, overwrites, &mockMessageRepo{}, &mockUserRepo{}, roles, perms, dispatcher, testGenerator(t), testLogger())

	ow, err := svc.SetOverwrite(context.Background(), testChannelID, testOwnerID, SetOverwriteParams{
		TargetID:   42,
		TargetKind: models.OverwriteRole,
		Allow:      int64(permissions.PermViewChannel),
		Deny:       int64(permissions.PermSendMessages),
	})
	if err != nil {
		t.Fatalf("SetOverwrite: %v", err)
	}
	if stored == nil || stored.ChannelID != testChannelID || stored.TargetID != 42 {
		t.Fatalf("overwrite not stored correctly: %+v", stored)
	}
	if ow.Deny != int64(permissions.PermSendMessages) {
		t.Fatalf("got deny %d, want %d", ow.Deny, int64(permissions.PermSendMessages))
	}

	events := dispatcher.eventNames()
	if len(events) != 1 || events[0] != "CHANNEL_OVERWRITE_UPDATE" {
		t.Fatalf("got events %v, want one CHANNEL_OVERWRITE_UPDATE", events)
	}
}

func TestDeleteOverwriteUnknownTarget(t *testing.T) {
	dispatcher := &mockDispatcher{}
	guilds := &mockGuildRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Guild, error) {
			return &models.Guild{ID: testGuildID, OwnerID: testOwnerID}, nil
		},
	}
	channels := &mockChannelRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.Channel, error) {
			ch := &models.Channel{ID: testChannelID, GuildID: testGuildID, Type: models.ChannelTypeGuildText}
			ch.AttachOverwrites([]models.PermissionOverwrite{{TargetID: 7, TargetKind: models.OverwriteRole}})
			return ch, nil
		},
	}

	perms := NewPermissionChecker(guilds, &mockMemberRepo{}, &mockRoleRepo{})
	svc := NewChannelService(channels, &mockOverwriteRepo{}, &mockMessageRepo{}, &mockUserRepo{}, &mockRoleRepo{}, perms, dispatcher, testGenerator(t), testLogger())

	err := svc.DeleteOverwrite(context.Background(), testChannelID, testOwnerID, 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestOpenDMRejectsSelf(t *testing.T) {
	svc := NewChannelService(&mockChannelRepo{}, &mockOverwriteRepo{}, &mockMessageRepo{}, &mockUserRepo{}, &mockRoleRepo{}, nil, &mockDispatcher{}, testGenerator(t), testLogger())
	_, err := svc.OpenDM(context.Background(), 5, 5)
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("got %v, want ErrBadRequest", err)
	}
}

func TestOpenDMCreatesChannelWithBothRecipients(t *testing.T) {
	dispatcher := &mockDispatcher{}
	var recipients []int64
	channels := &mockChannelRepo{
		CreateFn: func(ctx context.Context, channel *models.Channel) error {
			if channel.Type != models.ChannelTypeDM {
				t.Fatalf("got channel type %d, want DM", channel.Type)
			}
			return nil
		},
		AddRecipientFn: func(ctx context.Context, channelID, userID int64) error {
			recipients = append(recipients, userID)
			return nil
		},
		GetDMByRecipientsFn: func(ctx context.Context, userA, userB int64) (*models.Channel, error) {
			return nil, nil
		},
	}
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.User, error) {
			return &models.User{ID: id, Username: "other"}, nil
		},
	}

	svc := NewChannelService(channels, &mockOverwriteRepo{}, &mockMessageRepo{}, users, &mockRoleRepo{}, nil, dispatcher, testGenerator(t), testLogger())
	ch, err := svc.OpenDM(context.Background(), 5, 6)
	if err != nil {
		t.Fatalf("OpenDM: %v", err)
	}
	if ch.ID == 0 {
		t.Fatal("expected generated channel ID")
	}
	if len(recipients) != 2 || recipients[0] != 5 || recipients[1] != 6 {
		t.Fatalf("got recipients %v, want [5 6]", recipients)
	}
}

func TestOpenDMReturnsExistingChannel(t *testing.T) {
	dispatcher := &mockDispatcher{}
	var created *models.Channel
	creates := 0
	channels := &mockChannelRepo{
		CreateFn: func(ctx context.Context, channel *models.Channel) error {
			creates++
			c := *channel
			created = &c
			return nil
		},
		AddRecipientFn: func(ctx context.Context, channelID, userID int64) error {
			return nil
		},
		GetDMByRecipientsFn: func(ctx context.Context, userA, userB int64) (*models.Channel, error) {
			return created, nil
		},
	}
	users := &mockUserRepo{
		GetByIDFn: func(ctx context.Context, id int64) (*models.User, error) {
			return &models.User{ID: id, Username: "other"}, nil
		},
	}

	svc := NewChannelService(channels, &mockOverwriteRepo{}, &mockMessageRepo{}, users, &mockRoleRepo{}, nil, dispatcher, testGenerator(t), testLogger())

	first, err := svc.OpenDM(context.Background(), 5, 6)
	if err != nil {
		t.Fatalf("first OpenDM: %v", err)
	}
	second, err := svc.OpenDM(context.Background(), 5, 6)
	if err != nil {
		t.Fatalf("second OpenDM: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("same pair got two distinct DM channels (%d and %d)", first.ID, second.ID)
	}
	if creates != 1 {
		t.Fatalf("got %d channel creates, want 1", creates)
	}
	// Only the initial open announces the channel to the recipient.
	if events := dispatcher.eventNames(); len(events) != 1 {
		t.Fatalf("got events %v, want a single CHANNEL_CREATE", events)
	}
}
