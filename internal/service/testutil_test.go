package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/nkoval/parley/internal/models"
	"github.com/nkoval/parley/internal/snowflake"
)

func testGenerator(t *testing.T) *snowflake.Generator {
	t.Helper()
	gen, err := snowflake.NewGenerator(1)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	return gen
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Mock repositories with function fields, so each test overrides only
// the calls it cares about. Unset methods fail the surrounding test if
// invoked.

type mockUserRepo struct {
	CreateFn        func(ctx context.Context, user *models.User) error
	GetByIDFn       func(ctx context.Context, id int64) (*models.User, error)
	GetByUsernameFn func(ctx context.Context, username string) (*models.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	return m.CreateFn(ctx, user)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.GetByUsernameFn(ctx, username)
}

type mockGuildRepo struct {
	CreateFn      func(ctx context.Context, guild *models.Guild) error
	GetByIDFn     func(ctx context.Context, id int64) (*models.Guild, error)
	GetByUserIDFn func(ctx context.Context, userID int64) ([]models.Guild, error)
	DeleteFn      func(ctx context.Context, id int64) error
}

func (m *mockGuildRepo) Create(ctx context.Context, guild *models.Guild) error {
	return m.CreateFn(ctx, guild)
}
func (m *mockGuildRepo) GetByID(ctx context.Context, id int64) (*models.Guild, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockGuildRepo) GetByUserID(ctx context.Context, userID int64) ([]models.Guild, error) {
	return m.GetByUserIDFn(ctx, userID)
}
func (m *mockGuildRepo) Delete(ctx context.Context, id int64) error {
	return m.DeleteFn(ctx, id)
}

type mockChannelRepo struct {
	CreateFn            func(ctx context.Context, channel *models.Channel) error
	GetByIDFn           func(ctx context.Context, id int64) (*models.Channel, error)
	GetByGuildIDFn      func(ctx context.Context, guildID int64) ([]models.Channel, error)
	UpdateFn            func(ctx context.Context, channel *models.Channel) error
	DeleteFn            func(ctx context.Context, id int64) error
	AddRecipientFn      func(ctx context.Context, channelID, userID int64) error
	IsRecipientFn       func(ctx context.Context, channelID, userID int64) (bool, error)
	GetDMByRecipientsFn func(ctx context.Context, userA, userB int64) (*models.Channel, error)
}

func (m *mockChannelRepo) Create(ctx context.Context, channel *models.Channel) error {
	return m.CreateFn(ctx, channel)
}
func (m *mockChannelRepo) GetByID(ctx context.Context, id int64) (*models.Channel, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockChannelRepo) GetByGuildID(ctx context.Context, guildID int64) ([]models.Channel, error) {
	return m.GetByGuildIDFn(ctx, guildID)
}
func (m *mockChannelRepo) Update(ctx context.Context, channel *models.Channel) error {
	return m.UpdateFn(ctx, channel)
}
func (m *mockChannelRepo) Delete(ctx context.Context, id int64) error {
	return m.DeleteFn(ctx, id)
}
func (m *mockChannelRepo) AddRecipient(ctx context.Context, channelID, userID int64) error {
	return m.AddRecipientFn(ctx, channelID, userID)
}
func (m *mockChannelRepo) IsRecipient(ctx context.Context, channelID, userID int64) (bool, error) {
	return m.IsRecipientFn(ctx, channelID, userID)
}
func (m *mockChannelRepo) GetDMByRecipients(ctx context.Context, userA, userB int64) (*models.Channel, error) {
	return m.GetDMByRecipientsFn(ctx, userA, userB)
}

type mockRoleRepo struct {
	CreateFn       func(ctx context.Context, role *models.Role) error
	GetByIDFn      func(ctx context.Context, id int64) (*models.Role, error)
	GetByGuildIDFn func(ctx context.Context, guildID int64) ([]models.Role, error)
	GetByMemberFn  func(ctx context.Context, guildID, userID int64) ([]models.Role, error)
	UpdateFn       func(ctx context.Context, role *models.Role) error
	DeleteFn       func(ctx context.Context, id int64) error
	AssignFn       func(ctx context.Context, guildID, userID, roleID int64) error
	UnassignFn     func(ctx context.Context, guildID, userID, roleID int64) error
}

func (m *mockRoleRepo) Create(ctx context.Context, role *models.Role) error {
	return m.CreateFn(ctx, role)
}
func (m *mockRoleRepo) GetByID(ctx context.Context, id int64) (*models.Role, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockRoleRepo) GetByGuildID(ctx context.Context, guildID int64) ([]models.Role, error) {
	return m.GetByGuildIDFn(ctx, guildID)
}
func (m *mockRoleRepo) GetByMember(ctx context.Context, guildID, userID int64) ([]models.Role, error) {
	return m.GetByMemberFn(ctx, guildID, userID)
}
func (m *mockRoleRepo) Update(ctx context.Context, role *models.Role) error {
	return m.UpdateFn(ctx, role)
}
func (m *mockRoleRepo) Delete(ctx context.Context, id int64) error {
	return m.DeleteFn(ctx, id)
}
func (m *mockRoleRepo) Assign(ctx context.Context, guildID, userID, roleID int64) error {
	return m.AssignFn(ctx, guildID, userID, roleID)
}
func (m *mockRoleRepo) Unassign(ctx context.Context, guildID, userID, roleID int64) error {
	return m.UnassignFn(ctx, guildID, userID, roleID)
}

type mockMemberRepo struct {
	CreateFn            func(ctx context.Context, member *models.Member) error
	GetByGuildAndUserFn func(ctx context.Context, guildID, userID int64) (*models.Member, error)
	GetByGuildIDFn      func(ctx context.Context, guildID int64, limit, offset int) ([]models.Member, error)
	DeleteFn            func(ctx context.Context, guildID, userID int64) error
}

func (m *mockMemberRepo) Create(ctx context.Context, member *models.Member) error {
	return m.CreateFn(ctx, member)
}
func (m *mockMemberRepo) GetByGuildAndUser(ctx context.Context, guildID, userID int64) (*models.Member, error) {
	return m.GetByGuildAndUserFn(ctx, guildID, userID)
}
func (m *mockMemberRepo) GetByGuildID(ctx context.Context, guildID int64, limit, offset int) ([]models.Member, error) {
	return m.GetByGuildIDFn(ctx, guildID, limit, offset)
}
func (m *mockMemberRepo) Delete(ctx context.Context, guildID, userID int64) error {
	return m.DeleteFn(ctx, guildID, userID)
}

type mockOverwriteRepo struct {
	SetFn          func(ctx context.Context, overwrite *models.PermissionOverwrite) error
	GetByChannelFn func(ctx context.Context, channelID int64) ([]models.PermissionOverwrite, error)
	DeleteFn       func(ctx context.Context, channelID, targetID int64) error
}

func (m *mockOverwriteRepo) Set(ctx context.Context, overwrite *models.PermissionOverwrite) error {
	return m.SetFn(ctx, overwrite)
}
func (m *mockOverwriteRepo) GetByChannel(ctx context.Context, channelID int64) ([]models.PermissionOverwrite, error) {
	return m.GetByChannelFn(ctx, channelID)
}
func (m *mockOverwriteRepo) Delete(ctx context.Context, channelID, targetID int64) error {
	return m.DeleteFn(ctx, channelID, targetID)
}

type mockMessageRepo struct {
	CreateFn       func(ctx context.Context, msg *models.Message) error
	GetByIDFn      func(ctx context.Context, id int64) (*models.MessageWithAuthor, error)
	ListMessagesFn func(ctx context.Context, channelID int64, before, after *int64, limit int) ([]models.Message, error)
	UpdateFn       func(ctx context.Context, msg *models.Message) error
	DeleteFn       func(ctx context.Context, id int64) error
	DeleteBulkFn   func(ctx context.Context, channelID int64, ids []int64) (int64, error)
}

func (m *mockMessageRepo) Create(ctx context.Context, msg *models.Message) error {
	return m.CreateFn(ctx, msg)
}
func (m *mockMessageRepo) GetByID(ctx context.Context, id int64) (*models.MessageWithAuthor, error) {
	return m.GetByIDFn(ctx, id)
}
func (m *mockMessageRepo) ListMessages(ctx context.Context, channelID int64, before, after *int64, limit int) ([]models.Message, error) {
	return m.ListMessagesFn(ctx, channelID, before, after, limit)
}
func (m *mockMessageRepo) Update(ctx context.Context, msg *models.Message) error {
	return m.UpdateFn(ctx, msg)
}
func (m *mockMessageRepo) Delete(ctx context.Context, id int64) error {
	return m.DeleteFn(ctx, id)
}
func (m *mockMessageRepo) DeleteBulk(ctx context.Context, channelID int64, ids []int64) (int64, error) {
	return m.DeleteBulkFn(ctx, channelID, ids)
}

// mockDispatcher records dispatched events.
type mockDispatcher struct {
	mu     sync.Mutex
	events []dispatchedEvent
}

type dispatchedEvent struct {
	GuildID int64
	UserID  int64
	Event   string
	Data    any
}

func (m *mockDispatcher) DispatchToGuild(guildID int64, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, dispatchedEvent{GuildID: guildID, Event: event, Data: data})
}

func (m *mockDispatcher) DispatchToUser(userID int64, event string, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, dispatchedEvent{UserID: userID, Event: event, Data: data})
}

func (m *mockDispatcher) SubscribeToGuild(userID, guildID int64)     {}
func (m *mockDispatcher) UnsubscribeFromGuild(userID, guildID int64) {}

func (m *mockDispatcher) eventNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, len(m.events))
	for i, e := range m.events {
		names[i] = e.Event
	}
	return names
}
