package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nkoval/parley/internal/database"
	"github.com/nkoval/parley/internal/gateway"
	"github.com/nkoval/parley/internal/models"
	"github.com/nkoval/parley/internal/permissions"
	"github.com/nkoval/parley/internal/snowflake"
)

type GuildService struct {
	guilds     database.GuildRepository
	channels   database.ChannelRepository
	roles      database.RoleRepository
	members    database.MemberRepository
	perms      *PermissionChecker
	dispatcher gateway.Dispatcher
	snowflake  *snowflake.Generator
}

func NewGuildService(
	guilds database.GuildRepository,
	channels database.ChannelRepository,
	roles database.RoleRepository,
	members database.MemberRepository,
	perms *PermissionChecker,
	dispatcher gateway.Dispatcher,
	gen *snowflake.Generator,
) *GuildService {
	return &GuildService{
		guilds:     guilds,
		channels:   channels,
		roles:      roles,
		members:    members,
		perms:      perms,
		dispatcher: dispatcher,
		snowflake:  gen,
	}
}

// Create makes a new guild owned by the caller, seeding the @everyone
// role, a "general" text channel, and the owner's membership.
func (s *GuildService) Create(ctx context.Context, ownerID int64, name string) (*models.Guild, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 100 {
		return nil, BadRequest("INVALID_NAME", "guild name must be 1-100 characters")
	}

	guild := &models.Guild{
		ID:        s.snowflake.Generate().Int64(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.guilds.Create(ctx, guild); err != nil {
		return nil, fmt.Errorf("creating guild: %w", err)
	}

	everyone := &models.Role{
		ID:          s.snowflake.Generate().Int64(),
		GuildID:     guild.ID,
		Name:        "@everyone",
		Permissions: int64(permissions.DefaultEveryonePerms),
		Position:    0,
		IsDefault:   true,
	}
	if err := s.roles.Create(ctx, everyone); err != nil {
		return nil, fmt.Errorf("seeding everyone role: %w", err)
	}

	general := &models.Channel{
		ID:      s.snowflake.Generate().Int64(),
		GuildID: guild.ID,
		Name:    "general",
		Type:    models.ChannelTypeGuildText,
	}
	if err := s.channels.Create(ctx, general); err != nil {
		return nil, fmt.Errorf("seeding general channel: %w", err)
	}

	member := &models.Member{
		GuildID:  guild.ID,
		UserID:   ownerID,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("adding owner membership: %w", err)
	}

	s.dispatcher.SubscribeToGuild(ownerID, guild.ID)
	s.dispatcher.DispatchToUser(ownerID, gateway.EventGuildCreate, guild)
	return guild, nil
}

// Get loads a guild; the caller must be a member.
func (s *GuildService) Get(ctx context.Context, guildID, userID int64) (*models.Guild, error) {
	guild, err := s.guilds.GetByID(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("loading guild %d: %w", guildID, err)
	}
	if guild == nil {
		return nil, NotFound("UNKNOWN_GUILD", "guild not found")
	}
	member, err := s.members.GetByGuildAndUser(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("loading member: %w", err)
	}
	if member == nil {
		return nil, NotFound("UNKNOWN_GUILD", "guild not found")
	}
	return guild, nil
}

// ListForUser returns all guilds the user belongs to.
func (s *GuildService) ListForUser(ctx context.Context, userID int64) ([]models.Guild, error) {
	guilds, err := s.guilds.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing guilds for user %d: %w", userID, err)
	}
	return guilds, nil
}

// Delete removes a guild. Only the owner may delete it.
func (s *GuildService) Delete(ctx context.Context, guildID, userID int64) error {
	guild, err := s.guilds.GetByID(ctx, guildID)
	if err != nil {
		return fmt.Errorf("loading guild %d: %w", guildID, err)
	}
	if guild == nil {
		return NotFound("UNKNOWN_GUILD", "guild not found")
	}
	if guild.OwnerID != userID {
		return Forbidden("NOT_OWNER", "only the guild owner can delete it")
	}
	if err := s.guilds.Delete(ctx, guildID); err != nil {
		return fmt.Errorf("deleting guild %d: %w", guildID, err)
	}
	s.dispatcher.DispatchToGuild(guildID, gateway.EventGuildDelete, map[string]any{"id": guildID})
	return nil
}

// ListChannels returns the guild's channels visible to members.
func (s *GuildService) ListChannels(ctx context.Context, guildID, userID int64) ([]models.Channel, error) {
	if _, err := s.Get(ctx, guildID, userID); err != nil {
		return nil, err
	}
	channels, err := s.channels.GetByGuildID(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}
	return channels, nil
}

// Join adds the caller to the guild and subscribes their gateway sessions.
func (s *GuildService) Join(ctx context.Context, guildID, userID int64) (*models.Member, error) {
	guild, err := s.guilds.GetByID(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("loading guild %d: %w", guildID, err)
	}
	if guild == nil {
		return nil, NotFound("UNKNOWN_GUILD", "guild not found")
	}
	existing, err := s.members.GetByGuildAndUser(ctx, guildID, userID)
	if err != nil {
		return nil, fmt.Errorf("loading member: %w", err)
	}
	if existing != nil {
		return nil, Conflict("ALREADY_MEMBER", "you are already a member of this guild")
	}

	member := &models.Member{
		GuildID:  guildID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, fmt.Errorf("creating member: %w", err)
	}

	s.dispatcher.SubscribeToGuild(userID, guildID)
	s.dispatcher.DispatchToGuild(guildID, gateway.EventMemberAdd, member)
	return member, nil
}

// Leave removes the caller from the guild. Owners cannot leave their own
// guild; they must delete it or transfer ownership out of band.
func (s *GuildService) Leave(ctx context.Context, guildID, userID int64) error {
	guild, err := s.guilds.GetByID(ctx, guildID)
	if err != nil {
		return fmt.Errorf("loading guild %d: %w", guildID, err)
	}
	if guild == nil {
		return NotFound("UNKNOWN_GUILD", "guild not found")
	}
	if guild.OwnerID == userID {
		return BadRequest("OWNER_CANNOT_LEAVE", "the owner cannot leave their own guild")
	}
	if err := s.members.Delete(ctx, guildID, userID); err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	s.dispatcher.UnsubscribeFromGuild(userID, guildID)
	s.dispatcher.DispatchToGuild(guildID, gateway.EventMemberRemove, map[string]any{
		"guild_id": guildID,
		"user_id":  userID,
	})
	return nil
}

// Kick removes another member. Requires KICK_MEMBERS; the owner cannot
// be kicked.
func (s *GuildService) Kick(ctx context.Context, guildID, userID, targetID int64) error {
	guild, err := s.guilds.GetByID(ctx, guildID)
	if err != nil {
		return fmt.Errorf("loading guild %d: %w", guildID, err)
	}
	if guild == nil {
		return NotFound("UNKNOWN_GUILD", "guild not found")
	}
	if targetID == guild.OwnerID {
		return Forbidden("CANNOT_KICK_OWNER", "the guild owner cannot be kicked")
	}
	if err := s.perms.RequireGuildPermission(ctx, guildID, userID, permissions.PermKickMembers); err != nil {
		return err
	}
	target, err := s.members.GetByGuildAndUser(ctx, guildID, targetID)
	if err != nil {
		return fmt.Errorf("loading member: %w", err)
	}
	if target == nil {
		return NotFound("UNKNOWN_MEMBER", "member not found")
	}
	if err := s.members.Delete(ctx, guildID, targetID); err != nil {
		return fmt.Errorf("removing member: %w", err)
	}
	s.dispatcher.UnsubscribeFromGuild(targetID, guildID)
	s.dispatcher.DispatchToGuild(guildID, gateway.EventMemberRemove, map[string]any{
		"guild_id": guildID,
		"user_id":  targetID,
	})
	return nil
}

// ListMembers pages through the guild's members.
func (s *GuildService) ListMembers(ctx context.Context, guildID, userID int64, limit, offset int) ([]models.Member, error) {
	if _, err := s.Get(ctx, guildID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	members, err := s.members.GetByGuildID(ctx, guildID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing members: %w", err)
	}
	return members, nil
}

type RoleParams struct {
	Name        string
	Color       int
	Permissions int64
	Position    int
}

// CreateRole adds a role to the guild. Requires MANAGE_ROLES. New roles
// cannot sit at position 0, which is reserved for @everyone.
func (s *GuildService) CreateRole(ctx context.Context, guildID, userID int64, params RoleParams) (*models.Role, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" || len(name) > 100 {
		return nil, BadRequest("INVALID_NAME", "role name must be 1-100 characters")
	}
	if params.Position <= 0 {
		return nil, BadRequest("INVALID_POSITION", "role position must be above 0")
	}
	if err := s.perms.RequireGuildPermission(ctx, guildID, userID, permissions.PermManageRoles); err != nil {
		return nil, err
	}

	role := &models.Role{
		ID:          s.snowflake.Generate().Int64(),
		GuildID:     guildID,
		Name:        name,
		Color:       params.Color,
		Permissions: params.Permissions,
		Position:    params.Position,
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("creating role: %w", err)
	}
	s.dispatcher.DispatchToGuild(guildID, gateway.EventGuildRoleCreate, role)
	return role, nil
}

// ListRoles returns all of the guild's roles.
func (s *GuildService) ListRoles(ctx context.Context, guildID, userID int64) ([]models.Role, error) {
	if _, err := s.Get(ctx, guildID, userID); err != nil {
		return nil, err
	}
	roles, err := s.roles.GetByGuildID(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("listing roles: %w", err)
	}
	return roles, nil
}

// UpdateRole patches a role. Requires MANAGE_ROLES. The @everyone role's
// position cannot change.
func (s *GuildService) UpdateRole(ctx context.Context, guildID, roleID, userID int64, params RoleParams) (*models.Role, error) {
	if err := s.perms.RequireGuildPermission(ctx, guildID, userID, permissions.PermManageRoles); err != nil {
		return nil, err
	}
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("loading role %d: %w", roleID, err)
	}
	if role == nil || role.GuildID != guildID {
		return nil, NotFound("UNKNOWN_ROLE", "role not found")
	}

	if name := strings.TrimSpace(params.Name); name != "" {
		if len(name) > 100 {
			return nil, BadRequest("INVALID_NAME", "role name must be 1-100 characters")
		}
		role.Name = name
	}
	role.Color = params.Color
	role.Permissions = params.Permissions
	if !role.IsDefault && params.Position > 0 {
		role.Position = params.Position
	}

	if err := s.roles.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("updating role %d: %w", roleID, err)
	}
	s.dispatcher.DispatchToGuild(guildID, gateway.EventGuildRoleUpdate, role)
	return role, nil
}

// DeleteRole removes a role. The @everyone role cannot be deleted.
func (s *GuildService) DeleteRole(ctx context.Context, guildID, roleID, userID int64) error {
	if err := s.perms.RequireGuildPermission(ctx, guildID, userID, permissions.PermManageRoles); err != nil {
		return err
	}
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("loading role %d: %w", roleID, err)
	}
	if role == nil || role.GuildID != guildID {
		return NotFound("UNKNOWN_ROLE", "role not found")
	}
	if role.IsDefault {
		return BadRequest("CANNOT_DELETE_EVERYONE", "the @everyone role cannot be deleted")
	}
	if err := s.roles.Delete(ctx, roleID); err != nil {
		return fmt.Errorf("deleting role %d: %w", roleID, err)
	}
	s.dispatcher.DispatchToGuild(guildID, gateway.EventGuildRoleDelete, map[string]any{
		"guild_id": guildID,
		"role_id":  roleID,
	})
	return nil
}

// AssignRole gives a member a role. Requires MANAGE_ROLES.
func (s *GuildService) AssignRole(ctx context.Context, guildID, targetID, roleID, userID int64) error {
	if err := s.perms.RequireGuildPermission(ctx, guildID, userID, permissions.PermManageRoles); err != nil {
		return err
	}
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return fmt.Errorf("loading role %d: %w", roleID, err)
	}
	if role == nil || role.GuildID != guildID {
		return NotFound("UNKNOWN_ROLE", "role not found")
	}
	if role.IsDefault {
		return BadRequest("CANNOT_ASSIGN_EVERYONE", "the @everyone role applies to everyone already")
	}
	member, err := s.members.GetByGuildAndUser(ctx, guildID, targetID)
	if err != nil {
		return fmt.Errorf("loading member: %w", err)
	}
	if member == nil {
		return NotFound("UNKNOWN_MEMBER", "member not found")
	}
	if err := s.roles.Assign(ctx, guildID, targetID, roleID); err != nil {
		return fmt.Errorf("assigning role: %w", err)
	}
	s.dispatcher.DispatchToGuild(guildID, gateway.EventGuildRoleUpdate, map[string]any{
		"guild_id": guildID,
		"user_id":  targetID,
		"role_id":  roleID,
	})
	return nil
}

// UnassignRole takes a role away from a member. Requires MANAGE_ROLES.
func (s *GuildService) UnassignRole(ctx context.Context, guildID, targetID, roleID, userID int64) error {
	if err := s.perms.RequireGuildPermission(ctx, guildID, userID, permissions.PermManageRoles); err != nil {
		return err
	}
	if err := s.roles.Unassign(ctx, guildID, targetID, roleID); err != nil {
		return fmt.Errorf("unassigning role: %w", err)
	}
	s.dispatcher.DispatchToGuild(guildID, gateway.EventGuildRoleUpdate, map[string]any{
		"guild_id": guildID,
		"user_id":  targetID,
		"role_id":  roleID,
	})
	return nil
}
