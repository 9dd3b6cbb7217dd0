package service

import (
	"context"
	"fmt"

	"github.com/nkoval/parley/internal/database"
	"github.com/nkoval/parley/internal/models"
	"github.com/nkoval/parley/internal/permissions"
)

// PermissionChecker resolves effective permissions for users in guilds and
// channels. Lookup failures from the repositories are propagated, never
// silently turned into an allow or deny.
type PermissionChecker struct {
	guilds  database.GuildRepository
	members database.MemberRepository
	roles   database.RoleRepository
}

// NewPermissionChecker creates a PermissionChecker.
func NewPermissionChecker(
	guilds database.GuildRepository,
	members database.MemberRepository,
	roles database.RoleRepository,
) *PermissionChecker {
	return &PermissionChecker{guilds: guilds, members: members, roles: roles}
}

// ResolveChannel computes the user's effective permission bitmask in a
// channel. Non-guild channels (DM/group DM) short-circuit to PermAll. For
// guild channels the guild base permissions are computed from the user's
// roles and folded with the channel's attached overwrites; guild owners
// get PermAll outright.
func (p *PermissionChecker) ResolveChannel(ctx context.Context, channel *models.Channel, userID int64) (permissions.Permission, error) {
	if !channel.IsGuild() {
		return permissions.PermAll, nil
	}

	guild, err := p.guilds.GetByID(ctx, channel.GuildID)
	if err != nil {
		return 0, fmt.Errorf("loading guild %d: %w", channel.GuildID, err)
	}
	if guild == nil {
		return 0, NotFound("NOT_FOUND", "guild not found")
	}
	if guild.OwnerID == userID {
		return permissions.PermAll, nil
	}

	member, err := p.members.GetByGuildAndUser(ctx, channel.GuildID, userID)
	if err != nil {
		return 0, fmt.Errorf("loading member %d: %w", userID, err)
	}
	if member == nil {
		return 0, Forbidden("NOT_A_MEMBER", "you are not a member of this guild")
	}

	everyoneRole, memberRoles, err := p.loadRoles(ctx, channel.GuildID, userID)
	if err != nil {
		return 0, err
	}

	return permissions.ResolveChannel(channel, userID, everyoneRole, memberRoles), nil
}

// RequireChannelPermission fails with MISSING_PERMISSIONS unless the
// user's resolved channel permissions contain perm.
func (p *PermissionChecker) RequireChannelPermission(ctx context.Context, channel *models.Channel, userID int64, perm permissions.Permission) error {
	resolved, err := p.ResolveChannel(ctx, channel, userID)
	if err != nil {
		return err
	}
	if !resolved.Has(perm) {
		return Forbidden("MISSING_PERMISSIONS", "you do not have the required permissions")
	}
	return nil
}

// RequireGuildPermission checks a guild-level permission, without channel
// overwrites. Owners bypass the check.
func (p *PermissionChecker) RequireGuildPermission(ctx context.Context, guildID, userID int64, perm permissions.Permission) error {
	guild, err := p.guilds.GetByID(ctx, guildID)
	if err != nil {
		return fmt.Errorf("loading guild %d: %w", guildID, err)
	}
	if guild == nil {
		return NotFound("NOT_FOUND", "guild not found")
	}
	if guild.OwnerID == userID {
		return nil
	}

	member, err := p.members.GetByGuildAndUser(ctx, guildID, userID)
	if err != nil {
		return fmt.Errorf("loading member %d: %w", userID, err)
	}
	if member == nil {
		return Forbidden("NOT_A_MEMBER", "you are not a member of this guild")
	}

	everyoneRole, memberRoles, err := p.loadRoles(ctx, guildID, userID)
	if err != nil {
		return err
	}

	if !permissions.ComputeBasePermissions(everyoneRole, memberRoles).Has(perm) {
		return Forbidden("MISSING_PERMISSIONS", "you do not have the required permissions")
	}
	return nil
}

// IsGuildOwner reports whether the user owns the guild.
func (p *PermissionChecker) IsGuildOwner(ctx context.Context, guildID, userID int64) (bool, error) {
	guild, err := p.guilds.GetByID(ctx, guildID)
	if err != nil {
		return false, fmt.Errorf("loading guild %d: %w", guildID, err)
	}
	return guild != nil && guild.OwnerID == userID, nil
}

func (p *PermissionChecker) loadRoles(ctx context.Context, guildID, userID int64) (models.Role, []models.Role, error) {
	memberRoles, err := p.roles.GetByMember(ctx, guildID, userID)
	if err != nil {
		return models.Role{}, nil, fmt.Errorf("loading member roles: %w", err)
	}

	allRoles, err := p.roles.GetByGuildID(ctx, guildID)
	if err != nil {
		return models.Role{}, nil, fmt.Errorf("loading guild roles: %w", err)
	}

	var everyoneRole models.Role
	for _, r := range allRoles {
		if r.IsDefault {
			everyoneRole = r
			break
		}
	}
	return everyoneRole, memberRoles, nil
}
