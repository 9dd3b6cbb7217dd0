package permissions

import (
	"sort"

	"github.com/nkoval/parley/internal/models"
)

// ComputeBasePermissions computes guild-level permissions for a member.
//  1. Start with the @everyone role permissions.
//  2. OR in every assigned role's permissions.
//  3. If the result includes ADMINISTRATOR, return PermAll.
func ComputeBasePermissions(everyoneRole models.Role, memberRoles []models.Role) Permission {
	perms := Permission(everyoneRole.Permissions)

	for _, role := range memberRoles {
		perms = perms.Add(Permission(role.Permissions))
	}

	if perms.Has(PermAdministrator) {
		return PermAll
	}
	return perms
}

// ApplyOverwrites folds the channel overwrites that target the user
// (directly, or through one of memberRoles) into base. memberRoles must
// include the @everyone role.
//
// Each matching overwrite is applied independently as "remove denied bits,
// then add allowed bits". That fold is not commutative when overwrites set
// conflicting bits, so the application order is part of the contract:
//
//  1. the @everyone role overwrite,
//  2. role overwrites in ascending role position (ties by target ID),
//  3. the member-targeted overwrite last.
//
// A later overwrite wins a conflict; in particular a direct member allow
// beats any role-level deny.
func ApplyOverwrites(base Permission, userID int64, memberRoles []models.Role, overwrites []models.PermissionOverwrite) Permission {
	if base.Has(PermAdministrator) {
		return PermAll
	}

	rolePosition := make(map[int64]int, len(memberRoles))
	var everyoneRoleID int64
	for _, r := range memberRoles {
		rolePosition[r.ID] = r.Position
		if r.IsDefault {
			everyoneRoleID = r.ID
		}
	}

	matching := make([]models.PermissionOverwrite, 0, len(overwrites))
	for _, ow := range overwrites {
		switch ow.TargetKind {
		case models.OverwriteMember:
			if ow.TargetID == userID {
				matching = append(matching, ow)
			}
		case models.OverwriteRole:
			if _, ok := rolePosition[ow.TargetID]; ok {
				matching = append(matching, ow)
			}
		}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return overwriteLess(matching[i], matching[j], everyoneRoleID, rolePosition)
	})

	perms := base
	for _, ow := range matching {
		perms = perms.Remove(Permission(ow.Deny))
		perms = perms.Add(Permission(ow.Allow))
	}
	return perms
}

// Application classes for the canonical overwrite order.
const (
	classEveryone = iota
	classRole
	classMember
)

func overwriteClass(ow models.PermissionOverwrite, everyoneRoleID int64) int {
	if ow.TargetKind == models.OverwriteMember {
		return classMember
	}
	if ow.TargetID == everyoneRoleID {
		return classEveryone
	}
	return classRole
}

// overwriteLess orders overwrites for application: @everyone first, then
// roles by ascending position, member last. Roles sharing a position are
// ordered by the full target ID, so the ordering is total and never falls
// back to input order.
func overwriteLess(a, b models.PermissionOverwrite, everyoneRoleID int64, rolePosition map[int64]int) bool {
	ca, cb := overwriteClass(a, everyoneRoleID), overwriteClass(b, everyoneRoleID)
	if ca != cb {
		return ca < cb
	}
	if ca == classRole {
		if pa, pb := rolePosition[a.TargetID], rolePosition[b.TargetID]; pa != pb {
			return pa < pb
		}
	}
	return a.TargetID < b.TargetID
}

// ResolveChannel computes the effective permissions for a user in a channel.
//
// Direct and group DM channels carry no role model: every participant gets
// PermAll, a deliberate shortcut matching owner-only DM semantics rather
// than a general security policy. For guild channels, the guild base
// permissions are folded with the channel's attached overwrites.
func ResolveChannel(channel *models.Channel, userID int64, everyoneRole models.Role, memberRoles []models.Role) Permission {
	if !channel.IsGuild() {
		return PermAll
	}

	base := ComputeBasePermissions(everyoneRole, memberRoles)

	overwrites := make([]models.PermissionOverwrite, 0, len(channel.Overwrites))
	for _, ow := range channel.Overwrites {
		overwrites = append(overwrites, ow)
	}

	roles := append([]models.Role{everyoneRole}, memberRoles...)
	return ApplyOverwrites(base, userID, roles, overwrites)
}
