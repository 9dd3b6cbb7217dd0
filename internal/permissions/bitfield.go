package permissions

import "strings"

// Permission is a bitfield representing a set of channel/guild permissions.
type Permission int64

const (
	PermViewChannel        Permission = 1 << 0
	PermSendMessages       Permission = 1 << 1
	PermManageMessages     Permission = 1 << 2
	PermReadMessageHistory Permission = 1 << 3
	PermMentionEveryone    Permission = 1 << 4
	PermManageChannels     Permission = 1 << 5
	PermManageOverwrites   Permission = 1 << 6
	PermManageRoles        Permission = 1 << 7
	PermManageGuild        Permission = 1 << 8
	PermKickMembers        Permission = 1 << 9
	PermChangeNickname     Permission = 1 << 10
	PermManageNicknames    Permission = 1 << 11
	PermConnect            Permission = 1 << 12 // voice
	PermSpeak              Permission = 1 << 13 // voice
	PermMuteMembers        Permission = 1 << 14 // voice
	PermAdministrator      Permission = 1 << 30 // bypasses all checks

	PermNone Permission = 0
	// PermAll is every permission bit; granted wholesale to administrators
	// and to participants of direct-message channels.
	PermAll = Permission(0x7FFFFFFFFFFFFFFF)
)

// Has returns true if p contains all bits in perm.
func (p Permission) Has(perm Permission) bool { return p&perm == perm }

// Add returns p with the bits from perm set.
func (p Permission) Add(perm Permission) Permission { return p | perm }

// Remove returns p with the bits from perm cleared.
func (p Permission) Remove(perm Permission) Permission { return p &^ perm }

// DefaultEveryonePerms is the permission set seeded onto a new guild's
// @everyone role.
var DefaultEveryonePerms = PermViewChannel | PermSendMessages | PermReadMessageHistory | PermConnect | PermSpeak | PermChangeNickname

var permNames = map[Permission]string{
	PermViewChannel:        "VIEW_CHANNEL",
	PermSendMessages:       "SEND_MESSAGES",
	PermManageMessages:     "MANAGE_MESSAGES",
	PermReadMessageHistory: "READ_MESSAGE_HISTORY",
	PermMentionEveryone:    "MENTION_EVERYONE",
	PermManageChannels:     "MANAGE_CHANNELS",
	PermManageOverwrites:   "MANAGE_OVERWRITES",
	PermManageRoles:        "MANAGE_ROLES",
	PermManageGuild:        "MANAGE_GUILD",
	PermKickMembers:        "KICK_MEMBERS",
	PermChangeNickname:     "CHANGE_NICKNAME",
	PermManageNicknames:    "MANAGE_NICKNAMES",
	PermConnect:            "CONNECT",
	PermSpeak:              "SPEAK",
	PermMuteMembers:        "MUTE_MEMBERS",
	PermAdministrator:      "ADMINISTRATOR",
}

// String lists the set permission names separated by " | ".
func (p Permission) String() string {
	if p == 0 {
		return "NONE"
	}

	var names []string
	for bit, name := range permNames {
		if p.Has(bit) {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return "UNKNOWN"
	}
	return strings.Join(names, " | ")
}
