package models

import "time"

type Member struct {
	GuildID  int64     `json:"guild_id,string"`
	UserID   int64     `json:"user_id,string"`
	Nickname *string   `json:"nickname,omitempty"`
	JoinedAt time.Time `json:"joined_at"`
	// RoleIDs lists the member's assigned roles, excluding @everyone.
	RoleIDs []int64 `json:"role_ids"`
}

// HasRole reports whether the member carries the given role.
func (m *Member) HasRole(roleID int64) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
