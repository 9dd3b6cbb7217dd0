package models

// ChannelType discriminates guild channels from direct conversations.
type ChannelType int

const (
	ChannelTypeGuildText  ChannelType = 0
	ChannelTypeDM         ChannelType = 1
	ChannelTypeGuildVoice ChannelType = 2
	ChannelTypeGroupDM    ChannelType = 3
)

type Channel struct {
	ID int64 `json:"id,string"`
	// GuildID is zero for DM and group DM channels.
	GuildID  int64       `json:"guild_id,string,omitempty"`
	Name     string      `json:"name,omitempty"`
	Type     ChannelType `json:"type"`
	Position int         `json:"position"`
	Topic    *string     `json:"topic,omitempty"`
	// Recipients is populated for DM and group DM channels only.
	Recipients []User `json:"recipients,omitempty"`
	// Overwrites maps target ID (role or user) to the channel's permission
	// overwrite for that target. The channel owns these: they are created
	// and destroyed only through channel operations.
	Overwrites map[int64]PermissionOverwrite `json:"permission_overwrites,omitempty"`
}

// AttachOverwrites stores the given overwrites on the channel, stamping
// each one's ChannelID back-reference. The back-reference is set once here
// and never reassigned.
func (c *Channel) AttachOverwrites(overwrites []PermissionOverwrite) {
	if c.Overwrites == nil {
		c.Overwrites = make(map[int64]PermissionOverwrite, len(overwrites))
	}
	for _, ow := range overwrites {
		ow.ChannelID = c.ID
		c.Overwrites[ow.TargetID] = ow
	}
}

// IsGuild reports whether the channel belongs to a guild.
func (c *Channel) IsGuild() bool {
	return c.Type == ChannelTypeGuildText || c.Type == ChannelTypeGuildVoice
}

// IsDM reports whether the channel is a direct conversation.
func (c *Channel) IsDM() bool {
	return c.Type == ChannelTypeDM || c.Type == ChannelTypeGroupDM
}

// IsVoice reports whether the channel supports voice.
func (c *Channel) IsVoice() bool {
	return c.Type == ChannelTypeGuildVoice
}
