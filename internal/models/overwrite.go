package models

// OverwriteTarget tags what kind of entity a permission overwrite applies to.
type OverwriteTarget string

const (
	OverwriteRole   OverwriteTarget = "role"
	OverwriteMember OverwriteTarget = "member"
)

// PermissionOverwrite is a channel-scoped permission delta for one role or
// member. Allow and Deny are independent bitmasks; nothing forbids a bit
// appearing in both, and evaluation applies deny before allow.
type PermissionOverwrite struct {
	// ChannelID is a back-reference to the owning channel, stamped by
	// Channel.AttachOverwrites.
	ChannelID  int64           `json:"channel_id,string"`
	TargetID   int64           `json:"target_id,string"`
	TargetKind OverwriteTarget `json:"target_kind"`
	Allow      int64           `json:"allow,string"`
	Deny       int64           `json:"deny,string"`
}
