package gateway

import "encoding/json"

// Op codes for gateway payloads.
const (
	OpDispatch  = 0
	OpHeartbeat = 1
	OpIdentify  = 2
	OpHello     = 10
	OpAck       = 11
)

// Event names for DISPATCH payloads.
const (
	EventReady            = "READY"
	EventMessageCreate    = "MESSAGE_CREATE"
	EventMessageUpdate    = "MESSAGE_UPDATE"
	EventMessageDelete    = "MESSAGE_DELETE"
	EventMessageBulkDelete = "MESSAGE_BULK_DELETE"
	EventChannelCreate    = "CHANNEL_CREATE"
	EventChannelUpdate    = "CHANNEL_UPDATE"
	EventChannelDelete    = "CHANNEL_DELETE"
	EventOverwriteUpdate  = "CHANNEL_OVERWRITE_UPDATE"
	EventOverwriteDelete  = "CHANNEL_OVERWRITE_DELETE"
	EventGuildCreate      = "GUILD_CREATE"
	EventGuildDelete      = "GUILD_DELETE"
	EventGuildRoleCreate  = "GUILD_ROLE_CREATE"
	EventGuildRoleUpdate  = "GUILD_ROLE_UPDATE"
	EventGuildRoleDelete  = "GUILD_ROLE_DELETE"
	EventMemberAdd        = "GUILD_MEMBER_ADD"
	EventMemberRemove     = "GUILD_MEMBER_REMOVE"
)

// Payload is the envelope for all gateway messages.
type Payload struct {
	Op       int             `json:"op"`
	Data     json.RawMessage `json:"d,omitempty"`
	Sequence *int64          `json:"s,omitempty"`
	Event    *string         `json:"t,omitempty"`
}

// IdentifyData is sent by the client in an Op 2 IDENTIFY.
type IdentifyData struct {
	Token string `json:"token"`
}

// HelloData is sent by the server right after the WebSocket opens.
type HelloData struct {
	HeartbeatInterval int `json:"heartbeat_interval"`
}

// ReadyData is sent by the server after a successful IDENTIFY.
type ReadyData struct {
	SessionID string  `json:"session_id"`
	UserID    int64   `json:"user_id,string"`
	Guilds    []int64 `json:"guilds"`
}
