package models

type Role struct {
	ID          int64  `json:"id,string"`
	GuildID     int64  `json:"guild_id,string"`
	Name        string `json:"name"`
	Color       int    `json:"color"`
	Permissions int64  `json:"permissions,string"`
	// Position orders roles within a guild; higher positions outrank
	// lower ones. The @everyone role sits at position 0.
	Position  int  `json:"position"`
	IsDefault bool `json:"is_default"`
}
