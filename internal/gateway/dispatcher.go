package gateway

// Dispatcher is the surface services use to fan events out to connected
// clients. The concrete Manager implements it.
type Dispatcher interface {
	DispatchToGuild(guildID int64, event string, data any)
	DispatchToUser(userID int64, event string, data any)
	SubscribeToGuild(userID, guildID int64)
	UnsubscribeFromGuild(userID, guildID int64)
}
