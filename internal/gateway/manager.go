package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nkoval/parley/internal/auth"
	"github.com/nkoval/parley/internal/database"
)

const (
	heartbeatIntervalMs = 41250
	identifyTimeout     = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks are handled by the HTTP layer's CORS policy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Manager tracks active WebSocket connections and routes dispatch events
// to guild subscribers.
type Manager struct {
	mu            sync.RWMutex
	connections   map[int64]*Connection          // userID → connection
	subscriptions map[int64]map[int64]struct{}   // guildID → userIDs
	sessions      map[string]*Connection         // sessionID → connection

	tokens *auth.TokenService
	guilds database.GuildRepository
}

// NewManager creates a gateway Manager.
func NewManager(tokens *auth.TokenService, guilds database.GuildRepository) *Manager {
	return &Manager{
		connections:   make(map[int64]*Connection),
		subscriptions: make(map[int64]map[int64]struct{}),
		sessions:      make(map[string]*Connection),
		tokens:        tokens,
		guilds:        guilds,
	}
}

// HandleWebSocket upgrades GET /gateway and runs the session: HELLO, wait
// for IDENTIFY, then pump events until the client goes away.
func (m *Manager) HandleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	conn := newConnection(ws, m)
	conn.sendPayload(helloPayload())
	go conn.writePump()

	// The first client payload must be an IDENTIFY carrying a valid
	// access token.
	_ = ws.SetReadDeadline(time.Now().Add(identifyTimeout))
	_, message, err := ws.ReadMessage()
	if err != nil {
		conn.close()
		return nil
	}

	userID, ok := m.authenticate(message)
	if !ok {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed"),
			time.Now().Add(writeWait))
		conn.close()
		return nil
	}

	conn.UserID = userID
	conn.SessionID = uuid.NewString()
	m.register(c.Request().Context(), conn)

	conn.readPump()
	return nil
}

func (m *Manager) authenticate(message []byte) (int64, bool) {
	var p Payload
	if err := json.Unmarshal(message, &p); err != nil || p.Op != OpIdentify {
		return 0, false
	}
	var identify IdentifyData
	if err := json.Unmarshal(p.Data, &identify); err != nil {
		return 0, false
	}
	claims, err := m.tokens.ValidateAccessToken(identify.Token)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}

func (m *Manager) register(ctx context.Context, conn *Connection) {
	guilds, err := m.guilds.GetByUserID(ctx, conn.UserID)
	if err != nil {
		slog.Error("gateway: loading guilds for ready", "user_id", conn.UserID, "error", err)
	}

	guildIDs := make([]int64, 0, len(guilds))
	for _, g := range guilds {
		guildIDs = append(guildIDs, g.ID)
	}

	m.mu.Lock()
	if old, ok := m.connections[conn.UserID]; ok {
		old.close()
	}
	m.connections[conn.UserID] = conn
	m.sessions[conn.SessionID] = conn
	for _, gid := range guildIDs {
		if m.subscriptions[gid] == nil {
			m.subscriptions[gid] = make(map[int64]struct{})
		}
		m.subscriptions[gid][conn.UserID] = struct{}{}
	}
	m.mu.Unlock()

	conn.sendEvent(EventReady, ReadyData{
		SessionID: conn.SessionID,
		UserID:    conn.UserID,
		Guilds:    guildIDs,
	})
	slog.Info("gateway: session opened", "user_id", conn.UserID, "session_id", conn.SessionID)
}

func (m *Manager) unregister(conn *Connection) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.connections[conn.UserID]; ok && current == conn {
		delete(m.connections, conn.UserID)
	}
	delete(m.sessions, conn.SessionID)
	for _, users := range m.subscriptions {
		delete(users, conn.UserID)
	}
}

// DispatchToGuild sends an event to every connected subscriber of a guild.
func (m *Manager) DispatchToGuild(guildID int64, event string, data any) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for userID := range m.subscriptions[guildID] {
		if conn, ok := m.connections[userID]; ok {
			conn.sendEvent(event, data)
		}
	}
}

// DispatchToUser sends an event to one user's connection, if any.
func (m *Manager) DispatchToUser(userID int64, event string, data any) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if conn, ok := m.connections[userID]; ok {
		conn.sendEvent(event, data)
	}
}

// SubscribeToGuild adds a live subscription, e.g. after joining a guild.
func (m *Manager) SubscribeToGuild(userID, guildID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.subscriptions[guildID] == nil {
		m.subscriptions[guildID] = make(map[int64]struct{})
	}
	m.subscriptions[guildID][userID] = struct{}{}
}

// UnsubscribeFromGuild drops a live subscription.
func (m *Manager) UnsubscribeFromGuild(userID, guildID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.subscriptions[guildID], userID)
}

func helloPayload() Payload {
	data, _ := json.Marshal(HelloData{HeartbeatInterval: heartbeatIntervalMs})
	return Payload{Op: OpHello, Data: data}
}
