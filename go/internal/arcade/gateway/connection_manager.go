package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/arcade/go/internal/arcade/events"
	"github.com/rs/zerolog/log"
)

// ConnectionManager manages WebSocket connections of room subscribers. It is the events.Sink,
// room.Notifier and room.Kicker of the service: every entry point only enqueues work, so
// rooms can call it with their lock held.
type ConnectionManager struct {
	// Connection pools organized by room id and by player
	roomConnections   map[int]map[*Connection]bool
	playerConnections map[string]map[*Connection]bool
	mu                sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection represents a WebSocket connection to a client
type Connection struct {
	ID       string
	PlayerID string
	RoomID   int
	Conn     *websocket.Conn
	Send     chan []byte
	Manager  *ConnectionManager

	ConnectedAt time.Time

	closeOnce sync.Once
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	BroadcastBuffer int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is a unit of work for the broadcast loop. RoomID 0 addresses players
// wherever they are connected; PlayerIDs narrows the recipients.
type BroadcastMessage struct {
	RoomID    int
	PlayerIDs []string
	Message   OutboundMessage
	// Close disconnects the recipients once the message is queued.
	Close bool
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		BroadcastBuffer: 1000,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	if config.BroadcastBuffer <= 0 {
		config.BroadcastBuffer = DefaultConnectionConfig().BroadcastBuffer
	}
	return &ConnectionManager{
		roomConnections:   make(map[int]map[*Connection]bool),
		playerConnections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, config.BroadcastBuffer),
	}
}

// Start processes broadcast messages until ctx is done.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket and subscribes it to a room.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, playerID string, roomID int) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		PlayerID:    playerID,
		RoomID:      roomID,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("player_id", playerID).
		Int("room_id", roomID).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.roomConnections[conn.RoomID] == nil {
		cm.roomConnections[conn.RoomID] = make(map[*Connection]bool)
	}
	cm.roomConnections[conn.RoomID][conn] = true

	if cm.playerConnections[conn.PlayerID] == nil {
		cm.playerConnections[conn.PlayerID] = make(map[*Connection]bool)
	}
	cm.playerConnections[conn.PlayerID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Int("room_id", conn.RoomID).
		Int("total_connections", len(cm.roomConnections[conn.RoomID])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	connections, exists := cm.roomConnections[conn.RoomID]
	if !exists {
		return
	}
	if _, exists := connections[conn]; !exists {
		return
	}

	delete(connections, conn)
	if len(connections) == 0 {
		delete(cm.roomConnections, conn.RoomID)
	}
	if byPlayer := cm.playerConnections[conn.PlayerID]; byPlayer != nil {
		delete(byPlayer, conn)
		if len(byPlayer) == 0 {
			delete(cm.playerConnections, conn.PlayerID)
		}
	}
	close(conn.Send)

	log.Info().
		Str("connection_id", conn.ID).
		Str("player_id", conn.PlayerID).
		Int("room_id", conn.RoomID).
		Msg("connection unregistered")
}

func (cm *ConnectionManager) enqueue(message BroadcastMessage) {
	select {
	case cm.broadcastCh <- message:
	default:
		log.Warn().
			Int("room_id", message.RoomID).
			Str("kind", string(message.Message.Kind)).
			Msg("broadcast channel full, dropping message")
	}
}

// BroadcastToRoom sends an event to every subscriber of a room.
func (cm *ConnectionManager) BroadcastToRoom(roomID int, event events.RoomEvent) {
	cm.enqueue(BroadcastMessage{
		RoomID:  roomID,
		Message: OutboundMessage{Kind: KindEvent, RoomID: roomID, Event: &event},
	})
}

// Publish implements events.Sink.
func (cm *ConnectionManager) Publish(event events.RoomEvent) {
	cm.BroadcastToRoom(event.RoomID, event)
}

// Notify sends a chat notice to the given players on every connection they hold.
func (cm *ConnectionManager) Notify(recipients []uuid.UUID, message string) {
	if len(recipients) == 0 {
		return
	}
	ids := make([]string, len(recipients))
	for i, r := range recipients {
		ids[i] = r.String()
	}
	cm.enqueue(BroadcastMessage{
		PlayerIDs: ids,
		Message:   OutboundMessage{Kind: KindNotice, Notice: message},
	})
}

// Kick tells a banned player they were removed and closes their connections to the room.
func (cm *ConnectionManager) Kick(roomID int, player uuid.UUID) {
	cm.enqueue(BroadcastMessage{
		RoomID:    roomID,
		PlayerIDs: []string{player.String()},
		Message:   OutboundMessage{Kind: KindKicked, RoomID: roomID},
		Close:     true,
	})
}

// targetsLocked resolves the recipients of a message. cm.mu must be held.
func (cm *ConnectionManager) targetsLocked(message BroadcastMessage) []*Connection {
	var out []*Connection
	if message.RoomID == 0 {
		for _, id := range message.PlayerIDs {
			for conn := range cm.playerConnections[id] {
				out = append(out, conn)
			}
		}
		return out
	}

	wanted := make(map[string]bool, len(message.PlayerIDs))
	for _, id := range message.PlayerIDs {
		wanted[id] = true
	}
	for conn := range cm.roomConnections[message.RoomID] {
		if len(wanted) > 0 && !wanted[conn.PlayerID] {
			continue
		}
		out = append(out, conn)
	}
	return out
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	data, err := json.Marshal(message.Message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal message for broadcast")
		return
	}

	// Sends happen under the read lock so no Send channel is closed underneath them.
	var slow, done []*Connection
	cm.mu.RLock()
	targets := cm.targetsLocked(message)
	for _, conn := range targets {
		select {
		case conn.Send <- data:
			if message.Close {
				done = append(done, conn)
			}
		default:
			slow = append(slow, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range slow {
		log.Warn().
			Str("connection_id", conn.ID).
			Str("player_id", conn.PlayerID).
			Msg("connection send buffer full, closing connection")
		cm.unregisterConnection(conn)
		conn.close()
	}
	// Unregistering closes Send; the write pump flushes what is queued and sends a close frame.
	for _, conn := range done {
		cm.unregisterConnection(conn)
	}

	if len(targets) > 0 {
		log.Debug().
			Str("kind", string(message.Message.Kind)).
			Int("room_id", message.RoomID).
			Int("connections", len(targets)).
			Msg("message broadcasted")
	}
}

// ConnectionStats is a summary of active connections.
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveRooms      int            `json:"active_rooms"`
	RoomConnections  map[string]int `json:"room_connections"`
}

func (cm *ConnectionManager) GetConnectionStats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		ActiveRooms:     len(cm.roomConnections),
		RoomConnections: make(map[string]int, len(cm.roomConnections)),
	}
	for roomID, connections := range cm.roomConnections {
		stats.TotalConnections += len(connections)
		stats.RoomConnections[fmt.Sprint(roomID)] = len(connections)
	}
	return stats
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.Conn.Close()
	})
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		log.Debug().
			Str("connection_id", c.ID).
			Str("player_id", c.PlayerID).
			Int("bytes", len(message)).
			Msg("ignoring client message")
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
