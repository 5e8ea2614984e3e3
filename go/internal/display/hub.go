// Package display serves live game views to big-screen clients over
// websockets and accepts dismiss and refresh commands from them.
package display

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/pickem/go/internal/live"
	"github.com/rs/zerolog/log"
)

// MessageType tags frames sent to screens.
type MessageType string

const (
	MessageView MessageType = "view"
)

// Message is the frame written to every screen of a game.
type Message struct {
	Type MessageType `json:"type"`
	View live.View   `json:"view"`
}

// CommandType tags frames received from screens.
type CommandType string

const (
	CommandDismiss CommandType = "dismiss"
	CommandRefresh CommandType = "refresh"
)

// Command is a frame received from a screen.
type Command struct {
	Type CommandType `json:"type"`
}

// CommandHandler receives commands from a game's screens.
type CommandHandler func(gameID string, cmd Command)

// Hub manages websocket connections for live games.
type Hub struct {
	games map[string]map[*Connection]bool
	last  map[string][]byte
	mu    sync.RWMutex

	upgrader    websocket.Upgrader
	config      ConnectionConfig
	onCommand   CommandHandler
	broadcastCh chan broadcast
}

// Connection is a websocket connection to one screen.
type Connection struct {
	ID          string
	GameID      string
	Conn        *websocket.Conn
	Send        chan []byte
	hub         *Hub
	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for websocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

type broadcast struct {
	gameID string
	msg    Message
}

// Stats describes active connections.
type Stats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveGames      int            `json:"active_games"`
	GameConnections  map[string]int `json:"game_connections"`
}

// DefaultConnectionConfig returns default websocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewHub creates a hub. onCommand may be nil.
func NewHub(config ConnectionConfig, onCommand CommandHandler) *Hub {
	return &Hub{
		games: make(map[string]map[*Connection]bool),
		last:  make(map[string][]byte),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		onCommand:   onCommand,
		broadcastCh: make(chan broadcast, 256),
	}
}

// Start processes broadcasts until ctx is done.
func (h *Hub) Start(ctx context.Context) {
	log.Info().Msg("display hub started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("display hub shutting down")
			h.closeAll()
			return
		case b := <-h.broadcastCh:
			h.handleBroadcast(b)
		}
	}
}

// Listener returns a live.Listener that broadcasts every view to the game's
// screens. It never blocks.
func (h *Hub) Listener() live.Listener {
	return func(v live.View) {
		h.Broadcast(v.GameID, Message{Type: MessageView, View: v})
	}
}

// Broadcast queues msg for every screen of gameID.
func (h *Hub) Broadcast(gameID string, msg Message) {
	select {
	case h.broadcastCh <- broadcast{gameID: gameID, msg: msg}:
	default:
		log.Warn().Str("game_id", gameID).Msg("broadcast channel full, dropping view")
	}
}

// Upgrade upgrades an HTTP request to a websocket for gameID. The screen
// receives the most recent view right away.
func (h *Hub) Upgrade(w http.ResponseWriter, r *http.Request, gameID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	c := &Connection{
		ID:          uuid.New().String(),
		GameID:      gameID,
		Conn:        conn,
		Send:        make(chan []byte, 64),
		hub:         h,
		ConnectedAt: time.Now(),
	}
	h.register(c)

	go c.writePump()
	go c.readPump()

	log.Info().
		Str("connection_id", c.ID).
		Str("game_id", gameID).
		Msg("screen connected")
	return nil
}

// Stats returns statistics about active connections.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := Stats{GameConnections: make(map[string]int, len(h.games))}
	for gameID, conns := range h.games {
		stats.TotalConnections += len(conns)
		stats.GameConnections[gameID] = len(conns)
	}
	stats.ActiveGames = len(h.games)
	return stats
}

func (h *Hub) register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.games[c.GameID] == nil {
		h.games[c.GameID] = make(map[*Connection]bool)
	}
	h.games[c.GameID][c] = true
	if last, ok := h.last[c.GameID]; ok {
		c.Send <- last
	}
}

func (h *Hub) unregister(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.games[c.GameID]
	if !ok || !conns[c] {
		return
	}
	delete(conns, c)
	close(c.Send)
	if len(conns) == 0 {
		delete(h.games, c.GameID)
	}

	log.Info().
		Str("connection_id", c.ID).
		Str("game_id", c.GameID).
		Msg("screen disconnected")
}

func (h *Hub) handleBroadcast(b broadcast) {
	data, err := json.Marshal(b.msg)
	if err != nil {
		log.Error().Err(err).Str("game_id", b.gameID).Msg("failed to marshal view")
		return
	}

	var slow []*Connection
	h.mu.Lock()
	h.last[b.gameID] = data
	for c := range h.games[b.gameID] {
		select {
		case c.Send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		log.Warn().Str("connection_id", c.ID).Msg("screen send buffer full, closing connection")
		h.unregister(c)
		c.Conn.Close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	var conns []*Connection
	for _, game := range h.games {
		for c := range game {
			conns = append(conns, c)
		}
	}
	h.mu.Unlock()

	for _, c := range conns {
		h.unregister(c)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.hub.unregister(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("failed to write view")
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close")
			}
			return
		}
		c.handleCommand(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	}
}

func (c *Connection) handleCommand(message []byte) {
	var cmd Command
	if err := json.Unmarshal(message, &cmd); err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("ignoring malformed screen command")
		return
	}
	switch cmd.Type {
	case CommandDismiss, CommandRefresh:
		if c.hub.onCommand != nil {
			c.hub.onCommand(c.GameID, cmd)
		}
	default:
		log.Debug().Str("connection_id", c.ID).Str("type", string(cmd.Type)).Msg("unknown screen command")
	}
}
