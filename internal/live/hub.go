package live

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	MessageCategoryUpdated   = "CATEGORY_UPDATED"
	MessageTournamentUpdated = "TOURNAMENT_UPDATED"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
	RoomID  string `json:"roomId,omitempty"`
}

// TournamentRoom names the room every viewer of a tournament joins.
func TournamentRoom(tournamentID uuid.UUID) string {
	return "tournament_" + tournamentID.String()
}

type Client struct {
	Hub  *Hub
	Conn *websocket.Conn
	Send chan []byte
	Room string

	mu     sync.Mutex
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, room string) *Client {
	return &Client{
		Hub:  hub,
		Conn: conn,
		Send: make(chan []byte, sendBuffer),
		Room: room,
	}
}

// close shuts the send channel once, whoever gets there first.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// deliver never blocks: a client too slow to drain its buffer misses the message.
func (c *Client) deliver(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false
	}
}

// Hub fans category updates out to the websocket clients watching a tournament.
// It only notifies after a change is persisted, clients never write through it.
type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	rooms    map[string]map[*Client]bool
	mu       sync.RWMutex
	done     chan struct{}
	upgrader websocket.Upgrader
}

// NewHub creates a hub whose websocket endpoint accepts the given origins besides its own.
func NewHub(allowedOrigins []string) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		done:       make(chan struct{}),
		upgrader:   newUpgrader(allowedOrigins),
	}
}

// Run serves registrations until ctx is cancelled, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			slog.Debug("Client joined room", "room", client.Room, "clients", len(h.rooms[client.Room]))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.Room]; ok && clients[client] {
				client.close()
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.rooms, client.Room)
				}
				slog.Debug("Client left room", "room", client.Room, "clients", len(clients))
			}
			h.mu.Unlock()

		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for room, clients := range h.rooms {
				for client := range clients {
					client.close()
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			return nil
		}
	}
}

// Join registers a client. It returns false once the hub has stopped.
func (h *Hub) Join(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Leave(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) Clients(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// BroadcastToRoom sends the JSON encoded message to every client in the room and reports
// how many received it.
func (h *Hub) BroadcastToRoom(room string, message Message) int {
	message.RoomID = room
	payload, err := json.Marshal(message)
	if err != nil {
		slog.Error("Failed to marshal live message", "room", room, "type", message.Type, "error", err)
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for client := range h.rooms[room] {
		if client.deliver(payload) {
			delivered++
		} else {
			slog.Warn("Dropped live message for slow client", "room", room, "type", message.Type)
		}
	}
	return delivered
}

// Publish implements the service notifier.
func (h *Hub) Publish(tournamentID uuid.UUID, messageType string, payload any) {
	h.BroadcastToRoom(TournamentRoom(tournamentID), Message{Type: messageType, Payload: payload})
}

// ReadPump only keeps the connection alive; anything the client sends is discarded.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Leave(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("Websocket closed unexpectedly", "room", c.Room, "error", err)
			}
			return
		}
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				slog.Warn("Failed to write live message", "room", c.Room, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
