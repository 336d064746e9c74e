package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// Event is pushed to every subscriber of a tournament when its bracket
// changes.
type EventType string

const (
	EventBracketDrafted      EventType = "bracket_drafted"
	EventMatchCompleted      EventType = "match_completed"
	EventRoundAdvanced       EventType = "round_advanced"
	EventTournamentCompleted EventType = "tournament_completed"
)

type Event struct {
	Type         EventType `json:"type"`
	TournamentID string    `json:"tournamentId"`
	Payload      any       `json:"payload,omitempty"`
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bracket feed is public; origins are filtered by the CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type outbound struct {
	room string
	data []byte
}

// Hub fans bracket events out to websocket subscribers, one room per
// tournament. All room state is owned by the Run goroutine.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	publish    chan outbound
	rooms      map[string]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan outbound, 16),
		rooms:      make(map[string]map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.rooms[client.room] == nil {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			slog.Debug("live client joined", "room", client.room, "clients", len(h.rooms[client.room]))

		case client := <-h.unregister:
			if clients, ok := h.rooms[client.room]; ok && clients[client] {
				delete(clients, client)
				close(client.send)
				if len(clients) == 0 {
					delete(h.rooms, client.room)
				}
			}

		case msg := <-h.publish:
			for client := range h.rooms[msg.room] {
				select {
				case client.send <- msg.data:
				default:
					// Slow consumer: drop it rather than stall the room.
					delete(h.rooms[msg.room], client)
					close(client.send)
				}
			}
		}
	}
}

// Publish sends an event to every subscriber of its tournament. Safe to
// call from any goroutine; a nil hub is a no-op so services can run
// without live updates in tests.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal live event", "type", event.Type, "error", err)
		return
	}
	h.publish <- outbound{room: event.TournamentID, data: data}
}

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	room string
}

// ServeWS upgrades the request and subscribes it to the tournament's room.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, room string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 8), room: room}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump discards inbound frames; the feed is one-way. It exists to
// notice disconnects and answer pings.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("live client read error", "room", c.room, "error", err)
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
