package services

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

// Client is one connected browser, subscribed to a single project's events.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	UserID    string
	ProjectID string
}

// RefreshEvent tells clients to re-query the named entity set. The forced
// re-fetch after every mutation is the board's only consistency mechanism.
type RefreshEvent struct {
	Type      string `json:"type"`
	ProjectID string `json:"projectId"`
	Entity    string `json:"entity"`
}

type outbound struct {
	projectID string
	payload   []byte
}

// ReadPump pumps control messages from the WebSocket connection. Clients
// never push state over the socket; it exists for refresh notifications only.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.logger.Warnf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// WritePump pumps messages from the hub to the WebSocket connection.
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

// Hub maintains the set of connected clients and fans refresh events out to
// the clients watching the affected project.
type Hub struct {
	Clients    map[*Client]bool
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	logger     *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan outbound),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		Clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// BroadcastRefresh notifies every client watching the project that the named
// entity set changed and should be re-queried.
func (h *Hub) BroadcastRefresh(projectID, entity string) {
	event := RefreshEvent{Type: "refresh", ProjectID: projectID, Entity: entity}
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Errorf("Failed to marshal refresh event: %v", err)
		return
	}
	h.broadcast <- outbound{projectID: projectID, payload: payload}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.Clients[client] = true
			h.logger.Infof("WebSocket client connected: user=%s project=%s", client.UserID, client.ProjectID)
		case client := <-h.unregister:
			if _, ok := h.Clients[client]; ok {
				delete(h.Clients, client)
				close(client.Send)
				h.logger.Infof("WebSocket client disconnected: user=%s", client.UserID)
			}
		case msg := <-h.broadcast:
			for client := range h.Clients {
				if client.ProjectID != msg.projectID {
					continue
				}
				select {
				case client.Send <- msg.payload:
				default:
					// Send buffer full, assume the client is gone
					close(client.Send)
					delete(h.Clients, client)
				}
			}
		}
	}
}
