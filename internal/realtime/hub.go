package realtime

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	websocket "github.com/gofiber/contrib/websocket"
)

// Hub fans entity change events out to connected clients so they can apply
// targeted upserts/deletes instead of reloading whole tables. User-scoped
// events reach the owner and every connected admin; broadcast events reach
// everyone.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	admins     map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	events     chan *Event
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	userID  string
	isAdmin bool
	send    chan []byte
}

type Event struct {
	Table        string `json:"table"`
	Action       string `json:"action"`
	Record       any    `json:"record,omitempty"`
	Timestamp    string `json:"timestamp"`
	targetUserID string
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		admins:     make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *Event, 64),
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string, isAdmin bool) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		userID:  userID,
		isAdmin: isAdmin,
		send:    make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
			if client.isAdmin {
				h.admins[client] = struct{}{}
			}
		case client := <-h.unregister:
			h.drop(client)
		case event := <-h.events:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PublishToUser queues a user-scoped change event; the event also reaches
// admin clients. Non-blocking: under backpressure the event is dropped, the
// client catches up on its next fetch.
func (h *Hub) PublishToUser(userID int64, table, action string, record any) {
	h.enqueue(&Event{
		Table:        table,
		Action:       action,
		Record:       record,
		targetUserID: strconv.FormatInt(userID, 10),
	})
}

// Broadcast queues a change event for every connected client.
func (h *Hub) Broadcast(table, action string, record any) {
	h.enqueue(&Event{
		Table:  table,
		Action: action,
		Record: record,
	})
}

func (h *Hub) enqueue(event *Event) {
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	select {
	case h.events <- event:
	default:
		log.Printf("realtime hub: dropping %s/%s event, queue full", event.Table, event.Action)
	}
}

func (h *Hub) deliver(event *Event) {
	encoded, err := json.Marshal(event)
	if err != nil {
		log.Printf("realtime hub encode event: %v", err)
		return
	}

	if event.targetUserID == "" {
		for _, set := range h.clients {
			for client := range set {
				h.send(client, encoded)
			}
		}
		return
	}

	if set, ok := h.clients[event.targetUserID]; ok {
		for client := range set {
			h.send(client, encoded)
		}
	}
	for client := range h.admins {
		if client.userID == event.targetUserID {
			continue
		}
		h.send(client, encoded)
	}
}

func (h *Hub) send(client *Client, payload []byte) {
	select {
	case client.send <- payload:
	default:
		h.drop(client)
	}
}

func (h *Hub) drop(client *Client) {
	set, ok := h.clients[client.userID]
	if !ok {
		return
	}
	if _, exists := set[client]; exists {
		delete(set, client)
		close(client.send)
	}
	if len(set) == 0 {
		delete(h.clients, client.userID)
	}
	delete(h.admins, client)
}

// ReadPump drains the connection until it closes. Clients do not send
// commands; the read loop only detects disconnects.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
