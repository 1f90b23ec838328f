package websocket

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types pushed over the live feed.
const (
	NotificationTypeRequestSubmitted = "request_submitted"
	NotificationTypeRequestUpdate    = "request_update"
	NotificationTypeReportReady      = "report_ready"
)

// Notification represents a message sent over WebSocket
type Notification struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userId,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID  primitive.ObjectID
	IsStaff bool
	Conn    *websocket.Conn
}

// Hub maintains the set of active clients and broadcasts lifecycle events.
type Hub struct {
	clients    map[primitive.ObjectID]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[primitive.ObjectID]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = client
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if existing, ok := h.clients[client.UserID]; ok && existing == client {
				delete(h.clients, client.UserID)
			}
			client.Conn.Close()
			h.mu.Unlock()
		}
	}
}

// SendToUser sends a message to a specific connected user.
func (h *Hub) SendToUser(userID primitive.ObjectID, notification Notification) error {
	h.mu.RLock()
	client, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		return fmt.Errorf("user not connected")
	}

	return client.Conn.WriteJSON(notification)
}

// BroadcastToStaff sends a message to every connected staff client. Used for
// the admin live feed of request events; delivery is best-effort.
func (h *Hub) BroadcastToStaff(notification Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if client.IsStaff {
			client.Conn.WriteJSON(notification)
		}
	}
}

// NotifyRequestSubmitted announces a new request to connected staff.
func (h *Hub) NotifyRequestSubmitted(requestData interface{}) {
	h.BroadcastToStaff(Notification{
		Type:    NotificationTypeRequestSubmitted,
		Message: "New service request submitted",
		Data:    requestData,
	})
}

// NotifyReportReady tells the owner their deliverable is available.
func (h *Hub) NotifyReportReady(clientID primitive.ObjectID, requestData interface{}) error {
	return h.SendToUser(clientID, Notification{
		Type:    NotificationTypeReportReady,
		Message: "Your security report is ready for download",
		Data:    requestData,
	})
}

// NotifyRequestUpdate tells the owner their request changed state.
func (h *Hub) NotifyRequestUpdate(clientID primitive.ObjectID, requestData interface{}) error {
	return h.SendToUser(clientID, Notification{
		Type:    NotificationTypeRequestUpdate,
		Message: "Your service request status has been updated",
		Data:    requestData,
	})
}
