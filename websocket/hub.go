package websocket

import (
	"context"
	"sync"
	"time"

	"rescuenet/models"

	"github.com/sirupsen/logrus"
)

const (
	RoomUsers      = "user"
	RoomResponders = "responder"
)

// Hub is the fan-out relay between the HTTP layer and connected dashboards
// and reporter apps. Every lifecycle and location event is pushed to all
// subscribers; delivery is best-effort and polling covers the gaps.
type Hub struct {
	clients map[*Client]bool
	rooms   map[string]*Room

	register   chan *Client
	unregister chan *Client
	broadcast  chan BroadcastMessage

	stats HubStats

	mutex sync.RWMutex

	ctx    context.Context
	cancel context.CancelFunc

	cleanupTicker *time.Ticker
}

type BroadcastMessage struct {
	// RoomID of "" fans the message out to every connected client.
	RoomID  string
	Message models.WSMessage
}

type HubStats struct {
	TotalConnections  int64
	ActiveConnections int
	MessagesSent      int64
	MessagesDropped   int64
	StartTime         time.Time

	mutex sync.RWMutex
}

func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan BroadcastMessage, 256),
		stats: HubStats{
			StartTime: time.Now(),
		},
		ctx:           ctx,
		cancel:        cancel,
		cleanupTicker: time.NewTicker(5 * time.Minute),
	}
}

func (h *Hub) Run() {
	logrus.Info("WebSocket hub starting...")

	go h.runCleanup()

	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.dispatch(message)

		case <-h.ctx.Done():
			logrus.Info("WebSocket hub shutting down...")
			return
		}
	}
}

// Publish implements the broadcast capability the services depend on. Events
// are wrapped in the standard envelope and fanned out to every subscriber.
func (h *Hub) Publish(event string, payload interface{}) {
	message := models.WSMessage{
		Type:      event,
		Data:      payload,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- BroadcastMessage{Message: message}:
	default:
		h.incrementDropped()
		logrus.Warnf("Broadcast channel full, dropping %s event", event)
	}
}

// PublishToRoom targets a single room, used for the responder location relay
// that only reporter apps care about.
func (h *Hub) PublishToRoom(roomID, event string, payload interface{}) {
	message := models.WSMessage{
		Type:      event,
		Data:      payload,
		Timestamp: time.Now(),
	}

	select {
	case h.broadcast <- BroadcastMessage{RoomID: roomID, Message: message}:
	default:
		h.incrementDropped()
		logrus.Warnf("Broadcast channel full, dropping %s event for room %s", event, roomID)
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.stats.ActiveConnections++
	h.stats.TotalConnections++

	roleRoom := h.getOrCreateRoom(client.roleRoom())
	roleRoom.AddClient(client)

	if client.subscriberID != "" {
		idRoom := h.getOrCreateRoom(client.subscriberID)
		idRoom.AddClient(client)
	}

	logrus.Infof("Client registered: %s role=%s (total: %d)", client.subscriberID, client.role, h.stats.ActiveConnections)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	h.stats.ActiveConnections--

	for roomID, room := range h.rooms {
		room.RemoveClient(client)
		if room.IsEmpty() {
			delete(h.rooms, roomID)
		}
	}

	logrus.Infof("Client unregistered: %s (total: %d)", client.subscriberID, h.stats.ActiveConnections)
}

func (h *Hub) dispatch(message BroadcastMessage) {
	if message.RoomID == "" {
		h.mutex.RLock()
		clients := make([]*Client, 0, len(h.clients))
		for client := range h.clients {
			clients = append(clients, client)
		}
		h.mutex.RUnlock()

		for _, client := range clients {
			client.SendMessage(message.Message)
		}
		h.incrementSent(int64(len(clients)))
		return
	}

	h.mutex.RLock()
	room := h.rooms[message.RoomID]
	h.mutex.RUnlock()

	if room != nil {
		room.Broadcast(message.Message)
		h.incrementSent(int64(room.GetClientCount()))
	}
}

func (h *Hub) getOrCreateRoom(roomID string) *Room {
	if room, exists := h.rooms[roomID]; exists {
		return room
	}

	room := NewRoom(roomID)
	h.rooms[roomID] = room
	return room
}

func (h *Hub) GetActiveConnections() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return h.stats.ActiveConnections
}

func (h *Hub) incrementSent(count int64) {
	h.stats.mutex.Lock()
	h.stats.MessagesSent += count
	h.stats.mutex.Unlock()
}

func (h *Hub) incrementDropped() {
	h.stats.mutex.Lock()
	h.stats.MessagesDropped++
	h.stats.mutex.Unlock()
}

func (h *Hub) runCleanup() {
	for {
		select {
		case <-h.cleanupTicker.C:
			h.performCleanup()
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) performCleanup() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.isClosed() || time.Since(client.lastActivity) > 5*time.Minute {
			logrus.Warnf("Removing inactive client: %s", client.subscriberID)
			go client.cleanup()
		}
	}

	for roomID, room := range h.rooms {
		if room.IsEmpty() {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) Shutdown() {
	logrus.Info("Shutting down WebSocket hub...")

	h.cleanupTicker.Stop()
	h.cancel()

	// The run loop is gone, so the unregister sends inside cleanup take the
	// shutdown path; drop the bookkeeping here instead.
	h.mutex.Lock()
	for client := range h.clients {
		client.cleanup()
	}
	h.clients = make(map[*Client]bool)
	h.rooms = make(map[string]*Room)
	h.stats.ActiveConnections = 0
	h.mutex.Unlock()

	logrus.Info("WebSocket hub shutdown complete")
}
