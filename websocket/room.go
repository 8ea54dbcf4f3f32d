package websocket

import (
	"sync"
	"time"

	"rescuenet/models"

	"github.com/sirupsen/logrus"
)

// Room groups connections for targeted broadcasts. The hub keeps one room per
// role ("user", "responder") and one per subscriber id.
type Room struct {
	ID string

	clients map[*Client]bool
	mutex   sync.RWMutex

	createdAt    time.Time
	lastActivity time.Time
}

func NewRoom(id string) *Room {
	now := time.Now()
	return &Room{
		ID:           id,
		clients:      make(map[*Client]bool),
		createdAt:    now,
		lastActivity: now,
	}
}

func (r *Room) AddClient(client *Client) {
	if client == nil {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.clients[client] {
		return
	}

	r.clients[client] = true
	r.lastActivity = time.Now()

	logrus.Debugf("Client %s joined room %s (total: %d)", client.subscriberID, r.ID, len(r.clients))
}

func (r *Room) RemoveClient(client *Client) {
	if client == nil {
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.clients[client] {
		return
	}

	delete(r.clients, client)
	r.lastActivity = time.Now()

	logrus.Debugf("Client %s left room %s (remaining: %d)", client.subscriberID, r.ID, len(r.clients))
}

// Broadcast delivers the message to every active client in the room. A
// subscriber whose send buffer is full simply misses the message.
func (r *Room) Broadcast(message models.WSMessage) {
	r.mutex.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	r.mutex.RUnlock()

	for _, client := range clients {
		client.SendMessage(message)
	}

	r.mutex.Lock()
	r.lastActivity = time.Now()
	r.mutex.Unlock()
}

func (r *Room) IsEmpty() bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.clients) == 0
}

func (r *Room) GetClientCount() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.clients)
}

func (r *Room) GetLastActivity() time.Time {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.lastActivity
}
