package websocket

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"rescuenet/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait = 10 * time.Second

	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// In production, implement proper origin checking
		return true
	},
}

// Client is a single websocket subscriber: a reporter app or a responder
// dashboard. Room membership is set by the first join message.
type Client struct {
	conn *websocket.Conn

	connectionID string
	subscriberID string
	role         string

	connectedAt  time.Time
	lastActivity time.Time
	ipAddress    string

	send chan models.WSMessage

	hub *Hub

	isJoined bool

	pingFailCount int

	closeOnce sync.Once
	done      chan struct{}
}

func NewClient(conn *websocket.Conn, hub *Hub, r *http.Request) *Client {
	return &Client{
		conn:         conn,
		hub:          hub,
		send:         make(chan models.WSMessage, sendBufferSize),
		connectionID: uuid.NewString(),
		connectedAt:  time.Now(),
		lastActivity: time.Now(),
		ipAddress:    clientIP(r),
		done:         make(chan struct{}),
	}
}

// ServeWS upgrades the request and starts the read/write pumps.
func ServeWS(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	client := NewClient(conn, hub, r)

	go client.WritePump()
	go client.ReadPump()
}

func (c *Client) ReadPump() {
	defer c.cleanup()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		c.pingFailCount = 0
		return nil
	})

	for {
		_, messageData, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("WebSocket error for client %s: %v", c.connectionID, err)
			}
			return
		}

		c.lastActivity = time.Now()
		c.handleMessage(messageData)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				logrus.Errorf("Write error for client %s: %v", c.connectionID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.pingFailCount++
				if c.pingFailCount > 3 {
					logrus.Warnf("Ping failed for client %s, disconnecting", c.connectionID)
					return
				}
			}
		}
	}
}

func (c *Client) handleMessage(messageData []byte) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(messageData, &envelope); err != nil {
		logrus.Debugf("Dropping malformed message from client %s", c.connectionID)
		return
	}

	switch envelope.Type {
	case models.WSTypeJoin:
		c.handleJoin(messageData)
	case models.WSTypeResponderLocation:
		c.handleResponderLocation(messageData)
	default:
		logrus.Debugf("Unknown message type %q from client %s", envelope.Type, c.connectionID)
	}
}

func (c *Client) handleJoin(messageData []byte) {
	var join models.WSJoinRequest
	if err := json.Unmarshal(messageData, &join); err != nil {
		return
	}

	if join.Role != models.RoleUser && join.Role != models.RoleResponder {
		logrus.Warnf("Client %s attempted join with unknown role %q", c.connectionID, join.Role)
		return
	}

	if c.isJoined {
		return
	}

	c.role = join.Role
	c.subscriberID = join.ID
	c.isJoined = true

	c.hub.register <- c
}

// handleResponderLocation relays a responder's position to the reporter apps
// verbatim. Only joined responders may relay.
func (c *Client) handleResponderLocation(messageData []byte) {
	if !c.isJoined || c.role != models.RoleResponder {
		return
	}

	var location models.WSResponderLocation
	if err := json.Unmarshal(messageData, &location); err != nil {
		return
	}
	if location.ResponderID == "" {
		location.ResponderID = c.subscriberID
	}

	c.hub.PublishToRoom(RoomUsers, models.WSEventResponderLocation, location)
}

func (c *Client) roleRoom() string {
	if c.role == models.RoleResponder {
		return RoomResponders
	}
	return RoomUsers
}

// isClosed reports whether cleanup has run.
func (c *Client) isClosed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Client) SendMessage(message models.WSMessage) {
	if c.isClosed() {
		return
	}

	select {
	case c.send <- message:
	default:
		// Buffer full, subscriber misses this message.
		logrus.Warnf("Send channel full for client %s", c.connectionID)
	}
}

// cleanup tears the client down exactly once, no matter how many paths reach
// it. The unregister send blocks until the hub takes it; dropping it would
// leave a dead client in the hub's maps forever.
func (c *Client) cleanup() {
	c.closeOnce.Do(func() {
		close(c.done)

		if c.isJoined {
			select {
			case c.hub.unregister <- c:
			case <-c.hub.ctx.Done():
			}
		}

		c.conn.Close()

		logrus.Infof("Client disconnected: %s", c.connectionID)
	})
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
