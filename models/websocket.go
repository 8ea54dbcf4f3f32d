package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WSMessage is the envelope for every relay push. Delivery is best-effort:
// a subscriber offline at emit time never receives the message, and recovery
// relies on the client's polling fallback.
type WSMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// Server -> client event names.
const (
	WSEventNewAlert          = "newAlert"
	WSEventAlertUpdated      = "alertUpdated"
	WSEventLocationUpdate    = "locationUpdate"
	WSEventUserOffline       = "userOffline"
	WSEventResponderLocation = "responderLocationUpdate"
)

// Client -> server message types.
const (
	WSTypeJoin              = "join"
	WSTypeResponderLocation = "responderLocation"
)

// WSJoinRequest subscribes a connection to its role room and its own id room.
type WSJoinRequest struct {
	Type string `json:"type"`
	Role string `json:"role"`
	ID   string `json:"id"`
}

type WSLocationUpdate struct {
	AlertID            primitive.ObjectID `json:"alertId"`
	Location           AlertLocation      `json:"location"`
	LastLocationUpdate time.Time          `json:"lastLocationUpdate"`
	IsOnline           bool               `json:"isOnline"`
}

type WSUserOffline struct {
	AlertID primitive.ObjectID `json:"alertId"`
}

// WSResponderLocation is the optional responder-side relay payload; it is
// rebroadcast to the user room verbatim.
type WSResponderLocation struct {
	ResponderID string  `json:"responderId"`
	AlertID     string  `json:"alertId,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}
