package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Alert is a single reported emergency incident with location and lifecycle status.
type Alert struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Type               string             `json:"type" bson:"type"`
	Description        string             `json:"description,omitempty" bson:"description,omitempty"`
	Priority           string             `json:"priority" bson:"priority"`
	Status             string             `json:"status" bson:"status"`
	Location           AlertLocation      `json:"location" bson:"location"`
	LocationHistory    []LocationPoint    `json:"locationHistory,omitempty" bson:"locationHistory,omitempty"`
	LastLocationUpdate time.Time          `json:"lastLocationUpdate" bson:"lastLocationUpdate"`
	IsOnline           bool               `json:"isOnline" bson:"isOnline"`

	// Reporter identity snapshot taken at creation time. Later profile edits do
	// not retroactively change an in-flight alert.
	UserID            primitive.ObjectID `json:"userId" bson:"userId"`
	UserName          string             `json:"userName" bson:"userName"`
	UserPhone         string             `json:"userPhone" bson:"userPhone"`
	EmergencyContacts []EmergencyContact `json:"emergencyContacts,omitempty" bson:"emergencyContacts,omitempty"`

	// Populated only on the corresponding status transitions.
	ResponderID   primitive.ObjectID `json:"responderId,omitempty" bson:"responderId,omitempty"`
	ResponderName string             `json:"responderName,omitempty" bson:"responderName,omitempty"`
	ResponseTime  time.Time          `json:"responseTime,omitempty" bson:"responseTime,omitempty"`
	ResolvedTime  time.Time          `json:"resolvedTime,omitempty" bson:"resolvedTime,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

type AlertLocation struct {
	Latitude  float64 `json:"latitude" bson:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude" validate:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	Address   string  `json:"address,omitempty" bson:"address,omitempty"`
}

type LocationPoint struct {
	Latitude  float64   `json:"latitude" bson:"latitude"`
	Longitude float64   `json:"longitude" bson:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}

type EmergencyContact struct {
	Name         string `json:"name" bson:"name"`
	Phone        string `json:"phone" bson:"phone"`
	Relationship string `json:"relationship" bson:"relationship"`
}

// Alert Type Constants
const (
	AlertTypeMedical  = "medical"
	AlertTypeFire     = "fire"
	AlertTypeCrime    = "crime"
	AlertTypeAccident = "accident"
	AlertTypeNatural  = "natural"
	AlertTypeRescue   = "rescue"
	AlertTypeSOS      = "SOS"
	AlertTypeOther    = "other"
)

// Alert Status Constants
const (
	AlertStatusPending    = "pending"
	AlertStatusResponding = "responding"
	AlertStatusResolved   = "resolved"
	AlertStatusCancelled  = "cancelled"
)

// Alert Priority Constants
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// MaxLocationHistory bounds locationHistory; the oldest points are dropped
// once the bound is exceeded.
const MaxLocationHistory = 100

// DerivePriority maps an alert type to its priority. Computed once at
// creation and never recomputed afterward.
func DerivePriority(alertType string) string {
	switch alertType {
	case AlertTypeSOS, AlertTypeMedical:
		return PriorityCritical
	case AlertTypeFire, AlertTypeCrime:
		return PriorityHigh
	case AlertTypeAccident, AlertTypeRescue:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// IsTerminalStatus reports whether no further transitions are permitted.
func IsTerminalStatus(status string) bool {
	return status == AlertStatusResolved || status == AlertStatusCancelled
}

// CanTransition reports whether the status edge is in the supported set.
// Self-transitions are not edges; terminal states are absorbing.
func CanTransition(from, to string) bool {
	switch from {
	case AlertStatusPending:
		return to == AlertStatusResponding || to == AlertStatusResolved || to == AlertStatusCancelled
	case AlertStatusResponding:
		return to == AlertStatusResolved || to == AlertStatusCancelled
	default:
		return false
	}
}

// =================== REQUEST/RESPONSE MODELS ===================

type CreateAlertRequest struct {
	Type              string             `json:"type" validate:"required,alert_type"`
	Description       string             `json:"description,omitempty"`
	Location          *AlertLocation     `json:"location" validate:"required"`
	UserID            string             `json:"userId,omitempty"`
	UserName          string             `json:"userName,omitempty"`
	UserPhone         string             `json:"userPhone,omitempty"`
	EmergencyContacts []EmergencyContact `json:"emergencyContacts,omitempty"`
}

type UpdateAlertStatusRequest struct {
	Status        string `json:"status" validate:"required,oneof=pending responding resolved cancelled"`
	ResponderID   string `json:"responderId,omitempty"`
	ResponderName string `json:"responderName,omitempty"`
}

type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Address   string  `json:"address,omitempty"`
}

type AlertFilter struct {
	Status string
	Type   string
	Limit  int64
}

// AlertSummary is the responder-dashboard projection of an alert, carrying
// the derived, presentation-only idle time.
type AlertSummary struct {
	ID                 primitive.ObjectID `json:"id"`
	Type               string             `json:"type"`
	Priority           string             `json:"priority"`
	Status             string             `json:"status"`
	Location           AlertLocation      `json:"location"`
	Description        string             `json:"description,omitempty"`
	Time               string             `json:"time"`
	UserName           string             `json:"userName"`
	UserPhone          string             `json:"userPhone"`
	EmergencyContacts  []EmergencyContact `json:"emergencyContacts"`
	ResponderID        primitive.ObjectID `json:"responderId,omitempty"`
	ResponderName      string             `json:"responderName,omitempty"`
	CreatedAt          time.Time          `json:"createdAt"`
	LastLocationUpdate time.Time          `json:"lastLocationUpdate"`
	IsOnline           bool               `json:"isOnline"`
	IdleTime           string             `json:"idleTime"`
	IdleMinutes        int                `json:"idleMinutes"`
}

type AlertListResponse struct {
	Alerts []AlertSummary `json:"alerts"`
	Total  int            `json:"total"`
}

type AlertStats struct {
	Total       int64            `json:"total"`
	Pending     int64            `json:"pending"`
	Responding  int64            `json:"responding"`
	Resolved    int64            `json:"resolved"`
	Last24Hours int64            `json:"last24Hours"`
	ByType      map[string]int64 `json:"byType"`
}
