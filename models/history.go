package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AlertHistory is the immutable archival projection of a terminated alert.
// At most one entry exists per original alert id; the unique index on
// originalAlertId guards duplicate archive attempts.
type AlertHistory struct {
	ID                primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	OriginalAlertID   primitive.ObjectID `json:"originalAlertId" bson:"originalAlertId"`
	Type              string             `json:"type" bson:"type"`
	Description       string             `json:"description,omitempty" bson:"description,omitempty"`
	Location          AlertLocation      `json:"location" bson:"location"`
	UserID            primitive.ObjectID `json:"userId" bson:"userId"`
	UserName          string             `json:"userName" bson:"userName"`
	UserPhone         string             `json:"userPhone" bson:"userPhone"`
	EmergencyContacts []EmergencyContact `json:"emergencyContacts,omitempty" bson:"emergencyContacts,omitempty"`
	Priority          string             `json:"priority" bson:"priority"`
	FinalStatus       string             `json:"finalStatus" bson:"finalStatus"`
	ResponderID       primitive.ObjectID `json:"responderId,omitempty" bson:"responderId,omitempty"`
	ResponderName     string             `json:"responderName,omitempty" bson:"responderName,omitempty"`
	ResponseTime      time.Time          `json:"responseTime,omitempty" bson:"responseTime,omitempty"`
	ResolvedTime      time.Time          `json:"resolvedTime,omitempty" bson:"resolvedTime,omitempty"`
	AlertCreatedAt    time.Time          `json:"alertCreatedAt" bson:"alertCreatedAt"`
	AlertUpdatedAt    time.Time          `json:"alertUpdatedAt" bson:"alertUpdatedAt"`
	ArchivedAt        time.Time          `json:"archivedAt" bson:"archivedAt"`
}

// NewAlertHistory copies the terminated alert into its archival projection.
func NewAlertHistory(alert *Alert) *AlertHistory {
	return &AlertHistory{
		OriginalAlertID:   alert.ID,
		Type:              alert.Type,
		Description:       alert.Description,
		Location:          alert.Location,
		UserID:            alert.UserID,
		UserName:          alert.UserName,
		UserPhone:         alert.UserPhone,
		EmergencyContacts: alert.EmergencyContacts,
		Priority:          alert.Priority,
		FinalStatus:       alert.Status,
		ResponderID:       alert.ResponderID,
		ResponderName:     alert.ResponderName,
		ResponseTime:      alert.ResponseTime,
		ResolvedTime:      alert.ResolvedTime,
		AlertCreatedAt:    alert.CreatedAt,
		AlertUpdatedAt:    alert.UpdatedAt,
		ArchivedAt:        time.Now(),
	}
}

type HistoryListResponse struct {
	History    []AlertHistory `json:"history"`
	Pagination Pagination     `json:"pagination"`
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int64 `json:"page"`
	Limit      int64 `json:"limit"`
	TotalPages int64 `json:"totalPages"`
}

type HistoryStats struct {
	TotalAlerts     int64       `json:"totalAlerts"`
	ResolvedAlerts  int64       `json:"resolvedAlerts"`
	CancelledAlerts int64       `json:"cancelledAlerts"`
	AlertsByType    []TypeCount `json:"alertsByType"`
}

type TypeCount struct {
	Type  string `json:"type" bson:"_id"`
	Count int64  `json:"count" bson:"count"`
}
