package services

import (
	"context"
	"encoding/json"
	"time"

	"rescuenet/models"
	"rescuenet/repositories"
	"rescuenet/utils"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Publisher is the broadcast capability the lifecycle and location services
// depend on. Delivery is best-effort; subscriber bookkeeping lives elsewhere.
type Publisher interface {
	Publish(event string, payload interface{})
}

// AlertStore is the record-store surface the lifecycle service needs.
type AlertStore interface {
	Create(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	UpdateFields(ctx context.Context, id string, fields bson.M) (*models.Alert, error)
	AppendLocation(ctx context.Context, id string, location models.AlertLocation, point models.LocationPoint) (*models.Alert, error)
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error)
	GetByUser(ctx context.Context, userID string) ([]models.Alert, error)
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByType(ctx context.Context) (map[string]int64, error)
}

// HistoryStore is the archival surface used on terminal transitions.
type HistoryStore interface {
	Create(ctx context.Context, entry *models.AlertHistory) error
	ExistsForAlert(ctx context.Context, alertID primitive.ObjectID) (bool, error)
}

// ContactNotifier fans an alert out to the reporter's emergency contacts.
type ContactNotifier interface {
	NotifyContacts(ctx context.Context, alert *models.Alert)
}

const statsCacheKey = "alerts:stats:summary"

type AlertService struct {
	alertRepo   AlertStore
	historyRepo HistoryStore
	publisher   Publisher
	notifier    ContactNotifier
	redis       *redis.Client
	validator   *utils.ValidationService
}

func NewAlertService(alertRepo AlertStore, historyRepo HistoryStore, publisher Publisher, notifier ContactNotifier, redis *redis.Client) *AlertService {
	return &AlertService{
		alertRepo:   alertRepo,
		historyRepo: historyRepo,
		publisher:   publisher,
		notifier:    notifier,
		redis:       redis,
		validator:   utils.NewValidationService(),
	}
}

// CreateAlert persists a new pending alert with its priority derived once
// from the type, seeds the location history with the initial point, and
// broadcasts newAlert.
func (as *AlertService) CreateAlert(ctx context.Context, req models.CreateAlertRequest) (*models.Alert, error) {
	if req.Type == "" || req.Location == nil {
		return nil, utils.NewValidationError("Type and location are required")
	}
	if validationErrors := as.validator.ValidateStruct(req); len(validationErrors) > 0 {
		return nil, utils.NewValidationError(validationErrors[0].Message)
	}

	now := time.Now()

	// Reporter ids from unauthenticated clients may be anything; fall back
	// to a fresh id rather than rejecting the alert.
	userObjectID, err := primitive.ObjectIDFromHex(req.UserID)
	if err != nil {
		userObjectID = primitive.NewObjectID()
	}

	description := req.Description
	if description == "" {
		description = req.Type + " emergency reported"
	}

	location := *req.Location
	if location.Address == "" {
		location.Address = "Location not specified"
	}

	userName := req.UserName
	if userName == "" {
		userName = "Anonymous"
	}
	userPhone := req.UserPhone
	if userPhone == "" {
		userPhone = "Not provided"
	}

	alert := &models.Alert{
		Type:        req.Type,
		Description: description,
		Priority:    models.DerivePriority(req.Type),
		Status:      models.AlertStatusPending,
		Location:    location,
		LocationHistory: []models.LocationPoint{{
			Latitude:  location.Latitude,
			Longitude: location.Longitude,
			Accuracy:  location.Accuracy,
			Timestamp: now,
		}},
		LastLocationUpdate: now,
		IsOnline:           true,
		UserID:             userObjectID,
		UserName:           userName,
		UserPhone:          userPhone,
		EmergencyContacts:  req.EmergencyContacts,
	}

	if err := as.alertRepo.Create(ctx, alert); err != nil {
		return nil, utils.NewStorageError("create alert", err)
	}

	as.publisher.Publish(models.WSEventNewAlert, alert)

	if as.notifier != nil {
		go as.notifier.NotifyContacts(context.Background(), alert)
	}

	return alert, nil
}

// UpdateStatus drives the alert state machine. Valid edges:
// pending->responding (responder identity required), pending|responding->resolved,
// pending|responding->cancelled. Terminal states are absorbing; entry into one
// triggers best-effort archival.
func (as *AlertService) UpdateStatus(ctx context.Context, alertID string, req models.UpdateAlertStatusRequest) (*models.Alert, error) {
	if validationErrors := as.validator.ValidateStruct(req); len(validationErrors) > 0 {
		return nil, utils.NewValidationError(validationErrors[0].Message)
	}

	alert, err := as.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, mapStoreError(err, "get alert")
	}

	if req.Status == alert.Status {
		logrus.Warnf("Ignoring self-transition for alert %s: already %s", alertID, alert.Status)
		return alert, nil
	}

	if !models.CanTransition(alert.Status, req.Status) {
		return nil, utils.NewConflictError("Invalid status transition: " + alert.Status + " -> " + req.Status)
	}

	fields := bson.M{"status": req.Status}

	switch req.Status {
	case models.AlertStatusResponding:
		if req.ResponderID == "" {
			return nil, utils.NewValidationError("Responder identity is required to claim an alert")
		}
		responderObjectID, err := primitive.ObjectIDFromHex(req.ResponderID)
		if err != nil {
			return nil, utils.NewValidationError("Invalid responder ID")
		}
		fields["responderId"] = responderObjectID
		fields["responderName"] = req.ResponderName
		fields["responseTime"] = time.Now()

	case models.AlertStatusResolved:
		fields["resolvedTime"] = time.Now()
	}

	updated, err := as.alertRepo.UpdateFields(ctx, alertID, fields)
	if err != nil {
		return nil, mapStoreError(err, "update alert status")
	}

	if models.IsTerminalStatus(updated.Status) {
		as.archiveAlert(ctx, updated)
	}

	as.publisher.Publish(models.WSEventAlertUpdated, updated)

	return updated, nil
}

// archiveAlert copies the terminated alert into history exactly once.
// Failures are swallowed: archival must never fail the enclosing status
// update. The structured alert_archive_failed event keeps misses observable.
func (as *AlertService) archiveAlert(ctx context.Context, alert *models.Alert) {
	exists, err := as.historyRepo.ExistsForAlert(ctx, alert.ID)
	if err == nil && exists {
		return
	}

	entry := models.NewAlertHistory(alert)
	if err := as.historyRepo.Create(ctx, entry); err != nil {
		if err == repositories.ErrAlreadyArchived {
			return
		}
		logrus.WithFields(logrus.Fields{
			"event":       "alert_archive_failed",
			"alertId":     alert.ID.Hex(),
			"finalStatus": alert.Status,
			"error":       err.Error(),
		}).Error("Failed to archive alert to history")
	}
}

func (as *AlertService) GetAlert(ctx context.Context, alertID string) (*models.Alert, error) {
	alert, err := as.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, mapStoreError(err, "get alert")
	}
	return alert, nil
}

func (as *AlertService) GetUserAlerts(ctx context.Context, userID string) ([]models.Alert, error) {
	return as.alertRepo.GetByUser(ctx, userID)
}

// ListAlerts returns the newest-first dashboard view with the derived,
// presentation-only idle time per entry.
func (as *AlertService) ListAlerts(ctx context.Context, filter models.AlertFilter) (*models.AlertListResponse, error) {
	alerts, err := as.alertRepo.List(ctx, filter)
	if err != nil {
		return nil, utils.NewStorageError("list alerts", err)
	}

	summaries := make([]models.AlertSummary, 0, len(alerts))
	for _, alert := range alerts {
		lastUpdate := alert.LastLocationUpdate
		if lastUpdate.IsZero() {
			lastUpdate = alert.UpdatedAt
		}
		idle := time.Since(lastUpdate)

		contacts := alert.EmergencyContacts
		if contacts == nil {
			contacts = []models.EmergencyContact{}
		}

		summaries = append(summaries, models.AlertSummary{
			ID:                 alert.ID,
			Type:               alert.Type,
			Priority:           alert.Priority,
			Status:             alert.Status,
			Location:           alert.Location,
			Description:        alert.Description,
			Time:               utils.RelativeTime(alert.CreatedAt),
			UserName:           alert.UserName,
			UserPhone:          alert.UserPhone,
			EmergencyContacts:  contacts,
			ResponderID:        alert.ResponderID,
			ResponderName:      alert.ResponderName,
			CreatedAt:          alert.CreatedAt,
			LastLocationUpdate: alert.LastLocationUpdate,
			IsOnline:           alert.IsOnline,
			IdleTime:           utils.FormatIdleTime(idle),
			IdleMinutes:        int(idle.Minutes()),
		})
	}

	return &models.AlertListResponse{
		Alerts: summaries,
		Total:  len(summaries),
	}, nil
}

// GetStats serves the cached aggregate when warm and computes it on miss.
func (as *AlertService) GetStats(ctx context.Context) (*models.AlertStats, error) {
	if as.redis != nil {
		if cached, err := as.redis.Get(ctx, statsCacheKey).Result(); err == nil {
			var stats models.AlertStats
			if err := json.Unmarshal([]byte(cached), &stats); err == nil {
				return &stats, nil
			}
		}
	}

	return as.ComputeStats(ctx)
}

// ComputeStats runs the status/type aggregation against the store.
func (as *AlertService) ComputeStats(ctx context.Context) (*models.AlertStats, error) {
	total, err := as.alertRepo.Count(ctx)
	if err != nil {
		return nil, utils.NewStorageError("count alerts", err)
	}
	pending, err := as.alertRepo.CountByStatus(ctx, models.AlertStatusPending)
	if err != nil {
		return nil, utils.NewStorageError("count pending alerts", err)
	}
	responding, err := as.alertRepo.CountByStatus(ctx, models.AlertStatusResponding)
	if err != nil {
		return nil, utils.NewStorageError("count responding alerts", err)
	}
	resolved, err := as.alertRepo.CountByStatus(ctx, models.AlertStatusResolved)
	if err != nil {
		return nil, utils.NewStorageError("count resolved alerts", err)
	}
	last24Hours, err := as.alertRepo.CountSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return nil, utils.NewStorageError("count recent alerts", err)
	}
	byType, err := as.alertRepo.CountByType(ctx)
	if err != nil {
		return nil, utils.NewStorageError("count alerts by type", err)
	}

	return &models.AlertStats{
		Total:       total,
		Pending:     pending,
		Responding:  responding,
		Resolved:    resolved,
		Last24Hours: last24Hours,
		ByType:      byType,
	}, nil
}

// CacheStats writes the aggregate into Redis for the dashboard summary.
func (as *AlertService) CacheStats(ctx context.Context, stats *models.AlertStats, ttl time.Duration) error {
	if as.redis == nil {
		return nil
	}

	payload, err := json.Marshal(stats)
	if err != nil {
		return err
	}

	return as.redis.Set(ctx, statsCacheKey, payload, ttl).Err()
}

func mapStoreError(err error, operation string) error {
	switch err {
	case repositories.ErrNotFound, repositories.ErrInvalidID:
		return utils.NewNotFoundError("Alert")
	default:
		return utils.NewStorageError(operation, err)
	}
}
