package services

import (
	"context"
	"strings"
	"time"

	"rescuenet/models"
	"rescuenet/repositories"
	"rescuenet/utils"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const locationRetryDelay = 250 * time.Millisecond

type LocationService struct {
	alertRepo  AlertStore
	publisher  Publisher
	retryDelay time.Duration
}

func NewLocationService(alertRepo AlertStore, publisher Publisher) *LocationService {
	return &LocationService{
		alertRepo:  alertRepo,
		publisher:  publisher,
		retryDelay: locationRetryDelay,
	}
}

// PushLocation appends a GPS fix to an alert's bounded history and
// broadcasts locationUpdate. A transient storage failure is retried exactly
// once after a short delay; a second failure propagates.
func (ls *LocationService) PushLocation(ctx context.Context, alertID string, req models.UpdateLocationRequest) (*models.Alert, error) {
	// Zero coordinates are treated as missing, which also rejects valid
	// fixes on the equator or prime meridian. Kept for wire compatibility
	// with existing clients.
	if req.Latitude == 0 || req.Longitude == 0 {
		return nil, utils.NewValidationError("Latitude and longitude are required")
	}

	now := time.Now()

	address := req.Address
	if address == "" {
		address = "Location updating..."
	}

	location := models.AlertLocation{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		Address:   address,
	}
	point := models.LocationPoint{
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Accuracy:  req.Accuracy,
		Timestamp: now,
	}

	alert, err := ls.alertRepo.AppendLocation(ctx, alertID, location, point)
	if err != nil && isTransientStorageError(err) {
		logrus.WithFields(logrus.Fields{
			"alertId": alertID,
			"error":   err.Error(),
		}).Warn("Transient storage error on location update, retrying once")

		select {
		case <-time.After(ls.retryDelay):
		case <-ctx.Done():
			return nil, utils.NewStorageError("append location", ctx.Err())
		}

		alert, err = ls.alertRepo.AppendLocation(ctx, alertID, location, point)
	}
	if err != nil {
		switch err {
		case repositories.ErrNotFound, repositories.ErrInvalidID:
			return nil, utils.NewNotFoundError("Alert")
		default:
			return nil, utils.NewStorageError("append location", err)
		}
	}

	ls.publisher.Publish(models.WSEventLocationUpdate, models.WSLocationUpdate{
		AlertID:            alert.ID,
		Location:           alert.Location,
		LastLocationUpdate: alert.LastLocationUpdate,
		IsOnline:           alert.IsOnline,
	})

	return alert, nil
}

// MarkOffline flags the reporter's device as no longer sending fixes. The
// location history is left untouched.
func (ls *LocationService) MarkOffline(ctx context.Context, alertID string) (*models.Alert, error) {
	alert, err := ls.alertRepo.UpdateFields(ctx, alertID, bson.M{"isOnline": false})
	if err != nil {
		return nil, mapStoreError(err, "mark alert offline")
	}

	ls.publisher.Publish(models.WSEventUserOffline, models.WSUserOffline{
		AlertID: alert.ID,
	})

	return alert, nil
}

// isTransientStorageError matches the network-level failures worth a single
// retry. Substring checks cover errors surfaced by wrapped drivers.
func isTransientStorageError(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsNetworkError(err) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "ECONNRESET") ||
		strings.Contains(strings.ToLower(msg), "connection reset")
}
