package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rescuenet/models"
	"rescuenet/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocationService() (*LocationService, *AlertService, *fakeAlertStore, *fakePublisher) {
	alerts := newFakeAlertStore()
	publisher := &fakePublisher{}
	alertService := NewAlertService(alerts, newFakeHistoryStore(), publisher, nil, nil)
	locationService := NewLocationService(alerts, publisher)
	locationService.retryDelay = time.Millisecond
	return locationService, alertService, alerts, publisher
}

func validLocationRequest() models.UpdateLocationRequest {
	return models.UpdateLocationRequest{
		Latitude:  40.73,
		Longitude: -73.99,
		Accuracy:  8,
		Address:   "Union Square",
	}
}

func TestPushLocation(t *testing.T) {
	ctx := context.Background()

	t.Run("appends a fix and broadcasts it", func(t *testing.T) {
		locationService, alertService, alerts, publisher := newTestLocationService()
		alert := mustCreate(t, ctx, alertService)

		updated, err := locationService.PushLocation(ctx, alert.ID.Hex(), validLocationRequest())
		require.NoError(t, err)

		assert.Len(t, updated.LocationHistory, 2)
		assert.Equal(t, 40.73, updated.Location.Latitude)
		assert.Contains(t, publisher.eventNames(), models.WSEventLocationUpdate)
		assert.Equal(t, 1, alerts.appendCall)
	})

	t.Run("rejects zero coordinates without touching storage", func(t *testing.T) {
		locationService, alertService, alerts, _ := newTestLocationService()
		alert := mustCreate(t, ctx, alertService)

		req := validLocationRequest()
		req.Latitude = 0

		_, err := locationService.PushLocation(ctx, alert.ID.Hex(), req)
		require.Error(t, err)

		serviceErr, ok := utils.GetServiceError(err)
		require.True(t, ok)
		assert.Equal(t, 400, serviceErr.StatusCode)
		assert.Equal(t, 0, alerts.appendCall)
	})

	t.Run("retries once on a transient error", func(t *testing.T) {
		locationService, alertService, alerts, _ := newTestLocationService()
		alert := mustCreate(t, ctx, alertService)

		alerts.appendErrs = []error{fmt.Errorf("write tcp 10.0.0.4:51234: ECONNRESET")}

		updated, err := locationService.PushLocation(ctx, alert.ID.Hex(), validLocationRequest())
		require.NoError(t, err)

		// First attempt failed, second succeeded; exactly one point landed.
		assert.Equal(t, 2, alerts.appendCall)
		assert.Len(t, updated.LocationHistory, 2)
	})

	t.Run("gives up after the second transient failure", func(t *testing.T) {
		locationService, alertService, alerts, _ := newTestLocationService()
		alert := mustCreate(t, ctx, alertService)

		alerts.appendErrs = []error{
			errors.New("connection reset by peer"),
			errors.New("connection reset by peer"),
		}

		_, err := locationService.PushLocation(ctx, alert.ID.Hex(), validLocationRequest())
		require.Error(t, err)

		serviceErr, ok := utils.GetServiceError(err)
		require.True(t, ok)
		assert.Equal(t, 500, serviceErr.StatusCode)
		assert.Equal(t, 2, alerts.appendCall)
	})

	t.Run("does not retry non-transient errors", func(t *testing.T) {
		locationService, alertService, alerts, _ := newTestLocationService()
		alert := mustCreate(t, ctx, alertService)

		alerts.appendErrs = []error{errors.New("document validation failed")}

		_, err := locationService.PushLocation(ctx, alert.ID.Hex(), validLocationRequest())
		require.Error(t, err)
		assert.Equal(t, 1, alerts.appendCall)
	})

	t.Run("unknown alert maps to not found", func(t *testing.T) {
		locationService, _, _, _ := newTestLocationService()

		_, err := locationService.PushLocation(ctx, "5f9b3b3b3b3b3b3b3b3b3b3b", validLocationRequest())
		require.Error(t, err)

		serviceErr, ok := utils.GetServiceError(err)
		require.True(t, ok)
		assert.Equal(t, 404, serviceErr.StatusCode)
	})

	t.Run("history is bounded at the cap", func(t *testing.T) {
		locationService, alertService, _, _ := newTestLocationService()
		alert := mustCreate(t, ctx, alertService)

		var updated *models.Alert
		var err error
		for i := 0; i < models.MaxLocationHistory+10; i++ {
			req := validLocationRequest()
			req.Latitude = 40.0 + float64(i)/1000
			updated, err = locationService.PushLocation(ctx, alert.ID.Hex(), req)
			require.NoError(t, err)
		}

		assert.Len(t, updated.LocationHistory, models.MaxLocationHistory)
		// The seed point and the oldest pushes fell off the front.
		first := updated.LocationHistory[0].Latitude
		assert.InDelta(t, 40.010, first, 0.0001)
	})
}

func TestMarkOffline(t *testing.T) {
	ctx := context.Background()
	locationService, alertService, _, publisher := newTestLocationService()
	alert := mustCreate(t, ctx, alertService)

	updated, err := locationService.MarkOffline(ctx, alert.ID.Hex())
	require.NoError(t, err)

	assert.False(t, updated.IsOnline)
	assert.Contains(t, publisher.eventNames(), models.WSEventUserOffline)
}
