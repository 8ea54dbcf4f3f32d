package services

import (
	"context"
	"testing"

	"rescuenet/models"
	"rescuenet/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistoryService() (*HistoryService, *AlertService) {
	alerts := newFakeAlertStore()
	history := newFakeHistoryStore()
	alertService := NewAlertService(alerts, history, &fakePublisher{}, nil, nil)
	return NewHistoryService(history, alerts), alertService
}

func TestArchive(t *testing.T) {
	ctx := context.Background()

	t.Run("resolving archives the alert", func(t *testing.T) {
		historyService, alertService := newTestHistoryService()
		alert := mustCreate(t, ctx, alertService)

		_, err := alertService.UpdateStatus(ctx, alert.ID.Hex(), models.UpdateAlertStatusRequest{
			Status: models.AlertStatusResolved,
		})
		require.NoError(t, err)

		archived, err := historyService.IsArchived(ctx, alert.ID)
		require.NoError(t, err)
		assert.True(t, archived)
	})

	t.Run("rejects an active alert", func(t *testing.T) {
		historyService, alertService := newTestHistoryService()
		alert := mustCreate(t, ctx, alertService)

		_, err := historyService.Archive(ctx, alert.ID.Hex())
		require.Error(t, err)

		serviceErr, ok := utils.GetServiceError(err)
		require.True(t, ok)
		assert.Equal(t, 400, serviceErr.StatusCode)
	})

	t.Run("second archive conflicts", func(t *testing.T) {
		historyService, alertService := newTestHistoryService()
		alert := mustCreate(t, ctx, alertService)

		_, err := alertService.UpdateStatus(ctx, alert.ID.Hex(), models.UpdateAlertStatusRequest{
			Status: models.AlertStatusCancelled,
		})
		require.NoError(t, err)

		_, err = historyService.Archive(ctx, alert.ID.Hex())
		require.Error(t, err)

		serviceErr, ok := utils.GetServiceError(err)
		require.True(t, ok)
		assert.Equal(t, 409, serviceErr.StatusCode)
	})

	t.Run("unknown alert", func(t *testing.T) {
		historyService, _ := newTestHistoryService()

		_, err := historyService.Archive(ctx, "5f9b3b3b3b3b3b3b3b3b3b3b")
		require.Error(t, err)

		serviceErr, ok := utils.GetServiceError(err)
		require.True(t, ok)
		assert.Equal(t, 404, serviceErr.StatusCode)
	})
}

func TestGetUserHistory(t *testing.T) {
	ctx := context.Background()
	historyService, _ := newTestHistoryService()

	t.Run("normalizes pagination parameters", func(t *testing.T) {
		response, err := historyService.GetUserHistory(ctx, "5f9b3b3b3b3b3b3b3b3b3b3b", "", 0, 500)
		require.NoError(t, err)

		assert.Equal(t, int64(1), response.Pagination.Page)
		assert.Equal(t, int64(20), response.Pagination.Limit)
		assert.Equal(t, int64(0), response.Pagination.Total)
	})
}

func TestGetEntry(t *testing.T) {
	ctx := context.Background()
	historyService, _ := newTestHistoryService()

	_, err := historyService.GetEntry(ctx, "5f9b3b3b3b3b3b3b3b3b3b3b")
	require.Error(t, err)

	serviceErr, ok := utils.GetServiceError(err)
	require.True(t, ok)
	assert.Equal(t, 404, serviceErr.StatusCode)
}

func TestDeleteEntry(t *testing.T) {
	ctx := context.Background()
	historyService, alertService := newTestHistoryService()
	alert := mustCreate(t, ctx, alertService)

	_, err := alertService.UpdateStatus(ctx, alert.ID.Hex(), models.UpdateAlertStatusRequest{
		Status: models.AlertStatusResolved,
	})
	require.NoError(t, err)

	response, err := historyService.GetUserHistory(ctx, alert.UserID.Hex(), "", 1, 20)
	require.NoError(t, err)
	require.Len(t, response.History, 1)

	err = historyService.DeleteEntry(ctx, response.History[0].ID.Hex())
	require.NoError(t, err)

	err = historyService.DeleteEntry(ctx, response.History[0].ID.Hex())
	require.Error(t, err)
}
