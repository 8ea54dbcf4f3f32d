package services

import (
	"context"

	"rescuenet/models"
	"rescuenet/repositories"
	"rescuenet/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HistoryArchive is the full archive surface, a superset of the HistoryStore
// needed by the lifecycle service.
type HistoryArchive interface {
	HistoryStore
	GetByID(ctx context.Context, id string) (*models.AlertHistory, error)
	GetByUser(ctx context.Context, userID, finalStatus string, page, limit int64) ([]models.AlertHistory, int64, error)
	Delete(ctx context.Context, id string) error
	StatsByUser(ctx context.Context, userID string) (*models.HistoryStats, error)
}

type HistoryService struct {
	historyRepo HistoryArchive
	alertRepo   AlertStore
}

func NewHistoryService(historyRepo HistoryArchive, alertRepo AlertStore) *HistoryService {
	return &HistoryService{
		historyRepo: historyRepo,
		alertRepo:   alertRepo,
	}
}

// Archive copies a terminated alert into the history collection. A second
// archive attempt for the same alert conflicts rather than duplicating.
func (hs *HistoryService) Archive(ctx context.Context, alertID string) (*models.AlertHistory, error) {
	alert, err := hs.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, mapStoreError(err, "get alert for archive")
	}

	if !models.IsTerminalStatus(alert.Status) {
		return nil, utils.NewBadRequestError("Only resolved or cancelled alerts can be archived")
	}

	entry := models.NewAlertHistory(alert)
	if err := hs.historyRepo.Create(ctx, entry); err != nil {
		if err == repositories.ErrAlreadyArchived {
			return nil, utils.NewConflictError("Alert has already been archived")
		}
		return nil, utils.NewStorageError("archive alert", err)
	}

	return entry, nil
}

// GetUserHistory pages through a reporter's archived alerts, newest first,
// optionally filtered by final status.
func (hs *HistoryService) GetUserHistory(ctx context.Context, userID, finalStatus string, page, limit int64) (*models.HistoryListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	entries, total, err := hs.historyRepo.GetByUser(ctx, userID, finalStatus, page, limit)
	if err != nil {
		return nil, utils.NewStorageError("list alert history", err)
	}

	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}

	return &models.HistoryListResponse{
		History: entries,
		Pagination: models.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (hs *HistoryService) GetEntry(ctx context.Context, entryID string) (*models.AlertHistory, error) {
	entry, err := hs.historyRepo.GetByID(ctx, entryID)
	if err != nil {
		switch err {
		case repositories.ErrNotFound, repositories.ErrInvalidID:
			return nil, utils.NewNotFoundError("History entry")
		default:
			return nil, utils.NewStorageError("get history entry", err)
		}
	}
	return entry, nil
}

func (hs *HistoryService) DeleteEntry(ctx context.Context, entryID string) error {
	if err := hs.historyRepo.Delete(ctx, entryID); err != nil {
		switch err {
		case repositories.ErrNotFound, repositories.ErrInvalidID:
			return utils.NewNotFoundError("History entry")
		default:
			return utils.NewStorageError("delete history entry", err)
		}
	}
	return nil
}

func (hs *HistoryService) GetUserStats(ctx context.Context, userID string) (*models.HistoryStats, error) {
	stats, err := hs.historyRepo.StatsByUser(ctx, userID)
	if err != nil {
		return nil, utils.NewStorageError("history stats", err)
	}
	return stats, nil
}

// IsArchived reports whether the given alert already has a history entry.
func (hs *HistoryService) IsArchived(ctx context.Context, alertID primitive.ObjectID) (bool, error) {
	return hs.historyRepo.ExistsForAlert(ctx, alertID)
}
