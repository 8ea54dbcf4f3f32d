package repositories

import (
	"context"
	"errors"

	"rescuenet/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrAlreadyArchived is returned when a history entry already exists for an
// alert; a duplicate archive attempt is rejected, never overwritten.
var ErrAlreadyArchived = errors.New("alert already archived")

type AlertHistoryRepository struct {
	collection *mongo.Collection
}

func NewAlertHistoryRepository(database *mongo.Database) *AlertHistoryRepository {
	return &AlertHistoryRepository{
		collection: database.Collection("alert_history"),
	}
}

func (hr *AlertHistoryRepository) Create(ctx context.Context, entry *models.AlertHistory) error {
	entry.ID = primitive.NewObjectID()

	_, err := hr.collection.InsertOne(ctx, entry)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyArchived
		}
		logrus.Errorf("Failed to create alert history: %v", err)
		return err
	}

	return nil
}

func (hr *AlertHistoryRepository) ExistsForAlert(ctx context.Context, alertID primitive.ObjectID) (bool, error) {
	count, err := hr.collection.CountDocuments(ctx, bson.M{"originalAlertId": alertID})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (hr *AlertHistoryRepository) GetByID(ctx context.Context, id string) (*models.AlertHistory, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var entry models.AlertHistory
	err = hr.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&entry)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &entry, nil
}

func (hr *AlertHistoryRepository) GetByUser(ctx context.Context, userID string, finalStatus string, page, limit int64) ([]models.AlertHistory, int64, error) {
	userObjectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, 0, errors.New("invalid user ID")
	}

	query := bson.M{"userId": userObjectID}
	if finalStatus == models.AlertStatusResolved || finalStatus == models.AlertStatusCancelled {
		query["finalStatus"] = finalStatus
	}

	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}

	total, err := hr.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "alertCreatedAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := hr.collection.Find(ctx, query, opts)
	if err != nil {
		logrus.Errorf("Failed to get alert history: %v", err)
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var history []models.AlertHistory
	if err = cursor.All(ctx, &history); err != nil {
		return nil, 0, err
	}

	return history, total, nil
}

func (hr *AlertHistoryRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}

	result, err := hr.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}

func (hr *AlertHistoryRepository) StatsByUser(ctx context.Context, userID string) (*models.HistoryStats, error) {
	userObjectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errors.New("invalid user ID")
	}

	total, err := hr.collection.CountDocuments(ctx, bson.M{"userId": userObjectID})
	if err != nil {
		return nil, err
	}
	resolved, err := hr.collection.CountDocuments(ctx, bson.M{"userId": userObjectID, "finalStatus": models.AlertStatusResolved})
	if err != nil {
		return nil, err
	}
	cancelled, err := hr.collection.CountDocuments(ctx, bson.M{"userId": userObjectID, "finalStatus": models.AlertStatusCancelled})
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": userObjectID}}},
		{{Key: "$group", Value: bson.M{"_id": "$type", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.M{"count": -1}}},
	}

	cursor, err := hr.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var byType []models.TypeCount
	if err = cursor.All(ctx, &byType); err != nil {
		return nil, err
	}

	return &models.HistoryStats{
		TotalAlerts:     total,
		ResolvedAlerts:  resolved,
		CancelledAlerts: cancelled,
		AlertsByType:    byType,
	}, nil
}
