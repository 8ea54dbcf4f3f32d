package repositories

import (
	"context"
	"errors"
	"time"

	"rescuenet/models"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrInvalidID = errors.New("invalid alert ID")
	ErrNotFound  = errors.New("not found")
)

type AlertRepository struct {
	collection *mongo.Collection
}

func NewAlertRepository(database *mongo.Database) *AlertRepository {
	return &AlertRepository{
		collection: database.Collection("alerts"),
	}
}

func (ar *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	alert.ID = primitive.NewObjectID()
	alert.CreatedAt = time.Now()
	alert.UpdatedAt = time.Now()

	if alert.Status == "" {
		alert.Status = models.AlertStatusPending
	}

	_, err := ar.collection.InsertOne(ctx, alert)
	if err != nil {
		logrus.Errorf("Failed to create alert: %v", err)
		return err
	}

	return nil
}

func (ar *AlertRepository) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	var alert models.Alert
	err = ar.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		logrus.Errorf("Failed to get alert by ID: %v", err)
		return nil, err
	}

	return &alert, nil
}

// UpdateFields applies a partial field update and returns the post-update
// record.
func (ar *AlertRepository) UpdateFields(ctx context.Context, id string, fields bson.M) (*models.Alert, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	fields["updatedAt"] = time.Now()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var alert models.Alert
	err = ar.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": fields},
		opts,
	).Decode(&alert)

	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		logrus.Errorf("Failed to update alert: %v", err)
		return nil, err
	}

	return &alert, nil
}

// AppendLocation sets the current location and appends the sample to the
// bounded history in one atomic document update. The $slice keeps only the
// most recent entries; the store's commit order is the only ordering promise.
func (ar *AlertRepository) AppendLocation(ctx context.Context, id string, location models.AlertLocation, point models.LocationPoint) (*models.Alert, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidID
	}

	update := bson.M{
		"$set": bson.M{
			"location":           location,
			"lastLocationUpdate": point.Timestamp,
			"isOnline":           true,
			"updatedAt":          time.Now(),
		},
		"$push": bson.M{
			"locationHistory": bson.M{
				"$each":  []models.LocationPoint{point},
				"$slice": -models.MaxLocationHistory,
			},
		},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var alert models.Alert
	err = ar.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, update, opts).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &alert, nil
}

func (ar *AlertRepository) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Type != "" {
		query["type"] = filter.Type
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := ar.collection.Find(ctx, query, opts)
	if err != nil {
		logrus.Errorf("Failed to list alerts: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []models.Alert
	if err = cursor.All(ctx, &alerts); err != nil {
		logrus.Errorf("Failed to decode alerts: %v", err)
		return nil, err
	}

	return alerts, nil
}

func (ar *AlertRepository) GetByUser(ctx context.Context, userID string) ([]models.Alert, error) {
	userObjectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, errors.New("invalid user ID")
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := ar.collection.Find(ctx, bson.M{"userId": userObjectID}, opts)
	if err != nil {
		logrus.Errorf("Failed to get user alerts: %v", err)
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []models.Alert
	if err = cursor.All(ctx, &alerts); err != nil {
		return nil, err
	}

	return alerts, nil
}

func (ar *AlertRepository) Count(ctx context.Context) (int64, error) {
	return ar.collection.CountDocuments(ctx, bson.M{})
}

func (ar *AlertRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	return ar.collection.CountDocuments(ctx, bson.M{"status": status})
}

func (ar *AlertRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	return ar.collection.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
}

func (ar *AlertRepository) CountByType(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$type", "count": bson.M{"$sum": 1}}}},
	}

	cursor, err := ar.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []models.TypeCount
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Type] = row.Count
	}
	return counts, nil
}
