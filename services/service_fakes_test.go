package services

import (
	"context"
	"sync"
	"time"

	"rescuenet/models"
	"rescuenet/repositories"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeAlertStore is an in-memory AlertStore for service tests.
type fakeAlertStore struct {
	mu     sync.Mutex
	alerts map[string]*models.Alert

	// appendErrs are returned by successive AppendLocation calls before the
	// operation succeeds.
	appendErrs []error
	appendCall int
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{alerts: make(map[string]*models.Alert)}
}

func (f *fakeAlertStore) Create(ctx context.Context, alert *models.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if alert.ID.IsZero() {
		alert.ID = primitive.NewObjectID()
	}
	now := time.Now()
	alert.CreatedAt = now
	alert.UpdatedAt = now
	if alert.Status == "" {
		alert.Status = models.AlertStatusPending
	}

	clone := *alert
	f.alerts[alert.ID.Hex()] = &clone
	return nil
}

func (f *fakeAlertStore) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, repositories.ErrInvalidID
	}
	alert, ok := f.alerts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	clone := *alert
	return &clone, nil
}

func (f *fakeAlertStore) UpdateFields(ctx context.Context, id string, fields bson.M) (*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	alert, ok := f.alerts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}

	for key, value := range fields {
		switch key {
		case "status":
			alert.Status = value.(string)
		case "responderId":
			alert.ResponderID = value.(primitive.ObjectID)
		case "responderName":
			alert.ResponderName = value.(string)
		case "responseTime":
			alert.ResponseTime = value.(time.Time)
		case "resolvedTime":
			alert.ResolvedTime = value.(time.Time)
		case "isOnline":
			alert.IsOnline = value.(bool)
		}
	}
	alert.UpdatedAt = time.Now()

	clone := *alert
	return &clone, nil
}

func (f *fakeAlertStore) AppendLocation(ctx context.Context, id string, location models.AlertLocation, point models.LocationPoint) (*models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.appendCall < len(f.appendErrs) {
		err := f.appendErrs[f.appendCall]
		f.appendCall++
		if err != nil {
			return nil, err
		}
	} else {
		f.appendCall++
	}

	alert, ok := f.alerts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}

	alert.Location = location
	alert.LocationHistory = append(alert.LocationHistory, point)
	if len(alert.LocationHistory) > models.MaxLocationHistory {
		alert.LocationHistory = alert.LocationHistory[len(alert.LocationHistory)-models.MaxLocationHistory:]
	}
	alert.LastLocationUpdate = point.Timestamp
	alert.IsOnline = true
	alert.UpdatedAt = time.Now()

	clone := *alert
	return &clone, nil
}

func (f *fakeAlertStore) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Alert
	for _, alert := range f.alerts {
		if filter.Status != "" && alert.Status != filter.Status {
			continue
		}
		if filter.Type != "" && alert.Type != filter.Type {
			continue
		}
		out = append(out, *alert)
	}
	return out, nil
}

func (f *fakeAlertStore) GetByUser(ctx context.Context, userID string) ([]models.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Alert
	for _, alert := range f.alerts {
		if alert.UserID.Hex() == userID {
			out = append(out, *alert)
		}
	}
	return out, nil
}

func (f *fakeAlertStore) Count(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.alerts)), nil
}

func (f *fakeAlertStore) CountByStatus(ctx context.Context, status string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, alert := range f.alerts {
		if alert.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeAlertStore) CountSince(ctx context.Context, since time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var n int64
	for _, alert := range f.alerts {
		if alert.CreatedAt.After(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeAlertStore) CountByType(ctx context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]int64)
	for _, alert := range f.alerts {
		out[alert.Type]++
	}
	return out, nil
}

// fakeHistoryStore enforces the one-entry-per-alert rule like the unique
// index does.
type fakeHistoryStore struct {
	mu      sync.Mutex
	entries map[string]*models.AlertHistory

	createErr error
}

func newFakeHistoryStore() *fakeHistoryStore {
	return &fakeHistoryStore{entries: make(map[string]*models.AlertHistory)}
}

func (f *fakeHistoryStore) Create(ctx context.Context, entry *models.AlertHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}

	key := entry.OriginalAlertID.Hex()
	if _, exists := f.entries[key]; exists {
		return repositories.ErrAlreadyArchived
	}

	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	clone := *entry
	f.entries[key] = &clone
	return nil
}

func (f *fakeHistoryStore) ExistsForAlert(ctx context.Context, alertID primitive.ObjectID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, exists := f.entries[alertID.Hex()]
	return exists, nil
}

func (f *fakeHistoryStore) GetByID(ctx context.Context, id string) (*models.AlertHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, entry := range f.entries {
		if entry.ID.Hex() == id {
			clone := *entry
			return &clone, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeHistoryStore) GetByUser(ctx context.Context, userID, finalStatus string, page, limit int64) ([]models.AlertHistory, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.AlertHistory
	for _, entry := range f.entries {
		if entry.UserID.Hex() != userID {
			continue
		}
		if finalStatus != "" && entry.FinalStatus != finalStatus {
			continue
		}
		out = append(out, *entry)
	}
	return out, int64(len(out)), nil
}

func (f *fakeHistoryStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for key, entry := range f.entries {
		if entry.ID.Hex() == id {
			delete(f.entries, key)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (f *fakeHistoryStore) StatsByUser(ctx context.Context, userID string) (*models.HistoryStats, error) {
	return &models.HistoryStats{}, nil
}

// fakePublisher records every published event in order.
type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	Event   string
	Payload interface{}
}

func (f *fakePublisher) Publish(event string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Event: event, Payload: payload})
}

func (f *fakePublisher) eventNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, len(f.events))
	for i, e := range f.events {
		names[i] = e.Event
	}
	return names
}
