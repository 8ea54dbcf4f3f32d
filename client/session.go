package client

import (
	"context"
	"sync"
	"time"

	"rescuenet/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultLocationInterval = 5 * time.Second
	defaultPollInterval     = 5 * time.Second
)

// LocationSource yields the device's current position.
type LocationSource interface {
	Current() (QueuedPoint, error)
}

// SessionConfig tunes the controller; zero values take the defaults.
type SessionConfig struct {
	LocationInterval time.Duration
	PollInterval     time.Duration

	// OnStatusChange fires when polling observes a new status, including the
	// terminal one that ends the session.
	OnStatusChange func(alert *models.Alert)
}

// Session drives one active alert from the reporter's side: a periodic GPS
// push, a periodic status poll, and an offline queue that drains once
// connectivity returns.
type Session struct {
	api    *API
	store  *Store
	queue  *PendingQueue
	source LocationSource

	locationTicker *Ticker
	pollTicker     *Ticker

	onStatusChange func(alert *models.Alert)

	mu            sync.Mutex
	activeAlertID string
	lastStatus    string
	offline       bool
	history       []HistoryEntry
	contacts      []models.EmergencyContact
}

func NewSession(api *API, store *Store, source LocationSource, cfg SessionConfig) *Session {
	if cfg.LocationInterval <= 0 {
		cfg.LocationInterval = defaultLocationInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}

	s := &Session{
		api:            api,
		store:          store,
		queue:          NewPendingQueue(),
		source:         source,
		onStatusChange: cfg.OnStatusChange,
	}

	s.locationTicker = NewTicker(cfg.LocationInterval, s.locationTick)
	s.pollTicker = NewTicker(cfg.PollInterval, s.pollTick)

	return s
}

// StartAlert reports a new emergency and begins the location and poll loops.
// Creation needs connectivity; a failed report leaves only a local placeholder
// history entry with no server id, which is never confirmed later.
func (s *Session) StartAlert(ctx context.Context, req models.CreateAlertRequest) (*models.Alert, error) {
	alert, err := s.api.CreateAlert(ctx, req)
	if err != nil {
		s.mu.Lock()
		s.history = append(s.history, HistoryEntry{
			ID:        uuid.NewString(),
			Type:      req.Type,
			Status:    HistoryStatusSent,
			CreatedAt: time.Now(),
		})
		s.mu.Unlock()
		s.persist()
		return nil, err
	}

	s.mu.Lock()
	s.activeAlertID = alert.ID.Hex()
	s.lastStatus = alert.Status
	s.offline = false
	s.history = append(s.history, HistoryEntry{
		ID:        alert.ID.Hex(),
		AlertID:   alert.ID.Hex(),
		Type:      alert.Type,
		Status:    HistoryStatusSent,
		CreatedAt: alert.CreatedAt,
	})
	s.mu.Unlock()

	s.persist()

	s.locationTicker.Start()
	s.pollTicker.Start()

	return alert, nil
}

// Resume picks up a session persisted by a previous run. Returns false when
// no active alert was stored.
func (s *Session) Resume() (bool, error) {
	state, err := s.store.Load()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	s.activeAlertID = state.ActiveAlertID
	s.history = state.History
	s.contacts = state.Contacts
	s.mu.Unlock()

	s.queue.Restore(state.PendingPoints)

	if state.ActiveAlertID == "" {
		return false, nil
	}

	s.locationTicker.Start()
	s.pollTicker.Start()

	return true, nil
}

// Cancel asks the server to cancel and then clears local state whether or
// not the server could be reached. A failed cancel is reconciled later.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	alertID := s.activeAlertID
	s.mu.Unlock()

	var cancelErr error
	if alertID != "" {
		if _, err := s.api.CancelAlert(ctx, alertID); err != nil {
			logrus.Warnf("Cancel request failed for alert %s, clearing locally: %v", alertID, err)
			cancelErr = err
		}
		s.markHistoryStatus(alertID, models.AlertStatusCancelled, "")
	}

	s.clearSession()

	return cancelErr
}

// ForegroundRefresh forces one immediate location push outside the timer
// cadence, for when the app returns to the foreground mid-incident.
func (s *Session) ForegroundRefresh() {
	if s.ActiveAlertID() == "" {
		return
	}
	s.locationTick()
}

// Stop halts the loops without clearing state, e.g. when the app backgrounds.
func (s *Session) Stop() {
	s.locationTicker.Stop()
	s.pollTicker.Stop()
	s.persist()
}

func (s *Session) ActiveAlertID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeAlertID
}

func (s *Session) IsOffline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offline
}

func (s *Session) PendingCount() int {
	return s.queue.Len()
}

// locationTick captures a fix and ships it, queueing on transport failure.
func (s *Session) locationTick() {
	s.mu.Lock()
	alertID := s.activeAlertID
	s.mu.Unlock()

	if alertID == "" {
		return
	}

	point, err := s.source.Current()
	if err != nil {
		logrus.Debugf("Location source unavailable: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	err = s.api.PushLocation(ctx, alertID, models.UpdateLocationRequest{
		Latitude:  point.Latitude,
		Longitude: point.Longitude,
		Accuracy:  point.Accuracy,
		Address:   point.Address,
	})

	switch {
	case err == nil:
		s.setOffline(false)
		s.drainQueue(ctx, alertID)

	case IsNotFound(err):
		// The alert is gone server-side; the session is over.
		logrus.Warnf("Alert %s no longer exists, clearing session", alertID)
		s.clearSession()

	case isTransportError(err):
		s.setOffline(true)
		s.queue.Enqueue(point)
		s.persist()

	default:
		// Rejected fix (e.g. zero coordinates). Dropped, not queued.
		logrus.Debugf("Location update rejected: %v", err)
	}
}

// drainQueue flushes fixes captured while offline. Entries leave the queue
// before each send, so a mid-drain failure loses the remainder instead of
// redelivering anything.
func (s *Session) drainQueue(ctx context.Context, alertID string) {
	points := s.queue.Drain()
	if len(points) == 0 {
		return
	}

	logrus.Infof("Draining %d queued location fixes", len(points))

	for i, point := range points {
		err := s.api.PushLocation(ctx, alertID, models.UpdateLocationRequest{
			Latitude:  point.Latitude,
			Longitude: point.Longitude,
			Accuracy:  point.Accuracy,
			Address:   point.Address,
		})
		if err != nil {
			if isTransportError(err) {
				s.setOffline(true)
			}
			logrus.Warnf("Queue drain stopped after %d/%d fixes: %v", i, len(points), err)
			break
		}
	}

	s.persist()
}

// pollTick refreshes the alert status; a terminal status ends the session.
func (s *Session) pollTick() {
	s.mu.Lock()
	alertID := s.activeAlertID
	s.mu.Unlock()

	if alertID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer cancel()

	alert, err := s.api.GetAlert(ctx, alertID)
	if err != nil {
		if IsNotFound(err) {
			logrus.Warnf("Alert %s no longer exists, clearing session", alertID)
			s.clearSession()
			return
		}
		if isTransportError(err) {
			s.setOffline(true)
		}
		return
	}

	s.setOffline(false)

	s.mu.Lock()
	changed := alert.Status != s.lastStatus
	s.lastStatus = alert.Status
	s.mu.Unlock()

	if changed {
		switch {
		case alert.Status == models.AlertStatusResponding:
			s.markHistoryStatus(alertID, HistoryStatusReceived, alert.ResponderName)
		case models.IsTerminalStatus(alert.Status):
			s.markHistoryStatus(alertID, alert.Status, alert.ResponderName)
		}
		if s.onStatusChange != nil {
			s.onStatusChange(alert)
		}
	}

	if models.IsTerminalStatus(alert.Status) {
		logrus.Infof("Alert %s reached %s, ending session", alertID, alert.Status)
		s.clearSession()
	}
}

// markHistoryStatus rewrites the local history entry for the given alert.
func (s *Session) markHistoryStatus(alertID, status, responderName string) {
	s.mu.Lock()
	for i := range s.history {
		if s.history[i].AlertID != alertID {
			continue
		}
		s.history[i].Status = status
		if responderName != "" {
			s.history[i].ResponderName = responderName
		}
	}
	s.mu.Unlock()

	s.persist()
}

// History returns a copy of the local alert history.
func (s *Session) History() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]HistoryEntry, len(s.history))
	copy(entries, s.history)
	return entries
}

// SetContacts caches the user's emergency contacts locally.
func (s *Session) SetContacts(contacts []models.EmergencyContact) {
	s.mu.Lock()
	s.contacts = contacts
	s.mu.Unlock()

	s.persist()
}

// Contacts returns the cached emergency contacts.
func (s *Session) Contacts() []models.EmergencyContact {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts := make([]models.EmergencyContact, len(s.contacts))
	copy(contacts, s.contacts)
	return contacts
}

// clearSession ends the active-alert session: timers stop, the queue and
// active pointer go away. Local history and cached contacts survive.
func (s *Session) clearSession() {
	s.locationTicker.Stop()
	s.pollTicker.Stop()

	s.mu.Lock()
	s.activeAlertID = ""
	s.lastStatus = ""
	s.offline = false
	s.mu.Unlock()

	s.queue.Drain()

	s.persist()
}

func (s *Session) persist() {
	s.mu.Lock()
	state := &SessionState{
		ActiveAlertID: s.activeAlertID,
		History:       append([]HistoryEntry(nil), s.history...),
		Contacts:      append([]models.EmergencyContact(nil), s.contacts...),
	}
	s.mu.Unlock()

	state.PendingPoints = s.queue.Snapshot()

	if err := s.store.Save(state); err != nil {
		logrus.Warnf("Failed to persist session state: %v", err)
	}
}

func (s *Session) setOffline(offline bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offline = offline
}

// isTransportError distinguishes connectivity failures from server answers.
func isTransportError(err error) bool {
	if err == nil {
		return false
	}
	_, isAPI := err.(*APIError)
	return !isAPI
}
