package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"rescuenet/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeSource always returns the same fix.
type fakeSource struct {
	point QueuedPoint
}

func (f *fakeSource) Current() (QueuedPoint, error) {
	return f.point, nil
}

// alertServer is a minimal in-memory rendition of the alert API for driving
// the session controller.
type alertServer struct {
	mu            sync.Mutex
	alert         models.Alert
	locationCount int
	dropRequests  bool
	failStatus    bool
	notFound      bool
}

func newAlertServer() *alertServer {
	return &alertServer{
		alert: models.Alert{
			ID:     primitive.NewObjectID(),
			Type:   models.AlertTypeSOS,
			Status: models.AlertStatusPending,
		},
	}
}

func (as *alertServer) setStatus(status string) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.alert.Status = status
}

func (as *alertServer) setResponder(name string) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.alert.Status = models.AlertStatusResponding
	as.alert.ResponderName = name
}

func (as *alertServer) setNotFound(missing bool) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.notFound = missing
}

func (as *alertServer) setDropRequests(drop bool) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.dropRequests = drop
}

func (as *alertServer) locationsReceived() int {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.locationCount
}

func (as *alertServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		as.mu.Lock()
		if as.dropRequests {
			as.mu.Unlock()
			// Kill the connection so the client sees a transport error,
			// not an HTTP status.
			hj, ok := w.(http.Hijacker)
			if !ok {
				panic("response writer does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}

		if as.notFound {
			as.writeError(w, http.StatusNotFound, "Alert not found")
			as.mu.Unlock()
			return
		}

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/alerts":
			as.writeEnvelope(w, http.StatusCreated, as.alert)

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/v1/alerts/"):
			as.writeEnvelope(w, http.StatusOK, as.alert)

		case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/location"):
			as.locationCount++
			as.writeEnvelope(w, http.StatusOK, as.alert)

		case r.Method == http.MethodPatch && strings.HasSuffix(r.URL.Path, "/status"):
			if as.failStatus {
				as.writeError(w, http.StatusInternalServerError, "storage unavailable")
				break
			}
			var req models.UpdateAlertStatusRequest
			json.NewDecoder(r.Body).Decode(&req)
			as.alert.Status = req.Status
			as.writeEnvelope(w, http.StatusOK, as.alert)

		default:
			as.writeError(w, http.StatusNotFound, "Alert not found")
		}
		as.mu.Unlock()
	})
}

func (as *alertServer) writeEnvelope(w http.ResponseWriter, code int, alert models.Alert) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.APIResponse{
		Success:   true,
		Data:      alert,
		Timestamp: time.Now(),
	})
}

func (as *alertServer) writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.APIResponse{
		Success:   false,
		Message:   message,
		Timestamp: time.Now(),
	})
}

func newTestSession(t *testing.T, server *httptest.Server, cfg SessionConfig) (*Session, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	source := &fakeSource{point: QueuedPoint{Latitude: 40.7, Longitude: -74.0}}
	session := NewSession(NewAPI(server.URL), store, source, cfg)
	t.Cleanup(session.Stop)
	return session, store
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSessionEndsWhenAlertResolves(t *testing.T) {
	backend := newAlertServer()
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	var statusMu sync.Mutex
	var seen []string

	session, _ := newTestSession(t, server, SessionConfig{
		LocationInterval: time.Hour,
		PollInterval:     10 * time.Millisecond,
		OnStatusChange: func(alert *models.Alert) {
			statusMu.Lock()
			seen = append(seen, alert.Status)
			statusMu.Unlock()
		},
	})

	alert, err := session.StartAlert(context.Background(), models.CreateAlertRequest{
		Type:     models.AlertTypeSOS,
		Location: &models.AlertLocation{Latitude: 40.7, Longitude: -74.0},
	})
	if err != nil {
		t.Fatalf("StartAlert: %v", err)
	}
	if session.ActiveAlertID() != alert.ID.Hex() {
		t.Fatalf("ActiveAlertID = %q, want %q", session.ActiveAlertID(), alert.ID.Hex())
	}

	backend.setStatus(models.AlertStatusResolved)

	waitFor(t, time.Second, func() bool {
		return session.ActiveAlertID() == ""
	}, "session did not clear after the alert resolved")

	statusMu.Lock()
	defer statusMu.Unlock()
	if len(seen) == 0 || seen[len(seen)-1] != models.AlertStatusResolved {
		t.Errorf("status changes seen = %v, want trailing resolved", seen)
	}
}

func TestSessionQueuesOfflineAndDrains(t *testing.T) {
	backend := newAlertServer()
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	session, _ := newTestSession(t, server, SessionConfig{
		LocationInterval: 10 * time.Millisecond,
		PollInterval:     time.Hour,
	})

	if _, err := session.StartAlert(context.Background(), models.CreateAlertRequest{
		Type:     models.AlertTypeSOS,
		Location: &models.AlertLocation{Latitude: 40.7, Longitude: -74.0},
	}); err != nil {
		t.Fatalf("StartAlert: %v", err)
	}

	backend.setDropRequests(true)

	waitFor(t, time.Second, func() bool {
		return session.IsOffline() && session.PendingCount() > 0
	}, "session never went offline with queued fixes")

	backend.setDropRequests(false)

	waitFor(t, time.Second, func() bool {
		return !session.IsOffline() && session.PendingCount() == 0
	}, "queue did not drain after connectivity returned")

	if backend.locationsReceived() == 0 {
		t.Error("server never received a location fix")
	}
}

func TestCancelClearsLocallyWhenServerFails(t *testing.T) {
	backend := newAlertServer()
	backend.failStatus = true
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	session, store := newTestSession(t, server, SessionConfig{
		LocationInterval: time.Hour,
		PollInterval:     time.Hour,
	})

	if _, err := session.StartAlert(context.Background(), models.CreateAlertRequest{
		Type:     models.AlertTypeSOS,
		Location: &models.AlertLocation{Latitude: 40.7, Longitude: -74.0},
	}); err != nil {
		t.Fatalf("StartAlert: %v", err)
	}

	err := session.Cancel(context.Background())
	if err == nil {
		t.Error("Cancel should surface the server error")
	}
	if session.ActiveAlertID() != "" {
		t.Error("Cancel must clear the session even when the server fails")
	}

	state, loadErr := store.Load()
	if loadErr != nil {
		t.Fatalf("Load: %v", loadErr)
	}
	if state.ActiveAlertID != "" {
		t.Error("Cancel must clear persisted state")
	}
}

func TestResumeRestoresPersistedSession(t *testing.T) {
	backend := newAlertServer()
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path)
	if err := store.Save(&SessionState{
		ActiveAlertID: backend.alert.ID.Hex(),
		PendingPoints: []QueuedPoint{{Latitude: 40.7, Longitude: -74.0}},
	}); err != nil {
		t.Fatal(err)
	}

	source := &fakeSource{point: QueuedPoint{Latitude: 40.7, Longitude: -74.0}}
	session := NewSession(NewAPI(server.URL), store, source, SessionConfig{
		LocationInterval: time.Hour,
		PollInterval:     time.Hour,
	})
	defer session.Stop()

	resumed, err := session.Resume()
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if !resumed {
		t.Fatal("Resume should report an active session")
	}
	if session.ActiveAlertID() != backend.alert.ID.Hex() {
		t.Errorf("ActiveAlertID = %q", session.ActiveAlertID())
	}
	if session.PendingCount() != 1 {
		t.Errorf("PendingCount = %d, want 1", session.PendingCount())
	}
}

func TestFailedReportLeavesPlaceholderEntry(t *testing.T) {
	backend := newAlertServer()
	backend.dropRequests = true
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	session, store := newTestSession(t, server, SessionConfig{
		LocationInterval: time.Hour,
		PollInterval:     time.Hour,
	})

	_, err := session.StartAlert(context.Background(), models.CreateAlertRequest{
		Type:     models.AlertTypeMedical,
		Location: &models.AlertLocation{Latitude: 40.7, Longitude: -74.0},
	})
	if err == nil {
		t.Fatal("StartAlert should fail while the server is unreachable")
	}
	if session.ActiveAlertID() != "" {
		t.Error("a failed report must not leave an active session")
	}

	entries := session.History()
	if len(entries) != 1 {
		t.Fatalf("history holds %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.AlertID != "" {
		t.Error("placeholder entry must carry no server id")
	}
	if entry.Status != HistoryStatusSent || entry.Type != models.AlertTypeMedical {
		t.Errorf("placeholder entry = %+v", entry)
	}
	if entry.Reconcilable() {
		t.Error("placeholder entries are never reconciled")
	}

	// The placeholder survives restarts.
	state, loadErr := store.Load()
	if loadErr != nil {
		t.Fatal(loadErr)
	}
	if len(state.History) != 1 {
		t.Errorf("persisted history holds %d entries, want 1", len(state.History))
	}
}

func TestRespondingRewritesHistoryEntry(t *testing.T) {
	backend := newAlertServer()
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	session, _ := newTestSession(t, server, SessionConfig{
		LocationInterval: time.Hour,
		PollInterval:     10 * time.Millisecond,
	})

	alert, err := session.StartAlert(context.Background(), models.CreateAlertRequest{
		Type:     models.AlertTypeSOS,
		Location: &models.AlertLocation{Latitude: 40.7, Longitude: -74.0},
	})
	if err != nil {
		t.Fatalf("StartAlert: %v", err)
	}

	backend.setResponder("Unit 12")

	waitFor(t, time.Second, func() bool {
		entries := session.History()
		return len(entries) == 1 && entries[0].Status == HistoryStatusReceived
	}, "history entry was not rewritten to received")

	entries := session.History()
	if entries[0].ResponderName != "Unit 12" {
		t.Errorf("ResponderName = %q, want Unit 12", entries[0].ResponderName)
	}
	// A responder on the way does not end the session.
	if session.ActiveAlertID() != alert.ID.Hex() {
		t.Error("responding status must keep the session active")
	}
}

func TestHistorySurvivesSessionEnd(t *testing.T) {
	backend := newAlertServer()
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	session, store := newTestSession(t, server, SessionConfig{
		LocationInterval: time.Hour,
		PollInterval:     10 * time.Millisecond,
	})

	if _, err := session.StartAlert(context.Background(), models.CreateAlertRequest{
		Type:     models.AlertTypeSOS,
		Location: &models.AlertLocation{Latitude: 40.7, Longitude: -74.0},
	}); err != nil {
		t.Fatalf("StartAlert: %v", err)
	}

	backend.setStatus(models.AlertStatusResolved)

	waitFor(t, time.Second, func() bool {
		return session.ActiveAlertID() == ""
	}, "session did not clear")

	entries := session.History()
	if len(entries) != 1 || entries[0].Status != models.AlertStatusResolved {
		t.Errorf("history after session end = %+v", entries)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(state.History) != 1 || state.History[0].Status != models.AlertStatusResolved {
		t.Errorf("persisted history = %+v", state.History)
	}
}

func TestForegroundRefreshPushesImmediately(t *testing.T) {
	backend := newAlertServer()
	server := httptest.NewServer(backend.handler())
	defer server.Close()

	session, _ := newTestSession(t, server, SessionConfig{
		LocationInterval: time.Hour,
		PollInterval:     time.Hour,
	})

	if _, err := session.StartAlert(context.Background(), models.CreateAlertRequest{
		Type:     models.AlertTypeSOS,
		Location: &models.AlertLocation{Latitude: 40.7, Longitude: -74.0},
	}); err != nil {
		t.Fatalf("StartAlert: %v", err)
	}

	if backend.locationsReceived() != 0 {
		t.Fatal("no push expected before the refresh")
	}

	session.ForegroundRefresh()

	if backend.locationsReceived() != 1 {
		t.Errorf("locations received = %d, want 1", backend.locationsReceived())
	}
}

func TestResumeWithNoSavedSession(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.json"))
	session := NewSession(NewAPI("http://localhost:0"), store, &fakeSource{}, SessionConfig{})

	resumed, err := session.Resume()
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if resumed {
		t.Error("Resume should report no session when nothing was saved")
	}
}
