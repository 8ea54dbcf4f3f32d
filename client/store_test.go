package client

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path)

	saved := &SessionState{
		ActiveAlertID: "5f9b3b3b3b3b3b3b3b3b3b3b",
		PendingPoints: []QueuedPoint{
			{Latitude: 40.7, Longitude: -74.0, Accuracy: 10},
		},
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if loaded.ActiveAlertID != saved.ActiveAlertID {
		t.Errorf("ActiveAlertID = %q, want %q", loaded.ActiveAlertID, saved.ActiveAlertID)
	}
	if len(loaded.PendingPoints) != 1 || loaded.PendingPoints[0].Latitude != 40.7 {
		t.Errorf("PendingPoints = %+v", loaded.PendingPoints)
	}
	if loaded.SavedAt.IsZero() {
		t.Error("Save should stamp SavedAt")
	}
}

func TestStoreLoadMissingFile(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.json"))

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.ActiveAlertID != "" || len(state.PendingPoints) != 0 {
		t.Errorf("missing file should load as empty state, got %+v", state)
	}
}

func TestStoreLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	state, err := NewStore(path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if state.ActiveAlertID != "" {
		t.Errorf("corrupt file should load as empty state, got %+v", state)
	}
}

func TestStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store := NewStore(path)

	if err := store.Save(&SessionState{ActiveAlertID: "abc"}); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Clear should remove the state file")
	}

	// Clearing an already-absent file is fine.
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
}
