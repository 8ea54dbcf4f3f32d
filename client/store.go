package client

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"rescuenet/models"
)

// SessionState is everything the app persists between launches: the active
// alert, if any, fixes queued while offline, the local alert history, and the
// cached emergency contacts. One JSON blob, no schema versioning.
type SessionState struct {
	ActiveAlertID string                    `json:"activeAlertId,omitempty"`
	PendingPoints []QueuedPoint             `json:"pendingPoints,omitempty"`
	History       []HistoryEntry            `json:"history,omitempty"`
	Contacts      []models.EmergencyContact `json:"contacts,omitempty"`
	SavedAt       time.Time                 `json:"savedAt"`
}

// QueuedPoint is a location fix captured while the server was unreachable.
type QueuedPoint struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Address   string    `json:"address,omitempty"`
	QueuedAt  time.Time `json:"queuedAt"`
}

// Store persists the session state as a JSON file. Writes go through a temp
// file and rename so a crash never leaves a half-written state behind.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Save(state *SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state.SavedAt = time.Now()

	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}

// Load reads the persisted state. A missing file yields an empty state, not
// an error.
func (s *Store) Load() (*SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &SessionState{}, nil
		}
		return nil, err
	}

	var state SessionState
	if err := json.Unmarshal(payload, &state); err != nil {
		// Corrupt state is discarded rather than wedging the app.
		return &SessionState{}, nil
	}

	return &state, nil
}

func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
