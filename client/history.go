package client

import (
	"time"

	"rescuenet/models"
)

// Local history entry statuses. "sent" and "received" are client-side labels;
// terminal entries carry the server's status verbatim.
const (
	HistoryStatusSent     = "sent"
	HistoryStatusReceived = "received"
)

// HistoryEntry mirrors one reported alert in the device's local history. An
// entry recorded after a failed report has no AlertID and stays a permanent
// "sent" placeholder; it can never be confirmed against the server.
type HistoryEntry struct {
	ID            string    `json:"id"`
	AlertID       string    `json:"alertId,omitempty"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	ResponderName string    `json:"responderName,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// IsTerminal reports whether the entry already carries a final status.
func (e HistoryEntry) IsTerminal() bool {
	return models.IsTerminalStatus(e.Status)
}

// Reconcilable reports whether the entry is worth re-checking against the
// server: it has a server id and no final status yet.
func (e HistoryEntry) Reconcilable() bool {
	return e.AlertID != "" && !e.IsTerminal()
}
