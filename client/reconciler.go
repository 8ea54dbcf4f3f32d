package client

import (
	"context"
	"time"

	"rescuenet/models"

	"github.com/sirupsen/logrus"
)

const defaultReconcileInterval = 10 * time.Second

// Reconciler periodically re-checks every non-terminal entry in the local
// alert history against the server and patches terminal labels the device
// missed, e.g. after an app restart mid-incident. If the active alert itself
// turns out to be finished or gone, the session is cleared too.
type Reconciler struct {
	api      *API
	session  *Session
	interval time.Duration
	ticker   *Ticker
}

func NewReconciler(api *API, session *Session, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = defaultReconcileInterval
	}

	r := &Reconciler{
		api:      api,
		session:  session,
		interval: interval,
	}
	r.ticker = NewTicker(interval, r.reconcile)

	return r
}

func (r *Reconciler) Start() {
	r.ticker.Start()
}

func (r *Reconciler) Stop() {
	r.ticker.Stop()
}

func (r *Reconciler) reconcile() {
	activeID := r.session.ActiveAlertID()

	for _, entry := range r.session.History() {
		if !entry.Reconcilable() {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		alert, err := r.api.GetAlert(ctx, entry.AlertID)
		cancel()

		if err != nil {
			if IsNotFound(err) && entry.AlertID == activeID {
				logrus.Warnf("Reconciler: alert %s missing on server, clearing session", entry.AlertID)
				r.session.clearSession()
			}
			// Other per-entry failures are ignored; the next pass retries.
			continue
		}

		if !models.IsTerminalStatus(alert.Status) {
			continue
		}

		r.session.markHistoryStatus(entry.AlertID, alert.Status, alert.ResponderName)

		if entry.AlertID == activeID {
			logrus.Infof("Reconciler: alert %s is %s, clearing session", entry.AlertID, alert.Status)
			r.session.clearSession()
		}
	}
}
