package client

import (
	"sync"
	"time"
)

// PendingQueue buffers location fixes while the server is unreachable.
// Draining removes entries before they are sent, so each fix is delivered at
// most once: a fix whose send fails mid-drain is lost, never duplicated.
type PendingQueue struct {
	mu     sync.Mutex
	points []QueuedPoint
	limit  int
}

const defaultQueueLimit = 200

func NewPendingQueue() *PendingQueue {
	return &PendingQueue{limit: defaultQueueLimit}
}

// Enqueue adds a fix, dropping the oldest entries once the limit is hit.
func (q *PendingQueue) Enqueue(point QueuedPoint) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if point.QueuedAt.IsZero() {
		point.QueuedAt = time.Now()
	}

	q.points = append(q.points, point)
	if len(q.points) > q.limit {
		q.points = q.points[len(q.points)-q.limit:]
	}
}

// Drain removes and returns every queued fix in arrival order.
func (q *PendingQueue) Drain() []QueuedPoint {
	q.mu.Lock()
	defer q.mu.Unlock()

	points := q.points
	q.points = nil
	return points
}

// Restore reloads persisted fixes, typically after an app restart.
func (q *PendingQueue) Restore(points []QueuedPoint) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.points = append(q.points, points...)
	if len(q.points) > q.limit {
		q.points = q.points[len(q.points)-q.limit:]
	}
}

func (q *PendingQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.points)
}

// Snapshot copies the queue without draining it, for persistence.
func (q *PendingQueue) Snapshot() []QueuedPoint {
	q.mu.Lock()
	defer q.mu.Unlock()

	points := make([]QueuedPoint, len(q.points))
	copy(points, q.points)
	return points
}
