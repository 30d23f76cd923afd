package portal

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultToastTTL bounds how long an undelivered toast stays queued.
const DefaultToastTTL = 30 * time.Second

// ToastLevel selects the styling of a toast.
type ToastLevel string

const (
	ToastSuccess ToastLevel = "success"
	ToastError   ToastLevel = "error"
	ToastInfo    ToastLevel = "info"
	ToastWarning ToastLevel = "warning"
)

// Toast is a transient user notification.
type Toast struct {
	ID        string     `json:"id"`
	Level     ToastLevel `json:"type"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Notifier delivers user-facing notifications.
type Notifier interface {
	Notify(level ToastLevel, message string) Toast
}

// ToastQueue keeps the pending toasts of one session and fans new toasts out
// to in-process subscribers.
type ToastQueue struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items []Toast
	subs  map[int]chan Toast
	next  int
}

// ToastOption customizes a ToastQueue.
type ToastOption func(*ToastQueue)

// WithToastTTL overrides DefaultToastTTL.
func WithToastTTL(ttl time.Duration) ToastOption {
	return func(q *ToastQueue) {
		if ttl > 0 {
			q.ttl = ttl
		}
	}
}

// WithToastClock injects the clock used for expiry.
func WithToastClock(now func() time.Time) ToastOption {
	return func(q *ToastQueue) {
		if now != nil {
			q.now = now
		}
	}
}

// NewToastQueue builds an empty queue.
func NewToastQueue(opts ...ToastOption) *ToastQueue {
	q := &ToastQueue{
		ttl:  DefaultToastTTL,
		now:  time.Now,
		subs: make(map[int]chan Toast),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

var _ Notifier = (*ToastQueue)(nil)

// Notify queues a toast and broadcasts it to subscribers.
func (q *ToastQueue) Notify(level ToastLevel, message string) Toast {
	now := q.now()
	toast := Toast{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: now,
		ExpiresAt: now.Add(q.ttl),
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pruneLocked(now)
	q.items = append(q.items, toast)
	for _, ch := range q.subs {
		select {
		case ch <- toast:
		default:
		}
	}
	return toast
}

// Success queues a success toast.
func (q *ToastQueue) Success(message string) Toast { return q.Notify(ToastSuccess, message) }

// Error queues an error toast. The portal raises at most one per failed action.
func (q *ToastQueue) Error(message string) Toast { return q.Notify(ToastError, message) }

// Info queues an informational toast.
func (q *ToastQueue) Info(message string) Toast { return q.Notify(ToastInfo, message) }

// Warning queues a warning toast.
func (q *ToastQueue) Warning(message string) Toast { return q.Notify(ToastWarning, message) }

// Active returns the unexpired toasts in arrival order.
func (q *ToastQueue) Active() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pruneLocked(q.now())
	return append([]Toast(nil), q.items...)
}

// Drain returns the unexpired toasts and empties the queue.
func (q *ToastQueue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pruneLocked(q.now())
	out := q.items
	q.items = nil
	return out
}

// Dismiss removes the toast with id.
func (q *ToastQueue) Dismiss(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, toast := range q.items {
		if toast.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Subscribe returns a channel of new toasts and a cancel func. Slow
// subscribers miss toasts rather than block producers.
func (q *ToastQueue) Subscribe() (<-chan Toast, func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	id := q.next
	q.next++
	ch := make(chan Toast, 8)
	q.subs[id] = ch
	cancel := func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		if sub, ok := q.subs[id]; ok {
			delete(q.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (q *ToastQueue) pruneLocked(now time.Time) {
	kept := q.items[:0]
	for _, toast := range q.items {
		if now.Before(toast.ExpiresAt) {
			kept = append(kept, toast)
		}
	}
	clear(q.items[len(kept):])
	q.items = kept
}
