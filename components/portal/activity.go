package portal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// ActivityChannel tags every activity record emitted by the portal.
const ActivityChannel = "vendor-portal"

// ActivitySink persists activity records (go-users compatible).
type ActivitySink interface {
	Log(ctx context.Context, record types.ActivityRecord) error
}

// ActivityRecorder maps portal actions onto go-users activity records.
type ActivityRecorder struct {
	sink   ActivitySink
	logger *slog.Logger
	now    func() time.Time
}

// NewActivityRecorder wraps sink. A nil sink drops every record.
func NewActivityRecorder(sink ActivitySink, logger *slog.Logger) *ActivityRecorder {
	if logger == nil {
		logger = discardLogger()
	}
	return &ActivityRecorder{sink: sink, logger: logger, now: time.Now}
}

// Record logs verb on objectType/objectID for the session's vendor. Sink
// failures are logged and never reach the caller.
func (r *ActivityRecorder) Record(ctx context.Context, session Session, verb, objectType, objectID string, data map[string]any) {
	if r == nil || r.sink == nil {
		return
	}
	subject := SubjectUUID(session.CustomerID)
	payload := map[string]any{"customer_id": session.CustomerID}
	for k, v := range data {
		payload[k] = v
	}
	if session.ID != "" {
		payload["session_id"] = session.ID
	}
	record := types.ActivityRecord{
		ActorID:    subject,
		UserID:     subject,
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    ActivityChannel,
		Data:       payload,
		OccurredAt: r.now().UTC(),
	}
	if err := r.sink.Log(ctx, record); err != nil {
		r.logger.WarnContext(ctx, "activity sink failed", "verb", verb, "object_type", objectType, "error", err)
	}
}

// SubjectUUID derives a stable UUID for a backend customer id.
func SubjectUUID(customerID string) uuid.UUID {
	if customerID == "" {
		return uuid.Nil
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("vendor-portal:"+customerID))
}

// ActivityLog is an in-memory sink that keeps the most recent records per
// subject.
type ActivityLog struct {
	mu      sync.RWMutex
	limit   int
	records map[uuid.UUID][]types.ActivityRecord
}

// NewActivityLog keeps up to limit records per subject.
func NewActivityLog(limit int) *ActivityLog {
	if limit <= 0 {
		limit = 20
	}
	return &ActivityLog{limit: limit, records: map[uuid.UUID][]types.ActivityRecord{}}
}

var _ ActivitySink = (*ActivityLog)(nil)

// Log stores record.
func (l *ActivityLog) Log(_ context.Context, record types.ActivityRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	list := append(l.records[record.UserID], record)
	if len(list) > l.limit {
		list = list[len(list)-l.limit:]
	}
	l.records[record.UserID] = list
	return nil
}

// Recent returns up to limit records for customerID, newest first.
func (l *ActivityLog) Recent(customerID string, limit int) []types.ActivityRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	list := l.records[SubjectUUID(customerID)]
	if limit <= 0 || limit > len(list) {
		limit = len(list)
	}
	out := make([]types.ActivityRecord, 0, limit)
	for i := len(list) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, list[i])
	}
	return out
}

type sessionContextKey struct{}

// ContextWithSession stores the session snapshot on ctx.
func ContextWithSession(ctx context.Context, session Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// SessionFromContext extracts the session snapshot stored on ctx.
func SessionFromContext(ctx context.Context) (Session, bool) {
	if ctx == nil {
		return Session{}, false
	}
	session, ok := ctx.Value(sessionContextKey{}).(Session)
	return session, ok
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ActivityFeed lists the recent records of a vendor.
type ActivityFeed interface {
	Recent(customerID string, limit int) []types.ActivityRecord
}

// Recent returns recent records of customerID when the sink keeps a feed.
func (r *ActivityRecorder) Recent(customerID string, limit int) []types.ActivityRecord {
	if r == nil || r.sink == nil {
		return nil
	}
	feed, ok := r.sink.(ActivityFeed)
	if !ok {
		return nil
	}
	return feed.Recent(customerID, limit)
}
