// Package observability keeps a durable trail of what the coordinator did:
// snapshots saved, reviews requested, store clears. It complements slog,
// which stays the primary operational log.
package observability

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/codecapture/idgen"
)

// Event types recorded by the coordinator.
const (
	EventSnapshotSaved   = "snapshot_saved"
	EventReviewRequested = "review_requested"
	EventStoreCleared    = "store_cleared"
)

// BusinessEvent is one domain-level event.
type BusinessEvent struct {
	EventType   string
	ServiceName string
	EntityType  string
	EntityID    string
	Action      string
	Details     string // optional JSON
	Success     bool
}

// RecordedEvent is a BusinessEvent read back from the log.
type RecordedEvent struct {
	BusinessEvent
	ID        string
	CreatedAt time.Time
}

// EventLogger writes business events.
type EventLogger struct {
	db     *sql.DB
	newID  idgen.Generator
	now    func() time.Time
	logger *slog.Logger
}

// EventLoggerOption configures an EventLogger.
type EventLoggerOption func(*EventLogger)

// WithEventIDGenerator sets the event ID generator.
func WithEventIDGenerator(gen idgen.Generator) EventLoggerOption {
	return func(l *EventLogger) { l.newID = gen }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) EventLoggerOption {
	return func(l *EventLogger) { l.now = now }
}

// WithLogger sets the logger used to report write failures.
func WithLogger(logger *slog.Logger) EventLoggerOption {
	return func(l *EventLogger) { l.logger = logger }
}

// NewEventLogger creates an EventLogger on a database where Init has run.
func NewEventLogger(db *sql.DB, opts ...EventLoggerOption) *EventLogger {
	l := &EventLogger{
		db:     db,
		newID:  idgen.Prefixed("evt_", idgen.Default),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// LogEvent records event. Failures are logged and swallowed: the event log
// never fails the operation it describes. A nil EventLogger is a no-op.
func (l *EventLogger) LogEvent(ctx context.Context, event BusinessEvent) {
	if l == nil {
		return
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO business_event_logs (
			event_id, event_type, service_name, entity_type, entity_id,
			action, details, success, created_at
		) VALUES (?,?,?,?,?,?,?,?,?)`,
		l.newID(), event.EventType, event.ServiceName, event.EntityType, event.EntityID,
		event.Action, event.Details, event.Success, l.now().Unix())
	if err != nil {
		l.logger.Error("observability: event log failed", "error", err, "event_type", event.EventType)
	}
}

// Recent returns up to limit events, newest first. An empty eventType
// matches all types.
func (l *EventLogger) Recent(ctx context.Context, eventType string, limit int) ([]RecordedEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT event_id, event_type, service_name, COALESCE(entity_type, ''),
		COALESCE(entity_id, ''), action, COALESCE(details, ''), success, created_at
		FROM business_event_logs`
	args := []any{}
	if eventType != "" {
		q += ` WHERE event_type = ?`
		args = append(args, eventType)
	}
	q += ` ORDER BY created_at DESC, event_id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("observability: query events: %w", err)
	}
	defer rows.Close()

	var out []RecordedEvent
	for rows.Next() {
		var e RecordedEvent
		var created int64
		if err := rows.Scan(&e.ID, &e.EventType, &e.ServiceName, &e.EntityType,
			&e.EntityID, &e.Action, &e.Details, &e.Success, &created); err != nil {
			return nil, fmt.Errorf("observability: scan event: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// Cleanup deletes events older than days. Zero or negative keeps everything.
func (l *EventLogger) Cleanup(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, nil
	}
	cutoff := l.now().Add(-time.Duration(days) * 24 * time.Hour).Unix()
	res, err := l.db.ExecContext(ctx, `DELETE FROM business_event_logs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("observability: cleanup: %w", err)
	}
	return res.RowsAffected()
}
