package observability

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/hazyhaar/codecapture/dbopen"
	"github.com/hazyhaar/codecapture/idgen"
)

func setupObsDB(t *testing.T) *sql.DB {
	t.Helper()
	return dbopen.OpenMemory(t, dbopen.WithSchema(Schema))
}

func TestEventLogger_LogAndRecent(t *testing.T) {
	db := setupObsDB(t)
	ctx := context.Background()
	l := NewEventLogger(db, WithEventIDGenerator(idgen.Prefixed("evt_", idgen.Sequence())))

	l.LogEvent(ctx, BusinessEvent{
		EventType: EventSnapshotSaved, ServiceName: "background",
		EntityType: "snapshot", EntityID: "Two Sum", Action: "save", Success: true,
	})
	l.LogEvent(ctx, BusinessEvent{
		EventType: EventReviewRequested, ServiceName: "background",
		Action: "analyze", Details: `{"error":"rate limited"}`, Success: false,
	})

	all, err := l.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("events = %d, want 2", len(all))
	}

	saved, err := l.Recent(ctx, EventSnapshotSaved, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(saved) != 1 || saved[0].ID != "evt_1" || saved[0].EntityID != "Two Sum" || !saved[0].Success {
		t.Fatalf("saved = %+v", saved)
	}

	reviews, _ := l.Recent(ctx, EventReviewRequested, 10)
	if len(reviews) != 1 || reviews[0].Success || reviews[0].Details == "" {
		t.Fatalf("reviews = %+v", reviews)
	}
}

func TestEventLogger_NilIsNoop(t *testing.T) {
	var l *EventLogger
	l.LogEvent(context.Background(), BusinessEvent{EventType: EventStoreCleared})
}

func TestEventLogger_WriteFailureIsSwallowed(t *testing.T) {
	db := dbopen.OpenMemory(t) // no schema
	l := NewEventLogger(db)
	l.LogEvent(context.Background(), BusinessEvent{EventType: EventStoreCleared, Action: "clear"})
}

func TestEventLogger_Cleanup(t *testing.T) {
	db := setupObsDB(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	old := NewEventLogger(db, WithClock(func() time.Time { return now.AddDate(0, 0, -10) }))
	old.LogEvent(ctx, BusinessEvent{EventType: EventSnapshotSaved, ServiceName: "background", Action: "save", Success: true})

	l := NewEventLogger(db, WithClock(func() time.Time { return now }))
	l.LogEvent(ctx, BusinessEvent{EventType: EventSnapshotSaved, ServiceName: "background", Action: "save", Success: true})

	if n, err := l.Cleanup(ctx, 0); err != nil || n != 0 {
		t.Fatalf("Cleanup(0) = %d, %v", n, err)
	}
	n, err := l.Cleanup(ctx, 7)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if n != 1 {
		t.Fatalf("deleted = %d, want 1", n)
	}
	left, _ := l.Recent(ctx, "", 10)
	if len(left) != 1 {
		t.Fatalf("remaining = %d, want 1", len(left))
	}
}
