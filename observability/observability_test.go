package observability

import (
	"context"
	"testing"
	"time"

	"github.com/siddu015/Camply/dbopen"
	_ "modernc.org/sqlite"
)

func TestEventLogger(t *testing.T) {
	db := dbopen.OpenMemory(t)
	if err := Init(db); err != nil {
		t.Fatal(err)
	}

	events := NewEventLogger(db)
	events.LogEvent(context.Background(), BusinessEvent{
		EventType:   "handbook",
		ServiceName: "handbook_reader",
		EntityType:  "handbook",
		EntityID:    "hbk_test",
		Action:      "completed",
		Success:     true,
	})

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM business_event_logs WHERE entity_id = 'hbk_test'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}
}

func TestMetricsManagerFlush(t *testing.T) {
	db := dbopen.OpenMemory(t)
	if err := Init(db); err != nil {
		t.Fatal(err)
	}

	mm := NewMetricsManager(db, 2, time.Hour)
	mm.RecordSimple(MetricPipelineDurationMs, 1200, "milliseconds")
	mm.RecordSimple(MetricPipelineDurationMs, 900, "milliseconds")
	// Buffer size 2: second Record triggers a synchronous flush.

	got, err := mm.Query(MetricPipelineDurationMs, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d metrics, want 2", len(got))
	}

	mm.RecordSimple(MetricHandbooksCompleted, 1, "count")
	mm.Close() // flushes the remainder

	got, err = mm.Query(MetricHandbooksCompleted, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d metrics, want 1", len(got))
	}
	if got[0].Value != 1 {
		t.Errorf("value = %v, want 1", got[0].Value)
	}
}
