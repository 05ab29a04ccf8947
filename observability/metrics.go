package observability

import (
	"database/sql"
	"log/slog"
	"sync"
	"time"
)

// Metric is a single timeseries datapoint.
type Metric struct {
	Name      string
	Timestamp time.Time
	Value     float64
	Unit      string // "percent", "bytes", "milliseconds", "count"
}

// MetricsManager buffers metrics and flushes them to SQLite in batches.
// Buffer overflow flushes synchronously; a failing store drops the batch.
type MetricsManager struct {
	db            *sql.DB
	bufferSize    int
	flushInterval time.Duration
	buffer        []*Metric
	mu            sync.Mutex
	stop          chan struct{}
	done          chan struct{}
}

// NewMetricsManager creates a manager that flushes metrics in batches.
// Recommended defaults: bufferSize=100, flushInterval=5s.
func NewMetricsManager(db *sql.DB, bufferSize int, flushInterval time.Duration) *MetricsManager {
	mm := &MetricsManager{
		db:            db,
		bufferSize:    bufferSize,
		flushInterval: flushInterval,
		buffer:        make([]*Metric, 0, bufferSize),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	go mm.flushLoop()
	return mm
}

// Record queues a metric for async persistence. Non-blocking.
func (mm *MetricsManager) Record(m *Metric) {
	mm.mu.Lock()
	defer mm.mu.Unlock()
	mm.buffer = append(mm.buffer, m)
	if len(mm.buffer) >= mm.bufferSize {
		mm.flushLocked()
	}
}

// RecordSimple is a convenience helper.
func (mm *MetricsManager) RecordSimple(name string, value float64, unit string) {
	mm.Record(&Metric{
		Name:      name,
		Timestamp: time.Now(),
		Value:     value,
		Unit:      unit,
	})
}

// Query retrieves the most recent metrics for a name, newest first.
func (mm *MetricsManager) Query(metricName string, limit int) ([]*Metric, error) {
	q := "SELECT metric_name, timestamp, value, unit FROM metrics_timeseries WHERE metric_name = ? ORDER BY timestamp DESC"
	args := []any{metricName}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := mm.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metrics []*Metric
	for rows.Next() {
		m := &Metric{}
		var ts int64
		var unit sql.NullString
		if err := rows.Scan(&m.Name, &ts, &m.Value, &unit); err != nil {
			return nil, err
		}
		m.Timestamp = time.Unix(ts, 0)
		m.Unit = unit.String
		metrics = append(metrics, m)
	}
	return metrics, rows.Err()
}

// Close flushes remaining metrics and stops the flush loop.
func (mm *MetricsManager) Close() {
	close(mm.stop)
	<-mm.done
	mm.mu.Lock()
	mm.flushLocked()
	mm.mu.Unlock()
}

func (mm *MetricsManager) flushLoop() {
	defer close(mm.done)
	ticker := time.NewTicker(mm.flushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			mm.mu.Lock()
			mm.flushLocked()
			mm.mu.Unlock()
		case <-mm.stop:
			return
		}
	}
}

// flushLocked writes buffered metrics. Caller must hold mm.mu.
func (mm *MetricsManager) flushLocked() {
	if len(mm.buffer) == 0 {
		return
	}
	tx, err := mm.db.Begin()
	if err != nil {
		slog.Warn("metrics flush begin failed", "error", err)
		mm.buffer = mm.buffer[:0]
		return
	}
	for _, m := range mm.buffer {
		if _, err := tx.Exec(
			`INSERT INTO metrics_timeseries (metric_name, timestamp, value, unit) VALUES (?,?,?,?)`,
			m.Name, m.Timestamp.Unix(), m.Value, m.Unit,
		); err != nil {
			slog.Warn("metrics flush insert failed", "error", err, "metric", m.Name)
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Warn("metrics flush commit failed", "error", err)
	}
	mm.buffer = mm.buffer[:0]
}
