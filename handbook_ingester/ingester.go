package handbook_ingester

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/siddu015/Camply/docpipe"
	"github.com/siddu015/Camply/handbook_reader"
	"github.com/siddu015/Camply/handbook_store"
	"github.com/siddu015/Camply/observability"
)

var (
	ErrHandbookNotFound  = errors.New("handbook not found")
	ErrAlreadyProcessing = errors.New("handbook already processing")
	ErrAlreadyCompleted  = errors.New("handbook already completed")
	ErrInvalidRequest    = errors.New("invalid request")
)

// Ingester drives the handbook pipeline: download, extract, categorize,
// store. One run per handbook at a time; concurrent triggers for the same
// handbook are serialized and the loser sees the status conflict.
type Ingester struct {
	cfg     *Config
	store   *handbook_store.Store
	storage ObjectStorage
	loader  *docpipe.Loader
	reader  *handbook_reader.Reader
	logger  *slog.Logger

	events  *observability.EventLogger
	metrics *observability.MetricsManager

	mu       sync.Mutex
	inflight map[string]*handbookLock

	wg sync.WaitGroup
}

// Option configures the Ingester.
type Option func(*Ingester)

// WithEventLogger enables business event recording.
func WithEventLogger(l *observability.EventLogger) Option {
	return func(g *Ingester) { g.events = l }
}

// WithMetrics enables pipeline metric recording.
func WithMetrics(m *observability.MetricsManager) Option {
	return func(g *Ingester) { g.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Ingester) { g.logger = l }
}

// NewIngester wires the pipeline components.
func NewIngester(cfg *Config, store *handbook_store.Store, storage ObjectStorage, opts ...Option) *Ingester {
	g := &Ingester{
		cfg:      cfg,
		store:    store,
		storage:  storage,
		logger:   slog.Default(),
		inflight: make(map[string]*handbookLock),
	}
	for _, o := range opts {
		o(g)
	}
	g.loader = docpipe.NewLoader(docpipe.Config{
		MaxFileSize: cfg.MaxFileBytes(),
		Logger:      g.logger,
	})
	readerCfg := cfg.Reader
	readerCfg.Logger = g.logger
	g.reader = handbook_reader.New(readerCfg)
	return g
}

// Wait blocks until all background runs finish. Used at shutdown.
func (g *Ingester) Wait() { g.wg.Wait() }

// handbookLock serializes pipeline runs for one handbook id.
type handbookLock struct {
	mu   sync.Mutex
	refs int
}

// acquireLock blocks until this goroutine holds the per-handbook lock,
// creating the entry on first use.
func (g *Ingester) acquireLock(id string) *handbookLock {
	g.mu.Lock()
	l, ok := g.inflight[id]
	if !ok {
		l = &handbookLock{}
		g.inflight[id] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()
	return l
}

// releaseLock drops the hold and evicts the entry once nobody waits on it,
// keeping the map bounded by in-flight runs rather than handbook history.
func (g *Ingester) releaseLock(id string, l *handbookLock) {
	l.mu.Unlock()
	g.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(g.inflight, id)
	}
	g.mu.Unlock()
}

// Process runs the full pipeline for one handbook. The row must be in the
// uploaded or failed state; completed handbooks are final.
func (g *Ingester) Process(ctx context.Context, handbookID string) error {
	lock := g.acquireLock(handbookID)
	defer g.releaseLock(handbookID, lock)

	h, err := g.store.GetHandbook(handbookID)
	if err != nil {
		return fmt.Errorf("load handbook: %w", err)
	}
	if h == nil {
		return ErrHandbookNotFound
	}

	switch h.ProcessingStatus {
	case handbook_store.StatusProcessing:
		return ErrAlreadyProcessing
	case handbook_store.StatusCompleted:
		return ErrAlreadyCompleted
	}

	if err := g.store.CASStatus(handbookID, h.ProcessingStatus, handbook_store.StatusProcessing); err != nil {
		if errors.Is(err, handbook_store.ErrStatusConflict) {
			return ErrAlreadyProcessing
		}
		return err
	}

	start := time.Now()
	result, runErr := g.run(ctx, h)
	if runErr != nil {
		g.fail(ctx, h, runErr)
		return runErr
	}

	if err := g.store.StoreProcessed(handbookID, result); err != nil {
		g.fail(ctx, h, err)
		return fmt.Errorf("store result: %w", err)
	}

	elapsed := time.Since(start)
	g.logger.Info("handbook processed",
		"handbook_id", handbookID,
		"user_id", h.UserID,
		"duration_ms", elapsed.Milliseconds(),
		"categories_with_content", result.ProcessingInfo.CategoriesWithContent,
		"completeness", result.ProcessingSummary.OverallCompleteness,
	)
	if g.metrics != nil {
		g.metrics.RecordSimple(observability.MetricPipelineDurationMs, float64(elapsed.Milliseconds()), "milliseconds")
		g.metrics.RecordSimple(observability.MetricHandbooksCompleted, 1, "count")
	}
	if g.events != nil {
		g.events.LogEvent(ctx, observability.BusinessEvent{
			EventType:   "handbook_processed",
			ServiceName: "handbook_ingester",
			EntityType:  "handbook",
			EntityID:    handbookID,
			UserID:      h.UserID,
			Action:      "process",
			Success:     true,
		})
	}
	return nil
}

// run executes the download and extraction phases under their timeouts.
func (g *Ingester) run(ctx context.Context, h *handbook_store.Handbook) (*handbook_reader.Result, error) {
	dlCtx, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.DownloadTimeoutSec)*time.Second)
	defer cancel()

	localPath, err := download(dlCtx, g.storage, h.StoragePath, g.cfg.TempDir, g.cfg.MaxFileBytes())
	if err != nil {
		return nil, err
	}
	defer os.Remove(localPath)

	procCtx, cancel := context.WithTimeout(ctx, time.Duration(g.cfg.ProcessTimeoutSec)*time.Second)
	defer cancel()

	doc, err := g.loader.Load(procCtx, localPath)
	if err != nil {
		return nil, fmt.Errorf("extract pdf: %w", err)
	}
	if doc.Quality != nil && doc.Quality.NeedsOCR() {
		g.logger.Warn("extraction quality suggests a scanned document",
			"handbook_id", h.HandbookID,
			"chars_per_page", doc.Quality.CharsPerPage,
		)
	}

	result, err := g.reader.Process(procCtx, doc.Text)
	if err != nil {
		return nil, err
	}
	result.ProcessingSummary.PageCount = doc.Metadata.PageCount
	result.ProcessingSummary.SuccessRate = doc.Stats.SuccessRate

	if report := handbook_reader.Validate(result); !report.IsValid {
		return nil, fmt.Errorf("invalid result: %v", report.Errors)
	}

	if g.metrics != nil {
		g.metrics.RecordSimple(observability.MetricPagesProcessed, float64(doc.Stats.ProcessedPages), "count")
	}
	return result, nil
}

// fail moves the handbook to failed and records the error.
func (g *Ingester) fail(ctx context.Context, h *handbook_store.Handbook, cause error) {
	g.logger.Error("handbook processing failed",
		"handbook_id", h.HandbookID,
		"user_id", h.UserID,
		"error", cause,
	)
	if err := g.store.SetError(h.HandbookID, cause.Error()); err != nil {
		g.logger.Error("record error message failed", "handbook_id", h.HandbookID, "error", err)
	}
	if err := g.store.CASStatus(h.HandbookID, handbook_store.StatusProcessing, handbook_store.StatusFailed); err != nil {
		g.logger.Error("mark failed failed", "handbook_id", h.HandbookID, "error", err)
	}
	if g.metrics != nil {
		g.metrics.RecordSimple(observability.MetricHandbooksFailed, 1, "count")
	}
	if g.events != nil {
		g.events.LogEvent(ctx, observability.BusinessEvent{
			EventType:   "handbook_processed",
			ServiceName: "handbook_ingester",
			EntityType:  "handbook",
			EntityID:    h.HandbookID,
			UserID:      h.UserID,
			Action:      "process",
			Details:     fmt.Sprintf(`{"error":%q}`, cause.Error()),
			Success:     false,
		})
	}
}

// RecoverStaleRuns fails rows left in processing by a previous crash.
// Called once at boot, before the listener starts.
func (g *Ingester) RecoverStaleRuns() error {
	n, err := g.store.RecoverStale()
	if err != nil {
		return fmt.Errorf("recover stale runs: %w", err)
	}
	if n > 0 {
		g.logger.Warn("recovered stale processing runs", "count", n)
	}
	return nil
}
