package handbook_ingester

import (
	"context"
	"errors"
	"fmt"

	"github.com/siddu015/Camply/handbook_store"
	"github.com/siddu015/Camply/idgen"
	"github.com/siddu015/Camply/observability"
)

// newHandbookID generates handbook identifiers, hb_ prefixed.
var newHandbookID = idgen.Prefixed("hb_", idgen.Default)

// UploadRequest registers a freshly uploaded handbook for processing.
type UploadRequest struct {
	UserID           string `json:"user_id"`
	AcademicID       string `json:"academic_id,omitempty"`
	StoragePath      string `json:"storage_path"`
	OriginalFilename string `json:"original_filename,omitempty"`
	FileSizeBytes    int64  `json:"file_size_bytes,omitempty"`
}

// StatusResponse is the poll surface for a handbook.
type StatusResponse struct {
	HandbookID       string                          `json:"handbook_id"`
	ProcessingStatus handbook_store.ProcessingStatus `json:"processing_status"`
	UploadDate       string                          `json:"upload_date,omitempty"`
	ProcessedDate    string                          `json:"processed_date,omitempty"`
	ErrorMessage     string                          `json:"error_message,omitempty"`
	Duplicate        bool                            `json:"duplicate,omitempty"`
}

// StartProcessing registers the upload and schedules a background run.
// Re-registering the same user_id and storage_path is not an error: the
// existing row is returned with Duplicate set, and a failed prior run is
// retried.
func (g *Ingester) StartProcessing(ctx context.Context, req UploadRequest) (*StatusResponse, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user_id is required: %w", ErrInvalidRequest)
	}
	if req.StoragePath == "" {
		return nil, fmt.Errorf("storage_path is required: %w", ErrInvalidRequest)
	}

	existing, err := g.store.FindByUserAndPath(req.UserID, req.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}
	if existing != nil {
		if existing.ProcessingStatus == handbook_store.StatusFailed {
			g.schedule(existing.HandbookID)
		}
		return &StatusResponse{
			HandbookID:       existing.HandbookID,
			ProcessingStatus: existing.ProcessingStatus,
			UploadDate:       existing.UploadDate,
			ProcessedDate:    existing.ProcessedDate,
			ErrorMessage:     existing.ErrorMessage,
			Duplicate:        true,
		}, nil
	}

	h := &handbook_store.Handbook{
		HandbookID:       newHandbookID(),
		UserID:           req.UserID,
		AcademicID:       req.AcademicID,
		StoragePath:      req.StoragePath,
		OriginalFilename: req.OriginalFilename,
		FileSizeBytes:    req.FileSizeBytes,
	}
	if err := g.store.CreateHandbook(h); err != nil {
		return nil, fmt.Errorf("create handbook: %w", err)
	}

	g.logger.Info("handbook registered",
		"handbook_id", h.HandbookID,
		"user_id", h.UserID,
		"storage_path", h.StoragePath,
	)
	if g.events != nil {
		g.events.LogEvent(ctx, observabilityUploadEvent(h))
	}

	g.schedule(h.HandbookID)
	return &StatusResponse{
		HandbookID:       h.HandbookID,
		ProcessingStatus: h.ProcessingStatus,
		UploadDate:       h.UploadDate,
	}, nil
}

// ProcessExisting triggers a run for an already-registered handbook. Only
// uploaded and failed rows are eligible.
func (g *Ingester) ProcessExisting(ctx context.Context, handbookID string) (*StatusResponse, error) {
	h, err := g.store.GetHandbook(handbookID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrHandbookNotFound
	}
	switch h.ProcessingStatus {
	case handbook_store.StatusProcessing:
		return nil, ErrAlreadyProcessing
	case handbook_store.StatusCompleted:
		return nil, ErrAlreadyCompleted
	}

	g.schedule(handbookID)
	return &StatusResponse{
		HandbookID:       h.HandbookID,
		ProcessingStatus: h.ProcessingStatus,
		UploadDate:       h.UploadDate,
	}, nil
}

// PollStatus reports where a handbook sits in the state machine.
func (g *Ingester) PollStatus(ctx context.Context, handbookID string) (*StatusResponse, error) {
	h, err := g.store.GetHandbook(handbookID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrHandbookNotFound
	}
	return &StatusResponse{
		HandbookID:       h.HandbookID,
		ProcessingStatus: h.ProcessingStatus,
		UploadDate:       h.UploadDate,
		ProcessedDate:    h.ProcessedDate,
		ErrorMessage:     h.ErrorMessage,
	}, nil
}

func observabilityUploadEvent(h *handbook_store.Handbook) observability.BusinessEvent {
	return observability.BusinessEvent{
		EventType:   "handbook_uploaded",
		ServiceName: "handbook_ingester",
		EntityType:  "handbook",
		EntityID:    h.HandbookID,
		UserID:      h.UserID,
		Action:      "upload",
		Success:     true,
	}
}

// schedule runs the pipeline in the background. The run carries its own
// context so an HTTP client disconnect never aborts processing.
func (g *Ingester) schedule(handbookID string) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		err := g.Process(context.Background(), handbookID)
		if err != nil && !errors.Is(err, ErrAlreadyProcessing) && !errors.Is(err, ErrAlreadyCompleted) {
			g.logger.Error("background run failed", "handbook_id", handbookID, "error", err)
		}
	}()
}
