package handbook_store

import "errors"

// ProcessingStatus is the lifecycle state of an uploaded handbook.
type ProcessingStatus string

const (
	StatusUploaded   ProcessingStatus = "uploaded"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrStatusConflict means another writer changed the row first.
	ErrStatusConflict = errors.New("status conflict")
)

func (s ProcessingStatus) Valid() bool {
	switch s {
	case StatusUploaded, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the state machine allows moving to next.
// Failed handbooks may re-enter processing for a retry; completed is final.
func (s ProcessingStatus) CanTransition(next ProcessingStatus) bool {
	switch s {
	case StatusUploaded:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	case StatusFailed:
		return next == StatusProcessing
	}
	return false
}
