package docpipe

import "errors"

// Input errors are fatal and require user action; the orchestrator surfaces
// them verbatim in the handbook's error_message.
var (
	ErrFileNotFound      = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrFileTooLarge      = errors.New("file too large")
	ErrCorruptDocument   = errors.New("corrupt document")
)
