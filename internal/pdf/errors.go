package pdf

import (
	"errors"
	"fmt"
)

// FailureMessage is the only failure text shown to end users. Details stay in
// the logs.
const FailureMessage = "Failed to generate PDF. Please try again."

// ErrNoJobSheet is returned when a render request carries no job sheet.
var ErrNoJobSheet = errors.New("job sheet data missing")

// Stage identifies the pipeline step that failed.
type Stage string

// Pipeline stages.
const (
	StageBuild     Stage = "build"
	StageSanitize  Stage = "sanitize"
	StageRasterize Stage = "rasterize"
	StageAssemble  Stage = "assemble"
	StageStore     Stage = "store"
)

// RenderError represents a failed render with the stage it failed in.
type RenderError struct {
	Err      error
	Stage    Stage
	RenderID string
	Page     int
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s failed on page %d (render %s): %v", e.Stage, e.Page, e.RenderID, e.Err)
	}
	return fmt.Sprintf("%s failed (render %s): %v", e.Stage, e.RenderID, e.Err)
}

// Unwrap returns the underlying error.
func (e *RenderError) Unwrap() error {
	return e.Err
}

func newRenderError(stage Stage, err error) *RenderError {
	return &RenderError{Stage: stage, Err: err}
}

// StageOf returns the stage a render error failed in, or "" for other errors.
func StageOf(err error) Stage {
	var re *RenderError
	if errors.As(err, &re) {
		return re.Stage
	}
	return ""
}
