package models

import "time"

// RenderProgress tracks how many documents of one PDF render have been
// placed.
type RenderProgress struct {
	Started   time.Time
	Documents int
	Rendered  int
}

// NewRenderProgress starts the clock for a render of documents pages.
func NewRenderProgress(documents int) *RenderProgress {
	return &RenderProgress{Started: time.Now(), Documents: documents}
}

// Advance records one more rendered document.
func (p *RenderProgress) Advance() {
	if p.Rendered < p.Documents {
		p.Rendered++
	}
}

// Percent is the share of documents rendered, 0 when there are none.
func (p *RenderProgress) Percent() int {
	if p.Documents == 0 {
		return 0
	}
	return p.Rendered * 100 / p.Documents
}

// Done reports whether every document has been rendered.
func (p *RenderProgress) Done() bool {
	return p.Documents > 0 && p.Rendered == p.Documents
}

// Elapsed is the time since the render started, rounded to milliseconds.
func (p *RenderProgress) Elapsed() time.Duration {
	return time.Since(p.Started).Round(time.Millisecond)
}

// LogFields returns the progress as slog key/value pairs.
func (p *RenderProgress) LogFields() []any {
	return []any{
		"rendered", p.Rendered,
		"documents", p.Documents,
		"progress", p.Percent(),
		"elapsed", p.Elapsed().String(),
	}
}
