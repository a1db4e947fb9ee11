// Package report renders job sheets as standalone HTML documents. The same
// fragment builders serve the on-screen preview and the PDF pipeline.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/joshsymonds/jobsheet/internal/layout"
	"github.com/joshsymonds/jobsheet/internal/logo"
	"github.com/joshsymonds/jobsheet/internal/models"
	"github.com/joshsymonds/jobsheet/pkg/logger"
	"github.com/joshsymonds/jobsheet/pkg/pathutil"
)

//go:embed templates/*.html
var templateFS embed.FS

// Density selects the visual sizing of the rendered document.
type Density int

// Supported densities.
const (
	DensityScreen Density = iota
	DensityPrint
)

func (d Density) class() string {
	if d == DensityPrint {
		return "density-print"
	}
	return "density-screen"
}

// Builder renders report fragments and full documents.
type Builder struct {
	tmpl   *template.Template
	logger logger.Logger
	now    func() time.Time
}

// NewBuilder creates a Builder using the global logger.
func NewBuilder() (*Builder, error) {
	return NewBuilderWithLogger(logger.GetGlobalLogger())
}

// NewBuilderWithLogger creates a Builder with a custom logger.
func NewBuilderWithLogger(log logger.Logger) (*Builder, error) {
	tmpl, err := template.New("report").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &Builder{tmpl: tmpl, logger: log, now: time.Now}, nil
}

// WithClock replaces the time source used for file names.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Now returns the builder's current time.
func (b *Builder) Now() time.Time {
	return b.now()
}

func (b *Builder) render(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := b.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("executing %s template: %w", name, err)
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}

// Header renders the logo for hostname.
func (b *Builder) Header(hostname string) (template.HTML, error) {
	return b.render("header", logo.Markup(hostname))
}

// ClientInfo renders the eight-row client information grid.
func (b *Builder) ClientInfo(js *models.JobSheet) (template.HTML, error) {
	return b.render("client_info", clientInfoRows(js))
}

// Location renders the location table or its empty state.
func (b *Builder) Location(js *models.JobSheet) (template.HTML, error) {
	return b.render("location", buildLocation(js))
}

// BeforeAfter renders the before/after comparison. It returns "" when the
// job sheet does not have before/after capture enabled.
func (b *Builder) BeforeAfter(js *models.JobSheet) (template.HTML, error) {
	if js == nil || !js.BasicInfo.BeforeAfter {
		return "", nil
	}
	return b.render("before_after", buildBeforeAfter(js))
}

// Checklist renders the whole grouped checklist with its heading lines.
func (b *Builder) Checklist(js *models.JobSheet) (template.HTML, error) {
	var items []models.ChecklistItem
	if js != nil {
		items = js.ChecklistResponses
	}
	return b.render("checklist", buildChecklist(js, items, true))
}

// ChecklistPage renders a continuation page for chunk. Section badges keep
// their numbers from the whole checklist.
func (b *Builder) ChecklistPage(js *models.JobSheet, chunk []models.ChecklistItem, pageNumber int) (template.HTML, error) {
	banner, err := b.render("continued", pageNumber)
	if err != nil {
		return "", err
	}
	list, err := b.render("checklist", buildChecklist(js, chunk, false))
	if err != nil {
		return "", err
	}
	return banner + list, nil
}

// Remarks renders the aggregated remarks box.
func (b *Builder) Remarks(js *models.JobSheet, task *models.TaskDetails, comment string) (template.HTML, error) {
	return b.render("remarks", Remarks(js, task, comment))
}

// Footer renders the static disclaimer.
func (b *Builder) Footer() (template.HTML, error) {
	return b.render("footer", logo.SVG(logo.Default))
}

type documentData struct {
	Title        string
	Styles       template.HTML
	DensityClass string
	Body         template.HTML
}

// Wrap places body inside a complete HTML document.
func (b *Builder) Wrap(title string, body template.HTML, density Density) (string, error) {
	doc, err := b.render("document", documentData{
		Title:        title,
		Styles:       pageStylesHTML(),
		DensityClass: density.class(),
		Body:         body,
	})
	if err != nil {
		return "", err
	}
	return string(doc), nil
}

// Document renders the full report for in. A missing job sheet produces the
// "unavailable" document instead of an error.
func (b *Builder) Document(in models.Input, density Density) (string, error) {
	task := models.ParseTaskDetails(in.TaskDetails)
	js, ok := models.ParseJobSheet(in.JobSheetData)
	if !ok {
		b.logger.Warn("Job sheet missing from payload, rendering unavailable document")
		return b.unavailable(in.Hostname, density)
	}

	body, err := b.compose(
		func() (template.HTML, error) { return b.Header(in.Hostname) },
		func() (template.HTML, error) { return b.ClientInfo(js) },
		func() (template.HTML, error) { return b.Location(js) },
		func() (template.HTML, error) { return b.BeforeAfter(js) },
		func() (template.HTML, error) { return b.Checklist(js) },
		func() (template.HTML, error) { return b.Remarks(js, task, in.Comments) },
		b.Footer,
	)
	if err != nil {
		return "", err
	}

	return b.Wrap(documentTitle(js, task), body, density)
}

// PageDocuments renders one document per chunk of plan. The first page
// carries the header sections; remarks and footer follow the last chunk.
func (b *Builder) PageDocuments(in models.Input, plan layout.PagePlan, density Density) ([]string, error) {
	task := models.ParseTaskDetails(in.TaskDetails)
	js, ok := models.ParseJobSheet(in.JobSheetData)
	if !ok {
		doc, err := b.unavailable(in.Hostname, density)
		if err != nil {
			return nil, err
		}
		return []string{doc}, nil
	}

	chunks := plan.Chunks
	if len(chunks) == 0 {
		chunks = [][]models.ChecklistItem{js.ChecklistResponses}
	}

	title := documentTitle(js, task)
	docs := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		var parts []func() (template.HTML, error)
		if i == 0 {
			parts = append(parts,
				func() (template.HTML, error) { return b.Header(in.Hostname) },
				func() (template.HTML, error) { return b.ClientInfo(js) },
				func() (template.HTML, error) { return b.Location(js) },
				func() (template.HTML, error) { return b.BeforeAfter(js) },
				func() (template.HTML, error) { return b.render("checklist", buildChecklist(js, chunk, true)) },
			)
		} else {
			pageNumber := i + 1
			parts = append(parts, func() (template.HTML, error) { return b.ChecklistPage(js, chunk, pageNumber) })
		}
		if i == len(chunks)-1 {
			parts = append(parts,
				func() (template.HTML, error) { return b.Remarks(js, task, in.Comments) },
				b.Footer,
			)
		}

		body, err := b.compose(parts...)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		doc, err := b.Wrap(title, body, density)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		docs = append(docs, doc)
	}

	return docs, nil
}

func (b *Builder) unavailable(hostname string, density Density) (string, error) {
	body, err := b.compose(
		func() (template.HTML, error) { return b.Header(hostname) },
		func() (template.HTML, error) { return b.render("unavailable", nil) },
		b.Footer,
	)
	if err != nil {
		return "", err
	}
	return b.Wrap("Job Sheet", body, density)
}

func (b *Builder) compose(parts ...func() (template.HTML, error)) (template.HTML, error) {
	var sb strings.Builder
	for _, part := range parts {
		html, err := part()
		if err != nil {
			return "", err
		}
		if html != "" {
			sb.WriteString(string(html))
			sb.WriteByte('\n')
		}
	}
	return template.HTML(sb.String()), nil //nolint:gosec // fragments produced by html/template
}

func documentTitle(js *models.JobSheet, task *models.TaskDetails) string {
	id := task.ReportID()
	if id == "" && js != nil {
		id = js.BasicInfo.JobCardNumber
	}
	if id == "" {
		return "Job Sheet"
	}
	return "Job Sheet " + id
}

// FileName returns JobSheet_<id>_<YYYY-MM-DD>.<ext>. The id is the task id,
// falling back to the Unix millisecond timestamp of now.
func FileName(task *models.TaskDetails, ext string, now time.Time) string {
	id := task.ReportID()
	if id == "" {
		id = fmt.Sprintf("%d", now.UnixMilli())
	}
	return pathutil.SafeFileName(fmt.Sprintf("JobSheet_%s_%s.%s", id, now.Format("2006-01-02"), ext))
}

// FileNameFor parses the task payload of in and returns its file name.
func (b *Builder) FileNameFor(in models.Input, ext string) string {
	return FileName(models.ParseTaskDetails(in.TaskDetails), ext, b.now())
}
