package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/jobsheet/internal/models"
	"github.com/joshsymonds/jobsheet/internal/rasterizer"
	"github.com/joshsymonds/jobsheet/internal/report"
	"github.com/joshsymonds/jobsheet/internal/sanitizer"
	"github.com/joshsymonds/jobsheet/internal/storage"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

type stubSanitizer struct {
	err    error
	failed int
}

func (s *stubSanitizer) Sanitize(_ context.Context, html string) (string, sanitizer.Stats, error) {
	if s.err != nil {
		return "", sanitizer.Stats{}, s.err
	}
	return html, sanitizer.Stats{Total: s.failed, Failed: s.failed}, nil
}

// fakeRasterizer returns a white bitmap of a fixed size and records every
// document it was given.
type fakeRasterizer struct {
	err    error
	docs   []string
	width  int
	height int
	mu     sync.Mutex
}

func (f *fakeRasterizer) Rasterize(_ context.Context, html string) (*rasterizer.Bitmap, error) {
	f.mu.Lock()
	f.docs = append(f.docs, html)
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	return rasterizer.EncodeBitmap(imaging.New(f.width, f.height, color.White))
}

func (f *fakeRasterizer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

// pdfPages writes data to disk and counts its pages with pdfcpu.
func pdfPages(t *testing.T, data []byte) int {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.pdf")
	require.NoError(t, os.WriteFile(path, data, 0600))
	n, err := api.PageCountFile(path)
	require.NoError(t, err)
	return n
}

func TestRenderPageToPDFSinglePage(t *testing.T) {
	log := logger.NewMockLogger()
	gen := NewGenerator(&stubSanitizer{}, &fakeRasterizer{width: 210, height: 200}, log)

	require.NoError(t, gen.RenderPageToPDF(context.Background(), "<html></html>", true))
	assert.Equal(t, 1, gen.PageCount())

	data, err := gen.Bytes()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
	assert.Equal(t, 1, pdfPages(t, data))
	assert.True(t, log.HasMessage("DEBUG", "Rendered document into PDF"))

	again, err := gen.Bytes()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestRenderPageToPDFSlicesTallBitmap(t *testing.T) {
	// 742mm tall at 210mm wide spans three A4 bands.
	gen := NewGenerator(&stubSanitizer{}, &fakeRasterizer{width: 210, height: 742}, logger.NewMockLogger())

	require.NoError(t, gen.RenderPageToPDF(context.Background(), "<html></html>", true))
	assert.Equal(t, 3, gen.PageCount())

	data, err := gen.Bytes()
	require.NoError(t, err)
	assert.Equal(t, 3, pdfPages(t, data))
	assert.Equal(t, 1, strings.Count(string(data), "/Subtype /Image"), "bands share one embedded bitmap")
}

func TestRenderPageToPDFAppends(t *testing.T) {
	gen := NewGenerator(&stubSanitizer{}, &fakeRasterizer{width: 210, height: 150}, logger.NewMockLogger())

	require.NoError(t, gen.RenderPageToPDF(context.Background(), "<p>1</p>", true))
	require.NoError(t, gen.RenderPageToPDF(context.Background(), "<p>2</p>", false))
	assert.Equal(t, 2, gen.PageCount())

	err := gen.RenderPageToPDF(context.Background(), "<p>3</p>", true)
	require.Error(t, err)
	assert.Equal(t, StageAssemble, StageOf(err))
}

func TestRenderPageToPDFFirstPageFlag(t *testing.T) {
	gen := NewGenerator(&stubSanitizer{}, &fakeRasterizer{width: 210, height: 150}, logger.NewMockLogger())

	err := gen.RenderPageToPDF(context.Background(), "<p>1</p>", false)
	require.Error(t, err)
	assert.Equal(t, StageAssemble, StageOf(err))
	assert.Equal(t, 0, gen.PageCount())
}

func TestRenderPageToPDFAfterBytes(t *testing.T) {
	gen := NewGenerator(&stubSanitizer{}, &fakeRasterizer{width: 210, height: 150}, logger.NewMockLogger())
	require.NoError(t, gen.RenderPageToPDF(context.Background(), "<p>1</p>", true))
	_, err := gen.Bytes()
	require.NoError(t, err)

	err = gen.RenderPageToPDF(context.Background(), "<p>2</p>", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already finalized")
}

func TestRenderPageToPDFStageErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		sanitizer  *stubSanitizer
		rasterizer *fakeRasterizer
		name       string
		stage      Stage
	}{
		{
			name:       "sanitize failure",
			sanitizer:  &stubSanitizer{err: boom},
			rasterizer: &fakeRasterizer{width: 10, height: 10},
			stage:      StageSanitize,
		},
		{
			name:       "rasterize failure",
			sanitizer:  &stubSanitizer{},
			rasterizer: &fakeRasterizer{err: boom},
			stage:      StageRasterize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewGenerator(tt.sanitizer, tt.rasterizer, logger.NewMockLogger())

			err := gen.RenderPageToPDF(context.Background(), "<p></p>", true)
			require.Error(t, err)
			require.ErrorIs(t, err, boom)
			assert.Equal(t, tt.stage, StageOf(err))

			_, err = gen.Bytes()
			require.Error(t, err, "no PDF is produced after a failed page")
		})
	}
}

func TestRenderPageToPDFWarnsOnPlaceholders(t *testing.T) {
	log := logger.NewMockLogger()
	gen := NewGenerator(&stubSanitizer{failed: 2}, &fakeRasterizer{width: 210, height: 100}, log)

	require.NoError(t, gen.RenderPageToPDF(context.Background(), "<p></p>", true))
	assert.True(t, log.HasMessage("WARN", "Some images were replaced by placeholders"))
}

func TestPageCountFor(t *testing.T) {
	tests := []struct {
		heightMM float64
		want     int
	}{
		{heightMM: 100, want: 1},
		{heightMM: 287, want: 1},
		{heightMM: 290, want: 1},
		{heightMM: 297, want: 1},
		{heightMM: 298, want: 2},
		{heightMM: 594, want: 2},
		{heightMM: 595, want: 3},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.0fmm", tt.heightMM), func(t *testing.T) {
			assert.Equal(t, tt.want, PageCountFor(tt.heightMM))
		})
	}
}

func TestRenderError(t *testing.T) {
	err := &RenderError{Stage: StageRasterize, RenderID: "r1", Page: 2, Err: errors.New("timeout")}
	assert.Equal(t, "rasterize failed on page 2 (render r1): timeout", err.Error())

	wrapped := fmt.Errorf("outer: %w", err)
	assert.Equal(t, StageRasterize, StageOf(wrapped))
	assert.Equal(t, Stage(""), StageOf(errors.New("plain")))
}

const taskJSON = `{"task_details":{"id":4821}}`

func jobSheetJSON(items int) []byte {
	var rows []string
	for i := range items {
		rows = append(rows, fmt.Sprintf(
			`{"group_name":"Electrical","activity":"Check item %d","input_value":"OK"}`, i+1))
	}
	return []byte(fmt.Sprintf(`{"data":{"job_sheet":{
		"basic_info":{"job_card_number":"JC-7"},
		"task_details":{"site_name":"Tower A","task_name":"PPM"},
		"checklist_responses":[%s]}}}`, strings.Join(rows, ",")))
}

func newTestService(t *testing.T, r rasterizer.Rasterizer, multiPage bool, log logger.Logger) *Service {
	t.Helper()
	b, err := report.NewBuilderWithLogger(log)
	require.NoError(t, err)
	b.WithClock(func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) })
	return NewService(b, &stubSanitizer{}, r, Options{MultiPage: multiPage}, log)
}

func TestGenerateJobSheetPDF(t *testing.T) {
	log := logger.NewMockLogger()
	svc := newTestService(t, &fakeRasterizer{width: 210, height: 250}, false, log)
	dir := t.TempDir()

	name, location, err := svc.GenerateJobSheetPDF(context.Background(), models.Input{
		TaskDetails:  []byte(taskJSON),
		JobSheetData: jobSheetJSON(3),
	}, storage.NewLocalStoreWithLogger(dir, log))
	require.NoError(t, err)

	assert.Equal(t, "JobSheet_4821_2024-03-05.pdf", name)
	assert.Equal(t, filepath.Join(dir, name), location)

	data, err := os.ReadFile(location)
	require.NoError(t, err)
	assert.Equal(t, 1, pdfPages(t, data))

	entry, ok := log.Find("Generated job sheet PDF")
	require.True(t, ok)
	id, ok := entry.Value("render_id")
	require.True(t, ok)
	assert.NotEmpty(t, id)
}

func TestGenerateJobSheetPDFBlob(t *testing.T) {
	svc := newTestService(t, &fakeRasterizer{width: 210, height: 600}, false, logger.NewMockLogger())

	data, err := svc.GenerateJobSheetPDFBlob(context.Background(), models.Input{
		TaskDetails:  []byte(taskJSON),
		JobSheetData: jobSheetJSON(3),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, pdfPages(t, data))
}

func TestGenerateSinglePageByDefault(t *testing.T) {
	log := logger.NewMockLogger()
	r := &fakeRasterizer{width: 210, height: 900}
	svc := newTestService(t, r, false, log)

	_, err := svc.GenerateJobSheetPDFBlob(context.Background(), models.Input{
		TaskDetails:  []byte(taskJSON),
		JobSheetData: jobSheetJSON(25),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, r.calls(), "pagination off renders one tall document")
	assert.True(t, log.HasMessage("INFO", "Job sheet exceeds pagination limits, rendering as a single document"))
}

func TestGenerateMultiPage(t *testing.T) {
	log := logger.NewMockLogger()
	r := &fakeRasterizer{width: 210, height: 250}
	svc := newTestService(t, r, true, log)

	data, err := svc.GenerateJobSheetPDFBlob(context.Background(), models.Input{
		TaskDetails:  []byte(taskJSON),
		JobSheetData: jobSheetJSON(25),
		Comments:     "All clear",
	})
	require.NoError(t, err)

	require.Equal(t, 2, r.calls(), "one document per checklist chunk")
	assert.Equal(t, 2, pdfPages(t, data))
	assert.Contains(t, r.docs[0], "Check item 1<")
	assert.Contains(t, r.docs[1], "Check item 25<")
	assert.Contains(t, r.docs[1], "All clear")
	assert.NotContains(t, r.docs[0], "All clear")
	assert.True(t, log.HasMessage("INFO", "Rendering job sheet as chunked pages"))
}

func TestGenerateJobSheetPDFWithUnreachableImage(t *testing.T) {
	var photo bytes.Buffer
	require.NoError(t, imaging.Encode(&photo, imaging.New(6, 4, color.Black), imaging.PNG))

	mux := http.NewServeMux()
	mux.HandleFunc("/photo.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(photo.Bytes())
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	sheet := fmt.Sprintf(`{"job_sheet":{"checklist_responses":[
		{"activity":"Panel","input_value":"OK","attachments":["%[1]s/photo.png"]},
		{"activity":"Meter","input_value":"OK","attachments":["%[1]s/gone.png"]},
		{"activity":"Door","input_value":"OK","attachments":["%[1]s/photo.png?side=2"]}]}}`, srv.URL)

	log := logger.NewMockLogger()
	b, err := report.NewBuilderWithLogger(log)
	require.NoError(t, err)
	r := &fakeRasterizer{width: 210, height: 250}
	svc := NewService(b, sanitizer.New(sanitizer.Options{}, log), r, Options{}, log)
	dir := t.TempDir()

	name, location, err := svc.GenerateJobSheetPDF(context.Background(), models.Input{
		TaskDetails:  []byte(taskJSON),
		JobSheetData: []byte(sheet),
	}, storage.NewLocalStoreWithLogger(dir, log))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, name), location)

	require.Equal(t, 1, r.calls())
	assert.NotContains(t, r.docs[0], srv.URL, "only inline images reach the rasterizer")
	assert.Equal(t, 3, strings.Count(r.docs[0], "data:image/png;base64,"))
	assert.Equal(t, 1, strings.Count(r.docs[0], sanitizer.Placeholder), "only the missing image is a placeholder")
	assert.True(t, log.HasMessage("WARN", "Some images were replaced by placeholders"))
}

func TestGenerateJobSheetPDFFailure(t *testing.T) {
	log := logger.NewMockLogger()
	svc := newTestService(t, &fakeRasterizer{err: errors.New("chrome crashed")}, false, log)
	dir := filepath.Join(t.TempDir(), "out")

	_, _, err := svc.GenerateJobSheetPDF(context.Background(), models.Input{
		TaskDetails:  []byte(taskJSON),
		JobSheetData: jobSheetJSON(3),
	}, storage.NewLocalStoreWithLogger(dir, log))
	require.Error(t, err)

	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, StageRasterize, re.Stage)
	assert.Equal(t, 1, re.Page)
	assert.NotEmpty(t, re.RenderID)
	assert.True(t, log.HasMessage("ERROR", "Job sheet PDF generation failed"))

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr), "nothing is written on failure")
}

func TestGenerateUnavailableDocument(t *testing.T) {
	r := &fakeRasterizer{width: 210, height: 100}
	svc := newTestService(t, r, true, logger.NewMockLogger())

	_, err := svc.GenerateJobSheetPDFBlob(context.Background(), models.Input{JobSheetData: []byte(`{}`)})
	require.NoError(t, err)
	require.Equal(t, 1, r.calls())
	assert.Contains(t, r.docs[0], "Job sheet data unavailable")
}

func TestGeneratePreview(t *testing.T) {
	svc := newTestService(t, &fakeRasterizer{}, false, logger.NewMockLogger())

	name, html, err := svc.GeneratePreview(models.Input{
		TaskDetails:  []byte(taskJSON),
		JobSheetData: jobSheetJSON(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "JobSheet_4821_2024-03-05.html", name)
	assert.Contains(t, html, "density-screen")
	assert.Contains(t, html, "Check item 2")
}

func TestRequireJobSheet(t *testing.T) {
	require.ErrorIs(t, RequireJobSheet(models.Input{}), ErrNoJobSheet)
	require.ErrorIs(t, RequireJobSheet(models.Input{JobSheetData: []byte(`{"data":{}}`)}), ErrNoJobSheet)
	require.NoError(t, RequireJobSheet(models.Input{JobSheetData: jobSheetJSON(0)}))
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"html", "pdf"}, ListFormats())

	f, err := GetFormat("pdf")
	require.NoError(t, err)
	assert.Equal(t, "pdf", f.Extension())
	assert.Equal(t, storage.ContentTypePDF, f.ContentType())

	_, err = GetFormat("docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")

	assert.Panics(t, func() {
		RegisterFormat("html", func() Format { return htmlFormat{} })
	})
}
