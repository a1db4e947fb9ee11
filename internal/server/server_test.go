package server

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/jobsheet/internal/pdf"
	"github.com/joshsymonds/jobsheet/internal/rasterizer"
	"github.com/joshsymonds/jobsheet/internal/report"
	"github.com/joshsymonds/jobsheet/internal/sanitizer"
	"github.com/joshsymonds/jobsheet/internal/storage"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

const validBody = `{
	"task_details": {"task_details": {"id": 4821}},
	"job_sheet_data": {"data": {"job_sheet": {
		"basic_info": {"job_card_number": "JC-7"},
		"checklist_responses": [{"group_name": "Electrical", "activity": "Check panel", "input_value": "OK"}]
	}}},
	"comments": "Handled by night shift"
}`

func whiteRasterizer() rasterizer.Rasterizer {
	return rasterizer.Func(func(_ context.Context, _ string) (*rasterizer.Bitmap, error) {
		return rasterizer.EncodeBitmap(imaging.New(210, 250, color.White))
	})
}

func newTestServer(t *testing.T, r rasterizer.Rasterizer, opts Options) (*httptest.Server, *logger.MockLogger) {
	t.Helper()
	log := logger.NewMockLogger()

	b, err := report.NewBuilderWithLogger(log)
	require.NoError(t, err)
	b.WithClock(func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) })

	svc := pdf.NewService(b, sanitizer.New(sanitizer.Options{}, log), r, pdf.Options{}, log)
	ts := httptest.NewServer(New(svc, opts, log).Router())
	t.Cleanup(ts.Close)
	return ts, log
}

func post(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	var sb strings.Builder
	_, err := sb.ReadFrom(resp.Body)
	require.NoError(t, err)
	return sb.String()
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, whiteRasterizer(), Options{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPreview(t *testing.T) {
	ts, _ := newTestServer(t, whiteRasterizer(), Options{})

	resp := post(t, ts, "/api/job-sheets/preview", validBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, storage.ContentTypeHTML, resp.Header.Get("Content-Type"))
	assert.Equal(t, "inline; filename=JobSheet_4821_2024-03-05.html", resp.Header.Get("Content-Disposition"))

	body := readBody(t, resp)
	assert.Contains(t, body, "Check panel")
	assert.Contains(t, body, "Handled by night shift")
}

func TestPreviewDownload(t *testing.T) {
	ts, _ := newTestServer(t, whiteRasterizer(), Options{})

	resp := post(t, ts, "/api/job-sheets/preview?download=1", validBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "attachment; filename=JobSheet_4821_2024-03-05.html", resp.Header.Get("Content-Disposition"))
}

func TestPreviewHostLogo(t *testing.T) {
	ts, _ := newTestServer(t, whiteRasterizer(), Options{})

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/job-sheets/preview", strings.NewReader(validBody))
	require.NoError(t, err)
	req.Host = "Pulse.example.com:8443"

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `aria-label="Pulse"`)
}

func TestPreviewDefaultHost(t *testing.T) {
	ts, _ := newTestServer(t, whiteRasterizer(), Options{DefaultHost: "fm-matrix.example.com"})

	resp := post(t, ts, "/api/job-sheets/preview", validBody)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), `aria-label="FM Matrix"`)
}

func TestPDF(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		disposition string
	}{
		{name: "attachment", path: "/api/job-sheets/pdf", disposition: "attachment; filename=JobSheet_4821_2024-03-05.pdf"},
		{name: "blob", path: "/api/job-sheets/pdf/blob", disposition: "inline; filename=JobSheet_4821_2024-03-05.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, _ := newTestServer(t, whiteRasterizer(), Options{})

			resp := post(t, ts, tt.path, validBody)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, storage.ContentTypePDF, resp.Header.Get("Content-Type"))
			assert.Equal(t, tt.disposition, resp.Header.Get("Content-Disposition"))
			assert.True(t, strings.HasPrefix(readBody(t, resp), "%PDF"))
		})
	}
}

func TestBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{"job_sheet_data":`, want: msgInvalidBody},
		{name: "missing job sheet", body: `{"task_details":{"id":1}}`, want: msgMissingJobSheet},
		{name: "null job sheet", body: `{"job_sheet_data":null}`, want: msgMissingJobSheet},
		{name: "job sheet without object", body: `{"job_sheet_data":{"data":{}}}`, want: msgMissingJobSheet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, log := newTestServer(t, whiteRasterizer(), Options{})

			resp := post(t, ts, "/api/job-sheets/pdf", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var er errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
			assert.Equal(t, tt.want, er.Error)
			assert.True(t, log.HasMessage("WARN", "Rejected render request"))
		})
	}
}

func TestPDFFailureIsGeneric(t *testing.T) {
	failing := rasterizer.Func(func(_ context.Context, _ string) (*rasterizer.Bitmap, error) {
		return nil, errors.New("target closed: secret internal detail")
	})
	ts, log := newTestServer(t, failing, Options{})

	resp := post(t, ts, "/api/job-sheets/pdf", validBody)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	body := readBody(t, resp)
	assert.JSONEq(t, `{"error":"Failed to generate PDF. Please try again."}`, body)
	assert.NotContains(t, body, "secret internal detail")

	entry, ok := log.Find("PDF generation failed")
	require.True(t, ok)
	stage, _ := entry.Value("stage")
	assert.Equal(t, pdf.StageRasterize, stage)
}

func TestPDFSave(t *testing.T) {
	dir := t.TempDir()
	ts, _ := newTestServer(t, whiteRasterizer(), Options{Store: storage.NewLocalStoreWithLogger(dir, logger.NewMockLogger())})

	resp := post(t, ts, "/api/job-sheets/pdf/save", validBody)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var saved saveResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&saved))
	assert.Equal(t, "JobSheet_4821_2024-03-05.pdf", saved.Name)
	assert.Equal(t, filepath.Join(dir, saved.Name), saved.Location)

	_, err := os.Stat(saved.Location)
	require.NoError(t, err)
}

func TestPDFSaveDisabledWithoutStore(t *testing.T) {
	ts, _ := newTestServer(t, whiteRasterizer(), Options{})

	resp := post(t, ts, "/api/job-sheets/pdf/save", validBody)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListenAndServeShutdown(t *testing.T) {
	srv := New(nil, Options{}, logger.NewMockLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
