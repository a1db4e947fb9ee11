package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/joshsymonds/jobsheet/internal/models"
	"github.com/joshsymonds/jobsheet/internal/pdf"
	"github.com/joshsymonds/jobsheet/internal/storage"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

// User-facing error messages.
const (
	msgInvalidBody     = "Invalid request body."
	msgMissingJobSheet = "Job sheet data is required."
	msgPreviewFailed   = "Failed to generate preview. Please try again."
)

// renderRequest is the body accepted by every render endpoint.
type renderRequest struct {
	TaskDetails  json.RawMessage `json:"task_details"`
	JobSheetData json.RawMessage `json:"job_sheet_data"`
	Comments     string          `json:"comments"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type saveResponse struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	log := s.log(r)
	in, ok := s.decode(w, r, log)
	if !ok {
		return
	}

	name, data, err := s.renderer.Render(r.Context(), "html", in)
	if err != nil {
		log.Error("Preview generation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: msgPreviewFailed})
		return
	}

	disposition := "inline"
	if download, _ := strconv.ParseBool(r.URL.Query().Get("download")); download {
		disposition = "attachment"
	}
	writeFile(w, data, storage.ContentTypeHTML, disposition, name)
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	s.servePDF(w, r, "attachment")
}

func (s *Server) handlePDFBlob(w http.ResponseWriter, r *http.Request) {
	s.servePDF(w, r, "inline")
}

func (s *Server) servePDF(w http.ResponseWriter, r *http.Request, disposition string) {
	log := s.log(r)
	in, ok := s.decode(w, r, log)
	if !ok {
		return
	}

	name, data, err := s.renderer.Render(r.Context(), "pdf", in)
	if err != nil {
		log.Error("PDF generation failed", "stage", pdf.StageOf(err), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: pdf.FailureMessage})
		return
	}

	writeFile(w, data, storage.ContentTypePDF, disposition, name)
}

func (s *Server) handlePDFSave(w http.ResponseWriter, r *http.Request) {
	log := s.log(r)
	in, ok := s.decode(w, r, log)
	if !ok {
		return
	}

	name, location, err := s.renderer.GenerateJobSheetPDF(r.Context(), in, s.opts.Store)
	if err != nil {
		log.Error("PDF generation failed", "stage", pdf.StageOf(err), "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: pdf.FailureMessage})
		return
	}

	writeJSON(w, http.StatusCreated, saveResponse{Name: name, Location: location})
}

// decode reads the request body and refuses requests without a job sheet.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, log logger.Logger) (models.Input, bool) {
	var req renderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		log.Warn("Rejected render request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgInvalidBody})
		return models.Input{}, false
	}

	in := models.Input{
		TaskDetails:  nonNull(req.TaskDetails),
		JobSheetData: nonNull(req.JobSheetData),
		Comments:     req.Comments,
		Hostname:     s.hostname(r),
	}
	if err := pdf.RequireJobSheet(in); err != nil {
		log.Warn("Rejected render request", "error", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: msgMissingJobSheet})
		return models.Input{}, false
	}
	return in, true
}

// hostname is the configured default host or the request host without port.
func (s *Server) hostname(r *http.Request) string {
	if s.opts.DefaultHost != "" {
		return s.opts.DefaultHost
	}
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(host)
}

func (s *Server) log(r *http.Request) logger.Logger {
	return s.logger.With("request_id", middleware.GetReqID(r.Context()))
}

func nonNull(raw json.RawMessage) []byte {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return raw
}

func writeFile(w http.ResponseWriter, data []byte, contentType, disposition, name string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": name}))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, http.ErrHandlerTimeout) {
		logger.GetGlobalLogger().Warn("Failed to encode response", "error", err)
	}
}
