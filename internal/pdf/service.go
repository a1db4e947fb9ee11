package pdf

import (
	"context"
	"errors"
	"math"

	"github.com/google/uuid"

	"github.com/joshsymonds/jobsheet/internal/layout"
	"github.com/joshsymonds/jobsheet/internal/models"
	"github.com/joshsymonds/jobsheet/internal/rasterizer"
	"github.com/joshsymonds/jobsheet/internal/report"
	"github.com/joshsymonds/jobsheet/internal/storage"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

// Options configures a Service.
type Options struct {
	// MultiPage renders reports that need pagination as one document per
	// checklist chunk. When false every report is rendered as a single
	// document and sliced into page-height bands.
	MultiPage bool
	Limits    layout.Limits
}

// Service is the entry point for previews and PDF generation. It is safe for
// concurrent use; every call builds its own Generator.
type Service struct {
	builder    *report.Builder
	sanitizer  ImageSanitizer
	rasterizer rasterizer.Rasterizer
	planner    *layout.Planner
	logger     logger.Logger
	multiPage  bool
}

// NewService wires the report builder to the sanitize and rasterize stages.
func NewService(b *report.Builder, s ImageSanitizer, r rasterizer.Rasterizer, opts Options, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	if opts.Limits == (layout.Limits{}) {
		opts.Limits = layout.DefaultLimits()
	}
	return &Service{
		builder:    b,
		sanitizer:  s,
		rasterizer: r,
		planner:    layout.NewPlanner(opts.Limits, log),
		logger:     log,
		multiPage:  opts.MultiPage,
	}
}

// RequireJobSheet returns ErrNoJobSheet when in carries no job sheet object.
// Callers use it to refuse a request before any work is done.
func RequireJobSheet(in models.Input) error {
	if _, ok := models.ParseJobSheet(in.JobSheetData); !ok {
		return ErrNoJobSheet
	}
	return nil
}

// Render produces in using the named format and returns its file name.
func (s *Service) Render(ctx context.Context, format string, in models.Input) (string, []byte, error) {
	f, err := GetFormat(format)
	if err != nil {
		return "", nil, err
	}

	data, err := f.Render(ctx, s, in)
	if err != nil {
		return "", nil, err
	}
	return s.builder.FileNameFor(in, f.Extension()), data, nil
}

// GeneratePreview renders the on-screen HTML document and its file name.
func (s *Service) GeneratePreview(in models.Input) (string, string, error) {
	name, data, err := s.Render(context.Background(), "html", in)
	if err != nil {
		return "", "", err
	}
	return name, string(data), nil
}

// GenerateJobSheetPDFBlob renders the PDF and returns it in memory.
func (s *Service) GenerateJobSheetPDFBlob(ctx context.Context, in models.Input) ([]byte, error) {
	_, data, err := s.Render(ctx, "pdf", in)
	return data, err
}

// GenerateJobSheetPDF renders the PDF and saves it to store under
// JobSheet_<id>_<date>.pdf. It returns the file name and stored location.
// Nothing is saved when rendering fails.
func (s *Service) GenerateJobSheetPDF(ctx context.Context, in models.Input, store storage.Store) (string, string, error) {
	name, data, err := s.Render(ctx, "pdf", in)
	if err != nil {
		return "", "", err
	}

	location, err := store.Save(ctx, name, data, storage.ContentTypePDF)
	if err != nil {
		re := newRenderError(StageStore, err)
		s.logger.Error("Saving job sheet PDF failed", "name", name, "error", err)
		return "", "", re
	}
	return name, location, nil
}

func (s *Service) preview(in models.Input) ([]byte, error) {
	doc, err := s.builder.Document(in, report.DensityScreen)
	if err != nil {
		s.logger.Error("Building preview failed", "error", err)
		return nil, newRenderError(StageBuild, err)
	}
	return []byte(doc), nil
}

func (s *Service) renderPDF(ctx context.Context, in models.Input) ([]byte, error) {
	renderID := uuid.NewString()
	log := logger.WithRender(s.logger, renderID)

	progress := models.NewRenderProgress(0)
	fail := func(err error) error {
		var re *RenderError
		if !errors.As(err, &re) {
			re = newRenderError(StageBuild, err)
		}
		re.RenderID = renderID
		log.Error("Job sheet PDF generation failed",
			append([]any{"stage", re.Stage, "page", re.Page, "error", re.Err}, progress.LogFields()...)...)
		return re
	}

	js, _ := models.ParseJobSheet(in.JobSheetData)
	plan := s.planner.Plan(js, in.Comments)

	docs, err := s.documents(in, plan, log)
	if err != nil {
		return nil, fail(err)
	}

	progress.Documents = len(docs)
	gen := NewGenerator(s.sanitizer, s.rasterizer, log)

	for i, doc := range docs {
		if err := gen.RenderPageToPDF(ctx, doc, i == 0); err != nil {
			var re *RenderError
			if errors.As(err, &re) {
				re.Page = i + 1
			}
			return nil, fail(err)
		}
		progress.Advance()
		log.Debug("Render progress", progress.LogFields()...)
	}

	data, err := gen.Bytes()
	if err != nil {
		return nil, fail(err)
	}

	log.Info("Generated job sheet PDF",
		append([]any{"pages", gen.PageCount(), "bytes", len(data)}, progress.LogFields()...)...)
	return data, nil
}

// documents returns the HTML documents to rasterize for plan. Chunked pages
// are used only when the multi-page option is on.
func (s *Service) documents(in models.Input, plan layout.PagePlan, log logger.Logger) ([]string, error) {
	if plan.NeedsPagination {
		if s.multiPage {
			log.Info("Rendering job sheet as chunked pages",
				"reason", plan.Reason,
				"chunks", plan.Pages())
			return s.builder.PageDocuments(in, plan, report.DensityPrint)
		}
		log.Info("Job sheet exceeds pagination limits, rendering as a single document",
			"reason", plan.Reason,
			"items", plan.ItemCount,
			"estimated_height_mm", math.Round(plan.EstimatedHeightMM))
	}

	doc, err := s.builder.Document(in, report.DensityPrint)
	if err != nil {
		return nil, err
	}
	return []string{doc}, nil
}
