// Package app wires configured pipeline components together for the
// commands and the HTTP server.
package app

import (
	"context"
	"fmt"

	"github.com/joshsymonds/jobsheet/internal/config"
	"github.com/joshsymonds/jobsheet/internal/layout"
	"github.com/joshsymonds/jobsheet/internal/pdf"
	"github.com/joshsymonds/jobsheet/internal/rasterizer"
	"github.com/joshsymonds/jobsheet/internal/report"
	"github.com/joshsymonds/jobsheet/internal/sanitizer"
	"github.com/joshsymonds/jobsheet/internal/storage"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

// Factory creates pipeline components from a Config.
type Factory struct {
	cfg    *config.Config
	logger logger.Logger
}

// NewFactory creates a Factory using the global logger.
func NewFactory(cfg *config.Config) *Factory {
	return NewFactoryWithLogger(cfg, logger.GetGlobalLogger())
}

// NewFactoryWithLogger creates a Factory with a custom logger.
func NewFactoryWithLogger(cfg *config.Config, log logger.Logger) *Factory {
	return &Factory{cfg: cfg, logger: log}
}

// Config returns the factory configuration.
func (f *Factory) Config() *config.Config {
	return f.cfg
}

// Sanitizer creates an image sanitizer from the sanitizer section.
func (f *Factory) Sanitizer() *sanitizer.Sanitizer {
	sc := f.cfg.Sanitizer
	return sanitizer.New(sanitizer.Options{
		UserAgent:      sc.UserAgent,
		Timeout:        sc.Timeout,
		MaxConcurrency: sc.MaxConcurrency,
		MaxBytes:       sc.MaxBytes,
	}, f.logger.WithGroup("sanitizer"))
}

// Chrome creates the headless Chrome rasterizer. Callers must Close it.
func (f *Factory) Chrome() *rasterizer.Chrome {
	rc := f.cfg.Renderer
	return rasterizer.NewChrome(rasterizer.ChromeOptions{
		ExecPath:  rc.ChromePath,
		RemoteURL: rc.RemoteURL,
		Timeout:   rc.Timeout,
		Scale:     rc.Scale,
		NoSandbox: rc.NoSandbox,
	}, f.logger.WithGroup("rasterizer"))
}

// Service creates the render service around r.
func (f *Factory) Service(r rasterizer.Rasterizer) (*pdf.Service, error) {
	b, err := report.NewBuilderWithLogger(f.logger)
	if err != nil {
		return nil, fmt.Errorf("creating report builder: %w", err)
	}
	return pdf.NewService(b, f.Sanitizer(), r, pdf.Options{
		MultiPage: f.cfg.Pagination.MultiPage,
		Limits:    layout.DefaultLimits(),
	}, f.logger), nil
}

// Store returns the S3 store when remote is set, and the local output
// directory otherwise.
func (f *Factory) Store(ctx context.Context, remote bool) (storage.Store, error) {
	if !remote {
		return storage.NewLocalStoreWithLogger(f.cfg.Output.Dir, f.logger), nil
	}
	if !f.cfg.HasS3() {
		return nil, fmt.Errorf("upload requested but storage.s3 is not configured")
	}
	store, err := storage.NewS3Store(ctx, *f.cfg.Storage.S3, f.logger)
	if err != nil {
		return nil, fmt.Errorf("creating S3 store: %w", err)
	}
	return store, nil
}
