// Package serve implements the serve command, which runs the HTTP render
// service.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/jobsheet/internal/app"
	"github.com/joshsymonds/jobsheet/internal/config"
	"github.com/joshsymonds/jobsheet/internal/server"
	"github.com/joshsymonds/jobsheet/internal/storage"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

var (
	configFile  string
	addr        string
	defaultHost string
	multiPage   bool
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the job sheet HTTP render service",
		Long: `Run an HTTP service that renders job sheets on request.

Endpoints:
- GET  /healthz
- POST /api/job-sheets/preview     HTML preview (?download=1 for an attachment)
- POST /api/job-sheets/pdf         PDF as an attachment
- POST /api/job-sheets/pdf/blob    PDF inline
- POST /api/job-sheets/pdf/save    PDF saved to S3 (only when storage.s3 is configured)

Request body: {"task_details": {...}, "job_sheet_data": {...}, "comments": "..."}`,
		Example: `  # Serve with defaults on :8080
  jobsheet serve

  # Serve with a config file against a remote Chrome
  jobsheet serve --config jobsheet.yaml --addr :9090`,
		SilenceUsage: true,
		RunE:         runServe,
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to config file")
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().StringVar(&defaultHost, "default-host", "", "Hostname used for logo selection (overrides server.default_host)")
	cmd.Flags().BoolVar(&multiPage, "multi-page", false, "Render long checklists as one document per page")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := logger.GetGlobalLogger()

	cfg, err := config.LoadOrDefault(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if configFile != "" {
		log.Info("Loaded configuration", "config", configFile)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if defaultHost != "" {
		cfg.Server.DefaultHost = defaultHost
	}
	if multiPage {
		cfg.Pagination.MultiPage = true
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	return srv.ListenAndServe(ctx, cfg.Server.Addr)
}

// Build wires a server from cfg. cleanup releases the browser.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*server.Server, func(), error) {
	factory := app.NewFactoryWithLogger(cfg, log)

	chrome := factory.Chrome()
	svc, err := factory.Service(chrome)
	if err != nil {
		chrome.Close()
		return nil, nil, err
	}

	var store storage.Store
	if cfg.HasS3() {
		if store, err = factory.Store(ctx, true); err != nil {
			chrome.Close()
			return nil, nil, err
		}
	}

	srv := server.New(svc, server.Options{
		Store:          store,
		DefaultHost:    cfg.Server.DefaultHost,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, log)

	return srv, chrome.Close, nil
}
