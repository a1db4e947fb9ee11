// Package pdf implements the pdf command, which renders a job sheet through
// headless Chrome into an A4 PDF.
package pdf

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joshsymonds/jobsheet/internal/app"
	"github.com/joshsymonds/jobsheet/internal/config"
	"github.com/joshsymonds/jobsheet/internal/rasterizer"
	"github.com/joshsymonds/jobsheet/pkg/logger"
	"github.com/joshsymonds/jobsheet/pkg/pathutil"
)

// Options represents pdf command options.
type Options struct {
	Input      app.InputFlags
	OutputDir  string
	BlobFile   string
	ConfigFile string
	Upload     bool
	MultiPage  bool
}

// Run executes the pdf command.
func Run(args []string) error {
	opts := &Options{}

	fs := flag.NewFlagSet("pdf", flag.ExitOnError)
	opts.Input.Register(fs)
	fs.StringVar(&opts.OutputDir, "output", "", "Output directory (defaults to output.dir from config)")
	fs.StringVar(&opts.BlobFile, "blob", "", "Write the PDF to this exact file instead of the output store")
	fs.StringVar(&opts.ConfigFile, "config", "", "Configuration file")
	fs.BoolVar(&opts.Upload, "upload", false, "Upload to the configured S3 bucket")
	fs.BoolVar(&opts.MultiPage, "multi-page", false, "Render long checklists as one document per page")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: jobsheet pdf [options]

Render a job sheet to an A4 PDF named JobSheet_<id>_<date>.pdf.

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Examples:
  jobsheet pdf --task task.json --job-sheet sheet.json
  jobsheet pdf --task task.json --job-sheet sheet.json --upload --config jobsheet.yaml
  jobsheet pdf --job-sheet sheet.json --blob /tmp/sheet.pdf --multi-page`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadOrDefault(opts.ConfigFile)
	if err != nil {
		return err
	}

	factory := app.NewFactory(cfg)
	chrome := factory.Chrome()
	defer chrome.Close()

	return Execute(ctx, opts, cfg, chrome, logger.GetGlobalLogger())
}

// Execute renders the PDF described by opts with r.
func Execute(ctx context.Context, opts *Options, cfg *config.Config, r rasterizer.Rasterizer, log logger.Logger) error {
	in, err := opts.Input.Load()
	if err != nil {
		return err
	}

	if opts.OutputDir != "" {
		cfg.Output.Dir = opts.OutputDir
	}
	if opts.MultiPage {
		cfg.Pagination.MultiPage = true
	}

	factory := app.NewFactoryWithLogger(cfg, log)
	svc, err := factory.Service(r)
	if err != nil {
		return err
	}

	if opts.BlobFile != "" {
		data, err := svc.GenerateJobSheetPDFBlob(ctx, *in)
		if err != nil {
			return err
		}
		path, err := writeBlob(opts.BlobFile, data)
		if err != nil {
			return err
		}
		fmt.Printf("✅ PDF written to %s\n", path) //nolint:forbidigo
		return nil
	}

	store, err := factory.Store(ctx, opts.Upload)
	if err != nil {
		return err
	}
	name, location, err := svc.GenerateJobSheetPDF(ctx, *in, store)
	if err != nil {
		return err
	}

	fmt.Printf("✅ %s saved to %s\n", name, location) //nolint:forbidigo
	return nil
}

func writeBlob(file string, data []byte) (string, error) {
	dir, err := pathutil.EnsureOutputDir(filepath.Dir(file))
	if err != nil {
		return "", err
	}
	path, err := pathutil.JoinAndValidate(dir, filepath.Base(file))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
