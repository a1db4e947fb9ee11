// Package preview implements the preview command, which writes the HTML
// rendition of a job sheet.
package preview

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joshsymonds/jobsheet/internal/app"
	"github.com/joshsymonds/jobsheet/internal/config"
	"github.com/joshsymonds/jobsheet/internal/storage"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

// Options represents preview command options.
type Options struct {
	Input      app.InputFlags
	OutputDir  string
	ConfigFile string
}

// Run executes the preview command.
func Run(args []string) error {
	opts := &Options{}

	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	opts.Input.Register(fs)
	fs.StringVar(&opts.OutputDir, "output", "", "Output directory (defaults to output.dir from config)")
	fs.StringVar(&opts.ConfigFile, "config", "", "Configuration file")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: jobsheet preview [options]

Render the standalone HTML preview of a job sheet.

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Examples:
  jobsheet preview --task task.json --job-sheet sheet.json
  jobsheet preview --job-sheet sheet.json --host pulse.example.com --output previews`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	return Execute(context.Background(), opts, logger.GetGlobalLogger())
}

// Execute renders the preview described by opts and returns nil once the
// file is saved.
func Execute(ctx context.Context, opts *Options, log logger.Logger) error {
	in, err := opts.Input.Load()
	if err != nil {
		return err
	}

	cfg, err := config.LoadOrDefault(opts.ConfigFile)
	if err != nil {
		return err
	}
	if opts.OutputDir != "" {
		cfg.Output.Dir = opts.OutputDir
	}

	factory := app.NewFactoryWithLogger(cfg, log)
	svc, err := factory.Service(nil)
	if err != nil {
		return err
	}

	name, html, err := svc.GeneratePreview(*in)
	if err != nil {
		return err
	}

	store, err := factory.Store(ctx, false)
	if err != nil {
		return err
	}
	location, err := store.Save(ctx, name, []byte(html), storage.ContentTypeHTML)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Preview written to %s\n", location) //nolint:forbidigo
	return nil
}
