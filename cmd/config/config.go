// Package config implements the config command.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joshsymonds/jobsheet/internal/config"
)

// Run executes the config command.
func Run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("subcommand required: validate")
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "validate":
		return runValidate(subArgs)
	default:
		return fmt.Errorf("unknown subcommand: %s", subcommand)
	}
}

func runValidate(args []string) error {
	var configFile string

	fs := flag.NewFlagSet("config validate", flag.ExitOnError)
	fs.StringVar(&configFile, "config", "", "Configuration file to validate (required)")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: jobsheet config validate [options]

Validate a jobsheet configuration file.

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Examples:
  jobsheet config validate --config jobsheet.yaml`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if configFile == "" {
		return fmt.Errorf("--config flag is required")
	}

	return Validate(os.Stdout, configFile)
}

// Validate loads configFile and prints a summary of its settings to w.
func Validate(w io.Writer, configFile string) error {
	fmt.Fprintf(w, "🔍 Validating configuration: %s\n\n", configFile)

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	printValidationResults(w, cfg)

	fmt.Fprintln(w, "\n✅ Configuration is valid!")
	return nil
}

func printValidationResults(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "🖨️  Renderer:")
	if cfg.Renderer.RemoteURL != "" {
		fmt.Fprintf(w, "   Remote Chrome: %s\n", cfg.Renderer.RemoteURL)
	} else {
		chrome := cfg.Renderer.ChromePath
		if chrome == "" {
			chrome = "(auto-detect)"
		}
		fmt.Fprintf(w, "   Local Chrome: %s\n", chrome)
		fmt.Fprintf(w, "   No Sandbox: %t\n", cfg.Renderer.NoSandbox)
	}
	fmt.Fprintf(w, "   Timeout: %s\n", cfg.Renderer.Timeout)
	fmt.Fprintf(w, "   Scale: %g\n", cfg.Renderer.Scale)

	fmt.Fprintln(w, "\n🖼️  Image Sanitizer:")
	fmt.Fprintf(w, "   Timeout: %s\n", cfg.Sanitizer.Timeout)
	fmt.Fprintf(w, "   Max Concurrency: %d\n", cfg.Sanitizer.MaxConcurrency)
	fmt.Fprintf(w, "   Max Bytes: %d\n", cfg.Sanitizer.MaxBytes)

	fmt.Fprintln(w, "\n📄 Pagination:")
	fmt.Fprintf(w, "   Multi-page: %t\n", cfg.Pagination.MultiPage)

	fmt.Fprintln(w, "\n💾 Output:")
	fmt.Fprintf(w, "   Directory: %s\n", cfg.Output.Dir)
	if cfg.HasS3() {
		s3 := cfg.Storage.S3
		fmt.Fprintf(w, "   S3: s3://%s/%s (%s)\n", s3.Bucket, s3.Prefix, s3.Region)
		if s3.Endpoint != "" {
			fmt.Fprintf(w, "   S3 Endpoint: %s\n", s3.Endpoint)
		}
	}

	fmt.Fprintln(w, "\n🌐 Server:")
	fmt.Fprintf(w, "   Address: %s\n", cfg.Server.Addr)
	if cfg.Server.DefaultHost != "" {
		fmt.Fprintf(w, "   Default Host: %s\n", cfg.Server.DefaultHost)
	}
	fmt.Fprintf(w, "   Request Timeout: %s\n", cfg.Server.RequestTimeout)
}
