// Package main is the entry point for the jobsheet CLI.
// jobsheet renders facility job sheets as standalone HTML previews and
// paginated A4 PDFs, either one-off from JSON files or as an HTTP service.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joshsymonds/jobsheet/cmd/config"
	"github.com/joshsymonds/jobsheet/cmd/pdf"
	"github.com/joshsymonds/jobsheet/cmd/plan"
	"github.com/joshsymonds/jobsheet/cmd/preview"
	"github.com/joshsymonds/jobsheet/cmd/serve"
	internalpdf "github.com/joshsymonds/jobsheet/internal/pdf"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var (
		debug       bool
		logFormat   string
		showVersion bool
	)

	globalFlags := flag.NewFlagSet("jobsheet", flag.ExitOnError)
	globalFlags.BoolVar(&debug, "debug", false, "Enable debug logging")
	globalFlags.StringVar(&logFormat, "log-format", "text", "Log format (text or json)")
	globalFlags.BoolVar(&showVersion, "version", false, "Show version information")

	if err := globalFlags.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if showVersion {
		fmt.Printf("jobsheet version %s (built %s)\n", version, buildTime) //nolint:forbidigo
		os.Exit(0)
	}

	logger.SetupLogger(debug, logFormat)

	args := globalFlags.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	commandArgs := args[1:]

	switch command {
	case "preview":
		if err := preview.Run(commandArgs); err != nil {
			logger.Error("preview generation failed", "error", err)
			fmt.Fprintln(os.Stderr, "Failed to generate preview. Please try again.")
			os.Exit(1)
		}
	case "pdf":
		if err := pdf.Run(commandArgs); err != nil {
			logger.Error("pdf generation failed", "error", err)
			fmt.Fprintln(os.Stderr, internalpdf.FailureMessage)
			os.Exit(1)
		}
	case "plan":
		if err := plan.Run(commandArgs); err != nil {
			logger.Error("plan failed", "error", err)
			os.Exit(1)
		}
	case "serve":
		cmd := serve.NewServeCommand()
		cmd.SetArgs(commandArgs)
		if err := cmd.Execute(); err != nil {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	case "config":
		if err := config.Run(commandArgs); err != nil {
			logger.Error("config validation failed", "error", err)
			os.Exit(1)
		}
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	//nolint:forbidigo
	fmt.Println(`📋 Job Sheet Renderer

Usage:
  jobsheet [global flags] <command> [command flags]

Commands:
  preview   Render the HTML preview of a job sheet
  pdf       Render a job sheet to PDF
  plan      Show checklist sections and the page plan
  serve     Run the HTTP render service
  config    Validate configuration
  help      Show this help message

Global Flags:
  --debug         Enable debug logging
  --log-format    Log format (text or json) (default: text)
  --version       Show version information

Examples:
  jobsheet preview --task task.json --job-sheet sheet.json
  jobsheet pdf --task task.json --job-sheet sheet.json --comments "Checked by supervisor"
  jobsheet pdf --job-sheet sheet.json --blob out.pdf --multi-page
  jobsheet plan --job-sheet sheet.json
  jobsheet serve --config jobsheet.yaml
  jobsheet config validate --config jobsheet.yaml

Use "jobsheet <command> --help" for more information about a command.`)
}
