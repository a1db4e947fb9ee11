// Package plan implements the plan command, which prints how a job sheet's
// checklist is grouped and paginated.
package plan

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joshsymonds/jobsheet/internal/app"
	"github.com/joshsymonds/jobsheet/internal/layout"
	"github.com/joshsymonds/jobsheet/internal/models"
	"github.com/joshsymonds/jobsheet/internal/ui"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

// Run executes the plan command.
func Run(args []string) error {
	var (
		input app.InputFlags
		width int
	)

	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	input.Register(fs)
	fs.IntVar(&width, "width", 80, "Output width in columns")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: jobsheet plan [options]

Show the checklist sections of a job sheet and whether it needs pagination.

Options:`)
		fs.PrintDefaults()
		fmt.Fprintln(os.Stderr, `
Examples:
  jobsheet plan --job-sheet sheet.json
  jobsheet plan --job-sheet sheet.json --comments "Follow-up required"`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	in, err := input.Load()
	if err != nil {
		return err
	}
	return Print(os.Stdout, *in, width, logger.GetGlobalLogger())
}

// Print writes the plan summary of in to w.
func Print(w io.Writer, in models.Input, width int, log logger.Logger) error {
	js, _ := models.ParseJobSheet(in.JobSheetData)
	plan := layout.NewPlanner(layout.DefaultLimits(), log).Plan(js, in.Comments)

	_, err := fmt.Fprintln(w, ui.NewPlanView(js, plan, width).View())
	return err
}
