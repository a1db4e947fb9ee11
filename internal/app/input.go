package app

import (
	"flag"
	"fmt"

	"github.com/joshsymonds/jobsheet/internal/models"
	"github.com/joshsymonds/jobsheet/internal/pdf"
)

// InputFlags are the payload flags shared by the render commands.
type InputFlags struct {
	TaskFile     string
	JobSheetFile string
	Comments     string
	Host         string
}

// Register adds the payload flags to fs.
func (f *InputFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.TaskFile, "task", "", "Task details JSON file")
	fs.StringVar(&f.JobSheetFile, "job-sheet", "", "Job sheet JSON file (required)")
	fs.StringVar(&f.Comments, "comments", "", "Additional remarks appended to the job sheet")
	fs.StringVar(&f.Host, "host", "", "Hostname used to pick the header logo")
}

// Load reads the payload files. A payload without a job sheet object is
// refused with pdf.ErrNoJobSheet.
func (f *InputFlags) Load() (*models.Input, error) {
	if f.JobSheetFile == "" {
		return nil, fmt.Errorf("--job-sheet flag is required")
	}

	in, err := models.LoadInput(f.TaskFile, f.JobSheetFile, f.Comments, f.Host)
	if err != nil {
		return nil, err
	}
	if err := pdf.RequireJobSheet(*in); err != nil {
		return nil, fmt.Errorf("%s: %w", f.JobSheetFile, err)
	}
	return in, nil
}
