package models

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/joshsymonds/jobsheet/pkg/pathutil"
)

// LoadInput reads the task details and job sheet JSON files into an Input.
// An empty taskPath yields an empty task payload.
func LoadInput(taskPath, jobSheetPath, comments, hostname string) (*Input, error) {
	sheet, err := readJSON(jobSheetPath)
	if err != nil {
		return nil, fmt.Errorf("job sheet: %w", err)
	}

	var task []byte
	if taskPath != "" {
		if task, err = readJSON(taskPath); err != nil {
			return nil, fmt.Errorf("task details: %w", err)
		}
	}

	return &Input{
		TaskDetails:  task,
		JobSheetData: sheet,
		Comments:     comments,
		Hostname:     hostname,
	}, nil
}

func readJSON(path string) ([]byte, error) {
	valid, err := pathutil.ValidateInputPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(valid) //nolint:gosec // path validated above
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", valid, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%s is not valid JSON", valid)
	}
	return data, nil
}
