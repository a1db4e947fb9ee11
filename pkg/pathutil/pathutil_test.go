package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConfigPath(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		errContains string
		wantErr     bool
	}{
		{name: "yaml config", path: "configs/jobsheet.yaml"},
		{name: "yml config", path: "configs/jobsheet.yml"},
		{name: "wrong extension", path: "configs/jobsheet.json", wantErr: true, errContains: "must have .yaml"},
		{name: "traversal", path: "../../etc/jobsheet.yaml", wantErr: true, errContains: "directory traversal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateConfigPath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.True(t, filepath.IsAbs(got))
		})
	}
}

func TestValidateInputPath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "job_sheet.json")
	require.NoError(t, os.WriteFile(file, []byte(`{}`), 0600))

	got, err := ValidateInputPath(file)
	require.NoError(t, err)
	assert.Equal(t, file, got)

	_, err = ValidateInputPath(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")

	_, err = ValidateInputPath(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestEnsureOutputDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "reports", "nested")

	got, err := EnsureOutputDir(target)
	require.NoError(t, err)

	info, err := os.Stat(got)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestJoinAndValidate(t *testing.T) {
	base := t.TempDir()

	got, err := JoinAndValidate(base, "JobSheet_1_2024-01-01.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "JobSheet_1_2024-01-01.pdf"), got)

	_, err = JoinAndValidate(base, "..", "escape.pdf")
	require.Error(t, err)
}

func TestSafeFileName(t *testing.T) {
	tests := map[string]string{
		"JobSheet_4821_2024-05-01.pdf": "JobSheet_4821_2024-05-01.pdf",
		"JobSheet_a/b_2024.pdf":        "JobSheet_a_b_2024.pdf",
		"../../x":                      "x",
		"":                             "_",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeFileName(in), in)
	}
}
