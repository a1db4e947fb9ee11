package plan

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/jobsheet/internal/models"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

func TestPrint(t *testing.T) {
	path, err := filepath.Abs(filepath.Join("..", "..", "testdata", "jobsheet", "long_job_sheet.json"))
	require.NoError(t, err)
	in, err := models.LoadInput("", path, "", "")
	require.NoError(t, err)

	log := logger.NewMockLogger()
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, *in, 100, log))

	out := buf.String()
	assert.Contains(t, out, "QUARTERLY AUDIT")
	assert.Contains(t, out, "PAGINATE")
	assert.Contains(t, out, "Lighting")
	assert.Contains(t, out, "Page 2: 7 items")
	assert.True(t, log.HasMessage("DEBUG", "Planned job sheet pages"))
}
