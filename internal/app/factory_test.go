package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/jobsheet/internal/config"
	"github.com/joshsymonds/jobsheet/internal/models"
	"github.com/joshsymonds/jobsheet/internal/rasterizer"
	"github.com/joshsymonds/jobsheet/internal/storage"
	"github.com/joshsymonds/jobsheet/pkg/logger"
)

func TestFactoryLocalStore(t *testing.T) {
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	f := NewFactoryWithLogger(cfg, logger.NewMockLogger())

	store, err := f.Store(context.Background(), false)
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalStore{}, store)
}

func TestFactoryUploadWithoutS3(t *testing.T) {
	f := NewFactoryWithLogger(config.Default(), logger.NewMockLogger())

	_, err := f.Store(context.Background(), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage.s3 is not configured")
}

func TestFactoryS3Store(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")

	cfg := config.Default()
	cfg.Storage.S3 = &config.S3Config{Bucket: "facility-reports", Region: "ap-south-1", Prefix: "jobsheets"}
	f := NewFactoryWithLogger(cfg, logger.NewMockLogger())

	store, err := f.Store(context.Background(), true)
	require.NoError(t, err)
	s3Store, ok := store.(*storage.S3Store)
	require.True(t, ok)
	assert.Equal(t, "jobsheets/a.pdf", s3Store.Key("a.pdf"))
}

func TestFactoryServicePreview(t *testing.T) {
	f := NewFactoryWithLogger(config.Default(), logger.NewMockLogger())

	svc, err := f.Service(rasterizer.Func(nil))
	require.NoError(t, err)

	_, html, err := svc.GeneratePreview(models.Input{
		JobSheetData: []byte(`{"job_sheet":{"basic_info":{"job_card_number":"JC-1"}}}`),
	})
	require.NoError(t, err)
	assert.Contains(t, html, "<!DOCTYPE html>")
}

func TestFactoryChromeUsesConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Renderer.RemoteURL = "ws://127.0.0.1:1/"
	f := NewFactoryWithLogger(cfg, logger.NewMockLogger())

	chrome := f.Chrome()
	require.NotNil(t, chrome)
	chrome.Close()
}
