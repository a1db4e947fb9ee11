// Package storage persists generated job sheet files.
package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/joshsymonds/jobsheet/pkg/logger"
	"github.com/joshsymonds/jobsheet/pkg/pathutil"
)

// Content types of generated files.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// writeFile is replaced in tests to simulate a failing disk.
var writeFile = func(path string, data []byte) error {
	return os.WriteFile(path, data, 0600)
}

// Store saves a named file and returns where it was written.
type Store interface {
	Save(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// LocalStore writes files into a directory on disk.
type LocalStore struct {
	logger  logger.Logger
	baseDir string
}

// NewLocalStore creates a LocalStore rooted at baseDir.
func NewLocalStore(baseDir string) *LocalStore {
	return NewLocalStoreWithLogger(baseDir, logger.GetGlobalLogger())
}

// NewLocalStoreWithLogger creates a LocalStore with a custom logger.
func NewLocalStoreWithLogger(baseDir string, log logger.Logger) *LocalStore {
	return &LocalStore{
		baseDir: baseDir,
		logger:  log,
	}
}

// Save writes data to baseDir/name. The directory is created when missing.
func (s *LocalStore) Save(ctx context.Context, name string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dir, err := pathutil.EnsureOutputDir(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("invalid output directory: %w", err)
	}

	path, err := pathutil.JoinAndValidate(dir, pathutil.SafeFileName(name))
	if err != nil {
		return "", fmt.Errorf("invalid output file: %w", err)
	}

	// Write to a temp file first so a failed write never leaves a partial file.
	tmp := path + ".tmp"
	if err := writeFile(tmp, data); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalizing %s: %w", name, err)
	}

	s.logger.Info("Saved job sheet", "path", path, "bytes", len(data))
	return path, nil
}
