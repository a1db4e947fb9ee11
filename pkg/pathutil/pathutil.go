// Package pathutil provides utilities for safe path handling and validation.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ValidateConfigPath validates a configuration file path.
// Config files are expected to be YAML files.
func ValidateConfigPath(path string) (string, error) {
	absPath, err := cleanAbs(path)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(absPath))
	if ext != ".yaml" && ext != ".yml" {
		return "", fmt.Errorf("config file must have .yaml or .yml extension, got %s", ext)
	}

	return absPath, nil
}

// ValidateInputPath validates a JSON payload path supplied on the command line.
func ValidateInputPath(path string) (string, error) {
	absPath, err := cleanAbs(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat input file: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("input path is a directory: %s", absPath)
	}

	return absPath, nil
}

// EnsureOutputDir validates an output directory and creates it when missing.
func EnsureOutputDir(dir string) (string, error) {
	absDir, err := cleanAbs(dir)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(absDir, 0750); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	return absDir, nil
}

// JoinAndValidate safely joins path components and validates the result
// stays inside baseDir.
func JoinAndValidate(baseDir string, elems ...string) (string, error) {
	for _, elem := range elems {
		if strings.Contains(elem, "..") {
			return "", fmt.Errorf("path element contains directory traversal: %s", elem)
		}
	}

	joined := filepath.Join(append([]string{baseDir}, elems...)...)

	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", fmt.Errorf("getting absolute base directory: %w", err)
	}

	absJoined, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("getting absolute joined path: %w", err)
	}

	if !strings.HasSuffix(absBase, string(filepath.Separator)) {
		absBase += string(filepath.Separator)
	}

	if !strings.HasPrefix(absJoined, absBase) {
		return "", fmt.Errorf("joined path %s is not within base directory %s", joined, baseDir)
	}

	return absJoined, nil
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeFileName replaces every character outside [A-Za-z0-9._-] with an underscore.
func SafeFileName(name string) string {
	cleaned := unsafeNameChars.ReplaceAllString(name, "_")
	cleaned = strings.Trim(cleaned, "._")
	if cleaned == "" {
		return "_"
	}
	return cleaned
}

func cleanAbs(path string) (string, error) {
	if strings.Contains(path, "..") {
		return "", fmt.Errorf("path contains directory traversal pattern: %s", path)
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("getting absolute path: %w", err)
	}
	return absPath, nil
}
