package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// OutputManager handles export file organization and path management
type OutputManager struct {
	BaseOutputDir string
	now           func() time.Time
}

// NewOutputManager creates a new output manager
func NewOutputManager(baseOutputDir string) *OutputManager {
	return &OutputManager{
		BaseOutputDir: baseOutputDir,
		now:           time.Now,
	}
}

// EnsureOutputDirExists ensures the base output directory exists
func (om *OutputManager) EnsureOutputDirExists() error {
	return os.MkdirAll(om.BaseOutputDir, 0755)
}

// ExportFilePath returns a timestamped path for a new export, creating the base directory.
// prefix is reduced to its base name.
func (om *OutputManager) ExportFilePath(prefix, format string) (string, error) {
	if err := om.EnsureOutputDirExists(); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	stamp := om.now().UTC().Format("20060102_150405.000")
	name := fmt.Sprintf("%s_%s.%s", filepath.Base(prefix), strings.ReplaceAll(stamp, ".", "_"), format)
	return filepath.Join(om.BaseOutputDir, name), nil
}

// GetFileType determines the export format from a file extension
func (om *OutputManager) GetFileType(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return "csv"
	case ".json":
		return "json"
	case ".parquet":
		return "parquet"
	default:
		return "unknown"
	}
}

// GetFileSize returns the size of a file in bytes
func (om *OutputManager) GetFileSize(filePath string) (int64, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return 0, err
	}
	return fileInfo.Size(), nil
}
