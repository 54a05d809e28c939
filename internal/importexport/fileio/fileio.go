// Package fileio provides file system operations for event import.
//
// This package handles:
//   - Opening and reading event files
//   - Directory traversal and event file discovery
//   - Path validation and error handling
package fileio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/moolen/laneview/internal/logging"
)

// Format is the encoding of an event file
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatYAML
	// FormatJSONL is one JSON event per line, as written by the capture log
	FormatJSONL
)

// String returns the format name
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatJSONL:
		return "jsonl"
	default:
		return "unknown"
	}
}

// DetectFormat determines the format from the file extension (case-insensitive)
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatUnknown
	}
}

// FileReader handles opening and reading files with proper error handling
type FileReader struct {
	logger *logging.Logger
}

// NewFileReader creates a new file reader
func NewFileReader(logger *logging.Logger) *FileReader {
	return &FileReader{logger: logger}
}

// ReadFile opens and returns a reader for the specified file path
// Caller is responsible for closing the returned ReadCloser
func (r *FileReader) ReadFile(path string) (io.ReadCloser, error) {
	if path == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file does not exist: %s", path)
		}
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}

	// #nosec G304 -- event file paths are intentionally user-provided
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	r.logger.Debug("Opened file: %s (size: %d bytes)", path, info.Size())
	return file, nil
}

// DirectoryWalker handles recursive directory traversal for event files
type DirectoryWalker struct {
	logger *logging.Logger
}

// NewDirectoryWalker creates a new directory walker
func NewDirectoryWalker(logger *logging.Logger) *DirectoryWalker {
	return &DirectoryWalker{logger: logger}
}

// WalkResult contains information about files found during traversal
type WalkResult struct {
	FilePath string
	Size     int64
	Format   Format
}

// Walk recursively finds all event files under dirPath, in lexical order
func (w *DirectoryWalker) Walk(dirPath string) ([]WalkResult, error) {
	if dirPath == "" {
		return nil, fmt.Errorf("directory path cannot be empty")
	}

	info, err := os.Stat(dirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory does not exist: %s", dirPath)
		}
		return nil, fmt.Errorf("failed to stat directory %s: %w", dirPath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	var results []WalkResult
	walkErrors := 0

	err = filepath.WalkDir(dirPath, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			walkErrors++
			w.logger.Warn("Error walking path %s: %v", filePath, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}

		format := DetectFormat(filePath)
		if format == FormatUnknown {
			w.logger.Debug("Skipping file with unknown format: %s", filePath)
			return nil
		}

		fileInfo, err := d.Info()
		if err != nil {
			walkErrors++
			return nil
		}
		results = append(results, WalkResult{FilePath: filePath, Size: fileInfo.Size(), Format: format})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}

	if len(results) == 0 {
		if walkErrors > 0 {
			return nil, fmt.Errorf("no event files found in %s (encountered %d errors during traversal)", dirPath, walkErrors)
		}
		return nil, fmt.Errorf("no event files found in directory: %s", dirPath)
	}

	sort.Slice(results, func(i, j int) bool { return results[i].FilePath < results[j].FilePath })

	w.logger.DebugWithFields("Directory walk completed",
		logging.Field("directory", dirPath),
		logging.Field("files_found", len(results)),
		logging.Field("errors", walkErrors))

	return results, nil
}

// PathType represents the type of path (file or directory)
type PathType int

const (
	PathTypeUnknown PathType = iota
	PathTypeFile
	PathTypeDirectory
)

// DetectPathType determines if a path points to a file or directory
func DetectPathType(path string) (PathType, error) {
	if path == "" {
		return PathTypeUnknown, fmt.Errorf("path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return PathTypeUnknown, fmt.Errorf("path does not exist: %s", path)
		}
		return PathTypeUnknown, fmt.Errorf("failed to stat path %s: %w", path, err)
	}

	if info.IsDir() {
		return PathTypeDirectory, nil
	}
	return PathTypeFile, nil
}
