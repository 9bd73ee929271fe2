// Package parser turns raw Snaffler scan log text into structured entries.
package parser

import "github.com/snaffler-consolidator/backend/internal/models"

// ProgressCallback is called periodically during parsing to report progress.
type ProgressCallback func(linesProcessed int, bytesProcessed int64, totalBytes int64)

// Parser defines the interface for log file parsers.
type Parser interface {
	// Name returns the unique name of the parser.
	Name() string
	// CanParse returns true if this parser can handle the given file.
	CanParse(filePath string) (bool, error)
	// ParseFile parses the entire file and returns the result.
	ParseFile(filePath string) (*models.ScanLog, error)
	// ParseFileWithProgress parses with progress callbacks for large files.
	ParseFileWithProgress(filePath string, onProgress ProgressCallback) (*models.ScanLog, error)
}
