package models

// ScanLog represents the result of parsing one uploaded Snaffler log.
// Entries keep their original line order. FailedLines counts non-blank
// lines that did not match the record grammar; blank lines are skipped
// without being counted. A ScanLog is built fresh per parse and is never
// merged with the result of another upload.
type ScanLog struct {
	Entries     []LogEntry `json:"entries"`
	FailedLines int        `json:"failedLines"`
	TotalLines  int        `json:"totalLines"` // non-blank lines seen
}

// NewScanLog creates a new empty ScanLog.
func NewScanLog() *ScanLog {
	return &ScanLog{
		Entries: make([]LogEntry, 0),
	}
}
