// Package models contains domain types for the Snaffler Log Consolidator.
package models

// LogEntry represents a single matched finding from a Snaffler scan log.
// Every field holds the verbatim text captured from the line; no numeric or
// date normalization is applied so values round-trip into the CSV export
// exactly as they appeared in the log.
type LogEntry struct {
	Timestamp        string `json:"timestamp"`
	LogEntryType     string `json:"logEntryType"` // e.g. "File", "Share"
	TriageLevel      string `json:"triageLevel"`  // open set, discovered at parse time
	MatchedRuleName  string `json:"matchedRuleName"`
	ReadWrite        string `json:"readWrite"` // "R", "RW"
	MatchedRegex     string `json:"matchedRegex"`
	FileSize         string `json:"fileSize"`
	FileLastModified string `json:"fileLastModified"`
	Server           string `json:"server"` // host segment of a UNC path, "" otherwise
	FullFilePath     string `json:"fullFilePath"`
	MatchContext     string `json:"matchContext"`
}
