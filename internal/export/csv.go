// Package export serializes scan log entries to CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"io"

	"github.com/snaffler-consolidator/backend/internal/models"
)

// Header is the fixed CSV column header. Column order matches the entry
// fields; MatchedRegex is internal display data and is not exported.
var Header = []string{
	"Timestamp",
	"Log Entry Type",
	"Triage Level",
	"Matched Rule Name",
	"R/RW",
	"File Size",
	"File Last Modified",
	"Full File Path",
	"Match Context",
}

// Write writes the header row followed by one row per entry, in input
// order. Quoting and escaping follow RFC 4180 via encoding/csv. An empty
// entry slice produces just the header row.
func Write(w io.Writer, entries []models.LogEntry) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, e := range entries {
		row := []string{
			e.Timestamp,
			e.LogEntryType,
			e.TriageLevel,
			e.MatchedRuleName,
			e.ReadWrite,
			e.FileSize,
			e.FileLastModified,
			e.FullFilePath,
			e.MatchContext,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// Bytes renders the CSV export in memory.
func Bytes(entries []models.LogEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
