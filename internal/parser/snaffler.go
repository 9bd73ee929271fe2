package parser

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/snaffler-consolidator/backend/internal/models"
)

// SnafflerParser handles single-line Snaffler finding records.
// Format: "TIMESTAMP [Type] {Level}<Rule|R/RW|Pattern> Size|Modified>(Path) Context"
type SnafflerParser struct {
	lineRegex *regexp.Regexp
}

// lineRegex groups:
//  1. timestamp "YYYY-MM-DD HH:MM:SS +HH:MM"
//  2. entry type   3. triage level
//  4. rule name    5. R/RW        6. matched pattern (may contain '|')
//  7. file size    8. last modified
//  9. full path (ends at the first ')'; paths containing ')' mis-parse,
//     matching the source format exactly)
// 10. match context
const lineExpr = `^(\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} [+-]\d{2}:\d{2}) \[(\w+)\] ?\{(\w+)\}<([^|]*)\|([^|]*)\|([^>]*)> ([^|]*)\|([^>]*)>\(([^)]*)\)\s*(.*)$`

// NewSnafflerParser creates a parser for the Snaffler finding format.
func NewSnafflerParser() *SnafflerParser {
	return &SnafflerParser{
		lineRegex: regexp.MustCompile(lineExpr),
	}
}

func (p *SnafflerParser) Name() string {
	return "snaffler"
}

// ParseLine matches one raw line against the record grammar. The second
// return value reports whether the line matched; a false return is not an
// error, the caller tallies it.
func (p *SnafflerParser) ParseLine(raw string) (models.LogEntry, bool) {
	m := p.lineRegex.FindStringSubmatch(raw)
	if m == nil {
		return models.LogEntry{}, false
	}

	path := m[9]
	return models.LogEntry{
		Timestamp:        m[1],
		LogEntryType:     m[2],
		TriageLevel:      m[3],
		MatchedRuleName:  m[4],
		ReadWrite:        m[5],
		MatchedRegex:     m[6],
		FileSize:         m[7],
		FileLastModified: m[8],
		Server:           ExtractServer(path),
		FullFilePath:     path,
		MatchContext:     strings.TrimSpace(m[10]),
	}, true
}

// Parse builds a ScanLog from a block of text. Blank lines are skipped
// without being counted; every other non-matching line increments
// FailedLines. Entries keep input order. Pure: same text, same result.
func (p *SnafflerParser) Parse(text string) *models.ScanLog {
	log, _ := p.parseScanner(bufio.NewScanner(strings.NewReader(text)), nil, 0)
	return log
}

// ParseReader is the streaming variant of Parse for uploaded files.
func (p *SnafflerParser) ParseReader(r io.Reader, onProgress ProgressCallback, totalBytes int64) (*models.ScanLog, error) {
	return p.parseScanner(bufio.NewScanner(r), onProgress, totalBytes)
}

func (p *SnafflerParser) parseScanner(scanner *bufio.Scanner, onProgress ProgressCallback, totalBytes int64) (*models.ScanLog, error) {
	// Findings with long match contexts can exceed the default token size.
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	log := models.NewScanLog()
	lineNum := 0
	var bytesRead int64

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSuffix(scanner.Text(), "\r")
		bytesRead += int64(len(line)) + 1

		if strings.TrimSpace(line) == "" {
			continue
		}
		log.TotalLines++

		entry, ok := p.ParseLine(line)
		if !ok {
			log.FailedLines++
			continue
		}
		log.Entries = append(log.Entries, entry)

		if onProgress != nil && lineNum%10000 == 0 {
			onProgress(lineNum, bytesRead, totalBytes)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return log, nil
}

// CanParse samples the first lines of a file and accepts it when most of
// them match the finding grammar.
func (p *SnafflerParser) CanParse(filePath string) (bool, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return false, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	checked := 0
	matched := 0
	for scanner.Scan() && checked < 10 {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		checked++
		if p.lineRegex.MatchString(line) {
			matched++
		}
	}

	return checked > 0 && float64(matched)/float64(checked) >= 0.6, nil
}

// ParseFile parses the entire file and returns the result.
func (p *SnafflerParser) ParseFile(filePath string) (*models.ScanLog, error) {
	return p.ParseFileWithProgress(filePath, nil)
}

// ParseFileWithProgress parses with progress callbacks for large files.
func (p *SnafflerParser) ParseFileWithProgress(filePath string, onProgress ProgressCallback) (*models.ScanLog, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var totalBytes int64
	if info, err := file.Stat(); err == nil {
		totalBytes = info.Size()
	}

	return p.ParseReader(file, onProgress, totalBytes)
}

// ExtractServer extracts the server name from a UNC path like \\SERVER\share\path.
// Returns "" for non-UNC paths.
func ExtractServer(path string) string {
	if !strings.HasPrefix(path, `\\`) {
		return ""
	}
	rest := path[2:]
	if idx := strings.IndexByte(rest, '\\'); idx >= 0 {
		return rest[:idx]
	}
	return rest
}
