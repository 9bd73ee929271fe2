// Package session tracks per-upload parse sessions and their results.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/snaffler-consolidator/backend/internal/models"
	"github.com/snaffler-consolidator/backend/internal/parser"
	"github.com/snaffler-consolidator/backend/internal/triage"
)

// MaxSessions limits concurrent sessions to prevent memory exhaustion
const MaxSessions = 10

// SessionKeepAliveWindow is how long to keep sessions that are actively being used
const SessionKeepAliveWindow = 5 * time.Minute

// DefaultParserName is the parser used for every scan log upload.
const DefaultParserName = "snaffler"

// Manager handles active log parsing sessions. Each session owns its
// ScanLog exclusively; nothing is shared or merged between sessions, so
// concurrent uploads never observe each other's state.
type Manager struct {
	sessions map[string]*SessionState
	mu       sync.RWMutex
	registry *parser.Registry
}

// SessionState holds the session metadata and the in-memory parse result.
type SessionState struct {
	Session      *models.ParseSession
	Result       *models.ScanLog
	LastAccessed time.Time
}

// NewManager creates a new session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*SessionState),
		registry: parser.GetGlobalRegistry(),
	}
}

// StartSession begins parsing an uploaded file in the background.
func (m *Manager) StartSession(fileID, filePath string) (*models.ParseSession, error) {
	m.cleanupOldSessionsIfNeeded()

	sessionID := uuid.New().String()

	session := models.NewParseSession(sessionID, fileID)
	session.Status = models.SessionStatusParsing

	state := &SessionState{
		Session:      session,
		LastAccessed: time.Now(),
	}

	m.mu.Lock()
	m.sessions[sessionID] = state
	m.mu.Unlock()

	go m.runParse(sessionID, filePath)

	return session, nil
}

// StartTextSession parses pasted log text. The input is small enough that
// the parse runs synchronously; the session is complete on return.
func (m *Manager) StartTextSession(text string) (*models.ParseSession, error) {
	m.cleanupOldSessionsIfNeeded()

	p, err := m.registry.GetParserByName(DefaultParserName)
	if err != nil {
		return nil, err
	}
	sp, ok := p.(*parser.SnafflerParser)
	if !ok {
		return nil, fmt.Errorf("parser %s does not support text input", DefaultParserName)
	}

	start := time.Now()
	result := sp.Parse(text)

	sessionID := uuid.New().String()
	session := models.NewParseSession(sessionID, "")
	m.completeSession(session, result, time.Since(start).Milliseconds())

	m.mu.Lock()
	m.sessions[sessionID] = &SessionState{
		Session:      session,
		Result:       result,
		LastAccessed: time.Now(),
	}
	m.mu.Unlock()

	return session, nil
}

func (m *Manager) runParse(sessionID, filePath string) {
	// Recover from panics to prevent backend crash
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("[Parse %s] PANIC recovered: %v\n", sessionID[:8], r)
			m.updateSessionError(sessionID, fmt.Sprintf("parse panicked: %v", r))
		}
	}()

	start := time.Now()

	p, err := m.registry.GetParserByName(DefaultParserName)
	if err != nil {
		m.updateSessionError(sessionID, fmt.Sprintf("failed to find parser: %v", err))
		return
	}

	progressCb := func(lines int, bytesRead, totalBytes int64) {
		var progress float64
		if totalBytes > 0 {
			progress = float64(bytesRead) * 100.0 / float64(totalBytes)
		}
		// Clamp to 99.9% during parsing; 100 means complete
		if progress > 99.9 {
			progress = 99.9
		}

		m.mu.Lock()
		if state, ok := m.sessions[sessionID]; ok {
			state.Session.Progress = progress
			state.Session.TotalLines = lines
		}
		m.mu.Unlock()
	}

	result, err := p.ParseFileWithProgress(filePath, progressCb)
	if err != nil {
		m.updateSessionError(sessionID, fmt.Sprintf("parse failed: %v", err))
		return
	}

	elapsed := time.Since(start).Milliseconds()

	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[sessionID]
	if !ok {
		return
	}

	state.Result = result
	m.completeSession(state.Session, result, elapsed)
}

// completeSession fills the session summary fields from a parse result.
// Callers that share the session map must hold the write lock.
func (m *Manager) completeSession(s *models.ParseSession, result *models.ScanLog, elapsedMs int64) {
	s.Status = models.SessionStatusComplete
	s.Progress = 100
	s.EntryCount = len(result.Entries)
	s.FailedLines = result.FailedLines
	s.TotalLines = result.TotalLines
	s.TriageLevels = triage.Levels(result.Entries)
	s.ProcessingTimeMs = elapsedMs
}

func (m *Manager) updateSessionError(sessionID, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[sessionID]
	if !ok {
		return
	}

	state.Session.Status = models.SessionStatusError
	state.Session.Error = reason
}

// cleanupOldSessionsIfNeeded removes completed sessions if at capacity
func (m *Manager) cleanupOldSessionsIfNeeded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) < MaxSessions {
		return
	}

	var toDelete []string
	for id, state := range m.sessions {
		if state.Session.Status == models.SessionStatusComplete ||
			state.Session.Status == models.SessionStatusError {
			toDelete = append(toDelete, id)
		}
	}

	toFree := len(m.sessions) - MaxSessions + 1
	deleted := 0
	for _, id := range toDelete {
		if deleted >= toFree {
			break
		}
		delete(m.sessions, id)
		deleted++
		fmt.Printf("[Manager] Cleaned up old session %s to free memory\n", id[:8])
	}
}

// CleanupOldSessions removes sessions older than maxAge, keeping sessions
// that have been accessed within SessionKeepAliveWindow.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	keepAliveCutoff := time.Now().Add(-SessionKeepAliveWindow)

	for id, state := range m.sessions {
		if state.Session.Status != models.SessionStatusComplete &&
			state.Session.Status != models.SessionStatusError {
			continue
		}

		if state.LastAccessed.After(keepAliveCutoff) {
			continue
		}

		if state.LastAccessed.Before(cutoff) {
			delete(m.sessions, id)
			fmt.Printf("[Manager] Cleaned up aged session %s (last accessed: %s ago)\n",
				id[:8], time.Since(state.LastAccessed).Round(time.Second))
		}
	}
}

// GetSession returns a session by ID.
func (m *Manager) GetSession(id string) (*models.ParseSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	return state.Session, true
}

// TouchSession updates the LastAccessed timestamp for a session so active
// viewers are not cleaned up underneath.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.LastAccessed = time.Now()
	return true
}

// DeleteSession removes a session and its parse result.
func (m *Manager) DeleteSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// QueryEntries returns triage-filtered, paginated entries for a session.
// The second return value is the total after filtering, before pagination.
func (m *Manager) QueryEntries(id string, levels []string, page, pageSize int) ([]models.LogEntry, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.Result == nil {
		return nil, 0, false
	}

	filtered := triage.Filter(state.Result.Entries, levels)
	total := len(filtered)

	start := (page - 1) * pageSize
	if start < 0 {
		start = 0
	}
	if start >= total {
		return []models.LogEntry{}, total, true
	}

	end := start + pageSize
	if end > total {
		end = total
	}

	return filtered[start:end], total, true
}

// FilteredEntries returns all entries matching the triage selection, in
// original parse order. Used by the CSV export path.
func (m *Manager) FilteredEntries(id string, levels []string) ([]models.LogEntry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.Result == nil {
		return nil, false
	}

	return triage.Filter(state.Result.Entries, levels), true
}

// TriageCounts returns per-level entry counts and the levels in first-seen
// order for a session.
func (m *Manager) TriageCounts(id string) (map[string]int, []string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.sessions[id]
	if !ok || state.Result == nil {
		return nil, nil, false
	}

	return triage.Aggregate(state.Result.Entries), triage.Levels(state.Result.Entries), true
}
