// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/snaffler-consolidator/backend/internal/models"
)

// UploadHandler handles file upload operations
type UploadHandler interface {
	HandleUploadFile(c echo.Context) error
	HandleUploadBinary(c echo.Context) error
	HandleUploadChunk(c echo.Context) error
	HandleCompleteUpload(c echo.Context) error
	HandleUploadJobStatus(c echo.Context) error
	HandleGetRecentFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
	HandleGetFileSample(c echo.Context) error
	HandleDeleteFile(c echo.Context) error
	HandleRenameFile(c echo.Context) error
}

// ParseHandler handles parse session operations
type ParseHandler interface {
	HandleStartParse(c echo.Context) error
	HandleParseText(c echo.Context) error
	HandleParseStatus(c echo.Context) error
	HandleParseProgressStream(c echo.Context) error
	HandleParseEntries(c echo.Context) error
	HandleParseEntriesMsgpack(c echo.Context) error
	HandleTriageCounts(c echo.Context) error
	HandleExportCSV(c echo.Context) error
	HandleSessionKeepAlive(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
}

// RulesHandler handles triage display rules operations
type RulesHandler interface {
	HandleGetTriageRules(c echo.Context) error
	HandleUpdateTriageRules(c echo.Context) error
	LoadDefaultRules(dataDir string) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionManager defines the interface for session management.
// This allows mocking in tests.
type SessionManager interface {
	StartSession(fileID, filePath string) (*models.ParseSession, error)
	StartTextSession(text string) (*models.ParseSession, error)
	GetSession(id string) (*models.ParseSession, bool)
	TouchSession(id string) bool
	DeleteSession(id string) bool
	QueryEntries(id string, levels []string, page, pageSize int) ([]models.LogEntry, int, bool)
	FilteredEntries(id string, levels []string) ([]models.LogEntry, bool)
	TriageCounts(id string) (map[string]int, []string, bool)
}
