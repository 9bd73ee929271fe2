// routes.go - Route registration helpers
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/snaffler-consolidator/backend/internal/session"
	"github.com/snaffler-consolidator/backend/internal/storage"
	"github.com/snaffler-consolidator/backend/internal/upload"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store      storage.Store
	SessionMgr *session.Manager
	UploadMgr  *upload.Manager
	Version    string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Upload UploadHandler
	Parse  ParseHandler
	Rules  RulesHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Version),
		Upload: NewUploadHandler(deps.Store, deps.UploadMgr),
		Parse:  NewParseHandler(deps.Store, deps.SessionMgr),
		Rules:  NewRulesHandler(),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, allowFileDeletion bool) {
	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// File upload routes
	fileGroup := e.Group("/api/files")
	fileGroup.POST("/upload", handlers.Upload.HandleUploadFile)
	fileGroup.POST("/upload/binary", handlers.Upload.HandleUploadBinary)
	fileGroup.POST("/upload/chunk", handlers.Upload.HandleUploadChunk)
	fileGroup.POST("/upload/complete", handlers.Upload.HandleCompleteUpload)
	fileGroup.GET("/upload/jobs/:jobId", handlers.Upload.HandleUploadJobStatus)
	fileGroup.GET("/recent", handlers.Upload.HandleGetRecentFiles)
	fileGroup.GET("/:id", handlers.Upload.HandleGetFile)
	fileGroup.GET("/:id/sample", handlers.Upload.HandleGetFileSample)
	fileGroup.PUT("/:id", handlers.Upload.HandleRenameFile)
	if allowFileDeletion {
		fileGroup.DELETE("/:id", handlers.Upload.HandleDeleteFile)
	}

	// Parse session routes
	parseGroup := e.Group("/api/parse")
	parseGroup.POST("", handlers.Parse.HandleStartParse)
	parseGroup.POST("/text", handlers.Parse.HandleParseText)
	parseGroup.GET("/:sessionId/status", handlers.Parse.HandleParseStatus)
	parseGroup.POST("/:sessionId/keepalive", handlers.Parse.HandleSessionKeepAlive)
	parseGroup.GET("/:sessionId/progress", handlers.Parse.HandleParseProgressStream)
	parseGroup.GET("/:sessionId/entries", handlers.Parse.HandleParseEntries)
	parseGroup.GET("/:sessionId/entries/msgpack", handlers.Parse.HandleParseEntriesMsgpack)
	parseGroup.GET("/:sessionId/triage-counts", handlers.Parse.HandleTriageCounts)
	parseGroup.POST("/:sessionId/export", handlers.Parse.HandleExportCSV)
	parseGroup.DELETE("/:sessionId", handlers.Parse.HandleDeleteSession)

	// Triage display rules
	e.GET("/api/config/triage-rules", handlers.Rules.HandleGetTriageRules)
	e.PUT("/api/config/triage-rules", handlers.Rules.HandleUpdateTriageRules)
}
