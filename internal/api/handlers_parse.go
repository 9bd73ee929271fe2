// handlers_parse.go - Parse session operation handlers
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/snaffler-consolidator/backend/internal/export"
	"github.com/snaffler-consolidator/backend/internal/models"
	"github.com/snaffler-consolidator/backend/internal/storage"
	"github.com/vmihailenco/msgpack/v5"
)

// displayContextLimit caps match context length in listing responses. The
// full text still goes into the CSV export untouched.
const displayContextLimit = 200

// ParseHandlerImpl implements the ParseHandler interface
type ParseHandlerImpl struct {
	store      storage.Store
	sessionMgr SessionManager
}

// NewParseHandler creates a new parse handler instance
func NewParseHandler(store storage.Store, sessionMgr SessionManager) ParseHandler {
	return &ParseHandlerImpl{
		store:      store,
		sessionMgr: sessionMgr,
	}
}

// HandleStartParse starts a new parsing session for an uploaded file
func (h *ParseHandlerImpl) HandleStartParse(c echo.Context) error {
	var req startParseRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if req.FileID == "" {
		return NewValidationError("fileId")
	}

	if _, err := h.store.Get(req.FileID); err != nil {
		return NewNotFoundError("file", req.FileID)
	}

	path, err := h.store.GetFilePath(req.FileID)
	if err != nil {
		return NewInternalError("failed to get file path", err)
	}

	sess, err := h.sessionMgr.StartSession(req.FileID, path)
	if err != nil {
		return NewInternalError("failed to start session", err)
	}

	h.store.SetStatus(req.FileID, "parsing")

	return c.JSON(http.StatusAccepted, sess)
}

// HandleParseText parses pasted log text directly, without an upload
func (h *ParseHandlerImpl) HandleParseText(c echo.Context) error {
	var req parseTextRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	if req.Text == "" {
		return NewValidationError("text")
	}

	sess, err := h.sessionMgr.StartTextSession(req.Text)
	if err != nil {
		return NewInternalError("failed to parse text", err)
	}

	return c.JSON(http.StatusCreated, sess)
}

// HandleParseStatus returns the current status of a parsing session
func (h *ParseHandlerImpl) HandleParseStatus(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	sess, ok := h.sessionMgr.GetSession(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	// Touch session to prevent cleanup while being viewed
	h.sessionMgr.TouchSession(id)

	return c.JSON(http.StatusOK, sess)
}

// HandleSessionKeepAlive extends session lifetime for active viewing
func (h *ParseHandlerImpl) HandleSessionKeepAlive(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	if ok := h.sessionMgr.TouchSession(id); !ok {
		return NewNotFoundError("session", id)
	}

	return c.NoContent(http.StatusNoContent)
}

// HandleDeleteSession discards a session and its parse result
func (h *ParseHandlerImpl) HandleDeleteSession(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	if ok := h.sessionMgr.DeleteSession(id); !ok {
		return NewNotFoundError("session", id)
	}

	return c.NoContent(http.StatusNoContent)
}

// HandleParseProgressStream streams parsing progress via SSE
func (h *ParseHandlerImpl) HandleParseProgressStream(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	// Set SSE headers
	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("X-Accel-Buffering", "no")
	c.Response().WriteHeader(http.StatusOK)

	sess, ok := h.sessionMgr.GetSession(id)
	if !ok {
		h.sendSSEError(c, "session not found")
		return nil
	}

	// Send initial status
	h.sendSSEData(c, sess)

	// Stream updates until complete or error
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.NewTimer(5 * time.Minute)
	defer timeout.Stop()

	for {
		select {
		case <-ticker.C:
			sess, ok := h.sessionMgr.GetSession(id)
			if !ok {
				h.sendSSEError(c, "session not found")
				return nil
			}

			h.sendSSEData(c, sess)

			if sess.Status == models.SessionStatusComplete ||
				sess.Status == models.SessionStatusError {
				return nil
			}

		case <-timeout.C:
			h.sendSSEError(c, "stream timeout")
			return nil
		}
	}
}

// HandleParseEntries returns paginated, triage-filtered entries for a session
func (h *ParseHandlerImpl) HandleParseEntries(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	page, pageSize := parsePagination(c)
	levels := c.QueryParams()["triage"]

	entries, total, ok := h.sessionMgr.QueryEntries(id, levels, page, pageSize)
	if !ok {
		return NewNotFoundError("session", id)
	}

	return c.JSON(http.StatusOK, entriesResponse{
		Entries:  truncateContexts(entries),
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
}

// HandleParseEntriesMsgpack returns entries in MessagePack format for
// dense transfer of large result pages
func (h *ParseHandlerImpl) HandleParseEntriesMsgpack(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	page, pageSize := parsePagination(c)
	levels := c.QueryParams()["triage"]

	entries, total, ok := h.sessionMgr.QueryEntries(id, levels, page, pageSize)
	if !ok {
		return NewNotFoundError("session", id)
	}

	data, err := msgpack.Marshal(entriesResponse{
		Entries:  truncateContexts(entries),
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	})
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleTriageCounts returns per-level entry counts for the dashboard
func (h *ParseHandlerImpl) HandleTriageCounts(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	counts, levels, ok := h.sessionMgr.TriageCounts(id)
	if !ok {
		return NewNotFoundError("session", id)
	}

	return c.JSON(http.StatusOK, triageCountsResponse{
		TriageLevels: levels,
		TriageCounts: counts,
	})
}

// HandleExportCSV streams the filtered entries as a CSV download
func (h *ParseHandlerImpl) HandleExportCSV(c echo.Context) error {
	id := c.Param("sessionId")
	if id == "" {
		return NewValidationError("sessionId")
	}

	var req exportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	entries, ok := h.sessionMgr.FilteredEntries(id, req.TriageLevels)
	if !ok {
		return NewNotFoundError("session", id)
	}

	filename := fmt.Sprintf("snaffler_export_%s.csv", time.Now().Format("20060102_150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().WriteHeader(http.StatusOK)

	return export.Write(c.Response(), entries)
}

// Request/Response types

type startParseRequest struct {
	FileID string `json:"fileId"`
}

type parseTextRequest struct {
	Text string `json:"text"`
}

type exportRequest struct {
	TriageLevels []string `json:"triageLevels"`
}

type entriesResponse struct {
	Entries  []models.LogEntry `json:"entries" msgpack:"entries"`
	Page     int               `json:"page" msgpack:"page"`
	PageSize int               `json:"pageSize" msgpack:"pageSize"`
	Total    int               `json:"total" msgpack:"total"`
}

type triageCountsResponse struct {
	TriageLevels []string       `json:"triageLevels"`
	TriageCounts map[string]int `json:"triageCounts"`
}

// Helper methods

func parsePagination(c echo.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(c.QueryParam("pageSize"))
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 100
	}
	return page, pageSize
}

// truncateContexts copies entries with overlong match contexts shortened
// for display. The underlying session data is never modified.
func truncateContexts(entries []models.LogEntry) []models.LogEntry {
	out := make([]models.LogEntry, len(entries))
	for i, e := range entries {
		if len(e.MatchContext) > displayContextLimit {
			e.MatchContext = e.MatchContext[:displayContextLimit] + "..."
		}
		out[i] = e
	}
	return out
}

func (h *ParseHandlerImpl) sendSSEData(c echo.Context, data interface{}) {
	jsonData, _ := json.Marshal(data)
	fmt.Fprintf(c.Response(), "data: %s\n\n", jsonData)
	c.Response().Flush()
}

func (h *ParseHandlerImpl) sendSSEError(c echo.Context, message string) {
	h.sendSSEData(c, map[string]string{"error": message})
}
