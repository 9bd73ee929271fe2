// handlers_rules.go - Triage display rules handlers
package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/snaffler-consolidator/backend/internal/models"
	"github.com/snaffler-consolidator/backend/internal/parser"
)

// RulesHandlerImpl implements the RulesHandler interface. Rules only shape
// how triage levels render on the dashboard; levels without a rule still
// display with defaults.
type RulesHandlerImpl struct {
	mu    sync.RWMutex
	rules *models.TriageRules
}

// NewRulesHandler creates a new rules handler instance
func NewRulesHandler() RulesHandler {
	return &RulesHandlerImpl{
		rules: defaultTriageRules(),
	}
}

// defaultTriageRules matches the classic Snaffler severity palette.
func defaultTriageRules() *models.TriageRules {
	return &models.TriageRules{
		Rules: []models.TriageRule{
			{Level: "Black", Color: "#1a1a1a", Rank: 0},
			{Level: "Red", Color: "#d62728", Rank: 1},
			{Level: "Yellow", Color: "#e6b800", Rank: 2},
			{Level: "Green", Color: "#2ca02c", Rank: 3},
		},
	}
}

// LoadDefaultRules loads the triage rules YAML from the data directory, if present.
func (h *RulesHandlerImpl) LoadDefaultRules(dataDir string) error {
	rulesPath := filepath.Join(dataDir, "defaults", "triage_rules.yaml")
	if _, err := os.Stat(rulesPath); os.IsNotExist(err) {
		return nil // No default rules file
	}

	rules, err := parser.ParseTriageRules(rulesPath)
	if err != nil {
		return fmt.Errorf("failed to parse default triage rules: %w", err)
	}

	h.mu.Lock()
	h.rules = rules
	h.mu.Unlock()
	return nil
}

// HandleGetTriageRules returns the current display rules
func (h *RulesHandlerImpl) HandleGetTriageRules(c echo.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return c.JSON(http.StatusOK, h.rules)
}

// HandleUpdateTriageRules replaces the display rules. Accepts either a
// JSON body or an uploaded YAML file under the "file" form field.
func (h *RulesHandlerImpl) HandleUpdateTriageRules(c echo.Context) error {
	if file, err := c.FormFile("file"); err == nil {
		src, err := file.Open()
		if err != nil {
			return NewInternalError("failed to open uploaded rules", err)
		}
		defer src.Close()

		rules, err := parser.ParseTriageRulesFromReader(src)
		if err != nil {
			return NewBadRequestError("invalid rules YAML", err)
		}

		h.mu.Lock()
		h.rules = rules
		h.mu.Unlock()
		return c.JSON(http.StatusOK, rules)
	}

	var rules models.TriageRules
	if err := c.Bind(&rules); err != nil {
		return NewBadRequestError("invalid request body", err)
	}

	h.mu.Lock()
	h.rules = &rules
	h.mu.Unlock()
	return c.JSON(http.StatusOK, &rules)
}
