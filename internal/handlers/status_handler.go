package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/common"
	"github.com/ternarybob/custos/internal/interfaces"
)

// StatusHandler reports application status
type StatusHandler struct {
	reviewService interfaces.ReviewService
	ruleStore     interfaces.RuleStore
	logger        arbor.ILogger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(
	reviewService interfaces.ReviewService,
	ruleStore interfaces.RuleStore,
	logger arbor.ILogger,
) *StatusHandler {
	return &StatusHandler{
		reviewService: reviewService,
		ruleStore:     ruleStore,
		logger:        logger,
	}
}

// GetStatusHandler handles GET /api/status requests. backend_configured
// is false when the service is running in degraded mode (no credential).
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":             "ok",
		"version":            common.GetVersion(),
		"backend_configured": h.reviewService.Configured(),
		"rules_in_context":   h.ruleStore.Count(),
	})
}
