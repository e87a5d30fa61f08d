package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/interfaces"
)

// RulesHandler manages the session rule context over HTTP
type RulesHandler struct {
	ruleStore interfaces.RuleStore
	logger    arbor.ILogger
}

// NewRulesHandler creates a new rules handler
func NewRulesHandler(ruleStore interfaces.RuleStore, logger arbor.ILogger) *RulesHandler {
	return &RulesHandler{
		ruleStore: ruleStore,
		logger:    logger,
	}
}

// RulesHandler handles /api/rules requests:
//   - GET lists the session rule context
//   - POST merges {"rules": [...]} into the context
//   - DELETE clears the context
func (h *RulesHandler) RulesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listRules(w)
	case http.MethodPost:
		h.addRules(w, r)
	case http.MethodDelete:
		h.clearRules(w)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RulesHandler) listRules(w http.ResponseWriter) {
	rules := h.ruleStore.List()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   len(rules),
		"rules":   rules,
	})
}

func (h *RulesHandler) addRules(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Rules []string `json:"rules"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode rules request")
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	if len(req.Rules) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Rules field is required",
		})
		return
	}

	added := h.ruleStore.Add(req.Rules...)
	h.logger.Info().
		Int("submitted", len(req.Rules)).
		Int("added", added).
		Int("total", h.ruleStore.Count()).
		Msg("Rules merged into session context")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"added":   added,
		"count":   h.ruleStore.Count(),
	})
}

func (h *RulesHandler) clearRules(w http.ResponseWriter) {
	h.ruleStore.Clear()
	h.logger.Info().Msg("Session rule context cleared")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   0,
	})
}
