package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/interfaces"
	"github.com/ternarybob/custos/internal/models"
	"github.com/ternarybob/custos/internal/services/review"
)

// ReviewHandler handles review-related HTTP requests
type ReviewHandler struct {
	reviewService interfaces.ReviewService
	ruleStore     interfaces.RuleStore
	logger        arbor.ILogger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(
	reviewService interfaces.ReviewService,
	ruleStore interfaces.RuleStore,
	logger arbor.ILogger,
) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		ruleStore:     ruleStore,
		logger:        logger,
	}
}

// ReviewHandler handles POST /api/review requests.
//
// Request rules are merged with the session rule context when use_context
// is set (new rules are stored into the context as a side effect, matching
// accumulate-across-submissions behavior). The response carries one
// verdict per rule in rule order. When no backend credential is configured
// the response is 503 with a degraded-mode envelope and no verdicts.
func (h *ReviewHandler) ReviewHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error().Err(err).Msg("Failed to decode review request")
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Invalid request body",
		})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "Text field is required",
		})
		return
	}

	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	rules := h.mergeRules(&req)
	if len(rules) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   "At least one rule is required",
		})
		return
	}

	h.logger.Info().
		Int("rule_count", len(rules)).
		Int("text_length", len(req.Text)).
		Bool("use_context", req.UseContext).
		Msg("Processing review request")

	result, err := h.reviewService.Review(r.Context(), req.Text, rules, req.Model)
	if err != nil {
		if errors.Is(err, review.ErrCredentialUnavailable) {
			h.logger.Warn().Msg("Review rejected: no backend credential configured")
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"success":  false,
				"degraded": true,
				"error":    "No LLM backend credential configured",
			})
			return
		}

		h.logger.Error().Err(err).Msg("Review failed")
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "Review failed: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"id":       result.ID,
		"provider": result.Provider,
		"model":    result.Model,
		"verdicts": result.Verdicts,
	})
}

// mergeRules resolves the effective rule list for a request. With
// use_context the request rules are merged into the session context first
// and the whole context is reviewed; otherwise only the request rules are
// used, deduplicated by exact string equality.
func (h *ReviewHandler) mergeRules(req *models.ReviewRequest) []string {
	if req.UseContext {
		h.ruleStore.Add(req.Rules...)
		return h.ruleStore.List()
	}

	seen := make(map[string]struct{}, len(req.Rules))
	rules := make([]string, 0, len(req.Rules))
	for _, rule := range req.Rules {
		rule = strings.TrimSpace(rule)
		if rule == "" {
			continue
		}
		if _, dup := seen[rule]; dup {
			continue
		}
		seen[rule] = struct{}{}
		rules = append(rules, rule)
	}
	return rules
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
