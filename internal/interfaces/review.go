package interfaces

import (
	"context"

	"github.com/ternarybob/custos/internal/models"
)

// ReviewService evaluates a block of text against a list of rules and
// returns one parsed verdict per rule, index-aligned with the input.
//
// Review fails with the service's credential sentinel error when no LLM
// backend credential is configured; per-rule backend failures never fail
// the batch and surface as ERROR-status verdicts instead.
type ReviewService interface {
	Review(ctx context.Context, text string, rules []string, model string) (*models.ReviewResult, error)
	Configured() bool
}
