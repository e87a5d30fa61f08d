package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ReviewRequest is the API schema for a review submission. Rules may be
// empty when UseContext is set and the session rule context is non-empty;
// the handler enforces that at least one rule survives the merge.
type ReviewRequest struct {
	Text       string   `json:"text" validate:"required"`
	Rules      []string `json:"rules" validate:"omitempty,dive,required"`
	Model      string   `json:"model,omitempty"`
	UseContext bool     `json:"use_context"`
}

// Validate validates the request using go-playground/validator tags.
func (r *ReviewRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid review request: %w", err)
	}
	return nil
}

// ReviewResult is the outcome of one review batch. Verdicts is
// index-aligned with the rule list the review was run against.
type ReviewResult struct {
	ID       string        `json:"id"`
	Provider string        `json:"provider"`
	Model    string        `json:"model"`
	Verdicts []RuleVerdict `json:"verdicts"`
}
