package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/common"
	"github.com/ternarybob/custos/internal/interfaces"
	"github.com/ternarybob/custos/internal/models"
	"golang.org/x/time/rate"
)

// ErrCredentialUnavailable is returned when no LLM backend credential is
// configured. It aborts the whole batch before any network call - there is
// nothing to evaluate with.
var ErrCredentialUnavailable = errors.New("no LLM backend credential configured")

// Service evaluates text against rules using an LLM provider and parses
// the replies into verdicts.
//
// Rules are fanned out across a bounded pool of workers; results are
// collected back into rule-index order. A failed backend call is absorbed
// into an ERROR verdict for that rule only - sibling rules are never
// cancelled or affected. With concurrency 1 evaluation is strictly
// sequential in rule order.
type Service struct {
	provider    interfaces.Provider
	logger      arbor.ILogger
	concurrency int
	limiter     *rate.Limiter
}

// NewService creates a review service. Provider may be nil when no backend
// is configured; Review then fails with ErrCredentialUnavailable.
func NewService(config *common.ReviewConfig, provider interfaces.Provider, logger arbor.ILogger) *Service {
	concurrency := config.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	// Optional pacing between outbound calls. This spaces requests to stay
	// under provider rate limits; it is not a retry policy.
	var limiter *rate.Limiter
	if config.RateLimit != "" {
		if interval, err := time.ParseDuration(config.RateLimit); err == nil && interval > 0 {
			limiter = rate.NewLimiter(rate.Every(interval), 1)
		} else {
			logger.Warn().Str("rate_limit", config.RateLimit).Msg("Invalid review rate limit, pacing disabled")
		}
	}

	return &Service{
		provider:    provider,
		logger:      logger,
		concurrency: concurrency,
		limiter:     limiter,
	}
}

// Configured reports whether a backend credential is available.
func (s *Service) Configured() bool {
	return s.provider != nil && s.provider.Configured()
}

// Review evaluates text against every rule and returns one verdict per
// rule, index-aligned with rules. Model selects the backend model ("" uses
// the configured default).
func (s *Service) Review(ctx context.Context, text string, rules []string, model string) (*models.ReviewResult, error) {
	if !s.Configured() {
		return nil, ErrCredentialUnavailable
	}

	startTime := time.Now()
	s.logger.Debug().
		Int("rule_count", len(rules)).
		Int("text_length", len(text)).
		Msg("Starting review")

	replies := s.evaluate(ctx, text, rules, model)

	verdicts := make([]models.RuleVerdict, len(rules))
	var provider, usedModel string
	for i, reply := range replies {
		verdicts[i] = models.RuleVerdict{
			Index:   i,
			Rule:    rules[i],
			Verdict: ParseVerdict(reply.text),
			Raw:     reply.text,
		}
		if provider == "" && reply.provider != "" {
			provider = reply.provider
			usedModel = reply.model
		}
	}

	result := &models.ReviewResult{
		ID:       uuid.NewString(),
		Provider: provider,
		Model:    usedModel,
		Verdicts: verdicts,
	}

	s.logger.Info().
		Str("review_id", result.ID).
		Int("rule_count", len(rules)).
		Dur("duration", time.Since(startTime)).
		Msg("Review completed")

	return result, nil
}

// rawReply is one backend reply (or synthesized error text) for one rule.
type rawReply struct {
	text     string
	provider string
	model    string
}

// evaluate runs the per-rule backend calls with bounded concurrency and
// returns the raw replies index-aligned with rules.
func (s *Service) evaluate(ctx context.Context, text string, rules []string, model string) []rawReply {
	replies := make([]rawReply, len(rules))

	var wg sync.WaitGroup
	sem := make(chan struct{}, s.concurrency)
	for i, rule := range rules {
		wg.Add(1)
		sem <- struct{}{}
		go func(index int, rule string) {
			defer wg.Done()
			defer func() { <-sem }()
			replies[index] = s.evaluateRule(ctx, text, rule, index, model)
		}(i, rule)
	}
	wg.Wait()

	return replies
}

// evaluateRule issues one backend call for one rule. Any failure is
// localized to this rule by synthesizing an "ERROR: ..." reply.
func (s *Service) evaluateRule(ctx context.Context, text, rule string, index int, model string) rawReply {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return rawReply{text: fmt.Sprintf("ERROR: %s", err)}
		}
	}

	resp, err := s.provider.GenerateContent(ctx, &interfaces.ContentRequest{
		Messages: []interfaces.Message{
			{Role: "user", Content: BuildPrompt(rule, text)},
		},
		Model: model,
	})
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("rule", RuleLabel(index)).
			Msg("Rule evaluation failed")
		return rawReply{text: fmt.Sprintf("ERROR: %s", err)}
	}

	return rawReply{
		text:     resp.Text,
		provider: string(resp.Provider),
		model:    resp.Model,
	}
}
