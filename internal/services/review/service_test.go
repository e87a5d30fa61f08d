package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/common"
	"github.com/ternarybob/custos/internal/interfaces"
	"github.com/ternarybob/custos/internal/models"
)

// fakeProvider is a scriptable Provider. respond receives the rule text
// extracted from the prompt so tests can give each rule a distinct reply.
type fakeProvider struct {
	configured bool
	respond    func(rule string) (string, error)

	calls int32
	mu    sync.Mutex
	order []string
}

func (p *fakeProvider) GenerateContent(ctx context.Context, request *interfaces.ContentRequest) (*interfaces.ContentResponse, error) {
	atomic.AddInt32(&p.calls, 1)

	rule := extractRule(request.Messages[0].Content)
	p.mu.Lock()
	p.order = append(p.order, rule)
	p.mu.Unlock()

	text, err := p.respond(rule)
	if err != nil {
		return nil, err
	}
	return &interfaces.ContentResponse{
		Text:     text,
		Provider: interfaces.ProviderGemini,
		Model:    "gemini-2.0-flash",
	}, nil
}

func (p *fakeProvider) Configured() bool { return p.configured }
func (p *fakeProvider) Close() error     { return nil }

func (p *fakeProvider) callCount() int {
	return int(atomic.LoadInt32(&p.calls))
}

// extractRule pulls the rule back out of a built prompt.
func extractRule(prompt string) string {
	_, after, ok := strings.Cut(prompt, "Rule: ")
	if !ok {
		return ""
	}
	rule, _, _ := strings.Cut(after, "\nText:")
	return rule
}

func newTestService(t *testing.T, provider interfaces.Provider, concurrency int) *Service {
	t.Helper()
	config := &common.ReviewConfig{Concurrency: concurrency}
	return NewService(config, provider, arbor.NewLogger().WithLevel(arbor.Disabled))
}

func TestService_Review_AlignsVerdictsWithRules(t *testing.T) {
	provider := &fakeProvider{
		configured: true,
		respond: func(rule string) (string, error) {
			return fmt.Sprintf("STATUS: MET\nCONTENT: checked %s", rule), nil
		},
	}
	service := newTestService(t, provider, 4)

	rules := []string{
		"must mention the product name",
		"must be in formal English",
		"must include a date",
		"must not exceed three paragraphs",
		"must cite at least one source",
	}

	result, err := service.Review(context.Background(), "subject text", rules, "")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "gemini", result.Provider)
	assert.Equal(t, "gemini-2.0-flash", result.Model)
	require.Len(t, result.Verdicts, len(rules))

	for i, verdict := range result.Verdicts {
		assert.Equal(t, i, verdict.Index)
		assert.Equal(t, rules[i], verdict.Rule)
		assert.Equal(t, models.StatusMet, verdict.Status)
		assert.Equal(t, "checked "+rules[i], verdict.Content)
	}
	assert.Equal(t, len(rules), provider.callCount())
}

func TestService_Review_IsolatesRuleFailures(t *testing.T) {
	provider := &fakeProvider{
		configured: true,
		respond: func(rule string) (string, error) {
			if rule == "middle rule" {
				return "", errors.New("backend timeout")
			}
			return "STATUS: MET\nCONTENT: ok", nil
		},
	}
	service := newTestService(t, provider, 2)

	rules := []string{"first rule", "middle rule", "last rule"}

	result, err := service.Review(context.Background(), "subject text", rules, "")
	require.NoError(t, err, "a single failed rule must not fail the batch")
	require.Len(t, result.Verdicts, 3)

	assert.Equal(t, models.StatusMet, result.Verdicts[0].Status)
	assert.Equal(t, models.StatusMet, result.Verdicts[2].Status)

	failed := result.Verdicts[1]
	assert.Equal(t, models.StatusError, failed.Status)
	assert.Contains(t, failed.Content, "backend timeout")
	assert.True(t, strings.HasPrefix(failed.Raw, "ERROR:"), "failed rule carries a synthesized ERROR reply, got %q", failed.Raw)

	// All three rules were still attempted.
	assert.Equal(t, 3, provider.callCount())
}

func TestService_Review_AllFailuresStillReturnVerdicts(t *testing.T) {
	provider := &fakeProvider{
		configured: true,
		respond: func(rule string) (string, error) {
			return "", errors.New("quota exhausted")
		},
	}
	service := newTestService(t, provider, 4)

	result, err := service.Review(context.Background(), "subject text", []string{"a", "b"}, "")
	require.NoError(t, err)
	require.Len(t, result.Verdicts, 2)

	for _, verdict := range result.Verdicts {
		assert.Equal(t, models.StatusError, verdict.Status)
	}
	// No successful reply means no provider metadata to report.
	assert.Empty(t, result.Provider)
}

func TestService_Review_CredentialGate(t *testing.T) {
	provider := &fakeProvider{
		configured: false,
		respond: func(rule string) (string, error) {
			return "STATUS: MET\nCONTENT: ok", nil
		},
	}
	service := newTestService(t, provider, 4)

	result, err := service.Review(context.Background(), "subject text", []string{"a rule"}, "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCredentialUnavailable))
	assert.Nil(t, result)
	assert.Equal(t, 0, provider.callCount(), "gate must short-circuit before any backend call")
}

func TestService_Review_NilProvider(t *testing.T) {
	service := newTestService(t, nil, 4)

	result, err := service.Review(context.Background(), "subject text", []string{"a rule"}, "")

	assert.True(t, errors.Is(err, ErrCredentialUnavailable))
	assert.Nil(t, result)
}

func TestService_Review_SequentialWithConcurrencyOne(t *testing.T) {
	provider := &fakeProvider{
		configured: true,
		respond: func(rule string) (string, error) {
			return "STATUS: MET\nCONTENT: ok", nil
		},
	}
	service := newTestService(t, provider, 1)

	rules := []string{"one", "two", "three", "four"}

	_, err := service.Review(context.Background(), "subject text", rules, "")
	require.NoError(t, err)

	assert.Equal(t, rules, provider.order, "concurrency 1 evaluates rules strictly in order")
}

func TestService_Review_EmptyRules(t *testing.T) {
	provider := &fakeProvider{
		configured: true,
		respond: func(rule string) (string, error) {
			return "STATUS: MET\nCONTENT: ok", nil
		},
	}
	service := newTestService(t, provider, 4)

	result, err := service.Review(context.Background(), "subject text", nil, "")
	require.NoError(t, err)

	assert.Empty(t, result.Verdicts)
	assert.Equal(t, 0, provider.callCount())
}

func TestNewService_ClampsConcurrency(t *testing.T) {
	service := newTestService(t, nil, 0)
	assert.Equal(t, 1, service.concurrency)
}

func TestNewService_RateLimit(t *testing.T) {
	logger := arbor.NewLogger().WithLevel(arbor.Disabled)

	paced := NewService(&common.ReviewConfig{Concurrency: 1, RateLimit: "1ms"}, nil, logger)
	assert.NotNil(t, paced.limiter)

	unpaced := NewService(&common.ReviewConfig{Concurrency: 1}, nil, logger)
	assert.Nil(t, unpaced.limiter)

	invalid := NewService(&common.ReviewConfig{Concurrency: 1, RateLimit: "often"}, nil, logger)
	assert.Nil(t, invalid.limiter)
}
