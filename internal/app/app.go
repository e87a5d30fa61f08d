package app

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/custos/internal/common"
	"github.com/ternarybob/custos/internal/handlers"
	"github.com/ternarybob/custos/internal/services/llm"
	"github.com/ternarybob/custos/internal/services/review"
	"github.com/ternarybob/custos/internal/services/rules"
)

// App wires configuration, services, and handlers together.
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	Provider      *llm.ProviderFactory
	RuleStore     *rules.Service
	ReviewService *review.Service

	ReviewHandler *handlers.ReviewHandler
	RulesHandler  *handlers.RulesHandler
	StatusHandler *handlers.StatusHandler
}

// New initializes the application. A missing backend credential is not
// fatal: the server starts in degraded mode and /api/review returns 503
// until a credential is configured.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	provider := llm.NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, logger)
	if !provider.Configured() {
		logger.Warn().Msg("No LLM backend credential configured - review requests will be rejected")
	}

	ruleStore, err := rules.NewService(&config.Rules, logger)
	if err != nil {
		return nil, err
	}

	reviewService := review.NewService(&config.Review, provider, logger)

	a := &App{
		Config:        config,
		Logger:        logger,
		Provider:      provider,
		RuleStore:     ruleStore,
		ReviewService: reviewService,
	}

	a.ReviewHandler = handlers.NewReviewHandler(reviewService, ruleStore, logger)
	a.RulesHandler = handlers.NewRulesHandler(ruleStore, logger)
	a.StatusHandler = handlers.NewStatusHandler(reviewService, ruleStore, logger)

	logger.Info().
		Str("default_provider", config.LLM.DefaultProvider).
		Int("review_concurrency", config.Review.Concurrency).
		Int("seed_rules", ruleStore.Count()).
		Bool("backend_configured", provider.Configured()).
		Msg("Application initialized")

	return a, nil
}

// Close releases application resources.
func (a *App) Close() error {
	return a.Provider.Close()
}
