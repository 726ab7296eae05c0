package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"country_facts/backend/go/internal/config"
	"country_facts/backend/go/internal/facts_service/extractor"
	"country_facts/backend/go/internal/facts_service/knowledge"
	"country_facts/backend/go/internal/llm"
	"country_facts/backend/go/internal/models"
	"country_facts/backend/go/pkg/circuitbreaker"
	"country_facts/backend/go/pkg/logger"
)

// Endpoints served by the HTTP layer, reported by Health.
var Endpoints = []string{"POST /generate-facts", "POST /chat", "GET /health"}

// ClientFactory builds a model client for a provider. llm.NewClient in production.
type ClientFactory func(ctx context.Context, p config.ProviderConfig) (llm.LLM, error)

// FactsService 是生成事实与问答的门面，构造后只读，可被并发请求共享。
type FactsService struct {
	chain     *Chain
	knowledge *knowledge.Base
	app       config.AppInfo
	closers   []io.Closer
	logger    *logger.Logger
}

// New assembles a service from an explicit chain.
func New(chain *Chain, base *knowledge.Base, app config.AppInfo, log *logger.Logger) *FactsService {
	return &FactsService{chain: chain, knowledge: base, app: app, logger: log}
}

// Build creates the model strategies from cfg (remote first, then local, each
// in configuration order), followed by the knowledge base and static fallback.
// Remote providers without an API key are skipped with a warning.
func Build(ctx context.Context, cfg *config.AppConfig, newClient ClientFactory, log *logger.Logger) (*FactsService, error) {
	base, err := knowledge.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge base: %w", err)
	}

	ext := extractor.New()
	var remote, local []Strategy
	var closers []io.Closer
	for _, p := range cfg.LLM.Providers {
		plog := log.WithPayload(map[string]interface{}{"provider": p.Provider, "model": p.Model, "name": p.Label()})
		if !p.IsEnabled() {
			plog.Info("Model provider disabled, skipping")
			continue
		}

		client, err := newClient(ctx, p)
		if errors.Is(err, llm.ErrMissingAPIKey) {
			plog.Warn("Model provider has no API key, skipping")
			continue
		}
		if err != nil {
			for _, c := range closers {
				_ = c.Close()
			}
			return nil, fmt.Errorf("failed to create client for %s: %w", p.Label(), err)
		}
		if c, ok := client.(io.Closer); ok {
			closers = append(closers, c)
		}

		strategy := NewModelStrategy(client, ModelOptions{
			Name:            p.Label(),
			Local:           p.IsLocal(),
			Timeout:         p.TimeoutDuration(),
			Temperature:     cfg.LLM.Temperature,
			MaxOutputTokens: cfg.LLM.MaxOutputTokens,
			Breaker:         newBreaker(p.Label(), cfg.Middleware.CircuitBreaker, log),
		}, ext, log)
		if p.IsLocal() {
			local = append(local, strategy)
		} else {
			remote = append(remote, strategy)
		}
		plog.Info("Model provider registered")
	}

	strategies := make([]Strategy, 0, len(remote)+len(local)+2)
	strategies = append(strategies, remote...)
	strategies = append(strategies, local...)
	strategies = append(strategies, NewKnowledgeStrategy(base), StaticStrategy{})

	svc := New(NewChain(log, strategies...), base, cfg.App, log)
	svc.closers = closers
	return svc, nil
}

func newBreaker(name string, cfg config.CircuitBreakerConfig, log *logger.Logger) circuitbreaker.CircuitBreaker {
	if !cfg.Enabled {
		return circuitbreaker.Noop(name)
	}
	return circuitbreaker.New(name, cfg.FailureThreshold, cfg.SuccessThreshold, config.MustDuration(cfg.Timeout),
		circuitbreaker.WithStateChange(func(name string, from, to circuitbreaker.State) {
			log.WithPayload(map[string]interface{}{"strategy": name, "from": from.String(), "to": to.String()}).Warn("Circuit breaker state changed")
		}),
		// A client hanging up is not the backend's fault.
		circuitbreaker.WithFailurePredicate(func(err error) bool {
			return !errors.Is(err, context.Canceled)
		}),
	)
}

// GenerateFacts returns exactly three facts for country.
func (s *FactsService) GenerateFacts(ctx context.Context, country string) (models.FactSet, error) {
	set, err := s.chain.GenerateFacts(ctx, strings.TrimSpace(country))
	if err != nil {
		return models.FactSet{}, fmt.Errorf("generate facts for %q: %w", country, err)
	}
	return set, nil
}

// Answer replies to a templated question about country.
func (s *FactsService) Answer(_ context.Context, country, question string) (models.ChatAnswer, error) {
	return s.knowledge.AnswerQuestion(country, question), nil
}

// Health reports the configured strategies and their breaker state.
func (s *FactsService) Health() models.HealthStatus {
	strategies := s.chain.Strategies()
	status := models.HealthStatus{
		Status:          "running",
		Service:         s.app.Name,
		Version:         s.app.Version,
		ModelsAvailable: make([]string, 0, len(strategies)),
		Strategies:      make([]models.StrategyHealth, 0, len(strategies)),
		Endpoints:       Endpoints,
	}
	for _, st := range strategies {
		state := stateReady
		if r, ok := st.(interface{ State() string }); ok {
			state = r.State()
		}
		if st.Kind() == KindRemote || st.Kind() == KindLocal {
			status.ModelsAvailable = append(status.ModelsAvailable, st.Name())
		}
		status.Strategies = append(status.Strategies, models.StrategyHealth{Name: st.Name(), Kind: st.Kind(), State: state})
	}
	return status
}

// Close releases model clients that hold connections.
func (s *FactsService) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
