package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"country_facts/backend/go/internal/facts_service/extractor"
	"country_facts/backend/go/internal/facts_service/knowledge"
	"country_facts/backend/go/internal/llm"
	"country_facts/backend/go/internal/models"
	"country_facts/backend/go/pkg/circuitbreaker"
	"country_facts/backend/go/pkg/logger"
)

// Strategy kinds, in chain order.
const (
	KindRemote    = "remote"
	KindLocal     = "local"
	KindKnowledge = "knowledge"
	KindStatic    = "static"
)

// FallbackLabel is the source label of the last-resort fact set.
const FallbackLabel = "Fallback System"

const stateReady = "ready"

var errEmptyOutput = errors.New("model returned no text")

// Strategy is one way of producing a fact set. A backend that is expected to be
// absent at times reports that with *UnavailableError.
type Strategy interface {
	Name() string
	Kind() string
	Generate(ctx context.Context, country string) (models.FactSet, error)
}

// UnavailableError means the strategy's backend could not serve the request.
// The chain moves on to the next strategy.
type UnavailableError struct {
	Strategy string
	Err      error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("strategy %s unavailable: %v", e.Strategy, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err is, or wraps, an *UnavailableError.
func IsUnavailable(err error) bool {
	var u *UnavailableError
	return errors.As(err, &u)
}

// ModelOptions configures a ModelStrategy.
type ModelOptions struct {
	Name            string
	Local           bool
	Timeout         time.Duration
	Temperature     float32
	MaxOutputTokens int
	Breaker         circuitbreaker.CircuitBreaker
}

// ModelStrategy asks a language model for facts and parses its reply.
type ModelStrategy struct {
	client    llm.LLM
	opts      ModelOptions
	extractor *extractor.Extractor
	logger    *logger.Logger
}

// Applied when ModelOptions.Timeout is not positive.
const (
	DefaultRemoteTimeout = 30 * time.Second
	DefaultLocalTimeout  = 20 * time.Second
)

// NewModelStrategy wraps client. A nil Breaker means no circuit breaking.
func NewModelStrategy(client llm.LLM, opts ModelOptions, ext *extractor.Extractor, log *logger.Logger) *ModelStrategy {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultRemoteTimeout
		if opts.Local {
			opts.Timeout = DefaultLocalTimeout
		}
	}
	if opts.Breaker == nil {
		opts.Breaker = circuitbreaker.Noop(opts.Name)
	}
	if ext == nil {
		ext = extractor.New()
	}
	return &ModelStrategy{client: client, opts: opts, extractor: ext, logger: log.WithField("strategy", opts.Name)}
}

func (s *ModelStrategy) Name() string { return s.opts.Name }

func (s *ModelStrategy) Kind() string {
	if s.opts.Local {
		return KindLocal
	}
	return KindRemote
}

// State is the circuit breaker state.
func (s *ModelStrategy) State() string { return s.opts.Breaker.State().String() }

func (s *ModelStrategy) Generate(ctx context.Context, country string) (models.FactSet, error) {
	prompt, err := renderFactsPrompt(country)
	if err != nil {
		return models.FactSet{}, fmt.Errorf("failed to render prompt: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	var text string
	err = s.opts.Breaker.Execute(func() error {
		resp, err := s.client.GenerateContent(ctx, models.NewTextRequest(prompt, s.opts.Temperature, s.opts.MaxOutputTokens))
		if err != nil {
			return err
		}
		text = resp.Text()
		if strings.TrimSpace(text) == "" {
			return errEmptyOutput
		}
		return nil
	})
	if err != nil {
		return models.FactSet{}, &UnavailableError{Strategy: s.opts.Name, Err: err}
	}

	facts, used := s.extractor.ExtractWithStrategy(text, country)
	s.logger.WithPayload(map[string]interface{}{"extraction": used, "response_length": len(text)}).Debug("Parsed model response")
	return models.FactSet{Facts: facts, SourceLabel: s.opts.Name, Status: models.StatusSuccess}, nil
}

// KnowledgeStrategy serves curated or generic facts from the knowledge base.
type KnowledgeStrategy struct {
	base *knowledge.Base
}

func NewKnowledgeStrategy(base *knowledge.Base) *KnowledgeStrategy {
	return &KnowledgeStrategy{base: base}
}

func (s *KnowledgeStrategy) Name() string  { return knowledge.LookupLabel }
func (s *KnowledgeStrategy) Kind() string  { return KindKnowledge }
func (s *KnowledgeStrategy) State() string { return stateReady }

func (s *KnowledgeStrategy) Generate(_ context.Context, country string) (models.FactSet, error) {
	set, _ := s.base.Lookup(country)
	return set, nil
}

// StaticStrategy is the terminal fallback. It needs nothing and cannot fail.
type StaticStrategy struct{}

func (StaticStrategy) Name() string  { return FallbackLabel }
func (StaticStrategy) Kind() string  { return KindStatic }
func (StaticStrategy) State() string { return stateReady }

func (StaticStrategy) Generate(_ context.Context, country string) (models.FactSet, error) {
	name := strings.TrimSpace(country)
	if name == "" {
		name = "This country"
	}
	return models.FactSet{
		Facts: []models.Fact{
			{Title: "Discover " + name, Content: fmt.Sprintf("%s has many stories waiting to be discovered.", name)},
			{Title: "People and Places", Content: fmt.Sprintf("The people and landscapes of %s make it unlike anywhere else.", name)},
			{Title: "Keep Exploring", Content: "Try again in a moment for freshly generated facts."},
		},
		SourceLabel: FallbackLabel,
		Status:      models.StatusFallback,
	}, nil
}
