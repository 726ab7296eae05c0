package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"country_facts/backend/go/internal/models"
	"country_facts/backend/go/pkg/logger"
)

// ErrNoStrategy is returned when every strategy in the chain failed.
var ErrNoStrategy = errors.New("no generation strategy produced facts")

// Chain tries its strategies in order and returns the first complete fact set.
type Chain struct {
	strategies []Strategy
	logger     *logger.Logger
}

// NewChain 创建一个按给定顺序尝试策略的生成链。
func NewChain(log *logger.Logger, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, logger: log}
}

// Strategies returns the strategies in attempt order.
func (c *Chain) Strategies() []Strategy {
	out := make([]Strategy, len(c.strategies))
	copy(out, c.strategies)
	return out
}

// GenerateFacts runs the strategies sequentially. Unavailable backends are
// logged as warnings and any other failure as an error; both fall through.
func (c *Chain) GenerateFacts(ctx context.Context, country string) (models.FactSet, error) {
	for _, s := range c.strategies {
		log := c.logger.WithPayload(map[string]interface{}{"strategy": s.Name(), "kind": s.Kind(), "country": country})
		log.Info("Trying generation strategy")

		start := time.Now()
		set, err := c.attempt(ctx, s, country)
		if err == nil {
			log.WithField("latency_ms", time.Since(start).Milliseconds()).Info("Generation strategy succeeded")
			return set, nil
		}

		if IsUnavailable(err) {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrorTypeUnavailable}).Warn("Generation strategy unavailable")
		} else {
			log.WithError(models.ErrorInfo{Message: err.Error(), Type: models.ErrorTypeInternal}).Error("Generation strategy failed")
		}
	}
	return models.FactSet{}, ErrNoStrategy
}

// attempt runs one strategy, turning a panic into an error and rejecting
// results of the wrong size.
func (c *Chain) attempt(ctx context.Context, s Strategy, country string) (set models.FactSet, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", s.Name(), r)
		}
	}()

	set, err = s.Generate(ctx, country)
	if err != nil {
		return models.FactSet{}, err
	}
	if len(set.Facts) != models.FactsPerSet {
		return models.FactSet{}, fmt.Errorf("strategy %s returned %d facts, want %d", s.Name(), len(set.Facts), models.FactsPerSet)
	}
	return set, nil
}
