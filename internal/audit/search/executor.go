package search

import (
	"context"
	"time"

	"search-audit/internal/common/config"
	"search-audit/internal/common/logger"
	"search-audit/internal/models"
)

// Searcher is the single-attempt boundary the executor wraps.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) models.SearchOutcome
}

// Executor retries transport failures a bounded number of times with a fixed
// backoff. Successful outcomes pass through untouched, whatever their
// content; a zero-result reply is a finding, not an error.
type Executor struct {
	searcher   Searcher
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

func NewExecutor(searcher Searcher, cfg config.AuditConfig, log logger.Logger) *Executor {
	return &Executor{
		searcher:   searcher,
		maxRetries: cfg.MaxRetries,
		backoff:    config.GetDuration(cfg.BackoffMs),
		log:        log,
	}
}

// Execute runs up to 1+maxRetries attempts. The outcome of the final attempt
// is returned unchanged so downstream classification sees what the endpoint
// actually did.
func (e *Executor) Execute(ctx context.Context, query string, limit int) models.SearchOutcome {
	outcome := e.searcher.Search(ctx, query, limit)

	for attempt := 1; attempt <= e.maxRetries && outcome.Failed(); attempt++ {
		e.log.Warn("retrying search after transport failure", map[string]interface{}{
			"query":   query,
			"attempt": attempt,
			"error":   string(outcome.TransportError),
		})

		select {
		case <-time.After(e.backoff):
		case <-ctx.Done():
			return outcome
		}

		outcome = e.searcher.Search(ctx, query, limit)
	}

	return outcome
}
