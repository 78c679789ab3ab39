// Package inventory answers one question for the scorer: how many products
// does the catalog actually hold for a query. The answer splits zero-result
// audits into search bugs and genuine inventory gaps.
package inventory

import (
	"context"

	"search-audit/internal/common/config"
	"search-audit/internal/common/database"
	"search-audit/internal/common/logger"
)

// Counter reports the catalog product count for a query.
type Counter interface {
	CountProducts(ctx context.Context, query string) int
}

// ESCounter probes the product index with a match query on the name field.
type ESCounter struct {
	es    *database.ElasticsearchClient
	index string
	log   logger.Logger
}

func NewESCounter(es *database.ElasticsearchClient, cfg config.ElasticsearchConfig, log logger.Logger) *ESCounter {
	return &ESCounter{es: es, index: cfg.ProductIndex, log: log}
}

// CountProducts returns 0 when the probe fails so an unreachable catalog
// degrades zero-result queries to INVENTORY_GAP instead of failing the run.
func (c *ESCounter) CountProducts(ctx context.Context, query string) int {
	count, err := c.es.Count(ctx, c.index, "name", query)
	if err != nil {
		c.log.Warn("inventory probe failed, assuming empty catalog", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return 0
	}
	return count
}

// NoopCounter is used when no catalog connection is configured.
type NoopCounter struct{}

func (NoopCounter) CountProducts(ctx context.Context, query string) int { return 0 }
