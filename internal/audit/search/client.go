// Package search calls the production search endpoint and normalizes every
// failure mode into a SearchOutcome the rest of the pipeline can classify.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"time"

	"search-audit/internal/common/config"
	httpclient "search-audit/internal/common/http"
	"search-audit/internal/common/logger"
	"search-audit/internal/models"
)

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// searchResponse tolerates both the bare-array and wrapped response shapes
// the endpoint has shipped over time.
type searchResponse struct {
	Products []models.Product `json:"products"`
	Results  []models.Product `json:"results"`
	Total    int              `json:"total"`
}

// Client performs a single search attempt. Retries live in the Executor.
type Client struct {
	endpoint string
	limit    int
	timeout  time.Duration
	http     *httpclient.Client
	log      logger.Logger
}

func NewClient(cfg config.SearchConfig, log logger.Logger) *Client {
	timeout := config.GetDuration(cfg.Timeout)
	return &Client{
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + cfg.Path,
		limit:    cfg.Limit,
		timeout:  timeout,
		http:     httpclient.NewClient(timeout),
		log:      log,
	}
}

// Search issues one POST and always returns a usable outcome. Transport
// failures are folded into the outcome instead of a Go error so a single bad
// query can never abort a batch.
func (c *Client) Search(ctx context.Context, query string, limit int) models.SearchOutcome {
	if limit <= 0 {
		limit = c.limit
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	resp, err := c.http.PostJSON(callCtx, c.endpoint, nil, searchRequest{Query: query, Limit: limit})
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		outcome := models.SearchOutcome{ElapsedMs: elapsed}
		if callCtx.Err() == context.DeadlineExceeded {
			outcome.TransportError = models.TransportTimeout
			c.log.Warn("search request timed out", map[string]interface{}{
				"query":     query,
				"elapsedMs": elapsed,
			})
		} else {
			outcome.TransportError = models.TransportNetwork
			c.log.Warn("search request failed", map[string]interface{}{
				"query": query,
				"error": err.Error(),
			})
		}
		return outcome
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("search endpoint returned error status", map[string]interface{}{
			"query":  query,
			"status": resp.StatusCode,
		})
		return models.SearchOutcome{ElapsedMs: elapsed, TransportError: models.TransportAPI}
	}

	products, err := decodeProducts(resp.Body)
	if err != nil {
		c.log.Warn("search response could not be decoded", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return models.SearchOutcome{ElapsedMs: elapsed, TransportError: models.TransportAPI}
	}

	return models.SearchOutcome{
		Products:  products,
		Count:     len(products),
		ElapsedMs: elapsed,
	}
}

func decodeProducts(body io.Reader) ([]models.Product, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var products []models.Product
		if err := json.Unmarshal(trimmed, &products); err != nil {
			return nil, err
		}
		return products, nil
	}

	var decoded searchResponse
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return nil, err
	}
	if decoded.Products != nil {
		return decoded.Products, nil
	}
	return decoded.Results, nil
}
