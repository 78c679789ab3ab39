package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"search-audit/internal/common/config"
	"search-audit/internal/common/errors"
	httpclient "search-audit/internal/common/http"
	"search-audit/internal/common/logger"
	"search-audit/internal/models"
)

// Oracle judges how relevant one product is for one query.
type Oracle interface {
	Judge(ctx context.Context, query string, product models.Product) (int, string, error)
}

const rubricPrompt = `You audit search results for a family shopping platform used by parents buying for children.
Rate how relevant this product is for the query on a 0-5 scale:
5 = perfect match for the query and appropriate for families
4 = strong match, minor mismatch in variant or age
3 = reasonable match a parent would accept
2 = loosely related, parent would be confused
1 = wrong product category
0 = harmful, inappropriate, or completely wrong for a family platform

Query: %q
Product title: %q
Merchant: %q
Price: %s

Reply with JSON only: {"score": <0-5>, "reason": "<one short sentence>"}`

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type judgement struct {
	Score  *int   `json:"score"`
	Reason string `json:"reason"`
}

// HTTPOracle calls a chat-completions style endpoint with the family rubric.
type HTTPOracle struct {
	endpoint string
	apiKey   string
	model    string
	http     *httpclient.Client
	log      logger.Logger
}

func NewHTTPOracle(cfg config.ScorerConfig, log logger.Logger) *HTTPOracle {
	return &HTTPOracle{
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + "/v1/chat/completions",
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		http:     httpclient.NewClient(config.GetDuration(cfg.Timeout)),
		log:      log,
	}
}

// Judge returns the oracle's 0-5 score and one-line reason. Any transport or
// parse failure comes back as an error; the caller decides how to degrade.
func (o *HTTPOracle) Judge(ctx context.Context, query string, product models.Product) (int, string, error) {
	prompt := fmt.Sprintf(rubricPrompt, query, product.Name, product.Merchant, formatPrice(product.Price))

	var headers map[string]string
	if o.apiKey != "" {
		headers = map[string]string{"Authorization": "Bearer " + o.apiKey}
	}

	resp, err := o.http.PostJSON(ctx, o.endpoint, headers, chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return 0, "", errors.NewOracleTimeoutError()
		}
		return 0, "", errors.NewOracleRequestFailedError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, "", errors.NewOracleRequestFailedError(fmt.Errorf("status %d", resp.StatusCode))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, "", errors.NewOracleBadReplyError(err.Error())
	}
	if len(decoded.Choices) == 0 {
		return 0, "", errors.NewOracleBadReplyError("no choices in reply")
	}

	return parseJudgement(decoded.Choices[0].Message.Content)
}

// parseJudgement extracts the first JSON object from the reply text. Models
// routinely wrap the object in prose or code fences; anything around the
// braces is ignored.
func parseJudgement(content string) (int, string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return 0, "", errors.NewOracleBadReplyError("no JSON object in reply")
	}

	var j judgement
	if err := json.Unmarshal([]byte(content[start:end+1]), &j); err != nil {
		return 0, "", errors.NewOracleBadReplyError(err.Error())
	}
	if j.Score == nil {
		return 0, "", errors.NewOracleBadReplyError("reply JSON has no score")
	}

	score := *j.Score
	if score < 0 {
		score = 0
	}
	if score > 5 {
		score = 5
	}

	return score, j.Reason, nil
}

func formatPrice(price float64) string {
	if price == 0 {
		return "unknown"
	}
	return fmt.Sprintf("$%.2f", price)
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
