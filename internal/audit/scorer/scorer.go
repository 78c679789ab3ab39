// Package scorer runs the LLM relevance overlay: each of the top result
// slots gets a 0-5 judgement, the per-query aggregate is escalated into an
// overlay verdict, and every verdict carries a concrete fix action.
package scorer

import (
	"context"
	"fmt"
	"math"

	"search-audit/internal/audit/inventory"
	"search-audit/internal/common/config"
	"search-audit/internal/common/logger"
	"search-audit/internal/common/metrics"
	"search-audit/internal/models"
)

const (
	reasonEmptySlot    = "EMPTY_SLOT"
	reasonScoringError = "SCORING_ERROR"

	flaggedScoreMax   = 1
	poorRelevanceBand = 2.0
	weakRelevanceBand = 3.0
)

// Scorer drives oracle judgements for one query's result set.
type Scorer struct {
	oracle    Oracle
	counter   inventory.Counter
	positions int
	delayMs   int
	log       logger.Logger
}

func New(oracle Oracle, counter inventory.Counter, cfg config.ScorerConfig, log logger.Logger) *Scorer {
	return &Scorer{
		oracle:    oracle,
		counter:   counter,
		positions: cfg.Positions,
		delayMs:   cfg.DelayMs,
		log:       log,
	}
}

// ScoreQuery scores every result slot and returns the overlay AuditResult.
// Oracle failures degrade to per-slot SCORING_ERROR entries; the scored run
// itself never aborts on a single bad judgement.
func (s *Scorer) ScoreQuery(ctx context.Context, spec models.QuerySpec, outcome models.SearchOutcome) models.AuditResult {
	dbCount := s.counter.CountProducts(ctx, spec.Query)

	scored := make([]models.ScoredResult, 0, s.positions)
	for pos := 0; pos < s.positions; pos++ {
		if pos >= len(outcome.Products) {
			scored = append(scored, models.ScoredResult{
				Position: pos + 1,
				Score:    0,
				Reason:   reasonEmptySlot,
			})
			continue
		}

		scored = append(scored, s.scoreSlot(ctx, spec.Query, pos, outcome.Products[pos]))

		if pos+1 < len(outcome.Products) && pos+1 < s.positions {
			sleepCtx(ctx, config.GetDuration(s.delayMs))
		}
	}

	avg, relevancePct := aggregate(scored)
	flagged := countFlagged(scored)

	verdict := escalate(outcome.Count, dbCount, flagged, avg)

	result := models.AuditResult{
		Query:            spec.Query,
		Category:         spec.Category,
		ResultCount:      outcome.Count,
		ResponseTimeMs:   outcome.ElapsedMs,
		TopResults:       topNames(outcome, 3),
		Timestamp:        models.NowISO(),
		DBCount:          dbCount,
		AvgScore:         avg,
		RelevancePercent: relevancePct,
		FlaggedCount:     flagged,
		Results:          scored,
		Verdict:          verdict,
		Passed:           verdict == models.VerdictPass,
		FixAction:        FixAction(verdict),
	}
	if !result.Passed {
		result.FailureReason = failureReason(verdict, dbCount, flagged, avg)
	}

	return result
}

func (s *Scorer) scoreSlot(ctx context.Context, query string, pos int, p models.Product) models.ScoredResult {
	slot := models.ScoredResult{
		Position: pos + 1,
		Title:    p.Name,
		Merchant: p.Merchant,
		Price:    formatPrice(p.Price),
	}

	// Deny-list filter runs before the oracle so harmful products are
	// flagged even when the oracle is unreachable.
	if reason, denied := denyReason(p.Name, p.Description, p.Merchant); denied {
		slot.Score = 0
		slot.Reason = reason
		slot.Flagged = true
		metrics.OracleCalls.WithLabelValues("denied").Inc()
		return slot
	}

	score, reason, err := s.oracle.Judge(ctx, query, p)
	if err != nil {
		s.log.Warn("oracle judgement failed", map[string]interface{}{
			"query":    query,
			"position": pos + 1,
			"error":    err.Error(),
		})
		slot.Score = -1
		slot.Reason = reasonScoringError
		metrics.OracleCalls.WithLabelValues("error").Inc()
		return slot
	}

	slot.Score = score
	slot.Reason = reason
	slot.Flagged = score <= flaggedScoreMax
	metrics.OracleCalls.WithLabelValues("ok").Inc()
	return slot
}

// aggregate averages the scorable slots. Scoring errors and empty slots are
// excluded from the denominator so an outage cannot mask a relevance drop.
func aggregate(scored []models.ScoredResult) (float64, int) {
	var sum, n int
	for _, r := range scored {
		if r.Score < 0 || r.Title == "" {
			continue
		}
		sum += r.Score
		n++
	}
	if n == 0 {
		return 0, 0
	}

	avg := float64(sum) / float64(n)
	avg = math.Round(avg*100) / 100
	return avg, int(math.Round(avg / 5 * 100))
}

func countFlagged(scored []models.ScoredResult) int {
	n := 0
	for _, r := range scored {
		if r.Flagged {
			n++
		}
	}
	return n
}

// escalate picks the overlay verdict in severity order.
func escalate(resultCount, dbCount, flagged int, avg float64) models.Verdict {
	switch {
	case resultCount == 0 && dbCount > 0:
		return models.VerdictSearchBug
	case resultCount == 0:
		return models.VerdictInventoryGap
	case flagged > 0:
		return models.VerdictFlaggedContent
	case avg < poorRelevanceBand:
		return models.VerdictPoorRelevance
	case avg < weakRelevanceBand:
		return models.VerdictWeakRelevance
	default:
		return models.VerdictPass
	}
}

// FixAction maps each overlay verdict to the concrete remediation owners ask
// for in triage.
func FixAction(v models.Verdict) string {
	switch v {
	case models.VerdictSearchBug:
		return "Fix search pipeline: catalog has matching products but search returns none"
	case models.VerdictInventoryGap:
		return "Source inventory: no catalog products match this query"
	case models.VerdictFlaggedContent:
		return "Remove flagged products from the family catalog"
	case models.VerdictPoorRelevance:
		return "Retune ranking: top results are mostly irrelevant"
	case models.VerdictWeakRelevance:
		return "Improve ranking signals for this query"
	default:
		return ""
	}
}

func failureReason(v models.Verdict, dbCount, flagged int, avg float64) string {
	switch v {
	case models.VerdictSearchBug:
		return fmt.Sprintf("search returned nothing but catalog holds %d matching products", dbCount)
	case models.VerdictInventoryGap:
		return "no results and no matching catalog products"
	case models.VerdictFlaggedContent:
		return fmt.Sprintf("%d flagged products in top results", flagged)
	case models.VerdictPoorRelevance, models.VerdictWeakRelevance:
		return fmt.Sprintf("average relevance %.2f", avg)
	default:
		return string(v)
	}
}

func topNames(outcome models.SearchOutcome, n int) []string {
	names := outcome.ProductNames()
	if len(names) > n {
		names = names[:n]
	}
	return names
}
