// Package classifier assigns every audited query exactly one verdict.
// Rules are evaluated in a fixed priority order; the first match wins.
package classifier

import (
	"fmt"
	"strings"

	"search-audit/internal/common/config"
	"search-audit/internal/models"
)

// clothingTerms mark apparel and cosmetics leaking into toy results.
var clothingTerms = []string{
	"shirt", "t-shirt", "pants", "trousers", "dress", "skirt",
	"shoes", "sneaker", "boots", "hoodie", "jacket", "sweater",
	"leggings", "socks", "jeans", "cardigan", "tracksuit", "bra",
	"lipstick", "mascara", "eyeshadow", "foundation", "nail polish",
	"perfume", "moisturizer",
}

// adultTerms mark products that must never surface on a family platform.
var adultTerms = []string{
	"wine", "beer", "whiskey", "vodka", "liquor", "cigarette",
	"vape", "tobacco", "lingerie", "casino", "lottery", "adult only",
}

// rule is one step of the decision list. match returns the verdict and the
// failure reason when the rule fires.
type rule func(in input) (models.Verdict, string, bool)

type input struct {
	spec    models.QuerySpec
	outcome models.SearchOutcome
	slowMs  int64
}

// Classifier evaluates the ordered rule list against one query outcome.
// The order is a contract: transport failures first, then result-count
// checks, then timing, then content expectations.
type Classifier struct {
	slowMs int64
	rules  []rule
}

func New(cfg config.AuditConfig) *Classifier {
	c := &Classifier{slowMs: int64(cfg.SlowThresholdMs)}
	c.rules = []rule{
		matchTimeout,
		matchAPIError,
		matchZeroResults,
		matchLowResults,
		matchSlowResponse,
		matchBrandMismatch,
		matchForbiddenTerm,
	}
	return c
}

// Classify produces the durable AuditResult for one query. Every outcome
// maps to exactly one verdict; no rule firing means PASS.
func (c *Classifier) Classify(spec models.QuerySpec, outcome models.SearchOutcome) models.AuditResult {
	in := input{spec: spec, outcome: outcome, slowMs: c.slowMs}

	result := models.AuditResult{
		Query:          spec.Query,
		Category:       spec.Category,
		ResultCount:    outcome.Count,
		ResponseTimeMs: outcome.ElapsedMs,
		TopResults:     topResults(outcome, 3),
		Timestamp:      models.NowISO(),
	}

	for _, r := range c.rules {
		if verdict, reason, ok := r(in); ok {
			result.Verdict = verdict
			result.Passed = false
			result.FailureReason = reason
			return result
		}
	}

	result.Verdict = models.VerdictPass
	result.Passed = true
	return result
}

func topResults(outcome models.SearchOutcome, n int) []string {
	names := outcome.ProductNames()
	if len(names) > n {
		names = names[:n]
	}
	return names
}

func matchTimeout(in input) (models.Verdict, string, bool) {
	if in.outcome.TransportError == models.TransportTimeout {
		return models.VerdictTimeout, "search call exceeded timeout", true
	}
	return "", "", false
}

func matchAPIError(in input) (models.Verdict, string, bool) {
	switch in.outcome.TransportError {
	case models.TransportAPI, models.TransportNetwork:
		return models.VerdictAPIError, fmt.Sprintf("search call failed: %s", in.outcome.TransportError), true
	}
	return "", "", false
}

func matchZeroResults(in input) (models.Verdict, string, bool) {
	if in.outcome.Count == 0 {
		return models.VerdictZeroResults, "no results returned", true
	}
	return "", "", false
}

func matchLowResults(in input) (models.Verdict, string, bool) {
	if in.spec.ExpectedMinResults > 0 && in.outcome.Count < in.spec.ExpectedMinResults {
		return models.VerdictLowResults,
			fmt.Sprintf("only %d results, expected at least %d", in.outcome.Count, in.spec.ExpectedMinResults), true
	}
	return "", "", false
}

func matchSlowResponse(in input) (models.Verdict, string, bool) {
	if in.slowMs > 0 && in.outcome.ElapsedMs > in.slowMs {
		return models.VerdictSlowResponse, fmt.Sprintf("response took %dms", in.outcome.ElapsedMs), true
	}
	return "", "", false
}

func matchBrandMismatch(in input) (models.Verdict, string, bool) {
	for _, term := range in.spec.MustContain {
		found := false
		for _, name := range in.outcome.ProductNames() {
			if containsFold(name, term) {
				found = true
				break
			}
		}
		if !found {
			return models.VerdictBrandMismatch,
				fmt.Sprintf("expected term %q missing from all results", term), true
		}
	}
	return "", "", false
}

// matchForbiddenTerm fires on the first mustNotContain violation and
// sub-classifies it by term membership: clothing/cosmetics, adult content,
// word-boundary pollution of a query token, else a generic category leak.
func matchForbiddenTerm(in input) (models.Verdict, string, bool) {
	for _, term := range in.spec.MustNotContain {
		name, hit := findTerm(in.outcome, term)
		if !hit {
			continue
		}

		switch {
		case matchesAnyTerm(term, clothingTerms):
			return models.VerdictClothingLeak,
				fmt.Sprintf("apparel/cosmetics item %q leaked into results", name), true
		case matchesAnyTerm(term, adultTerms):
			return models.VerdictAdultLeak,
				fmt.Sprintf("adult product %q surfaced for a family query", name), true
		case extendsQueryToken(in.spec.Query, term):
			return models.VerdictWordBoundary,
				fmt.Sprintf("%q matched as substring of %q in %q", boundaryToken(in.spec.Query, term), term, name), true
		default:
			return models.VerdictWrongCategory,
				fmt.Sprintf("forbidden term %q found in %q", term, name), true
		}
	}
	return "", "", false
}

// findTerm returns the first product name containing the forbidden term.
func findTerm(outcome models.SearchOutcome, term string) (string, bool) {
	for _, name := range outcome.ProductNames() {
		if containsFold(name, term) {
			return name, true
		}
	}
	return "", false
}

// extendsQueryToken reports whether the forbidden term is a strict extension
// of one of the query's own tokens, the "trainer" polluting "train" shape.
func extendsQueryToken(query, term string) bool {
	return boundaryToken(query, term) != ""
}

func boundaryToken(query, term string) string {
	term = strings.ToLower(term)
	for _, token := range strings.Fields(strings.ToLower(query)) {
		if len(term) > len(token) && strings.HasPrefix(term, token) {
			return token
		}
	}
	return ""
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func matchesAnyTerm(s string, terms []string) bool {
	for _, term := range terms {
		if containsFold(s, term) {
			return true
		}
	}
	return false
}
