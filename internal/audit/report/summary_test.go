package report

import (
	"fmt"
	"strings"
	"testing"

	"search-audit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passResult(query, category string, ms int64) models.AuditResult {
	return models.AuditResult{
		Query: query, Category: category, Passed: true,
		Verdict: models.VerdictPass, ResponseTimeMs: ms, ResultCount: 5,
	}
}

func failResult(query, category string, verdict models.Verdict) models.AuditResult {
	return models.AuditResult{
		Query: query, Category: category, Passed: false,
		Verdict: verdict, ResultCount: 1, ResponseTimeMs: 100,
		TopResults: []string{"Top Hit"},
	}
}

func TestSummarize(t *testing.T) {
	results := []models.AuditResult{
		passResult("lego set", "brand", 200),
		passResult("puzzle", "core", 300),
		passResult("doll", "core", 100),
		failResult("train set", "word_boundary", models.VerdictWordBoundary),
	}

	summary := Summarize(results)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 4, summary.TotalQueries)
	assert.Equal(t, 3, summary.Passed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 75.0, summary.PassRate)
	assert.Equal(t, int64(175), summary.AvgResponseTimeMs)

	assert.Equal(t, models.CategoryStats{Passed: 2, Total: 2}, summary.CategoryBreakdown["core"])
	assert.Equal(t, models.CategoryStats{Passed: 0, Total: 1}, summary.CategoryBreakdown["word_boundary"])

	require.Len(t, summary.FailingQueries, 1)
	assert.Equal(t, "train set", summary.FailingQueries[0].Query)
	assert.Equal(t, "WORD_BOUNDARY", summary.FailingQueries[0].Verdict)
	assert.Equal(t, "Top Hit", summary.FailingQueries[0].TopResult)
}

func TestSummarizePatternsSortedWithCappedExamples(t *testing.T) {
	var results []models.AuditResult
	for i := 0; i < 15; i++ {
		results = append(results, failResult(fmt.Sprintf("zero-%d", i), "core", models.VerdictZeroResults))
	}
	for i := 0; i < 3; i++ {
		results = append(results, failResult(fmt.Sprintf("slow-%d", i), "core", models.VerdictSlowResponse))
	}

	summary := Summarize(results)

	require.Len(t, summary.FailurePatterns, 2)
	assert.Equal(t, "ZERO_RESULTS", summary.FailurePatterns[0].Pattern, "patterns sorted by count desc")
	assert.Equal(t, 15, summary.FailurePatterns[0].Count)
	assert.Len(t, summary.FailurePatterns[0].Examples, 10, "examples capped at ten")
	assert.Equal(t, 3, summary.FailurePatterns[1].Count)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)

	assert.Equal(t, 0, summary.TotalQueries)
	assert.Equal(t, 0.0, summary.PassRate)
	assert.Empty(t, summary.FailurePatterns)
}

func TestSummarizePassRateRounding(t *testing.T) {
	// 89.94 should not round up across the 90 threshold.
	var results []models.AuditResult
	for i := 0; i < 894; i++ {
		results = append(results, passResult(fmt.Sprintf("p%d", i), "core", 10))
	}
	for i := 0; i < 100; i++ {
		results = append(results, failResult(fmt.Sprintf("f%d", i), "core", models.VerdictZeroResults))
	}

	summary := Summarize(results)
	assert.Equal(t, 89.9, summary.PassRate)
}

func TestPrintSummary(t *testing.T) {
	summary := Summarize([]models.AuditResult{
		passResult("lego set", "brand", 200),
		failResult("train set", "word_boundary", models.VerdictWordBoundary),
	})

	var buf strings.Builder
	PrintSummary(&buf, summary)
	out := buf.String()

	assert.Contains(t, out, "SEARCH QUALITY AUDIT")
	assert.Contains(t, out, "Pass rate:  50.0%")
	assert.Contains(t, out, "WORD_BOUNDARY")
	assert.Contains(t, out, "train set")
	assert.Contains(t, out, "BY CATEGORY")
}
