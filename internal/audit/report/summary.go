// Package report turns a completed result set into its durable artifacts:
// the run summary, CSV export, history files, database row and cache entry.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"search-audit/internal/models"

	"github.com/google/uuid"
)

const maxPatternExamples = 10
const maxFailingQueries = 25

// Summarize derives the RunSummary from a full result set.
func Summarize(results []models.AuditResult) models.RunSummary {
	summary := models.RunSummary{
		RunID:             uuid.NewString(),
		Timestamp:         models.NowISO(),
		TotalQueries:      len(results),
		CategoryBreakdown: make(map[string]models.CategoryStats),
	}

	var totalMs int64
	patternCounts := make(map[models.Verdict]*models.FailurePattern)

	for _, r := range results {
		totalMs += r.ResponseTimeMs

		stats := summary.CategoryBreakdown[r.Category]
		stats.Total++
		if r.Passed {
			stats.Passed++
			summary.Passed++
		} else {
			summary.Failed++

			p, ok := patternCounts[r.Verdict]
			if !ok {
				p = &models.FailurePattern{Pattern: string(r.Verdict)}
				patternCounts[r.Verdict] = p
			}
			p.Count++
			if len(p.Examples) < maxPatternExamples {
				p.Examples = append(p.Examples, r.Query)
			}

			if len(summary.FailingQueries) < maxFailingQueries {
				fq := models.FailingQuery{
					Query:          r.Query,
					Verdict:        string(r.Verdict),
					ResultCount:    r.ResultCount,
					ResponseTimeMs: r.ResponseTimeMs,
				}
				if len(r.TopResults) > 0 {
					fq.TopResult = r.TopResults[0]
				}
				summary.FailingQueries = append(summary.FailingQueries, fq)
			}
		}
		summary.CategoryBreakdown[r.Category] = stats
	}

	if summary.TotalQueries > 0 {
		rate := float64(summary.Passed) / float64(summary.TotalQueries) * 100
		summary.PassRate = math.Round(rate*10) / 10
		summary.AvgResponseTimeMs = totalMs / int64(summary.TotalQueries)
	}

	for _, p := range patternCounts {
		summary.FailurePatterns = append(summary.FailurePatterns, *p)
	}
	sort.Slice(summary.FailurePatterns, func(i, j int) bool {
		if summary.FailurePatterns[i].Count != summary.FailurePatterns[j].Count {
			return summary.FailurePatterns[i].Count > summary.FailurePatterns[j].Count
		}
		return summary.FailurePatterns[i].Pattern < summary.FailurePatterns[j].Pattern
	})

	return summary
}

// PrintSummary renders the human-readable run banner.
func PrintSummary(w io.Writer, summary models.RunSummary) {
	line := strings.Repeat("=", 60)

	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "SEARCH QUALITY AUDIT")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Run:        %s\n", summary.RunID)
	fmt.Fprintf(w, "Completed:  %s\n", summary.Timestamp)
	fmt.Fprintf(w, "Queries:    %d\n", summary.TotalQueries)
	fmt.Fprintf(w, "Passed:     %d\n", summary.Passed)
	fmt.Fprintf(w, "Failed:     %d\n", summary.Failed)
	fmt.Fprintf(w, "Pass rate:  %.1f%%\n", summary.PassRate)
	fmt.Fprintf(w, "Avg time:   %dms\n", summary.AvgResponseTimeMs)

	if len(summary.FailurePatterns) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "FAILURE PATTERNS")
		for _, p := range summary.FailurePatterns {
			fmt.Fprintf(w, "  %-18s %4d", p.Pattern, p.Count)
			if len(p.Examples) > 0 {
				fmt.Fprintf(w, "  e.g. %q", p.Examples[0])
			}
			fmt.Fprintln(w)
		}
	}

	if len(summary.CategoryBreakdown) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "BY CATEGORY")
		cats := make([]string, 0, len(summary.CategoryBreakdown))
		for cat := range summary.CategoryBreakdown {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			stats := summary.CategoryBreakdown[cat]
			fmt.Fprintf(w, "  %-16s %d/%d\n", cat, stats.Passed, stats.Total)
		}
	}

	if len(summary.FailingQueries) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "FAILING QUERIES")
		for _, fq := range summary.FailingQueries {
			fmt.Fprintf(w, "  %-32q %-16s %d results, %dms\n",
				fq.Query, fq.Verdict, fq.ResultCount, fq.ResponseTimeMs)
		}
	}

	fmt.Fprintln(w, line)
}
