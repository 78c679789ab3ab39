// internal/models/audit.go
package models

import "time"

// TransportError classifies a search call that did not complete normally.
// An empty value means the call produced a usable response.
type TransportError string

const (
	TransportNone    TransportError = ""
	TransportTimeout TransportError = "TIMEOUT"
	TransportAPI     TransportError = "API_ERROR"
	TransportNetwork TransportError = "NETWORK_ERROR"
)

// Verdict is the closed-set classification outcome for one audited query.
// Report consumers key off the literal strings, so values are additive only.
type Verdict string

const (
	VerdictPass          Verdict = "PASS"
	VerdictTimeout       Verdict = "TIMEOUT"
	VerdictAPIError      Verdict = "API_ERROR"
	VerdictZeroResults   Verdict = "ZERO_RESULTS"
	VerdictLowResults    Verdict = "LOW_RESULTS"
	VerdictSlowResponse  Verdict = "SLOW_RESPONSE"
	VerdictBrandMismatch Verdict = "BRAND_MISMATCH"
	VerdictClothingLeak  Verdict = "CLOTHING_LEAK"
	VerdictAdultLeak     Verdict = "ADULT_LEAK"
	VerdictWordBoundary  Verdict = "WORD_BOUNDARY"
	VerdictWrongCategory Verdict = "WRONG_CATEGORY"

	// Scored-overlay verdicts.
	VerdictSearchBug      Verdict = "SEARCH_BUG"
	VerdictInventoryGap   Verdict = "INVENTORY_GAP"
	VerdictFlaggedContent Verdict = "FLAGGED_CONTENT"
	VerdictPoorRelevance  Verdict = "POOR_RELEVANCE"
	VerdictWeakRelevance  Verdict = "WEAK_RELEVANCE"
)

// Product is the normalized shape of one search hit. Optional fields from the
// search endpoint are validated and flattened at the client boundary.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand,omitempty"`
	Merchant    string  `json:"merchant,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price,omitempty"`
}

// SearchOutcome is the result of a single search attempt. Ephemeral; only the
// derived AuditResult is persisted.
type SearchOutcome struct {
	Products       []Product
	Count          int
	ElapsedMs      int64
	TransportError TransportError
}

// Failed reports whether the call itself did not complete.
func (o SearchOutcome) Failed() bool {
	return o.TransportError != TransportNone
}

// ProductNames returns the hit names in result order.
func (o SearchOutcome) ProductNames() []string {
	names := make([]string, 0, len(o.Products))
	for _, p := range o.Products {
		names = append(names, p.Name)
	}
	return names
}

// QuerySpec is one corpus entry. Category is a reporting label only.
// Duplicate queries are legal and simply re-audited.
type QuerySpec struct {
	Query              string   `json:"query"`
	Category           string   `json:"category"`
	ExpectedMinResults int      `json:"expectedMinResults"`
	MustContain        []string `json:"mustContain,omitempty"`
	MustNotContain     []string `json:"mustNotContain,omitempty"`
}

// ScoredResult is one scored slot of the relevance overlay. Score -1 marks a
// scoring-oracle failure, distinct from 0 (a harmful/irrelevant judgement).
type ScoredResult struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Merchant string `json:"merchant"`
	Price    string `json:"price"`
	Score    int    `json:"score"`
	Reason   string `json:"reason"`
	Flagged  bool   `json:"flagged"`
}

// AuditResult is the durable unit of work-product, one per QuerySpec per run.
// Passed is true iff Verdict == VerdictPass; FailureReason is set iff !Passed.
type AuditResult struct {
	Query          string   `json:"query"`
	Category       string   `json:"category"`
	ResultCount    int      `json:"resultCount"`
	Passed         bool     `json:"passed"`
	Verdict        Verdict  `json:"verdict"`
	ResponseTimeMs int64    `json:"responseTimeMs"`
	TopResults     []string `json:"topResults,omitempty"`
	FailureReason  string   `json:"failureReason,omitempty"`
	Timestamp      string   `json:"timestamp"`

	// Relevance-overlay fields, populated only by scored runs.
	DBCount          int            `json:"dbCount,omitempty"`
	AvgScore         float64        `json:"avgScore,omitempty"`
	RelevancePercent int            `json:"relevancePercent,omitempty"`
	FlaggedCount     int            `json:"flaggedCount,omitempty"`
	Results          []ScoredResult `json:"results,omitempty"`
	FixAction        string         `json:"fixAction,omitempty"`
}

// RunProgress is the orchestrator checkpoint. Invariant on every write:
// Processed == len(Results).
type RunProgress struct {
	Processed   int           `json:"processed"`
	Results     []AuditResult `json:"results"`
	LastUpdated string        `json:"lastUpdated"`
}

// FailurePattern aggregates failures sharing one verdict.
type FailurePattern struct {
	Pattern  string   `json:"pattern"`
	Count    int      `json:"count"`
	Examples []string `json:"examples"`
}

// CategoryStats is the per-category pass ratio.
type CategoryStats struct {
	Passed int `json:"passed"`
	Total  int `json:"total"`
}

// FailingQuery is the compact triage view of one failed audit.
type FailingQuery struct {
	Query          string `json:"query"`
	Verdict        string `json:"verdict"`
	ResultCount    int    `json:"resultCount"`
	ResponseTimeMs int64  `json:"responseTimeMs"`
	TopResult      string `json:"topResult,omitempty"`
}

// RunSummary is derived once from the full result set at the end of a run.
type RunSummary struct {
	RunID             string                   `json:"runId"`
	BuildVersion      string                   `json:"buildVersion,omitempty"`
	Timestamp         string                   `json:"timestamp"`
	TotalQueries      int                      `json:"totalQueries"`
	Passed            int                      `json:"passed"`
	Failed            int                      `json:"failed"`
	PassRate          float64                  `json:"passRate"`
	AvgResponseTimeMs int64                    `json:"avgResponseTimeMs"`
	FailurePatterns   []FailurePattern         `json:"failurePatterns"`
	CategoryBreakdown map[string]CategoryStats `json:"categoryBreakdown"`
	FailingQueries    []FailingQuery           `json:"failingQueries"`
}

// AlertRecord is appended to the alert log when a run breaches the pass-rate
// threshold. Append-only; no deletion path.
type AlertRecord struct {
	Timestamp      string         `json:"timestamp"`
	PassRate       float64        `json:"passRate"`
	Threshold      float64        `json:"threshold"`
	Message        string         `json:"message,omitempty"`
	FailingQueries []FailingQuery `json:"failingQueries,omitempty"`
}

// NowISO returns the timestamp format shared by all persisted artifacts.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
