package orchestrator

import (
	"context"

	"search-audit/internal/audit/classifier"
	"search-audit/internal/audit/scorer"
	"search-audit/internal/audit/search"
	"search-audit/internal/models"
)

// Auditor turns one corpus entry into one AuditResult. Implementations must
// never fail the batch: transport problems are encoded in the result.
type Auditor interface {
	Audit(ctx context.Context, spec models.QuerySpec) models.AuditResult
}

// ClassifierAuditor is the classifier-mode unit: resilient search call
// followed by rule classification.
type ClassifierAuditor struct {
	executor   *search.Executor
	classifier *classifier.Classifier
	limit      int
}

func NewClassifierAuditor(executor *search.Executor, cls *classifier.Classifier, limit int) *ClassifierAuditor {
	return &ClassifierAuditor{executor: executor, classifier: cls, limit: limit}
}

func (a *ClassifierAuditor) Audit(ctx context.Context, spec models.QuerySpec) models.AuditResult {
	outcome := a.executor.Execute(ctx, spec.Query, a.limit)
	return a.classifier.Classify(spec, outcome)
}

// ScoringAuditor is the overlay-mode unit: resilient search call followed by
// LLM relevance scoring.
type ScoringAuditor struct {
	executor *search.Executor
	scorer   *scorer.Scorer
	limit    int
}

func NewScoringAuditor(executor *search.Executor, sc *scorer.Scorer, limit int) *ScoringAuditor {
	return &ScoringAuditor{executor: executor, scorer: sc, limit: limit}
}

func (a *ScoringAuditor) Audit(ctx context.Context, spec models.QuerySpec) models.AuditResult {
	outcome := a.executor.Execute(ctx, spec.Query, a.limit)
	return a.scorer.ScoreQuery(ctx, spec, outcome)
}
