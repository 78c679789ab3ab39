// cmd/relevance-audit runs the scored audit: every corpus query is searched,
// the top result slots are judged by the relevance oracle, and the run is
// written out as JSON history plus a per-slot CSV for spreadsheet review.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"search-audit/internal/audit/corpus"
	"search-audit/internal/audit/inventory"
	"search-audit/internal/audit/orchestrator"
	"search-audit/internal/audit/report"
	"search-audit/internal/audit/scorer"
	"search-audit/internal/audit/search"
	"search-audit/internal/common/config"
	"search-audit/internal/common/database"
	"search-audit/internal/common/logger"
	"search-audit/internal/common/observability"
	"search-audit/internal/models"
)

func main() {
	corpusPath := flag.String("corpus", "", "path to a bulk corpus file (default: embedded priority corpus)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	obs := observability.New("relevance-audit")
	defer obs.Shutdown()

	if cfg.Scorer.APIKey == "" {
		log.Error("SCORER_API_KEY is required for the scored audit", nil)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	specs, err := loadCorpus(*corpusPath)
	if err != nil {
		log.Error("failed to load corpus", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	client := search.NewClient(cfg.Search, log)
	executor := search.NewExecutor(client, cfg.Audit, log)
	oracle := scorer.NewHTTPOracle(cfg.Scorer, log)
	sc := scorer.New(oracle, buildCounter(cfg, log), cfg.Scorer, log)
	auditor := orchestrator.NewScoringAuditor(executor, sc, cfg.Search.Limit)

	checkpoint := orchestrator.NewCheckpoint(cfg.Paths.Checkpoint, log)
	orch := orchestrator.New(auditor, checkpoint, cfg.Audit, orchestrator.ModeSequential, obs, log)
	orch.SetProgressFunc(func(passed bool) {
		if passed {
			fmt.Print(".")
		} else {
			fmt.Print("X")
		}
	})

	results, err := orch.Run(ctx, specs)
	fmt.Println()
	if err != nil {
		log.Error("scored audit aborted", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	summary := report.Summarize(results)
	summary.BuildVersion = cfg.App.Version
	report.PrintSummary(os.Stdout, summary)

	writer := report.NewWriter(cfg.Paths, log)
	writer.SaveRun(summary, results)
	if path := writer.SaveCSV(results); path != "" {
		log.Info("per-slot scores exported", map[string]interface{}{"path": path})
	}

	if summary.PassRate < cfg.Scheduler.PassRateThreshold {
		os.Exit(1)
	}
}

func loadCorpus(path string) ([]models.QuerySpec, error) {
	if path == "" {
		return corpus.Default(), nil
	}
	return corpus.LoadFile(path)
}

// buildCounter wires the catalog probe when Elasticsearch is configured.
// Without it every zero-result query reads as an inventory gap, which is the
// conservative degradation.
func buildCounter(cfg *config.Config, log logger.Logger) inventory.Counter {
	if cfg.Database.Elasticsearch.GetURL() == "" {
		log.Warn("no catalog configured, zero-result queries cannot be split into bugs and gaps", nil)
		return inventory.NoopCounter{}
	}

	es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		log.Warn("catalog connection failed, continuing without inventory probe", map[string]interface{}{
			"error": err.Error(),
		})
		return inventory.NoopCounter{}
	}
	return inventory.NewESCounter(es, cfg.Database.Elasticsearch, log)
}
