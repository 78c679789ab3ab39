// cmd/audit-runner runs one classifier-mode audit over the corpus and exits
// 0 when the pass rate meets the threshold, 1 otherwise.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"search-audit/internal/audit/classifier"
	"search-audit/internal/audit/corpus"
	"search-audit/internal/audit/orchestrator"
	"search-audit/internal/audit/report"
	"search-audit/internal/audit/search"
	"search-audit/internal/common/config"
	"search-audit/internal/common/database"
	"search-audit/internal/common/logger"
	"search-audit/internal/common/metrics"
	"search-audit/internal/common/observability"
	"search-audit/internal/models"
)

func main() {
	corpusPath := flag.String("corpus", "", "path to a bulk corpus file (default: embedded priority corpus)")
	mode := flag.String("mode", "sequential", "execution mode: sequential or wave")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	obs := observability.New("audit-runner")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	specs, err := loadCorpus(*corpusPath)
	if err != nil {
		log.Error("failed to load corpus", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
	log.Info("corpus loaded", map[string]interface{}{
		"queries":    len(specs),
		"categories": len(corpus.Categories(specs)),
	})

	client := search.NewClient(cfg.Search, log)
	executor := search.NewExecutor(client, cfg.Audit, log)
	cls := classifier.New(cfg.Audit)
	auditor := orchestrator.NewClassifierAuditor(executor, cls, cfg.Search.Limit)

	checkpoint := orchestrator.NewCheckpoint(cfg.Paths.Checkpoint, log)
	orch := orchestrator.New(auditor, checkpoint, cfg.Audit, runMode(*mode), obs, log)
	orch.SetProgressFunc(func(passed bool) {
		if passed {
			fmt.Print(".")
		} else {
			fmt.Print("X")
		}
	})

	start := time.Now()
	results, err := orch.Run(ctx, specs)
	fmt.Println()
	if err != nil {
		log.Error("audit run aborted", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	summary := report.Summarize(results)
	summary.BuildVersion = cfg.App.Version
	metrics.RunPassRate.Set(summary.PassRate)
	report.PrintSummary(os.Stdout, summary)

	writer := report.NewWriter(cfg.Paths, log)
	if path := writer.SaveRun(summary, results); path != "" {
		log.Info("run archived", map[string]interface{}{"path": path})
	}

	persistSummary(ctx, cfg, summary, log)

	log.Info("audit complete", map[string]interface{}{
		"passRate": summary.PassRate,
		"duration": time.Since(start).String(),
	})

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

func runMode(mode string) orchestrator.Mode {
	if mode == string(orchestrator.ModeWave) {
		return orchestrator.ModeWave
	}
	return orchestrator.ModeSequential
}

// persistSummary archives the run to Postgres and Redis when configured.
// Both are best effort: the filesystem artifacts are the source of truth.
func persistSummary(ctx context.Context, cfg *config.Config, summary models.RunSummary, log logger.Logger) {
	if cfg.Database.Postgres.Host != "" {
		if pg, err := connectPostgres(cfg, log); err == nil {
			defer pg.Close()
			if err := report.NewStore(pg).InsertRun(ctx, summary); err != nil {
				log.Warn("failed to archive run in postgres", map[string]interface{}{"error": err.Error()})
			}
		}
	}

	if cfg.Database.Redis.Address != "" {
		if rdb, err := database.NewRedis(cfg.Database.Redis); err == nil {
			defer rdb.Close()
			cache := report.NewCache(rdb, 24*time.Hour)
			if err := cache.SetLatest(ctx, summary); err != nil {
				log.Warn("failed to cache latest summary", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}

func connectPostgres(cfg *config.Config, log logger.Logger) (*database.PostgresClient, error) {
	var pg *database.PostgresClient
	err := retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return pg.Ping(pingCtx)
	}, 3, 2*time.Second, log, "postgres")
	return pg, err
}

// retryWithBackoff retries an operation with doubling delays.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, name string) error {
	var err error
	delay := initialDelay

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = operation(); err == nil {
			return nil
		}

		log.Warn("operation failed, retrying", map[string]interface{}{
			"name":    name,
			"attempt": attempt,
			"error":   err.Error(),
		})

		if attempt < maxRetries {
			time.Sleep(delay)
			delay *= 2
		}
	}

	return err
}
