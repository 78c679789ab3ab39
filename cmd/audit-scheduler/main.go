// cmd/audit-scheduler is the long-running daemon: it audits the corpus every
// interval, archives each run, and alerts when the pass rate drops below the
// configured threshold.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"search-audit/internal/audit/classifier"
	"search-audit/internal/audit/corpus"
	"search-audit/internal/audit/orchestrator"
	"search-audit/internal/audit/report"
	"search-audit/internal/audit/scheduler"
	"search-audit/internal/audit/search"
	"search-audit/internal/common/aws"
	"search-audit/internal/common/config"
	"search-audit/internal/common/database"
	"search-audit/internal/common/logger"
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
	obs := observability.New("audit-scheduler")
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	specs, err := loadCorpus(*corpusPath)
	if err != nil {
		log.Error("failed to load corpus", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}

	writer := report.NewWriter(cfg.Paths, log)
	runner := buildRunner(cfg, specs, runMode(*mode), writer, obs, log)
	notifier := buildNotifier(ctx, cfg, log)

	startMetricsServer(cfg.Scheduler.MetricsAddr, log)

	interval := time.Duration(cfg.Scheduler.IntervalHours) * time.Hour
	sched := scheduler.New(
		runner,
		scheduler.NewRealClock(),
		interval,
		cfg.Scheduler.PassRateThreshold,
		writer,
		notifier,
		log,
	)
	sched.Start(ctx)
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

// auditRunner adapts one full orchestrated batch into the scheduler's Runner.
type auditRunner struct {
	cfg    *config.Config
	specs  []models.QuerySpec
	mode   orchestrator.Mode
	writer *report.Writer
	obs    *observability.Observability
	store  *report.Store
	cache  *report.Cache
	log    logger.Logger
}

func buildRunner(cfg *config.Config, specs []models.QuerySpec, mode orchestrator.Mode, writer *report.Writer, obs *observability.Observability, log logger.Logger) *auditRunner {
	r := &auditRunner{
		cfg:    cfg,
		specs:  specs,
		mode:   mode,
		writer: writer,
		obs:    obs,
		log:    log,
	}

	if cfg.Database.Postgres.Host != "" {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			log.Warn("postgres unavailable, run history stays on disk only", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			r.store = report.NewStore(pg)
		}
	}

	if cfg.Database.Redis.Address != "" {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			log.Warn("redis unavailable, latest summary will not be cached", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			r.cache = report.NewCache(rdb, 2*time.Duration(cfg.Scheduler.IntervalHours)*time.Hour)
		}
	}

	return r
}

// RunOnce audits the whole corpus and archives the outcome. Archival failures
// are logged but never fail the run itself.
func (r *auditRunner) RunOnce(ctx context.Context) (models.RunSummary, error) {
	client := search.NewClient(r.cfg.Search, r.log)
	executor := search.NewExecutor(client, r.cfg.Audit, r.log)
	cls := classifier.New(r.cfg.Audit)
	auditor := orchestrator.NewClassifierAuditor(executor, cls, r.cfg.Search.Limit)

	checkpoint := orchestrator.NewCheckpoint(r.cfg.Paths.Checkpoint, r.log)
	orch := orchestrator.New(auditor, checkpoint, r.cfg.Audit, r.mode, r.obs, r.log)

	results, err := orch.Run(ctx, r.specs)
	if err != nil {
		return models.RunSummary{}, err
	}

	summary := report.Summarize(results)
	summary.BuildVersion = r.cfg.App.Version
	r.writer.SaveRun(summary, results)

	if r.store != nil {
		if err := r.store.InsertRun(ctx, summary); err != nil {
			r.log.Warn("failed to archive run in postgres", map[string]interface{}{"error": err.Error()})
		}
	}
	if r.cache != nil {
		if err := r.cache.SetLatest(ctx, summary); err != nil {
			r.log.Warn("failed to cache latest summary", map[string]interface{}{"error": err.Error()})
		}
	}

	return summary, nil
}

// buildNotifier wires SES and SNS when either alert channel is enabled.
func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) *scheduler.Notifier {
	nc := cfg.Notifications
	if !nc.Email.Enabled && !nc.SMS.Enabled {
		return nil
	}

	var email scheduler.EmailSender
	var sms scheduler.SMSSender

	if nc.Email.Enabled {
		client, err := aws.NewSESClient(ctx, nc.AWS.Region)
		if err != nil {
			log.Warn("ses client init failed, email alerts disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			email = client
		}
	}
	if nc.SMS.Enabled {
		client, err := aws.NewSNSClient(ctx, nc.AWS.Region)
		if err != nil {
			log.Warn("sns client init failed, sms alerts disabled", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			sms = client
		}
	}

	if email == nil && sms == nil {
		return nil
	}
	return scheduler.NewNotifier(email, sms, nc, log)
}

func startMetricsServer(addr string, log logger.Logger) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `{"status":"healthy"}`)
	})

	go func() {
		log.Info("metrics server listening", map[string]interface{}{"addr": addr})
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Error("metrics server stopped", map[string]interface{}{"error": err.Error()})
		}
	}()
}
