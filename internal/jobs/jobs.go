package jobs

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ihaichao/stock-pulse/internal/aggregator"
	"github.com/ihaichao/stock-pulse/internal/config"
	"github.com/ihaichao/stock-pulse/internal/models"
	"github.com/ihaichao/stock-pulse/pkg/logging"
	"github.com/ihaichao/stock-pulse/pkg/monitoring"
)

// Ingestor is the aggregator surface the jobs need.
type Ingestor interface {
	IngestBatch(ctx context.Context, drafts []models.Draft) (aggregator.Result, error)
	TrackedTickers(ctx context.Context) ([]string, error)
	PendingSummaries(ctx context.Context, limit int) ([]*models.Event, error)
	SaveSummary(ctx context.Context, id uuid.UUID, summary string) error
}

// Summarizer generates list-view summaries for events.
type Summarizer interface {
	Enabled() bool
	Summarize(ctx context.Context, event *models.Event) (string, error)
}

// Source interfaces, one per provider concern. The concrete clients in
// internal/sources satisfy these; tests substitute stubs.
type EarningsSource interface {
	FetchEarnings(ctx context.Context, ticker string) ([]models.Draft, error)
}

type FilingsSource interface {
	FetchInsiderFilings(ctx context.Context, ticker string) ([]models.Draft, error)
}

type MacroSource interface {
	FetchMacroEvents(ctx context.Context, from, to time.Time) ([]models.Draft, error)
}

type AnalystSource interface {
	FetchAnalystRatings(ctx context.Context, ticker string, window time.Duration, maxPerTicker int) ([]models.Draft, error)
}

type CongressSource interface {
	FetchTrades(ctx context.Context, tickers []string) ([]models.Draft, error)
}

type OptionsSource interface {
	FetchUnusualOptions(ctx context.Context, ticker string) ([]models.Draft, error)
}

// Sources bundles every provider the jobs pull from.
type Sources struct {
	Earnings EarningsSource
	Filings  FilingsSource
	Macro    MacroSource
	Analyst  AnalystSource
	Congress CongressSource
	Options  OptionsSource
}

const summaryBacklogLimit = 50

// JobManager runs the scheduled ingestion jobs. Every job fires at
// fixed UTC wall-clock times from the config, runs once at startup to
// backfill after downtime, and can be triggered by name over HTTP.
type JobManager struct {
	ingestor   Ingestor
	sources    Sources
	summarizer Summarizer
	cfg        *config.Config
	logger     logging.Logger
	stopCh     chan struct{}
	now        func() time.Time

	jobRuns *prometheus.CounterVec
	jobs    map[string]job
	order   []string
}

type job struct {
	schedule []string
	run      func(ctx context.Context) error
}

// NewJobManager creates a job manager. metrics may be nil in tests.
func NewJobManager(ingestor Ingestor, sources Sources, summarizer Summarizer, cfg *config.Config, logger logging.Logger, metrics *monitoring.MetricsCollector) *JobManager {
	jm := &JobManager{
		ingestor:   ingestor,
		sources:    sources,
		summarizer: summarizer,
		cfg:        cfg,
		logger:     logger,
		stopCh:     make(chan struct{}),
		now:        time.Now,
	}

	if metrics != nil {
		jm.jobRuns = metrics.NewCounter(
			"ingestion_job_runs_total",
			"Completed ingestion job runs by job name and outcome",
			[]string{"job", "outcome"},
		)
	}

	jm.jobs = map[string]job{
		"macro":     {schedule: cfg.Jobs.Macro, run: jm.runMacro},
		"earnings":  {schedule: cfg.Jobs.Earnings, run: jm.runEarnings},
		"filings":   {schedule: cfg.Jobs.Filings, run: jm.runFilings},
		"analyst":   {schedule: cfg.Jobs.Analyst, run: jm.runAnalyst},
		"congress":  {schedule: cfg.Jobs.Congress, run: jm.runCongress},
		"options":   {schedule: cfg.Jobs.Options, run: jm.runOptions},
		"summaries": {schedule: cfg.Jobs.Summaries, run: jm.runSummaries},
	}
	// Sweep order: market-wide data first, then per-ticker feeds.
	jm.order = []string{"macro", "earnings", "filings", "analyst", "congress", "options"}
	return jm
}

// Start launches the startup sweep and one schedule loop per job.
func (jm *JobManager) Start(ctx context.Context) {
	jm.logger.Info("Starting ingestion job manager")

	go jm.startupSweep(ctx)

	for name := range jm.jobs {
		go jm.runSchedule(ctx, name)
	}
}

// Stop stops all schedule loops.
func (jm *JobManager) Stop() {
	jm.logger.Info("Stopping ingestion job manager")
	close(jm.stopCh)
}

// JobNames returns the trigger-able job names, sorted.
func (jm *JobManager) JobNames() []string {
	names := make([]string, 0, len(jm.jobs))
	for name := range jm.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunJob runs a single job synchronously by name.
func (jm *JobManager) RunJob(ctx context.Context, name string) error {
	j, ok := jm.jobs[name]
	if !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return jm.runOnce(ctx, name, j.run)
}

// startupSweep runs every ingestion job once so the database catches up
// on anything missed while the service was down. The summaries job is
// excluded; it only makes sense on its schedule.
func (jm *JobManager) startupSweep(ctx context.Context) {
	jm.logger.Info("Running startup ingestion sweep")
	for _, name := range jm.order {
		select {
		case <-ctx.Done():
			return
		case <-jm.stopCh:
			return
		default:
		}
		if err := jm.runOnce(ctx, name, jm.jobs[name].run); err != nil {
			jm.logger.WithError(err).WithField("job", name).Error("Startup sweep job failed")
		}
	}
	jm.logger.Info("Startup ingestion sweep completed")
}

func (jm *JobManager) runSchedule(ctx context.Context, name string) {
	schedule := jm.jobs[name].schedule
	if len(schedule) == 0 {
		return
	}

	for {
		next := nextFireTime(jm.now().UTC(), schedule)
		timer := time.NewTimer(next.Sub(jm.now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-jm.stopCh:
			timer.Stop()
			return
		case <-timer.C:
			if err := jm.runOnce(ctx, name, jm.jobs[name].run); err != nil {
				jm.logger.WithError(err).WithField("job", name).Error("Scheduled job failed")
			}
		}
	}
}

func (jm *JobManager) runOnce(ctx context.Context, name string, run func(ctx context.Context) error) error {
	started := jm.now()
	err := run(ctx)
	elapsed := jm.now().Sub(started)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	if jm.jobRuns != nil {
		jm.jobRuns.WithLabelValues(name, outcome).Inc()
	}

	jm.logger.WithFields(logging.Fields{
		"job":      name,
		"duration": elapsed.String(),
		"outcome":  outcome,
	}).Info("Ingestion job finished")
	return err
}

// nextFireTime returns the earliest upcoming UTC fire time strictly
// after now. Entries are "HH:MM"; invalid ones were rejected at config
// load.
func nextFireTime(now time.Time, schedule []string) time.Time {
	next := time.Time{}
	for _, entry := range schedule {
		hour, minute, err := config.ParseClock(entry)
		if err != nil {
			continue
		}
		candidate := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
		if !candidate.After(now) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		if next.IsZero() || candidate.Before(next) {
			next = candidate
		}
	}
	return next
}
