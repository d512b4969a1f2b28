package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/ihaichao/stock-pulse/internal/models"
	"github.com/ihaichao/stock-pulse/pkg/logging"
)

// perTickerIngest fetches every tracked ticker sequentially, collects
// the drafts, and ingests the whole run as one batch. One failing ticker
// is logged and excluded; the others still land.
func (jm *JobManager) perTickerIngest(ctx context.Context, jobName string, fetch func(ctx context.Context, ticker string) ([]models.Draft, error)) error {
	tickers, err := jm.ingestor.TrackedTickers(ctx)
	if err != nil {
		return fmt.Errorf("tracked tickers: %w", err)
	}
	if len(tickers) == 0 {
		jm.logger.WithField("job", jobName).Debug("No tracked tickers, nothing to fetch")
		return nil
	}

	var batch []models.Draft
	var failed int
	for _, ticker := range tickers {
		drafts, err := fetch(ctx, ticker)
		if err != nil {
			failed++
			jm.logger.WithError(err).WithFields(logging.Fields{
				"job":    jobName,
				"ticker": ticker,
			}).Warn("Source fetch failed, continuing with next ticker")
			continue
		}
		batch = append(batch, drafts...)
	}

	if failed == len(tickers) {
		return fmt.Errorf("all %d ticker fetches failed", failed)
	}
	if len(batch) == 0 {
		return nil
	}

	result, err := jm.ingestor.IngestBatch(ctx, batch)
	if err != nil {
		return fmt.Errorf("ingest batch: %w", err)
	}
	jm.logger.WithFields(logging.Fields{
		"job":      jobName,
		"tickers":  len(tickers) - failed,
		"inserted": result.Inserted,
		"merged":   result.Merged,
		"skipped":  result.Skipped,
	}).Debug("Ingested batch")
	return nil
}

func (jm *JobManager) runEarnings(ctx context.Context) error {
	return jm.perTickerIngest(ctx, "earnings", jm.sources.Earnings.FetchEarnings)
}

func (jm *JobManager) runFilings(ctx context.Context) error {
	return jm.perTickerIngest(ctx, "filings", jm.sources.Filings.FetchInsiderFilings)
}

func (jm *JobManager) runAnalyst(ctx context.Context) error {
	return jm.perTickerIngest(ctx, "analyst", func(ctx context.Context, ticker string) ([]models.Draft, error) {
		return jm.sources.Analyst.FetchAnalystRatings(ctx, ticker,
			jm.cfg.Sources.AnalystWindow, jm.cfg.Sources.MaxPerTicker)
	})
}

func (jm *JobManager) runOptions(ctx context.Context) error {
	return jm.perTickerIngest(ctx, "options", jm.sources.Options.FetchUnusualOptions)
}

// runMacro fetches the economic calendar from the start of the current
// month through the end of the next.
func (jm *JobManager) runMacro(ctx context.Context) error {
	now := jm.now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 2, 0)

	drafts, err := jm.sources.Macro.FetchMacroEvents(ctx, from, to)
	if err != nil {
		return fmt.Errorf("fetch macro events: %w", err)
	}
	if len(drafts) == 0 {
		return nil
	}

	result, err := jm.ingestor.IngestBatch(ctx, drafts)
	if err != nil {
		return fmt.Errorf("ingest macro events: %w", err)
	}
	jm.logger.WithFields(logging.Fields{
		"job":      "macro",
		"inserted": result.Inserted,
		"merged":   result.Merged,
		"skipped":  result.Skipped,
	}).Debug("Ingested macro batch")
	return nil
}

// runCongress fetches one page of recent trades filtered down to the
// tracked tickers, since the feed is market-wide.
func (jm *JobManager) runCongress(ctx context.Context) error {
	tickers, err := jm.ingestor.TrackedTickers(ctx)
	if err != nil {
		return fmt.Errorf("tracked tickers: %w", err)
	}
	if len(tickers) == 0 {
		return nil
	}

	drafts, err := jm.sources.Congress.FetchTrades(ctx, tickers)
	if err != nil {
		return fmt.Errorf("fetch congress trades: %w", err)
	}
	if len(drafts) == 0 {
		return nil
	}

	if _, err := jm.ingestor.IngestBatch(ctx, drafts); err != nil {
		return fmt.Errorf("ingest congress trades: %w", err)
	}
	return nil
}

// runSummaries backfills AI summaries for events that lack one. Each
// event is independent; a failed generation is logged and the backlog
// continues.
func (jm *JobManager) runSummaries(ctx context.Context) error {
	if jm.summarizer == nil || !jm.summarizer.Enabled() {
		jm.logger.Debug("Summarizer disabled, skipping summary backfill")
		return nil
	}

	events, err := jm.ingestor.PendingSummaries(ctx, summaryBacklogLimit)
	if err != nil {
		return fmt.Errorf("pending summaries: %w", err)
	}

	var generated int
	for _, event := range events {
		summary, err := jm.summarizer.Summarize(ctx, event)
		if err != nil {
			jm.logger.WithError(err).WithField("event_id", event.ID).Warn("Summary generation failed")
			continue
		}
		if summary == "" {
			continue
		}
		if err := jm.ingestor.SaveSummary(ctx, event.ID, summary); err != nil {
			return fmt.Errorf("save summary for %s: %w", event.ID, err)
		}
		generated++
	}

	if generated > 0 {
		jm.logger.WithField("generated", generated).Info("Backfilled AI summaries")
	}
	return nil
}
