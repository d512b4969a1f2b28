package aggregator

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ihaichao/stock-pulse/internal/models"
	"github.com/ihaichao/stock-pulse/pkg/logging"
)

// Aggregator owns the write path into the events table. Sources emit
// drafts; the aggregator decides per draft whether it becomes a new row
// or merges into an existing one.
//
// The dedup identity of an event is (ticker, event_type, title, UTC
// calendar day of event_date), with a NULL ticker matching only NULL.
// A unique expression index on the table enforces the same identity, so
// two processes racing on the same draft degrade to one insert and one
// skip instead of a duplicate row.
type Aggregator struct {
	db     *sql.DB
	logger logging.Logger
}

func New(db *sql.DB, logger logging.Logger) *Aggregator {
	return &Aggregator{db: db, logger: logger}
}

// Result reports what a batch did. Counts are valid even when an error
// is returned: work applied before the failure stays applied, and the
// pipeline is idempotent so a retry converges.
type Result struct {
	Inserted int `json:"inserted"`
	Merged   int `json:"merged"`
	Skipped  int `json:"skipped"`
}

// existingEvent is the slice of an event row the merge decision needs.
type existingEvent struct {
	ID            uuid.UUID
	EPSActual     sql.NullFloat64
	RevenueActual sql.NullInt64
	ActualValue   sql.NullString
	Description   sql.NullString
	Status        string
}

// IngestBatch upserts a batch of drafts sequentially. Drafts without an
// event date are counted as skipped. Each draft commits on its own; the
// first store failure aborts the remainder and returns the partial
// result alongside the error.
func (a *Aggregator) IngestBatch(ctx context.Context, drafts []models.Draft) (Result, error) {
	var result Result

	for i := range drafts {
		draft := drafts[i]
		draft.NormalizeDate()

		if draft.EventDate.IsZero() {
			a.logger.WithFields(logging.Fields{
				"ticker": draft.Ticker,
				"title":  draft.Title,
			}).Debug("Skipping draft without event date")
			result.Skipped++
			continue
		}
		if draft.Importance == "" {
			draft.Importance = models.ImportanceMedium
		}
		if draft.Status == "" {
			draft.Status = models.StatusUpcoming
		}

		existing, err := a.findExisting(ctx, &draft)
		if err != nil {
			return result, fmt.Errorf("lookup event %q: %w", draft.Title, err)
		}

		if existing != nil {
			if err := a.merge(ctx, existing, &draft); err != nil {
				return result, fmt.Errorf("merge event %q: %w", draft.Title, err)
			}
			result.Merged++
			continue
		}

		inserted, err := a.insert(ctx, &draft)
		if err != nil {
			return result, fmt.Errorf("insert event %q: %w", draft.Title, err)
		}
		if inserted {
			result.Inserted++
		} else {
			// Lost an insert race; the row now exists with the same
			// identity, so this draft's work is done.
			result.Skipped++
		}
	}

	return result, nil
}

func (a *Aggregator) findExisting(ctx context.Context, draft *models.Draft) (*existingEvent, error) {
	dayStart := draft.EventDate.Truncate(24 * time.Hour)
	dayEnd := dayStart.Add(24 * time.Hour)

	query := `
		SELECT id, eps_actual, revenue_actual, actual_value, description, status
		FROM events
		WHERE event_type = $1
		  AND title = $2
		  AND event_date >= $3 AND event_date < $4
		  AND ` + tickerPredicate(draft.Ticker, 5) + `
		LIMIT 1`

	args := []interface{}{draft.EventType, draft.Title, dayStart, dayEnd}
	if draft.Ticker != "" {
		args = append(args, draft.Ticker)
	}

	var existing existingEvent
	err := a.db.QueryRowContext(ctx, query, args...).Scan(
		&existing.ID,
		&existing.EPSActual,
		&existing.RevenueActual,
		&existing.ActualValue,
		&existing.Description,
		&existing.Status,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func tickerPredicate(ticker string, arg int) string {
	if ticker == "" {
		return "ticker IS NULL"
	}
	return fmt.Sprintf("ticker = $%d", arg)
}

// merge applies fill-only semantics: actual figures and the description
// are written only where the stored row has none, status may only move
// to completed, and updated_at is refreshed regardless so the row
// records when a source last confirmed it.
func (a *Aggregator) merge(ctx context.Context, existing *existingEvent, draft *models.Draft) error {
	epsActual := existing.EPSActual
	if !epsActual.Valid && draft.EPSActual != nil {
		epsActual = sql.NullFloat64{Float64: *draft.EPSActual, Valid: true}
	}
	revenueActual := existing.RevenueActual
	if !revenueActual.Valid && draft.RevenueActual != nil {
		revenueActual = sql.NullInt64{Int64: *draft.RevenueActual, Valid: true}
	}
	actualValue := existing.ActualValue
	if !actualValue.Valid && draft.ActualValue != nil {
		actualValue = sql.NullString{String: *draft.ActualValue, Valid: true}
	}
	description := existing.Description
	if (!description.Valid || description.String == "") && draft.Description != "" {
		description = sql.NullString{String: draft.Description, Valid: true}
	}
	status := existing.Status
	if draft.Status == models.StatusCompleted {
		status = models.StatusCompleted
	}

	_, err := a.db.ExecContext(ctx, `
		UPDATE events
		SET eps_actual = $1,
		    revenue_actual = $2,
		    actual_value = $3,
		    description = $4,
		    status = $5,
		    updated_at = NOW()
		WHERE id = $6`,
		epsActual, revenueActual, actualValue, description, status, existing.ID)
	return err
}

func (a *Aggregator) insert(ctx context.Context, draft *models.Draft) (bool, error) {
	var ticker interface{}
	if draft.Ticker != "" {
		ticker = draft.Ticker
	}

	res, err := a.db.ExecContext(ctx, `
		INSERT INTO events (
			id, ticker, event_type, event_date, title, description,
			importance, status,
			eps_estimate, eps_actual, revenue_estimate, revenue_actual, report_time,
			macro_event_name, consensus, actual_value, previous_value,
			filing_type, filing_url,
			analyst_firm, from_rating, to_rating, target_price,
			source, raw_data,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25,
			NOW(), NOW()
		)
		ON CONFLICT DO NOTHING`,
		uuid.New(), ticker, draft.EventType, draft.EventDate, draft.Title,
		nullString(draft.Description),
		draft.Importance, draft.Status,
		draft.EPSEstimate, draft.EPSActual, draft.RevenueEstimate, draft.RevenueActual,
		draft.ReportTime,
		draft.MacroEventName, draft.Consensus, draft.ActualValue, draft.PreviousValue,
		draft.FilingType, draft.FilingURL,
		draft.AnalystFirm, draft.FromRating, draft.ToRating, draft.TargetPrice,
		nullString(draft.Source), draft.RawData,
	)
	if err != nil {
		return false, err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// TrackedTickers returns the distinct tickers across every user's
// watchlist. Scheduled jobs fetch data only for these.
func (a *Aggregator) TrackedTickers(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT DISTINCT ticker FROM watchlist ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("query tracked tickers: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	return tickers, rows.Err()
}
