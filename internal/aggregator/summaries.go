package aggregator

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ihaichao/stock-pulse/internal/models"
)

// EventColumns is the canonical select list matching ScanEvent.
const EventColumns = `
	id, ticker, event_type, event_date, title, description, importance, status,
	eps_estimate, eps_actual, revenue_estimate, revenue_actual, report_time,
	macro_event_name, consensus, actual_value, previous_value,
	filing_type, filing_url,
	analyst_firm, from_rating, to_rating, target_price,
	ai_summary, ai_detail, source, raw_data, created_at, updated_at`

// ScanEvent reads a full event row. The query must select EventColumns
// in order.
func ScanEvent(row interface{ Scan(...interface{}) error }) (*models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID, &event.Ticker, &event.EventType, &event.EventDate,
		&event.Title, &event.Description, &event.Importance, &event.Status,
		&event.EPSEstimate, &event.EPSActual, &event.RevenueEstimate,
		&event.RevenueActual, &event.ReportTime,
		&event.MacroEventName, &event.Consensus, &event.ActualValue,
		&event.PreviousValue,
		&event.FilingType, &event.FilingURL,
		&event.AnalystFirm, &event.FromRating, &event.ToRating, &event.TargetPrice,
		&event.AISummary, &event.AIDetail, &event.Source, &event.RawData,
		&event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// PendingSummaries returns recent events that still lack an AI summary,
// newest first. The daily summary job works through this backlog.
func (a *Aggregator) PendingSummaries(ctx context.Context, limit int) ([]*models.Event, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT `+EventColumns+`
		FROM events
		WHERE ai_summary IS NULL
		ORDER BY event_date DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending summaries: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		event, err := ScanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// SaveSummary stores the generated list-view summary for an event.
func (a *Aggregator) SaveSummary(ctx context.Context, id uuid.UUID, summary string) error {
	_, err := a.db.ExecContext(ctx, `
		UPDATE events SET ai_summary = $1, updated_at = NOW() WHERE id = $2`,
		summary, id)
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return nil
}

// SaveDetail stores the generated detail-page explanation for an event.
func (a *Aggregator) SaveDetail(ctx context.Context, id uuid.UUID, detail string) error {
	_, err := a.db.ExecContext(ctx, `
		UPDATE events SET ai_detail = $1, updated_at = NOW() WHERE id = $2`,
		detail, id)
	if err != nil {
		return fmt.Errorf("save detail: %w", err)
	}
	return nil
}

// GetEvent fetches a single event by id, or nil when it does not exist.
func (a *Aggregator) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := ScanEvent(a.db.QueryRowContext(ctx, `
		SELECT `+EventColumns+`
		FROM events WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return event, nil
}
