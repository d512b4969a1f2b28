package aggregator

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/ihaichao/stock-pulse/internal/models"
)

func fullEventColumns() []string {
	return []string{
		"id", "ticker", "event_type", "event_date", "title", "description",
		"importance", "status",
		"eps_estimate", "eps_actual", "revenue_estimate", "revenue_actual", "report_time",
		"macro_event_name", "consensus", "actual_value", "previous_value",
		"filing_type", "filing_url",
		"analyst_firm", "from_rating", "to_rating", "target_price",
		"ai_summary", "ai_detail", "source", "raw_data", "created_at", "updated_at",
	}
}

func addEventRow(rows *sqlmock.Rows, id uuid.UUID, ticker, title string, eventDate time.Time) *sqlmock.Rows {
	return rows.AddRow(
		id.String(), ticker, models.EventTypeEarnings, eventDate, title, nil,
		models.ImportanceMedium, models.StatusUpcoming,
		nil, nil, nil, nil, nil,
		nil, nil, nil, nil,
		nil, nil,
		nil, nil, nil, nil,
		nil, nil, "yahoo", []byte(`{"k":"v"}`), eventDate, eventDate,
	)
}

func TestPendingSummaries(t *testing.T) {
	agg, mock := newTestAggregator(t)

	id1 := uuid.New()
	id2 := uuid.New()
	eventDate := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(fullEventColumns())
	addEventRow(rows, id1, "AAPL", "AAPL Earnings Release", eventDate)
	addEventRow(rows, id2, "MSFT", "MSFT Earnings Release", eventDate.Add(-24*time.Hour))

	mock.ExpectQuery("WHERE ai_summary IS NULL").
		WithArgs(50).
		WillReturnRows(rows)

	events, err := agg.PendingSummaries(context.Background(), 50)
	if err != nil {
		t.Fatalf("PendingSummaries: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ID != id1 {
		t.Errorf("unexpected first event id: %s", events[0].ID)
	}
	if events[0].RawData["k"] != "v" {
		t.Errorf("raw_data did not scan: %v", events[0].RawData)
	}
}

func TestSaveSummary(t *testing.T) {
	agg, mock := newTestAggregator(t)

	id := uuid.New()
	mock.ExpectExec("UPDATE events SET ai_summary").
		WithArgs("Apple reports next month.", id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := agg.SaveSummary(context.Background(), id, "Apple reports next month."); err != nil {
		t.Fatalf("SaveSummary: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetEventNotFound(t *testing.T) {
	agg, mock := newTestAggregator(t)

	mock.ExpectQuery("FROM events WHERE id").
		WillReturnRows(sqlmock.NewRows(fullEventColumns()))

	event, err := agg.GetEvent(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if event != nil {
		t.Errorf("expected nil event, got %+v", event)
	}
}
