package aggregator

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"

	"github.com/ihaichao/stock-pulse/internal/models"
)

func newTestAggregator(t *testing.T) (*Aggregator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(db, logger), mock
}

func existingRowColumns() []string {
	return []string{"id", "eps_actual", "revenue_actual", "actual_value", "description", "status"}
}

func float64Ptr(f float64) *float64 { return &f }

func TestIngestBatchInsertsOnMiss(t *testing.T) {
	agg, mock := newTestAggregator(t)

	eventDate := time.Date(2026, 9, 10, 20, 0, 0, 0, time.UTC)
	dayStart := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	mock.ExpectQuery("SELECT id, eps_actual, revenue_actual, actual_value, description, status").
		WithArgs(models.EventTypeEarnings, "AAPL Earnings Release", dayStart, dayEnd, "AAPL").
		WillReturnRows(sqlmock.NewRows(existingRowColumns()))

	mock.ExpectExec("INSERT INTO events").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := agg.IngestBatch(context.Background(), []models.Draft{{
		Ticker:      "AAPL",
		EventType:   models.EventTypeEarnings,
		EventDate:   eventDate,
		Title:       "AAPL Earnings Release",
		EPSEstimate: float64Ptr(1.85),
	}})
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}
	if result.Inserted != 1 || result.Merged != 0 || result.Skipped != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestIngestBatchFillOnlyMerge(t *testing.T) {
	agg, mock := newTestAggregator(t)

	eventDate := time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC)
	id := "7a6e26a9-24a4-4b94-9899-74af3e3d6da1"

	// Stored row has an estimate but no actual yet and is still upcoming.
	mock.ExpectQuery("SELECT id, eps_actual, revenue_actual, actual_value, description, status").
		WillReturnRows(sqlmock.NewRows(existingRowColumns()).
			AddRow(id, nil, nil, nil, "Apple is scheduled to report earnings.", models.StatusUpcoming))

	mock.ExpectExec("UPDATE events").
		WithArgs(
			sql.NullFloat64{Float64: 1.62, Valid: true},
			sql.NullInt64{},
			sql.NullString{},
			sql.NullString{String: "Apple is scheduled to report earnings.", Valid: true},
			models.StatusCompleted,
			id,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := agg.IngestBatch(context.Background(), []models.Draft{{
		Ticker:      "AAPL",
		EventType:   models.EventTypeEarnings,
		EventDate:   eventDate,
		Title:       "AAPL Earnings Release",
		Status:      models.StatusCompleted,
		EPSActual:   float64Ptr(1.62),
		Description: "Apple reported earnings.",
	}})
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}
	if result.Merged != 1 {
		t.Errorf("expected 1 merge, got %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestIngestBatchNeverOverwritesActuals(t *testing.T) {
	agg, mock := newTestAggregator(t)

	id := "7a6e26a9-24a4-4b94-9899-74af3e3d6da1"

	// Stored row already carries an actual; the draft's differing value
	// must not replace it, and completed status must not regress.
	mock.ExpectQuery("SELECT id, eps_actual, revenue_actual, actual_value, description, status").
		WillReturnRows(sqlmock.NewRows(existingRowColumns()).
			AddRow(id, 1.62, nil, nil, "Original description.", models.StatusCompleted))

	mock.ExpectExec("UPDATE events").
		WithArgs(
			sql.NullFloat64{Float64: 1.62, Valid: true},
			sql.NullInt64{},
			sql.NullString{},
			sql.NullString{String: "Original description.", Valid: true},
			models.StatusCompleted,
			id,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := agg.IngestBatch(context.Background(), []models.Draft{{
		Ticker:      "AAPL",
		EventType:   models.EventTypeEarnings,
		EventDate:   time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC),
		Title:       "AAPL Earnings Release",
		Status:      models.StatusUpcoming,
		EPSActual:   float64Ptr(9.99),
		Description: "Conflicting description.",
	}})
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}
	if result.Merged != 1 {
		t.Errorf("expected 1 merge, got %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestIngestBatchNoNewDataStillTouchesRow(t *testing.T) {
	agg, mock := newTestAggregator(t)

	id := "7a6e26a9-24a4-4b94-9899-74af3e3d6da1"

	mock.ExpectQuery("SELECT id, eps_actual, revenue_actual, actual_value, description, status").
		WillReturnRows(sqlmock.NewRows(existingRowColumns()).
			AddRow(id, 1.62, int64(95000000000), nil, "Done.", models.StatusCompleted))

	// Nothing fills, but updated_at still refreshes.
	mock.ExpectExec("UPDATE events").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := agg.IngestBatch(context.Background(), []models.Draft{{
		Ticker:    "AAPL",
		EventType: models.EventTypeEarnings,
		EventDate: time.Date(2026, 6, 11, 0, 0, 0, 0, time.UTC),
		Title:     "AAPL Earnings Release",
		Status:    models.StatusCompleted,
	}})
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}
	if result.Merged != 1 {
		t.Errorf("expected 1 merge, got %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestIngestBatchSkipsMissingDate(t *testing.T) {
	agg, mock := newTestAggregator(t)

	result, err := agg.IngestBatch(context.Background(), []models.Draft{{
		Ticker:    "AAPL",
		EventType: models.EventTypeEarnings,
		Title:     "AAPL Earnings Release",
	}})
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}
	if result.Skipped != 1 || result.Inserted != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestIngestBatchMacroMatchesNullTicker(t *testing.T) {
	agg, mock := newTestAggregator(t)

	dayStart := time.Date(2026, 9, 11, 0, 0, 0, 0, time.UTC)

	// A macro draft has no ticker, so the lookup binds only four args
	// and matches on ticker IS NULL.
	mock.ExpectQuery("ticker IS NULL").
		WithArgs(models.EventTypeMacro, "CPI (YoY)", dayStart, dayStart.Add(24*time.Hour)).
		WillReturnRows(sqlmock.NewRows(existingRowColumns()))

	mock.ExpectExec("INSERT INTO events").
		WillReturnResult(sqlmock.NewResult(0, 1))

	result, err := agg.IngestBatch(context.Background(), []models.Draft{{
		EventType: models.EventTypeMacro,
		EventDate: time.Date(2026, 9, 11, 12, 30, 0, 0, time.UTC),
		Title:     "CPI (YoY)",
	}})
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}
	if result.Inserted != 1 {
		t.Errorf("unexpected result: %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestIngestBatchInsertRaceCountsAsSkip(t *testing.T) {
	agg, mock := newTestAggregator(t)

	mock.ExpectQuery("SELECT id, eps_actual, revenue_actual, actual_value, description, status").
		WillReturnRows(sqlmock.NewRows(existingRowColumns()))

	// ON CONFLICT DO NOTHING swallowed the insert: another writer won.
	mock.ExpectExec("INSERT INTO events").
		WillReturnResult(sqlmock.NewResult(0, 0))

	result, err := agg.IngestBatch(context.Background(), []models.Draft{{
		Ticker:    "AAPL",
		EventType: models.EventTypeEarnings,
		EventDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
		Title:     "AAPL Earnings Release",
	}})
	if err != nil {
		t.Fatalf("IngestBatch: %v", err)
	}
	if result.Skipped != 1 || result.Inserted != 0 {
		t.Errorf("unexpected result: %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestIngestBatchAbortsOnStoreFailure(t *testing.T) {
	agg, mock := newTestAggregator(t)

	// First draft lands.
	mock.ExpectQuery("SELECT id, eps_actual, revenue_actual, actual_value, description, status").
		WillReturnRows(sqlmock.NewRows(existingRowColumns()))
	mock.ExpectExec("INSERT INTO events").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Second draft hits a dead store; the rest of the batch is abandoned.
	mock.ExpectQuery("SELECT id, eps_actual, revenue_actual, actual_value, description, status").
		WillReturnError(errors.New("connection refused"))

	drafts := []models.Draft{
		{
			Ticker:    "AAPL",
			EventType: models.EventTypeEarnings,
			EventDate: time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC),
			Title:     "AAPL Earnings Release",
		},
		{
			Ticker:    "MSFT",
			EventType: models.EventTypeEarnings,
			EventDate: time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
			Title:     "MSFT Earnings Release",
		},
		{
			Ticker:    "NVDA",
			EventType: models.EventTypeEarnings,
			EventDate: time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC),
			Title:     "NVDA Earnings Release",
		},
	}

	result, err := agg.IngestBatch(context.Background(), drafts)
	if err == nil {
		t.Fatal("expected store error to surface")
	}
	if result.Inserted != 1 {
		t.Errorf("partial result should keep applied work: %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestTrackedTickers(t *testing.T) {
	agg, mock := newTestAggregator(t)

	mock.ExpectQuery("SELECT DISTINCT ticker FROM watchlist").
		WillReturnRows(sqlmock.NewRows([]string{"ticker"}).
			AddRow("AAPL").AddRow("MSFT").AddRow("NVDA"))

	tickers, err := agg.TrackedTickers(context.Background())
	if err != nil {
		t.Fatalf("TrackedTickers: %v", err)
	}
	if len(tickers) != 3 || tickers[0] != "AAPL" {
		t.Errorf("unexpected tickers: %v", tickers)
	}
}
