package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ihaichao/stock-pulse/internal/models"
)

type upgradeDowngradeEntry struct {
	Symbol    string `json:"symbol"`
	GradeTime int64  `json:"gradeTime"`
	Company   string `json:"company"`
	FromGrade string `json:"fromGrade"`
	ToGrade   string `json:"toGrade"`
	Action    string `json:"action"`
}

// FetchAnalystRatings returns recent analyst rating changes for a ticker
// as completed events, newest first, capped at maxPerTicker entries
// inside the lookback window.
func (c *FinnhubClient) FetchAnalystRatings(ctx context.Context, ticker string, window time.Duration, maxPerTicker int) ([]models.Draft, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	ticker = strings.ToUpper(ticker)
	now := time.Now().UTC()
	cutoff := now.Add(-window)

	params := url.Values{}
	params.Set("symbol", ticker)
	params.Set("from", cutoff.Format("2006-01-02"))
	params.Set("to", now.Format("2006-01-02"))

	var entries []upgradeDowngradeEntry
	if err := c.get(ctx, "/stock/upgrade-downgrade", params, &entries); err != nil {
		return nil, err
	}

	var drafts []models.Draft
	for _, entry := range entries {
		eventDate := time.Unix(entry.GradeTime, 0).UTC()
		if eventDate.Before(cutoff) {
			continue
		}

		firm := entry.Company
		if firm == "" {
			firm = "Unknown"
		}
		action := describeRatingAction(entry.Action)

		drafts = append(drafts, models.Draft{
			Ticker:      ticker,
			EventType:   models.EventTypeAnalystRating,
			EventDate:   eventDate,
			Title:       fmt.Sprintf("%s %s: %s", ticker, action, firm),
			Description: analystDesc(ticker, firm, action, entry.FromGrade, entry.ToGrade),
			Importance:  classifyRatingImportance(entry.Action),
			Status:      models.StatusCompleted,
			AnalystFirm: strPtr(firm),
			FromRating:  strPtr(entry.FromGrade),
			ToRating:    strPtr(entry.ToGrade),
			Source:      "finnhub",
			RawData: models.JSONB{
				"firm":       firm,
				"action":     entry.Action,
				"from_grade": entry.FromGrade,
				"to_grade":   entry.ToGrade,
			},
		})

		if maxPerTicker > 0 && len(drafts) >= maxPerTicker {
			break
		}
	}

	return drafts, nil
}

func describeRatingAction(action string) string {
	switch strings.ToLower(action) {
	case "upgrade", "up":
		return "Rating Upgrade"
	case "downgrade", "down":
		return "Rating Downgrade"
	case "init":
		return "Initiated Coverage"
	case "reiterated":
		return "Rating Reiterated"
	default:
		return "Rating Change"
	}
}

func classifyRatingImportance(action string) string {
	switch strings.ToLower(action) {
	case "upgrade", "downgrade", "up", "down", "init":
		return models.ImportanceMedium
	default:
		return models.ImportanceLow
	}
}

func analystDesc(ticker, firm, action, fromGrade, toGrade string) string {
	switch {
	case fromGrade != "" && toGrade != "":
		return fmt.Sprintf("%s moved %s from %s to %s (%s).", firm, ticker, fromGrade, toGrade, action)
	case toGrade != "":
		return fmt.Sprintf("%s rated %s as %s (%s).", firm, ticker, toGrade, action)
	default:
		return fmt.Sprintf("%s issued a rating change for %s.", firm, ticker)
	}
}
