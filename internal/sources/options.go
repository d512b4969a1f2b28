package sources

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/ihaichao/stock-pulse/internal/models"
)

// Thresholds for flagging aggregate option flow as unusual.
const (
	minOptionVolume    = 1000
	unusualVolOIRatio  = 1.5
	bearishPCThreshold = 2.0
	bullishPCThreshold = 0.3
)

type optionChainResponse struct {
	Data []struct {
		ExpirationDate string `json:"expirationDate"`
		Options        struct {
			Call []optionContract `json:"CALL"`
			Put  []optionContract `json:"PUT"`
		} `json:"options"`
	} `json:"data"`
}

type optionContract struct {
	Volume       int64 `json:"volume"`
	OpenInterest int64 `json:"openInterest"`
}

// FetchUnusualOptions inspects the nearest-expiry option chain for a
// ticker and emits at most one completed event when the aggregate flow
// looks unusual: an extreme put/call ratio or volume far above open
// interest. A 403 from the provider means the chain is behind a paid
// tier; that yields empty, not an error.
func (c *FinnhubClient) FetchUnusualOptions(ctx context.Context, ticker string) ([]models.Draft, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	ticker = strings.ToUpper(ticker)
	params := url.Values{}
	params.Set("symbol", ticker)

	var parsed optionChainResponse
	if err := c.get(ctx, "/stock/option-chain", params, &parsed); err != nil {
		if strings.Contains(err.Error(), "status 403") {
			return nil, nil
		}
		return nil, err
	}

	if len(parsed.Data) == 0 {
		return nil, nil
	}

	nearest := parsed.Data[0]
	var callVolume, putVolume, callOI, putOI int64
	for _, contract := range nearest.Options.Call {
		callVolume += contract.Volume
		callOI += contract.OpenInterest
	}
	for _, contract := range nearest.Options.Put {
		putVolume += contract.Volume
		putOI += contract.OpenInterest
	}

	totalVolume := callVolume + putVolume
	totalOI := callOI + putOI
	if totalOI == 0 || totalVolume < minOptionVolume {
		return nil, nil
	}

	volOIRatio := float64(totalVolume) / float64(totalOI)
	pcRatio := 0.0
	if callVolume > 0 {
		pcRatio = float64(putVolume) / float64(callVolume)
	}

	if volOIRatio <= unusualVolOIRatio && pcRatio <= bearishPCThreshold && pcRatio >= bullishPCThreshold {
		return nil, nil
	}

	var signal, desc string
	importance := models.ImportanceMedium
	switch {
	case pcRatio > bearishPCThreshold:
		signal = "Bearish Signal"
		importance = models.ImportanceHigh
		desc = fmt.Sprintf(
			"Unusual bearish option flow in %s: put/call ratio %.2f, put volume %d, call volume %d.",
			ticker, pcRatio, putVolume, callVolume)
	case pcRatio < bullishPCThreshold:
		signal = "Bullish Signal"
		importance = models.ImportanceHigh
		desc = fmt.Sprintf(
			"Unusual bullish option flow in %s: put/call ratio %.2f, call volume %d, put volume %d.",
			ticker, pcRatio, callVolume, putVolume)
	default:
		signal = "Elevated Activity"
		desc = fmt.Sprintf(
			"Unusually active options in %s: total volume %d, open interest %d, vol/OI ratio %.2f.",
			ticker, totalVolume, totalOI, volOIRatio)
	}

	return []models.Draft{{
		Ticker:      ticker,
		EventType:   models.EventTypeUnusualOptions,
		EventDate:   time.Now().UTC(),
		Title:       fmt.Sprintf("%s Unusual Options Activity - %s", ticker, signal),
		Description: desc,
		Importance:  importance,
		Status:      models.StatusCompleted,
		Source:      "finnhub_options",
		RawData: models.JSONB{
			"call_volume":  callVolume,
			"put_volume":   putVolume,
			"call_oi":      callOI,
			"put_oi":       putOI,
			"vol_oi_ratio": math.Round(volOIRatio*100) / 100,
			"pc_ratio":     math.Round(pcRatio*100) / 100,
		},
	}}, nil
}
