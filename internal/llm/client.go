package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ihaichao/stock-pulse/internal/models"
)

// Client generates event summaries and detailed explanations through a
// single HTTP completion endpoint. An empty endpoint disables the
// client; both methods then return empty without error, and callers
// simply leave the AI fields null.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	Endpoint string
	Timeout  time.Duration
}

// NewClient creates a new completion client.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Enabled reports whether an endpoint is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

type completionRequest struct {
	Prompt string `json:"prompt"`
}

type completionResponse struct {
	Text string `json:"text"`
}

// Summarize returns a 1-3 sentence summary for an event, suited for
// list views.
func (c *Client) Summarize(ctx context.Context, event *models.Event) (string, error) {
	if !c.Enabled() {
		return "", nil
	}
	return c.complete(ctx, summaryPrompt(event))
}

// Explain returns a multi-paragraph explanation for the event detail
// page.
func (c *Client) Explain(ctx context.Context, event *models.Event) (string, error) {
	if !c.Enabled() {
		return "", nil
	}
	return c.complete(ctx, detailPrompt(event))
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, string(snippet))
	}

	var parsed completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode completion: %w", err)
	}
	return parsed.Text, nil
}

func eventContext(event *models.Event) string {
	data, err := json.Marshal(event)
	if err != nil {
		return event.Title
	}
	return string(data)
}

const summaryPreamble = "You are a US stock market assistant. Do not give buy or sell advice. Keep the language plain and direct.\n"

func summaryPrompt(event *models.Event) string {
	context := eventContext(event)

	switch event.EventType {
	case models.EventTypeEarnings:
		return summaryPreamble +
			"Summarize the following earnings event in 1-3 sentences for a retail investor.\n\n" +
			"Event data:\n" + context + "\n\n" +
			"Guidance:\n" +
			"- For an upcoming report: state the expected EPS/revenue and what to watch\n" +
			"- For a published report: state actual vs estimate and whether it beat or missed"
	case models.EventTypeMacro:
		return summaryPreamble +
			"Summarize the following macroeconomic event in 1-2 sentences.\n\n" +
			"Event data:\n" + context + "\n\n" +
			"Guidance:\n" +
			"- Explain why this release matters\n" +
			"- If an actual value is published, compare it against consensus"
	case models.EventTypeInsider:
		return summaryPreamble +
			"Summarize the following insider transaction in 1-2 sentences.\n\n" +
			"Event data:\n" + context + "\n\n" +
			"Guidance:\n" +
			"- State who traded and roughly at what scale\n" +
			"- Note what insider trades usually signal, stressing the uncertainty"
	case models.EventTypeAnalystRating:
		return summaryPreamble +
			"Summarize the following analyst rating change in 1-2 sentences.\n\n" +
			"Event data:\n" + context + "\n\n" +
			"Guidance:\n" +
			"- Name the firm and the rating move\n" +
			"- Mention the price target change if present"
	case models.EventTypeCongressTrade:
		return summaryPreamble +
			"Summarize the following congressional trade in 1-2 sentences.\n\n" +
			"Event data:\n" + context + "\n\n" +
			"Guidance:\n" +
			"- State which member traded, the direction, and the amount range\n" +
			"- Briefly note why the trade may be worth attention"
	case models.EventTypeUnusualOptions:
		return summaryPreamble +
			"Summarize the following unusual options activity signal in 1-2 sentences.\n\n" +
			"Event data:\n" + context + "\n\n" +
			"Guidance:\n" +
			"- State whether the signal is bullish or bearish\n" +
			"- Cite the key numbers (put/call ratio, volume)\n" +
			"- Stress that this is a data signal, not a guaranteed move"
	default:
		return summaryPreamble +
			"Summarize the following market event in 1-2 sentences.\n\n" +
			"Event data:\n" + context
	}
}

func detailPrompt(event *models.Event) string {
	return summaryPreamble +
		"Write a detailed explanation (3-5 paragraphs) of the following event for an " +
		"experienced but non-professional retail investor.\n\n" +
		"Event data:\n" + eventContext(event) + "\n\n" +
		"Structure the output as:\n\n" +
		"[Overview]\nOne or two sentences on the core of the event.\n\n" +
		"[Background and context]\nHistorical trend, sector environment, recent related developments.\n\n" +
		"[Potential impact]\nPossible effect on the stock or market, covering both an optimistic and a pessimistic scenario.\n\n" +
		"[Risks to watch]\nWhat investors should pay attention to, including easily missed pitfalls.\n\n" +
		"Do not promise that the price will rise or fall."
}
