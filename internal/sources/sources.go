package sources

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Each provider gets its own small client. Clients return an empty slice
// when the provider has nothing for a ticker; only transport and HTTP
// status failures surface as errors, so the caller can tell "no data"
// from "provider down".

func decodeResponse(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}
