package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.UpcomingTTL != 30*time.Minute {
		t.Errorf("expected 30m upcoming TTL, got %v", cfg.Cache.UpcomingTTL)
	}
	if cfg.Cache.MacroMonthTTL != 6*time.Hour {
		t.Errorf("expected 6h macro TTL, got %v", cfg.Cache.MacroMonthTTL)
	}
	if len(cfg.Jobs.Earnings) != 2 || cfg.Jobs.Earnings[0] != "06:00" {
		t.Errorf("unexpected earnings schedule: %v", cfg.Jobs.Earnings)
	}
	if cfg.Sources.FinnhubBaseURL != DefaultFinnhubBaseURL {
		t.Errorf("unexpected finnhub base url: %s", cfg.Sources.FinnhubBaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pulse.yaml")
	content := `
jobs:
  earnings: ["05:30"]
cache:
  today_ttl: 5m
sources:
  finnhub_base_url: http://localhost:9999
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Jobs.Earnings) != 1 || cfg.Jobs.Earnings[0] != "05:30" {
		t.Errorf("override not applied: %v", cfg.Jobs.Earnings)
	}
	if cfg.Cache.TodayTTL != 5*time.Minute {
		t.Errorf("expected 5m today TTL, got %v", cfg.Cache.TodayTTL)
	}
	if cfg.Cache.UpcomingTTL != 30*time.Minute {
		t.Errorf("default should survive partial override, got %v", cfg.Cache.UpcomingTTL)
	}
	if cfg.Sources.FinnhubBaseURL != "http://localhost:9999" {
		t.Errorf("unexpected finnhub base url: %s", cfg.Sources.FinnhubBaseURL)
	}
}

func TestLoadRejectsBadSchedule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pulse.yaml")
	if err := os.WriteFile(path, []byte("jobs:\n  macro: [\"25:00\"]\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid fire time")
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("06:30")
	if err != nil || h != 6 || m != 30 {
		t.Fatalf("ParseClock(06:30) = %d,%d,%v", h, m, err)
	}
	if _, _, err := ParseClock("6"); err == nil {
		t.Fatal("expected error for missing minutes")
	}
	if _, _, err := ParseClock("12:60"); err == nil {
		t.Fatal("expected error for minute out of range")
	}
}
