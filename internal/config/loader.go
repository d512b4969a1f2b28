package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML config file, expands ${VAR} environment variables, and
// applies defaults. An empty path returns the pure-default config, so the
// service runs without any config file at all.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	schedules := map[string][]string{
		"earnings":  c.Jobs.Earnings,
		"filings":   c.Jobs.Filings,
		"macro":     c.Jobs.Macro,
		"analyst":   c.Jobs.Analyst,
		"congress":  c.Jobs.Congress,
		"options":   c.Jobs.Options,
		"summaries": c.Jobs.Summaries,
	}
	for job, times := range schedules {
		for _, t := range times {
			if _, _, err := ParseClock(t); err != nil {
				return fmt.Errorf("job %s: %w", job, err)
			}
		}
	}
	return nil
}

// ParseClock parses an "HH:MM" UTC fire time.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock time %q, want HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
