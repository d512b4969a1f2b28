package main

import (
	"context"
	"database/sql"
	"io/fs"
	"sort"

	appconfig "github.com/ihaichao/stock-pulse/internal/config"

	"github.com/ihaichao/stock-pulse/internal/aggregator"
	"github.com/ihaichao/stock-pulse/internal/cache"
	"github.com/ihaichao/stock-pulse/internal/handlers"
	"github.com/ihaichao/stock-pulse/internal/jobs"
	"github.com/ihaichao/stock-pulse/internal/llm"
	"github.com/ihaichao/stock-pulse/internal/sources"
	"github.com/ihaichao/stock-pulse/pkg/config"
	"github.com/ihaichao/stock-pulse/pkg/database"
	dbsql "github.com/ihaichao/stock-pulse/pkg/database/sql"
	"github.com/ihaichao/stock-pulse/pkg/logging"
	"github.com/ihaichao/stock-pulse/pkg/monitoring"
	"github.com/ihaichao/stock-pulse/pkg/redis"
	"github.com/ihaichao/stock-pulse/pkg/server"
	"github.com/ihaichao/stock-pulse/pkg/version"
)

func main() {
	// Setup logger
	logger := logging.NewLoggerWithService("pulse")

	// Load environment variables
	config.LoadEnv(logger)

	logger.Info("Starting Stock Pulse")

	dbURL := config.RequireEnv("DATABASE_URL")
	redisURL := config.GetEnv("REDIS_URL", "")
	serviceToken := config.GetEnv("SERVICE_TOKEN", "")
	finnhubKey := config.GetEnv("FINNHUB_API_KEY", "")
	llmEndpoint := config.GetEnv("STOCK_PULSE_LLM_ENDPOINT", "")

	cfg, err := appconfig.Load(config.GetEnv("PULSE_CONFIG", ""))
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	// Connect to database
	dbConfig := database.DefaultConfig()
	dbConfig.URL = dbURL
	db := database.MustConnect(dbConfig, logger)
	defer db.Close()

	if config.GetEnvBool("DB_APPLY_SCHEMA", false) {
		if err := applySchema(db); err != nil {
			logger.WithError(err).Fatal("Failed to apply database schema")
		}
		logger.Info("Database schema applied")
	}

	// Setup monitoring
	healthChecker := monitoring.NewHealthChecker("pulse", version.Version)
	metricsCollector := monitoring.NewMetricsCollector("pulse", version.Version, version.GitCommit)
	healthChecker.AddCheck("database", monitoring.DatabaseHealthCheck(db))
	healthChecker.AddCheck("config", monitoring.ConfigurationHealthCheck(map[string]string{
		"DATABASE_URL": dbURL,
	}))

	// Redis is optional: without it the read views go straight to Postgres.
	appCache := cache.New(nil, logger)
	if redisURL != "" {
		redisClient, err := redis.NewClientFromURL(context.Background(), redisURL)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()
		appCache = cache.New(redisClient, logger)
		healthChecker.AddCheck("redis", monitoring.RedisHealthCheck(redisClient))
	} else {
		logger.Warn("REDIS_URL not set, response caching disabled")
	}

	// Provider clients
	yahoo := sources.NewYahooClient(sources.YahooConfig{
		BaseURL: cfg.Sources.YahooBaseURL,
		Timeout: cfg.Sources.FetchTimeout,
	})
	edgar := sources.NewEdgarClient(sources.EdgarConfig{
		BaseURL:      cfg.Sources.EdgarBaseURL,
		TickersURL:   cfg.Sources.EdgarTickersURL,
		MaxPerTicker: cfg.Sources.MaxPerTicker,
		Timeout:      cfg.Sources.FetchTimeout,
	})
	finnhub := sources.NewFinnhubClient(sources.FinnhubConfig{
		BaseURL: cfg.Sources.FinnhubBaseURL,
		APIKey:  finnhubKey,
		Timeout: cfg.Sources.FetchTimeout,
	})
	congress := sources.NewCongressClient(sources.CongressConfig{
		BaseURL:  cfg.Sources.CapitolBaseURL,
		Window:   cfg.Sources.CongressWindow,
		PageSize: cfg.Sources.CongressPerPage,
		Timeout:  cfg.Sources.FetchTimeout,
	})
	if finnhubKey == "" {
		logger.Warn("FINNHUB_API_KEY not set, macro/analyst/options ingestion disabled")
	}

	summarizer := llm.NewClient(llm.Config{Endpoint: llmEndpoint})
	if !summarizer.Enabled() {
		logger.Warn("STOCK_PULSE_LLM_ENDPOINT not set, AI summaries disabled")
	}

	agg := aggregator.New(db, logger)

	jobManager := jobs.NewJobManager(agg, jobs.Sources{
		Earnings: yahoo,
		Filings:  edgar,
		Macro:    finnhub,
		Analyst:  finnhub,
		Congress: congress,
		Options:  finnhub,
	}, summarizer, cfg, logger, metricsCollector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobManager.Start(ctx)
	defer jobManager.Stop()
	logger.WithField("jobs", jobManager.JobNames()).Info("Job manager started")

	// Setup router with unified monitoring
	router := server.SetupServiceRouter(logger, "pulse", healthChecker, metricsCollector)

	h := handlers.New(db, agg, appCache, yahoo, summarizer, jobManager, cfg, logger, serviceToken)
	h.RegisterRoutes(router)

	// Start server with graceful shutdown
	serverConfig := server.DefaultConfig("pulse", "18080")
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Server startup failed")
	}
}

// applySchema runs the embedded schema files in name order. Meant for
// dev and test databases; production migrations run out of band.
func applySchema(db *sql.DB) error {
	entries, err := fs.ReadDir(dbsql.Content, "schema")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		stmt, err := fs.ReadFile(dbsql.Content, "schema/"+name)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(stmt)); err != nil {
			return err
		}
	}
	return nil
}
