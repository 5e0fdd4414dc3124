package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Pathwatch/internal/api/twelvedata"
	"github.com/Alias1177/Pathwatch/internal/config"
	"github.com/Alias1177/Pathwatch/internal/database"
	"github.com/Alias1177/Pathwatch/internal/live"
	"github.com/Alias1177/Pathwatch/internal/market"
	"github.com/Alias1177/Pathwatch/internal/notifier"
	"github.com/Alias1177/Pathwatch/internal/render"
)

func main() {
	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	setupSignalHandling(cancel)

	// 1. Load configuration; invalid options fail before any ensemble exists
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// 2. Configure logging
	setupLogging(cfg.LogLevel)
	log.Info().Msg("Starting Pathwatch live forecaster")
	printConfig(cfg)

	// 3. Market calendar for starting-price resolution
	calendar, err := market.NewCalendar()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load market calendar")
	}

	// 4. Data source client
	tdClient := twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         cfg.TwelveAPIKey,
		RequestTimeout: cfg.FetchTimeout,
		RequestsPerSec: 5,
	})

	// 5. Snapshot sinks
	renderers := buildRenderers(cfg)

	// 6. Metrics endpoint
	var metrics *live.Metrics
	if cfg.MetricsAddr != "" {
		metrics = live.NewMetrics()
		go serveMetrics(cfg.MetricsAddr, metrics)
	}

	// 7. Run the live loop
	updater := live.NewUpdater(cfg, tdClient, tdClient, calendar, renderers, metrics)
	if err := updater.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Initialization failed")
	}
	if err := updater.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("Live loop failed")
	}
}

// setupSignalHandling configures signal handling for graceful shutdown
func setupSignalHandling(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		log.Info().Msg("Shutdown signal received, stopping at next tick boundary...")
		cancel()
	}()
}

// setupLogging configures the logger
func setupLogging(logLevel string) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(output)

	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log.Logger = log.Logger.Level(level)
}

// printConfig outputs the current configuration
func printConfig(cfg *config.Config) {
	log.Info().
		Str("Symbol", cfg.Symbol).
		Int("NumPaths", cfg.NumPaths).
		Float64("Tolerance", cfg.Tolerance).
		Int("HorizonSteps", cfg.HorizonSteps).
		Dur("StepInterval", cfg.StepInterval).
		Dur("UpdateInterval", cfg.UpdateInterval).
		Dur("HistoryLookback", cfg.HistoryLookback).
		Dur("HistoryInterval", cfg.HistoryInterval).
		Int64("Seed", cfg.Seed).
		Str("StartingPriceMode", string(cfg.StartingPriceMode)).
		Bool("MultiTimeframe", cfg.MultiTimeframe).
		Bool("Recorder", cfg.RecorderEnabled()).
		Bool("Telegram", cfg.TelegramEnabled()).
		Msg("Configuration loaded")
}

// buildRenderers assembles the snapshot sinks: console always, Postgres
// recorder and Telegram alerts when configured
func buildRenderers(cfg *config.Config) []render.Renderer {
	renderers := []render.Renderer{render.NewConsole()}

	if cfg.RecorderEnabled() {
		db, err := database.New(database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Error().Err(err).Msg("Snapshot recorder unavailable, continuing without persistence")
		} else {
			renderers = append(renderers, db)
			log.Info().Msg("Snapshot recorder enabled")
		}
	}

	if cfg.TelegramEnabled() {
		tg, err := notifier.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Error().Err(err).Msg("Telegram notifier unavailable, continuing without alerts")
		} else {
			renderers = append(renderers, tg)
			log.Info().Msg("Telegram alerts enabled")
		}
	}

	return renderers
}

// serveMetrics exposes the Prometheus registry
func serveMetrics(addr string, metrics *live.Metrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	log.Info().Str("addr", addr).Msg("Metrics endpoint listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error().Err(err).Msg("Metrics endpoint failed")
	}
}
