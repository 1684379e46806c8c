// Package main provides the OU lookup bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/oulookup/oubot/internal/bot"
	"github.com/oulookup/oubot/internal/catalog"
	"github.com/oulookup/oubot/internal/config"
	"github.com/oulookup/oubot/internal/fetch"
	"github.com/oulookup/oubot/internal/logger"
	"github.com/oulookup/oubot/internal/metrics"
	"github.com/oulookup/oubot/internal/r2client"
	"github.com/oulookup/oubot/internal/replycache"
	"github.com/oulookup/oubot/internal/sentry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewWithOptions(cfg.LogLevel, logger.Options{
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})
	log.Info("Starting OU Lookup Bot")

	// Initialize error tracking
	if err := sentry.Initialize(sentry.Config{
		Token:       cfg.SentryToken,
		Host:        cfg.SentryHost,
		Environment: cfg.SentryEnvironment,
		Release:     cfg.SentryRelease,
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.Info("Sentry error tracking enabled")
	}

	// Create Prometheus registry
	registry := prometheus.NewRegistry()

	// Register Go and process collectors
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	// Create metrics
	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Load the seed cache before anything else; the resolver's first layer
	// depends on it.
	seed, err := loadSeed(cfg, log)
	if err != nil {
		log.WithError(err).Error("Failed to load seed cache")
		sentry.Flush(config.SentryFlush)
		os.Exit(1)
	}
	log.WithField("entries", seed.Len()).Info("Seed cache loaded")

	// Create the outbound HTTP client shared by SPARQL and archive lookups
	fetcher := fetch.NewClient(cfg.CatalogTimeout, cfg.FetchMaxRetries, cfg.FetchMinDelay)

	// Assemble the layered resolver: seed, current catalog, legacy catalog,
	// archive scrape
	sparqlClient := catalog.NewSparqlClient(cfg.SparqlEndpoint, fetcher, log)
	archiveScraper := catalog.NewArchiveScraper(cfg.ArchiveBaseURL, fetcher, log)
	resolver := catalog.NewResolver([]catalog.Layer{
		catalog.NewSeedLayer(seed, m),
		catalog.NewSparqlLayer(sparqlClient),
		catalog.NewSparqlLegacyLayer(sparqlClient),
		catalog.NewArchiveLayer(archiveScraper),
	}, m, log)

	liveness := catalog.NewLivenessChecker(
		cfg.LivenessTimeout,
		cfg.LivenessRetries,
		cfg.LivenessRetryDelay,
		cfg.CoursesBaseURL,
		m,
		log,
	)
	log.WithFields(map[string]any{
		"sparql_endpoint": cfg.SparqlEndpoint,
		"archive_base":    cfg.ArchiveBaseURL,
		"courses_base":    cfg.CoursesBaseURL,
	}).Info("Catalog resolver created")

	// Create Discord session and chat event handler
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		log.WithError(err).Error("Failed to create Discord session")
		sentry.Flush(config.SentryFlush)
		os.Exit(1)
	}

	handler := bot.NewHandler(
		cfg.Bot,
		resolver,
		liveness,
		bot.NewDiscordMessenger(session),
		replycache.New(cfg.Bot.ReplyCacheSize),
		m,
		log,
	)

	gateway := bot.NewGateway(session, handler, log)
	if err := gateway.Open(); err != nil {
		log.WithError(err).Error("Failed to connect to Discord gateway")
		sentry.Flush(config.SentryFlush)
		os.Exit(1)
	}
	log.Info("Discord gateway connected")

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router for the ops endpoints
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))

	// Setup routes
	setupRoutes(router, cfg, seed, gateway, registry)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.ServerHTTPRead,
		WriteTimeout: config.ServerHTTPWrite,
		IdleTimeout:  config.ServerHTTPIdle,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Ops server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Failed to start ops server")
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")

	// Disconnect from Discord first so no new events arrive mid-shutdown
	if err := gateway.Close(); err != nil {
		log.WithError(err).Error("Failed to close Discord gateway")
	}

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown server gracefully
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Ops server forced to shutdown")
	}

	sentry.Flush(config.SentryFlush)
	log.Info("Server stopped")
}

// loadSeed reads the seed cache from R2 when enabled, otherwise from the
// local seed file.
func loadSeed(cfg *config.Config, log *logger.Logger) (*catalog.Seed, error) {
	ctx, cancel := context.WithTimeout(context.Background(), config.SeedLoad)
	defer cancel()

	if cfg.R2.Enabled {
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2.Endpoint,
			AccessKeyID: cfg.R2.AccessKeyID,
			SecretKey:   cfg.R2.SecretKey,
			BucketName:  cfg.R2.BucketName,
		})
		if err != nil {
			return nil, err
		}
		log.WithField("bucket", cfg.R2.BucketName).
			WithField("key", cfg.R2.SeedKey).
			Info("Loading seed cache from R2")
		return catalog.LoadSeedObject(ctx, client, cfg.R2.SeedKey)
	}

	return catalog.LoadSeedFile(cfg.SeedPath)
}
