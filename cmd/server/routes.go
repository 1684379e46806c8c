// Package main provides the OU lookup bot server entry point.
package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oulookup/oubot/internal/bot"
	"github.com/oulookup/oubot/internal/catalog"
	"github.com/oulookup/oubot/internal/config"
)

// setupRoutes configures all HTTP routes
func setupRoutes(router *gin.Engine, cfg *config.Config, seed *catalog.Seed, gateway *bot.Gateway, registry *prometheus.Registry) {
	// Root endpoint - redirect to the project page
	rootHandler := func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "https://github.com/oulookup/oubot")
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Liveness probe - only checks that the process is running
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe - full dependency check
	readyHandler := func(c *gin.Context) {
		if !gateway.Connected() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": "discord gateway not connected",
			})
			return
		}

		// Quick availability check of the SPARQL endpoint
		checkCtx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		sparqlAvailable := false
		req, _ := http.NewRequestWithContext(checkCtx, http.MethodHead, cfg.SparqlEndpoint, http.NoBody)
		if resp, err := http.DefaultClient.Do(req); err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode < 500 {
				sparqlAvailable = true
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "ready",
			"discord": "connected",
			"catalog": gin.H{
				"sparql": sparqlAvailable,
				"seed":   seed.Len(),
			},
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// Prometheus metrics endpoint, behind basic auth when a password is set
	metricsHandler := gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if cfg.MetricsPassword != "" {
		authorized := router.Group("/", gin.BasicAuth(gin.Accounts{
			cfg.MetricsUsername: cfg.MetricsPassword,
		}))
		authorized.GET("/metrics", metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}
