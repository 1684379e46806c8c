// Package config provides centralized timeout constants for the application.
//
// These values are tuned around the external endpoints the bot talks to:
//   - data.open.ac.uk SPARQL endpoint (occasionally slow, always cheap to retry)
//   - the Digital Archive pages (static HTML, fast)
//   - open.ac.uk course pages probed for liveness (redirect chains)
package config

import "time"

// Catalog lookup timeouts
const (
	// CatalogRequest is the timeout for a single SPARQL or archive-page request.
	// A lookup walks up to four layers sequentially, so each layer must stay
	// short to keep the total reply latency acceptable.
	CatalogRequest = 5 * time.Second

	// CatalogRetryInitial is the initial delay before retrying a failed
	// catalog request. Uses exponential backoff: 500ms -> 1s -> 2s
	CatalogRetryInitial = 500 * time.Millisecond
)

// Liveness check timeouts
const (
	// LivenessRequest is the timeout for a single liveness probe.
	// Probes follow redirects, so this covers the whole chain.
	LivenessRequest = 3 * time.Second

	// LivenessRetryDelay is the fixed delay between liveness retry attempts.
	// Keeps the probe from hammering open.ac.uk on transient failures.
	LivenessRetryDelay = 100 * time.Millisecond
)

// Ops HTTP server timeouts
const (
	// ServerHTTPRead is the HTTP server read timeout. All inbound requests
	// are small (health probes, metrics scrapes).
	ServerHTTPRead = 10 * time.Second

	// ServerHTTPWrite is the HTTP server write timeout.
	ServerHTTPWrite = 15 * time.Second

	// ServerHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	ServerHTTPIdle = 120 * time.Second
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	// Allows in-flight lookups to complete before forceful termination.
	GracefulShutdown = 30 * time.Second

	// SentryFlush is how long shutdown waits for buffered Sentry events.
	SentryFlush = 2 * time.Second
)

// Seed cache
const (
	// SeedLoad bounds the startup fetch of the seed cache, including a
	// potential R2 download and zstd decompression.
	SeedLoad = 30 * time.Second
)
