package catalog

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	domerrors "github.com/oulookup/oubot/internal/errors"
	"github.com/oulookup/oubot/internal/logger"
	"github.com/oulookup/oubot/internal/metrics"
)

// Layer resolves a code against one catalog source.
// A (nil, nil) return is a miss; errors are recoverable and mean "this layer
// had nothing to say", never "abort the lookup".
type Layer interface {
	Name() string
	TryResolve(ctx context.Context, code string) (*Result, error)
}

// Resolver walks an ordered list of layers and short-circuits on the first
// hit. Concurrent lookups of the same code are collapsed with singleflight.
type Resolver struct {
	layers  []Layer
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewResolver creates a resolver over the given layers, consulted in order.
func NewResolver(layers []Layer, m *metrics.Metrics, log *logger.Logger) *Resolver {
	return &Resolver{
		layers:  layers,
		metrics: m,
		logger:  log.WithModule("catalog"),
	}
}

// Resolve looks up a code. Returns ErrNotFound when every layer misses.
func (r *Resolver) Resolve(ctx context.Context, code string) (Result, error) {
	code = strings.ToUpper(code)

	value, err, shared := r.group.Do(code, func() (any, error) {
		return r.resolve(ctx, code)
	})
	if shared {
		r.metrics.RecordSingleflightDedup()
	}
	if err != nil {
		return Result{}, err
	}
	return value.(Result), nil
}

func (r *Resolver) resolve(ctx context.Context, code string) (Result, error) {
	log := r.logger.WithField("code", code)

	for _, layer := range r.layers {
		start := time.Now()
		result, err := layer.TryResolve(ctx, code)
		duration := time.Since(start).Seconds()

		if err != nil {
			log.WithError(err).WithField("layer", layer.Name()).Warn("Catalog layer failed, trying next")
			r.metrics.RecordLookup(layer.Name(), "error", duration)
			continue
		}
		if result != nil {
			log.WithField("layer", layer.Name()).WithField("title", result.Title).Debug("Code resolved")
			r.metrics.RecordLookup(layer.Name(), "hit", duration)
			return *result, nil
		}
		r.metrics.RecordLookup(layer.Name(), "miss", duration)
	}

	log.Info("Code not found in any catalog layer")
	return Result{}, domerrors.ErrNotFound
}

// SeedLayer serves exact-match lookups from the static seed cache.
type SeedLayer struct {
	seed    *Seed
	metrics *metrics.Metrics
}

// NewSeedLayer creates the seed-cache layer.
func NewSeedLayer(seed *Seed, m *metrics.Metrics) *SeedLayer {
	return &SeedLayer{seed: seed, metrics: m}
}

// Name implements Layer.
func (l *SeedLayer) Name() string { return "seed" }

// TryResolve implements Layer.
func (l *SeedLayer) TryResolve(_ context.Context, code string) (*Result, error) {
	if entry, ok := l.seed.Lookup(code); ok {
		l.metrics.RecordCacheHit("seed")
		return &entry, nil
	}
	l.metrics.RecordCacheMiss("seed")
	return nil, nil
}

// SparqlLayer queries the current courses and qualifications graphs.
type SparqlLayer struct {
	client *SparqlClient
}

// NewSparqlLayer creates the current-catalog layer.
func NewSparqlLayer(client *SparqlClient) *SparqlLayer {
	return &SparqlLayer{client: client}
}

// Name implements Layer.
func (l *SparqlLayer) Name() string { return "sparql" }

// TryResolve implements Layer.
func (l *SparqlLayer) TryResolve(ctx context.Context, code string) (*Result, error) {
	return l.client.FindCurrent(ctx, code)
}

// SparqlLegacyLayer queries the oldcourses graph.
type SparqlLegacyLayer struct {
	client *SparqlClient
}

// NewSparqlLegacyLayer creates the legacy-catalog layer.
func NewSparqlLegacyLayer(client *SparqlClient) *SparqlLegacyLayer {
	return &SparqlLegacyLayer{client: client}
}

// Name implements Layer.
func (l *SparqlLegacyLayer) Name() string { return "sparql_legacy" }

// TryResolve implements Layer.
func (l *SparqlLegacyLayer) TryResolve(ctx context.Context, code string) (*Result, error) {
	return l.client.FindLegacy(ctx, code)
}

// ArchiveLayer scrapes the Digital Archive page for a code.
type ArchiveLayer struct {
	scraper *ArchiveScraper
}

// NewArchiveLayer creates the archive-scrape layer.
func NewArchiveLayer(scraper *ArchiveScraper) *ArchiveLayer {
	return &ArchiveLayer{scraper: scraper}
}

// Name implements Layer.
func (l *ArchiveLayer) Name() string { return "archive" }

// TryResolve implements Layer.
func (l *ArchiveLayer) TryResolve(ctx context.Context, code string) (*Result, error) {
	return l.scraper.Find(ctx, code)
}
