package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domerrors "github.com/oulookup/oubot/internal/errors"
	"github.com/oulookup/oubot/internal/metrics"
)

type stubLayer struct {
	name   string
	result *Result
	err    error
	calls  atomic.Int32
}

func (l *stubLayer) Name() string { return l.name }

func (l *stubLayer) TryResolve(_ context.Context, _ string) (*Result, error) {
	l.calls.Add(1)
	return l.result, l.err
}

func TestResolverShortCircuitsOnHit(t *testing.T) {
	t.Parallel()

	first := &stubLayer{name: "first", result: &Result{Code: "A123", Title: "Module title"}}
	second := &stubLayer{name: "second"}

	m := metrics.New(prometheus.NewRegistry())
	resolver := NewResolver([]Layer{first, second}, m, testLogger())

	result, err := resolver.Resolve(context.Background(), "a123")
	require.NoError(t, err)

	assert.Equal(t, "Module title", result.Title)
	assert.Equal(t, int32(1), first.calls.Load())
	assert.Equal(t, int32(0), second.calls.Load(), "hit must short-circuit remaining layers")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LookupsTotal.WithLabelValues("first", "hit")))
}

func TestResolverSkipsFailingLayer(t *testing.T) {
	t.Parallel()

	failing := &stubLayer{name: "failing", err: errors.New("endpoint unreachable")}
	backup := &stubLayer{name: "backup", result: &Result{Code: "A123", Title: "From backup"}}

	m := metrics.New(prometheus.NewRegistry())
	resolver := NewResolver([]Layer{failing, backup}, m, testLogger())

	result, err := resolver.Resolve(context.Background(), "A123")
	require.NoError(t, err)

	assert.Equal(t, "From backup", result.Title)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LookupsTotal.WithLabelValues("failing", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LookupsTotal.WithLabelValues("backup", "hit")))
}

func TestResolverAllMiss(t *testing.T) {
	t.Parallel()

	layers := []Layer{
		&stubLayer{name: "one"},
		&stubLayer{name: "two"},
	}

	m := metrics.New(prometheus.NewRegistry())
	resolver := NewResolver(layers, m, testLogger())

	_, err := resolver.Resolve(context.Background(), "ZZ999")
	require.Error(t, err)
	assert.ErrorIs(t, err, domerrors.ErrNotFound)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LookupsTotal.WithLabelValues("one", "miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LookupsTotal.WithLabelValues("two", "miss")))
}

func TestResolverSeedHitMakesNoNetworkCall(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		fmt.Fprint(w, sparqlJSON())
	}))
	defer server.Close()

	seed, err := ParseSeed([]byte(`{"A123": ["Seeded module", "http://fake.url/a123"]}`))
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	fetcher := testFetcher()
	sparql := NewSparqlClient(server.URL, fetcher, testLogger())
	scraper := NewArchiveScraper(server.URL, fetcher, testLogger())

	resolver := NewResolver([]Layer{
		NewSeedLayer(seed, m),
		NewSparqlLayer(sparql),
		NewSparqlLegacyLayer(sparql),
		NewArchiveLayer(scraper),
	}, m, testLogger())

	result, err := resolver.Resolve(context.Background(), "A123")
	require.NoError(t, err)

	assert.Equal(t, "Seeded module", result.Title)
	assert.Equal(t, int32(0), requests.Load(), "seed hit must not touch the network")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("seed")))
}

func TestResolverFallsThroughToArchive(t *testing.T) {
	t.Parallel()

	var sparqlRequests, archiveRequests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/library/digital-archive/") {
			archiveRequests.Add(1)
			fmt.Fprint(w, `<title>D100 The changing countryside - Open University Digital Archive</title>`)
			return
		}
		sparqlRequests.Add(1)
		fmt.Fprint(w, sparqlJSON())
	}))
	defer server.Close()

	seed, err := ParseSeed([]byte(`{}`))
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	fetcher := testFetcher()
	sparql := NewSparqlClient(server.URL, fetcher, testLogger())
	scraper := NewArchiveScraper(server.URL, fetcher, testLogger())

	resolver := NewResolver([]Layer{
		NewSeedLayer(seed, m),
		NewSparqlLayer(sparql),
		NewSparqlLegacyLayer(sparql),
		NewArchiveLayer(scraper),
	}, m, testLogger())

	result, err := resolver.Resolve(context.Background(), "D100")
	require.NoError(t, err)

	assert.Equal(t, "The changing countryside", result.Title)
	assert.False(t, result.HasURL())
	// Current catalog issues two queries (courses, qualifications), legacy one.
	assert.Equal(t, int32(3), sparqlRequests.Load())
	assert.Equal(t, int32(1), archiveRequests.Load(), "archive scraped exactly once")
}
