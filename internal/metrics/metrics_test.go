package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordLookup(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordLookup("seed", "hit", 0.001)
	m.RecordLookup("seed", "hit", 0.002)
	m.RecordLookup("archive", "miss", 0.5)

	if got := testutil.ToFloat64(m.LookupsTotal.WithLabelValues("seed", "hit")); got != 2 {
		t.Errorf("seed hits = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.LookupsTotal.WithLabelValues("archive", "miss")); got != 1 {
		t.Errorf("archive misses = %v, want 1", got)
	}
}

func TestRecordCacheAndLiveness(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	m := New(registry)

	m.RecordCacheHit("seed")
	m.RecordCacheMiss("reply")
	m.RecordLivenessCheck("active")
	m.RecordLivenessCheck("skipped")
	m.RecordReply("edit")
	m.RecordSingleflightDedup()

	if got := testutil.ToFloat64(m.CacheHitsTotal.WithLabelValues("seed")); got != 1 {
		t.Errorf("seed cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LivenessChecksTotal.WithLabelValues("skipped")); got != 1 {
		t.Errorf("skipped liveness checks = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RepliesTotal.WithLabelValues("edit")); got != 1 {
		t.Errorf("edit replies = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.SingleflightDedupTotal); got != 1 {
		t.Errorf("singleflight dedups = %v, want 1", got)
	}
}

func TestRegistryIsolation(t *testing.T) {
	t.Parallel()

	// Two instances on separate registries must not collide.
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.RecordEvent("message_create", "replied", 0.1)
	if got := testutil.ToFloat64(b.EventsTotal.WithLabelValues("message_create", "replied")); got != 0 {
		t.Errorf("second registry should be untouched, got %v", got)
	}
}
