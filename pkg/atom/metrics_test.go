package atom

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestAtomsGaugeCountsSeededEntries(t *testing.T) {
	count := New(0, WithLabel("count"))
	other := New(0, WithLabel("other"))

	// Seeding before enabling metrics must still be reflected in the gauge.
	s := NewStore(
		WithInitial(count, 7),
		WithMetrics(WithMetricsRegistry(prometheus.NewRegistry())),
	)
	if got := testutil.ToFloat64(s.metrics.atoms); got != 1 {
		t.Errorf("expected 1 live entry after seeding, got %v", got)
	}

	if _, err := Get(s, other); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got := testutil.ToFloat64(s.metrics.atoms); got != 2 {
		t.Errorf("expected 2 live entries, got %v", got)
	}
}

func TestWriteMetricsRecorded(t *testing.T) {
	count := New(0, WithLabel("count"))
	s := NewStore(WithMetrics(WithMetricsRegistry(prometheus.NewRegistry())))

	if err := Set(s, count, 1); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if got := testutil.ToFloat64(s.metrics.writes.WithLabelValues("ok")); got != 1 {
		t.Errorf("expected 1 ok write, got %v", got)
	}

	d := Derived(func(g Getter) (int, error) { return Read(g, count) })
	if err := Set(s, d, 2); err == nil {
		t.Fatal("expected write to read-only atom to fail")
	}
	if got := testutil.ToFloat64(s.metrics.writes.WithLabelValues("error")); got != 1 {
		t.Errorf("expected 1 error write, got %v", got)
	}
}
