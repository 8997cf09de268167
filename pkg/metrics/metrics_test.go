package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordQuery(t *testing.T) {
	r := NewRegistry()

	r.RecordQuery("bolt", "ok", 50*time.Millisecond)
	r.RecordQuery("bolt", "ok", 10*time.Millisecond)
	r.RecordQuery("embedded", "error", time.Millisecond)

	if got := testutil.ToFloat64(r.QueriesTotal.WithLabelValues("bolt", "ok")); got != 2 {
		t.Errorf("Expected 2 bolt/ok queries, got %v", got)
	}
	if got := testutil.ToFloat64(r.QueriesTotal.WithLabelValues("embedded", "error")); got != 1 {
		t.Errorf("Expected 1 embedded/error query, got %v", got)
	}
}

func TestSessionGauge(t *testing.T) {
	r := NewRegistry()

	r.SessionsOpen.Inc()
	r.SessionsOpen.Inc()
	r.SessionsOpen.Dec()

	if got := testutil.ToFloat64(r.SessionsOpen); got != 1 {
		t.Errorf("Expected 1 open session, got %v", got)
	}
}

func TestRecordTransaction(t *testing.T) {
	r := NewRegistry()

	r.RecordTransaction("commit")
	r.RecordTransaction("rollback")
	r.RecordTransaction("commit")

	if got := testutil.ToFloat64(r.TransactionsTotal.WithLabelValues("commit")); got != 2 {
		t.Errorf("Expected 2 commits, got %v", got)
	}
}

func TestDefaultRegistryIsSingleton(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry should return the same instance")
	}
}
