package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestCollector_RecordsCounters tests counter recording through the public
// recorders.
func TestCollector_RecordsCounters(t *testing.T) {
	c := NewCollector(nil, prometheus.NewRegistry())

	c.RecordEvaluation("strict", "block", 3*time.Millisecond)
	c.RecordEvaluation("strict", "pass", time.Millisecond)
	c.RecordCacheHit()
	c.RecordCacheMiss()
	c.RecordCacheMiss()
	c.RecordSemanticCall("ok")
	c.RecordAuditAppend("evaluation")
	c.RecordAnchorSubmission("ok")
	c.RecordDirectiveHit("6a", "BLOCK")
	c.RecordRulesetReload("ok")

	if got := testutil.ToFloat64(c.evaluationsTotal.WithLabelValues("strict", "block")); got != 1 {
		t.Errorf("Expected 1 block evaluation, got %v", got)
	}
	if got := testutil.ToFloat64(c.cacheMissesTotal); got != 2 {
		t.Errorf("Expected 2 cache misses, got %v", got)
	}
	if got := testutil.ToFloat64(c.directiveHitsTotal.WithLabelValues("6a", "BLOCK")); got != 1 {
		t.Errorf("Expected 1 directive hit, got %v", got)
	}
}

// TestCollector_DisabledIsNoOp tests that a disabled collector records
// nothing.
func TestCollector_DisabledIsNoOp(t *testing.T) {
	c := NewCollector(&Config{Enabled: false}, prometheus.NewRegistry())

	c.RecordCacheHit()
	c.RecordEvaluation("strict", "pass", time.Millisecond)

	if got := testutil.ToFloat64(c.cacheHitsTotal); got != 0 {
		t.Errorf("Disabled collector recorded %v cache hits", got)
	}
}

// TestCollector_Handler tests the exposition endpoint.
func TestCollector_Handler(t *testing.T) {
	c := NewCollector(nil, prometheus.NewRegistry())
	c.RecordBatch(16)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "sentra_warden_batch_size_entries") {
		t.Errorf("Exposition output missing batch size metric:\n%s", body)
	}
}
