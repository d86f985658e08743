package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", 200)
	m.ObserveHTTP("GET", 503)
	m.ObserveRetry()
	m.ObserveHTTP("POST", 0)
	m.ObserveRetry()

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "200")); got != 1 {
		t.Fatalf("GET 200 = %v", got)
	}
	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "error")); got != 1 {
		t.Fatalf("POST error = %v", got)
	}
	if got := testutil.ToFloat64(m.httpRetries); got != 2 {
		t.Fatalf("retries = %v", got)
	}
}

func TestObserveRun(t *testing.T) {
	m := New()
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	m.ObserveRun("sync_stores", start, start.Add(3*time.Second), false)
	if got := testutil.ToFloat64(m.runDuration.WithLabelValues("sync_stores")); got != 3 {
		t.Fatalf("duration = %v", got)
	}
	if got := testutil.ToFloat64(m.lastSuccess.WithLabelValues("sync_stores")); got != float64(start.Add(3*time.Second).Unix()) {
		t.Fatalf("last success = %v", got)
	}

	m.ObserveRun("sync_stores", start, start.Add(time.Second), true)
	if got := testutil.ToFloat64(m.runFailures.WithLabelValues("sync_stores")); got != 1 {
		t.Fatalf("failures = %v", got)
	}
}

func TestObserveUpsert(t *testing.T) {
	m := New()
	m.ObserveUpsert("stores", 4, 1)
	m.ObserveUpsert("stores", 2, 0)
	if got := testutil.ToFloat64(m.rowsUpserted.WithLabelValues("stores")); got != 6 {
		t.Fatalf("upserted = %v", got)
	}
	if got := testutil.ToFloat64(m.rowsSkipped.WithLabelValues("stores")); got != 1 {
		t.Fatalf("skipped = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveHTTP("GET", 200)
	m.ObserveRetry()
	m.ObserveUpsert("stores", 1, 0)
	m.ObserveRun("job", time.Now(), time.Now(), false)
	if err := m.Push(context.Background(), "http://unused", "job"); err != nil {
		t.Fatalf("Push on nil: %v", err)
	}
}

func TestPush(t *testing.T) {
	var hits int32
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if !strings.Contains(r.URL.Path, "/metrics/job/sync_inventory") {
			t.Errorf("unexpected push path %s", r.URL.Path)
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New()
	m.ObserveUpsert("inventory_fba_current", 3, 0)
	if err := m.Push(context.Background(), srv.URL, "sync_inventory"); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected one push, got %d", hits)
	}
	if body == "" {
		t.Fatalf("push body empty")
	}

	if err := m.Push(context.Background(), "", "sync_inventory"); err != nil {
		t.Fatalf("Push with empty url should be a no-op: %v", err)
	}
}
