package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestCronJobMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	job := "pending_order_sweep"
	m.ObserveDuration(job, 250*time.Millisecond)
	m.IncSuccess(job)
	m.IncFailure(job)
	m.IncFailure(job)
	m.IncSkipped()

	if got := testutil.ToFloat64(m.success.WithLabelValues(job)); got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}
	if got := testutil.ToFloat64(m.failure.WithLabelValues(job)); got != 2 {
		t.Fatalf("expected failure=2, got %f", got)
	}
	if got := testutil.ToFloat64(m.skipped); got != 1 {
		t.Fatalf("expected skipped=1, got %f", got)
	}
	if n := testutil.CollectAndCount(m.duration); n != 1 {
		t.Fatalf("expected one duration series, got %d", n)
	}
}

func TestStorefrontMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefrontMetrics(reg)

	m.ObserveCheckout(OutcomeSuccess, time.Millisecond)
	m.ObserveCheckout(OutcomeConflict, time.Millisecond)
	m.ObserveCheckout(OutcomeConflict, time.Millisecond)
	m.IncLockConflict()
	m.IncWebhook("square", OutcomeReplay)
	m.IncRollback()

	if got := testutil.ToFloat64(m.checkouts.WithLabelValues(OutcomeConflict)); got != 2 {
		t.Fatalf("expected 2 conflicts, got %f", got)
	}
	if got := testutil.ToFloat64(m.webhooks.WithLabelValues("square", OutcomeReplay)); got != 1 {
		t.Fatalf("expected 1 replay, got %f", got)
	}
	if got := testutil.ToFloat64(m.lockConflicts); got != 1 {
		t.Fatalf("expected 1 lock conflict, got %f", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var cron *CronJobMetrics
	cron.IncSuccess("job")
	cron.ObserveDuration("job", time.Second)

	var sf *StorefrontMetrics
	sf.ObserveCheckout(OutcomeSuccess, time.Second)
	sf.IncWebhook("generic", OutcomeError)

	NewStorefrontMetrics(nil).IncLockConflict()
}

func TestCheckoutDurationIsGathered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewStorefrontMetrics(reg)
	m.ObserveCheckout(OutcomeSuccess, 300*time.Millisecond)
	m.ObserveCheckout(OutcomeError, 100*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findFamily(mfs, "storefront_checkout_duration_seconds")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("expected one checkout duration series, got %v", mf)
	}
	h := mf.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Fatalf("expected 2 samples, got %d", h.GetSampleCount())
	}
	if sum := h.GetSampleSum(); sum < 0.39 || sum > 0.41 {
		t.Fatalf("expected sample sum near 0.4, got %f", sum)
	}
}

func findFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
