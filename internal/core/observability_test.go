package core_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"culturecore/internal/core"
	"culturecore/pkg/domain"
)

func TestExpvarMetricsRecorderCountsOperations(t *testing.T) {
	rec := core.NewExpvarMetricsRecorder("")
	svc := core.NewInMemoryService(core.DefaultRulesEngine(), core.WithMetricsRecorder(rec))
	ctx := context.Background()

	if _, _, err := svc.CreateCulture(ctx, domain.Culture{Name: "HEK293"}); err != nil {
		t.Fatalf("create culture: %v", err)
	}
	_, _, err := svc.DisposeLot(ctx, "missing")
	if err == nil {
		t.Fatal("expected error for missing lot")
	}

	snap := rec.Snapshot()
	if snap.Results["create_culture"]["success"] != 1 {
		t.Fatalf("create_culture success count=%d want 1", snap.Results["create_culture"]["success"])
	}
	if snap.Results["dispose_lot"]["error"] != 1 {
		t.Fatalf("dispose_lot error count=%d want 1", snap.Results["dispose_lot"]["error"])
	}
	if snap.DurationsMS["create_culture"] < 0 {
		t.Fatalf("negative duration total: %v", snap.DurationsMS["create_culture"])
	}
	if !strings.HasPrefix(rec.Name(), "culturecore_metrics_") {
		t.Fatalf("unexpected generated name %q", rec.Name())
	}
}

func TestJSONTracerRecordsSpans(t *testing.T) {
	var buf bytes.Buffer
	tracer := core.NewJSONTracer(&buf)
	svc := core.NewInMemoryService(core.DefaultRulesEngine(), core.WithTracer(tracer))
	ctx := context.Background()

	if _, _, err := svc.CreateCulture(ctx, domain.Culture{Name: "HEK293"}); err != nil {
		t.Fatalf("create culture: %v", err)
	}
	if _, _, err := svc.DisposeLot(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing lot")
	}

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(entries))
	}
	if entries[0].Operation != "create_culture" || entries[0].Status != "success" {
		t.Fatalf("unexpected first span: %+v", entries[0])
	}
	if entries[1].Operation != "dispose_lot" || entries[1].Status != "error" || entries[1].Error == "" {
		t.Fatalf("unexpected second span: %+v", entries[1])
	}

	dec := json.NewDecoder(&buf)
	var lines int
	for dec.More() {
		var entry core.JSONTraceEntry
		if err := dec.Decode(&entry); err != nil {
			t.Fatalf("decode span line: %v", err)
		}
		lines++
	}
	if lines != 2 {
		t.Fatalf("expected 2 encoded span lines, got %d", lines)
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	registry := prometheus.NewRegistry()
	rec, err := core.NewPrometheusMetricsRecorder(registry)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc := core.NewInMemoryService(core.DefaultRulesEngine(), core.WithMetricsRecorder(rec))

	if _, _, err := svc.CreateCulture(context.Background(), domain.Culture{Name: "HEK293"}); err != nil {
		t.Fatalf("create culture: %v", err)
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	if !names["culturecore_service_operation_duration_seconds"] || !names["culturecore_service_operation_results_total"] {
		t.Fatalf("missing collectors, got %v", names)
	}

	// Registering into the same registry twice must fail.
	if _, err := core.NewPrometheusMetricsRecorder(registry); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}
