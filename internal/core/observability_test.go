package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if !strings.HasPrefix(rec.Name(), "chamber_service_metrics_") {
		t.Fatalf("unexpected generated name %q", rec.Name())
	}

	ctx := context.Background()
	rec.Observe(ctx, "register_specimen", true, 2*time.Millisecond)
	rec.Observe(ctx, "register_specimen", true, 3*time.Millisecond)
	rec.Observe(ctx, "register_specimen", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	snap := rec.Snapshot()
	if snap.DurationsMS["register_specimen"] != 6 {
		t.Fatalf("duration total %v want 6", snap.DurationsMS["register_specimen"])
	}
	if snap.Results["register_specimen"]["success"] != 2 {
		t.Fatalf("success count %d want 2", snap.Results["register_specimen"]["success"])
	}
	if snap.Results["register_specimen"]["error"] != 1 {
		t.Fatalf("error count %d want 1", snap.Results["register_specimen"]["error"])
	}
	if len(snap.Results) != 1 {
		t.Fatalf("empty operation must be ignored: %+v", snap.Results)
	}

	// Snapshot copies must not alias internal state.
	snap.DurationsMS["register_specimen"] = 0
	if rec.Snapshot().DurationsMS["register_specimen"] != 6 {
		t.Fatalf("snapshot mutation leaked into recorder")
	}
}

func TestExpvarRecorderWiredIntoService(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	h := newServiceHarness(t, WithMetricsRecorder(rec))
	registerFixtureRun(t, h.svc)
	if _, err := h.svc.GetSpecimen(context.Background(), 99); err == nil {
		t.Fatalf("expected missing specimen")
	}

	snap := rec.Snapshot()
	if snap.Results["register_run"]["success"] != 1 {
		t.Fatalf("expected one register_run success: %+v", snap.Results)
	}
	// Reads are not instrumented.
	if _, ok := snap.Results["get_specimen"]; ok {
		t.Fatalf("reads must not be observed: %+v", snap.Results)
	}
}

func TestJSONTracer(t *testing.T) {
	var buf bytes.Buffer
	tracer := NewJSONTracer(&buf)

	_, span := tracer.Start(context.Background(), "register_specimen")
	span.End(nil)
	_, span = tracer.Start(context.Background(), "remove_run")
	span.End(errors.New("run 1: owned samples exist"))

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Operation != "register_specimen" || entries[0].Status != "success" {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Status != "error" || entries[1].Error == "" {
		t.Fatalf("unexpected second entry: %+v", entries[1])
	}

	dec := json.NewDecoder(&buf)
	var decoded JSONTraceEntry
	if err := dec.Decode(&decoded); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if decoded.Operation != "register_specimen" {
		t.Fatalf("unexpected serialized entry: %+v", decoded)
	}
}

func TestJSONTracerWiredIntoService(t *testing.T) {
	tracer := NewJSONTracer(nil)
	h := newServiceHarness(t, WithTracer(tracer))
	registerFixtureRun(t, h.svc)

	entries := tracer.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 spans, got %d", len(entries))
	}
	wantOps := []string{"register_specimen", "register_setting", "register_run"}
	for i, want := range wantOps {
		if entries[i].Operation != want {
			t.Fatalf("span %d operation %q want %q", i, entries[i].Operation, want)
		}
	}
}
