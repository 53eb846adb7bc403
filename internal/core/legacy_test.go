package core

import (
	"context"
	"errors"
	"testing"

	"chambercore/pkg/domain"
)

func TestImportLegacyReadings(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()
	runID := registerFixtureRun(t, h.svc)
	for i := range 2 {
		if _, err := h.svc.AppendSample(ctx, runID, SampleSpec{DewPoint: 280 + float64(i), Pressure: 101325}); err != nil {
			t.Fatalf("append sample: %v", err)
		}
	}

	imported, err := h.svc.ImportLegacyReadings(ctx, []LegacyReading{
		{RunID: runID, SampleIndex: 0, Channel: 0, Temperature: 290.0},
		{RunID: runID, SampleIndex: 0, Channel: 1, Temperature: 290.2},
		{RunID: runID, SampleIndex: 1, Channel: 0, Temperature: 290.4},
	})
	if err != nil {
		t.Fatalf("import legacy readings: %v", err)
	}
	if len(imported) != 3 {
		t.Fatalf("expected 3 imported readings, got %d", len(imported))
	}

	// Imported readings live under the canonical surrogate addressing.
	first, err := h.svc.GetSample(ctx, SampleKey{RunID: runID, Index: 0})
	if err != nil {
		t.Fatalf("get sample: %v", err)
	}
	if imported[0].Key.SampleID != first.ID {
		t.Fatalf("reading addressed to sample %d want %d", imported[0].Key.SampleID, first.ID)
	}
	if got := h.svc.Readings(ctx, first.ID); len(got) != 2 {
		t.Fatalf("expected 2 readings on first sample, got %d", len(got))
	}
}

func TestImportLegacyReadingsUnresolvedSample(t *testing.T) {
	h := newServiceHarness(t)
	ctx := context.Background()
	runID := registerFixtureRun(t, h.svc)
	if _, err := h.svc.AppendSample(ctx, runID, SampleSpec{DewPoint: 280, Pressure: 101325}); err != nil {
		t.Fatalf("append sample: %v", err)
	}

	imported, err := h.svc.ImportLegacyReadings(ctx, []LegacyReading{
		{RunID: runID, SampleIndex: 0, Channel: 0, Temperature: 290.0},
		{RunID: runID, SampleIndex: 5, Channel: 0, Temperature: 290.2},
	})
	var rErr domain.ReferenceError
	if !errors.As(err, &rErr) {
		t.Fatalf("expected ReferenceError, got %v", err)
	}
	if rErr.Parent != domain.EntitySample {
		t.Fatalf("unexpected parent %s", rErr.Parent)
	}
	if imported != nil {
		t.Fatalf("failed import must return no readings")
	}

	// The resolvable reading rolled back with the rest.
	sample, err := h.svc.GetSample(ctx, SampleKey{RunID: runID, Index: 0})
	if err != nil {
		t.Fatalf("get sample: %v", err)
	}
	if got := h.svc.Readings(ctx, sample.ID); len(got) != 0 {
		t.Fatalf("expected no committed readings, got %d", len(got))
	}
}
