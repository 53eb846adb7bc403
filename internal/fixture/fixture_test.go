package fixture

import (
	"context"
	"strings"
	"testing"
	"time"

	"chambercore/internal/core"
)

func newService() *core.Service {
	return core.NewService(core.NewMemoryStore(core.NewDefaultRulesEngine()))
}

func TestCurrentSeedDecodes(t *testing.T) {
	seed, err := Current()
	if err != nil {
		t.Fatalf("decode current seed: %v", err)
	}
	if len(seed.Batch.Specimens) != 2 || len(seed.Batch.Settings) != 2 || len(seed.Batch.Runs) != 1 {
		t.Fatalf("unexpected seed shape: %+v", seed.Batch)
	}
	if len(seed.Batch.Samples) != 2 || len(seed.Batch.Readings) != 6 {
		t.Fatalf("unexpected sample/reading counts: %d/%d", len(seed.Batch.Samples), len(seed.Batch.Readings))
	}
	if len(seed.LegacyReadings) != 0 {
		t.Fatalf("current seed must carry no legacy readings")
	}
	want := time.Date(2019, 9, 24, 7, 45, 0, 0, time.UTC)
	if !seed.Batch.Runs[0].Spec.StartedAt.Equal(want) {
		t.Fatalf("run timestamp %v want %v", seed.Batch.Runs[0].Spec.StartedAt, want)
	}
}

func TestLegacySeedRequiresLenientTimestamps(t *testing.T) {
	if _, err := Legacy(); err == nil {
		t.Fatalf("strict decoding must reject the impossible date")
	}

	seed, err := Legacy(WithLenientTimestamps())
	if err != nil {
		t.Fatalf("lenient decode: %v", err)
	}
	if len(seed.LegacyReadings) != 4 {
		t.Fatalf("expected 4 legacy readings, got %d", len(seed.LegacyReadings))
	}
	// February 31st normalizes to March 3rd.
	want := time.Date(2019, 3, 3, 7, 45, 0, 0, time.UTC)
	if !seed.Batch.Runs[0].Spec.StartedAt.Equal(want) {
		t.Fatalf("normalized timestamp %v want %v", seed.Batch.Runs[0].Spec.StartedAt, want)
	}
}

func TestDecodeRejectsMalformedJSON(t *testing.T) {
	if _, err := Decode([]byte("{")); err == nil {
		t.Fatalf("expected decode error")
	}
	_, err := Decode([]byte(`{"runs":[{"id":1,"setting_id":1,"specimen_id":1,"author":"a","started_at":"not-a-date","description":"d"}]}`))
	if err == nil || !strings.Contains(err.Error(), "timestamp") {
		t.Fatalf("expected timestamp error, got %v", err)
	}
}

func TestLoadCurrentSeed(t *testing.T) {
	seed, err := Current()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	svc := newService()
	result, err := Load(context.Background(), svc, seed)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := core.BatchResult{Specimens: 2, Settings: 2, Runs: 1, Samples: 2, Readings: 6}
	if result != want {
		t.Fatalf("result %+v want %+v", result, want)
	}

	ctx := context.Background()
	run, err := svc.GetRun(ctx, 1)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Author != "RHI" {
		t.Fatalf("unexpected run: %+v", run)
	}
	samples := svc.ListSamples(ctx, run.ID)
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if got := svc.Readings(ctx, samples[0].ID); len(got) != 3 {
		t.Fatalf("expected 3 channels on first sample, got %d", len(got))
	}
}

func TestLoadLegacySeed(t *testing.T) {
	seed, err := Legacy(WithLenientTimestamps())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	svc := newService()
	result, err := Load(context.Background(), svc, seed)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if result.Readings != 4 {
		t.Fatalf("legacy readings not counted: %+v", result)
	}

	// Legacy readings land on the canonical surrogate addressing.
	ctx := context.Background()
	sample, err := svc.GetSample(ctx, core.SampleKey{RunID: 1, Index: 0})
	if err != nil {
		t.Fatalf("get sample: %v", err)
	}
	readings := svc.Readings(ctx, sample.ID)
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings on first sample, got %d", len(readings))
	}
	if readings[0].Temperature != 290.0 {
		t.Fatalf("unexpected temperature %v", readings[0].Temperature)
	}
}
