package integration

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"chambercore/internal/core"
	"chambercore/internal/fixture"
	"chambercore/internal/rawdata"
	"chambercore/pkg/domain"
)

// TestIntegrationSmoke exercises a minimal end-to-end write/read cycle for
// each supported in-process storage and archive adapter. It intentionally
// keeps scope tiny so it can act as a fast CI health check.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()

	storeVariants := []struct {
		name string
		open func(t *testing.T) domain.PersistentStore
	}{
		{
			name: "memory-store",
			open: func(_ *testing.T) domain.PersistentStore {
				return core.NewMemoryStore(core.NewDefaultRulesEngine())
			},
		},
		{
			name: "sqlite-store",
			open: func(t *testing.T) domain.PersistentStore {
				path := filepath.Join(t.TempDir(), "registry.db")
				s, err := core.NewSQLiteStore(path, core.NewDefaultRulesEngine())
				if err != nil {
					t.Fatalf("new sqlite store: %v", err)
				}
				return s
			},
		},
	}

	archiveVariants := []struct {
		name string
		open func(t *testing.T) rawdata.Store
	}{
		{
			name: "memory-archive",
			open: func(_ *testing.T) rawdata.Store { return rawdata.NewMemory() },
		},
		{
			name: "filesystem-archive",
			open: func(t *testing.T) rawdata.Store {
				store, err := rawdata.NewFilesystem(t.TempDir())
				if err != nil {
					t.Fatalf("new filesystem archive: %v", err)
				}
				return store
			},
		},
		{
			name: "mock-s3-archive",
			open: func(_ *testing.T) rawdata.Store { return rawdata.NewMockS3ForTests() },
		},
	}

	for _, sv := range storeVariants {
		t.Run(sv.name, func(t *testing.T) {
			store := sv.open(t)
			metrics := core.NewExpvarMetricsRecorder("")
			var traceBuffer bytes.Buffer
			tracer := core.NewJSONTracer(&traceBuffer)
			svc := core.NewService(store,
				core.WithMetricsRecorder(metrics),
				core.WithTracer(tracer),
			)

			seed, err := fixture.Current()
			if err != nil {
				t.Fatalf("decode seed: %v", err)
			}
			result, err := fixture.Load(ctx, svc, seed)
			if err != nil {
				t.Fatalf("load seed: %v", err)
			}
			if result.Runs != 1 || result.Readings != 6 {
				t.Fatalf("unexpected load result: %+v", result)
			}

			run, err := svc.GetRun(ctx, 1)
			if err != nil {
				t.Fatalf("get run: %v", err)
			}
			samples := svc.ListSamples(ctx, run.ID)
			if len(samples) != 2 {
				t.Fatalf("expected 2 samples, got %d", len(samples))
			}
			if got := svc.Readings(ctx, samples[1].ID); len(got) != 3 {
				t.Fatalf("expected 3 readings, got %d", len(got))
			}

			snap := metrics.Snapshot()
			if snap.Results["load_batch"]["success"] != 1 {
				t.Fatalf("load_batch not observed: %+v", snap.Results)
			}
			if len(tracer.Entries()) == 0 {
				t.Fatalf("no spans recorded")
			}
			if traceBuffer.Len() == 0 {
				t.Fatalf("no spans serialized")
			}
		})
	}

	for _, av := range archiveVariants {
		t.Run(av.name, func(t *testing.T) {
			store := av.open(t)
			key, err := rawdata.RunKey(1, "acquisition.csv")
			if err != nil {
				t.Fatalf("run key: %v", err)
			}
			payload := "t,dew_point\n0,280.1\n"
			if _, err := store.Put(ctx, key, strings.NewReader(payload), rawdata.PutOptions{ContentType: "text/csv"}); err != nil {
				t.Fatalf("put: %v", err)
			}
			infos, err := store.List(ctx, rawdata.RunPrefix(1))
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(infos) != 1 || infos[0].Key != key {
				t.Fatalf("unexpected listing: %+v", infos)
			}
			info, rc, err := store.Get(ctx, key)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			buf := new(bytes.Buffer)
			if _, err := buf.ReadFrom(rc); err != nil {
				t.Fatalf("read: %v", err)
			}
			_ = rc.Close()
			if buf.String() != payload {
				t.Fatalf("payload mismatch: %q", buf.String())
			}
			if info.Size != int64(len(payload)) {
				t.Fatalf("size %d want %d", info.Size, len(payload))
			}
		})
	}
}

// TestIntegrationCascadeAcrossBackends checks that renumbering and removal
// semantics survive a persistence round trip.
func TestIntegrationCascadeAcrossBackends(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "registry.db")
	store, err := core.NewSQLiteStore(path, core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("new sqlite store: %v", err)
	}
	svc := core.NewService(store)

	seed, err := fixture.Current()
	if err != nil {
		t.Fatalf("decode seed: %v", err)
	}
	if _, err := fixture.Load(ctx, svc, seed); err != nil {
		t.Fatalf("load seed: %v", err)
	}

	if err := svc.ReidentifyRun(ctx, 1, 12); err != nil {
		t.Fatalf("reidentify run: %v", err)
	}
	if err := svc.RemoveRun(ctx, 12); err == nil {
		t.Fatalf("removal with samples must be rejected")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := core.NewSQLiteStore(path, core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	svc = core.NewService(reopened)
	run, err := svc.GetRun(ctx, 12)
	if err != nil {
		t.Fatalf("renumbered run lost across reopen: %v", err)
	}
	samples := svc.ListSamples(ctx, run.ID)
	if len(samples) != 2 {
		t.Fatalf("samples lost across reopen: %d", len(samples))
	}
	for i, sample := range samples {
		if sample.Key != (domain.SampleKey{RunID: 12, Index: uint64(i)}) {
			t.Fatalf("sample key not renumbered: %+v", sample.Key)
		}
	}
}
