package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"chambercore/pkg/domain"
)

func seedStore(t *testing.T, store *Store) {
	t.Helper()
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		specimen, err := tx.RegisterSpecimen(domain.SpecimenSpec{
			InnerDiameter: 0.03, OuterDiameter: 0.04, Length: 0.06, Material: "Delrin", Mass: 0.05678,
		})
		if err != nil {
			return err
		}
		setting, err := tx.RegisterSetting(specimen.ID, domain.SettingSpec{
			Pressure: 101325, Temperature: 300, TimeStep: 1,
		})
		if err != nil {
			return err
		}
		run, err := tx.RegisterRun(setting.Key, domain.RunSpec{
			Author: "RHI", StartedAt: store.NowFunc()(), Description: "The description is descriptive.",
		})
		if err != nil {
			return err
		}
		sample, err := tx.AppendSample(run.ID, domain.SampleSpec{DewPoint: 280, Pressure: 101325})
		if err != nil {
			return err
		}
		_, err = tx.RecordReading(sample.ID, 0, 290.0)
		return err
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry", "chamber.db")

	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	seedStore(t, store)
	if store.Path() != path {
		t.Fatalf("path %q want %q", store.Path(), path)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	if _, ok := reopened.GetSpecimen(1); !ok {
		t.Fatalf("specimen not restored")
	}
	run, ok := reopened.GetRun(1)
	if !ok || run.Author != "RHI" {
		t.Fatalf("run not restored: %+v", run)
	}
	samples := reopened.ListSamples(1)
	if len(samples) != 1 {
		t.Fatalf("expected 1 restored sample, got %d", len(samples))
	}
	readings := reopened.ListReadings(samples[0].ID)
	if len(readings) != 1 || readings[0].Temperature != 290.0 {
		t.Fatalf("readings not restored: %+v", readings)
	}

	// Sequences continue past the restored records.
	_, err = reopened.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		sample, err := tx.AppendSample(1, domain.SampleSpec{DewPoint: 281, Pressure: 101324})
		if err != nil {
			return err
		}
		if sample.ID != 2 || sample.Key.Index != 1 {
			t.Fatalf("sequence not rebuilt: id %d index %d", sample.ID, sample.Key.Index)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("post-restore transaction: %v", err)
	}
}

func TestFailedTransactionIsNotPersisted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chamber.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	seedStore(t, store)

	_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.RemoveRun(1)
	})
	if err == nil {
		t.Fatalf("expected rejected removal")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	if _, ok := reopened.GetRun(1); !ok {
		t.Fatalf("run must survive the rejected removal")
	}
}

func TestStoreDefaultsAndAccessors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chamber.db")
	store, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if store.DB() == nil {
		t.Fatalf("expected database handle")
	}
	if store.RulesEngine() == nil {
		t.Fatalf("expected default rules engine")
	}
}
