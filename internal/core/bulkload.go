package core

import (
	"context"
	"errors"
	"fmt"

	"chambercore/pkg/domain"
)

// BatchSpecimen is one specimen record in a bulk load. The declared identifier
// is the key child records in the same batch use to reference it.
type BatchSpecimen struct {
	ID   uint64
	Spec SpecimenSpec
}

// BatchSetting is one run configuration record in a bulk load, keyed by its
// declared composite key.
type BatchSetting struct {
	Key  SettingKey
	Spec SettingSpec
}

// BatchRun is one run record in a bulk load.
type BatchRun struct {
	ID      uint64
	Setting SettingKey
	Spec    RunSpec
}

// BatchSample is one sample record in a bulk load, addressed by its declared
// run identifier and index.
type BatchSample struct {
	RunID uint64
	Index uint64
	Spec  SampleSpec
}

// BatchReading is one sensor reading in a bulk load. Readings address their
// sample by (run, index) because surrogate sample identifiers are assigned at
// load time.
type BatchReading struct {
	RunID       uint64
	SampleIndex uint64
	Channel     uint64
	Temperature float64
}

// Batch carries a full fixture in ownership order. LoadBatch applies the
// slices in declaration order within each slice.
type Batch struct {
	Specimens []BatchSpecimen
	Settings  []BatchSetting
	Runs      []BatchRun
	Samples   []BatchSample
	Readings  []BatchReading
}

// BatchResult reports what one successful bulk load committed.
type BatchResult struct {
	Specimens int
	Settings  int
	Runs      int
	Samples   int
	Readings  int
}

// LoadBatch applies every record of the batch inside a single transaction, in
// the ownership order specimen, setting, run, sample, reading. Declared
// identifiers are remapped onto the identifiers the registries assign, so
// child records written with fixture keys land on the right parents. A record
// referencing a parent not seen earlier in the batch (and not already stored)
// rejects the whole batch with IntegrityError.
func (s *Service) LoadBatch(ctx context.Context, batch Batch) (BatchResult, error) {
	ctx, finish := s.instrument(ctx, "load_batch")
	var result BatchResult
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		specimenIDs := make(map[uint64]uint64, len(batch.Specimens))
		settingKeys := make(map[SettingKey]SettingKey, len(batch.Settings))
		runIDs := make(map[uint64]uint64, len(batch.Runs))
		sampleIDs := make(map[SampleKey]uint64, len(batch.Samples))

		for _, rec := range batch.Specimens {
			created, err := tx.RegisterSpecimen(rec.Spec)
			if err != nil {
				return batchError("specimen", fmt.Sprintf("%d", rec.ID), err)
			}
			specimenIDs[rec.ID] = created.ID
		}
		specimenExists := func(id uint64) bool { _, ok := tx.FindSpecimen(id); return ok }
		runExists := func(id uint64) bool { _, ok := tx.FindRun(id); return ok }

		for _, rec := range batch.Settings {
			specimenID, ok := resolveParent(specimenIDs, rec.Key.SpecimenID, specimenExists)
			if !ok {
				return domain.IntegrityError{
					Entity: EntitySetting,
					Key:    rec.Key.String(),
					Reason: fmt.Sprintf("references unseen specimen %d", rec.Key.SpecimenID),
				}
			}
			created, err := tx.RegisterSetting(specimenID, rec.Spec)
			if err != nil {
				return batchError("setting", rec.Key.String(), err)
			}
			settingKeys[rec.Key] = created.Key
		}
		for _, rec := range batch.Runs {
			setting, ok := settingKeys[rec.Setting]
			if !ok {
				if _, stored := tx.FindSetting(rec.Setting); !stored {
					return domain.IntegrityError{
						Entity: EntityRun,
						Key:    fmt.Sprintf("%d", rec.ID),
						Reason: fmt.Sprintf("references unseen setting %s", rec.Setting.String()),
					}
				}
				setting = rec.Setting
			}
			created, err := tx.RegisterRun(setting, rec.Spec)
			if err != nil {
				return batchError("run", fmt.Sprintf("%d", rec.ID), err)
			}
			runIDs[rec.ID] = created.ID
		}
		for _, rec := range batch.Samples {
			runID, ok := resolveParent(runIDs, rec.RunID, runExists)
			if !ok {
				return domain.IntegrityError{
					Entity: EntitySample,
					Key:    SampleKey{RunID: rec.RunID, Index: rec.Index}.String(),
					Reason: fmt.Sprintf("references unseen run %d", rec.RunID),
				}
			}
			spec := rec.Spec
			idx := rec.Index
			spec.Index = &idx
			created, err := tx.AppendSample(runID, spec)
			if err != nil {
				return batchError("sample", SampleKey{RunID: rec.RunID, Index: rec.Index}.String(), err)
			}
			sampleIDs[SampleKey{RunID: rec.RunID, Index: rec.Index}] = created.ID
		}
		for _, rec := range batch.Readings {
			declared := SampleKey{RunID: rec.RunID, Index: rec.SampleIndex}
			sampleID, ok := sampleIDs[declared]
			if !ok {
				stored, found := tx.FindSample(declared)
				if !found {
					return domain.IntegrityError{
						Entity: EntityReading,
						Key:    fmt.Sprintf("(%d,%d,%d)", rec.RunID, rec.SampleIndex, rec.Channel),
						Reason: fmt.Sprintf("references unseen sample %s", declared.String()),
					}
				}
				sampleID = stored.ID
			}
			if _, err := tx.RecordReading(sampleID, rec.Channel, rec.Temperature); err != nil {
				return batchError("reading", fmt.Sprintf("(%d,%d,%d)", rec.RunID, rec.SampleIndex, rec.Channel), err)
			}
		}

		result = BatchResult{
			Specimens: len(batch.Specimens),
			Settings:  len(batch.Settings),
			Runs:      len(batch.Runs),
			Samples:   len(batch.Samples),
			Readings:  len(batch.Readings),
		}
		return nil
	})
	if err != nil {
		result = BatchResult{}
	}
	finish(fmt.Sprintf("%d records", batchSize(batch)), err)
	return result, err
}

func batchSize(b Batch) int {
	return len(b.Specimens) + len(b.Settings) + len(b.Runs) + len(b.Samples) + len(b.Readings)
}

// resolveParent maps a declared parent identifier onto its assigned one,
// falling back to an identity mapping when the parent was committed by an
// earlier load.
func resolveParent(declared map[uint64]uint64, id uint64, exists func(uint64) bool) (uint64, bool) {
	if assigned, ok := declared[id]; ok {
		return assigned, true
	}
	if exists(id) {
		return id, true
	}
	return 0, false
}

// batchError wraps a registry rejection so the caller sees which batch record
// sank the load. Reference failures become IntegrityError per the bulk-load
// contract.
func batchError(kind, key string, err error) error {
	var refErr domain.ReferenceError
	if errors.As(err, &refErr) {
		return domain.IntegrityError{
			Entity: refErr.Entity,
			Key:    refErr.Key,
			Reason: fmt.Sprintf("references unseen %s", refErr.Parent),
		}
	}
	return fmt.Errorf("batch %s %s: %w", kind, key, err)
}
