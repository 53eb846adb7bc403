package memory

import (
	"fmt"

	"chambercore/pkg/domain"
)

// Reidentification renumbers a parent identifier and rewrites every descendant
// foreign-key reference inside the transactional clone. The whole rewrite
// commits or none of it does, since the clone is only swapped in on success.

// ReidentifySpecimen renumbers a specimen and cascades the change to its run
// configurations and, through their keys, to the runs bound to them.
func (tx *transaction) ReidentifySpecimen(oldID, newID uint64) error {
	specimen, ok := tx.state.specimens[oldID]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntitySpecimen, Key: fmt.Sprintf("%d", oldID)}
	}
	if newID == oldID {
		return nil
	}
	if _, exists := tx.state.specimens[newID]; exists {
		return domain.DuplicateKeyError{Entity: domain.EntitySpecimen, Key: fmt.Sprintf("%d", newID)}
	}

	before := specimen
	delete(tx.state.specimens, oldID)
	specimen.ID = newID
	tx.state.specimens[newID] = specimen

	for key, cfg := range tx.state.settings {
		if key.SpecimenID != oldID {
			continue
		}
		delete(tx.state.settings, key)
		cfg.Key.SpecimenID = newID
		tx.state.settings[cfg.Key] = cfg
	}
	for id, run := range tx.state.runs {
		if run.Setting.SpecimenID != oldID {
			continue
		}
		run.Setting.SpecimenID = newID
		tx.state.runs[id] = run
	}

	tx.recordChange(Change{Entity: domain.EntitySpecimen, Action: domain.ActionReidentify, Before: before, After: specimen})
	return nil
}

// ReidentifySetting renumbers a run configuration within its specimen scope
// and cascades the change to the runs bound to it.
func (tx *transaction) ReidentifySetting(old SettingKey, newSettingID uint64) error {
	cfg, ok := tx.state.settings[old]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntitySetting, Key: old.String()}
	}
	if newSettingID == old.SettingID {
		return nil
	}
	newKey := SettingKey{SettingID: newSettingID, SpecimenID: old.SpecimenID}
	if _, exists := tx.state.settings[newKey]; exists {
		return domain.DuplicateKeyError{Entity: domain.EntitySetting, Key: newKey.String()}
	}

	before := cfg
	delete(tx.state.settings, old)
	cfg.Key = newKey
	tx.state.settings[newKey] = cfg

	for id, run := range tx.state.runs {
		if run.Setting != old {
			continue
		}
		run.Setting = newKey
		tx.state.runs[id] = run
	}

	tx.recordChange(Change{Entity: domain.EntitySetting, Action: domain.ActionReidentify, Before: before, After: cfg})
	return nil
}

// ReidentifyRun renumbers a run and cascades the change to its samples.
// Readings are untouched: they address samples through the surrogate sample
// identifier, which is stable across renumbering.
func (tx *transaction) ReidentifyRun(oldID, newID uint64) error {
	run, ok := tx.state.runs[oldID]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityRun, Key: fmt.Sprintf("%d", oldID)}
	}
	if newID == oldID {
		return nil
	}
	if _, exists := tx.state.runs[newID]; exists {
		return domain.DuplicateKeyError{Entity: domain.EntityRun, Key: fmt.Sprintf("%d", newID)}
	}

	before := run
	delete(tx.state.runs, oldID)
	run.ID = newID
	tx.state.runs[newID] = run

	for key, sample := range tx.state.samples {
		if key.RunID != oldID {
			continue
		}
		delete(tx.state.samples, key)
		sample.Key.RunID = newID
		tx.state.samples[sample.Key] = sample
		tx.state.sampleKeys[sample.ID] = sample.Key
	}

	tx.recordChange(Change{Entity: domain.EntityRun, Action: domain.ActionReidentify, Before: before, After: run})
	return nil
}

// ReindexSample moves a sample to a new index within its run. The surrogate
// identifier is preserved, so readings keep resolving.
func (tx *transaction) ReindexSample(runID, oldIndex, newIndex uint64) error {
	oldKey := SampleKey{RunID: runID, Index: oldIndex}
	sample, ok := tx.state.samples[oldKey]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntitySample, Key: oldKey.String()}
	}
	if newIndex == oldIndex {
		return nil
	}
	newKey := SampleKey{RunID: runID, Index: newIndex}
	if _, exists := tx.state.samples[newKey]; exists {
		return domain.DuplicateKeyError{Entity: domain.EntitySample, Key: newKey.String()}
	}

	before := cloneSample(sample)
	delete(tx.state.samples, oldKey)
	sample.Key = newKey
	tx.state.samples[newKey] = sample
	tx.state.sampleKeys[sample.ID] = newKey

	tx.recordChange(Change{Entity: domain.EntitySample, Action: domain.ActionReidentify, Before: before, After: cloneSample(sample)})
	return nil
}

// Removal never cascades. A parent with live children is rejected with
// IntegrityError and the transaction state is left unchanged.

// RemoveSpecimen deletes a specimen that owns no run configurations.
func (tx *transaction) RemoveSpecimen(id uint64) error {
	specimen, ok := tx.state.specimens[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntitySpecimen, Key: fmt.Sprintf("%d", id)}
	}
	for key := range tx.state.settings {
		if key.SpecimenID == id {
			return domain.IntegrityError{
				Entity: domain.EntitySpecimen,
				Key:    fmt.Sprintf("%d", id),
				Reason: "owned run configurations exist",
			}
		}
	}
	delete(tx.state.specimens, id)
	tx.recordChange(Change{Entity: domain.EntitySpecimen, Action: domain.ActionDelete, Before: specimen})
	return nil
}

// RemoveSetting deletes a run configuration that no run is bound to.
func (tx *transaction) RemoveSetting(key SettingKey) error {
	cfg, ok := tx.state.settings[key]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntitySetting, Key: key.String()}
	}
	for _, run := range tx.state.runs {
		if run.Setting == key {
			return domain.IntegrityError{
				Entity: domain.EntitySetting,
				Key:    key.String(),
				Reason: "owned runs exist",
			}
		}
	}
	delete(tx.state.settings, key)
	tx.recordChange(Change{Entity: domain.EntitySetting, Action: domain.ActionDelete, Before: cfg})
	return nil
}

// RemoveRun deletes a run that owns no samples.
func (tx *transaction) RemoveRun(id uint64) error {
	run, ok := tx.state.runs[id]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityRun, Key: fmt.Sprintf("%d", id)}
	}
	for key := range tx.state.samples {
		if key.RunID == id {
			return domain.IntegrityError{
				Entity: domain.EntityRun,
				Key:    fmt.Sprintf("%d", id),
				Reason: "owned samples exist",
			}
		}
	}
	delete(tx.state.runs, id)
	tx.recordChange(Change{Entity: domain.EntityRun, Action: domain.ActionDelete, Before: run})
	return nil
}

// RemoveSample deletes a sample that owns no readings.
func (tx *transaction) RemoveSample(key SampleKey) error {
	sample, ok := tx.state.samples[key]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntitySample, Key: key.String()}
	}
	for rk := range tx.state.readings {
		if rk.SampleID == sample.ID {
			return domain.IntegrityError{
				Entity: domain.EntitySample,
				Key:    key.String(),
				Reason: "owned readings exist",
			}
		}
	}
	delete(tx.state.samples, key)
	delete(tx.state.sampleKeys, sample.ID)
	tx.recordChange(Change{Entity: domain.EntitySample, Action: domain.ActionDelete, Before: cloneSample(sample)})
	return nil
}

// RemoveReading deletes one channel reading.
func (tx *transaction) RemoveReading(key ReadingKey) error {
	reading, ok := tx.state.readings[key]
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityReading, Key: key.String()}
	}
	delete(tx.state.readings, key)
	tx.recordChange(Change{Entity: domain.EntityReading, Action: domain.ActionDelete, Before: reading})
	return nil
}
