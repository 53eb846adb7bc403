package memory

import (
	"fmt"

	"chambercore/pkg/domain"
)

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot exposes a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// RegisterSpecimen validates and stores a new test article, assigning the next
// specimen identifier.
func (tx *transaction) RegisterSpecimen(spec domain.SpecimenSpec) (Specimen, error) {
	if err := validateSpecimen(spec); err != nil {
		return Specimen{}, err
	}
	specimen := Specimen{
		ID:            tx.state.nextSpecimenID,
		InnerDiameter: spec.InnerDiameter,
		OuterDiameter: spec.OuterDiameter,
		Length:        spec.Length,
		Material:      spec.Material,
		Mass:          spec.Mass,
		CreatedAt:     tx.now,
	}
	tx.state.nextSpecimenID++
	tx.state.specimens[specimen.ID] = specimen
	tx.recordChange(Change{Entity: domain.EntitySpecimen, Action: domain.ActionCreate, After: specimen})
	return specimen, nil
}

func validateSpecimen(spec domain.SpecimenSpec) error {
	switch {
	case spec.InnerDiameter <= 0:
		return domain.ValidationError{Entity: domain.EntitySpecimen, Field: "inner_diameter", Reason: "must be positive"}
	case spec.OuterDiameter <= 0:
		return domain.ValidationError{Entity: domain.EntitySpecimen, Field: "outer_diameter", Reason: "must be positive"}
	case spec.Length <= 0:
		return domain.ValidationError{Entity: domain.EntitySpecimen, Field: "length", Reason: "must be positive"}
	case spec.Mass <= 0:
		return domain.ValidationError{Entity: domain.EntitySpecimen, Field: "mass", Reason: "must be positive"}
	case spec.Material == "":
		return domain.ValidationError{Entity: domain.EntitySpecimen, Field: "material", Reason: "must not be empty"}
	}
	return nil
}

// RegisterSetting validates and stores a run configuration scoped to an
// existing specimen. The setting identifier is assigned from a per-specimen
// sequence, so the returned composite key is unique while SettingID alone is
// only meaningful within its specimen.
func (tx *transaction) RegisterSetting(specimenID uint64, spec domain.SettingSpec) (RunConfiguration, error) {
	if _, ok := tx.state.specimens[specimenID]; !ok {
		return RunConfiguration{}, domain.ReferenceError{
			Entity: domain.EntitySetting,
			Parent: domain.EntitySpecimen,
			Key:    fmt.Sprintf("%d", specimenID),
		}
	}
	if err := validateSetting(spec); err != nil {
		return RunConfiguration{}, err
	}
	key := SettingKey{SettingID: tx.nextSettingID(specimenID), SpecimenID: specimenID}
	cfg := RunConfiguration{
		Key:          key,
		Duty:         spec.Duty,
		Pressure:     spec.Pressure,
		Temperature:  spec.Temperature,
		TimeStep:     spec.TimeStep,
		MassBasis:    spec.MassBasis,
		HasReservoir: spec.HasReservoir,
		CreatedAt:    tx.now,
	}
	tx.state.settings[key] = cfg
	tx.recordChange(Change{Entity: domain.EntitySetting, Action: domain.ActionCreate, After: cfg})
	return cfg, nil
}

func validateSetting(spec domain.SettingSpec) error {
	switch {
	case spec.Pressure <= 0:
		return domain.ValidationError{Entity: domain.EntitySetting, Field: "pressure", Reason: "must be positive"}
	case spec.Temperature <= 0:
		return domain.ValidationError{Entity: domain.EntitySetting, Field: "temperature", Reason: "must be positive in absolute units"}
	case spec.TimeStep <= 0:
		return domain.ValidationError{Entity: domain.EntitySetting, Field: "time_step", Reason: "must be positive"}
	case spec.Duty < 0:
		return domain.ValidationError{Entity: domain.EntitySetting, Field: "duty", Reason: "must not be negative"}
	}
	return nil
}

func (tx *transaction) nextSettingID(specimenID uint64) uint64 {
	next := uint64(1)
	for key := range tx.state.settings {
		if key.SpecimenID == specimenID && key.SettingID >= next {
			next = key.SettingID + 1
		}
	}
	return next
}

// RegisterRun validates and stores one executed experiment bound to an
// existing run configuration.
func (tx *transaction) RegisterRun(setting SettingKey, spec domain.RunSpec) (Run, error) {
	if _, ok := tx.state.settings[setting]; !ok {
		return Run{}, domain.ReferenceError{
			Entity: domain.EntityRun,
			Parent: domain.EntitySetting,
			Key:    setting.String(),
		}
	}
	switch {
	case spec.Author == "":
		return Run{}, domain.ValidationError{Entity: domain.EntityRun, Field: "author", Reason: "must not be empty"}
	case spec.Description == "":
		return Run{}, domain.ValidationError{Entity: domain.EntityRun, Field: "description", Reason: "must not be empty"}
	case spec.StartedAt.IsZero():
		return Run{}, domain.ValidationError{Entity: domain.EntityRun, Field: "started_at", Reason: "must be a valid timestamp"}
	}
	run := Run{
		ID:          tx.state.nextRunID,
		Setting:     setting,
		Author:      spec.Author,
		StartedAt:   spec.StartedAt,
		Description: spec.Description,
		CreatedAt:   tx.now,
	}
	tx.state.nextRunID++
	tx.state.runs[run.ID] = run
	tx.recordChange(Change{Entity: domain.EntityRun, Action: domain.ActionCreate, After: run})
	return run, nil
}

// AppendSample stores one measurement within an existing run. Without an
// explicit index the next value of the per-run sequence is assigned; an
// explicit index colliding with a stored sample is a DuplicateKeyError.
func (tx *transaction) AppendSample(runID uint64, spec domain.SampleSpec) (Sample, error) {
	if _, ok := tx.state.runs[runID]; !ok {
		return Sample{}, domain.ReferenceError{
			Entity: domain.EntitySample,
			Parent: domain.EntityRun,
			Key:    fmt.Sprintf("%d", runID),
		}
	}
	if err := validateSample(spec); err != nil {
		return Sample{}, err
	}
	var index uint64
	if spec.Index != nil {
		index = *spec.Index
		if _, exists := tx.state.samples[SampleKey{RunID: runID, Index: index}]; exists {
			return Sample{}, domain.DuplicateKeyError{
				Entity: domain.EntitySample,
				Key:    SampleKey{RunID: runID, Index: index}.String(),
			}
		}
	} else {
		index = tx.nextSampleIndex(runID)
	}
	sample := Sample{
		ID:        tx.state.nextSampleID,
		Key:       SampleKey{RunID: runID, Index: index},
		CapManOK:  spec.CapManOK,
		OptidewOK: spec.OptidewOK,
		DewPoint:  spec.DewPoint,
		Pressure:  spec.Pressure,
		Mass:      cloneFloat(spec.Mass),
		PowerOut:  cloneFloat(spec.PowerOut),
		PowerRef:  cloneFloat(spec.PowerRef),
		CreatedAt: tx.now,
	}
	tx.state.nextSampleID++
	tx.state.samples[sample.Key] = sample
	tx.state.sampleKeys[sample.ID] = sample.Key
	tx.recordChange(Change{Entity: domain.EntitySample, Action: domain.ActionCreate, After: cloneSample(sample)})
	return cloneSample(sample), nil
}

func validateSample(spec domain.SampleSpec) error {
	switch {
	case spec.DewPoint < 0:
		return domain.ValidationError{Entity: domain.EntitySample, Field: "dew_point", Reason: "must not be negative in absolute units"}
	case spec.Pressure < 0:
		return domain.ValidationError{Entity: domain.EntitySample, Field: "pressure", Reason: "must not be negative"}
	case spec.Mass != nil && *spec.Mass < 0:
		return domain.ValidationError{Entity: domain.EntitySample, Field: "mass", Reason: "must not be negative"}
	}
	return nil
}

func (tx *transaction) nextSampleIndex(runID uint64) uint64 {
	next := tx.store.indexOrigin
	for key := range tx.state.samples {
		if key.RunID == runID && key.Index >= next {
			next = key.Index + 1
		}
	}
	return next
}

// RecordReading attaches one channel temperature to an existing sample,
// addressed by the surrogate sample identifier.
func (tx *transaction) RecordReading(sampleID, channel uint64, temperature float64) (SensorReading, error) {
	if _, ok := tx.state.sampleKeys[sampleID]; !ok {
		return SensorReading{}, domain.ReferenceError{
			Entity: domain.EntityReading,
			Parent: domain.EntitySample,
			Key:    fmt.Sprintf("%d", sampleID),
		}
	}
	key := ReadingKey{SampleID: sampleID, Channel: channel}
	if _, exists := tx.state.readings[key]; exists {
		return SensorReading{}, domain.DuplicateKeyError{Entity: domain.EntityReading, Key: key.String()}
	}
	reading := SensorReading{Key: key, Temperature: temperature, CreatedAt: tx.now}
	tx.state.readings[key] = reading
	tx.recordChange(Change{Entity: domain.EntityReading, Action: domain.ActionCreate, After: reading})
	return reading, nil
}

func (tx *transaction) FindSpecimen(id uint64) (Specimen, bool) {
	sp, ok := tx.state.specimens[id]
	return sp, ok
}

func (tx *transaction) FindSetting(key SettingKey) (RunConfiguration, bool) {
	cfg, ok := tx.state.settings[key]
	return cfg, ok
}

func (tx *transaction) FindRun(id uint64) (Run, bool) {
	run, ok := tx.state.runs[id]
	return run, ok
}

func (tx *transaction) FindSample(key SampleKey) (Sample, bool) {
	sm, ok := tx.state.samples[key]
	if !ok {
		return Sample{}, false
	}
	return cloneSample(sm), true
}

func (tx *transaction) FindSampleByID(id uint64) (Sample, bool) {
	key, ok := tx.state.sampleKeys[id]
	if !ok {
		return Sample{}, false
	}
	return tx.FindSample(key)
}
