package core

import (
	"context"
	"fmt"

	"chambercore/pkg/domain"
)

// Service exposes transactional registry operations over a persistent store.
// Every mutating operation runs inside one store transaction, so multi-entity
// writes (reference checks, cascades, batch loads) are all-or-nothing.
type Service struct {
	store   PersistentStore
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	clock   Clock
}

// NewService constructs a service backed by the supplied store.
func NewService(store PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:   store,
		logger:  noopLogger{},
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		audit:   noopAuditRecorder{},
		clock:   systemClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() PersistentStore { return s.store }

// RegisterSpecimen validates and persists a new test article.
func (s *Service) RegisterSpecimen(ctx context.Context, spec SpecimenSpec) (Specimen, error) {
	ctx, finish := s.instrument(ctx, "register_specimen")
	var created Specimen
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.RegisterSpecimen(spec)
		return err
	})
	finish(fmt.Sprintf("%d", created.ID), err)
	return created, err
}

// GetSpecimen retrieves a specimen, failing with NotFoundError when absent.
func (s *Service) GetSpecimen(_ context.Context, id uint64) (Specimen, error) {
	sp, ok := s.store.GetSpecimen(id)
	if !ok {
		return Specimen{}, domain.NotFoundError{Entity: EntitySpecimen, Key: fmt.Sprintf("%d", id)}
	}
	return sp, nil
}

// RegisterSetting validates and persists a run configuration bound to one
// specimen, returning its composite key.
func (s *Service) RegisterSetting(ctx context.Context, specimenID uint64, spec SettingSpec) (RunConfiguration, error) {
	ctx, finish := s.instrument(ctx, "register_setting")
	var created RunConfiguration
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.RegisterSetting(specimenID, spec)
		return err
	})
	finish(created.Key.String(), err)
	return created, err
}

// GetSetting retrieves a run configuration by composite key.
func (s *Service) GetSetting(_ context.Context, key SettingKey) (RunConfiguration, error) {
	cfg, ok := s.store.GetSetting(key)
	if !ok {
		return RunConfiguration{}, domain.NotFoundError{Entity: EntitySetting, Key: key.String()}
	}
	return cfg, nil
}

// RegisterRun validates and persists one executed experiment.
func (s *Service) RegisterRun(ctx context.Context, setting SettingKey, spec RunSpec) (Run, error) {
	ctx, finish := s.instrument(ctx, "register_run")
	var created Run
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.RegisterRun(setting, spec)
		return err
	})
	finish(fmt.Sprintf("%d", created.ID), err)
	return created, err
}

// GetRun retrieves a run by identifier.
func (s *Service) GetRun(_ context.Context, id uint64) (Run, error) {
	run, ok := s.store.GetRun(id)
	if !ok {
		return Run{}, domain.NotFoundError{Entity: EntityRun, Key: fmt.Sprintf("%d", id)}
	}
	return run, nil
}

// AppendSample appends one measurement to a run, assigning the next index of
// the per-run sequence unless the spec carries an explicit one.
func (s *Service) AppendSample(ctx context.Context, runID uint64, spec SampleSpec) (Sample, error) {
	ctx, finish := s.instrument(ctx, "append_sample")
	var created Sample
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.AppendSample(runID, spec)
		return err
	})
	finish(created.Key.String(), err)
	return created, err
}

// GetSample retrieves a sample by composite key.
func (s *Service) GetSample(_ context.Context, key SampleKey) (Sample, error) {
	sample, ok := s.store.GetSample(key)
	if !ok {
		return Sample{}, domain.NotFoundError{Entity: EntitySample, Key: key.String()}
	}
	return sample, nil
}

// GetSampleByID retrieves a sample by its surrogate identifier.
func (s *Service) GetSampleByID(_ context.Context, id uint64) (Sample, error) {
	sample, ok := s.store.GetSampleByID(id)
	if !ok {
		return Sample{}, domain.NotFoundError{Entity: EntitySample, Key: fmt.Sprintf("%d", id)}
	}
	return sample, nil
}

// ListSamples returns a run's samples ordered by index.
func (s *Service) ListSamples(_ context.Context, runID uint64) []Sample {
	return s.store.ListSamples(runID)
}

// RecordReading attaches one channel temperature to a sample.
func (s *Service) RecordReading(ctx context.Context, sampleID, channel uint64, temperature float64) (SensorReading, error) {
	ctx, finish := s.instrument(ctx, "record_reading")
	var created SensorReading
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		created, err = tx.RecordReading(sampleID, channel, temperature)
		return err
	})
	finish(created.Key.String(), err)
	return created, err
}

// Readings returns a sample's readings ordered by channel ascending.
func (s *Service) Readings(_ context.Context, sampleID uint64) []SensorReading {
	return s.store.ListReadings(sampleID)
}

// ReidentifySpecimen renumbers a specimen, cascading the change to every
// descendant reference in one atomic transaction.
func (s *Service) ReidentifySpecimen(ctx context.Context, oldID, newID uint64) error {
	ctx, finish := s.instrument(ctx, "reidentify_specimen")
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.ReidentifySpecimen(oldID, newID)
	})
	finish(fmt.Sprintf("%d", oldID), err)
	return err
}

// ReidentifySetting renumbers a run configuration within its specimen scope.
func (s *Service) ReidentifySetting(ctx context.Context, old SettingKey, newSettingID uint64) error {
	ctx, finish := s.instrument(ctx, "reidentify_setting")
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.ReidentifySetting(old, newSettingID)
	})
	finish(old.String(), err)
	return err
}

// ReidentifyRun renumbers a run, cascading the change to its samples.
func (s *Service) ReidentifyRun(ctx context.Context, oldID, newID uint64) error {
	ctx, finish := s.instrument(ctx, "reidentify_run")
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.ReidentifyRun(oldID, newID)
	})
	finish(fmt.Sprintf("%d", oldID), err)
	return err
}

// ReindexSample moves a sample to a new index within its run.
func (s *Service) ReindexSample(ctx context.Context, runID, oldIndex, newIndex uint64) error {
	ctx, finish := s.instrument(ctx, "reindex_sample")
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.ReindexSample(runID, oldIndex, newIndex)
	})
	finish(SampleKey{RunID: runID, Index: oldIndex}.String(), err)
	return err
}

// RemoveSpecimen deletes a specimen; owning any run configuration is an
// IntegrityError.
func (s *Service) RemoveSpecimen(ctx context.Context, id uint64) error {
	ctx, finish := s.instrument(ctx, "remove_specimen")
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.RemoveSpecimen(id)
	})
	finish(fmt.Sprintf("%d", id), err)
	return err
}

// RemoveSetting deletes a run configuration with no bound runs.
func (s *Service) RemoveSetting(ctx context.Context, key SettingKey) error {
	ctx, finish := s.instrument(ctx, "remove_setting")
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.RemoveSetting(key)
	})
	finish(key.String(), err)
	return err
}

// RemoveRun deletes a run with no samples.
func (s *Service) RemoveRun(ctx context.Context, id uint64) error {
	ctx, finish := s.instrument(ctx, "remove_run")
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.RemoveRun(id)
	})
	finish(fmt.Sprintf("%d", id), err)
	return err
}

// RemoveSample deletes a sample with no readings.
func (s *Service) RemoveSample(ctx context.Context, key SampleKey) error {
	ctx, finish := s.instrument(ctx, "remove_sample")
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.RemoveSample(key)
	})
	finish(key.String(), err)
	return err
}

// RemoveReading deletes one channel reading.
func (s *Service) RemoveReading(ctx context.Context, key ReadingKey) error {
	ctx, finish := s.instrument(ctx, "remove_reading")
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.RemoveReading(key)
	})
	finish(key.String(), err)
	return err
}
