package core

import (
	"context"
	"fmt"

	"chambercore/pkg/domain"
)

// LegacyReading is a sensor reading addressed the way the first schema
// generation stored it: by channel, sample index, and run identifier. The
// surrogate-keyed form is canonical; this record exists only as an import
// source.
type LegacyReading struct {
	RunID       uint64
	SampleIndex uint64
	Channel     uint64
	Temperature float64
}

// ImportLegacyReadings converts composite-addressed readings onto the
// canonical surrogate addressing and records them in one transaction. A
// reading whose (run, index) pair does not resolve to a stored sample rejects
// the whole import with ReferenceError.
func (s *Service) ImportLegacyReadings(ctx context.Context, readings []LegacyReading) ([]SensorReading, error) {
	ctx, finish := s.instrument(ctx, "import_legacy_readings")
	var imported []SensorReading
	_, err := s.store.RunInTransaction(ctx, func(tx Transaction) error {
		imported = make([]SensorReading, 0, len(readings))
		for _, rec := range readings {
			key := SampleKey{RunID: rec.RunID, Index: rec.SampleIndex}
			sample, ok := tx.FindSample(key)
			if !ok {
				return domain.ReferenceError{
					Entity: EntityReading,
					Parent: EntitySample,
					Key:    key.String(),
				}
			}
			created, err := tx.RecordReading(sample.ID, rec.Channel, rec.Temperature)
			if err != nil {
				return err
			}
			imported = append(imported, created)
		}
		return nil
	})
	if err != nil {
		imported = nil
	}
	finish(fmt.Sprintf("%d readings", len(readings)), err)
	return imported, err
}
