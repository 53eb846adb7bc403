// Package fixture decodes embedded seed files into loadable batches. Two seed
// generations ship with the module: the current one addresses readings through
// samples assigned at load time, the legacy one carries composite-addressed
// readings that go through the legacy import path.
//
// Timestamps are parsed strictly by default: a calendar-impossible date
// rejects the seed. The legacy generation contains one such date, so loading
// it requires opting in to lenient parsing, which normalizes the overflow the
// way civil-time arithmetic does (February 31st becomes March 3rd).
package fixture

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"chambercore/internal/core"
)

//go:embed seed/current.json
var currentSeed []byte

//go:embed seed/legacy.json
var legacySeed []byte

const timestampLayout = "2006-01-02T15:04:05"

// Seed is a decoded fixture ready to load.
type Seed struct {
	Batch          core.Batch
	LegacyReadings []core.LegacyReading
}

// Option configures decoding.
type Option func(*decoder)

// WithLenientTimestamps accepts calendar-impossible dates by normalizing them
// instead of rejecting the seed.
func WithLenientTimestamps() Option {
	return func(d *decoder) { d.lenient = true }
}

type decoder struct {
	lenient bool
}

type seedFile struct {
	Specimens []struct {
		ID            uint64  `json:"id"`
		InnerDiameter float64 `json:"inner_diameter"`
		OuterDiameter float64 `json:"outer_diameter"`
		Length        float64 `json:"length"`
		Material      string  `json:"material"`
		Mass          float64 `json:"mass"`
	} `json:"specimens"`
	Settings []struct {
		SettingID    uint64  `json:"setting_id"`
		SpecimenID   uint64  `json:"specimen_id"`
		Duty         float64 `json:"duty"`
		Pressure     float64 `json:"pressure"`
		Temperature  float64 `json:"temperature"`
		TimeStep     float64 `json:"time_step"`
		MassBasis    bool    `json:"mass_basis"`
		HasReservoir bool    `json:"has_reservoir"`
	} `json:"settings"`
	Runs []struct {
		ID          uint64 `json:"id"`
		SettingID   uint64 `json:"setting_id"`
		SpecimenID  uint64 `json:"specimen_id"`
		Author      string `json:"author"`
		StartedAt   string `json:"started_at"`
		Description string `json:"description"`
	} `json:"runs"`
	Samples []struct {
		RunID     uint64   `json:"run_id"`
		Index     uint64   `json:"index"`
		CapManOK  bool     `json:"cap_man_ok"`
		OptidewOK bool     `json:"optidew_ok"`
		DewPoint  float64  `json:"dew_point"`
		Pressure  float64  `json:"pressure"`
		Mass      *float64 `json:"mass"`
		PowerOut  *float64 `json:"power_out"`
		PowerRef  *float64 `json:"power_ref"`
	} `json:"samples"`
	Readings []struct {
		RunID       uint64  `json:"run_id"`
		SampleIndex uint64  `json:"sample_index"`
		Channel     uint64  `json:"channel"`
		Temperature float64 `json:"temperature"`
	} `json:"readings"`
	LegacyReadings []struct {
		RunID       uint64  `json:"run_id"`
		SampleIndex uint64  `json:"sample_index"`
		Channel     uint64  `json:"channel"`
		Temperature float64 `json:"temperature"`
	} `json:"legacy_readings"`
}

// Current returns the decoded current-generation seed.
func Current(opts ...Option) (Seed, error) {
	return Decode(currentSeed, opts...)
}

// Legacy returns the decoded legacy-generation seed.
func Legacy(opts ...Option) (Seed, error) {
	return Decode(legacySeed, opts...)
}

// Decode parses raw seed JSON into a loadable Seed.
func Decode(data []byte, opts ...Option) (Seed, error) {
	d := decoder{}
	for _, opt := range opts {
		opt(&d)
	}

	var file seedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}

	var seed Seed
	for _, rec := range file.Specimens {
		seed.Batch.Specimens = append(seed.Batch.Specimens, core.BatchSpecimen{
			ID: rec.ID,
			Spec: core.SpecimenSpec{
				InnerDiameter: rec.InnerDiameter,
				OuterDiameter: rec.OuterDiameter,
				Length:        rec.Length,
				Material:      rec.Material,
				Mass:          rec.Mass,
			},
		})
	}
	for _, rec := range file.Settings {
		seed.Batch.Settings = append(seed.Batch.Settings, core.BatchSetting{
			Key: core.SettingKey{SettingID: rec.SettingID, SpecimenID: rec.SpecimenID},
			Spec: core.SettingSpec{
				Duty:         rec.Duty,
				Pressure:     rec.Pressure,
				Temperature:  rec.Temperature,
				TimeStep:     rec.TimeStep,
				MassBasis:    rec.MassBasis,
				HasReservoir: rec.HasReservoir,
			},
		})
	}
	for _, rec := range file.Runs {
		startedAt, err := d.parseTimestamp(rec.StartedAt)
		if err != nil {
			return Seed{}, fmt.Errorf("run %d: %w", rec.ID, err)
		}
		seed.Batch.Runs = append(seed.Batch.Runs, core.BatchRun{
			ID:      rec.ID,
			Setting: core.SettingKey{SettingID: rec.SettingID, SpecimenID: rec.SpecimenID},
			Spec: core.RunSpec{
				Author:      rec.Author,
				StartedAt:   startedAt,
				Description: rec.Description,
			},
		})
	}
	for _, rec := range file.Samples {
		seed.Batch.Samples = append(seed.Batch.Samples, core.BatchSample{
			RunID: rec.RunID,
			Index: rec.Index,
			Spec: core.SampleSpec{
				CapManOK:  rec.CapManOK,
				OptidewOK: rec.OptidewOK,
				DewPoint:  rec.DewPoint,
				Pressure:  rec.Pressure,
				Mass:      rec.Mass,
				PowerOut:  rec.PowerOut,
				PowerRef:  rec.PowerRef,
			},
		})
	}
	for _, rec := range file.Readings {
		seed.Batch.Readings = append(seed.Batch.Readings, core.BatchReading{
			RunID:       rec.RunID,
			SampleIndex: rec.SampleIndex,
			Channel:     rec.Channel,
			Temperature: rec.Temperature,
		})
	}
	for _, rec := range file.LegacyReadings {
		seed.LegacyReadings = append(seed.LegacyReadings, core.LegacyReading{
			RunID:       rec.RunID,
			SampleIndex: rec.SampleIndex,
			Channel:     rec.Channel,
			Temperature: rec.Temperature,
		})
	}
	return seed, nil
}

// parseTimestamp parses a seed timestamp. Strict mode round-trips through
// time.Parse, which rejects impossible dates. Lenient mode feeds the raw
// components to time.Date and lets it normalize.
func (d decoder) parseTimestamp(value string) (time.Time, error) {
	if !d.lenient {
		ts, err := time.Parse(timestampLayout, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("timestamp %q: %w", value, err)
		}
		return ts.UTC(), nil
	}
	var year, month, day, hour, minute, second int
	if _, err := fmt.Sscanf(value, "%d-%d-%dT%d:%d:%d", &year, &month, &day, &hour, &minute, &second); err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: %w", value, err)
	}
	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC), nil
}

// Load applies the seed to the service: the batch in one transaction, then
// any legacy readings through the composite import path.
func Load(ctx context.Context, svc *core.Service, seed Seed) (core.BatchResult, error) {
	result, err := svc.LoadBatch(ctx, seed.Batch)
	if err != nil {
		return core.BatchResult{}, err
	}
	if len(seed.LegacyReadings) > 0 {
		imported, err := svc.ImportLegacyReadings(ctx, seed.LegacyReadings)
		if err != nil {
			return core.BatchResult{}, err
		}
		result.Readings += len(imported)
	}
	return result, nil
}
