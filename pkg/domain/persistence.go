package domain

import "context"

// Transaction exposes the mutating operations that a persistence
// implementation must support within an atomic scope. Registration operations
// validate fully before any write; an error from any operation leaves the
// committed state untouched.
type Transaction interface {
	Snapshot() TransactionView

	RegisterSpecimen(spec SpecimenSpec) (Specimen, error)
	RegisterSetting(specimenID uint64, spec SettingSpec) (RunConfiguration, error)
	RegisterRun(setting SettingKey, spec RunSpec) (Run, error)
	AppendSample(runID uint64, spec SampleSpec) (Sample, error)
	RecordReading(sampleID, channel uint64, temperature float64) (SensorReading, error)

	// Reidentification renumbers a parent identifier and cascades the change
	// to every descendant foreign-key reference within the same atomic scope.
	ReidentifySpecimen(oldID, newID uint64) error
	ReidentifySetting(old SettingKey, newSettingID uint64) error
	ReidentifyRun(oldID, newID uint64) error
	ReindexSample(runID, oldIndex, newIndex uint64) error

	// Removal never cascades: a parent with live children is rejected with
	// IntegrityError.
	RemoveSpecimen(id uint64) error
	RemoveSetting(key SettingKey) error
	RemoveRun(id uint64) error
	RemoveSample(key SampleKey) error
	RemoveReading(key ReadingKey) error

	FindSpecimen(id uint64) (Specimen, bool)
	FindSetting(key SettingKey) (RunConfiguration, bool)
	FindRun(id uint64) (Run, bool)
	FindSample(key SampleKey) (Sample, bool)
	FindSampleByID(id uint64) (Sample, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// concurrent readers. List results are stable: identifiers ascending, readings
// by channel ascending.
type TransactionView interface {
	ListSpecimens() []Specimen
	ListSettings() []RunConfiguration
	ListRuns() []Run
	ListSamples(runID uint64) []Sample
	ListReadings(sampleID uint64) []SensorReading
	ListAllSamples() []Sample
	ListAllReadings() []SensorReading
	FindSpecimen(id uint64) (Specimen, bool)
	FindSetting(key SettingKey) (RunConfiguration, bool)
	FindRun(id uint64) (Run, bool)
	FindSample(key SampleKey) (Sample, bool)
	FindSampleByID(id uint64) (Sample, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetSpecimen(id uint64) (Specimen, bool)
	ListSpecimens() []Specimen
	GetSetting(key SettingKey) (RunConfiguration, bool)
	ListSettings() []RunConfiguration
	GetRun(id uint64) (Run, bool)
	ListRuns() []Run
	GetSample(key SampleKey) (Sample, bool)
	GetSampleByID(id uint64) (Sample, bool)
	ListSamples(runID uint64) []Sample
	ListReadings(sampleID uint64) []SensorReading
}
