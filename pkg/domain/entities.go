// Package domain defines the persistent entities, composite key types, error
// kinds, and persistence contracts of the chambercore experiment model.
package domain

import (
	"fmt"
	"time"
)

// EntityType identifies the type of record stored in the experiment model.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntitySpecimen identifies a physical test article record.
	EntitySpecimen EntityType = "specimen"
	// EntitySetting identifies a run configuration record.
	EntitySetting EntityType = "setting"
	// EntityRun identifies an executed experiment record.
	EntityRun EntityType = "run"
	// EntitySample identifies a timestamped measurement record within a run.
	EntitySample EntityType = "sample"
	// EntityReading identifies a per-channel temperature reading record.
	EntityReading EntityType = "reading"
)

// SettingKey is the composite identity of a run configuration. SettingID is
// unique only within the owning specimen.
type SettingKey struct {
	SettingID  uint64 `json:"setting_id"`
	SpecimenID uint64 `json:"specimen_id"`
}

func (k SettingKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.SettingID, k.SpecimenID)
}

// SampleKey is the composite identity of a sample. Index is a per-run
// monotonic sequence; it is unique only within the owning run.
type SampleKey struct {
	RunID uint64 `json:"run_id"`
	Index uint64 `json:"index"`
}

func (k SampleKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.Index, k.RunID)
}

// ReadingKey is the composite identity of a sensor reading. Readings address
// their sample through the surrogate sample identifier.
type ReadingKey struct {
	SampleID uint64 `json:"sample_id"`
	Channel  uint64 `json:"channel"`
}

func (k ReadingKey) String() string {
	return fmt.Sprintf("(%d,%d)", k.Channel, k.SampleID)
}

// Specimen describes a tubular test article under study.
type Specimen struct {
	ID            uint64    `json:"id"`
	InnerDiameter float64   `json:"inner_diameter"`
	OuterDiameter float64   `json:"outer_diameter"`
	Length        float64   `json:"length"`
	Material      string    `json:"material"`
	Mass          float64   `json:"mass"`
	CreatedAt     time.Time `json:"created_at"`
}

// RunConfiguration is a named set of environmental and control parameters
// applied during runs, scoped to exactly one specimen.
type RunConfiguration struct {
	Key          SettingKey `json:"key"`
	Duty         float64    `json:"duty"`
	Pressure     float64    `json:"pressure"`
	Temperature  float64    `json:"temperature"`
	TimeStep     float64    `json:"time_step"`
	MassBasis    bool       `json:"mass_basis"`
	HasReservoir bool       `json:"has_reservoir"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Run records one executed experiment bound to one run configuration.
type Run struct {
	ID          uint64     `json:"id"`
	Setting     SettingKey `json:"setting"`
	Author      string     `json:"author"`
	StartedAt   time.Time  `json:"started_at"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Sample is one timestamped measurement within a run. CapManOK and OptidewOK
// report the health of the capacitance manometer and the chilled-mirror dew
// point instrument for the interval. Mass, PowerOut, and PowerRef are nil when
// the corresponding instrument was not installed or active for the run.
type Sample struct {
	ID        uint64    `json:"id"`
	Key       SampleKey `json:"key"`
	CapManOK  bool      `json:"cap_man_ok"`
	OptidewOK bool      `json:"optidew_ok"`
	DewPoint  float64   `json:"dew_point"`
	Pressure  float64   `json:"pressure"`
	Mass      *float64  `json:"mass,omitempty"`
	PowerOut  *float64  `json:"power_out,omitempty"`
	PowerRef  *float64  `json:"power_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SensorReading is one thermocouple channel's temperature attached to a sample.
type SensorReading struct {
	Key         ReadingKey `json:"key"`
	Temperature float64    `json:"temperature"`
	CreatedAt   time.Time  `json:"created_at"`
}

// SpecimenSpec carries the caller-supplied fields for specimen registration.
type SpecimenSpec struct {
	InnerDiameter float64 `json:"inner_diameter"`
	OuterDiameter float64 `json:"outer_diameter"`
	Length        float64 `json:"length"`
	Material      string  `json:"material"`
	Mass          float64 `json:"mass"`
}

// SettingSpec carries the caller-supplied fields for run configuration
// registration. Pressure and Temperature are absolute and must be positive.
type SettingSpec struct {
	Duty         float64 `json:"duty"`
	Pressure     float64 `json:"pressure"`
	Temperature  float64 `json:"temperature"`
	TimeStep     float64 `json:"time_step"`
	MassBasis    bool    `json:"mass_basis"`
	HasReservoir bool    `json:"has_reservoir"`
}

// RunSpec carries the caller-supplied fields for run registration.
type RunSpec struct {
	Author      string    `json:"author"`
	StartedAt   time.Time `json:"started_at"`
	Description string    `json:"description"`
}

// SampleSpec carries the caller-supplied fields for appending a sample.
// Index, when non-nil, requests an explicit sample index instead of the next
// value of the per-run sequence.
type SampleSpec struct {
	Index     *uint64  `json:"index,omitempty"`
	CapManOK  bool     `json:"cap_man_ok"`
	OptidewOK bool     `json:"optidew_ok"`
	DewPoint  float64  `json:"dew_point"`
	Pressure  float64  `json:"pressure"`
	Mass      *float64 `json:"mass,omitempty"`
	PowerOut  *float64 `json:"power_out,omitempty"`
	PowerRef  *float64 `json:"power_ref,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate the mutations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionReidentify indicates an entity's identifier was renumbered,
	// cascading to its descendants.
	ActionReidentify Action = "reidentify"
	// ActionDelete indicates an entity was removed.
	ActionDelete Action = "delete"
)

// Violation reports a failed integrity rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	Key      string
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}
