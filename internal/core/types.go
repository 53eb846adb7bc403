// Package core exposes the transactional service surface over the experiment
// model: registry operations, cascade coordination, bulk loading, and the
// observability seams instrumenting them.
package core

import "chambercore/pkg/domain"

type (
	EntityType       = domain.EntityType
	Specimen         = domain.Specimen
	RunConfiguration = domain.RunConfiguration
	Run              = domain.Run
	Sample           = domain.Sample
	SensorReading    = domain.SensorReading
	SettingKey       = domain.SettingKey
	SampleKey        = domain.SampleKey
	ReadingKey       = domain.ReadingKey
	SpecimenSpec     = domain.SpecimenSpec
	SettingSpec      = domain.SettingSpec
	RunSpec          = domain.RunSpec
	SampleSpec       = domain.SampleSpec
	Change           = domain.Change
	Action           = domain.Action
	Violation        = domain.Violation
	Result           = domain.Result
	Rule             = domain.Rule
	RulesEngine      = domain.RulesEngine
	Transaction      = domain.Transaction
	TransactionView  = domain.TransactionView
	PersistentStore  = domain.PersistentStore
)

const (
	EntitySpecimen = domain.EntitySpecimen
	EntitySetting  = domain.EntitySetting
	EntityRun      = domain.EntityRun
	EntitySample   = domain.EntitySample
	EntityReading  = domain.EntityReading
)

const (
	ActionCreate     = domain.ActionCreate
	ActionReidentify = domain.ActionReidentify
	ActionDelete     = domain.ActionDelete
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)
