package domain

import "context"

// RuleView provides read-only access to domain entities for rule evaluation.
// ListAllSamples and ListAllReadings enumerate across runs and samples so
// rules can detect dangling children regardless of parent reachability.
type RuleView interface {
	ListSpecimens() []Specimen
	ListSettings() []RunConfiguration
	ListRuns() []Run
	ListAllSamples() []Sample
	ListAllReadings() []SensorReading
	FindSpecimen(id uint64) (Specimen, bool)
	FindSetting(key SettingKey) (RunConfiguration, bool)
	FindRun(id uint64) (Run, bool)
	FindSample(key SampleKey) (Sample, bool)
	FindSampleByID(id uint64) (Sample, bool)
}

// Rule defines an evaluation executed within a transaction boundary.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine() *RulesEngine {
	return &RulesEngine{}
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	e.rules = append(e.rules, rule)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, err
		}
		combined.Merge(res)
	}
	return combined, nil
}
