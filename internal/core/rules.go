package core

import (
	"context"
	"fmt"

	"chambercore/pkg/domain"
)

// NewRulesEngine constructs an empty engine instance.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds a rules engine with the built-in policy set.
func NewDefaultRulesEngine() *RulesEngine {
	engine := NewRulesEngine()
	engine.Register(NewReferentialIntegrityRule())
	engine.Register(NewSampleSequenceRule())
	return engine
}

// NewReferentialIntegrityRule returns the rule guarding the ownership chain:
// every child record's foreign key must resolve to a live parent at commit
// time. Transaction operations already reject dangling references up front;
// the rule is the commit-time backstop that keeps a buggy multi-step mutation
// (a partial cascade in particular) from ever becoming visible.
func NewReferentialIntegrityRule() Rule {
	return referentialIntegrityRule{}
}

type referentialIntegrityRule struct{}

func (referentialIntegrityRule) Name() string { return "referential_integrity" }

func (referentialIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []Change) (Result, error) {
	res := Result{}

	for _, cfg := range view.ListSettings() {
		if _, ok := view.FindSpecimen(cfg.Key.SpecimenID); !ok {
			res.Violations = append(res.Violations, integrityViolation(EntitySetting, cfg.Key.String(),
				fmt.Sprintf("setting %s references missing specimen %d", cfg.Key, cfg.Key.SpecimenID)))
		}
	}
	for _, run := range view.ListRuns() {
		if _, ok := view.FindSetting(run.Setting); !ok {
			res.Violations = append(res.Violations, integrityViolation(EntityRun, fmt.Sprintf("%d", run.ID),
				fmt.Sprintf("run %d references missing setting %s", run.ID, run.Setting)))
		}
	}
	for _, sample := range view.ListAllSamples() {
		if _, ok := view.FindRun(sample.Key.RunID); !ok {
			res.Violations = append(res.Violations, integrityViolation(EntitySample, sample.Key.String(),
				fmt.Sprintf("sample %s references missing run %d", sample.Key, sample.Key.RunID)))
		}
	}
	for _, reading := range view.ListAllReadings() {
		if _, ok := view.FindSampleByID(reading.Key.SampleID); !ok {
			res.Violations = append(res.Violations, integrityViolation(EntityReading, reading.Key.String(),
				fmt.Sprintf("reading %s references missing sample %d", reading.Key, reading.Key.SampleID)))
		}
	}

	return res, nil
}

func integrityViolation(entity EntityType, key, message string) Violation {
	return Violation{
		Rule:     "referential_integrity",
		Severity: SeverityBlock,
		Message:  message,
		Entity:   entity,
		Key:      key,
	}
}

// NewSampleSequenceRule returns a non-blocking rule that reports gaps in a
// run's sample index sequence. Explicit-index appends and reindexing can
// legitimately produce gaps; the warning surfaces them for fixture review.
func NewSampleSequenceRule() Rule {
	return sampleSequenceRule{}
}

type sampleSequenceRule struct{}

func (sampleSequenceRule) Name() string { return "sample_sequence" }

func (sampleSequenceRule) Evaluate(_ context.Context, view domain.RuleView, _ []Change) (Result, error) {
	res := Result{}

	perRun := map[uint64][]uint64{}
	for _, sample := range view.ListAllSamples() {
		perRun[sample.Key.RunID] = append(perRun[sample.Key.RunID], sample.Key.Index)
	}
	for runID, indices := range perRun {
		var lo, hi uint64
		for i, idx := range indices {
			if i == 0 || idx < lo {
				lo = idx
			}
			if idx > hi {
				hi = idx
			}
		}
		if hi-lo+1 != uint64(len(indices)) {
			res.Violations = append(res.Violations, Violation{
				Rule:     "sample_sequence",
				Severity: SeverityWarn,
				Message:  fmt.Sprintf("run %d sample indices are not contiguous", runID),
				Entity:   EntityRun,
				Key:      fmt.Sprintf("%d", runID),
			})
		}
	}

	return res, nil
}
