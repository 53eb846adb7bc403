package core

import (
	"context"
	"testing"

	"chambercore/pkg/domain"
)

type stubRuleView struct {
	domain.RuleView
	settings []RunConfiguration
	samples  []Sample
	readings []SensorReading
	specimen map[uint64]Specimen
	runs     map[uint64]Run
}

func (v stubRuleView) ListSettings() []RunConfiguration { return v.settings }
func (v stubRuleView) ListRuns() []Run {
	out := make([]Run, 0, len(v.runs))
	for _, r := range v.runs {
		out = append(out, r)
	}
	return out
}
func (v stubRuleView) ListAllSamples() []Sample         { return v.samples }
func (v stubRuleView) ListAllReadings() []SensorReading { return v.readings }
func (v stubRuleView) FindSpecimen(id uint64) (Specimen, bool) {
	sp, ok := v.specimen[id]
	return sp, ok
}
func (v stubRuleView) FindRun(id uint64) (Run, bool) {
	r, ok := v.runs[id]
	return r, ok
}
func (v stubRuleView) FindSetting(SettingKey) (RunConfiguration, bool) {
	return RunConfiguration{}, false
}
func (v stubRuleView) FindSampleByID(uint64) (Sample, bool) { return Sample{}, false }

func TestReferentialIntegrityRuleFlagsDanglingChildren(t *testing.T) {
	view := stubRuleView{
		settings: []RunConfiguration{{Key: SettingKey{SettingID: 1, SpecimenID: 9}}},
		samples:  []Sample{{ID: 1, Key: SampleKey{RunID: 2, Index: 0}}},
		readings: []SensorReading{{Key: ReadingKey{SampleID: 7, Channel: 0}}},
		specimen: map[uint64]Specimen{},
		runs:     map[uint64]Run{},
	}
	res, err := NewReferentialIntegrityRule().Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("dangling children must block")
	}
	if len(res.Violations) != 3 {
		t.Fatalf("expected 3 violations, got %d: %+v", len(res.Violations), res.Violations)
	}
}

func TestReferentialIntegrityRulePassesIntactState(t *testing.T) {
	view := stubRuleView{
		settings: []RunConfiguration{{Key: SettingKey{SettingID: 1, SpecimenID: 1}}},
		specimen: map[uint64]Specimen{1: {ID: 1}},
		runs:     map[uint64]Run{},
	}
	res, err := NewReferentialIntegrityRule().Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 0 {
		t.Fatalf("unexpected violations: %+v", res.Violations)
	}
}

func TestSampleSequenceRuleWarnsOnGaps(t *testing.T) {
	view := stubRuleView{
		samples: []Sample{
			{ID: 1, Key: SampleKey{RunID: 1, Index: 0}},
			{ID: 2, Key: SampleKey{RunID: 1, Index: 1}},
			{ID: 3, Key: SampleKey{RunID: 1, Index: 5}},
			{ID: 4, Key: SampleKey{RunID: 2, Index: 3}},
			{ID: 5, Key: SampleKey{RunID: 2, Index: 4}},
		},
	}
	res, err := NewSampleSequenceRule().Evaluate(context.Background(), view, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if res.HasBlocking() {
		t.Fatalf("sequence gaps must not block")
	}
	if len(res.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %+v", res.Violations)
	}
	v := res.Violations[0]
	if v.Rule != "sample_sequence" || v.Severity != domain.SeverityWarn || v.Key != "1" {
		t.Fatalf("unexpected violation: %+v", v)
	}
}

func TestDefaultRulesEngineAllowsCleanCommit(t *testing.T) {
	h := newServiceHarness(t)
	registerFixtureRun(t, h.svc)
	if len(h.audit.all()) != 3 {
		t.Fatalf("expected 3 committed operations")
	}
}
