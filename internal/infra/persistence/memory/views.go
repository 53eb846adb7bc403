package memory

import "sort"

// Read helpers over a transactional snapshot -------------------------------

func (v transactionView) ListSpecimens() []Specimen {
	out := make([]Specimen, 0, len(v.state.specimens))
	for _, sp := range v.state.specimens {
		out = append(out, sp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListSettings() []RunConfiguration {
	out := make([]RunConfiguration, 0, len(v.state.settings))
	for _, cfg := range v.state.settings {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.SpecimenID != b.SpecimenID {
			return a.SpecimenID < b.SpecimenID
		}
		return a.SettingID < b.SettingID
	})
	return out
}

func (v transactionView) ListRuns() []Run {
	out := make([]Run, 0, len(v.state.runs))
	for _, run := range v.state.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListSamples(runID uint64) []Sample {
	var out []Sample
	for key, sample := range v.state.samples {
		if key.RunID == runID {
			out = append(out, cloneSample(sample))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Index < out[j].Key.Index })
	return out
}

func (v transactionView) ListReadings(sampleID uint64) []SensorReading {
	var out []SensorReading
	for key, reading := range v.state.readings {
		if key.SampleID == sampleID {
			out = append(out, reading)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Channel < out[j].Key.Channel })
	return out
}

func (v transactionView) ListAllSamples() []Sample {
	out := make([]Sample, 0, len(v.state.samples))
	for _, sample := range v.state.samples {
		out = append(out, cloneSample(sample))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (v transactionView) ListAllReadings() []SensorReading {
	out := make([]SensorReading, 0, len(v.state.readings))
	for _, reading := range v.state.readings {
		out = append(out, reading)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.SampleID != b.SampleID {
			return a.SampleID < b.SampleID
		}
		return a.Channel < b.Channel
	})
	return out
}

func (v transactionView) FindSpecimen(id uint64) (Specimen, bool) {
	sp, ok := v.state.specimens[id]
	return sp, ok
}

func (v transactionView) FindSetting(key SettingKey) (RunConfiguration, bool) {
	cfg, ok := v.state.settings[key]
	return cfg, ok
}

func (v transactionView) FindRun(id uint64) (Run, bool) {
	run, ok := v.state.runs[id]
	return run, ok
}

func (v transactionView) FindSample(key SampleKey) (Sample, bool) {
	sample, ok := v.state.samples[key]
	if !ok {
		return Sample{}, false
	}
	return cloneSample(sample), true
}

func (v transactionView) FindSampleByID(id uint64) (Sample, bool) {
	key, ok := v.state.sampleKeys[id]
	if !ok {
		return Sample{}, false
	}
	return v.FindSample(key)
}

// Read helpers over committed state ----------------------------------------

// GetSpecimen retrieves a specimen by identifier from committed state.
func (s *Store) GetSpecimen(id uint64) (Specimen, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.state.specimens[id]
	return sp, ok
}

// ListSpecimens returns all specimens ordered by identifier.
func (s *Store) ListSpecimens() []Specimen {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListSpecimens()
}

// GetSetting retrieves a run configuration by composite key.
func (s *Store) GetSetting(key SettingKey) (RunConfiguration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.state.settings[key]
	return cfg, ok
}

// ListSettings returns all run configurations ordered by key.
func (s *Store) ListSettings() []RunConfiguration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListSettings()
}

// GetRun retrieves a run by identifier.
func (s *Store) GetRun(id uint64) (Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.state.runs[id]
	return run, ok
}

// ListRuns returns all runs ordered by identifier.
func (s *Store) ListRuns() []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListRuns()
}

// GetSample retrieves a sample by composite key.
func (s *Store) GetSample(key SampleKey) (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.FindSample(key)
}

// GetSampleByID retrieves a sample by surrogate identifier.
func (s *Store) GetSampleByID(id uint64) (Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.FindSampleByID(id)
}

// ListSamples returns a run's samples ordered by index.
func (s *Store) ListSamples(runID uint64) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListSamples(runID)
}

// ListReadings returns a sample's readings ordered by channel.
func (s *Store) ListReadings(sampleID uint64) []SensorReading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionView{state: &s.state}.ListReadings(sampleID)
}
