// Package memory provides the in-memory transactional store for the
// experiment model. Transactions clone the full state, mutate the clone, and
// swap it in under a mutex on success, so an error anywhere, including
// mid-cascade, leaves the committed state untouched.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"chambercore/pkg/domain"
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	Specimen         = domain.Specimen
	RunConfiguration = domain.RunConfiguration
	Run              = domain.Run
	Sample           = domain.Sample
	SensorReading    = domain.SensorReading
	SettingKey       = domain.SettingKey
	SampleKey        = domain.SampleKey
	ReadingKey       = domain.ReadingKey
	Transaction      = domain.Transaction
	TransactionView  = domain.TransactionView
	Change           = domain.Change
	Result           = domain.Result
	RulesEngine      = domain.RulesEngine
)

type memoryState struct {
	specimens map[uint64]Specimen
	settings  map[SettingKey]RunConfiguration
	runs      map[uint64]Run
	samples   map[SampleKey]Sample
	readings  map[ReadingKey]SensorReading
	// sampleKeys maps surrogate sample identifiers to their composite key.
	sampleKeys map[uint64]SampleKey

	nextSpecimenID uint64
	nextRunID      uint64
	nextSampleID   uint64
}

// Snapshot captures a point-in-time clone of the store state in a
// serialization-friendly shape. Slices are ordered: specimens, runs, and
// samples by identifier, settings by key, readings by (sample, channel).
type Snapshot struct {
	Specimens []Specimen         `json:"specimens"`
	Settings  []RunConfiguration `json:"settings"`
	Runs      []Run              `json:"runs"`
	Samples   []Sample           `json:"samples"`
	Readings  []SensorReading    `json:"readings"`
}

func newMemoryState() memoryState {
	return memoryState{
		specimens:      make(map[uint64]Specimen),
		settings:       make(map[SettingKey]RunConfiguration),
		runs:           make(map[uint64]Run),
		samples:        make(map[SampleKey]Sample),
		readings:       make(map[ReadingKey]SensorReading),
		sampleKeys:     make(map[uint64]SampleKey),
		nextSpecimenID: 1,
		nextRunID:      1,
		nextSampleID:   1,
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.specimens {
		cloned.specimens[k] = v
	}
	for k, v := range s.settings {
		cloned.settings[k] = v
	}
	for k, v := range s.runs {
		cloned.runs[k] = v
	}
	for k, v := range s.samples {
		cloned.samples[k] = cloneSample(v)
	}
	for k, v := range s.readings {
		cloned.readings[k] = v
	}
	for k, v := range s.sampleKeys {
		cloned.sampleKeys[k] = v
	}
	cloned.nextSpecimenID = s.nextSpecimenID
	cloned.nextRunID = s.nextRunID
	cloned.nextSampleID = s.nextSampleID
	return cloned
}

func cloneSample(s Sample) Sample {
	cp := s
	cp.Mass = cloneFloat(s.Mass)
	cp.PowerOut = cloneFloat(s.PowerOut)
	cp.PowerRef = cloneFloat(s.PowerRef)
	return cp
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	f := *v
	return &f
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	snap := Snapshot{}
	for _, sp := range state.specimens {
		snap.Specimens = append(snap.Specimens, sp)
	}
	sort.Slice(snap.Specimens, func(i, j int) bool { return snap.Specimens[i].ID < snap.Specimens[j].ID })
	for _, cfg := range state.settings {
		snap.Settings = append(snap.Settings, cfg)
	}
	sort.Slice(snap.Settings, func(i, j int) bool {
		a, b := snap.Settings[i].Key, snap.Settings[j].Key
		if a.SpecimenID != b.SpecimenID {
			return a.SpecimenID < b.SpecimenID
		}
		return a.SettingID < b.SettingID
	})
	for _, run := range state.runs {
		snap.Runs = append(snap.Runs, run)
	}
	sort.Slice(snap.Runs, func(i, j int) bool { return snap.Runs[i].ID < snap.Runs[j].ID })
	for _, sm := range state.samples {
		snap.Samples = append(snap.Samples, cloneSample(sm))
	}
	sort.Slice(snap.Samples, func(i, j int) bool { return snap.Samples[i].ID < snap.Samples[j].ID })
	for _, rd := range state.readings {
		snap.Readings = append(snap.Readings, rd)
	}
	sort.Slice(snap.Readings, func(i, j int) bool {
		a, b := snap.Readings[i].Key, snap.Readings[j].Key
		if a.SampleID != b.SampleID {
			return a.SampleID < b.SampleID
		}
		return a.Channel < b.Channel
	})
	return snap
}

func memoryStateFromSnapshot(snap Snapshot) memoryState {
	state := newMemoryState()
	for _, sp := range snap.Specimens {
		state.specimens[sp.ID] = sp
		if sp.ID >= state.nextSpecimenID {
			state.nextSpecimenID = sp.ID + 1
		}
	}
	for _, cfg := range snap.Settings {
		state.settings[cfg.Key] = cfg
	}
	for _, run := range snap.Runs {
		state.runs[run.ID] = run
		if run.ID >= state.nextRunID {
			state.nextRunID = run.ID + 1
		}
	}
	for _, sm := range snap.Samples {
		state.samples[sm.Key] = cloneSample(sm)
		state.sampleKeys[sm.ID] = sm.Key
		if sm.ID >= state.nextSampleID {
			state.nextSampleID = sm.ID + 1
		}
	}
	for _, rd := range snap.Readings {
		state.readings[rd.Key] = rd
	}
	return state
}

// Store is the in-memory persistent store for the experiment model.
type Store struct {
	mu          sync.RWMutex
	state       memoryState
	engine      *RulesEngine
	indexOrigin uint64
	nowFn       func() time.Time
}

// Option configures a Store at construction time.
type Option func(*Store)

// WithSampleIndexOrigin sets the first index assigned to a run's samples.
// Fixture sets disagree on whether the sequence starts at 0 or 1; the default
// is 0.
func WithSampleIndexOrigin(origin uint64) Option {
	return func(s *Store) { s.indexOrigin = origin }
}

// WithNowFunc overrides the clock used to stamp created records.
func WithNowFunc(fn func() time.Time) Option {
	return func(s *Store) {
		if fn != nil {
			s.nowFn = fn
		}
	}
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine, opts ...Option) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	s := &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExportState returns a serializable snapshot of the committed state.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the committed state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the engine evaluating transactions on this store.
func (s *Store) RulesEngine() *RulesEngine { return s.engine }

// IndexOrigin reports the configured first sample index for new runs.
func (s *Store) IndexOrigin() uint64 { return s.indexOrigin }

// NowFunc exposes the clock used to stamp created records.
func (s *Store) NowFunc() func() time.Time { return s.nowFn }

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The clone is committed only when fn and every registered rule succeed.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, blockingIntegrityError(res)
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func blockingIntegrityError(res Result) error {
	for _, v := range res.Violations {
		if v.Severity == domain.SeverityBlock {
			return domain.IntegrityError{Entity: v.Entity, Key: v.Key, Reason: v.Message}
		}
	}
	return domain.IntegrityError{Reason: "transaction blocked by rules"}
}
