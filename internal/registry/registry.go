// Package registry holds the live collections of workers, health cases and
// water sources that the leaderboard is computed from.
//
// Every successful mutation bumps the registry version. Readers take a
// Snapshot, which is a private copy tagged with the version it was taken at.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ashaboard/ashaboard/pkg/dataset"
	"github.com/ashaboard/ashaboard/pkg/ranking"
	"github.com/ashaboard/ashaboard/pkg/water"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
	ErrInvalid  = errors.New("invalid")
)

const dateLayout = "2006-01-02"

// Registry is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	version  uint64
	workers  []dataset.Worker
	cases    []ranking.Case
	sources  []ranking.WaterSource
	readings map[string]water.Reading // latest reading per source id

	now func() time.Time
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the clock used for default case dates and reading
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// New creates an empty registry at version 0.
func New(opts ...Option) *Registry {
	r := &Registry{
		readings: make(map[string]water.Reading),
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Snapshot is a consistent copy of the registry contents.
type Snapshot struct {
	Version uint64
	Workers []dataset.Worker
	Cases   []ranking.Case
	Sources []ranking.WaterSource
}

// Snapshot copies the current collections.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{
		Version: r.version,
		Workers: append([]dataset.Worker{}, r.workers...),
		Cases:   append([]ranking.Case{}, r.cases...),
		Sources: append([]ranking.WaterSource{}, r.sources...),
	}
}

// Version returns the current version without copying anything.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Replace swaps every collection for the contents of ds. The dataset must
// pass validation. Cases and sources without an id get a random UUID, as
// AddCase and AddSource do. Stored readings are discarded.
func (r *Registry) Replace(ds *dataset.Dataset) error {
	if ds == nil {
		ds = &dataset.Dataset{}
	}
	if err := ds.Validate(); err != nil {
		return fmt.Errorf("%w dataset: %w", ErrInvalid, err)
	}

	cases := append([]ranking.Case{}, ds.Cases...)
	for i := range cases {
		if strings.TrimSpace(cases[i].ID) == "" {
			cases[i].ID = uuid.NewString()
		}
	}
	sources := append([]ranking.WaterSource{}, ds.Sources...)
	for i := range sources {
		if strings.TrimSpace(sources[i].ID) == "" {
			sources[i].ID = uuid.NewString()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.workers = append([]dataset.Worker{}, ds.Workers...)
	r.cases = cases
	r.sources = sources
	r.readings = make(map[string]water.Reading)
	r.version++
	return nil
}

// bump must be called with the write lock held.
func (r *Registry) bump() { r.version++ }

func (r *Registry) today() string { return r.now().UTC().Format(dateLayout) }

// --- workers ---

// AddWorker registers a worker. Status defaults to active.
func (r *Registry) AddWorker(w dataset.Worker) (dataset.Worker, error) {
	w.ID = strings.TrimSpace(w.ID)
	w.Name = strings.TrimSpace(w.Name)
	if w.ID == "" {
		return dataset.Worker{}, fmt.Errorf("worker: %w: id is required", ErrInvalid)
	}
	if w.Name == "" {
		return dataset.Worker{}, fmt.Errorf("worker %s: %w: name is required", w.ID, ErrInvalid)
	}
	if w.Status == "" {
		w.Status = dataset.WorkerActive
	}
	status, err := dataset.ParseWorkerStatus(string(w.Status))
	if err != nil {
		return dataset.Worker{}, fmt.Errorf("worker %s: %w: %v", w.ID, ErrInvalid, err)
	}
	w.Status = status

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.workerIndex(w.ID) >= 0 {
		return dataset.Worker{}, fmt.Errorf("worker %s: %w", w.ID, ErrConflict)
	}
	r.workers = append(r.workers, w)
	r.bump()
	return w, nil
}

// SetWorkerStatus activates or deactivates a worker.
func (r *Registry) SetWorkerStatus(id string, status dataset.WorkerStatus) (dataset.Worker, error) {
	status, err := dataset.ParseWorkerStatus(string(status))
	if err != nil {
		return dataset.Worker{}, fmt.Errorf("worker %s: %w: %v", id, ErrInvalid, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.workerIndex(id)
	if i < 0 {
		return dataset.Worker{}, fmt.Errorf("worker %s: %w", id, ErrNotFound)
	}
	if r.workers[i].Status != status {
		r.workers[i].Status = status
		r.bump()
	}
	return r.workers[i], nil
}

// ListWorkers returns the roster in registration order.
func (r *Registry) ListWorkers() []dataset.Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]dataset.Worker{}, r.workers...)
}

func (r *Registry) workerIndex(id string) int {
	for i := range r.workers {
		if r.workers[i].ID == id {
			return i
		}
	}
	return -1
}

// --- cases ---

// CaseFilter narrows ListCases. Zero fields match everything.
type CaseFilter struct {
	Village string
	Status  ranking.CaseStatus
}

func (f CaseFilter) match(c ranking.Case) bool {
	if f.Village != "" && !strings.EqualFold(f.Village, c.Village) {
		return false
	}
	if f.Status != "" && f.Status != c.Status {
		return false
	}
	return true
}

// AddCase records a new health case. An empty id is replaced with a random
// UUID, an empty status with pending and an empty date with today.
func (r *Registry) AddCase(c ranking.Case) (ranking.Case, error) {
	c.ID = strings.TrimSpace(c.ID)
	c.PatientName = strings.TrimSpace(c.PatientName)
	c.Village = strings.TrimSpace(c.Village)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.PatientName == "" {
		return ranking.Case{}, fmt.Errorf("case %s: %w: patient name is required", c.ID, ErrInvalid)
	}
	if c.Village == "" {
		return ranking.Case{}, fmt.Errorf("case %s: %w: village is required", c.ID, ErrInvalid)
	}
	if c.Status == "" {
		c.Status = ranking.CasePending
	}
	status, err := ranking.ParseCaseStatus(string(c.Status))
	if err != nil {
		return ranking.Case{}, fmt.Errorf("case %s: %w: %v", c.ID, ErrInvalid, err)
	}
	c.Status = status
	if c.Age < 0 {
		return ranking.Case{}, fmt.Errorf("case %s: %w: age must not be negative", c.ID, ErrInvalid)
	}
	gender, err := ranking.ParseGender(string(c.Gender))
	if err != nil {
		return ranking.Case{}, fmt.Errorf("case %s: %w: %v", c.ID, ErrInvalid, err)
	}
	c.Gender = gender
	if c.Date == "" {
		c.Date = r.today()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.caseIndex(c.ID) >= 0 {
		return ranking.Case{}, fmt.Errorf("case %s: %w", c.ID, ErrConflict)
	}
	r.cases = append(r.cases, c)
	r.bump()
	return c, nil
}

// UpdateCaseStatus moves a case through its lifecycle.
func (r *Registry) UpdateCaseStatus(id string, status ranking.CaseStatus) (ranking.Case, error) {
	status, err := ranking.ParseCaseStatus(string(status))
	if err != nil {
		return ranking.Case{}, fmt.Errorf("case %s: %w: %v", id, ErrInvalid, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.caseIndex(id)
	if i < 0 {
		return ranking.Case{}, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	if r.cases[i].Status != status {
		r.cases[i].Status = status
		r.bump()
	}
	return r.cases[i], nil
}

// RemoveCase deletes a case.
func (r *Registry) RemoveCase(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.caseIndex(id)
	if i < 0 {
		return fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	r.cases = append(r.cases[:i], r.cases[i+1:]...)
	r.bump()
	return nil
}

// GetCase looks up a case by id.
func (r *Registry) GetCase(id string) (ranking.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.caseIndex(id)
	if i < 0 {
		return ranking.Case{}, fmt.Errorf("case %s: %w", id, ErrNotFound)
	}
	return r.cases[i], nil
}

// ListCases returns the cases matching f in recording order.
func (r *Registry) ListCases(f CaseFilter) []ranking.Case {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ranking.Case, 0, len(r.cases))
	for _, c := range r.cases {
		if f.match(c) {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) caseIndex(id string) int {
	for i := range r.cases {
		if r.cases[i].ID == id {
			return i
		}
	}
	return -1
}

// --- water sources ---

// AddSource registers a water point. An empty id is replaced with a random
// UUID and an empty status with safe.
func (r *Registry) AddSource(s ranking.WaterSource) (ranking.WaterSource, error) {
	s.ID = strings.TrimSpace(s.ID)
	s.Name = strings.TrimSpace(s.Name)
	s.Village = strings.TrimSpace(s.Village)
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Name == "" {
		return ranking.WaterSource{}, fmt.Errorf("source %s: %w: name is required", s.ID, ErrInvalid)
	}
	if s.Village == "" {
		return ranking.WaterSource{}, fmt.Errorf("source %s: %w: village is required", s.ID, ErrInvalid)
	}
	if s.Status == "" {
		s.Status = ranking.SourceSafe
	}
	status, err := ranking.ParseSourceStatus(string(s.Status))
	if err != nil {
		return ranking.WaterSource{}, fmt.Errorf("source %s: %w: %v", s.ID, ErrInvalid, err)
	}
	s.Status = status

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sourceIndex(s.ID) >= 0 {
		return ranking.WaterSource{}, fmt.Errorf("source %s: %w", s.ID, ErrConflict)
	}
	r.sources = append(r.sources, s)
	r.bump()
	return s, nil
}

// UpdateSourceStatus sets a source's status by hand, for example after a
// field test kit result.
func (r *Registry) UpdateSourceStatus(id string, status ranking.SourceStatus) (ranking.WaterSource, error) {
	status, err := ranking.ParseSourceStatus(string(status))
	if err != nil {
		return ranking.WaterSource{}, fmt.Errorf("source %s: %w: %v", id, ErrInvalid, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.sourceIndex(id)
	if i < 0 {
		return ranking.WaterSource{}, fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	if r.sources[i].Status != status {
		r.sources[i].Status = status
		r.bump()
	}
	return r.sources[i], nil
}

// RecordReading classifies a measurement and applies the result to the
// source's status and last-tested date. The condition is stored in its
// canonical lower-case form. A reading without a timestamp is
// stamped with the current time.
func (r *Registry) RecordReading(id string, reading water.Reading) (ranking.WaterSource, water.Assessment, error) {
	reading.Normalize()
	if err := reading.Validate(); err != nil {
		return ranking.WaterSource{}, water.Assessment{}, fmt.Errorf("source %s: %w reading: %w", id, ErrInvalid, err)
	}
	if reading.TakenAt.IsZero() {
		reading.TakenAt = r.now()
	}
	assessment := water.Classify(reading)

	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.sourceIndex(id)
	if i < 0 {
		return ranking.WaterSource{}, water.Assessment{}, fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	r.sources[i].Status = assessment.SourceStatus()
	r.sources[i].LastTested = reading.TakenAt.UTC().Format(dateLayout)
	r.readings[id] = reading
	r.bump()
	return r.sources[i], assessment, nil
}

// LatestReading returns the most recent reading recorded for a source.
func (r *Registry) LatestReading(id string) (water.Reading, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reading, ok := r.readings[id]
	return reading, ok
}

// RemoveSource deletes a source and its stored reading.
func (r *Registry) RemoveSource(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.sourceIndex(id)
	if i < 0 {
		return fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	r.sources = append(r.sources[:i], r.sources[i+1:]...)
	delete(r.readings, id)
	r.bump()
	return nil
}

// GetSource looks up a source by id.
func (r *Registry) GetSource(id string) (ranking.WaterSource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.sourceIndex(id)
	if i < 0 {
		return ranking.WaterSource{}, fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	return r.sources[i], nil
}

// ListSources returns every source in registration order.
func (r *Registry) ListSources() []ranking.WaterSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ranking.WaterSource{}, r.sources...)
}

func (r *Registry) sourceIndex(id string) int {
	for i := range r.sources {
		if r.sources[i].ID == id {
			return i
		}
	}
	return -1
}
