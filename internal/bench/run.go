package bench

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Run is the persisted record for one benchmark run, matching §6's
// `{run_id, started_at, completed_at, target, total, summary{...},
// results[...]}` shape.
type Run struct {
	RunID       string        `json:"run_id"`
	Target      string        `json:"target"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Total       int           `json:"total"`
	Summary     Summary       `json:"summary"`
	Results     []IssueResult `json:"results"`
}

// newRunID generates an id matching §6's run_[0-9a-f]{12} regex: a
// lowercase-hex UUID (the teacher's id-generation library of choice, used
// across 30+ files) truncated to the first twelve hex digits.
func newRunID() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "run_" + id[:12]
}

// Store persists and loads Run records under a directory, matching §6's
// `experiments/<run_id>.json` layout.
type Store struct {
	dir string
	mu  sync.Mutex
}

// NewStore creates a Store rooted at dir. The directory is created on the
// first save, not here.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// StartRun begins a new run against target and returns a RunBuilder carrying
// its generated id (see RunBuilder.RunID). The caller accumulates results
// via Record and finishes with CompleteRun.
func (s *Store) StartRun(target string) *RunBuilder {
	return &RunBuilder{
		store: s,
		run: Run{
			RunID:     newRunID(),
			Target:    target,
			StartedAt: time.Now().UTC(),
		},
	}
}

// RunBuilder accumulates IssueResults for one in-progress run.
type RunBuilder struct {
	store *Store
	mu    sync.Mutex
	run   Run
}

// RunID returns the run's generated identifier.
func (b *RunBuilder) RunID() string { return b.run.RunID }

// Record appends one task's outcome to the run.
func (b *RunBuilder) Record(result IssueResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.run.Results = append(b.run.Results, result)
}

// CompleteRun finalizes the run (computing its Summary), writes it to disk,
// and returns the path written.
func (b *RunBuilder) CompleteRun() (string, error) {
	b.mu.Lock()
	completed := time.Now().UTC()
	b.run.CompletedAt = &completed
	b.run.Total = len(b.run.Results)
	b.run.Summary = Summarize(b.run.Results)
	run := b.run
	b.mu.Unlock()

	return b.store.save(run)
}

func (s *Store) save(run Run) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("bench: create run directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("bench: marshal run: %w", err)
	}

	path := filepath.Join(s.dir, run.RunID+".json")
	tmp, err := os.CreateTemp(s.dir, ".run-*.tmp")
	if err != nil {
		return "", fmt.Errorf("bench: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("bench: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("bench: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("bench: rename temp file: %w", err)
	}

	return path, nil
}

// LoadRun reads back a previously completed run by id.
func (s *Store) LoadRun(runID string) (Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, runID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return Run{}, fmt.Errorf("bench: read run %s: %w", runID, err)
	}

	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, fmt.Errorf("bench: unmarshal run %s: %w", runID, err)
	}
	return run, nil
}

// Comparison is the output of comparing two runs, per §4.6's
// `{success_rate_delta, test_pass_rate_delta, avg_time_delta, cost_delta}`.
type Comparison struct {
	SuccessRateDelta  float64 `json:"success_rate_delta"`
	TestPassRateDelta float64 `json:"test_pass_rate_delta"`
	AvgTimeDelta      float64 `json:"avg_time_delta"`
	CostDelta         float64 `json:"cost_delta"`
}

// Compare loads runIDA and runIDB and returns the (b - a) delta for each
// tracked metric.
func (s *Store) Compare(runIDA, runIDB string) (Comparison, error) {
	a, err := s.LoadRun(runIDA)
	if err != nil {
		return Comparison{}, err
	}
	b, err := s.LoadRun(runIDB)
	if err != nil {
		return Comparison{}, err
	}

	avgTime := func(r Run) float64 {
		if r.Summary.Total == 0 {
			return 0
		}
		return r.Summary.TotalWallSec / float64(r.Summary.Total)
	}

	return Comparison{
		SuccessRateDelta:  b.Summary.SuccessRate - a.Summary.SuccessRate,
		TestPassRateDelta: b.Summary.TestPassRate - a.Summary.TestPassRate,
		AvgTimeDelta:      avgTime(b) - avgTime(a),
		CostDelta:         b.Summary.TotalCostUSD - a.Summary.TotalCostUSD,
	}, nil
}
