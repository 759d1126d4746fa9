package tracer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is the top-level, on-disk trace document for one task: a single
// record with started_at/completed_at/status plus the total event list, per
// §6's "single top-level record" requirement.
type Record struct {
	TaskID      string    `json:"task_id"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      string    `json:"status,omitempty"`
	TotalTokens int       `json:"total_tokens"`
	Events      []Event   `json:"events"`
}

// Tracer accumulates events for exactly one task (per-task ownership, §5) and
// is not safe to share across tasks. It is safe for concurrent event-emitting
// calls within that one task's lifetime, since a single mutex guards the event
// slice the way the teacher guards its call-store state.
type Tracer struct {
	mu        sync.Mutex
	taskID    string
	outputDir string
	startedAt time.Time
	events    []Event
	lastClock time.Time
}

// New creates a Tracer for taskID, emitting no events yet. outputDir is the
// directory trace files are written under (§6: "traces/").
func New(taskID, outputDir string) *Tracer {
	return &Tracer{
		taskID:    taskID,
		outputDir: outputDir,
	}
}

// now returns a monotonically increasing timestamp within this tracer's
// lifetime: if the wall clock appears to go backward or stall relative to
// the last recorded event (possible under clock adjustment), it is nudged
// forward by one nanosecond so the sequence stays strictly increasing, per
// §4.5's "monotonic within a run" guarantee.
func (t *Tracer) now() time.Time {
	n := time.Now().UTC()
	if !t.lastClock.IsZero() && !n.After(t.lastClock) {
		n = t.lastClock.Add(time.Nanosecond)
	}
	t.lastClock = n
	return n
}

// Start emits execution_started and records the task's start time.
func (t *Tracer) Start(sourceURL, repoCoordinate string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.startedAt = t.now()
	t.events = append(t.events, Event{
		Timestamp: t.startedAt,
		Kind:      EventExecutionStarted,
		Payload: map[string]any{
			"source_url":      sourceURL,
			"repo_coordinate": repoCoordinate,
		},
	})
}

// StageStarted emits stage_started for stage at the given attempt index.
func (t *Tracer) StageStarted(stageName string, attempt int) {
	t.append(Event{
		Kind:  EventStageStarted,
		Stage: stageName,
		Payload: map[string]any{
			"attempt": attempt,
		},
	})
}

// StageCompleted emits stage_completed for stage, with its attempt index,
// wall-clock duration, and the tokens it consumed. tokensApproximate labels
// tokensUsed as derived from policy.EstimateTokens's len(text)/4 fallback
// rather than a reported usage figure, per §9's "must be clearly labelled as
// an approximation in traces" requirement.
func (t *Tracer) StageCompleted(stageName string, attempt int, duration time.Duration, tokensUsed int, tokensApproximate bool) {
	ms := duration.Milliseconds()
	t.append(Event{
		Kind:  EventStageCompleted,
		Stage: stageName,
		Payload: map[string]any{
			"attempt":            attempt,
			"tokens_used":        tokensUsed,
			"tokens_approximate": tokensApproximate,
		},
		DurationMs: &ms,
	})
}

// StageFailed emits stage_failed for stage, carrying the attempt index and
// error message.
func (t *Tracer) StageFailed(stageName string, attempt int, cause error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	t.append(Event{
		Kind:  EventStageFailed,
		Stage: stageName,
		Payload: map[string]any{
			"attempt": attempt,
			"error":   msg,
		},
	})
}

// Transition emits a transition event between two stages with a reason.
func (t *Tracer) Transition(from, to string, reason TransitionReason) {
	t.append(Event{
		Kind: EventTransition,
		Payload: map[string]any{
			"from":   from,
			"to":     to,
			"reason": string(reason),
		},
	})
}

// BudgetCheckpoint emits a budget_checkpoint with the cumulative tokens and
// cost observed so far.
func (t *Tracer) BudgetCheckpoint(cumulativeTokens int, cumulativeCostUSD float64) {
	t.append(Event{
		Kind: EventBudgetCheckpoint,
		Payload: map[string]any{
			"cumulative_tokens":   cumulativeTokens,
			"cumulative_cost_usd": cumulativeCostUSD,
		},
	})
}

func (t *Tracer) append(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e.Timestamp = t.now()
	t.events = append(t.events, e)
}

// Complete emits execution_completed, then atomically writes the full event
// list to trace_<task_id>_<unix_seconds>.json under the tracer's output
// directory. It returns the path written. Atomicity is achieved by writing
// to a temp file in the same directory and renaming over the final path, the
// standard POSIX same-filesystem-rename trick (the teacher's own artifact
// writers in export/ use the same pattern for partial-write safety).
func (t *Tracer) Complete(status string, totalTokens int) (string, error) {
	t.mu.Lock()
	completedAt := t.now()
	t.events = append(t.events, Event{
		Timestamp: completedAt,
		Kind:      EventExecutionCompleted,
		Payload: map[string]any{
			"status": status,
		},
	})

	rec := Record{
		TaskID:      t.taskID,
		StartedAt:   t.startedAt,
		CompletedAt: &completedAt,
		Status:      status,
		TotalTokens: totalTokens,
		Events:      append([]Event(nil), t.events...),
	}
	t.mu.Unlock()

	if err := os.MkdirAll(t.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("tracer: create output dir: %w", err)
	}

	name := fmt.Sprintf("trace_%s_%d.json", t.taskID, completedAt.Unix())
	finalPath := filepath.Join(t.outputDir, name)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("tracer: marshal record: %w", err)
	}

	tmp, err := os.CreateTemp(t.outputDir, ".trace-*.tmp")
	if err != nil {
		return "", fmt.Errorf("tracer: create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("tracer: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("tracer: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("tracer: rename temp file: %w", err)
	}

	return finalPath, nil
}

// Events returns a defensive copy of the events recorded so far.
func (t *Tracer) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}
