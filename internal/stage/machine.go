package stage

import (
	"errors"
	"fmt"
	"sync"
)

// ErrNoSuchEdge is returned when no transition exists between two states at
// all — a programmer error, distinct from a guard simply denying the move.
var ErrNoSuchEdge = errors.New("stage: no such transition")

// ErrGuardDenied is returned when the edge exists but its guard rejected the
// current context (e.g. rework budget exhausted, token budget exceeded).
var ErrGuardDenied = errors.New("stage: guard denied transition")

// Guard is a pure predicate over the task context gating a transition edge.
type Guard func(*Context) bool

type edge struct {
	to    Stage
	guard Guard
}

// HistoryEntry records one accepted transition.
type HistoryEntry struct {
	From Stage
	To   Stage
}

// Machine enforces the statically declared transition relation built in
// NewMachine and exposes the worker name associated with each
// non-terminal state. The transition table is built once in NewMachine and
// never mutated; only CurrentState/history change at runtime, guarded by mu.
type Machine struct {
	table   map[Stage][]edge
	workers map[Stage]string

	mu      sync.Mutex
	current Stage
	history []HistoryEntry
}

// NewMachine builds the standard Pending→...→Complete/Failed machine with
// the guards supplied in cfg. A nil or zero-value Guard is treated as
// unconditional (always passes).
func NewMachine(cfg GuardConfig) *Machine {
	m := &Machine{
		table:   make(map[Stage][]edge),
		workers: make(map[Stage]string),
		current: Pending,
	}

	add := func(from, to Stage, g Guard) {
		m.table[from] = append(m.table[from], edge{to: to, guard: g})
	}

	add(Pending, Analyze, cfg.TokenBudget)
	add(Analyze, Assess, cfg.AnalyzeToAssess)
	add(Assess, Plan, cfg.AssessToPlan)
	add(Plan, Generate, cfg.PlanToGenerate)
	add(Generate, Review, cfg.GenerateToReview)
	add(Review, Validate, cfg.ReviewToValidate)
	add(Validate, Complete, cfg.ValidateToComplete)

	add(Review, Generate, cfg.ReworkGuard)
	add(Validate, Generate, cfg.ReworkGuard)

	for _, from := range append([]Stage{Pending}, Working...) {
		add(from, Failed, nil)
	}

	m.workers[Analyze] = "analyze"
	m.workers[Assess] = "assess"
	m.workers[Plan] = "plan"
	m.workers[Generate] = "generate"
	m.workers[Review] = "review"
	m.workers[Validate] = "validate"

	return m
}

// GuardConfig supplies the guard predicate for each non-unconditional edge.
// A nil field means "unconditional" for forward edges; ReworkGuard gates
// both rework edges (Review→Generate and Validate→Generate) identically,
// per §4.1.
type GuardConfig struct {
	TokenBudget        Guard
	AnalyzeToAssess    Guard
	AssessToPlan       Guard
	PlanToGenerate     Guard
	GenerateToReview   Guard
	ReviewToValidate   Guard
	ValidateToComplete Guard
	ReworkGuard        Guard
}

// CurrentState returns the machine's current stage.
func (m *Machine) CurrentState() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// IsTerminal reports whether the machine is currently at Complete or Failed.
func (m *Machine) IsTerminal() bool {
	return m.CurrentState().IsTerminal()
}

// History returns a copy of the accepted-transition history.
func (m *Machine) History() []HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HistoryEntry, len(m.history))
	copy(out, m.history)
	return out
}

// NextWorker returns the worker name registered for the current state, or
// "" if the current state has none (terminal states and Pending).
func (m *Machine) NextWorker() string {
	return m.workers[m.CurrentState()]
}

// findEdge locates the edge from the current state to target, without
// evaluating its guard.
func (m *Machine) findEdge(from, target Stage) (edge, bool) {
	for _, e := range m.table[from] {
		if e.to == target {
			return e, true
		}
	}
	return edge{}, false
}

// CanTransition reports whether an edge exists from the current state to
// target AND (it has no guard, or the guard passes against ctx).
func (m *Machine) CanTransition(target Stage, ctx *Context) bool {
	from := m.CurrentState()
	e, ok := m.findEdge(from, target)
	if !ok {
		return false
	}
	return e.guard == nil || e.guard(ctx)
}

// Transition asserts CanTransition and, on success, atomically updates the
// current state and appends to history. It distinguishes "no such edge"
// (ErrNoSuchEdge, a programmer error) from "guard denied" (ErrGuardDenied,
// legitimate — callers should escalate to Failed).
func (m *Machine) Transition(target Stage, ctx *Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.findEdge(m.current, target)
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrNoSuchEdge, m.current, target)
	}
	if e.guard != nil && !e.guard(ctx) {
		return fmt.Errorf("%w: %s -> %s", ErrGuardDenied, m.current, target)
	}

	m.history = append(m.history, HistoryEntry{From: m.current, To: target})
	m.current = target
	return nil
}

// Reset restores the machine to Pending with an empty history. Intended for
// test fixtures.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Pending
	m.history = nil
}
