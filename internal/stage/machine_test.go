package stage

import (
	"errors"
	"testing"
)

func newTestMachine() *Machine {
	return NewMachine(DefaultGuardConfig(1000, MaxRework))
}

func TestLinearHappyPath(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("t1", "https://example.com", "org/repo")

	steps := []struct {
		to   Stage
		slot Stage
		out  Output
	}{
		{Analyze, Analyze, Output{Success: true, Data: map[string]any{"summary": "ok"}}},
		{Assess, Assess, Output{Success: true, Data: map[string]any{"feasible": true}}},
		{Plan, Plan, Output{Success: true, Data: map[string]any{"plan": "do it"}}},
		{Generate, Generate, Output{Success: true}},
		{Review, Review, Output{Success: true, Data: map[string]any{"requires_changes": false}}},
		{Validate, Validate, Output{Success: true, Data: map[string]any{"tests_passed": true}}},
		{Complete, Complete, Output{}},
	}

	for _, s := range steps {
		if s.slot != Complete {
			ctx.ApplyStageOutput(s.slot, s.out, 0)
		}
		if !m.CanTransition(s.to, ctx) {
			t.Fatalf("cannot transition to %s at %s", s.to, m.CurrentState())
		}
		if err := m.Transition(s.to, ctx); err != nil {
			t.Fatalf("transition to %s: %v", s.to, err)
		}
	}

	if m.CurrentState() != Complete {
		t.Fatalf("want Complete, got %s", m.CurrentState())
	}
	if !m.IsTerminal() {
		t.Fatal("expected terminal")
	}
	if len(m.History()) != len(steps) {
		t.Fatalf("history length = %d, want %d", len(m.History()), len(steps))
	}
}

func TestTransitionNoSuchEdge(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("t1", "", "")

	err := m.Transition(Validate, ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if !isNoSuchEdge(err) {
		t.Fatalf("want ErrNoSuchEdge, got %v", err)
	}
}

func TestTransitionGuardDenied(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("t1", "", "")
	ctx.CumulativeTokens = 10000 // exceeds the 1000 budget

	err := m.Transition(Analyze, ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	if !isGuardDenied(err) {
		t.Fatalf("want ErrGuardDenied, got %v", err)
	}
}

func TestReworkExhaustion(t *testing.T) {
	m := newTestMachine()
	ctx := NewContext("t1", "", "")
	ctx.RetryCount = MaxRework

	// Force current state to Validate to exercise the rework edge directly.
	mustTransitionChain(t, m, ctx)

	if m.CanTransition(Generate, ctx) {
		t.Fatal("rework should be exhausted")
	}
	if !m.CanTransition(Failed, ctx) {
		t.Fatal("failure edge should always be available")
	}
}

func mustTransitionChain(t *testing.T, m *Machine, ctx *Context) {
	t.Helper()
	ctx.ApplyStageOutput(Analyze, Output{Success: true, Data: map[string]any{"summary": "ok"}}, 0)
	must(t, m.Transition(Analyze, ctx))
	ctx.ApplyStageOutput(Assess, Output{Success: true, Data: map[string]any{"feasible": true}}, 0)
	must(t, m.Transition(Assess, ctx))
	ctx.ApplyStageOutput(Plan, Output{Success: true, Data: map[string]any{"plan": "x"}}, 0)
	must(t, m.Transition(Plan, ctx))
	ctx.ApplyStageOutput(Generate, Output{Success: true}, 0)
	must(t, m.Transition(Generate, ctx))
	ctx.ApplyStageOutput(Review, Output{Success: true, Data: map[string]any{"requires_changes": false}}, 0)
	must(t, m.Transition(Review, ctx))
	ctx.ApplyStageOutput(Validate, Output{Success: true, Data: map[string]any{"tests_passed": false}}, 0)
	must(t, m.Transition(Validate, ctx))
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func isNoSuchEdge(err error) bool   { return errors.Is(err, ErrNoSuchEdge) }
func isGuardDenied(err error) bool { return errors.Is(err, ErrGuardDenied) }

func TestResetMatchesFreshMachine(t *testing.T) {
	cfg := DefaultGuardConfig(1000, MaxRework)
	a := NewMachine(cfg)
	b := NewMachine(cfg)
	ctx := NewContext("t1", "", "")

	ctx.ApplyStageOutput(Analyze, Output{Success: true, Data: map[string]any{"summary": "ok"}}, 0)
	must(t, a.Transition(Analyze, ctx))

	a.Reset()
	if a.CurrentState() != b.CurrentState() {
		t.Fatalf("after reset, state %s != fresh state %s", a.CurrentState(), b.CurrentState())
	}
	if len(a.History()) != len(b.History()) {
		t.Fatalf("after reset, history not empty")
	}
}
