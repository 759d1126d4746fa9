package tracer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTracerEventsAreMonotonicallyOrdered(t *testing.T) {
	tr := New("task-1", t.TempDir())
	tr.Start("https://example.com", "org/repo")
	tr.StageStarted("analyze", 0)
	tr.StageCompleted("analyze", 0, 10*time.Millisecond, 500, false)
	tr.Transition("Analyze", "Assess", ReasonLinear)
	tr.BudgetCheckpoint(100, 0.01)

	events := tr.Events()
	require.Len(t, events, 5)
	for i := 1; i < len(events); i++ {
		require.True(t, events[i].Timestamp.After(events[i-1].Timestamp),
			"event %d timestamp not after event %d", i, i-1)
	}
}

func TestTracerCompleteWritesAtomicJSONFile(t *testing.T) {
	dir := t.TempDir()
	tr := New("task-42", dir)
	tr.Start("https://example.com/x", "org/x")
	tr.StageStarted("analyze", 0)
	tr.StageCompleted("analyze", 0, 5*time.Millisecond, 500, false)

	path, err := tr.Complete("Complete", 123)
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(path) || filepath.Dir(path) == dir)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec Record
	require.NoError(t, json.Unmarshal(data, &rec))
	require.Equal(t, "task-42", rec.TaskID)
	require.Equal(t, "Complete", rec.Status)
	require.Equal(t, 123, rec.TotalTokens)
	require.NotNil(t, rec.CompletedAt)
	require.Equal(t, EventExecutionStarted, rec.Events[0].Kind)
	require.Equal(t, EventExecutionCompleted, rec.Events[len(rec.Events)-1].Kind)

	// No leftover temp files.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotContains(t, e.Name(), ".tmp")
	}
}

func TestTracerStageFailedCapturesErrorMessage(t *testing.T) {
	tr := New("task-3", t.TempDir())
	tr.Start("u", "r")
	tr.StageFailed("generate", 1, errTest{"boom"})

	events := tr.Events()
	last := events[len(events)-1]
	require.Equal(t, EventStageFailed, last.Kind)
	require.Equal(t, "boom", last.Payload["error"])
}

func TestTracerStageCompletedLabelsApproximateTokens(t *testing.T) {
	tr := New("task-4", t.TempDir())
	tr.Start("u", "r")
	tr.StageCompleted("generate", 0, time.Millisecond, 137, true)

	events := tr.Events()
	last := events[len(events)-1]
	require.Equal(t, EventStageCompleted, last.Kind)
	require.Equal(t, 137, last.Payload["tokens_used"])
	require.Equal(t, true, last.Payload["tokens_approximate"])
}

type errTest struct{ msg string }

func (e errTest) Error() string { return e.msg }
