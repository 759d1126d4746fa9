// Package taskio defines the task descriptor and stage-worker registry
// types the engine consumes, per §6's external-interfaces contract.
package taskio

import "github.com/relayforge/swe-orchestrator/internal/stage"

// Task is the input descriptor for one run: exactly the three fields §6
// names, nothing more (anything stage-specific belongs in a worker's own
// config, not here).
type Task struct {
	TaskID               string
	SourceURL            string
	RepositoryCoordinate string
}

// Registry maps each working stage to the worker responsible for it. A
// registry must carry an entry for every member of stage.Working; Engine
// validates this at construction rather than failing mid-run on a missing
// key.
type Registry map[stage.Stage]stage.Worker

// Validate reports a descriptive error if r is missing a worker for any
// working stage.
func (r Registry) Validate() error {
	for _, s := range stage.Working {
		if _, ok := r[s]; !ok {
			return &MissingWorkerError{Stage: s}
		}
	}
	return nil
}

// MissingWorkerError reports that a Registry has no worker registered for
// Stage.
type MissingWorkerError struct {
	Stage stage.Stage
}

func (e *MissingWorkerError) Error() string {
	return "taskio: registry missing worker for stage " + string(e.Stage)
}
