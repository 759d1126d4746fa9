package stage

import "time"

// ErrorEntry is one chronological entry in a task's error history.
type ErrorEntry struct {
	Stage     Stage     `json:"stage"`
	Attempt   int       `json:"attempt"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// Context is the single mutable record carried from stage to stage. The
// Engine owns it exclusively for the lifetime of a task: stage workers
// receive it by reference for reading and return a new Output; only the
// Engine writes slots and counters (see ApplyStageOutput and AppendError).
type Context struct {
	// Identity is immutable after construction.
	TaskID         string
	SourceURL      string
	RepoCoordinate string

	// State is the task's terminal stage once Process returns: Complete or
	// Failed, per §6's external-output contract. Pending (as set by
	// NewContext) means the context has not yet been driven to completion.
	State Stage

	// Slots holds one Output per working stage, overwritten atomically on
	// each successful visit (including rework revisits).
	Slots map[Stage]Output

	// CumulativeTokens and CumulativeCostUSD only ever increase.
	CumulativeTokens int
	CumulativeCostUSD float64
	RetryCount       int

	Errors []ErrorEntry
}

// NewContext creates a fresh context for a task at Pending.
func NewContext(taskID, sourceURL, repoCoordinate string) *Context {
	return &Context{
		TaskID:         taskID,
		SourceURL:      sourceURL,
		RepoCoordinate: repoCoordinate,
		State:          Pending,
		Slots:          make(map[Stage]Output, len(Working)),
	}
}

// Slot returns the recorded output for a working stage and whether it was
// ever written.
func (c *Context) Slot(s Stage) (Output, bool) {
	out, ok := c.Slots[s]
	return out, ok
}

// ApplyStageOutput overwrites the slot for s and folds in its token count
// and estimated dollar cost. Reserved for the Engine: stage workers must
// treat their *Context argument as read-only and return their result as an
// Output instead.
func (c *Context) ApplyStageOutput(s Stage, out Output, costUSD float64) {
	c.Slots[s] = out
	c.CumulativeTokens += out.TokensUsed
	c.CumulativeCostUSD += costUSD
}

// AppendError appends a chronological error entry. Reserved for the Engine.
func (c *Context) AppendError(entry ErrorEntry) {
	c.Errors = append(c.Errors, entry)
}
