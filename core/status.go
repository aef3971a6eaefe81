package core

// Status describes the observable state of a Task. It is derived from the
// task's internal flags rather than stored, so concurrent observers always
// see a consistent value.
type Status string

const (
	// StatusScheduled means the task has been created but not yet run.
	StatusScheduled Status = "scheduled"
	// StatusRunning means the task's operation has been started and has not
	// reached a terminal state.
	StatusRunning Status = "running"
	// StatusDone means the operation completed without error.
	StatusDone Status = "done"
	// StatusCancelled means the task was cancelled before or during execution.
	StatusCancelled Status = "cancelled"
	// StatusError means the operation failed; the error is captured on the
	// task and never re-raised to the caller that ran it.
	StatusError Status = "error"
)

// Terminal reports whether the status is one of done, cancelled or error.
// Once a task reaches a terminal status it never transitions again.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCancelled || s == StatusError
}

// String implements fmt.Stringer.
func (s Status) String() string { return string(s) }
