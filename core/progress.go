package core

// TaskView is the client-facing projection of a single task.
type TaskView struct {
	Description string `json:"description"`
	Status      Status `json:"status"`
}

// TaskTree is the snapshot of an agent's root task plus its registered
// subtasks. The root description is the agent type's display name.
type TaskTree struct {
	Task     TaskView   `json:"task"`
	Subtasks []TaskView `json:"subtasks"`
}

// Progress is a point-in-time report of an agent's root-task and subtask
// statuses plus an optional implementation-specific payload. Tasks is nil
// when the tree could not be assembled or was explicitly suppressed; the
// snapshot is still sent in that case.
type Progress struct {
	AgentType string    `json:"agent_type"`
	AgentID   string    `json:"agent_id"`
	Tasks     *TaskTree `json:"tasks,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}
