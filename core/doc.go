// Package core provides the foundational domain types and contracts used by
// CodeMesh. It defines the core abstractions for:
//
//   - Tasks (schedulable units of asynchronous work with an observable status)
//   - Agents (supervisors owning a root task plus registered subtasks)
//   - The client Channel (fire-and-forget notifications + round-trip requests)
//   - Progress snapshots pushed to the client while an agent runs
//
// The package intentionally keeps implementation concerns (the supervisor
// itself, type registration, engine orchestration, model providers) out of
// scope, exposing small interfaces so they can be wired together explicitly
// at startup.
package core
