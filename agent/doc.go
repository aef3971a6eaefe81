// Package agent contains the supervisor shared by all agent implementations
// plus thin first-class implementations exercising it. The package focuses
// on three concerns:
//
//  1. Lifecycle supervision (Base): root task creation, progress emission,
//     cooperative cancellation of the whole task tree
//  2. Client round trips (input prompts, chat requests) mediated for the
//     embedding implementation
//  3. Reference implementations (EchoAgent, ChatAgent)
//
// Design principles:
//   - No hidden global state: collaborators are injected via CreateConfig
//   - Failures stay contained: a failing subtask never crashes the
//     supervisor; the client observes it as a status transition
//   - Fire-and-forget subtasks: registered for cancellation and status
//     reporting, never awaited by the supervisor itself
//
// Execution model: an implementation embeds *Base and binds its run
// function at construction. The host calls Main exactly once; the run may
// register further subtasks via AddTask/SetTasks and start them itself.
package agent
