// Package engine coordinates agent execution for the host process. It is
// the single, auditable boundary where an agent-type identifier is resolved
// to an implementation:
//
//  1. The injected registry maps the requested type to its factory
//  2. The factory builds the agent instance with its collaborator handles
//  3. The engine supervises the agent's Main in a background goroutine,
//     tracking it by agent id until it completes
//
// Core responsibilities:
//   - Run / RunSync: asynchronous and synchronous invocation entry points
//   - Cancel: cooperative cancellation of an active run by agent id
//   - Agents: discovery listing of all registered agent types
//
// Concurrency model: each run owns a cancellable context derived for the
// whole run (detached from the request context for asynchronous runs);
// active-run bookkeeping is guarded by an RWMutex; all public methods are
// safe for concurrent use. Errors from an agent's Main are logged; the
// client observes failures through progress snapshot status transitions,
// never through errors crossing the channel boundary.
package engine
