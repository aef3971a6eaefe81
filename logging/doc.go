// Package logging provides a tiny abstraction over slog so downstream code
// can depend on a minimal interface (Logger) while allowing users to plug
// any structured logger. It also offers a richer CodeMeshLogger with
// contextual helpers (component, agent identity) and domain specific logging
// helpers for task transitions, agent runs and channel round trips.
package logging
