package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hupe1980/codemesh/core"
	"github.com/hupe1980/codemesh/logging"
)

// Options holds optional Base configuration.
type Options struct {
	// Logger receives lifecycle diagnostics. Defaults to a no-op logger.
	Logger logging.Logger
	// DisplayNames resolves the agent type to the display name used for the
	// root task in progress snapshots. When nil the agent type itself is
	// used.
	DisplayNames core.DisplayNames
}

// WithLogger sets the supervisor's logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithDisplayNames sets the display name lookup consulted for progress
// snapshots.
func WithDisplayNames(names core.DisplayNames) func(o *Options) {
	return func(o *Options) { o.DisplayNames = names }
}

// Base bundles the supervisor lifecycle shared by all agent implementations:
// root task management, subtask registration, progress emission and
// cooperative cancellation. Embed it in a concrete implementation and bind
// its run function at construction to satisfy core.Agent.
//
// The subtask list and root task handle are mutated only under the Base
// mutex; subtasks themselves run concurrently and are tracked purely for
// cancellation and status reporting.
type Base struct {
	agentType string
	agentID   string
	channel   core.Channel
	run       core.RunFunc
	names     core.DisplayNames
	logger    logging.Logger

	mu    sync.Mutex
	root  *core.Task
	tasks []*core.Task
}

// NewBase constructs a supervisor for one agent instance with its run
// function already bound.
func NewBase(agentType, agentID string, channel core.Channel, run core.RunFunc, optFns ...func(o *Options)) *Base {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Base{
		agentType: agentType,
		agentID:   agentID,
		channel:   channel,
		run:       run,
		names:     opts.DisplayNames,
		logger:    opts.Logger,
	}
}

// Type returns the agent-type identifier.
func (b *Base) Type() string { return b.agentType }

// ID returns the instance identifier assigned at creation.
func (b *Base) ID() string { return b.agentID }

// String returns a short identity label for log messages.
func (b *Base) String() string { return fmt.Sprintf("<%s> %s", b.agentType, b.agentID) }

// Main is the single externally invoked lifecycle entry point. It wraps the
// bound run function in the root task labeled with the agent type, starts
// it, emits a progress snapshot so status is observable before completion,
// awaits the result and emits a final snapshot. If ctx is cancelled while
// awaiting, Main cancels the agent and swallows the cancellation locally.
func (b *Base) Main(ctx context.Context) (any, error) {
	b.mu.Lock()
	if b.root != nil {
		b.mu.Unlock()
		return nil, fmt.Errorf("agent %s: main already invoked", b)
	}
	root := core.NewTask(b.agentType, func(ctx context.Context, _ ...any) (any, error) {
		return b.run(ctx)
	}, core.WithTaskLogger(b.logger))
	b.root = root
	b.mu.Unlock()

	b.logger.Info("agent running", "agent_type", b.agentType, "agent_id", b.agentID)

	type result struct {
		value any
		err   error
	}

	resCh := make(chan result, 1)
	go func() {
		value, err := root.Run(ctx)
		resCh <- result{value: value, err: err}
	}()

	if err := b.SendProgress(ctx, nil); err != nil {
		b.logger.Warn("failed to send progress", "agent_type", b.agentType, "agent_id", b.agentID, "error", err)
	}

	select {
	case <-ctx.Done():
		b.logger.Info("agent cancelled", "agent_type", b.agentType, "agent_id", b.agentID, "reason", ctx.Err())
		b.Cancel(context.WithoutCancel(ctx), ctx.Err().Error())
		return nil, nil
	case r := <-resCh:
		if err := b.SendProgress(ctx, nil); err != nil {
			b.logger.Warn("failed to send progress", "agent_type", b.agentType, "agent_id", b.agentID, "error", err)
		}
		return r.value, r.err
	}
}

// Cancel cancels the root task and every registered subtask, then emits a
// progress snapshot. It is idempotent: a no-op when the root task is absent
// or already cancelled, and safe to call multiple times and from error
// paths.
func (b *Base) Cancel(ctx context.Context, reason string) {
	b.mu.Lock()
	root := b.root
	if root == nil || root.Cancelled() {
		b.mu.Unlock()
		return
	}
	tasks := make([]*core.Task, len(b.tasks))
	copy(tasks, b.tasks)
	b.mu.Unlock()

	b.logger.Info("agent cancel", "agent_type", b.agentType, "agent_id", b.agentID, "reason", reason)

	root.Cancel()
	for _, task := range tasks {
		if task != nil {
			task.Cancel()
		}
	}

	if err := b.SendProgress(ctx, nil); err != nil {
		b.logger.Warn("failed to send progress", "agent_type", b.agentType, "agent_id", b.agentID, "error", err)
	}
}

// AddTask constructs a subtask from the given description and operation,
// appends it to the subtask list and returns its handle. The caller starts
// it independently; the supervisor never awaits it, tracking it purely for
// cancellation and status reporting.
func (b *Base) AddTask(description string, fn core.TaskFunc, optFns ...func(o *core.TaskOptions)) *core.Task {
	optFns = append([]func(o *core.TaskOptions){core.WithTaskLogger(b.logger)}, optFns...)
	task := core.NewTask(description, fn, optFns...)

	b.mu.Lock()
	b.tasks = append(b.tasks, task)
	b.mu.Unlock()

	return task
}

// SetTasks replaces the registered subtask set. Implementations that report
// a rolling window of work (e.g. one pending round at a time) use this to
// keep the progress view small.
func (b *Base) SetTasks(tasks []*core.Task) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = tasks
}

// Tasks returns a copy of the registered subtask handles.
func (b *Base) Tasks() []*core.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*core.Task, len(b.tasks))
	copy(out, b.tasks)
	return out
}

// RequestInput performs a round trip to the client asking for free-text
// input. Any failure of the round trip cancels the entire agent and returns
// core.ErrAgentCancelled; RequestInput never returns a value after a failed
// round trip.
func (b *Base) RequestInput(ctx context.Context, req core.InputRequest) (string, error) {
	raw, err := b.channel.Request(ctx, core.InputRequestMethod(b.agentType, b.agentID), req)
	if err != nil {
		b.logger.Info("request_input failed, cancelling agent", "agent_type", b.agentType, "agent_id", b.agentID, "error", err)
		b.Cancel(context.WithoutCancel(ctx), "request_input failed")
		return "", core.ErrAgentCancelled
	}

	var resp core.InputResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		b.logger.Info("request_input returned malformed response, cancelling agent", "agent_type", b.agentType, "agent_id", b.agentID, "error", err)
		b.Cancel(context.WithoutCancel(ctx), "request_input failed")
		return "", core.ErrAgentCancelled
	}

	return resp.Response, nil
}

// RequestChat performs a round trip to the client carrying the current
// conversation and returns the response message. Failures are not locally
// recovered and propagate to the caller.
func (b *Base) RequestChat(ctx context.Context, req core.ChatRequest) (core.ChatMessage, error) {
	raw, err := b.channel.Request(ctx, core.ChatRequestMethod(b.agentType, b.agentID), req)
	if err != nil {
		return core.ChatMessage{}, fmt.Errorf("request_chat: %w", err)
	}

	var resp core.ChatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return core.ChatMessage{}, fmt.Errorf("request_chat: malformed response: %w", err)
	}

	return resp.Message, nil
}

// SendUpdate pushes a free-text update notification (a client-side toast)
// prefixed with the agent type, then sends a progress snapshot.
func (b *Base) SendUpdate(ctx context.Context, msg string) error {
	update := core.Update{Msg: fmt.Sprintf("[%s] %s", b.agentType, msg)}
	if err := b.channel.Notify(ctx, core.UpdateMethod(b.agentType, b.agentID), update); err != nil {
		return err
	}
	return b.SendProgress(ctx, nil)
}

// ProgressOptions holds optional SendProgress configuration.
type ProgressOptions struct {
	// PayloadOnly suppresses the task tree so only the payload is sent.
	PayloadOnly bool
}

// WithPayloadOnly suppresses the task tree in the snapshot.
func WithPayloadOnly() func(o *ProgressOptions) {
	return func(o *ProgressOptions) { o.PayloadOnly = true }
}

// SendProgress assembles a snapshot of the root-task and subtask statuses
// plus the optional payload and pushes it to the client. Exactly one
// notification is sent per call; if the task tree cannot be assembled the
// snapshot is sent with the tree omitted rather than failing.
func (b *Base) SendProgress(ctx context.Context, payload any, optFns ...func(o *ProgressOptions)) error {
	var opts ProgressOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	var tree *core.TaskTree
	if !opts.PayloadOnly {
		tree = b.taskTree()
	}

	progress := core.Progress{
		AgentType: b.agentType,
		AgentID:   b.agentID,
		Tasks:     tree,
		Payload:   payload,
	}

	b.mu.Lock()
	root := b.root
	b.mu.Unlock()
	if root != nil && root.Status() == core.StatusError {
		b.logger.Info("agent root task errored", "agent_type", b.agentType, "agent_id", b.agentID, "error", root.Err())
	}

	return b.channel.Notify(ctx, core.ProgressMethod(b.agentType, b.agentID), progress)
}

// taskTree builds the client-facing task tree, or nil when it cannot be
// assembled (no root task yet, or the display name lookup fails).
func (b *Base) taskTree() *core.TaskTree {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.root == nil {
		return nil
	}

	display := b.agentType
	if b.names != nil {
		name, err := b.names.DisplayName(b.agentType)
		if err != nil {
			b.logger.Debug("display name lookup failed", "agent_type", b.agentType, "error", err)
			return nil
		}
		display = name
	}

	subtasks := make([]core.TaskView, 0, len(b.tasks))
	for _, task := range b.tasks {
		if task == nil {
			continue
		}
		subtasks = append(subtasks, core.TaskView{Description: task.Description(), Status: task.Status()})
	}

	return &core.TaskTree{
		Task:     core.TaskView{Description: display, Status: b.root.Status()},
		Subtasks: subtasks,
	}
}
