package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/codemesh/logging"
)

// ErrTaskAlreadyRunning is returned by Task.Run when the task is already
// running. A task may be started at most once.
var ErrTaskAlreadyRunning = errors.New("task is already running")

// TaskFunc is the operation executed by a Task. It receives the task-scoped
// cancellation context plus the resolved arguments and must observe ctx at
// its own suspension points for cooperative cancellation.
type TaskFunc func(ctx context.Context, args ...any) (any, error)

// ArgsFunc lazily resolves the arguments for a Task's operation. It is
// awaited by Run immediately before the operation is spawned.
type ArgsFunc func(ctx context.Context) ([]any, error)

// DoneFunc is invoked once when the task's operation finishes, with the
// operation's raw result and error (before error capture is applied).
type DoneFunc func(result any, err error)

// TaskOptions holds optional Task configuration.
type TaskOptions struct {
	// Args are static arguments passed to the operation. Ignored if ArgsFunc
	// is set.
	Args []any
	// ArgsFunc resolves arguments asynchronously at start time.
	ArgsFunc ArgsFunc
	// DoneFunc is registered as the completion callback for the spawned
	// operation.
	DoneFunc DoneFunc
	// Logger receives diagnostics for captured operation errors. Defaults to
	// a no-op logger.
	Logger logging.Logger
}

// Task is a single schedulable unit of asynchronous work with an observable
// status. The status lifecycle is
//
//	scheduled → running → {done | cancelled | error}
//
// and once terminal it never transitions again. Operation errors are
// captured into the error status rather than returned to the caller that
// ran the task, so a failing task cannot crash its supervising agent;
// failures surface only through status polling and progress snapshots.
//
// All exported methods are safe for concurrent use.
type Task struct {
	description string
	fn          TaskFunc
	args        []any
	argsFn      ArgsFunc
	doneFn      DoneFunc
	logger      logging.Logger

	mu        sync.Mutex
	running   bool
	completed bool
	cancelled bool
	err       error
	result    any
	cancel    context.CancelFunc // set once the operation has been spawned
}

// NewTask constructs a Task in scheduled status with its operation bound.
func NewTask(description string, fn TaskFunc, optFns ...func(o *TaskOptions)) *Task {
	opts := TaskOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Task{
		description: description,
		fn:          fn,
		args:        opts.Args,
		argsFn:      opts.ArgsFunc,
		doneFn:      opts.DoneFunc,
		logger:      opts.Logger,
	}
}

// WithTaskArgs sets static operation arguments.
func WithTaskArgs(args ...any) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.Args = args }
}

// WithTaskArgsFunc sets an asynchronous argument provider resolved at start
// time.
func WithTaskArgsFunc(fn ArgsFunc) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.ArgsFunc = fn }
}

// WithTaskDoneFunc registers a completion callback.
func WithTaskDoneFunc(fn DoneFunc) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.DoneFunc = fn }
}

// WithTaskLogger sets the diagnostics logger.
func WithTaskLogger(l logging.Logger) func(o *TaskOptions) {
	return func(o *TaskOptions) { o.Logger = l }
}

// Description returns the human-readable task label.
func (t *Task) Description() string { return t.description }

// Run executes the task's operation and suspends until it finishes, is
// cancelled or fails. It returns ErrTaskAlreadyRunning if the task is
// already running; any error raised by the operation itself is captured
// into the error status and never returned here. On success the operation's
// result is returned.
func (t *Task) Run(ctx context.Context) (any, error) {
	t.mu.Lock()
	if t.running || t.completed || t.err != nil {
		t.mu.Unlock()
		return nil, ErrTaskAlreadyRunning
	}
	if t.cancelled {
		// Cancelled before start: the operation is never invoked.
		t.mu.Unlock()
		return nil, nil
	}
	t.running = true
	t.mu.Unlock()

	args := t.args
	if t.argsFn != nil {
		resolved, err := t.argsFn(ctx)
		if err != nil {
			t.finish(nil, err)
			return nil, nil
		}
		args = resolved
	}

	runCtx, cancel := context.WithCancel(ctx)

	t.mu.Lock()
	if t.cancelled {
		// Cancel raced in while arguments were being resolved.
		t.running = false
		t.mu.Unlock()
		cancel()
		return nil, nil
	}
	t.cancel = cancel
	t.mu.Unlock()

	type outcome struct {
		value any
		err   error
	}

	outCh := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				outCh <- outcome{err: fmt.Errorf("task operation panicked: %v", r)}
			}
		}()
		value, err := t.fn(runCtx, args...)
		outCh <- outcome{value: value, err: err}
	}()

	out := <-outCh
	cancel()

	if t.doneFn != nil {
		t.doneFn(out.value, out.err)
	}

	t.finish(out.value, out.err)

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, nil
}

// finish records the terminal state derived from the operation's outcome.
func (t *Task) finish(value any, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.running = false

	switch {
	case err == nil:
		t.completed = true
		t.result = value
	case errors.Is(err, context.Canceled), errors.Is(err, ErrAgentCancelled):
		t.cancelled = true
	default:
		t.err = err
		t.logger.Debug("task caught error", "task", t.description, "error", err)
	}
}

// Cancel requests cancellation of the task. If the operation has been
// spawned its context is cancelled and the status becomes cancelled once
// the operation acknowledges; if not yet spawned, the cancelled flag is set
// directly so the operation is never invoked at all.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
		return
	}
	t.cancelled = true
}

// Running reports whether the task is currently running.
func (t *Task) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Done reports whether the operation completed without error.
func (t *Task) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.completed
}

// Cancelled reports whether the task has been cancelled.
func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Err returns the error captured from the operation, if any.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Result returns the operation's result once the task is done.
func (t *Task) Result() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result
}

// Status derives the task status from its internal flags, applying the
// precedence error > cancelled > done > running > scheduled.
func (t *Task) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch {
	case t.err != nil:
		return StatusError
	case t.cancelled:
		return StatusCancelled
	case t.completed:
		return StatusDone
	case t.running:
		return StatusRunning
	default:
		return StatusScheduled
	}
}
