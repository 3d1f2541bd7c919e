// Package executors implements the three action-executor classes:
// Closure, PlatformApi, and AutoMerge. Each is a long-lived goroutine
// with its own buffered-channel mailbox, accepting mailbox.Task values
// via non-blocking Dispatch (try-send-and-log-on-overflow, per
// spec.md §5 and original_source/server/src/pub_sub/actor.rs).
package executors

import (
	"github.com/nickmisasi/ghpilotd/internal/actions"
	"github.com/nickmisasi/ghpilotd/internal/log"
	"github.com/nickmisasi/ghpilotd/internal/mailbox"
)

// mailboxSize bounds each executor's channel; a full mailbox drops the
// newest task and logs a warning rather than blocking the dispatcher.
const mailboxSize = 256

// ClosureExecutor runs user-supplied functions on a dedicated worker
// goroutine so the reactor is never stalled by arbitrary user code.
// Grounded on original_source/server/src/actions/closure_action.rs,
// which runs the closure via tokio::task::spawn_blocking and maps
// panics to Failed.
type ClosureExecutor struct {
	inbox chan mailbox.Task
	log   log.Logger
}

// NewClosureExecutor starts the executor's worker goroutine.
func NewClosureExecutor(logger log.Logger) *ClosureExecutor {
	e := &ClosureExecutor{inbox: make(chan mailbox.Task, mailboxSize), log: logger}
	go e.run()
	return e
}

// Dispatch implements mailbox.Executor.
func (e *ClosureExecutor) Dispatch(task mailbox.Task) bool {
	select {
	case e.inbox <- task:
		return true
	default:
		return false
	}
}

func (e *ClosureExecutor) run() {
	for task := range e.inbox {
		e.execute(task)
	}
}

func (e *ClosureExecutor) execute(task mailbox.Task) {
	if task.Action.Kind != actions.KindClosure || task.Action.Closure == nil {
		e.log.Warnf("closure executor received task %q with no closure; dropping", task.Name)
		return
	}
	result := e.runClosure(task)
	e.log.Debugf("closure task %q for event %q completed: %s", task.Name, task.EventName, result)
}

// runClosure invokes the closure on its own goroutine-local call stack
// and recovers from a panic the way the original maps a panicking
// blocking task to ActionResult::Failed.
func (e *ClosureExecutor) runClosure(task mailbox.Task) (result actions.Result) {
	result = actions.Success
	defer func() {
		if r := recover(); r != nil {
			e.log.Errorf("closure task %q panicked: %v", task.Name, r)
			result = actions.Failed
		}
	}()
	var payload any
	if task.Action.Kind == actions.KindClosure {
		payload = task.Event
	}
	task.Action.Closure(task.EventName, payload)
	return result
}
