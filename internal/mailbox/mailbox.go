// Package mailbox defines the small shared contract between the
// dispatcher and the action executors: the dispatched Task and the
// Executor interface each executor class implements. Kept separate so
// neither the dispatcher nor the executors package needs to import the
// other.
package mailbox

import (
	"github.com/nickmisasi/ghpilotd/internal/actions"
	"github.com/nickmisasi/ghpilotd/internal/events"
)

// Task is one action dispatched to an executor for a specific event.
type Task struct {
	Name      string // rule or subscription name, for log correlation
	EventName string
	Event     events.Event
	Action    actions.Action
}

// Executor is the narrow interface each action-executor class exposes
// to the dispatcher: a non-blocking enqueue of one dispatched task.
type Executor interface {
	// Dispatch attempts to enqueue task onto the executor's mailbox.
	// Returns false if the mailbox is full (try-send semantics); the
	// dispatcher logs and drops on false, per spec.md §5.
	Dispatch(task Task) bool
}

// BroadcastSink is the back-channel the AutoMerge executor uses to
// re-publish semantic progress as broadcast events, per spec.md §4.3.3.
type BroadcastSink interface {
	HandleBroadcast(b events.BroadcastEvent)
}
