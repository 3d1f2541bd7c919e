package executors

import (
	"testing"
	"time"

	"github.com/nickmisasi/ghpilotd/internal/actions"
	"github.com/nickmisasi/ghpilotd/internal/events"
	"github.com/nickmisasi/ghpilotd/internal/log"
	"github.com/nickmisasi/ghpilotd/internal/mailbox"
)

func TestClosureExecutorRunsSuccessfully(t *testing.T) {
	exec := NewClosureExecutor(log.Nop{})
	done := make(chan struct{}, 1)
	exec.Dispatch(mailbox.Task{
		Name: "rule", EventName: "pull_request", Event: events.Event{Kind: events.KindPullRequest},
		Action: actions.NewClosureAction(func(eventName string, evt any) {
			if eventName != "pull_request" {
				t.Errorf("unexpected event name passed to closure: %q", eventName)
			}
			done <- struct{}{}
		}),
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("closure was never invoked")
	}
}

func TestClosureExecutorRecoversFromPanic(t *testing.T) {
	exec := NewClosureExecutor(log.Nop{})
	done := make(chan struct{}, 1)
	exec.Dispatch(mailbox.Task{
		Name: "panicky rule", EventName: "pull_request", Event: events.Event{Kind: events.KindPullRequest},
		Action: actions.NewClosureAction(func(string, any) {
			defer close(done)
			panic("boom")
		}),
	})
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("panicking closure's deferred close never ran")
	}

	// A subsequent task must still be processed: the executor's worker
	// goroutine must have recovered and kept looping.
	followUp := make(chan struct{}, 1)
	exec.Dispatch(mailbox.Task{
		Name: "rule", EventName: "pull_request", Event: events.Event{Kind: events.KindPullRequest},
		Action: actions.NewClosureAction(func(string, any) { followUp <- struct{}{} }),
	})
	select {
	case <-followUp:
	case <-time.After(time.Second):
		t.Fatal("executor did not process a task after recovering from a panic")
	}
}

func TestClosureExecutorMailboxFullReturnsFalse(t *testing.T) {
	exec := &ClosureExecutor{inbox: make(chan mailbox.Task, 1), log: log.Nop{}}
	block := make(chan struct{})
	exec.inbox <- mailbox.Task{Action: actions.NewClosureAction(func(string, any) { <-block })}
	if exec.Dispatch(mailbox.Task{Action: actions.NewClosureAction(func(string, any) {})}) {
		t.Error("expected Dispatch to report false once the inbox buffer is full")
	}
	close(block)
}
