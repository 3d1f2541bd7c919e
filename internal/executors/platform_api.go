package executors

import (
	"context"
	"strings"
	"time"

	"github.com/nickmisasi/ghpilotd/internal/actions"
	"github.com/nickmisasi/ghpilotd/internal/ids"
	"github.com/nickmisasi/ghpilotd/internal/log"
	"github.com/nickmisasi/ghpilotd/internal/mailbox"
	"github.com/nickmisasi/ghpilotd/internal/platform"
)

// requestTimeout bounds the Platform Client calls the PlatformExecutor
// makes for one action, since the engine offers no cancellation at the
// dispatcher level (spec.md §5) but outbound HTTP must not hang
// indefinitely. The AutoMergeExecutor does not use it; its calls run
// without a deadline.
const requestTimeout = 30 * time.Second

// PlatformExecutor runs PlatformApi actions (add/remove label, add
// comment, label-conflicts probe) against the Platform Client. Grounded
// on spec.md §4.3.2 and the teacher's server/ghclient/client.go call shapes.
type PlatformExecutor struct {
	inbox  chan mailbox.Task
	client *platform.Client
	log    log.Logger
}

// NewPlatformExecutor starts the executor's worker goroutine.
func NewPlatformExecutor(client *platform.Client, logger log.Logger) *PlatformExecutor {
	e := &PlatformExecutor{inbox: make(chan mailbox.Task, mailboxSize), client: client, log: logger}
	go e.run()
	return e
}

// Dispatch implements mailbox.Executor.
func (e *PlatformExecutor) Dispatch(task mailbox.Task) bool {
	select {
	case e.inbox <- task:
		return true
	default:
		return false
	}
}

func (e *PlatformExecutor) run() {
	for task := range e.inbox {
		result := e.execute(task)
		e.log.Debugf("platform task %q (%s) for event %q completed: %s", task.Name, task.Action.PlatformOp, task.EventName, result)
	}
}

func (e *PlatformExecutor) execute(task mailbox.Task) actions.Result {
	issueID, err := resolveIssueId(task.Event)
	if err != nil {
		e.log.Warnf("platform task %q: %v", task.Name, err)
		return actions.ConditionsNotMet
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	repo := issueID.RepoId()
	number := int(issueID.Number)

	switch task.Action.PlatformOp {
	case actions.OpAddLabel:
		if err := e.client.AddLabel(ctx, repo, number, task.Action.Arg); err != nil {
			e.log.Warnf("add_label failed for %s: %v", issueID, err)
			return actions.Failed
		}
		return actions.Success
	case actions.OpRemoveLabel:
		if err := e.client.RemoveLabel(ctx, repo, number, task.Action.Arg); err != nil {
			e.log.Warnf("remove_label failed for %s: %v", issueID, err)
			return actions.Failed
		}
		return actions.Success
	case actions.OpAddComment:
		if _, err := e.client.AddComment(ctx, repo, number, task.Action.Arg); err != nil {
			e.log.Warnf("add_comment failed for %s: %v", issueID, err)
			return actions.Failed
		}
		return actions.Success
	case actions.OpLabelConflicts:
		return e.resolveLabelConflicts(ctx, repo, number, task.Action.Arg)
	default:
		e.log.Warnf("platform task %q: unknown op %q", task.Name, task.Action.PlatformOp)
		return actions.Failed
	}
}

// resolveLabelConflicts checks whether an issue carries two or more
// labels from a mutually-exclusive set (e.g. "P-small,P-medium,P-large")
// and, if so, removes every conflicting label but the first. Returns
// ConditionsNotMet when there is nothing to resolve (0 or 1 present).
func (e *PlatformExecutor) resolveLabelConflicts(ctx context.Context, repo ids.RepoId, number int, conflictSet string) actions.Result {
	candidates := strings.Split(conflictSet, ",")
	for i, c := range candidates {
		candidates[i] = strings.TrimSpace(c)
	}

	issue, err := e.client.GetIssue(ctx, repo, number)
	if err != nil {
		e.log.Warnf("label_conflicts: fetching issue failed: %v", err)
		return actions.Failed
	}

	present := make([]string, 0, len(candidates))
	labelSet := make(map[string]bool, len(issue.Labels))
	for _, l := range issue.Labels {
		labelSet[l.GetName()] = true
	}
	for _, c := range candidates {
		if labelSet[c] {
			present = append(present, c)
		}
	}
	if len(present) < 2 {
		return actions.ConditionsNotMet
	}
	for _, extra := range present[1:] {
		if err := e.client.RemoveLabel(ctx, repo, number, extra); err != nil {
			e.log.Warnf("label_conflicts: removing %q failed: %v", extra, err)
			return actions.Failed
		}
	}
	return actions.Success
}
