package executors

import (
	"context"
	"strings"

	"github.com/nickmisasi/ghpilotd/internal/actions"
	"github.com/nickmisasi/ghpilotd/internal/events"
	"github.com/nickmisasi/ghpilotd/internal/ids"
	"github.com/nickmisasi/ghpilotd/internal/log"
	"github.com/nickmisasi/ghpilotd/internal/mailbox"
	"github.com/nickmisasi/ghpilotd/internal/platform"
)

// AutoMergeExecutor runs the engine's most intricate action: counting
// reviews and acks toward configured thresholds, gating on check-suite
// status, and performing the merge once every condition is satisfied.
// Grounded on spec.md §4.3.3's ten-step algorithm, with the
// fetch-then-count-then-compare shape borrowed from the teacher's
// server/reviewloop.go phase transitions.
type AutoMergeExecutor struct {
	inbox     chan mailbox.Task
	client    *platform.Client
	broadcast mailbox.BroadcastSink
	log       log.Logger
}

// NewAutoMergeExecutor starts the executor's worker goroutine. broadcast
// is the dispatcher's back-channel for re-publishing semantic progress.
func NewAutoMergeExecutor(client *platform.Client, broadcast mailbox.BroadcastSink, logger log.Logger) *AutoMergeExecutor {
	e := &AutoMergeExecutor{
		inbox:     make(chan mailbox.Task, mailboxSize),
		client:    client,
		broadcast: broadcast,
		log:       logger,
	}
	go e.run()
	return e
}

// Dispatch implements mailbox.Executor.
func (e *AutoMergeExecutor) Dispatch(task mailbox.Task) bool {
	select {
	case e.inbox <- task:
		return true
	default:
		return false
	}
}

func (e *AutoMergeExecutor) run() {
	for task := range e.inbox {
		result := e.execute(task)
		e.log.Debugf("auto_merge task %q for event %q completed: %s", task.Name, task.EventName, result)
	}
}

// acceptedKinds are the event shapes the AutoMerge action may trigger on.
var acceptedKinds = map[events.Kind]bool{
	events.KindPullRequest:              true,
	events.KindIssueComment:             true,
	events.KindPullRequestReview:        true,
	events.KindCheckSuite:               true,
}

func (e *AutoMergeExecutor) execute(task mailbox.Task) actions.Result {
	// Step 1: verify event shape.
	if !acceptedKinds[task.Event.Kind] {
		return actions.ConditionsNotMet
	}

	// Step 2: resolve target IssueId.
	issueID, err := resolveIssueId(task.Event)
	if err != nil {
		e.log.Warnf("auto_merge task %q: %v", task.Name, err)
		return actions.ConditionsNotMet
	}
	repo := issueID.RepoId()
	number := int(issueID.Number)
	params := task.Action.AutoMerge

	ctx := context.Background()

	// Step 3: fetch the pull request.
	pr, err := e.client.GetPullRequest(ctx, repo, number)
	if err != nil {
		e.log.Warnf("auto_merge: fetching PR %s failed: %v", issueID, err)
		return actions.Failed
	}

	// Step 4: count approvals; short-circuit on any CHANGES_REQUESTED.
	reviewCounts, err := e.client.FetchReviewCounts(ctx, repo, number)
	if err != nil {
		e.log.Warnf("auto_merge: fetching review counts for %s failed: %v", issueID, err)
		return actions.Failed
	}
	if reviewCounts.ChangesRequested > 0 {
		e.broadcast.HandleBroadcast(events.BroadcastEvent{Kind: events.BroadcastChangesRequested, IssueKey: issueID.String(), Event: task.Event})
		return actions.ConditionsNotMet
	}
	approvals := uint64(reviewCounts.Approved)

	// Step 5: count acks from known contributors.
	contributors, err := e.client.ListContributors(ctx, repo)
	if err != nil {
		e.log.Warnf("auto_merge: listing contributors for %s failed: %v", issueID, err)
		return actions.Failed
	}
	knownContributor := make(map[string]bool, len(contributors))
	for _, c := range contributors {
		knownContributor[c] = true
	}
	acks, err := e.countAcks(ctx, repo, number, params, knownContributor)
	if err != nil {
		e.log.Warnf("auto_merge: counting acks for %s failed: %v", issueID, err)
		return actions.Failed
	}

	// Step 6: reviews threshold broadcast.
	if approvals < params.ReviewsRequired {
		e.broadcast.HandleBroadcast(events.BroadcastEvent{
			Kind:     events.BroadcastReviewsNeeded,
			Progress: events.Progress{Current: approvals, Total: params.ReviewsRequired},
			IssueKey: issueID.String(),
			Event:    task.Event,
		})
	} else {
		e.broadcast.HandleBroadcast(events.BroadcastEvent{Kind: events.BroadcastReviewsThresholdReached, IssueKey: issueID.String(), Event: task.Event})
	}

	// Step 7: acks threshold broadcast.
	if acks < params.AcksRequired {
		e.broadcast.HandleBroadcast(events.BroadcastEvent{
			Kind:     events.BroadcastAcksNeeded,
			Progress: events.Progress{Current: acks, Total: params.AcksRequired},
			IssueKey: issueID.String(),
			Event:    task.Event,
		})
	} else {
		e.broadcast.HandleBroadcast(events.BroadcastEvent{Kind: events.BroadcastAcksThresholdReached, IssueKey: issueID.String(), Event: task.Event})
	}

	if approvals < params.ReviewsRequired || acks < params.AcksRequired {
		return actions.ConditionsNotMet
	}

	// Step 8: all-checks-must-pass gate.
	if params.AllChecksMustPass {
		status, conclusion, err := e.client.FetchLastCheckRunStatus(ctx, repo, pr.GetHead().GetSHA())
		if err != nil {
			e.log.Warnf("auto_merge: fetching check-suite status for %s failed: %v", issueID, err)
			return actions.Failed
		}
		if !strings.EqualFold(status, "completed") || !strings.EqualFold(conclusion, "success") {
			return actions.ConditionsNotMet
		}
	}

	// Step 9/10: merge-trigger label and merge.
	hasLabel := false
	for _, l := range pr.Labels {
		if l.GetName() == params.MergeLabel {
			hasLabel = true
			break
		}
	}

	if !hasLabel {
		if params.PerformMerge {
			// Wait for the label; nothing to do this pass.
			return actions.ConditionsNotMet
		}
		if err := e.client.AddLabel(ctx, repo, number, params.MergeLabel); err != nil {
			e.log.Warnf("auto_merge: adding merge label to %s failed: %v", issueID, err)
			return actions.Failed
		}
		return actions.Success
	}

	if !params.PerformMerge {
		return actions.Success
	}

	if _, err := e.client.MergePullRequest(ctx, repo, number, ""); err != nil {
		e.log.Warnf("auto_merge: merging %s failed: %v", issueID, err)
		return actions.Failed
	}
	return actions.Success
}

// countAcks fetches both top-level issue comments and inline review
// comments on the PR and counts how many are from a known contributor
// and match a configured ack pattern, per spec.md §4.3.3 step 5.
func (e *AutoMergeExecutor) countAcks(ctx context.Context, repo ids.RepoId, number int, params actions.AutoMergeParameters, knownContributor map[string]bool) (uint64, error) {
	var acks uint64

	issueComments, err := e.client.IssueComments(ctx, repo, number)
	if err != nil {
		return 0, err
	}
	for _, c := range issueComments {
		login := c.GetUser().GetLogin()
		if knownContributor[login] && params.IsAck(c.GetBody()) {
			acks++
		}
	}

	reviewComments, err := e.client.ListReviewComments(ctx, repo, number)
	if err != nil {
		return 0, err
	}
	for _, c := range reviewComments {
		login := c.GetUser().GetLogin()
		if knownContributor[login] && params.IsAck(c.GetBody()) {
			acks++
		}
	}

	return acks, nil
}
