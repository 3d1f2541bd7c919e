package executors

import (
	"fmt"

	"github.com/nickmisasi/ghpilotd/internal/events"
	"github.com/nickmisasi/ghpilotd/internal/ids"
)

// resolveIssueId recovers the IssueId embedded in an event, covering
// every variant spec.md §4.3.2 requires: pull-request,
// pull-request-review, pull-request-review-comment, issue-comment, and
// issues events.
func resolveIssueId(ev events.Event) (ids.IssueId, error) {
	switch ev.Kind {
	case events.KindPullRequest:
		if ev.PullRequest == nil {
			break
		}
		repo := ev.PullRequest.GetRepo()
		return ids.NewIssueId(repo.GetOwner().GetLogin(), repo.GetName(), uint64(ev.PullRequest.GetNumber())), nil
	case events.KindPullRequestReview:
		if ev.PullRequestReview == nil {
			break
		}
		repo := ev.PullRequestReview.GetRepo()
		pr := ev.PullRequestReview.GetPullRequest()
		return ids.NewIssueId(repo.GetOwner().GetLogin(), repo.GetName(), uint64(pr.GetNumber())), nil
	case events.KindPullRequestReviewComment:
		if ev.PullRequestReviewComment == nil {
			break
		}
		repo := ev.PullRequestReviewComment.GetRepo()
		pr := ev.PullRequestReviewComment.GetPullRequest()
		return ids.NewIssueId(repo.GetOwner().GetLogin(), repo.GetName(), uint64(pr.GetNumber())), nil
	case events.KindIssueComment:
		if ev.IssueComment == nil {
			break
		}
		repo := ev.IssueComment.GetRepo()
		issue := ev.IssueComment.GetIssue()
		return ids.NewIssueId(repo.GetOwner().GetLogin(), repo.GetName(), uint64(issue.GetNumber())), nil
	case events.KindIssues:
		if ev.Issues == nil {
			break
		}
		repo := ev.Issues.GetRepo()
		issue := ev.Issues.GetIssue()
		return ids.NewIssueId(repo.GetOwner().GetLogin(), repo.GetName(), uint64(issue.GetNumber())), nil
	}
	return ids.IssueId{}, fmt.Errorf("event kind %q does not carry an issue/pull-request reference", ev.Kind)
}
