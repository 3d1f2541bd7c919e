package predicates

import (
	"testing"

	"github.com/google/go-github/v68/github"

	"github.com/nickmisasi/ghpilotd/internal/events"
)

func prMessage(action string, pr *github.PullRequest) events.GithubEventMessage {
	return events.GithubEventMessage{
		Name: "pull_request",
		Event: events.Event{
			Kind: events.KindPullRequest,
			PullRequest: &github.PullRequestEvent{
				Action:      github.Ptr(action),
				PullRequest: pr,
			},
		},
	}
}

func TestPullRequestOpenedPredicate(t *testing.T) {
	p := Predicate{Kind: KindPullRequest, PullRequestOp: PROpened}
	if !p.Matches(prMessage("opened", &github.PullRequest{})) {
		t.Error("expected opened predicate to match an opened PR event")
	}
	if p.Matches(prMessage("edited", &github.PullRequest{})) {
		t.Error("expected opened predicate to reject an edited PR event")
	}
}

func TestPullRequestSizePredicate(t *testing.T) {
	pr := &github.PullRequest{
		Additions: github.Ptr(700),
		Deletions: github.Ptr(700),
	}
	msg := prMessage("opened", pr)

	larger := Predicate{Kind: KindPullRequest, PullRequestOp: PRLargerThan, Param: "medium"}
	if !larger.Matches(msg) {
		t.Error("a 700/700 PR (Large) should be larger than 'medium'")
	}

	notLarger := Predicate{Kind: KindPullRequest, PullRequestOp: PRLargerThan, Param: "huge"}
	if notLarger.Matches(msg) {
		t.Error("a 700/700 PR (Large) should not be larger than 'huge'")
	}
}

// TestPullRequestSizePredicateIsInclusiveOfTheNamedBand is spec.md §8
// Scenario 1: additions=600, deletions=100 bands as Medium (total=700,
// the additions<500||total<1000 clause), and size_greater_than: medium
// must still match a PR exactly in that band.
func TestPullRequestSizePredicateIsInclusiveOfTheNamedBand(t *testing.T) {
	pr := &github.PullRequest{Additions: github.Ptr(600), Deletions: github.Ptr(100)}
	msg := prMessage("opened", pr)

	p := Predicate{Kind: KindPullRequest, PullRequestOp: PRLargerThan, Param: "medium"}
	if !p.Matches(msg) {
		t.Error("a Medium PR should match size_greater_than: medium (inclusive boundary)")
	}

	small := prMessage("opened", &github.PullRequest{Additions: github.Ptr(50), Deletions: github.Ptr(10)})
	if p.Matches(small) {
		t.Error("a 50/10 PR (Small) should not match size_greater_than: medium")
	}
}

func TestPullRequestApprovedPredicate(t *testing.T) {
	msg := func(action, state string) events.GithubEventMessage {
		return events.GithubEventMessage{
			Name: "pull_request_review",
			Event: events.Event{
				Kind: events.KindPullRequestReview,
				PullRequestReview: &github.PullRequestReviewEvent{
					Action: github.Ptr(action),
					Review: &github.PullRequestReview{State: github.Ptr(state)},
				},
			},
		}
	}
	p := Predicate{Kind: KindPullRequest, PullRequestOp: PRApproved}

	if !p.Matches(msg("submitted", "approved")) {
		t.Error("a submitted review with state=approved should match Approved")
	}
	if p.Matches(msg("submitted", "changes_requested")) {
		t.Error("a submitted review with state=changes_requested should not match Approved")
	}
	if p.Matches(msg("dismissed", "approved")) {
		t.Error("a dismissed (not submitted) review should not match Approved")
	}
	if p.Matches(prMessage("opened", &github.PullRequest{})) {
		t.Error("a plain pull_request event should not match Approved")
	}
}

func TestPullRequestLabeledWithPredicate(t *testing.T) {
	pr := &github.PullRequest{Labels: []*github.Label{{Name: github.Ptr("P-merge")}}}
	msg := prMessage("labeled", pr)
	p := Predicate{Kind: KindPullRequest, PullRequestOp: PRLabeledWith, Param: "P-merge"}
	if !p.Matches(msg) {
		t.Error("expected labeled_with predicate to find the present label")
	}
	absent := Predicate{Kind: KindPullRequest, PullRequestOp: PRLabeledWith, Param: "missing"}
	if absent.Matches(msg) {
		t.Error("expected labeled_with predicate to reject an absent label")
	}
}

func TestPullRequestPoorJustificationPredicate(t *testing.T) {
	pr := &github.PullRequest{
		Additions: github.Ptr(900),
		Deletions: github.Ptr(100),
		Body:      github.Ptr("too short"),
	}
	msg := prMessage("opened", pr)
	p := Predicate{Kind: KindPullRequest, PullRequestOp: PRPoorJustification}
	if !p.Matches(msg) {
		t.Error("a large PR with a short body should match poor_justification")
	}
}

func TestPullRequestCommentPredicateOnIssueComment(t *testing.T) {
	msg := events.GithubEventMessage{
		Name: "issue_comment",
		Event: events.Event{
			Kind: events.KindIssueComment,
			IssueComment: &github.IssueCommentEvent{
				Action: github.Ptr("created"),
				Issue: &github.Issue{
					PullRequestLinks: &github.PullRequestLinks{URL: github.Ptr("https://api.github.com/repos/o/r/pulls/5")},
				},
				Comment: &github.IssueComment{User: &github.User{Login: github.Ptr("octocat")}},
			},
		},
	}
	p := Predicate{Kind: KindPullRequestComment, PullRequestCommentOp: PRCommentAdded}
	if !p.Matches(msg) {
		t.Error("expected an issue_comment on a pull request to match PullRequestComment::Added")
	}

	restricted := Predicate{Kind: KindPullRequestComment, PullRequestCommentOp: PRCommentAdded, CommentUser: "someone-else"}
	if restricted.Matches(msg) {
		t.Error("expected a user-restricted predicate to reject a comment from a different user")
	}
}

func TestPullRequestCommentPredicateRejectsPlainIssueComment(t *testing.T) {
	msg := events.GithubEventMessage{
		Name: "issue_comment",
		Event: events.Event{
			Kind: events.KindIssueComment,
			IssueComment: &github.IssueCommentEvent{
				Action: github.Ptr("created"),
				Issue: &github.Issue{
					HTMLURL: github.Ptr("https://github.com/o/r/issues/5"),
				},
				Comment: &github.IssueComment{User: &github.User{Login: github.Ptr("octocat")}},
			},
		},
	}
	p := Predicate{Kind: KindPullRequestComment, PullRequestCommentOp: PRCommentAdded}
	if p.Matches(msg) {
		t.Error("a comment on a plain issue (not a PR) must not match")
	}
}

func TestStatusCheckSuiteSuccessPredicate(t *testing.T) {
	msg := events.GithubEventMessage{
		Name: "check_suite",
		Event: events.Event{
			Kind: events.KindCheckSuite,
			CheckSuite: &github.CheckSuiteEvent{
				CheckSuite: &github.CheckSuite{
					Status:     github.Ptr("completed"),
					Conclusion: github.Ptr("success"),
				},
			},
		},
	}
	p := Predicate{Kind: KindStatusCheck, StatusCheckOp: StatusCheckSuiteSuccess}
	if !p.Matches(msg) {
		t.Error("a completed+success check suite should match")
	}

	msg.Event.CheckSuite.CheckSuite.Conclusion = github.Ptr("failure")
	if p.Matches(msg) {
		t.Error("a completed+failure check suite should not match")
	}
}
