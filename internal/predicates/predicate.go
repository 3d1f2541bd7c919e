// Package predicates implements the event-shape matching primitives used
// inside Rule definitions. Grounded on
// original_source/server/src/predicates/{mod,pull_request_comment,status_checks}.rs.
package predicates

import (
	"regexp"
	"strings"

	"github.com/nickmisasi/ghpilotd/internal/events"
	"github.com/nickmisasi/ghpilotd/internal/heuristics"
)

// PullRequestOp enumerates the PullRequest predicate's variants.
type PullRequestOp string

const (
	PROpened           PullRequestOp = "opened"
	PRReopened         PullRequestOp = "reopened"
	PREdited           PullRequestOp = "edited"
	PRSynchronize      PullRequestOp = "synchronize"
	PRApproved         PullRequestOp = "approved"
	PRLabeledWith      PullRequestOp = "labeled_with"
	PRAssignedTo       PullRequestOp = "assigned_to"
	PRLargerThan       PullRequestOp = "larger_than"
	PRMoreComplexThan  PullRequestOp = "more_complex_than"
	PRPoorJustification PullRequestOp = "poor_justification"
)

// PullRequestCommentOp enumerates the PullRequestComment predicate's variants.
type PullRequestCommentOp string

const (
	PRCommentAdded PullRequestCommentOp = "added"
)

// StatusCheckOp enumerates the StatusCheck predicate's variants.
type StatusCheckOp string

const (
	StatusCheckSuiteSuccess StatusCheckOp = "check_suite_success"
)

// Kind identifies which predicate family a Predicate belongs to.
type Kind string

const (
	KindPullRequest        Kind = "pull_request"
	KindPullRequestComment Kind = "pull_request_comment"
	KindStatusCheck        Kind = "status_check"
)

// Predicate is a tagged sum of every matching primitive usable inside a Rule.
type Predicate struct {
	Kind Kind

	PullRequestOp PullRequestOp
	// Param carries the op-specific argument: the label/user name for
	// LabeledWith/AssignedTo, the Size for LargerThan, the Complexity for
	// MoreComplexThan. Empty for ops that take no argument.
	Param string

	PullRequestCommentOp PullRequestCommentOp
	// CommentUser optionally restricts PullRequestComment::Added to a
	// specific commenter login; empty means "any user".
	CommentUser string

	StatusCheckOp StatusCheckOp
}

var prURLRegex = regexp.MustCompile(`(?i)/pull/\d+(?:[/?#].*)?$`)

// Matches reports whether this predicate matches the given event.
func (p Predicate) Matches(msg events.GithubEventMessage) bool {
	switch p.Kind {
	case KindPullRequest:
		return p.matchPullRequest(msg)
	case KindPullRequestComment:
		return p.matchPullRequestComment(msg)
	case KindStatusCheck:
		return p.matchStatusCheck(msg)
	default:
		return false
	}
}

func (p Predicate) matchPullRequest(msg events.GithubEventMessage) bool {
	ev := msg.Event

	// Approved is the one PullRequestOp that isn't derived from a
	// pull_request event's action field: GitHub reports review state on
	// the pull_request_review delivery, not on pull_request itself.
	if p.PullRequestOp == PRApproved {
		if ev.Kind != events.KindPullRequestReview || ev.PullRequestReview == nil {
			return false
		}
		review := ev.PullRequestReview.GetReview()
		return ev.PullRequestReview.GetAction() == "submitted" &&
			review != nil && strings.EqualFold(review.GetState(), "approved")
	}

	if ev.Kind != events.KindPullRequest || ev.PullRequest == nil {
		return false
	}
	pr := ev.PullRequest.GetPullRequest()
	action := ev.PullRequest.GetAction()

	switch p.PullRequestOp {
	case PROpened:
		return action == "opened"
	case PRReopened:
		return action == "reopened"
	case PREdited:
		return action == "edited"
	case PRSynchronize:
		return action == "synchronize"
	case PRLabeledWith:
		if pr == nil {
			return false
		}
		for _, l := range pr.Labels {
			if l.GetName() == p.Param {
				return true
			}
		}
		return false
	case PRAssignedTo:
		if pr == nil {
			return false
		}
		for _, a := range pr.Assignees {
			if a.GetLogin() == p.Param {
				return true
			}
		}
		return false
	case PRLargerThan, "size_greater_than":
		if pr == nil {
			return false
		}
		// Inclusive: a PR exactly at the named band matches too (e.g.
		// size_greater_than: medium matches a Medium PR), per spec.md §8
		// Scenario 1.
		size := heuristics.ComputeSize(pr.GetAdditions(), pr.GetDeletions())
		return size >= parseSize(p.Param)
	case PRMoreComplexThan:
		if pr == nil {
			return false
		}
		complexity := heuristics.ComputeComplexity(pr.GetAdditions(), pr.GetDeletions(), pr.GetCommits(), pr.GetChangedFiles())
		return complexity > parseComplexity(p.Param)
	case PRPoorJustification:
		if pr == nil {
			return false
		}
		total := pr.GetAdditions() + pr.GetDeletions()
		return !heuristics.HasSufficientContext(len(pr.GetBody()), total)
	default:
		return false
	}
}

// matchPullRequestComment matches both PullRequestReviewComment events
// (action=created) and IssueComment events whose issue turns out to be
// a pull request.
//
// GitHub's IssueComment payload nils out PullRequestLinks for plain
// issue comments, but some deliveries omit that field even for PR
// comments; the original engine falls back to a regex over the issue's
// HTML URL. That fallback is brittle (it depends on GitHub's URL
// shape never changing) but is kept here unchanged, per the upstream
// design notes' "keep but flag" guidance.
func (p Predicate) matchPullRequestComment(msg events.GithubEventMessage) bool {
	if p.PullRequestCommentOp != PRCommentAdded {
		return false
	}
	ev := msg.Event
	switch ev.Kind {
	case events.KindPullRequestReviewComment:
		c := ev.PullRequestReviewComment
		if c == nil || c.GetAction() != "created" {
			return false
		}
		login := c.GetComment().GetUser().GetLogin()
		return p.CommentUser == "" || p.CommentUser == login
	case events.KindIssueComment:
		c := ev.IssueComment
		if c == nil || c.GetAction() != "created" {
			return false
		}
		issue := c.GetIssue()
		if issue == nil {
			return false
		}
		isPR := issue.IsPullRequest() || prURLRegex.MatchString(issue.GetHTMLURL())
		if !isPR {
			return false
		}
		login := c.GetComment().GetUser().GetLogin()
		return p.CommentUser == "" || p.CommentUser == login
	default:
		return false
	}
}

func (p Predicate) matchStatusCheck(msg events.GithubEventMessage) bool {
	if p.StatusCheckOp != StatusCheckSuiteSuccess {
		return false
	}
	ev := msg.Event
	if ev.Kind != events.KindCheckSuite || ev.CheckSuite == nil {
		return false
	}
	suite := ev.CheckSuite.GetCheckSuite()
	if suite == nil {
		return false
	}
	return strings.EqualFold(suite.GetStatus(), "completed") && strings.EqualFold(suite.GetConclusion(), "success")
}

func parseSize(s string) heuristics.Size {
	switch s {
	case "tiny":
		return heuristics.SizeTiny
	case "small":
		return heuristics.SizeSmall
	case "medium":
		return heuristics.SizeMedium
	case "large":
		return heuristics.SizeLarge
	default:
		return heuristics.SizeHuge
	}
}

func parseComplexity(s string) heuristics.Complexity {
	switch s {
	case "low":
		return heuristics.ComplexityLow
	case "medium":
		return heuristics.ComplexityMedium
	case "high":
		return heuristics.ComplexityHigh
	default:
		return heuristics.ComplexityVeryHigh
	}
}
