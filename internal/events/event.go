// Package events defines the webhook Event sum type, the envelope that
// wraps a decoded delivery, and the internal BroadcastEvent sum type
// the dispatcher derives from executor outcomes.
package events

import (
	"encoding/json"

	"github.com/google/go-github/v68/github"
)

// Kind identifies which webhook shape an Event carries.
type Kind string

const (
	KindCommitComment           Kind = "commit_comment"
	KindIssueComment            Kind = "issue_comment"
	KindIssues                  Kind = "issues"
	KindLabel                   Kind = "label"
	KindPing                    Kind = "ping"
	KindPullRequest              Kind = "pull_request"
	KindPullRequestReview        Kind = "pull_request_review"
	KindPullRequestReviewComment Kind = "pull_request_review_comment"
	KindPush                    Kind = "push"
	KindStatus                  Kind = "status"
	KindCheckSuite               Kind = "check_suite"
	KindUnknown                  Kind = "unknown"
)

// Event is a tagged sum over every supported webhook payload shape.
// Only the field matching Kind is populated; this mirrors spec.md §9's
// instruction to use a tagged sum rather than dynamic dispatch so that
// matching is exhaustive and serialization total.
type Event struct {
	Kind Kind

	CommitComment           *github.CommitCommentEvent
	IssueComment             *github.IssueCommentEvent
	Issues                   *github.IssuesEvent
	Label                    *github.LabelEvent
	Ping                     *github.PingEvent
	PullRequest              *github.PullRequestEvent
	PullRequestReview        *github.PullRequestReviewEvent
	PullRequestReviewComment *github.PullRequestReviewCommentEvent
	Push                     *github.PushEvent
	Status                   *github.StatusEvent
	CheckSuite               *github.CheckSuiteEvent

	// UnknownName and UnknownBody carry the raw event name and body for
	// event types the engine does not model explicitly.
	UnknownName string
	UnknownBody json.RawMessage
}

// GithubEventMessage pairs the raw X-GitHub-Event header value with its
// decoded Event. Created exclusively by the webhook intake layer;
// treated as immutable and shared by reference across rule evaluation.
type GithubEventMessage struct {
	Name       string
	Event      Event
	DeliveryID string // X-GitHub-Delivery value (or a generated uuid); not forwarded to executors or logged
}

// ToParts returns the message's constituent name and event, mirroring
// the original's `to_parts()` accessor.
func (m GithubEventMessage) ToParts() (string, Event) {
	return m.Name, m.Event
}

// Progress is a (current, total) pair describing approach toward a threshold.
type Progress struct {
	Current uint64
	Total   uint64
}

// BroadcastKind identifies which semantic condition a BroadcastEvent reports.
type BroadcastKind string

const (
	BroadcastReviewsNeeded          BroadcastKind = "reviews_needed"
	BroadcastReviewsThresholdReached BroadcastKind = "reviews_threshold_reached"
	BroadcastAcksNeeded              BroadcastKind = "acks_needed"
	BroadcastAcksThresholdReached    BroadcastKind = "acks_threshold_reached"
	BroadcastChangesRequested        BroadcastKind = "changes_requested"
)

// BroadcastEvent is the internal, derived semantic event the dispatcher
// re-publishes to the subscription layer after an executor reports an
// outcome implying progress.
//
// Event carries the webhook event that triggered this broadcast (e.g.
// the pull_request or issue_comment delivery the AutoMerge executor was
// processing). Subscription actions are dispatched against the same
// mailbox.Task shape a rule's actions are, and most of them (the
// default add_label/remove_label subscriptions in particular) need an
// IssueId to act on — without this, a PlatformApi action fired from a
// subscription has no event to resolve one from. Grounded on
// original_source/server/src/events/broadcast_event.rs's
// BroadcastEventMessage{event, github_event}.
type BroadcastEvent struct {
	Kind     BroadcastKind
	Progress Progress // populated only for ReviewsNeeded / AcksNeeded
	IssueKey string   // the originating IssueId in text form; the dispatcher does not log it
	Event    Event    // the triggering webhook event, threaded to subscription actions
}
