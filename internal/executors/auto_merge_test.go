package executors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v68/github"
	"github.com/stretchr/testify/require"

	"github.com/nickmisasi/ghpilotd/internal/actions"
	"github.com/nickmisasi/ghpilotd/internal/events"
	"github.com/nickmisasi/ghpilotd/internal/log"
	"github.com/nickmisasi/ghpilotd/internal/mailbox"
	"github.com/nickmisasi/ghpilotd/internal/platform"
)

// fakeBroadcastSink records every broadcast the AutoMerge executor
// re-publishes, for assertions against spec.md §8's merge scenarios.
type fakeBroadcastSink struct {
	mu     sync.Mutex
	events []events.BroadcastEvent
}

func (s *fakeBroadcastSink) HandleBroadcast(b events.BroadcastEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, b)
}

func (s *fakeBroadcastSink) kinds() []events.BroadcastKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]events.BroadcastKind, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Kind)
	}
	return out
}

func (s *fakeBroadcastSink) has(kind events.BroadcastKind) bool {
	for _, k := range s.kinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// mergeFixtureServer wires up a mux serving every REST and GraphQL
// endpoint the AutoMergeExecutor's ten-step algorithm touches for one
// owner/repo/PR, and records whether the merge endpoint was ever
// called. Review counts and check-suite status are served from
// /graphql, matching spec.md §4.6's "fetch review counts (GraphQL)" /
// "fetch last check-run status (GraphQL)" endpoints, which is what
// platform.Client.FetchReviewCounts/FetchLastCheckRunStatus call.
type mergeFixtureServer struct {
	server         *httptest.Server
	mergeCalled    atomic.Bool
	pr             *github.PullRequest
	reviewStates   []string
	issueComments  []*github.IssueComment
	reviewComments []*github.PullRequestComment
	contributors   []*github.Contributor
	checkStatus, checkConclusion string
}

func newMergeFixtureServer(t *testing.T) *mergeFixtureServer {
	f := &mergeFixtureServer{
		checkStatus:     "completed",
		checkConclusion: "success",
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/pulls/5", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(f.pr)
	})
	mux.HandleFunc("/repos/o/r/contributors", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(f.contributors)
	})
	mux.HandleFunc("/repos/o/r/issues/5/comments", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(f.issueComments)
	})
	mux.HandleFunc("/repos/o/r/pulls/5/comments", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(f.reviewComments)
	})
	mux.HandleFunc("/graphql", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if _, isCheckRunQuery := req.Variables["oid"]; isCheckRunQuery {
			_, _ = w.Write([]byte(`{"data":{"repository":{"object":{"checkSuites":{"nodes":[{"status":"` +
				f.checkStatus + `","conclusion":"` + f.checkConclusion + `"}]}}}}}`))
			return
		}
		nodes := ""
		for i, state := range f.reviewStates {
			if i > 0 {
				nodes += ","
			}
			nodes += `{"state":"` + state + `"}`
		}
		_, _ = w.Write([]byte(`{"data":{"repository":{"pullRequest":{"reviews":{"nodes":[` + nodes + `]}}}}}`))
	})
	mux.HandleFunc("/repos/o/r/pulls/5/merge", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
			return
		}
		f.mergeCalled.Store(true)
		_ = json.NewEncoder(w).Encode(&github.PullRequestMergeResult{
			Merged:  github.Ptr(true),
			SHA:     github.Ptr("deadbeef"),
			Message: github.Ptr("merged"),
		})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *mergeFixtureServer) client(t *testing.T) *platform.Client {
	gh := github.NewClient(f.server.Client())
	base, err := url.Parse(f.server.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base
	gh.UploadURL = base
	return platform.NewClientWithGitHub(gh, "test-token", log.Nop{})
}

func mergeEvent() events.Event {
	return events.Event{
		Kind: events.KindPullRequest,
		PullRequest: &github.PullRequestEvent{
			Action: github.Ptr("synchronize"),
			Number: github.Ptr(5),
			Repo: &github.Repository{
				Name:  github.Ptr("r"),
				Owner: &github.User{Login: github.Ptr("o")},
			},
		},
	}
}

func ackComment(login string) *github.IssueComment {
	return &github.IssueComment{User: &github.User{Login: github.Ptr(login)}, Body: github.Ptr("ACK")}
}

// TestAutoMergeHappyPathMerges is spec.md §8 Scenario 3: one approval, 3
// acks from known contributors, passing checks, and the merge label
// present with perform_merge enabled all merge the pull request and
// report both thresholds reached.
func TestAutoMergeHappyPathMerges(t *testing.T) {
	f := newMergeFixtureServer(t)
	f.pr = &github.PullRequest{
		Head:   &github.PullRequestBranch{SHA: github.Ptr("deadbeef")},
		Labels: []*github.Label{{Name: github.Ptr("P-merge")}},
	}
	f.reviewStates = []string{"APPROVED"}
	f.contributors = []*github.Contributor{
		{Login: github.Ptr("alice"), Type: github.Ptr("User")},
		{Login: github.Ptr("bob"), Type: github.Ptr("User")},
		{Login: github.Ptr("carol"), Type: github.Ptr("User")},
	}
	f.issueComments = []*github.IssueComment{ackComment("alice"), ackComment("bob")}
	f.reviewComments = []*github.PullRequestComment{{User: &github.User{Login: github.Ptr("carol")}, Body: github.Ptr("LGTM")}}

	sink := &fakeBroadcastSink{}
	exec := NewAutoMergeExecutor(f.client(t), sink, log.Nop{})

	params := actions.NewAutoMergeParameters()
	params.PerformMerge = true
	exec.Dispatch(mailbox.Task{Name: "merge-rule", EventName: "pull_request", Event: mergeEvent(), Action: actions.NewAutoMergeAction(params)})

	require.Eventually(t, func() bool { return f.mergeCalled.Load() }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return sink.has(events.BroadcastAcksThresholdReached) }, 2*time.Second, 10*time.Millisecond)
	require.True(t, sink.has(events.BroadcastReviewsThresholdReached))

	for _, e := range sink.events {
		require.Equal(t, events.KindPullRequest, e.Event.Kind, "every broadcast must carry the triggering event so subscription actions can resolve an IssueId")
	}
}

// TestAutoMergeInsufficientAcksDoesNotMerge is spec.md §8 Scenario 4:
// with only one ack against a default requirement of three, the
// executor reports AcksNeeded progress and never attempts a merge.
func TestAutoMergeInsufficientAcksDoesNotMerge(t *testing.T) {
	f := newMergeFixtureServer(t)
	f.pr = &github.PullRequest{
		Head:   &github.PullRequestBranch{SHA: github.Ptr("deadbeef")},
		Labels: []*github.Label{{Name: github.Ptr("P-merge")}},
	}
	f.reviewStates = []string{"APPROVED"}
	f.contributors = []*github.Contributor{{Login: github.Ptr("alice"), Type: github.Ptr("User")}}
	f.issueComments = []*github.IssueComment{ackComment("alice")}

	sink := &fakeBroadcastSink{}
	exec := NewAutoMergeExecutor(f.client(t), sink, log.Nop{})

	params := actions.NewAutoMergeParameters()
	params.PerformMerge = true
	exec.Dispatch(mailbox.Task{Name: "merge-rule", EventName: "pull_request", Event: mergeEvent(), Action: actions.NewAutoMergeAction(params)})

	require.Eventually(t, func() bool { return sink.has(events.BroadcastAcksNeeded) }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	if f.mergeCalled.Load() {
		t.Error("merge must not be attempted while the ack threshold is unmet")
	}
	for _, e := range sink.events {
		if e.Kind == events.BroadcastAcksNeeded {
			if e.Progress.Current != 1 || e.Progress.Total != actions.DefaultAcksRequired {
				t.Errorf("unexpected AcksNeeded progress: %+v", e.Progress)
			}
		}
	}
}

// TestAutoMergeChangesRequestedShortCircuits is spec.md §8 Scenario 5: a
// single CHANGES_REQUESTED review halts the algorithm immediately,
// broadcasting ChangesRequested and never reaching the ack-counting or
// merge steps.
func TestAutoMergeChangesRequestedShortCircuits(t *testing.T) {
	f := newMergeFixtureServer(t)
	f.pr = &github.PullRequest{Head: &github.PullRequestBranch{SHA: github.Ptr("deadbeef")}}
	f.reviewStates = []string{"CHANGES_REQUESTED"}

	sink := &fakeBroadcastSink{}
	exec := NewAutoMergeExecutor(f.client(t), sink, log.Nop{})

	exec.Dispatch(mailbox.Task{
		Name: "merge-rule", EventName: "pull_request", Event: mergeEvent(),
		Action: actions.NewAutoMergeAction(actions.NewAutoMergeParameters()),
	})

	require.Eventually(t, func() bool { return sink.has(events.BroadcastChangesRequested) }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	if f.mergeCalled.Load() {
		t.Error("a changes-requested review must short-circuit before any merge attempt")
	}
	for _, k := range sink.kinds() {
		if k == events.BroadcastReviewsNeeded || k == events.BroadcastAcksNeeded {
			t.Errorf("changes-requested short-circuit must not reach the reviews/acks broadcasting steps, saw %q", k)
		}
	}
}

func TestAutoMergeRejectsUnsupportedEventShape(t *testing.T) {
	f := newMergeFixtureServer(t)
	sink := &fakeBroadcastSink{}
	exec := NewAutoMergeExecutor(f.client(t), sink, log.Nop{})

	exec.Dispatch(mailbox.Task{
		Name: "merge-rule", EventName: "push", Event: events.Event{Kind: events.KindPush, Push: &github.PushEvent{}},
		Action: actions.NewAutoMergeAction(actions.NewAutoMergeParameters()),
	})

	time.Sleep(50 * time.Millisecond)
	if len(sink.kinds()) != 0 {
		t.Errorf("a push event should never reach the broadcasting steps, got %v", sink.kinds())
	}
	if f.mergeCalled.Load() {
		t.Error("a push event must never trigger a merge")
	}
}
