package executors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
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

type platformFixtureServer struct {
	server         *httptest.Server
	issue          *github.Issue
	addLabelCalled atomic.Bool
	removedLabels  []string
}

func newPlatformFixtureServer(t *testing.T) *platformFixtureServer {
	f := &platformFixtureServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/o/r/issues/5", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(f.issue)
	})
	mux.HandleFunc("/repos/o/r/issues/5/labels", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			f.addLabelCalled.Store(true)
			_ = json.NewEncoder(w).Encode([]*github.Label{})
			return
		}
		http.Error(w, "unexpected method", http.StatusMethodNotAllowed)
	})
	mux.HandleFunc("/repos/o/r/issues/5/labels/", func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Path[len("/repos/o/r/issues/5/labels/"):]
		f.removedLabels = append(f.removedLabels, name)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/repos/o/r/issues/5/comments", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(&github.IssueComment{Body: github.Ptr("thanks!")})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *platformFixtureServer) client(t *testing.T) *platform.Client {
	gh := github.NewClient(f.server.Client())
	base, err := url.Parse(f.server.URL + "/")
	require.NoError(t, err)
	gh.BaseURL = base
	gh.UploadURL = base
	return platform.NewClientWithGitHub(gh, "test-token", log.Nop{})
}

func platformPRMessage() events.Event {
	return events.Event{
		Kind: events.KindPullRequest,
		PullRequest: &github.PullRequestEvent{
			Action: github.Ptr("opened"),
			Number: github.Ptr(5),
			Repo: &github.Repository{
				Name:  github.Ptr("r"),
				Owner: &github.User{Login: github.Ptr("o")},
			},
		},
	}
}

func TestPlatformExecutorAddLabel(t *testing.T) {
	f := newPlatformFixtureServer(t)
	exec := NewPlatformExecutor(f.client(t), log.Nop{})
	exec.Dispatch(mailbox.Task{
		Name: "rule", EventName: "pull_request", Event: platformPRMessage(),
		Action: actions.NewPlatformAction(actions.OpAddLabel, "CR-too_long"),
	})
	require.Eventually(t, func() bool { return f.addLabelCalled.Load() }, time.Second, 10*time.Millisecond)
}

func TestPlatformExecutorRemoveLabel(t *testing.T) {
	f := newPlatformFixtureServer(t)
	exec := NewPlatformExecutor(f.client(t), log.Nop{})
	exec.Dispatch(mailbox.Task{
		Name: "rule", EventName: "pull_request", Event: platformPRMessage(),
		Action: actions.NewPlatformAction(actions.OpRemoveLabel, "P-acks_required"),
	})
	require.Eventually(t, func() bool { return len(f.removedLabels) == 1 }, time.Second, 10*time.Millisecond)
	if f.removedLabels[0] != "P-acks_required" {
		t.Errorf("unexpected removed label: %q", f.removedLabels[0])
	}
}

func TestPlatformExecutorLabelConflictsRemovesAllButFirst(t *testing.T) {
	f := newPlatformFixtureServer(t)
	f.issue = &github.Issue{Labels: []*github.Label{
		{Name: github.Ptr("P-small")},
		{Name: github.Ptr("P-medium")},
		{Name: github.Ptr("P-large")},
	}}
	exec := NewPlatformExecutor(f.client(t), log.Nop{})
	exec.Dispatch(mailbox.Task{
		Name: "rule", EventName: "pull_request", Event: platformPRMessage(),
		Action: actions.NewPlatformAction(actions.OpLabelConflicts, "P-small,P-medium,P-large"),
	})
	require.Eventually(t, func() bool { return len(f.removedLabels) == 2 }, time.Second, 10*time.Millisecond)
}

func TestPlatformExecutorLabelConflictsNoopWhenAtMostOnePresent(t *testing.T) {
	f := newPlatformFixtureServer(t)
	f.issue = &github.Issue{Labels: []*github.Label{{Name: github.Ptr("P-small")}}}
	exec := NewPlatformExecutor(f.client(t), log.Nop{})
	exec.Dispatch(mailbox.Task{
		Name: "rule", EventName: "pull_request", Event: platformPRMessage(),
		Action: actions.NewPlatformAction(actions.OpLabelConflicts, "P-small,P-medium,P-large"),
	})
	time.Sleep(50 * time.Millisecond)
	if len(f.removedLabels) != 0 {
		t.Errorf("expected no removals when at most one conflicting label is present, got %v", f.removedLabels)
	}
}
