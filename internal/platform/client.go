// Package platform is the typed wrapper over the hosting platform's
// REST and GraphQL endpoints used by the engine's action executors.
// Grounded on the teacher's server/ghclient/client.go (go-github
// wrapping, NextPage-driven pagination, raw GraphQL mutation via
// bytes.NewReader + manual JSON + Bearer header) and on
// original_source/github-api/src/api/{client_proxy,error,pagination}.rs
// for the authoritative error-variant list and fetch_pages semantics.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/go-github/v68/github"
	"github.com/pkg/errors"

	"github.com/nickmisasi/ghpilotd/internal/ids"
	"github.com/nickmisasi/ghpilotd/internal/log"
)

const (
	// UserAgent is the stable product string sent on every request, per spec.md §6.
	UserAgent = "ghpilotd/1.0"
	// DefaultBaseURL is the REST API root used when none is configured.
	DefaultBaseURL = "https://api.github.com/"
	graphqlPath    = "graphql"
)

// Client is a cheaply-cloneable, concurrency-safe wrapper over the
// hosting platform's REST and GraphQL surfaces.
type Client struct {
	gh       *github.Client
	token    string
	baseURL  string
	httpc    *http.Client
	log      log.Logger
}

// NewClient builds a Client authenticated via HTTP basic auth with
// username/token, matching spec.md §6's GH_PILOT_USERNAME/GH_PILOT_AUTH_TOKEN.
func NewClient(username, token string, logger log.Logger) *Client {
	var httpClient *http.Client
	if username != "" && token != "" {
		httpClient = (&github.BasicAuthTransport{Username: username, Password: token}).Client()
	}
	gh := github.NewClient(httpClient)
	gh.UserAgent = UserAgent
	return &Client{
		gh:      gh,
		token:   token,
		baseURL: DefaultBaseURL,
		httpc:   http.DefaultClient,
		log:     logger,
	}
}

// NewClientWithGitHub constructs a Client around an existing
// *github.Client, for pointing tests at an httptest server the way the
// teacher's NewClientWithGitHub does.
func NewClientWithGitHub(gh *github.Client, token string, logger log.Logger) *Client {
	return &Client{gh: gh, token: token, baseURL: gh.BaseURL.String(), httpc: http.DefaultClient, log: logger}
}

// classify maps a go-github error (which already embeds an
// *github.ErrorResponse for non-2xx HTTP responses) onto the engine's
// ClientError taxonomy, mirroring client_proxy.rs::send's status-code
// dispatch.
func classify(resp *github.Response, err error) error {
	if err == nil {
		return nil
	}
	if resp == nil || resp.Response == nil {
		return newHTTPClient(err.Error())
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return newUnauthorized(err.Error())
	case http.StatusNotFound:
		return newNotFound(err.Error())
	default:
		return newHTTPResponse(resp.StatusCode)
	}
}

// --- Issue / label / comment operations ---

// GetIssue fetches an issue (or the issue view of a pull request) by number.
func (c *Client) GetIssue(ctx context.Context, repo ids.RepoId, number int) (*github.Issue, error) {
	issue, resp, err := c.gh.Issues.Get(ctx, repo.Owner, repo.Repo, number)
	if err != nil {
		return nil, classify(resp, err)
	}
	return issue, nil
}

// AddLabel adds a single label to an issue or pull request.
func (c *Client) AddLabel(ctx context.Context, repo ids.RepoId, number int, label string) error {
	_, resp, err := c.gh.Issues.AddLabelsToIssue(ctx, repo.Owner, repo.Repo, number, []string{label})
	if err != nil {
		return classify(resp, err)
	}
	return nil
}

// RemoveLabel removes a single label from an issue or pull request. A
// 404 (label not present) is treated as success, matching idempotent
// remove semantics expected of action executors (spec.md's non-goal of
// exactly-once delivery implies repeat deliveries must be harmless).
func (c *Client) RemoveLabel(ctx context.Context, repo ids.RepoId, number int, label string) error {
	resp, err := c.gh.Issues.RemoveLabelForIssue(ctx, repo.Owner, repo.Repo, number, label)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil
		}
		return classify(resp, err)
	}
	return nil
}

// AddComment posts a comment on an issue or pull request.
func (c *Client) AddComment(ctx context.Context, repo ids.RepoId, number int, body string) (*github.IssueComment, error) {
	comment, resp, err := c.gh.Issues.CreateComment(ctx, repo.Owner, repo.Repo, number, &github.IssueComment{
		Body: github.Ptr(body),
	})
	if err != nil {
		return nil, classify(resp, err)
	}
	return comment, nil
}

// --- Labels (paged) and label CRUD ---

// ListLabels returns every label defined on a repository.
func (c *Client) ListLabels(ctx context.Context, repo ids.RepoId) ([]*github.Label, error) {
	var all []*github.Label
	opts := &github.ListOptions{PerPage: 100}
	for {
		labels, resp, err := c.gh.Issues.ListLabels(ctx, repo.Owner, repo.Repo, opts)
		if err != nil {
			return nil, classify(resp, err)
		}
		all = append(all, labels...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// CreateLabel creates a new repository label.
func (c *Client) CreateLabel(ctx context.Context, repo ids.RepoId, label *github.Label) error {
	_, resp, err := c.gh.Issues.CreateLabel(ctx, repo.Owner, repo.Repo, label)
	if err != nil {
		return classify(resp, err)
	}
	return nil
}

// EditLabel updates an existing repository label.
func (c *Client) EditLabel(ctx context.Context, repo ids.RepoId, name string, label *github.Label) error {
	_, resp, err := c.gh.Issues.EditLabel(ctx, repo.Owner, repo.Repo, name, label)
	if err != nil {
		return classify(resp, err)
	}
	return nil
}

// DeleteLabel removes a label definition from a repository.
func (c *Client) DeleteLabel(ctx context.Context, repo ids.RepoId, name string) error {
	resp, err := c.gh.Issues.DeleteLabel(ctx, repo.Owner, repo.Repo, name)
	if err != nil {
		return classify(resp, err)
	}
	return nil
}

// --- Pull requests ---

// GetPullRequest fetches a pull request by number.
func (c *Client) GetPullRequest(ctx context.Context, repo ids.RepoId, number int) (*github.PullRequest, error) {
	pr, resp, err := c.gh.PullRequests.Get(ctx, repo.Owner, repo.Repo, number)
	if err != nil {
		return nil, classify(resp, err)
	}
	return pr, nil
}

// ListReviewComments returns every inline review comment on a pull
// request, auto-paginating. This is the REST analogue of the original's
// GraphQL-backed "fetch PR comments" endpoint (spec.md §4.6); go-github
// has no GraphQL client for it, so — exactly like the teacher's
// ghclient — the REST endpoint is used instead. Review counts and the
// last check-run status, by contrast, go through the GraphQL surfaces
// below (FetchReviewCounts, FetchLastCheckRunStatus) since spec.md §4.6
// names those two specifically as GraphQL endpoints and the AutoMerge
// executor is their only caller.
func (c *Client) ListReviewComments(ctx context.Context, repo ids.RepoId, number int) ([]*github.PullRequestComment, error) {
	var all []*github.PullRequestComment
	opts := &github.PullRequestListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		comments, resp, err := c.gh.PullRequests.ListComments(ctx, repo.Owner, repo.Repo, number, opts)
		if err != nil {
			return nil, classify(resp, err)
		}
		all = append(all, comments...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// IssueComments returns every top-level (non-review) comment on an
// issue or pull request, auto-paginating.
func (c *Client) IssueComments(ctx context.Context, repo ids.RepoId, number int) ([]*github.IssueComment, error) {
	var all []*github.IssueComment
	opts := &github.IssueListCommentsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, repo.Owner, repo.Repo, number, opts)
		if err != nil {
			return nil, classify(resp, err)
		}
		all = append(all, comments...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

const reviewCountsQuery = `query($owner: String!, $repo: String!, $number: Int!) {
	repository(owner: $owner, name: $repo) {
		pullRequest(number: $number) {
			reviews(first: 100, states: [APPROVED, CHANGES_REQUESTED]) {
				nodes { state }
			}
		}
	}
}`

// ReviewCounts summarizes a pull request's review states, fetched via
// GraphQL as spec.md §4.6 calls for ("fetch review counts (GraphQL)").
type ReviewCounts struct {
	Approved         int
	ChangesRequested int
}

// FetchReviewCounts tallies a pull request's APPROVED and
// CHANGES_REQUESTED review states via GraphQL.
func (c *Client) FetchReviewCounts(ctx context.Context, repo ids.RepoId, number int) (*ReviewCounts, error) {
	var resp struct {
		Repository struct {
			PullRequest struct {
				Reviews struct {
					Nodes []struct {
						State string `json:"state"`
					} `json:"nodes"`
				} `json:"reviews"`
			} `json:"pullRequest"`
		} `json:"repository"`
	}
	variables := map[string]any{"owner": repo.Owner, "repo": repo.Repo, "number": number}
	if err := c.DoGraphQL(ctx, reviewCountsQuery, variables, &resp); err != nil {
		return nil, err
	}
	counts := &ReviewCounts{}
	for _, n := range resp.Repository.PullRequest.Reviews.Nodes {
		switch n.State {
		case "APPROVED":
			counts.Approved++
		case "CHANGES_REQUESTED":
			counts.ChangesRequested++
		}
	}
	return counts, nil
}

const lastCheckRunQuery = `query($owner: String!, $repo: String!, $oid: GitObjectID!) {
	repository(owner: $owner, name: $repo) {
		object(oid: $oid) {
			... on Commit {
				checkSuites(last: 1) {
					nodes { status conclusion }
				}
			}
		}
	}
}`

// FetchLastCheckRunStatus fetches the most recent check-suite's status
// and conclusion for a commit SHA via GraphQL.
func (c *Client) FetchLastCheckRunStatus(ctx context.Context, repo ids.RepoId, sha string) (status, conclusion string, err error) {
	var resp struct {
		Repository struct {
			Object struct {
				CheckSuites struct {
					Nodes []struct {
						Status     string `json:"status"`
						Conclusion string `json:"conclusion"`
					} `json:"nodes"`
				} `json:"checkSuites"`
			} `json:"object"`
		} `json:"repository"`
	}
	variables := map[string]any{"owner": repo.Owner, "repo": repo.Repo, "oid": sha}
	if e := c.DoGraphQL(ctx, lastCheckRunQuery, variables, &resp); e != nil {
		return "", "", e
	}
	nodes := resp.Repository.Object.CheckSuites.Nodes
	if len(nodes) == 0 {
		return "", "", nil
	}
	last := nodes[len(nodes)-1]
	return last.Status, last.Conclusion, nil
}

// --- Contributors ---

// ListContributors returns the repository's contributor logins, filtered
// to human users with a non-empty login, per spec.md §4.6 and
// SPEC_FULL.md §C.6.
func (c *Client) ListContributors(ctx context.Context, repo ids.RepoId) ([]string, error) {
	var logins []string
	opts := &github.ListContributorsOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		contributors, resp, err := c.gh.Repositories.ListContributors(ctx, repo.Owner, repo.Repo, opts)
		if err != nil {
			return nil, classify(resp, err)
		}
		for _, u := range contributors {
			if u.GetLogin() == "" {
				continue
			}
			if u.GetType() != "" && u.GetType() != "User" {
				continue
			}
			logins = append(logins, u.GetLogin())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return logins, nil
}

// --- Merge ---

// MergeResult carries the outcome of a successful merge call.
type MergeResult struct {
	Merged bool
	SHA    string
	Message string
}

// MergePullRequest merges a pull request, mapping response codes per
// spec.md §4.6: 200 decodes to MergeResult; 403/404/405/409 become a
// Merge error carrying the response body; 422 joins the message with
// any sub-errors; anything else becomes HttpResponse(code).
func (c *Client) MergePullRequest(ctx context.Context, repo ids.RepoId, number int, commitMessage string) (*MergeResult, error) {
	result, resp, err := c.gh.PullRequests.Merge(ctx, repo.Owner, repo.Repo, number, commitMessage, nil)
	if err == nil {
		return &MergeResult{Merged: result.GetMerged(), SHA: result.GetSHA(), Message: result.GetMessage()}, nil
	}
	if resp == nil || resp.Response == nil {
		return nil, newHTTPClient(err.Error())
	}
	body, _ := io.ReadAll(resp.Body)
	switch resp.StatusCode {
	case http.StatusForbidden, http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusConflict:
		return nil, newMerge(string(body))
	case http.StatusUnprocessableEntity:
		var parsed struct {
			Message string `json:"message"`
			Errors  []struct {
				Message string `json:"message"`
			} `json:"errors"`
		}
		msg := string(body)
		if jsonErr := json.Unmarshal(body, &parsed); jsonErr == nil {
			parts := []string{parsed.Message}
			for _, e := range parsed.Errors {
				parts = append(parts, e.Message)
			}
			msg = strings.Join(parts, "; ")
		}
		return nil, newMerge(msg)
	default:
		return nil, newHTTPResponse(resp.StatusCode)
	}
}

// --- Raw GraphQL ---

// DoGraphQL executes a raw GraphQL query/mutation and decodes its "data"
// field into dst. Grounded on the teacher's graphqlMarkReady: manual
// JSON marshal of {query, variables}, Bearer auth header, and a check
// of the response's top-level "errors" array.
func (c *Client) DoGraphQL(ctx context.Context, query string, variables map[string]any, dst any) error {
	payload := map[string]any{"query": query, "variables": variables}
	body, err := json.Marshal(payload)
	if err != nil {
		return newSerialization(err.Error())
	}

	url := c.graphqlURL()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return newHTTPClient(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return newHTTPClient(err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return newHTTPResponse(resp.StatusCode).(*ClientError).withBody(string(respBody))
	}

	var result struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return newDeserialization(err.Error())
	}
	if len(result.Errors) == 1 {
		return newGraphQL(result.Errors[0].Message)
	}
	if len(result.Errors) > 1 {
		errs := make([]error, 0, len(result.Errors))
		for _, e := range result.Errors {
			errs = append(errs, errors.New(e.Message))
		}
		return newMultiple(errs)
	}
	if dst != nil && len(result.Data) > 0 {
		if err := json.Unmarshal(result.Data, dst); err != nil {
			return newDeserialization(err.Error())
		}
	}
	return nil
}

func (c *Client) graphqlURL() string {
	if c.baseURL != "" && c.baseURL != DefaultBaseURL {
		return strings.TrimSuffix(c.baseURL, "/") + "/" + graphqlPath
	}
	return "https://api.github.com/" + graphqlPath
}

func (e *ClientError) withBody(body string) error {
	e.Message = fmt.Sprintf("http response: %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), body)
	return e
}
