package predicates

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the predicate to the same tagged-sum shape as
// MarshalYAML, e.g. {"pull_request":"opened"} or
// {"pull_request":{"larger_than":"large"}}.
func (p Predicate) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case KindPullRequest:
		if p.Param == "" {
			return json.Marshal(map[string]string{"pull_request": string(p.PullRequestOp)})
		}
		return json.Marshal(map[string]map[string]string{
			"pull_request": {string(p.PullRequestOp): p.Param},
		})
	case KindPullRequestComment:
		if p.CommentUser == "" {
			return json.Marshal(map[string]string{"pull_request_comment": string(p.PullRequestCommentOp)})
		}
		return json.Marshal(map[string]map[string]string{
			"pull_request_comment": {string(p.PullRequestCommentOp): p.CommentUser},
		})
	case KindStatusCheck:
		return json.Marshal(map[string]string{"status_check": string(p.StatusCheckOp)})
	default:
		return nil, fmt.Errorf("unknown predicate kind %q", p.Kind)
	}
}

// UnmarshalJSON decodes a predicate from its tagged-sum document shape.
func (p *Predicate) UnmarshalJSON(data []byte) error {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("predicate must be a single-key object: %w", err)
	}
	if len(wrapper) != 1 {
		return fmt.Errorf("predicate must have exactly one tag, got %d", len(wrapper))
	}
	for tag, body := range wrapper {
		switch tag {
		case "pull_request":
			return p.decodePullRequestJSON(body)
		case "pull_request_comment":
			return p.decodePullRequestCommentJSON(body)
		case "status_check":
			return p.decodeStatusCheckJSON(body)
		default:
			return fmt.Errorf("unknown predicate tag %q", tag)
		}
	}
	return nil
}

func (p *Predicate) decodePullRequestJSON(body json.RawMessage) error {
	p.Kind = KindPullRequest
	var scalar string
	if err := json.Unmarshal(body, &scalar); err == nil {
		p.PullRequestOp = PullRequestOp(scalar)
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(body, &m); err != nil {
		return fmt.Errorf("pull_request predicate body: %w", err)
	}
	for op, arg := range m {
		p.PullRequestOp = PullRequestOp(op)
		p.Param = arg
		return nil
	}
	return fmt.Errorf("pull_request predicate body had no op")
}

func (p *Predicate) decodePullRequestCommentJSON(body json.RawMessage) error {
	p.Kind = KindPullRequestComment
	var scalar string
	if err := json.Unmarshal(body, &scalar); err == nil {
		p.PullRequestCommentOp = PullRequestCommentOp(scalar)
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(body, &m); err != nil {
		return fmt.Errorf("pull_request_comment predicate body: %w", err)
	}
	for op, arg := range m {
		p.PullRequestCommentOp = PullRequestCommentOp(op)
		p.CommentUser = arg
		return nil
	}
	return fmt.Errorf("pull_request_comment predicate body had no op")
}

func (p *Predicate) decodeStatusCheckJSON(body json.RawMessage) error {
	p.Kind = KindStatusCheck
	var scalar string
	if err := json.Unmarshal(body, &scalar); err != nil {
		return fmt.Errorf("status_check predicate body: %w", err)
	}
	p.StatusCheckOp = StatusCheckOp(scalar)
	return nil
}
