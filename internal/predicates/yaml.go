package predicates

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a predicate from its tagged-sum document shape,
// e.g. `pull_request: opened`, `pull_request: { size_greater_than: large }`,
// `pull_request_comment: added`, `status_check: check_suite_success`.
func (p *Predicate) UnmarshalYAML(node *yaml.Node) error {
	var wrapper map[string]yaml.Node
	if err := node.Decode(&wrapper); err != nil {
		return fmt.Errorf("predicate must be a single-key mapping: %w", err)
	}
	if len(wrapper) != 1 {
		return fmt.Errorf("predicate must have exactly one tag, got %d", len(wrapper))
	}
	for tag, body := range wrapper {
		switch tag {
		case "pull_request":
			return p.decodePullRequest(&body)
		case "pull_request_comment":
			return p.decodePullRequestComment(&body)
		case "status_check":
			return p.decodeStatusCheck(&body)
		default:
			return fmt.Errorf("unknown predicate tag %q", tag)
		}
	}
	return nil
}

func (p *Predicate) decodePullRequest(body *yaml.Node) error {
	p.Kind = KindPullRequest
	if body.Kind == yaml.ScalarNode {
		p.PullRequestOp = PullRequestOp(body.Value)
		return nil
	}
	var m map[string]yaml.Node
	if err := body.Decode(&m); err != nil {
		return fmt.Errorf("pull_request predicate body: %w", err)
	}
	for op, arg := range m {
		p.PullRequestOp = PullRequestOp(op)
		p.Param = arg.Value
		return nil
	}
	return fmt.Errorf("pull_request predicate body had no op")
}

func (p *Predicate) decodePullRequestComment(body *yaml.Node) error {
	p.Kind = KindPullRequestComment
	if body.Kind == yaml.ScalarNode {
		p.PullRequestCommentOp = PullRequestCommentOp(body.Value)
		return nil
	}
	var m map[string]yaml.Node
	if err := body.Decode(&m); err != nil {
		return fmt.Errorf("pull_request_comment predicate body: %w", err)
	}
	for op, arg := range m {
		p.PullRequestCommentOp = PullRequestCommentOp(op)
		p.CommentUser = arg.Value
		return nil
	}
	return fmt.Errorf("pull_request_comment predicate body had no op")
}

func (p *Predicate) decodeStatusCheck(body *yaml.Node) error {
	p.Kind = KindStatusCheck
	p.StatusCheckOp = StatusCheckOp(body.Value)
	return nil
}

// MarshalYAML encodes the predicate back to its tagged-sum document shape.
func (p Predicate) MarshalYAML() (any, error) {
	switch p.Kind {
	case KindPullRequest:
		if p.Param == "" {
			return map[string]string{"pull_request": string(p.PullRequestOp)}, nil
		}
		return map[string]map[string]string{
			"pull_request": {string(p.PullRequestOp): p.Param},
		}, nil
	case KindPullRequestComment:
		if p.CommentUser == "" {
			return map[string]string{"pull_request_comment": string(p.PullRequestCommentOp)}, nil
		}
		return map[string]map[string]string{
			"pull_request_comment": {string(p.PullRequestCommentOp): p.CommentUser},
		}, nil
	case KindStatusCheck:
		return map[string]string{"status_check": string(p.StatusCheckOp)}, nil
	default:
		return nil, fmt.Errorf("unknown predicate kind %q", p.Kind)
	}
}
