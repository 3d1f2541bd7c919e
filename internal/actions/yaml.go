package actions

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes an action from its tagged-sum document shape,
// e.g. `github: { add_label: "CR-too_long" }` or
// `merge: { acks_required: 1, perform_merge: true, merge_label: "P-merge" }`.
// Closure and NullAction have no document shape — they only arise from
// programmatic rule construction in Go code.
func (a *Action) UnmarshalYAML(node *yaml.Node) error {
	var wrapper map[string]yaml.Node
	if err := node.Decode(&wrapper); err != nil {
		return fmt.Errorf("action must be a single-key mapping: %w", err)
	}
	if len(wrapper) != 1 {
		return fmt.Errorf("action must have exactly one tag, got %d", len(wrapper))
	}
	for tag, body := range wrapper {
		switch tag {
		case "github":
			return a.decodeGithub(&body)
		case "merge":
			return a.decodeMerge(&body)
		default:
			return fmt.Errorf("unknown action tag %q", tag)
		}
	}
	return nil
}

func (a *Action) decodeGithub(body *yaml.Node) error {
	var m map[string]yaml.Node
	if err := body.Decode(&m); err != nil {
		return fmt.Errorf("github action body: %w", err)
	}
	for op, arg := range m {
		a.Kind = KindPlatformAPI
		a.PlatformOp = PlatformOp(op)
		a.Arg = arg.Value
		return nil
	}
	return fmt.Errorf("github action body had no op")
}

type mergeYAML struct {
	AcksRequired      *uint64  `yaml:"acks_required"`
	ReviewsRequired   *uint64  `yaml:"reviews_required"`
	AckPatterns       []string `yaml:"ack_patterns"`
	AllChecksMustPass *bool    `yaml:"all_checks_must_pass"`
	MergeLabel        *string  `yaml:"merge_label"`
	PerformMerge      *bool    `yaml:"perform_merge"`
}

func (a *Action) decodeMerge(body *yaml.Node) error {
	var y mergeYAML
	if err := body.Decode(&y); err != nil {
		return fmt.Errorf("merge action body: %w", err)
	}
	params := NewAutoMergeParameters()
	if y.AcksRequired != nil {
		params.AcksRequired = *y.AcksRequired
	}
	if y.ReviewsRequired != nil {
		params.ReviewsRequired = *y.ReviewsRequired
	}
	if len(y.AckPatterns) > 0 {
		patterns, err := compilePatterns(y.AckPatterns)
		if err != nil {
			return err
		}
		params.AckPatterns = patterns
	}
	if y.AllChecksMustPass != nil {
		params.AllChecksMustPass = *y.AllChecksMustPass
	}
	if y.MergeLabel != nil {
		params.MergeLabel = *y.MergeLabel
	}
	if y.PerformMerge != nil {
		params.PerformMerge = *y.PerformMerge
	}
	a.Kind = KindAutoMerge
	a.AutoMerge = params
	return nil
}

// MarshalYAML encodes the action back to its tagged-sum document shape.
func (a Action) MarshalYAML() (any, error) {
	switch a.Kind {
	case KindPlatformAPI:
		return map[string]map[string]string{"github": {string(a.PlatformOp): a.Arg}}, nil
	case KindAutoMerge:
		patterns := make([]string, 0, len(a.AutoMerge.AckPatterns))
		for _, re := range a.AutoMerge.AckPatterns {
			patterns = append(patterns, re.String())
		}
		return map[string]mergeYAML{"merge": {
			AcksRequired:      &a.AutoMerge.AcksRequired,
			ReviewsRequired:   &a.AutoMerge.ReviewsRequired,
			AckPatterns:       patterns,
			AllChecksMustPass: &a.AutoMerge.AllChecksMustPass,
			MergeLabel:        &a.AutoMerge.MergeLabel,
			PerformMerge:      &a.AutoMerge.PerformMerge,
		}}, nil
	default:
		return nil, fmt.Errorf("action kind %q has no document form", a.Kind)
	}
}
