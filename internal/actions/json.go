package actions

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the action to the same tagged-sum shape as
// MarshalYAML, e.g. {"github":{"add_label":"CR-too_long"}} or
// {"merge":{"acks_required":1,"perform_merge":true}}. Required because
// Action's Closure field (a func value) cannot be marshaled by the
// default struct encoder at all.
func (a Action) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case KindPlatformAPI:
		return json.Marshal(map[string]map[string]string{"github": {string(a.PlatformOp): a.Arg}})
	case KindAutoMerge:
		patterns := make([]string, 0, len(a.AutoMerge.AckPatterns))
		for _, re := range a.AutoMerge.AckPatterns {
			patterns = append(patterns, re.String())
		}
		return json.Marshal(map[string]mergeJSON{"merge": {
			AcksRequired:      &a.AutoMerge.AcksRequired,
			ReviewsRequired:   &a.AutoMerge.ReviewsRequired,
			AckPatterns:       patterns,
			AllChecksMustPass: &a.AutoMerge.AllChecksMustPass,
			MergeLabel:        &a.AutoMerge.MergeLabel,
			PerformMerge:      &a.AutoMerge.PerformMerge,
		}})
	default:
		return nil, fmt.Errorf("action kind %q has no document form", a.Kind)
	}
}

type mergeJSON struct {
	AcksRequired      *uint64  `json:"acks_required,omitempty"`
	ReviewsRequired   *uint64  `json:"reviews_required,omitempty"`
	AckPatterns       []string `json:"ack_patterns,omitempty"`
	AllChecksMustPass *bool    `json:"all_checks_must_pass,omitempty"`
	MergeLabel        *string  `json:"merge_label,omitempty"`
	PerformMerge      *bool    `json:"perform_merge,omitempty"`
}

// UnmarshalJSON decodes an action from its tagged-sum document shape.
func (a *Action) UnmarshalJSON(data []byte) error {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("action must be a single-key object: %w", err)
	}
	if len(wrapper) != 1 {
		return fmt.Errorf("action must have exactly one tag, got %d", len(wrapper))
	}
	for tag, body := range wrapper {
		switch tag {
		case "github":
			return a.decodeGithubJSON(body)
		case "merge":
			return a.decodeMergeJSON(body)
		default:
			return fmt.Errorf("unknown action tag %q", tag)
		}
	}
	return nil
}

func (a *Action) decodeGithubJSON(body json.RawMessage) error {
	var m map[string]string
	if err := json.Unmarshal(body, &m); err != nil {
		return fmt.Errorf("github action body: %w", err)
	}
	for op, arg := range m {
		a.Kind = KindPlatformAPI
		a.PlatformOp = PlatformOp(op)
		a.Arg = arg
		return nil
	}
	return fmt.Errorf("github action body had no op")
}

func (a *Action) decodeMergeJSON(body json.RawMessage) error {
	var y mergeJSON
	if err := json.Unmarshal(body, &y); err != nil {
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
