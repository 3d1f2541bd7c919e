package constraints

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes a single-key tagged constraint, e.g.
// `min_progress: 40`, `at_most: 10`, `total_at_least: 10`.
func (ec *EventConstraint) UnmarshalYAML(node *yaml.Node) error {
	var wrapper map[string]float64
	if err := node.Decode(&wrapper); err != nil {
		return fmt.Errorf("constraint must be a single-key mapping of name to number: %w", err)
	}
	if len(wrapper) != 1 {
		return fmt.Errorf("constraint must have exactly one tag, got %d", len(wrapper))
	}
	for tag, value := range wrapper {
		switch tag {
		case "min_progress":
			ec.Progress = ec.Progress.WithMinPercent(value)
		case "max_progress":
			ec.Progress = ec.Progress.WithMaxPercent(value)
		case "at_least":
			ec.Progress = ec.Progress.WithMinCount(uint64(value))
		case "at_most":
			ec.Progress = ec.Progress.WithMaxCount(uint64(value))
		case "total_at_least":
			ec.Progress = ec.Progress.WithMinTotal(uint64(value))
		case "total_at_most":
			ec.Progress = ec.Progress.WithMaxTotal(uint64(value))
		default:
			return fmt.Errorf("unknown constraint tag %q", tag)
		}
	}
	return nil
}

// MarshalYAML encodes the constraint back to its single-key tagged shape.
// Only the first set threshold is emitted; constraints built with more
// than one threshold set round-trip imprecisely, matching the document
// grammar's one-tag-per-entry shape (compose multiple entries instead).
func (ec EventConstraint) MarshalYAML() (any, error) {
	p := ec.Progress
	switch {
	case p.percent.set && p.percent.fails == orderLess:
		return map[string]float64{"min_progress": p.percent.value}, nil
	case p.percent.set && p.percent.fails == orderGreater:
		return map[string]float64{"max_progress": p.percent.value}, nil
	case p.count.set && p.count.fails == orderLess:
		return map[string]float64{"at_least": p.count.value}, nil
	case p.count.set && p.count.fails == orderGreater:
		return map[string]float64{"at_most": p.count.value}, nil
	case p.total.set && p.total.fails == orderLess:
		return map[string]float64{"total_at_least": p.total.value}, nil
	case p.total.set && p.total.fails == orderGreater:
		return map[string]float64{"total_at_most": p.total.value}, nil
	default:
		return map[string]float64{}, nil
	}
}
