package constraints

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the constraint to the same single-key tagged
// shape as MarshalYAML, e.g. {"min_progress":40}.
func (ec EventConstraint) MarshalJSON() ([]byte, error) {
	p := ec.Progress
	switch {
	case p.percent.set && p.percent.fails == orderLess:
		return json.Marshal(map[string]float64{"min_progress": p.percent.value})
	case p.percent.set && p.percent.fails == orderGreater:
		return json.Marshal(map[string]float64{"max_progress": p.percent.value})
	case p.count.set && p.count.fails == orderLess:
		return json.Marshal(map[string]float64{"at_least": p.count.value})
	case p.count.set && p.count.fails == orderGreater:
		return json.Marshal(map[string]float64{"at_most": p.count.value})
	case p.total.set && p.total.fails == orderLess:
		return json.Marshal(map[string]float64{"total_at_least": p.total.value})
	case p.total.set && p.total.fails == orderGreater:
		return json.Marshal(map[string]float64{"total_at_most": p.total.value})
	default:
		return json.Marshal(map[string]float64{})
	}
}

// UnmarshalJSON decodes a single-key tagged constraint, e.g.
// {"min_progress":40}.
func (ec *EventConstraint) UnmarshalJSON(data []byte) error {
	var wrapper map[string]float64
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return fmt.Errorf("constraint must be a single-key object of name to number: %w", err)
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
