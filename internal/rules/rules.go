// Package rules implements Rule, Subscription, and Ruleset — the
// user-editable matching documents the dispatcher evaluates. Grounded
// on original_source/server/src/{rules,rule_set,load_rules}.rs.
package rules

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nickmisasi/ghpilotd/internal/actions"
	"github.com/nickmisasi/ghpilotd/internal/constraints"
	"github.com/nickmisasi/ghpilotd/internal/events"
	"github.com/nickmisasi/ghpilotd/internal/predicates"
)

// Rule maps an ordered list of predicates (OR'd together) to the
// actions fired when any predicate matches a raw platform event.
type Rule struct {
	Name       string                `yaml:"name" json:"name"`
	Predicates []predicates.Predicate `yaml:"predicates" json:"predicates"`
	Actions    []actions.Action       `yaml:"actions" json:"actions"`
	Fallback   []actions.Action       `yaml:"fallback,omitempty" json:"fallback,omitempty"`
}

// Matches reports whether any of the rule's predicates matches msg.
// Per spec.md §3's invariant, a Rule's predicate list must be non-empty;
// an empty list never matches.
func (r Rule) Matches(msg events.GithubEventMessage) bool {
	for _, p := range r.Predicates {
		if p.Matches(msg) {
			return true
		}
	}
	return false
}

// Subscription maps an ordered list of constraints (AND'd together) to
// the actions fired when a broadcast event of the matching kind
// satisfies every constraint.
type Subscription struct {
	Name        string                       `yaml:"name" json:"name"`
	Event       events.BroadcastKind          `yaml:"event" json:"event"`
	Constraints constraints.EventConstraints `yaml:"constraints" json:"constraints"`
	Actions     []actions.Action             `yaml:"actions" json:"actions"`
}

// Matches reports whether this subscription fires for b: its kind must
// equal b's kind, and every constraint must match.
func (s Subscription) Matches(b events.BroadcastEvent) bool {
	if s.Event != b.Kind {
		return false
	}
	return s.Constraints.Matches(b)
}

// Ruleset is an immutable ordered collection of Rules, loaded wholesale
// from a document and replaced wholesale on reload — never mutated in place.
type Ruleset struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// document is the wire shape of a ruleset file, matching spec.md §6.
type document struct {
	Rules []Rule `yaml:"rules" json:"rules"`
}

// Decode parses a ruleset document. The format (YAML or JSON) is
// selected by the file extension of name, per spec.md §4.5.
func Decode(name string, data []byte) (Ruleset, error) {
	var doc document
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return Ruleset{}, fmt.Errorf("decode ruleset json: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Ruleset{}, fmt.Errorf("decode ruleset yaml: %w", err)
		}
	default:
		return Ruleset{}, fmt.Errorf("unrecognized ruleset file extension %q", ext)
	}
	for _, r := range doc.Rules {
		if len(r.Predicates) == 0 {
			return Ruleset{}, fmt.Errorf("rule %q has no predicates", r.Name)
		}
	}
	return Ruleset{Rules: doc.Rules}, nil
}

// Encode serializes the Ruleset back to the given format ("yaml" or "json").
func (rs Ruleset) Encode(format string) ([]byte, error) {
	doc := document{Rules: rs.Rules}
	switch format {
	case "json":
		return json.MarshalIndent(doc, "", "  ")
	case "yaml", "":
		return yaml.Marshal(doc)
	default:
		return nil, fmt.Errorf("unrecognized format %q", format)
	}
}
