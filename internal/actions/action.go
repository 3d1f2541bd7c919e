// Package actions defines the Action sum type dispatched by rules and
// subscriptions, the ActionResult outcome enum executors return, and the
// AutoMergeParameters record. Grounded on
// original_source/server/src/actions/{essentials,action_result}.rs and
// merge_action/action_params.rs.
package actions

import "regexp"

// Result is the four-valued outcome every executor returns for an action.
type Result int

const (
	Success Result = iota
	ConditionsNotMet
	Failed
	Indeterminate
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case ConditionsNotMet:
		return "conditions_not_met"
	case Failed:
		return "failed"
	case Indeterminate:
		return "indeterminate"
	default:
		return "unknown"
	}
}

// PlatformOp enumerates the PlatformApi action's variants.
type PlatformOp string

const (
	OpAddLabel       PlatformOp = "add_label"
	OpRemoveLabel    PlatformOp = "remove_label"
	OpAddComment     PlatformOp = "add_comment"
	OpLabelConflicts PlatformOp = "label_conflicts"
)

// Kind identifies which action class an Action belongs to.
type Kind string

const (
	KindClosure    Kind = "closure"
	KindPlatformAPI Kind = "platform_api"
	KindAutoMerge  Kind = "auto_merge"
	KindNull       Kind = "null"
)

// ClosureFunc is a caller-supplied function invoked by the Closure
// executor on a blocking worker goroutine.
type ClosureFunc func(eventName string, evt any)

// AutoMergeParameters configures the AutoMerge executor's per-rule
// behavior. Defaults mirror
// original_source/server/src/actions/merge_action/action_params.rs
// exactly: 3 required acks, 1 required review, four default ack
// patterns, merge label "P-merge", checks required, merge disabled.
type AutoMergeParameters struct {
	AcksRequired       uint64
	ReviewsRequired    uint64
	AckPatterns        []*regexp.Regexp
	AllChecksMustPass  bool
	MergeLabel         string
	PerformMerge       bool
}

const (
	DefaultAcksRequired    = 3
	DefaultReviewsRequired = 1
	DefaultMergeLabel      = "P-merge"
)

// DefaultAckPatternStrings are the regexes recognized as an "ack" when no
// explicit patterns are configured.
var DefaultAckPatternStrings = []string{
	`^(ut|t)?ACK$`,
	`^LGTM!?$`,
	`^:?\+1:?$`,
	`^👍$`,
}

// NewAutoMergeParameters returns an AutoMergeParameters populated with the
// defaults above; callers override individual fields as needed.
func NewAutoMergeParameters() AutoMergeParameters {
	patterns := make([]*regexp.Regexp, 0, len(DefaultAckPatternStrings))
	for _, p := range DefaultAckPatternStrings {
		patterns = append(patterns, regexp.MustCompile(p))
	}
	return AutoMergeParameters{
		AcksRequired:      DefaultAcksRequired,
		ReviewsRequired:   DefaultReviewsRequired,
		AckPatterns:       patterns,
		AllChecksMustPass: true,
		MergeLabel:        DefaultMergeLabel,
		PerformMerge:      false,
	}
}

func compilePatterns(exprs []string) ([]*regexp.Regexp, error) {
	patterns := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, re)
	}
	return patterns, nil
}

// IsAck reports whether any line of comment matches any configured ack
// pattern. Matching is line-by-line so a multi-line comment whose last
// line is "👍" still counts.
func (p AutoMergeParameters) IsAck(comment string) bool {
	lines := splitLines(comment)
	for _, line := range lines {
		for _, re := range p.AckPatterns {
			if re.MatchString(line) {
				return true
			}
		}
	}
	return false
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, r := range s {
		if r == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

// Action is a tagged sum over the engine's action classes. Each action
// variant is dispatched to exactly one executor class.
type Action struct {
	Kind Kind

	// Closure carries the closure-action's function; only meaningful when Kind == KindClosure.
	Closure ClosureFunc

	// PlatformOp and Arg configure the PlatformApi action; Arg holds the
	// label name or comment body depending on PlatformOp.
	PlatformOp PlatformOp
	Arg        string

	// AutoMerge carries the AutoMerge action's parameters.
	AutoMerge AutoMergeParameters
}

// NullAction is the zero-effort fallback action, used when a builder is
// given incomplete parameters.
func NullAction() Action {
	return Action{Kind: KindNull}
}

// NewClosureAction builds a Closure action. If fn is nil it returns
// NullAction instead, following the original builder's incomplete-params
// behavior; nothing is logged, since this package has no logger
// dependency.
func NewClosureAction(fn ClosureFunc) Action {
	if fn == nil {
		return NullAction()
	}
	return Action{Kind: KindClosure, Closure: fn}
}

// NewPlatformAction builds a PlatformApi action.
func NewPlatformAction(op PlatformOp, arg string) Action {
	return Action{Kind: KindPlatformAPI, PlatformOp: op, Arg: arg}
}

// NewAutoMergeAction builds an AutoMerge action.
func NewAutoMergeAction(params AutoMergeParameters) Action {
	return Action{Kind: KindAutoMerge, AutoMerge: params}
}
