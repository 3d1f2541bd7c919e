// Package constraints implements subscription-matching constraints over
// BroadcastEvents. Ground-truthed on
// original_source/server/src/events/progress_constraint.rs, including
// its exact (and slightly surprising) comparison-inversion semantics.
package constraints

import (
	"github.com/nickmisasi/ghpilotd/internal/events"
)

// ordering mirrors Rust's std::cmp::Ordering for the three-way
// comparisons used by threshold checks below.
type ordering int

const (
	orderLess ordering = iota
	orderEqual
	orderGreater
)

func cmpFloat(a, b float64) ordering {
	switch {
	case a < b:
		return orderLess
	case a > b:
		return orderGreater
	default:
		return orderEqual
	}
}

func cmpUint(a, b uint64) ordering {
	switch {
	case a < b:
		return orderLess
	case a > b:
		return orderGreater
	default:
		return orderEqual
	}
}

// threshold pairs a comparison value with the "wrong side" ordering that
// fails the check. min_progress/at_least build threshold{value, orderLess}
// (fails only when the actual value compares Less than the threshold);
// max_progress/at_most build threshold{value, orderGreater} (fails only
// when the actual value compares Greater than the threshold).
type threshold struct {
	value float64
	fails ordering
	set   bool
}

func (t threshold) check(actual float64) bool {
	if !t.set {
		return true
	}
	return cmpFloat(actual, t.value) != t.fails
}

func (t threshold) checkUint(actual uint64) bool {
	if !t.set {
		return true
	}
	return cmpUint(actual, uint64(t.value)) != t.fails
}

// ProgressConstraint checks a Progress value against up to three
// independent thresholds: percent (current/total*100), raw count, and
// total. All set thresholds must pass.
type ProgressConstraint struct {
	percent threshold
	count   threshold
	total   threshold
}

// MinProgress requires percent >= p (fails only when percent < p).
func MinProgress(p float64) ProgressConstraint {
	return ProgressConstraint{percent: threshold{value: p, fails: orderLess, set: true}}
}

// MaxProgress requires percent <= p (fails only when percent > p).
func MaxProgress(p float64) ProgressConstraint {
	return ProgressConstraint{percent: threshold{value: p, fails: orderGreater, set: true}}
}

// AtLeast requires count >= c.
func AtLeast(c uint64) ProgressConstraint {
	return ProgressConstraint{count: threshold{value: float64(c), fails: orderLess, set: true}}
}

// AtMost requires count <= c.
func AtMost(c uint64) ProgressConstraint {
	return ProgressConstraint{count: threshold{value: float64(c), fails: orderGreater, set: true}}
}

// TotalAtLeast requires total >= t.
func TotalAtLeast(t uint64) ProgressConstraint {
	return ProgressConstraint{total: threshold{value: float64(t), fails: orderLess, set: true}}
}

// TotalAtMost requires total <= t.
func TotalAtMost(t uint64) ProgressConstraint {
	return ProgressConstraint{total: threshold{value: float64(t), fails: orderGreater, set: true}}
}

// And combines constraint thresholds from multiple builder calls into a
// single ProgressConstraint whose every set threshold must pass.
func And(constraints ...ProgressConstraint) ProgressConstraint {
	var out ProgressConstraint
	for _, c := range constraints {
		if c.percent.set {
			out.percent = c.percent
		}
		if c.count.set {
			out.count = c.count
		}
		if c.total.set {
			out.total = c.total
		}
	}
	return out
}

// WithMinPercent sets (or overrides) this constraint's percent-minimum
// threshold, for building a ProgressConstraint field-by-field (e.g. from
// a deserialized ruleset document).
func (pc ProgressConstraint) WithMinPercent(p float64) ProgressConstraint {
	pc.percent = threshold{value: p, fails: orderLess, set: true}
	return pc
}

// WithMaxPercent sets this constraint's percent-maximum threshold.
func (pc ProgressConstraint) WithMaxPercent(p float64) ProgressConstraint {
	pc.percent = threshold{value: p, fails: orderGreater, set: true}
	return pc
}

// WithMinCount sets this constraint's count-minimum threshold.
func (pc ProgressConstraint) WithMinCount(c uint64) ProgressConstraint {
	pc.count = threshold{value: float64(c), fails: orderLess, set: true}
	return pc
}

// WithMaxCount sets this constraint's count-maximum threshold.
func (pc ProgressConstraint) WithMaxCount(c uint64) ProgressConstraint {
	pc.count = threshold{value: float64(c), fails: orderGreater, set: true}
	return pc
}

// WithMinTotal sets this constraint's total-minimum threshold.
func (pc ProgressConstraint) WithMinTotal(t uint64) ProgressConstraint {
	pc.total = threshold{value: float64(t), fails: orderLess, set: true}
	return pc
}

// WithMaxTotal sets this constraint's total-maximum threshold.
func (pc ProgressConstraint) WithMaxTotal(t uint64) ProgressConstraint {
	pc.total = threshold{value: float64(t), fails: orderGreater, set: true}
	return pc
}

func (pc ProgressConstraint) checkProgress(p events.Progress) bool {
	if pc.percent.set {
		var pct float64
		if p.Total > 0 {
			pct = float64(p.Current) / float64(p.Total) * 100
		}
		if !pc.percent.check(pct) {
			return false
		}
	}
	if pc.count.set && !pc.count.checkUint(p.Current) {
		return false
	}
	if pc.total.set && !pc.total.checkUint(p.Total) {
		return false
	}
	return true
}

// EventConstraint is a single constraint evaluable against a BroadcastEvent.
// Only ReviewsNeeded and AcksNeeded carry a Progress payload; every other
// BroadcastEvent kind fails every EventConstraint (matching the original's
// EventConstraint::matches restriction).
type EventConstraint struct {
	Progress ProgressConstraint
}

// Matches reports whether the constraint is satisfied by the broadcast event.
func (ec EventConstraint) Matches(b events.BroadcastEvent) bool {
	switch b.Kind {
	case events.BroadcastReviewsNeeded, events.BroadcastAcksNeeded:
		return ec.Progress.checkProgress(b.Progress)
	default:
		return false
	}
}

// EventConstraints is an ordered list of EventConstraint; a subscription
// matches only when ALL of them match (logical AND).
type EventConstraints []EventConstraint

// Matches reports whether every constraint in the set matches.
func (cs EventConstraints) Matches(b events.BroadcastEvent) bool {
	for _, c := range cs {
		if !c.Matches(b) {
			return false
		}
	}
	return true
}
