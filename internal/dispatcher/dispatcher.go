// Package dispatcher implements the central reactor: it holds the
// active ruleset and subscription set behind a single-writer/
// multi-reader guard, evaluates incoming events against rules, fans
// out matched actions to the right executor, and re-publishes executor
// outcomes as broadcast events against the subscription set. Grounded
// on original_source/server/src/pub_sub/actor.rs.
package dispatcher

import (
	"sync"

	"github.com/nickmisasi/ghpilotd/internal/actions"
	"github.com/nickmisasi/ghpilotd/internal/events"
	"github.com/nickmisasi/ghpilotd/internal/log"
	"github.com/nickmisasi/ghpilotd/internal/mailbox"
	"github.com/nickmisasi/ghpilotd/internal/rules"
)

// ReplaceRulesError is the typed error of ReplaceRules/ReplaceSubscriptions.
// Go's sync.RWMutex has no poisoned state the way a Rust Mutex does, and
// neither method validates its input, so the swap has no failure path:
// both always return a nil error and never produce this type — see
// DESIGN.md's Open Question resolutions.
type ReplaceRulesError struct{ Reason string }

func (e *ReplaceRulesError) Error() string { return "could not replace rules: " + e.Reason }

// Dispatcher is the engine's central reactor.
type Dispatcher struct {
	mu            sync.RWMutex
	rules         []rules.Rule
	subscriptions []rules.Subscription

	closureExec   mailbox.Executor
	platformExec  mailbox.Executor
	autoMergeExec mailbox.Executor

	log log.Logger
}

// New constructs a Dispatcher wired to its three executor classes.
// autoMergeExec may be nil if the AutoMerge executor itself needs this
// Dispatcher as its broadcast sink; in that case wire it afterward with
// SetAutoMergeExecutor.
func New(closureExec, platformExec, autoMergeExec mailbox.Executor, logger log.Logger) *Dispatcher {
	return &Dispatcher{
		closureExec:   closureExec,
		platformExec:  platformExec,
		autoMergeExec: autoMergeExec,
		log:           logger,
	}
}

// SetAutoMergeExecutor wires the AutoMerge executor after construction,
// breaking the constructor cycle between Dispatcher and
// executors.AutoMergeExecutor (the latter needs a mailbox.BroadcastSink,
// which this Dispatcher itself implements).
func (d *Dispatcher) SetAutoMergeExecutor(exec mailbox.Executor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.autoMergeExec = exec
}

// ReplaceRules atomically swaps the active ruleset, returning the new count.
func (d *Dispatcher) ReplaceRules(newRules []rules.Rule) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules = newRules
	return len(d.rules), nil
}

// ReplaceSubscriptions atomically swaps the active subscription set.
func (d *Dispatcher) ReplaceSubscriptions(newSubs []rules.Subscription) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscriptions = newSubs
	return len(d.subscriptions), nil
}

// Handle evaluates msg against every rule in registration order. For
// each triggered rule, each of its actions is enqueued in list order to
// the appropriate executor. Dispatching is non-blocking: a full mailbox
// is logged and the loop continues — it never aborts on a single
// executor failure (spec.md §4.2).
//
// A rule's fallback actions are not described by spec.md's matching
// algorithm beyond the document shape's "fallback: optional" field; this
// engine resolves that open question by enqueuing fallback actions only
// when every primary action failed to enqueue (mailbox full or the
// action's executor class is unwired) — i.e. fallback is what runs when
// the rule's primary response couldn't be delivered at all, not a
// per-action retry. See DESIGN.md's Open Question resolutions.
func (d *Dispatcher) Handle(msg events.GithubEventMessage) {
	d.mu.RLock()
	activeRules := d.rules
	d.mu.RUnlock()

	matched := 0
	for _, rule := range activeRules {
		if !rule.Matches(msg) {
			continue
		}
		matched++
		anyEnqueued := false
		for _, action := range rule.Actions {
			if d.enqueue(rule.Name, msg, action) {
				anyEnqueued = true
			}
		}
		if !anyEnqueued && len(rule.Actions) > 0 && len(rule.Fallback) > 0 {
			d.log.Warnf("rule %q: all primary actions failed to enqueue, falling back", rule.Name)
			for _, action := range rule.Fallback {
				d.enqueue(rule.Name+" (fallback)", msg, action)
			}
		}
	}
	d.log.Debugf("%d rules matched event %q", matched, msg.Name)
}

// HandleBroadcast evaluates b against every subscription; subscriptions
// whose kind matches b and whose constraints all pass have their
// actions enqueued. The triggering webhook event carried on b.Event is
// threaded into the dispatched mailbox.Task so a subscription's
// PlatformApi actions (e.g. the default add_label/remove_label
// subscriptions) can resolve the IssueId to act on.
func (d *Dispatcher) HandleBroadcast(b events.BroadcastEvent) {
	d.mu.RLock()
	activeSubs := d.subscriptions
	d.mu.RUnlock()

	msg := events.GithubEventMessage{Name: string(b.Kind), Event: b.Event}

	matched := 0
	for _, sub := range activeSubs {
		if !sub.Matches(b) {
			continue
		}
		matched++
		for _, action := range sub.Actions {
			d.enqueue(sub.Name, msg, action)
		}
	}
	d.log.Debugf("%d subscriptions matched broadcast event %q", matched, b.Kind)
}

// enqueue hands one action off to its executor class's mailbox,
// reporting whether the hand-off succeeded. A NullAction is considered
// successfully "enqueued" since it is a deliberate no-op, not a failed
// delivery.
func (d *Dispatcher) enqueue(name string, msg events.GithubEventMessage, action actions.Action) bool {
	task := mailbox.Task{Name: name, EventName: msg.Name, Event: msg.Event, Action: action}

	var exec mailbox.Executor
	switch action.Kind {
	case actions.KindClosure:
		exec = d.closureExec
	case actions.KindPlatformAPI:
		exec = d.platformExec
	case actions.KindAutoMerge:
		exec = d.autoMergeExec
	case actions.KindNull:
		return true
	default:
		d.log.Warnf("rule %q produced action of unknown kind %q; dropping", name, action.Kind)
		return false
	}
	if exec == nil {
		d.log.Warnf("rule %q dispatched to an unwired executor class %q; dropping", name, action.Kind)
		return false
	}
	if !exec.Dispatch(task) {
		d.log.Warnf("dispatch error: executor mailbox full or unreachable for rule %q (action %q); dropping", name, action.Kind)
		return false
	}
	return true
}
