package rules

import (
	"github.com/nickmisasi/ghpilotd/internal/actions"
	"github.com/nickmisasi/ghpilotd/internal/constraints"
	"github.com/nickmisasi/ghpilotd/internal/events"
)

// DefaultSubscriptions returns the engine's four built-in subscriptions,
// always active regardless of the ruleset file's contents. Grounded on
// original_source/server/src/load_rules.rs::load_subscriptions.
//
// The original names both threshold-reached subscriptions "Acks
// achieved" (an apparent copy-paste slip); this port corrects the
// reviews one to "Reviews achieved" since nothing in the distilled spec
// asks for a misleading operator-facing label to be preserved. See
// DESIGN.md's Open Question resolutions.
func DefaultSubscriptions() []Subscription {
	return []Subscription{
		{
			Name:  "Ask for ACKs",
			Event: events.BroadcastAcksNeeded,
			Constraints: constraints.EventConstraints{
				{Progress: constraints.MaxProgress(99)},
			},
			Actions: []actions.Action{
				actions.NewPlatformAction(actions.OpAddLabel, "P-acks_required"),
			},
		},
		{
			Name:  "Ask for reviews",
			Event: events.BroadcastReviewsNeeded,
			Constraints: constraints.EventConstraints{
				{Progress: constraints.MaxProgress(99)},
			},
			Actions: []actions.Action{
				actions.NewPlatformAction(actions.OpAddLabel, "P-reviews_required"),
			},
		},
		{
			Name:    "Reviews achieved",
			Event:   events.BroadcastReviewsThresholdReached,
			Actions: []actions.Action{
				actions.NewPlatformAction(actions.OpRemoveLabel, "P-reviews_required"),
			},
		},
		{
			Name:    "Acks achieved",
			Event:   events.BroadcastAcksThresholdReached,
			Actions: []actions.Action{
				actions.NewPlatformAction(actions.OpRemoveLabel, "P-acks_required"),
			},
		},
	}
}
