package actions

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestActionYAMLRoundTrip(t *testing.T) {
	actionsToTest := []Action{
		NewPlatformAction(OpAddLabel, "CR-too_long"),
		NewPlatformAction(OpRemoveLabel, "P-acks_required"),
		NewPlatformAction(OpAddComment, "thanks!"),
		NewAutoMergeAction(NewAutoMergeParameters()),
	}
	for _, a := range actionsToTest {
		out, err := yaml.Marshal(a)
		if err != nil {
			t.Fatalf("marshal %+v: %v", a, err)
		}
		var decoded Action
		if err := yaml.Unmarshal(out, &decoded); err != nil {
			t.Fatalf("unmarshal %s: %v", out, err)
		}
		if decoded.Kind != a.Kind {
			t.Errorf("kind mismatch: got %q want %q", decoded.Kind, a.Kind)
		}
		if a.Kind == KindPlatformAPI && (decoded.PlatformOp != a.PlatformOp || decoded.Arg != a.Arg) {
			t.Errorf("platform action mismatch: got %+v want %+v", decoded, a)
		}
		if a.Kind == KindAutoMerge {
			if decoded.AutoMerge.AcksRequired != a.AutoMerge.AcksRequired ||
				decoded.AutoMerge.MergeLabel != a.AutoMerge.MergeLabel {
				t.Errorf("auto_merge params mismatch: got %+v want %+v", decoded.AutoMerge, a.AutoMerge)
			}
		}
	}
}

func TestActionJSONRoundTrip(t *testing.T) {
	actionsToTest := []Action{
		NewPlatformAction(OpAddLabel, "CR-too_long"),
		NewAutoMergeAction(NewAutoMergeParameters()),
	}
	for _, a := range actionsToTest {
		out, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("marshal %+v: %v", a, err)
		}
		var decoded Action
		if err := json.Unmarshal(out, &decoded); err != nil {
			t.Fatalf("unmarshal %s: %v", out, err)
		}
		if decoded.Kind != a.Kind {
			t.Errorf("kind mismatch: got %q want %q", decoded.Kind, a.Kind)
		}
	}
}

func TestActionYAMLRejectsMultiTag(t *testing.T) {
	var a Action
	err := yaml.Unmarshal([]byte("github: {add_label: x}\nmerge: {perform_merge: true}\n"), &a)
	if err == nil {
		t.Fatal("expected an error for a multi-tag action document")
	}
}
