package loader

import (
	"testing"

	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// The content directory shipped with the binary must always load cleanly.
func TestLoad_ShippedContent(t *testing.T) {
	reg, err := Load("../content", quiet)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(reg.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", reg.Warnings)
	}

	if got := len(reg.Actions); got != 26 {
		t.Errorf("expected 26 actions, got %d", got)
	}
	if got := len(reg.Items); got != 12 {
		t.Errorf("expected 12 items, got %d", got)
	}
	for _, id := range []string{state.StartLocation, "hall_001", "kitchen_001", "bath_001"} {
		if _, ok := reg.Spaces[id]; !ok {
			t.Errorf("missing space %q", id)
		}
	}

	kinds := map[types.ActionKind]bool{}
	for _, spec := range reg.Actions {
		kinds[spec.Kind] = true
	}
	for _, k := range []types.ActionKind{
		types.KindMove, types.KindRepair, types.KindPurchase, types.KindSell,
		types.KindDiscard, types.KindPickup, types.KindDrop, types.KindGeneric,
	} {
		if !kinds[k] {
			t.Errorf("no action of kind %q", k)
		}
	}

	if ex := reg.Actions["exercise"]; ex == nil || ex.Source == "" {
		t.Errorf("exercise not loaded from the fitness pack: %+v", ex)
	}
	if _, ok := reg.Items["yoga_mat"]; !ok {
		t.Error("yoga_mat not loaded from the fitness pack")
	}
}
