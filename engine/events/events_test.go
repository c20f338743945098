package events

import (
	"fmt"
	"testing"

	"github.com/nathoo/roomlife/types"
)

func TestLog_AppendsWithParams(t *testing.T) {
	s := &types.State{}
	ev := Log(s, "shopping.purchase", map[string]any{"item_id": "kettle", "cost_pence": 1200})

	if len(s.EventLog) != 1 {
		t.Fatalf("expected 1 event, got %d", len(s.EventLog))
	}
	if ev.ID != "shopping.purchase" {
		t.Errorf("ID = %q", ev.ID)
	}
	if s.EventLog[0].Params["cost_pence"] != 1200 {
		t.Errorf("cost_pence = %v", s.EventLog[0].Params["cost_pence"])
	}
}

func TestLog_NilParamsBecomeEmptyMap(t *testing.T) {
	s := &types.State{}
	Log(s, "action.unknown", nil)
	if s.EventLog[0].Params == nil {
		t.Fatal("params should never be nil")
	}
}

func TestLog_EvictsOldestBeyondCap(t *testing.T) {
	s := &types.State{EventLogCap: 3}
	for i := 0; i < 5; i++ {
		Log(s, fmt.Sprintf("e%d", i), nil)
	}
	if len(s.EventLog) != 3 {
		t.Fatalf("expected 3 events, got %d", len(s.EventLog))
	}
	if s.EventLog[0].ID != "e2" || s.EventLog[2].ID != "e4" {
		t.Errorf("wrong window: %s..%s", s.EventLog[0].ID, s.EventLog[2].ID)
	}
}

func TestLog_DefaultCap(t *testing.T) {
	s := &types.State{}
	for i := 0; i < DefaultCap+25; i++ {
		Log(s, "tick", nil)
	}
	if len(s.EventLog) != DefaultCap {
		t.Errorf("expected %d events, got %d", DefaultCap, len(s.EventLog))
	}
}

func TestRecent(t *testing.T) {
	s := &types.State{}
	for i := 0; i < 4; i++ {
		Log(s, fmt.Sprintf("e%d", i), nil)
	}

	got := Recent(s, 2)
	if len(got) != 2 || got[0].ID != "e2" || got[1].ID != "e3" {
		t.Errorf("Recent(2) = %v", got)
	}
	if len(Recent(s, 10)) != 4 {
		t.Error("Recent beyond length should return everything")
	}
	if Recent(s, 0) != nil {
		t.Error("Recent(0) should be nil")
	}
}

func TestSince_AfterEviction(t *testing.T) {
	s := &types.State{EventLogCap: 3}
	for i := 0; i < 3; i++ {
		Log(s, fmt.Sprintf("old%d", i), nil)
	}
	seq := s.EventSeq
	Log(s, "new0", nil)
	Log(s, "new1", nil)

	got := Since(s, seq)
	if len(got) != 2 || got[0].ID != "new0" || got[1].ID != "new1" {
		t.Errorf("Since = %v, want [new0 new1]", got)
	}
	if s.EventSeq != 5 {
		t.Errorf("EventSeq = %d, want 5", s.EventSeq)
	}
	if Since(s, s.EventSeq) != nil {
		t.Error("nothing logged since the current sequence")
	}
}

func TestSince_MoreThanTheLogHolds(t *testing.T) {
	s := &types.State{EventLogCap: 2}
	seq := s.EventSeq
	for i := 0; i < 5; i++ {
		Log(s, fmt.Sprintf("e%d", i), nil)
	}
	got := Since(s, seq)
	if len(got) != 2 || got[0].ID != "e3" {
		t.Errorf("Since = %v, want the two newest", got)
	}
}
