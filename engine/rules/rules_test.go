package rules

import (
	"strings"
	"testing"

	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

func testWorld(t *testing.T) (*types.State, *state.Registry) {
	t.Helper()
	reg, err := state.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	reg.Items = map[string]types.ItemMeta{
		"kettle":    {ID: "kettle", Provides: []string{"heat_source"}},
		"bed_basic": {ID: "bed_basic", Provides: []string{"bed"}},
		"desk_worn": {ID: "desk_worn", Provides: []string{"workspace"}},
	}
	s, err := state.NewState(reg, 1)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return s, reg
}

func TestValidate_EmptyRequirementsPass(t *testing.T) {
	s, reg := testWorld(t)
	v := Validate(s, reg, &types.ActionSpec{ID: "idle"}, nil)
	if !v.Valid || len(v.Missing) != 0 || v.Reason != "" {
		t.Errorf("validation = %+v", v)
	}
}

func TestValidate_MoneyShortfall(t *testing.T) {
	s, reg := testWorld(t)
	s.Player.MoneyPence = 1999
	spec := &types.ActionSpec{ID: "pay_rent", Requires: types.Requirements{MoneyPence: 2000}}

	v := Validate(s, reg, spec, nil)
	if v.Valid {
		t.Fatal("expected invalid")
	}
	if v.Reason != ReasonMissing {
		t.Errorf("reason = %q", v.Reason)
	}
	if len(v.Missing) != 1 || v.Missing[0] != "need 2000p (have 1999p)" {
		t.Errorf("missing = %v", v.Missing)
	}

	s.Player.MoneyPence = 2000
	if !Validate(s, reg, spec, nil).Valid {
		t.Error("exact funds should pass")
	}
}

func TestValidate_ConsumedMoneyMustBeAffordable(t *testing.T) {
	s, reg := testWorld(t)
	s.Player.MoneyPence = 300
	spec := &types.ActionSpec{ID: "takeaway", Consumes: &types.Consumes{MoneyPence: 500}}

	v := Validate(s, reg, spec, nil)
	if v.Valid || v.Missing[0] != "need 500p (have 300p)" {
		t.Errorf("validation = %+v", v)
	}
}

func TestValidate_Families(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(s *types.State)
		spec    types.ActionSpec
		missing []string
	}{
		{
			name: "utility off",
			setup: func(s *types.State) {
				s.Utilities["power"] = false
			},
			spec:    types.ActionSpec{Requires: types.Requirements{Utilities: types.UtilityRequirement{AllTrue: []string{"power", "heat"}}}},
			missing: []string{"utility power=on"},
		},
		{
			name:    "space tag",
			spec:    types.ActionSpec{Requires: types.Requirements{Location: types.LocationRequirement{AnySpaceTags: []string{"kitchen", "bathroom"}}}},
			missing: []string{"space tag any_of=[kitchen, bathroom]"},
		},
		{
			name:    "space tag satisfied",
			spec:    types.ActionSpec{Requires: types.Requirements{Location: types.LocationRequirement{AnySpaceTags: []string{"kitchen", "sleep_area"}}}},
			missing: nil,
		},
		{
			name:    "fixture",
			spec:    types.ActionSpec{Requires: types.Requirements{Location: types.LocationRequirement{RequiresFixture: "shower"}}},
			missing: []string{"fixture shower"},
		},
		{
			name: "invalid location",
			setup: func(s *types.State) {
				s.World.Location = "void"
			},
			spec:    types.ActionSpec{},
			missing: []string{"valid location"},
		},
		{
			name:    "any provides",
			spec:    types.ActionSpec{Requires: types.Requirements{Items: types.ItemRequirement{AnyProvides: []string{"heat_source", "cooktop"}}}},
			missing: []string{"item provides any_of=[heat_source, cooktop]"},
		},
		{
			name:    "all provides",
			spec:    types.ActionSpec{Requires: types.Requirements{Items: types.ItemRequirement{AllProvides: []string{"bed", "heat_source", "workspace"}}}},
			missing: []string{"item provides heat_source"},
		},
		{
			name:    "item kind",
			spec:    types.ActionSpec{Requires: types.Requirements{Items: types.ItemRequirement{HasItemIDs: []string{"kettle", "bed_basic"}}}},
			missing: []string{"need item kettle"},
		},
		{
			name:    "skill minimum",
			spec:    types.ActionSpec{Requires: types.Requirements{SkillsMin: map[string]float64{"cooking": 12.5, "focus": 0}}},
			missing: []string{"skill cooking>=12.5"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, reg := testWorld(t)
			if tt.setup != nil {
				tt.setup(s)
			}
			spec := tt.spec
			spec.ID = "act"
			v := Validate(s, reg, &spec, nil)
			if v.Valid != (len(tt.missing) == 0) {
				t.Fatalf("valid = %v, missing = %v", v.Valid, v.Missing)
			}
			if strings.Join(v.Missing, "|") != strings.Join(tt.missing, "|") {
				t.Errorf("missing = %v, want %v", v.Missing, tt.missing)
			}
		})
	}
}

func TestValidate_AccumulatesAcrossFamilies(t *testing.T) {
	s, reg := testWorld(t)
	s.Player.MoneyPence = 0
	spec := &types.ActionSpec{
		ID: "shower",
		Requires: types.Requirements{
			MoneyPence: 10,
			Location:   types.LocationRequirement{RequiresFixture: "shower"},
			SkillsMin:  map[string]float64{"focus": 5},
		},
		Parameters: []types.ParamSpec{{Name: "note", Type: types.ParamString, Required: true}},
	}

	v := Validate(s, reg, spec, map[string]any{})
	want := []string{"need 10p (have 0p)", "fixture shower", "skill focus>=5", "missing param: note"}
	if strings.Join(v.Missing, "|") != strings.Join(want, "|") {
		t.Errorf("missing = %v, want %v", v.Missing, want)
	}
}

func TestValidate_ReachableIncludesInventory(t *testing.T) {
	s, reg := testWorld(t)
	spec := &types.ActionSpec{ID: "brew", Requires: types.Requirements{Items: types.ItemRequirement{AllProvides: []string{"heat_source"}}}}

	if Validate(s, reg, spec, nil).Valid {
		t.Fatal("kettle is in the kitchen")
	}
	state.NewItem(s, reg, "kettle", types.Inventory)
	if !Validate(s, reg, spec, nil).Valid {
		t.Error("carried kettle should satisfy the requirement")
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	s, reg := testWorld(t)
	before := len(s.EventLog)
	money := s.Player.MoneyPence
	Validate(s, reg, &types.ActionSpec{ID: "x", Requires: types.Requirements{MoneyPence: 1}}, nil)
	if len(s.EventLog) != before || s.Player.MoneyPence != money {
		t.Error("Validate mutated state")
	}
}

func TestFail(t *testing.T) {
	f := Fail("item_not_found")
	if f.Valid || len(f.Missing) != 1 || f.Missing[0] != "item_not_found" {
		t.Errorf("Fail = %+v", f)
	}
	f = Fail(ReasonMissing, "a", "b")
	if f.Reason != ReasonMissing || strings.Join(f.Missing, ",") != "a,b" {
		t.Errorf("Fail = %+v", f)
	}
}

// brewAndKeep needs a heat source, burns one kettle as an ingredient, and
// wears a heat source down.
func brewAndKeep() *types.ActionSpec {
	return &types.ActionSpec{
		ID:       "brew_and_keep",
		Requires: types.Requirements{Items: types.ItemRequirement{AllProvides: []string{"heat_source"}}},
		Consumes: &types.Consumes{
			MoneyPence:     100,
			InventoryItems: []types.ItemQuantity{{ItemID: "kettle", Quantity: 1}},
			ItemDurability: &types.DurabilityCost{Provides: "heat_source", Amount: 5},
		},
	}
}

func TestValidate_ConsumingTheOnlyProvider(t *testing.T) {
	s, reg := testWorld(t)
	state.NewItem(s, reg, "kettle", types.Inventory)
	spec := brewAndKeep()

	v := Validate(s, reg, spec, nil)
	if v.Valid {
		t.Fatal("the only kettle would be consumed before it can be worn")
	}
	if want := "item provides heat_source (not consumed by this action)"; strings.Join(v.Missing, "|") != want {
		t.Errorf("missing = %v, want [%s]", v.Missing, want)
	}

	state.NewItem(s, reg, "kettle", types.Inventory)
	if v := Validate(s, reg, spec, nil); !v.Valid {
		t.Errorf("a second kettle should remain: %+v", v)
	}
}

func TestConsumedItems_CarriedFirst(t *testing.T) {
	s, reg := testWorld(t)
	s.World.Location = "kitchen_001"
	carried := state.NewItem(s, reg, "kettle", types.Inventory)

	taken := ConsumedItems(s, brewAndKeep())
	if len(taken) != 1 || !taken[carried.InstanceID] {
		t.Errorf("taken = %v, want only the carried kettle %s", taken, carried.InstanceID)
	}
}

func TestDemandsCapability(t *testing.T) {
	tests := []struct {
		req  types.ItemRequirement
		want bool
	}{
		{types.ItemRequirement{AllProvides: []string{"heat_source"}}, true},
		{types.ItemRequirement{AnyProvides: []string{"heat_source"}}, true},
		{types.ItemRequirement{AnyProvides: []string{"heat_source", "cooktop"}}, false},
		{types.ItemRequirement{}, false},
	}
	for _, tt := range tests {
		spec := &types.ActionSpec{Requires: types.Requirements{Items: tt.req}}
		if got := DemandsCapability(spec, "heat_source"); got != tt.want {
			t.Errorf("DemandsCapability(%+v) = %v, want %v", tt.req, got, tt.want)
		}
	}
}
