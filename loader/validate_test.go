package loader

import (
	"strings"
	"testing"
)

func TestValidate_ValidContent(t *testing.T) {
	reg, err := LoadSources([]Source{yamlSource("actions.yaml", "actions:\n  - id: nap\n"+threeTiers)}, quiet)
	if err != nil {
		t.Fatalf("LoadSources: %v", err)
	}
	if len(reg.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", reg.Warnings)
	}
}

func TestValidate_MissingTier(t *testing.T) {
	ve := mustFail(t, []Source{yamlSource("actions.yaml", `actions:
  - id: nap
    outcomes:
      1: {}
      2: {}
`)})
	if !hasError(ve, "actions.yaml:2: action 'nap': missing outcome for tier 3") {
		t.Errorf("errors = %v", ve.Errors)
	}
}

func TestValidate_FloorZeroNeedsTierZero(t *testing.T) {
	ve := mustFail(t, []Source{yamlSource("actions.yaml", `actions:
  - id: gamble
    modifiers: {tier_floor: 0}
`+strings.TrimPrefix(threeTiers, "\n"))})
	if !hasError(ve, "missing outcome for tier 0") {
		t.Errorf("errors = %v", ve.Errors)
	}
}

func TestValidate_FloorOutOfRange(t *testing.T) {
	ve := mustFail(t, []Source{yamlSource("actions.yaml", `actions:
  - id: gamble
    modifiers: {tier_floor: 5}
`+strings.TrimPrefix(threeTiers, "\n"))})
	if !hasError(ve, "tier_floor 5 out of range 0-3") {
		t.Errorf("errors = %v", ve.Errors)
	}
}

func TestValidate_BespokeKindWithoutOutcomes(t *testing.T) {
	_, err := LoadSources([]Source{yamlSource("actions.yaml", `actions:
  - id: go
    kind: move
    parameters:
      - {name: target_space, type: space_id, required: true}
`)}, quiet)
	if err != nil {
		t.Fatalf("bespoke kinds may omit outcomes: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown kind",
			body: "    kind: teleport\n",
			want: `unknown action kind "teleport"`,
		},
		{
			name: "unknown param type",
			body: "    parameters:\n      - {name: n, type: number}\n",
			want: `parameter "n" has unsupported type "number"`,
		},
		{
			name: "unknown primary skill",
			body: "    modifiers: {primary_skill: juggling}\n",
			want: `unknown primary skill "juggling"`,
		},
		{
			name: "unknown trait",
			body: "    modifiers: {traits: {luck: 0.5}}\n",
			want: `unknown trait "luck"`,
		},
		{
			name: "unknown skills_min",
			body: "    requires: {skills_min: {juggling: 5}}\n",
			want: `unknown skill "juggling" in skills_min`,
		},
		{
			name: "unknown utility",
			body: "    requires: {utilities: {all_true: [gas]}}\n",
			want: `unknown utility "gas"`,
		},
		{
			name: "demanded capability without provider",
			body: "    requires: {items: {all_provides: [cold_source]}}\n    consumes: {item_durability: {provides: cold_source}}\n",
			want: `requires and consumes capability "cold_source" that no item provides`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := mustFail(t, []Source{yamlSource("actions.yaml", "actions:\n  - id: act\n"+tt.body+strings.TrimPrefix(threeTiers, "\n"))})
			if !hasError(ve, tt.want) {
				t.Errorf("errors = %v, want %q", ve.Errors, tt.want)
			}
		})
	}
}

func TestValidate_UnknownNeedInOutcome(t *testing.T) {
	ve := mustFail(t, []Source{yamlSource("actions.yaml", `actions:
  - id: act
    outcomes:
      1: {deltas: {needs: {boredom: -5}}}
      2: {}
      3: {}
`)})
	if !hasError(ve, `outcome 1: unknown need "boredom"`) {
		t.Errorf("errors = %v", ve.Errors)
	}
}

func TestValidate_UndefinedConnection(t *testing.T) {
	ve := mustFail(t, []Source{yamlSource("spaces.yaml", `spaces:
  - id: room
    connections: [attic]
`)})
	if !hasError(ve, `space "room" connects to undefined space "attic"`) {
		t.Errorf("errors = %v", ve.Errors)
	}
}

func TestValidate_Warnings(t *testing.T) {
	reg, err := LoadSources([]Source{
		yamlSource("items_meta.yaml", "items:\n  - id: kettle\n    provides: [heat_source]\n"),
		yamlSource("actions.yaml", `actions:
  - id: act
    requires:
      items:
        any_provides: [teleporter]
        has_item_ids: [flux_capacitor]
    consumes:
      item_durability: {provides: cold_source}
      inventory_items: [{item_id: noodles, quantity: 1}]
    dynamic:
      formulas:
        luck_bonus: "1.0"
    outcomes:
      1: {grants: {items: [{item_id: trophy}]}}
      2: {}
      3: {}
`),
	}, quiet)
	if err != nil {
		t.Fatalf("warnings must not fail the load: %v", err)
	}

	want := []string{
		`outcome 1 grants unknown item "trophy"`,
		`no item provides capability "teleporter"`,
		`requires unknown item "flux_capacitor"`,
		`consumes durability of capability "cold_source" that no item provides`,
		`consumes unknown item "noodles"`,
		`formula "luck_bonus" is not used by any action kind`,
	}
	if len(reg.Warnings) != len(want) {
		t.Fatalf("got %d warnings, want %d: %v", len(reg.Warnings), len(want), reg.Warnings)
	}
	for i, w := range want {
		if !strings.Contains(reg.Warnings[i], w) {
			t.Errorf("warning %d = %q, want it to contain %q", i, reg.Warnings[i], w)
		}
	}
}

func TestValidationError_Format(t *testing.T) {
	ve := &ValidationError{Errors: []string{"a", "b"}}
	want := "validation failed with 2 error(s):\n  a\n  b"
	if got := ve.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
