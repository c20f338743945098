package loader

import (
	"fmt"
	"strings"

	"github.com/nathoo/roomlife/engine/fault"
	"github.com/nathoo/roomlife/engine/formula"
	"github.com/nathoo/roomlife/engine/rules"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/engine/tier"
	"github.com/nathoo/roomlife/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// FaultKind marks every loader failure as a content fault.
func (e *ValidationError) FaultKind() fault.Kind {
	return fault.KindContent
}

var validKinds = map[types.ActionKind]bool{
	types.KindGeneric:  true,
	types.KindMove:     true,
	types.KindRepair:   true,
	types.KindPurchase: true,
	types.KindSell:     true,
	types.KindDiscard:  true,
	types.KindPickup:   true,
	types.KindDrop:     true,
}

var validParamTypes = map[string]bool{
	types.ParamSpaceID: true,
	types.ParamItemRef: true,
	types.ParamString:  true,
}

// validate checks the decoded registry for referential integrity and
// outcome completeness.
func validate(reg *state.Registry) *ValidationError {
	ve := &ValidationError{}

	for _, id := range sortedKeys(reg.Spaces) {
		sp := reg.Spaces[id]
		for _, c := range sp.Connections {
			if _, ok := reg.Spaces[c]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"space %q connects to undefined space %q", id, c))
			}
		}
	}

	for _, id := range reg.ActionIDs() {
		validateAction(reg.Actions[id], reg, ve)
	}

	return ve
}

func validateAction(spec *types.ActionSpec, reg *state.Registry, ve *ValidationError) {
	errorf := func(format string, args ...any) {
		ve.Errors = append(ve.Errors, fmt.Sprintf("%s: action '%s': ", spec.Source, spec.ID)+fmt.Sprintf(format, args...))
	}
	warnf := func(format string, args ...any) {
		ve.Warnings = append(ve.Warnings, fmt.Sprintf("%s: action '%s': ", spec.Source, spec.ID)+fmt.Sprintf(format, args...))
	}

	if !validKinds[spec.Kind] {
		errorf("unknown action kind %q", spec.Kind)
	}

	// Every tier from the floor up must have an outcome row. Bespoke kinds
	// may omit outcomes entirely.
	if f := spec.Modifiers.TierFloor; f != nil && (*f < 0 || *f > tier.MaxTier) {
		errorf("tier_floor %d out of range 0-%d", *f, tier.MaxTier)
	}
	for t := tier.Floor(spec); t <= tier.MaxTier; t++ {
		if spec.Kind != types.KindGeneric && len(spec.Outcomes) == 0 {
			break
		}
		if _, ok := spec.Outcomes[t]; !ok {
			errorf("missing outcome for tier %d", t)
		}
	}

	for _, p := range spec.Parameters {
		if !validParamTypes[p.Type] {
			errorf("parameter %q has unsupported type %q", p.Name, p.Type)
		}
	}

	mods := spec.Modifiers
	if mods.PrimarySkill != "" && !state.IsSkill(mods.PrimarySkill) {
		errorf("unknown primary skill %q", mods.PrimarySkill)
	}
	for _, s := range sortedKeys(mods.SecondarySkills) {
		if !state.IsSkill(s) {
			errorf("unknown secondary skill %q", s)
		}
	}
	for _, t := range sortedKeys(mods.Traits) {
		if !state.IsTrait(t) {
			errorf("unknown trait %q", t)
		}
	}
	for _, s := range sortedKeys(spec.Requires.SkillsMin) {
		if !state.IsSkill(s) {
			errorf("unknown skill %q in skills_min", s)
		}
	}

	for t := 0; t <= tier.MaxTier; t++ {
		out, ok := spec.Outcomes[t]
		if !ok {
			continue
		}
		for _, need := range sortedKeys(out.Deltas.Needs) {
			if !state.IsNeed(need) {
				errorf("outcome %d: unknown need %q", t, need)
			}
		}
		for _, s := range sortedKeys(out.Deltas.SkillsXP) {
			if !state.IsSkill(s) {
				errorf("outcome %d: unknown skill %q", t, s)
			}
		}
		for _, g := range out.Grants.Items {
			if _, ok := reg.Items[g.ItemID]; !ok {
				warnf("outcome %d grants unknown item %q", t, g.ItemID)
			}
		}
	}

	// Requirements naming things no content provides can never pass.
	items := spec.Requires.Items
	for _, c := range append(append([]string{}, items.AnyProvides...), items.AllProvides...) {
		if len(reg.Providers(c)) == 0 {
			warnf("no item provides capability %q", c)
		}
	}
	for _, it := range items.HasItemIDs {
		if _, ok := reg.Items[it]; !ok {
			warnf("requires unknown item %q", it)
		}
	}
	for _, u := range spec.Requires.Utilities.AllTrue {
		if !isUtility(u) {
			errorf("unknown utility %q", u)
		}
	}
	if cons := spec.Consumes; cons != nil {
		if d := cons.ItemDurability; d != nil && len(reg.Providers(d.Provides)) == 0 {
			if rules.DemandsCapability(spec, d.Provides) {
				errorf("requires and consumes capability %q that no item provides", d.Provides)
			} else {
				warnf("consumes durability of capability %q that no item provides", d.Provides)
			}
		}
		for _, iq := range cons.InventoryItems {
			if _, ok := reg.Items[iq.ItemID]; !ok {
				warnf("consumes unknown item %q", iq.ItemID)
			}
		}
	}

	for _, name := range sortedKeys(spec.Dynamic.Formulas) {
		if _, ok := formula.Defaults[name]; !ok {
			warnf("formula %q is not used by any action kind", name)
		}
	}
}

func isUtility(name string) bool {
	for _, u := range state.UtilityNames {
		if u == name {
			return true
		}
	}
	return false
}
