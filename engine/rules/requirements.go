package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// Each check returns the missing-requirement strings for one family.
// Checks never short-circuit one another.

// MoneyNeeded is what an action demands up front: the larger of its
// requirement and its consumption cost.
func MoneyNeeded(spec *types.ActionSpec) int {
	need := spec.Requires.MoneyPence
	if spec.Consumes != nil && spec.Consumes.MoneyPence > need {
		need = spec.Consumes.MoneyPence
	}
	return need
}

// MissingMoney formats a funds shortfall.
func MissingMoney(need, have int) string {
	return fmt.Sprintf("need %dp (have %dp)", need, have)
}

func checkMoney(s *types.State, spec *types.ActionSpec) []string {
	need := MoneyNeeded(spec)
	if need > 0 && s.Player.MoneyPence < need {
		return []string{MissingMoney(need, s.Player.MoneyPence)}
	}
	return nil
}

func checkUtilities(s *types.State, spec *types.ActionSpec) []string {
	var missing []string
	for _, u := range spec.Requires.Utilities.AllTrue {
		if !s.Utilities[u] {
			missing = append(missing, fmt.Sprintf("utility %s=on", u))
		}
	}
	return missing
}

func checkLocation(s *types.State, spec *types.ActionSpec) []string {
	space, ok := s.Spaces[s.World.Location]
	if !ok {
		return []string{"valid location"}
	}

	var missing []string
	req := spec.Requires.Location
	if len(req.AnySpaceTags) > 0 && !anyIn(req.AnySpaceTags, space.Tags) {
		missing = append(missing, fmt.Sprintf("space tag any_of=%s", formatList(req.AnySpaceTags)))
	}
	if req.RequiresFixture != "" && !anyIn([]string{req.RequiresFixture}, space.Fixtures) {
		missing = append(missing, "fixture "+req.RequiresFixture)
	}
	return missing
}

func checkItems(s *types.State, reg *state.Registry, spec *types.ActionSpec) []string {
	var missing []string
	req := spec.Requires.Items

	if len(req.AnyProvides) > 0 {
		ok := false
		for _, c := range req.AnyProvides {
			if state.BestProvider(s, reg, c) != nil {
				ok = true
				break
			}
		}
		if !ok {
			missing = append(missing, fmt.Sprintf("item provides any_of=%s", formatList(req.AnyProvides)))
		}
	}

	for _, c := range req.AllProvides {
		if state.BestProvider(s, reg, c) == nil {
			missing = append(missing, "item provides "+c)
		}
	}

	for _, id := range req.HasItemIDs {
		if !state.HasItemKind(s, id) {
			missing = append(missing, "need item "+id)
		}
	}
	return missing
}

func checkSkills(s *types.State, spec *types.ActionSpec) []string {
	var missing []string
	for _, skill := range sortedKeys(spec.Requires.SkillsMin) {
		minv := spec.Requires.SkillsMin[skill]
		if state.SkillValue(&s.Player.Actor, skill) < minv {
			missing = append(missing, fmt.Sprintf("skill %s>=%s", skill, strconv.FormatFloat(minv, 'f', -1, 64)))
		}
	}
	return missing
}

func anyIn(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}

func formatList(items []string) string {
	return "[" + strings.Join(items, ", ") + "]"
}

// DemandsCapability reports whether passing validation guarantees that a
// provider of capability is reachable.
func DemandsCapability(spec *types.ActionSpec, capability string) bool {
	req := spec.Requires.Items
	if anyIn([]string{capability}, req.AllProvides) {
		return true
	}
	return len(req.AnyProvides) == 1 && req.AnyProvides[0] == capability
}

// ConsumedItems returns the instance ids spec's inventory consumption would
// remove, picking carried items first in the same order the applicator does.
func ConsumedItems(s *types.State, spec *types.ActionSpec) map[string]bool {
	taken := map[string]bool{}
	if spec.Consumes == nil {
		return taken
	}
	reachable := state.ReachableItems(s)
	for _, iq := range spec.Consumes.InventoryItems {
		want := iq.Quantity
		if want <= 0 {
			want = 1
		}
		for _, it := range reachable {
			if want == 0 {
				break
			}
			if it.ItemID == iq.ItemID && !taken[it.InstanceID] {
				taken[it.InstanceID] = true
				want--
			}
		}
	}
	return taken
}

// CheckConsumes reports a demanded durability provider that the action's
// own inventory consumption would use up. A provider missing outright is
// left to the item requirement check.
func CheckConsumes(s *types.State, reg *state.Registry, spec *types.ActionSpec) []string {
	cons := spec.Consumes
	if cons == nil || cons.ItemDurability == nil || len(cons.InventoryItems) == 0 {
		return nil
	}
	c := cons.ItemDurability.Provides
	if c == "" || !DemandsCapability(spec, c) || state.BestProvider(s, reg, c) == nil {
		return nil
	}
	if state.BestProviderExcept(s, reg, c, ConsumedItems(s, spec)) == nil {
		return []string{fmt.Sprintf("item provides %s (not consumed by this action)", c)}
	}
	return nil
}
