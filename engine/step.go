package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/roomlife/engine/events"
	"github.com/nathoo/roomlife/engine/parser"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// verbKinds maps the bespoke verbs to the action kind that serves them.
var verbKinds = map[string]types.ActionKind{
	parser.VerbMove:     types.KindMove,
	parser.VerbRepair:   types.KindRepair,
	parser.VerbPurchase: types.KindPurchase,
	parser.VerbSell:     types.KindSell,
	parser.VerbDiscard:  types.KindDiscard,
	parser.VerbPickup:   types.KindPickup,
	parser.VerbDrop:     types.KindDrop,
}

// Step processes one line of player input. Information verbs only produce
// output. Every other input is an action attempt, and an attempt always
// costs one time slice whether it succeeds, fails, or names no action.
func (e *Engine) Step(input string) types.Result {
	s := e.State
	logStart := s.EventSeq
	in := parser.Parse(input)

	var res types.Result
	switch in.Verb {
	case "":
		res.Output = []string{"Say something. Type 'help' for commands."}
		return res
	case parser.VerbLook:
		res.Output = e.look()
		return res
	case parser.VerbStatus:
		res.Output = e.status()
		return res
	case parser.VerbInventory:
		res.Output = e.inventory()
		return res
	case parser.VerbActions:
		res.Output = e.actions()
		return res
	case parser.VerbGoals:
		res.Output = e.goals()
		return res
	case parser.VerbHelp:
		res.Output = helpText
		return res
	case parser.VerbWait:
		e.reseed(s.World.Seed)
		res.Output = []string{"You let some time pass."}
	default:
		ar, err := e.Do(e.callFor(in), s.World.Seed)
		res.Action = &ar
		res.Err = err
		res.Output = append(res.Output, describeResult(ar)...)
	}

	if err := e.AdvanceTime(1); err != nil && res.Err == nil {
		res.Err = err
	}
	res.Events = events.Since(s, logStart)
	for _, ev := range res.Events {
		if line := narrate(ev); line != "" {
			res.Output = append(res.Output, line)
		}
	}
	if res.Err != nil {
		res.Output = append(res.Output, "Error: "+res.Err.Error())
	}
	return res
}

// callFor turns a parsed intent into an action call. Bespoke verbs use the
// registry's action of that kind; anything else is an action id whose
// object, if any, fills its single declared parameter.
func (e *Engine) callFor(in types.Intent) types.ActionCall {
	if kind, ok := verbKinds[in.Verb]; ok {
		spec := ActionOfKind(e.Reg, kind)
		if spec == nil {
			return types.ActionCall{ActionID: in.Verb, Params: map[string]any{}}
		}
		params := map[string]any{}
		if in.Object != "" {
			params = kindParams(spec, in.Object)
		}
		name, typ := kindParam(spec)
		if iid, ok := in.Params["instance_id"]; ok && typ == types.ParamItemRef {
			params[name] = map[string]any{"mode": types.RefInstanceID, "instance_id": iid}
		}
		return types.ActionCall{ActionID: spec.ID, Params: params}
	}

	spec, ok := e.Reg.Action(in.Verb)
	if !ok {
		// Left for Do to resolve as a legacy call or report as unknown.
		return types.ActionCall{ActionID: in.Verb}
	}
	params := map[string]any{}
	for k, v := range in.Params {
		params[k] = paramValue(spec, k, v)
	}
	if in.Object != "" && len(spec.Parameters) == 1 {
		p := spec.Parameters[0]
		if _, set := params[p.Name]; !set {
			params[p.Name] = paramValue(spec, p.Name, in.Object)
		}
	}
	return types.ActionCall{ActionID: spec.ID, Params: params}
}

// paramValue converts a typed string into the shape the parameter's type
// expects. Item references typed by hand name an item kind.
func paramValue(spec *types.ActionSpec, name, v string) any {
	for _, p := range spec.Parameters {
		if p.Name == name && p.Type == types.ParamItemRef {
			return map[string]any{"mode": types.RefByItemID, "item_id": v}
		}
	}
	return v
}

func describeResult(ar types.ActionResult) []string {
	v := ar.Validation
	if v.Valid {
		if ar.Tier >= 0 {
			return []string{fmt.Sprintf("%s: %s.", ar.ActionID, tierWords[ar.Tier])}
		}
		return nil
	}
	if v.Reason == ReasonUnknownAction {
		return []string{"You don't know how to do that."}
	}
	out := []string{fmt.Sprintf("You can't %s right now.", strings.ReplaceAll(ar.ActionID, "_", " "))}
	for _, m := range v.Missing {
		out = append(out, "  - "+m)
	}
	return out
}

var tierWords = map[int]string{
	0: "it went badly",
	1: "it went okay",
	2: "it went well",
	3: "it went brilliantly",
}

// narrate renders the events a player should read about. Bookkeeping
// events return "".
func narrate(ev types.Event) string {
	p := ev.Params
	switch ev.ID {
	case "player.moved":
		return fmt.Sprintf("You walk to %v.", p["to"])
	case "npc.encounter":
		return fmt.Sprintf("You bump into %v (%v) in the %v.", p["npc_name"], p["npc_role"], p["space_id"])
	case "npc.event":
		return fmt.Sprintf("%v the %v drops by: %v.", p["npc_name"], p["npc_role"], p["action_id"])
	case "time.new_day":
		return fmt.Sprintf("A new day begins (day %v).", p["day"])
	case "director.goals_seeded":
		return "You have new ideas for today. Type 'goals' to see them."
	case "item.repaired":
		return fmt.Sprintf("You repair the %v for %s.", p["item_id"], pence(p["cost_pence"]))
	case "shopping.purchase":
		return fmt.Sprintf("You buy a %v for %s.", p["item_id"], pence(p["cost_pence"]))
	case "shopping.sell":
		return fmt.Sprintf("You sell the %v for %s.", p["item_id"], pence(p["earned_pence"]))
	case "shopping.discard":
		return fmt.Sprintf("You throw out the %v.", p["item_id"])
	case "item.picked_up":
		return fmt.Sprintf("You pick up the %v.", p["item_id"])
	case "item.dropped":
		return fmt.Sprintf("You put down the %v.", p["item_id"])
	case "item.consumed":
		return fmt.Sprintf("You use up %v %v.", p["quantity"], p["item_id"])
	case "skill.gain":
		return fmt.Sprintf("Your %v improves.", p["skill"])
	case "utility.no_water":
		return "The taps are dry."
	case "utility.no_heat":
		return "The radiator is cold."
	case "utility.no_power":
		return "The lights are out."
	case "health.warning":
		return "You're not feeling well."
	case "health.critical":
		return "You feel seriously unwell."
	case "health.injury":
		return fmt.Sprintf("Ouch. You hurt yourself (%v).", p["cause"])
	case "building.noise":
		return "Someone is making a racket upstairs."
	case "trait.drift":
		return fmt.Sprint(p["message"])
	}
	return ""
}

func pence(v any) string {
	if n, ok := v.(int); ok {
		return Pence(n)
	}
	return fmt.Sprint(v)
}

var helpText = []string{
	"Commands:",
	"  look, status, inventory (i), actions (a), goals (g), wait (z), help",
	"  move <space>, repair <item>, buy <item>, sell <item>, discard <item>",
	"  pickup <item>, drop <item>",
	"  <action_id> [key=value ...], e.g. chat_neighbor npc_id=npc_neighbor_nina",
}

func (e *Engine) look() []string {
	s := e.State
	sp := s.Spaces[s.World.Location]
	name := sp.Name
	if name == "" {
		name = sp.ID
	}
	out := []string{fmt.Sprintf("%s. Day %d, %s.", name, s.World.Day, s.World.Slice)}
	if items := state.ItemsAt(s, s.World.Location); len(items) > 0 {
		out = append(out, "You see:")
		for _, it := range items {
			out = append(out, fmt.Sprintf("  %s (%s)", itemName(e.Reg, it.ItemID), state.ConditionLabel(it.ConditionValue)))
		}
	}
	if len(sp.Connections) > 0 {
		out = append(out, "Exits: "+strings.Join(sp.Connections, ", "))
	}
	if s.Player.Encounter != "" {
		if n, ok := s.NPCs[s.Player.Encounter]; ok {
			out = append(out, fmt.Sprintf("%s is here.", n.DisplayName))
		}
	}
	return out
}

func (e *Engine) status() []string {
	s := e.State
	p := &s.Player
	out := []string{
		fmt.Sprintf("Day %d, %s. Money: %s.", s.World.Day, s.World.Slice, Pence(p.MoneyPence)),
	}
	var needs []string
	for _, n := range state.NeedNames {
		needs = append(needs, fmt.Sprintf("%s %d", n, p.Needs[n]))
	}
	out = append(out, "Needs: "+strings.Join(needs, ", "))

	var skills []string
	for _, name := range state.SkillNames {
		if v := state.SkillValue(&p.Actor, name); v > 0 {
			skills = append(skills, fmt.Sprintf("%s %.1f", name, v))
		}
	}
	if len(skills) > 0 {
		out = append(out, "Skills: "+strings.Join(skills, ", "))
	}

	var off []string
	for _, u := range state.UtilityNames {
		if !s.Utilities[u] {
			off = append(off, u)
		}
	}
	if len(off) > 0 {
		out = append(out, "Utilities off: "+strings.Join(off, ", "))
	}
	return out
}

func (e *Engine) inventory() []string {
	s := e.State
	items := state.ItemsAt(s, types.Inventory)
	if len(items) == 0 {
		return []string{"You are carrying nothing."}
	}
	out := []string{fmt.Sprintf("You are carrying (%d/%d):", state.InventoryBulk(s), s.Player.CarryCapacity)}
	for _, it := range items {
		out = append(out, fmt.Sprintf("  %s (%s)", itemName(e.Reg, it.ItemID), state.ConditionLabel(it.ConditionValue)))
	}
	return out
}

func (e *Engine) actions() []string {
	var out []string
	for _, ce := range e.Catalog() {
		if !ce.Validation.Valid {
			continue
		}
		line := "  " + ce.Label
		if ce.Preview != nil {
			line += fmt.Sprintf(" [%s]", likelyTier(ce.Preview.TierDistribution))
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return []string{"Nothing to do here right now."}
	}
	return append([]string{"You could:"}, out...)
}

// likelyTier names the most probable tier; ties favor the better tier.
func likelyTier(dist map[int]float64) string {
	tiers := make([]int, 0, len(dist))
	for t := range dist {
		tiers = append(tiers, t)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(tiers)))
	best, bestP := -1, -1.0
	for _, t := range tiers {
		if dist[t] > bestP {
			best, bestP = t, dist[t]
		}
	}
	if best < 0 {
		return "?"
	}
	return fmt.Sprintf("likely tier %d", best)
}

func (e *Engine) goals() []string {
	goals := e.State.Player.Goals
	if len(goals) == 0 {
		return []string{"No goals yet. They arrive with each new day."}
	}
	out := []string{"Today's goals:"}
	for _, g := range goals {
		mark := " "
		if g.Validation.Valid {
			mark = "*"
		}
		out = append(out, fmt.Sprintf(" %s %s [%s]", mark, g.ActionID, likelyTier(g.Preview.TierDistribution)))
	}
	return out
}
