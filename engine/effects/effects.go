// Package effects applies an action's consumption and its resolved outcome
// row to the state. Every mutation here is confined to the state passed in
// and its event log.
package effects

import (
	"math"
	"sort"

	"github.com/nathoo/roomlife/engine/events"
	"github.com/nathoo/roomlife/engine/fault"
	"github.com/nathoo/roomlife/engine/rules"
	"github.com/nathoo/roomlife/engine/social"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// Condition wear constants.
const (
	LowCondition     = 40
	WearAcceleration = 1.5
	DefaultWear      = 1
)

// XP scaling constants.
const (
	CuriosityBonus     = 0.3
	HealthPenaltyFloor = 50.0
	AptitudeRate       = 0.002
	DisciplineRustCut  = 0.3
)

// Options control how an outcome row is applied.
type Options struct {
	// EmitEvents logs the outcome's declared events. Bespoke action kinds
	// log their own richer event instead.
	EmitEvents bool
	// NPCID is the social counterpart of the action, if any.
	NPCID string
	// NPCInitiated makes the NPC the social actor and the player the target.
	NPCInitiated bool
}

// ApplyConsumes deducts what spec consumes: money, inventory items, and
// durability from the best provider of a capability. Money the player
// cannot cover, or a demanded provider that is missing or would be consumed
// itself, is a consistency fault: validation should have caught both.
// Everything is checked before anything is mutated.
func ApplyConsumes(s *types.State, reg *state.Registry, spec *types.ActionSpec) ([]types.Event, error) {
	cons := spec.Consumes
	if cons == nil {
		return nil, nil
	}

	if cons.MoneyPence > 0 && s.Player.MoneyPence < cons.MoneyPence {
		return nil, fault.Consistencyf(spec.ID, "consumes %dp but player has %dp", cons.MoneyPence, s.Player.MoneyPence)
	}
	var provider *types.Item
	if dur := cons.ItemDurability; dur != nil && dur.Provides != "" {
		provider = state.BestProviderExcept(s, reg, dur.Provides, rules.ConsumedItems(s, spec))
		if provider == nil && rules.DemandsCapability(spec, dur.Provides) {
			return nil, fault.Consistencyf(spec.ID, "no reachable item provides %q", dur.Provides)
		}
	}

	var emitted []types.Event
	if cons.MoneyPence > 0 {
		s.Player.MoneyPence -= cons.MoneyPence
	}

	for _, iq := range cons.InventoryItems {
		removed := RemoveItems(s, iq.ItemID, quantity(iq.Quantity))
		if removed > 0 {
			emitted = append(emitted, events.Log(s, "item.consumed", map[string]any{
				"item_id":  iq.ItemID,
				"quantity": removed,
			}))
		}
	}

	if provider != nil {
		amount := cons.ItemDurability.Amount
		if amount <= 0 {
			amount = defaultWear(reg, provider.ItemID)
		}
		Degrade(provider, amount)
	}

	return emitted, nil
}

func quantity(q int) int {
	if q <= 0 {
		return 1
	}
	return q
}

func defaultWear(reg *state.Registry, itemID string) int {
	if meta, ok := reg.ItemMeta(itemID); ok && meta.Durability != nil && meta.Durability.DegradePerUseDefault > 0 {
		return meta.Durability.DegradePerUseDefault
	}
	return DefaultWear
}

// RemoveItems removes up to n reachable items of kind itemID, carried ones
// first, and returns how many were removed.
func RemoveItems(s *types.State, itemID string, n int) int {
	removed := 0
	for _, it := range state.ReachableItems(s) {
		if removed == n {
			break
		}
		if it.ItemID == itemID && state.RemoveItem(s, it.InstanceID) {
			removed++
		}
	}
	return removed
}

// Degrade lowers an item's condition by amount, scaled up once the item is
// already below LowCondition. Condition never drops below 0.
func Degrade(it *types.Item, amount int) {
	if amount <= 0 {
		return
	}
	if it.ConditionValue < LowCondition {
		amount = int(math.Round(float64(amount) * WearAcceleration))
	}
	it.ConditionValue = state.Clamp100(it.ConditionValue - amount)
}

// Repair raises an item's condition by amount, never above 100.
func Repair(it *types.Item, amount int) {
	it.ConditionValue = state.Clamp100(it.ConditionValue + amount)
}

// ApplyOutcome applies the outcome row for tier to the player. A spec with
// no row for tier is a content fault; nothing is applied in that case.
func ApplyOutcome(s *types.State, reg *state.Registry, spec *types.ActionSpec, tier int, opts Options) ([]types.Event, error) {
	out, ok := spec.Outcomes[tier]
	if !ok {
		return nil, fault.Contentf(spec.ID, "no outcome defined for tier %d", tier)
	}
	var emitted []types.Event
	p := &s.Player

	for _, need := range sortedKeys(out.Deltas.Needs) {
		state.AdjustNeed(&p.Actor, need, out.Deltas.Needs[need])
	}

	p.MoneyPence += out.Deltas.MoneyPence

	tick := state.Tick(s.World)
	for _, skill := range sortedKeys(out.Deltas.SkillsXP) {
		gain := GainSkillXP(&p.Actor, skill, out.Deltas.SkillsXP[skill], tick)
		if opts.EmitEvents && gain > 0 {
			emitted = append(emitted, events.Log(s, "skill.gain", map[string]any{"skill": skill, "xp": gain}))
		}
	}

	if len(out.Deltas.Flags) > 0 && p.Flags == nil {
		p.Flags = map[string]int{}
	}
	for _, flag := range sortedKeys(out.Deltas.Flags) {
		p.Flags[flag] += out.Deltas.Flags[flag]
	}

	for _, g := range out.Grants.Items {
		placed := g.PlacedIn
		if placed == "" {
			placed = s.World.Location
		}
		for i := 0; i < quantity(g.Quantity); i++ {
			state.NewItem(s, reg, g.ItemID, placed)
		}
	}

	if opts.NPCID != "" && out.Social != nil {
		in := social.Interaction{ActorID: social.PlayerID, TargetID: opts.NPCID, ActionID: spec.ID, Tier: tier}
		if opts.NPCInitiated {
			in.ActorID, in.TargetID = opts.NPCID, social.PlayerID
		}
		if err := social.Apply(s, in, out.Social); err != nil {
			return emitted, &fault.ContentError{ActionID: spec.ID, Msg: "social outcome", Err: err}
		}
	}

	if opts.EmitEvents {
		for _, e := range out.Events {
			emitted = append(emitted, events.Log(s, e.ID, copyParams(e.Params)))
		}
	}

	return emitted, nil
}

func copyParams(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// HealthPenalty scales XP gain down for an unhealthy actor.
func HealthPenalty(a *types.Actor) float64 {
	h := state.Health(a)
	if h >= HealthPenaltyFloor {
		return 1.0
	}
	return 0.5 + h/HealthPenaltyFloor*0.5
}

// GainSkillXP raises a skill by xp scaled by curiosity and health, nudges
// the governing aptitude, and returns the actual gain.
func GainSkillXP(a *types.Actor, skill string, xp float64, tick int) float64 {
	if a.Skills == nil {
		a.Skills = map[string]types.Skill{}
	}
	curiosity := 1 + float64(a.Traits["curiosity"])/100*CuriosityBonus
	gain := xp * curiosity * HealthPenalty(a)

	sk, ok := a.Skills[skill]
	if !ok {
		sk.RustRate = 0.1
	}
	sk.Value += gain
	sk.LastTick = tick
	a.Skills[skill] = sk

	if apt, ok := state.SkillAptitude[skill]; ok {
		if a.Aptitudes == nil {
			a.Aptitudes = map[string]float64{}
		}
		if _, ok := a.Aptitudes[apt]; !ok {
			a.Aptitudes[apt] = 1.0
		}
		a.Aptitudes[apt] += gain * AptitudeRate
	}
	return gain
}

// ApplySkillRust decays every practiced skill by its rust rate for each tick
// since it was last used, softened by discipline.
func ApplySkillRust(a *types.Actor, tick int) {
	discipline := float64(a.Traits["discipline"]) / 100 * DisciplineRustCut
	for _, name := range sortedKeys(a.Skills) {
		sk := a.Skills[name]
		ticks := tick - sk.LastTick
		if ticks <= 0 || sk.Value <= 0 {
			continue
		}
		sk.Value = math.Max(0, sk.Value-sk.RustRate*float64(ticks)*(1-discipline))
		sk.LastTick = tick
		a.Skills[name] = sk
	}
}

// Habits tracked on the player. Each of the first four drifts the trait of
// the same name once it builds past DriftThreshold.
const (
	HabitDiscipline = "discipline"
	HabitConfidence = "confidence"
	HabitFrugality  = "frugality"
	HabitFitness    = "fitness"
	HabitMinimalism = "minimalism"
)

// Habit increments for the shopping actions.
const (
	PurchaseHabit  = 3
	SellHabit      = 5
	DiscardHabit   = 2
	DriftThreshold = 80
)

var driftMessages = []struct {
	habit   string
	message string
}{
	{HabitDiscipline, "Your surroundings feel more orderly. Discipline is rising."},
	{HabitConfidence, "You feel more self-assured. Confidence is rising."},
	{HabitFrugality, "You're becoming more mindful of spending. Frugality is rising."},
	{HabitFitness, "Your body feels stronger. Fitness is rising."},
}

// TrackHabit adds n to one of the player's habits.
func TrackHabit(p *types.Player, habit string, n int) {
	if p.Habits == nil {
		p.Habits = map[string]int{}
	}
	p.Habits[habit] += n
}

// ApplyTraitDrift raises by one, capped at 100, every trait whose habit has
// built past DriftThreshold, resets that habit, and logs trait.drift.
func ApplyTraitDrift(s *types.State) []types.Event {
	p := &s.Player
	var emitted []types.Event
	for _, d := range driftMessages {
		if p.Habits[d.habit] <= DriftThreshold {
			continue
		}
		if p.Traits == nil {
			p.Traits = map[string]int{}
		}
		p.Traits[d.habit] = state.Clamp100(p.Traits[d.habit] + 1)
		p.Habits[d.habit] = 0
		emitted = append(emitted, events.Log(s, "trait.drift", map[string]any{
			"trait":   d.habit,
			"value":   p.Traits[d.habit],
			"message": d.message,
		}))
	}
	return emitted
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
