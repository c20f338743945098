package engine

import (
	"fmt"
	"sort"

	"github.com/nathoo/roomlife/engine/npc"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/engine/tier"
	"github.com/nathoo/roomlife/types"
)

// Catalog lists every call the player could make right now, one entry per
// concrete target: each connected space for a move, each candidate item
// for the item kinds, each purchasable kind, and each NPC for actions that
// take an npc_id. Entries carry their validation, and a tier preview when
// the action has outcomes. Order follows action id, then target.
func (e *Engine) Catalog() []types.CatalogEntry {
	var out []types.CatalogEntry
	for _, id := range e.Reg.ActionIDs() {
		spec := e.Reg.Actions[id]
		for _, call := range e.expand(spec) {
			out = append(out, e.entry(spec, call))
		}
	}
	return out
}

type expansion struct {
	params map[string]any
	label  string
}

func (e *Engine) expand(spec *types.ActionSpec) []expansion {
	s := e.State
	name, _ := kindParam(spec)

	switch spec.Kind {
	case types.KindMove:
		var out []expansion
		for _, target := range s.Spaces[s.World.Location].Connections {
			label := target
			if sp, ok := s.Spaces[target]; ok && sp.Name != "" {
				label = sp.Name
			}
			out = append(out, expansion{params: map[string]any{name: target}, label: label})
		}
		return out

	case types.KindPurchase:
		var ids []string
		for id, meta := range e.Reg.Items {
			if meta.Price > 0 {
				ids = append(ids, id)
			}
		}
		sort.Strings(ids)
		out := make([]expansion, 0, len(ids))
		for _, id := range ids {
			meta := e.Reg.Items[id]
			out = append(out, expansion{
				params: map[string]any{name: id},
				label:  fmt.Sprintf("%s (%s)", itemName(e.Reg, id), Pence(meta.Price)),
			})
		}
		return out

	case types.KindRepair, types.KindSell, types.KindDiscard, types.KindPickup, types.KindDrop:
		var out []expansion
		for _, it := range e.itemCandidates(spec.Kind) {
			out = append(out, expansion{
				params: map[string]any{name: map[string]any{"mode": types.RefInstanceID, "instance_id": it.InstanceID}},
				label:  fmt.Sprintf("%s (%s)", itemName(e.Reg, it.ItemID), state.ConditionLabel(it.ConditionValue)),
			})
		}
		return out
	}

	if !takesNPC(spec) {
		return []expansion{{params: map[string]any{}}}
	}
	var out []expansion
	for _, id := range state.NPCIDs(s) {
		out = append(out, expansion{
			params: map[string]any{npc.ParamNPCID: id},
			label:  s.NPCs[id].DisplayName,
		})
	}
	return out
}

func (e *Engine) itemCandidates(kind types.ActionKind) []*types.Item {
	s := e.State
	switch kind {
	case types.KindPickup:
		return state.ItemsAt(s, s.World.Location)
	case types.KindDrop:
		return state.ItemsAt(s, types.Inventory)
	case types.KindRepair:
		var out []*types.Item
		for _, it := range state.ReachableItems(s) {
			if it.ConditionValue < RepairableBelow {
				out = append(out, it)
			}
		}
		return out
	default:
		return state.ReachableItems(s)
	}
}

func takesNPC(spec *types.ActionSpec) bool {
	for _, p := range spec.Parameters {
		if p.Name == npc.ParamNPCID {
			return true
		}
	}
	return false
}

func (e *Engine) entry(spec *types.ActionSpec, x expansion) types.CatalogEntry {
	s := e.State
	label := spec.DisplayName
	if label == "" {
		label = spec.ID
	}
	if x.label != "" {
		label += ": " + x.label
	}
	ce := types.CatalogEntry{
		Call:        types.ActionCall{ActionID: spec.ID, Params: x.params},
		Label:       label,
		Category:    spec.Category,
		Validation:  e.Validate(spec, x.params),
		TimeMinutes: spec.TimeMinutes,
	}
	if len(spec.Outcomes) > 0 {
		actor := tier.PlayerActor(s)
		ce.Preview = &types.Preview{
			TierDistribution: tier.PreviewDistribution(actor, s, e.Reg, spec, tier.Seed(s.World.Seed, s.World.Day, spec.ID), tier.DefaultSamples),
			DeltaRanges:      tier.DeltaRanges(spec),
			Notes:            tier.PreviewNotes(actor, s, e.Reg, spec),
		}
	}
	return ce
}

func itemName(reg *state.Registry, itemID string) string {
	if meta, ok := reg.ItemMeta(itemID); ok && meta.Name != "" {
		return meta.Name
	}
	return itemID
}

// Pence formats an amount of money, 1250 as "£12.50".
func Pence(p int) string {
	sign := ""
	if p < 0 {
		sign, p = "-", -p
	}
	return fmt.Sprintf("%s£%d.%02d", sign, p/100, p%100)
}
