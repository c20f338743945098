package engine

import (
	"strconv"
	"strings"

	"github.com/nathoo/roomlife/engine/npc"
	"github.com/nathoo/roomlife/engine/resolve"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// command is a classified action call. Each action kind has exactly one
// variant; execute dispatches on the concrete type.
type command interface {
	kind() types.ActionKind
}

type genericCmd struct{ npcID string }
type moveCmd struct{ target string }
type repairCmd struct{ item *types.Item }
type purchaseCmd struct{ itemID string }
type sellCmd struct{ item *types.Item }
type discardCmd struct{ item *types.Item }
type pickupCmd struct{ item *types.Item }
type dropCmd struct{ item *types.Item }

func (genericCmd) kind() types.ActionKind  { return types.KindGeneric }
func (moveCmd) kind() types.ActionKind     { return types.KindMove }
func (repairCmd) kind() types.ActionKind   { return types.KindRepair }
func (purchaseCmd) kind() types.ActionKind { return types.KindPurchase }
func (sellCmd) kind() types.ActionKind     { return types.KindSell }
func (discardCmd) kind() types.ActionKind  { return types.KindDiscard }
func (pickupCmd) kind() types.ActionKind   { return types.KindPickup }
func (dropCmd) kind() types.ActionKind     { return types.KindDrop }

// Default parameter names, used when content declares none for a kind.
const (
	ParamTargetSpace = "target_space"
	ParamItemRef     = "item_ref"
	ParamItemID      = "item_id"
)

// Failure reasons reported by bespoke action kinds.
const (
	ReasonNotConnected   = "location_not_connected"
	ReasonSpaceNotFound  = "location_not_found"
	ReasonItemNotFound   = "item_not_found"
	ReasonGoodCondition  = "item_in_good_condition"
	ReasonNotForSale     = "item_not_for_sale"
	ReasonInsufficient   = "insufficient_funds"
	ReasonInventoryFull  = "inventory_full"
	ReasonItemNotHere    = "item_not_here"
	ReasonNotCarried     = "item_not_carried"
	ReasonUnknownAction  = "unknown_action"
	ReasonMissingPayload = "missing_parameter"
	ReasonNPCNotFound    = "npc_not_found"
	ReasonContentFault   = "content_fault"
)

// kindParam returns the parameter name and type a bespoke kind reads.
func kindParam(spec *types.ActionSpec) (name, typ string) {
	switch spec.Kind {
	case types.KindMove:
		typ, name = types.ParamSpaceID, ParamTargetSpace
	case types.KindPurchase:
		typ, name = types.ParamString, ParamItemID
	case types.KindRepair, types.KindSell, types.KindDiscard, types.KindPickup, types.KindDrop:
		typ, name = types.ParamItemRef, ParamItemRef
	default:
		return "", ""
	}
	for _, p := range spec.Parameters {
		if p.Type == typ {
			return p.Name, typ
		}
	}
	return name, typ
}

// classify builds the command for spec from validated params. The second
// return is a failure reason when a payload the kind needs is absent.
func classify(s *types.State, spec *types.ActionSpec, params map[string]any) (command, string) {
	if spec.Kind == types.KindGeneric || spec.Kind == "" {
		id, _ := params[npc.ParamNPCID].(string)
		if _, ok := s.NPCs[id]; id != "" && !ok {
			return nil, ReasonNPCNotFound
		}
		return genericCmd{npcID: id}, ""
	}

	name, _ := kindParam(spec)
	raw, ok := params[name]
	if !ok {
		return nil, ReasonMissingPayload
	}

	switch spec.Kind {
	case types.KindMove:
		target, _ := raw.(string)
		if target == "" {
			return nil, ReasonMissingPayload
		}
		return moveCmd{target: target}, ""
	case types.KindPurchase:
		itemID, _ := raw.(string)
		if itemID == "" {
			return nil, ReasonMissingPayload
		}
		return purchaseCmd{itemID: itemID}, ""
	}

	ref, err := resolve.ParseItemRef(raw)
	if err != nil {
		return nil, ReasonMissingPayload
	}
	it := resolve.SelectItem(s, ref)
	if it == nil {
		return nil, ReasonItemNotFound
	}
	switch spec.Kind {
	case types.KindRepair:
		return repairCmd{item: it}, ""
	case types.KindSell:
		return sellCmd{item: it}, ""
	case types.KindDiscard:
		return discardCmd{item: it}, ""
	case types.KindPickup:
		return pickupCmd{item: it}, ""
	case types.KindDrop:
		return dropCmd{item: it}, ""
	}
	return nil, ReasonUnknownAction
}

// legacyPrefixes map the parameter-free call form "<prefix><payload>" to
// the action kind that handles it.
var legacyPrefixes = []struct {
	prefix string
	kind   types.ActionKind
}{
	{"move_", types.KindMove},
	{"repair_", types.KindRepair},
	{"purchase_", types.KindPurchase},
	{"sell_", types.KindSell},
	{"discard_", types.KindDiscard},
}

// ParseLegacy converts a legacy call such as "move_hall_001" or
// "repair_kettle" into an explicit call on the registry's action of the
// matching kind. Ids that name a registered action are returned as-is.
//
// Item kinds also accept "<prefix><item_id>_<index>", where index points
// into s.Items. The indexed item must be of that kind and lie at the
// current location; otherwise the call names an instance that does not
// exist and fails validation.
func ParseLegacy(reg *state.Registry, s *types.State, id string) (types.ActionCall, bool) {
	if _, ok := reg.Action(id); ok {
		return types.ActionCall{ActionID: id, Params: map[string]any{}}, true
	}
	for _, lp := range legacyPrefixes {
		payload, ok := strings.CutPrefix(id, lp.prefix)
		if !ok || payload == "" {
			continue
		}
		spec := ActionOfKind(reg, lp.kind)
		if spec == nil {
			return types.ActionCall{}, false
		}
		if name, typ := kindParam(spec); typ == types.ParamItemRef {
			if ref, ok := indexedRef(reg, s, payload); ok {
				return types.ActionCall{ActionID: spec.ID, Params: map[string]any{name: ref}}, true
			}
		}
		return types.ActionCall{ActionID: spec.ID, Params: kindParams(spec, payload)}, true
	}
	return types.ActionCall{}, false
}

// indexedRef resolves "<item_id>_<index>" to an instance reference. It
// reports false when payload has no numeric suffix or is itself a known
// item kind.
func indexedRef(reg *state.Registry, s *types.State, payload string) (map[string]any, bool) {
	cut := strings.LastIndex(payload, "_")
	if cut <= 0 || s == nil {
		return nil, false
	}
	if _, known := reg.ItemMeta(payload); known {
		return nil, false
	}
	itemID, suffix := payload[:cut], payload[cut+1:]
	idx, err := strconv.Atoi(suffix)
	if err != nil || idx < 0 || suffix[0] == '+' {
		return nil, false
	}

	instance := payload
	if idx < len(s.Items) {
		if it := s.Items[idx]; it.ItemID == itemID && it.PlacedIn == s.World.Location {
			instance = it.InstanceID
		}
	}
	return map[string]any{"mode": types.RefInstanceID, "instance_id": instance}, true
}

// ActionOfKind returns the first action, by id, declared with kind.
func ActionOfKind(reg *state.Registry, kind types.ActionKind) *types.ActionSpec {
	for _, id := range reg.ActionIDs() {
		if spec := reg.Actions[id]; spec.Kind == kind {
			return spec
		}
	}
	return nil
}

// kindParams builds the params of a bespoke call from a bare payload: a
// space id, an item kind for purchases, or an item kind reference.
func kindParams(spec *types.ActionSpec, payload string) map[string]any {
	name, typ := kindParam(spec)
	switch typ {
	case types.ParamItemRef:
		return map[string]any{name: map[string]any{"mode": types.RefByItemID, "item_id": payload}}
	case "":
		return map[string]any{}
	default:
		return map[string]any{name: payload}
	}
}
