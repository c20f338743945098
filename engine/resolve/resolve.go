// Package resolve validates and resolves the typed parameters an action call
// supplies: space references, item references, and free-form strings.
package resolve

import (
	"fmt"
	"sort"

	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// NotFoundError indicates a referenced space or item does not exist.
type NotFoundError struct {
	Kind string // "space", "instance", "item"
	ID   string
}

func (e *NotFoundError) Error() string {
	switch e.Kind {
	case "space":
		return fmt.Sprintf("unknown space_id: %s", e.ID)
	case "instance":
		return fmt.Sprintf("unknown instance_id: %s", e.ID)
	default:
		return fmt.Sprintf("no such item_id in world: %s", e.ID)
	}
}

// NotConnectedError indicates a move target is not adjacent.
type NotConnectedError struct {
	From string
	To   string
}

func (e *NotConnectedError) Error() string {
	return fmt.Sprintf("%s not connected to %s", e.To, e.From)
}

// CapacityError indicates the player cannot carry an item.
type CapacityError struct {
	Carried  int
	Capacity int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("inventory full (%d/%d)", e.Carried, e.Capacity)
}

// PlacementError indicates an item is not where an operation needs it.
type PlacementError struct {
	Want string
}

func (e *PlacementError) Error() string {
	return "item not " + e.Want
}

// Params checks every declared parameter of spec against params and returns
// each violated constraint. An empty result means every parameter resolved.
func Params(s *types.State, spec *types.ActionSpec, params map[string]any) []string {
	var missing []string

	for _, p := range spec.Parameters {
		v, present := params[p.Name]
		if !present {
			if p.Required {
				missing = append(missing, "missing param: "+p.Name)
			}
			continue
		}

		switch p.Type {
		case types.ParamSpaceID:
			if _, err := SpaceID(s, p.Name, v); err != nil {
				missing = append(missing, err.Error())
			}

		case types.ParamItemRef:
			ref, err := ParseItemRef(v)
			if err != nil {
				missing = append(missing, err.Error())
				continue
			}
			if err := refExists(s, ref); err != nil {
				missing = append(missing, err.Error())
				continue
			}
			missing = append(missing, itemConstraints(s, ref, p.Constraints)...)

		case types.ParamString:
			if _, ok := v.(string); !ok {
				missing = append(missing, p.Name+" must be a string")
			}

		default:
			missing = append(missing, fmt.Sprintf("%s (unknown parameter type: %s)", p.Name, p.Type))
		}
	}

	return missing
}

// SpaceID resolves a space reference parameter.
func SpaceID(s *types.State, name string, v any) (string, error) {
	id, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", name)
	}
	if _, ok := s.Spaces[id]; !ok {
		return "", &NotFoundError{Kind: "space", ID: id}
	}
	return id, nil
}

// ParseItemRef decodes an item reference from a call parameter. It accepts
// a types.ItemRef or a map with mode plus instance_id or item_id.
func ParseItemRef(v any) (types.ItemRef, error) {
	var ref types.ItemRef
	switch r := v.(type) {
	case types.ItemRef:
		ref = r
	case *types.ItemRef:
		if r == nil {
			return ref, fmt.Errorf("item_ref must be an object")
		}
		ref = *r
	case map[string]any:
		mode, _ := r["mode"].(string)
		ref.Mode = mode
		if iid, ok := r["instance_id"]; ok {
			s, ok := iid.(string)
			if !ok {
				return ref, fmt.Errorf("instance_id must be string")
			}
			ref.InstanceID = s
		}
		if id, ok := r["item_id"]; ok {
			s, ok := id.(string)
			if !ok {
				return ref, fmt.Errorf("item_id must be string")
			}
			ref.ItemID = s
		}
	case map[string]string:
		ref = types.ItemRef{Mode: r["mode"], InstanceID: r["instance_id"], ItemID: r["item_id"]}
	default:
		return ref, fmt.Errorf("item_ref must be an object")
	}

	switch ref.Mode {
	case types.RefInstanceID, types.RefByItemID:
		return ref, nil
	default:
		return ref, fmt.Errorf("item_ref.mode must be instance_id or by_item_id")
	}
}

func refExists(s *types.State, ref types.ItemRef) error {
	if len(candidates(s, ref)) > 0 {
		return nil
	}
	if ref.Mode == types.RefInstanceID {
		return &NotFoundError{Kind: "instance", ID: ref.InstanceID}
	}
	return &NotFoundError{Kind: "item", ID: ref.ItemID}
}

func candidates(s *types.State, ref types.ItemRef) []*types.Item {
	var out []*types.Item
	for _, it := range s.Items {
		switch ref.Mode {
		case types.RefInstanceID:
			if it.InstanceID == ref.InstanceID {
				out = append(out, it)
			}
		case types.RefByItemID:
			if it.ItemID == ref.ItemID {
				out = append(out, it)
			}
		}
	}
	return out
}

func itemConstraints(s *types.State, ref types.ItemRef, c types.ParamConstraints) []string {
	var issues []string
	cands := candidates(s, ref)

	if c.Reachable {
		ok := false
		for _, it := range cands {
			if state.IsReachable(s, it) {
				ok = true
				break
			}
		}
		if !ok {
			issues = append(issues, "item_ref must reference a reachable item")
		}
	}

	if c.InInventory {
		ok := false
		for _, it := range cands {
			if it.PlacedIn == types.Inventory {
				ok = true
				break
			}
		}
		if !ok {
			issues = append(issues, "item_ref must reference an inventory item")
		}
	}

	return issues
}

// SelectItem picks the concrete instance an item reference names. By-kind
// references choose the reachable instance in the best condition.
func SelectItem(s *types.State, ref types.ItemRef) *types.Item {
	switch ref.Mode {
	case types.RefInstanceID:
		return state.FindItem(s, ref.InstanceID)
	case types.RefByItemID:
		var cands []*types.Item
		for _, it := range s.Items {
			if it.ItemID == ref.ItemID && state.IsReachable(s, it) {
				cands = append(cands, it)
			}
		}
		if len(cands) == 0 {
			return nil
		}
		sort.SliceStable(cands, func(i, j int) bool {
			return cands[i].ConditionValue > cands[j].ConditionValue
		})
		return cands[0]
	}
	return nil
}

// Connected checks that target is adjacent to the current location.
func Connected(s *types.State, target string) error {
	current := s.World.Location
	space, ok := s.Spaces[current]
	if !ok {
		return &NotFoundError{Kind: "space", ID: current}
	}
	for _, c := range space.Connections {
		if c == target {
			return nil
		}
	}
	return &NotConnectedError{From: current, To: target}
}

// CanPickup reports why the player cannot pick it up, or nil.
func CanPickup(s *types.State, it *types.Item) error {
	if it.PlacedIn != s.World.Location {
		return &PlacementError{Want: "at current location"}
	}
	if !state.CanCarry(s, it.Bulk) {
		return &CapacityError{Carried: state.InventoryBulk(s), Capacity: s.Player.CarryCapacity}
	}
	return nil
}

// Pickup moves an item at the current location into the inventory.
func Pickup(s *types.State, it *types.Item) error {
	if err := CanPickup(s, it); err != nil {
		return err
	}
	it.PlacedIn = types.Inventory
	it.Slot = types.Inventory
	return nil
}

// CanDrop reports why the player cannot drop it, or nil.
func CanDrop(it *types.Item) error {
	if it.PlacedIn != types.Inventory {
		return &PlacementError{Want: "in inventory"}
	}
	return nil
}

// Drop places a carried item at the current location.
func Drop(s *types.State, it *types.Item) error {
	if err := CanDrop(it); err != nil {
		return err
	}
	it.PlacedIn = s.World.Location
	it.Slot = "floor"
	return nil
}
