// Package state holds the immutable content Registry and the lookups and
// clamped mutations every other package performs on the simulation state.
package state

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/nathoo/roomlife/engine/events"
	"github.com/nathoo/roomlife/engine/formula"
	"github.com/nathoo/roomlife/types"
)

// Registry holds the immutable content loaded from data files. It is built
// once by the loader and passed explicitly into every call that needs it.
type Registry struct {
	Actions map[string]*types.ActionSpec
	Items   map[string]types.ItemMeta
	Spaces  map[string]types.Space
	Packs   []string

	// Warnings are non-fatal content problems found while loading.
	Warnings []string

	formulaEnv *formula.Env
	formulas   map[string]*formula.Formula
}

// NewRegistry returns an empty registry with the default formulas compiled.
func NewRegistry() (*Registry, error) {
	env, err := formula.NewEnv()
	if err != nil {
		return nil, fmt.Errorf("building formula environment: %w", err)
	}
	r := &Registry{
		Actions:    map[string]*types.ActionSpec{},
		Items:      map[string]types.ItemMeta{},
		Spaces:     map[string]types.Space{},
		formulaEnv: env,
		formulas:   map[string]*formula.Formula{},
	}
	for name, expr := range formula.Defaults {
		if err := r.SetFormula("", name, expr); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Action returns the spec for id.
func (r *Registry) Action(id string) (*types.ActionSpec, bool) {
	a, ok := r.Actions[id]
	return a, ok
}

// ActionIDs returns every action id in sorted order.
func (r *Registry) ActionIDs() []string {
	ids := make([]string, 0, len(r.Actions))
	for id := range r.Actions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ItemMeta returns capability metadata for an item kind.
func (r *Registry) ItemMeta(id string) (types.ItemMeta, bool) {
	m, ok := r.Items[id]
	return m, ok
}

// Provides reports whether an item kind provides a capability.
func (r *Registry) Provides(itemID, capability string) bool {
	m, ok := r.Items[itemID]
	if !ok {
		return false
	}
	for _, p := range m.Provides {
		if p == capability {
			return true
		}
	}
	return false
}

// Providers returns the sorted item kinds that provide a capability.
func (r *Registry) Providers(capability string) []string {
	var out []string
	for id := range r.Items {
		if r.Provides(id, capability) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// SetFormula compiles expr and stores it under actionID and name. An empty
// actionID sets the fallback used by every action.
func (r *Registry) SetFormula(actionID, name, expr string) error {
	f, err := r.formulaEnv.Compile(expr)
	if err != nil {
		return fmt.Errorf("formula %s: %w", formulaKey(actionID, name), err)
	}
	r.formulas[formulaKey(actionID, name)] = f
	return nil
}

// Formula returns the action's formula for name, falling back to the
// registry default.
func (r *Registry) Formula(actionID, name string) (*formula.Formula, bool) {
	if f, ok := r.formulas[formulaKey(actionID, name)]; ok {
		return f, true
	}
	f, ok := r.formulas[formulaKey("", name)]
	return f, ok
}

func formulaKey(actionID, name string) string {
	if actionID == "" {
		return "*." + name
	}
	return actionID + "." + name
}

// Time slices in order. The sequence is cyclic.
var Slices = []string{"morning", "afternoon", "evening", "night"}

// Names of needs, traits, and skills an actor carries.
var (
	NeedNames  = []string{"hunger", "fatigue", "warmth", "hygiene", "mood", "stress", "energy", "health", "illness", "injury"}
	TraitNames = []string{"discipline", "confidence", "empathy", "fitness", "frugality", "curiosity", "stoicism", "creativity"}
	SkillNames = []string{
		"cooking", "bartending", "technical_literacy", "analysis", "creativity",
		"resource_management", "presence", "articulation", "persuasion",
		"nutrition", "maintenance", "ergonomics", "reflexivity", "introspection", "focus",
	}
	AptitudeNames = []string{"body", "social_grace", "logic_systems", "domesticity", "vitality"}
	UtilityNames  = []string{"power", "heat", "water"}
)

// SkillAptitude maps each skill to the aptitude that governs it.
var SkillAptitude = map[string]string{
	"cooking":             "body",
	"bartending":          "social_grace",
	"presence":            "social_grace",
	"articulation":        "social_grace",
	"persuasion":          "social_grace",
	"technical_literacy":  "logic_systems",
	"analysis":            "logic_systems",
	"creativity":          "logic_systems",
	"resource_management": "logic_systems",
	"nutrition":           "domesticity",
	"maintenance":         "domesticity",
	"ergonomics":          "domesticity",
	"reflexivity":         "vitality",
	"introspection":       "vitality",
	"focus":               "vitality",
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// IsNeed reports whether name is a known need.
func IsNeed(name string) bool { return contains(NeedNames, name) }

// IsSkill reports whether name is a known skill.
func IsSkill(name string) bool { return contains(SkillNames, name) }

// IsTrait reports whether name is a known trait.
func IsTrait(name string) bool { return contains(TraitNames, name) }

// SliceIndex returns the position of slice in the day, or 0 if unknown.
func SliceIndex(slice string) int {
	for i, s := range Slices {
		if s == slice {
			return i
		}
	}
	return 0
}

// Tick is the monotonic turn counter used for skill rust.
func Tick(w types.World) int {
	return w.Day*len(Slices) + SliceIndex(w.Slice)
}

// Condition buckets for item condition values.
const (
	ConditionPristine = "pristine"
	ConditionUsed     = "used"
	ConditionWorn     = "worn"
	ConditionBroken   = "broken"
	ConditionFilthy   = "filthy"
)

// ConditionLabel buckets a condition value. It is the only source of an
// item's condition label.
func ConditionLabel(v int) string {
	switch {
	case v >= 90:
		return ConditionPristine
	case v >= 70:
		return ConditionUsed
	case v >= 40:
		return ConditionWorn
	case v >= 20:
		return ConditionBroken
	default:
		return ConditionFilthy
	}
}

// Clamp100 clamps v to [0, 100].
func Clamp100(v int) int {
	return clamp(v, 0, 100)
}

// ClampRelationship clamps v to [-100, 100].
func ClampRelationship(v int) int {
	return clamp(v, -100, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NewActor returns an actor with every need, trait, skill, and aptitude at
// its starting value.
func NewActor() types.Actor {
	a := types.Actor{
		Skills:        map[string]types.Skill{},
		Aptitudes:     map[string]float64{},
		Traits:        map[string]int{},
		Needs:         map[string]int{},
		Relationships: map[string]int{},
		Memory:        []types.MemoryEntry{},
	}
	for _, s := range SkillNames {
		a.Skills[s] = types.Skill{RustRate: 0.1}
	}
	for _, ap := range AptitudeNames {
		a.Aptitudes[ap] = 1.0
	}
	for _, t := range TraitNames {
		a.Traits[t] = 50
	}
	for k, v := range map[string]int{
		"hunger": 40, "fatigue": 20, "warmth": 70, "hygiene": 60, "mood": 60,
		"stress": 20, "energy": 80, "health": 100, "illness": 0, "injury": 0,
	} {
		a.Needs[k] = v
	}
	return a
}

// DefaultSpaces is the building used when content declares no spaces.
func DefaultSpaces() map[string]types.Space {
	return map[string]types.Space{
		"room_001": {
			ID: "room_001", Name: "Tiny room", Kind: "room", BaseTemperatureC: 14,
			Connections:        []string{"hall_001"},
			Tags:               []string{"room", "sleep_area"},
			Fixtures:           []string{"bed_spot", "desk_spot"},
			UtilitiesAvailable: []string{"power", "heat"},
		},
		"hall_001": {
			ID: "hall_001", Name: "Hallway", Kind: "shared", BaseTemperatureC: 12,
			Connections:        []string{"room_001", "bath_001", "kitchen_001"},
			Tags:               []string{"hallway", "transit"},
			Fixtures:           []string{},
			UtilitiesAvailable: []string{"power"},
		},
		"bath_001": {
			ID: "bath_001", Name: "Shared bathroom", Kind: "shared", BaseTemperatureC: 13,
			Connections:        []string{"hall_001"},
			Tags:               []string{"bathroom"},
			Fixtures:           []string{"shower", "sink", "toilet"},
			UtilitiesAvailable: []string{"water", "heat", "power"},
		},
		"kitchen_001": {
			ID: "kitchen_001", Name: "Shared kitchen", Kind: "shared", BaseTemperatureC: 16,
			Connections:        []string{"hall_001"},
			Tags:               []string{"kitchen"},
			Fixtures:           []string{"sink", "stove_spot"},
			UtilitiesAvailable: []string{"power", "heat", "water"},
		},
	}
}

// StartLocation is where a new game begins.
const StartLocation = "room_001"

var starterItems = []struct {
	itemID    string
	condition int
	placedIn  string
	slot      string
}{
	{"bed_basic", 50, "room_001", "floor"},
	{"desk_worn", 45, "room_001", "wall"},
	{"kettle", 50, "kitchen_001", "counter"},
}

var defaultNPCs = []types.NPC{
	{ID: "npc_neighbor_nina", DisplayName: "Nina", Role: "neighbor"},
	{ID: "npc_landlord_park", DisplayName: "Mr. Park", Role: "landlord"},
	{ID: "npc_maint_lee", DisplayName: "Lee", Role: "maintenance"},
}

// NewState creates a fresh simulation state: the registry's spaces (or the
// default building), starter items, three building NPCs with neutral
// relationships, and a game.start event.
func NewState(reg *Registry, seed int64) (*types.State, error) {
	s := &types.State{
		SchemaVersion: 1,
		World:         types.World{Day: 1, Slice: Slices[0], Location: StartLocation, Seed: seed},
		Player: types.Player{
			Actor:         NewActor(),
			MoneyPence:    5000,
			UtilitiesPaid: true,
			CarryCapacity: 12,
			Flags:         map[string]int{},
			Habits:        map[string]int{},
		},
		Utilities:   map[string]bool{},
		Spaces:      map[string]types.Space{},
		NPCs:        map[string]*types.NPC{},
		EventLogCap: events.DefaultCap,
	}
	for _, u := range UtilityNames {
		s.Utilities[u] = true
	}

	spaces := reg.Spaces
	if len(spaces) == 0 {
		spaces = DefaultSpaces()
	}
	for id, sp := range spaces {
		s.Spaces[id] = sp
	}
	if _, ok := s.Spaces[s.World.Location]; !ok {
		return nil, fmt.Errorf("starting location %q does not exist in world spaces", s.World.Location)
	}

	for _, it := range starterItems {
		item := NewItem(s, reg, it.itemID, it.placedIn)
		item.ConditionValue = it.condition
		item.Slot = it.slot
	}

	for _, n := range defaultNPCs {
		npc := n
		npc.Actor = NewActor()
		npc.Relationships["player"] = 0
		s.NPCs[npc.ID] = &npc
		s.Player.Relationships[npc.ID] = 0
	}

	events.Log(s, "game.start", map[string]any{"day": s.World.Day, "slice": s.World.Slice})
	return s, nil
}

// itemNamespace scopes instance ids generated from a world seed.
var itemNamespace = uuid.MustParse("6f1c2a4e-8d3b-4f7a-9c2e-5b1d0e7a3c91")

// NextInstanceID returns the next deterministic item instance id. The same
// seed and creation order always produce the same ids.
func NextInstanceID(s *types.State) string {
	s.ItemSerial++
	return uuid.NewSHA1(itemNamespace, []byte(fmt.Sprintf("%d/%d", s.World.Seed, s.ItemSerial))).String()
}

// NewItem instantiates an item of kind itemID at placedIn with full
// condition and the kind's quality and bulk, and adds it to the state.
func NewItem(s *types.State, reg *Registry, itemID, placedIn string) *types.Item {
	quality, bulk := 1.0, 1
	if meta, ok := reg.ItemMeta(itemID); ok {
		if meta.Quality > 0 {
			quality = meta.Quality
		}
		if meta.Bulk > 0 {
			bulk = meta.Bulk
		}
	}
	slot := "floor"
	if placedIn == types.Inventory {
		slot = types.Inventory
	}
	it := &types.Item{
		InstanceID:     NextInstanceID(s),
		ItemID:         itemID,
		PlacedIn:       placedIn,
		Slot:           slot,
		ConditionValue: 100,
		Quality:        quality,
		Bulk:           bulk,
	}
	s.Items = append(s.Items, it)
	return it
}

// FindItem returns the item with the given instance id.
func FindItem(s *types.State, instanceID string) *types.Item {
	for _, it := range s.Items {
		if it.InstanceID == instanceID {
			return it
		}
	}
	return nil
}

// RemoveItem deletes an item instance from the world. Returns false if no
// such instance exists.
func RemoveItem(s *types.State, instanceID string) bool {
	for i, it := range s.Items {
		if it.InstanceID == instanceID {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			return true
		}
	}
	return false
}

// ItemsAt returns the items placed in a location, in world order.
func ItemsAt(s *types.State, location string) []*types.Item {
	var out []*types.Item
	for _, it := range s.Items {
		if it.PlacedIn == location {
			out = append(out, it)
		}
	}
	return out
}

// IsReachable reports whether the player can use an item right now: it is
// carried or lies at the current location.
func IsReachable(s *types.State, it *types.Item) bool {
	return it.PlacedIn == types.Inventory || it.PlacedIn == s.World.Location
}

// ReachableItems returns carried items followed by items at the current
// location.
func ReachableItems(s *types.State) []*types.Item {
	out := ItemsAt(s, types.Inventory)
	if s.World.Location != types.Inventory {
		out = append(out, ItemsAt(s, s.World.Location)...)
	}
	return out
}

// ProviderScore ranks items that provide the same capability.
func ProviderScore(it *types.Item) float64 {
	return float64(it.ConditionValue) + it.Quality*10
}

// BestProvider returns the reachable item with the highest provider score
// whose kind provides capability, or nil. Ties keep the earliest item.
func BestProvider(s *types.State, reg *Registry, capability string) *types.Item {
	return BestProviderExcept(s, reg, capability, nil)
}

// BestProviderExcept is BestProvider ignoring the instances in skip.
func BestProviderExcept(s *types.State, reg *Registry, capability string, skip map[string]bool) *types.Item {
	var best *types.Item
	bestScore := -1.0
	for _, it := range ReachableItems(s) {
		if skip[it.InstanceID] || !reg.Provides(it.ItemID, capability) {
			continue
		}
		if score := ProviderScore(it); score > bestScore {
			best, bestScore = it, score
		}
	}
	return best
}

// HasItemKind reports whether an item of kind itemID is reachable.
func HasItemKind(s *types.State, itemID string) bool {
	for _, it := range ReachableItems(s) {
		if it.ItemID == itemID {
			return true
		}
	}
	return false
}

// InventoryBulk is the total bulk the player carries.
func InventoryBulk(s *types.State) int {
	total := 0
	for _, it := range ItemsAt(s, types.Inventory) {
		total += it.Bulk
	}
	return total
}

// CanCarry reports whether the player has room for bulk more.
func CanCarry(s *types.State, bulk int) bool {
	return InventoryBulk(s)+bulk <= s.Player.CarryCapacity
}

// SkillValue returns an actor's skill value, 0 if the skill is absent.
func SkillValue(a *types.Actor, name string) float64 {
	return a.Skills[name].Value
}

// Health derives the player's health from illness and injury.
func Health(a *types.Actor) float64 {
	return 100 - float64(a.Needs["illness"]+a.Needs["injury"])*0.5
}

// AdjustNeed adds delta to a need, clamped to [0, 100].
func AdjustNeed(a *types.Actor, need string, delta int) {
	if a.Needs == nil {
		a.Needs = map[string]int{}
	}
	a.Needs[need] = Clamp100(a.Needs[need] + delta)
}

// NPCIDs returns the state's NPC ids in sorted order.
func NPCIDs(s *types.State) []string {
	ids := make([]string, 0, len(s.NPCs))
	for id := range s.NPCs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
