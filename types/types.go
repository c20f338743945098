// Package types defines the shared data structures for the RoomLife rules core.
// It holds type definitions only, with no logic and no methods.
package types

// ActionKind selects how the engine executes an action. The set is closed;
// content declares one per action and the loader rejects anything else.
type ActionKind string

const (
	KindGeneric  ActionKind = "generic"
	KindMove     ActionKind = "move"
	KindRepair   ActionKind = "repair"
	KindPurchase ActionKind = "purchase"
	KindSell     ActionKind = "sell"
	KindDiscard  ActionKind = "discard"
	KindPickup   ActionKind = "pickup"
	KindDrop     ActionKind = "drop"
)

// ActionSpec is the immutable, content-authored definition of one action.
type ActionSpec struct {
	ID          string          `yaml:"id"`
	DisplayName string          `yaml:"display_name"`
	Description string          `yaml:"description"`
	Category    string          `yaml:"category"`
	Kind        ActionKind      `yaml:"kind"`
	TimeMinutes int             `yaml:"time_minutes"`
	Requires    Requirements    `yaml:"requires"`
	Modifiers   Modifiers       `yaml:"modifiers"`
	Outcomes    map[int]Outcome `yaml:"outcomes"`
	Consumes    *Consumes       `yaml:"consumes"`
	Parameters  []ParamSpec     `yaml:"parameters"`
	Dynamic     Dynamic         `yaml:"dynamic"`

	// Source is "file:line" of the definition that won the merge.
	Source string `yaml:"-"`
}

// Requirements is the hard predicate tree of an action.
type Requirements struct {
	MoneyPence int                 `yaml:"money_pence"`
	Utilities  UtilityRequirement  `yaml:"utilities"`
	Location   LocationRequirement `yaml:"location"`
	Items      ItemRequirement     `yaml:"items"`
	SkillsMin  map[string]float64  `yaml:"skills_min"`
}

type UtilityRequirement struct {
	AllTrue []string `yaml:"all_true"`
}

type LocationRequirement struct {
	AnySpaceTags    []string `yaml:"any_space_tags"`
	RequiresFixture string   `yaml:"requires_fixture"`
}

type ItemRequirement struct {
	AnyProvides []string `yaml:"any_provides"`
	AllProvides []string `yaml:"all_provides"`
	HasItemIDs  []string `yaml:"has_item_ids"`
}

// Modifiers is the soft scoring tree fed to the tier resolver.
// Nil pointers mean "use the default".
type Modifiers struct {
	PrimarySkill        string             `yaml:"primary_skill"`
	AptitudeWeight      *float64           `yaml:"aptitude_weight"`
	SecondarySkills     map[string]float64 `yaml:"secondary_skills"`
	Traits              map[string]float64 `yaml:"traits"`
	ItemProvidesWeights map[string]float64 `yaml:"item_provides_weights"`
	TierFloor           *int               `yaml:"tier_floor"`
}

// Outcome is one row of an action's outcome table.
type Outcome struct {
	Deltas Deltas      `yaml:"deltas"`
	Grants Grants      `yaml:"grants"`
	Events []EventSpec `yaml:"events"`
	Social *SocialSpec `yaml:"social"`
}

type Deltas struct {
	Needs      map[string]int     `yaml:"needs"`
	MoneyPence int                `yaml:"money_pence"`
	SkillsXP   map[string]float64 `yaml:"skills_xp"`
	Flags      map[string]int     `yaml:"flags"`
}

type Grants struct {
	Items []ItemGrant `yaml:"items"`
}

// ItemGrant instantiates Quantity new items. An empty PlacedIn means the
// actor's current location.
type ItemGrant struct {
	ItemID   string `yaml:"item_id"`
	Quantity int    `yaml:"quantity"`
	PlacedIn string `yaml:"placed_in"`
}

// EventSpec is an event declared by content, logged verbatim on apply.
type EventSpec struct {
	ID     string         `yaml:"id"`
	Params map[string]any `yaml:"params"`
}

// SocialSpec describes relationship movement between the actor and the
// counterpart named by the call's npc_id parameter.
type SocialSpec struct {
	RelToTarget        int    `yaml:"rel_to_target"`
	RelToActorOnTarget int    `yaml:"rel_to_actor_on_target"`
	MemoryTag          string `yaml:"memory_tag"`
}

// Consumes is the resource cost of an action.
type Consumes struct {
	MoneyPence     int             `yaml:"money_pence"`
	InventoryItems []ItemQuantity  `yaml:"inventory_items"`
	ItemDurability *DurabilityCost `yaml:"item_durability"`
}

type ItemQuantity struct {
	ItemID   string `yaml:"item_id"`
	Quantity int    `yaml:"quantity"`
}

type DurabilityCost struct {
	Provides string `yaml:"provides"`
	Amount   int    `yaml:"amount"`
}

// Parameter type tags.
const (
	ParamSpaceID = "space_id"
	ParamItemRef = "item_ref"
	ParamString  = "string"
)

type ParamSpec struct {
	Name        string           `yaml:"name"`
	Type        string           `yaml:"type"`
	Required    bool             `yaml:"required"`
	Constraints ParamConstraints `yaml:"constraints"`
}

type ParamConstraints struct {
	Reachable   bool `yaml:"reachable"`
	InInventory bool `yaml:"in_inventory"`
}

// Dynamic holds derived-cost formulas and scheduling flags.
type Dynamic struct {
	Formulas map[string]string `yaml:"formulas"`
	NPC      *NPCDynamic       `yaml:"npc"`
	Director *DirectorDynamic  `yaml:"director"`
}

type NPCDynamic struct {
	Initiates     bool     `yaml:"initiates"`
	Roles         []string `yaml:"roles"`
	AllowedSlices []string `yaml:"allowed_slices"`
	CooldownDays  int      `yaml:"cooldown_days"`
	Weight        float64  `yaml:"weight"`
}

type DirectorDynamic struct {
	Suggest      bool     `yaml:"suggest"`
	Tags         []string `yaml:"tags"`
	CooldownDays int      `yaml:"cooldown_days"`
}

// ItemMeta is per-kind capability metadata. Never mutated.
type ItemMeta struct {
	ID                string      `yaml:"id"`
	Name              string      `yaml:"name"`
	Description       string      `yaml:"description"`
	Tags              []string    `yaml:"tags"`
	Provides          []string    `yaml:"provides"`
	RequiresUtilities []string    `yaml:"requires_utilities"`
	Durability        *Durability `yaml:"durability"`
	Price             int         `yaml:"price"`
	Quality           float64     `yaml:"quality"`
	Bulk              int         `yaml:"bulk"`
}

type Durability struct {
	Max                  int `yaml:"max"`
	DegradePerUseDefault int `yaml:"degrade_per_use_default"`
}

// Space is a node of the world graph.
type Space struct {
	ID                 string   `yaml:"id" json:"id"`
	Name               string   `yaml:"name" json:"name"`
	Kind               string   `yaml:"kind" json:"kind"`
	BaseTemperatureC   int      `yaml:"base_temperature_c" json:"base_temperature_c"`
	HasWindow          bool     `yaml:"has_window" json:"has_window"`
	Connections        []string `yaml:"connections" json:"connections"`
	Tags               []string `yaml:"tags" json:"tags"`
	Fixtures           []string `yaml:"fixtures" json:"fixtures"`
	UtilitiesAvailable []string `yaml:"utilities_available" json:"utilities_available"`
}

// Inventory is the PlacedIn sentinel for items the player carries.
const Inventory = "inventory"

// Item is a concrete world object. Its condition label is derived from
// ConditionValue on demand and never stored.
type Item struct {
	InstanceID     string  `json:"instance_id" yaml:"instance_id"`
	ItemID         string  `json:"item_id" yaml:"item_id"`
	PlacedIn       string  `json:"placed_in" yaml:"placed_in"`
	Container      string  `json:"container,omitempty" yaml:"container,omitempty"`
	Slot           string  `json:"slot" yaml:"slot"`
	ConditionValue int     `json:"condition_value" yaml:"condition_value"`
	Quality        float64 `json:"quality" yaml:"quality"`
	Bulk           int     `json:"bulk" yaml:"bulk"`
}

type Skill struct {
	Value    float64 `json:"value" yaml:"value"`
	RustRate float64 `json:"rust_rate" yaml:"rust_rate"`
	LastTick int     `json:"last_tick" yaml:"last_tick"`
}

type MemoryEntry struct {
	Day       int    `json:"day" yaml:"day"`
	ActionID  string `json:"action_id" yaml:"action_id"`
	Other     string `json:"other_id" yaml:"other_id"`
	Initiator string `json:"initiator" yaml:"initiator"`
	Tier      int    `json:"tier" yaml:"tier"`
	Tag       string `json:"tag" yaml:"tag"`
}

// Actor is the state shared by the player and NPCs.
type Actor struct {
	Skills        map[string]Skill   `json:"skills" yaml:"skills"`
	Aptitudes     map[string]float64 `json:"aptitudes" yaml:"aptitudes"`
	Traits        map[string]int     `json:"traits" yaml:"traits"`
	Needs         map[string]int     `json:"needs" yaml:"needs"`
	Relationships map[string]int     `json:"relationships" yaml:"relationships"`
	Memory        []MemoryEntry      `json:"memory" yaml:"memory"`
}

type Player struct {
	Actor         `yaml:",inline"`
	MoneyPence    int            `json:"money_pence" yaml:"money_pence"`
	UtilitiesPaid bool           `json:"utilities_paid" yaml:"utilities_paid"`
	CarryCapacity int            `json:"carry_capacity" yaml:"carry_capacity"`
	Flags         map[string]int `json:"flags" yaml:"flags"`
	Habits        map[string]int `json:"habits" yaml:"habits"`
	Goals         []Goal         `json:"goals" yaml:"goals"`
	Encounter     string         `json:"encounter,omitempty" yaml:"encounter,omitempty"`
}

type NPC struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Role        string `json:"role" yaml:"role"`
	Actor       `yaml:",inline"`
}

// World is the turn context.
type World struct {
	Day      int    `json:"day" yaml:"day"`
	Slice    string `json:"slice" yaml:"slice"`
	Location string `json:"location" yaml:"location"`
	Seed     int64  `json:"seed" yaml:"seed"`
}

// State is the complete mutable simulation state.
type State struct {
	SchemaVersion int              `json:"schema_version" yaml:"schema_version"`
	World         World            `json:"world" yaml:"world"`
	Player        Player           `json:"player" yaml:"player"`
	Utilities     map[string]bool  `json:"utilities" yaml:"utilities"`
	Spaces        map[string]Space `json:"spaces" yaml:"spaces"`
	Items         []*Item          `json:"items" yaml:"items"`
	NPCs          map[string]*NPC  `json:"npcs" yaml:"npcs"`
	EventLog      []Event          `json:"event_log" yaml:"event_log"`
	EventLogCap   int              `json:"event_log_cap" yaml:"event_log_cap"`
	// EventSeq counts every event ever logged, evicted ones included.
	EventSeq      int              `json:"event_seq" yaml:"event_seq"`
	ItemSerial    int              `json:"item_serial" yaml:"item_serial"`
}

// Event is a structured log record.
type Event struct {
	ID     string         `json:"event_id" yaml:"event_id"`
	Params map[string]any `json:"params" yaml:"params"`
}

// ActionCall is the explicit call shape: an action id plus parameters.
type ActionCall struct {
	ActionID string         `json:"action_id" yaml:"action_id"`
	Params   map[string]any `json:"params" yaml:"params"`
}

// Item reference modes.
const (
	RefInstanceID = "instance_id"
	RefByItemID   = "by_item_id"
)

// ItemRef names an item either by instance or by kind.
type ItemRef struct {
	Mode       string `json:"mode" yaml:"mode"`
	InstanceID string `json:"instance_id,omitempty" yaml:"instance_id,omitempty"`
	ItemID     string `json:"item_id,omitempty" yaml:"item_id,omitempty"`
}

// Validation is a player-facing pass/fail. Missing is empty iff Valid.
type Validation struct {
	Valid   bool     `json:"valid" yaml:"valid"`
	Reason  string   `json:"reason,omitempty" yaml:"reason,omitempty"`
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

type DeltaRanges struct {
	Needs      map[string]Range `json:"needs" yaml:"needs"`
	MoneyPence *Range           `json:"money_pence,omitempty" yaml:"money_pence,omitempty"`
}

// Preview describes the likely result of an action without applying it.
type Preview struct {
	TierDistribution map[int]float64 `json:"tier_distribution" yaml:"tier_distribution"`
	DeltaRanges      DeltaRanges     `json:"delta_ranges" yaml:"delta_ranges"`
	Notes            []string        `json:"notes" yaml:"notes"`
}

// Goal is a Director suggestion for the current day.
type Goal struct {
	ActionID   string     `json:"action_id" yaml:"action_id"`
	Validation Validation `json:"validation" yaml:"validation"`
	Preview    Preview    `json:"preview" yaml:"preview"`
}

// ActionResult is the output of one action call.
type ActionResult struct {
	ActionID   string
	Validation Validation
	Tier       int // -1 when the action did not resolve a tier
	Events     []Event
}

// Intent is the parsed representation of a typed command.
type Intent struct {
	Verb   string
	Object string            // optional
	Params map[string]string // optional key=value arguments
}

// Result is the output of one turn: the action outcome, if any, the events
// the turn logged, and text for the player.
type Result struct {
	Action *ActionResult
	Events []Event
	Output []string
	Err    error // content or consistency fault, if any
}

// CatalogEntry is one action the player could attempt right now, with its
// call already filled in.
type CatalogEntry struct {
	Call        ActionCall `json:"call" yaml:"call"`
	Label       string     `json:"label" yaml:"label"`
	Category    string     `json:"category" yaml:"category"`
	Validation  Validation `json:"validation" yaml:"validation"`
	Preview     *Preview   `json:"preview,omitempty" yaml:"preview,omitempty"`
	TimeMinutes int        `json:"time_minutes" yaml:"time_minutes"`
}
