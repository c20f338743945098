// Package save implements the state boundary: a read-only Snapshot for
// display, and JSON or YAML save files holding the full state.
package save

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/roomlife/engine/events"
	"github.com/nathoo/roomlife/engine/social"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// SchemaVersion is the save format this build reads and writes.
const SchemaVersion = 1

// RecentEvents is how many events a snapshot carries.
const RecentEvents = 6

// Format is a save file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from a file extension; JSON unless the
// path ends in .yaml or .yml.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Save encodes the full state.
func Save(s *types.State, f Format) ([]byte, error) {
	if f == FormatYAML {
		return yaml.Marshal(s)
	}
	return json.MarshalIndent(s, "", "  ")
}

// Load decodes a state and restores the invariants a fresh state has:
// every map allocated and the location present in the world.
func Load(data []byte, f Format) (*types.State, error) {
	var s types.State
	var err error
	if f == FormatYAML {
		err = yaml.Unmarshal(data, &s)
	} else {
		err = json.Unmarshal(data, &s)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s save: %w", f, err)
	}
	if s.SchemaVersion != SchemaVersion {
		return nil, fmt.Errorf("save schema version %d, want %d", s.SchemaVersion, SchemaVersion)
	}
	normalize(&s)
	if _, ok := s.Spaces[s.World.Location]; !ok {
		return nil, fmt.Errorf("save places the player in unknown space %q", s.World.Location)
	}
	return &s, nil
}

func normalize(s *types.State) {
	normalizeActor(&s.Player.Actor)
	if s.Player.Flags == nil {
		s.Player.Flags = map[string]int{}
	}
	if s.Player.Habits == nil {
		s.Player.Habits = map[string]int{}
	}
	if s.Utilities == nil {
		s.Utilities = map[string]bool{}
	}
	if s.Spaces == nil {
		s.Spaces = map[string]types.Space{}
	}
	if s.NPCs == nil {
		s.NPCs = map[string]*types.NPC{}
	}
	for _, n := range s.NPCs {
		normalizeActor(&n.Actor)
	}
	if s.EventLogCap <= 0 {
		s.EventLogCap = events.DefaultCap
	}
}

func normalizeActor(a *types.Actor) {
	if a.Skills == nil {
		a.Skills = map[string]types.Skill{}
	}
	if a.Aptitudes == nil {
		a.Aptitudes = map[string]float64{}
	}
	if a.Traits == nil {
		a.Traits = map[string]int{}
	}
	if a.Needs == nil {
		a.Needs = map[string]int{}
	}
	if a.Relationships == nil {
		a.Relationships = map[string]int{}
	}
}

// WriteFile saves s to path, creating the directory if needed. The
// encoding follows the extension.
func WriteFile(path string, s *types.State) error {
	data, err := Save(s, FormatFor(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating save directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadFile loads a state saved by WriteFile.
func ReadFile(path string) (*types.State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data, FormatFor(path))
}

// Snapshot is a read-only projection of the state for display. It holds
// copies; changing it never changes the state.
type Snapshot struct {
	Day           int                `json:"day" yaml:"day"`
	Slice         string             `json:"slice" yaml:"slice"`
	SpaceID       string             `json:"space_id" yaml:"space_id"`
	SpaceName     string             `json:"space_name" yaml:"space_name"`
	Exits         []string           `json:"exits" yaml:"exits"`
	MoneyPence    int                `json:"money_pence" yaml:"money_pence"`
	UtilitiesPaid bool               `json:"utilities_paid" yaml:"utilities_paid"`
	Utilities     map[string]bool    `json:"utilities" yaml:"utilities"`
	Needs         map[string]int     `json:"needs" yaml:"needs"`
	Traits        map[string]int     `json:"traits" yaml:"traits"`
	Aptitudes     map[string]float64 `json:"aptitudes" yaml:"aptitudes"`
	Skills        []SkillView        `json:"skills" yaml:"skills"`
	ItemsHere     []ItemView         `json:"items_here" yaml:"items_here"`
	Inventory     []ItemView         `json:"inventory" yaml:"inventory"`
	NPCs          []NPCView          `json:"npcs" yaml:"npcs"`
	Encounter     string             `json:"encounter,omitempty" yaml:"encounter,omitempty"`
	Goals         []string           `json:"goals" yaml:"goals"`
	RecentEvents  []types.Event      `json:"recent_events" yaml:"recent_events"`
}

// SkillView is a practiced skill.
type SkillView struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// ItemView is an item with its derived condition label.
type ItemView struct {
	InstanceID     string `json:"instance_id" yaml:"instance_id"`
	ItemID         string `json:"item_id" yaml:"item_id"`
	Name           string `json:"name" yaml:"name"`
	Condition      string `json:"condition" yaml:"condition"`
	ConditionValue int    `json:"condition_value" yaml:"condition_value"`
	Slot           string `json:"slot" yaml:"slot"`
}

// NPCView is a building NPC and how it feels about the player.
type NPCView struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Role         string `json:"role" yaml:"role"`
	Relationship int    `json:"relationship" yaml:"relationship"`
	Standing     string `json:"standing" yaml:"standing"`
}

// Take projects s into a Snapshot.
func Take(s *types.State, reg *state.Registry) Snapshot {
	p := &s.Player
	sp := s.Spaces[s.World.Location]
	name := sp.Name
	if name == "" {
		name = s.World.Location
	}

	snap := Snapshot{
		Day:           s.World.Day,
		Slice:         s.World.Slice,
		SpaceID:       s.World.Location,
		SpaceName:     name,
		Exits:         append([]string(nil), sp.Connections...),
		MoneyPence:    p.MoneyPence,
		UtilitiesPaid: p.UtilitiesPaid,
		Utilities:     copyMap(s.Utilities),
		Needs:         copyMap(p.Needs),
		Traits:        copyMap(p.Traits),
		Aptitudes:     copyMap(p.Aptitudes),
		ItemsHere:     itemViews(reg, state.ItemsAt(s, s.World.Location)),
		Inventory:     itemViews(reg, state.ItemsAt(s, types.Inventory)),
		Encounter:     p.Encounter,
		RecentEvents:  events.Recent(s, RecentEvents),
	}

	for _, sk := range state.SkillNames {
		if v := state.SkillValue(&p.Actor, sk); v > 0 {
			snap.Skills = append(snap.Skills, SkillView{Name: sk, Value: v})
		}
	}
	for _, id := range state.NPCIDs(s) {
		n := s.NPCs[id]
		rel := p.Relationships[id]
		snap.NPCs = append(snap.NPCs, NPCView{
			ID: id, Name: n.DisplayName, Role: n.Role,
			Relationship: rel, Standing: social.Standing(rel),
		})
	}
	for _, g := range p.Goals {
		snap.Goals = append(snap.Goals, g.ActionID)
	}
	return snap
}

func itemViews(reg *state.Registry, items []*types.Item) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		name := it.ItemID
		if meta, ok := reg.ItemMeta(it.ItemID); ok && meta.Name != "" {
			name = meta.Name
		}
		out = append(out, ItemView{
			InstanceID:     it.InstanceID,
			ItemID:         it.ItemID,
			Name:           name,
			Condition:      state.ConditionLabel(it.ConditionValue),
			ConditionValue: it.ConditionValue,
			Slot:           it.Slot,
		})
	}
	return out
}

func copyMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
