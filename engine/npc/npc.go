// Package npc schedules building NPCs: the once-a-day building event, in
// which an NPC initiates an action that lands on the player, and chance
// hallway encounters.
package npc

import (
	"fmt"

	"github.com/nathoo/roomlife/engine/effects"
	"github.com/nathoo/roomlife/engine/events"
	"github.com/nathoo/roomlife/engine/rng"
	"github.com/nathoo/roomlife/engine/rules"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/engine/tier"
	"github.com/nathoo/roomlife/types"
)

// DefaultRoles are the NPC roles an initiating action targets when it names
// none.
var DefaultRoles = []string{"neighbor", "landlord", "maintenance"}

// Flags recording what already happened.
const (
	EventDayFlag      = "npc.event_day"
	CooldownPrefix    = "npc.cooldown."
	EncounterPrefix   = "encounter.today."
	HallwayTag        = "hallway"
	EncounterChance   = 0.15
	encounterSliceMul = 13
)

// ParamNPCID is the call parameter naming the NPC counterpart of an action.
const ParamNPCID = "npc_id"

// Result describes a building event that fired.
type Result struct {
	NPCID    string
	ActionID string
	Tier     int
	Events   []types.Event
}

type candidate struct {
	spec   *types.ActionSpec
	npcID  string
	weight float64
}

// BuildingEvent fires at most one NPC-initiated action for the current day.
// It returns nil when one already fired today or no action qualifies.
// The tier is resolved with the NPC's skills, aptitudes, and traits and the
// player's needs; the outcome applies to the player without consumption.
func BuildingEvent(s *types.State, reg *state.Registry) (*Result, error) {
	day := s.World.Day
	if last, ok := s.Player.Flags[EventDayFlag]; ok && last == day {
		return nil, nil
	}

	cands := candidates(s, reg)
	if len(cands) == 0 {
		return nil, nil
	}

	weights := make([]float64, len(cands))
	for i, c := range cands {
		weights[i] = c.weight
	}
	pick := cands[rng.New(rng.DaySeed(s.World.Seed, day)).WeightedSelect(weights)]

	npc := s.NPCs[pick.npcID]
	actor := tier.NPCActor(npc, &s.Player)
	t := tier.Compute(actor, s, reg, pick.spec, tier.Seed(s.World.Seed, day, pick.spec.ID, npc.ID))

	emitted, err := effects.ApplyOutcome(s, reg, pick.spec, t, effects.Options{
		EmitEvents:   true,
		NPCID:        npc.ID,
		NPCInitiated: true,
	})
	if err != nil {
		return nil, fmt.Errorf("npc event %s by %s: %w", pick.spec.ID, npc.ID, err)
	}

	if s.Player.Flags == nil {
		s.Player.Flags = map[string]int{}
	}
	s.Player.Flags[EventDayFlag] = day
	s.Player.Flags[CooldownPrefix+pick.spec.ID] = day

	emitted = append(emitted, events.Log(s, "npc.event", map[string]any{
		"npc_id":    npc.ID,
		"npc_name":  npc.DisplayName,
		"npc_role":  npc.Role,
		"action_id": pick.spec.ID,
		"tier":      t,
	}))
	return &Result{NPCID: npc.ID, ActionID: pick.spec.ID, Tier: t, Events: emitted}, nil
}

// candidates returns the NPC-initiated actions eligible right now, in
// action id order, each paired with the NPC that would initiate it.
func candidates(s *types.State, reg *state.Registry) []candidate {
	day := s.World.Day
	var out []candidate
	for _, id := range reg.ActionIDs() {
		spec := reg.Actions[id]
		dyn := spec.Dynamic.NPC
		if dyn == nil || !dyn.Initiates {
			continue
		}
		// Only generic actions run in NPC scope; bespoke kinds act on the
		// player's own location and purse.
		if spec.Kind != "" && spec.Kind != types.KindGeneric {
			continue
		}
		if len(dyn.AllowedSlices) > 0 && !contains(dyn.AllowedSlices, s.World.Slice) {
			continue
		}
		if coolingDown(s, id, dyn.CooldownDays, day) {
			continue
		}

		roles := dyn.Roles
		if len(roles) == 0 {
			roles = DefaultRoles
		}
		var matches []string
		for _, npcID := range state.NPCIDs(s) {
			if contains(roles, s.NPCs[npcID].Role) {
				matches = append(matches, npcID)
			}
		}
		if len(matches) == 0 {
			continue
		}
		npcID := rng.New(tier.Seed(s.World.Seed, day, id)).Choice(matches)

		if v := rules.Validate(s, reg, spec, map[string]any{ParamNPCID: npcID}); !v.Valid {
			continue
		}

		weight := dyn.Weight
		if weight <= 0 {
			weight = 1
		}
		out = append(out, candidate{spec: spec, npcID: npcID, weight: weight})
	}
	return out
}

func coolingDown(s *types.State, actionID string, cooldownDays, day int) bool {
	last, ok := s.Player.Flags[CooldownPrefix+actionID]
	if !ok {
		return false
	}
	if cooldownDays < 1 {
		cooldownDays = 1
	}
	return day-last < cooldownDays
}

// Encounter rolls for a chance meeting when the player has just entered a
// hallway. At most one encounter happens per day. Returns the logged
// event, or nil.
func Encounter(s *types.State) *types.Event {
	space, ok := s.Spaces[s.World.Location]
	if !ok || !contains(space.Tags, HallwayTag) {
		return nil
	}
	flag := fmt.Sprintf("%s%d", EncounterPrefix, s.World.Day)
	if _, done := s.Player.Flags[flag]; done {
		return nil
	}

	seed := rng.DaySeed(s.World.Seed, s.World.Day) +
		int64(state.SliceIndex(s.World.Slice)*encounterSliceMul) +
		rng.StableHash(space.ID)
	r := rng.New(seed)
	if r.Float() >= EncounterChance {
		return nil
	}
	ids := state.NPCIDs(s)
	if len(ids) == 0 {
		return nil
	}
	npc := s.NPCs[r.Choice(ids)]

	if s.Player.Flags == nil {
		s.Player.Flags = map[string]int{}
	}
	s.Player.Flags[flag] = 1
	s.Player.Encounter = npc.ID

	ev := events.Log(s, "npc.encounter", map[string]any{
		"npc_id":   npc.ID,
		"npc_name": npc.DisplayName,
		"npc_role": npc.Role,
		"space_id": space.ID,
	})
	return &ev
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
