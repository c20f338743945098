package engine

import (
	"fmt"

	"github.com/nathoo/roomlife/engine/director"
	"github.com/nathoo/roomlife/engine/effects"
	"github.com/nathoo/roomlife/engine/events"
	"github.com/nathoo/roomlife/engine/npc"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// Per-slice environment pressure.
const (
	HungerPerSlice  = 8
	FatiguePerSlice = 6
	HygienePerSlice = 4
	WarmthPerSlice  = 4
	NoWaterHygiene  = 8
	NoHeatWarmth    = 10
	ExtremeNeed     = 80
	ColdWarmth      = 20
	HealthCritical  = 30
	HealthWarning   = 50
	NoiseChance     = 0.05
	AccidentChance  = 0.02
)

// IllnessRecovery is illness shed per calm slice before stoicism.
const IllnessRecovery = 1.0

// AdvanceTime moves the clock forward n slices. Each slice runs the
// environment; each day rollover seeds the Director's goals and then gives
// the building a chance to act. Content faults raised by the daily systems
// are returned after the clock has moved.
func (e *Engine) AdvanceTime(n int) error {
	s := e.State
	for i := 0; i < n; i++ {
		idx := state.SliceIndex(s.World.Slice) + 1
		newDay := idx >= len(state.Slices)
		if newDay {
			idx = 0
			s.World.Day++
		}
		s.World.Slice = state.Slices[idx]

		if newDay {
			events.Log(s, "time.new_day", map[string]any{"day": s.World.Day})
			e.logger().Info("new day", "day", s.World.Day)
		}
		events.Log(s, "time.advance", map[string]any{"day": s.World.Day, "slice": s.World.Slice})
		e.applyEnvironment()

		if newDay {
			if err := e.startDay(); err != nil {
				return err
			}
		}
	}
	return nil
}

// startDay runs the daily systems in order: goals first, so the day's
// suggestions reflect the state before any building event lands.
func (e *Engine) startDay() error {
	goals := director.SeedGoals(e.State, e.Reg, e.Validate)
	e.logger().Debug("goals seeded", "day", e.State.World.Day, "count", len(goals))

	res, err := npc.BuildingEvent(e.State, e.Reg)
	if err != nil {
		e.logger().Error("building event failed", "day", e.State.World.Day, "err", err)
		return err
	}
	if res != nil {
		e.logger().Debug("building event", "npc_id", res.NPCID, "action_id", res.ActionID, "tier", res.Tier)
	}
	return nil
}

// applyEnvironment applies one slice of needs drift, utility effects,
// health bookkeeping, and random building incidents to the player.
func (e *Engine) applyEnvironment() {
	s := e.State
	p := &s.Player.Actor

	effects.ApplySkillRust(p, state.Tick(s.World))
	effects.ApplyTraitDrift(s)

	for _, u := range state.UtilityNames {
		s.Utilities[u] = s.Player.UtilitiesPaid
	}

	state.AdjustNeed(p, "hunger", HungerPerSlice)
	state.AdjustNeed(p, "fatigue", FatiguePerSlice)

	if s.Utilities["water"] {
		state.AdjustNeed(p, "hygiene", -HygienePerSlice)
	} else {
		state.AdjustNeed(p, "hygiene", -NoWaterHygiene)
		state.AdjustNeed(p, "mood", -2)
		events.Log(s, "utility.no_water", nil)
	}

	if s.Utilities["heat"] {
		state.AdjustNeed(p, "warmth", WarmthPerSlice)
	} else {
		state.AdjustNeed(p, "warmth", -NoHeatWarmth)
		state.AdjustNeed(p, "mood", -3)
		events.Log(s, "utility.no_heat", nil)
	}

	if !s.Utilities["power"] {
		state.AdjustNeed(p, "mood", -2)
		events.Log(s, "utility.no_power", nil)
	}

	energy := 100 - p.Needs["fatigue"] + int(float64(p.Traits["fitness"]-50)*0.2)
	p.Needs["energy"] = state.Clamp100(energy)

	e.applyHealth(p)
	e.applyIncidents(p)
}

// applyHealth raises illness from extreme needs and cold, recovers it
// otherwise, and warns when health runs low.
func (e *Engine) applyHealth(p *types.Actor) {
	s := e.State

	illness := 0
	var extreme []string
	for _, need := range []struct {
		name string
		add  int
	}{
		{"hunger", 2}, {"fatigue", 2}, {"hygiene", 2}, {"stress", 1},
	} {
		if p.Needs[need.name] > ExtremeNeed {
			extreme = append(extreme, need.name)
			illness += need.add
		}
	}
	if p.Needs["warmth"] < ColdWarmth {
		extreme = append(extreme, "cold")
		illness += 2
	}

	if illness > 0 {
		state.AdjustNeed(p, "illness", illness)
		events.Log(s, "health.degradation", map[string]any{
			"extreme_needs": extreme,
			"illness":       p.Needs["illness"],
			"injury":        p.Needs["injury"],
		})
	} else if p.Needs["illness"] > 0 {
		recovery := IllnessRecovery * (1 + float64(p.Traits["stoicism"])/100*0.5)
		state.AdjustNeed(p, "illness", -int(recovery))
	}

	health := state.Health(p)
	p.Needs["health"] = state.Clamp100(int(health))
	switch {
	case health < HealthCritical:
		events.Log(s, "health.critical", map[string]any{"health": int(health)})
		e.logger().Warn("player health critical", "health", health)
	case health < HealthWarning:
		events.Log(s, "health.warning", map[string]any{"health": int(health)})
	}
}

// applyIncidents rolls building noise and household accidents from the
// turn's RNG stream.
func (e *Engine) applyIncidents(p *types.Actor) {
	s := e.State
	if e.RNG.Float() < NoiseChance {
		events.Log(s, "building.noise", map[string]any{"severity": "low"})
	}
	if e.RNG.Float() < AccidentChance {
		injury := 5 + e.RNG.Intn(11)
		state.AdjustNeed(p, "injury", injury)
		events.Log(s, "health.injury", map[string]any{
			"amount": injury,
			"cause":  fmt.Sprintf("accident at %s", s.World.Location),
		})
	}
}
