// Package director proposes a handful of suggested actions each day,
// weighted toward whatever the player's needs are pressing for, each with a
// preview of how it is likely to go.
package director

import (
	"sort"

	"github.com/nathoo/roomlife/engine/events"
	"github.com/nathoo/roomlife/engine/rng"
	"github.com/nathoo/roomlife/engine/rules"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/engine/tier"
	"github.com/nathoo/roomlife/types"
)

// Goal counts.
const (
	MinGoals = 2
	MaxGoals = 4
)

// Flags recording Director state.
const (
	SeededDayFlag  = "director.seeded_day"
	CooldownPrefix = "director.cooldown."
)

// needPressure raises an action's urgency for every outcome row that
// touches a need past its threshold.
var needPressure = []struct {
	need  string
	above bool
	limit int
	bonus float64
}{
	{"hunger", true, 60, 2},
	{"fatigue", true, 60, 2},
	{"hygiene", true, 60, 1.5},
	{"stress", true, 50, 1.5},
	{"mood", false, 40, 1},
}

// Scored is a candidate action and its urgency.
type Scored struct {
	ActionID string
	Score    float64
}

// Urgency scores spec against the player's current needs and money.
func Urgency(s *types.State, spec *types.ActionSpec) float64 {
	score := 1.0
	needs := s.Player.Needs

	for t := 0; t <= tier.MaxTier; t++ {
		out, ok := spec.Outcomes[t]
		if !ok {
			continue
		}
		for _, p := range needPressure {
			if _, touches := out.Deltas.Needs[p.need]; !touches {
				continue
			}
			v := needs[p.need]
			if (p.above && v > p.limit) || (!p.above && v < p.limit) {
				score += p.bonus
			}
		}
	}

	if spec.Dynamic.Director != nil {
		for _, tag := range spec.Dynamic.Director.Tags {
			switch tag {
			case "selfcare":
				if needs["hygiene"] > 50 || needs["mood"] < 50 {
					score += 1
				}
			case "chore":
				score += 0.5
			case "finance":
				if s.Player.MoneyPence < 2000 {
					score += 1.5
				}
			}
		}
	}
	return score
}

// Rank returns every suggestible action not cooling down, most urgent first,
// ties broken by id.
func Rank(s *types.State, reg *state.Registry) []Scored {
	var out []Scored
	for _, id := range reg.ActionIDs() {
		spec := reg.Actions[id]
		dyn := spec.Dynamic.Director
		if dyn == nil || !dyn.Suggest {
			continue
		}
		if last, ok := s.Player.Flags[CooldownPrefix+id]; ok && dyn.CooldownDays > 0 && s.World.Day-last < dyn.CooldownDays {
			continue
		}
		out = append(out, Scored{ActionID: id, Score: Urgency(s, spec)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ActionID < out[j].ActionID
	})
	return out
}

// Validator decides whether the player may attempt spec with params.
type Validator func(spec *types.ActionSpec, params map[string]any) types.Validation

// SeedGoals picks today's goals by urgency-weighted sampling without
// replacement, attaches a validation and a preview to each, stores them on
// the player, and logs director.goals_seeded. Seeding twice on one day
// returns the goals already chosen. A nil validate checks the requirement
// families only.
func SeedGoals(s *types.State, reg *state.Registry, validate Validator) []types.Goal {
	if validate == nil {
		validate = func(spec *types.ActionSpec, params map[string]any) types.Validation {
			return rules.Validate(s, reg, spec, params)
		}
	}
	day := s.World.Day
	if last, ok := s.Player.Flags[SeededDayFlag]; ok && last == day {
		return s.Player.Goals
	}

	ranked := Rank(s, reg)
	n := len(ranked)
	if n > MaxGoals {
		n = MaxGoals
	}
	if n < MinGoals {
		n = MinGoals
	}
	weights := make([]float64, len(ranked))
	for i, r := range ranked {
		weights[i] = r.Score
	}
	picks := rng.New(tier.Seed(s.World.Seed, day, "director")).SampleWithoutReplacement(weights, n)

	if s.Player.Flags == nil {
		s.Player.Flags = map[string]int{}
	}
	actor := tier.PlayerActor(s)
	goals := make([]types.Goal, 0, len(picks))
	ids := make([]string, 0, len(picks))
	for _, idx := range picks {
		spec := reg.Actions[ranked[idx].ActionID]
		goals = append(goals, types.Goal{
			ActionID:   spec.ID,
			Validation: validate(spec, nil),
			Preview: types.Preview{
				TierDistribution: tier.PreviewDistribution(actor, s, reg, spec, tier.Seed(s.World.Seed, day, spec.ID), tier.DefaultSamples),
				DeltaRanges:      tier.DeltaRanges(spec),
				Notes:            tier.PreviewNotes(actor, s, reg, spec),
			},
		})
		ids = append(ids, spec.ID)
		if spec.Dynamic.Director.CooldownDays > 0 {
			s.Player.Flags[CooldownPrefix+spec.ID] = day
		}
	}

	s.Player.Goals = goals
	s.Player.Flags[SeededDayFlag] = day
	events.Log(s, "director.goals_seeded", map[string]any{
		"goal_action_ids": ids,
		"day":             day,
	})
	return goals
}
