// Package tier computes the quality tier of an attempted action from the
// acting actor's skills, aptitudes, and traits, the best reachable items, and
// a seeded perturbation. Every function here is pure.
package tier

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/nathoo/roomlife/engine/rng"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// Score thresholds and perturbation amplitude.
const (
	ThresholdPartial = 25.0
	ThresholdGood    = 55.0
	ThresholdGreat   = 85.0

	// Amplitude is the full width of the random perturbation; the score moves
	// by at most Amplitude/2 either way.
	Amplitude = 16.0

	// DefaultFloor applies when an action declares no tier floor.
	DefaultFloor = 1

	// DefaultSamples is the preview sample count.
	DefaultSamples = 9

	MaxTier = 3
)

// Actor is the view of an acting entity the resolver reads. NPC-initiated
// actions pass the NPC's skills, aptitudes, and traits with the player's
// needs; nothing is swapped on the state.
type Actor struct {
	Skills    map[string]types.Skill
	Aptitudes map[string]float64
	Traits    map[string]int
	Needs     map[string]int
}

// PlayerActor views the player as the actor.
func PlayerActor(s *types.State) Actor {
	return FromActor(&s.Player.Actor)
}

// FromActor views any actor.
func FromActor(a *types.Actor) Actor {
	return Actor{Skills: a.Skills, Aptitudes: a.Aptitudes, Traits: a.Traits, Needs: a.Needs}
}

// NPCActor views npc as the actor while keeping the player's needs, since
// the outcome lands on the player.
func NPCActor(npc *types.NPC, player *types.Player) Actor {
	return Actor{Skills: npc.Skills, Aptitudes: npc.Aptitudes, Traits: npc.Traits, Needs: player.Needs}
}

func (a Actor) skill(name string) float64 {
	return a.Skills[name].Value
}

func (a Actor) aptitude(skill string) float64 {
	apt, ok := state.SkillAptitude[skill]
	if !ok {
		return 1.0
	}
	v, ok := a.Aptitudes[apt]
	if !ok {
		return 1.0
	}
	return v
}

// Seed derives a perturbation seed from the world seed, the day, and any
// number of disambiguating keys (action id, npc id).
func Seed(worldSeed int64, day int, keys ...string) int64 {
	seed := rng.DaySeed(worldSeed, day)
	for _, k := range keys {
		seed += rng.StableHash(k)
	}
	return seed
}

// Floor returns the lowest tier spec may resolve to.
func Floor(spec *types.ActionSpec) int {
	if spec.Modifiers.TierFloor == nil {
		return DefaultFloor
	}
	f := *spec.Modifiers.TierFloor
	if f < 0 {
		return 0
	}
	if f > MaxTier {
		return MaxTier
	}
	return f
}

// BaseScore is the deterministic part of the score.
func BaseScore(a Actor, s *types.State, reg *state.Registry, spec *types.ActionSpec) float64 {
	mods := spec.Modifiers
	score := 0.0

	if mods.PrimarySkill != "" {
		weight := 1.0
		if mods.AptitudeWeight != nil {
			weight = *mods.AptitudeWeight
		}
		apt := a.aptitude(mods.PrimarySkill)
		score += a.skill(mods.PrimarySkill) * (1 + (apt-1)*weight)
	}

	for _, name := range sortedKeys(mods.SecondarySkills) {
		score += a.skill(name) * mods.SecondarySkills[name]
	}

	for _, name := range sortedKeys(mods.Traits) {
		score += float64(a.Traits[name]) / 100 * 100 * mods.Traits[name]
	}

	for _, capability := range sortedKeys(mods.ItemProvidesWeights) {
		it := state.BestProvider(s, reg, capability)
		if it == nil {
			continue
		}
		score += ItemContribution(it) * mods.ItemProvidesWeights[capability]
	}

	return score
}

// ItemContribution is what a providing item adds to the score before its
// weight is applied.
func ItemContribution(it *types.Item) float64 {
	return float64(it.ConditionValue)/100*70 + it.Quality*10
}

// Perturbation returns the seeded random offset in [-Amplitude/2, Amplitude/2).
func Perturbation(seed int64) float64 {
	return (rng.New(seed).Float() - 0.5) * Amplitude
}

// FromScore maps a score onto tiers 0-3.
func FromScore(score float64) int {
	switch {
	case score < ThresholdPartial:
		return 0
	case score < ThresholdGood:
		return 1
	case score < ThresholdGreat:
		return 2
	default:
		return 3
	}
}

// Compute resolves the tier for spec. Identical inputs always yield the same
// tier, and the result is never below the action's floor.
func Compute(a Actor, s *types.State, reg *state.Registry, spec *types.ActionSpec, seed int64) int {
	t := FromScore(BaseScore(a, s, reg, spec) + Perturbation(seed))
	if floor := Floor(spec); t < floor {
		t = floor
	}
	return t
}

// PreviewDistribution samples Compute over seed, seed+1, ... and returns the
// fraction of samples landing in each tier. Every tier 0-3 has a key and the
// values sum to 1.
func PreviewDistribution(a Actor, s *types.State, reg *state.Registry, spec *types.ActionSpec, seed int64, samples int) map[int]float64 {
	if samples <= 0 {
		samples = DefaultSamples
	}
	base := BaseScore(a, s, reg, spec)
	floor := Floor(spec)

	counts := make([]int, MaxTier+1)
	for i := 0; i < samples; i++ {
		t := FromScore(base + Perturbation(seed+int64(i)))
		if t < floor {
			t = floor
		}
		counts[t]++
	}

	dist := make(map[int]float64, MaxTier+1)
	for t, c := range counts {
		dist[t] = float64(c) / float64(samples)
	}
	return dist
}

// DeltaRanges reports the min and max of every need delta and of the money
// delta across the spec's outcome rows.
func DeltaRanges(spec *types.ActionSpec) types.DeltaRanges {
	ranges := types.DeltaRanges{Needs: map[string]types.Range{}}
	for _, t := range sortedTiers(spec.Outcomes) {
		deltas := spec.Outcomes[t].Deltas
		for need, v := range deltas.Needs {
			r, seen := ranges.Needs[need]
			ranges.Needs[need] = widen(r, seen, v)
		}
		if deltas.MoneyPence != 0 {
			seen := ranges.MoneyPence != nil
			var r types.Range
			if seen {
				r = *ranges.MoneyPence
			}
			r = widen(r, seen, deltas.MoneyPence)
			ranges.MoneyPence = &r
		}
	}
	return ranges
}

func widen(r types.Range, seen bool, v int) types.Range {
	if !seen {
		return types.Range{Min: v, Max: v}
	}
	if v < r.Min {
		r.Min = v
	}
	if v > r.Max {
		r.Max = v
	}
	return r
}

// PreviewNotes returns short hints for a player deciding whether to try
// spec: the primary skill level and any scoring capability with no
// reachable provider.
func PreviewNotes(a Actor, s *types.State, reg *state.Registry, spec *types.ActionSpec) []string {
	var notes []string
	mods := spec.Modifiers
	if mods.PrimarySkill != "" {
		notes = append(notes, fmt.Sprintf("Primary skill: %s (%s)",
			mods.PrimarySkill, strconv.FormatFloat(a.skill(mods.PrimarySkill), 'f', 1, 64)))
	}
	for _, capability := range sortedKeys(mods.ItemProvidesWeights) {
		if state.BestProvider(s, reg, capability) == nil {
			notes = append(notes, fmt.Sprintf("Optional: item providing '%s'", capability))
		}
	}
	if f := Floor(spec); f > DefaultFloor {
		notes = append(notes, fmt.Sprintf("Cannot fall below tier %d", f))
	}
	return notes
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedTiers(m map[int]types.Outcome) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
