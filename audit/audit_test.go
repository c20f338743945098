package audit

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

func intp(v int) *int { return &v }

func outcomes() map[int]types.Outcome {
	out := map[int]types.Outcome{}
	for t := 0; t <= 3; t++ {
		out[t] = types.Outcome{Deltas: types.Deltas{Needs: map[string]int{"mood": t}}}
	}
	return out
}

func testRegistry(t *testing.T) *state.Registry {
	t.Helper()
	reg, err := state.NewRegistry()
	require.NoError(t, err)
	reg.Items["kettle"] = types.ItemMeta{ID: "kettle", Name: "Kettle", Provides: []string{"heat_source"}, Quality: 1, Bulk: 2}
	reg.Warnings = []string{"actions.yaml: action 'cook_meal': no director tags"}

	for _, spec := range []*types.ActionSpec{
		{
			ID: "move", Kind: types.KindMove,
			Parameters: []types.ParamSpec{{Name: "target_space", Type: types.ParamSpaceID, Required: true}},
		},
		{
			ID: "cook_meal", Kind: types.KindGeneric,
			Requires: types.Requirements{
				Location: types.LocationRequirement{AnySpaceTags: []string{"kitchen"}},
				Items:    types.ItemRequirement{AnyProvides: []string{"heat_source"}},
			},
			Modifiers: types.Modifiers{PrimarySkill: "cooking"},
			Outcomes:  outcomes(),
		},
		{
			ID: "master_chef", Kind: types.KindGeneric,
			Requires:  types.Requirements{SkillsMin: map[string]float64{"cooking": 150}},
			Modifiers: types.Modifiers{PrimarySkill: "cooking", TierFloor: intp(3)},
			Outcomes:  outcomes(),
		},
		{
			ID: "splurge", Kind: types.KindGeneric,
			Requires: types.Requirements{MoneyPence: 20000},
			Outcomes: outcomes(),
		},
	} {
		reg.Actions[spec.ID] = spec
	}
	return reg
}

func TestArchetypes(t *testing.T) {
	archetypes, err := Archetypes(testRegistry(t))
	require.NoError(t, err)

	byName := map[string]*types.State{}
	for _, a := range archetypes {
		byName[a.Name] = a.State
	}
	require.Len(t, byName, 4)

	assert.Equal(t, 5000, byName["fresh_start"].Player.MoneyPence)
	assert.Equal(t, 10000, byName["skilled"].Player.MoneyPence)
	assert.Equal(t, 50.0, state.SkillValue(&byName["skilled"].Player.Actor, "cooking"))
	assert.Equal(t, 100, byName["broke"].Player.MoneyPence)
	assert.Equal(t, 80, byName["broke"].Player.Needs["hunger"])
	assert.Equal(t, 100.0, state.SkillValue(&byName["master"].Player.Actor, "focus"))
}

func TestRun_Reachability(t *testing.T) {
	rep, err := Run(testRegistry(t))
	require.NoError(t, err)

	got := map[string]Reachability{}
	for _, r := range rep.Reachability {
		got[r.ActionID] = r
	}
	require.Len(t, got, 4)

	assert.Len(t, got["move"].ReachableBy, 4)
	assert.Len(t, got["cook_meal"].ReachableBy, 4, "reachable in the kitchen")
	assert.Equal(t, []string{"master"}, got["splurge"].ReachableBy)
	assert.Empty(t, got["splurge"].Blockers)

	assert.Empty(t, got["master_chef"].ReachableBy)
	assert.Equal(t, []string{"skill cooking>=150"}, got["master_chef"].Blockers)

	assert.InDelta(t, 0.75, rep.ReachabilityRate(), 1e-9)
	assert.False(t, rep.Passed())
}

func TestRun_Richness(t *testing.T) {
	rep, err := Run(testRegistry(t))
	require.NoError(t, err)

	require.Len(t, rep.Richness, 3, "move has no outcome rows")
	for _, r := range rep.Richness {
		sum := 0.0
		for _, p := range r.Distribution {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9, r.ActionID)
		if r.ActionID == "master_chef" {
			assert.False(t, r.Rich())
			assert.Equal(t, []string{"degenerate: only 1 tier occurs", "single tier dominates (100%)"}, r.Issues)
		}
	}

	require.Contains(t, rep.Distributions, "broke")
	assert.Contains(t, rep.Distributions["broke"], "splurge")
	assert.NotContains(t, rep.Distributions["broke"], "move")
}

func TestRun_LeavesArchetypesAtHome(t *testing.T) {
	reg := testRegistry(t)
	archetypes, err := Archetypes(reg)
	require.NoError(t, err)

	reach(reg, reg.Actions["cook_meal"], archetypes)
	for _, a := range archetypes {
		assert.Equal(t, state.StartLocation, a.State.World.Location, a.Name)
	}
}

func TestReport_Write(t *testing.T) {
	rep, err := Run(testRegistry(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	rep.Write(&buf, true)
	out := buf.String()

	assert.Contains(t, out, "Total actions: 4")
	assert.Contains(t, out, "WARNINGS:")
	assert.Contains(t, out, "no director tags")
	assert.Contains(t, out, "UNREACHABLE ACTIONS:")
	assert.Contains(t, out, "Common blockers: skill cooking>=150")
	assert.Contains(t, out, "DEGENERATE TIER DISTRIBUTIONS:")
	assert.Contains(t, out, "Distribution: T3:100%")
	assert.Contains(t, out, "SKILLED:")
	assert.Contains(t, out, "FAIL: some validation checks failed")
}

func TestFormatDistribution(t *testing.T) {
	assert.Equal(t, "T1:25%, T2:75%", FormatDistribution(map[int]float64{0: 0, 1: 0.25, 2: 0.75, 3: 0}))
	assert.Equal(t, "", FormatDistribution(map[int]float64{}))
}
