// Package audit checks loaded content against a few archetypal players:
// whether each action can be attempted by at least one of them somewhere in
// the building, and whether its tier distribution is rich enough to be
// interesting.
package audit

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nathoo/roomlife/engine"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/engine/tier"
	"github.com/nathoo/roomlife/types"
)

// Pass thresholds over all actions.
const (
	ReachabilityThreshold = 0.90
	RichnessThreshold     = 0.70

	// DominantTier is the share above which one tier is said to dominate.
	DominantTier = 0.9

	// PreviewSeed seeds every distribution so reports are reproducible.
	PreviewSeed = 12345
)

// Baseline is the archetype whose distribution decides tier richness.
const Baseline = "skilled"

// Archetype is a named starting state standing in for a kind of player.
type Archetype struct {
	Name  string
	State *types.State
}

// Archetypes builds the fresh, skilled, broke, and master players.
func Archetypes(reg *state.Registry) ([]Archetype, error) {
	build := []struct {
		name  string
		seed  int64
		apply func(s *types.State)
	}{
		{"fresh_start", 123, func(*types.State) {}},
		{"skilled", 456, func(s *types.State) {
			setSkills(s, 50)
			s.Player.MoneyPence = 10000
		}},
		{"broke", 789, func(s *types.State) {
			s.Player.MoneyPence = 100
			s.Player.Needs["hunger"] = 80
			s.Player.Needs["fatigue"] = 70
			s.Player.Needs["hygiene"] = 80
		}},
		{"master", 999, func(s *types.State) {
			setSkills(s, 100)
			s.Player.MoneyPence = 50000
		}},
	}

	out := make([]Archetype, 0, len(build))
	for _, b := range build {
		s, err := state.NewState(reg, b.seed)
		if err != nil {
			return nil, fmt.Errorf("building archetype %s: %w", b.name, err)
		}
		b.apply(s)
		out = append(out, Archetype{Name: b.name, State: s})
	}
	return out, nil
}

func setSkills(s *types.State, v float64) {
	for _, name := range state.SkillNames {
		sk := s.Player.Skills[name]
		sk.Value = v
		s.Player.Skills[name] = sk
	}
}

// Reachability records who can attempt an action.
type Reachability struct {
	ActionID    string
	ReachableBy []string
	// Blockers are the missing requirements every failed attempt shared.
	// Set only when nobody can reach the action.
	Blockers []string
}

// Richness describes the baseline tier distribution of an action.
type Richness struct {
	ActionID     string
	Distribution map[int]float64
	Issues       []string
}

// Rich reports whether the distribution raised no issues.
func (r Richness) Rich() bool { return len(r.Issues) == 0 }

// Report is the outcome of Run.
type Report struct {
	Archetypes   []string
	Reachability []Reachability
	// Richness covers actions with outcome rows; bespoke actions without
	// them resolve no tier.
	Richness []Richness
	// Distributions holds every archetype's preview at its starting
	// location, by archetype then action id.
	Distributions map[string]map[string]map[int]float64
	Warnings      []string
}

// Run audits every registered action.
func Run(reg *state.Registry) (*Report, error) {
	archetypes, err := Archetypes(reg)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Distributions: map[string]map[string]map[int]float64{},
		Warnings:      append([]string(nil), reg.Warnings...),
	}
	for _, a := range archetypes {
		rep.Archetypes = append(rep.Archetypes, a.Name)
		rep.Distributions[a.Name] = distributions(reg, a.State)
	}

	for _, id := range reg.ActionIDs() {
		spec := reg.Actions[id]
		rep.Reachability = append(rep.Reachability, reach(reg, spec, archetypes))
		if len(spec.Outcomes) == 0 {
			continue
		}
		for _, a := range archetypes {
			if a.Name == Baseline {
				rep.Richness = append(rep.Richness, richness(reg, spec, a.State))
			}
		}
	}
	return rep, nil
}

// reach tries spec for each archetype at every space in the building.
func reach(reg *state.Registry, spec *types.ActionSpec, archetypes []Archetype) Reachability {
	r := Reachability{ActionID: spec.ID}
	var blockers map[string]bool

	for _, a := range archetypes {
		ok, missing := reachableSomewhere(reg, spec, a.State)
		if ok {
			r.ReachableBy = append(r.ReachableBy, a.Name)
			continue
		}
		blockers = intersect(blockers, keys(missing))
	}
	if len(r.ReachableBy) == 0 {
		r.Blockers = keys(blockers)
	}
	return r
}

// reachableSomewhere reports whether any catalog entry for spec validates at
// any space. On failure it returns the requirements every attempt missed.
func reachableSomewhere(reg *state.Registry, spec *types.ActionSpec, s *types.State) (bool, map[string]bool) {
	home := s.World.Location
	defer func() { s.World.Location = home }()

	var common map[string]bool
	spaces := make([]string, 0, len(s.Spaces))
	for id := range s.Spaces {
		spaces = append(spaces, id)
	}
	sort.Strings(spaces)

	for _, sp := range spaces {
		s.World.Location = sp
		eng := engine.Resume(reg, s)
		entries := entriesFor(eng.Catalog(), spec.ID)
		if len(entries) == 0 {
			// No concrete target here; validate the bare call.
			v := eng.Validate(spec, nil)
			if v.Valid {
				return true, nil
			}
			common = intersect(common, v.Missing)
			continue
		}
		for _, ce := range entries {
			if ce.Validation.Valid {
				return true, nil
			}
			common = intersect(common, ce.Validation.Missing)
		}
	}
	return false, common
}

func entriesFor(catalog []types.CatalogEntry, actionID string) []types.CatalogEntry {
	var out []types.CatalogEntry
	for _, ce := range catalog {
		if ce.Call.ActionID == actionID {
			out = append(out, ce)
		}
	}
	return out
}

// intersect narrows acc to the entries also in missing. A nil acc means
// nothing has been seen yet.
func intersect(acc map[string]bool, missing []string) map[string]bool {
	next := map[string]bool{}
	for _, k := range missing {
		if acc == nil || acc[k] {
			next[k] = true
		}
	}
	return next
}

func keys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func distributions(reg *state.Registry, s *types.State) map[string]map[int]float64 {
	out := map[string]map[int]float64{}
	actor := tier.PlayerActor(s)
	for _, id := range reg.ActionIDs() {
		spec := reg.Actions[id]
		if len(spec.Outcomes) == 0 {
			continue
		}
		out[id] = tier.PreviewDistribution(actor, s, reg, spec, PreviewSeed, tier.DefaultSamples)
	}
	return out
}

func richness(reg *state.Registry, spec *types.ActionSpec, s *types.State) Richness {
	dist := tier.PreviewDistribution(tier.PlayerActor(s), s, reg, spec, PreviewSeed, tier.DefaultSamples)
	r := Richness{ActionID: spec.ID, Distribution: dist}

	occurring, top := 0, 0.0
	for _, p := range dist {
		if p > 0 {
			occurring++
		}
		if p > top {
			top = p
		}
	}
	if occurring < 2 {
		r.Issues = append(r.Issues, "degenerate: only 1 tier occurs")
	}
	if top > DominantTier {
		r.Issues = append(r.Issues, fmt.Sprintf("single tier dominates (%.0f%%)", top*100))
	}
	return r
}

// ReachabilityRate is the share of actions some archetype can attempt.
func (r *Report) ReachabilityRate() float64 {
	if len(r.Reachability) == 0 {
		return 0
	}
	n := 0
	for _, x := range r.Reachability {
		if len(x.ReachableBy) > 0 {
			n++
		}
	}
	return float64(n) / float64(len(r.Reachability))
}

// RichnessRate is the share of tiered actions with a rich distribution.
func (r *Report) RichnessRate() float64 {
	if len(r.Richness) == 0 {
		return 0
	}
	n := 0
	for _, x := range r.Richness {
		if x.Rich() {
			n++
		}
	}
	return float64(n) / float64(len(r.Richness))
}

// Passed reports whether both rates meet their thresholds.
func (r *Report) Passed() bool {
	return r.ReachabilityRate() >= ReachabilityThreshold && r.RichnessRate() >= RichnessThreshold
}

// Write prints the report. With verbose set it adds every archetype's
// distribution.
func (r *Report) Write(w io.Writer, verbose bool) {
	rule := strings.Repeat("=", 70)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "ROOMLIFE CONTENT VALIDATION REPORT")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total actions: %d\n", len(r.Reachability))
	fmt.Fprintf(w, "Reachable: %.1f%%\n", r.ReachabilityRate()*100)
	fmt.Fprintf(w, "Rich tier distributions: %.1f%% of %d tiered actions\n", r.RichnessRate()*100, len(r.Richness))

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "\nWARNINGS:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  %s\n", warn)
		}
	}

	var unreachable []Reachability
	for _, x := range r.Reachability {
		if len(x.ReachableBy) == 0 {
			unreachable = append(unreachable, x)
		}
	}
	if len(unreachable) > 0 {
		fmt.Fprintln(w, "\nUNREACHABLE ACTIONS:")
		for _, x := range unreachable {
			fmt.Fprintf(w, "  %s\n", x.ActionID)
			if len(x.Blockers) > 0 {
				fmt.Fprintf(w, "    Common blockers: %s\n", strings.Join(x.Blockers, ", "))
			}
		}
	}

	var degenerate []Richness
	for _, x := range r.Richness {
		if !x.Rich() {
			degenerate = append(degenerate, x)
		}
	}
	if len(degenerate) > 0 {
		fmt.Fprintln(w, "\nDEGENERATE TIER DISTRIBUTIONS:")
		for _, x := range degenerate {
			fmt.Fprintf(w, "  %s\n", x.ActionID)
			fmt.Fprintf(w, "    Issues: %s\n", strings.Join(x.Issues, ", "))
			fmt.Fprintf(w, "    Distribution: %s\n", FormatDistribution(x.Distribution))
		}
	}

	if verbose {
		for _, name := range r.Archetypes {
			fmt.Fprintf(w, "\n%s:\n", strings.ToUpper(name))
			dists := r.Distributions[name]
			ids := make([]string, 0, len(dists))
			for id := range dists {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(w, "  %-28s %s\n", id, FormatDistribution(dists[id]))
			}
		}
	}

	fmt.Fprintln(w, rule)
	if r.Passed() {
		fmt.Fprintln(w, "PASS: all validation checks passed")
	} else {
		fmt.Fprintln(w, "FAIL: some validation checks failed")
	}
}

// FormatDistribution renders the tiers that occur, as "T1:33%, T2:67%".
func FormatDistribution(dist map[int]float64) string {
	var parts []string
	for t := 0; t <= tier.MaxTier; t++ {
		if p := dist[t]; p > 0 {
			parts = append(parts, fmt.Sprintf("T%d:%.0f%%", t, p*100))
		}
	}
	return strings.Join(parts, ", ")
}
