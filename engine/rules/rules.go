// Package rules implements the requirement validator: a pure predicate over
// state, action spec, and call parameters that reports every unmet
// requirement rather than the first.
package rules

import (
	"sort"

	"github.com/nathoo/roomlife/engine/resolve"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// ReasonMissing is the reason reported for any failed requirement family.
const ReasonMissing = "Missing requirements"

// Validate decides whether the player may attempt spec with params. It
// never mutates state.
func Validate(s *types.State, reg *state.Registry, spec *types.ActionSpec, params map[string]any) types.Validation {
	var missing []string
	missing = append(missing, checkMoney(s, spec)...)
	missing = append(missing, checkUtilities(s, spec)...)
	missing = append(missing, checkLocation(s, spec)...)
	missing = append(missing, checkItems(s, reg, spec)...)
	missing = append(missing, checkSkills(s, spec)...)
	missing = append(missing, CheckConsumes(s, reg, spec)...)
	missing = append(missing, resolve.Params(s, spec, params)...)

	if len(missing) > 0 {
		return Fail(ReasonMissing, missing...)
	}
	return Pass()
}

// Pass is a successful validation.
func Pass() types.Validation {
	return types.Validation{Valid: true}
}

// Fail builds a failed validation. A failure always carries at least one
// missing entry; the reason stands in when none is given.
func Fail(reason string, missing ...string) types.Validation {
	if len(missing) == 0 {
		missing = []string{reason}
	}
	return types.Validation{Valid: false, Reason: reason, Missing: missing}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
