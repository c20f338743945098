// Package parser converts typed commands into Intent structs.
// Intentionally dumb: no NLP, just aliases and key=value arguments.
package parser

import (
	"strings"

	"github.com/nathoo/roomlife/types"
)

// Built-in verbs. Anything else is taken as an action id.
const (
	VerbMove      = "move"
	VerbRepair    = "repair"
	VerbPurchase  = "purchase"
	VerbSell      = "sell"
	VerbDiscard   = "discard"
	VerbPickup    = "pickup"
	VerbDrop      = "drop"
	VerbLook      = "look"
	VerbStatus    = "status"
	VerbInventory = "inventory"
	VerbActions   = "actions"
	VerbGoals     = "goals"
	VerbWait      = "wait"
	VerbHelp      = "help"
)

var verbAliases = map[string]string{
	// Movement
	"go":     VerbMove,
	"walk":   VerbMove,
	"head":   VerbMove,
	"enter":  VerbMove,
	"travel": VerbMove,

	// Maintenance
	"fix":   VerbRepair,
	"mend":  VerbRepair,
	"patch": VerbRepair,

	// Shopping
	"buy":   VerbPurchase,
	"order": VerbPurchase,
	"trash": VerbDiscard,
	"toss":  VerbDiscard,
	"bin":   VerbDiscard,

	// Carrying
	"take":  VerbPickup,
	"get":   VerbPickup,
	"grab":  VerbPickup,
	"carry": VerbPickup,
	"leave": VerbDrop,

	// Information
	"l":     VerbLook,
	"st":    VerbStatus,
	"stats": VerbStatus,
	"me":    VerbStatus,
	"i":     VerbInventory,
	"inv":   VerbInventory,
	"a":     VerbActions,
	"acts":  VerbActions,
	"g":     VerbGoals,
	"todo":  VerbGoals,
	"z":     VerbWait,
	"?":     VerbHelp,
}

var prepositions = map[string]bool{
	"to": true, "into": true, "in": true, "from": true, "at": true,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true, "my": true,
}

// Parse converts a raw command string into an Intent. Words of the form
// key=value become Params; the remaining words after the verb, minus
// articles and leading prepositions, are joined with underscores into the
// Object, so "go to hall 001" names hall_001.
func Parse(input string) types.Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return types.Intent{}
	}

	words := strings.Fields(input)
	words[0] = strings.ToLower(words[0])
	words = expandMultiWordVerbs(words)

	verb := words[0]
	if alias, ok := verbAliases[verb]; ok {
		verb = alias
	}

	var rest []string
	var params map[string]string
	for _, w := range words[1:] {
		if k, v, ok := strings.Cut(w, "="); ok && k != "" {
			if params == nil {
				params = map[string]string{}
			}
			params[k] = v
			continue
		}
		rest = append(rest, w)
	}
	rest = stripArticles(rest)
	for len(rest) > 0 && prepositions[strings.ToLower(rest[0])] {
		rest = rest[1:]
	}

	return types.Intent{
		Verb:   verb,
		Object: strings.Join(rest, "_"),
		Params: params,
	}
}

// expandMultiWordVerbs handles "pick up", "put down", "look around" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}
	second := strings.ToLower(words[1])

	switch words[0] {
	case "pick":
		if second == "up" {
			return append([]string{VerbPickup}, words[2:]...)
		}
	case "put", "set":
		if second == "down" {
			return append([]string{VerbDrop}, words[2:]...)
		}
	case "throw":
		if second == "away" || second == "out" {
			return append([]string{VerbDiscard}, words[2:]...)
		}
	case "look":
		if second == "around" {
			return []string{VerbLook}
		}
	case "what":
		if second == "now" || second == "next" {
			return []string{VerbGoals}
		}
	}
	return words
}

// stripArticles removes articles from the word list.
func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[strings.ToLower(w)] {
			result = append(result, w)
		}
	}
	return result
}

// Verbs lists the built-in verbs in a fresh slice.
func Verbs() []string {
	return []string{
		VerbMove, VerbRepair, VerbPurchase, VerbSell, VerbDiscard, VerbPickup, VerbDrop,
		VerbLook, VerbStatus, VerbInventory, VerbActions, VerbGoals, VerbWait, VerbHelp,
	}
}
