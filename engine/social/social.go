// Package social applies relationship and memory changes between the player
// and building NPCs.
package social

import (
	"fmt"

	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// PlayerID is how NPCs refer to the player in their relationships and
// memory.
const PlayerID = "player"

// MemoryCap bounds each actor's memory; the oldest entries go first.
const MemoryCap = 100

// Interaction identifies one social exchange.
type Interaction struct {
	ActorID  string // PlayerID or an NPC id
	TargetID string
	ActionID string
	Tier     int
}

// Bump adds delta to a's relationship with other, clamped to [-100, 100].
func Bump(a *types.Actor, other string, delta int) {
	if a.Relationships == nil {
		a.Relationships = map[string]int{}
	}
	a.Relationships[other] = state.ClampRelationship(a.Relationships[other] + delta)
}

// Remember appends entry to a's memory, evicting the oldest beyond MemoryCap.
func Remember(a *types.Actor, entry types.MemoryEntry) {
	a.Memory = append(a.Memory, entry)
	if over := len(a.Memory) - MemoryCap; over > 0 {
		a.Memory = append([]types.MemoryEntry(nil), a.Memory[over:]...)
	}
}

// Apply updates both parties of in from an outcome's social block: the
// actor's view of the target, the target's view of the actor, and a memory
// entry on each side when the block names a tag.
func Apply(s *types.State, in Interaction, block *types.SocialSpec) error {
	if block == nil {
		return nil
	}
	actor, err := lookup(s, in.ActorID)
	if err != nil {
		return err
	}
	target, err := lookup(s, in.TargetID)
	if err != nil {
		return err
	}

	if block.RelToTarget != 0 {
		Bump(actor, in.TargetID, block.RelToTarget)
	}
	if block.RelToActorOnTarget != 0 {
		Bump(target, in.ActorID, block.RelToActorOnTarget)
	}

	if block.MemoryTag != "" {
		entry := types.MemoryEntry{
			Day:       s.World.Day,
			ActionID:  in.ActionID,
			Initiator: in.ActorID,
			Tier:      in.Tier,
			Tag:       block.MemoryTag,
		}
		entry.Other = in.TargetID
		Remember(actor, entry)
		entry.Other = in.ActorID
		Remember(target, entry)
	}
	return nil
}

// UnknownActorError names a social party that is neither the player nor a
// known NPC.
type UnknownActorError struct {
	ID string
}

func (e *UnknownActorError) Error() string {
	return fmt.Sprintf("unknown npc %q", e.ID)
}

func lookup(s *types.State, id string) (*types.Actor, error) {
	if id == PlayerID {
		return &s.Player.Actor, nil
	}
	npc, ok := s.NPCs[id]
	if !ok {
		return nil, &UnknownActorError{ID: id}
	}
	return &npc.Actor, nil
}

// Standing describes a relationship value.
func Standing(rel int) string {
	switch {
	case rel >= 50:
		return "friendly"
	case rel >= 10:
		return "warm"
	case rel > -10:
		return "neutral"
	case rel > -50:
		return "cool"
	default:
		return "hostile"
	}
}
