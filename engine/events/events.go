// Package events implements the bounded event log. Every component that
// reports something to the player appends here; nothing else writes the log.
package events

import "github.com/nathoo/roomlife/types"

// DefaultCap is the log capacity when the state does not configure one.
const DefaultCap = 100

// Log appends an event to the state's log, evicting the oldest entries once
// the capacity is exceeded. Nil params become an empty map. Returns the
// appended event.
func Log(s *types.State, id string, params map[string]any) types.Event {
	if params == nil {
		params = map[string]any{}
	}
	ev := types.Event{ID: id, Params: params}
	s.EventLog = append(s.EventLog, ev)
	s.EventSeq++
	limit := s.EventLogCap
	if limit <= 0 {
		limit = DefaultCap
	}
	if over := len(s.EventLog) - limit; over > 0 {
		s.EventLog = append([]types.Event(nil), s.EventLog[over:]...)
	}
	return ev
}

// Recent returns up to n of the newest events, oldest first.
func Recent(s *types.State, n int) []types.Event {
	if n <= 0 || len(s.EventLog) == 0 {
		return nil
	}
	if n > len(s.EventLog) {
		n = len(s.EventLog)
	}
	out := make([]types.Event, n)
	copy(out, s.EventLog[len(s.EventLog)-n:])
	return out
}

// Since returns the events logged after the sequence number seq, oldest
// first. Events already evicted from the log are not returned.
func Since(s *types.State, seq int) []types.Event {
	n := s.EventSeq - seq
	if n <= 0 {
		return nil
	}
	if n > len(s.EventLog) {
		n = len(s.EventLog)
	}
	out := make([]types.Event, n)
	copy(out, s.EventLog[len(s.EventLog)-n:])
	return out
}
