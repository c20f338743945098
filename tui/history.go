// Package tui provides a Bubble Tea terminal UI for RoomLife.
package tui

// History keeps recent commands, newest last, with a cursor for Up/Down
// browsing. Re-entering a command moves it to the end instead of storing
// it twice.
type History struct {
	entries []string
	max     int
	cursor  int // -1 when not browsing
}

// NewHistory creates a history holding at most max commands.
func NewHistory(max int) *History {
	return &History{entries: make([]string, 0, max), max: max, cursor: -1}
}

// Len reports how many commands are stored.
func (h *History) Len() int { return len(h.entries) }

// Push records cmd as the newest entry.
func (h *History) Push(cmd string) {
	for i, e := range h.entries {
		if e == cmd {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			break
		}
	}
	h.entries = append(h.entries, cmd)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Prev steps toward older entries, stopping at the oldest.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	switch {
	case h.cursor < 0:
		h.cursor = len(h.entries) - 1
	case h.cursor > 0:
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next steps toward newer entries. Stepping past the newest ends browsing
// and returns false.
func (h *History) Next() (string, bool) {
	if h.cursor < 0 {
		return "", false
	}
	h.cursor++
	if h.cursor >= len(h.entries) {
		h.cursor = -1
		return "", false
	}
	return h.entries[h.cursor], true
}

// ResetCursor ends browsing.
func (h *History) ResetCursor() { h.cursor = -1 }
