package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/roomlife/engine"
	"github.com/nathoo/roomlife/engine/save"
	"github.com/nathoo/roomlife/engine/state"
)

// Needs where a high value is good. The rest hurt as they rise.
var highIsGood = map[string]bool{
	"warmth": true, "hygiene": true, "mood": true, "energy": true, "health": true,
}

// needAbbrev keeps the needs line short enough for narrow terminals.
var needAbbrev = map[string]string{
	"hunger": "hun", "fatigue": "fat", "warmth": "wrm", "hygiene": "hyg", "mood": "mood",
	"stress": "str", "energy": "nrg", "health": "hp", "illness": "ill", "injury": "inj",
}

// distress maps a need value onto 0 (fine) to 100 (dire).
func distress(need string, v int) int {
	if highIsGood[need] {
		return 100 - v
	}
	return v
}

// renderStatusBar produces two full-width lines: where and when the player
// is with their money and load, then every need colored by distress.
func (m Model) renderStatusBar() string {
	snap := save.Take(m.engine.State, m.reg)
	s := m.engine.State

	left := fmt.Sprintf(" %s | Day %d, %s | %s", snap.SpaceName, snap.Day, snap.Slice, engine.Pence(snap.MoneyPence))
	right := fmt.Sprintf("Bag %d/%d ", state.InventoryBulk(s), s.Player.CarryCapacity)
	if len(snap.Goals) > 0 {
		right = fmt.Sprintf("Goals %d | %s", len(snap.Goals), right)
	}
	if snap.Encounter != "" {
		if n, ok := s.NPCs[snap.Encounter]; ok {
			left += " | " + n.DisplayName + " is here"
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	top := styleStatusBar.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
	return top + "\n" + m.renderNeeds(snap.Needs)
}

func (m Model) renderNeeds(needs map[string]int) string {
	parts := make([]string, 0, len(state.NeedNames))
	used := 1
	for _, n := range state.NeedNames {
		text := fmt.Sprintf("%s %d", needAbbrev[n], needs[n])
		style := styleNeedsBar
		switch d := distress(n, needs[n]); {
		case d >= 80:
			style = styleNeedBad
		case d >= 60:
			style = styleNeedWarn
		}
		parts = append(parts, style.Render(text))
		used += lipgloss.Width(text) + 2
	}
	line := styleNeedsBar.Render(" ") + strings.Join(parts, styleNeedsBar.Render("  "))
	if pad := m.width - used; pad > 0 {
		line += styleNeedsBar.Render(strings.Repeat(" ", pad))
	}
	return line
}
