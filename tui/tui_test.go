package tui

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/roomlife/engine"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"You see:", kindHeading},
		{"You could:", kindHeading},
		{"Today's goals:", kindHeading},
		{"Exits: hall_001, kitchen_001", kindExits},
		{"[Game saved to test.json.]", kindSystem},
		{"[trace] Events: 2", kindTrace},
		{"You can't cook meal right now.", kindError},
		{"  - requires item providing heat_source", kindError},
		{"You don't know how to do that.", kindError},
		{"Error: unknown formula", kindError},
		{"Your cooking improves.", kindGain},
		{"A new day begins (day 2).", kindGain},
		{"You bump into Nina (neighbor) in the hall_001.", kindNPC},
		{"Nina the neighbor drops by: borrow_sugar.", kindNPC},
		{"Nina is here.", kindNPC},
		{"The taps are dry.", kindWarning},
		{"Ouch. You hurt yourself (accident).", kindWarning},
		{"You walk to hall_001.", kindNarrative},
		{"", kindNarrative},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyLine(tt.line), "classifyLine(%q)", tt.line)
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"The radiator ticks as the kitchen slowly warms up.", 25,
			"The radiator ticks as the\nkitchen slowly warms up."},
		{"", 80, ""},
		{"a b c d e", 3, "a b\nc d\ne"},
		{"  Basic bed (worn) and more", 12, "  Basic bed\n(worn) and\nmore"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, wordWrap(tt.text, tt.width), "wordWrap(%q, %d)", tt.text, tt.width)
	}
}

func TestHistory_PrevAndNext(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("move hall_001")
	h.Push("status")

	for _, want := range []string{"status", "move hall_001", "look", "look"} {
		got, ok := h.Prev()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	got, ok := h.Next()
	require.True(t, ok)
	assert.Equal(t, "move hall_001", got)
	h.Next()
	_, ok = h.Next()
	assert.False(t, ok, "past the newest entry")
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	_, ok := h.Prev()
	assert.False(t, ok)
	_, ok = h.Next()
	assert.False(t, ok)
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory(2)
	h.Push("a")
	h.Push("b")
	h.Push("c")

	assert.Equal(t, 2, h.Len())
	prev, _ := h.Prev()
	assert.Equal(t, "c", prev)
	prev, _ = h.Prev()
	assert.Equal(t, "b", prev)
	prev, _ = h.Prev()
	assert.Equal(t, "b", prev, "a was evicted")
}

func TestHistory_RepeatMovesToEnd(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("status")
	h.Push("look")

	assert.Equal(t, 2, h.Len())
	prev, _ := h.Prev()
	assert.Equal(t, "look", prev)
	prev, _ = h.Prev()
	assert.Equal(t, "status", prev)
}

func TestHistory_ResetCursor(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("status")
	h.Prev()
	h.Prev()
	h.ResetCursor()

	prev, ok := h.Prev()
	require.True(t, ok)
	assert.Equal(t, "status", prev)
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	reg, err := state.NewRegistry()
	require.NoError(t, err)
	reg.Items["kettle"] = types.ItemMeta{ID: "kettle", Name: "Kettle", Price: 1500, Bulk: 2}
	reg.Actions["move"] = &types.ActionSpec{
		ID: "move", DisplayName: "Go", Kind: types.KindMove,
		Parameters: []types.ParamSpec{{Name: "target_space", Type: types.ParamSpaceID, Required: true}},
	}
	reg.Actions["chat_neighbor"] = &types.ActionSpec{ID: "chat_neighbor", DisplayName: "Chat", Kind: types.KindGeneric}

	eng, err := engine.New(reg, 3)
	require.NoError(t, err)
	eng.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	m := New(eng, reg, t.TempDir())
	m.width = 120
	return m
}

func TestComplete(t *testing.T) {
	m := newTestModel(t)
	tests := []struct {
		input string
		want  string
	}{
		{"mo", "move "},
		{"move ha", "move hall_001 "},
		{"pi", "pickup "},
		{"ch", "chat_neighbor "},
		{"chat_neighbor npc_n", "chat_neighbor npc_neighbor_nina "},
		{"buy ke", "buy kettle "},
		{"s", "s"},
		{"xyz", "xyz"},
		{"", ""},
		{"move ", "move "},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, m.complete(tt.input), "complete(%q)", tt.input)
	}
}

func TestRenderStatusBar(t *testing.T) {
	m := newTestModel(t)
	bar := m.renderStatusBar()

	lines := strings.Split(bar, "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Tiny room | Day 1, morning | £50.00")
	assert.Contains(t, lines[0], "Bag 0/12")
	assert.Contains(t, lines[1], "hun 40")
	assert.Contains(t, lines[1], "hp ")
}

func TestDistress(t *testing.T) {
	assert.Equal(t, 90, distress("hunger", 90))
	assert.Equal(t, 90, distress("warmth", 10))
	assert.Equal(t, 0, distress("health", 100))
}

func TestHandleMeta_Quit(t *testing.T) {
	m := newTestModel(t)
	_, quit := m.handleMeta("/quit")
	assert.True(t, quit)
	_, quit = m.handleMeta("/exit")
	assert.True(t, quit)
}

func TestHandleMeta_SaveAndLoad(t *testing.T) {
	m := newTestModel(t)
	m.engine.Step("move hall_001")

	output, quit := m.handleMeta("/save test")
	assert.False(t, quit)
	require.NotEmpty(t, output)
	assert.Equal(t, "Game saved to test.json.", output[0])

	m.engine.Step("move room_001")
	require.Equal(t, "room_001", m.engine.State.World.Location)

	output, _ = m.handleMeta("/load test")
	require.NotEmpty(t, output)
	assert.Contains(t, output[0], "Game loaded from test.json (day 1, afternoon)")
	assert.Equal(t, "hall_001", m.engine.State.World.Location)
}

func TestHandleMeta_LoadNonexistent(t *testing.T) {
	m := newTestModel(t)
	output, quit := m.handleMeta("/load nonexistent")
	assert.False(t, quit)
	require.NotEmpty(t, output)
	assert.Contains(t, output[0], "Load failed")
}

func TestHandleMeta_Help(t *testing.T) {
	m := newTestModel(t)
	output, quit := m.handleMeta("/help")
	assert.False(t, quit)

	joined := strings.Join(output, "\n")
	for _, want := range []string{"/save", "/load", "/quit", "look", "inventory", "Tab completes"} {
		assert.Contains(t, joined, want)
	}
}

func TestHandleMeta_Trace(t *testing.T) {
	m := newTestModel(t)

	output, _ := m.handleMeta("/trace")
	assert.True(t, m.trace)
	assert.Contains(t, output[0], "enabled")

	output, _ = m.handleMeta("/trace")
	assert.False(t, m.trace)
	assert.Contains(t, output[0], "disabled")
}

func TestHandleMeta_Unknown(t *testing.T) {
	m := newTestModel(t)
	output, quit := m.handleMeta("/bogus")
	assert.False(t, quit)
	assert.Contains(t, output[0], "Unknown command")
}

func TestHandleMeta_State(t *testing.T) {
	m := newTestModel(t)
	output, _ := m.handleMeta("/state")

	joined := strings.Join(output, "\n")
	assert.Contains(t, joined, "Day: 1 (morning)")
	assert.Contains(t, joined, "Location: room_001")
	assert.Contains(t, joined, "NPC npc_neighbor_nina: 0 (neutral)")
	assert.Contains(t, joined, "Event game.start")
}

func TestFormatTrace(t *testing.T) {
	m := newTestModel(t)
	res := m.engine.Step("move hall_001")

	lines := formatTrace(res)
	require.NotEmpty(t, lines)
	assert.Equal(t, "[trace] Action: move valid=true tier=-1", lines[0])
	assert.Contains(t, strings.Join(lines, "\n"), "player.moved")
}
