package save

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

func testState(t *testing.T) (*types.State, *state.Registry) {
	t.Helper()
	reg, err := state.NewRegistry()
	require.NoError(t, err)
	reg.Items["bed_basic"] = types.ItemMeta{ID: "bed_basic", Name: "Basic bed", Bulk: 8}
	reg.Items["kettle"] = types.ItemMeta{ID: "kettle", Name: "Kettle", Bulk: 2}
	s, err := state.NewState(reg, 7)
	require.NoError(t, err)
	return s, reg
}

func modify(s *types.State) {
	s.World.Day = 3
	s.World.Slice = "evening"
	s.World.Location = "kitchen_001"
	s.Player.MoneyPence = 1234
	s.Player.Needs["hunger"] = 77
	s.Player.Flags["npc.event_day"] = 3
	sk := s.Player.Skills["cooking"]
	sk.Value = 4.5
	sk.LastTick = 12
	s.Player.Skills["cooking"] = sk
	s.Player.Relationships["npc_neighbor_nina"] = 12
	s.NPCs["npc_neighbor_nina"].Relationships["player"] = 9
	s.Items[0].ConditionValue = 33
	s.Items[0].PlacedIn = types.Inventory
	s.Player.Goals = []types.Goal{{
		ActionID:   "cook_meal",
		Validation: types.Validation{Valid: true},
		Preview: types.Preview{
			TierDistribution: map[int]float64{0: 0, 1: 0.25, 2: 0.5, 3: 0.25},
			DeltaRanges:      types.DeltaRanges{Needs: map[string]types.Range{"hunger": {Min: -30, Max: -10}}},
			Notes:            []string{"Primary skill: cooking (4.5)"},
		},
	}}
}

func TestRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			s, _ := testState(t)
			modify(s)

			data, err := Save(s, f)
			require.NoError(t, err)
			got, err := Load(data, f)
			require.NoError(t, err)

			assert.Equal(t, s.World, got.World)
			assert.Equal(t, s.Player.MoneyPence, got.Player.MoneyPence)
			assert.Equal(t, s.Player.Needs, got.Player.Needs)
			assert.Equal(t, s.Player.Skills, got.Player.Skills)
			assert.Equal(t, s.Player.Flags, got.Player.Flags)
			assert.Equal(t, s.Player.Relationships, got.Player.Relationships)
			assert.Equal(t, s.Player.Goals, got.Player.Goals)
			assert.Equal(t, s.Items, got.Items)
			assert.Equal(t, s.Spaces, got.Spaces)
			assert.Equal(t, s.ItemSerial, got.ItemSerial)
			require.Contains(t, got.NPCs, "npc_neighbor_nina")
			assert.Equal(t, 9, got.NPCs["npc_neighbor_nina"].Relationships["player"])
			require.NotEmpty(t, got.EventLog)
			assert.Equal(t, "game.start", got.EventLog[0].ID)
		})
	}
}

func TestLoad_FillsNilMaps(t *testing.T) {
	data := []byte(`{"schema_version": 1, "world": {"day": 1, "slice": "morning", "location": "a"}, "spaces": {"a": {"id": "a"}}}`)
	s, err := Load(data, FormatJSON)
	require.NoError(t, err)
	assert.NotNil(t, s.Player.Needs)
	assert.NotNil(t, s.Player.Flags)
	assert.NotNil(t, s.NPCs)
	assert.NotNil(t, s.Utilities)
	assert.Positive(t, s.EventLogCap)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"malformed", `{`, "decoding json save"},
		{"wrong schema", `{"schema_version": 2}`, "schema version 2"},
		{"unknown location", `{"schema_version": 1, "world": {"location": "roof"}}`, `unknown space "roof"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data), FormatJSON)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatFor("slot1.yaml"))
	assert.Equal(t, FormatYAML, FormatFor("SLOT1.YML"))
	assert.Equal(t, FormatJSON, FormatFor("slot1.json"))
	assert.Equal(t, FormatJSON, FormatFor("slot1"))
}

func TestWriteReadFile(t *testing.T) {
	s, _ := testState(t)
	modify(s)
	dir := t.TempDir()

	for _, name := range []string{"nested/slot.json", "slot.yaml"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, s))
		got, err := ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, s.World, got.World)
		assert.Equal(t, s.Items, got.Items)
	}

	_, err := ReadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestTake(t *testing.T) {
	s, reg := testState(t)
	s.Player.Relationships["npc_neighbor_nina"] = 15
	sk := s.Player.Skills["cooking"]
	sk.Value = 2
	s.Player.Skills["cooking"] = sk

	snap := Take(s, reg)
	assert.Equal(t, 1, snap.Day)
	assert.Equal(t, "morning", snap.Slice)
	assert.Equal(t, "room_001", snap.SpaceID)
	assert.Equal(t, "Tiny room", snap.SpaceName)
	assert.Equal(t, []string{"hall_001"}, snap.Exits)
	assert.Equal(t, 5000, snap.MoneyPence)
	assert.Equal(t, []SkillView{{Name: "cooking", Value: 2}}, snap.Skills)

	require.Len(t, snap.ItemsHere, 2)
	assert.Equal(t, "Basic bed", snap.ItemsHere[0].Name)
	assert.Equal(t, "worn", snap.ItemsHere[0].Condition)
	assert.Equal(t, "desk_worn", snap.ItemsHere[1].Name, "no meta falls back to the id")
	assert.Empty(t, snap.Inventory)

	require.Len(t, snap.NPCs, 3)
	assert.Equal(t, "npc_landlord_park", snap.NPCs[0].ID)
	assert.Equal(t, "npc_neighbor_nina", snap.NPCs[2].ID)
	assert.Equal(t, "warm", snap.NPCs[2].Standing)
	assert.Equal(t, "neutral", snap.NPCs[0].Standing)

	require.Len(t, snap.RecentEvents, 1)
	assert.Equal(t, "game.start", snap.RecentEvents[0].ID)
}

func TestTake_IsACopy(t *testing.T) {
	s, reg := testState(t)
	snap := Take(s, reg)
	snap.Needs["hunger"] = 99
	snap.Utilities["power"] = false
	assert.Equal(t, 40, s.Player.Needs["hunger"])
	assert.True(t, s.Utilities["power"])
}
