package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/roomlife/engine"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// testRegistry holds the default building and a move action.
func testRegistry(t *testing.T) *state.Registry {
	t.Helper()
	reg, err := state.NewRegistry()
	require.NoError(t, err)
	reg.Items["bed_basic"] = types.ItemMeta{ID: "bed_basic", Name: "Basic bed", Bulk: 8}
	reg.Actions["move"] = &types.ActionSpec{
		ID: "move", DisplayName: "Go", Kind: types.KindMove,
		Parameters: []types.ParamSpec{{Name: "target_space", Type: types.ParamSpaceID, Required: true}},
	}
	return reg
}

func newTestEngine(t *testing.T, reg *state.Registry) *engine.Engine {
	t.Helper()
	eng, err := engine.New(reg, 42)
	require.NoError(t, err)
	eng.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return eng
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	reg := testRegistry(t)
	var out bytes.Buffer
	c := &CLI{
		Engine:  newTestEngine(t, reg),
		Reg:     reg,
		In:      strings.NewReader(input),
		Out:     &out,
		SaveDir: t.TempDir(),
	}
	return c, &out
}

func TestCLI_BannerAndStartingRoom(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n")
	c.Run()

	output := out.String()
	assert.Contains(t, output, Banner)
	assert.Contains(t, output, "Tiny room. Day 1, morning.")
	assert.Contains(t, output, "[Goodbye.]")
}

func TestCLI_Move(t *testing.T) {
	c, out := newTestCLI(t, "move hall_001\nlook\n/quit\n")
	c.Run()

	output := out.String()
	assert.Contains(t, output, "You walk to hall_001.")
	assert.Contains(t, output, "Hallway. Day 1")
	assert.Equal(t, "hall_001", c.Engine.State.World.Location)
}

func TestCLI_HelpCommand(t *testing.T) {
	c, out := newTestCLI(t, "/help\n/quit\n")
	c.Run()

	output := out.String()
	for _, want := range []string{"/save", "/load", "/quit", "again", "move <space>"} {
		assert.Contains(t, output, want)
	}
}

func TestCLI_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	reg := testRegistry(t)

	var out bytes.Buffer
	c := &CLI{
		Engine:  newTestEngine(t, reg),
		Reg:     reg,
		In:      strings.NewReader("move hall_001\n/save test\n/quit\n"),
		Out:     &out,
		SaveDir: dir,
	}
	c.Run()
	assert.Contains(t, out.String(), "Game saved to test.json.")
	assert.FileExists(t, filepath.Join(dir, "test.json"))

	var out2 bytes.Buffer
	c2 := &CLI{
		Engine:  newTestEngine(t, reg),
		Reg:     reg,
		In:      strings.NewReader("/load test\n/quit\n"),
		Out:     &out2,
		SaveDir: dir,
	}
	c2.Run()

	loadOutput := out2.String()
	assert.Contains(t, loadOutput, "Game loaded from test.json")
	assert.Contains(t, loadOutput, "Hallway.")
	assert.Equal(t, "hall_001", c2.Engine.State.World.Location)
}

func TestCLI_SaveYAML(t *testing.T) {
	c, out := newTestCLI(t, "/save slot.yaml\n/quit\n")
	c.Run()

	assert.Contains(t, out.String(), "Game saved to slot.yaml.")
	data, err := os.ReadFile(filepath.Join(c.SaveDir, "slot.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "schema_version: 1")
}

func TestCLI_UnknownMetaCommand(t *testing.T) {
	c, out := newTestCLI(t, "/bogus\n/quit\n")
	c.Run()
	assert.Contains(t, out.String(), "Unknown command: /bogus")
}

func TestCLI_TraceToggle(t *testing.T) {
	c, out := newTestCLI(t, "/trace\nmove hall_001\n/trace\n/quit\n")
	c.Run()

	output := out.String()
	assert.Contains(t, output, "Trace output enabled")
	assert.Contains(t, output, "[trace] Action: move valid=true")
	assert.Contains(t, output, "[trace]   player.moved")
	assert.Contains(t, output, "[trace]   time.advance")
	assert.Contains(t, output, "Trace output disabled")
}

func TestCLI_StateCommand(t *testing.T) {
	c, out := newTestCLI(t, "/state\n/quit\n")
	c.Run()

	output := out.String()
	assert.Contains(t, output, "[Day: 1 (morning)]")
	assert.Contains(t, output, "[Location: room_001]")
	assert.Contains(t, output, "[Money: £50.00]")
	assert.Contains(t, output, "hunger=40")
}

func TestCLI_EmptyInputAndComments(t *testing.T) {
	c, out := newTestCLI(t, "\n# a comment\n\n/quit\n")
	c.Run()

	assert.NotContains(t, out.String(), "Say something.")
	assert.Equal(t, "morning", c.Engine.State.World.Slice, "skipped lines take no time")
}

func TestCLI_LoadNonexistent(t *testing.T) {
	c, out := newTestCLI(t, "/load nonexistent\n/quit\n")
	c.Run()
	assert.Contains(t, out.String(), "Load failed")
}

func TestCLI_Again_RepeatsLastCommand(t *testing.T) {
	c, out := newTestCLI(t, "look\nagain\n/quit\n")
	c.Run()

	// Starting room, the look, and the repeat.
	assert.GreaterOrEqual(t, strings.Count(out.String(), "Tiny room."), 3)
}

func TestCLI_Again_NothingToRepeat(t *testing.T) {
	c, out := newTestCLI(t, "again\n/quit\n")
	c.Run()
	assert.Contains(t, out.String(), "Nothing to repeat")
}

func TestCLI_EchoInput(t *testing.T) {
	c, out := newTestCLI(t, "status\n")
	c.EchoInput = true
	c.Run()

	output := out.String()
	assert.Contains(t, output, "> status\n")
	assert.Contains(t, output, "Money: £50.00.")
}
