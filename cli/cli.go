// Package cli provides the plain terminal front end: line I/O, output
// formatting, and meta-command dispatch for the RoomLife engine.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nathoo/roomlife/engine"
	"github.com/nathoo/roomlife/engine/save"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// Banner is printed once before the starting room.
const Banner = "RoomLife. Type 'help' for commands, /help for system commands."

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	Reg       *state.Registry
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool   // echo each input line after the prompt (for script playback)
	lastCmd   string // for "again" repeat
}

// DefaultSaveDir is where saves go when no directory is configured.
func DefaultSaveDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".roomlife", "saves")
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine, reg *state.Registry) *CLI {
	return &CLI{
		Engine:  eng,
		Reg:     reg,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: DefaultSaveDir(),
	}
}

// Run starts the game loop: banner, starting room, then prompt, input,
// dispatch and output until input ends or /quit.
func (c *CLI) Run() {
	c.printLine(Banner)
	c.printLine("")
	c.printResult(c.Engine.Step("look"))

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Script files may carry comments.
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return
			}
			continue
		}

		if strings.EqualFold(input, "again") {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := c.Engine.Step(input)
		c.printResult(result)
		if c.Trace {
			c.printTrace(result)
		}
	}
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true
	case "/save":
		c.cmdSave(arg)
	case "/load":
		c.cmdLoad(arg)
	case "/help":
		c.cmdHelp()
	case "/state":
		c.cmdState()
	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}
	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}
	return false
}

// savePath maps a slot name to a file. A name with an extension keeps it,
// so "slot.yaml" saves as YAML.
func (c *CLI) savePath(name string) string {
	if name == "" {
		name = "quicksave"
	}
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	return filepath.Join(c.SaveDir, name)
}

func (c *CLI) cmdSave(name string) {
	path := c.savePath(name)
	if err := save.WriteFile(path, c.Engine.State); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game saved to %s.", filepath.Base(path)))
}

func (c *CLI) cmdLoad(name string) {
	path := c.savePath(name)
	s, err := save.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.Engine.State = s
	c.printSystem(fmt.Sprintf("Game loaded from %s (day %d, %s).", filepath.Base(path), s.World.Day, s.World.Slice))
	c.printResult(c.Engine.Step("look"))
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  Save game (default: quicksave)",
		"  /load [name]  Load game (default: quicksave)",
		"  /quit         Exit game",
		"  /help         Show this help",
		"  /state        Debug: dump current state",
		"  /trace        Toggle event trace output",
		"  again         Repeat your last command",
		"",
	}
	for _, line := range help {
		c.printLine(line)
	}
	c.printResult(c.Engine.Step("help"))
}

func (c *CLI) cmdState() {
	snap := save.Take(c.Engine.State, c.Reg)
	c.printSystem(fmt.Sprintf("Day: %d (%s)", snap.Day, snap.Slice))
	c.printSystem(fmt.Sprintf("Location: %s", snap.SpaceID))
	c.printSystem(fmt.Sprintf("Money: %s", engine.Pence(snap.MoneyPence)))
	c.printSystem(fmt.Sprintf("Needs: %s", formatInts(snap.Needs)))
	var inv []string
	for _, it := range snap.Inventory {
		inv = append(inv, it.InstanceID)
	}
	c.printSystem(fmt.Sprintf("Inventory: %v", inv))
	if flags := c.Engine.State.Player.Flags; len(flags) > 0 {
		c.printSystem(fmt.Sprintf("Flags: %s", formatInts(flags)))
	}
	if len(snap.Goals) > 0 {
		c.printSystem(fmt.Sprintf("Goals: %s", strings.Join(snap.Goals, ", ")))
	}
}

func formatInts(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, m[k])
	}
	return strings.Join(parts, " ")
}

func (c *CLI) printTrace(result types.Result) {
	if a := result.Action; a != nil {
		c.printSystem(fmt.Sprintf("[trace] Action: %s valid=%t tier=%d", a.ActionID, a.Validation.Valid, a.Tier))
	}
	if len(result.Events) > 0 {
		c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			c.printSystem(fmt.Sprintf("[trace]   %s %v", e.ID, e.Params))
		}
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
