package tui

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/roomlife/engine"
	"github.com/nathoo/roomlife/engine/parser"
	"github.com/nathoo/roomlife/engine/save"
	"github.com/nathoo/roomlife/engine/state"
	"github.com/nathoo/roomlife/types"
)

// statusLines is the height of the status area under the viewport.
const statusLines = 2

// rawLine stores an unstyled output line with its classification so it can
// be re-wrapped and re-styled on resize.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool
	isSystem bool
}

// Model is the Bubble Tea model for the RoomLife TUI.
type Model struct {
	engine *engine.Engine
	reg    *state.Registry

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	lastCmd  string
	saveDir  string
}

// gameOutputMsg carries output into the Update loop.
type gameOutputMsg struct {
	input    string
	lines    []string
	isSystem bool
}

// New creates a TUI model wired to the given engine. Saves go to saveDir.
func New(eng *engine.Engine, reg *state.Registry, saveDir string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		engine:  eng,
		reg:     reg,
		input:   ti,
		history: NewHistory(100),
		saveDir: saveDir,
	}
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, reg *state.Registry, saveDir string) error {
	p := tea.NewProgram(New(eng, reg, saveDir), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init blinks the cursor and describes the starting room.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		lines := []string{"RoomLife", "Type 'help' for commands, /help for system commands. Tab completes.", ""}
		lines = append(lines, m.engine.Step("look").Output...)
		return gameOutputMsg{lines: lines}
	}
}

// Update handles key presses, resizes, and game output.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		vpHeight := m.height - statusLines - 1
		if vpHeight < 1 {
			vpHeight = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}
		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "enter":
			return m.handleEnter()
		case "tab":
			m.input.SetValue(m.complete(m.input.Value()))
			m.input.CursorEnd()
			return m, nil
		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil
		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
			}
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")
	if input == "" {
		return m, nil
	}
	m.history.Push(input)
	m.history.ResetCursor()

	if strings.EqualFold(input, "again") {
		if m.lastCmd == "" {
			m = m.appendOutput(gameOutputMsg{input: input, lines: []string{"Nothing to repeat."}, isSystem: true})
			return m, nil
		}
		input = m.lastCmd
	} else if !strings.HasPrefix(input, "/") {
		m.lastCmd = input
	}

	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	result := m.engine.Step(input)
	output := result.Output
	if m.trace {
		output = append(output, formatTrace(result)...)
	}
	m = m.appendOutput(gameOutputMsg{input: input, lines: output})
	return m, nil
}

// appendOutput adds lines to the narrative and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{text: "> " + msg.input, isInput: true})
	}
	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}
	m.rawLines = append(m.rawLines, rawLine{})
	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles every raw line at the current width.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	width := m.width
	if width < 10 {
		width = 10
	}

	styled := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}
		wrapped := wordWrap(rl.text, width)
		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}
	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text at word boundaries. Leading indentation survives on
// the first line only.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}
	indent := text[:len(text)-len(strings.TrimLeft(text, " "))]

	var b strings.Builder
	lineLen := 0
	for i, word := range strings.Fields(text) {
		if i == 0 {
			b.WriteString(indent + word)
			lineLen = len(indent) + len(word)
			continue
		}
		if lineLen+1+len(word) > width {
			b.WriteString("\n" + word)
			lineLen = len(word)
		} else {
			b.WriteString(" " + word)
			lineLen += 1 + len(word)
		}
	}
	return b.String()
}

// View renders the viewport, the status area and the input line.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// complete extends the last word of input to the longest prefix shared by
// every candidate it matches. Input is returned unchanged when nothing
// matches.
func (m Model) complete(input string) string {
	fields := strings.Fields(input)
	if len(fields) == 0 || strings.HasSuffix(input, " ") {
		return input
	}
	last := fields[len(fields)-1]
	pool := m.commandWords()
	if len(fields) > 1 {
		pool = m.objectWords()
	}

	var matches []string
	for _, w := range pool {
		if strings.HasPrefix(w, last) {
			matches = append(matches, w)
		}
	}
	if len(matches) == 0 {
		return input
	}
	done := commonPrefix(matches)
	if len(matches) == 1 {
		done += " "
	}
	return input[:len(input)-len(last)] + done
}

// commandWords lists the verbs and registered action ids.
func (m Model) commandWords() []string {
	words := append(parser.Verbs(), m.reg.ActionIDs()...)
	return dedupe(words)
}

// objectWords lists what a command can name right now: exits, reachable
// item kinds, NPC ids, and item kinds for sale.
func (m Model) objectWords() []string {
	s := m.engine.State
	words := append([]string(nil), s.Spaces[s.World.Location].Connections...)
	for _, it := range state.ReachableItems(s) {
		words = append(words, it.ItemID)
	}
	words = append(words, state.NPCIDs(s)...)
	for id, meta := range m.reg.Items {
		if meta.Price > 0 {
			words = append(words, id)
		}
	}
	return dedupe(words)
}

func dedupe(words []string) []string {
	sort.Strings(words)
	out := words[:0]
	for i, w := range words {
		if i == 0 || w != words[i-1] {
			out = append(out, w)
		}
	}
	return out
}

func commonPrefix(words []string) string {
	prefix := words[0]
	for _, w := range words[1:] {
		for !strings.HasPrefix(w, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true
	case "/save":
		return m.cmdSave(arg), false
	case "/load":
		return m.cmdLoad(arg), false
	case "/help":
		return m.cmdHelp(), false
	case "/state":
		return m.cmdState(), false
	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false
	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) savePath(name string) string {
	if name == "" {
		name = "quicksave"
	}
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	return filepath.Join(m.saveDir, name)
}

func (m *Model) cmdSave(name string) []string {
	path := m.savePath(name)
	if err := save.WriteFile(path, m.engine.State); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Game saved to %s.", filepath.Base(path))}
}

func (m *Model) cmdLoad(name string) []string {
	path := m.savePath(name)
	s, err := save.ReadFile(path)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	m.engine.State = s
	output := []string{fmt.Sprintf("Game loaded from %s (day %d, %s).", filepath.Base(path), s.World.Day, s.World.Slice)}
	return append(output, m.engine.Step("look").Output...)
}

func (m *Model) cmdHelp() []string {
	out := []string{
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
	out = append(out, m.engine.Step("help").Output...)
	return append(out, "", "PgUp/PgDn scroll, Up/Down browse history, Tab completes")
}

func (m *Model) cmdState() []string {
	snap := save.Take(m.engine.State, m.reg)
	out := []string{
		fmt.Sprintf("Day: %d (%s)", snap.Day, snap.Slice),
		fmt.Sprintf("Location: %s", snap.SpaceID),
		fmt.Sprintf("Money: %s", engine.Pence(snap.MoneyPence)),
	}
	for _, n := range snap.NPCs {
		out = append(out, fmt.Sprintf("NPC %s: %d (%s)", n.ID, n.Relationship, n.Standing))
	}
	for _, ev := range snap.RecentEvents {
		out = append(out, fmt.Sprintf("Event %s %v", ev.ID, ev.Params))
	}
	return out
}

func formatTrace(result types.Result) []string {
	var lines []string
	if a := result.Action; a != nil {
		lines = append(lines, fmt.Sprintf("[trace] Action: %s valid=%t tier=%d", a.ActionID, a.Validation.Valid, a.Tier))
	}
	if len(result.Events) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			lines = append(lines, fmt.Sprintf("[trace]   %s %v", e.ID, e.Params))
		}
	}
	return lines
}

// viewportKeyMap disables Up/Down on the viewport; those browse history.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
