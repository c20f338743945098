package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleNeedsBar = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("250"))

	styleNeedWarn = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("214"))

	styleNeedBad = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("196")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarrative = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleHeading = lipgloss.NewStyle().
			Bold(true)

	styleExits = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleNPC = lipgloss.NewStyle().
			Foreground(lipgloss.Color("228"))

	styleGain = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	styleWarning = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarrative lineKind = iota
	kindHeading
	kindExits
	kindNPC
	kindGain
	kindWarning
	kindSystem
	kindError
	kindTrace
)

var headings = []string{"You see:", "You could:", "Today's goals:", "You are carrying", "Commands:"}

var warnings = []string{
	"Ouch.", "You're not feeling well.", "You feel seriously unwell.",
	"The taps are dry.", "The radiator is cold.", "The lights are out.",
	"Someone is making a racket",
}

// classifyLine determines what kind of output line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "Exits:"):
		return kindExits
	case strings.HasPrefix(line, "You can't"),
		strings.HasPrefix(line, "You don't know"),
		strings.HasPrefix(line, "Error:"),
		strings.HasPrefix(line, "  - "):
		return kindError
	case strings.HasPrefix(line, "Your "), strings.HasPrefix(line, "A new day begins"):
		return kindGain
	case strings.Contains(line, " drops by: "),
		strings.HasPrefix(line, "You bump into "),
		strings.HasSuffix(line, " is here."):
		return kindNPC
	}
	for _, h := range headings {
		if strings.HasPrefix(line, h) {
			return kindHeading
		}
	}
	for _, w := range warnings {
		if strings.HasPrefix(line, w) {
			return kindWarning
		}
	}
	return kindNarrative
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindHeading:
		return styleHeading.Render(line)
	case kindExits:
		return styleExits.Render(line)
	case kindNPC:
		return styleNPC.Render(line)
	case kindGain:
		return styleGain.Render(line)
	case kindWarning:
		return styleWarning.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleNarrative.Render(line)
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
