package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/arbor/internal/config"
	"github.com/san-kum/arbor/internal/session"
)

var presetInfo = map[string]string{
	"tree":    "classic branching tree",
	"bush":    "dense shrub",
	"seaweed": "tall swaying fronds",
	"fern":    "self-similar fern",
	"pine3d":  "pitched and rolled conifer",
	"sticks":  "sparse twig skeleton",
	"forest":  "scattered grove",
}

const (
	stateMenu = iota
	stateLive
)

// App is the preset picker in front of the live editor.
type App struct {
	state   int
	cursor  int
	presets []string
	sess    *session.Session
	live    Model
	width   int
	height  int
}

func NewApp(sess *session.Session) App {
	return App{state: stateMenu, presets: config.ListPresets(), sess: sess}
}

func (a App) Init() tea.Cmd { return nil }

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.state == stateLive {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			a.state = stateMenu
			return a, nil
		}
		next, cmd := a.live.Update(msg)
		a.live = next.(Model)
		return a, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "up", "k":
			if a.cursor > 0 {
				a.cursor--
			}
		case "down", "j":
			if a.cursor < len(a.presets)-1 {
				a.cursor++
			}
		case "enter", " ":
			return a.open(a.presets[a.cursor])
		}
	}
	return a, nil
}

func (a App) open(name string) (App, tea.Cmd) {
	cfg := config.GetPreset(name)
	if cfg == nil {
		return a, nil
	}
	a.live = NewModel(a.sess, *cfg)
	if a.width > 0 {
		next, _ := a.live.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		a.live = next.(Model)
	}
	a.state = stateLive
	return a, a.live.Init()
}

func (a App) View() string {
	if a.state == stateLive {
		return a.live.View()
	}

	var b strings.Builder
	h := lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
	b.WriteString("\n\n    " + h.Render("ARBOR") + "\n    " + Subtle.Render("l-system structure generator") + "\n    " + Subtle.Render("────────────────────────────") + "\n\n")
	for i, name := range a.presets {
		desc := presetInfo[name]
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n",
				lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Bold(true).Render("▸"),
				lipgloss.NewStyle().Foreground(CurrentTheme.Text).Bold(true).Render(fmt.Sprintf("%-10s", name)),
				lipgloss.NewStyle().Foreground(CurrentTheme.Secondary).Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n",
				lipgloss.NewStyle().Foreground(CurrentTheme.Muted).Render(fmt.Sprintf("  %-10s", name)),
				Subtle.Render(desc)))
		}
	}
	b.WriteString("\n    " + KeyHint.Render("j/k navigate  enter open  esc back  q quit") + "\n")
	return b.String()
}

// NewLiveProgram opens the editor directly on cfg. Callers may feed the
// program ConfigMsg and ErrMsg values through Send.
func NewLiveProgram(sess *session.Session, cfg config.Config) *tea.Program {
	return tea.NewProgram(NewModel(sess, cfg), tea.WithAltScreen())
}

// RunInteractive starts at the preset menu.
func RunInteractive(sess *session.Session) error {
	_, err := tea.NewProgram(NewApp(sess), tea.WithAltScreen()).Run()
	return err
}
