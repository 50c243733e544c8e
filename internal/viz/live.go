package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/arbor/internal/config"
	"github.com/san-kum/arbor/internal/scene"
	"github.com/san-kum/arbor/internal/session"
	"github.com/san-kum/arbor/internal/turtle"
)

const (
	defaultWidth  = 60
	defaultHeight = 24
	statsWidth    = 46
	angleStep     = 2.5
	rotateStep    = 0.1
)

var (
	canvasStyle      = lipgloss.NewStyle().Padding(1, 2)
	statsStyle       = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(statsWidth)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	graphStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

var paramKeys = []string{"iterations", "angle", "height", "trees", "seed"}

type TickMsg time.Time

// ConfigMsg replaces the edited configuration, e.g. after the file on disk
// changed.
type ConfigMsg struct{ Config config.Config }

// ErrMsg reports a failure from outside the editor, such as a config file
// that no longer parses.
type ErrMsg struct{ Err error }

// Model is the live editor: every parameter change goes through the session
// and the preview redraws from the published scene.
type Model struct {
	sess       *session.Session
	cfg        config.Config
	presets    []string
	preset     int
	camera     *Camera
	autoRotate bool
	width      int
	height     int
	selected   int
	err        error
	showHelp   bool
}

// NewModel starts an editor on cfg. The first regeneration happens here so
// the initial view already shows a structure.
func NewModel(sess *session.Session, cfg config.Config) Model {
	m := Model{
		sess:    sess,
		cfg:     cfg.Clone(),
		presets: config.ListPresets(),
		camera:  NewCamera(),
		width:   defaultWidth,
		height:  defaultHeight,
	}
	for i, name := range m.presets {
		if name == cfg.Name {
			m.preset = i
		}
	}
	m.regenerate()
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Config returns the configuration being edited.
func (m Model) Config() config.Config { return m.cfg }

// Err returns the last rejected regeneration, if any.
func (m Model) Err() error { return m.err }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab":
			m.selected = (m.selected + 1) % len(paramKeys)
		case "shift+tab":
			m.selected = (m.selected + len(paramKeys) - 1) % len(paramKeys)
		case "up", "k":
			m.adjust(1)
		case "down", "j":
			m.adjust(-1)
		case "p":
			m.nextPreset()
		case "x":
			m.camera.RotateX(rotateStep)
		case "X":
			m.camera.RotateX(-rotateStep)
		case "y", "right", "l":
			m.camera.RotateY(rotateStep)
		case "Y", "left", "h":
			m.camera.RotateY(-rotateStep)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "c":
			m.fit(false)
		case " ":
			m.autoRotate = !m.autoRotate
		case "t":
			CurrentTheme = NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.width = max(msg.Width-statsWidth-8, 10)
		m.height = max(msg.Height-4, 6)
	case ConfigMsg:
		m.cfg = msg.Config.Clone()
		m.regenerate()
	case ErrMsg:
		m.err = msg.Err
	case TickMsg:
		if m.autoRotate {
			m.camera.RotateY(rotateStep / 4)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) adjust(dir int) {
	switch paramKeys[m.selected] {
	case "iterations":
		m.cfg.Iterations = min(max(m.cfg.Iterations+dir, 0), config.MaxIterations)
	case "angle":
		m.cfg.Angle = math.Min(math.Max(m.cfg.Angle+angleStep*float64(dir), 0), config.MaxAngle)
	case "height":
		m.cfg.TargetHeight = math.Max(m.cfg.TargetHeight+float64(dir), 1)
	case "trees":
		m.cfg.Forest.Count = min(max(m.cfg.Forest.Count+dir, 0), config.MaxTrees)
	case "seed":
		m.cfg.Forest.Seed += int64(dir)
	}
	m.regenerate()
}

func (m *Model) nextPreset() {
	if len(m.presets) == 0 {
		return
	}
	m.preset = (m.preset + 1) % len(m.presets)
	if p := config.GetPreset(m.presets[m.preset]); p != nil {
		m.cfg = *p
		m.regenerate()
	}
}

// regenerate pushes the current config through the session. A rejected
// config leaves the previous scene on screen with the error beside it.
func (m *Model) regenerate() {
	changed, err := m.sess.Update(m.cfg)
	m.err = err
	if changed {
		m.fit(true)
	}
}

// fit recenters the camera on the current scene, optionally keeping the
// user's orientation and zoom.
func (m *Model) fit(keepView bool) {
	sc := m.sess.Scene()
	if sc == nil {
		return
	}
	cam := SceneCamera(sc)
	if keepView {
		cam.RotX, cam.RotY, cam.Zoom = m.camera.RotX, m.camera.RotY, m.camera.Zoom
	}
	*m.camera = *cam
}

// GrowthSeries returns log10 of the string length for rounds 0..n of cfg.
func GrowthSeries(cfg config.Config) []float64 {
	stats := cfg.Grammar().Stats(cfg.Iterations, turtle.IsDraw)
	out := make([]float64, len(stats))
	for i, g := range stats {
		out[i] = math.Log10(float64(max(g.Length, 1)))
	}
	return out
}

// GrowthChart plots GrowthSeries, or returns "" when there is only one
// round to show.
func GrowthChart(cfg config.Config, width, height int) string {
	series := GrowthSeries(cfg)
	if len(series) < 2 {
		return ""
	}
	return asciigraph.Plot(series,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(1),
		asciigraph.Caption("log10 length per iteration"))
}

func (m Model) paramValue(key string) string {
	switch key {
	case "iterations":
		return fmt.Sprintf("%d", m.cfg.Iterations)
	case "angle":
		return fmt.Sprintf("%.1f°", m.cfg.Angle)
	case "height":
		return fmt.Sprintf("%.1f", m.cfg.TargetHeight)
	case "trees":
		if m.cfg.Forest.Count == 0 {
			return "single"
		}
		return fmt.Sprintf("%d", m.cfg.Forest.Count)
	case "seed":
		if m.cfg.Forest.Seed == 0 {
			return "random"
		}
		return fmt.Sprintf("%d", m.cfg.Forest.Seed)
	}
	return ""
}

func (m Model) View() string {
	sc := m.sess.Scene()

	canvas := NewCanvas(m.width, m.height)
	if sc != nil {
		Render3D(canvas, SceneWireframe(sc), m.camera)
	}
	canvasView := canvasStyle.Foreground(CurrentTheme.Primary).Render(canvas.String())

	var s strings.Builder
	name := m.cfg.Name
	if name == "" {
		name = "custom"
	}
	s.WriteString(GradientText(strings.ToUpper(name), CurrentTheme.Trunk, CurrentTheme.Leaf) + "\n")
	s.WriteString(Subtle.Render("axiom "+m.cfg.Axiom) + "\n")
	for _, r := range m.cfg.RuleStrings() {
		s.WriteString(Subtle.Render(truncate(r, statsWidth-6)) + "\n")
	}
	s.WriteString("\n")

	for i, k := range paramKeys {
		line := fmt.Sprintf("%-10s %s", k, m.paramValue(k))
		if i == m.selected {
			s.WriteString(activeParamStyle.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + valueStyle.Render(line) + "\n")
		}
	}
	s.WriteString("\n")

	if sc != nil {
		s.WriteString(m.stats(sc))
	}
	if m.err != nil {
		s.WriteString("\n" + ErrorStyle.Render(truncate(m.err.Error(), 3*(statsWidth-6))) + "\n")
	}
	if chart := GrowthChart(m.cfg, statsWidth-14, 4); chart != "" {
		s.WriteString(graphStyle.Render(chart) + "\n")
	}
	s.WriteString(helpStyle.Render("tab:param ↑↓:adjust p:preset t:theme\nxy/←→:rotate +-:zoom c:fit space:spin ?:help q:quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpOverlay + "\n\n" + mainView
	}
	return mainView
}

func (m Model) stats(sc *scene.Scene) string {
	var s strings.Builder
	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Symbols", fmt.Sprintf("%d", sc.Symbols))
	s.WriteString(MetricLabel.Render("Budget") + UsageBar(float64(sc.Symbols), scene.MaxSymbols, 20) + "\n")
	row("Segments", fmt.Sprintf("%d", sc.Len()))
	row("Instances", fmt.Sprintf("%d", len(sc.Instances)))
	row("Height", fmt.Sprintf("%.2f", sc.Height))
	row("Depth", fmt.Sprintf("%d", sc.MaxDepth))
	if sc.Skipped > 0 {
		row("Skipped", fmt.Sprintf("%d", sc.Skipped))
	}
	row("Generation", fmt.Sprintf("%d", m.sess.Generation()))
	return s.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n < 2 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

const helpOverlay = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Tab      - Next parameter           ║
║  Up/K     - Increase parameter       ║
║  Down/J   - Decrease parameter       ║
║  P        - Next preset              ║
║  X/Shift  - Pitch camera             ║
║  Y/←/→    - Orbit camera             ║
║  +/-      - Zoom                     ║
║  C        - Refit camera             ║
║  Space    - Toggle auto-rotate       ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`
