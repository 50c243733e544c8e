package viz

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/arbor/internal/config"
	"github.com/san-kum/arbor/internal/model"
	"github.com/san-kum/arbor/internal/session"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	unit, _ := model.Builtin("cylinder")
	sess := session.New(unit, session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	return NewModel(sess, *config.GetPreset("tree"))
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestLiveInitialScene(t *testing.T) {
	m := newTestModel(t)
	if m.sess.Scene() == nil {
		t.Fatal("expected a scene after construction")
	}
	if m.sess.Generation() != 1 {
		t.Errorf("expected generation 1, got %d", m.sess.Generation())
	}
	if !strings.Contains(m.View(), "iterations") {
		t.Error("expected parameters in the view")
	}
}

func TestLiveAdjustRegenerates(t *testing.T) {
	m := newTestModel(t)

	m = press(m, "down")
	if m.Config().Iterations != 2 {
		t.Errorf("expected 2 iterations, got %d", m.Config().Iterations)
	}
	if m.sess.Generation() != 2 {
		t.Errorf("expected regeneration, got generation %d", m.sess.Generation())
	}

	m = press(m, "tab", "up")
	if m.Config().Angle != 25+angleStep {
		t.Errorf("expected angle %g, got %g", 25+angleStep, m.Config().Angle)
	}
	if m.sess.Scene().Config.Angle != m.Config().Angle {
		t.Error("scene should reflect the new angle")
	}
}

func TestLiveClampsIterations(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "down", "down", "down", "down", "down")
	if m.Config().Iterations != 0 {
		t.Errorf("expected iterations clamped at 0, got %d", m.Config().Iterations)
	}
}

func TestLiveKeepsSceneOnError(t *testing.T) {
	m := newTestModel(t)
	before := m.sess.Scene()

	bad := m.Config()
	bad.Axiom = "FQ"
	next, _ := m.Update(ConfigMsg{Config: bad})
	m = next.(Model)

	if m.Err() == nil {
		t.Fatal("expected an error for an invalid symbol")
	}
	if m.sess.Scene() != before {
		t.Error("expected the previous scene to stay published")
	}
	if !strings.Contains(m.View(), "invalid symbol") {
		t.Error("expected the error in the view")
	}
}

func TestLiveErrMsg(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(ErrMsg{Err: errors.New("reload failed")})
	if next.(Model).Err() == nil {
		t.Error("expected error to be recorded")
	}
}

func TestLivePresetCycle(t *testing.T) {
	m := newTestModel(t)
	first := m.Config().Name
	m = press(m, "p")
	if m.Config().Name == first {
		t.Error("expected a different preset")
	}
}

func TestGrowthSeries(t *testing.T) {
	cfg := *config.DefaultConfig()
	series := GrowthSeries(cfg)
	if len(series) != cfg.Iterations+1 {
		t.Fatalf("expected %d points, got %d", cfg.Iterations+1, len(series))
	}
	if series[0] != 0 {
		t.Errorf("expected log10(1)=0 for the axiom, got %f", series[0])
	}
	for i := 1; i < len(series); i++ {
		if series[i] <= series[i-1] {
			t.Errorf("expected growth at round %d", i)
		}
	}

	cfg.Iterations = 0
	if GrowthChart(cfg, 20, 4) != "" {
		t.Error("expected no chart for a single round")
	}
}

func TestAppMenuOpensEditor(t *testing.T) {
	unit, _ := model.Builtin("cylinder")
	sess := session.New(unit, session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	a := NewApp(sess)

	next, _ := a.Update(tea.KeyMsg{Type: tea.KeyDown})
	a = next.(App)
	next, _ = a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	a = next.(App)

	if a.state != stateLive {
		t.Fatal("expected the editor after enter")
	}
	if got, want := a.live.Config().Name, a.presets[1]; got != want {
		t.Errorf("expected preset %s, got %s", want, got)
	}
	if sess.Scene() == nil {
		t.Error("expected the session to hold a scene")
	}

	next, _ = a.Update(tea.KeyMsg{Type: tea.KeyEsc})
	a = next.(App)
	if a.state != stateMenu {
		t.Error("expected esc to return to the menu")
	}
	if !strings.Contains(a.View(), "ARBOR") {
		t.Error("expected the menu title")
	}
}
