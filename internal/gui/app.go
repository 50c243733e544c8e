package gui

import (
	"fmt"
	"log/slog"
	"math"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/san-kum/arbor/internal/config"
	"github.com/san-kum/arbor/internal/session"
)

// Theme Colors
var (
	ColBg      = rl.NewColor(12, 16, 12, 255)
	ColAccent  = rl.NewColor(180, 200, 170, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(140, 150, 140, 255)
	ColTextDim = rl.NewColor(60, 70, 60, 255)
	ColGrid    = rl.NewColor(30, 36, 30, 255)
	ColTrunk   = rl.NewColor(139, 90, 43, 255)
	ColLeaf    = rl.NewColor(124, 207, 90, 255)
	ColError   = rl.NewColor(255, 85, 85, 255)
)

const fontPath = "/usr/share/fonts/liberation/LiberationMono-Regular.ttf"

var paramKeys = []string{"iterations", "angle", "height", "trees", "seed"}

type App struct {
	Sess     *session.Session
	Cfg      config.Config
	Err      error
	Camera   rl.Camera3D
	InMenu   bool
	Presets  []string
	Selected int
	ParamSel int
	Solid    bool
	Spin     bool
	Font     rl.Font

	// orbit state around the scene center
	Yaw, Pitch, Dist float32
	Center           rl.Vector3
	DistTarget       float32

	logger *slog.Logger
}

func initWindow() {
	rl.InitWindow(1280, 720, "arbor")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// loadFont falls back to raylib's built-in font when the system font is
// missing.
func loadFont() rl.Font {
	if _, err := os.Stat(fontPath); err != nil {
		return rl.GetFontDefault()
	}
	font := rl.LoadFontEx(fontPath, 32, nil, 0)
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

// NewApp builds the viewer. With a nil cfg the app opens on the preset menu.
func NewApp(sess *session.Session, cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{
		Sess:    sess,
		Presets: config.ListPresets(),
		Font:    loadFont(),
		InMenu:  cfg == nil,
		Solid:   true,
		Pitch:   0.35,
		logger:  logger,
	}
	a.Camera = rl.NewCamera3D(
		rl.NewVector3(0, 5, 20),
		rl.NewVector3(0, 5, 0),
		rl.NewVector3(0, 1, 0),
		45.0,
		rl.CameraPerspective,
	)
	if cfg != nil {
		a.load(*cfg)
	}
	return a
}

// RunInteractive opens the window on the preset menu and blocks until it
// is closed.
func RunInteractive(sess *session.Session, logger *slog.Logger) {
	initWindow()
	defer rl.CloseWindow()
	NewApp(sess, nil, logger).RunLoop()
}

// Run opens the window directly on cfg.
func Run(sess *session.Session, cfg config.Config, logger *slog.Logger) {
	initWindow()
	defer rl.CloseWindow()
	NewApp(sess, &cfg, logger).RunLoop()
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

func (a *App) load(cfg config.Config) {
	a.Cfg = cfg.Clone()
	a.InMenu = false
	a.regenerate(true)
}

// regenerate pushes the edited config through the session. A rejected
// config keeps the previous structure on screen.
func (a *App) regenerate(refit bool) {
	changed, err := a.Sess.Update(a.Cfg)
	a.Err = err
	if err != nil {
		a.logger.Warn("gui: config rejected", "err", err)
	}
	if changed && refit {
		a.fit()
	}
}

// fit points the orbit at the middle of the scene and backs off far enough
// to see all of it.
func (a *App) fit() {
	sc := a.Sess.Scene()
	if sc == nil {
		return
	}
	lo, hi := sc.Bounds()
	a.Center = rl.NewVector3((lo.X()+hi.X())/2, (lo.Y()+hi.Y())/2, (lo.Z()+hi.Z())/2)
	size := max(hi.X()-lo.X(), hi.Y()-lo.Y(), hi.Z()-lo.Z(), 1)
	a.DistTarget = size * 1.6
	if a.Dist == 0 {
		a.Dist = a.DistTarget
	}
}

func (a *App) adjust(dir int) {
	switch paramKeys[a.ParamSel] {
	case "iterations":
		a.Cfg.Iterations = min(max(a.Cfg.Iterations+dir, 0), config.MaxIterations)
	case "angle":
		a.Cfg.Angle = math.Min(math.Max(a.Cfg.Angle+2.5*float64(dir), 0), config.MaxAngle)
	case "height":
		a.Cfg.TargetHeight = math.Max(a.Cfg.TargetHeight+float64(dir), 1)
	case "trees":
		a.Cfg.Forest.Count = min(max(a.Cfg.Forest.Count+dir, 0), config.MaxTrees)
	case "seed":
		a.Cfg.Forest.Seed += int64(dir)
	}
	a.regenerate(paramKeys[a.ParamSel] != "angle")
}

// Update handles one frame of input. It returns false once the user quits.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return false
	}

	if a.InMenu {
		if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
			a.Selected++
		}
		if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
			a.Selected--
		}
		if a.Selected >= len(a.Presets) {
			a.Selected = 0
		}
		if a.Selected < 0 {
			a.Selected = len(a.Presets) - 1
		}
		if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
			if cfg := config.GetPreset(a.Presets[a.Selected]); cfg != nil {
				a.load(*cfg)
			}
		}
		return true
	}

	if rl.IsKeyPressed(rl.KeyEscape) {
		a.InMenu = true
		return true
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		a.ParamSel = (a.ParamSel + 1) % len(paramKeys)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.adjust(1)
	}
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.adjust(-1)
	}
	if rl.IsKeyPressed(rl.KeyM) {
		a.Solid = !a.Solid
	}
	if rl.IsKeyPressed(rl.KeySpace) {
		a.Spin = !a.Spin
	}
	if rl.IsKeyPressed(rl.KeyC) {
		a.fit()
	}

	dt := rl.GetFrameTime()
	if rl.IsKeyDown(rl.KeyA) || rl.IsKeyDown(rl.KeyLeft) {
		a.Yaw -= 1.5 * dt
	}
	if rl.IsKeyDown(rl.KeyD) || rl.IsKeyDown(rl.KeyRight) {
		a.Yaw += 1.5 * dt
	}
	if rl.IsKeyDown(rl.KeyW) {
		a.Pitch = min(a.Pitch+dt, 1.5)
	}
	if rl.IsKeyDown(rl.KeyS) {
		a.Pitch = max(a.Pitch-dt, -1.5)
	}
	if a.Spin {
		a.Yaw += 0.4 * dt
	}
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		a.Yaw += delta.X * 0.01
		a.Pitch = min(max(a.Pitch+delta.Y*0.01, -1.5), 1.5)
	}
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		a.DistTarget = max(a.DistTarget*(1-wheel*0.1), 1)
	}

	// ease the distance so zooming and refits glide
	lerp := min(5*dt, 1)
	a.Dist += (a.DistTarget - a.Dist) * lerp

	cp, sp := float32(math.Cos(float64(a.Pitch))), float32(math.Sin(float64(a.Pitch)))
	cy, sy := float32(math.Cos(float64(a.Yaw))), float32(math.Sin(float64(a.Yaw)))
	a.Camera.Target = a.Center
	a.Camera.Position = rl.NewVector3(
		a.Center.X+a.Dist*cp*sy,
		a.Center.Y+a.Dist*sp,
		a.Center.Z+a.Dist*cp*cy,
	)
	return true
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.InMenu {
		a.drawMenu()
	} else {
		a.drawScene()
		a.DrawHUD()
	}

	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	name := a.Cfg.Name
	if name == "" {
		name = "custom"
	}
	a.drawText("arbor", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", name), 120, 34, 16, ColText)

	y := 80
	for i, k := range paramKeys {
		line := fmt.Sprintf("  %-11s %s", k, a.paramValue(k))
		col := ColText
		if i == a.ParamSel {
			line = "> " + line[2:]
			col = ColSelect
		}
		a.drawText(line, 30, y, 16, col)
		y += 22
	}

	if sc := a.Sess.Scene(); sc != nil {
		y += 12
		a.drawText(fmt.Sprintf("symbols   %d", sc.Symbols), 30, y, 14, ColAccent)
		a.drawText(fmt.Sprintf("segments  %d", sc.Len()), 30, y+18, 14, ColAccent)
		a.drawText(fmt.Sprintf("height    %.2f", sc.Height), 30, y+36, 14, ColAccent)
		a.drawText(fmt.Sprintf("gen       %d", a.Sess.Generation()), 30, y+54, 14, ColAccent)
	}
	if a.Err != nil {
		a.drawText(a.Err.Error(), 30, 620, 14, ColError)
	}

	a.drawText("[TAB] PARAM  [UP/DOWN] ADJUST  [WASD] ORBIT  [M] MESH  [SPACE] SPIN  [ESC] MENU  [Q] QUIT", 330, 680, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 680, 14, ColTextDim)
}

func (a *App) paramValue(key string) string {
	switch key {
	case "iterations":
		return fmt.Sprintf("%d", a.Cfg.Iterations)
	case "angle":
		return fmt.Sprintf("%.1f", a.Cfg.Angle)
	case "height":
		return fmt.Sprintf("%.1f", a.Cfg.TargetHeight)
	case "trees":
		if a.Cfg.Forest.Count == 0 {
			return "single"
		}
		return fmt.Sprintf("%d", a.Cfg.Forest.Count)
	case "seed":
		if a.Cfg.Forest.Seed == 0 {
			return "random"
		}
		return fmt.Sprintf("%d", a.Cfg.Forest.Seed)
	}
	return ""
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.Font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

func (a *App) drawMenu() {
	a.drawText("arbor", 50, 50, 40, ColSelect)
	a.drawText("Select Preset", 50, 100, 16, ColTextDim)

	y := 160
	for i, name := range a.Presets {
		if i == a.Selected {
			a.drawText(fmt.Sprintf("> %s", name), 50, y, 20, ColSelect)
		} else {
			a.drawText(fmt.Sprintf("  %s", name), 50, y, 20, ColText)
		}
		y += 28
	}

	a.drawText("ARROWS: NAVIGATE  ENTER: SELECT  Q: QUIT", 850, 680, 14, ColTextDim)
}
