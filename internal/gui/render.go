package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/arbor/internal/scene"
)

// solidLimit caps the segment count drawn as cylinders; bigger scenes fall
// back to lines to stay interactive.
const solidLimit = 20000

func vec(v mgl32.Vec3) rl.Vector3 { return rl.NewVector3(v.X(), v.Y(), v.Z()) }

// segmentColor blends trunk to leaf by the segment's height fraction.
func segmentColor(y, lo, hi float32) rl.Color {
	t := float32(0)
	if hi > lo {
		t = min(max((y-lo)/(hi-lo), 0), 1)
	}
	mix := func(x, y uint8) uint8 { return uint8(float32(x) + (float32(y)-float32(x))*t) }
	return rl.NewColor(mix(ColTrunk.R, ColLeaf.R), mix(ColTrunk.G, ColLeaf.G), mix(ColTrunk.B, ColLeaf.B), 255)
}

func (a *App) drawScene() {
	rl.BeginMode3D(a.Camera)
	a.drawGround()
	if sc := a.Sess.Scene(); sc != nil {
		a.RenderScene(sc)
	}
	rl.EndMode3D()
}

func (a *App) drawGround() {
	half := max(a.DistTarget, 10)
	step := half / 10
	for i := -10; i <= 10; i++ {
		p := float32(i) * step
		rl.DrawLine3D(rl.NewVector3(a.Center.X+p, 0, a.Center.Z-half), rl.NewVector3(a.Center.X+p, 0, a.Center.Z+half), ColGrid)
		rl.DrawLine3D(rl.NewVector3(a.Center.X-half, 0, a.Center.Z+p), rl.NewVector3(a.Center.X+half, 0, a.Center.Z+p), ColGrid)
	}
}

// RenderScene draws one cylinder per segment, scaled with the segment so
// the unit model's radius keeps its proportion to the length.
func (a *App) RenderScene(sc *scene.Scene) {
	segs := sc.Segments()
	lo, hi := sc.Bounds()
	solid := a.Solid && len(segs) <= solidLimit

	var ratio float32
	if sc.Model.Height > 0 {
		ratio = sc.Model.Radius / sc.Model.Height
	}

	for _, s := range segs {
		col := segmentColor(s.End.Y(), lo.Y(), hi.Y())
		if !solid {
			rl.DrawLine3D(vec(s.Start), vec(s.End), col)
			continue
		}
		r := max(s.End.Sub(s.Start).Len()*ratio, 0.01)
		rl.DrawCylinderEx(vec(s.Start), vec(s.End), r, r*0.8, 6, col)
	}
}
