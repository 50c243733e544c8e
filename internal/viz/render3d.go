package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/arbor/internal/scene"
)

// Camera orbits a target point and projects world coordinates to a 2D
// surface of any size.
type Camera struct {
	Target mgl32.Vec3
	// Extent is the world size mapped onto the shorter screen side.
	Extent   float64
	Distance float64
	Near     float64
	RotX     float64
	RotY     float64
	Zoom     float64
}

func NewCamera() *Camera {
	return &Camera{Extent: 10, Distance: 30, Near: 0.1, Zoom: 1.0}
}

// FitCamera centers a camera on the box [lo, hi] so that it fills the view.
func FitCamera(lo, hi mgl32.Vec3) *Camera {
	c := NewCamera()
	c.Target = lo.Add(hi).Mul(0.5)
	size := hi.Sub(lo)
	c.Extent = math.Max(float64(max(size.X(), size.Y(), size.Z())), 1e-3) * 1.1
	c.Distance = c.Extent * 3
	return c
}

// SceneCamera fits a camera to every segment of sc.
func SceneCamera(sc *scene.Scene) *Camera {
	return FitCamera(sc.Bounds())
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(20, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.05, c.Zoom/1.2) }

// RotatePoint expresses p relative to the target in camera orientation.
func (c *Camera) RotatePoint(p mgl32.Vec3) mgl32.Vec3 {
	rx := mgl32.Rotate3DX(float32(c.RotX))
	ry := mgl32.Rotate3DY(float32(c.RotY))
	return rx.Mul3(ry).Mul3x1(p.Sub(c.Target))
}

// Project maps p to screen coordinates on a sw x sh surface with y growing
// downward. It also returns the depth and whether the point lies in front of
// the camera and inside the surface.
func (c *Camera) Project(p mgl32.Vec3, sw, sh float64) (x, y, depth float64, visible bool) {
	rot := c.RotatePoint(p)
	z := float64(rot.Z())
	if z >= c.Distance-c.Near {
		return 0, 0, z, false
	}
	persp := c.Distance / (c.Distance - z)
	pScale := math.Min(sw, sh) / c.Extent * c.Zoom
	x = float64(rot.X())*persp*pScale + sw/2
	y = -float64(rot.Y())*persp*pScale + sh/2
	return x, y, z, x >= 0 && x < sw && y >= 0 && y < sh
}

type Edge struct {
	Start, End mgl32.Vec3
	Instance   int
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe                     { return &Wireframe{Edges: make([]Edge, 0)} }
func (w *Wireframe) AddEdge(s, e mgl32.Vec3, i int) { w.Edges = append(w.Edges, Edge{s, e, i}) }
func (w *Wireframe) Clear()                         { w.Edges = w.Edges[:0] }

// SceneWireframe builds one edge per placed segment.
func SceneWireframe(sc *scene.Scene) *Wireframe {
	segs := sc.Segments()
	w := &Wireframe{Edges: make([]Edge, len(segs))}
	for i, s := range segs {
		w.Edges[i] = Edge{Start: s.Start, End: s.End, Instance: s.Instance}
	}
	return w
}

// GroundWireframe outlines the square of half-size r on the ground plane.
func GroundWireframe(center mgl32.Vec3, r float32) *Wireframe {
	w := NewWireframe()
	c := [4]mgl32.Vec3{
		{center.X() - r, 0, center.Z() - r},
		{center.X() + r, 0, center.Z() - r},
		{center.X() + r, 0, center.Z() + r},
		{center.X() - r, 0, center.Z() + r},
	}
	for i := range c {
		w.AddEdge(c[i], c[(i+1)%4], -1)
	}
	return w
}

type ProjectedEdge struct {
	X1, Y1, X2, Y2 float64
	Depth          float64
	Instance       int
}

// ProjectEdges projects the wireframe onto a sw x sh surface and returns the
// edges with at least one visible end, farthest first.
func ProjectEdges(w *Wireframe, cam *Camera, sw, sh float64) []ProjectedEdge {
	proj := make([]ProjectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, sw, sh)
		x2, y2, d2, v2 := cam.Project(e.End, sw, sh)
		if v1 || v2 {
			proj = append(proj, ProjectedEdge{x1, y1, x2, y2, (d1 + d2) / 2, e.Instance})
		}
	}
	sort.SliceStable(proj, func(i, j int) bool { return proj[i].Depth < proj[j].Depth })
	return proj
}

// Render3D draws the wireframe to the canvas using a simple painter's algorithm.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	dw, dh := c.Dots()
	for _, e := range ProjectEdges(w, cam, float64(dw), float64(dh)) {
		x1, y1 := int(math.Round(e.X1)), int(math.Round(e.Y1))
		x2, y2 := int(math.Round(e.X2)), int(math.Round(e.Y2))
		if x1 == x2 && y1 == y2 {
			c.Set(x1, y1)
		} else {
			c.DrawLine(x1, y1, x2, y2)
		}
	}
}

// Preview renders sc as Braille text of w x h cells. A nil camera is fitted
// to the scene.
func Preview(sc *scene.Scene, w, h int, cam *Camera) string {
	if cam == nil {
		cam = SceneCamera(sc)
	}
	c := NewCanvas(w, h)
	Render3D(c, SceneWireframe(sc), cam)
	return c.String()
}
