package export

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/arbor/internal/scene"
	"github.com/san-kum/arbor/internal/viz"
)

// stroke is one projected segment; T is its height fraction in [0, 1].
type stroke struct {
	X1, Y1, X2, Y2 float64
	Depth          float64
	T              float64
}

// project maps every visible segment of sc onto the image, farthest first.
func project(sc *scene.Scene, cam *viz.Camera, opts Options) []stroke {
	if cam == nil {
		cam = viz.SceneCamera(sc)
	}
	w, h := float64(opts.Width), float64(opts.Height)
	lo, hi := sc.Bounds()
	span := hi.Y() - lo.Y()

	segs := sc.Segments()
	out := make([]stroke, 0, len(segs))
	for _, seg := range segs {
		x1, y1, d1, v1 := cam.Project(seg.Start, w, h)
		x2, y2, d2, v2 := cam.Project(seg.End, w, h)
		if !v1 && !v2 {
			continue
		}
		t := 0.0
		if span > 0 {
			t = float64((seg.End.Y() - lo.Y()) / span)
		}
		out = append(out, stroke{x1, y1, x2, y2, (d1 + d2) / 2, t})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Depth < out[j].Depth })
	return out
}

func groundStrokes(sc *scene.Scene, cam *viz.Camera, opts Options) []stroke {
	if cam == nil {
		cam = viz.SceneCamera(sc)
	}
	lo, hi := sc.Bounds()
	center := lo.Add(hi).Mul(0.5)
	r := float32(math.Max(float64(hi.X()-lo.X()), float64(hi.Z()-lo.Z()))/2) + 1
	var out []stroke
	for _, e := range viz.GroundWireframe(mgl32.Vec3{center.X(), 0, center.Z()}, r).Edges {
		x1, y1, _, _ := cam.Project(e.Start, float64(opts.Width), float64(opts.Height))
		x2, y2, _, _ := cam.Project(e.End, float64(opts.Width), float64(opts.Height))
		out = append(out, stroke{X1: x1, Y1: y1, X2: x2, Y2: y2})
	}
	return out
}

// SVG draws the projected segments as lines. A nil camera is fitted to the
// scene.
func SVG(sc *scene.Scene, cam *viz.Camera, opts Options) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, opts.Width, opts.Height, opts.Width, opts.Height, opts.Background))

	if opts.Ground {
		sb.WriteString(`<g stroke="#444444" stroke-width="1" fill="none">` + "\n")
		for _, s := range groundStrokes(sc, cam, opts) {
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f"/>`+"\n", s.X1, s.Y1, s.X2, s.Y2))
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString(fmt.Sprintf(`<g stroke-width="%.2f" stroke-linecap="round" fill="none">`+"\n", opts.LineWidth))
	for _, s := range project(sc, cam, opts) {
		color := viz.BlendHex(opts.Trunk, opts.Leaf, s.T)
		sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"/>`+"\n",
			s.X1, s.Y1, s.X2, s.Y2, color))
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// ThemeOptions applies a terminal theme's palette to the default options.
func ThemeOptions(t viz.Theme) Options {
	opts := DefaultOptions()
	opts.Background = string(t.Background)
	opts.Trunk = string(t.Trunk)
	opts.Leaf = string(t.Leaf)
	return opts
}
