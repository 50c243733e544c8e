package export

import (
	"io"

	"github.com/fogleman/gg"
	"github.com/san-kum/arbor/internal/scene"
	"github.com/san-kum/arbor/internal/viz"
)

// Render rasterizes the scene into a new drawing context.
func Render(sc *scene.Scene, cam *viz.Camera, opts Options) *gg.Context {
	ctx := gg.NewContext(opts.Width, opts.Height)
	ctx.SetHexColor(opts.Background)
	ctx.Clear()
	ctx.SetLineCapRound()

	if opts.Ground {
		ctx.SetHexColor("#444444")
		ctx.SetLineWidth(1)
		for _, s := range groundStrokes(sc, cam, opts) {
			ctx.DrawLine(s.X1, s.Y1, s.X2, s.Y2)
		}
		ctx.Stroke()
	}

	ctx.SetLineWidth(opts.LineWidth)
	for _, s := range project(sc, cam, opts) {
		ctx.SetHexColor(viz.BlendHex(opts.Trunk, opts.Leaf, s.T))
		ctx.DrawLine(s.X1, s.Y1, s.X2, s.Y2)
		ctx.Stroke()
	}
	return ctx
}

// PNG encodes Render's output.
func PNG(w io.Writer, sc *scene.Scene, cam *viz.Camera, opts Options) error {
	return Render(sc, cam, opts).EncodePNG(w)
}
