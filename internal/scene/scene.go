package scene

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/san-kum/arbor/internal/config"
	"github.com/san-kum/arbor/internal/forest"
	"github.com/san-kum/arbor/internal/model"
	"github.com/san-kum/arbor/internal/turtle"
)

// MaxSymbols bounds the expanded string length Assemble accepts.
const MaxSymbols = 1 << 24

// Heights within this fraction of the unit height of zero are treated as a
// flat structure and left unscaled.
const flatTolerance = 1e-6

// Scene is the output of one regeneration. It is never modified after
// Assemble returns.
type Scene struct {
	Config config.Config
	Model  model.Unit

	// Local is the normalized structure rooted at the origin.
	Local []mgl32.Mat4
	// Placements holds one world transform per instance.
	Placements []mgl32.Mat4
	// Instances[i][j] is Placements[i] * Local[j].
	Instances [][]mgl32.Mat4

	Symbols   int64
	RawHeight float32
	Height    float32
	Seed      int64
	MaxDepth  int
	Pending   int
	Skipped   int
}

// Segment is one placed unit segment, from its base to its tip.
type Segment struct {
	Start, End mgl32.Vec3
	Instance   int
}

type options struct {
	logger *slog.Logger
}

type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Height returns the largest Y reached by the top of the unit segment under
// any of the transforms, or 0 when there are none.
func Height(transforms []mgl32.Mat4, unitHeight float32) float32 {
	if len(transforms) == 0 {
		return 0
	}
	top := mgl32.Vec4{0, unitHeight, 0, 1}
	h := float32(math.Inf(-1))
	for _, t := range transforms {
		if y := t.Mul4x1(top).Y(); y > h {
			h = y
		}
	}
	return h
}

// Normalize rescales transforms uniformly about the origin by target/Height.
// A structure whose height is zero, up to float noise relative to
// unitHeight, is returned unscaled. A structure lying entirely below the
// ground has a negative height; the factor is then negative, which mirrors
// it through the origin so that its former highest point lands at target.
// The input slice is never modified.
func Normalize(transforms []mgl32.Mat4, unitHeight, target float32) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(transforms))
	copy(out, transforms)

	h := Height(transforms, unitHeight)
	if flat(h, unitHeight) {
		return out
	}
	s := target / h
	scale := mgl32.Scale3D(s, s, s)
	for i, t := range out {
		out[i] = scale.Mul4(t)
	}
	return out
}

func flat(h, unitHeight float32) bool {
	tol := float32(flatTolerance)
	if unitHeight > 1 {
		tol *= unitHeight
	}
	return h > -tol && h < tol
}

// Assemble runs the full pipeline for cfg. When rng is nil the placements
// are drawn from a placer seeded with cfg.Forest.Seed.
func Assemble(cfg config.Config, unit model.Unit, rng *rand.Rand, opts ...Option) (*Scene, error) {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := cfg.Grammar()
	n := g.Length(cfg.Iterations)
	if n > MaxSymbols {
		return nil, fmt.Errorf("%w: %d symbols after %d iterations (limit %d)",
			ErrTooManySymbols, n, cfg.Iterations, MaxSymbols)
	}

	in := turtle.New(float32(cfg.Angle),
		turtle.WithPolicy(cfg.SymbolPolicy()),
		turtle.WithLogger(o.logger))
	tr, err := in.Run(g.Symbols(cfg.Iterations))
	if err != nil {
		return nil, err
	}

	sc := &Scene{
		Config:    cfg.Clone(),
		Model:     unit,
		Symbols:   n,
		RawHeight: Height(tr.Transforms, unit.Height),
		MaxDepth:  tr.MaxDepth,
		Pending:   tr.Pending,
		Skipped:   tr.Skipped,
	}
	sc.Local = Normalize(tr.Transforms, unit.Height, float32(cfg.TargetHeight))
	sc.Height = Height(sc.Local, unit.Height)

	if cfg.Forest.Count == 0 {
		sc.Placements = []mgl32.Mat4{mgl32.Ident4()}
	} else {
		var p *forest.Placer
		if rng != nil {
			p = forest.NewPlacerFrom(rng)
		} else {
			p = forest.NewPlacer(cfg.Forest.Seed)
		}
		sc.Seed = p.Seed()
		sc.Placements, err = p.Place(cfg.Forest.Count, cfg.Bounds())
		if err != nil {
			return nil, err
		}
	}
	sc.Instances = forest.Compose(sc.Placements, sc.Local)

	o.logger.Debug("scene: assembled",
		"symbols", sc.Symbols,
		"segments", len(sc.Local),
		"instances", len(sc.Placements),
		"height", sc.Height)
	return sc, nil
}

// Flatten returns every world transform, instance by instance.
func (s *Scene) Flatten() []mgl32.Mat4 {
	return forest.Flatten(s.Instances)
}

// Len returns the total number of placed segments.
func (s *Scene) Len() int {
	n := 0
	for _, g := range s.Instances {
		n += len(g)
	}
	return n
}

func (s *Scene) Segments() []Segment {
	base := mgl32.Vec4{0, 0, 0, 1}
	tip := mgl32.Vec4{0, s.Model.Height, 0, 1}

	out := make([]Segment, 0, s.Len())
	for i, g := range s.Instances {
		for _, t := range g {
			out = append(out, Segment{
				Start:    t.Mul4x1(base).Vec3(),
				End:      t.Mul4x1(tip).Vec3(),
				Instance: i,
			})
		}
	}
	return out
}

// Bounds returns the axis-aligned box around every segment end point. An
// empty scene reports a zero box.
func (s *Scene) Bounds() (lo, hi mgl32.Vec3) {
	segs := s.Segments()
	if len(segs) == 0 {
		return
	}
	lo, hi = segs[0].Start, segs[0].Start
	for _, seg := range segs {
		for _, p := range [2]mgl32.Vec3{seg.Start, seg.End} {
			for k := 0; k < 3; k++ {
				lo[k] = min(lo[k], p[k])
				hi[k] = max(hi[k], p[k])
			}
		}
	}
	return lo, hi
}
