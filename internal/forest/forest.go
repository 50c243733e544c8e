// Package forest scatters copies of one structure over the ground plane.
package forest

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	// ErrInvalidBounds indicates a placement range with min >= max.
	ErrInvalidBounds = errors.New("forest: invalid placement bounds")

	// ErrInvalidCount indicates a negative instance count.
	ErrInvalidCount = errors.New("forest: invalid instance count")
)

// Bounds is the ground-plane rectangle [XMin,XMax) x [ZMin,ZMax).
type Bounds struct {
	XMin float64 `yaml:"x_min" toml:"x_min" json:"x_min"`
	XMax float64 `yaml:"x_max" toml:"x_max" json:"x_max"`
	ZMin float64 `yaml:"z_min" toml:"z_min" json:"z_min"`
	ZMax float64 `yaml:"z_max" toml:"z_max" json:"z_max"`
}

func (b Bounds) Validate() error {
	if b.XMin >= b.XMax {
		return fmt.Errorf("%w: x range [%g, %g)", ErrInvalidBounds, b.XMin, b.XMax)
	}
	if b.ZMin >= b.ZMax {
		return fmt.Errorf("%w: z range [%g, %g)", ErrInvalidBounds, b.ZMin, b.ZMax)
	}
	return nil
}

// Contains reports whether (x, z) lies inside the half-open rectangle.
func (b Bounds) Contains(x, z float64) bool {
	return x >= b.XMin && x < b.XMax && z >= b.ZMin && z < b.ZMax
}

// Placement is one sampled instance position.
type Placement struct {
	X, Z float64
	Yaw  float64 // degrees in [0, 360)
}

// Transform returns translate(x, 0, z) * rotateY(yaw).
func (p Placement) Transform() mgl32.Mat4 {
	t := mgl32.Translate3D(float32(p.X), 0, float32(p.Z))
	return t.Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(float32(p.Yaw))))
}

// Placer draws placements from its own random source. A Placer is not safe
// for concurrent use.
type Placer struct {
	seed int64
	rng  *rand.Rand
}

// NewPlacer seeds a placer. Seed 0 picks a seed from the clock, so every run
// produces a different layout; any other seed is reproducible.
func NewPlacer(seed int64) *Placer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Placer{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// NewPlacerFrom uses an existing source.
func NewPlacerFrom(rng *rand.Rand) *Placer {
	return &Placer{rng: rng}
}

// Seed returns the seed in use, or 0 for an injected source.
func (p *Placer) Seed() int64 { return p.seed }

// Sample draws count placements inside b.
func (p *Placer) Sample(count int, b Bounds) ([]Placement, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	out := make([]Placement, count)
	for i := range out {
		out[i] = Placement{
			X:   uniform(p.rng, b.XMin, b.XMax),
			Z:   uniform(p.rng, b.ZMin, b.ZMax),
			Yaw: uniform(p.rng, 0, 360),
		}
	}
	return out, nil
}

// Place draws count placement transforms inside b.
func (p *Placer) Place(count int, b Bounds) ([]mgl32.Mat4, error) {
	ps, err := p.Sample(count, b)
	if err != nil {
		return nil, err
	}
	out := make([]mgl32.Mat4, len(ps))
	for i, pl := range ps {
		out[i] = pl.Transform()
	}
	return out, nil
}

// uniform returns a value in [lo, hi) that stays below hi after the
// float32 conversion done by Transform. Rounding onto hi in either precision
// is folded back to lo.
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	v := lo + rng.Float64()*(hi-lo)
	if v >= hi || float32(v) >= float32(hi) {
		return lo
	}
	return v
}

// Compose returns, for every placement, placement * local for each local
// transform. The result is grouped by instance.
func Compose(placements, local []mgl32.Mat4) [][]mgl32.Mat4 {
	groups := make([][]mgl32.Mat4, len(placements))
	for i, p := range placements {
		g := make([]mgl32.Mat4, len(local))
		for j, m := range local {
			g[j] = p.Mul4(m)
		}
		groups[i] = g
	}
	return groups
}

// Flatten concatenates the groups in order.
func Flatten(groups [][]mgl32.Mat4) []mgl32.Mat4 {
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	out := make([]mgl32.Mat4, 0, n)
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
