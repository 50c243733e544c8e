// Package model supplies the geometry of the unit segment instanced at every
// turtle transform. The generative pipeline only needs the segment's maximum
// local Y; exporters and viewers also use the mesh and radius.
package model

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

var (
	ErrUnknownModel = errors.New("model: unknown builtin model")
	ErrEmptyMesh    = errors.New("model: mesh has no vertices")
)

// Unit describes the base model as seen by the pipeline.
type Unit struct {
	Name   string  `json:"name"`
	Height float32 `json:"height"` // max local Y
	Radius float32 `json:"radius"`
}

var builtins = map[string]Unit{
	"cylinder": {Name: "cylinder", Height: 1, Radius: 0.1},
	"branch":   {Name: "branch", Height: 1, Radius: 0.08},
	"twig":     {Name: "twig", Height: 1, Radius: 0.04},
	"cone":     {Name: "cone", Height: 1, Radius: 0.12},
}

// Builtin returns a named unit model.
func Builtin(name string) (Unit, error) {
	u, ok := builtins[name]
	if !ok {
		return Unit{}, fmt.Errorf("%w: %s (available: %v)", ErrUnknownModel, name, Names())
	}
	return u, nil
}

func Names() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Mesh is an indexed triangle mesh.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Faces     [][3]int
}

// MaxY returns the largest vertex Y, or 0 for an empty mesh.
func (m *Mesh) MaxY() float32 {
	if len(m.Positions) == 0 {
		return 0
	}
	maxY := float32(math.Inf(-1))
	for _, p := range m.Positions {
		if p.Y() > maxY {
			maxY = p.Y()
		}
	}
	return maxY
}

// Radius returns the largest distance of a vertex from the Y axis.
func (m *Mesh) Radius() float32 {
	var r float32
	for _, p := range m.Positions {
		d := float32(math.Hypot(float64(p.X()), float64(p.Z())))
		if d > r {
			r = d
		}
	}
	return r
}

// Unit summarizes the mesh for the pipeline.
func (m *Mesh) Unit() (Unit, error) {
	if len(m.Positions) == 0 {
		return Unit{}, ErrEmptyMesh
	}
	return Unit{Name: m.Name, Height: m.MaxY(), Radius: m.Radius()}, nil
}

// Cylinder builds a closed cylinder standing on the origin along +Y.
func Cylinder(segments int, radius, height float32) *Mesh {
	if segments < 3 {
		segments = 3
	}
	m := &Mesh{Name: "cylinder"}

	for i := 0; i < segments; i++ {
		a := 2 * math.Pi * float64(i) / float64(segments)
		x, z := radius*float32(math.Cos(a)), radius*float32(math.Sin(a))
		m.Positions = append(m.Positions, mgl32.Vec3{x, 0, z}, mgl32.Vec3{x, height, z})
	}
	bottom := len(m.Positions)
	m.Positions = append(m.Positions, mgl32.Vec3{0, 0, 0})
	top := len(m.Positions)
	m.Positions = append(m.Positions, mgl32.Vec3{0, height, 0})

	for i := 0; i < segments; i++ {
		j := (i + 1) % segments
		b0, t0 := 2*i, 2*i+1
		b1, t1 := 2*j, 2*j+1
		m.Faces = append(m.Faces,
			[3]int{b0, t0, t1},
			[3]int{b0, t1, b1},
			[3]int{bottom, b1, b0},
			[3]int{top, t0, t1},
		)
	}
	return m
}

// MeshFor returns a mesh for a unit: a cylinder of the unit's radius and
// height.
func MeshFor(u Unit, segments int) *Mesh {
	m := Cylinder(segments, u.Radius, u.Height)
	m.Name = u.Name
	return m
}
