package turtle

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// alignEpsilon is the cross-product length below which heading is treated as
// parallel to Up.
const alignEpsilon = 1e-6

var (
	// Up is the model's default growth axis and the initial heading.
	Up = mgl32.Vec3{0, 1, 0}

	YawAxis   = mgl32.Vec3{0, 0, 1}
	PitchAxis = mgl32.Vec3{1, 0, 0}
	RollAxis  = mgl32.Vec3{0, 1, 0}
)

// State is the turtle cursor.
type State struct {
	Position mgl32.Vec3
	Heading  mgl32.Vec3
}

// Origin is the initial cursor: at the origin, facing Up.
func Origin() State {
	return State{Heading: Up}
}

// Transform places a unit segment at the cursor.
func (s State) Transform() mgl32.Mat4 {
	t := mgl32.Translate3D(s.Position.X(), s.Position.Y(), s.Position.Z())
	return t.Mul4(Align(s.Heading))
}

// Forward returns the cursor advanced one unit along its heading.
func (s State) Forward() State {
	s.Position = s.Position.Add(s.Heading)
	return s
}

// Rotate returns the cursor with its heading rotated by r and renormalized.
func (s State) Rotate(r mgl32.Mat3) State {
	h := r.Mul3x1(s.Heading)
	if h.Len() > 0 {
		h = h.Normalize()
	}
	s.Heading = h
	return s
}

// Align returns the rotation taking Up onto heading. Headings parallel or
// anti-parallel to Up yield the identity.
func Align(heading mgl32.Vec3) mgl32.Mat4 {
	axis := Up.Cross(heading)
	if axis.Len() < alignEpsilon {
		return mgl32.Ident4()
	}
	cos := Up.Dot(heading)
	if l := heading.Len(); l > 0 {
		cos /= l
	}
	cos = mgl32.Clamp(cos, -1, 1)
	return mgl32.HomogRotate3D(float32(math.Acos(float64(cos))), axis.Normalize())
}

// Stack holds saved cursors.
type Stack struct {
	states []State
}

func (s *Stack) Push(st State) {
	s.states = append(s.states, st)
}

// Pop removes and returns the newest cursor. ok is false when empty.
func (s *Stack) Pop() (st State, ok bool) {
	if len(s.states) == 0 {
		return State{}, false
	}
	st = s.states[len(s.states)-1]
	s.states = s.states[:len(s.states)-1]
	return st, true
}

func (s *Stack) Len() int { return len(s.states) }
