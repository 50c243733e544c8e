package turtle

import (
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

const (
	Draw      = 'F'
	TurnLeft  = '+'
	TurnRight = '-'
	PitchDown = '&'
	PitchUp   = '^'
	RollLeft  = '\\'
	RollRight = '/'
	Push      = '['
	Pop       = ']'
)

// Alphabet lists every recognized symbol.
const Alphabet = "F+-&^\\/[]"

// IsDraw reports whether r emits a transform.
func IsDraw(r rune) bool { return r == Draw }

// Known reports whether r belongs to the alphabet.
func Known(r rune) bool { return strings.ContainsRune(Alphabet, r) }

// Policy selects how symbols outside the alphabet are treated.
type Policy int

const (
	// Strict aborts interpretation at the first unknown symbol.
	Strict Policy = iota
	// Lenient skips unknown symbols and logs them at debug level.
	Lenient
)

func (p Policy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ParsePolicy maps "strict" or "lenient" to a Policy. The empty string is
// Strict.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	}
	return Strict, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Trace is the full outcome of one interpretation pass.
type Trace struct {
	Transforms []mgl32.Mat4
	Final      State
	// Pending counts pushes never matched by a pop.
	Pending  int
	MaxDepth int
	// Skipped counts unknown symbols ignored under Lenient.
	Skipped int
}

// Interpreter holds the turn angle and policy. It keeps no state between
// calls and is safe for concurrent use.
type Interpreter struct {
	angle     float32
	policy    Policy
	logger    *slog.Logger
	rotations map[rune]mgl32.Mat3
}

type Option func(*Interpreter)

func WithPolicy(p Policy) Option {
	return func(in *Interpreter) { in.policy = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) {
		if l != nil {
			in.logger = l
		}
	}
}

// New returns an interpreter turning by angle degrees.
func New(angle float32, opts ...Option) *Interpreter {
	in := &Interpreter{
		angle:  angle,
		policy: Strict,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(in)
	}

	rad := mgl32.DegToRad(angle)
	in.rotations = map[rune]mgl32.Mat3{
		TurnLeft:  mgl32.Rotate3DZ(rad),
		TurnRight: mgl32.Rotate3DZ(-rad),
		PitchDown: mgl32.Rotate3DX(-rad),
		PitchUp:   mgl32.Rotate3DX(rad),
		RollLeft:  mgl32.Rotate3DY(rad),
		RollRight: mgl32.Rotate3DY(-rad),
	}
	return in
}

// Interpret returns one transform per draw symbol of s using the strict
// policy.
func Interpret(s string, angle float32) ([]mgl32.Mat4, error) {
	return New(angle).Interpret(s)
}

func (in *Interpreter) Angle() float32 { return in.angle }
func (in *Interpreter) Policy() Policy { return in.policy }

// Interpret returns one transform per draw symbol of s, in scan order.
func (in *Interpreter) Interpret(s string) ([]mgl32.Mat4, error) {
	tr, err := in.Run(Runes(s))
	if err != nil {
		return nil, err
	}
	return tr.Transforms, nil
}

// InterpretSeq is Interpret over a symbol stream.
func (in *Interpreter) InterpretSeq(seq iter.Seq[rune]) ([]mgl32.Mat4, error) {
	tr, err := in.Run(seq)
	if err != nil {
		return nil, err
	}
	return tr.Transforms, nil
}

// Run interprets seq and reports the transforms together with the final
// cursor and stack bookkeeping.
func (in *Interpreter) Run(seq iter.Seq[rune]) (Trace, error) {
	var (
		tr      Trace
		stack   Stack
		cur     = Origin()
		offset  = -1
		skipped map[rune]int
	)

	for r := range seq {
		offset++
		switch r {
		case Draw:
			tr.Transforms = append(tr.Transforms, cur.Transform())
			cur = cur.Forward()
		case TurnLeft, TurnRight, PitchDown, PitchUp, RollLeft, RollRight:
			cur = cur.Rotate(in.rotations[r])
		case Push:
			stack.Push(cur)
			if stack.Len() > tr.MaxDepth {
				tr.MaxDepth = stack.Len()
			}
		case Pop:
			if st, ok := stack.Pop(); ok {
				cur = st
			}
		default:
			if in.policy == Strict {
				return Trace{}, &InvalidSymbolError{Symbol: r, Offset: offset}
			}
			if skipped == nil {
				skipped = make(map[rune]int)
			}
			skipped[r]++
			tr.Skipped++
		}
	}

	in.logSkipped(skipped)

	tr.Final = cur
	tr.Pending = stack.Len()
	return tr, nil
}

func (in *Interpreter) logSkipped(skipped map[rune]int) {
	if len(skipped) == 0 {
		return
	}
	symbols := make([]rune, 0, len(skipped))
	for r := range skipped {
		symbols = append(symbols, r)
	}
	sort.Slice(symbols, func(i, j int) bool { return symbols[i] < symbols[j] })
	for _, r := range symbols {
		in.logger.Debug("turtle: skipped unknown symbol", "symbol", string(r), "count", skipped[r])
	}
}

// Validate reports the first symbol of s outside the alphabet.
func Validate(s string) error {
	offset := 0
	for _, r := range s {
		if !Known(r) {
			return &InvalidSymbolError{Symbol: r, Offset: offset}
		}
		offset++
	}
	return nil
}

// Runes adapts a string to a symbol stream.
func Runes(s string) iter.Seq[rune] {
	return func(yield func(rune) bool) {
		for _, r := range s {
			if !yield(r) {
				return
			}
		}
	}
}
