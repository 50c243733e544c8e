package scene_test

import (
	"math/rand"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/arbor/internal/config"
	"github.com/san-kum/arbor/internal/model"
	"github.com/san-kum/arbor/internal/scene"
	"github.com/san-kum/arbor/internal/turtle"
)

func interpret(s string, angle float32) []mgl32.Mat4 {
	ts, err := turtle.Interpret(s, angle)
	Expect(err).NotTo(HaveOccurred())
	return ts
}

var _ = Describe("Height", func() {
	It("is zero for no transforms", func() {
		Expect(scene.Height(nil, 1)).To(BeZero())
	})

	It("measures a vertical stack", func() {
		Expect(scene.Height(interpret("FFF", 25), 1)).To(BeNumerically("~", 3, 1e-5))
	})

	It("scales with the unit height", func() {
		Expect(scene.Height(interpret("FF", 25), 2.5)).To(BeNumerically("~", 3.5, 1e-5))
	})
})

var _ = Describe("Normalize", func() {
	var ts []mgl32.Mat4

	BeforeEach(func() {
		ts = interpret("F[+F]F[-F]F[+F[-F]F]", 25)
	})

	It("reaches the target height", func() {
		out := scene.Normalize(ts, 1, 10)
		Expect(out).To(HaveLen(len(ts)))
		Expect(scene.Height(out, 1)).To(BeNumerically("~", 10, 10*1e-4))
	})

	It("is stable when applied twice", func() {
		once := scene.Normalize(ts, 1, 7)
		twice := scene.Normalize(once, 1, 7)
		for i := range once {
			Expect(twice[i].ApproxEqualThreshold(once[i], 1e-4)).To(BeTrue())
		}
	})

	It("does not modify its input", func() {
		before := append([]mgl32.Mat4(nil), ts...)
		scene.Normalize(ts, 1, 100)
		Expect(ts).To(Equal(before))
	})

	It("keeps the root at the origin", func() {
		out := scene.Normalize(ts, 1, 42)
		Expect(out[0].Col(3)).To(Equal(mgl32.Vec4{0, 0, 0, 1}))
	})

	It("returns an empty list for empty input", func() {
		Expect(scene.Normalize(nil, 1, 10)).To(BeEmpty())
	})

	It("leaves a flat structure unscaled", func() {
		flat := interpret("+F", 90)
		Expect(scene.Height(flat, 1)).To(BeNumerically("~", 0, 1e-6))
		out := scene.Normalize(flat, 1, 10)
		Expect(out[0].ApproxEqualThreshold(flat[0], 1e-6)).To(BeTrue())
	})

	It("mirrors a structure that lies below the ground up to the target", func() {
		below := interpret("+F", 120)
		Expect(scene.Height(below, 1)).To(BeNumerically("~", -0.5, 1e-5))

		out := scene.Normalize(below, 1, 10)
		Expect(scene.Height(out, 1)).To(BeNumerically("~", 10, 1e-4))
		Expect(out[0].Col(3)).To(Equal(mgl32.Vec4{0, 0, 0, 1}))
	})

	It("measures flatness relative to the unit height", func() {
		ts := interpret("F", 25)
		tall := scene.Normalize(ts, 1e-3, 10)
		Expect(scene.Height(tall, 1e-3)).To(BeNumerically("~", 10, 1e-3))
	})
})

var _ = Describe("Assemble", func() {
	var (
		cfg  config.Config
		unit model.Unit
	)

	BeforeEach(func() {
		cfg = *config.DefaultConfig()
		var err error
		unit, err = model.Builtin("cylinder")
		Expect(err).NotTo(HaveOccurred())
	})

	It("builds a single normalized tree at the origin", func() {
		sc, err := scene.Assemble(cfg, unit, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(sc.Symbols).To(Equal(int64(len(cfg.Grammar().Generate(3)))))
		Expect(sc.Local).To(HaveLen(125))
		Expect(sc.Placements).To(HaveLen(1))
		Expect(sc.Placements[0]).To(Equal(mgl32.Ident4()))
		Expect(sc.Height).To(BeNumerically("~", 10, 1e-3))
		Expect(sc.RawHeight).To(BeNumerically(">", 0))
		Expect(sc.Flatten()).To(HaveLen(125))
	})

	It("scatters a forest inside the bounds", func() {
		cfg = *config.GetPreset("forest")
		sc, err := scene.Assemble(cfg, unit, rand.New(rand.NewSource(1)))
		Expect(err).NotTo(HaveOccurred())

		Expect(sc.Instances).To(HaveLen(24))
		b := cfg.Bounds()
		for _, p := range sc.Placements {
			pos := p.Col(3)
			Expect(b.Contains(float64(pos.X()), float64(pos.Z()))).To(BeTrue())
			Expect(pos.Y()).To(BeZero())
		}
		Expect(sc.Len()).To(Equal(24 * len(sc.Local)))
		Expect(scene.Height(sc.Flatten(), unit.Height)).To(BeNumerically("~", 10, 1e-3))
	})

	It("reproduces a seeded layout", func() {
		cfg = *config.GetPreset("forest")
		cfg.Forest.Seed = 7
		a, err := scene.Assemble(cfg, unit, nil)
		Expect(err).NotTo(HaveOccurred())
		b, err := scene.Assemble(cfg, unit, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(a.Seed).To(Equal(int64(7)))
		Expect(a.Placements).To(Equal(b.Placements))
	})

	It("rejects expansions past the symbol limit", func() {
		cfg.Rules = []config.RuleConfig{{Symbol: "F", Replacement: strings.Repeat("F", 10)}}
		cfg.Iterations = 8
		_, err := scene.Assemble(cfg, unit, nil)
		Expect(err).To(MatchError(scene.ErrTooManySymbols))
	})

	It("rejects invalid configs", func() {
		cfg.TargetHeight = -1
		_, err := scene.Assemble(cfg, unit, nil)
		Expect(err).To(MatchError(config.ErrInvalidConfig))
	})

	It("fails on unknown symbols under the strict policy", func() {
		cfg.Axiom = "FX"
		_, err := scene.Assemble(cfg, unit, nil)
		Expect(err).To(MatchError(turtle.ErrInvalidSymbol))
	})

	It("skips unknown symbols under the lenient policy", func() {
		cfg = *config.GetPreset("fern")
		sc, err := scene.Assemble(cfg, unit, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(sc.Skipped).To(BeNumerically(">", 0))
		Expect(sc.Local).NotTo(BeEmpty())
	})

	It("returns an empty scene for an axiom without draws", func() {
		cfg.Axiom = "+"
		cfg.Rules = nil
		sc, err := scene.Assemble(cfg, unit, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(sc.Local).To(BeEmpty())
		Expect(sc.Height).To(BeZero())
		Expect(sc.Segments()).To(BeEmpty())
	})
})

var _ = Describe("Segments", func() {
	It("runs from each transform's base to the unit tip", func() {
		cfg := *config.DefaultConfig()
		cfg.Axiom = "FF"
		cfg.Rules = nil
		cfg.TargetHeight = 4
		unit := model.Unit{Name: "stick", Height: 1, Radius: 0.1}

		sc, err := scene.Assemble(cfg, unit, nil)
		Expect(err).NotTo(HaveOccurred())

		segs := sc.Segments()
		Expect(segs).To(HaveLen(2))
		Expect(segs[0].Start.ApproxEqualThreshold(mgl32.Vec3{0, 0, 0}, 1e-5)).To(BeTrue())
		Expect(segs[0].End.ApproxEqualThreshold(mgl32.Vec3{0, 2, 0}, 1e-5)).To(BeTrue())
		Expect(segs[1].End.ApproxEqualThreshold(mgl32.Vec3{0, 4, 0}, 1e-5)).To(BeTrue())

		lo, hi := sc.Bounds()
		Expect(lo.Y()).To(BeNumerically("~", 0, 1e-5))
		Expect(hi.Y()).To(BeNumerically("~", 4, 1e-5))
	})
})
