package session_test

import (
	"bytes"
	"io"
	"log/slog"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/arbor/internal/config"
	"github.com/san-kum/arbor/internal/model"
	"github.com/san-kum/arbor/internal/session"
)

var _ = Describe("Session", func() {
	var (
		s    *session.Session
		cfg  config.Config
		unit model.Unit
	)

	BeforeEach(func() {
		var err error
		unit, err = model.Builtin("cylinder")
		Expect(err).NotTo(HaveOccurred())
		cfg = *config.DefaultConfig()
		s = session.New(unit, session.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	})

	It("has no scene before the first update", func() {
		Expect(s.Scene()).To(BeNil())
		Expect(s.Generation()).To(BeZero())
		_, ok := s.Config()
		Expect(ok).To(BeFalse())
	})

	It("publishes a scene on the first update", func() {
		changed, err := s.Update(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(s.Scene()).NotTo(BeNil())
		Expect(s.Scene().Height).To(BeNumerically("~", cfg.TargetHeight, 1e-3))
		Expect(s.Generation()).To(Equal(uint64(1)))
	})

	It("skips unchanged snapshots", func() {
		_, err := s.Update(cfg)
		Expect(err).NotTo(HaveOccurred())
		first := s.Scene()

		changed, err := s.Update(cfg.Clone())
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeFalse())
		Expect(s.Scene()).To(BeIdenticalTo(first))
		Expect(s.Generation()).To(Equal(uint64(1)))
	})

	It("rebuilds when the snapshot changes", func() {
		_, err := s.Update(cfg)
		Expect(err).NotTo(HaveOccurred())
		first := s.Scene()

		cfg.Angle = 40
		changed, err := s.Update(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(s.Scene()).NotTo(BeIdenticalTo(first))
		Expect(s.Scene().Config.Angle).To(Equal(40.0))
	})

	It("keeps the previous scene when a config is rejected", func() {
		_, err := s.Update(cfg)
		Expect(err).NotTo(HaveOccurred())
		good := s.Scene()

		bad := cfg.Clone()
		bad.Axiom = "FQ"
		changed, err := s.Update(bad)
		Expect(err).To(HaveOccurred())
		Expect(changed).To(BeFalse())
		Expect(s.Scene()).To(BeIdenticalTo(good))

		last, ok := s.Config()
		Expect(ok).To(BeTrue())
		Expect(last.Equal(cfg)).To(BeTrue())

		_, err = s.Update(bad)
		Expect(err).To(HaveOccurred(), "a rejected snapshot must be retried")
	})

	It("does not alias the caller's rules", func() {
		_, err := s.Update(cfg)
		Expect(err).NotTo(HaveOccurred())

		cfg.Rules[0].Replacement = "FF"
		changed, err := s.Update(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())
	})

	It("rescales after the model changes", func() {
		_, err := s.Update(cfg)
		Expect(err).NotTo(HaveOccurred())

		s.SetModel(model.Unit{Name: "tall", Height: 3, Radius: 0.1})
		changed, err := s.Update(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(changed).To(BeTrue())
		Expect(s.Scene().Model.Name).To(Equal("tall"))
		Expect(s.Scene().Height).To(BeNumerically("~", cfg.TargetHeight, 1e-3))
	})

	It("reuses the injected seed for unseeded forests", func() {
		cfg = *config.GetPreset("forest")
		a := session.New(unit, session.WithSeed(3))
		b := session.New(unit, session.WithSeed(3))
		_, err := a.Update(cfg)
		Expect(err).NotTo(HaveOccurred())
		_, err = b.Update(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Scene().Placements).To(Equal(b.Scene().Placements))
	})

	It("logs each regeneration", func() {
		var buf bytes.Buffer
		s = session.New(unit, session.WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
		_, err := s.Update(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("session: regenerated"))
	})

	It("serves readers while updating", func() {
		_, err := s.Update(cfg)
		Expect(err).NotTo(HaveOccurred())

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for j := 0; j < 50; j++ {
					sc := s.Scene()
					Expect(sc).NotTo(BeNil())
					Expect(sc.Instances).To(HaveLen(len(sc.Placements)))
				}
			}()
		}
		for _, angle := range []float64{10, 20, 30} {
			next := cfg.Clone()
			next.Angle = angle
			_, err := s.Update(next)
			Expect(err).NotTo(HaveOccurred())
		}
		wg.Wait()
		Expect(s.Generation()).To(Equal(uint64(4)))
	})
})
