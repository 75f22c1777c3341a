package rtlsim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"

	"topgen/internal/config"
	"topgen/internal/ir"
	"topgen/internal/wrapper"
)

func buildTop(clocks, unroll int) *ir.Module {
	cfg := &config.Config{
		Name:   "add",
		Clocks: clocks,
		Unroll: unroll,
		Params: []config.ParamGroup{{Name: "scalars", Params: []config.Param{{Name: "size", Width: 32}}}},
		Buses: []config.Bus{
			{Name: "a", Kind: "saxis", VecLen: 1},
			{Name: "c", Kind: "maxis", VecLen: 1},
		},
	}
	design, err := wrapper.Build(cfg, nil)
	Expect(err).NotTo(HaveOccurred())
	return design.TopLevel
}

// trace records a net after every edge of ap_clk, indexed by edge number.
func trace(s *Simulator, name string) map[uint64]uint64 {
	out := make(map[uint64]uint64)
	Expect(s.AfterEdge("ap_clk", func(edge uint64) {
		v, err := s.Value(name)
		Expect(err).NotTo(HaveOccurred())
		out[edge] = v
	})).To(Succeed())
	return out
}

var _ = Describe("Generated wrapper", func() {
	var s *Simulator

	Context("with a single clock domain", func() {
		BeforeEach(func() {
			var err error
			s, err = New(buildTop(1, 1))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Drive("ap_rst_n", 1)).To(Succeed())
		})

		It("should power up idle and not done", func() {
			Expect(s.Value("ap_idle")).To(Equal(uint64(1)))
			Expect(s.Value("ap_done")).To(Equal(uint64(0)))
			Expect(s.Value("areset")).To(Equal(uint64(0)))
		})

		It("should start exactly one run while ap_start is held", func() {
			Expect(s.OnEdge("ap_clk", func(edge uint64) {
				if edge == 2 {
					Expect(s.Drive("ap_start", 1)).To(Succeed())
				}
				done := uint64(0)
				if edge == 5 {
					done = 1
				}
				Expect(s.Drive("ap_done_w", done)).To(Succeed())
			})).To(Succeed())
			idle := trace(s, "ap_idle")
			done := trace(s, "ap_done")

			Expect(s.Run(10)).To(Succeed())

			for edge := uint64(1); edge <= 10; edge++ {
				wantIdle := uint64(1)
				if edge >= 2 && edge <= 5 {
					wantIdle = 0
				}
				wantDone := uint64(0)
				if edge == 5 {
					wantDone = 1
				}
				Expect(idle[edge]).To(Equal(wantIdle), "ap_idle after edge %d", edge)
				Expect(done[edge]).To(Equal(wantDone), "ap_done after edge %d", edge)
			}
		})

		It("should report done for a single cycle", func() {
			Expect(s.Drive("ap_start", 1)).To(Succeed())
			Expect(s.Drive("ap_done_w", 1)).To(Succeed())
			done := trace(s, "ap_done")

			Expect(s.Run(4)).To(Succeed())

			Expect(done[1]).To(Equal(uint64(1)))
			Expect(done[2]).To(Equal(uint64(0)))
		})

		It("should return to idle one cycle after reset is asserted", func() {
			Expect(s.Drive("ap_start", 1)).To(Succeed())
			Expect(s.OnEdge("ap_clk", func(edge uint64) {
				if edge == 3 {
					Expect(s.Drive("ap_rst_n", 0)).To(Succeed())
				}
			})).To(Succeed())
			idle := trace(s, "ap_idle")
			areset := trace(s, "areset")

			Expect(s.Run(4)).To(Succeed())

			Expect(idle[1]).To(Equal(uint64(0)))
			Expect(areset[2]).To(Equal(uint64(0)))
			Expect(areset[3]).To(Equal(uint64(1)))
			Expect(idle[3]).To(Equal(uint64(0)))
			Expect(idle[4]).To(Equal(uint64(1)))
		})

		It("should reject driving nets the wrapper drives itself", func() {
			Expect(s.Drive("ap_idle", 0)).NotTo(Succeed())
			Expect(s.Drive("areset", 1)).NotTo(Succeed())
			Expect(s.Drive("missing", 1)).NotTo(Succeed())
		})
	})

	Context("with several clock domains", func() {
		BeforeEach(func() {
			var err error
			s, err = New(buildTop(2, 1), WithClock("ap_clk_2", 500*sim.MHz))
			Expect(err).NotTo(HaveOccurred())
		})

		It("should model one ticking component per domain", func() {
			Expect(s.Clocks()).To(Equal([]string{"ap_clk", "ap_clk_2"}))
		})

		It("should synchronize each reset in its own domain", func() {
			Expect(s.Drive("ap_rst_n", 1)).To(Succeed())
			Expect(s.Drive("ap_rst_n_2", 0)).To(Succeed())

			Expect(s.Run(4)).To(Succeed())

			Expect(s.Value("areset")).To(Equal(uint64(0)))
			Expect(s.Value("areset_2")).To(Equal(uint64(1)))
			Expect(s.Edges("ap_clk")).To(Equal(uint64(4)))
			Expect(s.Edges("ap_clk_2")).To(Equal(uint64(4)))
			Expect(float64(s.Now())).To(BeNumerically("~", 8e-9, 1e-12))
		})

		It("should tick each domain at its own frequency", func() {
			var times []sim.VTimeInSec
			Expect(s.AfterEdge("ap_clk_2", func(uint64) {
				times = append(times, s.Now())
			})).To(Succeed())

			Expect(s.Run(3)).To(Succeed())

			Expect(times).To(HaveLen(3))
			for i := 1; i < len(times); i++ {
				Expect(float64(times[i] - times[i-1])).To(BeNumerically("~", 2e-9, 1e-12))
			}
		})
	})

	Context("with replicated kernels", func() {
		It("should share one handshake between all replicas", func() {
			mod := buildTop(1, 3)
			for i := 0; i < 3; i++ {
				inst := mod.Instance(wrapper.KernelInstanceName("add", i, 3))
				Expect(inst).NotTo(BeNil())
				Expect(inst.Conn("ap_start").Value).To(Equal(ir.R("ap_start")))
				Expect(inst.Conn("ap_done").Value).To(Equal(ir.R("ap_done_w")))
			}

			var err error
			s, err = New(mod)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Drive("ap_rst_n", 1)).To(Succeed())
			Expect(s.Drive("ap_start", 1)).To(Succeed())
			Expect(s.Run(1)).To(Succeed())
			Expect(s.Value("ap_idle")).To(Equal(uint64(0)))
		})
	})

	Context("with a parameter name used in two groups", func() {
		It("should model the colliding wires as one net", func() {
			cfg := &config.Config{
				Name:   "dup",
				Clocks: 1,
				Unroll: 1,
				Params: []config.ParamGroup{
					{Name: "a", Params: []config.Param{{Name: "n", Width: 32}}},
					{Name: "b", Params: []config.Param{{Name: "n", Width: 32}}},
				},
				Buses: []config.Bus{{Name: "in", Kind: "saxis", VecLen: 1}},
			}
			design, err := wrapper.Build(cfg, nil)
			Expect(err).NotTo(HaveOccurred())

			s, err = New(design.TopLevel)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Drive("n", 7)).To(Succeed())
			Expect(s.Value("n")).To(Equal(uint64(7)))
		})
	})
})
