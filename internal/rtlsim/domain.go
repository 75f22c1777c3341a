package rtlsim

import (
	"github.com/sarchlab/akita/v4/sim"

	"topgen/internal/ir"
)

// domain ticks the processes sharing one clock.
type domain struct {
	*sim.TickingComponent

	owner *Simulator
	clock string
	procs []*ir.Process
	edges uint64
	limit uint64
}

func (s *Simulator) newDomain(clock string) *domain {
	freq, ok := s.freqs[clock]
	if !ok {
		freq = DefaultFreq
	}
	d := &domain{owner: s, clock: clock}
	d.TickingComponent = sim.NewTickingComponent(clock, s.engine, freq, d)
	s.domains = append(s.domains, d)
	s.byClock[clock] = d
	return d
}

// Tick simulates one rising edge.
func (d *domain) Tick() bool {
	if d.owner.err != nil || d.edges >= d.limit {
		return false
	}
	d.edges++
	d.InvokeHook(sim.HookCtx{Domain: d, Pos: HookPosBeforeEdge, Item: d.edges})
	if err := d.owner.edge(d.clock); err != nil {
		d.owner.err = err
		return false
	}
	d.InvokeHook(sim.HookCtx{Domain: d, Pos: HookPosAfterEdge, Item: d.edges})
	return d.edges < d.limit
}

type edgeHook struct {
	pos *sim.HookPos
	fn  EdgeFunc
}

func (h *edgeHook) Func(ctx sim.HookCtx) {
	if ctx.Pos != h.pos {
		return
	}
	h.fn(ctx.Item.(uint64))
}
