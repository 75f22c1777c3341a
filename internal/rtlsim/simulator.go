// Package rtlsim is a cycle-accurate model of the clocked logic in an IR
// module. Continuous assignments settle between edges, registers update with
// non-blocking semantics, and every clock domain ticks as its own akita
// component on a shared serial engine. Instances are black boxes: their
// outputs are nets the caller drives.
package rtlsim

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sarchlab/akita/v4/sim"

	"topgen/internal/ir"
)

// DefaultFreq is used for clocks without an explicit frequency.
const DefaultFreq = 1 * sim.GHz

// Hook positions invoked by every clock domain around a rising edge.
var (
	HookPosBeforeEdge = &sim.HookPos{Name: "BeforeEdge"}
	HookPosAfterEdge  = &sim.HookPos{Name: "AfterEdge"}
)

// EdgeFunc observes or stimulates the design at the given edge number of a
// clock domain. Edges are numbered from 1.
type EdgeFunc func(edge uint64)

// Option configures a Simulator.
type Option func(*Simulator)

// WithClock sets the frequency of a clock domain.
func WithClock(clock string, freq sim.Freq) Option {
	return func(s *Simulator) {
		s.freqs[clock] = freq
	}
}

type net struct {
	width    int
	value    uint64
	drivable bool
}

// Simulator evaluates a single module.
type Simulator struct {
	module  *ir.Module
	engine  *sim.SerialEngine
	freqs   map[string]sim.Freq
	nets    map[string]*net
	domains []*domain
	byClock map[string]*domain
	err     error
}

// New prepares a simulator for module. All registers start at their initial
// value (zero when none is given) and every drivable net starts low.
func New(module *ir.Module, opts ...Option) (*Simulator, error) {
	if module == nil {
		return nil, fmt.Errorf("rtlsim: module is nil")
	}
	s := &Simulator{
		module:  module,
		engine:  sim.NewSerialEngine(),
		freqs:   make(map[string]sim.Freq),
		nets:    make(map[string]*net),
		byClock: make(map[string]*domain),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.declare(); err != nil {
		return nil, err
	}
	for _, proc := range module.Processes {
		d, ok := s.byClock[proc.Clock]
		if !ok {
			if _, declared := s.nets[proc.Clock]; !declared {
				return nil, fmt.Errorf("rtlsim: clock %s is not declared", proc.Clock)
			}
			d = s.newDomain(proc.Clock)
		}
		d.procs = append(d.procs, proc)
	}
	for clock := range s.freqs {
		if _, ok := s.byClock[clock]; !ok {
			return nil, fmt.Errorf("rtlsim: no process is clocked by %s", clock)
		}
	}
	if err := s.settle(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Simulator) declare() error {
	params := make(map[string]int, len(s.module.Params))
	for _, p := range s.module.Params {
		params[p.Name] = p.Value
	}
	// A redeclared name shares the net of its first declaration.
	add := func(name string, t *ir.SignalType, drivable bool) {
		if _, dup := s.nets[name]; dup {
			return
		}
		s.nets[name] = &net{width: resolveWidth(t, params), drivable: drivable}
	}
	for _, p := range s.module.Ports {
		add(p.Name, p.Type, p.Direction == ir.Input)
	}
	for _, sig := range s.module.Signals {
		add(sig.Name, sig.Type, false)
		if sig.Init != nil {
			n := s.nets[sig.Name]
			n.value = mask(sig.Init.Value, n.width)
		}
	}

	// Nets nothing inside the module drives are outputs of black-box
	// instances, so the caller may drive them.
	driven := make(map[string]bool)
	for _, a := range s.module.Assigns {
		driven[a.Dest] = true
	}
	for _, proc := range s.module.Processes {
		for _, nb := range proc.OnReset {
			driven[nb.Dest] = true
		}
		for _, nb := range proc.Body {
			driven[nb.Dest] = true
		}
	}
	for _, sig := range s.module.Signals {
		if sig.Kind == ir.Wire && !driven[sig.Name] {
			s.nets[sig.Name].drivable = true
		}
	}
	return nil
}

// resolveWidth understands numeric widths and the parameter forms "P" and
// "P/k". Anything wider than 64 bits, or unresolvable, is modelled as 64.
func resolveWidth(t *ir.SignalType, params map[string]int) int {
	width := 1
	if t != nil {
		width = t.Bits()
		if t.WidthExpr != "" {
			width = 64
			name, div, found := strings.Cut(t.WidthExpr, "/")
			if v, ok := params[strings.TrimSpace(name)]; ok {
				width = v
				if found {
					k, err := strconv.Atoi(strings.TrimSpace(div))
					if err != nil || k == 0 {
						width = 64
					} else {
						width = v / k
					}
				}
			}
		}
		if t.Vector > 1 {
			width *= t.Vector
		}
	}
	if width <= 0 || width > 64 {
		return 64
	}
	return width
}

func mask(v uint64, width int) uint64 {
	if width >= 64 {
		return v
	}
	return v & (1<<uint(width) - 1)
}

// Drive sets an input port or a net driven only by an instance. The new
// value propagates through continuous assignments immediately.
func (s *Simulator) Drive(name string, value uint64) error {
	n, ok := s.nets[name]
	if !ok {
		return fmt.Errorf("rtlsim: unknown net %s", name)
	}
	if !n.drivable {
		return fmt.Errorf("rtlsim: %s is driven inside the module", name)
	}
	n.value = mask(value, n.width)
	return s.settle()
}

// Value returns the current value of a net.
func (s *Simulator) Value(name string) (uint64, error) {
	n, ok := s.nets[name]
	if !ok {
		return 0, fmt.Errorf("rtlsim: unknown net %s", name)
	}
	return n.value, nil
}

// OnEdge registers fn to run just before registers of clock sample their
// inputs. Values driven from fn are seen by that edge.
func (s *Simulator) OnEdge(clock string, fn EdgeFunc) error {
	return s.hook(clock, HookPosBeforeEdge, fn)
}

// AfterEdge registers fn to run once the registers of clock have updated and
// the combinational logic has settled.
func (s *Simulator) AfterEdge(clock string, fn EdgeFunc) error {
	return s.hook(clock, HookPosAfterEdge, fn)
}

func (s *Simulator) hook(clock string, pos *sim.HookPos, fn EdgeFunc) error {
	d, ok := s.byClock[clock]
	if !ok {
		return fmt.Errorf("rtlsim: no clock domain %s", clock)
	}
	d.AcceptHook(&edgeHook{pos: pos, fn: fn})
	return nil
}

// Clocks lists the clock domains in order of first use.
func (s *Simulator) Clocks() []string {
	out := make([]string, 0, len(s.domains))
	for _, d := range s.domains {
		out = append(out, d.clock)
	}
	return out
}

// Edges returns how many rising edges of clock have been simulated.
func (s *Simulator) Edges(clock string) uint64 {
	if d, ok := s.byClock[clock]; ok {
		return d.edges
	}
	return 0
}

// Now is the current simulated time.
func (s *Simulator) Now() sim.VTimeInSec {
	return s.engine.CurrentTime()
}

// Run advances every clock domain by the given number of its own rising
// edges. Faster domains finish earlier in simulated time.
func (s *Simulator) Run(edges uint64) error {
	if s.err != nil {
		return s.err
	}
	for _, d := range s.domains {
		d.limit = d.edges + edges
		if edges > 0 {
			d.TickLater()
		}
	}
	if err := s.engine.Run(); err != nil {
		return fmt.Errorf("rtlsim: engine: %w", err)
	}
	return s.err
}

// settle re-evaluates continuous assignments until nothing changes.
func (s *Simulator) settle() error {
	assigns := s.module.Assigns
	for pass := 0; pass <= len(assigns); pass++ {
		changed := false
		for _, a := range assigns {
			dst, ok := s.nets[a.Dest]
			if !ok {
				return fmt.Errorf("rtlsim: assign to unknown net %s", a.Dest)
			}
			v, err := s.eval(a.Value)
			if err != nil {
				return err
			}
			v = mask(v, dst.width)
			if v != dst.value {
				dst.value = v
				changed = true
			}
		}
		if !changed {
			return nil
		}
	}
	return fmt.Errorf("rtlsim: combinational logic does not settle")
}

func (s *Simulator) eval(e ir.Expr) (uint64, error) {
	v, _, err := s.evalWidth(e)
	return v, err
}

func (s *Simulator) evalWidth(e ir.Expr) (uint64, int, error) {
	switch x := e.(type) {
	case ir.Ref:
		n, ok := s.nets[x.Name]
		if !ok {
			return 0, 0, fmt.Errorf("rtlsim: unknown net %s", x.Name)
		}
		return n.value, n.width, nil
	case ir.Const:
		w := x.Width
		if w <= 0 {
			w = 1
		}
		return mask(x.Value, w), w, nil
	case ir.Not:
		v, w, err := s.evalWidth(x.X)
		if err != nil {
			return 0, 0, err
		}
		return mask(^v, w), w, nil
	case ir.And:
		l, lw, err := s.evalWidth(x.Left)
		if err != nil {
			return 0, 0, err
		}
		r, rw, err := s.evalWidth(x.Right)
		if err != nil {
			return 0, 0, err
		}
		return l & r, max(lw, rw), nil
	case ir.Mux:
		c, _, err := s.evalWidth(x.Cond)
		if err != nil {
			return 0, 0, err
		}
		if c != 0 {
			return s.evalWidth(x.True)
		}
		return s.evalWidth(x.False)
	default:
		return 0, 0, fmt.Errorf("rtlsim: cannot evaluate %T", e)
	}
}

type update struct {
	dst   *net
	value uint64
}

// edge samples every process of clock, then commits all updates at once.
func (s *Simulator) edge(clock string) error {
	d := s.byClock[clock]
	var updates []update
	for _, proc := range d.procs {
		body := proc.Body
		if proc.Reset != "" {
			rst, err := s.eval(ir.R(proc.Reset))
			if err != nil {
				return err
			}
			if rst != 0 {
				body = proc.OnReset
			}
		}
		for _, nb := range body {
			dst, ok := s.nets[nb.Dest]
			if !ok {
				return fmt.Errorf("rtlsim: process drives unknown net %s", nb.Dest)
			}
			v, err := s.eval(nb.Value)
			if err != nil {
				return err
			}
			updates = append(updates, update{dst: dst, value: mask(v, dst.width)})
		}
	}
	for _, u := range updates {
		u.dst.value = u.value
	}
	return s.settle()
}
