package wrapper

import "topgen/internal/ir"

// BuildResets creates one reset register per clock domain. Each register
// samples the inverted external reset on its own clock; domains do not
// interact.
func BuildResets(clocks int) ([]*ir.Signal, []*ir.Process) {
	n := max(clocks, 1)
	regs := make([]*ir.Signal, 0, n)
	procs := make([]*ir.Process, 0, n)
	for d := 1; d <= n; d++ {
		init := ir.Bit(0)
		regs = append(regs, &ir.Signal{
			Name:       ResetName(d),
			Type:       &ir.SignalType{Width: 1},
			Kind:       ir.Reg,
			Init:       &init,
			Attributes: []ir.Attribute{{Key: "DONT_TOUCH", Value: "yes"}},
		})
		procs = append(procs, &ir.Process{
			Clock: ClockName(d),
			Body: []ir.NonBlocking{
				{Dest: ResetName(d), Value: ir.Not{X: ir.R(ResetInName(d))}},
			},
		})
	}
	return regs, procs
}
