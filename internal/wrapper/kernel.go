package wrapper

import (
	"fmt"

	"topgen/internal/config"
	"topgen/internal/ir"
)

// Handshake signal names.
const (
	sigStart      = "ap_start"
	sigStartReg   = "ap_start_r"
	sigStartPulse = "ap_start_pulse"
	sigIdle       = "ap_idle"
	sigIdleReg    = "ap_idle_r"
	sigDone       = "ap_done"
	sigDoneReg    = "ap_done_r"
	sigKernelDone = "ap_done_w"
)

// KernelInstanceName returns the instance name of replica i. Without
// replication there is no suffix.
func KernelInstanceName(kernel string, replica, unroll int) string {
	if unroll <= 1 {
		return "inst_" + kernel
	}
	return fmt.Sprintf("inst_%s_%d", kernel, replica)
}

// BuildKernels instantiates the wrapped kernel once per replica. Replicas
// share the parameter wires and the start/done handshake; each one is bound
// to its own copy of the stream ports.
func BuildKernels(cfg *config.Config) []*ir.Instance {
	n := max(cfg.Unroll, 1)
	insts := make([]*ir.Instance, 0, n)
	for i := 0; i < n; i++ {
		inst := &ir.Instance{
			Module: cfg.Name,
			Name:   KernelInstanceName(cfg.Name, i, cfg.Unroll),
		}
		inst.Conns = append(inst.Conns, kernelClockResets(cfg.Clocks)...)
		inst.Conns = append(inst.Conns, ParamBindings(cfg)...)
		for _, bus := range cfg.Buses {
			top := TopBusName(bus.Name, i, cfg.Unroll)
			for _, sig := range streamSignals {
				inst.Conns = append(inst.Conns, ir.Binding{
					Port:  StreamPortName(bus.Kind, bus.Name, sig),
					Value: ir.R(StreamPortName(bus.Kind, top, sig)),
				})
			}
		}
		inst.Conns = append(inst.Conns,
			ir.Binding{Port: "ap_start", Value: ir.R(sigStart)},
			ir.Binding{Port: "ap_done", Value: ir.R(sigKernelDone)},
		)
		insts = append(insts, inst)
	}
	return insts
}

func kernelClockResets(clocks int) []ir.Binding {
	n := max(clocks, 1)
	out := make([]ir.Binding, 0, 2*n)
	for d := 1; d <= n; d++ {
		out = append(out, ir.Binding{Port: "ap_aclk" + domainSuffix(d), Value: ir.R(ClockName(d))})
	}
	for d := 1; d <= n; d++ {
		out = append(out, ir.Binding{Port: "ap_areset" + domainSuffix(d), Value: ir.R(ResetName(d))})
	}
	return out
}

// BuildHandshake produces the fixed start/done/idle logic clocked by the
// first domain:
//
//	ap_start_pulse = ap_start & ~ap_start_r
//	ap_idle_r     <= areset ? 1 : ap_done ? 1 : ap_start_pulse ? 0 : ap_idle
//	ap_done_r     <= areset ? 0 : ap_done ? 0 : ap_done_w
//
// A start line held high only starts one run, and ap_done is high for a
// single cycle.
func BuildHandshake() ([]*ir.Signal, []*ir.Assign, []*ir.Process) {
	bit := func() *ir.SignalType { return &ir.SignalType{Width: 1} }
	one, zero := ir.Bit(1), ir.Bit(0)
	signals := []*ir.Signal{
		{Name: sigIdle, Type: bit(), Kind: ir.Wire},
		{Name: sigIdleReg, Type: bit(), Kind: ir.Reg, Init: &one},
		{Name: sigDone, Type: bit(), Kind: ir.Wire},
		{Name: sigDoneReg, Type: bit(), Kind: ir.Reg, Init: &zero},
		{Name: sigKernelDone, Type: bit(), Kind: ir.Wire},
		{Name: sigStart, Type: bit(), Kind: ir.Wire},
		{Name: sigStartReg, Type: bit(), Kind: ir.Reg, Init: &zero},
		{Name: sigStartPulse, Type: bit(), Kind: ir.Wire},
	}
	assigns := []*ir.Assign{
		{Dest: sigStartPulse, Value: ir.And{Left: ir.R(sigStart), Right: ir.Not{X: ir.R(sigStartReg)}}},
		{Dest: sigIdle, Value: ir.R(sigIdleReg)},
		{Dest: sigDone, Value: ir.R(sigDoneReg)},
	}
	clk, rst := ClockName(1), ResetName(1)
	procs := []*ir.Process{
		{
			Clock: clk,
			Body:  []ir.NonBlocking{{Dest: sigStartReg, Value: ir.R(sigStart)}},
		},
		{
			Clock:   clk,
			Reset:   rst,
			OnReset: []ir.NonBlocking{{Dest: sigIdleReg, Value: ir.Bit(1)}},
			Body: []ir.NonBlocking{{
				Dest: sigIdleReg,
				Value: ir.Mux{
					Cond: ir.R(sigDone),
					True: ir.Bit(1),
					False: ir.Mux{
						Cond:  ir.R(sigStartPulse),
						True:  ir.Bit(0),
						False: ir.R(sigIdle),
					},
				},
			}},
		},
		{
			Clock:   clk,
			Reset:   rst,
			OnReset: []ir.NonBlocking{{Dest: sigDoneReg, Value: ir.Bit(0)}},
			Body: []ir.NonBlocking{{
				Dest:  sigDoneReg,
				Value: ir.Mux{Cond: ir.R(sigDone), True: ir.Bit(0), False: ir.R(sigKernelDone)},
			}},
		},
	}
	return signals, assigns, procs
}
