package wrapper

import (
	"errors"
	"math/bits"
	"strings"

	"topgen/internal/config"
	"topgen/internal/ir"
)

// RegisterBaseOffset is the number of bytes reserved for the fixed
// control/status registers that precede the user parameters.
const RegisterBaseOffset = 0x10

// ErrDegenerateAddressSpace is returned when the register space has no
// positive size, which leaves the address width undefined.
var ErrDegenerateAddressSpace = errors.New("wrapper: control register space is not positive")

// ParamBytes is the register space reserved for a parameter of the given
// width, rounded up to whole bytes.
func ParamBytes(width int) int {
	return (width + 7) / 8
}

// TotalRegisterBytes is the base offset plus the space of every parameter.
func TotalRegisterBytes(cfg *config.Config) int {
	total := RegisterBaseOffset
	for _, p := range cfg.AllParams() {
		total += ParamBytes(p.Width)
	}
	return total
}

// ControlAddressWidth returns ceil(log2(TotalRegisterBytes)).
func ControlAddressWidth(cfg *config.Config) (int, error) {
	total := TotalRegisterBytes(cfg)
	if total < 1 {
		return 0, ErrDegenerateAddressSpace
	}
	return bits.Len(uint(total - 1)), nil
}

// ParamWires declares one internal wire per parameter. The wire is written
// by the control block and read by every kernel instance.
func ParamWires(cfg *config.Config) []*ir.Signal {
	params := cfg.AllParams()
	wires := make([]*ir.Signal, 0, len(params))
	for _, p := range params {
		wires = append(wires, &ir.Signal{
			Name: p.Name,
			Type: &ir.SignalType{Width: p.Width},
			Kind: ir.Wire,
		})
	}
	return wires
}

// ParamBindings connects every parameter wire to the identically named port
// of an instance.
func ParamBindings(cfg *config.Config) []ir.Binding {
	params := cfg.AllParams()
	out := make([]ir.Binding, 0, len(params))
	for _, p := range params {
		out = append(out, ir.Binding{Port: p.Name, Value: ir.R(p.Name)})
	}
	return out
}

// ControlInstanceName is the instance name of the control register block.
func ControlInstanceName(kernel string) string { return "inst_" + kernel + "_control" }

// BindControl instantiates the {name}_control register block. The handshake
// bindings are fixed: the block drives ap_start and reads back ap_done,
// ap_ready and ap_idle from the wrapper's latched status.
func BindControl(cfg *config.Config) *ir.Instance {
	inst := &ir.Instance{
		Module: cfg.Name + "_control",
		Name:   ControlInstanceName(cfg.Name),
		Params: []ir.Binding{
			{Port: "C_S_AXI_ADDR_WIDTH", Value: ir.R(AddrWidthParam)},
			{Port: "C_S_AXI_DATA_WIDTH", Value: ir.R(ControlDataWidthParam)},
		},
	}
	inst.Conns = append(inst.Conns,
		ir.Binding{Port: "ACLK", Value: ir.R(ClockName(1))},
		ir.Binding{Port: "ARESET", Value: ir.R(ResetName(1))},
		ir.Binding{Port: "ACLK_EN", Value: ir.Bit(1)},
	)
	for _, s := range controlSignals {
		inst.Conns = append(inst.Conns, ir.Binding{
			Port:  strings.ToUpper(s.name),
			Value: ir.R(controlPortName(s.name)),
		})
	}
	inst.Conns = append(inst.Conns,
		ir.Binding{Port: "ap_start", Value: ir.R(sigStart)},
		ir.Binding{Port: "ap_done", Value: ir.R(sigDone)},
		ir.Binding{Port: "ap_ready", Value: ir.R(sigDone)},
		ir.Binding{Port: "ap_idle", Value: ir.R(sigIdle)},
	)
	inst.Conns = append(inst.Conns, ParamBindings(cfg)...)
	inst.Conns = append(inst.Conns, ir.Binding{Port: "interrupt"})
	return inst
}
