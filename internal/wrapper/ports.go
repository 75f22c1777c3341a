package wrapper

import (
	"fmt"

	"topgen/internal/config"
	"topgen/internal/ir"
)

// Stream signal suffixes, in declaration order.
var streamSignals = []string{"tvalid", "tdata", "tready", "tkeep", "tlast"}

// ClockName returns the clock port of 1-based clock domain d.
func ClockName(d int) string { return "ap_clk" + domainSuffix(d) }

// ResetInName returns the external active-low reset port of domain d.
func ResetInName(d int) string { return "ap_rst_n" + domainSuffix(d) }

// ResetName returns the internal synchronized active-high reset of domain d.
func ResetName(d int) string { return "areset" + domainSuffix(d) }

func domainSuffix(d int) string {
	if d <= 1 {
		return ""
	}
	return fmt.Sprintf("_%d", d)
}

// TopBusName is the top-level name of bus for the given replica. Without
// replication the declared name is used as is.
func TopBusName(bus string, replica, unroll int) string {
	if unroll <= 1 {
		return bus
	}
	return fmt.Sprintf("%s_%d", bus, replica)
}

// StreamPortName builds the port name of one stream signal, e.g.
// saxis_in_tvalid.
func StreamPortName(kind, bus, signal string) string {
	return kind + "_" + bus + "_" + signal
}

// BuildPorts derives the ordered top-level port list: clocks, resets, the
// stream buses (per replica when unrolled) and the AXI-Lite control bus.
func BuildPorts(cfg *config.Config) []ir.Port {
	var ports []ir.Port
	ports = append(ports, clockResetPorts(cfg.Clocks)...)
	for _, bus := range cfg.Buses {
		for i := 0; i < max(cfg.Unroll, 1); i++ {
			ports = append(ports, StreamPorts(bus, TopBusName(bus.Name, i, cfg.Unroll))...)
		}
	}
	ports = append(ports, controlPorts()...)
	return ports
}

func clockResetPorts(clocks int) []ir.Port {
	const group = "Clocks and resets"
	ports := make([]ir.Port, 0, 2*clocks)
	for d := 1; d <= max(clocks, 1); d++ {
		ports = append(ports, ir.Port{Name: ClockName(d), Direction: ir.Input, Type: &ir.SignalType{Width: 1}, Group: group})
	}
	for d := 1; d <= max(clocks, 1); d++ {
		ports = append(ports, ir.Port{Name: ResetInName(d), Direction: ir.Input, Type: &ir.SignalType{Width: 1}, Group: group})
	}
	return ports
}

// StreamPorts returns the handshake quintuple of one bus under its top-level
// name. Master buses drive tvalid, tdata, tkeep and tlast and sample tready;
// slave buses are the mirror image.
func StreamPorts(bus config.Bus, topName string) []ir.Port {
	primary, secondary := ir.Input, ir.Output
	if bus.IsMaster() {
		primary, secondary = ir.Output, ir.Input
	}
	group := fmt.Sprintf("AXI4-Stream %s (%s)", topName, bus.Kind)
	types := map[string]*ir.SignalType{
		"tvalid": {Width: 1},
		"tdata":  {WidthExpr: StreamWidthParam, Vector: bus.VecLen},
		"tready": {Width: 1},
		"tkeep":  {WidthExpr: StreamWidthParam + "/8"},
		"tlast":  {Width: 1},
	}
	ports := make([]ir.Port, 0, len(streamSignals))
	for _, sig := range streamSignals {
		dir := primary
		if sig == "tready" {
			dir = secondary
		}
		ports = append(ports, ir.Port{
			Name:      StreamPortName(bus.Kind, topName, sig),
			Direction: dir,
			Type:      types[sig],
			Group:     group,
		})
	}
	return ports
}

// controlSignal describes one AXI-Lite channel signal of the control bus.
type controlSignal struct {
	name  string // suffix of the top-level port, lower case
	dir   ir.PortDirection
	width string // parameter expression, "" for single bit
	bits  int
}

var controlSignals = []controlSignal{
	{name: "awvalid", dir: ir.Input},
	{name: "awready", dir: ir.Output},
	{name: "awaddr", dir: ir.Input, width: AddrWidthParam},
	{name: "wvalid", dir: ir.Input},
	{name: "wready", dir: ir.Output},
	{name: "wdata", dir: ir.Input, width: ControlDataWidthParam},
	{name: "wstrb", dir: ir.Input, width: ControlDataWidthParam + "/8"},
	{name: "arvalid", dir: ir.Input},
	{name: "arready", dir: ir.Output},
	{name: "araddr", dir: ir.Input, width: AddrWidthParam},
	{name: "rvalid", dir: ir.Output},
	{name: "rready", dir: ir.Input},
	{name: "rdata", dir: ir.Output, width: ControlDataWidthParam},
	{name: "rresp", dir: ir.Output, bits: 2},
	{name: "bvalid", dir: ir.Output},
	{name: "bready", dir: ir.Input},
	{name: "bresp", dir: ir.Output, bits: 2},
}

func controlPortName(sig string) string { return "s_axi_control_" + sig }

func controlPorts() []ir.Port {
	const group = "Control AXI-Lite bus"
	ports := make([]ir.Port, 0, len(controlSignals))
	for _, s := range controlSignals {
		t := &ir.SignalType{Width: 1}
		switch {
		case s.width != "":
			t = &ir.SignalType{WidthExpr: s.width}
		case s.bits > 0:
			t = &ir.SignalType{Width: s.bits}
		}
		ports = append(ports, ir.Port{Name: controlPortName(s.name), Direction: s.dir, Type: t, Group: group})
	}
	return ports
}
