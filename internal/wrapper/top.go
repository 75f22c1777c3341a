// Package wrapper builds the top-level integration shim around a streaming
// kernel: control register block, stream ports (optionally replicated),
// per-domain reset synchronizers and the start/done/idle handshake.
package wrapper

import (
	"topgen/internal/config"
	"topgen/internal/diag"
	"topgen/internal/ir"
	"topgen/internal/validate"
	"topgen/internal/verilog"
)

// Module-level parameters of the generated top.
const (
	AddrWidthParam        = "C_S_AXI_CONTROL_ADDR_WIDTH"
	ControlDataWidthParam = "C_S_AXI_CONTROL_DATA_WIDTH"
	StreamWidthParam      = "C_AXIS_TDATA_WIDTH"

	ControlDataWidth = 32
	StreamDataWidth  = 32
)

// TopName is the module name of the generated wrapper.
func TopName(kernel string) string { return kernel + "_top" }

// Build validates cfg and assembles the wrapper design. Nothing is returned
// unless every step succeeds.
func Build(cfg *config.Config, reporter *diag.Reporter) (*ir.Design, error) {
	if err := validate.CheckConfig(cfg, reporter); err != nil {
		return nil, err
	}
	addrWidth, err := ControlAddressWidth(cfg)
	if err != nil {
		return nil, err
	}

	mod := &ir.Module{
		Name: TopName(cfg.Name),
		Params: []ir.Parameter{
			{Name: AddrWidthParam, Value: addrWidth},
			{Name: ControlDataWidthParam, Value: ControlDataWidth},
			{Name: StreamWidthParam, Value: StreamDataWidth},
		},
		Ports: BuildPorts(cfg),
	}

	resetRegs, resetProcs := BuildResets(cfg.Clocks)
	hsSignals, hsAssigns, hsProcs := BuildHandshake()

	mod.Signals = append(mod.Signals, resetRegs...)
	mod.Signals = append(mod.Signals, hsSignals...)
	mod.Signals = append(mod.Signals, ParamWires(cfg)...)
	mod.Assigns = hsAssigns
	mod.Processes = append(mod.Processes, resetProcs...)
	mod.Processes = append(mod.Processes, hsProcs...)
	mod.Instances = append(mod.Instances, BindControl(cfg))
	mod.Instances = append(mod.Instances, BuildKernels(cfg)...)

	return &ir.Design{Modules: []*ir.Module{mod}, TopLevel: mod}, nil
}

// Generate turns a description into wrapper source text. It returns an
// empty string whenever an error is reported.
func Generate(cfg *config.Config, reporter *diag.Reporter) (string, error) {
	design, err := Build(cfg, reporter)
	if err != nil {
		return "", err
	}
	return verilog.Render(design)
}
