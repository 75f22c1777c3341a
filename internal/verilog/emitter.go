package verilog

import (
	"fmt"
	"io"
	"strings"

	"topgen/internal/ir"
)

const indentUnit = "    "

// Render returns the Verilog text of the design.
func Render(design *ir.Design) (string, error) {
	var b strings.Builder
	if err := Emit(design, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Emit writes the Verilog source of every module in the design to w,
// surrounded by the fixed file header and footer.
func Emit(design *ir.Design, w io.Writer) error {
	if design == nil || len(design.Modules) == 0 {
		return fmt.Errorf("verilog: design has no modules")
	}
	pr := &printer{w: w}
	pr.line("`default_nettype none")
	pr.line("`timescale 1 ns / 1 ps")
	for _, module := range design.Modules {
		if module == nil {
			continue
		}
		pr.line("")
		pr.emitModule(module)
	}
	pr.line("`default_nettype wire")
	return pr.err
}

type printer struct {
	w      io.Writer
	indent int
	err    error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	if text != "" {
		text = strings.Repeat(indentUnit, p.indent) + text
	}
	_, p.err = fmt.Fprintln(p.w, text)
}

func (p *printer) emitModule(module *ir.Module) {
	p.emitHeader(module)
	p.emitSignals(module)
	p.emitAssigns(module)
	p.emitProcesses(module)
	for _, inst := range module.Instances {
		p.emitInstance(inst)
	}
	p.line("endmodule")
}

func (p *printer) emitHeader(module *ir.Module) {
	if len(module.Params) == 0 {
		p.line("module %s", module.Name)
	} else {
		p.line("module %s #(", module.Name)
		width := 0
		for _, param := range module.Params {
			width = max(width, len(param.Name))
		}
		p.indent++
		for i, param := range module.Params {
			p.line("parameter integer %-*s = %d%s", width, param.Name, param.Value, comma(i, len(module.Params)))
		}
		p.indent--
		p.line(")")
	}

	p.line("(")
	p.indent++
	rangeWidth := 0
	for _, port := range module.Ports {
		rangeWidth = max(rangeWidth, len(rangeOf(port.Type)))
	}
	group := ""
	for i, port := range module.Ports {
		if port.Group != "" && port.Group != group {
			if i > 0 {
				p.line("")
			}
			p.line("// %s", port.Group)
			group = port.Group
		}
		p.line("%-6s wire %-*s %s%s", direction(port.Direction), rangeWidth, rangeOf(port.Type), port.Name, comma(i, len(module.Ports)))
	}
	p.indent--
	p.line(");")
	p.line("")
}

func (p *printer) emitSignals(module *ir.Module) {
	if len(module.Signals) == 0 {
		return
	}
	for _, sig := range module.Signals {
		for _, attr := range sig.Attributes {
			p.line("(* %s = %q *)", attr.Key, attr.Value)
		}
		decl := fmt.Sprintf("%-4s ", kind(sig.Kind))
		if r := rangeOf(sig.Type); r != "" {
			decl += r + " "
		}
		decl += sig.Name
		if sig.Init != nil {
			decl += " = " + ir.ExprString(*sig.Init)
		}
		p.line("%s;", decl)
	}
	p.line("")
}

func (p *printer) emitAssigns(module *ir.Module) {
	if len(module.Assigns) == 0 {
		return
	}
	for _, a := range module.Assigns {
		p.line("assign %s = %s;", a.Dest, ir.ExprString(a.Value))
	}
	p.line("")
}

func (p *printer) emitProcesses(module *ir.Module) {
	for _, proc := range module.Processes {
		p.line("always @(posedge %s) begin", proc.Clock)
		if proc.Reset != "" {
			p.indent++
			p.line("if (%s) begin", proc.Reset)
			p.emitNonBlocking(proc.OnReset)
			p.line("end else begin")
			p.emitNonBlocking(proc.Body)
			p.line("end")
			p.indent--
		} else {
			p.emitNonBlocking(proc.Body)
		}
		p.line("end")
		p.line("")
	}
}

func (p *printer) emitNonBlocking(stmts []ir.NonBlocking) {
	p.indent++
	for _, nb := range stmts {
		p.line("%s <= %s;", nb.Dest, ir.ExprString(nb.Value))
	}
	p.indent--
}

func (p *printer) emitInstance(inst *ir.Instance) {
	if len(inst.Params) > 0 {
		p.line("%s #(", inst.Module)
		p.emitBindings(inst.Params)
		p.line(")")
		p.line("%s (", inst.Name)
	} else {
		p.line("%s %s (", inst.Module, inst.Name)
	}
	p.emitBindings(inst.Conns)
	p.line(");")
	p.line("")
}

func (p *printer) emitBindings(bindings []ir.Binding) {
	width := 0
	for _, b := range bindings {
		width = max(width, len(b.Port))
	}
	p.indent++
	for i, b := range bindings {
		value := " "
		if b.Value != nil {
			value = " " + ir.ExprString(b.Value) + " "
		}
		p.line(".%-*s (%s)%s", width, b.Port, value, comma(i, len(bindings)))
	}
	p.indent--
}

// rangeOf renders the packed dimensions of t, or "" for a single bit.
func rangeOf(t *ir.SignalType) string {
	if t == nil {
		return ""
	}
	var b strings.Builder
	if t.Vector > 1 {
		fmt.Fprintf(&b, "[%d:0]", t.Vector-1)
	}
	switch {
	case t.WidthExpr != "":
		fmt.Fprintf(&b, "[%s-1:0]", t.WidthExpr)
	case t.Width > 1:
		fmt.Fprintf(&b, "[%d:0]", t.Width-1)
	}
	return b.String()
}

func comma(i, n int) string {
	if i < n-1 {
		return ","
	}
	return ""
}

func direction(dir ir.PortDirection) string {
	switch dir {
	case ir.Output:
		return "output"
	case ir.InOut:
		return "inout"
	default:
		return "input"
	}
}

func kind(k ir.SignalKind) string {
	if k == ir.Reg {
		return "reg"
	}
	return "wire"
}
