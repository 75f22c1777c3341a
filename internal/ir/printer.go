package ir

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes a simple human-readable representation of the design.
func Dump(design *Design, w io.Writer) {
	if design == nil {
		fmt.Fprintln(w, "<nil design>")
		return
	}
	for _, module := range design.Modules {
		fmt.Fprintf(w, "module %s\n", module.Name)
		dumpParams(module, w)
		dumpPorts(module, w)
		dumpSignals(module, w)
		dumpAssigns(module, w)
		dumpProcesses(module, w)
		dumpInstances(module, w)
		fmt.Fprintln(w)
	}
}

func dumpParams(module *Module, w io.Writer) {
	if len(module.Params) == 0 {
		return
	}
	fmt.Fprintln(w, "  params:")
	for _, p := range module.Params {
		fmt.Fprintf(w, "    %s = %d\n", p.Name, p.Value)
	}
}

func dumpPorts(module *Module, w io.Writer) {
	if len(module.Ports) == 0 {
		return
	}
	fmt.Fprintln(w, "  ports:")
	for _, port := range module.Ports {
		fmt.Fprintf(w, "    %s %s %s\n",
			portDirection(port.Direction),
			port.Name,
			TypeString(port.Type),
		)
	}
}

func dumpSignals(module *Module, w io.Writer) {
	if len(module.Signals) == 0 {
		return
	}
	fmt.Fprintln(w, "  signals:")
	for _, sig := range module.Signals {
		value := ""
		if sig.Init != nil {
			value = " = " + ExprString(*sig.Init)
		}
		fmt.Fprintf(w, "    %-5s %s %s%s\n",
			signalKind(sig.Kind),
			sig.Name,
			TypeString(sig.Type),
			value,
		)
	}
}

func dumpAssigns(module *Module, w io.Writer) {
	if len(module.Assigns) == 0 {
		return
	}
	fmt.Fprintln(w, "  assigns:")
	for _, a := range module.Assigns {
		fmt.Fprintf(w, "    %s = %s\n", a.Dest, ExprString(a.Value))
	}
}

func dumpProcesses(module *Module, w io.Writer) {
	for idx, proc := range module.Processes {
		reset := ""
		if proc.Reset != "" {
			reset = fmt.Sprintf(" (reset %s)", proc.Reset)
		}
		fmt.Fprintf(w, "  process %d posedge %s%s\n", idx, proc.Clock, reset)
		for _, nb := range proc.OnReset {
			fmt.Fprintf(w, "    reset: %s <= %s\n", nb.Dest, ExprString(nb.Value))
		}
		for _, nb := range proc.Body {
			fmt.Fprintf(w, "    %s <= %s\n", nb.Dest, ExprString(nb.Value))
		}
	}
}

func dumpInstances(module *Module, w io.Writer) {
	for _, inst := range module.Instances {
		fmt.Fprintf(w, "  instance %s of %s\n", inst.Name, inst.Module)
		for _, b := range inst.Params {
			fmt.Fprintf(w, "    #%s(%s)\n", b.Port, bindingString(b))
		}
		for _, b := range inst.Conns {
			fmt.Fprintf(w, "    .%s(%s)\n", b.Port, bindingString(b))
		}
	}
}

func bindingString(b Binding) string {
	if b.Value == nil {
		return ""
	}
	return ExprString(b.Value)
}

// TypeString renders a signal type compactly, e.g. "32b", "4x[C_AXIS_TDATA_WIDTH]".
func TypeString(t *SignalType) string {
	if t == nil {
		return "1b"
	}
	var b strings.Builder
	if t.Vector > 1 {
		fmt.Fprintf(&b, "%dx", t.Vector)
	}
	if t.WidthExpr != "" {
		fmt.Fprintf(&b, "[%s]", t.WidthExpr)
	} else {
		fmt.Fprintf(&b, "%db", t.Bits())
	}
	return b.String()
}

// ExprString renders an expression using Verilog operator syntax.
func ExprString(e Expr) string {
	switch x := e.(type) {
	case nil:
		return ""
	case Ref:
		return x.Name
	case Const:
		if x.Width <= 1 {
			return fmt.Sprintf("1'b%d", x.Value&1)
		}
		return fmt.Sprintf("%d'd%d", x.Width, x.Value)
	case Not:
		return "~" + operand(x.X)
	case And:
		return operand(x.Left) + " & " + operand(x.Right)
	case Mux:
		cond := ExprString(x.Cond)
		if _, nested := x.Cond.(Mux); nested {
			cond = "(" + cond + ")"
		}
		t := ExprString(x.True)
		if _, nested := x.True.(Mux); nested {
			t = "(" + t + ")"
		}
		return cond + " ? " + t + " : " + ExprString(x.False)
	default:
		return fmt.Sprintf("<unknown expr %T>", e)
	}
}

func operand(e Expr) string {
	switch e.(type) {
	case And, Mux:
		return "(" + ExprString(e) + ")"
	default:
		return ExprString(e)
	}
}

func portDirection(dir PortDirection) string {
	switch dir {
	case Input:
		return "in "
	case Output:
		return "out"
	case InOut:
		return "io "
	default:
		return "?"
	}
}

func signalKind(k SignalKind) string {
	switch k {
	case Wire:
		return "wire"
	case Reg:
		return "reg"
	default:
		return "?"
	}
}
