package passes

import (
	"fmt"

	"topgen/internal/diag"
	"topgen/internal/ir"
)

// NetCheck verifies that a module is well formed before it is printed:
// every referenced name is declared, registers have a single driving
// process and continuous assignments target wires or outputs. Names that
// are declared twice, or instances that share a name, are emitted as given
// and only produce warnings.
type NetCheck struct {
	reporter *diag.Reporter
	errCount int
}

// NewNetCheck constructs the pass. reporter is optional but recommended so
// the pass can surface every problem rather than only a count.
func NewNetCheck(reporter *diag.Reporter) *NetCheck {
	return &NetCheck{reporter: reporter}
}

// Name implements the Pass interface.
func (n *NetCheck) Name() string {
	return "net-check"
}

// Run executes the pass over the entire design.
func (n *NetCheck) Run(design *ir.Design) error {
	if design == nil {
		return fmt.Errorf("net check requires a non-nil design")
	}
	n.errCount = 0
	for _, module := range design.Modules {
		if module != nil {
			n.visitModule(module)
		}
	}
	if n.errCount > 0 {
		return fmt.Errorf("net check failed with %d issue(s)", n.errCount)
	}
	return nil
}

type declKind int

const (
	declParam declKind = iota
	declInput
	declOutput
	declWire
	declReg
)

func (n *NetCheck) visitModule(module *ir.Module) {
	decls := make(map[string]declKind)
	declare := func(name string, kind declKind) {
		if _, dup := decls[name]; dup {
			n.warn(module, "%s is declared more than once", name)
			return
		}
		decls[name] = kind
	}
	for _, p := range module.Params {
		declare(p.Name, declParam)
	}
	for _, p := range module.Ports {
		kind := declInput
		if p.Direction != ir.Input {
			kind = declOutput
		}
		declare(p.Name, kind)
	}
	for _, sig := range module.Signals {
		kind := declWire
		if sig.Kind == ir.Reg {
			kind = declReg
		}
		declare(sig.Name, kind)
	}

	checkRefs := func(where string, e ir.Expr) {
		for _, name := range refs(e) {
			if _, ok := decls[name]; !ok {
				n.report(module, "%s references undeclared %s", where, name)
			}
		}
	}

	for _, a := range module.Assigns {
		switch kind, ok := decls[a.Dest]; {
		case !ok:
			n.report(module, "assign to undeclared %s", a.Dest)
		case kind != declWire && kind != declOutput:
			n.report(module, "assign target %s is not a wire or output", a.Dest)
		}
		checkRefs("assign "+a.Dest, a.Value)
	}

	drivers := make(map[string]int)
	for idx, proc := range module.Processes {
		where := fmt.Sprintf("process %d", idx)
		checkRefs(where+" clock", ir.R(proc.Clock))
		if proc.Reset != "" {
			checkRefs(where+" reset", ir.R(proc.Reset))
		}
		driven := make(map[string]bool)
		for _, nb := range append(append([]ir.NonBlocking(nil), proc.OnReset...), proc.Body...) {
			if kind, ok := decls[nb.Dest]; !ok || kind != declReg {
				n.report(module, "%s drives %s which is not a register", where, nb.Dest)
			}
			checkRefs(where, nb.Value)
			driven[nb.Dest] = true
		}
		for name := range driven {
			drivers[name]++
		}
	}
	for _, sig := range module.Signals {
		if drivers[sig.Name] > 1 {
			n.report(module, "register %s is driven by %d processes", sig.Name, drivers[sig.Name])
		}
	}

	seen := make(map[string]bool)
	for _, inst := range module.Instances {
		if seen[inst.Name] {
			n.warn(module, "instance %s is declared more than once", inst.Name)
		}
		seen[inst.Name] = true
		for _, b := range inst.Params {
			checkRefs(fmt.Sprintf("%s parameter %s", inst.Name, b.Port), b.Value)
		}
		for _, b := range inst.Conns {
			checkRefs(fmt.Sprintf("%s port %s", inst.Name, b.Port), b.Value)
		}
	}
}

// refs lists the names an expression reads.
func refs(e ir.Expr) []string {
	switch x := e.(type) {
	case ir.Ref:
		return []string{x.Name}
	case ir.Not:
		return refs(x.X)
	case ir.And:
		return append(refs(x.Left), refs(x.Right)...)
	case ir.Mux:
		out := refs(x.Cond)
		out = append(out, refs(x.True)...)
		return append(out, refs(x.False)...)
	default:
		return nil
	}
}

func (n *NetCheck) report(module *ir.Module, format string, args ...any) {
	n.errCount++
	if n.reporter == nil {
		return
	}
	n.reporter.Errorf("%s: %s", module.Name, fmt.Sprintf(format, args...))
}

func (n *NetCheck) warn(module *ir.Module, format string, args ...any) {
	if n.reporter == nil {
		return
	}
	n.reporter.Warnf("%s: %s", module.Name, fmt.Sprintf(format, args...))
}
