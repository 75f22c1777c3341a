package ir

// Design is the top-level hardware description consisting of one or more modules.
type Design struct {
	Modules  []*Module
	TopLevel *Module
}

// Module models a Verilog module: its parameters, ports, internal signals,
// continuous assignments, clocked processes and submodule instances. Every
// collection is ordered so that rendering is deterministic.
type Module struct {
	Name      string
	Params    []Parameter
	Ports     []Port
	Signals   []*Signal
	Assigns   []*Assign
	Processes []*Process
	Instances []*Instance
}

// Parameter is an integer module parameter with its default value.
type Parameter struct {
	Name  string
	Value int
}

// Port represents a module IO port.
type Port struct {
	Name      string
	Direction PortDirection
	Type      *SignalType
	// Group labels a run of related ports. The printer emits the label as a
	// comment whenever it changes.
	Group string
}

// PortDirection enumerates supported port directions.
type PortDirection int

const (
	Input PortDirection = iota
	Output
	InOut
)

// Signal captures a hardware wire/register.
type Signal struct {
	Name string
	Type *SignalType
	Kind SignalKind
	// Init is the power-on value of a register. Nil leaves it unspecified.
	Init *Const
	// Attributes are synthesis attributes rendered as (* key = "value" *).
	Attributes []Attribute
}

// Attribute is a single synthesis attribute.
type Attribute struct {
	Key   string
	Value string
}

// SignalType records the packed dimensions of a signal.
//
// Width is the bit width when known numerically. WidthExpr, when set, is a
// parameter expression used instead of Width (for example
// "C_AXIS_TDATA_WIDTH"). Vector adds an outer packed dimension of that many
// elements when greater than one.
type SignalType struct {
	Width     int
	WidthExpr string
	Vector    int
}

// Bits returns the numeric width, treating parametric widths as unknown (0).
func (t *SignalType) Bits() int {
	if t == nil {
		return 1
	}
	if t.WidthExpr != "" {
		return 0
	}
	if t.Width <= 0 {
		return 1
	}
	return t.Width
}

// SignalKind classifies how a signal is driven.
type SignalKind int

const (
	Wire SignalKind = iota
	Reg
)

// Assign is a continuous assignment.
type Assign struct {
	Dest  string
	Value Expr
}

// Process is an always block triggered on the rising edge of Clock. When
// Reset is set, OnReset is applied while the reset signal is high and Body
// otherwise; without a reset only Body runs.
type Process struct {
	Clock   string
	Reset   string
	OnReset []NonBlocking
	Body    []NonBlocking
}

// NonBlocking is a registered assignment inside a process.
type NonBlocking struct {
	Dest  string
	Value Expr
}

// Instance is a submodule instantiation.
type Instance struct {
	Module string
	Name   string
	Params []Binding
	Conns  []Binding
}

// Binding connects a named port (or parameter) of an instance to an
// expression in the enclosing module. A nil Value leaves the port open.
type Binding struct {
	Port  string
	Value Expr
}

// Expr is implemented by every expression node.
type Expr interface {
	isExpr()
}

// Ref names a port, signal or parameter of the enclosing module.
type Ref struct {
	Name string
}

// Const is a sized literal.
type Const struct {
	Width int
	Value uint64
}

// Not is bitwise negation.
type Not struct {
	X Expr
}

// And is bitwise conjunction.
type And struct {
	Left  Expr
	Right Expr
}

// Mux selects True when Cond is non-zero and False otherwise.
type Mux struct {
	Cond  Expr
	True  Expr
	False Expr
}

func (Ref) isExpr()   {}
func (Const) isExpr() {}
func (Not) isExpr()   {}
func (And) isExpr()   {}
func (Mux) isExpr()   {}

// R is shorthand for a reference expression.
func R(name string) Ref { return Ref{Name: name} }

// Bit returns a one-bit constant.
func Bit(v uint64) Const { return Const{Width: 1, Value: v & 1} }

// Signal returns the module signal with the given name, or nil.
func (m *Module) Signal(name string) *Signal {
	for _, sig := range m.Signals {
		if sig.Name == name {
			return sig
		}
	}
	return nil
}

// Port returns the module port with the given name, or nil.
func (m *Module) Port(name string) *Port {
	for i := range m.Ports {
		if m.Ports[i].Name == name {
			return &m.Ports[i]
		}
	}
	return nil
}

// Instance returns the instance with the given name, or nil.
func (m *Module) Instance(name string) *Instance {
	for _, inst := range m.Instances {
		if inst.Name == name {
			return inst
		}
	}
	return nil
}

// Conn returns the binding for port, or nil when the port is not bound.
func (inst *Instance) Conn(port string) *Binding {
	for i := range inst.Conns {
		if inst.Conns[i].Port == port {
			return &inst.Conns[i]
		}
	}
	return nil
}
