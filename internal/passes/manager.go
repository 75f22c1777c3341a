package passes

import (
	"fmt"

	"topgen/internal/ir"
)

// Pass is a check or transformation over a design.
type Pass interface {
	Name() string
	Run(design *ir.Design) error
}

// Manager runs passes in registration order and stops at the first failure.
type Manager struct {
	passes []Pass
}

// NewManager creates an empty pass manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add appends a pass.
func (m *Manager) Add(p Pass) {
	m.passes = append(m.passes, p)
}

// Run executes every pass over design.
func (m *Manager) Run(design *ir.Design) error {
	for _, p := range m.passes {
		if err := p.Run(design); err != nil {
			return fmt.Errorf("%s: %w", p.Name(), err)
		}
	}
	return nil
}
