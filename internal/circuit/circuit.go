// Package circuit models gate sequences placed on a step grid and runs them
// against a register.
package circuit

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"qdeck/internal/register"
)

var (
	// ErrInvalidGate reports a gate that cannot be placed or run.
	ErrInvalidGate = errors.New("invalid gate")
	// ErrUnsupported reports a QASM statement the parser does not handle.
	ErrUnsupported = errors.New("unsupported statement")
)

// Gate types understood by the simulator.
const (
	TypeH  = "H"
	TypeX  = "X"
	TypeZ  = "Z"
	TypeCX = "CX"
)

// Gate represents a quantum gate placed on the circuit.
type Gate struct {
	Type    string
	Target  int
	Control int // -1 if not a controlled gate
	Step    int // position in circuit timeline
}

// Circuit holds the quantum circuit state.
type Circuit struct {
	NumQubits int
	Gates     []Gate
	MaxSteps  int
}

// New returns an empty circuit over numQubits qubits.
func New(numQubits int) *Circuit {
	return &Circuit{NumQubits: numQubits}
}

// AddGate appends a gate to the circuit.
func (c *Circuit) AddGate(gateType string, target, step int, control ...int) {
	ctrl := -1
	if len(control) > 0 {
		ctrl = control[0]
	}
	c.Gates = append(c.Gates, Gate{
		Type:    gateType,
		Target:  target,
		Control: ctrl,
		Step:    step,
	})
	if step >= c.MaxSteps {
		c.MaxSteps = step + 1
	}
}

// Append adds a gate at the step after the last one.
func (c *Circuit) Append(gateType string, target int, control ...int) {
	c.AddGate(gateType, target, c.MaxSteps, control...)
}

// References reports whether the gate touches the given qubit.
func (g Gate) References(qubit int) bool {
	return g.Target == qubit || g.Control == qubit
}

// span returns the lowest and highest qubit the gate occupies on the grid.
func (g Gate) span() (lo, hi int) {
	if g.Control < 0 {
		return g.Target, g.Target
	}
	return min(g.Control, g.Target), max(g.Control, g.Target)
}

// RemoveGateAt removes any gate at the given step and qubit.
func (c *Circuit) RemoveGateAt(step, qubit int) {
	c.Gates = slices.DeleteFunc(c.Gates, func(g Gate) bool {
		return g.Step == step && g.References(qubit)
	})
	c.recountSteps()
}

// RemoveGatesOnQubit removes all gates that reference the given qubit index.
func (c *Circuit) RemoveGatesOnQubit(qubit int) {
	c.Gates = slices.DeleteFunc(c.Gates, func(g Gate) bool {
		return g.References(qubit)
	})
	c.recountSteps()
}

// GetGateAt returns the gate at the given step and qubit, or nil.
func (c *Circuit) GetGateAt(step, qubit int) *Gate {
	for i := range c.Gates {
		g := &c.Gates[i]
		if g.Step == step && g.References(qubit) {
			return g
		}
	}
	return nil
}

// CanPlaceAt reports whether none of qubits is occupied at step. For
// two-qubit gates the qubits strictly between control and target also
// count as occupied by the connecting wire.
func (c *Circuit) CanPlaceAt(step int, qubits []int) bool {
	for _, g := range c.Gates {
		if g.Step != step {
			continue
		}
		lo, hi := g.span()
		for _, q := range qubits {
			if q >= lo && q <= hi {
				return false
			}
		}
	}
	return true
}

func (c *Circuit) recountSteps() {
	c.MaxSteps = 0
	for _, g := range c.Gates {
		c.MaxSteps = max(c.MaxSteps, g.Step+1)
	}
}

// Ordered returns the gates sorted by step. Gates sharing a step keep their
// insertion order.
func (c *Circuit) Ordered() []Gate {
	gates := slices.Clone(c.Gates)
	slices.SortStableFunc(gates, func(a, b Gate) int {
		return cmp.Compare(a.Step, b.Step)
	})
	return gates
}

// Compact moves every gate to the earliest step after the previous gate on
// any qubit it spans, so independent gates share a step. Program order on
// each qubit is preserved.
func (c *Circuit) Compact() {
	gates := c.Ordered()
	free := make(map[int]int) // qubit -> first free step
	c.MaxSteps = 0
	for i := range gates {
		lo, hi := gates[i].span()
		step := 0
		for q := lo; q <= hi; q++ {
			step = max(step, free[q])
		}
		for q := lo; q <= hi; q++ {
			free[q] = step + 1
		}
		gates[i].Step = step
		c.MaxSteps = max(c.MaxSteps, step+1)
	}
	c.Gates = gates
}

// Validate checks every gate against the circuit's qubit count.
func (c *Circuit) Validate() error {
	if c.NumQubits <= 0 {
		return fmt.Errorf("%w: circuit has %d qubits", ErrInvalidGate, c.NumQubits)
	}
	for _, g := range c.Gates {
		if err := c.validateGate(g); err != nil {
			return err
		}
	}
	return nil
}

func (c *Circuit) validateGate(g Gate) error {
	inRange := func(q int) bool { return q >= 0 && q < c.NumQubits }
	switch g.Type {
	case TypeH, TypeX, TypeZ:
		if g.Control >= 0 {
			return fmt.Errorf("%w: %s at step %d cannot be controlled", ErrInvalidGate, g.Type, g.Step)
		}
	case TypeCX:
		if !inRange(g.Control) {
			return fmt.Errorf("%w: CX at step %d has control q[%d]", ErrInvalidGate, g.Step, g.Control)
		}
		if g.Control == g.Target {
			return fmt.Errorf("%w: CX at step %d uses q[%d] as control and target", ErrInvalidGate, g.Step, g.Target)
		}
	default:
		return fmt.Errorf("%w: unknown gate type %q at step %d", ErrInvalidGate, g.Type, g.Step)
	}
	if !inRange(g.Target) {
		return fmt.Errorf("%w: %s at step %d has target q[%d]", ErrInvalidGate, g.Type, g.Step, g.Target)
	}
	return nil
}

// Run applies the circuit's gates in step order to reg. Gates after upToStep
// are skipped; a negative upToStep runs everything.
func (c *Circuit) Run(reg *register.Register, upToStep int) error {
	for _, g := range c.Ordered() {
		if upToStep >= 0 && g.Step > upToStep {
			continue
		}
		if err := apply(reg, g); err != nil {
			return fmt.Errorf("step %d: %w", g.Step, err)
		}
	}
	return nil
}

// Simulate runs the circuit up to upToStep on a fresh register.
func (c *Circuit) Simulate(upToStep int, opts ...register.Option) (*register.Register, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	reg, err := register.New(c.NumQubits, opts...)
	if err != nil {
		return nil, err
	}
	if err := c.Run(reg, upToStep); err != nil {
		return nil, err
	}
	return reg, nil
}

func apply(reg *register.Register, g Gate) error {
	switch g.Type {
	case TypeH:
		return reg.H(g.Target)
	case TypeX:
		return reg.X(g.Target)
	case TypeZ:
		return reg.Z(g.Target)
	case TypeCX:
		return reg.CNOT(g.Control, g.Target)
	}
	return fmt.Errorf("%w: unknown gate type %q", ErrInvalidGate, g.Type)
}
