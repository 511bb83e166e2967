// Package register simulates an n-qubit register over a real state vector.
//
// Basis states are ordered so that qubit 0 is the most-significant tensor
// factor: the basis index bit for qubit q is 1 << (n-1-q). A Register is not
// safe for concurrent use.
package register

import (
	"fmt"
	"math/bits"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"
)

// Strategy selects how gates are applied to the state vector.
type Strategy int

const (
	// Indexed applies the 2×2 block directly to amplitude pairs.
	Indexed Strategy = iota
	// Dense materialises the full 2^n × 2^n operator by Kronecker padding
	// and multiplies it into the state.
	Dense
)

func (s Strategy) String() string {
	switch s {
	case Indexed:
		return "indexed"
	case Dense:
		return "dense"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy maps "indexed" or "dense" to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "indexed", "":
		return Indexed, nil
	case "dense":
		return Dense, nil
	}
	return 0, fmt.Errorf("%w: unknown strategy %q", ErrInvalidArgument, name)
}

// Option configures a Register.
type Option func(*Register)

// WithStrategy selects the gate application strategy.
func WithStrategy(s Strategy) Option {
	return func(r *Register) {
		r.strategy = s
	}
}

// WithMemoryProbe replaces the available-memory probe. A nil probe disables
// the memory check.
func WithMemoryProbe(p MemoryProbe) Option {
	return func(r *Register) {
		r.probe = p
	}
}

// WithLogger wires a logger for gate tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Register) {
		r.log = l
	}
}

// Register holds the joint state of a fixed number of qubits.
type Register struct {
	qubits   int
	state    *mat.VecDense
	strategy Strategy
	probe    MemoryProbe
	log      zerolog.Logger
}

func newRegister(qubits int, opts []Option) *Register {
	r := &Register{
		qubits: qubits,
		probe:  SystemMemory,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// New returns a register of qubitCount qubits in the |0…0⟩ state.
func New(qubitCount int, opts ...Option) (*Register, error) {
	if qubitCount <= 0 {
		return nil, fmt.Errorf("%w: qubit count must be positive, got %d", ErrInvalidArgument, qubitCount)
	}
	if qubitCount > maxStateQubits {
		return nil, fmt.Errorf("%w: %d qubits exceeds the %d-qubit limit", ErrResourceExhausted, qubitCount, maxStateQubits)
	}
	r := newRegister(qubitCount, opts)
	if err := r.reserve(stateBytes(qubitCount), "state vector"); err != nil {
		return nil, err
	}

	data := make([]float64, 1<<qubitCount)
	data[0] = 1
	r.state = mat.NewVecDense(len(data), data)
	return r, nil
}

// FromAmplitudes returns a register holding a copy of amps. The length of
// amps must be a power of two, at least 2.
func FromAmplitudes(amps []float64, opts ...Option) (*Register, error) {
	n := len(amps)
	if n < 2 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: amplitude count %d is not a power of two >= 2", ErrInvalidArgument, n)
	}
	r := newRegister(bits.TrailingZeros(uint(n)), opts)
	if err := r.reserve(stateBytes(r.qubits), "state vector"); err != nil {
		return nil, err
	}

	data := make([]float64, n)
	copy(data, amps)
	r.state = mat.NewVecDense(n, data)
	return r, nil
}

// Qubits returns the number of qubits.
func (r *Register) Qubits() int { return r.qubits }

// Dim returns the state vector length, 2^Qubits.
func (r *Register) Dim() int { return r.state.Len() }

// Strategy returns the gate application strategy.
func (r *Register) Strategy() Strategy { return r.strategy }

// State returns a copy of the amplitudes.
func (r *Register) State() []float64 {
	out := make([]float64, r.state.Len())
	copy(out, r.amplitudes())
	return out
}

// Amplitude returns the amplitude of basis state i. It panics if i is
// outside [0, Dim()).
func (r *Register) Amplitude(i int) float64 {
	return r.state.AtVec(i)
}

// X flips the target qubit.
func (r *Register) X(target int) error { return r.ApplyGate(X, target) }

// Z flips the sign of states with the target qubit set.
func (r *Register) Z(target int) error { return r.ApplyGate(Z, target) }

// H applies a Hadamard to the target qubit.
func (r *Register) H(target int) error { return r.ApplyGate(H, target) }

// ApplyGate applies a single-qubit gate to target. On error the state is
// left unchanged.
func (r *Register) ApplyGate(g Gate, target int) error {
	if !g.valid() {
		return fmt.Errorf("%w: unknown gate %d", ErrInvalidArgument, int(g))
	}
	if err := r.checkIndex("target", target); err != nil {
		return err
	}

	start := time.Now()
	switch r.strategy {
	case Dense:
		if err := r.reserveOperator(1); err != nil {
			return err
		}
		r.multiply(singleOperator(r.qubits, g, target))
	default:
		applyPair(r.amplitudes(), r.bit(target), g.Matrix())
	}

	r.log.Debug().
		Stringer("gate", g).
		Int("target", target).
		Stringer("strategy", r.strategy).
		Dur("elapsed", time.Since(start)).
		Msg("gate applied")
	return nil
}

// CNOT flips target when control is set. On error the state is left
// unchanged.
func (r *Register) CNOT(control, target int) error {
	if err := r.checkIndex("control", control); err != nil {
		return err
	}
	if err := r.checkIndex("target", target); err != nil {
		return err
	}
	if control == target {
		return fmt.Errorf("%w: control and target are both qubit %d", ErrInvalidArgument, control)
	}

	start := time.Now()
	switch r.strategy {
	case Dense:
		if err := r.reserveOperator(2); err != nil {
			return err
		}
		r.multiply(cnotOperator(r.qubits, control, target))
	default:
		applyCNOT(r.amplitudes(), r.bit(control), r.bit(target))
	}

	r.log.Debug().
		Str("gate", "CNOT").
		Int("control", control).
		Int("target", target).
		Stringer("strategy", r.strategy).
		Dur("elapsed", time.Since(start)).
		Msg("gate applied")
	return nil
}

func (r *Register) checkIndex(role string, q int) error {
	if q < 0 || q >= r.qubits {
		return fmt.Errorf("%w: %s %d not in [0, %d]", ErrOutOfRange, role, q, r.qubits-1)
	}
	return nil
}

// bit returns the basis index bit of qubit q.
func (r *Register) bit(q int) int {
	return 1 << (r.qubits - 1 - q)
}

func (r *Register) amplitudes() []float64 {
	return r.state.RawVector().Data
}
