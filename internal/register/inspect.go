package register

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Clone returns an independent copy of the register.
func (r *Register) Clone() *Register {
	c := *r
	c.state = mat.VecDenseCopyOf(r.state)
	return &c
}

// Reset returns the register to |0…0⟩.
func (r *Register) Reset() {
	r.state.Zero()
	r.state.SetVec(0, 1)
}

// Norm returns the Euclidean norm of the state vector.
func (r *Register) Norm() float64 {
	return mat.Norm(r.state, 2)
}

// QubitProbability holds the marginal probabilities of one qubit.
type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

// Probabilities returns the marginal probability of each qubit reading 0 or 1.
func (r *Register) Probabilities() []QubitProbability {
	probs := make([]QubitProbability, r.qubits)
	for i, amp := range r.amplitudes() {
		p := amp * amp
		for q := range r.qubits {
			if i&r.bit(q) != 0 {
				probs[q].Prob1 += p
			} else {
				probs[q].Prob0 += p
			}
		}
	}
	return probs
}

// BasisState is one computational basis state with a non-negligible amplitude.
type BasisState struct {
	Index       int
	Label       string // bitstring, qubit 0 leftmost
	Amplitude   float64
	Probability float64
}

// BasisStates lists basis states whose probability exceeds eps, in index order.
func (r *Register) BasisStates(eps float64) []BasisState {
	var states []BasisState
	for i, amp := range r.amplitudes() {
		p := amp * amp
		if p <= eps {
			continue
		}
		states = append(states, BasisState{
			Index:       i,
			Label:       r.Label(i),
			Amplitude:   amp,
			Probability: p,
		})
	}
	return states
}

// Label formats basis index i as a bitstring with qubit 0 leftmost.
func (r *Register) Label(i int) string {
	return fmt.Sprintf("%0*b", r.qubits, i)
}
