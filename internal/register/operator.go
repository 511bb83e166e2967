package register

import "gonum.org/v1/gonum/mat"

// padOperator builds the full 2^n × 2^n operator as the Kronecker product
// factor(0) ⊗ factor(1) ⊗ … ⊗ factor(n-1), accumulated left to right so that
// qubit 0 is the most-significant factor.
func padOperator(qubits int, factor func(pos int) mat.Matrix) *mat.Dense {
	op := mat.DenseCopyOf(factor(0))
	for pos := 1; pos < qubits; pos++ {
		var next mat.Dense
		next.Kronecker(op, factor(pos))
		op = &next
	}
	return op
}

// singleOperator places g at target and the identity everywhere else.
func singleOperator(qubits int, g Gate, target int) *mat.Dense {
	m := g.Matrix()
	return padOperator(qubits, func(pos int) mat.Matrix {
		if pos == target {
			return m
		}
		return identity2
	})
}

// cnotOperator returns P0(control)⊗I(target) + P1(control)⊗X(target), padded
// with identities.
func cnotOperator(qubits, control, target int) *mat.Dense {
	passive := padOperator(qubits, func(pos int) mat.Matrix {
		if pos == control {
			return project0
		}
		return identity2
	})
	active := padOperator(qubits, func(pos int) mat.Matrix {
		switch pos {
		case control:
			return project1
		case target:
			return pauliX
		}
		return identity2
	})
	passive.Add(passive, active)
	return passive
}

// multiply replaces the state with op·state.
func (r *Register) multiply(op mat.Matrix) {
	var next mat.VecDense
	next.MulVec(op, r.state)
	r.state.CopyVec(&next)
}
