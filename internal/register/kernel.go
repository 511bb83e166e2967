package register

import "gonum.org/v1/gonum/mat"

// applyPair applies the 2×2 matrix m to every amplitude pair (i, i|bit) with
// the target bit clear in i.
func applyPair(amps []float64, bit int, m mat.Matrix) {
	m00, m01 := m.At(0, 0), m.At(0, 1)
	m10, m11 := m.At(1, 0), m.At(1, 1)
	for i := range amps {
		if i&bit != 0 {
			continue
		}
		j := i | bit
		a0, a1 := amps[i], amps[j]
		amps[i] = m00*a0 + m01*a1
		amps[j] = m10*a0 + m11*a1
	}
}

// applyCNOT swaps the target pair of every basis state whose control bit is set.
func applyCNOT(amps []float64, cBit, tBit int) {
	for i := range amps {
		if i&cBit != 0 && i&tBit == 0 {
			j := i | tBit
			amps[i], amps[j] = amps[j], amps[i]
		}
	}
}
