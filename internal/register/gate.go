package register

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Gate identifies a single-qubit gate.
type Gate int

const (
	X Gate = iota
	Z
	H
)

func (g Gate) String() string {
	switch g {
	case X:
		return "X"
	case Z:
		return "Z"
	case H:
		return "H"
	default:
		return fmt.Sprintf("Gate(%d)", int(g))
	}
}

// ParseGate maps a gate name (case-insensitive) to its Gate.
func ParseGate(name string) (Gate, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "X":
		return X, nil
	case "Z":
		return Z, nil
	case "H":
		return H, nil
	}
	return 0, fmt.Errorf("%w: unknown gate %q", ErrInvalidArgument, name)
}

// Fixed 2×2 matrices. Row-major.
var (
	identity2 = mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	pauliX    = mat.NewDense(2, 2, []float64{0, 1, 1, 0})
	pauliZ    = mat.NewDense(2, 2, []float64{1, 0, 0, -1})
	hadamard  = mat.NewDense(2, 2, []float64{
		1 / math.Sqrt2, 1 / math.Sqrt2,
		1 / math.Sqrt2, -1 / math.Sqrt2,
	})

	// |0⟩⟨0| and |1⟩⟨1|
	project0 = mat.NewDense(2, 2, []float64{1, 0, 0, 0})
	project1 = mat.NewDense(2, 2, []float64{0, 0, 0, 1})
)

// Matrix returns the gate's 2×2 matrix. The result must not be modified.
func (g Gate) Matrix() mat.Matrix {
	switch g {
	case X:
		return pauliX
	case Z:
		return pauliZ
	case H:
		return hadamard
	}
	return nil
}

// valid reports whether g is one of the known gates.
func (g Gate) valid() bool {
	return g == X || g == Z || g == H
}
