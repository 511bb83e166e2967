package register

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-12

var strategies = []Strategy{Indexed, Dense}

func newReg(t *testing.T, n int, s Strategy) *Register {
	t.Helper()
	r, err := New(n, WithStrategy(s), WithMemoryProbe(nil))
	require.NoError(t, err)
	return r
}

func TestNew_InitialState(t *testing.T) {
	for n := 1; n <= 6; n++ {
		r := newReg(t, n, Indexed)
		state := r.State()
		require.Len(t, state, 1<<n)
		assert.Equal(t, 1.0, state[0])
		for i := 1; i < len(state); i++ {
			assert.Zero(t, state[i], "index %d", i)
		}
		assert.Equal(t, n, r.Qubits())
		assert.Equal(t, 1<<n, r.Dim())
	}
}

func TestNew_RejectsNonPositive(t *testing.T) {
	for _, n := range []int{0, -1, -10} {
		r, err := New(n)
		assert.Nil(t, r)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestNew_RejectsOversizeRegister(t *testing.T) {
	_, err := New(maxStateQubits+1, WithMemoryProbe(nil))
	assert.ErrorIs(t, err, ErrResourceExhausted)

	_, err = New(10, WithMemoryProbe(func() (uint64, error) { return 1024, nil }))
	assert.ErrorIs(t, err, ErrResourceExhausted)
}

func TestHadamard_SelfInverse(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			r := newReg(t, 1, s)
			require.NoError(t, r.H(0))
			assert.InDeltaSlice(t, []float64{1 / math.Sqrt2, 1 / math.Sqrt2}, r.State(), tol)

			require.NoError(t, r.H(0))
			assert.InDeltaSlice(t, []float64{1, 0}, r.State(), tol)
		})
	}
}

func TestZ(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			r := newReg(t, 3, s)
			require.NoError(t, r.Z(0))
			assert.Equal(t, []float64{1, 0, 0, 0, 0, 0, 0, 0}, r.State())

			// |100⟩ has qubit 0 set, so Z negates it.
			require.NoError(t, r.X(0))
			require.NoError(t, r.Z(0))
			assert.InDeltaSlice(t, []float64{0, 0, 0, 0, -1, 0, 0, 0}, r.State(), tol)
		})
	}
}

func TestX_FlipsTarget(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			r := newReg(t, 3, s)
			require.NoError(t, r.X(2))
			assert.InDelta(t, 1.0, r.Amplitude(1), tol)

			require.NoError(t, r.X(0))
			assert.InDelta(t, 1.0, r.Amplitude(5), tol)
			assert.InDelta(t, 0.0, r.Amplitude(1), tol)
		})
	}
}

func TestCNOT_TruthTable(t *testing.T) {
	cases := []struct {
		name  string
		start int
		want  int
	}{
		{"control clear target clear", 0, 0},
		{"control clear target set", 1, 1},
		{"control set target clear", 2, 3},
		{"control set target set", 3, 2},
	}
	for _, s := range strategies {
		for _, tc := range cases {
			t.Run(s.String()+"/"+tc.name, func(t *testing.T) {
				amps := make([]float64, 4)
				amps[tc.start] = 1
				r, err := FromAmplitudes(amps, WithStrategy(s), WithMemoryProbe(nil))
				require.NoError(t, err)

				require.NoError(t, r.CNOT(0, 1))
				want := make([]float64, 4)
				want[tc.want] = 1
				assert.InDeltaSlice(t, want, r.State(), tol)
			})
		}
	}
}

func TestCNOT_ReversedRoles(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			r := newReg(t, 2, s)
			require.NoError(t, r.X(1))       // |01⟩
			require.NoError(t, r.CNOT(1, 0)) // control qubit 1 is set
			assert.InDelta(t, 1.0, r.Amplitude(3), tol)
		})
	}
}

func TestGHZ(t *testing.T) {
	for _, s := range strategies {
		for _, n := range []int{2, 4, 7} {
			t.Run(fmt.Sprintf("%s/n=%d", s, n), func(t *testing.T) {
				r := newReg(t, n, s)
				require.NoError(t, r.H(0))
				for q := 1; q < n; q++ {
					require.NoError(t, r.CNOT(0, q))
				}

				state := r.State()
				last := len(state) - 1
				for i, amp := range state {
					switch i {
					case 0, last:
						assert.InDelta(t, 1/math.Sqrt2, amp, tol, "index %d", i)
					default:
						assert.InDelta(t, 0.0, amp, tol, "index %d", i)
					}
				}
			})
		}
	}
}

func TestIndexValidation_LeavesStateUnchanged(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.String(), func(t *testing.T) {
			r := newReg(t, 3, s)
			require.NoError(t, r.H(1))
			before := r.State()

			assert.ErrorIs(t, r.ApplyGate(H, 3), ErrOutOfRange)
			assert.ErrorIs(t, r.ApplyGate(X, -1), ErrOutOfRange)
			assert.ErrorIs(t, r.CNOT(0, 3), ErrOutOfRange)
			assert.ErrorIs(t, r.CNOT(-1, 2), ErrOutOfRange)
			assert.ErrorIs(t, r.CNOT(1, 1), ErrInvalidArgument)
			assert.ErrorIs(t, r.ApplyGate(Gate(42), 0), ErrInvalidArgument)

			assert.Equal(t, before, r.State())
		})
	}
}

func TestState_Idempotent(t *testing.T) {
	r := newReg(t, 4, Indexed)
	require.NoError(t, r.H(2))
	first := r.State()
	second := r.State()
	assert.Equal(t, first, second)

	// The returned slice is a copy.
	first[0] = 42
	assert.NotEqual(t, 42.0, r.Amplitude(0))
}

func TestStrategies_Agree(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n = 5
	dense := newReg(t, n, Dense)
	indexed := newReg(t, n, Indexed)

	for range 60 {
		if rng.Intn(4) == 0 {
			c := rng.Intn(n)
			tg := (c + 1 + rng.Intn(n-1)) % n
			require.NoError(t, dense.CNOT(c, tg))
			require.NoError(t, indexed.CNOT(c, tg))
			continue
		}
		g := Gate(rng.Intn(3))
		q := rng.Intn(n)
		require.NoError(t, dense.ApplyGate(g, q))
		require.NoError(t, indexed.ApplyGate(g, q))
	}

	assert.InDeltaSlice(t, dense.State(), indexed.State(), 1e-9)
	assert.InDelta(t, 1.0, dense.Norm(), 1e-9)
	assert.InDelta(t, 1.0, indexed.Norm(), 1e-9)
}

func TestDense_ResourceGuard(t *testing.T) {
	limit := stateBytes(6) + operatorBytes(6, 1)
	r, err := New(6, WithStrategy(Dense), WithMemoryProbe(func() (uint64, error) { return limit, nil }))
	require.NoError(t, err)

	require.NoError(t, r.H(0))
	before := r.State()

	// CNOT materialises two operators and no longer fits.
	assert.ErrorIs(t, r.CNOT(0, 1), ErrResourceExhausted)
	assert.Equal(t, before, r.State())

	// The indexed strategy never builds operators.
	r.strategy = Indexed
	assert.NoError(t, r.CNOT(0, 1))
}

func TestDense_RefusesLargeRegister(t *testing.T) {
	r, err := New(maxDenseQubits+1, WithStrategy(Dense), WithMemoryProbe(nil))
	require.NoError(t, err)

	assert.ErrorIs(t, r.H(0), ErrResourceExhausted)
	assert.ErrorIs(t, r.CNOT(0, 1), ErrResourceExhausted)
	assert.Equal(t, 1.0, r.Amplitude(0))
	assert.Equal(t, 0.0, r.Amplitude(1<<maxDenseQubits))
}

func TestProbeFailure_UsesFallbackBudget(t *testing.T) {
	var buf bytes.Buffer
	failing := func() (uint64, error) { return 0, errors.New("meminfo unavailable") }
	opts := []Option{WithMemoryProbe(failing), WithLogger(zerolog.New(&buf))}

	_, err := New(maxStateQubits, opts...)
	assert.ErrorIs(t, err, ErrResourceExhausted)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.Split(buf.Bytes(), []byte("\n"))[0], &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "state vector", entry["allocation"])
	assert.Equal(t, "meminfo unavailable", entry["error"])

	// Small registers still fit the fallback budget.
	r, err := New(4, append(opts, WithStrategy(Dense))...)
	require.NoError(t, err)
	assert.NoError(t, r.H(0))
}

func TestAmplitude_PanicsOutOfRange(t *testing.T) {
	r := newReg(t, 2, Indexed)
	assert.Panics(t, func() { r.Amplitude(4) })
	assert.Panics(t, func() { r.Amplitude(-1) })
}

func TestFromAmplitudes(t *testing.T) {
	r, err := FromAmplitudes([]float64{0, 0, 1, 0, 0, 0, 0, 0}, WithMemoryProbe(nil))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Qubits())
	assert.Equal(t, 1.0, r.Amplitude(2))

	for _, bad := range [][]float64{nil, {1}, {1, 0, 0}} {
		_, err := FromAmplitudes(bad)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("Dense")
	require.NoError(t, err)
	assert.Equal(t, Dense, s)

	s, err = ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, Indexed, s)

	_, err = ParseStrategy("sparse")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseGate(t *testing.T) {
	for name, want := range map[string]Gate{"x": X, "Z": Z, " h ": H} {
		g, err := ParseGate(name)
		require.NoError(t, err)
		assert.Equal(t, want, g)
	}
	_, err := ParseGate("Y")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
