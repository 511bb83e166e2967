package snapshot

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qdeck/internal/register"
)

func bell(t *testing.T) *register.Register {
	t.Helper()
	reg, err := register.New(2, register.WithMemoryProbe(nil))
	require.NoError(t, err)
	require.NoError(t, reg.H(0))
	require.NoError(t, reg.CNOT(0, 1))
	return reg
}

func TestTake(t *testing.T) {
	reg := bell(t)
	s := Take(reg, "h q[0];\ncx q[0], q[1];")

	assert.NotEqual(t, uuid.Nil, s.ID)
	assert.Equal(t, 2, s.Qubits)
	assert.Equal(t, "indexed", s.Strategy)
	assert.Equal(t, reg.State(), s.Amplitudes)
	assert.False(t, s.TakenAt.IsZero())

	// The snapshot holds a copy.
	require.NoError(t, reg.X(0))
	assert.InDelta(t, 1/math.Sqrt2, s.Amplitudes[0], 1e-12)
}

func TestSaveLoadRestore(t *testing.T) {
	reg := bell(t)
	s := Take(reg, "bell")
	path := filepath.Join(t.TempDir(), "bell.msgpack")
	require.NoError(t, s.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.ID, loaded.ID)
	assert.Equal(t, s.Amplitudes, loaded.Amplitudes)
	assert.Equal(t, "bell", loaded.Source)
	assert.True(t, s.TakenAt.Equal(loaded.TakenAt))

	restored, err := loaded.Restore(register.WithMemoryProbe(nil))
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Qubits())
	assert.Equal(t, reg.State(), restored.State())

	// The restored register keeps evolving like the original.
	require.NoError(t, restored.CNOT(0, 1))
	require.NoError(t, restored.H(0))
	assert.InDelta(t, 1.0, restored.Amplitude(0), 1e-12)
}

func TestRestore_StrategyOverride(t *testing.T) {
	s := Take(bell(t), "")
	s.Strategy = "dense"

	reg, err := s.Restore(register.WithMemoryProbe(nil))
	require.NoError(t, err)
	assert.Equal(t, register.Dense, reg.Strategy())

	reg, err = s.Restore(register.WithStrategy(register.Indexed), register.WithMemoryProbe(nil))
	require.NoError(t, err)
	assert.Equal(t, register.Indexed, reg.Strategy())
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := Decode([]byte{0xc1})
	assert.ErrorIs(t, err, ErrCorrupt)

	s := Take(bell(t), "")
	s.Amplitudes = s.Amplitudes[:3]
	data, err := s.Encode()
	require.NoError(t, err)
	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrCorrupt)

	s = Take(bell(t), "")
	s.Strategy = "sparse"
	data, err = s.Encode()
	require.NoError(t, err)
	_, err = Decode(data)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
