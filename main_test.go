package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the app with a clean environment and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{
		"QDECK_LOG_LEVEL", "QDECK_LOG_PRETTY", "QDECK_LOG_FILE", "QDECK_STRATEGY",
		"QDECK_BENCH_PARALLEL", "QDECK_BENCH_SUITE", "QDECK_QASM_FILE",
	} {
		t.Setenv(key, "")
	}
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var out, errOut bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = &errOut
	err := a.Run(append([]string{"qdeck", "--log-level", "disabled"}, args...))
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const bellQASM = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
h q[0];
cx q[0], q[1];
`

func TestCLI_RunAndInspect(t *testing.T) {
	src := writeFile(t, "bell.qasm", bellQASM)
	snap := filepath.Join(t.TempDir(), "bell.msgpack")

	out, err := runCLI(t, "--strategy", "dense", "run", "--out", snap, src)
	require.NoError(t, err)
	assert.Contains(t, out, "|00⟩")
	assert.Contains(t, out, "|11⟩")
	assert.Contains(t, out, "+0.707107")
	assert.NotContains(t, out, "|01⟩")

	out, err = runCLI(t, "inspect", "--source", snap)
	require.NoError(t, err)
	assert.Contains(t, out, "qubits:   2")
	assert.Contains(t, out, "strategy: dense")
	assert.Contains(t, out, "norm:     1.000000")
	assert.Contains(t, out, "cx q[0], q[1];")
}

func TestCLI_RunUpToStep(t *testing.T) {
	src := writeFile(t, "bell.qasm", bellQASM)

	out, err := runCLI(t, "run", "--step", "0", src)
	require.NoError(t, err)
	assert.Contains(t, out, "|10⟩")
	assert.NotContains(t, out, "|11⟩")
}

func TestCLI_RunErrors(t *testing.T) {
	_, err := runCLI(t, "run")
	assert.Error(t, err)

	src := writeFile(t, "bad.qasm", "qreg q[1];\nmeasure q[0] -> c[0];\n")
	_, err = runCLI(t, "run", src)
	assert.ErrorContains(t, err, "unsupported statement")

	_, err = runCLI(t, "--strategy", "sparse", "run", src)
	assert.ErrorContains(t, err, "unknown strategy")
}

func TestCLI_Bench(t *testing.T) {
	out, err := runCLI(t, "bench", "--reps", "1", "-s", "deutsch-jozsa", "-s", "ghz")
	require.NoError(t, err)
	assert.Contains(t, out, "deutsch-jozsa")
	assert.Contains(t, out, "ghz")
	assert.NotContains(t, out, "hadamard")
}

func TestCLI_BenchDumpAndLoad(t *testing.T) {
	out, err := runCLI(t, "bench", "--dump", "-s", "cnot")
	require.NoError(t, err)
	assert.Contains(t, out, "name: cnot")

	suite := writeFile(t, "suite.yaml", out)
	out, err = runCLI(t, "bench", "--suite", suite, "--reps", "1", "--parallel", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "cnot")

	_, err = runCLI(t, "bench", "-s", "teleport")
	assert.Error(t, err)
}
