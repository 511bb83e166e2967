package register

import (
	"fmt"
	"math"
	"runtime/debug"

	"github.com/shirou/gopsutil/v3/mem"
)

// Hard ceilings applied before the memory probe is consulted. Beyond them the
// byte counts no longer fit the Go allocator (or a uint64 for dense operators).
const (
	maxStateQubits = 45
	maxDenseQubits = 22
)

// fallbackBudget bounds allocations when the probe fails and no runtime
// memory limit is set.
const fallbackBudget uint64 = 1 << 30

// MemoryProbe reports how many bytes can currently be allocated.
type MemoryProbe func() (uint64, error)

// SystemMemory reports the host's available memory.
func SystemMemory() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("failed to read virtual memory stats: %w", err)
	}
	return vm.Available, nil
}

func stateBytes(qubits int) uint64 {
	return 8 << uint(qubits)
}

// operatorBytes is the footprint of terms dense D×D operators.
func operatorBytes(qubits, terms int) uint64 {
	return uint64(terms) * 8 << uint(2*qubits)
}

// fallbackLimit is the Go runtime soft memory limit when one is set, else
// fallbackBudget.
func fallbackLimit() uint64 {
	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
		return uint64(limit)
	}
	return fallbackBudget
}

// reserve checks that bytes fit in memory. When the probe fails the
// allocation is held to fallbackLimit instead.
func (r *Register) reserve(bytes uint64, what string) error {
	if r.probe == nil {
		return nil
	}
	avail, err := r.probe()
	if err != nil {
		avail = fallbackLimit()
		r.log.Warn().
			Err(err).
			Str("allocation", what).
			Uint64("budget", avail).
			Msg("memory probe failed, using fallback budget")
	}
	if bytes > avail {
		return fmt.Errorf("%w: %s needs %d bytes, %d available", ErrResourceExhausted, what, bytes, avail)
	}
	return nil
}

func (r *Register) reserveOperator(terms int) error {
	if r.qubits > maxDenseQubits {
		return fmt.Errorf("%w: dense operator for %d qubits exceeds the %d-qubit limit",
			ErrResourceExhausted, r.qubits, maxDenseQubits)
	}
	return r.reserve(operatorBytes(r.qubits, terms), "dense operator")
}
